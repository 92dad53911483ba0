package attribution

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"chainSync/internal/model"
)

// TxSource looks up a transaction by hash.
type TxSource interface {
	Transaction(ctx context.Context, txHash common.Hash) (model.Transaction, bool, error)
}

// Routers maps router contracts to the source they represent.
type Routers map[common.Address]model.Source

// ParseRouters builds Routers from address=domain pairs. Source ids follow
// the sorted address order so they are stable across restarts.
func ParseRouters(pairs map[string]string) (Routers, error) {
	addresses := make([]common.Address, 0, len(pairs))
	domains := make(map[common.Address]string, len(pairs))
	for addr, domain := range pairs {
		addr = strings.TrimSpace(addr)
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid router address: %s", addr)
		}
		a := common.HexToAddress(addr)
		addresses = append(addresses, a)
		domains[a] = strings.TrimSpace(domain)
	}
	sort.Slice(addresses, func(i, j int) bool {
		return addresses[i].Hex() < addresses[j].Hex()
	})

	routers := make(Routers, len(addresses))
	for i, a := range addresses {
		routers[a] = model.Source{ID: i + 1, Domain: domains[a]}
	}
	return routers, nil
}

// RouterAttributor attributes trades routed through known contracts. When a
// transaction targets a router, its sender is the real taker.
type RouterAttributor struct {
	routers Routers
	txs     TxSource
}

func NewRouterAttributor(routers Routers, txs TxSource) *RouterAttributor {
	return &RouterAttributor{routers: routers, txs: txs}
}

// Extract returns attribution for a transaction; empty when nothing is known.
func (a *RouterAttributor) Extract(ctx context.Context, txHash common.Hash, _ model.EventKind) (model.Attribution, error) {
	if a.txs == nil || len(a.routers) == 0 {
		return model.Attribution{}, nil
	}
	tx, ok, err := a.txs.Transaction(ctx, txHash)
	if err != nil {
		return model.Attribution{}, err
	}
	if !ok || tx.To == nil {
		return model.Attribution{}, nil
	}
	source, ok := a.routers[*tx.To]
	if !ok {
		return model.Attribution{}, nil
	}

	taker := tx.From
	src := source
	return model.Attribution{
		Taker:            &taker,
		AggregatorSource: &src,
		FillSource:       &src,
	}, nil
}
