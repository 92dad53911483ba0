package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"chainSync/internal/chain"
	"chainSync/internal/model"
)

// Handler decodes the events of one protocol kind into the accumulator.
// Handlers only append to data. A returned error aborts the batch and is
// reserved for cancellation; per-event failures are logged and skipped.
type Handler interface {
	Kind() model.EventKind
	Handle(hctx HandlerContext, events []model.CandidateEvent, data *model.OnChainData) error
}

// TraceSource returns the call trace of a transaction.
type TraceSource interface {
	TransactionTrace(ctx context.Context, txHash common.Hash) (*chain.CallFrame, error)
}

// ReceiptSource returns the receipt of a transaction.
type ReceiptSource interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// PoolSource resolves pool parameters.
type PoolSource interface {
	PoolDetails(ctx context.Context, pool common.Address) (model.PoolDetails, error)
}

// Pricer converts a currency amount at a point in time.
type Pricer interface {
	NativeAndUSDPrice(ctx context.Context, currency common.Address, amount *big.Int, timestamp uint64) (model.Prices, error)
}

// Attributor resolves routing metadata for a transaction.
type Attributor interface {
	Extract(ctx context.Context, txHash common.Hash, kind model.EventKind) (model.Attribution, error)
}

// HandlerContext provides shared dependencies for handlers.
type HandlerContext struct {
	Context    context.Context
	Traces     TraceSource
	Receipts   ReceiptSource
	Pools      PoolSource
	Pricer     Pricer
	Attributor Attributor
	Logger     *zap.Logger
}

func (h HandlerContext) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h HandlerContext) ctx() context.Context {
	if h.Context == nil {
		return context.Background()
	}
	return h.Context
}

// Registry maps protocol kinds to their handler.
type Registry struct {
	handlers map[model.EventKind]Handler
}

func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{handlers: make(map[model.EventKind]Handler, len(handlers))}
	for _, h := range handlers {
		r.handlers[h.Kind()] = h
	}
	return r
}

// Handler returns the handler for a kind.
func (r *Registry) Handler(kind model.EventKind) (Handler, bool) {
	h, ok := r.handlers[kind]
	return h, ok
}

// Dispatch runs every non-empty bucket of the batch through its handler, in
// bucket order, and returns the batch accumulator.
func (r *Registry) Dispatch(hctx HandlerContext, batch model.EventsBatch) (*model.OnChainData, error) {
	data := model.NewOnChainData(batch.ID)
	for _, bucket := range batch.Events {
		if len(bucket.Events) == 0 {
			continue
		}
		handler, ok := r.handlers[bucket.Kind]
		if !ok {
			hctx.logger().Debug("no handler for kind",
				zap.String("kind", string(bucket.Kind)),
				zap.String("tx_hash", batch.TxHash.Hex()),
				zap.Int("events", len(bucket.Events)),
			)
			continue
		}
		handlerEvents.WithLabelValues(string(bucket.Kind)).Add(float64(len(bucket.Events)))
		if err := handler.Handle(hctx, bucket.Events, data); err != nil {
			return nil, fmt.Errorf("handle %s events of %s: %w", bucket.Kind, batch.TxHash.Hex(), err)
		}
	}
	return data, nil
}
