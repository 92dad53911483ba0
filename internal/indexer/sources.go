package indexer

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"chainSync/internal/chain"
	"chainSync/internal/model"
)

// blockReceipts serves receipts already fetched for the block, falling back
// to the node for anything else.
type blockReceipts struct {
	byHash map[common.Hash]*types.Receipt
	chain  ChainSource
}

func newBlockReceipts(receipts []*types.Receipt, chain ChainSource) *blockReceipts {
	byHash := make(map[common.Hash]*types.Receipt, len(receipts))
	for _, r := range receipts {
		byHash[r.TxHash] = r
	}
	return &blockReceipts{byHash: byHash, chain: chain}
}

func (b *blockReceipts) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if r, ok := b.byHash[txHash]; ok {
		return r, nil
	}
	return b.chain.TransactionReceipt(ctx, txHash)
}

// traceCache reads traces from the store first, then the node. Traces
// fetched from the node are saved against the block being synced.
type traceCache struct {
	store     BlockStore
	chain     ChainSource
	block     uint64
	blockHash common.Hash
	logger    *zap.Logger
}

func (t *traceCache) TransactionTrace(ctx context.Context, txHash common.Hash) (*chain.CallFrame, error) {
	frame, ok, err := t.store.GetTrace(ctx, txHash)
	if err != nil {
		return nil, err
	}
	if ok {
		return frame, nil
	}

	frame, err = t.chain.TransactionTrace(ctx, txHash)
	if err != nil {
		return nil, fmt.Errorf("trace %s: %w", txHash.Hex(), err)
	}
	trace := chain.TxTrace{TxHash: txHash, Result: *frame}
	if err := t.store.SaveTraces(ctx, t.block, t.blockHash, []chain.TxTrace{trace}); err != nil {
		t.logger.Warn("save fetched trace failed", zap.String("tx_hash", txHash.Hex()), zap.Error(err))
	}
	return frame, nil
}

// blockTxs answers transaction lookups from the block being synced.
type blockTxs map[common.Hash]model.Transaction

func (b blockTxs) Transaction(_ context.Context, txHash common.Hash) (model.Transaction, bool, error) {
	tx, ok := b[txHash]
	return tx, ok, nil
}
