package reconcile

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"chainSync/internal/model"
)

// Submitter enqueues block jobs.
type Submitter interface {
	Submit(ctx context.Context, job model.BlockJob) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, job model.BlockJob) error

func (f SubmitterFunc) Submit(ctx context.Context, job model.BlockJob) error {
	return f(ctx, job)
}

// HashSource returns the canonical hash at a height.
type HashSource interface {
	BlockHash(ctx context.Context, number uint64) (common.Hash, error)
}

// BlockStore is the subset of the relational store orphan repair needs.
type BlockStore interface {
	GetBlockWithNumber(ctx context.Context, number uint64, excludeHash common.Hash) (*model.Block, error)
	DeleteBlock(ctx context.Context, number uint64, hash common.Hash) error
	DeleteBlockTraces(ctx context.Context, blockHash common.Hash) error
	DeleteBlockLogs(ctx context.Context, blockHash common.Hash) error
	DeleteBlockTransactions(ctx context.Context, blockHash common.Hash) error
}

// EventRemover retracts derived rows of an orphaned block.
type EventRemover interface {
	RemoveEvents(ctx context.Context, block uint64, blockHash common.Hash) error
}

// Reconciler detects gaps behind the realtime pointer and repairs orphans.
type Reconciler struct {
	pointer  PointerStore
	jobs     Submitter
	chain    HashSource
	store    BlockStore
	removers []EventRemover
	logger   *zap.Logger
}

func NewReconciler(pointer PointerStore, jobs Submitter, chain HashSource, store BlockStore, logger *zap.Logger, removers ...EventRemover) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{
		pointer:  pointer,
		jobs:     jobs,
		chain:    chain,
		store:    store,
		removers: removers,
		logger:   logger,
	}
}

// CheckMissing submits a job for every height skipped between the stored
// pointer and block, then advances the pointer to block. The pointer only
// moves once every gap job is queued, so a failure in between resubmits the
// gap on the next call instead of losing it.
func (r *Reconciler) CheckMissing(ctx context.Context, block uint64) error {
	latest, ok, err := r.pointer.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return r.pointer.Save(ctx, block)
	}
	if block <= latest {
		return nil
	}

	for h := latest + 1; h < block; h++ {
		if err := r.jobs.Submit(ctx, model.BlockJob{Block: h}); err != nil {
			return fmt.Errorf("submit missing block %d: %w", h, err)
		}
	}
	if block-latest > 1 {
		r.logger.Info("missing blocks submitted",
			zap.Uint64("from", latest+1),
			zap.Uint64("to", block-1),
		)
	}
	return r.pointer.Save(ctx, block)
}

// CheckOrphan removes a stored block at height block whose hash is no longer
// canonical, with everything derived from it, and resubmits the height so the
// canonical block is synced in its place.
func (r *Reconciler) CheckOrphan(ctx context.Context, block uint64) error {
	upstream, err := r.chain.BlockHash(ctx, block)
	if err != nil {
		return fmt.Errorf("upstream hash %d: %w", block, err)
	}

	orphan, err := r.store.GetBlockWithNumber(ctx, block, upstream)
	if err != nil {
		return err
	}
	if orphan == nil {
		return nil
	}

	r.logger.Info("orphan block detected",
		zap.Uint64("block", block),
		zap.String("orphan_hash", orphan.Hash.Hex()),
		zap.String("upstream_hash", upstream.Hex()),
	)

	for _, remover := range r.removers {
		if err := remover.RemoveEvents(ctx, block, orphan.Hash); err != nil {
			return err
		}
	}
	if err := r.store.DeleteBlockTraces(ctx, orphan.Hash); err != nil {
		return err
	}
	if err := r.store.DeleteBlockLogs(ctx, orphan.Hash); err != nil {
		return err
	}
	if err := r.store.DeleteBlockTransactions(ctx, orphan.Hash); err != nil {
		return err
	}
	if err := r.store.DeleteBlock(ctx, block, orphan.Hash); err != nil {
		return err
	}

	if r.jobs == nil {
		return nil
	}
	if err := r.jobs.Submit(ctx, model.BlockJob{Block: block}); err != nil {
		return fmt.Errorf("resubmit block %d: %w", block, err)
	}
	return nil
}
