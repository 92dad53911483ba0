package indexer

import (
	"context"

	"go.uber.org/zap"

	"chainSync/internal/model"
)

// BlockSyncer syncs one height.
type BlockSyncer interface {
	SyncBlock(ctx context.Context, number uint64) error
}

// Reconciler repairs gaps and orphans around a synced height.
type Reconciler interface {
	CheckMissing(ctx context.Context, block uint64) error
	CheckOrphan(ctx context.Context, block uint64) error
}

// Processor runs one block job: gap check, sync, then an orphan check
// orphanDepth blocks behind.
type Processor struct {
	syncer      BlockSyncer
	reconciler  Reconciler
	orphanDepth uint64
	logger      *zap.Logger
}

func NewProcessor(syncer BlockSyncer, reconciler Reconciler, orphanDepth uint64, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{syncer: syncer, reconciler: reconciler, orphanDepth: orphanDepth, logger: logger}
}

// Process satisfies queue.Processor. Reconciliation failures are logged; a
// sync failure is returned so the job is retried.
func (p *Processor) Process(ctx context.Context, job model.BlockJob) error {
	if p.reconciler != nil {
		if err := p.reconciler.CheckMissing(ctx, job.Block); err != nil {
			p.logger.Warn("check missing blocks failed", zap.Uint64("block", job.Block), zap.Error(err))
		}
	}

	if err := p.syncer.SyncBlock(ctx, job.Block); err != nil {
		return err
	}

	if p.reconciler != nil && p.orphanDepth > 0 && job.Block > p.orphanDepth {
		target := job.Block - p.orphanDepth
		if err := p.reconciler.CheckOrphan(ctx, target); err != nil {
			p.logger.Warn("check orphan failed", zap.Uint64("block", target), zap.Error(err))
		}
	}
	return nil
}
