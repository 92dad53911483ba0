package indexer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BackfillConfig holds settings for a historical range sync.
type BackfillConfig struct {
	ChainID           uint64
	FromBlock         uint64
	ToBlock           uint64
	BatchSize         uint64
	Workers           int
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

// Backfill syncs a block range batch by batch, checkpointing after each.
type Backfill struct {
	cfg        BackfillConfig
	head       HeadSource
	syncer     BlockSyncer
	logger     *zap.Logger
	checkpoint *CheckpointStore
}

func NewBackfill(cfg BackfillConfig, head HeadSource, syncer BlockSyncer, logger *zap.Logger) *Backfill {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backfill{
		cfg:        cfg,
		head:       head,
		syncer:     syncer,
		logger:     logger,
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
	}
}

// Run executes the backfill.
func (b *Backfill) Run(ctx context.Context) error {
	if b.syncer == nil {
		return fmt.Errorf("syncer is nil")
	}
	if b.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}
	workers := b.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	from := b.cfg.FromBlock
	to := b.cfg.ToBlock
	if to == 0 {
		if b.head == nil {
			return fmt.Errorf("to block is required")
		}
		latest, err := b.head.LatestBlockNumber(ctx)
		if err != nil {
			return fmt.Errorf("get latest block: %w", err)
		}
		to = latest
	}

	start := from
	cp, ok, err := b.checkpoint.Load(b.cfg.ChainID)
	if err != nil {
		return err
	}
	if ok {
		if next, resume := cp.Next(from, to); resume {
			from = next
			b.logger.Info("resume from checkpoint", zap.Uint64("last_processed", cp.LastProcessedBlock), zap.Uint64("from", from))
		} else {
			b.logger.Info("checkpoint outside requested range, starting over",
				zap.Uint64("last_processed", cp.LastProcessedBlock),
				zap.Uint64("from", from),
				zap.Uint64("to", to),
			)
		}
	}

	if from > to {
		b.logger.Info("nothing to sync", zap.Uint64("from", from), zap.Uint64("to", to))
		return nil
	}

	ranges, err := SplitRange(from, to, b.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, blockRange := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		started := time.Now()
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for n := blockRange.From; n <= blockRange.To; n++ {
			n := n // per-iteration copy; module builds with go 1.21 loop semantics
			g.Go(func() error {
				policy := retryPolicy{
					MaxRetries: b.cfg.MaxRetries,
					Backoff:    b.cfg.RetryBackoff,
					OnRetry: func(attempt int, delay time.Duration, err error) {
						b.logger.Warn("sync block failed, retrying",
							zap.Uint64("block", n),
							zap.Int("attempt", attempt),
							zap.Error(err),
						)
					},
				}
				return policy.do(gctx, func(ctx context.Context) error {
					return b.syncer.SyncBlock(ctx, n)
				})
			})
		}
		if err := g.Wait(); err != nil {
			return fmt.Errorf("backfill %d-%d: %w", blockRange.From, blockRange.To, err)
		}

		if err := b.checkpoint.Save(Checkpoint{
			ChainID:            b.cfg.ChainID,
			FromBlock:          start,
			ToBlock:            to,
			LastProcessedBlock: blockRange.To,
		}); err != nil {
			return err
		}

		b.logger.Info("batch complete",
			zap.Uint64("from", blockRange.From),
			zap.Uint64("to", blockRange.To),
			zap.Uint64("blocks", blockRange.Len()),
			zap.Duration("elapsed", time.Since(started)),
		)
	}

	return nil
}
