package indexer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chainSync/internal/model"
)

// HeadSource reports the chain head.
type HeadSource interface {
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// JobSubmitter enqueues block jobs.
type JobSubmitter interface {
	Submit(ctx context.Context, job model.BlockJob) error
}

// Follower polls the chain head and submits a job for each new head. Heights
// skipped between polls are recovered by the gap check of the next job.
type Follower struct {
	head     HeadSource
	jobs     JobSubmitter
	interval time.Duration
	logger   *zap.Logger
	last     uint64
}

func NewFollower(head HeadSource, jobs JobSubmitter, interval time.Duration, logger *zap.Logger) *Follower {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Follower{head: head, jobs: jobs, interval: interval, logger: logger}
}

// Run polls until ctx is done.
func (f *Follower) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		if err := f.poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			f.logger.Warn("poll head failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (f *Follower) poll(ctx context.Context) error {
	latest, err := f.head.LatestBlockNumber(ctx)
	if err != nil {
		return err
	}
	if latest <= f.last {
		return nil
	}
	if err := f.jobs.Submit(ctx, model.BlockJob{Block: latest}); err != nil {
		return err
	}
	f.logger.Debug("new head submitted", zap.Uint64("block", latest))
	f.last = latest
	return nil
}
