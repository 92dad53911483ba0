package indexer

import (
	"context"
	"time"
)

// retryPolicy repeats a failing call with doubling delays.
type retryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
	// OnRetry observes every failed attempt that is followed by another one.
	OnRetry func(attempt int, delay time.Duration, err error)
}

func (p retryPolicy) do(ctx context.Context, fn func(context.Context) error) error {
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := p.Backoff
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil || attempt > maxRetries {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}
