package indexer

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestRetryEventuallySucceeds(t *testing.T) {
	attempts := 0
	var delays []time.Duration
	policy := retryPolicy{
		MaxRetries: 3,
		Backoff:    time.Millisecond,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			delays = append(delays, delay)
		},
	}
	err := policy.do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil || attempts != 3 {
		t.Fatalf("unexpected result err=%v attempts=%d", err, attempts)
	}
	if want := []time.Duration{time.Millisecond, 2 * time.Millisecond}; !reflect.DeepEqual(delays, want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
}

func TestRetryGivesUp(t *testing.T) {
	attempts := 0
	retries := 0
	policy := retryPolicy{
		MaxRetries: 2,
		Backoff:    time.Millisecond,
		OnRetry:    func(int, time.Duration, error) { retries++ },
	}
	err := policy.do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errors.New("permanent")
	})
	if err == nil || attempts != 3 || retries != 2 {
		t.Fatalf("unexpected result err=%v attempts=%d retries=%d", err, attempts, retries)
	}
}

func TestRetryHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retryPolicy{MaxRetries: 5, Backoff: time.Hour}.do(ctx, func(ctx context.Context) error {
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancel, got %v", err)
	}
}
