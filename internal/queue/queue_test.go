package queue

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"chainSync/internal/model"
)

type recorder struct {
	mu       sync.Mutex
	attempts map[uint64]int
	failN    int
	done     chan uint64
}

func newRecorder(failN int) *recorder {
	return &recorder{attempts: make(map[uint64]int), failN: failN, done: make(chan uint64, 64)}
}

func (r *recorder) Process(ctx context.Context, job model.BlockJob) error {
	r.mu.Lock()
	r.attempts[job.Block]++
	n := r.attempts[job.Block]
	r.mu.Unlock()
	if n <= r.failN {
		return errors.New("transient")
	}
	r.done <- job.Block
	return nil
}

func collect(t *testing.T, done <-chan uint64, n int) []uint64 {
	t.Helper()
	var got []uint64
	for len(got) < n {
		select {
		case block := <-done:
			got = append(got, block)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d jobs, got %v", len(got), n, got)
		}
	}
	sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
	return got
}

func TestServiceProcessesJobs(t *testing.T) {
	s := NewService(Config{Workers: 3, MaxRetries: 1, RetryBackoff: time.Millisecond}, nil, nil)
	r := newRecorder(0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx, r)

	for _, block := range []uint64{1, 2, 3, 4} {
		if err := s.Submit(ctx, model.BlockJob{Block: block}); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	got := collect(t, r.done, 4)
	if got[0] != 1 || got[3] != 4 {
		t.Fatalf("unexpected blocks %v", got)
	}
	s.Close()
}

func TestServiceRetriesWithBackoff(t *testing.T) {
	s := NewService(Config{Workers: 1, MaxRetries: 3, RetryBackoff: time.Millisecond}, nil, nil)
	r := newRecorder(2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx, r)

	if err := s.Submit(ctx, model.BlockJob{Block: 9}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatalf("job never succeeded")
	}
	r.mu.Lock()
	attempts := r.attempts[9]
	r.mu.Unlock()
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
	s.Close()
}

func TestServiceGivesUp(t *testing.T) {
	s := NewService(Config{Workers: 1, MaxRetries: 1, RetryBackoff: time.Millisecond}, nil, nil)
	r := newRecorder(100)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx, r)

	if err := s.Submit(ctx, model.BlockJob{Block: 5}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	r.mu.Lock()
	attempts := r.attempts[5]
	r.mu.Unlock()
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
	s.Close()
}

func TestSubmitAfterClose(t *testing.T) {
	s := NewService(Config{}, nil, nil)
	s.Close()
	if err := s.Submit(context.Background(), model.BlockJob{Block: 1}); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

// A single worker whose job submits a gap larger than any fixed buffer must
// not block on its own queue.
func TestWorkerSubmitsLargeGapIntoOwnQueue(t *testing.T) {
	const gap = 2000
	s := NewService(Config{Workers: 1, RetryBackoff: time.Millisecond}, nil, nil)
	done := make(chan uint64, gap+1)

	p := ProcessorFunc(func(ctx context.Context, job model.BlockJob) error {
		if job.Block == gap+1 {
			for h := uint64(1); h <= gap; h++ {
				if err := s.Submit(ctx, model.BlockJob{Block: h}); err != nil {
					return err
				}
			}
		}
		done <- job.Block
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx, p)

	if err := s.Submit(ctx, model.BlockJob{Block: gap + 1}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	got := collect(t, done, gap+1)
	if got[0] != 1 || got[len(got)-1] != gap+1 {
		t.Fatalf("unexpected range %d..%d", got[0], got[len(got)-1])
	}
	s.Close()
}

func TestMemoryBackendFIFO(t *testing.T) {
	b := NewMemoryBackend()
	ctx := context.Background()
	for _, block := range []uint64{3, 1, 2} {
		if err := b.Push(ctx, Message{Job: model.BlockJob{Block: block}}); err != nil {
			t.Fatalf("push: %v", err)
		}
	}
	if n, _ := b.Len(ctx); n != 3 {
		t.Fatalf("len = %d, want 3", n)
	}

	var got []uint64
	for i := 0; i < 3; i++ {
		msg, err := b.Pop(ctx)
		if err != nil {
			t.Fatalf("pop: %v", err)
		}
		got = append(got, msg.Job.Block)
	}
	if got[0] != 3 || got[1] != 1 || got[2] != 2 {
		t.Fatalf("order = %v", got)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := b.Pop(cctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancel on empty queue, got %v", err)
	}
}
