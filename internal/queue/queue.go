package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chainSync/internal/model"
)

var jobResults = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "chainsync_queue_jobs_total",
	Help: "Block jobs processed by the queue, by result.",
}, []string{"result"})

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("queue closed")

// Processor handles one block job. A returned error schedules a retry.
type Processor interface {
	Process(ctx context.Context, job model.BlockJob) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, job model.BlockJob) error

func (f ProcessorFunc) Process(ctx context.Context, job model.BlockJob) error {
	return f(ctx, job)
}

// Message is a job together with its delivery attempt.
type Message struct {
	Job     model.BlockJob `json:"job"`
	Attempt int            `json:"attempt"`

	raw string
}

// Backend stores queued messages. Push never blocks on capacity, so a worker
// may submit follow-up jobs into its own queue.
type Backend interface {
	Push(ctx context.Context, msg Message) error
	// Pop blocks until a message is available or ctx is done.
	Pop(ctx context.Context) (Message, error)
	// Ack drops a delivered message for good.
	Ack(ctx context.Context, msg Message) error
	// Requeue replaces a delivered message with next.
	Requeue(ctx context.Context, msg, next Message) error
	// Recover returns messages left in flight by a previous run.
	Recover(ctx context.Context) (int, error)
	Len(ctx context.Context) (int64, error)
}

// Config tunes the queue.
type Config struct {
	Workers      int
	MaxRetries   int
	RetryBackoff time.Duration
}

// Service runs block jobs on bounded workers with exponential retry. Delivery
// is at-least-once for as long as the backend keeps its messages: a durable
// backend redelivers in-flight and delayed jobs after a restart.
type Service struct {
	cfg     Config
	backend Backend
	quit    chan struct{}
	once    sync.Once
	logger  *zap.Logger
}

func NewService(cfg Config, backend Backend, logger *zap.Logger) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = time.Second
	}
	if backend == nil {
		backend = NewMemoryBackend()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:     cfg,
		backend: backend,
		quit:    make(chan struct{}),
		logger:  logger,
	}
}

// Submit enqueues a job.
func (s *Service) Submit(ctx context.Context, job model.BlockJob) error {
	select {
	case <-s.quit:
		return ErrClosed
	default:
	}
	if err := s.backend.Push(ctx, Message{Job: job}); err != nil {
		return fmt.Errorf("push block %d: %w", job.Block, err)
	}
	return nil
}

// Close stops the workers. Messages still held by the backend stay there.
func (s *Service) Close() {
	s.once.Do(func() { close(s.quit) })
}

// Len returns the number of jobs waiting for a worker.
func (s *Service) Len(ctx context.Context) (int64, error) {
	return s.backend.Len(ctx)
}

// Start recovers in-flight messages and runs the workers until ctx is done or
// Close is called.
func (s *Service) Start(ctx context.Context, p Processor) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.quit:
			cancel()
		case <-ctx.Done():
		}
	}()

	recovered, err := s.backend.Recover(ctx)
	if err != nil {
		return fmt.Errorf("recover queue: %w", err)
	}
	if recovered > 0 {
		s.logger.Info("in-flight block jobs recovered", zap.Int("count", recovered))
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < s.cfg.Workers; i++ {
		g.Go(func() error {
			for {
				msg, err := s.backend.Pop(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return nil
					}
					s.logger.Warn("pop block job failed", zap.Error(err))
					if !sleep(ctx, s.cfg.RetryBackoff) {
						return nil
					}
					continue
				}
				s.process(ctx, p, msg)
			}
		})
	}
	return g.Wait()
}

func (s *Service) process(ctx context.Context, p Processor, msg Message) {
	err := p.Process(ctx, msg.Job)
	if err == nil {
		jobResults.WithLabelValues("ok").Inc()
		s.ack(ctx, msg)
		return
	}
	if ctx.Err() != nil {
		// Left in flight for the next run.
		return
	}

	if msg.Attempt >= s.cfg.MaxRetries {
		jobResults.WithLabelValues("failed").Inc()
		s.logger.Error("block job failed",
			zap.Uint64("block", msg.Job.Block),
			zap.Int("attempts", msg.Attempt+1),
			zap.Error(err),
		)
		s.ack(ctx, msg)
		return
	}

	jobResults.WithLabelValues("retry").Inc()
	delay := s.cfg.RetryBackoff << msg.Attempt
	next := Message{Job: msg.Job, Attempt: msg.Attempt + 1}
	s.logger.Warn("block job retry scheduled",
		zap.Uint64("block", msg.Job.Block),
		zap.Int("attempt", next.Attempt),
		zap.Duration("delay", delay),
		zap.Error(err),
	)
	time.AfterFunc(delay, func() {
		select {
		case <-s.quit:
			return
		default:
		}
		if err := s.backend.Requeue(context.Background(), msg, next); err != nil {
			s.logger.Error("requeue block job failed", zap.Uint64("block", msg.Job.Block), zap.Error(err))
		}
	})
}

func (s *Service) ack(ctx context.Context, msg Message) {
	if err := s.backend.Ack(ctx, msg); err != nil {
		s.logger.Warn("ack block job failed", zap.Uint64("block", msg.Job.Block), zap.Error(err))
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
