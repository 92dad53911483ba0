package queue

import (
	"context"
	"sync"
)

// MemoryBackend is an unbounded FIFO held in process memory. Its messages do
// not survive a restart.
type MemoryBackend struct {
	mu     sync.Mutex
	items  []Message
	notify chan struct{}
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{notify: make(chan struct{}, 1)}
}

func (b *MemoryBackend) Push(ctx context.Context, msg Message) error {
	b.mu.Lock()
	b.items = append(b.items, msg)
	b.mu.Unlock()
	b.signal()
	return nil
}

func (b *MemoryBackend) Pop(ctx context.Context) (Message, error) {
	for {
		b.mu.Lock()
		if len(b.items) > 0 {
			msg := b.items[0]
			b.items[0] = Message{}
			b.items = b.items[1:]
			remaining := len(b.items)
			b.mu.Unlock()
			if remaining > 0 {
				b.signal()
			}
			return msg, nil
		}
		b.mu.Unlock()

		select {
		case <-b.notify:
		case <-ctx.Done():
			return Message{}, ctx.Err()
		}
	}
}

func (b *MemoryBackend) Ack(ctx context.Context, msg Message) error {
	return nil
}

func (b *MemoryBackend) Requeue(ctx context.Context, msg, next Message) error {
	return b.Push(ctx, next)
}

func (b *MemoryBackend) Recover(ctx context.Context) (int, error) {
	return 0, nil
}

func (b *MemoryBackend) Len(ctx context.Context) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.items)), nil
}

func (b *MemoryBackend) signal() {
	select {
	case b.notify <- struct{}{}:
	default:
	}
}
