package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey names the pending list of the realtime job queue.
const DefaultRedisKey = "chainsync:block-jobs"

// RedisBackend keeps messages in a pending list and moves each delivered
// message to a processing list until it is acked or requeued. Messages left in
// the processing list by a crashed run go back to pending on Recover, which
// assumes a single consuming process per key.
type RedisBackend struct {
	client     redis.Cmdable
	pending    string
	processing string
	wait       time.Duration
}

func NewRedisBackend(client redis.Cmdable, key string) *RedisBackend {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisBackend{
		client:     client,
		pending:    key,
		processing: key + ":processing",
		wait:       time.Second,
	}
}

func (b *RedisBackend) Push(ctx context.Context, msg Message) error {
	payload, err := encodeMessage(msg)
	if err != nil {
		return err
	}
	return b.client.LPush(ctx, b.pending, payload).Err()
}

func (b *RedisBackend) Pop(ctx context.Context) (Message, error) {
	for {
		raw, err := b.client.BLMove(ctx, b.pending, b.processing, "RIGHT", "LEFT", b.wait).Result()
		if errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return Message{}, ctx.Err()
			}
			continue
		}
		if err != nil {
			return Message{}, err
		}

		var msg Message
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			b.client.LRem(ctx, b.processing, 1, raw)
			return Message{}, fmt.Errorf("decode queued job %q: %w", raw, err)
		}
		msg.raw = raw
		return msg, nil
	}
}

func (b *RedisBackend) Ack(ctx context.Context, msg Message) error {
	return b.client.LRem(ctx, b.processing, 1, msg.raw).Err()
}

// Requeue pushes next and drops msg from the processing list in one
// transaction.
func (b *RedisBackend) Requeue(ctx context.Context, msg, next Message) error {
	payload, err := encodeMessage(next)
	if err != nil {
		return err
	}
	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, b.pending, payload)
		pipe.LRem(ctx, b.processing, 1, msg.raw)
		return nil
	})
	return err
}

// Recover moves every in-flight message back to the consuming end of the
// pending list, oldest first.
func (b *RedisBackend) Recover(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := b.client.LMove(ctx, b.processing, b.pending, "LEFT", "RIGHT").Err()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, err
		}
		moved++
	}
}

func (b *RedisBackend) Len(ctx context.Context) (int64, error) {
	return b.client.LLen(ctx, b.pending).Result()
}

func encodeMessage(msg Message) (string, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encode job: %w", err)
	}
	return string(data), nil
}
