package reconcile

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
)

func TestRedisPointerRoundTrip(t *testing.T) {
	url := os.Getenv("INDEXER_TEST_REDIS_URL")
	if url == "" {
		t.Skip("INDEXER_TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	p := &RedisPointer{Client: client, Key: "test-" + t.Name()}
	t.Cleanup(func() { client.Del(ctx, p.Key) })

	if _, ok, err := p.Load(ctx); err != nil || ok {
		t.Fatalf("expected unset pointer, got ok=%v err=%v", ok, err)
	}
	if err := p.Save(ctx, 105); err != nil {
		t.Fatalf("save: %v", err)
	}
	value, ok, err := p.Load(ctx)
	if err != nil || !ok || value != 105 {
		t.Fatalf("unexpected pointer %d ok=%v err=%v", value, ok, err)
	}
}
