package indexer

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"chainSync/internal/model"
)

func zapNop() *zap.Logger {
	return zap.NewNop()
}

type callLog struct {
	calls []string
	fail  map[string]error
}

func (c *callLog) record(name string) error {
	c.calls = append(c.calls, name)
	return c.fail[name]
}

type stepSyncer struct{ log *callLog }

func (s stepSyncer) SyncBlock(ctx context.Context, number uint64) error {
	return s.log.record("sync")
}

type stepReconciler struct {
	log    *callLog
	orphan []uint64
}

func (r *stepReconciler) CheckMissing(ctx context.Context, block uint64) error {
	return r.log.record("missing")
}

func (r *stepReconciler) CheckOrphan(ctx context.Context, block uint64) error {
	r.orphan = append(r.orphan, block)
	return r.log.record("orphan")
}

func TestProcessorOrder(t *testing.T) {
	log := &callLog{}
	rec := &stepReconciler{log: log}
	p := NewProcessor(stepSyncer{log}, rec, 1, nil)

	if err := p.Process(context.Background(), model.BlockJob{Block: 100}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if !reflect.DeepEqual(log.calls, []string{"missing", "sync", "orphan"}) {
		t.Fatalf("unexpected order %v", log.calls)
	}
	if !reflect.DeepEqual(rec.orphan, []uint64{99}) {
		t.Fatalf("unexpected orphan target %v", rec.orphan)
	}
}

func TestProcessorSyncFailureSkipsOrphan(t *testing.T) {
	log := &callLog{fail: map[string]error{"sync": errors.New("boom")}}
	p := NewProcessor(stepSyncer{log}, &stepReconciler{log: log}, 1, nil)

	if err := p.Process(context.Background(), model.BlockJob{Block: 100}); err == nil {
		t.Fatalf("expected sync error")
	}
	if !reflect.DeepEqual(log.calls, []string{"missing", "sync"}) {
		t.Fatalf("unexpected calls %v", log.calls)
	}
}

func TestProcessorReconcileFailureIsNotFatal(t *testing.T) {
	log := &callLog{fail: map[string]error{"missing": errors.New("redis down"), "orphan": errors.New("rpc down")}}
	p := NewProcessor(stepSyncer{log}, &stepReconciler{log: log}, 1, nil)

	if err := p.Process(context.Background(), model.BlockJob{Block: 5}); err != nil {
		t.Fatalf("reconcile errors must not fail the job: %v", err)
	}
}

func TestProcessorSkipsOrphanNearGenesis(t *testing.T) {
	log := &callLog{}
	rec := &stepReconciler{log: log}
	p := NewProcessor(stepSyncer{log}, rec, 6, nil)

	if err := p.Process(context.Background(), model.BlockJob{Block: 6}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(rec.orphan) != 0 {
		t.Fatalf("unexpected orphan check %v", rec.orphan)
	}
}
