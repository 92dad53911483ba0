package storage

import (
	"context"

	"chainSync/internal/model"
)

// Sink receives handler output for downstream persistence.
type Sink interface {
	PutOnChainData(ctx context.Context, batch []*model.OnChainData) error
}

// ErrorSink receives per-log classification and handler failures.
type ErrorSink interface {
	PutDecodeErrors(errs []model.DecodeError) error
}

// MultiSink fans out to several sinks, stopping at the first error.
type MultiSink []Sink

func (m MultiSink) PutOnChainData(ctx context.Context, batch []*model.OnChainData) error {
	for _, sink := range m {
		if err := sink.PutOnChainData(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}
