package events

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"chainSync/internal/model"
)

// Classifier expands raw logs into candidate events.
type Classifier struct {
	registry *Registry
	logger   *zap.Logger
}

func NewClassifier(registry *Registry, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{registry: registry, logger: logger}
}

// Classify returns one candidate per matching registry entry.
func (c *Classifier) Classify(log types.Log, timestamp uint64) ([]model.CandidateEvent, error) {
	base, err := parseEvent(log, timestamp)
	if err != nil {
		return nil, err
	}

	matches := c.registry.Match(log)
	if len(matches) == 0 {
		return nil, nil
	}
	out := make([]model.CandidateEvent, 0, len(matches))
	for _, sig := range matches {
		out = append(out, model.CandidateEvent{
			Kind:    sig.Kind,
			SubKind: sig.SubKind,
			Base:    base,
			Log:     log,
		})
	}
	return out, nil
}

// ClassifyAll classifies every log. A malformed log is reported and skipped.
func (c *Classifier) ClassifyAll(logs []types.Log, timestamp uint64) ([]model.CandidateEvent, []model.DecodeError) {
	var (
		out    []model.CandidateEvent
		failed []model.DecodeError
	)
	for _, log := range logs {
		events, err := c.Classify(log, timestamp)
		if err != nil {
			c.logger.Warn("classify log failed",
				zap.Uint64("block", log.BlockNumber),
				zap.String("tx_hash", log.TxHash.Hex()),
				zap.Uint("log_index", log.Index),
				zap.Error(err),
			)
			failed = append(failed, decodeError(log, "classify", err))
			continue
		}
		out = append(out, events...)
	}
	return out, failed
}

func parseEvent(log types.Log, timestamp uint64) (model.BaseEventParams, error) {
	if log.TxHash == (common.Hash{}) {
		return model.BaseEventParams{}, fmt.Errorf("log missing transaction hash")
	}
	if log.BlockHash == (common.Hash{}) {
		return model.BaseEventParams{}, fmt.Errorf("log missing block hash")
	}
	return model.BaseEventParams{
		Address:    log.Address,
		TxHash:     log.TxHash,
		TxIndex:    log.TxIndex,
		Timestamp:  timestamp,
		Block:      log.BlockNumber,
		BlockHash:  log.BlockHash,
		LogIndex:   log.Index,
		BatchIndex: 1,
	}, nil
}

func decodeError(log types.Log, stage string, err error) model.DecodeError {
	topic0 := ""
	if len(log.Topics) > 0 {
		topic0 = log.Topics[0].Hex()
	}
	return model.DecodeError{
		BlockNumber: log.BlockNumber,
		TxHash:      log.TxHash.Hex(),
		LogIndex:    uint64(log.Index),
		Address:     log.Address.Hex(),
		Topic0:      topic0,
		Stage:       stage,
		Error:       err.Error(),
	}
}
