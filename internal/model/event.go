package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EventKind names a protocol family (erc20, collectionxyz, ...).
type EventKind string

// EventSubKind names one concrete event of a protocol family.
type EventSubKind string

// BaseEventParams carries the on-chain coordinates shared by every event.
type BaseEventParams struct {
	Address    common.Address `json:"address"`
	TxHash     common.Hash    `json:"tx_hash"`
	TxIndex    uint           `json:"tx_index"`
	Timestamp  uint64         `json:"timestamp"`
	Block      uint64         `json:"block"`
	BlockHash  common.Hash    `json:"block_hash"`
	LogIndex   uint           `json:"log_index"`
	BatchIndex int            `json:"batch_index"`
}

// WithBatchIndex returns a copy of the params with batchIndex replaced.
func (p BaseEventParams) WithBatchIndex(i int) BaseEventParams {
	p.BatchIndex = i
	return p
}

// CandidateEvent is a raw log matched against one registry entry.
type CandidateEvent struct {
	Kind    EventKind       `json:"kind"`
	SubKind EventSubKind    `json:"sub_kind"`
	Base    BaseEventParams `json:"base"`
	Log     types.Log       `json:"log"`
}

// EventsByKind is one protocol bucket of a batch.
type EventsByKind struct {
	Kind   EventKind        `json:"kind"`
	Events []CandidateEvent `json:"events"`
}

// EventsBatch holds every candidate event of a single transaction, bucketed by kind.
type EventsBatch struct {
	ID        string         `json:"id"`
	TxHash    common.Hash    `json:"tx_hash"`
	Block     uint64         `json:"block"`
	BlockHash common.Hash    `json:"block_hash"`
	Events    []EventsByKind `json:"events"`
}

// Len returns the number of bucketed events, counting duplicated auxiliary events.
func (b EventsBatch) Len() int {
	n := 0
	for _, bucket := range b.Events {
		n += len(bucket.Events)
	}
	return n
}
