package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"

	"chainSync/internal/chain"
)

// SaveTraces inserts call traces of one block.
func (s *Store) SaveTraces(ctx context.Context, blockNumber uint64, blockHash common.Hash, traces []chain.TxTrace) error {
	batch := &pgx.Batch{}
	for _, trace := range traces {
		calls, err := json.Marshal(trace.Result)
		if err != nil {
			return fmt.Errorf("marshal trace %s: %w", trace.TxHash.Hex(), err)
		}
		batch.Queue(`
			INSERT INTO transaction_traces (hash, block_number, block_hash, calls)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (hash) DO NOTHING
		`, hashText(trace.TxHash), int64(blockNumber), hashText(blockHash), string(calls))
	}
	if err := s.sendBatch(ctx, batch); err != nil {
		return fmt.Errorf("save traces: %w", err)
	}
	return nil
}

// GetTrace returns the stored root call frame of a transaction.
func (s *Store) GetTrace(ctx context.Context, txHash common.Hash) (*chain.CallFrame, bool, error) {
	var raw []byte
	row := s.pool.QueryRow(ctx, `SELECT calls FROM transaction_traces WHERE hash=$1`, hashText(txHash))
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get trace %s: %w", txHash.Hex(), err)
	}
	var frame chain.CallFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return nil, false, fmt.Errorf("decode trace %s: %w", txHash.Hex(), err)
	}
	return &frame, true, nil
}

// DeleteBlockTraces removes every trace of a block hash.
func (s *Store) DeleteBlockTraces(ctx context.Context, blockHash common.Hash) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM transaction_traces WHERE block_hash=$1`, hashText(blockHash)); err != nil {
		return fmt.Errorf("delete traces: %w", err)
	}
	return nil
}
