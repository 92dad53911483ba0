package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"

	"chainSync/internal/model"
)

// SaveLogs inserts receipt logs keyed by (tx_hash, log_index).
func (s *Store) SaveLogs(ctx context.Context, logs []model.LogRecord) error {
	batch := &pgx.Batch{}
	for _, log := range logs {
		batch.Queue(`
			INSERT INTO transaction_logs (
				tx_hash, log_index, block_hash, block_number, tx_index, address, topics, data, removed
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			ON CONFLICT (tx_hash, log_index) DO NOTHING
		`,
			strings.ToLower(log.TxHash),
			int64(log.LogIndex),
			strings.ToLower(log.BlockHash),
			int64(log.BlockNumber),
			int64(log.TxIndex),
			log.Address,
			log.Topics,
			log.Data,
			log.Removed,
		)
	}
	if err := s.sendBatch(ctx, batch); err != nil {
		return fmt.Errorf("save logs: %w", err)
	}
	return nil
}

// DeleteBlockLogs removes every log of a block hash.
func (s *Store) DeleteBlockLogs(ctx context.Context, blockHash common.Hash) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM transaction_logs WHERE block_hash=$1`, hashText(blockHash)); err != nil {
		return fmt.Errorf("delete logs: %w", err)
	}
	return nil
}
