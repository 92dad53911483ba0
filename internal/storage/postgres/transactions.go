package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"

	"chainSync/internal/model"
)

// SaveTransactions inserts transaction rows, skipping known hashes.
func (s *Store) SaveTransactions(ctx context.Context, txs []model.Transaction) error {
	batch := &pgx.Batch{}
	for _, tx := range txs {
		var to interface{}
		if tx.To != nil {
			to = addressText(*tx.To)
		}
		batch.Queue(`
			INSERT INTO transactions (
				hash, block_number, block_hash, block_timestamp, "index", "from", "to",
				value, data, nonce, gas_price, gas_used, status
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			ON CONFLICT (hash) DO NOTHING
		`,
			hashText(tx.Hash),
			int64(tx.BlockNumber),
			hashText(tx.BlockHash),
			int64(tx.BlockTime),
			int64(tx.Index),
			addressText(tx.From),
			to,
			tx.Value,
			tx.Data,
			int64(tx.Nonce),
			tx.GasPrice,
			int64(tx.GasUsed),
			int64(tx.Status),
		)
	}
	if err := s.sendBatch(ctx, batch); err != nil {
		return fmt.Errorf("save transactions: %w", err)
	}
	return nil
}

// DeleteBlockTransactions removes every transaction of a block hash.
func (s *Store) DeleteBlockTransactions(ctx context.Context, blockHash common.Hash) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE block_hash=$1`, hashText(blockHash)); err != nil {
		return fmt.Errorf("delete transactions: %w", err)
	}
	return nil
}
