package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"

	"chainSync/internal/model"
)

// SaveBlock inserts a block row. Re-saving the same hash is a no-op.
func (s *Store) SaveBlock(ctx context.Context, block model.Block) error {
	uncles := make([]string, 0, len(block.Uncles))
	for _, uncle := range block.Uncles {
		uncles = append(uncles, hashText(uncle))
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO blocks (
			hash, number, timestamp, parent_hash, nonce, uncles_hash, logs_bloom,
			transactions_root, state_root, mix_hash, receipts_root, miner, difficulty,
			extra_data, size, gas_limit, gas_used, base_fee, uncles, transaction_count
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
		ON CONFLICT (hash) DO NOTHING
	`,
		hashText(block.Hash),
		int64(block.Number),
		int64(block.Timestamp),
		hashText(block.ParentHash),
		fmt.Sprintf("%d", block.Nonce),
		hashText(block.UncleHash),
		block.LogsBloom,
		hashText(block.TxRoot),
		hashText(block.StateRoot),
		hashText(block.MixHash),
		hashText(block.ReceiptsRoot),
		addressText(block.Miner),
		block.Difficulty,
		block.ExtraData,
		int64(block.Size),
		int64(block.GasLimit),
		int64(block.GasUsed),
		nullable(block.BaseFee),
		uncles,
		block.TransactionCount,
	)
	if err != nil {
		return fmt.Errorf("save block %d: %w", block.Number, err)
	}
	return nil
}

// DeleteBlock removes the block row with the given number and hash.
func (s *Store) DeleteBlock(ctx context.Context, number uint64, hash common.Hash) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM blocks WHERE number=$1 AND hash=$2`, int64(number), hashText(hash))
	if err != nil {
		return fmt.Errorf("delete block %d: %w", number, err)
	}
	return nil
}

// GetBlockWithNumber returns a stored block at height number whose hash
// differs from excludeHash, or nil when there is none.
func (s *Store) GetBlockWithNumber(ctx context.Context, number uint64, excludeHash common.Hash) (*model.Block, error) {
	var (
		hash       string
		parentHash string
		timestamp  int64
		txCount    int
	)
	row := s.pool.QueryRow(ctx, `
		SELECT hash, parent_hash, timestamp, transaction_count
		FROM blocks
		WHERE number=$1 AND hash<>$2
		LIMIT 1
	`, int64(number), hashText(excludeHash))
	if err := row.Scan(&hash, &parentHash, &timestamp, &txCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get block %d: %w", number, err)
	}
	return &model.Block{
		Hash:             common.HexToHash(hash),
		Number:           number,
		ParentHash:       common.HexToHash(parentHash),
		Timestamp:        uint64(timestamp),
		TransactionCount: txCount,
	}, nil
}

func nullable(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
