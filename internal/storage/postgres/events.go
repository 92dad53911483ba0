package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"

	"chainSync/internal/model"
)

// eventTables hold rows derived from a block; all carry block and block_hash.
var eventTables = []string{
	"fill_events_2",
	"cancel_events",
	"bulk_cancel_events",
	"nonce_cancel_events",
	"ft_transfer_events",
	"nft_approval_events",
	"nft_transfer_events",
}

// PutOnChainData persists fills and transfers. Orders and refresh requests
// are left to the other sinks.
func (s *Store) PutOnChainData(ctx context.Context, datas []*model.OnChainData) error {
	batch := &pgx.Batch{}
	for _, data := range datas {
		if data == nil {
			continue
		}
		for _, fill := range data.FillEventsOnChain {
			queueFill(batch, fill)
		}
		for _, fill := range data.FillEventsPartial {
			queueFill(batch, fill)
		}
		for _, transfer := range data.FtTransferEvents {
			queueBase(batch, `
				INSERT INTO ft_transfer_events (
					address, block, block_hash, tx_hash, tx_index, log_index, timestamp, "from", "to", amount
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
				ON CONFLICT (tx_hash, log_index) DO NOTHING
			`, transfer.Base, addressText(transfer.From), addressText(transfer.To), transfer.Amount)
		}
		for _, transfer := range data.NftTransferEvents {
			queueBase(batch, `
				INSERT INTO nft_transfer_events (
					address, block, block_hash, tx_hash, tx_index, log_index, timestamp, batch_index,
					"from", "to", token_id, amount, kind
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
				ON CONFLICT (tx_hash, log_index, batch_index) DO NOTHING
			`, transfer.Base, transfer.Base.BatchIndex, addressText(transfer.From), addressText(transfer.To),
				transfer.TokenID, transfer.Amount, string(transfer.Kind))
		}
	}
	if err := s.sendBatch(ctx, batch); err != nil {
		return fmt.Errorf("save on-chain data: %w", err)
	}
	return nil
}

func queueFill(batch *pgx.Batch, fill model.FillEvent) {
	queueBase(batch, `
		INSERT INTO fill_events_2 (
			address, block, block_hash, tx_hash, tx_index, log_index, timestamp, batch_index,
			order_kind, order_side, order_id, maker, taker, price, currency_price, usd_price,
			currency, contract, token_id, amount, order_source_id_int, aggregator_source_id, fill_source_id
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
		ON CONFLICT (tx_hash, log_index, batch_index) DO NOTHING
	`, fill.Base,
		fill.Base.BatchIndex,
		string(fill.OrderKind),
		string(fill.OrderSide),
		fill.OrderID,
		addressText(fill.Maker),
		addressText(fill.Taker),
		fill.Price,
		fill.CurrencyPrice,
		nullable(fill.USDPrice),
		addressText(fill.Currency),
		addressText(fill.Contract),
		fill.TokenID,
		fill.Amount,
		fill.OrderSourceID,
		fill.AggregatorSourceID,
		fill.FillSourceID,
	)
}

// queueBase prepends the shared event coordinates to args.
func queueBase(batch *pgx.Batch, sql string, base model.BaseEventParams, args ...interface{}) {
	values := []interface{}{
		addressText(base.Address),
		int64(base.Block),
		hashText(base.BlockHash),
		hashText(base.TxHash),
		int64(base.TxIndex),
		int64(base.LogIndex),
		int64(base.Timestamp),
	}
	batch.Queue(sql, append(values, args...)...)
}

// RemoveEvents deletes every derived event row of an orphaned block, plus
// its activities, in one transaction.
func (s *Store) RemoveEvents(ctx context.Context, block uint64, blockHash common.Hash) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin remove events: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, table := range eventTables {
		if _, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE block=$1 AND block_hash=$2`, int64(block), hashText(blockHash)); err != nil {
			return fmt.Errorf("remove %s: %w", table, err)
		}
	}
	if _, err := tx.Exec(ctx, `DELETE FROM activities WHERE block_hash=$1`, hashText(blockHash)); err != nil {
		return fmt.Errorf("remove activities: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit remove events: %w", err)
	}
	return nil
}
