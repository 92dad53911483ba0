package indexer

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chainSync/internal/attribution"
	"chainSync/internal/chain"
	"chainSync/internal/dex"
	"chainSync/internal/events"
	"chainSync/internal/model"
	"chainSync/internal/storage"
)

// ChainSource is the node access SyncBlock needs.
type ChainSource interface {
	BlockByNumber(ctx context.Context, number uint64) (*types.Block, error)
	BlockReceipts(ctx context.Context, block *types.Block) ([]*types.Receipt, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockTraces(ctx context.Context, number uint64) ([]chain.TxTrace, error)
	TransactionTrace(ctx context.Context, txHash common.Hash) (*chain.CallFrame, error)
}

// BlockStore persists raw chain data.
type BlockStore interface {
	SaveBlock(ctx context.Context, block model.Block) error
	SaveTransactions(ctx context.Context, txs []model.Transaction) error
	SaveLogs(ctx context.Context, logs []model.LogRecord) error
	SaveTraces(ctx context.Context, blockNumber uint64, blockHash common.Hash, traces []chain.TxTrace) error
	GetTrace(ctx context.Context, txHash common.Hash) (*chain.CallFrame, bool, error)
}

// SyncConfig holds Syncer settings.
type SyncConfig struct {
	ChainID      *big.Int
	SyncTraces   bool
	MaxRetries   int
	RetryBackoff time.Duration
}

// Syncer turns one block into persisted rows and handler output.
type Syncer struct {
	cfg        SyncConfig
	chain      ChainSource
	store      BlockStore
	classifier *events.Classifier
	handlers   *dex.Registry
	pools      dex.PoolSource
	pricer     dex.Pricer
	routers    attribution.Routers
	sink       storage.Sink
	errors     storage.ErrorSink
	logger     *zap.Logger
}

// SyncerDeps groups the collaborators of a Syncer.
type SyncerDeps struct {
	Chain      ChainSource
	Store      BlockStore
	Classifier *events.Classifier
	Handlers   *dex.Registry
	Pools      dex.PoolSource
	Pricer     dex.Pricer
	Routers    attribution.Routers
	Sink       storage.Sink
	Errors     storage.ErrorSink
	Logger     *zap.Logger
}

func NewSyncer(cfg SyncConfig, deps SyncerDeps) (*Syncer, error) {
	if deps.Chain == nil {
		return nil, fmt.Errorf("chain source is nil")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("block store is nil")
	}
	if deps.Classifier == nil || deps.Handlers == nil {
		return nil, fmt.Errorf("classifier and handlers are required")
	}
	if cfg.ChainID == nil {
		return nil, fmt.Errorf("chain id is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		cfg:        cfg,
		chain:      deps.Chain,
		store:      deps.Store,
		classifier: deps.Classifier,
		handlers:   deps.Handlers,
		pools:      deps.Pools,
		pricer:     deps.Pricer,
		routers:    deps.Routers,
		sink:       deps.Sink,
		errors:     deps.Errors,
		logger:     logger,
	}, nil
}

func (s *Syncer) retry(stage string, number uint64) retryPolicy {
	return retryPolicy{
		MaxRetries: s.cfg.MaxRetries,
		Backoff:    s.cfg.RetryBackoff,
		OnRetry: func(attempt int, delay time.Duration, err error) {
			s.logger.Warn("rpc call failed, retrying",
				zap.String("stage", stage),
				zap.Uint64("block", number),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
		},
	}
}

// SyncBlock fetches, persists, classifies and dispatches one block. A fetch
// failure returns before anything is persisted.
func (s *Syncer) SyncBlock(ctx context.Context, number uint64) error {
	timer := newStageTimer()
	start := time.Now()

	var block *types.Block
	fetchStart := time.Now()
	err := s.retry("fetch_block", number).do(ctx, func(ctx context.Context) error {
		var err error
		block, err = s.chain.BlockByNumber(ctx, number)
		if errors.Is(err, ethereum.NotFound) {
			return fmt.Errorf("block %d not found: %w", number, err)
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("fetch block %d: %w", number, err)
	}
	timer.track("fetch_block", fetchStart)

	row := buildBlock(block)

	var (
		receipts []*types.Receipt
		traces   []chain.TxTrace
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer timer.track("save_block", time.Now())
		return s.store.SaveBlock(gctx, row)
	})
	g.Go(func() error {
		defer timer.track("fetch_receipts", time.Now())
		return s.retry("fetch_receipts", number).do(gctx, func(ctx context.Context) error {
			var err error
			receipts, err = s.chain.BlockReceipts(ctx, block)
			return err
		})
	})
	if s.cfg.SyncTraces {
		g.Go(func() error {
			defer timer.track("fetch_traces", time.Now())
			return s.retry("fetch_traces", number).do(gctx, func(ctx context.Context) error {
				var err error
				traces, err = s.chain.BlockTraces(ctx, number)
				return err
			})
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("block %d: %w", number, err)
	}

	receiptsByHash := make(map[common.Hash]*types.Receipt, len(receipts))
	for _, r := range receipts {
		receiptsByHash[r.TxHash] = r
	}
	signer := types.LatestSignerForChainID(s.cfg.ChainID)
	txs := buildTransactions(signer, block, receiptsByHash)
	logs := collectLogs(block, receipts)

	ingestedAt := time.Now().UTC()
	records := make([]model.LogRecord, 0, len(logs))
	for _, log := range logs {
		records = append(records, model.NewLogRecord(s.cfg.ChainID.Uint64(), log, block.Time(), ingestedAt))
	}

	g, gctx = errgroup.WithContext(ctx)
	g.Go(func() error {
		defer timer.track("save_logs", time.Now())
		return s.store.SaveLogs(gctx, records)
	})
	g.Go(func() error {
		defer timer.track("save_transactions", time.Now())
		return s.store.SaveTransactions(gctx, txs)
	})
	if len(traces) > 0 {
		g.Go(func() error {
			defer timer.track("save_traces", time.Now())
			return s.store.SaveTraces(gctx, number, block.Hash(), traces)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("persist block %d: %w", number, err)
	}

	classifyStart := time.Now()
	candidates, failed := s.classifier.ClassifyAll(logs, block.Time())
	batches := events.BuildBatches(candidates)
	timer.track("classify", classifyStart)
	candidateEvents.Add(float64(len(candidates)))

	dispatchStart := time.Now()
	txByHash := make(blockTxs, len(txs))
	for _, tx := range txs {
		txByHash[tx.Hash] = tx
	}
	hctx := dex.HandlerContext{
		Context:  ctx,
		Receipts: newBlockReceipts(receipts, s.chain),
		Traces: &traceCache{
			store:     s.store,
			chain:     s.chain,
			block:     number,
			blockHash: block.Hash(),
			logger:    s.logger,
		},
		Pools:      s.pools,
		Pricer:     s.pricer,
		Attributor: attribution.NewRouterAttributor(s.routers, txByHash),
		Logger:     s.logger,
	}
	outputs := make([]*model.OnChainData, 0, len(batches))
	for _, batch := range batches {
		data, err := s.handlers.Dispatch(hctx, batch)
		if err != nil {
			return fmt.Errorf("dispatch block %d: %w", number, err)
		}
		outputs = append(outputs, data)
	}
	timer.track("dispatch", dispatchStart)

	sinkStart := time.Now()
	if s.sink != nil {
		if err := s.sink.PutOnChainData(ctx, outputs); err != nil {
			return fmt.Errorf("sink block %d: %w", number, err)
		}
	}
	if len(failed) > 0 {
		decodeErrors.WithLabelValues("classify").Add(float64(len(failed)))
		if s.errors != nil {
			for i := range failed {
				failed[i].ChainID = s.cfg.ChainID.Uint64()
			}
			if err := s.errors.PutDecodeErrors(failed); err != nil {
				s.logger.Warn("store decode errors failed", zap.Uint64("block", number), zap.Error(err))
			}
		}
	}
	timer.track("sink", sinkStart)
	timer.track("total", start)
	blocksSynced.Inc()

	s.logger.Info("block synced",
		zap.Uint64("block", number),
		zap.String("hash", block.Hash().Hex()),
		zap.Int("txs", len(txs)),
		zap.Int("logs", len(logs)),
		zap.Int("events", len(candidates)),
		zap.Int("batches", len(batches)),
		zap.Int("decode_errors", len(failed)),
		zap.Int64("fetch_block_ms", timer.ms("fetch_block")),
		zap.Int64("save_block_ms", timer.ms("save_block")),
		zap.Int64("fetch_receipts_ms", timer.ms("fetch_receipts")),
		zap.Int64("fetch_traces_ms", timer.ms("fetch_traces")),
		zap.Int64("save_logs_ms", timer.ms("save_logs")),
		zap.Int64("save_transactions_ms", timer.ms("save_transactions")),
		zap.Int64("save_traces_ms", timer.ms("save_traces")),
		zap.Int64("classify_ms", timer.ms("classify")),
		zap.Int64("dispatch_ms", timer.ms("dispatch")),
		zap.Int64("sink_ms", timer.ms("sink")),
		zap.Int64("total_ms", timer.ms("total")),
	)
	return nil
}
