package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chainSync/internal/attribution"
	"chainSync/internal/chain"
	"chainSync/internal/config"
	"chainSync/internal/dex"
	"chainSync/internal/events"
	"chainSync/internal/indexer"
	"chainSync/internal/model"
	"chainSync/internal/pricing"
	"chainSync/internal/queue"
	"chainSync/internal/reconcile"
	"chainSync/internal/storage"
	"chainSync/internal/storage/postgres"
)

// pipeline owns the long-lived clients shared by every command.
type pipeline struct {
	cfg     config.Config
	chainID uint64
	chain   *chain.Client
	store   *postgres.Store
	redis   *redis.Client
	syncer  *indexer.Syncer
	metrics *http.Server
	logger  *zap.Logger
}

func newPipeline(ctx context.Context, cfg config.Config, logger *zap.Logger) (p *pipeline, err error) {
	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	if cfg.PgDSN == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}

	p = &pipeline{cfg: cfg, logger: logger}
	partial := p
	defer func() {
		if err != nil {
			partial.Close()
		}
	}()

	p.chain, err = chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("connect rpc: %w", err)
	}
	chainID, err := p.chain.GetChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return nil, fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}
	p.chainID = chainID.Uint64()

	p.store, err = postgres.NewStore(ctx, cfg.PgDSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		p.redis = redis.NewClient(opts)
	}

	factories, err := indexer.ParseAddresses(cfg.CollectionFactory)
	if err != nil {
		return nil, fmt.Errorf("collection factory: %w", err)
	}
	registry, err := events.DefaultRegistry(events.RegistryConfig{CollectionFactories: factories})
	if err != nil {
		return nil, err
	}

	handlers, err := newHandlers()
	if err != nil {
		return nil, err
	}

	pricer, err := newPricer(cfg, p.chain, logger)
	if err != nil {
		return nil, err
	}

	routers, err := attribution.ParseRouters(cfg.Routers)
	if err != nil {
		return nil, err
	}

	jsonl := storage.NewJsonlStorage(cfg.Out, cfg.Errors)
	p.syncer, err = indexer.NewSyncer(indexer.SyncConfig{
		ChainID:      chainID,
		SyncTraces:   cfg.SyncTraces,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, indexer.SyncerDeps{
		Chain:      p.chain,
		Store:      p.store,
		Classifier: events.NewClassifier(registry, logger),
		Handlers:   handlers,
		Pools:      dex.NewPoolDetailsFetcher(p.chain, nil, logger),
		Pricer:     pricer,
		Routers:    routers,
		Sink:       storage.MultiSink{p.store, jsonl},
		Errors:     jsonl,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	if cfg.MetricsAddr != "" {
		p.serveMetrics(cfg.MetricsAddr)
	}

	logger.Info("pipeline ready",
		zap.Uint64("chain_id", chainID.Uint64()),
		zap.Int("signatures", len(registry.Entries())),
		zap.Int("collection_factories", len(factories)),
		zap.Int("routers", len(routers)),
		zap.Bool("redis_pointer", p.redis != nil),
	)
	return p, nil
}

func newHandlers() (*dex.Registry, error) {
	collection, err := dex.NewCollectionHandler()
	if err != nil {
		return nil, err
	}
	handlers := []dex.Handler{collection}
	for _, kind := range []model.EventKind{model.KindERC20, model.KindERC721, model.KindERC1155} {
		h, err := dex.NewTransferHandler(kind)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, h)
	}
	return dex.NewRegistry(handlers...), nil
}

func newPricer(cfg config.Config, caller dex.ContractCaller, logger *zap.Logger) (*pricing.StaticPricer, error) {
	pc := pricing.Config{Rates: make(map[common.Address]*big.Rat, len(cfg.PriceRates))}
	if cfg.WETH != "" {
		if !common.IsHexAddress(cfg.WETH) {
			return nil, fmt.Errorf("invalid weth address: %s", cfg.WETH)
		}
		pc.WrappedNative = common.HexToAddress(cfg.WETH)
	}
	if cfg.NativeUSD != "" {
		rate, err := pricing.ParseRate(cfg.NativeUSD)
		if err != nil {
			return nil, fmt.Errorf("native usd: %w", err)
		}
		pc.NativeUSD = rate
	}
	for addr, value := range cfg.PriceRates {
		addr = strings.TrimSpace(addr)
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid price-rate address: %s", addr)
		}
		rate, err := pricing.ParseRate(value)
		if err != nil {
			return nil, fmt.Errorf("price-rate %s: %w", addr, err)
		}
		pc.Rates[common.HexToAddress(addr)] = rate
	}
	return pricing.NewStaticPricer(pc, caller, logger), nil
}

// reconciler picks the pointer store: redis when configured, then a local
// file, then the indexer_state table.
func (p *pipeline) reconciler(ctx context.Context, jobs reconcile.Submitter) (*reconcile.Reconciler, error) {
	var pointer reconcile.PointerStore
	switch {
	case p.redis != nil:
		if err := p.redis.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		pointer = reconcile.NewRedisPointer(p.redis)
	case p.cfg.PointerFile != "":
		pointer = &reconcile.FilePointer{Path: p.cfg.PointerFile}
	default:
		pointer = &reconcile.DBPointer{Store: p.store, Name: reconcile.RealtimePointerKey}
	}
	return reconcile.NewReconciler(pointer, jobs, p.chain, p.store, p.logger, p.store), nil
}

// jobBackend keeps block jobs in redis when configured, so queued gap jobs
// and pending retries are redelivered after a restart.
func (p *pipeline) jobBackend() queue.Backend {
	if p.redis != nil {
		return queue.NewRedisBackend(p.redis, queue.DefaultRedisKey)
	}
	p.logger.Warn("redis not configured, queued block jobs are lost on restart")
	return queue.NewMemoryBackend()
}

func (p *pipeline) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	p.metrics = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := p.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	p.logger.Info("metrics listening", zap.String("addr", addr))
}

func (p *pipeline) Close() {
	if p.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = p.metrics.Shutdown(ctx)
		cancel()
	}
	if p.redis != nil {
		_ = p.redis.Close()
	}
	if p.store != nil {
		p.store.Close()
	}
	if p.chain != nil {
		p.chain.Close()
	}
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
