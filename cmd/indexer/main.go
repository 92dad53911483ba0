package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"chainSync/internal/config"
	"chainSync/internal/indexer"
	"chainSync/internal/model"
	"chainSync/internal/queue"
	"chainSync/internal/reconcile"
)

func main() {
	root := &cobra.Command{
		Use:          "indexer",
		Short:        "Block to event sync pipeline",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("rpc", "", "RPC URL")
	flags.String("pg-dsn", "", "Postgres DSN")
	flags.String("redis-url", "", "redis URL for the realtime pointer")
	flags.String("pointer-file", "", "local file for the realtime pointer when redis is not configured")
	flags.String("out", "./data/onchain.jsonl", "output JSONL path for handler output")
	flags.String("errors", "./data/decode_errors.jsonl", "decode errors JSONL")
	flags.Int("max-retries", 5, "maximum retry attempts")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	flags.Bool("sync-traces", false, "fetch and store call traces for every block")
	flags.String("metrics-addr", "", "address for the prometheus endpoint, empty disables it")
	flags.StringSlice("collection-factory", nil, "collection pool factory addresses (comma-separated)")
	flags.String("router", "", "router attribution (comma-separated address=domain)")
	flags.String("weth", "", "wrapped native token address")
	flags.String("native-usd", "", "USD per native unit")
	flags.String("price-rate", "", "native units per token unit (comma-separated address=rate)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Follow the chain head and sync new blocks",
		RunE:  runSync,
	}
	syncCmd.Flags().Int("workers", 4, "concurrent block jobs")
	syncCmd.Flags().Duration("poll-interval", 2*time.Second, "head polling interval")
	syncCmd.Flags().Uint64("orphan-depth", 1, "blocks behind each synced block to check for orphans, 0 disables")
	root.AddCommand(syncCmd)

	backfillCmd := &cobra.Command{
		Use:   "backfill",
		Short: "Sync a historical block range",
		RunE:  runBackfill,
	}
	backfillCmd.Flags().Uint64("from", 0, "start block (inclusive)")
	backfillCmd.Flags().Uint64("to", 0, "end block (inclusive), 0 means latest")
	backfillCmd.Flags().Uint64("batch-size", 100, "blocks per checkpointed batch")
	backfillCmd.Flags().Int("workers", 4, "concurrent blocks per batch")
	backfillCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	backfillCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	root.AddCommand(backfillCmd)

	orphanCmd := &cobra.Command{
		Use:   "orphan",
		Short: "Check one height for an orphaned block and repair it",
		RunE:  runOrphan,
	}
	orphanCmd.Flags().Uint64("block", 0, "height to check")
	root.AddCommand(orphanCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, *zap.Logger, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

func runSync(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := newPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	jobs := queue.NewService(queue.Config{
		Workers:      cfg.Workers,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, p.jobBackend(), logger)
	defer jobs.Close()

	reconciler, err := p.reconciler(ctx, jobs)
	if err != nil {
		return err
	}
	processor := indexer.NewProcessor(p.syncer, reconciler, cfg.OrphanDepth, logger)
	follower := indexer.NewFollower(p.chain, jobs, cfg.PollInterval, logger)

	logger.Info("sync start",
		zap.String("rpc", cfg.RPCURL),
		zap.String("pg_dsn", redactDSN(cfg.PgDSN)),
		zap.Int("workers", cfg.Workers),
		zap.Duration("poll_interval", cfg.PollInterval),
		zap.Uint64("orphan_depth", cfg.OrphanDepth),
		zap.Bool("sync_traces", cfg.SyncTraces),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return jobs.Start(gctx, processor)
	})
	g.Go(func() error {
		return follower.Run(gctx)
	})
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func runBackfill(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := newPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	backfill := indexer.NewBackfill(indexer.BackfillConfig{
		ChainID:           p.chainID,
		FromBlock:         cfg.FromBlock,
		ToBlock:           cfg.ToBlock,
		BatchSize:         cfg.BatchSize,
		Workers:           cfg.Workers,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, p.chain, p.syncer, logger)

	logger.Info("backfill start",
		zap.String("rpc", cfg.RPCURL),
		zap.Uint64("from", cfg.FromBlock),
		zap.Uint64("to", cfg.ToBlock),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Int("workers", cfg.Workers),
		zap.String("out", cfg.Out),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	return backfill.Run(ctx)
}

func runOrphan(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	block, _ := cmd.Flags().GetUint64("block")
	if block == 0 {
		return fmt.Errorf("block is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := newPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	// The canonical block replacing a removed orphan is synced in place.
	resync := reconcile.SubmitterFunc(func(ctx context.Context, job model.BlockJob) error {
		return p.syncer.SyncBlock(ctx, job.Block)
	})
	reconciler, err := p.reconciler(ctx, resync)
	if err != nil {
		return err
	}
	return reconciler.CheckOrphan(ctx, block)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
