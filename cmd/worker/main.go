package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/stockledger/stockledger/internal/app"
	"github.com/stockledger/stockledger/internal/catalog"
	"github.com/stockledger/stockledger/internal/ledger"
	"github.com/stockledger/stockledger/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	catalogPool := pool
	if cfg.CatalogPGDSN != cfg.PGDSN {
		catalogPool, err = pgxpool.New(ctx, cfg.CatalogPGDSN)
		if err != nil {
			logger.Error("connect catalog database", slog.Any("error", err))
			os.Exit(1)
		}
		defer catalogPool.Close()
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}

	catalogRepo := catalog.NewRepository(catalogPool)
	resolver := catalog.NewResolver(catalogRepo)
	refreshJob := jobs.NewCatalogRefreshJob(resolver, logger)

	ledgerRepo := ledger.NewRepository(pool)
	aggregateCache := ledger.NewCache(redisClient, cfg.StockCacheTTL, logger)
	ledgerService := ledger.NewService(ledgerRepo, resolver, aggregateCache)
	warmupJob := jobs.NewStockWarmupJob(ledgerService, logger)

	refreshTask, err := jobs.NewCatalogRefreshTask("cron")
	if err != nil {
		logger.Error("build catalog refresh task", slog.Any("error", err))
		os.Exit(1)
	}
	warmupTask, err := jobs.NewStockWarmupTask("cron")
	if err != nil {
		logger.Error("build stock warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskCatalogRefresh, Handler: refreshJob.Handle},
			{Type: jobs.TaskStockWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.CatalogRefreshCron, Task: refreshTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.StockWarmupCron, Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
