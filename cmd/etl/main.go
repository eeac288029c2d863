package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kinohub/moviesearch/internal/etl"
	"github.com/kinohub/moviesearch/internal/search/elastic"
	"github.com/kinohub/moviesearch/internal/waitfor"
	"github.com/kinohub/moviesearch/pkg/config"
	"github.com/kinohub/moviesearch/pkg/logger"
)

func main() {
	cfg := config.LoadETLConfig()
	log := logger.New("etl", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := waitfor.Ready(ctx, "postgres", cfg.StartupWait, log, pool.Ping); err != nil {
		log.Error("database unavailable", "error", err)
		os.Exit(1)
	}

	es, err := elastic.NewClient(cfg.ElasticURL)
	if err != nil {
		log.Error("failed to configure search client", "error", err)
		os.Exit(1)
	}
	searchPing := func(ctx context.Context) error { return elastic.Ping(ctx, es) }
	if err := waitfor.Ready(ctx, "elasticsearch", cfg.StartupWait, log, searchPing); err != nil {
		log.Error("search backend unavailable", "error", err)
		os.Exit(1)
	}
	if err := elastic.EnsureIndices(ctx, es, log); err != nil {
		log.Error("failed to ensure indices", "error", err)
		os.Exit(1)
	}

	state := etl.NewState(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer state.Close()
	if err := waitfor.Ready(ctx, "redis", cfg.StartupWait, log, state.Ping); err != nil {
		log.Error("state store unavailable", "error", err)
		os.Exit(1)
	}

	runner := etl.NewRunner(etl.NewExtractor(pool), etl.NewLoader(es), state, log, cfg.SyncInterval, cfg.BatchSize)

	if cfg.Once {
		if err := runner.SyncOnce(ctx); err != nil {
			log.Error("sync failed", "error", err)
			os.Exit(1)
		}
		log.Info("sync complete")
		return
	}

	log.Info("content sync starting", "interval", cfg.SyncInterval.String(), "batch_size", cfg.BatchSize)
	runner.Run(ctx)
	log.Info("content sync stopped")
}
