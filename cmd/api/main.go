package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/kinohub/moviesearch/internal/cache"
	httpx "github.com/kinohub/moviesearch/internal/http"
	"github.com/kinohub/moviesearch/internal/search"
	"github.com/kinohub/moviesearch/internal/search/elastic"
	"github.com/kinohub/moviesearch/internal/service/film"
	"github.com/kinohub/moviesearch/internal/service/genre"
	"github.com/kinohub/moviesearch/internal/service/person"
	"github.com/kinohub/moviesearch/internal/waitfor"
	"github.com/kinohub/moviesearch/pkg/config"
	"github.com/kinohub/moviesearch/pkg/logger"
)

func main() {
	cfg := config.LoadAPIConfig()
	log := logger.New("api", logger.ParseLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	redisCache := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer redisCache.Close()
	if err := waitfor.Ready(ctx, "redis", cfg.StartupWait, log, redisCache.Ping); err != nil {
		log.Error("cache backend unavailable", "error", err)
		os.Exit(1)
	}

	filmSvc := film.New(elastic.New(es, search.IndexMovies), redisCache, log, cfg.CacheTTL)
	genreSvc := genre.New(elastic.New(es, search.IndexGenres), redisCache, log, cfg.CacheTTL)
	personSvc := person.New(elastic.New(es, search.IndexPersons), filmSvc, redisCache, log, cfg.CacheTTL, cfg.Workers)

	limiter := httpx.NewMemoryRateLimiter()
	if addr := strings.TrimSpace(cfg.RateLimitRedisAddr); addr != "" {
		redisLimiter, err := httpx.NewRedisRateLimiter(addr, cfg.RateLimitRedisPass, cfg.RateLimitRedisDB, log)
		if err != nil {
			log.Warn("redis rate limiter unavailable", "error", err)
		} else {
			limiter = redisLimiter
		}
	}

	limits := httpx.RateLimits{
		Read:   cfg.RateLimitRead,
		Search: cfg.RateLimitSearch,
		Window: cfg.RateLimitWindow,
	}
	router := httpx.NewRouter(log, filmSvc, genreSvc, personSvc, limiter, limits, cfg.Workers, searchPing, redisCache.Ping)
	defer router.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errorCh := make(chan error, 1)
	go func() {
		log.Info("api server starting", "addr", cfg.Addr, "workers", cfg.Workers)
		errorCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
		log.Info("api server stopped")
	case err := <-errorCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}
