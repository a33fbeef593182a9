package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pipeline_forecast_backend/internal/forecasting"
	"pipeline_forecast_backend/internal/forecasting/cache"
	"pipeline_forecast_backend/internal/forecasting/service"
	"pipeline_forecast_backend/internal/scheduler"
	"pipeline_forecast_backend/platform/config"
	"pipeline_forecast_backend/platform/db"
	"pipeline_forecast_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "warmInterval", cfg.GetForecastWarmInterval().String())

	if cfg.GetRedisURL() == "" {
		panic("REDIS_URL is required for the scheduler")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	rdb, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("failed to initialize redis client", "error", err)
		panic("failed to initialize redis client: " + err.Error())
	}
	defer func() { _ = rdb.Close() }()

	svc, err := forecasting.NewService(pool, rdb, cfg, log)
	if err != nil {
		log.Error("failed to initialize forecasting service", "error", err)
		panic("failed to initialize forecasting service: " + err.Error())
	}

	worker, err := scheduler.NewWorker(cfg, svc, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	periodic, err := scheduler.NewPeriodicWarmer(cfg, log)
	if err != nil {
		log.Error("failed to initialize cache warm scheduler", "error", err)
		panic("failed to initialize cache warm scheduler: " + err.Error())
	}
	if _, err := periodic.Register(service.WarmableOps); err != nil {
		log.Error("failed to register cache warm", "error", err)
		panic("failed to register cache warm: " + err.Error())
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	// Warm once at boot so the first requests after a deploy hit the cache.
	if err := client.EnqueueCacheWarm(ctx, service.WarmableOps); err != nil {
		log.Warn("initial cache warm not enqueued", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		periodic.Run(gctx)
		return nil
	})
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})
	_ = g.Wait()
	log.Info("scheduler stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
