package scheduler

import (
	"context"
	"fmt"
	"time"

	"pipeline_forecast_backend/platform/config"
	"pipeline_forecast_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Warmer recomputes and caches forecasting responses.
type Warmer interface {
	Warm(ctx context.Context, ops []string) error
}

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	warmer Warmer
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, warmer Warmer, log *logger.Logger) (*Worker, error) {
	if warmer == nil {
		return nil, fmt.Errorf("cache warmer not configured")
	}

	opt, err := clientOpt(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 2
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server: server,
		warmer: warmer,
		log:    log,
	}
	w.mux = w.routes()

	return w, nil
}

func (w *Worker) routes() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskForecastCacheWarm, w.handleCacheWarm)
	return mux
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleCacheWarm(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCacheWarmPayload(task)
	if err != nil {
		// A malformed payload will never succeed; do not retry it.
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	started := time.Now()
	if err := w.warmer.Warm(ctx, payload.Ops); err != nil {
		w.log.Warn("forecast cache warm failed", "ops", payload.Ops, "error", err)
		return err
	}

	w.log.Info("forecast cache warmed", "ops", payload.Ops, "latency_ms", time.Since(started).Milliseconds())
	return nil
}
