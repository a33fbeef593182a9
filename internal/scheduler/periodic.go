package scheduler

import (
	"context"
	"fmt"
	"time"

	"pipeline_forecast_backend/platform/config"
	"pipeline_forecast_backend/platform/logger"

	"github.com/hibiken/asynq"
)

const defaultWarmInterval = 15 * time.Minute

// PeriodicWarmer registers the recurring cache warm-up with an asynq scheduler.
type PeriodicWarmer struct {
	scheduler *asynq.Scheduler
	queue     string
	interval  time.Duration
	log       *logger.Logger
}

func NewPeriodicWarmer(cfg config.SchedulerConfig, log *logger.Logger) (*PeriodicWarmer, error) {
	opt, err := clientOpt(cfg)
	if err != nil {
		return nil, err
	}

	interval := cfg.GetForecastWarmInterval()
	if interval <= 0 {
		interval = defaultWarmInterval
	}

	return &PeriodicWarmer{
		scheduler: asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.UTC}),
		queue:     queueName(cfg),
		interval:  interval,
		log:       log,
	}, nil
}

// CronSpec is the asynq schedule expression for the configured interval.
func (p *PeriodicWarmer) CronSpec() string {
	return warmSpec(p.interval)
}

func warmSpec(interval time.Duration) string {
	return "@every " + interval.String()
}

// Register adds the warm task for ops to the schedule.
func (p *PeriodicWarmer) Register(ops []string) (string, error) {
	task, err := NewCacheWarmTask(CacheWarmPayload{Ops: ops})
	if err != nil {
		return "", err
	}

	entryID, err := p.scheduler.Register(p.CronSpec(), task, asynq.Queue(p.queue), asynq.Timeout(warmTimeout))
	if err != nil {
		return "", fmt.Errorf("register cache warm: %w", err)
	}
	p.log.Info("forecast cache warm scheduled", "spec", p.CronSpec(), "entry", entryID)
	return entryID, nil
}

// Run blocks until ctx is cancelled.
func (p *PeriodicWarmer) Run(ctx context.Context) {
	if err := p.scheduler.Start(); err != nil {
		p.log.Error("cache warm scheduler failed to start", "error", err)
		return
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
}
