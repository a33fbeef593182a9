// Package engine implements the forecasting computations: historical win/loss
// metrics, stage conversion, velocity, the forecast ensemble, deal closing
// predictions, rep rollups and the pipeline health score.
//
// Every computation is a pure function of the store's current contents, the
// injected tables and the clock. The engine never writes, retries or caches;
// store errors are returned to the caller untouched.
package engine

import (
	"context"
	"time"

	"pipeline_forecast_backend/internal/forecasting/domain"
	"pipeline_forecast_backend/platform/logger"
)

const defaultRepConcurrency = 8

// Reader is the store-read contract the engine depends on.
type Reader interface {
	ListOpportunities(ctx context.Context, filter domain.OpportunityFilter) ([]domain.Opportunity, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// Engine is a stateless computation service. It is safe for concurrent use.
type Engine struct {
	reader         Reader
	tables         domain.Tables
	health         HealthSettings
	now            func() time.Time
	repConcurrency int
	log            *logger.Logger
}

// Option customises an Engine at construction.
type Option func(*Engine)

// WithClock replaces time.Now, mainly for tests. Readings are converted to
// UTC, the zone request dates are parsed in.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = func() time.Time { return now().UTC() }
		}
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

// WithHealthSettings replaces the pipeline health configuration.
func WithHealthSettings(settings HealthSettings) Option {
	return func(e *Engine) { e.health = settings }
}

// WithRepConcurrency bounds the number of reps aggregated in parallel.
func WithRepConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.repConcurrency = n
		}
	}
}

// WithLogger attaches a logger for debug tracing.
func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// New creates an engine reading from reader and weighting with tables.
func New(reader Reader, tables domain.Tables, opts ...Option) *Engine {
	e := &Engine{
		reader:         reader,
		tables:         tables,
		health:         DefaultHealthSettings(),
		now:            utcNow,
		repConcurrency: defaultRepConcurrency,
		log:            logger.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.now()
}

// opportunities reads through the store and re-applies the filter so a store
// that only partially honours it still yields correct results.
func (e *Engine) opportunities(ctx context.Context, op string, filter domain.OpportunityFilter) ([]domain.Opportunity, error) {
	opps, err := e.reader.ListOpportunities(ctx, filter)
	if err != nil {
		e.log.WithContext(ctx).Debug("opportunity read failed", "operation", op, "error", err)
		return nil, err
	}
	matched := filter.Apply(opps)
	e.log.WithContext(ctx).Debug("opportunities read", "operation", op, "fetched", len(opps), "matched", len(matched))
	return matched, nil
}

func safeRatio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
