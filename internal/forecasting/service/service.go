// Package service orchestrates the forecasting engine for the HTTP and
// worker layers: it parses request parameters, caches rendered responses and
// maps engine results into transport DTOs.
package service

import (
	"context"
	"errors"
	"time"

	"pipeline_forecast_backend/internal/forecasting/domain"
	"pipeline_forecast_backend/internal/forecasting/engine"
	"pipeline_forecast_backend/internal/forecasting/transport"
	"pipeline_forecast_backend/platform/apperr"
	"pipeline_forecast_backend/platform/logger"
)

// Operation names, used for cache keys, logging and warm-up selection.
const (
	OpForecast    = "forecast"
	OpHistorical  = "historical"
	OpConversion  = "conversion"
	OpVelocity    = "velocity"
	OpPredictions = "predictions"
	OpReps        = "reps"
	OpHealth      = "health"
)

const (
	defaultHistoryDays  = 90
	defaultVelocityDays = 90
)

// Cache is the response cache. A nil Cache disables caching.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any) error
}

// Service provides the forecasting use cases.
type Service struct {
	engine *engine.Engine
	cache  Cache
	log    *logger.Logger
}

// New creates a forecasting service. cache may be nil.
func New(eng *engine.Engine, c Cache, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{engine: eng, cache: c, log: log}
}

// Forecast returns the revenue ensemble for req.TargetDate (end of month when empty).
func (s *Service) Forecast(ctx context.Context, req transport.ForecastRequest) (transport.ForecastResponse, error) {
	var target *time.Time
	if req.TargetDate != "" {
		day, err := parseDate("targetDate", req.TargetDate)
		if err != nil {
			return transport.ForecastResponse{}, err
		}
		end := endOfDay(day)
		target = &end
	}

	return cached(ctx, s, OpForecast, forecastKey(s.engine.Now(), target), func(ctx context.Context) (transport.ForecastResponse, error) {
		f, err := s.engine.Forecast(ctx, target)
		if err != nil {
			return transport.ForecastResponse{}, err
		}
		return toForecastResponse(f), nil
	})
}

// Historical returns win/loss metrics for the range (trailing 90 days by default).
func (s *Service) Historical(ctx context.Context, req transport.DateRangeRequest) (transport.HistoricalResponse, error) {
	r, err := resolveRange(req, domain.TrailingDays(s.engine.Now(), defaultHistoryDays))
	if err != nil {
		return transport.HistoricalResponse{}, err
	}

	return cached(ctx, s, OpHistorical, rangeKey(OpHistorical, r), func(ctx context.Context) (transport.HistoricalResponse, error) {
		m, err := s.engine.HistoricalMetrics(ctx, r)
		if err != nil {
			return transport.HistoricalResponse{}, err
		}
		return toHistoricalResponse(m), nil
	})
}

// Conversion returns snapshot-based stage conversion ratios.
func (s *Service) Conversion(ctx context.Context) (transport.ConversionResponse, error) {
	return cached(ctx, s, OpConversion, conversionKey(), func(ctx context.Context) (transport.ConversionResponse, error) {
		c, err := s.engine.StageConversion(ctx)
		if err != nil {
			return transport.ConversionResponse{}, err
		}
		return toConversionResponse(c), nil
	})
}

// Velocity returns closed revenue per day for the range (trailing 90 days by default).
func (s *Service) Velocity(ctx context.Context, req transport.DateRangeRequest) (transport.VelocityResponse, error) {
	r, err := resolveRange(req, domain.TrailingDays(s.engine.Now(), defaultVelocityDays))
	if err != nil {
		return transport.VelocityResponse{}, err
	}

	return cached(ctx, s, OpVelocity, rangeKey(OpVelocity, r), func(ctx context.Context) (transport.VelocityResponse, error) {
		v, err := s.engine.PipelineVelocity(ctx, r)
		if err != nil {
			return transport.VelocityResponse{}, err
		}
		return toVelocityResponse(v), nil
	})
}

// Predictions ranks late-stage deals closing within req.DaysAhead days.
func (s *Service) Predictions(ctx context.Context, req transport.PredictionsRequest) (transport.PredictionsResponse, error) {
	daysAhead := engine.DefaultDaysAhead
	if req.DaysAhead != nil && *req.DaysAhead > 0 {
		daysAhead = *req.DaysAhead
	}

	return cached(ctx, s, OpPredictions, predictionsKey(daysAhead), func(ctx context.Context) (transport.PredictionsResponse, error) {
		p, err := s.engine.PredictClosings(ctx, daysAhead)
		if err != nil {
			return transport.PredictionsResponse{}, err
		}
		return toPredictionsResponse(p), nil
	})
}

// Reps returns per-rep performance for the range (month to date by default).
func (s *Service) Reps(ctx context.Context, req transport.DateRangeRequest) (transport.RepsResponse, error) {
	r, err := resolveRange(req, domain.MonthToDate(s.engine.Now()))
	if err != nil {
		return transport.RepsResponse{}, err
	}

	return cached(ctx, s, OpReps, rangeKey(OpReps, r), func(ctx context.Context) (transport.RepsResponse, error) {
		reps, err := s.engine.RepPerformance(ctx, r)
		if err != nil {
			return transport.RepsResponse{}, err
		}
		return toRepsResponse(r, reps), nil
	})
}

// Health returns the pipeline health score.
func (s *Service) Health(ctx context.Context) (transport.HealthResponse, error) {
	return cached(ctx, s, OpHealth, healthKey(), func(ctx context.Context) (transport.HealthResponse, error) {
		h, err := s.engine.PipelineHealth(ctx)
		if err != nil {
			return transport.HealthResponse{}, err
		}
		return toHealthResponse(h), nil
	})
}

// cached serves key from the cache when possible, otherwise computes, logs
// and stores the result. Cache failures are logged and never fail the call;
// store failures are never cached.
func cached[T any](ctx context.Context, s *Service, op, key string, fn func(context.Context) (T, error)) (T, error) {
	log := s.log.WithContext(ctx)

	if s.cache != nil {
		var hit T
		ok, err := s.cache.Get(ctx, key, &hit)
		if err != nil {
			log.CacheError("get", key, err)
		} else if ok {
			log.Debug("forecast cache hit", "operation", op, "key", key)
			return hit, nil
		}
	}

	result, err := run(ctx, s, op, fn)
	if err != nil {
		var zero T
		return zero, err
	}

	s.store(ctx, key, result)
	return result, nil
}

func run[T any](ctx context.Context, s *Service, op string, fn func(context.Context) (T, error)) (T, error) {
	started := time.Now()
	result, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, s.storeError(ctx, op, err)
	}
	s.log.WithContext(ctx).ForecastComputed(op, float64(time.Since(started).Microseconds())/1000)
	return result, nil
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value); err != nil {
		s.log.WithContext(ctx).CacheError("set", key, err)
	}
}

// evict drops every cached entry of op when the cache supports it, so a warm
// run also clears views keyed on dates that have rolled over.
func (s *Service) evict(ctx context.Context, op string) {
	inv, ok := s.cache.(interface {
		Invalidate(ctx context.Context, op string) (int, error)
	})
	if !ok {
		return
	}
	removed, err := inv.Invalidate(ctx, op)
	if err != nil {
		s.log.WithContext(ctx).CacheError("invalidate", op, err)
		return
	}
	if removed > 0 {
		s.log.Debug("forecast cache evicted", "operation", op, "keys", removed)
	}
}

// storeError logs a failed store read and marks it unavailable. Context
// cancellation passes through untouched.
func (s *Service) storeError(ctx context.Context, op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	s.log.WithContext(ctx).DatabaseError(op, err)
	return apperr.Unavailable("pipeline data is temporarily unavailable", err).WithOp(op)
}
