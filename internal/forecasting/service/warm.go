package service

import (
	"context"
	"errors"
	"fmt"

	"pipeline_forecast_backend/internal/forecasting/transport"
	"pipeline_forecast_backend/platform/apperr"
)

// WarmableOps are the operations Warm refreshes when no list is given.
var WarmableOps = []string{OpForecast, OpHealth, OpConversion, OpPredictions}

// Warm recomputes the default view of each op, drops the op's older cache
// entries and stores the fresh one.
// Every op is attempted; failures are joined.
func (s *Service) Warm(ctx context.Context, ops []string) error {
	if len(ops) == 0 {
		ops = WarmableOps
	}

	var errs []error
	for _, op := range ops {
		if err := s.warm(ctx, op); err != nil {
			errs = append(errs, fmt.Errorf("warm %s: %w", op, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) warm(ctx context.Context, op string) error {
	now := s.engine.Now()

	switch op {
	case OpForecast:
		f, err := run(ctx, s, op, func(ctx context.Context) (transport.ForecastResponse, error) {
			out, err := s.engine.Forecast(ctx, nil)
			return toForecastResponse(out), err
		})
		if err != nil {
			return err
		}
		s.evict(ctx, op)
		s.store(ctx, forecastKey(now, nil), f)
	case OpHealth:
		h, err := run(ctx, s, op, func(ctx context.Context) (transport.HealthResponse, error) {
			out, err := s.engine.PipelineHealth(ctx)
			return toHealthResponse(out), err
		})
		if err != nil {
			return err
		}
		s.evict(ctx, op)
		s.store(ctx, healthKey(), h)
	case OpConversion:
		c, err := run(ctx, s, op, func(ctx context.Context) (transport.ConversionResponse, error) {
			out, err := s.engine.StageConversion(ctx)
			return toConversionResponse(out), err
		})
		if err != nil {
			return err
		}
		s.evict(ctx, op)
		s.store(ctx, conversionKey(), c)
	case OpPredictions:
		p, err := run(ctx, s, op, func(ctx context.Context) (transport.PredictionsResponse, error) {
			out, err := s.engine.PredictClosings(ctx, 0)
			return toPredictionsResponse(out), err
		})
		if err != nil {
			return err
		}
		s.evict(ctx, op)
		s.store(ctx, predictionsKey(0), p)
	default:
		return apperr.Validation("unknown warm operation " + op)
	}
	return nil
}
