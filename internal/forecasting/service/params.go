package service

import (
	"strconv"
	"time"

	"pipeline_forecast_backend/internal/forecasting/cache"
	"pipeline_forecast_backend/internal/forecasting/domain"
	"pipeline_forecast_backend/internal/forecasting/engine"
	"pipeline_forecast_backend/internal/forecasting/transport"
	"pipeline_forecast_backend/platform/apperr"
)

func parseDate(field, raw string) (time.Time, error) {
	t, err := time.ParseInLocation(transport.DateFormat, raw, time.UTC)
	if err != nil {
		return time.Time{}, apperr.Validation(field + " must be a date in YYYY-MM-DD format").
			WithDetails(map[string]string{field: "datetime=" + transport.DateFormat})
	}
	return t, nil
}

// endOfDay returns the last instant of t's calendar day, so a date bound
// includes the whole day.
func endOfDay(t time.Time) time.Time {
	return t.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// resolveRange overlays the requested bounds onto def.
func resolveRange(req transport.DateRangeRequest, def domain.DateRange) (domain.DateRange, error) {
	start, end := def.Start, def.End
	if req.Start != "" {
		day, err := parseDate("start", req.Start)
		if err != nil {
			return domain.DateRange{}, err
		}
		start = day
	}
	if req.End != "" {
		day, err := parseDate("end", req.End)
		if err != nil {
			return domain.DateRange{}, err
		}
		end = endOfDay(day)
	}

	r, err := domain.NewDateRange(start, end)
	if err != nil {
		return domain.DateRange{}, apperr.Validation("end must not be before start").
			WithDetails(map[string]string{"end": "gtefield=start"})
	}
	return r, nil
}

func rangeKey(op string, r domain.DateRange) string {
	return cache.Key(op, r.Start.Format(transport.DateFormat), r.End.Format(transport.DateFormat))
}

func forecastKey(now time.Time, target *time.Time) string {
	keyDate := domain.EndOfMonth(now)
	if target != nil {
		keyDate = *target
	}
	return cache.Key(OpForecast, keyDate.Format(transport.DateFormat))
}

func predictionsKey(daysAhead int) string {
	if daysAhead <= 0 {
		daysAhead = engine.DefaultDaysAhead
	}
	return cache.Key(OpPredictions, strconv.Itoa(daysAhead))
}

func conversionKey() string { return cache.Key(OpConversion) }

func healthKey() string { return cache.Key(OpHealth) }
