package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"pipeline_forecast_backend/internal/forecasting/cache"
	"pipeline_forecast_backend/internal/forecasting/domain"
	"pipeline_forecast_backend/internal/forecasting/engine"
	"pipeline_forecast_backend/internal/forecasting/transport"
	"pipeline_forecast_backend/platform/apperr"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testNow = time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)

type stubReader struct {
	mu    sync.Mutex
	opps  []domain.Opportunity
	users []domain.User
	err   error
	reads int
}

func (r *stubReader) ListOpportunities(context.Context, domain.OpportunityFilter) ([]domain.Opportunity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.err != nil {
		return nil, r.err
	}
	return append([]domain.Opportunity(nil), r.opps...), nil
}

func (r *stubReader) ListAccounts(context.Context) ([]domain.Account, error) {
	if r.err != nil {
		return nil, r.err
	}
	return []domain.Account{{ID: "acc-1", Name: "Acme"}}, nil
}

func (r *stubReader) ListUsers(context.Context) ([]domain.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.users, nil
}

func (r *stubReader) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string, any) (bool, error) {
	return false, errors.New("redis down")
}

func (brokenCache) Set(context.Context, string, any) error {
	return errors.New("redis down")
}

func proposalReader() *stubReader {
	closeDate := testNow.AddDate(0, 0, 1)
	return &stubReader{
		opps: []domain.Opportunity{{
			ID:        "o-1",
			Name:      "Renewal",
			AccountID: "acc-1",
			OwnerID:   "u-1",
			Stage:     domain.StageProposal,
			Amount:    "10000",
			CloseDate: &closeDate,
			CreatedAt: testNow.AddDate(0, 0, -10),
			UpdatedAt: testNow.AddDate(0, 0, -1),
		}},
		users: []domain.User{{ID: "u-1", Name: "Alice"}},
	}
}

func newTestService(t *testing.T, reader engine.Reader, c Cache) *Service {
	t.Helper()
	eng := engine.New(reader, domain.DefaultTables(), engine.WithClock(func() time.Time { return testNow }))
	return New(eng, c, nil)
}

func newRedisCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.New(client, time.Minute), mr
}

func TestForecastRendersMoney(t *testing.T) {
	svc := newTestService(t, proposalReader(), nil)

	resp, err := svc.Forecast(context.Background(), transport.ForecastRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Forecasts.MostLikely != "6000.00" || resp.Forecasts.TimeDecayAdjusted != "6000.00" {
		t.Fatalf("expected 6000.00 forecasts, got %+v", resp.Forecasts)
	}
	if resp.OpenPipeline != "10000.00" || resp.ClosedRevenue != "0.00" {
		t.Fatalf("unexpected totals: %+v", resp)
	}
}

func TestForecastTargetDateIncludesWholeDay(t *testing.T) {
	svc := newTestService(t, proposalReader(), nil)

	resp, err := svc.Forecast(context.Background(), transport.ForecastRequest{TargetDate: "2026-06-16"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.OpportunityCount != 1 {
		t.Fatalf("expected the deal closing on the target day to count, got %d", resp.OpportunityCount)
	}
	if resp.TargetDate.Day() != 16 || resp.TargetDate.Hour() != 23 {
		t.Fatalf("expected end of the target day, got %s", resp.TargetDate)
	}
}

func TestServiceCachesResponses(t *testing.T) {
	reader := proposalReader()
	c, mr := newRedisCache(t)
	svc := newTestService(t, reader, c)
	ctx := context.Background()

	first, err := svc.Health(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mr.Exists("forecasting:health") {
		t.Fatalf("expected health response to be cached")
	}

	reader.setErr(errors.New("store offline"))
	second, err := svc.Health(ctx)
	if err != nil {
		t.Fatalf("expected cached response despite store failure, got %v", err)
	}
	if second.Score != first.Score || second.Metrics.TotalOpenValue != first.Metrics.TotalOpenValue {
		t.Fatalf("expected identical cached response")
	}
}

func TestServiceWithoutCacheRecomputes(t *testing.T) {
	reader := proposalReader()
	svc := newTestService(t, reader, nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.Conversion(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if reader.reads != 2 {
		t.Fatalf("expected 2 store reads without a cache, got %d", reader.reads)
	}
}

func TestServiceIgnoresCacheFailures(t *testing.T) {
	svc := newTestService(t, proposalReader(), brokenCache{})

	resp, err := svc.Predictions(context.Background(), transport.PredictionsRequest{})
	if err != nil {
		t.Fatalf("expected cache failures to be ignored, got %v", err)
	}
	if resp.Summary.DaysAhead != engine.DefaultDaysAhead || resp.Summary.TotalDeals != 1 {
		t.Fatalf("unexpected summary: %+v", resp.Summary)
	}
	if resp.Predictions[0].AccountName != "Acme" || resp.Predictions[0].ExpectedValue != "6000.00" {
		t.Fatalf("unexpected prediction: %+v", resp.Predictions[0])
	}
}

func TestServiceStoreFailureIsUnavailableAndNotCached(t *testing.T) {
	reader := proposalReader()
	storeErr := errors.New("connection refused")
	reader.setErr(storeErr)
	c, mr := newRedisCache(t)
	svc := newTestService(t, reader, c)

	_, err := svc.Historical(context.Background(), transport.DateRangeRequest{})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to stay in the chain")
	}
	if len(mr.Keys()) != 0 {
		t.Fatalf("expected nothing cached on failure, got %v", mr.Keys())
	}
}

func TestServiceRejectsInvalidDates(t *testing.T) {
	svc := newTestService(t, proposalReader(), nil)
	ctx := context.Background()

	if _, err := svc.Forecast(ctx, transport.ForecastRequest{TargetDate: "30/06/2026"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for malformed date, got %v", err)
	}
	_, err := svc.Velocity(ctx, transport.DateRangeRequest{Start: "2026-06-10", End: "2026-06-01"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for inverted range, got %v", err)
	}
}

func TestRepsDefaultsToMonthToDate(t *testing.T) {
	svc := newTestService(t, proposalReader(), nil)

	resp, err := svc.Reps(context.Background(), transport.DateRangeRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.Range.Start.Equal(domain.StartOfMonth(testNow)) || !resp.Range.End.Equal(testNow) {
		t.Fatalf("expected month to date range, got %+v", resp.Range)
	}
	if len(resp.Reps) != 1 || resp.Reps[0].PipelineValue != "10000.00" {
		t.Fatalf("unexpected reps: %+v", resp.Reps)
	}
}

func TestWarmPopulatesCache(t *testing.T) {
	c, mr := newRedisCache(t)
	svc := newTestService(t, proposalReader(), c)

	if err := svc.Warm(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, key := range []string{
		"forecasting:forecast:2026-06-30",
		"forecasting:health",
		"forecasting:conversion",
		"forecasting:predictions:30",
	} {
		if !mr.Exists(key) {
			t.Fatalf("expected %s to be warmed, have %v", key, mr.Keys())
		}
	}
}

func TestWarmReportsEveryFailure(t *testing.T) {
	svc := newTestService(t, proposalReader(), nil)

	err := svc.Warm(context.Background(), []string{"bogus", OpHealth, "other"})
	if err == nil {
		t.Fatalf("expected error for unknown operations")
	}
	if !strings.Contains(err.Error(), "bogus") || !strings.Contains(err.Error(), "other") {
		t.Fatalf("expected both unknown ops reported, got %v", err)
	}
}

func TestWarmEvictsRolledOverEntries(t *testing.T) {
	c, mr := newRedisCache(t)
	svc := newTestService(t, proposalReader(), c)

	if err := mr.Set("forecasting:forecast:2026-05-31", `{}`); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.Warm(context.Background(), []string{OpForecast}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mr.Exists("forecasting:forecast:2026-05-31") {
		t.Fatalf("expected stale forecast entry to be evicted")
	}
	if !mr.Exists("forecasting:forecast:2026-06-30") {
		t.Fatalf("expected current forecast entry, have %v", mr.Keys())
	}
}

func TestForecastDefaultMatchesExplicitMonthEndOnNonUTCClock(t *testing.T) {
	berlin := time.FixedZone("CEST", 2*60*60)
	clock := func() time.Time { return time.Date(2026, time.June, 30, 22, 0, 0, 0, berlin) }
	c, mr := newRedisCache(t)
	eng := engine.New(proposalReader(), domain.DefaultTables(), engine.WithClock(clock))
	svc := New(eng, c, nil)
	ctx := context.Background()

	def, err := svc.Forecast(ctx, transport.ForecastRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mr.FlushAll()
	explicit, err := svc.Forecast(ctx, transport.ForecastRequest{TargetDate: "2026-06-30"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !def.TargetDate.Equal(explicit.TargetDate) {
		t.Fatalf("expected the same target instant, got %s and %s", def.TargetDate, explicit.TargetDate)
	}
	if !mr.Exists("forecasting:forecast:2026-06-30") {
		t.Fatalf("expected month-end key, have %v", mr.Keys())
	}
}
