package engine

import (
	"context"
	"sort"

	"pipeline_forecast_backend/internal/forecasting/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// RepPerformance is one representative's rollup.
type RepPerformance struct {
	UserID        string
	Name          string
	Email         string
	Revenue       decimal.Decimal
	WonCount      int
	LostCount     int
	WinRate       float64
	AvgDealSize   decimal.Decimal
	OpenDeals     int
	PipelineValue decimal.Decimal
}

// RepPerformance aggregates every user's won/lost results in r and their
// current open pipeline. Reps are computed concurrently and sorted by revenue
// once all have completed.
func (e *Engine) RepPerformance(ctx context.Context, r domain.DateRange) ([]RepPerformance, error) {
	users, err := e.reader.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]RepPerformance, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.repConcurrency)
	for i, user := range users {
		i, user := i, user
		g.Go(func() error {
			perf, err := e.repPerformance(gctx, user, r)
			if err != nil {
				return err
			}
			results[i] = perf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		if cmp := results[i].Revenue.Cmp(results[j].Revenue); cmp != 0 {
			return cmp > 0
		}
		return results[i].Name < results[j].Name
	})
	return results, nil
}

func (e *Engine) repPerformance(ctx context.Context, user domain.User, r domain.DateRange) (RepPerformance, error) {
	closedFilter := closedWithin(r)
	closedFilter.OwnerID = user.ID
	closed, err := e.opportunities(ctx, "rep_closed", closedFilter)
	if err != nil {
		return RepPerformance{}, err
	}

	open, err := e.opportunities(ctx, "rep_open", domain.OpportunityFilter{
		Stages:  domain.OpenStages,
		OwnerID: user.ID,
	})
	if err != nil {
		return RepPerformance{}, err
	}

	perf := RepPerformance{
		UserID:        user.ID,
		Name:          user.Name,
		Email:         user.Email,
		Revenue:       decimal.Zero,
		PipelineValue: decimal.Zero,
		OpenDeals:     len(open),
	}
	for _, o := range closed {
		if o.Stage == domain.StageClosedWon {
			perf.WonCount++
			perf.Revenue = perf.Revenue.Add(o.AmountValue())
		} else {
			perf.LostCount++
		}
	}
	for _, o := range open {
		perf.PipelineValue = perf.PipelineValue.Add(o.AmountValue())
	}

	perf.WinRate = safeRatio(float64(perf.WonCount), float64(perf.WonCount+perf.LostCount))
	perf.AvgDealSize = divideByCount(perf.Revenue, perf.WonCount)
	return perf, nil
}
