package engine

import (
	"context"
	"time"

	"pipeline_forecast_backend/internal/forecasting/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	// commitThreshold is the effective probability at which a deal counts as committed.
	commitThreshold = 0.8
	// historyWindowDays is the trailing window for win rate and velocity.
	historyWindowDays = 90
)

// ForecastFigures are the competing revenue projections for the target date.
type ForecastFigures struct {
	Conservative      decimal.Decimal // open pipeline x historical win rate
	MostLikely        decimal.Decimal // probability-weighted pipeline
	Optimistic        decimal.Decimal // committed deals (p >= 0.8) at full value
	BestCase          decimal.Decimal // every open deal at full value
	VelocityBased     decimal.Decimal
	TimeDecayAdjusted decimal.Decimal
}

// Forecast bundles the ensemble output with the inputs it was derived from.
type Forecast struct {
	TargetDate       time.Time
	GeneratedAt      time.Time
	DaysUntilTarget  float64
	ClosedRevenue    decimal.Decimal
	OpenPipeline     decimal.Decimal
	OpportunityCount int
	Forecasts        ForecastFigures
	Historical       HistoricalMetrics
	Velocity         Velocity
}

// Forecast projects revenue for open deals expected to close on or before
// targetDate (end of the current month when nil).
func (e *Engine) Forecast(ctx context.Context, targetDate *time.Time) (Forecast, error) {
	now := e.now()
	target := domain.EndOfMonth(now)
	if targetDate != nil {
		target = *targetDate
	}

	window := domain.TrailingDays(now, historyWindowDays)
	monthToDate := domain.MonthToDate(now)
	dueBy := domain.DateRange{Start: time.Time{}, End: target}

	var (
		open      []domain.Opportunity
		closed    []domain.Opportunity
		wonThisMo []domain.Opportunity
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		open, err = e.opportunities(gctx, "forecast_open", domain.OpportunityFilter{
			Stages:      domain.OpenStages,
			CloseWithin: &dueBy,
		})
		return err
	})
	g.Go(func() error {
		var err error
		closed, err = e.opportunities(gctx, "forecast_history", closedWithin(window))
		return err
	})
	g.Go(func() error {
		var err error
		wonThisMo, err = e.opportunities(gctx, "forecast_month_to_date", domain.OpportunityFilter{
			Stages:        []domain.Stage{domain.StageClosedWon},
			UpdatedWithin: &monthToDate,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return Forecast{}, err
	}

	figures := ForecastFigures{
		MostLikely:        decimal.Zero,
		BestCase:          decimal.Zero,
		Optimistic:        decimal.Zero,
		TimeDecayAdjusted: decimal.Zero,
	}
	for _, o := range open {
		amount := o.AmountValue()
		p := o.EffectiveProbability(e.tables.Stages)
		decay := e.tables.Decay.Factor(o.AgeDays(now))

		figures.BestCase = figures.BestCase.Add(amount)
		weighted := weight(amount, p)
		figures.MostLikely = figures.MostLikely.Add(weighted)
		figures.TimeDecayAdjusted = figures.TimeDecayAdjusted.Add(weight(weighted, decay))
		if p >= commitThreshold {
			figures.Optimistic = figures.Optimistic.Add(amount)
		}
	}

	historical := computeHistorical(window, closed)
	velocity := computeVelocity(window, closed)

	daysUntil := domain.DaysBetween(now, target)
	if daysUntil < 0 {
		daysUntil = 0
	}

	figures.Conservative = weight(figures.BestCase, historical.WinRate)
	figures.VelocityBased = weight(velocity.VelocityPerDay, daysUntil*historical.WinRate)

	closedRevenue := decimal.Zero
	for _, o := range wonThisMo {
		closedRevenue = closedRevenue.Add(o.AmountValue())
	}

	return Forecast{
		TargetDate:       target,
		GeneratedAt:      now,
		DaysUntilTarget:  daysUntil,
		ClosedRevenue:    closedRevenue,
		OpenPipeline:     figures.BestCase,
		OpportunityCount: len(open),
		Forecasts:        figures,
		Historical:       historical,
		Velocity:         velocity,
	}, nil
}
