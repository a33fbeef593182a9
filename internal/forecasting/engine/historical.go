package engine

import (
	"context"

	"pipeline_forecast_backend/internal/forecasting/domain"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// HistoricalMetrics summarises deals closed within a range.
type HistoricalMetrics struct {
	Range             domain.DateRange
	WonCount          int
	LostCount         int
	TotalClosed       int
	WinRate           float64
	TotalRevenue      decimal.Decimal
	AvgDealSize       decimal.Decimal
	AvgSalesCycleDays float64
}

// HistoricalMetrics computes win/loss performance for deals whose UpdatedAt
// (the close proxy) falls in r.
func (e *Engine) HistoricalMetrics(ctx context.Context, r domain.DateRange) (HistoricalMetrics, error) {
	closed, err := e.opportunities(ctx, "historical_metrics", closedWithin(r))
	if err != nil {
		return HistoricalMetrics{}, err
	}
	return computeHistorical(r, closed), nil
}

func closedWithin(r domain.DateRange) domain.OpportunityFilter {
	return domain.OpportunityFilter{Stages: domain.ClosedStages, UpdatedWithin: &r}
}

func computeHistorical(r domain.DateRange, closed []domain.Opportunity) HistoricalMetrics {
	m := HistoricalMetrics{Range: r, TotalRevenue: decimal.Zero}

	var cycles []float64
	for _, o := range closed {
		switch o.Stage {
		case domain.StageClosedWon:
			m.WonCount++
			m.TotalRevenue = m.TotalRevenue.Add(o.AmountValue())
			cycles = append(cycles, domain.DaysBetween(o.CreatedAt, o.UpdatedAt))
		case domain.StageClosedLost:
			m.LostCount++
		}
	}

	m.TotalClosed = m.WonCount + m.LostCount
	m.WinRate = safeRatio(float64(m.WonCount), float64(m.TotalClosed))
	m.AvgDealSize = divideByCount(m.TotalRevenue, m.WonCount)
	if len(cycles) > 0 {
		m.AvgSalesCycleDays = stat.Mean(cycles, nil)
	}
	return m
}
