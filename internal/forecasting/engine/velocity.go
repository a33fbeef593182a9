package engine

import (
	"context"

	"pipeline_forecast_backend/internal/forecasting/domain"

	"github.com/shopspring/decimal"
)

// Velocity is revenue moved through to a close per day.
type Velocity struct {
	Range              domain.DateRange
	TotalValue         decimal.Decimal
	Days               float64
	VelocityPerDay     decimal.Decimal
	OpportunitiesMoved int
}

// PipelineVelocity sums the amounts of deals closed (won or lost) in r and
// spreads them over the range length.
func (e *Engine) PipelineVelocity(ctx context.Context, r domain.DateRange) (Velocity, error) {
	closed, err := e.opportunities(ctx, "pipeline_velocity", closedWithin(r))
	if err != nil {
		return Velocity{}, err
	}
	return computeVelocity(r, closed), nil
}

func computeVelocity(r domain.DateRange, closed []domain.Opportunity) Velocity {
	total := decimal.Zero
	for _, o := range closed {
		total = total.Add(o.AmountValue())
	}

	days := r.Days()
	return Velocity{
		Range:              r,
		TotalValue:         total,
		Days:               days,
		VelocityPerDay:     divideByDays(total, days),
		OpportunitiesMoved: len(closed),
	}
}
