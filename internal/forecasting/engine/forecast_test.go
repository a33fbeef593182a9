package engine

import (
	"context"
	"testing"

	"pipeline_forecast_backend/internal/forecasting/domain"
)

func TestForecastEnsemble(t *testing.T) {
	reader := &fakeReader{opps: []domain.Opportunity{
		withClose(opp("fresh-proposal", domain.StageProposal, "10000", 10, 1), daysFromNow(1)),
		withClose(opp("aged-negotiation", domain.StageNegotiation, "20000", 75, 2), daysFromNow(5)),
		withClose(opp("after-target", domain.StageProspecting, "5000", 5, 1), daysFromNow(60)),
		opp("no-close-date", domain.StageQualification, "8000", 5, 1),
		withClose(opp("won", domain.StageClosedWon, "7000", 40, 5), daysFromNow(2)),
		opp("lost", domain.StageClosedLost, "2000", 60, 20),
		opp("ancient-win", domain.StageClosedWon, "90000", 300, 120),
	}}
	target := daysFromNow(10)

	f, err := newTestEngine(reader).Forecast(context.Background(), target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !f.TargetDate.Equal(*target) {
		t.Fatalf("expected target %s, got %s", target, f.TargetDate)
	}
	if f.OpportunityCount != 2 {
		t.Fatalf("expected 2 open opportunities due by target, got %d", f.OpportunityCount)
	}
	assertFloat(t, "days until target", f.DaysUntilTarget, 10)
	assertDecimal(t, "open pipeline", f.OpenPipeline, "30000")
	assertDecimal(t, "best case", f.Forecasts.BestCase, "30000")
	assertDecimal(t, "most likely", f.Forecasts.MostLikely, "22000")
	assertDecimal(t, "optimistic", f.Forecasts.Optimistic, "20000")
	assertDecimal(t, "time decay adjusted", f.Forecasts.TimeDecayAdjusted, "14000")
	assertFloat(t, "win rate", f.Historical.WinRate, 0.5)
	assertDecimal(t, "conservative", f.Forecasts.Conservative, "15000")
	assertDecimal(t, "velocity per day", f.Velocity.VelocityPerDay, "100")
	assertDecimal(t, "velocity based", f.Forecasts.VelocityBased, "500")
	assertDecimal(t, "closed revenue", f.ClosedRevenue, "7000")
	if !f.GeneratedAt.Equal(testNow) {
		t.Fatalf("expected generatedAt %s, got %s", testNow, f.GeneratedAt)
	}
}

func TestForecastSingleProposal(t *testing.T) {
	reader := &fakeReader{opps: []domain.Opportunity{
		withClose(opp("p", domain.StageProposal, "10000", 10, 1), daysFromNow(1)),
	}}

	f, err := newTestEngine(reader).Forecast(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertDecimal(t, "most likely", f.Forecasts.MostLikely, "6000")
	assertDecimal(t, "time decay adjusted", f.Forecasts.TimeDecayAdjusted, "6000")
	assertDecimal(t, "optimistic", f.Forecasts.Optimistic, "0")
	assertDecimal(t, "conservative without history", f.Forecasts.Conservative, "0")
	assertDecimal(t, "velocity based without history", f.Forecasts.VelocityBased, "0")
}

func TestForecastAgedProposalDecays(t *testing.T) {
	reader := &fakeReader{opps: []domain.Opportunity{
		withClose(opp("p", domain.StageProposal, "10000", 75, 1), daysFromNow(1)),
	}}

	f, err := newTestEngine(reader).Forecast(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertDecimal(t, "most likely", f.Forecasts.MostLikely, "6000")
	assertDecimal(t, "time decay adjusted", f.Forecasts.TimeDecayAdjusted, "3000")
}

func TestForecastDefaultsToEndOfMonth(t *testing.T) {
	f, err := newTestEngine(&fakeReader{}).Forecast(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !f.TargetDate.Equal(domain.EndOfMonth(testNow)) {
		t.Fatalf("expected end of month target, got %s", f.TargetDate)
	}
	assertFloat(t, "days until target", f.DaysUntilTarget, 15.5)
	if f.OpportunityCount != 0 || !f.Forecasts.BestCase.IsZero() {
		t.Fatalf("expected an empty forecast, got %+v", f.Forecasts)
	}
}

func TestForecastPastTargetClampsDays(t *testing.T) {
	past := testNow.AddDate(0, 0, -5)
	reader := &fakeReader{opps: []domain.Opportunity{
		opp("won", domain.StageClosedWon, "9000", 40, 3),
		withClose(opp("overdue", domain.StageNegotiation, "1000", 10, 1), &past),
	}}

	f, err := newTestEngine(reader).Forecast(context.Background(), &past)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.DaysUntilTarget != 0 {
		t.Fatalf("expected days until a past target to clamp to 0, got %v", f.DaysUntilTarget)
	}
	assertDecimal(t, "velocity based", f.Forecasts.VelocityBased, "0")
	assertDecimal(t, "best case", f.Forecasts.BestCase, "1000")
}

func TestForecastUsesCustomProbability(t *testing.T) {
	reader := &fakeReader{opps: []domain.Opportunity{
		func() domain.Opportunity {
			o := withClose(opp("custom", domain.StageProposal, "10000", 10, 1), daysFromNow(3))
			o.Probability = intPtr(90)
			return o
		}(),
		func() domain.Opportunity {
			o := withClose(opp("overflow", domain.StageProspecting, "1000", 10, 1), daysFromNow(3))
			o.Probability = intPtr(150)
			return o
		}(),
	}}

	f, err := newTestEngine(reader).Forecast(context.Background(), daysFromNow(5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertDecimal(t, "most likely", f.Forecasts.MostLikely, "10000")
	assertDecimal(t, "optimistic", f.Forecasts.Optimistic, "11000")
}

func TestForecastFigureOrdering(t *testing.T) {
	var opps []domain.Opportunity
	stages := []domain.Stage{domain.StageProspecting, domain.StageQualification, domain.StageProposal, domain.StageNegotiation}
	for i := 0; i < 20; i++ {
		o := withClose(opp("d", stages[i%len(stages)], "1234.56", i*7, 1), daysFromNow(i%10))
		if i%5 == 0 {
			o.Probability = intPtr(i * 5)
		}
		opps = append(opps, o)
	}

	f, err := newTestEngine(&fakeReader{opps: opps}).Forecast(context.Background(), daysFromNow(15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fig := f.Forecasts
	if fig.MostLikely.GreaterThan(fig.BestCase) {
		t.Fatalf("expected most likely %s <= best case %s", fig.MostLikely, fig.BestCase)
	}
	if fig.Optimistic.GreaterThan(fig.BestCase) {
		t.Fatalf("expected optimistic %s <= best case %s", fig.Optimistic, fig.BestCase)
	}
	if fig.TimeDecayAdjusted.GreaterThan(fig.MostLikely) {
		t.Fatalf("expected time decay adjusted %s <= most likely %s", fig.TimeDecayAdjusted, fig.MostLikely)
	}
	if fig.MostLikely.IsNegative() || fig.TimeDecayAdjusted.IsNegative() {
		t.Fatalf("expected non-negative figures, got %+v", fig)
	}
}
