package service

import (
	"pipeline_forecast_backend/internal/forecasting/domain"
	"pipeline_forecast_backend/internal/forecasting/engine"
	"pipeline_forecast_backend/internal/forecasting/transport"

	"github.com/shopspring/decimal"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toRange(r domain.DateRange) transport.DateRangeResponse {
	return transport.DateRangeResponse{Start: r.Start, End: r.End}
}

func toHistoricalResponse(m engine.HistoricalMetrics) transport.HistoricalResponse {
	return transport.HistoricalResponse{
		Range:             toRange(m.Range),
		WonCount:          m.WonCount,
		LostCount:         m.LostCount,
		TotalClosed:       m.TotalClosed,
		WinRate:           m.WinRate,
		TotalRevenue:      money(m.TotalRevenue),
		AvgDealSize:       money(m.AvgDealSize),
		AvgSalesCycleDays: m.AvgSalesCycleDays,
	}
}

func toConversionResponse(c engine.StageConversion) transport.ConversionResponse {
	counts := make(map[string]int, len(c.Counts))
	for stage, n := range c.Counts {
		counts[string(stage)] = n
	}
	return transport.ConversionResponse{
		Counts:                     counts,
		Total:                      c.Total,
		ProspectingToQualification: c.ProspectingToQualification,
		QualificationToProposal:    c.QualificationToProposal,
		ProposalToNegotiation:      c.ProposalToNegotiation,
		NegotiationToWon:           c.NegotiationToWon,
		Approximate:                c.Approximate,
	}
}

func toVelocityResponse(v engine.Velocity) transport.VelocityResponse {
	return transport.VelocityResponse{
		Range:              toRange(v.Range),
		TotalValue:         money(v.TotalValue),
		Days:               v.Days,
		VelocityPerDay:     money(v.VelocityPerDay),
		OpportunitiesMoved: v.OpportunitiesMoved,
	}
}

func toForecastResponse(f engine.Forecast) transport.ForecastResponse {
	return transport.ForecastResponse{
		TargetDate:       f.TargetDate,
		GeneratedAt:      f.GeneratedAt,
		DaysUntilTarget:  f.DaysUntilTarget,
		ClosedRevenue:    money(f.ClosedRevenue),
		OpenPipeline:     money(f.OpenPipeline),
		OpportunityCount: f.OpportunityCount,
		Forecasts: transport.ForecastFiguresResponse{
			Conservative:      money(f.Forecasts.Conservative),
			MostLikely:        money(f.Forecasts.MostLikely),
			Optimistic:        money(f.Forecasts.Optimistic),
			BestCase:          money(f.Forecasts.BestCase),
			VelocityBased:     money(f.Forecasts.VelocityBased),
			TimeDecayAdjusted: money(f.Forecasts.TimeDecayAdjusted),
		},
		Historical: toHistoricalResponse(f.Historical),
		Velocity:   toVelocityResponse(f.Velocity),
	}
}

func toPredictionResponses(in []engine.DealPrediction) []transport.PredictionResponse {
	out := make([]transport.PredictionResponse, 0, len(in))
	for _, p := range in {
		out = append(out, transport.PredictionResponse{
			OpportunityID:    p.OpportunityID,
			Name:             p.Name,
			Stage:            string(p.Stage),
			Amount:           money(p.Amount),
			CloseDate:        p.CloseDate,
			AccountID:        p.AccountID,
			AccountName:      p.AccountName,
			OwnerID:          p.OwnerID,
			OwnerName:        p.OwnerName,
			OwnerEmail:       p.OwnerEmail,
			AgeDays:          p.AgeDays,
			DaysToClose:      p.DaysToClose,
			BaseProbability:  p.BaseProbability,
			DecayFactor:      p.DecayFactor,
			FinalProbability: p.FinalProbability,
			ExpectedValue:    money(p.ExpectedValue),
		})
	}
	return out
}

func toPredictionsResponse(p engine.ClosingPredictions) transport.PredictionsResponse {
	return transport.PredictionsResponse{
		Predictions:   toPredictionResponses(p.Predictions),
		LikelyClosers: toPredictionResponses(p.LikelyClosers),
		AtRisk:        toPredictionResponses(p.AtRisk),
		Summary: transport.PredictionSummaryResponse{
			DaysAhead:       p.Summary.DaysAhead,
			TotalDeals:      p.Summary.TotalDeals,
			TotalValue:      money(p.Summary.TotalValue),
			ExpectedRevenue: money(p.Summary.ExpectedRevenue),
			LikelyCount:     p.Summary.LikelyCount,
			AtRiskCount:     p.Summary.AtRiskCount,
		},
	}
}

func toRepsResponse(r domain.DateRange, reps []engine.RepPerformance) transport.RepsResponse {
	out := make([]transport.RepPerformanceResponse, 0, len(reps))
	for _, rep := range reps {
		out = append(out, transport.RepPerformanceResponse{
			UserID:        rep.UserID,
			Name:          rep.Name,
			Email:         rep.Email,
			Revenue:       money(rep.Revenue),
			WonCount:      rep.WonCount,
			LostCount:     rep.LostCount,
			WinRate:       rep.WinRate,
			AvgDealSize:   money(rep.AvgDealSize),
			OpenDeals:     rep.OpenDeals,
			PipelineValue: money(rep.PipelineValue),
		})
	}
	return transport.RepsResponse{Range: toRange(r), Reps: out}
}

func toHealthResponse(h engine.PipelineHealth) transport.HealthResponse {
	stalled := make([]transport.StalledDealResponse, 0, len(h.StalledDeals))
	for _, d := range h.StalledDeals {
		stalled = append(stalled, transport.StalledDealResponse{
			OpportunityID:   d.OpportunityID,
			Name:            d.Name,
			OwnerID:         d.OwnerID,
			Stage:           string(d.Stage),
			Amount:          money(d.Amount),
			DaysSinceUpdate: d.DaysSinceUpdate,
		})
	}

	recs := h.Recommendations
	if recs == nil {
		recs = []string{}
	}

	return transport.HealthResponse{
		Score:  h.Score,
		Status: h.Status,
		Components: transport.HealthComponentsResponse{
			Coverage:          h.Components.Coverage,
			StageDistribution: h.Components.StageDistribution,
			Velocity:          h.Components.Velocity,
			Freshness:         h.Components.Freshness,
		},
		Metrics: transport.HealthMetricsResponse{
			OpenCount:      h.Metrics.OpenCount,
			TotalOpenValue: money(h.Metrics.TotalOpenValue),
			CoverageRatio:  h.Metrics.CoverageRatio,
			StageMix: transport.StageMixResponse{
				Early: h.Metrics.StageMix.Early,
				Mid:   h.Metrics.StageMix.Mid,
				Late:  h.Metrics.StageMix.Late,
			},
			RecentlyActive: h.Metrics.RecentlyActive,
			AvgAgeDays:     h.Metrics.AvgAgeDays,
			StalledCount:   h.Metrics.StalledCount,
		},
		StalledDeals:    stalled,
		Recommendations: recs,
	}
}
