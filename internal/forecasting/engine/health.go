package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"pipeline_forecast_backend/internal/forecasting/domain"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

// Health status labels.
const (
	HealthStatusHealthy        = "healthy"
	HealthStatusNeedsAttention = "needs_attention"
	HealthStatusCritical       = "critical"
)

const componentAlertThreshold = 50

// HealthWeights are the component weights of the overall score. They should sum to 1.
type HealthWeights struct {
	Coverage     float64
	Distribution float64
	Velocity     float64
	Freshness    float64
}

// StageMix is a share of open deals per funnel segment:
// early = prospecting + qualification, mid = proposal, late = negotiation.
type StageMix struct {
	Early float64
	Mid   float64
	Late  float64
}

// HealthSettings configures the pipeline health scorer.
type HealthSettings struct {
	MonthlyTarget        decimal.Decimal
	TargetCoverage       float64 // coverage multiple that scores 100
	Weights              HealthWeights
	IdealMix             StageMix
	ActivityWindowDays   int
	StalledAfterDays     int
	StalledListLimit     int
	FreshnessHorizonDays int
}

// DefaultHealthSettings returns a 100k monthly target, 3x coverage, 30/30/20/20
// weights, a 40/30/30 ideal mix and a 30 day stall threshold.
func DefaultHealthSettings() HealthSettings {
	return HealthSettings{
		MonthlyTarget:  decimal.NewFromInt(100000),
		TargetCoverage: 3,
		Weights: HealthWeights{
			Coverage:     0.30,
			Distribution: 0.30,
			Velocity:     0.20,
			Freshness:    0.20,
		},
		IdealMix:             StageMix{Early: 0.40, Mid: 0.30, Late: 0.30},
		ActivityWindowDays:   30,
		StalledAfterDays:     30,
		StalledListLimit:     10,
		FreshnessHorizonDays: 90,
	}
}

// HealthComponents are the four sub-scores, each in [0, 100].
type HealthComponents struct {
	Coverage          float64
	StageDistribution float64
	Velocity          float64
	Freshness         float64
}

// HealthMetrics are the raw measurements behind the components.
type HealthMetrics struct {
	OpenCount      int
	TotalOpenValue decimal.Decimal
	CoverageRatio  float64
	StageMix       StageMix
	RecentlyActive int
	AvgAgeDays     float64
	StalledCount   int
}

// StalledDeal is an open deal with no update inside the stall threshold.
type StalledDeal struct {
	OpportunityID   string
	Name            string
	OwnerID         string
	Stage           domain.Stage
	Amount          decimal.Decimal
	DaysSinceUpdate float64
}

// PipelineHealth is the composite score with its explanation.
type PipelineHealth struct {
	Score           int
	Status          string
	Components      HealthComponents
	Metrics         HealthMetrics
	StalledDeals    []StalledDeal
	Recommendations []string
}

// PipelineHealth scores the current open pipeline from 0 to 100.
func (e *Engine) PipelineHealth(ctx context.Context) (PipelineHealth, error) {
	open, err := e.opportunities(ctx, "pipeline_health", domain.OpportunityFilter{Stages: domain.OpenStages})
	if err != nil {
		return PipelineHealth{}, err
	}
	return scoreHealth(open, e.now(), e.health), nil
}

func scoreHealth(open []domain.Opportunity, now time.Time, s HealthSettings) PipelineHealth {
	if len(open) == 0 {
		return PipelineHealth{
			Score:           0,
			Status:          HealthStatusCritical,
			Metrics:         HealthMetrics{TotalOpenValue: decimal.Zero},
			StalledDeals:    make([]StalledDeal, 0),
			Recommendations: []string{"No open opportunities. Build pipeline by prospecting new accounts."},
		}
	}

	metrics := HealthMetrics{OpenCount: len(open), TotalOpenValue: decimal.Zero}
	ages := make([]float64, 0, len(open))
	stalled := make([]StalledDeal, 0)
	var early, mid, late int

	for _, o := range open {
		metrics.TotalOpenValue = metrics.TotalOpenValue.Add(o.AmountValue())
		ages = append(ages, o.AgeDays(now))

		switch o.Stage {
		case domain.StageProspecting, domain.StageQualification:
			early++
		case domain.StageProposal:
			mid++
		case domain.StageNegotiation:
			late++
		}

		sinceUpdate := o.DaysSinceUpdate(now)
		if sinceUpdate <= float64(s.ActivityWindowDays) {
			metrics.RecentlyActive++
		}
		if sinceUpdate > float64(s.StalledAfterDays) {
			stalled = append(stalled, StalledDeal{
				OpportunityID:   o.ID,
				Name:            o.Name,
				OwnerID:         o.OwnerID,
				Stage:           o.Stage,
				Amount:          o.AmountValue(),
				DaysSinceUpdate: sinceUpdate,
			})
		}
	}

	count := float64(len(open))
	metrics.StageMix = StageMix{
		Early: float64(early) / count,
		Mid:   float64(mid) / count,
		Late:  float64(late) / count,
	}
	metrics.AvgAgeDays = stat.Mean(ages, nil)
	metrics.StalledCount = len(stalled)

	components := HealthComponents{}

	if s.MonthlyTarget.IsPositive() {
		metrics.CoverageRatio = metrics.TotalOpenValue.Div(s.MonthlyTarget).InexactFloat64()
		if s.TargetCoverage > 0 {
			components.Coverage = clampScore(metrics.CoverageRatio / s.TargetCoverage * 100)
		}
	}

	deviation := math.Abs(metrics.StageMix.Early-s.IdealMix.Early) +
		math.Abs(metrics.StageMix.Mid-s.IdealMix.Mid) +
		math.Abs(metrics.StageMix.Late-s.IdealMix.Late)
	components.StageDistribution = math.Max(0, (1-deviation)*100)

	components.Velocity = float64(metrics.RecentlyActive) / count * 100

	if s.FreshnessHorizonDays > 0 {
		components.Freshness = clampScore((1 - metrics.AvgAgeDays/float64(s.FreshnessHorizonDays)) * 100)
	}

	weighted := components.Coverage*s.Weights.Coverage +
		components.StageDistribution*s.Weights.Distribution +
		components.Velocity*s.Weights.Velocity +
		components.Freshness*s.Weights.Freshness
	score := int(math.Round(clampScore(weighted)))

	sort.SliceStable(stalled, func(i, j int) bool {
		return stalled[i].DaysSinceUpdate > stalled[j].DaysSinceUpdate
	})
	listed := stalled
	if s.StalledListLimit >= 0 && len(listed) > s.StalledListLimit {
		listed = listed[:s.StalledListLimit]
	}

	return PipelineHealth{
		Score:           score,
		Status:          healthStatus(score),
		Components:      components,
		Metrics:         metrics,
		StalledDeals:    listed,
		Recommendations: recommend(components, metrics, s),
	}
}

// clampScore bounds a component or total to 0..100. Negative amounts can
// make the open pipeline net negative.
func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func healthStatus(score int) string {
	switch {
	case score >= 75:
		return HealthStatusHealthy
	case score >= 50:
		return HealthStatusNeedsAttention
	default:
		return HealthStatusCritical
	}
}

func recommend(c HealthComponents, m HealthMetrics, s HealthSettings) []string {
	recs := make([]string, 0, 5)
	if c.Coverage < componentAlertThreshold {
		recs = append(recs, fmt.Sprintf(
			"Pipeline coverage is %.1fx the monthly target; aim for %.0fx by adding qualified opportunities.",
			m.CoverageRatio, s.TargetCoverage))
	}
	if c.StageDistribution < componentAlertThreshold {
		recs = append(recs, fmt.Sprintf(
			"Stage mix is unbalanced (early %.0f%%, mid %.0f%%, late %.0f%%); rebalance prospecting and deal progression.",
			m.StageMix.Early*100, m.StageMix.Mid*100, m.StageMix.Late*100))
	}
	if c.Velocity < componentAlertThreshold {
		recs = append(recs, fmt.Sprintf(
			"Only %d of %d open deals were updated in the last %d days; increase follow-up cadence.",
			m.RecentlyActive, m.OpenCount, s.ActivityWindowDays))
	}
	if c.Freshness < componentAlertThreshold {
		recs = append(recs, fmt.Sprintf(
			"Open deals average %.0f days old; qualify out aging opportunities and refresh the pipeline.",
			m.AvgAgeDays))
	}
	if m.StalledCount > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d deals have had no activity for more than %d days; re-engage or close them out.",
			m.StalledCount, s.StalledAfterDays))
	}
	return recs
}
