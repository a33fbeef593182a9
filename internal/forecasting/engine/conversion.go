package engine

import (
	"context"

	"pipeline_forecast_backend/internal/forecasting/domain"
)

// StageConversion holds funnel ratios inferred from current stage counts.
//
// The ratios come from a snapshot of where deals sit now, not from recorded
// stage transitions, so they approximate true conversion. Approximate is
// always true until a transition log exists.
type StageConversion struct {
	Counts                     map[domain.Stage]int
	Total                      int
	ProspectingToQualification float64
	QualificationToProposal    float64
	ProposalToNegotiation      float64
	NegotiationToWon           float64
	Approximate                bool
}

// StageConversion counts every opportunity by stage and derives the four
// adjacent-stage ratios.
func (e *Engine) StageConversion(ctx context.Context) (StageConversion, error) {
	opps, err := e.opportunities(ctx, "stage_conversion", domain.OpportunityFilter{})
	if err != nil {
		return StageConversion{}, err
	}
	return computeConversion(opps), nil
}

func computeConversion(opps []domain.Opportunity) StageConversion {
	counts := make(map[domain.Stage]int, len(domain.AllStages))
	for _, stage := range domain.AllStages {
		counts[stage] = 0
	}
	for _, o := range opps {
		if o.Stage.IsKnown() {
			counts[o.Stage]++
		}
	}

	total := len(opps)
	return StageConversion{
		Counts: counts,
		Total:  total,
		// Prospecting is the funnel entry, so it converts against every deal.
		ProspectingToQualification: safeRatio(float64(counts[domain.StageQualification]), float64(total)),
		QualificationToProposal:    safeRatio(float64(counts[domain.StageProposal]), float64(counts[domain.StageQualification])),
		ProposalToNegotiation:      safeRatio(float64(counts[domain.StageNegotiation]), float64(counts[domain.StageProposal])),
		NegotiationToWon:           safeRatio(float64(counts[domain.StageClosedWon]), float64(counts[domain.StageNegotiation])),
		Approximate:                true,
	}
}
