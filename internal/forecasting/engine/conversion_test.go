package engine

import (
	"context"
	"testing"

	"pipeline_forecast_backend/internal/forecasting/domain"
)

func TestStageConversionRatios(t *testing.T) {
	var opps []domain.Opportunity
	add := func(stage domain.Stage, n int) {
		for i := 0; i < n; i++ {
			opps = append(opps, opp(string(stage), stage, "100", 10, 1))
		}
	}
	add(domain.StageProspecting, 4)
	add(domain.StageQualification, 4)
	add(domain.StageProposal, 2)
	add(domain.StageNegotiation, 1)
	add(domain.StageClosedWon, 1)
	add(domain.StageClosedLost, 3)
	add(domain.Stage("archived"), 1)

	c, err := newTestEngine(&fakeReader{opps: opps}).StageConversion(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.Total != 16 {
		t.Fatalf("expected total 16, got %d", c.Total)
	}
	if c.Counts[domain.StageQualification] != 4 || c.Counts[domain.StageClosedLost] != 3 {
		t.Fatalf("unexpected counts: %+v", c.Counts)
	}
	if _, ok := c.Counts[domain.Stage("archived")]; ok {
		t.Fatalf("expected unknown stages to be left out of the counts")
	}
	assertFloat(t, "prospecting->qualification", c.ProspectingToQualification, 4.0/16.0)
	assertFloat(t, "qualification->proposal", c.QualificationToProposal, 0.5)
	assertFloat(t, "proposal->negotiation", c.ProposalToNegotiation, 0.5)
	assertFloat(t, "negotiation->won", c.NegotiationToWon, 1)
	if !c.Approximate {
		t.Fatalf("expected snapshot-based conversion to be flagged approximate")
	}
}

func TestStageConversionGuardsZeroDenominators(t *testing.T) {
	c, err := newTestEngine(&fakeReader{opps: []domain.Opportunity{
		opp("won", domain.StageClosedWon, "100", 10, 1),
	}}).StageConversion(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c.QualificationToProposal != 0 || c.ProposalToNegotiation != 0 || c.NegotiationToWon != 0 {
		t.Fatalf("expected zero ratios on empty denominators, got %+v", c)
	}
	if len(c.Counts) != len(domain.AllStages) {
		t.Fatalf("expected a count for every stage, got %d", len(c.Counts))
	}
}
