package domain

import (
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	cases := map[string]string{
		"":         "0",
		"   ":      "0",
		"abc":      "0",
		"12,000":   "0",
		"1000.50":  "1000.5",
		" 250 ":    "250",
		"-10.25":   "-10.25",
		"0.000001": "0.000001",
	}
	for raw, want := range cases {
		if got := ParseAmount(raw).String(); got != want {
			t.Fatalf("expected ParseAmount(%q) = %s, got %s", raw, want, got)
		}
	}
}

func TestEffectiveProbability(t *testing.T) {
	table := DefaultStageProbabilities()
	custom := func(v int) *int { return &v }

	cases := []struct {
		name string
		opp  Opportunity
		want float64
	}{
		{"stage default", Opportunity{Stage: StageProposal}, 0.6},
		{"override", Opportunity{Stage: StageProposal, Probability: custom(35)}, 0.35},
		{"zero override", Opportunity{Stage: StageNegotiation, Probability: custom(0)}, 0},
		{"clamped high", Opportunity{Stage: StageProspecting, Probability: custom(140)}, 1},
		{"clamped low", Opportunity{Stage: StageProspecting, Probability: custom(-5)}, 0},
		{"unknown stage", Opportunity{Stage: Stage("archived")}, 0},
	}
	for _, tc := range cases {
		if got := tc.opp.EffectiveProbability(table); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestOpportunityAges(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	o := Opportunity{
		CreatedAt: now.Add(-36 * time.Hour),
		UpdatedAt: now.Add(-6 * time.Hour),
	}
	if o.AgeDays(now) != 1.5 {
		t.Fatalf("expected age 1.5 days, got %v", o.AgeDays(now))
	}
	if o.DaysSinceUpdate(now) != 0.25 {
		t.Fatalf("expected 0.25 days since update, got %v", o.DaysSinceUpdate(now))
	}
}

func TestStageClassification(t *testing.T) {
	for _, s := range OpenStages {
		if !s.IsOpen() || s.IsClosed() {
			t.Fatalf("expected %s to be open", s)
		}
	}
	for _, s := range ClosedStages {
		if s.IsOpen() || !s.IsClosed() {
			t.Fatalf("expected %s to be closed", s)
		}
	}
	if ParseStage(" Closed_Won ") != StageClosedWon {
		t.Fatalf("expected ParseStage to normalise case and whitespace")
	}
	if ParseStage("archived").IsKnown() {
		t.Fatalf("expected unknown stage to stay unknown")
	}
}
