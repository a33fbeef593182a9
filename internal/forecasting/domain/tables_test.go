package domain

import "testing"

func TestDefaultStageProbabilities(t *testing.T) {
	table := DefaultStageProbabilities()
	cases := map[Stage]float64{
		StageProspecting:   0.10,
		StageQualification: 0.25,
		StageProposal:      0.60,
		StageNegotiation:   0.80,
		StageClosedWon:     1.00,
		StageClosedLost:    0,
		Stage("archived"):  0,
	}
	for stage, want := range cases {
		if got := table.Probability(stage); got != want {
			t.Fatalf("expected %s probability %v, got %v", stage, want, got)
		}
	}
}

func TestStageProbabilityTableRejectsOutOfRange(t *testing.T) {
	if _, err := NewStageProbabilityTable(map[Stage]float64{StageProposal: 1.2}); err == nil {
		t.Fatalf("expected error for probability above 1")
	}
	if _, err := DefaultStageProbabilities().With(map[Stage]float64{StageProposal: -0.1}); err == nil {
		t.Fatalf("expected error for negative override")
	}
}

func TestStageProbabilityTableWithOverrides(t *testing.T) {
	base := DefaultStageProbabilities()
	table, err := base.With(map[Stage]float64{StageProposal: 0.5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Probability(StageProposal) != 0.5 {
		t.Fatalf("expected override to apply, got %v", table.Probability(StageProposal))
	}
	if table.Probability(StageNegotiation) != 0.8 {
		t.Fatalf("expected untouched stages to keep defaults")
	}
	if base.Probability(StageProposal) != 0.6 {
		t.Fatalf("expected base table to stay unchanged")
	}

	entries := table.Entries()
	entries[StageProposal] = 0
	if table.Probability(StageProposal) != 0.5 {
		t.Fatalf("expected Entries to return a copy")
	}
}

func TestDefaultTimeDecayFactor(t *testing.T) {
	decay := DefaultTimeDecay()
	cases := []struct {
		age  float64
		want float64
	}{
		{0, 1},
		{30, 1},
		{30.5, 0.8},
		{60, 0.8},
		{75, 0.5},
		{90, 0.5},
		{90.01, 0.25},
		{400, 0.25},
	}
	for _, tc := range cases {
		if got := decay.Factor(tc.age); got != tc.want {
			t.Fatalf("expected factor %v at %v days, got %v", tc.want, tc.age, got)
		}
	}
}

func TestNewTimeDecayTableSortsAndValidates(t *testing.T) {
	table, err := NewTimeDecayTable([]DecayTier{
		{MaxAgeDays: 90, Multiplier: 0.4},
		{MaxAgeDays: 15, Multiplier: 1},
	}, 0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tiers := table.Tiers()
	if tiers[0].MaxAgeDays != 15 || tiers[1].MaxAgeDays != 90 {
		t.Fatalf("expected tiers sorted by age, got %+v", tiers)
	}
	if table.Factor(20) != 0.4 || table.Factor(100) != 0.1 || table.Fallback() != 0.1 {
		t.Fatalf("unexpected factors for custom table")
	}

	if _, err := NewTimeDecayTable([]DecayTier{{MaxAgeDays: 30, Multiplier: 1}, {MaxAgeDays: 30, Multiplier: 0.5}}, 0); err == nil {
		t.Fatalf("expected error for duplicate tiers")
	}
	if _, err := NewTimeDecayTable([]DecayTier{{MaxAgeDays: 30, Multiplier: 2}}, 0); err == nil {
		t.Fatalf("expected error for multiplier above 1")
	}
	if _, err := NewTimeDecayTable(nil, 1.5); err == nil {
		t.Fatalf("expected error for fallback above 1")
	}
}
