package domain

import (
	"fmt"
	"sort"
)

// StageProbabilityTable maps a stage to its default close probability.
// The zero value has no entries, so every stage weighs 0.
type StageProbabilityTable struct {
	probabilities map[Stage]float64
}

// DefaultStageProbabilities returns the standard stage weights.
func DefaultStageProbabilities() StageProbabilityTable {
	t, _ := NewStageProbabilityTable(map[Stage]float64{
		StageProspecting:   0.10,
		StageQualification: 0.25,
		StageProposal:      0.60,
		StageNegotiation:   0.80,
		StageClosedWon:     1.00,
		StageClosedLost:    0.00,
	})
	return t
}

// NewStageProbabilityTable copies entries into an immutable table.
// Every probability must lie in [0, 1].
func NewStageProbabilityTable(entries map[Stage]float64) (StageProbabilityTable, error) {
	probabilities := make(map[Stage]float64, len(entries))
	for stage, p := range entries {
		if p < 0 || p > 1 {
			return StageProbabilityTable{}, fmt.Errorf("stage %q probability %v outside [0,1]", stage, p)
		}
		probabilities[stage] = p
	}
	return StageProbabilityTable{probabilities: probabilities}, nil
}

// Probability returns the default probability for stage; unmapped stages weigh 0.
func (t StageProbabilityTable) Probability(stage Stage) float64 {
	return t.probabilities[stage]
}

// With returns a copy of the table with the given entries replaced.
func (t StageProbabilityTable) With(overrides map[Stage]float64) (StageProbabilityTable, error) {
	merged := make(map[Stage]float64, len(t.probabilities)+len(overrides))
	for stage, p := range t.probabilities {
		merged[stage] = p
	}
	for stage, p := range overrides {
		merged[stage] = p
	}
	return NewStageProbabilityTable(merged)
}

// Entries returns a copy of the mapping.
func (t StageProbabilityTable) Entries() map[Stage]float64 {
	out := make(map[Stage]float64, len(t.probabilities))
	for stage, p := range t.probabilities {
		out[stage] = p
	}
	return out
}

// DecayTier discounts opportunities up to MaxAgeDays old by Multiplier.
type DecayTier struct {
	MaxAgeDays int
	Multiplier float64
}

// TimeDecayTable is an ordered list of tiers; the first tier whose
// MaxAgeDays is >= the age wins, otherwise Fallback applies.
type TimeDecayTable struct {
	tiers    []DecayTier
	fallback float64
}

// DefaultTimeDecay returns the standard tiers: <=30d 1.0, <=60d 0.8, <=90d 0.5, else 0.25.
func DefaultTimeDecay() TimeDecayTable {
	t, _ := NewTimeDecayTable([]DecayTier{
		{MaxAgeDays: 30, Multiplier: 1.00},
		{MaxAgeDays: 60, Multiplier: 0.80},
		{MaxAgeDays: 90, Multiplier: 0.50},
	}, 0.25)
	return t
}

// NewTimeDecayTable validates and copies tiers. Tiers are sorted by age and
// every multiplier must lie in [0, 1].
func NewTimeDecayTable(tiers []DecayTier, fallback float64) (TimeDecayTable, error) {
	if fallback < 0 || fallback > 1 {
		return TimeDecayTable{}, fmt.Errorf("decay fallback %v outside [0,1]", fallback)
	}

	sorted := make([]DecayTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MaxAgeDays < sorted[j].MaxAgeDays })

	for i, tier := range sorted {
		if tier.Multiplier < 0 || tier.Multiplier > 1 {
			return TimeDecayTable{}, fmt.Errorf("decay tier %dd multiplier %v outside [0,1]", tier.MaxAgeDays, tier.Multiplier)
		}
		if i > 0 && sorted[i-1].MaxAgeDays == tier.MaxAgeDays {
			return TimeDecayTable{}, fmt.Errorf("duplicate decay tier for %d days", tier.MaxAgeDays)
		}
	}

	return TimeDecayTable{tiers: sorted, fallback: fallback}, nil
}

// Factor returns the multiplier for an opportunity ageDays old.
func (t TimeDecayTable) Factor(ageDays float64) float64 {
	for _, tier := range t.tiers {
		if ageDays <= float64(tier.MaxAgeDays) {
			return tier.Multiplier
		}
	}
	return t.fallback
}

// Tiers returns a copy of the ordered tiers.
func (t TimeDecayTable) Tiers() []DecayTier {
	out := make([]DecayTier, len(t.tiers))
	copy(out, t.tiers)
	return out
}

// Fallback returns the multiplier applied beyond the last tier.
func (t TimeDecayTable) Fallback() float64 {
	return t.fallback
}

// Tables bundles the constant tables the engine is configured with.
type Tables struct {
	Stages StageProbabilityTable
	Decay  TimeDecayTable
}

// DefaultTables returns the standard stage probabilities and decay tiers.
func DefaultTables() Tables {
	return Tables{
		Stages: DefaultStageProbabilities(),
		Decay:  DefaultTimeDecay(),
	}
}
