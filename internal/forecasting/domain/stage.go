// Package domain holds the read-only pipeline entities and the constant tables
// the forecasting engine weights them with.
package domain

import "strings"

// Stage is the pipeline phase of an opportunity.
type Stage string

const (
	StageProspecting   Stage = "prospecting"
	StageQualification Stage = "qualification"
	StageProposal      Stage = "proposal"
	StageNegotiation   Stage = "negotiation"
	StageClosedWon     Stage = "closed_won"
	StageClosedLost    Stage = "closed_lost"
)

// OpenStages are the stages of deals still being worked, in funnel order.
var OpenStages = []Stage{StageProspecting, StageQualification, StageProposal, StageNegotiation}

// ClosedStages are the terminal stages.
var ClosedStages = []Stage{StageClosedWon, StageClosedLost}

// AllStages lists every recognised stage in funnel order.
var AllStages = []Stage{StageProspecting, StageQualification, StageProposal, StageNegotiation, StageClosedWon, StageClosedLost}

// IsOpen reports whether s is one of the four working stages.
func (s Stage) IsOpen() bool {
	switch s {
	case StageProspecting, StageQualification, StageProposal, StageNegotiation:
		return true
	default:
		return false
	}
}

// IsClosed reports whether s is closed_won or closed_lost.
func (s Stage) IsClosed() bool {
	return s == StageClosedWon || s == StageClosedLost
}

// IsKnown reports whether s is part of the fixed stage set.
func (s Stage) IsKnown() bool {
	return s.IsOpen() || s.IsClosed()
}

// ParseStage normalises free-form input. Unknown values are returned as-is
// (lower-cased) so they simply weight to zero.
func ParseStage(raw string) Stage {
	return Stage(strings.ToLower(strings.TrimSpace(raw)))
}
