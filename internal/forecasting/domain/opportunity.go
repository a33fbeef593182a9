package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// Opportunity is a read-only snapshot of a deal owned by the external store.
type Opportunity struct {
	ID          string
	Name        string
	AccountID   string
	OwnerID     string
	Stage       Stage
	Amount      string // decimal-in-string, may be empty
	Probability *int   // 0-100 override
	CloseDate   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Account is the display data joined onto predictions.
type Account struct {
	ID   string
	Name string
}

// User is a sales representative.
type User struct {
	ID    string
	Name  string
	Email string
}

// AmountValue parses Amount. Missing or malformed amounts are zero.
func (o Opportunity) AmountValue() decimal.Decimal {
	return ParseAmount(o.Amount)
}

// AgeDays is the fractional number of days since creation.
func (o Opportunity) AgeDays(now time.Time) float64 {
	return DaysBetween(o.CreatedAt, now)
}

// DaysSinceUpdate is the fractional number of days since the last mutation.
func (o Opportunity) DaysSinceUpdate(now time.Time) float64 {
	return DaysBetween(o.UpdatedAt, now)
}

// EffectiveProbability is the custom override (clamped to [0,1]) when present,
// otherwise the stage default from table.
func (o Opportunity) EffectiveProbability(table StageProbabilityTable) float64 {
	if o.Probability != nil {
		return clampUnit(float64(*o.Probability) / 100)
	}
	return table.Probability(o.Stage)
}

// ParseAmount parses a decimal-in-string currency value. Blank or unparsable
// input yields zero rather than an error.
func ParseAmount(raw string) decimal.Decimal {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero
	}
	return value
}

// DaysBetween returns (to - from) in fractional days.
func DaysBetween(from, to time.Time) float64 {
	return float64(to.Sub(from)) / float64(day)
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
