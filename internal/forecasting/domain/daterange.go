package domain

import (
	"fmt"
	"time"
)

// DateRange is a time window. Both bounds are inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange validates that end is not before start.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if end.Before(start) {
		return DateRange{}, fmt.Errorf("date range end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return DateRange{Start: start, End: end}, nil
}

// Contains reports whether t lies within the range, bounds included.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Days returns the fractional length of the range in days, 0 for an empty
// or inverted range.
func (r DateRange) Days() float64 {
	if !r.End.After(r.Start) {
		return 0
	}
	return DaysBetween(r.Start, r.End)
}

// TrailingDays is the window [now - n days, now].
func TrailingDays(now time.Time, n int) DateRange {
	return DateRange{Start: now.AddDate(0, 0, -n), End: now}
}

// MonthToDate is the window [first instant of now's month, now].
func MonthToDate(now time.Time) DateRange {
	return DateRange{Start: StartOfMonth(now), End: now}
}

// StartOfMonth returns midnight on the first day of t's month, in t's location.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns the last representable instant of t's month.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}
