package domain

import "slices"

// OpportunityFilter narrows an opportunity read. Zero-valued fields do not
// constrain. CloseWithin also excludes opportunities without a close date.
// Stores may use it to pre-filter; callers re-apply Matches.
type OpportunityFilter struct {
	Stages        []Stage
	OwnerID       string
	UpdatedWithin *DateRange
	CloseWithin   *DateRange
}

// Matches reports whether o satisfies every constraint of the filter.
func (f OpportunityFilter) Matches(o Opportunity) bool {
	if len(f.Stages) > 0 && !slices.Contains(f.Stages, o.Stage) {
		return false
	}
	if f.OwnerID != "" && o.OwnerID != f.OwnerID {
		return false
	}
	if f.UpdatedWithin != nil && !f.UpdatedWithin.Contains(o.UpdatedAt) {
		return false
	}
	if f.CloseWithin != nil && (o.CloseDate == nil || !f.CloseWithin.Contains(*o.CloseDate)) {
		return false
	}
	return true
}

// Apply returns the opportunities matching the filter, preserving order.
func (f OpportunityFilter) Apply(opps []Opportunity) []Opportunity {
	out := make([]Opportunity, 0, len(opps))
	for _, o := range opps {
		if f.Matches(o) {
			out = append(out, o)
		}
	}
	return out
}
