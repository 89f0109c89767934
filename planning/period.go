/*
period.go - Validity periods derived from change dates

PURPOSE:
  Turns the set of dates at which anything relevant changes (employment
  start/end, absence boundaries, booking changes, regulatory boundary
  crossings) into a sorted sequence of contiguous, non-overlapping validity
  periods. Every financial calculator maps one period to one Payment by
  evaluating its amount logic at the period start.

CONSTRUCTION RULE:
  For adjacent dates d[i], d[i+1] the period is [d[i], d[i+1]-1day]; the
  last date opens an unbounded period. Periods therefore tile the timeline
  from the first date to infinity with no gaps and no overlap.
*/
package planning

import "sort"

// =============================================================================
// PERIOD - Contiguous date range over which a derived value is constant
// =============================================================================

// Period is a validity range. A nil ValidTo means open-ended.
type Period struct {
	ValidFrom Date  `json:"valid_from"`
	ValidTo   *Date `json:"valid_to,omitempty"`
}

// Contains reports whether the date falls inside the period.
func (p Period) Contains(d Date) bool {
	if d.Before(p.ValidFrom) {
		return false
	}
	return p.ValidTo == nil || d.BeforeOrEqual(*p.ValidTo)
}

func (p Period) String() string {
	if p.ValidTo == nil {
		return "[" + p.ValidFrom.String() + ", ...)"
	}
	return "[" + p.ValidFrom.String() + ", " + p.ValidTo.String() + "]"
}

// BuildPeriods converts sorted, de-duplicated change dates into contiguous
// periods. The input must already be sorted ascending; use
// SortedUniqueDates or CollectRelevantDates to prepare it.
func BuildPeriods(dates []Date) []Period {
	if len(dates) == 0 {
		return nil
	}
	periods := make([]Period, 0, len(dates))
	for i := 0; i < len(dates)-1; i++ {
		end := dates[i+1].AddDays(-1)
		periods = append(periods, Period{ValidFrom: dates[i], ValidTo: &end})
	}
	periods = append(periods, Period{ValidFrom: dates[len(dates)-1]})
	return periods
}

// =============================================================================
// DATE COLLECTION - "What changed and when" detector
// =============================================================================

// DateSource is anything carrying validity dates. Data items, bookings,
// group assignments, financials and fee schedules implement it.
type DateSource interface {
	RelevantDates() []Date
}

// CollectRelevantDates scans heterogeneous entities for their validity
// dates, deduplicates, sorts, and optionally drops dates before minDate.
// This is the universal change detector feeding BuildPeriods.
func CollectRelevantDates(minDate *Date, sources ...DateSource) []Date {
	var dates []Date
	for _, src := range sources {
		if src == nil {
			continue
		}
		dates = append(dates, src.RelevantDates()...)
	}
	return normalizeDates(dates, minDate)
}

// SortedUniqueDates sorts and deduplicates an explicit date list. Used when
// calculators mix collected dates with computed ones (stage upgrade dates,
// the 42-day paid-absence boundary, regulatory config starts).
func SortedUniqueDates(dates []Date) []Date {
	return normalizeDates(dates, nil)
}

func normalizeDates(dates []Date, minDate *Date) []Date {
	seen := make(map[string]bool, len(dates))
	out := make([]Date, 0, len(dates))
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		if minDate != nil && d.Before(*minDate) {
			continue
		}
		key := d.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
