/*
booking.go - Queries over weekly booking schedules

PURPOSE:
  Hour sums, slot coverage, segment equality and the human-readable weekly
  consolidation over Booking day/segment data. These primitives feed the
  financial calculators (weekly hours), the series generators (coverage
  per half-hour slot) and the overlay engine (divergence detection).

DEFENSIVE RULES:
  Malformed segments (missing or inverted times) contribute nothing to hour
  sums and never cover a slot. Segment overlap within a day is a validation
  error on write, but all read paths stay defined for unvalidated data.
*/
package planning

import (
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// HOUR SUMS AND COVERAGE
// =============================================================================

// SumHours sums (end-start) over all day segments, in hours. Negative or
// zero differences are discarded.
func SumHours(b *Booking) float64 {
	if b == nil {
		return 0
	}
	total := 0.0
	for _, dt := range b.Times {
		for _, s := range dt.Segments {
			if !s.Start.Valid() || !s.End.Valid() {
				continue
			}
			diff := s.End.Hours() - s.Start.Hours()
			if diff > 0 {
				total += diff
			}
		}
	}
	return total
}

// AverageDailyHours returns SumHours divided by the number of days carrying
// at least one segment. The subsidy booking-time factor is a step function
// over this value.
func AverageDailyHours(b *Booking) float64 {
	if b == nil {
		return 0
	}
	days := 0
	for _, dt := range b.Times {
		if len(dt.Segments) > 0 {
			days++
		}
	}
	if days == 0 {
		return 0
	}
	return SumHours(b) / float64(days)
}

// CoversCategory reports whether any segment on the day satisfies
// start <= t < end. The half-open interval keeps adjacent segments from
// double-counting at their shared boundary.
func CoversCategory(b *Booking, day DayName, t TimeOfDay) bool {
	if b == nil {
		return false
	}
	for _, dt := range b.Times {
		if dt.Day != day {
			continue
		}
		for _, s := range dt.Segments {
			if !s.Start.Valid() || !s.End.Valid() {
				continue
			}
			if s.Start <= t && t < s.End {
				return true
			}
		}
	}
	return false
}

// SegmentsEqual compares two segment lists positionally on start/end pairs.
// Group pins are ignored: divergence detection for the collapse-to-base
// rule cares about times only.
func SegmentsEqual(a, b []Segment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Start != b[i].Start || a[i].End != b[i].End {
			return false
		}
	}
	return true
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateBooking rejects segments with inverted times and overlapping
// segments within a single day. The upstream source never validated
// overlap; here it is an explicit rule so hour sums cannot double-count.
func ValidateBooking(b *Booking) error {
	for _, dt := range b.Times {
		segs := make([]Segment, 0, len(dt.Segments))
		for _, s := range dt.Segments {
			if !s.Start.Valid() || !s.End.Valid() {
				continue
			}
			if s.End <= s.Start {
				return fmt.Errorf("%s %s-%s: end not after start", dt.Day, s.Start, s.End)
			}
			segs = append(segs, s)
		}
		sort.Slice(segs, func(i, j int) bool { return segs[i].Start < segs[j].Start })
		for i := 1; i < len(segs); i++ {
			if segs[i].Start < segs[i-1].End {
				return fmt.Errorf("%w: %s %s-%s and %s-%s", ErrSegmentOverlap,
					dt.Day, segs[i-1].Start, segs[i-1].End, segs[i].Start, segs[i].End)
			}
		}
	}
	return nil
}

// =============================================================================
// WEEKLY CONSOLIDATION - "Mo-Fr 08:00-16:00"
// =============================================================================

// ConsolidateWeek renders a booking as a compact weekly summary, merging
// consecutive weekdays with identical segment sets. Days merge only when
// contiguous in the fixed Mo-Fr order and their segment arrays are exactly
// equal; time overlap alone never merges.
func ConsolidateWeek(b *Booking) string {
	if b == nil {
		return "Keine Zeiten definiert"
	}

	byDay := make(map[DayName][]Segment, len(b.Times))
	for _, dt := range b.Times {
		if len(dt.Segments) > 0 {
			byDay[dt.Day] = dt.Segments
		}
	}
	if len(byDay) == 0 {
		return "Keine Zeiten definiert"
	}

	type run struct {
		first, last DayName
		segs        []Segment
	}
	var runs []run
	for _, day := range WeekDays {
		segs, ok := byDay[day]
		if !ok {
			continue
		}
		if len(runs) > 0 {
			prev := &runs[len(runs)-1]
			if prev.last.Index() == day.Index()-1 && SegmentsEqual(prev.segs, segs) {
				prev.last = day
				continue
			}
		}
		runs = append(runs, run{first: day, last: day, segs: segs})
	}

	parts := make([]string, 0, len(runs))
	for _, r := range runs {
		label := string(r.first)
		if r.last != r.first {
			label += "-" + string(r.last)
		}
		times := make([]string, 0, len(r.segs))
		for _, s := range r.segs {
			times = append(times, s.Start.String()+"-"+s.End.String())
		}
		parts = append(parts, label+" "+strings.Join(times, ", "))
	}
	return strings.Join(parts, "; ")
}
