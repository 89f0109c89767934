package planning_test

import (
	"errors"
	"testing"

	"github.com/marten-lucas/capakita-sub001/planning"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func seg(start, end string) planning.Segment {
	return planning.Segment{
		Start: planning.MustTimeOfDay(start),
		End:   planning.MustTimeOfDay(end),
	}
}

func weekBooking(days ...planning.DayTimes) *planning.Booking {
	return &planning.Booking{
		ID:        "b-1",
		ItemID:    "kid-1",
		StartDate: d("2025-09-01"),
		Times:     days,
	}
}

func day(name planning.DayName, segs ...planning.Segment) planning.DayTimes {
	return planning.DayTimes{Day: name, Segments: segs}
}

// =============================================================================
// HOUR SUM TESTS
// =============================================================================

func TestSumHours_DiscardsMalformedSegments(t *testing.T) {
	// GIVEN: A booking with one valid 8h segment, one inverted segment and
	//        one segment with an unparseable start time
	// WHEN: Summing hours
	// THEN: Only the valid segment counts

	b := weekBooking(
		day(planning.Monday, seg("08:00", "16:00")),
		day(planning.Tuesday, seg("14:00", "12:00")),
		day(planning.Wednesday, seg("", "12:00")),
	)
	if got := planning.SumHours(b); got != 8 {
		t.Errorf("expected 8 hours, got %v", got)
	}
}

func TestSumHours_NilBooking(t *testing.T) {
	if got := planning.SumHours(nil); got != 0 {
		t.Errorf("expected 0 for nil booking, got %v", got)
	}
}

func TestAverageDailyHours_DividesByBookedDays(t *testing.T) {
	// GIVEN: 8h on Monday and 4h on Wednesday, other days empty
	// WHEN: Computing average daily hours
	// THEN: 12h over 2 booked days = 6h

	b := weekBooking(
		day(planning.Monday, seg("08:00", "16:00")),
		day(planning.Wednesday, seg("08:00", "12:00")),
	)
	if got := planning.AverageDailyHours(b); got != 6 {
		t.Errorf("expected 6, got %v", got)
	}
}

// =============================================================================
// COVERAGE TESTS
// =============================================================================

func TestCoversCategory_HalfOpenInterval(t *testing.T) {
	// GIVEN: A Monday 08:00-16:00 segment
	// WHEN: Probing slot boundaries
	// THEN: Start is covered, end is not; adjacent segments never
	//       double-count their shared boundary

	b := weekBooking(day(planning.Monday, seg("08:00", "16:00")))

	if !planning.CoversCategory(b, planning.Monday, planning.MustTimeOfDay("08:00")) {
		t.Error("start boundary must be covered")
	}
	if !planning.CoversCategory(b, planning.Monday, planning.MustTimeOfDay("15:30")) {
		t.Error("interior slot must be covered")
	}
	if planning.CoversCategory(b, planning.Monday, planning.MustTimeOfDay("16:00")) {
		t.Error("end boundary must not be covered")
	}
	if planning.CoversCategory(b, planning.Tuesday, planning.MustTimeOfDay("08:00")) {
		t.Error("other days must not be covered")
	}
}

func TestSegmentsEqual_IgnoresGroupPins(t *testing.T) {
	a := []planning.Segment{{Start: 480, End: 960, GroupID: "g1"}}
	b := []planning.Segment{{Start: 480, End: 960, GroupID: "g2"}}
	if !planning.SegmentsEqual(a, b) {
		t.Error("group pins must not affect segment equality")
	}
	c := []planning.Segment{{Start: 480, End: 900}}
	if planning.SegmentsEqual(a, c) {
		t.Error("differing end times must not compare equal")
	}
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidateBooking_RejectsOverlapWithinDay(t *testing.T) {
	// GIVEN: Two Monday segments 08:00-12:00 and 11:00-14:00
	// WHEN: Validating
	// THEN: ErrSegmentOverlap

	b := weekBooking(day(planning.Monday, seg("08:00", "12:00"), seg("11:00", "14:00")))
	err := planning.ValidateBooking(b)
	if !errors.Is(err, planning.ErrSegmentOverlap) {
		t.Errorf("expected ErrSegmentOverlap, got %v", err)
	}
}

func TestValidateBooking_AdjacentSegmentsAllowed(t *testing.T) {
	// Segments meeting exactly at a boundary are not an overlap.
	b := weekBooking(day(planning.Monday, seg("08:00", "12:00"), seg("12:00", "14:00")))
	if err := planning.ValidateBooking(b); err != nil {
		t.Errorf("adjacent segments must validate, got %v", err)
	}
}

func TestValidateBooking_RejectsInvertedSegment(t *testing.T) {
	b := weekBooking(day(planning.Monday, seg("14:00", "12:00")))
	if err := planning.ValidateBooking(b); err == nil {
		t.Error("inverted segment must be rejected")
	}
}

// =============================================================================
// WEEKLY CONSOLIDATION TESTS
// =============================================================================

func TestConsolidateWeek_MergesIdenticalConsecutiveDays(t *testing.T) {
	// GIVEN: Mo-Fr each 08:00-16:00
	// WHEN: Consolidating
	// THEN: One merged run

	var days []planning.DayTimes
	for _, name := range planning.WeekDays {
		days = append(days, day(name, seg("08:00", "16:00")))
	}
	if got := planning.ConsolidateWeek(weekBooking(days...)); got != "Mo-Fr 08:00-16:00" {
		t.Errorf("expected %q, got %q", "Mo-Fr 08:00-16:00", got)
	}
}

func TestConsolidateWeek_NonContiguousDaysStaySeparate(t *testing.T) {
	// GIVEN: Identical segments on Monday and Wednesday only
	// WHEN: Consolidating
	// THEN: The gap on Tuesday keeps the runs apart

	b := weekBooking(
		day(planning.Monday, seg("08:00", "12:00")),
		day(planning.Wednesday, seg("08:00", "12:00")),
	)
	want := "Mo 08:00-12:00; Mi 08:00-12:00"
	if got := planning.ConsolidateWeek(b); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestConsolidateWeek_DifferingSegmentsBreakRun(t *testing.T) {
	b := weekBooking(
		day(planning.Monday, seg("08:00", "12:00")),
		day(planning.Tuesday, seg("08:00", "12:00")),
		day(planning.Wednesday, seg("08:00", "14:00")),
	)
	want := "Mo-Di 08:00-12:00; Mi 08:00-14:00"
	if got := planning.ConsolidateWeek(b); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestConsolidateWeek_EmptyBooking(t *testing.T) {
	if got := planning.ConsolidateWeek(nil); got != "Keine Zeiten definiert" {
		t.Errorf("expected placeholder for nil booking, got %q", got)
	}
	if got := planning.ConsolidateWeek(weekBooking()); got != "Keine Zeiten definiert" {
		t.Errorf("expected placeholder for empty booking, got %q", got)
	}
}
