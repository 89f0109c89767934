package planning_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/marten-lucas/capakita-sub001/planning"
)

// =============================================================================
// WEEKLY SERIES TESTS
// =============================================================================

func TestWeeklyCategories_FixedGrid(t *testing.T) {
	// 5 days x 21 half-hour slots 07:00-17:00 inclusive
	cats := planning.WeeklyCategories()
	if len(cats) != 105 {
		t.Fatalf("expected 105 categories, got %d", len(cats))
	}
	if cats[0] != "Mo 07:00" {
		t.Errorf("expected first category Mo 07:00, got %q", cats[0])
	}
	if cats[104] != "Fr 17:00" {
		t.Errorf("expected last category Fr 17:00, got %q", cats[104])
	}
}

func TestBuildWeeklySeries_CoverageAndRatios(t *testing.T) {
	// GIVEN: One weighted child Mo 08:00-16:00 and one expert staff member
	//        Mo 07:00-17:00
	// WHEN: Building the weekly series
	// THEN: The 08:00 slot carries both, a 100% expert ratio and a care
	//       ratio equal to the child's weight

	child := weekBooking(day(planning.Monday, seg("08:00", "16:00")))
	staff := weekBooking(day(planning.Monday, seg("07:00", "17:00")))
	s := planning.BuildWeeklySeries(
		[]planning.RatedBooking{{Booking: child, Weight: 2.0}},
		[]planning.RatedBooking{{Booking: staff, Expert: true}},
	)

	// Slot index: Monday starts at 0, each half hour advances one slot.
	at0800 := 2
	if s.Demand[at0800] != 1 || s.Capacity[at0800] != 1 {
		t.Errorf("08:00: expected demand 1 / capacity 1, got %v / %v", s.Demand[at0800], s.Capacity[at0800])
	}
	if s.ExpertRatio[at0800] != 100 {
		t.Errorf("08:00: expected expert ratio 100, got %v", s.ExpertRatio[at0800])
	}
	if s.CareRatio[at0800] != 2.0 {
		t.Errorf("08:00: expected care ratio 2.0, got %v", s.CareRatio[at0800])
	}

	at0700 := 0
	if s.Demand[at0700] != 0 || s.Capacity[at0700] != 1 {
		t.Errorf("07:00: expected demand 0 / capacity 1, got %v / %v", s.Demand[at0700], s.Capacity[at0700])
	}

	// 17:00 is the end boundary of the staff segment; half-open coverage
	// leaves the final Monday slot empty.
	at1700 := 20
	if s.Capacity[at1700] != 0 {
		t.Errorf("17:00: expected capacity 0, got %v", s.Capacity[at1700])
	}
	if s.ExpertRatio[at1700] != 0 || s.CareRatio[at1700] != 0 {
		t.Error("ratios must be zero where no staff covers the slot")
	}
}

func TestBuildWeeklySeries_ZeroWeightCountsAsOne(t *testing.T) {
	child := weekBooking(day(planning.Monday, seg("08:00", "09:00")))
	staff := weekBooking(day(planning.Monday, seg("08:00", "09:00")))
	s := planning.BuildWeeklySeries(
		[]planning.RatedBooking{{Booking: child, Weight: 0}},
		[]planning.RatedBooking{{Booking: staff}},
	)
	if s.CareRatio[2] != 1.0 {
		t.Errorf("expected default weight 1.0, got care ratio %v", s.CareRatio[2])
	}
}

// =============================================================================
// TIME-DIMENSION BUCKET TESTS
// =============================================================================

func TestBucketsBetween_MonthSteps(t *testing.T) {
	buckets := planning.BucketsBetween(planning.DimensionMonth, d("2025-01-15"), d("2025-03-02"))
	want := []string{"2025-01", "2025-02", "2025-03"}
	if len(buckets) != len(want) {
		t.Fatalf("expected %d buckets, got %d", len(want), len(buckets))
	}
	for i, label := range want {
		if buckets[i].Label != label {
			t.Errorf("bucket %d: expected %s, got %s", i, label, buckets[i].Label)
		}
	}
	if !buckets[0].From.Equal(d("2025-01-01")) || !buckets[0].To.Equal(d("2025-01-31")) {
		t.Errorf("first bucket bounds wrong: %+v", buckets[0])
	}
}

func TestBucketOf_WeekQuarterYearLabels(t *testing.T) {
	week := planning.BucketsBetween(planning.DimensionWeek, d("2025-01-15"), d("2025-01-15"))
	if week[0].Label != "2025-W03" || !week[0].From.Equal(d("2025-01-13")) {
		t.Errorf("week bucket wrong: %+v", week[0])
	}
	quarter := planning.BucketsBetween(planning.DimensionQuarter, d("2025-05-20"), d("2025-05-20"))
	if quarter[0].Label != "2025-Q2" || !quarter[0].To.Equal(d("2025-06-30")) {
		t.Errorf("quarter bucket wrong: %+v", quarter[0])
	}
	year := planning.BucketsBetween(planning.DimensionYear, d("2025-05-20"), d("2025-05-20"))
	if year[0].Label != "2025" || !year[0].From.Equal(d("2025-01-01")) {
		t.Errorf("year bucket wrong: %+v", year[0])
	}
}

func TestBuildTimeSeries_AggregatesActiveBookingHours(t *testing.T) {
	// GIVEN: A demand booking of 8 weekly hours running until March
	// WHEN: Building a monthly series from mid-January
	// THEN: Three buckets, each carrying the booking's hours

	end := d("2025-03-10")
	b := weekBooking(day(planning.Monday, seg("08:00", "16:00")))
	b.StartDate = d("2025-01-01")
	b.EndDate = &end

	s := planning.BuildTimeSeries(planning.DimensionMonth, d("2025-01-15"),
		[]planning.RatedBooking{{Booking: b, Weight: 1.0}}, nil)

	if len(s.Categories) != 3 {
		t.Fatalf("expected 3 buckets, got %v", s.Categories)
	}
	for i := range s.Categories {
		if s.Demand[i] != 8 {
			t.Errorf("bucket %s: expected 8 demand hours, got %v", s.Categories[i], s.Demand[i])
		}
	}
}

// =============================================================================
// HISTOGRAM TESTS
// =============================================================================

func TestBuildHistogramSeries_BinsAndLabels(t *testing.T) {
	// GIVEN: Bookings of 0, 8 and 30 weekly hours with bin size 4
	// WHEN: Building the histogram
	// THEN: Bin 0 holds the empty booking, 8h lands in "5-8", 30h grows
	//       the range to "29-32"

	empty := weekBooking()
	eight := weekBooking(day(planning.Monday, seg("08:00", "16:00")))
	thirty := weekBooking(
		day(planning.Monday, seg("07:00", "13:00")),
		day(planning.Tuesday, seg("07:00", "13:00")),
		day(planning.Wednesday, seg("07:00", "13:00")),
		day(planning.Thursday, seg("07:00", "13:00")),
		day(planning.Friday, seg("07:00", "13:00")),
	)

	s := planning.BuildHistogramSeries([]*planning.Booking{empty, eight, thirty}, 4)

	if s.Categories[0] != "0" || s.Counts[0] != 1 {
		t.Errorf("bin 0 wrong: %q count %v", s.Categories[0], s.Counts[0])
	}
	if s.Categories[2] != "5-8" || s.Counts[2] != 1 {
		t.Errorf("bin 2 wrong: %q count %v", s.Categories[2], s.Counts[2])
	}
	last := len(s.Categories) - 1
	if s.Categories[last] != "29-32" || s.Counts[last] != 1 {
		t.Errorf("last bin wrong: %q count %v", s.Categories[last], s.Counts[last])
	}
}

func TestBuildHistogramSeries_MinimumRange(t *testing.T) {
	// Even without data the bins cover 12 hours.
	s := planning.BuildHistogramSeries(nil, 4)
	want := []string{"0", "1-4", "5-8", "9-12"}
	if len(s.Categories) != len(want) {
		t.Fatalf("expected %d bins, got %v", len(want), s.Categories)
	}
	for i := range want {
		if s.Categories[i] != want[i] {
			t.Errorf("bin %d: expected %q, got %q", i, want[i], s.Categories[i])
		}
	}
}

// =============================================================================
// PAYMENT SUM TESTS
// =============================================================================

func pay(amount int64, freq planning.PaymentFrequency, kind planning.PaymentKind, from string, to *planning.Date) planning.Payment {
	return planning.Payment{
		ValidFrom: d(from),
		ValidTo:   to,
		Amount:    decimal.NewFromInt(amount),
		Frequency: freq,
		Currency:  "EUR",
		Kind:      kind,
	}
}

func TestPaymentSumForPeriod_MonthlyPaysPerOverlappedMonth(t *testing.T) {
	p := pay(100, planning.FreqMonthly, planning.PaymentIncome, "2025-01-01", nil)
	got := planning.PaymentSumForPeriod(p, d("2025-01-01"), d("2025-03-31"))
	if !got.Equal(decimal.NewFromInt(300)) {
		t.Errorf("expected 300, got %s", got)
	}
}

func TestPaymentSumForPeriod_YearlyProratesPerMonth(t *testing.T) {
	p := pay(1200, planning.FreqYearly, planning.PaymentExpense, "2025-01-01", nil)
	got := planning.PaymentSumForPeriod(p, d("2025-01-01"), d("2025-03-31"))
	if !got.Equal(decimal.NewFromInt(300)) {
		t.Errorf("expected 300 (three twelfths), got %s", got)
	}
}

func TestPaymentSumForPeriod_OneTimeOnlyWhenDueInside(t *testing.T) {
	p := pay(500, planning.FreqOneTime, planning.PaymentExpense, "2025-11-30", nil)
	if got := planning.PaymentSumForPeriod(p, d("2025-11-01"), d("2025-11-30")); !got.Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected 500 inside the due month, got %s", got)
	}
	if got := planning.PaymentSumForPeriod(p, d("2025-12-01"), d("2025-12-31")); !got.IsZero() {
		t.Errorf("expected 0 outside the due month, got %s", got)
	}
}

func TestPaymentSumForPeriod_RespectsValidityBounds(t *testing.T) {
	to := d("2025-02-28")
	p := pay(100, planning.FreqMonthly, planning.PaymentIncome, "2025-01-01", &to)
	got := planning.PaymentSumForPeriod(p, d("2025-01-01"), d("2025-06-30"))
	if !got.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected 200 (Jan and Feb only), got %s", got)
	}
}

// =============================================================================
// FINANCIAL SERIES TESTS
// =============================================================================

func TestBuildFinancialSeries_SaldoAndRunningSaldo(t *testing.T) {
	// GIVEN: 100 monthly income and 40 monthly expense through March
	// WHEN: Building a monthly financial series from January
	// THEN: Saldo 60 per month, cumulative saldo 60/120/180

	end := d("2025-03-31")
	payments := []planning.Payment{
		pay(100, planning.FreqMonthly, planning.PaymentIncome, "2025-01-01", &end),
		pay(40, planning.FreqMonthly, planning.PaymentExpense, "2025-01-01", &end),
	}
	s := planning.BuildFinancialSeries(planning.DimensionMonth, d("2025-01-15"), payments)

	if len(s.Categories) != 3 {
		t.Fatalf("expected 3 buckets, got %v", s.Categories)
	}
	for i := range s.Categories {
		if !s.Saldo[i].Equal(decimal.NewFromInt(60)) {
			t.Errorf("bucket %s: expected saldo 60, got %s", s.Categories[i], s.Saldo[i])
		}
	}
	wantRunning := []int64{60, 120, 180}
	for i, w := range wantRunning {
		if !s.CumulativeSaldo[i].Equal(decimal.NewFromInt(w)) {
			t.Errorf("bucket %s: expected cumulative %d, got %s", s.Categories[i], w, s.CumulativeSaldo[i])
		}
	}
}

func TestSortedPayments_StableByDateThenLabel(t *testing.T) {
	ps := []planning.Payment{
		{ValidFrom: d("2025-02-01"), Label: "b"},
		{ValidFrom: d("2025-01-01"), Label: "z"},
		{ValidFrom: d("2025-02-01"), Label: "a"},
	}
	got := planning.SortedPayments(ps)
	if got[0].Label != "z" || got[1].Label != "a" || got[2].Label != "b" {
		t.Errorf("unexpected order: %v %v %v", got[0].Label, got[1].Label, got[2].Label)
	}
}
