/*
series.go - Category-indexed numeric series for the chart layer

PURPOSE:
  Aggregates effective bookings and computed payments into aligned
  categories[]/values[] series. Four families:

    - Weekly: fixed half-hour grid Mo-Fr 07:00-17:00 (105 slots), slot
      coverage counts for demand and capacity plus expert and care ratios.
    - Time dimension: week/month/quarter/year buckets from today to the
      last relevant date, aggregating booked hours of active bookings.
    - Histogram: weekly-hours distribution of bookings over fixed bins.
    - Financial: per-bucket income/expense payment sums with saldo and
      cumulative saldo.

  All generators are pure over their inputs and return zero-filled series
  for empty input rather than failing.
*/
package planning

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// WEEKLY TIME-OF-DAY SERIES
// =============================================================================

const (
	weeklySlotStart = 7 * 60  // 07:00
	weeklySlotEnd   = 17 * 60 // 17:00 inclusive
	weeklySlotStep  = 30
	slotsPerDay     = (weeklySlotEnd-weeklySlotStart)/weeklySlotStep + 1
)

// RatedBooking pairs a booking with the rating context of its owner:
// the subsidy weight of the child (demand side) and the expert flag of
// the staff member (capacity side).
type RatedBooking struct {
	Booking *Booking
	Weight  float64
	Expert  bool
}

// WeeklySeries holds one value per half-hour slot Mo-Fr 07:00-17:00.
type WeeklySeries struct {
	Categories  []string  `json:"categories"`
	Demand      []float64 `json:"demand"`
	Capacity    []float64 `json:"capacity"`
	ExpertRatio []float64 `json:"expert_ratio"`
	CareRatio   []float64 `json:"care_ratio"`
}

// WeeklyCategories returns the fixed 105-slot category labels.
func WeeklyCategories() []string {
	out := make([]string, 0, len(WeekDays)*slotsPerDay)
	for _, day := range WeekDays {
		for t := weeklySlotStart; t <= weeklySlotEnd; t += weeklySlotStep {
			out = append(out, fmt.Sprintf("%s %s", day, TimeOfDay(t)))
		}
	}
	return out
}

// BuildWeeklySeries counts, per slot, the bookings whose segments cover
// the slot. The expert ratio is the percentage of covering staff that
// carry the expert flag (0 when no staff cover the slot); the care ratio
// is weighted covering demand divided by covering capacity, rounded to
// one decimal (0 when no capacity covers the slot).
func BuildWeeklySeries(demand, capacity []RatedBooking) *WeeklySeries {
	n := len(WeekDays) * slotsPerDay
	s := &WeeklySeries{
		Categories:  WeeklyCategories(),
		Demand:      make([]float64, n),
		Capacity:    make([]float64, n),
		ExpertRatio: make([]float64, n),
		CareRatio:   make([]float64, n),
	}

	idx := 0
	for _, day := range WeekDays {
		for t := weeklySlotStart; t <= weeklySlotEnd; t += weeklySlotStep {
			slot := TimeOfDay(t)
			var weighted float64
			for _, rb := range demand {
				if CoversCategory(rb.Booking, day, slot) {
					s.Demand[idx]++
					w := rb.Weight
					if w <= 0 {
						w = 1.0
					}
					weighted += w
				}
			}
			var experts float64
			for _, rb := range capacity {
				if CoversCategory(rb.Booking, day, slot) {
					s.Capacity[idx]++
					if rb.Expert {
						experts++
					}
				}
			}
			if s.Capacity[idx] > 0 {
				s.ExpertRatio[idx] = round1(experts / s.Capacity[idx] * 100)
				s.CareRatio[idx] = round1(weighted / s.Capacity[idx])
			}
			idx++
		}
	}
	return s
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// =============================================================================
// TIME-DIMENSION SERIES
// =============================================================================

// TimeDimension selects the bucket granularity of a time series.
type TimeDimension string

const (
	DimensionWeek    TimeDimension = "week"
	DimensionMonth   TimeDimension = "month"
	DimensionQuarter TimeDimension = "quarter"
	DimensionYear    TimeDimension = "year"
)

// Bucket is one category of a time-dimension series with its date bounds.
type Bucket struct {
	Label string
	From  Date
	To    Date
}

// BucketsBetween steps from the bucket containing from to the bucket
// containing to, emitting one bucket per step. An inverted range yields
// only the first bucket.
func BucketsBetween(dim TimeDimension, from, to Date) []Bucket {
	var out []Bucket
	cur := bucketOf(dim, from)
	out = append(out, cur)
	for cur.To.Before(to) {
		cur = bucketOf(dim, cur.To.AddDays(1))
		out = append(out, cur)
	}
	return out
}

func bucketOf(dim TimeDimension, d Date) Bucket {
	switch dim {
	case DimensionWeek:
		// step back to Monday
		offset := (int(d.Weekday()) + 6) % 7
		from := d.AddDays(-offset)
		year, week := from.Time.ISOWeek()
		return Bucket{
			Label: fmt.Sprintf("%04d-W%02d", year, week),
			From:  from,
			To:    from.AddDays(6),
		}
	case DimensionQuarter:
		q := (int(d.Month())-1)/3 + 1
		return Bucket{
			Label: fmt.Sprintf("%04d-Q%d", d.Year(), q),
			From:  StartOfMonth(d.Year(), time.Month((q-1)*3+1)),
			To:    EndOfMonth(d.Year(), time.Month(q*3)),
		}
	case DimensionYear:
		return Bucket{
			Label: fmt.Sprintf("%04d", d.Year()),
			From:  StartOfYear(d.Year()),
			To:    EndOfYear(d.Year()),
		}
	default: // month
		return Bucket{
			Label: fmt.Sprintf("%04d-%02d", d.Year(), int(d.Month())),
			From:  StartOfMonth(d.Year(), d.Month()),
			To:    EndOfMonth(d.Year(), d.Month()),
		}
	}
}

// TimeSeries holds per-bucket hour aggregates.
type TimeSeries struct {
	Categories  []string  `json:"categories"`
	Demand      []float64 `json:"demand"`
	Capacity    []float64 `json:"capacity"`
	ExpertRatio []float64 `json:"expert_ratio"`
	CareRatio   []float64 `json:"care_ratio"`
}

// BuildTimeSeries aggregates weekly booked hours of bookings active in
// each bucket, from the bucket containing today to the bucket containing
// the latest relevant date of any booking. Ratios follow the weekly
// formulas, computed over hour sums instead of coverage counts.
func BuildTimeSeries(dim TimeDimension, today Date, demand, capacity []RatedBooking) *TimeSeries {
	last := today
	for _, rb := range append(append([]RatedBooking(nil), demand...), capacity...) {
		for _, d := range rb.Booking.RelevantDates() {
			if d.After(last) {
				last = d
			}
		}
	}
	buckets := BucketsBetween(dim, today, last)

	s := &TimeSeries{
		Categories:  make([]string, len(buckets)),
		Demand:      make([]float64, len(buckets)),
		Capacity:    make([]float64, len(buckets)),
		ExpertRatio: make([]float64, len(buckets)),
		CareRatio:   make([]float64, len(buckets)),
	}
	for i, b := range buckets {
		s.Categories[i] = b.Label
		var weighted, expertHours float64
		for _, rb := range demand {
			if rb.Booking.OverlapsRange(b.From, b.To) {
				h := SumHours(rb.Booking)
				s.Demand[i] += h
				w := rb.Weight
				if w <= 0 {
					w = 1.0
				}
				weighted += h * w
			}
		}
		for _, rb := range capacity {
			if rb.Booking.OverlapsRange(b.From, b.To) {
				h := SumHours(rb.Booking)
				s.Capacity[i] += h
				if rb.Expert {
					expertHours += h
				}
			}
		}
		if s.Capacity[i] > 0 {
			s.ExpertRatio[i] = round1(expertHours / s.Capacity[i] * 100)
			s.CareRatio[i] = round1(weighted / s.Capacity[i])
		}
	}
	return s
}

// =============================================================================
// HISTOGRAM SERIES
// =============================================================================

// HistogramSeries distributes bookings over weekly-hour bins.
type HistogramSeries struct {
	Categories []string  `json:"categories"`
	Counts     []float64 `json:"counts"`
}

// BuildHistogramSeries bins each booking's total weekly hours into
// ceil(hours/binSize); bin 0 holds bookings without hours. The bin range
// covers at least 12 hours and grows to fit the data.
func BuildHistogramSeries(bookings []*Booking, binSize float64) *HistogramSeries {
	if binSize <= 0 {
		binSize = 4
	}
	minBins := int(math.Ceil(12/binSize)) + 1
	counts := make([]float64, minBins)
	for _, b := range bookings {
		h := SumHours(b)
		bin := 0
		if h > 0 {
			bin = int(math.Ceil(h / binSize))
		}
		for bin >= len(counts) {
			counts = append(counts, 0)
		}
		counts[bin]++
	}
	s := &HistogramSeries{Counts: counts}
	for i := range counts {
		if i == 0 {
			s.Categories = append(s.Categories, "0")
			continue
		}
		lo := float64(i-1)*binSize + 1
		hi := float64(i) * binSize
		s.Categories = append(s.Categories, fmt.Sprintf("%d-%d", int(lo), int(hi)))
	}
	return s
}

// =============================================================================
// FINANCIAL SERIES
// =============================================================================

// FinancialSeries holds per-bucket income and expense sums plus saldo
// and running saldo.
type FinancialSeries struct {
	Categories      []string          `json:"categories"`
	Income          []decimal.Decimal `json:"income"`
	Expense         []decimal.Decimal `json:"expense"`
	Saldo           []decimal.Decimal `json:"saldo"`
	CumulativeSaldo []decimal.Decimal `json:"cumulative_saldo"`
}

// BuildFinancialSeries sums payments overlapping each bucket, split by
// payment kind. Buckets run from today's bucket to the bucket containing
// the latest payment boundary.
func BuildFinancialSeries(dim TimeDimension, today Date, payments []Payment) *FinancialSeries {
	last := today
	for _, p := range payments {
		if p.ValidFrom.After(last) {
			last = p.ValidFrom
		}
		if p.ValidTo != nil && p.ValidTo.After(last) {
			last = *p.ValidTo
		}
	}
	buckets := BucketsBetween(dim, today, last)

	s := &FinancialSeries{
		Categories:      make([]string, len(buckets)),
		Income:          make([]decimal.Decimal, len(buckets)),
		Expense:         make([]decimal.Decimal, len(buckets)),
		Saldo:           make([]decimal.Decimal, len(buckets)),
		CumulativeSaldo: make([]decimal.Decimal, len(buckets)),
	}
	running := decimal.Zero
	for i, b := range buckets {
		s.Categories[i] = b.Label
		income := decimal.Zero
		expense := decimal.Zero
		for _, p := range payments {
			sum := PaymentSumForPeriod(p, b.From, b.To)
			if sum.IsZero() {
				continue
			}
			if p.Kind == PaymentIncome {
				income = income.Add(sum)
			} else {
				expense = expense.Add(sum)
			}
		}
		s.Income[i] = income
		s.Expense[i] = expense
		s.Saldo[i] = income.Sub(expense)
		running = running.Add(s.Saldo[i])
		s.CumulativeSaldo[i] = running
	}
	return s
}

// PaymentSumForPeriod returns the total amount a payment contributes to
// the period [from, to]: monthly payments pay once per overlapped
// calendar month, yearly payments a prorated share per overlapped month,
// and one-time payments their full amount if the due date falls inside.
func PaymentSumForPeriod(p Payment, from, to Date) decimal.Decimal {
	if to.Before(from) {
		return decimal.Zero
	}
	switch p.Frequency {
	case FreqOneTime:
		if !p.ValidFrom.Before(from) && !p.ValidFrom.After(to) {
			return p.Amount
		}
		return decimal.Zero
	case FreqYearly:
		months := overlappedMonths(p, from, to)
		if months == 0 {
			return decimal.Zero
		}
		return p.Amount.Div(decimal.NewFromInt(12)).Mul(decimal.NewFromInt(int64(months)))
	default: // monthly
		months := overlappedMonths(p, from, to)
		if months == 0 {
			return decimal.Zero
		}
		return p.Amount.Mul(decimal.NewFromInt(int64(months)))
	}
}

// overlappedMonths counts the calendar months inside [from, to] that the
// payment's validity interval touches.
func overlappedMonths(p Payment, from, to Date) int {
	lo := from
	if p.ValidFrom.After(lo) {
		lo = p.ValidFrom
	}
	hi := to
	if p.ValidTo != nil && p.ValidTo.Before(hi) {
		hi = *p.ValidTo
	}
	if hi.Before(lo) {
		return 0
	}
	months := 0
	for cur := StartOfMonth(lo.Year(), lo.Month()); !cur.After(hi); cur = cur.AddMonths(1) {
		months++
	}
	return months
}

// SortedPayments orders payments by start date, then label, for stable
// API output.
func SortedPayments(ps []Payment) []Payment {
	out := append([]Payment(nil), ps...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ValidFrom.Equal(out[j].ValidFrom) {
			return out[i].ValidFrom.Before(out[j].ValidFrom)
		}
		return out[i].Label < out[j].Label
	})
	return out
}
