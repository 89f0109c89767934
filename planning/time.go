package planning

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Day-granularity time abstraction (all planning data is day-based)
// =============================================================================

// Date is a calendar day in UTC. All entity validity ranges, periods and
// payment dates in the engine use Date, never wall-clock time.
type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// MustDate is a test/seed helper; it returns the zero Date on bad input.
func MustDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		return Date{}
	}
	return d
}

func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), now.Month(), now.Day())
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.normalize().AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.normalize().AddDate(0, n, 0)} }
func (d Date) AddYears(n int) Date  { return Date{Time: d.normalize().AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
func (d Date) IsWorkday() bool { return !d.IsZero() && !d.IsWeekend() }

// String returns the ISO form. ISO dates sort correctly lexicographically,
// which event consolidation relies on.
func (d Date) String() string { return d.normalize().Format("2006-01-02") }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte(`""`), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == `null` || s == `""` {
		*d = Date{}
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween returns the signed number of days from one date to another.
func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

func StartOfYear(year int) Date { return NewDate(year, time.January, 1) }
func EndOfYear(year int) Date   { return NewDate(year, time.December, 31) }
func StartOfMonth(year int, month time.Month) Date {
	return NewDate(year, month, 1)
}
func EndOfMonth(year int, month time.Month) Date {
	return NewDate(year, month, 1).AddMonths(1).AddDays(-1)
}

// NextWorkingDay shifts a stated end date to the first business day after it.
// Friday jumps over the weekend, Saturday to Monday, everything else moves one
// day forward. Calendar events model "effective date of change" this way.
func NextWorkingDay(d Date) Date {
	switch d.Weekday() {
	case time.Friday:
		return d.AddDays(3)
	case time.Saturday:
		return d.AddDays(2)
	default:
		return d.AddDays(1)
	}
}

// WorkdaysBetween counts Mon-Fri days in [from, to], inclusive.
func WorkdaysBetween(from, to Date) int {
	if to.Before(from) {
		return 0
	}
	count := 0
	for d := from; d.BeforeOrEqual(to); d = d.AddDays(1) {
		if d.IsWorkday() {
			count++
		}
	}
	return count
}

// =============================================================================
// TIME OF DAY - "HH:MM" booking segment coordinates
// =============================================================================

// TimeOfDay is minutes since midnight. Segment boundaries and weekly slot
// categories use this; it serializes as "HH:MM".
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM". The empty string and malformed input yield
// an error; callers in the booking model treat such segments as undefined.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// MustTimeOfDay is a test/seed helper; it returns -1 on bad input so that
// malformed segments are discarded by the hour-sum guards.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		return -1
	}
	return t
}

func (t TimeOfDay) Valid() bool    { return t >= 0 && t < 24*60 }
func (t TimeOfDay) Hours() float64 { return float64(t) / 60 }

func (t TimeOfDay) String() string {
	if !t.Valid() {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", t/60, t%60)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == `null` || s == `""` {
		*t = -1
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// =============================================================================
// WEEKDAYS - Bookings cover the Mo-Fr working week
// =============================================================================

// DayName is a German weekday abbreviation as used by booking schedules.
type DayName string

const (
	Monday    DayName = "Mo"
	Tuesday   DayName = "Di"
	Wednesday DayName = "Mi"
	Thursday  DayName = "Do"
	Friday    DayName = "Fr"
)

// WeekDays lists the working week in fixed order. Weekly consolidation and
// the weekly series categories iterate this order.
var WeekDays = []DayName{Monday, Tuesday, Wednesday, Thursday, Friday}

func (d DayName) Index() int {
	for i, wd := range WeekDays {
		if wd == d {
			return i
		}
	}
	return -1
}
