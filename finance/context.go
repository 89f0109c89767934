/*
context.go - Calculation context passed explicitly to every calculator

PURPOSE:
  Calculators are pure functions over an explicit context: the owning
  data item, its effective bookings and group memberships, the fee
  schedules, the regulatory tables and the reference day. Nothing is
  read from ambient state; the caller (API layer or test) assembles the
  context from a resolved scenario.
*/
package finance

import (
	"github.com/marten-lucas/capakita-sub001/avr"
	"github.com/marten-lucas/capakita-sub001/baykibig"
	"github.com/marten-lucas/capakita-sub001/planning"
)

// Context carries everything a calculator may need for one data item.
type Context struct {
	Item             *planning.DataItem
	Bookings         map[planning.BookingID]*planning.Booking
	GroupAssignments map[string]*planning.GroupAssignment
	Qualification    *planning.QualificationAssignment
	FinancialDefs    map[string]*planning.FinancialDef
	GroupDefs        map[planning.GroupID]*planning.GroupDef

	// Financials holds all financial records of the item, needed to
	// locate the parent of a stacked bonus.
	Financials []*planning.Financial

	AVR      *avr.Table
	BayKiBiG *baykibig.Table

	// Today anchors "current or future" filters and series ranges.
	Today planning.Date
}

// activeBookings returns the bookings covering a date.
func (c *Context) activeBookings(d planning.Date) []*planning.Booking {
	var out []*planning.Booking
	for _, b := range c.Bookings {
		if b.ActiveAt(d) {
			out = append(out, b)
		}
	}
	return out
}

// activeGroup returns the group assignment covering a date, or nil.
func (c *Context) activeGroup(d planning.Date) *planning.GroupAssignment {
	for _, g := range c.GroupAssignments {
		if g.Start.IsZero() || g.Start.After(d) {
			continue
		}
		if g.End != nil && g.End.Before(d) {
			continue
		}
		return g
	}
	return nil
}

// groupFlags returns the flags of the group active at a date.
func (c *Context) groupFlags(d planning.Date) []string {
	g := c.activeGroup(d)
	if g == nil {
		return nil
	}
	def, ok := c.GroupDefs[g.GroupID]
	if !ok {
		return nil
	}
	return def.Flags
}

// relevantDates collects the boundary dates of the item, its bookings
// and the financial itself, filtered to >= minDate when given.
func (c *Context) relevantDates(f *planning.Financial, minDate *planning.Date, extra ...planning.Date) []planning.Date {
	sources := []planning.DateSource{f}
	if c.Item != nil {
		sources = append(sources, c.Item)
	}
	for _, b := range c.Bookings {
		sources = append(sources, b)
	}
	for _, g := range c.GroupAssignments {
		sources = append(sources, g)
	}
	dates := planning.CollectRelevantDates(minDate, sources...)
	if len(extra) > 0 {
		dates = planning.SortedUniqueDates(append(dates, extra...))
	}
	return dates
}
