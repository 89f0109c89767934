/*
avr.go - AVR wage lookups, stage progression and presence scaling

PURPOSE:
  The calculators price staff against the AVR scale: a monthly amount per
  salary group and stage, a projected sequence of stage upgrades over the
  years of service, and a presence percentage that scales wages for
  partially attended periods.

KEY CONCEPTS:
  Stage progression ALWAYS starts at stage 1 regardless of the entity's
  current stage; upgrade rules carry cumulative year offsets from the
  employment start, so the projected upgrade dates are fixed at hire time.
  Presence counts Mon-Fri working days and subtracts absence days per pay
  type: unpaid absences subtract everything, limited-paid absences only
  the days beyond a 42-calendar-day paid window, fully paid nothing.
*/
package avr

import (
	"github.com/shopspring/decimal"

	"github.com/marten-lucas/capakita-sub001/planning"
)

// AmountForGroupAndStage looks up the monthly full-time wage for a
// salary group and stage in the config valid at the date. Unknown groups
// or stages yield zero.
func (t *Table) AmountForGroupAndStage(group string, stage int, d planning.Date) decimal.Decimal {
	cfg := t.ConfigForDate(d)
	stages, ok := cfg.Wages[group]
	if !ok {
		return decimal.Zero
	}
	amount, ok := stages[stage]
	if !ok {
		return decimal.Zero
	}
	return amount
}

// StageUpgrade is one projected stage transition.
type StageUpgrade struct {
	Date      planning.Date `json:"date"`
	FromStage int           `json:"from_stage"`
	ToStage   int           `json:"to_stage"`
}

// StageUpgradeDates projects every upgrade implied by the rule chain of
// the config valid at refDate, starting from stage 1 at startDate. The
// chain ends at the first stage without a rule.
func (t *Table) StageUpgradeDates(startDate, refDate planning.Date) []StageUpgrade {
	cfg := t.ConfigForDate(refDate)
	var out []StageUpgrade
	stage := 1
	for {
		rule := upgradeFrom(cfg.Upgrades, stage)
		if rule == nil {
			return out
		}
		years := int(rule.AfterYears)
		date := startDate.AddYears(years)
		if frac := rule.AfterYears - float64(years); frac > 0 {
			date = date.AddDays(int(frac * 365))
		}
		out = append(out, StageUpgrade{Date: date, FromStage: rule.FromStage, ToStage: rule.ToStage})
		stage = rule.ToStage
	}
}

func upgradeFrom(rules []UpgradeRule, stage int) *UpgradeRule {
	for i := range rules {
		if rules[i].FromStage == stage {
			return &rules[i]
		}
	}
	return nil
}

// StageAtDate walks the projected upgrades in order and returns the
// stage reached at the date; it stops at the first upgrade date not yet
// passed.
func StageAtDate(initialStage int, upgrades []StageUpgrade, d planning.Date) int {
	stage := initialStage
	for _, up := range upgrades {
		if d.Before(up.Date) {
			return stage
		}
		stage = up.ToStage
	}
	return stage
}

// paidAbsenceWindowDays is the calendar length of the paid window of a
// limited-paid absence (German sick-pay continuation, six weeks).
const paidAbsenceWindowDays = 42

// PresencePercentage returns the fraction [0,1] of Mon-Fri working days
// in [from, to] that the entity is present and paid for. The period is
// clipped to the employment bounds first; a period entirely outside
// them, or without any working day, yields zero.
func PresencePercentage(item *planning.DataItem, from, to planning.Date, considerAbsences bool) float64 {
	if item == nil {
		return 0
	}
	lo := from
	if !item.StartDate.IsZero() && item.StartDate.After(lo) {
		lo = item.StartDate
	}
	hi := to
	if item.EndDate != nil && item.EndDate.Before(hi) {
		hi = *item.EndDate
	}
	if hi.Before(lo) {
		return 0
	}
	total := planning.WorkdaysBetween(lo, hi)
	if total == 0 {
		return 0
	}
	if !considerAbsences {
		return 1
	}

	absent := 0
	for _, abs := range item.Absences {
		absent += absenceWorkdays(abs, lo, hi)
	}
	if absent >= total {
		return 0
	}
	return float64(total-absent) / float64(total)
}

// absenceWorkdays counts the working days of one absence that reduce
// presence inside [lo, hi], per pay type.
func absenceWorkdays(abs planning.Absence, lo, hi planning.Date) int {
	if abs.Start.IsZero() || abs.End.IsZero() {
		return 0
	}
	switch abs.PayType {
	case planning.AbsenceFullyPaid:
		return 0
	case planning.AbsenceLimitedPaid:
		// only days after the paid window still count as absent
		unpaidFrom := abs.Start.AddDays(paidAbsenceWindowDays)
		if unpaidFrom.After(abs.End) {
			return 0
		}
		return clippedWorkdays(unpaidFrom, abs.End, lo, hi)
	default: // unpaid
		return clippedWorkdays(abs.Start, abs.End, lo, hi)
	}
}

func clippedWorkdays(from, to, lo, hi planning.Date) int {
	if from.Before(lo) {
		from = lo
	}
	if to.After(hi) {
		to = hi
	}
	if to.Before(from) {
		return 0
	}
	return planning.WorkdaysBetween(from, to)
}
