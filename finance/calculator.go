/*
calculator.go - Payment projection per financial type

PURPOSE:
  Turns a financial record into a dated stream of Payments. The common
  shape is: collect relevant dates (entity, bookings, financial and
  regulatory boundaries), build contiguous periods, and price each
  period at its start date with type-specific logic. Bonus types stack
  on a parent financial and consume its computed payments instead.

KEY CONCEPTS:
  - expense-avr:   wage = tableAmount(group, stageAt) * hours/fulltime * presence
  - expense-custom: flat monthly amount, only current and future periods
  - income-fee:    fee tier from the referenced schedule per period
  - income-baykibig: yearly subsidy paid out in monthly twelfths
  - bonus-yearly:  one payment on the last day of the due month, scaled
                   by group percentage, part-year fraction and presence
  - bonus-children / bonus-instructor: lump sum over the whole window

ERROR PHILOSOPHY:
  Defensive defaults throughout: unknown groups price at zero, missing
  schedules yield no payments, an orphaned financial (no data item)
  yields an empty stream. Boundaries that need to reject bad input do
  so before calling in here.
*/
package finance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marten-lucas/capakita-sub001/avr"
	"github.com/marten-lucas/capakita-sub001/baykibig"
	"github.com/marten-lucas/capakita-sub001/planning"
)

// UpdatePayments computes the payment stream of one financial record.
// The detail union is closed; records carrying no detail yield nothing.
func UpdatePayments(f *planning.Financial, ctx *Context) []planning.Payment {
	if f == nil || ctx == nil || ctx.Item == nil {
		return nil
	}
	switch d := f.Detail.(type) {
	case planning.AVRDetails:
		return avrPayments(f, d, ctx)
	case planning.CustomDetails:
		return customPayments(f, d, ctx)
	case planning.FeeDetails:
		return feePayments(f, d, ctx)
	case planning.BayKiBiGDetails:
		return baykibigPayments(f, ctx)
	case planning.YearlyBonusDetails:
		parent := parentPayments(f, ctx)
		return yearlyBonusPayments(f, d, parent, ctx)
	case planning.ChildrenBonusDetails:
		return lumpBonusPayments(f, d.BonusType, d.Children, ctx)
	case planning.InstructorBonusDetails:
		return lumpBonusPayments(f, d.BonusType, 1, ctx)
	default:
		return nil
	}
}

// parentPayments locates the financial that stacks f and computes its
// stream. Stacking is structural: f appears in the parent's Sub list.
func parentPayments(f *planning.Financial, ctx *Context) []planning.Payment {
	for _, candidate := range ctx.financialsOfItem() {
		for _, sub := range candidate.Sub {
			if sub.ID == f.ID {
				return UpdatePayments(candidate, ctx)
			}
		}
	}
	return nil
}

// financialsOfItem is filled lazily by the API glue; calculators only
// need it for bonus stacking.
func (c *Context) financialsOfItem() []*planning.Financial { return c.Financials }

// =============================================================================
// EXPENSE: AVR WAGE
// =============================================================================

func avrPayments(f *planning.Financial, d planning.AVRDetails, ctx *Context) []planning.Payment {
	upgrades := ctx.AVR.StageUpgradeDates(ctx.Item.StartDate, f.From)
	var extra []planning.Date
	for _, up := range upgrades {
		extra = append(extra, up.Date)
	}
	periods := clipPeriods(planning.BuildPeriods(ctx.relevantDates(f, nil, extra...)), f)

	var out []planning.Payment
	for _, p := range periods {
		at := p.ValidFrom
		stage := avr.StageAtDate(d.Stage, upgrades, at)
		cfg := ctx.AVR.ConfigForDate(at)
		base := ctx.AVR.AmountForGroupAndStage(d.SalaryGroup, stage, at)
		if base.IsZero() {
			continue
		}
		hours := d.WeeklyHours
		if hours <= 0 || cfg.FulltimeHours <= 0 {
			continue
		}
		presence := presenceOfPeriod(ctx, p)
		amount := base.
			Mul(decimal.NewFromFloat(hours / cfg.FulltimeHours)).
			Mul(decimal.NewFromFloat(presence))
		if amount.IsZero() {
			continue
		}
		out = append(out, payment(p, amount, planning.FreqMonthly, planning.PaymentExpense, "AVR "+d.SalaryGroup))
	}
	return out
}

func presenceOfPeriod(ctx *Context, p planning.Period) float64 {
	to := p.ValidFrom.AddYears(1)
	if p.ValidTo != nil {
		to = *p.ValidTo
	}
	return avr.PresencePercentage(ctx.Item, p.ValidFrom, to, true)
}

// =============================================================================
// EXPENSE: CUSTOM FLAT AMOUNT
// =============================================================================

func customPayments(f *planning.Financial, d planning.CustomDetails, ctx *Context) []planning.Payment {
	if d.Amount.IsZero() {
		return nil
	}
	periods := clipPeriods(planning.BuildPeriods(ctx.relevantDates(f, nil)), f)
	var out []planning.Payment
	for _, p := range periods {
		// past periods are history, only current and future ones project
		if p.ValidTo != nil && p.ValidTo.Before(ctx.Today) {
			continue
		}
		label := d.Label
		if label == "" {
			label = "Sonstige Kosten"
		}
		out = append(out, payment(p, d.Amount, planning.FreqMonthly, planning.PaymentExpense, label))
	}
	return out
}

// =============================================================================
// INCOME: PARENT FEES
// =============================================================================

func feePayments(f *planning.Financial, d planning.FeeDetails, ctx *Context) []planning.Payment {
	def, ok := ctx.FinancialDefs[d.DefID]
	if !ok || len(def.Tiers) == 0 {
		return nil
	}
	dates := ctx.relevantDates(f, nil, def.RelevantDates()...)
	periods := clipPeriods(planning.BuildPeriods(dates), f)

	var out []planning.Payment
	for _, p := range periods {
		at := p.ValidFrom
		hours := weeklyHoursAt(ctx, at)
		group := planning.GroupID("")
		if g := ctx.activeGroup(at); g != nil {
			group = g.GroupID
		}
		tier := resolveTier(def.Tiers, group, hours, at)
		if tier == nil || tier.Amount.IsZero() {
			continue
		}
		out = append(out, payment(p, tier.Amount, planning.FreqMonthly, planning.PaymentIncome, def.Name))
	}
	return out
}

// resolveTier picks, among the tiers valid at the date and matching the
// group, the one with the smallest max-hours breakpoint that still fits
// the booked hours; more recent valid-from wins among equals.
func resolveTier(tiers []planning.FeeTier, group planning.GroupID, hours float64, at planning.Date) *planning.FeeTier {
	candidates := make([]planning.FeeTier, 0, len(tiers))
	for _, t := range tiers {
		if !t.ValidFrom.IsZero() && t.ValidFrom.After(at) {
			continue
		}
		if t.GroupID != "" && t.GroupID != group {
			continue
		}
		candidates = append(candidates, t)
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].MaxHours != candidates[j].MaxHours {
			return candidates[i].MaxHours < candidates[j].MaxHours
		}
		return candidates[i].ValidFrom.After(candidates[j].ValidFrom)
	})
	for i := range candidates {
		if hours <= candidates[i].MaxHours {
			return &candidates[i]
		}
	}
	// hours above every breakpoint fall into the highest tier
	return &candidates[len(candidates)-1]
}

func weeklyHoursAt(ctx *Context, at planning.Date) float64 {
	var hours float64
	for _, b := range ctx.activeBookings(at) {
		hours += planning.SumHours(b)
	}
	return hours
}

// =============================================================================
// INCOME: BAYKIBIG SUBSIDY
// =============================================================================

func baykibigPayments(f *planning.Financial, ctx *Context) []planning.Payment {
	periods := clipPeriods(planning.BuildPeriods(ctx.relevantDates(f, nil)), f)
	var out []planning.Payment
	for _, p := range periods {
		at := p.ValidFrom
		cfg := ctx.BayKiBiG.ConfigForDate(at)

		var daily float64
		for _, b := range ctx.activeBookings(at) {
			daily += planning.AverageDailyHours(b)
		}
		if daily == 0 {
			continue
		}
		age := baykibigAge(ctx, at)
		weight := cfg.WeightingFactor(age, ctx.groupFlags(at))
		factor := cfg.BookingFactor(daily)
		u3 := age >= 0 && age < 3
		subsidy := cfg.Compute(weight, factor, u3)
		if subsidy.Total().IsZero() {
			continue
		}
		monthly := subsidy.Total().Div(decimal.NewFromInt(12)).Round(2)
		out = append(out, payment(p, monthly, planning.FreqMonthly, planning.PaymentIncome, "BayKiBiG Förderung"))
	}
	return out
}

func baykibigAge(ctx *Context, at planning.Date) int {
	if ctx.Item == nil {
		return -1
	}
	return baykibig.AgeAtDec31(ctx.Item.DateOfBirth, at.Year())
}

// =============================================================================
// BONUS: YEARLY (stacked on a wage expense)
// =============================================================================

func yearlyBonusPayments(f *planning.Financial, d planning.YearlyBonusDetails, parent []planning.Payment, ctx *Context) []planning.Payment {
	if len(parent) == 0 {
		return nil
	}
	def := ctx.AVR.BonusByType(d.BonusType, f.From)
	if def == nil {
		return nil
	}
	group := parentSalaryGroup(f, ctx)

	var out []planning.Payment
	for _, year := range yearsOfWindow(f, ctx) {
		due := planning.EndOfMonth(year, dueMonth(def))
		if due.Before(f.From) {
			continue
		}
		if f.To != nil && due.After(*f.To) {
			continue
		}
		base := averagingBase(parent, def, year)
		if base.IsZero() {
			continue
		}
		percent := def.DefaultPercent
		if p, ok := def.PercentByGroup[group]; ok {
			percent = p
		}
		amount := base.Mul(decimal.NewFromFloat(percent / 100))
		if def.PartYearReduction {
			amount = amount.Mul(decimal.NewFromFloat(employedYearFraction(ctx.Item, year)))
		}
		if !def.ContinueOnAbsence {
			presence := avr.PresencePercentage(ctx.Item, planning.StartOfYear(year), planning.EndOfYear(year), true)
			amount = amount.Mul(decimal.NewFromFloat(presence))
		}
		amount = amount.Round(2)
		if amount.IsZero() {
			continue
		}
		out = append(out, planning.Payment{
			ValidFrom: due,
			ValidTo:   &due,
			Amount:    amount,
			Frequency: planning.FreqOneTime,
			Currency:  "EUR",
			Kind:      planning.PaymentExpense,
			Label:     "Jahressonderzahlung",
		})
	}
	return out
}

func parentSalaryGroup(f *planning.Financial, ctx *Context) string {
	for _, candidate := range ctx.financialsOfItem() {
		for _, sub := range candidate.Sub {
			if sub.ID != f.ID {
				continue
			}
			if d, ok := candidate.Detail.(planning.AVRDetails); ok {
				return d.SalaryGroup
			}
		}
	}
	return ""
}

func dueMonth(def *avr.BonusDef) time.Month {
	if def.DueMonth >= time.January && def.DueMonth <= time.December {
		return def.DueMonth
	}
	return time.November
}

// averagingBase is the mean of the parent stream's sums over the
// reference months (July through September unless configured) of the
// bonus year.
func averagingBase(parent []planning.Payment, def *avr.BonusDef, year int) decimal.Decimal {
	months := def.BaseMonths
	if len(months) == 0 {
		months = []time.Month{time.July, time.August, time.September}
	}
	total := decimal.Zero
	for _, m := range months {
		from := planning.StartOfMonth(year, m)
		to := planning.EndOfMonth(year, m)
		for _, p := range parent {
			total = total.Add(planning.PaymentSumForPeriod(p, from, to))
		}
	}
	return total.Div(decimal.NewFromInt(int64(len(months))))
}

// employedYearFraction is the share of the calendar year covered by the
// employment window.
func employedYearFraction(item *planning.DataItem, year int) float64 {
	lo := planning.StartOfYear(year)
	hi := planning.EndOfYear(year)
	if !item.StartDate.IsZero() && item.StartDate.After(lo) {
		lo = item.StartDate
	}
	if item.EndDate != nil && item.EndDate.Before(hi) {
		hi = *item.EndDate
	}
	if hi.Before(lo) {
		return 0
	}
	days := planning.DaysBetween(lo, hi) + 1
	yearDays := planning.DaysBetween(planning.StartOfYear(year), planning.EndOfYear(year)) + 1
	return float64(days) / float64(yearDays)
}

func yearsOfWindow(f *planning.Financial, ctx *Context) []int {
	first := f.From.Year()
	last := first
	if f.To != nil {
		last = f.To.Year()
	} else if ctx.Item.EndDate != nil {
		last = ctx.Item.EndDate.Year()
	} else {
		last = ctx.Today.Year() + 1
	}
	var years []int
	for y := first; y <= last; y++ {
		years = append(years, y)
	}
	return years
}

// =============================================================================
// BONUS: LUMP SUMS (children allowance, practice instructor)
// =============================================================================

// lumpBonusPayments prices a bonus once over the full validity window:
// value * multiplier * months of the window, as a single payment.
func lumpBonusPayments(f *planning.Financial, bonusType string, multiplier int, ctx *Context) []planning.Payment {
	if multiplier <= 0 {
		return nil
	}
	def := ctx.AVR.BonusByType(bonusType, f.From)
	if def == nil || def.Value.IsZero() {
		return nil
	}
	months := windowMonths(f, ctx)
	if months == 0 {
		return nil
	}
	amount := def.Value.
		Mul(decimal.NewFromInt(int64(multiplier))).
		Mul(decimal.NewFromInt(int64(months))).
		Round(2)
	return []planning.Payment{{
		ValidFrom: f.From,
		ValidTo:   f.To,
		Amount:    amount,
		Frequency: planning.FreqOneTime,
		Currency:  "EUR",
		Kind:      planning.PaymentExpense,
		Label:     "Zulage",
	}}
}

func windowMonths(f *planning.Financial, ctx *Context) int {
	to := f.To
	if to == nil {
		if ctx.Item.EndDate != nil {
			to = ctx.Item.EndDate
		} else {
			end := ctx.Today.AddYears(1)
			to = &end
		}
	}
	if to.Before(f.From) {
		return 0
	}
	months := 0
	for cur := planning.StartOfMonth(f.From.Year(), f.From.Month()); !cur.After(*to); cur = cur.AddMonths(1) {
		months++
	}
	return months
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// clipPeriods drops periods outside the financial's validity window and
// clips the edge periods to it.
func clipPeriods(periods []planning.Period, f *planning.Financial) []planning.Period {
	var out []planning.Period
	for _, p := range periods {
		if f.To != nil && p.ValidFrom.After(*f.To) {
			continue
		}
		if p.ValidTo != nil && p.ValidTo.Before(f.From) {
			continue
		}
		if p.ValidFrom.Before(f.From) {
			p.ValidFrom = f.From
		}
		if f.To != nil && (p.ValidTo == nil || p.ValidTo.After(*f.To)) {
			end := *f.To
			p.ValidTo = &end
		}
		out = append(out, p)
	}
	return out
}

func payment(p planning.Period, amount decimal.Decimal, freq planning.PaymentFrequency, kind planning.PaymentKind, label string) planning.Payment {
	return planning.Payment{
		ValidFrom: p.ValidFrom,
		ValidTo:   p.ValidTo,
		Amount:    amount.Round(2),
		Frequency: freq,
		Currency:  "EUR",
		Kind:      kind,
		Label:     label,
	}
}
