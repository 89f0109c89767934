/*
rollup.go - Recursive aggregation of stacked financials
*/
package finance

import (
	"github.com/shopspring/decimal"

	"github.com/marten-lucas/capakita-sub001/planning"
)

// Result is the computed view of one financial record including its
// stacked children. Total is the monthly-equivalent amount at the
// context's reference day plus the children's totals.
type Result struct {
	Financial *planning.Financial `json:"financial"`
	Payments  []planning.Payment  `json:"payments"`
	Total     decimal.Decimal     `json:"total"`
	Children  []*Result           `json:"children,omitempty"`
}

// Compute prices a financial and all of its stacked children.
func Compute(f *planning.Financial, ctx *Context) *Result {
	res := &Result{
		Financial: f,
		Payments:  planning.SortedPayments(UpdatePayments(f, ctx)),
	}
	res.Total = MonthlyEquivalent(res.Payments, ctx.Today)
	for _, sub := range f.Sub {
		child := Compute(sub, ctx)
		res.Children = append(res.Children, child)
		res.Total = res.Total.Add(child.Total)
	}
	return res
}

// ComputeAll prices every financial of the context's item. Stacked
// children are reached through their parent, not listed separately.
func ComputeAll(ctx *Context) []*Result {
	var out []*Result
	for _, f := range ctx.Financials {
		out = append(out, Compute(f, ctx))
	}
	return out
}

// MonthlyEquivalent reduces a payment stream to one monthly figure at a
// reference day: monthly payments active at the day count in full,
// yearly ones with a twelfth, one-time payments only when due within
// the day's month.
func MonthlyEquivalent(payments []planning.Payment, at planning.Date) decimal.Decimal {
	monthFrom := planning.StartOfMonth(at.Year(), at.Month())
	monthTo := planning.EndOfMonth(at.Year(), at.Month())
	total := decimal.Zero
	for _, p := range payments {
		switch p.Frequency {
		case planning.FreqOneTime:
			if !p.ValidFrom.Before(monthFrom) && !p.ValidFrom.After(monthTo) {
				total = total.Add(p.Amount)
			}
		case planning.FreqYearly:
			if paymentActiveAt(p, at) {
				total = total.Add(p.Amount.Div(decimal.NewFromInt(12)))
			}
		default:
			if paymentActiveAt(p, at) {
				total = total.Add(p.Amount)
			}
		}
	}
	return total.Round(2)
}

func paymentActiveAt(p planning.Payment, at planning.Date) bool {
	if at.Before(p.ValidFrom) {
		return false
	}
	return p.ValidTo == nil || !at.After(*p.ValidTo)
}
