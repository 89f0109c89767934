package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marten-lucas/capakita-sub001/planning"
)

// =============================================================================
// ROLLUP TESTS
// =============================================================================

func TestCompute_RollsUpStackedChildren(t *testing.T) {
	// GIVEN: A full-time wage with a stacked yearly bonus, reference day in
	//        the bonus due month
	// WHEN: Computing the wage's result
	// THEN: Total = monthly wage + the bonus due this month

	ctx := testCtx(staffItem())
	ctx.Today = md("2025-11-15")
	bonus := &planning.Financial{
		ID: "fin-2", ItemID: "emp-1", Type: planning.TypeBonusYearly,
		From: md("2025-01-01"), To: mdp("2025-12-31"),
		Detail: planning.YearlyBonusDetails{BonusType: "jahressonderzahlung"},
	}
	wage := &planning.Financial{
		ID: "fin-1", ItemID: "emp-1", Type: planning.TypeExpenseAVR, From: md("2024-01-01"),
		Detail: planning.AVRDetails{SalaryGroup: "S8a", Stage: 1, WeeklyHours: 39},
		Sub:    []*planning.Financial{bonus},
	}
	ctx.Financials = []*planning.Financial{wage}

	res := Compute(wage, ctx)
	require.Len(t, res.Children, 1)
	assert.True(t, res.Children[0].Total.Equal(decimal.NewFromInt(3120)), "bonus total: got %s", res.Children[0].Total)
	assert.True(t, res.Total.Equal(decimal.NewFromInt(7020)), "wage 3900 + bonus 3120: got %s", res.Total)
}

func TestComputeAll_OneResultPerTopLevelFinancial(t *testing.T) {
	ctx := testCtx(staffItem())
	ctx.Financials = []*planning.Financial{
		{
			ID: "fin-1", ItemID: "emp-1", Type: planning.TypeExpenseAVR, From: md("2024-01-01"),
			Detail: planning.AVRDetails{SalaryGroup: "S8a", Stage: 1, WeeklyHours: 39},
		},
		{
			ID: "fin-2", ItemID: "emp-1", Type: planning.TypeExpenseCustom, From: md("2025-01-01"),
			Detail: planning.CustomDetails{Amount: decimal.NewFromInt(50), Label: "Fortbildung"},
		},
	}
	results := ComputeAll(ctx)
	require.Len(t, results, 2)
}

// =============================================================================
// MONTHLY EQUIVALENT TESTS
// =============================================================================

func TestMonthlyEquivalent(t *testing.T) {
	at := md("2025-11-15")
	due := md("2025-11-30")
	past := md("2025-10-31")
	payments := []planning.Payment{
		{ValidFrom: md("2025-01-01"), Amount: decimal.NewFromInt(3900), Frequency: planning.FreqMonthly},
		{ValidFrom: md("2025-01-01"), Amount: decimal.NewFromInt(1200), Frequency: planning.FreqYearly},
		{ValidFrom: due, ValidTo: &due, Amount: decimal.NewFromInt(500), Frequency: planning.FreqOneTime},
		{ValidFrom: past, ValidTo: &past, Amount: decimal.NewFromInt(999), Frequency: planning.FreqOneTime},
	}
	// 3900 + 1200/12 + 500; the October one-time payment is outside the month
	got := MonthlyEquivalent(payments, at)
	assert.True(t, got.Equal(decimal.NewFromInt(4500)), "got %s", got)
}

func TestMonthlyEquivalent_ExpiredPaymentsExcluded(t *testing.T) {
	to := md("2025-06-30")
	payments := []planning.Payment{
		{ValidFrom: md("2025-01-01"), ValidTo: &to, Amount: decimal.NewFromInt(100), Frequency: planning.FreqMonthly},
	}
	assert.True(t, MonthlyEquivalent(payments, md("2025-07-15")).IsZero())
}
