package avr_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marten-lucas/capakita-sub001/avr"
	"github.com/marten-lucas/capakita-sub001/planning"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func testTable() *avr.Table {
	return avr.NewTable([]avr.Config{{
		ValidFrom:     planning.MustDate("2020-01-01"),
		FulltimeHours: 39,
		Wages: avr.WageTable{
			"S8a": {
				1: decimal.NewFromInt(3000),
				2: decimal.NewFromInt(3200),
				3: decimal.NewFromInt(3500),
				4: decimal.NewFromInt(3800),
			},
		},
		Upgrades: []avr.UpgradeRule{
			{FromStage: 1, ToStage: 2, AfterYears: 1},
			{FromStage: 2, ToStage: 3, AfterYears: 3},
			{FromStage: 3, ToStage: 4, AfterYears: 6},
		},
	}})
}

func employee(start string, absences ...planning.Absence) *planning.DataItem {
	return &planning.DataItem{
		ID:        "emp-1",
		Kind:      planning.KindCapacity,
		Name:      "Frau Maier",
		StartDate: planning.MustDate(start),
		Absences:  absences,
	}
}

// =============================================================================
// WAGE TABLE TESTS
// =============================================================================

func TestAmountForGroupAndStage(t *testing.T) {
	table := testTable()
	at := planning.MustDate("2025-06-01")

	amount := table.AmountForGroupAndStage("S8a", 2, at)
	assert.True(t, amount.Equal(decimal.NewFromInt(3200)))

	assert.True(t, table.AmountForGroupAndStage("S99", 1, at).IsZero(), "unknown group prices at zero")
	assert.True(t, table.AmountForGroupAndStage("S8a", 9, at).IsZero(), "unknown stage prices at zero")
}

func TestConfigForDate_FallsBackToFirstConfig(t *testing.T) {
	table := testTable()
	// before any validity window: the first config still serves
	cfg := table.ConfigForDate(planning.MustDate("2010-01-01"))
	assert.Equal(t, 39.0, cfg.FulltimeHours)

	var empty *avr.Table
	cfg = empty.ConfigForDate(planning.MustDate("2025-01-01"))
	require.NotNil(t, cfg, "nil table must yield the empty stub")
	assert.Equal(t, 39.0, cfg.FulltimeHours)
	assert.True(t, empty.AmountForGroupAndStage("S8a", 1, planning.MustDate("2025-01-01")).IsZero())
}

// =============================================================================
// STAGE PROGRESSION TESTS
// =============================================================================

func TestStageUpgradeDates_CumulativeYearsFromStart(t *testing.T) {
	// GIVEN: Hire date 2020-01-01 and the 1/3/6-year rule chain
	// WHEN: Projecting upgrades
	// THEN: Fixed dates 2021/2023/2026, always counted from the start

	table := testTable()
	ups := table.StageUpgradeDates(planning.MustDate("2020-01-01"), planning.MustDate("2025-01-01"))

	require.Len(t, ups, 3)
	assert.True(t, ups[0].Date.Equal(planning.MustDate("2021-01-01")))
	assert.Equal(t, 2, ups[0].ToStage)
	assert.True(t, ups[1].Date.Equal(planning.MustDate("2023-01-01")))
	assert.Equal(t, 3, ups[1].ToStage)
	assert.True(t, ups[2].Date.Equal(planning.MustDate("2026-01-01")))
	assert.Equal(t, 4, ups[2].ToStage)
}

func TestStageAtDate(t *testing.T) {
	table := testTable()
	ups := table.StageUpgradeDates(planning.MustDate("2020-01-01"), planning.MustDate("2025-01-01"))

	assert.Equal(t, 1, avr.StageAtDate(1, ups, planning.MustDate("2020-06-01")))
	assert.Equal(t, 2, avr.StageAtDate(1, ups, planning.MustDate("2021-01-01")), "upgrade counts on its own date")
	assert.Equal(t, 3, avr.StageAtDate(1, ups, planning.MustDate("2024-12-31")))
	assert.Equal(t, 4, avr.StageAtDate(1, ups, planning.MustDate("2030-01-01")))
}

// =============================================================================
// PRESENCE PERCENTAGE TESTS
// =============================================================================

func TestPresencePercentage_UnpaidAbsence(t *testing.T) {
	// GIVEN: A two-week period with 10 working days and one unpaid week
	// WHEN: Computing presence
	// THEN: 5 of 10 working days remain

	emp := employee("2020-01-01", planning.Absence{
		Start:   planning.MustDate("2025-06-09"),
		End:     planning.MustDate("2025-06-13"),
		PayType: planning.AbsenceUnpaid,
	})
	got := avr.PresencePercentage(emp, planning.MustDate("2025-06-02"), planning.MustDate("2025-06-13"), true)
	assert.InDelta(t, 0.5, got, 1e-9)
}

func TestPresencePercentage_FullyPaidAbsenceDoesNotReduce(t *testing.T) {
	emp := employee("2020-01-01", planning.Absence{
		Start:   planning.MustDate("2025-06-09"),
		End:     planning.MustDate("2025-06-13"),
		PayType: planning.AbsenceFullyPaid,
	})
	got := avr.PresencePercentage(emp, planning.MustDate("2025-06-02"), planning.MustDate("2025-06-13"), true)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestPresencePercentage_LimitedPaidWindow(t *testing.T) {
	// GIVEN: A long sick leave starting 2025-01-01; pay continues for 42
	//        calendar days, so absence bites from 2025-02-12 on
	// WHEN: Computing presence for February (20 working days)
	// THEN: Only the 13 working days from the 12th onward count as absent

	emp := employee("2020-01-01", planning.Absence{
		Start:   planning.MustDate("2025-01-01"),
		End:     planning.MustDate("2025-03-31"),
		PayType: planning.AbsenceLimitedPaid,
	})
	got := avr.PresencePercentage(emp, planning.MustDate("2025-02-01"), planning.MustDate("2025-02-28"), true)
	assert.InDelta(t, 7.0/20.0, got, 1e-9)
}

func TestPresencePercentage_LimitedPaidInsideWindow(t *testing.T) {
	// A short limited-paid absence fully inside the paid window reduces nothing.
	emp := employee("2020-01-01", planning.Absence{
		Start:   planning.MustDate("2025-06-09"),
		End:     planning.MustDate("2025-06-13"),
		PayType: planning.AbsenceLimitedPaid,
	})
	got := avr.PresencePercentage(emp, planning.MustDate("2025-06-02"), planning.MustDate("2025-06-13"), true)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestPresencePercentage_ClipsToEmployment(t *testing.T) {
	emp := employee("2025-07-01")
	got := avr.PresencePercentage(emp, planning.MustDate("2025-01-01"), planning.MustDate("2025-01-31"), true)
	assert.Zero(t, got, "a period entirely before the employment start yields zero")
}

func TestPresencePercentage_IgnoreAbsencesFlag(t *testing.T) {
	emp := employee("2020-01-01", planning.Absence{
		Start:   planning.MustDate("2025-06-09"),
		End:     planning.MustDate("2025-06-13"),
		PayType: planning.AbsenceUnpaid,
	})
	got := avr.PresencePercentage(emp, planning.MustDate("2025-06-02"), planning.MustDate("2025-06-13"), false)
	assert.InDelta(t, 1.0, got, 1e-9)
}

// =============================================================================
// BONUS LOOKUP TESTS
// =============================================================================

func TestBonusByType(t *testing.T) {
	table := avr.NewTable([]avr.Config{{
		ValidFrom:     planning.MustDate("2020-01-01"),
		FulltimeHours: 39,
		Bonuses: []avr.BonusDef{
			{Type: "jahressonderzahlung", DefaultPercent: 80},
		},
	}})
	def := table.BonusByType("jahressonderzahlung", planning.MustDate("2025-01-01"))
	require.NotNil(t, def)
	assert.Equal(t, 80.0, def.DefaultPercent)

	assert.Nil(t, table.BonusByType("unbekannt", planning.MustDate("2025-01-01")))
}
