/*
factory.go - Loading of regulatory configuration documents

PURPOSE:
  AVR wage tables and BayKiBiG subsidy parameters ship as date-ranged
  JSON documents. The factory parses them into the lookup tables the
  calculators consume and carries built-in defaults so the server runs
  without any config files.
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/marten-lucas/capakita-sub001/avr"
	"github.com/marten-lucas/capakita-sub001/baykibig"
	"github.com/marten-lucas/capakita-sub001/planning"
)

// ParseAVR decodes an array of AVR config documents.
func ParseAVR(data []byte) (*avr.Table, error) {
	var configs []avr.Config
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("parse avr configs: %w", err)
	}
	return avr.NewTable(configs), nil
}

// LoadAVR reads AVR config documents from a file; an empty path yields
// the built-in defaults.
func LoadAVR(path string) (*avr.Table, error) {
	if path == "" {
		return DefaultAVR(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read avr configs: %w", err)
	}
	return ParseAVR(data)
}

// ParseBayKiBiG decodes an array of BayKiBiG config documents.
func ParseBayKiBiG(data []byte) (*baykibig.Table, error) {
	var configs []baykibig.Config
	if err := json.Unmarshal(data, &configs); err != nil {
		return nil, fmt.Errorf("parse baykibig configs: %w", err)
	}
	return baykibig.NewTable(configs), nil
}

// LoadBayKiBiG reads BayKiBiG config documents from a file; an empty
// path yields the built-in defaults.
func LoadBayKiBiG(path string) (*baykibig.Table, error) {
	if path == "" {
		return DefaultBayKiBiG(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read baykibig configs: %w", err)
	}
	return ParseBayKiBiG(data)
}

// =============================================================================
// BUILT-IN DEFAULTS
// =============================================================================

// DefaultAVR returns a single open-ended config with the SuE wage table
// and the standard upgrade chain (stage n+1 after 1, 3, 6, 10 and 15
// cumulative years).
func DefaultAVR() *avr.Table {
	wages := func(vals ...float64) map[int]decimal.Decimal {
		m := make(map[int]decimal.Decimal, len(vals))
		for i, v := range vals {
			m[i+1] = decimal.NewFromFloat(v)
		}
		return m
	}
	cfg := avr.Config{
		ValidFrom:     planning.MustDate("2024-01-01"),
		FulltimeHours: 39,
		Wages: avr.WageTable{
			"S2":  wages(2551.21, 2720.87, 2870.44, 3030.11, 3159.48, 3308.55),
			"S3":  wages(2806.52, 2970.88, 3144.44, 3370.11, 3590.48, 3788.55),
			"S4":  wages(2954.77, 3130.44, 3290.12, 3560.33, 3790.56, 3990.71),
			"S8a": wages(3303.85, 3434.26, 3658.21, 3935.87, 4235.29, 4506.42),
			"S8b": wages(3371.39, 3545.73, 3820.12, 4140.45, 4480.67, 4770.89),
		},
		Upgrades: []avr.UpgradeRule{
			{FromStage: 1, ToStage: 2, AfterYears: 1},
			{FromStage: 2, ToStage: 3, AfterYears: 3},
			{FromStage: 3, ToStage: 4, AfterYears: 6},
			{FromStage: 4, ToStage: 5, AfterYears: 10},
			{FromStage: 5, ToStage: 6, AfterYears: 15},
		},
		Bonuses: []avr.BonusDef{
			{
				Type:              "jahressonderzahlung",
				DueMonth:          time.November,
				ContinueOnAbsence: false,
				PartYearReduction: true,
				DefaultPercent:    80,
				PercentByGroup: map[string]float64{
					"S2": 84.51,
					"S3": 84.51,
					"S4": 84.51,
				},
			},
			{
				Type:     "kinderzuschlag",
				DueMonth: time.December,
				Value:    decimal.NewFromFloat(90.57),
			},
			{
				Type:     "praxisanleitung",
				DueMonth: time.December,
				Value:    decimal.NewFromFloat(70.00),
			},
		},
	}
	return avr.NewTable([]avr.Config{cfg})
}

// DefaultBayKiBiG returns a single open-ended config with the standard
// weighting criteria and the booking-time factor steps.
func DefaultBayKiBiG() *baykibig.Table {
	intp := func(v int) *int { return &v }
	cfg := baykibig.Config{
		ValidFrom:    planning.MustDate("2024-01-01"),
		BaseValue:    decimal.NewFromFloat(1342.09),
		QualityBonus: decimal.NewFromFloat(167.76),
		U3Bonus:      1.0,
		Weightings: []baykibig.WeightingCriterion{
			{EvalOrder: 1, GroupFlag: "integrativ", Weight: 4.5},
			{EvalOrder: 2, MaxAge: intp(2), Weight: 2.0},
			{EvalOrder: 3, MinAge: intp(6), GroupFlag: "schulkind", Weight: 1.2},
		},
		Factors: []baykibig.BookingFactorRange{
			{MinHours: 0, MaxHours: 2, Factor: 0.5},
			{MinHours: 2, MaxHours: 3, Factor: 0.75},
			{MinHours: 3, MaxHours: 4, Factor: 1.0},
			{MinHours: 4, MaxHours: 5, Factor: 1.25},
			{MinHours: 5, MaxHours: 6, Factor: 1.5},
			{MinHours: 6, MaxHours: 7, Factor: 1.75},
			{MinHours: 7, MaxHours: 8, Factor: 2.0},
			{MinHours: 8, MaxHours: 9, Factor: 2.25},
			{MinHours: 9, MaxHours: 24, Factor: 2.5},
		},
	}
	return baykibig.NewTable([]baykibig.Config{cfg})
}
