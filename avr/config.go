/*
config.go - Dated AVR configuration documents

PURPOSE:
  AVR wage data ships as date-ranged configuration documents: per config
  a wage table (salary group x stage), the stage upgrade-rule chain, the
  full-time weekly hours and the bonus definitions. Selection is always
  "config whose validity interval contains the reference date"; when no
  config matches, the first one serves as fallback, and an empty table
  keeps every lookup returning neutral values instead of failing.
*/
package avr

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/marten-lucas/capakita-sub001/planning"
)

// WageTable maps salary group to per-stage amounts (monthly, full time).
type WageTable map[string]map[int]decimal.Decimal

// UpgradeRule advances one stage after a cumulative number of years of
// service, counted from the employment start.
type UpgradeRule struct {
	FromStage  int     `json:"from_stage"`
	ToStage    int     `json:"to_stage"`
	AfterYears float64 `json:"after_years"` // cumulative from start
}

// BonusDef describes one bonus type of a config.
type BonusDef struct {
	Type string `json:"type"`

	// DueMonth is the month whose last day carries the annual payment.
	DueMonth time.Month `json:"due_month"`

	// BaseMonths is the averaging window over the parent financial's
	// monthly sums. Empty means July through September.
	BaseMonths []time.Month `json:"base_months,omitempty"`

	// ContinueOnAbsence keeps the bonus unscaled during absences; when
	// false the presence percentage scales it down.
	ContinueOnAbsence bool `json:"continue_on_absence"`

	// PartYearReduction prorates the bonus when the employment does not
	// span the full calendar year.
	PartYearReduction bool `json:"part_year_reduction"`

	// Value is the flat amount for lump-sum bonuses (children, instructor).
	Value decimal.Decimal `json:"value"`

	// PercentByGroup scales the yearly bonus per salary group;
	// DefaultPercent applies to groups without an entry.
	PercentByGroup map[string]float64 `json:"percent_by_group,omitempty"`
	DefaultPercent float64            `json:"default_percent"`
}

// Config is one validity-dated AVR document.
type Config struct {
	ValidFrom     planning.Date `json:"validfrom"`
	ValidTo       *planning.Date `json:"validto,omitempty"`
	FulltimeHours float64       `json:"fulltime_hours"`
	Wages         WageTable     `json:"wages"`
	Upgrades      []UpgradeRule `json:"upgrades"`
	Bonuses       []BonusDef    `json:"bonuses,omitempty"`
}

func (c *Config) contains(d planning.Date) bool {
	if d.Before(c.ValidFrom) {
		return false
	}
	return c.ValidTo == nil || !d.After(*c.ValidTo)
}

// emptyConfig keeps lookups total when no configuration is loaded.
var emptyConfig = Config{FulltimeHours: 39, Wages: WageTable{}}

// Table holds all loaded AVR configs.
type Table struct {
	Configs []Config
}

func NewTable(configs []Config) *Table { return &Table{Configs: configs} }

// ConfigForDate selects the config whose interval contains the date,
// falling back to the first config, then to the empty stub.
func (t *Table) ConfigForDate(d planning.Date) *Config {
	if t == nil || len(t.Configs) == 0 {
		return &emptyConfig
	}
	for i := range t.Configs {
		if t.Configs[i].contains(d) {
			return &t.Configs[i]
		}
	}
	return &t.Configs[0]
}

// BonusByType returns the bonus definition of the config valid at the
// date, or nil when the type is not configured.
func (t *Table) BonusByType(typ string, d planning.Date) *BonusDef {
	cfg := t.ConfigForDate(d)
	for i := range cfg.Bonuses {
		if cfg.Bonuses[i].Type == typ {
			return &cfg.Bonuses[i]
		}
	}
	return nil
}
