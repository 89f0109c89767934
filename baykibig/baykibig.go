/*
baykibig.go - Bavarian childcare subsidy (BayKiBiG) calculation

PURPOSE:
  Computes the public operating subsidy per child from validity-dated
  regulatory configs: a weighting factor from an ordered criteria list,
  a booking-time factor from a step function over daily booked hours,
  and the subsidy formula itself.

THE FORMULA:
  staatlich = (basevalue + qualitybonus) * (bookingFactor + u3Bonus*isU3) * weight
  kommunal  =  basevalue               *  bookingFactor                  * weight

  The U3 bonus enters ADDITIVELY inside the booking-factor term, not as
  a multiplier on the product. U3 means the child is under three at
  December 31 of the period's year.

ERROR PHILOSOPHY:
  Missing data degrades to neutral values: weight 1.0 when no criterion
  matches, the lowest-range booking factor when the hours fall outside
  every range, zero subsidy when no config exists.
*/
package baykibig

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/marten-lucas/capakita-sub001/planning"
)

// WeightingCriterion matches children by age and group flags. Criteria
// are evaluated by ascending EvalOrder; the first match wins.
type WeightingCriterion struct {
	EvalOrder int      `json:"eval_order"`
	MinAge    *int     `json:"min_age,omitempty"`
	MaxAge    *int     `json:"max_age,omitempty"`
	GroupFlag string   `json:"groupflag,omitempty"`
	Weight    float64  `json:"weight"`
}

// BookingFactorRange is one step of the booking-time factor function.
type BookingFactorRange struct {
	MinHours float64 `json:"min_hours"`
	MaxHours float64 `json:"max_hours"`
	Factor   float64 `json:"factor"`
}

// Config is one validity-dated regulatory document.
type Config struct {
	ValidFrom    planning.Date        `json:"validfrom"`
	ValidTo      *planning.Date       `json:"validto,omitempty"`
	BaseValue    decimal.Decimal      `json:"basevalue"`
	QualityBonus decimal.Decimal      `json:"qualitybonus"`
	U3Bonus      float64              `json:"u3_bonus"`
	Weightings   []WeightingCriterion `json:"weightings"`
	Factors      []BookingFactorRange `json:"booking_factors"`
}

func (c *Config) contains(d planning.Date) bool {
	if d.Before(c.ValidFrom) {
		return false
	}
	return c.ValidTo == nil || !d.After(*c.ValidTo)
}

var emptyConfig = Config{}

// Table holds all loaded BayKiBiG configs.
type Table struct {
	Configs []Config
}

func NewTable(configs []Config) *Table { return &Table{Configs: configs} }

// ConfigForDate selects the config whose interval contains the date,
// falling back to the first config, then to an empty stub.
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

// AgeAtDec31 is the child's age in whole years at December 31 of the
// given year. Entities without a date of birth count as -1.
func AgeAtDec31(dateOfBirth *planning.Date, year int) int {
	if dateOfBirth == nil || dateOfBirth.IsZero() {
		return -1
	}
	ref := planning.EndOfYear(year)
	age := year - dateOfBirth.Year()
	if dateOfBirth.AddYears(age).After(ref) {
		age--
	}
	return age
}

// IsU3 reports whether the child is under three at December 31.
func IsU3(dateOfBirth *planning.Date, year int) bool {
	age := AgeAtDec31(dateOfBirth, year)
	return age >= 0 && age < 3
}

// WeightingFactor evaluates the criteria in EvalOrder and returns the
// first matching weight, or 1.0 when nothing matches.
func (c *Config) WeightingFactor(ageAtDec31 int, groupFlags []string) float64 {
	criteria := append([]WeightingCriterion(nil), c.Weightings...)
	sort.SliceStable(criteria, func(i, j int) bool {
		return criteria[i].EvalOrder < criteria[j].EvalOrder
	})
	for _, crit := range criteria {
		if crit.MinAge != nil && ageAtDec31 < *crit.MinAge {
			continue
		}
		if crit.MaxAge != nil && ageAtDec31 > *crit.MaxAge {
			continue
		}
		if crit.GroupFlag != "" && !hasFlag(groupFlags, crit.GroupFlag) {
			continue
		}
		return crit.Weight
	}
	return 1.0
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

// BookingFactor resolves the step function over average daily booked
// hours. Hours outside every range fall back to the lowest range's
// factor; an empty table yields zero.
func (c *Config) BookingFactor(dailyHours float64) float64 {
	if len(c.Factors) == 0 {
		return 0
	}
	lowest := c.Factors[0]
	for _, r := range c.Factors {
		if dailyHours >= r.MinHours && dailyHours < r.MaxHours {
			return r.Factor
		}
		if r.MinHours < lowest.MinHours {
			lowest = r
		}
	}
	return lowest.Factor
}

// Subsidy is the computed yearly subsidy split by source.
type Subsidy struct {
	Staatlich decimal.Decimal `json:"staatlich"`
	Kommunal  decimal.Decimal `json:"kommunal"`
}

func (s Subsidy) Total() decimal.Decimal { return s.Staatlich.Add(s.Kommunal) }

// Compute applies the subsidy formula for one child.
func (c *Config) Compute(weight, bookingFactor float64, u3 bool) Subsidy {
	factor := bookingFactor
	if u3 {
		factor += c.U3Bonus
	}
	w := decimal.NewFromFloat(weight)
	staatlich := c.BaseValue.Add(c.QualityBonus).
		Mul(decimal.NewFromFloat(factor)).
		Mul(w)
	kommunal := c.BaseValue.
		Mul(decimal.NewFromFloat(bookingFactor)).
		Mul(w)
	return Subsidy{Staatlich: staatlich, Kommunal: kommunal}
}
