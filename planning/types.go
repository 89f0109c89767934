/*
Package planning provides the scenario planning core for a childcare facility.

PURPOSE:
  This package contains the domain types and algorithms shared by the whole
  engine: children and staff (data items), weekly booking schedules, scenario
  trees with copy-on-write overlays, validity periods, calendar events and
  chart series. Regulatory tables and financial calculators build on top of
  it (see the avr, baykibig and finance packages).

KEY CONCEPTS IN THIS FILE (types.go):
  - Scenario: a named what-if variant, optionally derived from a base
  - DataItem: one child (demand) or staff member (capacity)
  - Booking: a weekly recurring attendance/work schedule
  - Financial: a typed financial record producing dated Payments
  - EntitySet: the keyed entity storage shape shared by base data and overlays
  - Snapshot: full in-memory state the resolver works over

DESIGN PRINCIPLES:
  1. Immutability: resolvers and calculators never mutate their inputs;
     base entities are shared across derived scenarios simultaneously
  2. Precision: decimal.Decimal for money and regulatory factors
  3. Closed dispatch: financial type details are a tagged union, not an
     untyped bag keyed by strings
  4. Explicit context: every computation takes its data as parameters,
     nothing reaches into ambient state

SEE ALSO:
  - overlay.go: effective-value resolution across a scenario chain
  - period.go: validity period construction from change dates
  - booking.go: hour sums, coverage and weekly consolidation
  - series.go: demand/capacity/financial chart series
*/
package planning

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ScenarioID string
type ItemID string
type BookingID string
type GroupID string
type FinancialID string

// =============================================================================
// SCENARIO - What-if planning variant, forms a tree via BaseScenarioID
// =============================================================================

type Scenario struct {
	ID             ScenarioID  `json:"id"`
	Name           string      `json:"name"`
	BaseScenarioID *ScenarioID `json:"base_scenario_id,omitempty"`

	// Planning metadata, 0-100 each.
	Confidence   int `json:"confidence"`
	Likelihood   int `json:"likelihood"`
	Desirability int `json:"desirability"`
}

// IsRoot reports whether the scenario owns native data (imported or empty)
// rather than overlaying a base.
func (s *Scenario) IsRoot() bool { return s.BaseScenarioID == nil }

// =============================================================================
// DATA ITEM - A child (demand) or staff member (capacity)
// =============================================================================

type ItemKind string

const (
	KindDemand   ItemKind = "demand"
	KindCapacity ItemKind = "capacity"
)

type AbsencePayType string

const (
	AbsenceUnpaid      AbsencePayType = "unpaid"
	AbsenceLimitedPaid AbsencePayType = "limited_paid"
	AbsenceFullyPaid   AbsencePayType = "fully_paid"
)

// Absence is a dated absence range affecting presence percentage.
type Absence struct {
	Start   Date           `json:"start"`
	End     Date           `json:"end"`
	PayType AbsencePayType `json:"pay_type"`
}

type DataItem struct {
	ID          ItemID    `json:"id"`
	Kind        ItemKind  `json:"kind"`
	Name        string    `json:"name"`
	StartDate   Date      `json:"startdate"`
	EndDate     *Date     `json:"enddate,omitempty"`
	DateOfBirth *Date     `json:"dateofbirth,omitempty"`
	Absences    []Absence `json:"absences,omitempty"`

	// Raw holds the source-system fields the item was imported from.
	// Not part of overlay comparison.
	Raw map[string]string `json:"-"`

	// Original is the immutable snapshot captured at import time, used for
	// restore and diff on root scenarios. Not part of overlay comparison.
	Original *DataItem `json:"-"`
}

// RelevantDates feeds the period builder: employment bounds plus absence
// boundaries are the dates at which derived values may change.
func (d *DataItem) RelevantDates() []Date {
	dates := []Date{d.StartDate}
	if d.EndDate != nil {
		dates = append(dates, *d.EndDate)
	}
	for _, a := range d.Absences {
		dates = append(dates, a.Start, a.End)
	}
	return dates
}

// Clone returns a deep copy. Writers copy before mutation; shared base
// entities must never change in place.
func (d *DataItem) Clone() *DataItem {
	if d == nil {
		return nil
	}
	cp := *d
	cp.Absences = append([]Absence(nil), d.Absences...)
	if d.Raw != nil {
		cp.Raw = make(map[string]string, len(d.Raw))
		for k, v := range d.Raw {
			cp.Raw[k] = v
		}
	}
	return &cp
}

// =============================================================================
// BOOKING - Weekly recurring schedule as day -> segment mappings
// =============================================================================

// Segment is one [start, end) attendance block within a day, optionally
// pinned to an organizational group.
type Segment struct {
	Start   TimeOfDay `json:"booking_start"`
	End     TimeOfDay `json:"booking_end"`
	GroupID GroupID   `json:"group_id,omitempty"`
}

// DayTimes holds all segments of one weekday.
type DayTimes struct {
	Day      DayName   `json:"day_name"`
	Segments []Segment `json:"segments"`
}

type Booking struct {
	ID        BookingID  `json:"id"`
	ItemID    ItemID     `json:"data_item_id"`
	StartDate Date       `json:"startdate"`
	EndDate   *Date      `json:"enddate,omitempty"`
	Times     []DayTimes `json:"times"`

	// Original is the import-time snapshot used for root-level restore.
	Original *Booking `json:"-"`
}

func (b *Booking) RelevantDates() []Date {
	dates := []Date{b.StartDate}
	if b.EndDate != nil {
		dates = append(dates, *b.EndDate)
	}
	return dates
}

// ActiveAt reports whether the booking's validity range covers the date.
func (b *Booking) ActiveAt(d Date) bool {
	if d.Before(b.StartDate) {
		return false
	}
	return b.EndDate == nil || d.BeforeOrEqual(*b.EndDate)
}

// OverlapsRange reports whether [startdate, enddate] intersects [from, to].
func (b *Booking) OverlapsRange(from, to Date) bool {
	if to.Before(b.StartDate) {
		return false
	}
	return b.EndDate == nil || from.BeforeOrEqual(*b.EndDate)
}

func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	cp := *b
	cp.Times = make([]DayTimes, len(b.Times))
	for i, dt := range b.Times {
		cp.Times[i] = DayTimes{Day: dt.Day, Segments: append([]Segment(nil), dt.Segments...)}
	}
	return &cp
}

// =============================================================================
// GROUP / QUALIFICATION ASSIGNMENTS
// =============================================================================

// GroupAssignment is the temporal assignment of an entity to a group.
type GroupAssignment struct {
	ID      string  `json:"id"`
	ItemID  ItemID  `json:"data_item_id"`
	GroupID GroupID `json:"group_id"`
	Start   Date    `json:"start"`
	End     *Date   `json:"end,omitempty"`

	Original *GroupAssignment `json:"-"`
}

func (g *GroupAssignment) RelevantDates() []Date {
	dates := []Date{g.Start}
	if g.End != nil {
		dates = append(dates, *g.End)
	}
	return dates
}

func (g *GroupAssignment) ActiveAt(d Date) bool {
	if d.Before(g.Start) {
		return false
	}
	return g.End == nil || d.BeforeOrEqual(*g.End)
}

// QualificationAssignment links a capacity item to a qualification key.
// Consumers assume at most one active assignment per item.
type QualificationAssignment struct {
	ID            string `json:"id"`
	ItemID        ItemID `json:"data_item_id"`
	Qualification string `json:"qualification"`
}

// =============================================================================
// REFERENCE / CONFIGURATION ENTITIES (scenario-scoped)
// =============================================================================

type GroupDef struct {
	ID    GroupID  `json:"id"`
	Name  string   `json:"name"`
	Flags []string `json:"flags,omitempty"` // e.g. "schulkind", evaluated by subsidy weighting
}

type QualificationDef struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	IsExpert bool   `json:"is_expert"`
}

/// FeeTier is one row of a fee schedule: the monthly fee for bookings of up
// to MaxHours weekly hours, optionally restricted to a group.
type FeeTier struct {
	GroupID   GroupID         `json:"group_id,omitempty"`
	MaxHours  float64         `json:"max_hours"`
	Amount    decimal.Decimal `json:"amount"`
	ValidFrom Date            `json:"valid_from"`
}

// FinancialDef is a scenario-scoped fee schedule referenced by income-fee
// financial records.
type FinancialDef struct {
	ID    string    `json:"id"`
	Name  string    `json:"name"`
	Tiers []FeeTier `json:"tiers"`
}

func (fd *FinancialDef) RelevantDates() []Date {
	var dates []Date
	for _, t := range fd.Tiers {
		if !t.ValidFrom.IsZero() {
			dates = append(dates, t.ValidFrom)
		}
	}
	return dates
}

// =============================================================================
// FINANCIAL - Typed financial record, polymorphic over a closed detail union
// =============================================================================

type FinancialType string

const (
	TypeExpenseAVR      FinancialType = "expense-avr"
	TypeExpenseCustom   FinancialType = "expense-custom"
	TypeIncomeFee       FinancialType = "income-fee"
	TypeIncomeBayKiBiG  FinancialType = "income-baykibig"
	TypeBonusYearly     FinancialType = "bonus-yearly"
	TypeBonusChildren   FinancialType = "bonus-children"
	TypeBonusInstructor FinancialType = "bonus-instructor"
)

// FinancialDetails is the closed detail union. Each financial type carries
// its own typed details; calculators dispatch exhaustively on the concrete
// type instead of reading an untyped bag.
type FinancialDetails interface {
	FinancialType() FinancialType
}

// AVRDetails configures a collectively-agreed wage expense.
type AVRDetails struct {
	SalaryGroup string  `json:"salary_group"` // e.g. "S8a"
	Stage       int     `json:"stage"`
	WeeklyHours float64 `json:"weekly_hours"`
}

func (AVRDetails) FinancialType() FinancialType { return TypeExpenseAVR }

// CustomDetails is a flat monthly amount.
type CustomDetails struct {
	Amount decimal.Decimal `json:"amount"`
	Label  string          `json:"label,omitempty"`
}

func (CustomDetails) FinancialType() FinancialType { return TypeExpenseCustom }

// FeeDetails points at the fee schedule to resolve tiers from.
type FeeDetails struct {
	DefID string `json:"def_id"`
}

func (FeeDetails) FinancialType() FinancialType { return TypeIncomeFee }

// BayKiBiGDetails marks a subsidy income record; all parameters come from
// the regulatory tables.
type BayKiBiGDetails struct{}

func (BayKiBiGDetails) FinancialType() FinancialType { return TypeIncomeBayKiBiG }

// YearlyBonusDetails configures an annual bonus stacked on a wage expense.
type YearlyBonusDetails struct {
	BonusType string `json:"bonus_type"` // key into the AVR bonus tables
}

func (YearlyBonusDetails) FinancialType() FinancialType { return TypeBonusYearly }

// ChildrenBonusDetails configures a per-child allowance.
type ChildrenBonusDetails struct {
	BonusType string `json:"bonus_type"`
	Children  int    `json:"children"`
}

func (ChildrenBonusDetails) FinancialType() FinancialType { return TypeBonusChildren }

// InstructorBonusDetails configures a practice-instructor allowance.
type InstructorBonusDetails struct {
	BonusType string `json:"bonus_type"`
}

func (InstructorBonusDetails) FinancialType() FinancialType { return TypeBonusInstructor }

type Financial struct {
	ID     FinancialID      `json:"id"`
	ItemID ItemID           `json:"data_item_id"`
	Type   FinancialType    `json:"type"`
	From   Date             `json:"from"`
	To     *Date            `json:"to,omitempty"`
	Detail FinancialDetails `json:"type_details"`

	// Sub holds stacked child financials (e.g. bonuses attached to a wage
	// expense) whose calculated amounts roll up into this record.
	Sub []*Financial `json:"financial,omitempty"`
}

func (f *Financial) RelevantDates() []Date {
	dates := []Date{f.From}
	if f.To != nil {
		dates = append(dates, *f.To)
	}
	return dates
}

func (f *Financial) Clone() *Financial {
	if f == nil {
		return nil
	}
	cp := *f
	cp.Sub = make([]*Financial, len(f.Sub))
	for i, s := range f.Sub {
		cp.Sub[i] = s.Clone()
	}
	return &cp
}

// financialAlias avoids marshal recursion.
type financialAlias Financial

type financialJSON struct {
	financialAlias
	RawDetail json.RawMessage `json:"type_details"`
}

func (f *Financial) MarshalJSON() ([]byte, error) {
	raw, err := json.Marshal(f.Detail)
	if err != nil {
		return nil, err
	}
	return json.Marshal(financialJSON{financialAlias: financialAlias(*f), RawDetail: raw})
}

func (f *Financial) UnmarshalJSON(b []byte) error {
	var fj financialJSON
	if err := json.Unmarshal(b, &fj); err != nil {
		return err
	}
	*f = Financial(fj.financialAlias)
	detail, err := ParseFinancialDetails(f.Type, fj.RawDetail)
	if err != nil {
		return err
	}
	f.Detail = detail
	return nil
}

// ParseFinancialDetails decodes the raw detail document of a financial type.
// Unknown types are rejected; the detail union is closed.
func ParseFinancialDetails(t FinancialType, raw json.RawMessage) (FinancialDetails, error) {
	if len(raw) == 0 {
		raw = json.RawMessage(`{}`)
	}
	var (
		detail FinancialDetails
		err    error
	)
	switch t {
	case TypeExpenseAVR:
		var d AVRDetails
		err = json.Unmarshal(raw, &d)
		detail = d
	case TypeExpenseCustom:
		var d CustomDetails
		err = json.Unmarshal(raw, &d)
		detail = d
	case TypeIncomeFee:
		var d FeeDetails
		err = json.Unmarshal(raw, &d)
		detail = d
	case TypeIncomeBayKiBiG:
		var d BayKiBiGDetails
		err = json.Unmarshal(raw, &d)
		detail = d
	case TypeBonusYearly:
		var d YearlyBonusDetails
		err = json.Unmarshal(raw, &d)
		detail = d
	case TypeBonusChildren:
		var d ChildrenBonusDetails
		err = json.Unmarshal(raw, &d)
		detail = d
	case TypeBonusInstructor:
		var d InstructorBonusDetails
		err = json.Unmarshal(raw, &d)
		detail = d
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFinancialType, t)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s details: %w", t, err)
	}
	return detail, nil
}

// =============================================================================
// PAYMENT - Dated projection produced by financial calculators (not persisted)
// =============================================================================

type PaymentFrequency string

const (
	FreqMonthly PaymentFrequency = "monthly"
	FreqYearly  PaymentFrequency = "yearly"
	FreqOneTime PaymentFrequency = "one-time"
)

type PaymentKind string

const (
	PaymentIncome  PaymentKind = "income"
	PaymentExpense PaymentKind = "expense"
)

type Payment struct {
	ValidFrom Date             `json:"valid_from"`
	ValidTo   *Date            `json:"valid_to,omitempty"` // absent = open-ended
	Amount    decimal.Decimal  `json:"amount"`
	Frequency PaymentFrequency `json:"frequency"`
	Currency  string           `json:"currency"`
	Kind      PaymentKind      `json:"type"`
	Label     string           `json:"label,omitempty"`
}

// =============================================================================
// EVENT - Derived calendar entry, regenerated on every relevant change
// =============================================================================

type EventType string

const (
	EventPresenceStart EventType = "presence-start"
	EventPresenceEnd   EventType = "presence-end"
	EventAbsenceStart  EventType = "absence-start"
	EventAbsenceEnd    EventType = "absence-end"
	EventBookingStart  EventType = "booking-start"
	EventBookingEnd    EventType = "booking-end"
	EventGroupEnter    EventType = "group-enter"
	EventGroupLeave    EventType = "group-leave"
)

type Event struct {
	ID            string     `json:"id"`
	ScenarioID    ScenarioID `json:"scenario_id"`
	EffectiveDate Date       `json:"effective_date"`
	SourceDate    Date       `json:"source_date"`
	Type          EventType  `json:"type"`
	EntityKind    string     `json:"entity_type"`
	EntityID      string     `json:"entity_id"`
	EntityName    string     `json:"entity_name"`
	Description   string     `json:"description"`
}

// DayEvents groups the events sharing one effective date.
type DayEvents struct {
	Date   Date    `json:"date"`
	Events []Event `json:"events"`
}

// =============================================================================
// ENTITY SET / SNAPSHOT - Keyed storage shape and full in-memory state
// =============================================================================

// EntitySet is the keyed entity storage shape shared by a root scenario's
// native data and a derived scenario's sparse overlay.
type EntitySet struct {
	DataItems        map[ItemID]*DataItem                   `json:"data_items,omitempty"`
	Bookings         map[ItemID]map[BookingID]*Booking      `json:"bookings,omitempty"`
	GroupAssignments map[ItemID]map[string]*GroupAssignment `json:"group_assignments,omitempty"`
	Qualifications   map[ItemID]*QualificationAssignment    `json:"qualifications,omitempty"`
	Financials       map[ItemID]map[FinancialID]*Financial  `json:"financials,omitempty"`
	FinancialDefs    map[string]*FinancialDef               `json:"financial_defs,omitempty"`
	GroupDefs        map[GroupID]*GroupDef                  `json:"group_defs,omitempty"`
	QualificationDef map[string]*QualificationDef           `json:"qualification_defs,omitempty"`
}

func NewEntitySet() *EntitySet {
	return &EntitySet{
		DataItems:        make(map[ItemID]*DataItem),
		Bookings:         make(map[ItemID]map[BookingID]*Booking),
		GroupAssignments: make(map[ItemID]map[string]*GroupAssignment),
		Qualifications:   make(map[ItemID]*QualificationAssignment),
		Financials:       make(map[ItemID]map[FinancialID]*Financial),
		FinancialDefs:    make(map[string]*FinancialDef),
		GroupDefs:        make(map[GroupID]*GroupDef),
		QualificationDef: make(map[string]*QualificationDef),
	}
}

// Empty reports whether the set carries no entities at all. Overlays that
// become empty after a collapse-to-base write are removed entirely.
func (e *EntitySet) Empty() bool {
	if e == nil {
		return true
	}
	return len(e.DataItems) == 0 && len(e.Bookings) == 0 &&
		len(e.GroupAssignments) == 0 && len(e.Qualifications) == 0 &&
		len(e.Financials) == 0 && len(e.FinancialDefs) == 0 &&
		len(e.GroupDefs) == 0 && len(e.QualificationDef) == 0
}

// Clone returns a deep copy. Snapshot pointers (Original) are shared,
// everything else is copied.
func (e *EntitySet) Clone() *EntitySet {
	if e == nil {
		return nil
	}
	cp := NewEntitySet()
	for id, item := range e.DataItems {
		cp.DataItems[id] = item.Clone()
	}
	for item, set := range e.Bookings {
		cp.Bookings[item] = make(map[BookingID]*Booking, len(set))
		for id, b := range set {
			cp.Bookings[item][id] = b.Clone()
		}
	}
	for item, set := range e.GroupAssignments {
		cp.GroupAssignments[item] = make(map[string]*GroupAssignment, len(set))
		for id, g := range set {
			gc := *g
			cp.GroupAssignments[item][id] = &gc
		}
	}
	for item, q := range e.Qualifications {
		qc := *q
		cp.Qualifications[item] = &qc
	}
	for item, set := range e.Financials {
		cp.Financials[item] = make(map[FinancialID]*Financial, len(set))
		for id, f := range set {
			cp.Financials[item][id] = f.Clone()
		}
	}
	for id, fd := range e.FinancialDefs {
		fc := *fd
		fc.Tiers = append([]FeeTier(nil), fd.Tiers...)
		cp.FinancialDefs[id] = &fc
	}
	for id, g := range e.GroupDefs {
		gc := *g
		gc.Flags = append([]string(nil), g.Flags...)
		cp.GroupDefs[id] = &gc
	}
	for id, q := range e.QualificationDef {
		qc := *q
		cp.QualificationDef[id] = &qc
	}
	return cp
}

// Snapshot is the full in-memory planning state: the scenario tree, each
// root's native data and each derived scenario's overlay. All resolution
// and projection is pure computation over a Snapshot.
type Snapshot struct {
	Scenarios map[ScenarioID]*Scenario
	Base      map[ScenarioID]*EntitySet
	Overlays  map[ScenarioID]*EntitySet
}

func NewSnapshot() *Snapshot {
	return &Snapshot{
		Scenarios: make(map[ScenarioID]*Scenario),
		Base:      make(map[ScenarioID]*EntitySet),
		Overlays:  make(map[ScenarioID]*EntitySet),
	}
}
