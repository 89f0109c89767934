/*
projections.go - Glue between resolved scenario state and the engines

PURPOSE:
  Assembles the explicit inputs the pure engines need: the calculation
  context of one data item for the financial calculators, and rated
  booking lists (subsidy weight per child, expert flag per staff member)
  for the series generators.
*/
package api

import (
	"github.com/marten-lucas/capakita-sub001/baykibig"
	"github.com/marten-lucas/capakita-sub001/finance"
	"github.com/marten-lucas/capakita-sub001/planning"
)

// financeContext builds the calculation context of one data item in a
// scenario.
func (h *Handler) financeContext(r *planning.Resolver, sc planning.ScenarioID, itemID planning.ItemID) *finance.Context {
	item, ok := r.EffectiveDataItem(sc, itemID)
	if !ok {
		return nil
	}
	ctx := &finance.Context{
		Item:             item,
		Bookings:         r.EffectiveBookings(sc, itemID),
		GroupAssignments: r.EffectiveGroupAssignments(sc, itemID),
		FinancialDefs:    effectiveFinancialDefs(r, sc),
		GroupDefs:        r.EffectiveGroupDefs(sc),
		AVR:              h.AVR,
		BayKiBiG:         h.BayKiBiG,
		Today:            planning.Today(),
	}
	if q, ok := r.EffectiveQualification(sc, itemID); ok {
		ctx.Qualification = q
	}
	for _, f := range r.EffectiveFinancials(sc, itemID) {
		ctx.Financials = append(ctx.Financials, f)
	}
	return ctx
}

func effectiveFinancialDefs(r *planning.Resolver, sc planning.ScenarioID) map[string]*planning.FinancialDef {
	out := make(map[string]*planning.FinancialDef)
	for id := range allFinancialDefIDs(r, sc) {
		if fd, ok := r.EffectiveFinancialDef(sc, id); ok {
			out[id] = fd
		}
	}
	return out
}

func allFinancialDefIDs(r *planning.Resolver, sc planning.ScenarioID) map[string]bool {
	ids := make(map[string]bool)
	chain, err := r.Snap.Chain(sc)
	if err != nil {
		return ids
	}
	for _, sid := range chain {
		if ov := r.Snap.Overlays[sid]; ov != nil {
			for id := range ov.FinancialDefs {
				ids[id] = true
			}
		}
	}
	if base := r.Snap.Base[chain[len(chain)-1]]; base != nil {
		for id := range base.FinancialDefs {
			ids[id] = true
		}
	}
	return ids
}

// ratedBookings splits the scenario's effective bookings into demand and
// capacity sets with their rating context: the BayKiBiG weight of the
// owning child and the expert flag of the owning staff member.
func (h *Handler) ratedBookings(r *planning.Resolver, sc planning.ScenarioID) (demand, capacity []planning.RatedBooking) {
	today := planning.Today()
	groupDefs := r.EffectiveGroupDefs(sc)
	qualDefs := r.EffectiveQualificationDefs(sc)

	for itemID, item := range r.EffectiveDataItems(sc) {
		bookings := r.EffectiveBookings(sc, itemID)
		if len(bookings) == 0 {
			continue
		}
		switch item.Kind {
		case planning.KindDemand:
			weight := h.childWeight(r, sc, item, groupDefs, today)
			for _, b := range bookings {
				demand = append(demand, planning.RatedBooking{Booking: b, Weight: weight})
			}
		case planning.KindCapacity:
			expert := false
			if q, ok := r.EffectiveQualification(sc, itemID); ok {
				if def, ok := qualDefs[q.Qualification]; ok {
					expert = def.IsExpert
				}
			}
			for _, b := range bookings {
				capacity = append(capacity, planning.RatedBooking{Booking: b, Expert: expert})
			}
		}
	}
	return demand, capacity
}

func (h *Handler) childWeight(r *planning.Resolver, sc planning.ScenarioID, item *planning.DataItem, groupDefs map[planning.GroupID]*planning.GroupDef, today planning.Date) float64 {
	cfg := h.BayKiBiG.ConfigForDate(today)
	age := baykibig.AgeAtDec31(item.DateOfBirth, today.Year())
	var flags []string
	for _, g := range r.EffectiveGroupAssignments(sc, item.ID) {
		if g.Start.IsZero() || g.Start.After(today) {
			continue
		}
		if g.End != nil && g.End.Before(today) {
			continue
		}
		if def, ok := groupDefs[g.GroupID]; ok {
			flags = append(flags, def.Flags...)
		}
	}
	return cfg.WeightingFactor(age, flags)
}
