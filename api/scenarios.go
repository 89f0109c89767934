/*
scenarios.go - Demo data sets for development and walkthroughs

PURPOSE:
  Seeds the repository with small, self-consistent facility data so the
  engine can be explored without a real export: a root scenario with
  children, staff, groups and bookings; a derived what-if scenario with
  a sparse overlay; and a financial variant with wage and subsidy
  records stacked with bonuses.

NOTE:
  Loading a demo resets all stored state. Only use in development/demo
  environments.

SEE ALSO:
  - handlers.go: ListDemos / LoadDemo endpoints
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/marten-lucas/capakita-sub001/planning"
)

type demoLoader func(h *Handler, r *http.Request) error

var demos = []struct {
	Name        string
	Description string
	Load        demoLoader
}{
	{
		Name:        "kita-basic",
		Description: "Root scenario with two groups, three children and two staff members",
		Load:        loadKitaBasic,
	},
	{
		Name:        "kita-derived",
		Description: "Basic data plus a derived scenario where one child extends its booking",
		Load:        loadKitaDerived,
	},
	{
		Name:        "kita-financials",
		Description: "Basic data plus AVR wages with bonuses, parent fees and BayKiBiG income",
		Load:        loadKitaFinancials,
	},
}

func (h *Handler) ListDemos(w http.ResponseWriter, r *http.Request) {
	dtos := make([]DemoDTO, 0, len(demos))
	for _, d := range demos {
		dtos = append(dtos, DemoDTO{Name: d.Name, Description: d.Description})
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) LoadDemo(w http.ResponseWriter, r *http.Request) {
	var req LoadDemoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, d := range demos {
		if d.Name != req.Name {
			continue
		}
		if err := h.Repo.Reset(r.Context()); err != nil {
			h.fail(w, err)
			return
		}
		h.snap = planning.NewSnapshot()
		if err := d.Load(h, r); err != nil {
			h.fail(w, err)
			return
		}
		h.Log.Info().Str("demo", d.Name).Msg("demo loaded")
		writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "demo": d.Name})
		return
	}
	writeError(w, http.StatusNotFound, "unknown demo "+req.Name)
}

// =============================================================================
// DEMO CONTENT
// =============================================================================

func demoBaseSet() *planning.EntitySet {
	set := planning.NewEntitySet()

	set.GroupDefs["g1"] = &planning.GroupDef{ID: "g1", Name: "Sonnenkäfer"}
	set.GroupDefs["g2"] = &planning.GroupDef{ID: "g2", Name: "Schulkinder", Flags: []string{"schulkind"}}

	set.QualificationDef["erzieher"] = &planning.QualificationDef{Key: "erzieher", Name: "Erzieher:in", IsExpert: true}
	set.QualificationDef["kinderpfleger"] = &planning.QualificationDef{Key: "kinderpfleger", Name: "Kinderpfleger:in"}

	addItem := func(item *planning.DataItem) {
		item.Original = item.Clone()
		set.DataItems[item.ID] = item
	}

	dob1 := planning.MustDate("2022-04-12")
	addItem(&planning.DataItem{
		ID: "kid-101", Kind: planning.KindDemand, Name: "Emma M.",
		StartDate: planning.MustDate("2024-09-01"), DateOfBirth: &dob1,
	})
	dob2 := planning.MustDate("2020-11-03")
	addItem(&planning.DataItem{
		ID: "kid-102", Kind: planning.KindDemand, Name: "Ben K.",
		StartDate: planning.MustDate("2024-09-01"), DateOfBirth: &dob2,
	})
	dob3 := planning.MustDate("2018-02-27")
	end3 := planning.MustDate("2026-07-31")
	addItem(&planning.DataItem{
		ID: "kid-103", Kind: planning.KindDemand, Name: "Lina S.",
		StartDate: planning.MustDate("2024-09-01"), EndDate: &end3, DateOfBirth: &dob3,
	})

	addItem(&planning.DataItem{
		ID: "emp-1", Kind: planning.KindCapacity, Name: "Maria Huber",
		StartDate: planning.MustDate("2020-01-01"),
	})
	addItem(&planning.DataItem{
		ID: "emp-2", Kind: planning.KindCapacity, Name: "Jonas Weber",
		StartDate: planning.MustDate("2024-03-01"),
	})

	set.Qualifications["emp-1"] = &planning.QualificationAssignment{
		ID: "q-1", ItemID: "emp-1", Qualification: "erzieher",
	}
	set.Qualifications["emp-2"] = &planning.QualificationAssignment{
		ID: "q-2", ItemID: "emp-2", Qualification: "kinderpfleger",
	}

	addGroup := func(id string, item planning.ItemID, group planning.GroupID, start string) {
		g := &planning.GroupAssignment{ID: id, ItemID: item, GroupID: group, Start: planning.MustDate(start)}
		snap := *g
		g.Original = &snap
		if set.GroupAssignments[item] == nil {
			set.GroupAssignments[item] = make(map[string]*planning.GroupAssignment)
		}
		set.GroupAssignments[item][id] = g
	}
	addGroup("ga-1", "kid-101", "g1", "2024-09-01")
	addGroup("ga-2", "kid-102", "g1", "2024-09-01")
	addGroup("ga-3", "kid-103", "g2", "2024-09-01")

	addBooking := func(id planning.BookingID, item planning.ItemID, start string, end string, times []planning.DayTimes) {
		b := &planning.Booking{ID: id, ItemID: item, StartDate: planning.MustDate(start), Times: times}
		if end != "" {
			e := planning.MustDate(end)
			b.EndDate = &e
		}
		b.Original = b.Clone()
		if set.Bookings[item] == nil {
			set.Bookings[item] = make(map[planning.BookingID]*planning.Booking)
		}
		set.Bookings[item][id] = b
	}
	addBooking("b-101", "kid-101", "2024-09-01", "", weekTimes("08:00", "13:00"))
	addBooking("b-102", "kid-102", "2024-09-01", "", weekTimes("07:30", "15:00"))
	addBooking("b-103", "kid-103", "2024-09-01", "2026-07-31", weekTimes("11:30", "16:00"))
	addBooking("b-201", "emp-1", "2024-09-01", "", weekTimes("07:00", "15:30"))
	addBooking("b-202", "emp-2", "2024-09-01", "", weekTimes("09:00", "16:30"))

	return set
}

func weekTimes(start, end string) []planning.DayTimes {
	var out []planning.DayTimes
	for _, day := range planning.WeekDays {
		out = append(out, planning.DayTimes{
			Day: day,
			Segments: []planning.Segment{{
				Start: planning.MustTimeOfDay(start),
				End:   planning.MustTimeOfDay(end),
			}},
		})
	}
	return out
}

func loadKitaBasic(h *Handler, r *http.Request) error {
	root := &planning.Scenario{ID: "demo-root", Name: "Bestand", Confidence: 90, Likelihood: 90, Desirability: 50}
	set := demoBaseSet()
	h.snap.Scenarios[root.ID] = root
	h.snap.Base[root.ID] = set
	if err := h.Repo.SaveScenario(r.Context(), root); err != nil {
		return err
	}
	return h.Repo.SaveBase(r.Context(), root.ID, set)
}

func loadKitaDerived(h *Handler, r *http.Request) error {
	if err := loadKitaBasic(h, r); err != nil {
		return err
	}
	base := planning.ScenarioID("demo-root")
	derived := &planning.Scenario{
		ID: "demo-derived", Name: "Emma verlängert", BaseScenarioID: &base,
		Confidence: 50, Likelihood: 60, Desirability: 80,
	}
	h.snap.Scenarios[derived.ID] = derived
	if err := h.Repo.SaveScenario(r.Context(), derived); err != nil {
		return err
	}

	longer := &planning.Booking{
		ID: "b-101", ItemID: "kid-101",
		StartDate: planning.MustDate("2024-09-01"),
		Times:     weekTimes("08:00", "16:00"),
	}
	if err := h.snap.SetBooking(derived.ID, longer); err != nil {
		return err
	}
	return h.Repo.SaveOverlay(r.Context(), derived.ID, h.snap.Overlays[derived.ID])
}

func loadKitaFinancials(h *Handler, r *http.Request) error {
	if err := loadKitaBasic(h, r); err != nil {
		return err
	}
	root := planning.ScenarioID("demo-root")
	set := h.snap.Base[root]

	set.FinancialDefs["fees-2024"] = &planning.FinancialDef{
		ID:   "fees-2024",
		Name: "Elternbeiträge 2024",
		Tiers: []planning.FeeTier{
			{MaxHours: 20, Amount: decimal.NewFromInt(110), ValidFrom: planning.MustDate("2024-01-01")},
			{MaxHours: 30, Amount: decimal.NewFromInt(140), ValidFrom: planning.MustDate("2024-01-01")},
			{MaxHours: 45, Amount: decimal.NewFromInt(180), ValidFrom: planning.MustDate("2024-01-01")},
		},
	}

	addFinancial := func(f *planning.Financial) {
		if set.Financials[f.ItemID] == nil {
			set.Financials[f.ItemID] = make(map[planning.FinancialID]*planning.Financial)
		}
		set.Financials[f.ItemID][f.ID] = f
	}

	addFinancial(&planning.Financial{
		ID: "fin-wage-1", ItemID: "emp-1", Type: planning.TypeExpenseAVR,
		From:   planning.MustDate("2024-01-01"),
		Detail: planning.AVRDetails{SalaryGroup: "S8a", Stage: 1, WeeklyHours: 39},
		Sub: []*planning.Financial{{
			ID: "fin-bonus-1", ItemID: "emp-1", Type: planning.TypeBonusYearly,
			From:   planning.MustDate("2024-01-01"),
			Detail: planning.YearlyBonusDetails{BonusType: "jahressonderzahlung"},
		}},
	})
	addFinancial(&planning.Financial{
		ID: "fin-wage-2", ItemID: "emp-2", Type: planning.TypeExpenseAVR,
		From:   planning.MustDate("2024-03-01"),
		Detail: planning.AVRDetails{SalaryGroup: "S3", Stage: 1, WeeklyHours: 30},
	})

	for _, kid := range []planning.ItemID{"kid-101", "kid-102", "kid-103"} {
		addFinancial(&planning.Financial{
			ID: planning.FinancialID("fin-fee-" + string(kid)), ItemID: kid, Type: planning.TypeIncomeFee,
			From:   planning.MustDate("2024-09-01"),
			Detail: planning.FeeDetails{DefID: "fees-2024"},
		})
		addFinancial(&planning.Financial{
			ID: planning.FinancialID("fin-bkb-" + string(kid)), ItemID: kid, Type: planning.TypeIncomeBayKiBiG,
			From:   planning.MustDate("2024-09-01"),
			Detail: planning.BayKiBiGDetails{},
		})
	}

	return h.Repo.SaveBase(r.Context(), root, set)
}
