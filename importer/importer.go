/*
importer.go - Mapping raw source-system records into planning entities

PURPOSE:
  The administration software exports flat record arrays per category
  (kids, employees, groups, group assignments, bookings) with its own
  field names (KINDNR, AUFNDAT, GEBDATUM, ...). The importer maps them
  into the planning shapes and captures an Original snapshot per entity,
  which root-scenario restore falls back to. Parsing of the upstream
  ZIP/XML container happens outside; this package consumes the decoded
  records.

ERROR PHILOSOPHY:
  Imports degrade instead of failing: records without a usable id are
  skipped, unparseable dates stay zero, unknown weekdays drop the
  segment. The import result reports what was skipped.
*/
package importer

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/marten-lucas/capakita-sub001/planning"
)

// Raw record shapes as produced by the export decoder.

type RawKid struct {
	KindNr   string `json:"KINDNR"`
	Name     string `json:"NAME"`
	GebDatum string `json:"GEBDATUM"`
	AufnDat  string `json:"AUFNDAT"`
	AustrDat string `json:"AUSTRDAT,omitempty"`
}

type RawEmployee struct {
	PersNr        string `json:"PERSNR"`
	Name          string `json:"NAME"`
	Eintritt      string `json:"EINTRITT"`
	Austritt      string `json:"AUSTRITT,omitempty"`
	Qualifikation string `json:"QUALIFIKATION,omitempty"`
}

type RawGroup struct {
	GruNr       string   `json:"GRUNR"`
	Bezeichnung string   `json:"BEZEICHNUNG"`
	Flags       []string `json:"FLAGS,omitempty"`
}

type RawGroupAssignment struct {
	RefNr    string `json:"REFNR"` // KINDNR or PERSNR
	GruNr    string `json:"GRUNR"`
	VonDatum string `json:"VONDATUM"`
	BisDatum string `json:"BISDATUM,omitempty"`
}

type RawZeit struct {
	Tag string `json:"TAG"` // Mo, Di, Mi, Do, Fr
	Von string `json:"VON"` // HH:MM
	Bis string `json:"BIS"`
}

type RawBooking struct {
	RefNr    string    `json:"REFNR"`
	VonDatum string    `json:"VONDATUM"`
	BisDatum string    `json:"BISDATUM,omitempty"`
	GruNr    string    `json:"GRUNR,omitempty"`
	Zeiten   []RawZeit `json:"ZEITEN"`
}

// Archive is one decoded export.
type Archive struct {
	Kids             []RawKid             `json:"kids"`
	Employees        []RawEmployee        `json:"employees"`
	Groups           []RawGroup           `json:"groups"`
	GroupAssignments []RawGroupAssignment `json:"group_assignments"`
	Bookings         []RawBooking         `json:"bookings"`
}

// Result reports what an import produced.
type Result struct {
	Items    int      `json:"items"`
	Bookings int      `json:"bookings"`
	Groups   int      `json:"groups"`
	Skipped  []string `json:"skipped,omitempty"`
}

// Build maps an archive into a fresh entity set for a root scenario.
func Build(ar Archive) (*planning.EntitySet, Result) {
	set := planning.NewEntitySet()
	var res Result

	for _, g := range ar.Groups {
		if g.GruNr == "" {
			res.Skipped = append(res.Skipped, "group without GRUNR")
			continue
		}
		set.GroupDefs[planning.GroupID(g.GruNr)] = &planning.GroupDef{
			ID:    planning.GroupID(g.GruNr),
			Name:  g.Bezeichnung,
			Flags: g.Flags,
		}
		res.Groups++
	}

	for _, k := range ar.Kids {
		if k.KindNr == "" {
			res.Skipped = append(res.Skipped, "kid without KINDNR")
			continue
		}
		item := &planning.DataItem{
			ID:        KidID(k.KindNr),
			Kind:      planning.KindDemand,
			Name:      k.Name,
			StartDate: planning.MustDate(k.AufnDat),
			Raw: map[string]string{
				"KINDNR":   k.KindNr,
				"GEBDATUM": k.GebDatum,
				"AUFNDAT":  k.AufnDat,
				"AUSTRDAT": k.AustrDat,
			},
		}
		if d := planning.MustDate(k.GebDatum); !d.IsZero() {
			item.DateOfBirth = &d
		}
		if d := planning.MustDate(k.AustrDat); !d.IsZero() {
			item.EndDate = &d
		}
		finishItem(set, item)
		res.Items++
	}

	for _, e := range ar.Employees {
		if e.PersNr == "" {
			res.Skipped = append(res.Skipped, "employee without PERSNR")
			continue
		}
		item := &planning.DataItem{
			ID:        EmployeeID(e.PersNr),
			Kind:      planning.KindCapacity,
			Name:      e.Name,
			StartDate: planning.MustDate(e.Eintritt),
			Raw: map[string]string{
				"PERSNR":        e.PersNr,
				"EINTRITT":      e.Eintritt,
				"AUSTRITT":      e.Austritt,
				"QUALIFIKATION": e.Qualifikation,
			},
		}
		if d := planning.MustDate(e.Austritt); !d.IsZero() {
			item.EndDate = &d
		}
		finishItem(set, item)
		res.Items++

		if q := strings.TrimSpace(e.Qualifikation); q != "" {
			set.Qualifications[item.ID] = &planning.QualificationAssignment{
				ID:            uuid.NewString(),
				ItemID:        item.ID,
				Qualification: q,
			}
		}
	}

	for _, a := range ar.GroupAssignments {
		item, ok := resolveRef(set, a.RefNr)
		if !ok {
			res.Skipped = append(res.Skipped, fmt.Sprintf("group assignment for unknown ref %q", a.RefNr))
			continue
		}
		ga := &planning.GroupAssignment{
			ID:      uuid.NewString(),
			ItemID:  item,
			GroupID: planning.GroupID(a.GruNr),
			Start:   planning.MustDate(a.VonDatum),
		}
		if d := planning.MustDate(a.BisDatum); !d.IsZero() {
			ga.End = &d
		}
		snap := *ga
		ga.Original = &snap
		if set.GroupAssignments[item] == nil {
			set.GroupAssignments[item] = make(map[string]*planning.GroupAssignment)
		}
		set.GroupAssignments[item][ga.ID] = ga
	}

	for _, b := range ar.Bookings {
		item, ok := resolveRef(set, b.RefNr)
		if !ok {
			res.Skipped = append(res.Skipped, fmt.Sprintf("booking for unknown ref %q", b.RefNr))
			continue
		}
		booking := &planning.Booking{
			ID:        planning.BookingID(uuid.NewString()),
			ItemID:    item,
			StartDate: planning.MustDate(b.VonDatum),
			Times:     mapTimes(b, &res),
		}
		if d := planning.MustDate(b.BisDatum); !d.IsZero() {
			booking.EndDate = &d
		}
		booking.Original = booking.Clone()
		if set.Bookings[item] == nil {
			set.Bookings[item] = make(map[planning.BookingID]*planning.Booking)
		}
		set.Bookings[item][booking.ID] = booking
		res.Bookings++
	}

	return set, res
}

func finishItem(set *planning.EntitySet, item *planning.DataItem) {
	snap := item.Clone()
	snap.Original = nil
	item.Original = snap
	set.DataItems[item.ID] = item
}

// KidID derives the stable data-item id of a child record.
func KidID(kindNr string) planning.ItemID {
	return planning.ItemID("kid-" + kindNr)
}

// EmployeeID derives the stable data-item id of an employee record.
func EmployeeID(persNr string) planning.ItemID {
	return planning.ItemID("emp-" + persNr)
}

func resolveRef(set *planning.EntitySet, ref string) (planning.ItemID, bool) {
	for _, id := range []planning.ItemID{KidID(ref), EmployeeID(ref), planning.ItemID(ref)} {
		if _, ok := set.DataItems[id]; ok {
			return id, true
		}
	}
	return "", false
}

func mapTimes(b RawBooking, res *Result) []planning.DayTimes {
	byDay := make(map[planning.DayName][]planning.Segment)
	for _, z := range b.Zeiten {
		day := planning.DayName(z.Tag)
		if !validDay(day) {
			res.Skipped = append(res.Skipped, fmt.Sprintf("booking segment with unknown day %q", z.Tag))
			continue
		}
		seg := planning.Segment{
			Start:   planning.MustTimeOfDay(z.Von),
			End:     planning.MustTimeOfDay(z.Bis),
			GroupID: planning.GroupID(b.GruNr),
		}
		byDay[day] = append(byDay[day], seg)
	}
	var out []planning.DayTimes
	for _, day := range planning.WeekDays {
		if segs, ok := byDay[day]; ok {
			out = append(out, planning.DayTimes{Day: day, Segments: segs})
		}
	}
	return out
}

func validDay(d planning.DayName) bool {
	for _, day := range planning.WeekDays {
		if day == d {
			return true
		}
	}
	return false
}
