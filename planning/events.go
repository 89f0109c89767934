/*
events.go - Date-anchored event extraction for the timeline view

PURPOSE:
  Turns the effective state of a scenario into a stream of dated events:
  presence spans of data items, absences, bookings and group membership.
  Every event keeps its source date; end events additionally shift the
  effective date to the next working day, so the event marks the first
  day the change is actually felt. Consolidation groups events per
  effective calendar day for rendering.
*/
package planning

import (
	"fmt"
	"sort"
)

// ExtractEvents walks every effective data item of a scenario and emits
// one event per relevant boundary date. Entities without a start date are
// skipped; open ends emit nothing.
func ExtractEvents(r *Resolver, sc ScenarioID) []Event {
	var events []Event
	for id, item := range r.EffectiveDataItems(sc) {
		events = append(events, itemEvents(sc, id, item)...)

		for bid, b := range r.EffectiveBookings(sc, id) {
			if !b.StartDate.IsZero() {
				events = append(events, Event{
					ID:            fmt.Sprintf("%s:booking-start:%s", bid, b.StartDate),
					ScenarioID:    sc,
					EffectiveDate: b.StartDate,
					SourceDate:    b.StartDate,
					Type:          EventBookingStart,
					EntityKind:    "booking",
					EntityID:      string(bid),
					EntityName:    item.Name,
					Description:   fmt.Sprintf("Buchung beginnt: %s", item.Name),
				})
			}
			if b.EndDate != nil && !b.EndDate.IsZero() {
				events = append(events, Event{
					ID:            fmt.Sprintf("%s:booking-end:%s", bid, *b.EndDate),
					ScenarioID:    sc,
					EffectiveDate: NextWorkingDay(*b.EndDate),
					SourceDate:    *b.EndDate,
					Type:          EventBookingEnd,
					EntityKind:    "booking",
					EntityID:      string(bid),
					EntityName:    item.Name,
					Description:   fmt.Sprintf("Buchung endet: %s", item.Name),
				})
			}
		}

		for gid, g := range r.EffectiveGroupAssignments(sc, id) {
			if !g.Start.IsZero() {
				events = append(events, Event{
					ID:            fmt.Sprintf("%s:group-enter:%s", gid, g.Start),
					ScenarioID:    sc,
					EffectiveDate: g.Start,
					SourceDate:    g.Start,
					Type:          EventGroupEnter,
					EntityKind:    "group_assignment",
					EntityID:      gid,
					EntityName:    item.Name,
					Description:   fmt.Sprintf("Gruppenwechsel: %s", item.Name),
				})
			}
			if g.End != nil && !g.End.IsZero() {
				events = append(events, Event{
					ID:            fmt.Sprintf("%s:group-leave:%s", gid, *g.End),
					ScenarioID:    sc,
					EffectiveDate: NextWorkingDay(*g.End),
					SourceDate:    *g.End,
					Type:          EventGroupLeave,
					EntityKind:    "group_assignment",
					EntityID:      gid,
					EntityName:    item.Name,
					Description:   fmt.Sprintf("Verlässt Gruppe: %s", item.Name),
				})
			}
		}
	}
	return events
}

func itemEvents(sc ScenarioID, id ItemID, item *DataItem) []Event {
	var events []Event
	noun := "Kind"
	if item.Kind == KindCapacity {
		noun = "Mitarbeiter"
	}
	if !item.StartDate.IsZero() {
		events = append(events, Event{
			ID:            fmt.Sprintf("%s:presence-start:%s", id, item.StartDate),
			ScenarioID:    sc,
			EffectiveDate: item.StartDate,
			SourceDate:    item.StartDate,
			Type:          EventPresenceStart,
			EntityKind:    "data_item",
			EntityID:      string(id),
			EntityName:    item.Name,
			Description:   fmt.Sprintf("%s kommt: %s", noun, item.Name),
		})
	}
	if item.EndDate != nil && !item.EndDate.IsZero() {
		events = append(events, Event{
			ID:            fmt.Sprintf("%s:presence-end:%s", id, *item.EndDate),
			ScenarioID:    sc,
			EffectiveDate: NextWorkingDay(*item.EndDate),
			SourceDate:    *item.EndDate,
			Type:          EventPresenceEnd,
			EntityKind:    "data_item",
			EntityID:      string(id),
			EntityName:    item.Name,
			Description:   fmt.Sprintf("%s geht: %s", noun, item.Name),
		})
	}
	for i, abs := range item.Absences {
		if !abs.Start.IsZero() {
			events = append(events, Event{
				ID:            fmt.Sprintf("%s:absence-start:%d", id, i),
				ScenarioID:    sc,
				EffectiveDate: abs.Start,
				SourceDate:    abs.Start,
				Type:          EventAbsenceStart,
				EntityKind:    "absence",
				EntityID:      string(id),
				EntityName:    item.Name,
				Description:   fmt.Sprintf("Abwesenheit beginnt: %s", item.Name),
			})
		}
		if !abs.End.IsZero() {
			events = append(events, Event{
				ID:            fmt.Sprintf("%s:absence-end:%d", id, i),
				ScenarioID:    sc,
				EffectiveDate: NextWorkingDay(abs.End),
				SourceDate:    abs.End,
				Type:          EventAbsenceEnd,
				EntityKind:    "absence",
				EntityID:      string(id),
				EntityName:    item.Name,
				Description:   fmt.Sprintf("Abwesenheit endet: %s", item.Name),
			})
		}
	}
	return events
}

// ConsolidateEvents groups events by effective calendar day, ordered by
// ISO date (lexicographic order equals chronological order here).
func ConsolidateEvents(events []Event) []DayEvents {
	byDay := make(map[string][]Event)
	for _, ev := range events {
		byDay[ev.EffectiveDate.String()] = append(byDay[ev.EffectiveDate.String()], ev)
	}
	keys := make([]string, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]DayEvents, 0, len(keys))
	for _, k := range keys {
		evs := byDay[k]
		sort.Slice(evs, func(i, j int) bool {
			if evs[i].Type != evs[j].Type {
				return evs[i].Type < evs[j].Type
			}
			return evs[i].ID < evs[j].ID
		})
		out = append(out, DayEvents{Date: evs[0].EffectiveDate, Events: evs})
	}
	return out
}
