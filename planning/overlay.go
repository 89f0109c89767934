/*
overlay.go - Effective-value resolution across a scenario chain

PURPOSE:
  A derived scenario stores only a sparse overlay of edited entities; its
  unedited state comes from its base chain. Resolution walks the chain from
  the most-derived scenario toward the root and returns the first defined
  value - an overlay fully replaces the entity, never patching field by
  field. Collection queries union the keys of every level and resolve each
  key independently.

COPY-ON-WRITE LIFECYCLE:
  Editing an entity in a derived scenario writes an overlay entry when the
  new value differs from the resolved base value. When an edit makes the
  value identical to the base again (CompareKeys semantics: every key of
  the base must structurally match, extra keys ignored), the overlay entry
  collapses away and resolution falls back to the base. Root scenarios
  store native data and are edited in place; their restore point is the
  Original snapshot captured at import.

IMMUTABILITY:
  Resolved values may be shared base entities. Callers must clone before
  mutating; the Set* writers clone internally.
*/
package planning

import (
	"encoding/json"
	"fmt"
)

// Resolver answers effective-state queries against a Snapshot. It never
// mutates the snapshot.
type Resolver struct {
	Snap *Snapshot
}

func NewResolver(snap *Snapshot) *Resolver { return &Resolver{Snap: snap} }

// =============================================================================
// PER-KEY RESOLUTION - first-write-wins along the chain
// =============================================================================

// EffectiveDataItem resolves one data item in the scenario's chain.
func (r *Resolver) EffectiveDataItem(sc ScenarioID, id ItemID) (*DataItem, bool) {
	chain, err := r.Snap.Chain(sc)
	if err != nil {
		return nil, false
	}
	for _, sid := range chain {
		if ov := r.Snap.Overlays[sid]; ov != nil {
			if item, ok := ov.DataItems[id]; ok {
				return item, true
			}
		}
	}
	root := chain[len(chain)-1]
	if base := r.Snap.Base[root]; base != nil {
		if item, ok := base.DataItems[id]; ok {
			return item, true
		}
	}
	return nil, false
}

// EffectiveDataItems resolves all data items visible in the chain: the
// union of keys at every level, each key resolved independently.
func (r *Resolver) EffectiveDataItems(sc ScenarioID) map[ItemID]*DataItem {
	out := make(map[ItemID]*DataItem)
	for _, id := range r.dataItemKeys(sc) {
		if item, ok := r.EffectiveDataItem(sc, id); ok {
			out[id] = item
		}
	}
	return out
}

func (r *Resolver) dataItemKeys(sc ScenarioID) []ItemID {
	chain, err := r.Snap.Chain(sc)
	if err != nil {
		return nil
	}
	seen := make(map[ItemID]bool)
	var keys []ItemID
	add := func(id ItemID) {
		if !seen[id] {
			seen[id] = true
			keys = append(keys, id)
		}
	}
	for _, sid := range chain {
		if ov := r.Snap.Overlays[sid]; ov != nil {
			for id := range ov.DataItems {
				add(id)
			}
		}
	}
	if base := r.Snap.Base[chain[len(chain)-1]]; base != nil {
		for id := range base.DataItems {
			add(id)
		}
	}
	return keys
}

// EffectiveBookings resolves the booking set of one data item. Bookings
// are keyed per item; an overlay for an item's bookings replaces bookings
// with matching ids, the remaining ids fall through to deeper levels.
func (r *Resolver) EffectiveBookings(sc ScenarioID, item ItemID) map[BookingID]*Booking {
	out := make(map[BookingID]*Booking)
	chain, err := r.Snap.Chain(sc)
	if err != nil {
		return out
	}
	for _, sid := range chain {
		if ov := r.Snap.Overlays[sid]; ov != nil {
			for id, b := range ov.Bookings[item] {
				if _, done := out[id]; !done {
					out[id] = b
				}
			}
		}
	}
	if base := r.Snap.Base[chain[len(chain)-1]]; base != nil {
		for id, b := range base.Bookings[item] {
			if _, done := out[id]; !done {
				out[id] = b
			}
		}
	}
	return out
}

// EffectiveGroupAssignments resolves the group assignments of one item.
func (r *Resolver) EffectiveGroupAssignments(sc ScenarioID, item ItemID) map[string]*GroupAssignment {
	out := make(map[string]*GroupAssignment)
	chain, err := r.Snap.Chain(sc)
	if err != nil {
		return out
	}
	for _, sid := range chain {
		if ov := r.Snap.Overlays[sid]; ov != nil {
			for id, g := range ov.GroupAssignments[item] {
				if _, done := out[id]; !done {
					out[id] = g
				}
			}
		}
	}
	if base := r.Snap.Base[chain[len(chain)-1]]; base != nil {
		for id, g := range base.GroupAssignments[item] {
			if _, done := out[id]; !done {
				out[id] = g
			}
		}
	}
	return out
}

// EffectiveQualification resolves the qualification assignment of an item.
func (r *Resolver) EffectiveQualification(sc ScenarioID, item ItemID) (*QualificationAssignment, bool) {
	chain, err := r.Snap.Chain(sc)
	if err != nil {
		return nil, false
	}
	for _, sid := range chain {
		if ov := r.Snap.Overlays[sid]; ov != nil {
			if q, ok := ov.Qualifications[item]; ok {
				return q, true
			}
		}
	}
	if base := r.Snap.Base[chain[len(chain)-1]]; base != nil {
		if q, ok := base.Qualifications[item]; ok {
			return q, true
		}
	}
	return nil, false
}

// EffectiveFinancials resolves the financial records of one item.
func (r *Resolver) EffectiveFinancials(sc ScenarioID, item ItemID) map[FinancialID]*Financial {
	out := make(map[FinancialID]*Financial)
	chain, err := r.Snap.Chain(sc)
	if err != nil {
		return out
	}
	for _, sid := range chain {
		if ov := r.Snap.Overlays[sid]; ov != nil {
			for id, f := range ov.Financials[item] {
				if _, done := out[id]; !done {
					out[id] = f
				}
			}
		}
	}
	if base := r.Snap.Base[chain[len(chain)-1]]; base != nil {
		for id, f := range base.Financials[item] {
			if _, done := out[id]; !done {
				out[id] = f
			}
		}
	}
	return out
}

// EffectiveFinancialDef resolves a fee schedule by id.
func (r *Resolver) EffectiveFinancialDef(sc ScenarioID, defID string) (*FinancialDef, bool) {
	chain, err := r.Snap.Chain(sc)
	if err != nil {
		return nil, false
	}
	for _, sid := range chain {
		if ov := r.Snap.Overlays[sid]; ov != nil {
			if fd, ok := ov.FinancialDefs[defID]; ok {
				return fd, true
			}
		}
	}
	if base := r.Snap.Base[chain[len(chain)-1]]; base != nil {
		if fd, ok := base.FinancialDefs[defID]; ok {
			return fd, true
		}
	}
	return nil, false
}

// EffectiveGroupDefs resolves the group definitions visible in the chain.
func (r *Resolver) EffectiveGroupDefs(sc ScenarioID) map[GroupID]*GroupDef {
	out := make(map[GroupID]*GroupDef)
	chain, err := r.Snap.Chain(sc)
	if err != nil {
		return out
	}
	for _, sid := range chain {
		if ov := r.Snap.Overlays[sid]; ov != nil {
			for id, g := range ov.GroupDefs {
				if _, done := out[id]; !done {
					out[id] = g
				}
			}
		}
	}
	if base := r.Snap.Base[chain[len(chain)-1]]; base != nil {
		for id, g := range base.GroupDefs {
			if _, done := out[id]; !done {
				out[id] = g
			}
		}
	}
	return out
}

// EffectiveQualificationDefs resolves the qualification definitions.
func (r *Resolver) EffectiveQualificationDefs(sc ScenarioID) map[string]*QualificationDef {
	out := make(map[string]*QualificationDef)
	chain, err := r.Snap.Chain(sc)
	if err != nil {
		return out
	}
	for _, sid := range chain {
		if ov := r.Snap.Overlays[sid]; ov != nil {
			for id, q := range ov.QualificationDef {
				if _, done := out[id]; !done {
					out[id] = q
				}
			}
		}
	}
	if base := r.Snap.Base[chain[len(chain)-1]]; base != nil {
		for id, q := range base.QualificationDef {
			if _, done := out[id]; !done {
				out[id] = q
			}
		}
	}
	return out
}

// =============================================================================
// STRUCTURAL COMPARISON - collapse-to-base detection
// =============================================================================

// CompareKeys reports whether current structurally matches original for
// every key present in original; keys present only in current are ignored.
// Both values go through a JSON round trip, so only serialized state
// participates (snapshots and raw import fields do not).
func CompareKeys(original, current any) bool {
	return compareValues(toJSONValue(original), toJSONValue(current))
}

func toJSONValue(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func compareValues(original, current any) bool {
	switch orig := original.(type) {
	case map[string]any:
		cur, ok := current.(map[string]any)
		if !ok {
			return false
		}
		for k, ov := range orig {
			if !compareValues(ov, cur[k]) {
				return false
			}
		}
		return true
	case []any:
		cur, ok := current.([]any)
		if !ok || len(cur) != len(orig) {
			return false
		}
		for i := range orig {
			if !compareValues(orig[i], cur[i]) {
				return false
			}
		}
		return true
	default:
		return original == current
	}
}

// =============================================================================
// COPY-ON-WRITE EDITS
// =============================================================================

// SetDataItem writes an edited data item into a scenario. Root scenarios
// store in place (keeping the import snapshot); derived scenarios get an
// overlay entry unless the value collapses back to the resolved base.
func (s *Snapshot) SetDataItem(sc ScenarioID, item *DataItem) error {
	scenario, ok := s.Scenarios[sc]
	if !ok {
		return fmt.Errorf("%w: %s", ErrScenarioNotFound, sc)
	}
	if scenario.IsRoot() {
		base := s.ensureBase(sc)
		cp := item.Clone()
		if prev, ok := base.DataItems[item.ID]; ok {
			cp.Original = prev.Original
			cp.Raw = prev.Raw
		}
		base.DataItems[item.ID] = cp
		return nil
	}

	baseVal, hasBase := NewResolver(s).EffectiveDataItem(*scenario.BaseScenarioID, item.ID)
	ov := s.ensureOverlay(sc)
	if hasBase && CompareKeys(baseVal, item) {
		delete(ov.DataItems, item.ID)
		s.dropEmptyOverlay(sc)
		return nil
	}
	ov.DataItems[item.ID] = item.Clone()
	return nil
}

// SetBooking writes an edited booking, with the same collapse rule.
func (s *Snapshot) SetBooking(sc ScenarioID, b *Booking) error {
	scenario, ok := s.Scenarios[sc]
	if !ok {
		return fmt.Errorf("%w: %s", ErrScenarioNotFound, sc)
	}
	if err := ValidateBooking(b); err != nil {
		return err
	}
	if scenario.IsRoot() {
		base := s.ensureBase(sc)
		if base.Bookings[b.ItemID] == nil {
			base.Bookings[b.ItemID] = make(map[BookingID]*Booking)
		}
		cp := b.Clone()
		if prev, ok := base.Bookings[b.ItemID][b.ID]; ok {
			cp.Original = prev.Original
		}
		base.Bookings[b.ItemID][b.ID] = cp
		return nil
	}

	baseSet := NewResolver(s).EffectiveBookings(*scenario.BaseScenarioID, b.ItemID)
	ov := s.ensureOverlay(sc)
	if baseVal, ok := baseSet[b.ID]; ok && CompareKeys(baseVal, b) {
		delete(ov.Bookings[b.ItemID], b.ID)
		if len(ov.Bookings[b.ItemID]) == 0 {
			delete(ov.Bookings, b.ItemID)
		}
		s.dropEmptyOverlay(sc)
		return nil
	}
	if ov.Bookings[b.ItemID] == nil {
		ov.Bookings[b.ItemID] = make(map[BookingID]*Booking)
	}
	ov.Bookings[b.ItemID][b.ID] = b.Clone()
	return nil
}

// SetGroupAssignment writes an edited group assignment.
func (s *Snapshot) SetGroupAssignment(sc ScenarioID, g *GroupAssignment) error {
	scenario, ok := s.Scenarios[sc]
	if !ok {
		return fmt.Errorf("%w: %s", ErrScenarioNotFound, sc)
	}
	if scenario.IsRoot() {
		base := s.ensureBase(sc)
		if base.GroupAssignments[g.ItemID] == nil {
			base.GroupAssignments[g.ItemID] = make(map[string]*GroupAssignment)
		}
		cp := *g
		base.GroupAssignments[g.ItemID][g.ID] = &cp
		return nil
	}

	baseSet := NewResolver(s).EffectiveGroupAssignments(*scenario.BaseScenarioID, g.ItemID)
	ov := s.ensureOverlay(sc)
	if baseVal, ok := baseSet[g.ID]; ok && CompareKeys(baseVal, g) {
		delete(ov.GroupAssignments[g.ItemID], g.ID)
		if len(ov.GroupAssignments[g.ItemID]) == 0 {
			delete(ov.GroupAssignments, g.ItemID)
		}
		s.dropEmptyOverlay(sc)
		return nil
	}
	if ov.GroupAssignments[g.ItemID] == nil {
		ov.GroupAssignments[g.ItemID] = make(map[string]*GroupAssignment)
	}
	cp := *g
	ov.GroupAssignments[g.ItemID][g.ID] = &cp
	return nil
}

// SetQualification writes an edited qualification assignment.
func (s *Snapshot) SetQualification(sc ScenarioID, q *QualificationAssignment) error {
	scenario, ok := s.Scenarios[sc]
	if !ok {
		return fmt.Errorf("%w: %s", ErrScenarioNotFound, sc)
	}
	if scenario.IsRoot() {
		cp := *q
		s.ensureBase(sc).Qualifications[q.ItemID] = &cp
		return nil
	}
	baseVal, hasBase := NewResolver(s).EffectiveQualification(*scenario.BaseScenarioID, q.ItemID)
	ov := s.ensureOverlay(sc)
	if hasBase && CompareKeys(baseVal, q) {
		delete(ov.Qualifications, q.ItemID)
		s.dropEmptyOverlay(sc)
		return nil
	}
	cp := *q
	ov.Qualifications[q.ItemID] = &cp
	return nil
}

// SetFinancial writes an edited financial record.
func (s *Snapshot) SetFinancial(sc ScenarioID, f *Financial) error {
	scenario, ok := s.Scenarios[sc]
	if !ok {
		return fmt.Errorf("%w: %s", ErrScenarioNotFound, sc)
	}
	if scenario.IsRoot() {
		base := s.ensureBase(sc)
		if base.Financials[f.ItemID] == nil {
			base.Financials[f.ItemID] = make(map[FinancialID]*Financial)
		}
		base.Financials[f.ItemID][f.ID] = f.Clone()
		return nil
	}
	baseSet := NewResolver(s).EffectiveFinancials(*scenario.BaseScenarioID, f.ItemID)
	ov := s.ensureOverlay(sc)
	if baseVal, ok := baseSet[f.ID]; ok && CompareKeys(baseVal, f) {
		delete(ov.Financials[f.ItemID], f.ID)
		if len(ov.Financials[f.ItemID]) == 0 {
			delete(ov.Financials, f.ItemID)
		}
		s.dropEmptyOverlay(sc)
		return nil
	}
	if ov.Financials[f.ItemID] == nil {
		ov.Financials[f.ItemID] = make(map[FinancialID]*Financial)
	}
	ov.Financials[f.ItemID][f.ID] = f.Clone()
	return nil
}

// SetFinancialDef writes an edited fee schedule.
func (s *Snapshot) SetFinancialDef(sc ScenarioID, fd *FinancialDef) error {
	scenario, ok := s.Scenarios[sc]
	if !ok {
		return fmt.Errorf("%w: %s", ErrScenarioNotFound, sc)
	}
	if scenario.IsRoot() {
		cp := *fd
		cp.Tiers = append([]FeeTier(nil), fd.Tiers...)
		s.ensureBase(sc).FinancialDefs[fd.ID] = &cp
		return nil
	}
	baseVal, hasBase := NewResolver(s).EffectiveFinancialDef(*scenario.BaseScenarioID, fd.ID)
	ov := s.ensureOverlay(sc)
	if hasBase && CompareKeys(baseVal, fd) {
		delete(ov.FinancialDefs, fd.ID)
		s.dropEmptyOverlay(sc)
		return nil
	}
	cp := *fd
	cp.Tiers = append([]FeeTier(nil), fd.Tiers...)
	ov.FinancialDefs[fd.ID] = &cp
	return nil
}

func (s *Snapshot) ensureBase(sc ScenarioID) *EntitySet {
	if s.Base[sc] == nil {
		s.Base[sc] = NewEntitySet()
	}
	return s.Base[sc]
}

func (s *Snapshot) ensureOverlay(sc ScenarioID) *EntitySet {
	if s.Overlays[sc] == nil {
		s.Overlays[sc] = NewEntitySet()
	}
	return s.Overlays[sc]
}

func (s *Snapshot) dropEmptyOverlay(sc ScenarioID) {
	if ov := s.Overlays[sc]; ov != nil && ov.Empty() {
		delete(s.Overlays, sc)
	}
}

// =============================================================================
// RESTORABILITY
// =============================================================================

// IsRestorable reports whether a data item can be restored in a scenario:
// an overlay for it (or one of its sub-records) exists somewhere in the
// chain, or - for a root scenario - the current value diverged from the
// import snapshot.
func (s *Snapshot) IsRestorable(sc ScenarioID, item ItemID) bool {
	chain, err := s.Chain(sc)
	if err != nil {
		return false
	}
	for _, sid := range chain {
		if overlayTouchesItem(s.Overlays[sid], item) {
			return true
		}
	}
	base := s.Base[chain[len(chain)-1]]
	if base == nil {
		return false
	}
	current, ok := base.DataItems[item]
	if !ok || current.Original == nil {
		return false
	}
	return !CompareKeys(current.Original, current)
}

func overlayTouchesItem(ov *EntitySet, item ItemID) bool {
	if ov == nil {
		return false
	}
	if _, ok := ov.DataItems[item]; ok {
		return true
	}
	if len(ov.Bookings[item]) > 0 || len(ov.GroupAssignments[item]) > 0 {
		return true
	}
	_, ok := ov.Qualifications[item]
	return ok
}

// Restore reverts a data item. In a derived chain the nearest overlay
// (self toward root) is peeled off, cascading to the item's bookings,
// group assignments and qualification; repeated restores peel deeper
// layers. At the root, fields reset to the Original import snapshots.
func (s *Snapshot) Restore(sc ScenarioID, item ItemID) error {
	chain, err := s.Chain(sc)
	if err != nil {
		return err
	}
	for _, sid := range chain {
		ov := s.Overlays[sid]
		if !overlayTouchesItem(ov, item) {
			continue
		}
		delete(ov.DataItems, item)
		delete(ov.Bookings, item)
		delete(ov.GroupAssignments, item)
		delete(ov.Qualifications, item)
		s.dropEmptyOverlay(sid)
		return nil
	}

	base := s.Base[chain[len(chain)-1]]
	if base == nil {
		return fmt.Errorf("%w: %s", ErrItemNotFound, item)
	}
	current, ok := base.DataItems[item]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, item)
	}
	if current.Original != nil {
		restored := current.Original.Clone()
		restored.Original = current.Original
		restored.Raw = current.Raw
		base.DataItems[item] = restored
	}
	for id, b := range base.Bookings[item] {
		if b.Original != nil {
			restored := b.Original.Clone()
			restored.Original = b.Original
			base.Bookings[item][id] = restored
		}
	}
	for id, g := range base.GroupAssignments[item] {
		if g.Original != nil {
			cp := *g.Original
			cp.Original = g.Original
			base.GroupAssignments[item][id] = &cp
		}
	}
	return nil
}
