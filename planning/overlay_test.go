package planning_test

import (
	"testing"

	"github.com/marten-lucas/capakita-sub001/planning"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// overlaySnapshot builds root <- mid <- leaf with one child in the root's
// native data, including its import snapshot.
func overlaySnapshot() *planning.Snapshot {
	snap := scenarioTree()
	set := planning.NewEntitySet()

	item := &planning.DataItem{
		ID:        "kid-1",
		Kind:      planning.KindDemand,
		Name:      "Anna",
		StartDate: d("2025-09-01"),
	}
	orig := item.Clone()
	item.Original = orig
	set.DataItems["kid-1"] = item

	b := weekBooking(day(planning.Monday, seg("08:00", "14:00")))
	b.ItemID = "kid-1"
	b.Original = b.Clone()
	set.Bookings["kid-1"] = map[planning.BookingID]*planning.Booking{b.ID: b}

	snap.Base["root"] = set
	return snap
}

func effectiveName(t *testing.T, snap *planning.Snapshot, sc planning.ScenarioID) string {
	t.Helper()
	item, ok := planning.NewResolver(snap).EffectiveDataItem(sc, "kid-1")
	if !ok {
		t.Fatalf("kid-1 not resolvable in %s", sc)
	}
	return item.Name
}

// =============================================================================
// RESOLUTION TESTS
// =============================================================================

func TestEffectiveDataItem_FallsThroughToRootBase(t *testing.T) {
	// GIVEN: kid-1 exists only in the root's native data
	// WHEN: Resolving from the most derived scenario
	// THEN: The root value is visible unchanged

	snap := overlaySnapshot()
	if got := effectiveName(t, snap, "leaf"); got != "Anna" {
		t.Errorf("expected Anna, got %q", got)
	}
}

func TestSetDataItem_Derived_WritesOverlayOnly(t *testing.T) {
	// GIVEN: kid-1 in the root base
	// WHEN: Renaming it in the derived scenario mid
	// THEN: mid and leaf see the new name, root keeps the old one

	snap := overlaySnapshot()
	edited := &planning.DataItem{ID: "kid-1", Kind: planning.KindDemand, Name: "Anna-Lena", StartDate: d("2025-09-01")}
	if err := snap.SetDataItem("mid", edited); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := effectiveName(t, snap, "mid"); got != "Anna-Lena" {
		t.Errorf("mid: expected Anna-Lena, got %q", got)
	}
	if got := effectiveName(t, snap, "leaf"); got != "Anna-Lena" {
		t.Errorf("leaf inherits mid's overlay: expected Anna-Lena, got %q", got)
	}
	if got := effectiveName(t, snap, "root"); got != "Anna" {
		t.Errorf("root: expected Anna, got %q", got)
	}
}

func TestNearestOverlayWins(t *testing.T) {
	// GIVEN: Overlays for kid-1 on both mid and leaf
	// WHEN: Resolving from leaf
	// THEN: leaf's own overlay wins over mid's

	snap := overlaySnapshot()
	if err := snap.SetDataItem("mid", &planning.DataItem{ID: "kid-1", Kind: planning.KindDemand, Name: "Mid-Name", StartDate: d("2025-09-01")}); err != nil {
		t.Fatal(err)
	}
	if err := snap.SetDataItem("leaf", &planning.DataItem{ID: "kid-1", Kind: planning.KindDemand, Name: "Leaf-Name", StartDate: d("2025-09-01")}); err != nil {
		t.Fatal(err)
	}
	if got := effectiveName(t, snap, "leaf"); got != "Leaf-Name" {
		t.Errorf("expected Leaf-Name, got %q", got)
	}
	if got := effectiveName(t, snap, "mid"); got != "Mid-Name" {
		t.Errorf("expected Mid-Name, got %q", got)
	}
}

func TestEffectiveDataItems_UnionsKeysAcrossLevels(t *testing.T) {
	// GIVEN: kid-1 in the root base, kid-2 only in mid's overlay
	// WHEN: Listing items from leaf
	// THEN: Both are visible

	snap := overlaySnapshot()
	if err := snap.SetDataItem("mid", &planning.DataItem{ID: "kid-2", Kind: planning.KindDemand, Name: "Ben", StartDate: d("2026-01-01")}); err != nil {
		t.Fatal(err)
	}
	items := planning.NewResolver(snap).EffectiveDataItems("leaf")
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items["kid-2"].Name != "Ben" {
		t.Errorf("expected Ben, got %q", items["kid-2"].Name)
	}
}

// =============================================================================
// COLLAPSE-TO-BASE TESTS
// =============================================================================

func TestSetDataItem_CollapsesBackToBase(t *testing.T) {
	// GIVEN: An overlay created by renaming kid-1 in mid
	// WHEN: Writing the original value again
	// THEN: The overlay entry disappears entirely

	snap := overlaySnapshot()
	if err := snap.SetDataItem("mid", &planning.DataItem{ID: "kid-1", Kind: planning.KindDemand, Name: "Temporär", StartDate: d("2025-09-01")}); err != nil {
		t.Fatal(err)
	}
	if snap.Overlays["mid"] == nil {
		t.Fatal("expected overlay after divergent edit")
	}

	if err := snap.SetDataItem("mid", &planning.DataItem{ID: "kid-1", Kind: planning.KindDemand, Name: "Anna", StartDate: d("2025-09-01")}); err != nil {
		t.Fatal(err)
	}
	if snap.Overlays["mid"] != nil {
		t.Error("overlay must collapse away when the value matches the base again")
	}
}

func TestCompareKeys_ExtraKeysInCurrentIgnored(t *testing.T) {
	// Structural match checks every key of the original; keys only in the
	// current value do not count as divergence.
	original := map[string]any{"name": "Anna", "stage": 1}
	current := map[string]any{"name": "Anna", "stage": 1, "note": "neu"}
	if !planning.CompareKeys(original, current) {
		t.Error("extra keys in current must be ignored")
	}
	if planning.CompareKeys(current, original) {
		t.Error("missing keys of the original must count as divergence")
	}
}

func TestSetBooking_ValidatesBeforeWrite(t *testing.T) {
	snap := overlaySnapshot()
	bad := weekBooking(day(planning.Monday, seg("08:00", "12:00"), seg("10:00", "14:00")))
	bad.ItemID = "kid-1"
	if err := snap.SetBooking("mid", bad); err == nil {
		t.Error("overlapping segments must be rejected on write")
	}
	if snap.Overlays["mid"] != nil {
		t.Error("rejected write must not leave an overlay behind")
	}
}

// =============================================================================
// RESTORABILITY TESTS
// =============================================================================

func TestIsRestorable_OverlayAnywhereInChain(t *testing.T) {
	snap := overlaySnapshot()
	if snap.IsRestorable("leaf", "kid-1") {
		t.Error("untouched item must not be restorable")
	}
	if err := snap.SetDataItem("mid", &planning.DataItem{ID: "kid-1", Kind: planning.KindDemand, Name: "Geändert", StartDate: d("2025-09-01")}); err != nil {
		t.Fatal(err)
	}
	if !snap.IsRestorable("leaf", "kid-1") {
		t.Error("an overlay at any chain level makes the item restorable")
	}
}

func TestIsRestorable_RootDivergedFromImport(t *testing.T) {
	// GIVEN: kid-1 edited in place on the root scenario
	// WHEN: Checking restorability on the root
	// THEN: Divergence from the import snapshot makes it restorable

	snap := overlaySnapshot()
	if err := snap.SetDataItem("root", &planning.DataItem{ID: "kid-1", Kind: planning.KindDemand, Name: "Umbenannt", StartDate: d("2025-09-01")}); err != nil {
		t.Fatal(err)
	}
	if !snap.IsRestorable("root", "kid-1") {
		t.Error("root item diverged from its import snapshot must be restorable")
	}
}

// =============================================================================
// RESTORE TESTS
// =============================================================================

func TestRestore_PeelsNearestOverlayFirst(t *testing.T) {
	// GIVEN: Overlays for kid-1 on leaf and mid
	// WHEN: Restoring twice from leaf
	// THEN: The first restore peels leaf's overlay, the second mid's

	snap := overlaySnapshot()
	if err := snap.SetDataItem("mid", &planning.DataItem{ID: "kid-1", Kind: planning.KindDemand, Name: "Mid-Name", StartDate: d("2025-09-01")}); err != nil {
		t.Fatal(err)
	}
	if err := snap.SetDataItem("leaf", &planning.DataItem{ID: "kid-1", Kind: planning.KindDemand, Name: "Leaf-Name", StartDate: d("2025-09-01")}); err != nil {
		t.Fatal(err)
	}

	if err := snap.Restore("leaf", "kid-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := effectiveName(t, snap, "leaf"); got != "Mid-Name" {
		t.Errorf("after first restore: expected Mid-Name, got %q", got)
	}

	if err := snap.Restore("leaf", "kid-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := effectiveName(t, snap, "leaf"); got != "Anna" {
		t.Errorf("after second restore: expected Anna, got %q", got)
	}
}

func TestRestore_CascadesToBookings(t *testing.T) {
	// GIVEN: An overlay booking for kid-1 in mid
	// WHEN: Restoring kid-1 in mid
	// THEN: The booking overlay goes away with the item

	snap := overlaySnapshot()
	changed := weekBooking(day(planning.Monday, seg("07:00", "17:00")))
	changed.ItemID = "kid-1"
	if err := snap.SetBooking("mid", changed); err != nil {
		t.Fatal(err)
	}

	if err := snap.Restore("mid", "kid-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bookings := planning.NewResolver(snap).EffectiveBookings("mid", "kid-1")
	b, ok := bookings["b-1"]
	if !ok {
		t.Fatal("base booking must survive the restore")
	}
	if planning.SumHours(b) != 6 {
		t.Errorf("expected the base 6h booking back, got %v hours", planning.SumHours(b))
	}
	if snap.Overlays["mid"] != nil {
		t.Error("overlay must be gone after restore")
	}
}

func TestRestore_RootResetsFromImportSnapshot(t *testing.T) {
	// GIVEN: kid-1 renamed in place on the root
	// WHEN: Restoring on the root
	// THEN: The import snapshot comes back and stays restorable-neutral

	snap := overlaySnapshot()
	if err := snap.SetDataItem("root", &planning.DataItem{ID: "kid-1", Kind: planning.KindDemand, Name: "Umbenannt", StartDate: d("2025-09-01")}); err != nil {
		t.Fatal(err)
	}
	if err := snap.Restore("root", "kid-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := effectiveName(t, snap, "root"); got != "Anna" {
		t.Errorf("expected Anna after restore, got %q", got)
	}
	if snap.IsRestorable("root", "kid-1") {
		t.Error("restored root item must no longer be restorable")
	}
}
