package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marten-lucas/capakita-sub001/planning"
	"github.com/marten-lucas/capakita-sub001/planning/store"
)

func seedSet(name string) *planning.EntitySet {
	set := planning.NewEntitySet()
	set.DataItems["kid-1"] = &planning.DataItem{
		ID: "kid-1", Kind: planning.KindDemand, Name: name, StartDate: planning.MustDate("2025-09-01"),
	}
	return set
}

func TestMemory_RoundTrip(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()

	require.NoError(t, m.SaveScenario(ctx, &planning.Scenario{ID: "root", Name: "Ist-Stand"}))
	require.NoError(t, m.SaveBase(ctx, "root", seedSet("Anna")))

	snap, err := m.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Contains(t, snap.Scenarios, planning.ScenarioID("root"))
	require.NotNil(t, snap.Base["root"])
	assert.Equal(t, "Anna", snap.Base["root"].DataItems["kid-1"].Name)
}

func TestMemory_LoadedSnapshotIsIsolated(t *testing.T) {
	// GIVEN: A stored base layer
	// WHEN: Mutating a loaded snapshot
	// THEN: A second load still sees the stored state

	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.SaveScenario(ctx, &planning.Scenario{ID: "root", Name: "Ist-Stand"}))
	require.NoError(t, m.SaveBase(ctx, "root", seedSet("Anna")))

	first, err := m.LoadSnapshot(ctx)
	require.NoError(t, err)
	first.Base["root"].DataItems["kid-1"].Name = "Geändert"

	second, err := m.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Anna", second.Base["root"].DataItems["kid-1"].Name)
}

func TestMemory_EmptySetClearsLayer(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.SaveScenario(ctx, &planning.Scenario{ID: "root", Name: "Ist-Stand"}))
	require.NoError(t, m.SaveOverlay(ctx, "root", seedSet("Anna")))
	require.NoError(t, m.SaveOverlay(ctx, "root", planning.NewEntitySet()))

	snap, err := m.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap.Overlays["root"], "saving an empty set removes the layer")
}

func TestMemory_DeleteScenarioDropsLayers(t *testing.T) {
	m := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, m.SaveScenario(ctx, &planning.Scenario{ID: "root", Name: "Ist-Stand"}))
	require.NoError(t, m.SaveBase(ctx, "root", seedSet("Anna")))
	require.NoError(t, m.DeleteScenario(ctx, "root"))

	snap, err := m.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap.Scenarios)
	assert.Nil(t, snap.Base["root"])
}
