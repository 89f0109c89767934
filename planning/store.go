/*
store.go - Persistence interface for scenarios and entity sets

PURPOSE:
  Defines the interface between the planning engine and the database.
  The engine itself is pure and works over an in-memory Snapshot; a
  Repository loads the snapshot at startup and persists scenario and
  entity-set changes back. Different implementations can use SQLite or
  in-memory storage.

STORAGE SHAPE:
  Per scenario two layers exist: the base layer (native data of a root
  scenario, captured at import) and the overlay layer (the sparse edit
  set of a derived scenario). Both layers share the EntitySet shape, so
  the repository persists one layer-tagged entity table rather than one
  table per entity class.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - planning/store/memory.go: In-memory for testing

SEE ALSO:
  - overlay.go: Resolution semantics over the loaded Snapshot
*/
package planning

import "context"

// Repository persists scenarios and their base/overlay entity layers.
type Repository interface {
	// LoadSnapshot reads the full persisted state into memory.
	LoadSnapshot(ctx context.Context) (*Snapshot, error)

	// SaveScenario inserts or updates one scenario row.
	SaveScenario(ctx context.Context, sc *Scenario) error

	// DeleteScenario removes a scenario and both of its entity layers.
	DeleteScenario(ctx context.Context, id ScenarioID) error

	// SaveBase replaces the base entity layer of a scenario.
	SaveBase(ctx context.Context, id ScenarioID, set *EntitySet) error

	// SaveOverlay replaces the overlay entity layer of a scenario.
	// A nil or empty set clears the layer.
	SaveOverlay(ctx context.Context, id ScenarioID, set *EntitySet) error

	// Reset drops all persisted state.
	Reset(ctx context.Context) error
}
