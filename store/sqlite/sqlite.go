/*
Package sqlite provides the SQLite-backed planning.Repository.

PURPOSE:
  Persists the scenario tree and the per-scenario entity layers. Every
  entity class shares one layer-tagged table: the base layer holds a
  root scenario's native data, the overlay layer a derived scenario's
  sparse edit set. Payloads are stored as JSON documents; the schema
  only carries the keys resolution needs.

KEY TABLES:
  scenarios: tree rows with planning metadata
  entities:  (scenario, layer, kind, item, entity) -> JSON payload

CONCURRENCY:
  Uses sync.RWMutex for thread-safety; SQLite runs in WAL mode so
  readers do not block each other.

MIGRATION:
  Schema is auto-migrated on New(). For production scale, a versioned
  migration tool would replace this.

SEE ALSO:
  - planning/store.go: Interface definition
  - planning/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/marten-lucas/capakita-sub001/planning"
)

const (
	layerBase    = "base"
	layerOverlay = "overlay"
)

const (
	kindDataItem         = "data_item"
	kindBooking          = "booking"
	kindGroupAssignment  = "group_assignment"
	kindQualification    = "qualification"
	kindFinancial        = "financial"
	kindFinancialDef     = "financial_def"
	kindGroupDef         = "group_def"
	kindQualificationDef = "qualification_def"
)

// Store implements planning.Repository using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ planning.Repository = (*Store)(nil)

// New opens (or creates) the database at path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scenarios (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		base_scenario_id TEXT,
		confidence INTEGER NOT NULL DEFAULT 0,
		likelihood INTEGER NOT NULL DEFAULT 0,
		desirability INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS entities (
		scenario_id TEXT NOT NULL,
		layer TEXT NOT NULL CHECK (layer IN ('base', 'overlay')),
		kind TEXT NOT NULL,
		item_id TEXT NOT NULL DEFAULT '',
		entity_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		PRIMARY KEY (scenario_id, layer, kind, item_id, entity_id)
	);

	CREATE INDEX IF NOT EXISTS idx_entities_scenario_layer
		ON entities(scenario_id, layer);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PAYLOAD ENVELOPES - carry snapshot fields the JSON tags exclude
// =============================================================================

type dataItemRow struct {
	Item     *planning.DataItem `json:"item"`
	Original *planning.DataItem `json:"original,omitempty"`
	Raw      map[string]string  `json:"raw,omitempty"`
}

type bookingRow struct {
	Booking  *planning.Booking `json:"booking"`
	Original *planning.Booking `json:"original,omitempty"`
}

type groupAssignmentRow struct {
	Assignment *planning.GroupAssignment `json:"assignment"`
	Original   *planning.GroupAssignment `json:"original,omitempty"`
}

// =============================================================================
// REPOSITORY IMPLEMENTATION
// =============================================================================

func (s *Store) LoadSnapshot(ctx context.Context) (*planning.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := planning.NewSnapshot()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, base_scenario_id, confidence, likelihood, desirability FROM scenarios`)
	if err != nil {
		return nil, fmt.Errorf("load scenarios: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sc planning.Scenario
		var base sql.NullString
		if err := rows.Scan(&sc.ID, &sc.Name, &base, &sc.Confidence, &sc.Likelihood, &sc.Desirability); err != nil {
			return nil, fmt.Errorf("scan scenario: %w", err)
		}
		if base.Valid && base.String != "" {
			id := planning.ScenarioID(base.String)
			sc.BaseScenarioID = &id
		}
		snap.Scenarios[sc.ID] = &sc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	entRows, err := s.db.QueryContext(ctx,
		`SELECT scenario_id, layer, kind, item_id, entity_id, payload FROM entities`)
	if err != nil {
		return nil, fmt.Errorf("load entities: %w", err)
	}
	defer entRows.Close()
	for entRows.Next() {
		var scenarioID, layer, kind, itemID, entityID, payload string
		if err := entRows.Scan(&scenarioID, &layer, &kind, &itemID, &entityID, &payload); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		set := layerSet(snap, planning.ScenarioID(scenarioID), layer)
		if err := decodeEntity(set, kind, planning.ItemID(itemID), []byte(payload)); err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", kind, entityID, err)
		}
	}
	if err := entRows.Err(); err != nil {
		return nil, err
	}
	return snap, nil
}

func layerSet(snap *planning.Snapshot, sc planning.ScenarioID, layer string) *planning.EntitySet {
	m := snap.Base
	if layer == layerOverlay {
		m = snap.Overlays
	}
	if m[sc] == nil {
		m[sc] = planning.NewEntitySet()
	}
	return m[sc]
}

func decodeEntity(set *planning.EntitySet, kind string, itemID planning.ItemID, payload []byte) error {
	switch kind {
	case kindDataItem:
		var row dataItemRow
		if err := json.Unmarshal(payload, &row); err != nil {
			return err
		}
		row.Item.Original = row.Original
		row.Item.Raw = row.Raw
		set.DataItems[row.Item.ID] = row.Item
	case kindBooking:
		var row bookingRow
		if err := json.Unmarshal(payload, &row); err != nil {
			return err
		}
		row.Booking.Original = row.Original
		if set.Bookings[itemID] == nil {
			set.Bookings[itemID] = make(map[planning.BookingID]*planning.Booking)
		}
		set.Bookings[itemID][row.Booking.ID] = row.Booking
	case kindGroupAssignment:
		var row groupAssignmentRow
		if err := json.Unmarshal(payload, &row); err != nil {
			return err
		}
		row.Assignment.Original = row.Original
		if set.GroupAssignments[itemID] == nil {
			set.GroupAssignments[itemID] = make(map[string]*planning.GroupAssignment)
		}
		set.GroupAssignments[itemID][row.Assignment.ID] = row.Assignment
	case kindQualification:
		var q planning.QualificationAssignment
		if err := json.Unmarshal(payload, &q); err != nil {
			return err
		}
		set.Qualifications[itemID] = &q
	case kindFinancial:
		var f planning.Financial
		if err := json.Unmarshal(payload, &f); err != nil {
			return err
		}
		if set.Financials[itemID] == nil {
			set.Financials[itemID] = make(map[planning.FinancialID]*planning.Financial)
		}
		set.Financials[itemID][f.ID] = &f
	case kindFinancialDef:
		var fd planning.FinancialDef
		if err := json.Unmarshal(payload, &fd); err != nil {
			return err
		}
		set.FinancialDefs[fd.ID] = &fd
	case kindGroupDef:
		var g planning.GroupDef
		if err := json.Unmarshal(payload, &g); err != nil {
			return err
		}
		set.GroupDefs[g.ID] = &g
	case kindQualificationDef:
		var q planning.QualificationDef
		if err := json.Unmarshal(payload, &q); err != nil {
			return err
		}
		set.QualificationDef[q.Key] = &q
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}
	return nil
}

func (s *Store) SaveScenario(ctx context.Context, sc *planning.Scenario) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var base any
	if sc.BaseScenarioID != nil {
		base = string(*sc.BaseScenarioID)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scenarios (id, name, base_scenario_id, confidence, likelihood, desirability)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			base_scenario_id = excluded.base_scenario_id,
			confidence = excluded.confidence,
			likelihood = excluded.likelihood,
			desirability = excluded.desirability`,
		sc.ID, sc.Name, base, sc.Confidence, sc.Likelihood, sc.Desirability)
	if err != nil {
		return fmt.Errorf("save scenario: %w", err)
	}
	return nil
}

func (s *Store) DeleteScenario(ctx context.Context, id planning.ScenarioID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM scenarios WHERE id = ?`, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM entities WHERE scenario_id = ?`, id)
		return err
	})
}

func (s *Store) SaveBase(ctx context.Context, id planning.ScenarioID, set *planning.EntitySet) error {
	return s.saveLayer(ctx, id, layerBase, set)
}

func (s *Store) SaveOverlay(ctx context.Context, id planning.ScenarioID, set *planning.EntitySet) error {
	return s.saveLayer(ctx, id, layerOverlay, set)
}

// saveLayer replaces one layer of a scenario atomically.
func (s *Store) saveLayer(ctx context.Context, id planning.ScenarioID, layer string, set *planning.EntitySet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM entities WHERE scenario_id = ? AND layer = ?`, id, layer); err != nil {
			return err
		}
		if set.Empty() {
			return nil
		}

		insert := func(kind string, itemID planning.ItemID, entityID string, payload any) error {
			raw, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("encode %s %s: %w", kind, entityID, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO entities (scenario_id, layer, kind, item_id, entity_id, payload)
				VALUES (?, ?, ?, ?, ?, ?)`,
				id, layer, kind, itemID, entityID, string(raw))
			return err
		}

		for itemID, item := range set.DataItems {
			row := dataItemRow{Item: item, Original: item.Original, Raw: item.Raw}
			if err := insert(kindDataItem, itemID, string(itemID), row); err != nil {
				return err
			}
		}
		for itemID, bookings := range set.Bookings {
			for bid, b := range bookings {
				row := bookingRow{Booking: b, Original: b.Original}
				if err := insert(kindBooking, itemID, string(bid), row); err != nil {
					return err
				}
			}
		}
		for itemID, assignments := range set.GroupAssignments {
			for gid, g := range assignments {
				row := groupAssignmentRow{Assignment: g, Original: g.Original}
				if err := insert(kindGroupAssignment, itemID, gid, row); err != nil {
					return err
				}
			}
		}
		for itemID, q := range set.Qualifications {
			if err := insert(kindQualification, itemID, q.ID, q); err != nil {
				return err
			}
		}
		for itemID, financials := range set.Financials {
			for fid, f := range financials {
				if err := insert(kindFinancial, itemID, string(fid), f); err != nil {
					return err
				}
			}
		}
		for defID, fd := range set.FinancialDefs {
			if err := insert(kindFinancialDef, "", defID, fd); err != nil {
				return err
			}
		}
		for gid, g := range set.GroupDefs {
			if err := insert(kindGroupDef, "", string(gid), g); err != nil {
				return err
			}
		}
		for key, q := range set.QualificationDef {
			if err := insert(kindQualificationDef, "", key, q); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM entities`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM scenarios`)
		return err
	})
}

func (s *Store) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
