/*
memory.go - In-memory Repository implementation

PURPOSE:
  Reference implementation of planning.Repository backed by maps. Used
  in tests and for running the server without a database file. Guarded
  by a RWMutex; every read hands out deep copies so callers can mutate
  their snapshot freely.
*/
package store

import (
	"context"
	"sync"

	"github.com/marten-lucas/capakita-sub001/planning"
)

// Memory is a thread-safe in-memory Repository.
type Memory struct {
	mu        sync.RWMutex
	scenarios map[planning.ScenarioID]*planning.Scenario
	base      map[planning.ScenarioID]*planning.EntitySet
	overlays  map[planning.ScenarioID]*planning.EntitySet
}

func NewMemory() *Memory {
	return &Memory{
		scenarios: make(map[planning.ScenarioID]*planning.Scenario),
		base:      make(map[planning.ScenarioID]*planning.EntitySet),
		overlays:  make(map[planning.ScenarioID]*planning.EntitySet),
	}
}

var _ planning.Repository = (*Memory)(nil)

func (m *Memory) LoadSnapshot(ctx context.Context) (*planning.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := planning.NewSnapshot()
	for id, sc := range m.scenarios {
		cp := *sc
		snap.Scenarios[id] = &cp
	}
	for id, set := range m.base {
		snap.Base[id] = set.Clone()
	}
	for id, set := range m.overlays {
		snap.Overlays[id] = set.Clone()
	}
	return snap, nil
}

func (m *Memory) SaveScenario(ctx context.Context, sc *planning.Scenario) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sc
	m.scenarios[sc.ID] = &cp
	return nil
}

func (m *Memory) DeleteScenario(ctx context.Context, id planning.ScenarioID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scenarios, id)
	delete(m.base, id)
	delete(m.overlays, id)
	return nil
}

func (m *Memory) SaveBase(ctx context.Context, id planning.ScenarioID, set *planning.EntitySet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set.Empty() {
		delete(m.base, id)
		return nil
	}
	m.base[id] = set.Clone()
	return nil
}

func (m *Memory) SaveOverlay(ctx context.Context, id planning.ScenarioID, set *planning.EntitySet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if set.Empty() {
		delete(m.overlays, id)
		return nil
	}
	m.overlays[id] = set.Clone()
	return nil
}

func (m *Memory) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios = make(map[planning.ScenarioID]*planning.Scenario)
	m.base = make(map[planning.ScenarioID]*planning.EntitySet)
	m.overlays = make(map[planning.ScenarioID]*planning.EntitySet)
	return nil
}
