/*
scenario.go - Scenario tree navigation and base reassignment

PURPOSE:
  Scenarios form a tree via BaseScenarioID. Resolution walks a scenario's
  ancestor chain (self -> base -> ... -> root); editing walks descendants
  to keep the tree acyclic. The invariant that a scenario is never its own
  ancestor is enforced both at the edit boundary (SelectableBases, Rebase)
  and defensively inside the chain walk (visited set), since UI-level
  prevention is not a structural guarantee.
*/
package planning

import "fmt"

// =============================================================================
// CHAIN WALK - self to root
// =============================================================================

// Chain returns the ancestor chain of a scenario, most-derived first,
// ending at the root. A visited set guards against cycles that slipped
// past the edit boundary.
func (s *Snapshot) Chain(id ScenarioID) ([]ScenarioID, error) {
	var chain []ScenarioID
	visited := make(map[ScenarioID]bool)
	current := id
	for {
		sc, ok := s.Scenarios[current]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrScenarioNotFound, current)
		}
		if visited[current] {
			return nil, fmt.Errorf("%w: chain through %s revisits %s", ErrCyclicBase, id, current)
		}
		visited[current] = true
		chain = append(chain, current)
		if sc.BaseScenarioID == nil {
			return chain, nil
		}
		current = *sc.BaseScenarioID
	}
}

// Root returns the root scenario of the chain containing id.
func (s *Snapshot) Root(id ScenarioID) (ScenarioID, error) {
	chain, err := s.Chain(id)
	if err != nil {
		return "", err
	}
	return chain[len(chain)-1], nil
}

// =============================================================================
// TREE EDITS
// =============================================================================

// Descendants returns every scenario that directly or transitively derives
// from id.
func (s *Snapshot) Descendants(id ScenarioID) []ScenarioID {
	children := make(map[ScenarioID][]ScenarioID, len(s.Scenarios))
	for _, sc := range s.Scenarios {
		if sc.BaseScenarioID != nil {
			children[*sc.BaseScenarioID] = append(children[*sc.BaseScenarioID], sc.ID)
		}
	}
	var out []ScenarioID
	queue := []ScenarioID{id}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, child := range children[next] {
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

// SelectableBases lists the scenarios a given scenario may be rebased onto:
// everything except itself and its own descendants. This is how the edit
// boundary keeps the tree acyclic.
func (s *Snapshot) SelectableBases(id ScenarioID) []ScenarioID {
	excluded := map[ScenarioID]bool{id: true}
	for _, d := range s.Descendants(id) {
		excluded[d] = true
	}
	var out []ScenarioID
	for sid := range s.Scenarios {
		if !excluded[sid] {
			out = append(out, sid)
		}
	}
	return out
}

// Rebase reassigns a scenario's base. A nil newBase turns it into a root.
// The target must be selectable; anything else would create a cycle.
func (s *Snapshot) Rebase(id ScenarioID, newBase *ScenarioID) error {
	sc, ok := s.Scenarios[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrScenarioNotFound, id)
	}
	if newBase == nil {
		sc.BaseScenarioID = nil
		return nil
	}
	if _, ok := s.Scenarios[*newBase]; !ok {
		return fmt.Errorf("%w: base %s", ErrScenarioNotFound, *newBase)
	}
	if *newBase == id {
		return fmt.Errorf("%w: %s cannot base itself", ErrCyclicBase, id)
	}
	for _, d := range s.Descendants(id) {
		if d == *newBase {
			return fmt.Errorf("%w: %s is a descendant of %s", ErrCyclicBase, *newBase, id)
		}
	}
	sc.BaseScenarioID = newBase
	return nil
}
