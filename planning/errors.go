/*
errors.go - Centralized error types for the planning core

PURPOSE:
  All sentinel errors in one place. The core follows a defensive-default
  philosophy: missing or malformed inputs inside calculators resolve to
  neutral values (zero amount, empty slice, factor 1.0) rather than
  erroring. Errors here are reserved for structural violations the caller
  must handle - unknown scenarios, cyclic base chains, invalid writes.

USAGE:
  if errors.Is(err, planning.ErrCyclicBase) { ... }
*/
package planning

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrScenarioNotFound is returned when a scenario id does not resolve.
	ErrScenarioNotFound = errors.New("scenario not found")

	// ErrCyclicBase is returned when a base reassignment would make a
	// scenario its own ancestor, or when a chain walk detects a cycle.
	ErrCyclicBase = errors.New("cyclic scenario base assignment")

	// ErrNotDerived is returned when an overlay operation targets a root
	// scenario, which stores native data instead of overlays.
	ErrNotDerived = errors.New("scenario is not derived from a base")

	// ErrSegmentOverlap is returned when booking segments within a single
	// day overlap.
	ErrSegmentOverlap = errors.New("booking segments overlap within a day")

	// ErrUnknownFinancialType is returned when decoding a financial record
	// of a type outside the closed detail union.
	ErrUnknownFinancialType = errors.New("unknown financial type")

	// ErrItemNotFound is returned when an entity edit references a data
	// item that does not resolve in the scenario chain.
	ErrItemNotFound = errors.New("data item not found")
)
