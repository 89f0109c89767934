/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/marten-lucas/capakita-sub001/importer"
	"github.com/marten-lucas/capakita-sub001/planning"
)

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a scenario in API responses.
type ScenarioDTO struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	BaseScenarioID *string `json:"base_scenario_id,omitempty"`
	Confidence     int     `json:"confidence"`
	Likelihood     int     `json:"likelihood"`
	Desirability   int     `json:"desirability"`
	IsRoot         bool    `json:"is_root"`
	HasOverlay     bool    `json:"has_overlay"`
}

// CreateScenarioRequest creates a root or derived scenario.
type CreateScenarioRequest struct {
	Name           string  `json:"name"`
	BaseScenarioID *string `json:"base_scenario_id,omitempty"`
	Confidence     int     `json:"confidence"`
	Likelihood     int     `json:"likelihood"`
	Desirability   int     `json:"desirability"`
}

// UpdateScenarioRequest updates scenario metadata.
type UpdateScenarioRequest struct {
	Name         *string `json:"name,omitempty"`
	Confidence   *int    `json:"confidence,omitempty"`
	Likelihood   *int    `json:"likelihood,omitempty"`
	Desirability *int    `json:"desirability,omitempty"`
}

// RebaseRequest moves a derived scenario onto a new base.
type RebaseRequest struct {
	NewBaseID *string `json:"new_base_id"`
}

// =============================================================================
// DATA ITEMS AND SUB-ENTITIES
// =============================================================================

// DataItemDTO is a resolved data item with its derived flags.
type DataItemDTO struct {
	*planning.DataItem
	Restorable bool   `json:"restorable"`
	Summary    string `json:"booking_summary,omitempty"`
}

// BookingDTO carries a booking and its readable weekly summary.
type BookingDTO struct {
	*planning.Booking
	Summary string `json:"summary"`
}

// =============================================================================
// IMPORT AND DEMOS
// =============================================================================

// ImportRequest loads a decoded export archive into a new root scenario.
type ImportRequest struct {
	ScenarioName string           `json:"scenario_name"`
	Archive      importer.Archive `json:"archive"`
}

// ImportResponse reports the created scenario and import statistics.
type ImportResponse struct {
	ScenarioID string          `json:"scenario_id"`
	Result     importer.Result `json:"result"`
}

// DemoDTO describes one loadable demo data set.
type DemoDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadDemoRequest selects the demo scenario to load.
type LoadDemoRequest struct {
	Name string `json:"name"`
}

// =============================================================================
// HELPERS
// =============================================================================

func toScenarioDTO(sc *planning.Scenario, hasOverlay bool) ScenarioDTO {
	dto := ScenarioDTO{
		ID:           string(sc.ID),
		Name:         sc.Name,
		Confidence:   sc.Confidence,
		Likelihood:   sc.Likelihood,
		Desirability: sc.Desirability,
		IsRoot:       sc.IsRoot(),
		HasOverlay:   hasOverlay,
	}
	if sc.BaseScenarioID != nil {
		s := string(*sc.BaseScenarioID)
		dto.BaseScenarioID = &s
	}
	return dto
}
