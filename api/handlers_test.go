/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Scenario creation and deletion rules
- Overlay writes and restore through the HTTP layer
- Booking validation errors surfacing as 400
- Rebase conflict mapping to 409
*/
package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/marten-lucas/capakita-sub001/planning"
	"github.com/marten-lucas/capakita-sub001/planning/store"
)

// newTestServer builds a handler over the in-memory repository with a root
// scenario "root" (one child with a Monday booking) and a derived scenario
// "derived" on top of it.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	snap := planning.NewSnapshot()
	rootID := planning.ScenarioID("root")
	snap.Scenarios[rootID] = &planning.Scenario{ID: rootID, Name: "Ist-Stand"}
	snap.Scenarios["derived"] = &planning.Scenario{ID: "derived", Name: "Was waere wenn", BaseScenarioID: &rootID}

	set := planning.NewEntitySet()
	item := &planning.DataItem{
		ID:        "kid-1",
		Kind:      planning.KindDemand,
		Name:      "Anna",
		StartDate: planning.MustDate("2025-09-01"),
	}
	itemOrig := *item
	item.Original = &itemOrig
	set.DataItems[item.ID] = item

	booking := &planning.Booking{
		ID:        "b-1",
		ItemID:    "kid-1",
		StartDate: planning.MustDate("2025-09-01"),
		Times: []planning.DayTimes{{
			Day: planning.Monday,
			Segments: []planning.Segment{{
				Start: planning.MustTimeOfDay("08:00"),
				End:   planning.MustTimeOfDay("14:00"),
			}},
		}},
	}
	bookingOrig := *booking
	booking.Original = &bookingOrig
	set.Bookings["kid-1"] = map[planning.BookingID]*planning.Booking{booking.ID: booking}
	snap.Base[rootID] = set

	h := NewHandler(store.NewMemory(), snap, nil, nil, zerolog.Nop())
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)
	return srv
}

// doJSON performs one request against the test server and returns the HTTP
// status plus the raw response body.
func doJSON(t *testing.T, srv *httptest.Server, method, path string, body string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	return resp.StatusCode, data
}

func decode(t *testing.T, data []byte, into any) {
	t.Helper()
	if err := json.Unmarshal(data, into); err != nil {
		t.Fatalf("Failed to decode response %s: %v", data, err)
	}
}

func TestCreateScenario_Root(t *testing.T) {
	// GIVEN: A running server
	srv := newTestServer(t)

	// WHEN: Creating a scenario without a base
	status, body := doJSON(t, srv, http.MethodPost, "/api/scenarios",
		`{"name":"Neues Szenario","confidence":80}`)

	// THEN: It is created as a root scenario
	if status != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", status, body)
	}
	var dto ScenarioDTO
	decode(t, body, &dto)
	if dto.ID == "" {
		t.Error("Expected a generated scenario id")
	}
	if !dto.IsRoot {
		t.Error("Scenario without base should be a root")
	}
	if dto.Confidence != 80 {
		t.Errorf("Expected confidence 80, got %d", dto.Confidence)
	}
}

func TestCreateScenario_RequiresName(t *testing.T) {
	srv := newTestServer(t)

	status, body := doJSON(t, srv, http.MethodPost, "/api/scenarios", `{"confidence":50}`)
	if status != http.StatusBadRequest {
		t.Fatalf("Expected 400 for missing name, got %d: %s", status, body)
	}
}

func TestCreateScenario_UnknownBase(t *testing.T) {
	srv := newTestServer(t)

	status, body := doJSON(t, srv, http.MethodPost, "/api/scenarios",
		`{"name":"Variante","base_scenario_id":"missing"}`)
	if status != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown base, got %d: %s", status, body)
	}
}

func TestDeleteScenario_DescendantsBlock(t *testing.T) {
	// GIVEN: "root" has the derived scenario "derived"
	srv := newTestServer(t)

	// WHEN: Deleting the root first
	status, body := doJSON(t, srv, http.MethodDelete, "/api/scenarios/root", "")

	// THEN: The delete is rejected with a conflict
	if status != http.StatusConflict {
		t.Fatalf("Expected 409 while descendants exist, got %d: %s", status, body)
	}

	// WHEN: Deleting leaf first, then the root
	if status, body = doJSON(t, srv, http.MethodDelete, "/api/scenarios/derived", ""); status != http.StatusOK {
		t.Fatalf("Expected 200 deleting leaf, got %d: %s", status, body)
	}
	if status, body = doJSON(t, srv, http.MethodDelete, "/api/scenarios/root", ""); status != http.StatusOK {
		t.Fatalf("Expected 200 deleting root after leaf, got %d: %s", status, body)
	}
}

func TestRebase_DescendantRejected(t *testing.T) {
	srv := newTestServer(t)

	// Moving the root onto its own descendant would close a cycle.
	status, body := doJSON(t, srv, http.MethodPost, "/api/scenarios/root/rebase",
		`{"new_base_id":"derived"}`)
	if status != http.StatusConflict {
		t.Fatalf("Expected 409 for cyclic rebase, got %d: %s", status, body)
	}
}

func TestPutItem_OverlayAndRestore(t *testing.T) {
	// GIVEN: The child "Anna" lives in the root base
	srv := newTestServer(t)

	// WHEN: Renaming her in the derived scenario
	status, body := doJSON(t, srv, http.MethodPut, "/api/scenarios/derived/items/kid-1",
		`{"kind":"demand","name":"Anna Neu","startdate":"2025-09-01"}`)

	// THEN: The item becomes restorable and the root stays untouched
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, body)
	}
	var dto DataItemDTO
	decode(t, body, &dto)
	if dto.Name != "Anna Neu" {
		t.Errorf("Expected overlay name, got %q", dto.Name)
	}
	if !dto.Restorable {
		t.Error("Overlayed item should be restorable")
	}

	status, body = doJSON(t, srv, http.MethodGet, "/api/scenarios/root/items", "")
	if status != http.StatusOK {
		t.Fatalf("Expected 200 listing root items, got %d: %s", status, body)
	}
	var rootItems []DataItemDTO
	decode(t, body, &rootItems)
	if len(rootItems) != 1 || rootItems[0].Name != "Anna" {
		t.Errorf("Root scenario should still see the base item, got %+v", rootItems)
	}

	// WHEN: Restoring the item in the derived scenario
	status, body = doJSON(t, srv, http.MethodPost, "/api/scenarios/derived/items/kid-1/restore", "")

	// THEN: The overlay is gone and resolution falls through to the base
	if status != http.StatusOK {
		t.Fatalf("Expected 200 restoring, got %d: %s", status, body)
	}
	decode(t, body, &dto)
	if dto.Name != "Anna" {
		t.Errorf("Expected base name after restore, got %q", dto.Name)
	}
	if dto.Restorable {
		t.Error("Item should not be restorable after restore")
	}
}

func TestPutItem_UnknownScenario(t *testing.T) {
	srv := newTestServer(t)

	status, body := doJSON(t, srv, http.MethodPut, "/api/scenarios/missing/items/kid-1",
		`{"kind":"demand","name":"Anna","startdate":"2025-09-01"}`)
	if status != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown scenario, got %d: %s", status, body)
	}
}

func TestPutBooking_OverlapRejected(t *testing.T) {
	// GIVEN: A booking payload with overlapping Monday segments
	srv := newTestServer(t)

	overlap := `{
		"startdate": "2025-09-01",
		"times": [{
			"day_name": "Mo",
			"segments": [
				{"booking_start": "08:00", "booking_end": "12:00"},
				{"booking_start": "11:00", "booking_end": "14:00"}
			]
		}]
	}`

	// WHEN: Writing it through the API
	status, body := doJSON(t, srv, http.MethodPut,
		"/api/scenarios/derived/items/kid-1/bookings/b-1", overlap)

	// THEN: Validation rejects the write
	if status != http.StatusBadRequest {
		t.Fatalf("Expected 400 for overlapping segments, got %d: %s", status, body)
	}
}

func TestPutBooking_UpdatesSummary(t *testing.T) {
	srv := newTestServer(t)

	status, body := doJSON(t, srv, http.MethodPut,
		"/api/scenarios/derived/items/kid-1/bookings/b-1", `{
		"startdate": "2025-09-01",
		"times": [{
			"day_name": "Mo",
			"segments": [{"booking_start": "08:00", "booking_end": "16:00"}]
		}]
	}`)
	if status != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", status, body)
	}
	var dto BookingDTO
	decode(t, body, &dto)
	if dto.Summary != "Mo 08:00-16:00" {
		t.Errorf("Expected consolidated summary, got %q", dto.Summary)
	}
	if dto.ItemID != "kid-1" || dto.ID != "b-1" {
		t.Errorf("Expected ids from the URL, got item %q booking %q", dto.ItemID, dto.ID)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	status, body := doJSON(t, srv, http.MethodGet, "/api/health", "")
	if status != http.StatusOK {
		t.Fatalf("Expected 200 from health check, got %d: %s", status, body)
	}
	var out map[string]string
	decode(t, body, &out)
	if out["status"] != "ok" {
		t.Errorf("Expected status ok, got %+v", out)
	}
}
