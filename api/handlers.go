/*
handlers.go - HTTP API handlers for the planning engine

PURPOSE:
  Exposes the scenario planning engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to the pure
  engines (overlay resolution, calculators, series generators).

ENDPOINTS:
  Scenarios:
    GET    /api/scenarios                        List scenarios
    POST   /api/scenarios                        Create root or derived scenario
    PUT    /api/scenarios/{id}                   Update metadata
    DELETE /api/scenarios/{id}                   Delete (leaves only)
    GET    /api/scenarios/{id}/selectable-bases  Valid rebase targets
    POST   /api/scenarios/{id}/rebase            Move onto a new base

  Entities (all resolved through the scenario chain):
    GET    /api/scenarios/{id}/items
    PUT    /api/scenarios/{id}/items/{itemID}
    POST   /api/scenarios/{id}/items/{itemID}/restore
    GET    /api/scenarios/{id}/items/{itemID}/bookings
    PUT    /api/scenarios/{id}/items/{itemID}/bookings/{bookingID}
    PUT    /api/scenarios/{id}/items/{itemID}/qualification
    PUT    /api/scenarios/{id}/items/{itemID}/groups/{assignmentID}
    GET    /api/scenarios/{id}/items/{itemID}/financials
    PUT    /api/scenarios/{id}/items/{itemID}/financials/{finID}
    GET    /api/scenarios/{id}/items/{itemID}/payments
    GET    /api/scenarios/{id}/financial-defs
    PUT    /api/scenarios/{id}/financial-defs/{defID}

  Projections:
    GET    /api/scenarios/{id}/events
    GET    /api/scenarios/{id}/series/weekly
    GET    /api/scenarios/{id}/series/time?dimension=month
    GET    /api/scenarios/{id}/series/histogram?bin=4
    GET    /api/scenarios/{id}/series/financial?dimension=month

  Data:
    POST   /api/import        Import a decoded export archive
    GET    /api/demos         List demo data sets
    POST   /api/demos/load    Load a demo data set
    POST   /api/reset         Drop all state (dev only)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, segment overlaps
  - 404: Scenario or entity not found
  - 409: Cycle-producing rebase
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/marten-lucas/capakita-sub001/avr"
	"github.com/marten-lucas/capakita-sub001/baykibig"
	"github.com/marten-lucas/capakita-sub001/finance"
	"github.com/marten-lucas/capakita-sub001/importer"
	"github.com/marten-lucas/capakita-sub001/planning"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers. The snapshot is the
// single in-memory working state; every mutation persists the touched
// layers back through the repository.
type Handler struct {
	Repo     planning.Repository
	AVR      *avr.Table
	BayKiBiG *baykibig.Table
	Log      zerolog.Logger

	mu   sync.RWMutex
	snap *planning.Snapshot
}

// NewHandler creates a handler over a loaded snapshot.
func NewHandler(repo planning.Repository, snap *planning.Snapshot, avrTable *avr.Table, bkb *baykibig.Table, log zerolog.Logger) *Handler {
	if snap == nil {
		snap = planning.NewSnapshot()
	}
	return &Handler{Repo: repo, AVR: avrTable, BayKiBiG: bkb, Log: log, snap: snap}
}

// =============================================================================
// SCENARIO CRUD
// =============================================================================

func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	dtos := make([]ScenarioDTO, 0, len(h.snap.Scenarios))
	for id, sc := range h.snap.Scenarios {
		dtos = append(dtos, toScenarioDTO(sc, !h.snap.Overlays[id].Empty()))
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].Name < dtos[j].Name })
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateScenario(w http.ResponseWriter, r *http.Request) {
	var req CreateScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sc := &planning.Scenario{
		ID:           planning.ScenarioID(uuid.NewString()),
		Name:         req.Name,
		Confidence:   req.Confidence,
		Likelihood:   req.Likelihood,
		Desirability: req.Desirability,
	}
	if req.BaseScenarioID != nil {
		base := planning.ScenarioID(*req.BaseScenarioID)
		if _, ok := h.snap.Scenarios[base]; !ok {
			writeError(w, http.StatusNotFound, "base scenario not found")
			return
		}
		sc.BaseScenarioID = &base
	}
	h.snap.Scenarios[sc.ID] = sc
	if err := h.Repo.SaveScenario(r.Context(), sc); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toScenarioDTO(sc, false))
}

func (h *Handler) UpdateScenario(w http.ResponseWriter, r *http.Request) {
	id := planning.ScenarioID(chi.URLParam(r, "id"))
	var req UpdateScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sc, ok := h.snap.Scenarios[id]
	if !ok {
		writeError(w, http.StatusNotFound, "scenario not found")
		return
	}
	if req.Name != nil {
		sc.Name = *req.Name
	}
	if req.Confidence != nil {
		sc.Confidence = *req.Confidence
	}
	if req.Likelihood != nil {
		sc.Likelihood = *req.Likelihood
	}
	if req.Desirability != nil {
		sc.Desirability = *req.Desirability
	}
	if err := h.Repo.SaveScenario(r.Context(), sc); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScenarioDTO(sc, !h.snap.Overlays[id].Empty()))
}

func (h *Handler) DeleteScenario(w http.ResponseWriter, r *http.Request) {
	id := planning.ScenarioID(chi.URLParam(r, "id"))

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.snap.Scenarios[id]; !ok {
		writeError(w, http.StatusNotFound, "scenario not found")
		return
	}
	if len(h.snap.Descendants(id)) > 0 {
		writeError(w, http.StatusConflict, "scenario has derived scenarios")
		return
	}
	delete(h.snap.Scenarios, id)
	delete(h.snap.Base, id)
	delete(h.snap.Overlays, id)
	if err := h.Repo.DeleteScenario(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) SelectableBases(w http.ResponseWriter, r *http.Request) {
	id := planning.ScenarioID(chi.URLParam(r, "id"))

	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.snap.Scenarios[id]; !ok {
		writeError(w, http.StatusNotFound, "scenario not found")
		return
	}
	var dtos []ScenarioDTO
	for _, sid := range h.snap.SelectableBases(id) {
		sc := h.snap.Scenarios[sid]
		dtos = append(dtos, toScenarioDTO(sc, !h.snap.Overlays[sid].Empty()))
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].Name < dtos[j].Name })
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) RebaseScenario(w http.ResponseWriter, r *http.Request) {
	id := planning.ScenarioID(chi.URLParam(r, "id"))
	var req RebaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var newBase *planning.ScenarioID
	if req.NewBaseID != nil {
		b := planning.ScenarioID(*req.NewBaseID)
		newBase = &b
	}
	if err := h.snap.Rebase(id, newBase); err != nil {
		h.fail(w, err)
		return
	}
	sc := h.snap.Scenarios[id]
	if err := h.Repo.SaveScenario(r.Context(), sc); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toScenarioDTO(sc, !h.snap.Overlays[id].Empty()))
}

// =============================================================================
// DATA ITEMS
// =============================================================================

func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	sc := planning.ScenarioID(chi.URLParam(r, "id"))

	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.snap.Scenarios[sc]; !ok {
		writeError(w, http.StatusNotFound, "scenario not found")
		return
	}
	res := planning.NewResolver(h.snap)
	items := res.EffectiveDataItems(sc)
	dtos := make([]DataItemDTO, 0, len(items))
	for id, item := range items {
		dto := DataItemDTO{DataItem: item, Restorable: h.snap.IsRestorable(sc, id)}
		for _, b := range res.EffectiveBookings(sc, id) {
			if b.ActiveAt(planning.Today()) {
				dto.Summary = planning.ConsolidateWeek(b)
				break
			}
		}
		dtos = append(dtos, dto)
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].ID < dtos[j].ID })
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) PutItem(w http.ResponseWriter, r *http.Request) {
	sc := planning.ScenarioID(chi.URLParam(r, "id"))
	itemID := planning.ItemID(chi.URLParam(r, "itemID"))

	var item planning.DataItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	item.ID = itemID

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.snap.SetDataItem(sc, &item); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.persistLayers(r, sc); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DataItemDTO{DataItem: &item, Restorable: h.snap.IsRestorable(sc, itemID)})
}

func (h *Handler) RestoreItem(w http.ResponseWriter, r *http.Request) {
	sc := planning.ScenarioID(chi.URLParam(r, "id"))
	itemID := planning.ItemID(chi.URLParam(r, "itemID"))

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.snap.Restore(sc, itemID); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.persistLayers(r, sc); err != nil {
		h.fail(w, err)
		return
	}
	item, _ := planning.NewResolver(h.snap).EffectiveDataItem(sc, itemID)
	writeJSON(w, http.StatusOK, DataItemDTO{DataItem: item, Restorable: h.snap.IsRestorable(sc, itemID)})
}

// =============================================================================
// BOOKINGS / ASSIGNMENTS / QUALIFICATION
// =============================================================================

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	sc := planning.ScenarioID(chi.URLParam(r, "id"))
	itemID := planning.ItemID(chi.URLParam(r, "itemID"))

	h.mu.RLock()
	defer h.mu.RUnlock()

	res := planning.NewResolver(h.snap)
	bookings := res.EffectiveBookings(sc, itemID)
	dtos := make([]BookingDTO, 0, len(bookings))
	for _, b := range bookings {
		dtos = append(dtos, BookingDTO{Booking: b, Summary: planning.ConsolidateWeek(b)})
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].ID < dtos[j].ID })
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) PutBooking(w http.ResponseWriter, r *http.Request) {
	sc := planning.ScenarioID(chi.URLParam(r, "id"))
	itemID := planning.ItemID(chi.URLParam(r, "itemID"))
	bookingID := planning.BookingID(chi.URLParam(r, "bookingID"))

	var b planning.Booking
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	b.ID = bookingID
	b.ItemID = itemID

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.snap.SetBooking(sc, &b); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.persistLayers(r, sc); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BookingDTO{Booking: &b, Summary: planning.ConsolidateWeek(&b)})
}

func (h *Handler) PutGroupAssignment(w http.ResponseWriter, r *http.Request) {
	sc := planning.ScenarioID(chi.URLParam(r, "id"))
	itemID := planning.ItemID(chi.URLParam(r, "itemID"))
	assignmentID := chi.URLParam(r, "assignmentID")

	var g planning.GroupAssignment
	if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	g.ID = assignmentID
	g.ItemID = itemID

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.snap.SetGroupAssignment(sc, &g); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.persistLayers(r, sc); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (h *Handler) PutQualification(w http.ResponseWriter, r *http.Request) {
	sc := planning.ScenarioID(chi.URLParam(r, "id"))
	itemID := planning.ItemID(chi.URLParam(r, "itemID"))

	var q planning.QualificationAssignment
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	q.ItemID = itemID
	if q.ID == "" {
		q.ID = uuid.NewString()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.snap.SetQualification(sc, &q); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.persistLayers(r, sc); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// =============================================================================
// FINANCIALS
// =============================================================================

func (h *Handler) ListFinancials(w http.ResponseWriter, r *http.Request) {
	sc := planning.ScenarioID(chi.URLParam(r, "id"))
	itemID := planning.ItemID(chi.URLParam(r, "itemID"))

	h.mu.RLock()
	defer h.mu.RUnlock()

	res := planning.NewResolver(h.snap)
	fins := res.EffectiveFinancials(sc, itemID)
	out := make([]*planning.Financial, 0, len(fins))
	for _, f := range fins {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) PutFinancial(w http.ResponseWriter, r *http.Request) {
	sc := planning.ScenarioID(chi.URLParam(r, "id"))
	itemID := planning.ItemID(chi.URLParam(r, "itemID"))
	finID := planning.FinancialID(chi.URLParam(r, "finID"))

	var f planning.Financial
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid financial: "+err.Error())
		return
	}
	f.ID = finID
	f.ItemID = itemID

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.snap.SetFinancial(sc, &f); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.persistLayers(r, sc); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &f)
}

func (h *Handler) ListFinancialDefs(w http.ResponseWriter, r *http.Request) {
	sc := planning.ScenarioID(chi.URLParam(r, "id"))

	h.mu.RLock()
	defer h.mu.RUnlock()

	res := planning.NewResolver(h.snap)
	defs := effectiveFinancialDefs(res, sc)
	out := make([]*planning.FinancialDef, 0, len(defs))
	for _, fd := range defs {
		out = append(out, fd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) PutFinancialDef(w http.ResponseWriter, r *http.Request) {
	sc := planning.ScenarioID(chi.URLParam(r, "id"))
	defID := chi.URLParam(r, "defID")

	var fd planning.FinancialDef
	if err := json.NewDecoder(r.Body).Decode(&fd); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	fd.ID = defID

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.snap.SetFinancialDef(sc, &fd); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.persistLayers(r, sc); err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, &fd)
}

func (h *Handler) GetPayments(w http.ResponseWriter, r *http.Request) {
	sc := planning.ScenarioID(chi.URLParam(r, "id"))
	itemID := planning.ItemID(chi.URLParam(r, "itemID"))

	h.mu.RLock()
	defer h.mu.RUnlock()

	res := planning.NewResolver(h.snap)
	ctx := h.financeContext(res, sc, itemID)
	if ctx == nil {
		writeError(w, http.StatusNotFound, "data item not found")
		return
	}
	writeJSON(w, http.StatusOK, finance.ComputeAll(ctx))
}

// =============================================================================
// PROJECTIONS
// =============================================================================

func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	sc := planning.ScenarioID(chi.URLParam(r, "id"))

	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.snap.Scenarios[sc]; !ok {
		writeError(w, http.StatusNotFound, "scenario not found")
		return
	}
	res := planning.NewResolver(h.snap)
	events := planning.ExtractEvents(res, sc)
	writeJSON(w, http.StatusOK, planning.ConsolidateEvents(events))
}

func (h *Handler) GetWeeklySeries(w http.ResponseWriter, r *http.Request) {
	sc := planning.ScenarioID(chi.URLParam(r, "id"))

	h.mu.RLock()
	defer h.mu.RUnlock()

	res := planning.NewResolver(h.snap)
	demand, capacity := h.ratedBookings(res, sc)
	writeJSON(w, http.StatusOK, planning.BuildWeeklySeries(demand, capacity))
}

func (h *Handler) GetTimeSeries(w http.ResponseWriter, r *http.Request) {
	sc := planning.ScenarioID(chi.URLParam(r, "id"))
	dim := timeDimension(r)

	h.mu.RLock()
	defer h.mu.RUnlock()

	res := planning.NewResolver(h.snap)
	demand, capacity := h.ratedBookings(res, sc)
	writeJSON(w, http.StatusOK, planning.BuildTimeSeries(dim, planning.Today(), demand, capacity))
}

func (h *Handler) GetHistogramSeries(w http.ResponseWriter, r *http.Request) {
	sc := planning.ScenarioID(chi.URLParam(r, "id"))
	bin := 4.0
	if s := r.URL.Query().Get("bin"); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil && v > 0 {
			bin = v
		}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	res := planning.NewResolver(h.snap)
	demand, _ := h.ratedBookings(res, sc)
	bookings := make([]*planning.Booking, 0, len(demand))
	for _, rb := range demand {
		bookings = append(bookings, rb.Booking)
	}
	writeJSON(w, http.StatusOK, planning.BuildHistogramSeries(bookings, bin))
}

func (h *Handler) GetFinancialSeries(w http.ResponseWriter, r *http.Request) {
	sc := planning.ScenarioID(chi.URLParam(r, "id"))
	dim := timeDimension(r)

	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.snap.Scenarios[sc]; !ok {
		writeError(w, http.StatusNotFound, "scenario not found")
		return
	}
	res := planning.NewResolver(h.snap)
	var payments []planning.Payment
	for itemID := range res.EffectiveDataItems(sc) {
		ctx := h.financeContext(res, sc, itemID)
		if ctx == nil {
			continue
		}
		for _, result := range finance.ComputeAll(ctx) {
			payments = append(payments, collectPayments(result)...)
		}
	}
	writeJSON(w, http.StatusOK, planning.BuildFinancialSeries(dim, planning.Today(), payments))
}

func collectPayments(res *finance.Result) []planning.Payment {
	out := append([]planning.Payment(nil), res.Payments...)
	for _, child := range res.Children {
		out = append(out, collectPayments(child)...)
	}
	return out
}

func timeDimension(r *http.Request) planning.TimeDimension {
	switch r.URL.Query().Get("dimension") {
	case "week":
		return planning.DimensionWeek
	case "quarter":
		return planning.DimensionQuarter
	case "year":
		return planning.DimensionYear
	default:
		return planning.DimensionMonth
	}
}

// =============================================================================
// IMPORT / DEMOS / RESET
// =============================================================================

func (h *Handler) ImportArchive(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ScenarioName == "" {
		req.ScenarioName = "Import"
	}

	set, result := importer.Build(req.Archive)

	h.mu.Lock()
	defer h.mu.Unlock()

	sc := &planning.Scenario{
		ID:   planning.ScenarioID(uuid.NewString()),
		Name: req.ScenarioName,
	}
	h.snap.Scenarios[sc.ID] = sc
	h.snap.Base[sc.ID] = set
	if err := h.Repo.SaveScenario(r.Context(), sc); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.Repo.SaveBase(r.Context(), sc.ID, set); err != nil {
		h.fail(w, err)
		return
	}
	h.Log.Info().
		Str("scenario", string(sc.ID)).
		Int("items", result.Items).
		Int("bookings", result.Bookings).
		Msg("archive imported")
	writeJSON(w, http.StatusCreated, ImportResponse{ScenarioID: string(sc.ID), Result: result})
}

func (h *Handler) ResetAll(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Repo.Reset(r.Context()); err != nil {
		h.fail(w, err)
		return
	}
	h.snap = planning.NewSnapshot()
	h.Log.Info().Msg("state reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// persistLayers writes the touched scenario's layers back to storage.
// Root scenarios persist their base layer, derived scenarios their
// overlay (which may have collapsed away entirely).
func (h *Handler) persistLayers(r *http.Request, sc planning.ScenarioID) error {
	scenario, ok := h.snap.Scenarios[sc]
	if !ok {
		return planning.ErrScenarioNotFound
	}
	if scenario.IsRoot() {
		set := h.snap.Base[sc]
		if set == nil {
			set = planning.NewEntitySet()
		}
		return h.Repo.SaveBase(r.Context(), sc, set)
	}
	// restore may peel overlays anywhere in the chain
	chain, err := h.snap.Chain(sc)
	if err != nil {
		return err
	}
	for _, sid := range chain {
		set := h.snap.Overlays[sid]
		if set == nil {
			set = planning.NewEntitySet()
		}
		if h.snap.Scenarios[sid].IsRoot() {
			base := h.snap.Base[sid]
			if base == nil {
				base = planning.NewEntitySet()
			}
			if err := h.Repo.SaveBase(r.Context(), sid, base); err != nil {
				return err
			}
			continue
		}
		if err := h.Repo.SaveOverlay(r.Context(), sid, set); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, planning.ErrScenarioNotFound), errors.Is(err, planning.ErrItemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, planning.ErrCyclicBase), errors.Is(err, planning.ErrNotDerived):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, planning.ErrSegmentOverlap), errors.Is(err, planning.ErrUnknownFinancialType):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.Log.Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
