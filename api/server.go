/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions. This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address behind proxies
  3. zerolog:    Structured request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the frontend

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/", h.CreateScenario)

			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", h.UpdateScenario)
				r.Delete("/", h.DeleteScenario)
				r.Get("/selectable-bases", h.SelectableBases)
				r.Post("/rebase", h.RebaseScenario)

				r.Get("/items", h.ListItems)
				r.Route("/items/{itemID}", func(r chi.Router) {
					r.Put("/", h.PutItem)
					r.Post("/restore", h.RestoreItem)
					r.Get("/bookings", h.ListBookings)
					r.Put("/bookings/{bookingID}", h.PutBooking)
					r.Put("/groups/{assignmentID}", h.PutGroupAssignment)
					r.Put("/qualification", h.PutQualification)
					r.Get("/financials", h.ListFinancials)
					r.Put("/financials/{finID}", h.PutFinancial)
					r.Get("/payments", h.GetPayments)
				})

				r.Get("/financial-defs", h.ListFinancialDefs)
				r.Put("/financial-defs/{defID}", h.PutFinancialDef)

				r.Get("/events", h.GetEvents)
				r.Route("/series", func(r chi.Router) {
					r.Get("/weekly", h.GetWeeklySeries)
					r.Get("/time", h.GetTimeSeries)
					r.Get("/histogram", h.GetHistogramSeries)
					r.Get("/financial", h.GetFinancialSeries)
				})
			})
		})

		r.Post("/import", h.ImportArchive)
		r.Get("/demos", h.ListDemos)
		r.Post("/demos/load", h.LoadDemo)
		r.Post("/reset", h.ResetAll)

		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}

// requestLogger logs one structured line per request.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}
