package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/lunarcal/internal/config"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET    /health
//	GET    /api/v1/snapshot            ?at&tz&lat&lon&global_month&apparent&large_hour
//	GET    /api/v1/date/{date}         same calendar parameters, at ignored
//	GET    /api/v1/solar-terms/{year}  ?tz
//	GET    /api/v1/find-next           ?month&day&leap plus calendar parameters
//	GET    /api/v1/timeline            ?count&step plus calendar parameters
//	GET    /api/v1/calendar.ics        ?year plus calendar parameters
//	GET    /api/v1/holidays
//	POST   /api/v1/holidays            (API key)
//	DELETE /api/v1/holidays/{id}       (API key)
func SetupRoutes(handlers *Handlers, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(ChainMiddleware(
		RecoveryMiddleware(logger),
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(),
	))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
	})

	// ==========================================================================
	// Public routes
	// ==========================================================================
	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/snapshot", handlers.GetSnapshot)
		r.Get("/date/{date}", handlers.GetDate)
		r.Get("/solar-terms/{year}", handlers.GetSolarTerms)
		r.Get("/find-next", handlers.GetFindNext)
		r.Get("/timeline", handlers.GetTimeline)
		r.Get("/calendar.ics", handlers.GetCalendarICS)
		r.Get("/holidays", handlers.ListHolidays)

		// ======================================================================
		// Authenticated routes
		// ======================================================================
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(cfg, logger))
			r.Post("/holidays", handlers.CreateHoliday)
			r.Delete("/holidays/{id}", handlers.DeleteHoliday)
		})
	})

	return r
}
