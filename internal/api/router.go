package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	r.Use(s.metricsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public surface
		r.Get("/health", s.handleHealth)
		r.Post("/auth/login", s.handleLogin)

		r.Route("/series", func(r chi.Router) {
			r.Get("/", s.handleListSeries)
			r.Get("/{id}", s.handleGetSeries)

			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware, s.adminMiddleware)
				r.Post("/", s.handleCreateSeries)
				r.Put("/{id}", s.handleUpdateSeries)
				r.Delete("/{id}", s.handleDeleteSeries)
			})
		})

		r.Route("/measurements", func(r chi.Router) {
			r.Get("/", s.handleListMeasurements)
			r.Get("/{id}", s.handleGetMeasurement)

			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware, s.adminMiddleware)
				r.Post("/", s.handleCreateMeasurement)
				r.Put("/{id}", s.handleUpdateMeasurement)
				r.Delete("/{id}", s.handleDeleteMeasurement)
			})
		})

		r.Route("/sensors", func(r chi.Router) {
			// Device ingestion authenticates with X-API-Key, not JWT.
			r.Post("/{id}/measurements", s.handleDeviceIngest)

			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware, s.adminMiddleware)
				r.Get("/", s.handleListSensors)
				r.Post("/", s.handleCreateSensor)
				r.Get("/{id}", s.handleGetSensor)
				r.Patch("/{id}", s.handleUpdateSensor)
				r.Delete("/{id}", s.handleDeleteSensor)
			})
		})

		// Authenticated users
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Get("/users/me", s.handleMe)
			r.Patch("/users/me", s.handleUpdateMe)
		})

		// Admin-only observability
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware, s.adminMiddleware)
			r.Get("/audit", s.handleListAudit)
		})
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	return r
}

// handleHealth reports liveness plus a storage ping. A failing store
// degrades the response to 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.HealthCheck(r.Context()); err != nil {
		s.logger.Error("health check database ping failed", "error", err)
		writeServiceUnavailable(w, "database unavailable")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
