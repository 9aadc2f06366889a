// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"

	"github.com/ManuGH/academy/internal/control/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) routes() http.Handler {
	r := middleware.NewRouter(s.cfg.Stack)

	s.registerPublicRoutes(r)
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleAPIHealth)
		r.Get("/curriculum", s.handleGetCurriculum)
		r.Get("/teams", s.handleGetTeams)
		r.Get("/stats", s.handleGetStats)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.With(s.writeLimit).Post("/", s.handleCreateSession)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Get("/coaching", s.handleGetCoaching)

				r.Group(func(w chi.Router) {
					w.Use(s.writeLimit)
					w.Patch("/", s.handlePatchSession)
					w.Delete("/", s.handleDeleteSession)
					w.Post("/checkins", s.handleSaveCheckin)
					w.Delete("/checkins/{index}", s.handleDeleteCheckin)
					w.Post("/post", s.handleCompleteSession)
					w.Post("/abort", s.handleAbortSession)
					w.Put("/drafts", s.handleSaveDrafts)
					w.Put("/phase", s.handleSetPhase)
					w.Post("/microfeedback", s.handleSetMicrofeedback)
				})
			})
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusNotFound, "http/not_found", "Not Found", "NOT_FOUND", "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeProblem(w, r, http.StatusMethodNotAllowed, "http/method_not_allowed", "Method Not Allowed", "METHOD_NOT_ALLOWED", "Method Not Allowed")
	})
	return r
}

func (s *Server) registerPublicRoutes(r chi.Router) {
	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)
	r.Handle("/metrics", promhttp.Handler())
}

// writeLimit applies the per-client write budget when one is configured.
func (s *Server) writeLimit(next http.Handler) http.Handler {
	if s.writeLimiter == nil {
		return next
	}
	return s.writeLimiter.Middleware(func(r *http.Request) string {
		return middleware.ClientIP(r, s.cfg.Stack.TrustedProxies)
	})(next)
}
