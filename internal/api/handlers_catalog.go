// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"net/http"

	"github.com/ManuGH/academy/internal/coaching"
	"github.com/ManuGH/academy/internal/curriculum"
	"github.com/ManuGH/academy/internal/domain/session/model"
	"github.com/ManuGH/academy/internal/stats"
	"github.com/go-chi/chi/v5"
)

// handleAPIHealth keeps the plain liveness contract of /api/health.
func (s *Server) handleAPIHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetCurriculum(w http.ResponseWriter, r *http.Request) {
	cat, err := s.catalog.Get()
	if err != nil {
		writeCatalogError(w, r, "Curriculum not found", err)
		return
	}
	writeRecord(w, r, http.StatusOK, cat.Raw)
}

func (s *Server) handleGetTeams(w http.ResponseWriter, r *http.Request) {
	doc, err := curriculum.ReadDocument(s.cfg.TeamsPath)
	if err != nil {
		writeCatalogError(w, r, "Teams not found", err)
		return
	}
	writeRecord(w, r, http.StatusOK, doc)
}

func writeCatalogError(w http.ResponseWriter, r *http.Request, notFound string, err error) {
	if errors.Is(err, model.ErrCatalogNotFound) {
		writeProblem(w, r, http.StatusNotFound, "catalog/not_found", "Not Found", "NOT_FOUND", notFound)
		return
	}
	writeDomainError(w, r, err)
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	recs, err := s.sessions.List(r.Context(), model.ListFilter{User: r.URL.Query().Get("user")})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats.Aggregate(recs))
}

func (s *Server) handleGetCoaching(w http.ResponseWriter, r *http.Request) {
	phase := r.URL.Query().Get("phase")
	if phase == "" {
		writeBadRequest(w, r, "missing required query parameter: phase")
		return
	}
	rec, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	res, err := coaching.ForSession(r.Context(), rec, phase)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeProblem(w, r, http.StatusNotFound, "session/checkin_not_found", "Not Found", "NOT_FOUND", "No checkin for phase "+phase)
			return
		}
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
