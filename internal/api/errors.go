// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/academy/internal/control/http/problem"
	"github.com/ManuGH/academy/internal/domain/session/model"
	"github.com/ManuGH/academy/internal/log"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string) {
	problem.Write(w, r, status, problemType, title, code, detail, nil)
}

// writeBadRequest reports a malformed or incomplete request body.
func writeBadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	writeProblem(w, r, http.StatusBadRequest, "request/invalid", "Bad Request", "INVALID_INPUT", detail)
}

// writeDomainError maps a domain error onto its HTTP status.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeProblem(w, r, http.StatusNotFound, "session/not_found", "Not Found", "NOT_FOUND", "Session not found")
	case errors.Is(err, model.ErrCatalogNotFound):
		writeProblem(w, r, http.StatusNotFound, "catalog/not_found", "Not Found", "NOT_FOUND", err.Error())
	case errors.Is(err, model.ErrInvalidPhase):
		writeProblem(w, r, http.StatusBadRequest, "session/invalid_phase", "Bad Request", "INVALID_PHASE", err.Error())
	case errors.Is(err, model.ErrInvalidArgument):
		writeProblem(w, r, http.StatusBadRequest, "request/invalid", "Bad Request", "INVALID_INPUT", err.Error())
	default:
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "request.failed").
			Bool("storage", model.IsStorage(err)).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeProblem(w, r, http.StatusInternalServerError, "system/internal", "Internal Server Error", "INTERNAL",
			"An unexpected error occurred. Please try again later.")
	}
}
