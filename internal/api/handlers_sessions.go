// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/ManuGH/academy/internal/domain/session/manager"
	"github.com/ManuGH/academy/internal/domain/session/model"
	"github.com/go-chi/chi/v5"
)

type createSessionRequest struct {
	User          *string        `json:"user"`
	ModuleID      *string        `json:"module_id"`
	Goal          *string        `json:"goal"`
	Confidence    *int           `json:"confidence"`
	GameInfo      map[string]any `json:"game_info"`
	ObservedTeam  *string        `json:"observed_team"`
	Focus         *string        `json:"focus"`
	SessionMethod *string        `json:"session_method"`
	DrillID       *string        `json:"drill_id"`
}

type checkinRequest struct {
	Phase    *string        `json:"phase"`
	Answers  map[string]any `json:"answers"`
	Feedback *string        `json:"feedback"`
	NextTask *string        `json:"next_task"`
}

type postRequest struct {
	Summary     *string `json:"summary"`
	Unclear     *string `json:"unclear"`
	NextModule  *string `json:"next_module"`
	Helpfulness *int    `json:"helpfulness"`
}

type abortRequest struct {
	Reason *string `json:"reason"`
	Note   *string `json:"note"`
}

type microfeedbackRequest struct {
	Phase *string `json:"phase"`
	Text  *string `json:"text"`
}

// missing returns the names of required fields that were absent.
func missing(fields map[string]bool) string {
	var out []string
	for name, present := range fields {
		if !present {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return ""
	}
	sort.Strings(out)
	return "missing required field(s): " + strings.Join(out, ", ")
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ListFilter{
		User:  q.Get("user"),
		State: model.SessionState(q.Get("state")),
	}
	recs, err := s.sessions.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if recs == nil {
		recs = []*model.SessionRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if msg := missing(map[string]bool{
		"user":       req.User != nil,
		"module_id":  req.ModuleID != nil,
		"goal":       req.Goal != nil,
		"confidence": req.Confidence != nil,
	}); msg != "" {
		writeBadRequest(w, r, msg)
		return
	}

	rec, err := s.sessions.Create(r.Context(), manager.CreateRequest{
		User:          *req.User,
		ModuleID:      *req.ModuleID,
		Goal:          *req.Goal,
		Confidence:    *req.Confidence,
		GameInfo:      req.GameInfo,
		ObservedTeam:  req.ObservedTeam,
		Focus:         req.Focus,
		SessionMethod: req.SessionMethod,
		DrillID:       req.DrillID,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/sessions/"+rec.ID)
	writeRecord(w, r, http.StatusCreated, rec)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	rec, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeRecord(w, r, http.StatusOK, rec)
}

func (s *Server) handlePatchSession(w http.ResponseWriter, r *http.Request) {
	updates, err := readObject(w, r)
	if err != nil {
		writeDecodeError(w, r, err)
		return
	}
	normalizeKeys(updates)
	rec, err := s.sessions.Patch(r.Context(), chi.URLParam(r, "id"), updates)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeRecord(w, r, http.StatusOK, rec)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

func (s *Server) handleSaveCheckin(w http.ResponseWriter, r *http.Request) {
	var req checkinRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if msg := missing(map[string]bool{
		"phase":   req.Phase != nil,
		"answers": req.Answers != nil,
	}); msg != "" {
		writeBadRequest(w, r, msg)
		return
	}

	rec, err := s.sessions.MergeCheckin(r.Context(), chi.URLParam(r, "id"), manager.CheckinInput{
		Phase:    *req.Phase,
		Answers:  req.Answers,
		Feedback: req.Feedback,
		NextTask: req.NextTask,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeRecord(w, r, http.StatusOK, rec)
}

func (s *Server) handleDeleteCheckin(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeBadRequest(w, r, "checkin index must be an integer")
		return
	}
	rec, err := s.sessions.DeleteCheckin(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeRecord(w, r, http.StatusOK, rec)
}

func (s *Server) handleCompleteSession(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if msg := missing(map[string]bool{
		"summary":     req.Summary != nil,
		"helpfulness": req.Helpfulness != nil,
	}); msg != "" {
		writeBadRequest(w, r, msg)
		return
	}

	rec, err := s.sessions.Complete(r.Context(), chi.URLParam(r, "id"), manager.PostInput{
		Summary:     *req.Summary,
		Unclear:     req.Unclear,
		NextModule:  req.NextModule,
		Helpfulness: *req.Helpfulness,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeRecord(w, r, http.StatusOK, rec)
}

func (s *Server) handleAbortSession(w http.ResponseWriter, r *http.Request) {
	var req abortRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if req.Reason == nil {
		writeBadRequest(w, r, "missing required field(s): reason")
		return
	}

	rec, err := s.sessions.Abort(r.Context(), chi.URLParam(r, "id"), manager.AbortInput{
		Reason: *req.Reason,
		Note:   req.Note,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeRecord(w, r, http.StatusOK, rec)
}

func (s *Server) handleSaveDrafts(w http.ResponseWriter, r *http.Request) {
	obj, err := readObject(w, r)
	if err != nil {
		writeDecodeError(w, r, err)
		return
	}
	drafts := make(map[string]any, len(obj))
	for k, raw := range obj {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			writeBadRequest(w, r, "invalid draft value for "+k)
			return
		}
		drafts[k] = v
	}

	if err := s.sessions.SaveDrafts(r.Context(), chi.URLParam(r, "id"), drafts); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *Server) handleSetPhase(w http.ResponseWriter, r *http.Request) {
	obj, err := readObject(w, r)
	if err != nil {
		writeDecodeError(w, r, err)
		return
	}
	var upd manager.PhaseUpdate
	for key, dst := range map[string]**string{"phase": &upd.Phase, "state": &upd.State} {
		raw, ok := obj[key]
		if !ok {
			continue
		}
		var v string
		if err := json.Unmarshal(raw, &v); err != nil {
			writeBadRequest(w, r, key+" must be a string")
			return
		}
		*dst = &v
	}

	rec, err := s.sessions.SetPhase(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeRecord(w, r, http.StatusOK, rec)
}

func (s *Server) handleSetMicrofeedback(w http.ResponseWriter, r *http.Request) {
	var req microfeedbackRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	if msg := missing(map[string]bool{
		"phase": req.Phase != nil,
		"text":  req.Text != nil,
	}); msg != "" {
		writeBadRequest(w, r, msg)
		return
	}

	entry, err := s.sessions.SetMicrofeedback(r.Context(), chi.URLParam(r, "id"), *req.Phase, *req.Text)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "microfeedback": entry})
}
