// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package manager owns the session lifecycle: creation, the checkin merge
// engine and the phase/state controller. All writes to one session id are
// serialized; reads go straight to the store.
package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ManuGH/academy/internal/domain/session/model"
	"github.com/ManuGH/academy/internal/domain/session/store"
	xglog "github.com/ManuGH/academy/internal/log"
	"github.com/ManuGH/academy/internal/metrics"
	"github.com/ManuGH/academy/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DrillSource resolves the drill snapshot for a new session.
type DrillSource interface {
	// FindDrills returns the drills of the first module matching moduleID,
	// narrowed to drillID when it is non-empty. No match yields no drills.
	FindDrills(moduleID, drillID string) []json.RawMessage
}

// Service implements the session operations on top of a store.Store.
type Service struct {
	store        store.Store
	drills       DrillSource
	clock        model.Clock
	ids          *IDGenerator
	locks        *keyedMutex
	tracer       trace.Tracer
	maxIDRetries int
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source for timestamps and ids.
func WithClock(c model.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// New creates a Service. drills may be nil, in which case sessions start without drills.
func New(st store.Store, drills DrillSource, opts ...Option) *Service {
	s := &Service{
		store:        st,
		drills:       drills,
		clock:        model.SystemClock{},
		locks:        newKeyedMutex(),
		tracer:       telemetry.Tracer("academy/session"),
		maxIDRetries: 3,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ids = NewIDGenerator(s.clock)
	return s
}

func (s *Service) now() string {
	return model.FormatTimestamp(s.clock.Now())
}

func (s *Service) startSpan(ctx context.Context, name, id, phase string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(telemetry.SessionAttributes(id, phase)...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// mutate runs fn on a freshly loaded record under the per-id lock and persists
// the result. If fn or the write fails, the stored record is left untouched.
func (s *Service) mutate(ctx context.Context, id string, fn func(rec *model.SessionRecord) error) (*model.SessionRecord, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// CreateRequest is the input of Create.
type CreateRequest struct {
	User          string
	ModuleID      string
	Goal          string
	Confidence    int
	GameInfo      map[string]any
	ObservedTeam  *string
	Focus         *string
	SessionMethod *string
	DrillID       *string
}

// Create builds and persists a new session with a drill snapshot from the catalog.
func (s *Service) Create(ctx context.Context, req CreateRequest) (rec *model.SessionRecord, err error) {
	ctx, span := s.startSpan(ctx, "session.create", "", "")
	defer func() { endSpan(span, err) }()

	user := strings.TrimSpace(req.User)
	if user == "" {
		return nil, model.InvalidArgumentf("user is required")
	}
	if strings.TrimSpace(req.ModuleID) == "" {
		return nil, model.InvalidArgumentf("module_id is required")
	}
	if req.Confidence < 1 || req.Confidence > 5 {
		return nil, model.InvalidArgumentf("confidence must be between 1 and 5, got %d", req.Confidence)
	}

	drillID := ""
	if req.DrillID != nil {
		drillID = *req.DrillID
	}
	drills := []json.RawMessage{}
	if s.drills != nil {
		if found := s.drills.FindDrills(req.ModuleID, drillID); found != nil {
			drills = found
		}
	}

	subject := req.ModuleID
	if drillID != "" {
		subject = drillID
	}

	rec = &model.SessionRecord{
		User:          req.User,
		CreatedBy:     req.User,
		ModuleID:      req.ModuleID,
		Goal:          req.Goal,
		Confidence:    req.Confidence,
		Focus:         req.Focus,
		SessionMethod: req.SessionMethod,
		DrillID:       req.DrillID,
		State:         model.StateInProgress,
		CurrentPhase:  model.PhasePre,
		CreatedAt:     s.now(),
		Drills:        drills,
		Progress:      model.Progress{CurrentDrillIndex: 0, CompletedDrills: []any{}},
		Checkins:      []model.Checkin{},
		Drafts:        map[string]any{},
		GameInfo:      req.GameInfo,
		ObservedTeam:  req.ObservedTeam,
		Microfeedback: model.EmptyMicrofeedback(),
	}

	for attempt := 0; ; attempt++ {
		rec.ID = s.ids.Next(user, subject)
		_, getErr := s.store.Get(ctx, rec.ID)
		if errors.Is(getErr, model.ErrNotFound) {
			break
		}
		if getErr != nil {
			return nil, getErr
		}
		if attempt >= s.maxIDRetries {
			return nil, model.NewStorageError("create", rec.ID, errors.New("could not allocate a unique session id"))
		}
	}
	span.SetAttributes(attribute.String(telemetry.SessionIDKey, rec.ID))

	unlock := s.locks.Lock(rec.ID)
	defer unlock()
	if err := s.store.Put(ctx, rec); err != nil {
		return nil, err
	}

	metrics.IncSessionCreated()
	logger := xglog.WithComponentFromContext(ctx, "session")
	logger.Info().
		Str(xglog.FieldEvent, "session.created").
		Str(xglog.FieldSessionID, rec.ID).
		Str(xglog.FieldUser, rec.User).
		Str(xglog.FieldModuleID, rec.ModuleID).
		Int("drills", len(rec.Drills)).
		Msg("session created")
	return rec, nil
}

// Get loads a session.
func (s *Service) Get(ctx context.Context, id string) (*model.SessionRecord, error) {
	return s.store.Get(ctx, id)
}

// List returns sessions matching filter, newest first.
func (s *Service) List(ctx context.Context, filter model.ListFilter) ([]*model.SessionRecord, error) {
	return s.store.List(ctx, filter)
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, id string) (err error) {
	ctx, span := s.startSpan(ctx, "session.delete", id, "")
	defer func() { endSpan(span, err) }()

	unlock := s.locks.Lock(id)
	defer unlock()
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	logger := xglog.WithComponentFromContext(ctx, "session")
	logger.Info().
		Str(xglog.FieldEvent, "session.deleted").
		Str(xglog.FieldSessionID, id).
		Msg("session deleted")
	return nil
}

// MergeCheckin applies a checkin submission with dedup-by-phase semantics.
func (s *Service) MergeCheckin(ctx context.Context, id string, in CheckinInput) (rec *model.SessionRecord, err error) {
	phase := model.NormalizePhase(in.Phase)
	ctx, span := s.startSpan(ctx, "session.checkin", id, string(phase))
	defer func() { endSpan(span, err) }()

	if !phase.IsCheckinPhase() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidPhase, in.Phase)
	}

	var res MergeResult
	rec, err = s.mutate(ctx, id, func(rec *model.SessionRecord) error {
		res = MergeCheckin(rec, in, s.now())
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordCheckinMerge(res.Action, res.Removed)
	span.SetAttributes(attribute.String(telemetry.SessionActionKey, res.Action))
	logger := xglog.WithComponentFromContext(ctx, "session")
	logger.Info().
		Str(xglog.FieldEvent, "checkin.merge").
		Str(xglog.FieldSessionID, id).
		Str(xglog.FieldPhaseRaw, in.Phase).
		Str(xglog.FieldPhase, string(phase)).
		Str(xglog.FieldAction, res.Action).
		Interface("counts_before", res.CountsBefore).
		Interface("counts_after", res.CountsAfter).
		Int("dedup_removed", res.Removed).
		Msg("checkin merged")
	return rec, nil
}

// DeleteCheckin removes the checkin at index.
func (s *Service) DeleteCheckin(ctx context.Context, id string, index int) (rec *model.SessionRecord, err error) {
	ctx, span := s.startSpan(ctx, "session.checkin.delete", id, "")
	defer func() { endSpan(span, err) }()

	return s.mutate(ctx, id, func(rec *model.SessionRecord) error {
		if index < 0 || index >= len(rec.Checkins) {
			return model.InvalidArgumentf("invalid checkin index %d", index)
		}
		rec.Checkins = append(rec.Checkins[:index], rec.Checkins[index+1:]...)
		return nil
	})
}

// PostInput closes a session.
type PostInput struct {
	Summary     string
	Unclear     *string
	NextModule  *string
	Helpfulness int
}

// Complete stores the post summary and marks the session COMPLETED.
// A previous abort marker is cleared.
func (s *Service) Complete(ctx context.Context, id string, in PostInput) (rec *model.SessionRecord, err error) {
	ctx, span := s.startSpan(ctx, "session.complete", id, string(model.PhasePost))
	defer func() { endSpan(span, err) }()

	if in.Helpfulness < 1 || in.Helpfulness > 5 {
		return nil, model.InvalidArgumentf("helpfulness must be between 1 and 5, got %d", in.Helpfulness)
	}
	var old model.SessionState
	rec, err = s.mutate(ctx, id, func(rec *model.SessionRecord) error {
		old = rec.State
		rec.Post = &model.PostSummary{
			Summary:     in.Summary,
			Unclear:     in.Unclear,
			NextModule:  in.NextModule,
			Helpfulness: in.Helpfulness,
			CompletedAt: s.now(),
		}
		rec.Abort = nil
		rec.State = model.StateCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logTransition(ctx, id, old, rec.State)
	return rec, nil
}

// AbortInput cancels a session.
type AbortInput struct {
	Reason string
	Note   *string
}

// Abort stores the abort marker and marks the session ABORTED.
// A previous post summary is cleared.
func (s *Service) Abort(ctx context.Context, id string, in AbortInput) (rec *model.SessionRecord, err error) {
	ctx, span := s.startSpan(ctx, "session.abort", id, "")
	defer func() { endSpan(span, err) }()

	reason := model.AbortReason(strings.TrimSpace(in.Reason))
	if !reason.Valid() {
		return nil, model.InvalidArgumentf("unknown abort reason %q", in.Reason)
	}
	var old model.SessionState
	rec, err = s.mutate(ctx, id, func(rec *model.SessionRecord) error {
		old = rec.State
		rec.Abort = &model.AbortInfo{Reason: reason, Note: in.Note, AbortedAt: s.now()}
		rec.Post = nil
		rec.State = model.StateAborted
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logTransition(ctx, id, old, rec.State)
	return rec, nil
}

// SaveDrafts replaces the drafts object wholesale.
func (s *Service) SaveDrafts(ctx context.Context, id string, drafts map[string]any) (err error) {
	ctx, span := s.startSpan(ctx, "session.drafts", id, "")
	defer func() { endSpan(span, err) }()

	if drafts == nil {
		drafts = map[string]any{}
	}
	_, err = s.mutate(ctx, id, func(rec *model.SessionRecord) error {
		rec.Drafts = drafts
		return nil
	})
	return err
}

// PhaseUpdate carries the optional navigational overrides of SetPhase.
type PhaseUpdate struct {
	Phase *string
	State *string
}

// SetPhase overrides current_phase and/or state. The nominal phase order is
// not enforced; resuming at an arbitrary phase is allowed.
func (s *Service) SetPhase(ctx context.Context, id string, upd PhaseUpdate) (rec *model.SessionRecord, err error) {
	phase := ""
	if upd.Phase != nil {
		phase = *upd.Phase
	}
	ctx, span := s.startSpan(ctx, "session.phase", id, phase)
	defer func() { endSpan(span, err) }()

	var old model.SessionState
	rec, err = s.mutate(ctx, id, func(rec *model.SessionRecord) error {
		old = rec.State
		if upd.Phase != nil {
			rec.CurrentPhase = model.Phase(*upd.Phase)
		}
		if upd.State != nil {
			rec.State = model.SessionState(*upd.State)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logTransition(ctx, id, old, rec.State)
	return rec, nil
}

// SetMicrofeedback upserts the note of phase P1..P3 and returns the stored entry.
func (s *Service) SetMicrofeedback(ctx context.Context, id, rawPhase, text string) (entry model.Microfeedback, err error) {
	phase := model.NormalizePhase(rawPhase)
	ctx, span := s.startSpan(ctx, "session.microfeedback", id, string(phase))
	defer func() { endSpan(span, err) }()

	if !phase.IsMicrofeedbackPhase() {
		return model.Microfeedback{}, model.ErrInvalidPhase
	}
	_, err = s.mutate(ctx, id, func(rec *model.SessionRecord) error {
		if rec.Microfeedback == nil {
			rec.Microfeedback = model.EmptyMicrofeedback()
		}
		entry = model.Microfeedback{Done: true, Text: text, Ts: s.now()}
		rec.Microfeedback[phase] = entry
		return nil
	})
	if err != nil {
		return model.Microfeedback{}, err
	}
	logger := xglog.WithComponentFromContext(ctx, "session")
	logger.Info().
		Str(xglog.FieldEvent, "microfeedback.saved").
		Str(xglog.FieldSessionID, id).
		Str(xglog.FieldPhase, string(phase)).
		Int("text_len", len(text)).
		Msg("microfeedback saved")
	return entry, nil
}

// Patch overwrites top-level fields. microfeedback is deep-merged per phase;
// the id cannot be changed.
func (s *Service) Patch(ctx context.Context, id string, updates map[string]json.RawMessage) (rec *model.SessionRecord, err error) {
	ctx, span := s.startSpan(ctx, "session.patch", id, "")
	defer func() { endSpan(span, err) }()

	var old model.SessionState
	rec, err = s.mutate(ctx, id, func(rec *model.SessionRecord) error {
		old = rec.State
		next, err := applyPatch(rec, updates)
		if err != nil {
			return err
		}
		*rec = *next
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logTransition(ctx, id, old, rec.State)
	return rec, nil
}

func (s *Service) logTransition(ctx context.Context, id string, from, to model.SessionState) {
	if from == to {
		return
	}
	metrics.RecordTransition(string(to))
	logger := xglog.WithComponentFromContext(ctx, "session")
	logger.Info().
		Str(xglog.FieldEvent, "session.transition").
		Str(xglog.FieldSessionID, id).
		Str(xglog.FieldOldState, string(from)).
		Str(xglog.FieldNewState, string(to)).
		Msg("session state changed")
}
