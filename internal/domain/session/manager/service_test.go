// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package manager

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ManuGH/academy/internal/domain/session/model"
	"github.com/ManuGH/academy/internal/domain/session/store"
	xglog "github.com/ManuGH/academy/internal/log"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock advances by one millisecond on every read.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2025, 3, 14, 18, 30, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

type fakeDrills map[string][]json.RawMessage

func (f fakeDrills) FindDrills(moduleID, drillID string) []json.RawMessage {
	drills, ok := f[moduleID]
	if !ok {
		return nil
	}
	if drillID == "" {
		return drills
	}
	for _, d := range drills {
		var probe struct {
			ID string `json:"id"`
		}
		if json.Unmarshal(d, &probe) == nil && probe.ID == drillID {
			return []json.RawMessage{d}
		}
	}
	return nil
}

var testDrills = fakeDrills{
	"A1": {
		json.RawMessage(`{"id":"d1","type":"period_checkin"}`),
		json.RawMessage(`{"id":"d2","type":"live_watch"}`),
	},
}

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	return New(st, testDrills, WithClock(newStepClock())), st
}

func createSession(t *testing.T, svc *Service) *model.SessionRecord {
	t.Helper()
	rec, err := svc.Create(context.Background(), CreateRequest{User: "m", ModuleID: "A1", Goal: "watch forecheck", Confidence: 3})
	require.NoError(t, err)
	return rec
}

func TestService_Scenario(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	rec := createSession(t, svc)
	assert.Equal(t, model.StateInProgress, rec.State)
	assert.Equal(t, model.PhasePre, rec.CurrentPhase)
	assert.Empty(t, rec.Checkins)

	_, err := svc.MergeCheckin(ctx, rec.ID, CheckinInput{Phase: "P1", Answers: map[string]any{"q1": "yes"}})
	require.NoError(t, err)
	rec, err = svc.MergeCheckin(ctx, rec.ID, CheckinInput{Phase: "P1", Answers: map[string]any{"q1": "no"}})
	require.NoError(t, err)
	require.Len(t, rec.Checkins, 1)
	assert.Equal(t, "P1", rec.Checkins[0].Phase)
	assert.Equal(t, "no", rec.Checkins[0].Answers["q1"])

	rec, err = svc.Complete(ctx, rec.ID, PostInput{Summary: "good", Helpfulness: 4})
	require.NoError(t, err)
	assert.Equal(t, model.StateCompleted, rec.State)
	require.NotNil(t, rec.Post)
	assert.Equal(t, 4, rec.Post.Helpfulness)

	require.NoError(t, svc.Delete(ctx, rec.ID))
	_, err = svc.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestService_LogsLifecycleEvents(t *testing.T) {
	var buf bytes.Buffer
	xglog.Configure(xglog.Config{Level: "info", Output: &buf})
	t.Cleanup(func() { xglog.Configure(xglog.Config{}) })

	ctx := xglog.ContextWithRequestID(context.Background(), "req-1")
	svc, _ := newTestService(t)
	rec, err := svc.Create(ctx, CreateRequest{User: "m", ModuleID: "A1", Goal: "g", Confidence: 3})
	require.NoError(t, err)
	_, err = svc.MergeCheckin(ctx, rec.ID, CheckinInput{Phase: "p1", Answers: map[string]any{"q": 1}})
	require.NoError(t, err)
	_, err = svc.SetMicrofeedback(ctx, rec.ID, "P1", "ok")
	require.NoError(t, err)
	_, err = svc.Abort(ctx, rec.ID, AbortInput{Reason: "time"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, rec.ID))

	out := buf.String()
	for _, event := range []string{"session.created", "checkin.merge", "microfeedback.saved", "session.transition", "session.deleted"} {
		assert.Contains(t, out, `"event":"`+event+`"`)
	}
	assert.Contains(t, out, `"component":"session"`)
	assert.Contains(t, out, `"request_id":"req-1"`)
}

func TestService_CreateRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	created, err := svc.Create(ctx, CreateRequest{
		User:          "Jörg Müller",
		ModuleID:      "A1",
		Goal:          "g",
		Confidence:    5,
		GameInfo:      map[string]any{"home": "EBB"},
		ObservedTeam:  strp("EBB"),
		SessionMethod: strp("live_watch"),
	})
	require.NoError(t, err)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(toMap(t, created), toMap(t, got)); diff != "" {
		t.Errorf("round trip mismatch (-created +stored):\n%s", diff)
	}

	assert.Regexp(t, `^jorg-muller_a1_20250314_\d+$`, created.ID)
	assert.Equal(t, "Jörg Müller", got.CreatedBy)
	assert.Len(t, got.Drills, 2)
	assert.Equal(t, model.EmptyMicrofeedback(), got.Microfeedback)
	assert.Nil(t, got.Post)
	assert.Nil(t, got.Abort)
	assert.Empty(t, got.Drafts)
	assert.Equal(t, 0, got.Progress.CurrentDrillIndex)
}

func TestService_CreateDrillSnapshot(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	rec, err := svc.Create(ctx, CreateRequest{User: "m", ModuleID: "A1", Confidence: 2, DrillID: strp("d2")})
	require.NoError(t, err)
	require.Len(t, rec.Drills, 1)
	assert.JSONEq(t, `{"id":"d2","type":"live_watch"}`, string(rec.Drills[0]))
	assert.Contains(t, rec.ID, "_d2_")

	rec, err = svc.Create(ctx, CreateRequest{User: "m", ModuleID: "ZZ", Confidence: 2})
	require.NoError(t, err, "unknown module is not an error")
	assert.Empty(t, rec.Drills)

	noCatalog := New(store.NewMemoryStore(), nil)
	rec, err = noCatalog.Create(ctx, CreateRequest{User: "m", ModuleID: "A1", Confidence: 2})
	require.NoError(t, err)
	assert.NotNil(t, rec.Drills)
	assert.Empty(t, rec.Drills)
}

func TestService_CreateValidation(t *testing.T) {
	svc, _ := newTestService(t)
	tests := []struct {
		name string
		req  CreateRequest
	}{
		{"missing user", CreateRequest{ModuleID: "A1", Confidence: 3}},
		{"missing module", CreateRequest{User: "m", Confidence: 3}},
		{"confidence too low", CreateRequest{User: "m", ModuleID: "A1", Confidence: 0}},
		{"confidence too high", CreateRequest{User: "m", ModuleID: "A1", Confidence: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			assert.ErrorIs(t, err, model.ErrInvalidArgument)
		})
	}
}

func TestService_CreateUniqueIDs(t *testing.T) {
	svc, _ := newTestService(t)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		rec := createSession(t, svc)
		assert.False(t, seen[rec.ID], "duplicate id %s", rec.ID)
		seen[rec.ID] = true
	}
}

func TestService_MergeCheckinErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	rec := createSession(t, svc)

	_, err := svc.MergeCheckin(ctx, "missing", CheckinInput{Phase: "P1"})
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = svc.MergeCheckin(ctx, rec.ID, CheckinInput{Phase: "P9"})
	assert.ErrorIs(t, err, model.ErrInvalidPhase)
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestService_DeleteCheckin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	rec := createSession(t, svc)

	for _, p := range []string{"PRE", "P1", "P2"} {
		_, err := svc.MergeCheckin(ctx, rec.ID, CheckinInput{Phase: p, Answers: map[string]any{}})
		require.NoError(t, err)
	}

	got, err := svc.DeleteCheckin(ctx, rec.ID, 1)
	require.NoError(t, err)
	require.Len(t, got.Checkins, 2)
	assert.Equal(t, "PRE", got.Checkins[0].Phase)
	assert.Equal(t, "P2", got.Checkins[1].Phase)

	for _, idx := range []int{-1, 2, 10} {
		_, err := svc.DeleteCheckin(ctx, rec.ID, idx)
		assert.ErrorIs(t, err, model.ErrInvalidArgument, "index %d", idx)
	}
}

func TestService_CompleteAndAbortAreExclusive(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	rec := createSession(t, svc)

	rec, err := svc.Abort(ctx, rec.ID, AbortInput{Reason: "time", Note: strp("late")})
	require.NoError(t, err)
	assert.Equal(t, model.StateAborted, rec.State)
	require.NotNil(t, rec.Abort)
	assert.Equal(t, model.AbortTime, rec.Abort.Reason)
	assert.Nil(t, rec.Post)

	rec, err = svc.Complete(ctx, rec.ID, PostInput{Summary: "s", Helpfulness: 2, NextModule: strp("B1")})
	require.NoError(t, err)
	assert.Equal(t, model.StateCompleted, rec.State)
	assert.Nil(t, rec.Abort)
	require.NotNil(t, rec.Post)
	assert.NotEmpty(t, rec.Post.CompletedAt)

	_, err = svc.Abort(ctx, rec.ID, AbortInput{Reason: "bored"})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
	_, err = svc.Complete(ctx, rec.ID, PostInput{Helpfulness: 9})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestService_SetPhase(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	rec := createSession(t, svc)

	rec, err := svc.SetPhase(ctx, rec.ID, PhaseUpdate{Phase: strp("P3")})
	require.NoError(t, err)
	assert.Equal(t, model.PhaseP3, rec.CurrentPhase)
	assert.Equal(t, model.StateInProgress, rec.State, "state untouched when absent")

	rec, err = svc.SetPhase(ctx, rec.ID, PhaseUpdate{Phase: strp("PRE"), State: strp("P1")})
	require.NoError(t, err)
	assert.Equal(t, model.PhasePre, rec.CurrentPhase, "no order validation")
	assert.Equal(t, model.StateP1, rec.State)

	rec, err = svc.SetPhase(ctx, rec.ID, PhaseUpdate{})
	require.NoError(t, err)
	assert.Equal(t, model.PhasePre, rec.CurrentPhase)
}

func TestService_SaveDrafts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	rec := createSession(t, svc)

	require.NoError(t, svc.SaveDrafts(ctx, rec.ID, map[string]any{"P1": map[string]any{"q1": "half"}}))
	require.NoError(t, svc.SaveDrafts(ctx, rec.ID, map[string]any{"P2": "x"}))

	got, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"P2": "x"}, got.Drafts, "drafts are replaced wholesale")

	assert.ErrorIs(t, svc.SaveDrafts(ctx, "missing", nil), model.ErrNotFound)
}

func TestService_SetMicrofeedback(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	rec := createSession(t, svc)

	entry, err := svc.SetMicrofeedback(ctx, rec.ID, " p2 ", "tight gaps")
	require.NoError(t, err)
	assert.True(t, entry.Done)
	assert.Equal(t, "tight gaps", entry.Text)
	assert.NotEmpty(t, entry.Ts)

	got, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, entry, got.Microfeedback[model.PhaseP2])
	assert.False(t, got.Microfeedback[model.PhaseP1].Done)

	for _, bad := range []string{"PRE", "POST", "P4", ""} {
		_, err := svc.SetMicrofeedback(ctx, rec.ID, bad, "x")
		assert.ErrorIs(t, err, model.ErrInvalidPhase, "phase %q", bad)
	}

	// Records written before microfeedback existed get the block initialised.
	legacy := &model.SessionRecord{ID: "legacy_1", User: "m", State: model.StateInProgress}
	require.NoError(t, st.Put(ctx, legacy))
	_, err = svc.SetMicrofeedback(ctx, "legacy_1", "P1", "first")
	require.NoError(t, err)
	got, err = svc.Get(ctx, "legacy_1")
	require.NoError(t, err)
	assert.Len(t, got.Microfeedback, 3)
	assert.True(t, got.Microfeedback[model.PhaseP1].Done)
}

func TestService_Patch(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	rec := createSession(t, svc)

	_, err := svc.SetMicrofeedback(ctx, rec.ID, "P1", "from endpoint")
	require.NoError(t, err)

	got, err := svc.Patch(ctx, rec.ID, map[string]json.RawMessage{
		"goal":          json.RawMessage(`"new goal"`),
		"id":            json.RawMessage(`"hijack"`),
		"custom_flag":   json.RawMessage(`{"a":1}`),
		"microfeedback": json.RawMessage(`{"P1":{"done":false},"P2":{"text":"patched"}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "new goal", got.Goal)
	assert.Equal(t, rec.ID, got.ID, "id is immutable")
	assert.JSONEq(t, `{"a":1}`, string(got.Extra["custom_flag"]))

	p1 := got.Microfeedback[model.PhaseP1]
	assert.False(t, p1.Done)
	assert.Equal(t, "from endpoint", p1.Text, "sibling fields survive a deep merge")
	assert.NotEmpty(t, p1.Ts)
	assert.Equal(t, "patched", got.Microfeedback[model.PhaseP2].Text)

	stored, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Microfeedback, stored.Microfeedback)
	assert.JSONEq(t, `{"a":1}`, string(stored.Extra["custom_flag"]))
}

func TestService_PatchRejectsMismatchedTypes(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	rec := createSession(t, svc)

	_, err := svc.Patch(ctx, rec.ID, map[string]json.RawMessage{"confidence": json.RawMessage(`"high"`)})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	_, err = svc.Patch(ctx, rec.ID, map[string]json.RawMessage{"microfeedback": json.RawMessage(`"oops"`)})
	assert.ErrorIs(t, err, model.ErrInvalidArgument)

	got, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Confidence, "failed patch leaves the record untouched")
}

func TestService_PatchStateTransition(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	rec := createSession(t, svc)

	got, err := svc.Patch(ctx, rec.ID, map[string]json.RawMessage{"state": json.RawMessage(`"P2"`)})
	require.NoError(t, err)
	assert.Equal(t, model.StateP2, got.State)
}

// Concurrent writes to different phases of the same session must all survive.
func TestService_ConcurrentWritesDoNotLoseUpdates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	rec := createSession(t, svc)

	phases := []string{"PRE", "P1", "P2", "P3", "POST"}
	var wg sync.WaitGroup
	for round := 0; round < 5; round++ {
		for _, p := range phases {
			wg.Add(1)
			go func(p string, round int) {
				defer wg.Done()
				_, err := svc.MergeCheckin(ctx, rec.ID, CheckinInput{Phase: p, Answers: map[string]any{"round": float64(round)}})
				assert.NoError(t, err)
			}(p, round)
		}
		for _, p := range []string{"P1", "P2", "P3"} {
			wg.Add(1)
			go func(p string) {
				defer wg.Done()
				_, err := svc.SetMicrofeedback(ctx, rec.ID, p, "note "+p)
				assert.NoError(t, err)
			}(p)
		}
	}
	wg.Wait()

	got, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, got.Checkins, len(phases))
	for _, p := range []model.Phase{model.PhaseP1, model.PhaseP2, model.PhaseP3} {
		assert.Equal(t, "note "+string(p), got.Microfeedback[p].Text)
	}
	assert.Equal(t, 0, svc.locks.size(), "per-id locks are released")
}

// failingStore fails every Put after the first failAfter calls.
type failingStore struct {
	store.Store
	mu        sync.Mutex
	puts      int
	failAfter int
}

func (f *failingStore) Put(ctx context.Context, rec *model.SessionRecord) error {
	f.mu.Lock()
	f.puts++
	n := f.puts
	f.mu.Unlock()
	if n > f.failAfter {
		return model.NewStorageError("put", rec.ID, errors.New("disk full"))
	}
	return f.Store.Put(ctx, rec)
}

func TestService_StorageFailureLeavesRecordUntouched(t *testing.T) {
	ctx := context.Background()
	fs := &failingStore{Store: store.NewMemoryStore(), failAfter: 1}
	svc := New(fs, testDrills, WithClock(newStepClock()))

	rec := createSession(t, svc)

	_, err := svc.MergeCheckin(ctx, rec.ID, CheckinInput{Phase: "P1", Answers: map[string]any{"q": "x"}})
	require.Error(t, err)
	assert.True(t, model.IsStorage(err))

	got, err := svc.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Checkins)
}

func TestService_ListFilters(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	var ids []string
	for i, user := range []string{"anna", "ben", "anna"} {
		rec, err := svc.Create(ctx, CreateRequest{User: user, ModuleID: "A1", Confidence: 1 + i})
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}
	_, err := svc.Complete(ctx, ids[0], PostInput{Summary: "s", Helpfulness: 3})
	require.NoError(t, err)

	anna, err := svc.List(ctx, model.ListFilter{User: "anna"})
	require.NoError(t, err)
	assert.Equal(t, []string{ids[2], ids[0]}, recordIDs(anna), "newest first")

	completed, err := svc.List(ctx, model.ListFilter{State: model.StateCompleted})
	require.NoError(t, err)
	assert.Equal(t, []string{ids[0]}, recordIDs(completed))
}

func recordIDs(recs []*model.SessionRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func toMap(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func ExampleSlug() {
	fmt.Println(Slug("Jörg Müller", "anon"))
	fmt.Println(Slug("  ", "anon"))
	// Output:
	// jorg-muller
	// anon
}
