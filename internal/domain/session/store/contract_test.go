// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/ManuGH/academy/internal/domain/session/model"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(id, user string, state model.SessionState, createdAt string) *model.SessionRecord {
	return &model.SessionRecord{
		ID:           id,
		User:         user,
		CreatedBy:    user,
		ModuleID:     "A1",
		Goal:         "watch forecheck",
		Confidence:   3,
		State:        state,
		CurrentPhase: model.PhasePre,
		CreatedAt:    createdAt,
		Drills:       []json.RawMessage{json.RawMessage(`{"id":"d1","type":"period_checkin"}`)},
		Progress:     model.Progress{CompletedDrills: []any{}},
		Checkins: []model.Checkin{
			{Phase: "P1", Answers: map[string]any{"q1": "yes"}, Timestamp: "2025-01-01T10:00:00.000000Z"},
		},
		Drafts:        map[string]any{"P2": map[string]any{"q": "draft"}},
		GameInfo:      map[string]any{"home": "EBB", "away": "KEC"},
		Microfeedback: model.EmptyMicrofeedback(),
		Extra:         map[string]json.RawMessage{"legacy": json.RawMessage(`"kept"`)},
	}
}

// rawWriter stores body under id bypassing record encoding.
type rawWriter func(t *testing.T, s Store, id string, body []byte)

// runContract exercises the behaviour every backend must share.
func runContract(t *testing.T, newStore func(t *testing.T) Store, writeRaw rawWriter) {
	t.Helper()
	ctx := context.Background()

	t.Run("put then get round trips", func(t *testing.T) {
		s := newStore(t)
		rec := sampleRecord("anna_a1_20250101_1", "anna", model.StateInProgress, "2025-01-01T09:00:00.000000Z")
		require.NoError(t, s.Put(ctx, rec))

		got, err := s.Get(ctx, rec.ID)
		require.NoError(t, err)
		if diff := cmp.Diff(mustJSON(t, rec), mustJSON(t, got)); diff != "" {
			t.Errorf("record mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("put replaces", func(t *testing.T) {
		s := newStore(t)
		rec := sampleRecord("r1", "anna", model.StateInProgress, "2025-01-01T09:00:00.000000Z")
		require.NoError(t, s.Put(ctx, rec))
		rec.State = model.StateCompleted
		require.NoError(t, s.Put(ctx, rec))

		got, err := s.Get(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, model.StateCompleted, got.State)

		all, err := s.List(ctx, model.ListFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("get missing is not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, sampleRecord("r1", "anna", model.StateInProgress, "2025-01-01T09:00:00.000000Z")))
		require.NoError(t, s.Delete(ctx, "r1"))

		_, err := s.Get(ctx, "r1")
		assert.ErrorIs(t, err, model.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "r1"), model.ErrNotFound)
	})

	t.Run("list filters and orders newest first", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, sampleRecord("a-old", "anna", model.StateCompleted, "2025-01-01T09:00:00.000000Z")))
		require.NoError(t, s.Put(ctx, sampleRecord("a-new", "anna", model.StateInProgress, "2025-01-03T09:00:00.000000Z")))
		require.NoError(t, s.Put(ctx, sampleRecord("b-mid", "ben", model.StateInProgress, "2025-01-02T09:00:00.000000Z")))

		all, err := s.List(ctx, model.ListFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"a-new", "b-mid", "a-old"}, ids(all))

		byUser, err := s.List(ctx, model.ListFilter{User: "anna"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a-new", "a-old"}, ids(byUser))

		byState, err := s.List(ctx, model.ListFilter{State: model.StateInProgress})
		require.NoError(t, err)
		assert.Equal(t, []string{"a-new", "b-mid"}, ids(byState))

		both, err := s.List(ctx, model.ListFilter{User: "ben", State: model.StateCompleted})
		require.NoError(t, err)
		assert.Empty(t, both)
	})

	t.Run("list skips undecodable records", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, sampleRecord("good", "anna", model.StateInProgress, "2025-01-01T09:00:00.000000Z")))
		writeRaw(t, s, "bad", []byte("{not json"))

		all, err := s.List(ctx, model.ListFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{"good"}, ids(all))

		byUser, err := s.List(ctx, model.ListFilter{User: "anna"})
		require.NoError(t, err)
		assert.Equal(t, []string{"good"}, ids(byUser))

		_, err = s.Get(ctx, "bad")
		assert.True(t, model.IsStorage(err), "got %v", err)
	})

	t.Run("empty id rejected", func(t *testing.T) {
		s := newStore(t)
		err := s.Put(ctx, sampleRecord("", "anna", model.StateInProgress, "2025-01-01T09:00:00.000000Z"))
		assert.ErrorIs(t, err, model.ErrInvalidArgument)
	})

	t.Run("concurrent puts of distinct ids", func(t *testing.T) {
		s := newStore(t)
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id := fmt.Sprintf("c-%02d", i)
				assert.NoError(t, s.Put(ctx, sampleRecord(id, "anna", model.StateInProgress, "2025-01-01T09:00:00.000000Z")))
			}(i)
		}
		wg.Wait()

		all, err := s.List(ctx, model.ListFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 16)
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Ping(ctx))
	})
}

func ids(recs []*model.SessionRecord) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func mustJSON(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}
