// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package migration

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/academy/internal/domain/session/model"
	"github.com/ManuGH/academy/internal/domain/session/store"
)

func seed(t *testing.T, s store.Store, ids ...string) {
	t.Helper()
	for i, id := range ids {
		rec := &model.SessionRecord{
			ID:        id,
			User:      "anna",
			ModuleID:  "m1",
			State:     model.StatePre,
			CreatedAt: fmt.Sprintf("2025-01-%02dT10:00:00.000000Z", i+1),
			Drafts:    map[string]any{},
		}
		require.NoError(t, s.Put(context.Background(), rec))
	}
}

func TestCopySessions(t *testing.T) {
	ctx := context.Background()
	src := store.NewMemoryStore()
	seed(t, src, "b", "a", "c")

	dst, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)

	rep, err := CopySessions(ctx, src, dst, false)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Count)
	assert.Len(t, rep.Checksum, 64)

	got, err := dst.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "anna", got.User)

	verified, err := Verify(ctx, src, dst)
	require.NoError(t, err)
	assert.Equal(t, rep, verified)
}

func TestCopySessions_DryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	src := store.NewMemoryStore()
	seed(t, src, "a", "b")
	dst := store.NewMemoryStore()

	rep, err := CopySessions(ctx, src, dst, true)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Count)

	recs, err := dst.List(ctx, model.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, recs)

	_, err = Verify(ctx, src, dst)
	assert.ErrorContains(t, err, "count mismatch")
}

func TestVerify_DetectsChangedRecord(t *testing.T) {
	ctx := context.Background()
	src := store.NewMemoryStore()
	seed(t, src, "a")
	dst := store.NewMemoryStore()
	_, err := CopySessions(ctx, src, dst, false)
	require.NoError(t, err)

	rec, err := dst.Get(ctx, "a")
	require.NoError(t, err)
	rec.Goal = "changed"
	require.NoError(t, dst.Put(ctx, rec))

	_, err = Verify(ctx, src, dst)
	assert.ErrorContains(t, err, "checksum mismatch")
}

func TestChecksum_OrderIndependent(t *testing.T) {
	a := &model.SessionRecord{ID: "a", User: "x"}
	b := &model.SessionRecord{ID: "b", User: "y"}

	s1, err := Checksum([]*model.SessionRecord{a, b})
	require.NoError(t, err)
	s2, err := Checksum([]*model.SessionRecord{b, a})
	require.NoError(t, err)
	assert.Equal(t, s1, s2)

	empty, err := Checksum(nil)
	require.NoError(t, err)
	assert.NotEqual(t, s1, empty)
}

func TestHistory(t *testing.T) {
	sq, err := store.NewSqliteStore(filepath.Join(t.TempDir(), "sessions.sqlite"))
	require.NoError(t, err)
	defer func() { _ = sq.Close() }()

	done, err := IsMigrated(sq.DB, ModuleSessions)
	require.NoError(t, err)
	assert.False(t, done)

	rec := HistoryRecord{
		Module:       ModuleSessions,
		SourceType:   "file",
		SourcePath:   "/data/sessions",
		MigratedAtMs: 1000,
		RecordCount:  3,
		Checksum:     "abc",
	}
	require.NoError(t, RecordMigration(sq.DB, rec))

	rec.RecordCount = 4
	rec.MigratedAtMs = 2000
	require.NoError(t, RecordMigration(sq.DB, rec))

	done, err = IsMigrated(sq.DB, ModuleSessions)
	require.NoError(t, err)
	assert.True(t, done)

	hist, err := GetHistory(sq.DB)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, rec, hist[0])

	assert.Error(t, RecordMigration(sq.DB, HistoryRecord{}))
}
