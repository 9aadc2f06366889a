// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ManuGH/academy/internal/domain/session/model"
	"github.com/ManuGH/academy/internal/persistence/sqlite"
)

var sqliteMigrations = []sqlite.Migration{
	{
		Version: 1,
		Stmts: []string{
			`CREATE TABLE IF NOT EXISTS sessions (
				id TEXT PRIMARY KEY,
				user_name TEXT NOT NULL,
				state TEXT NOT NULL,
				created_at TEXT NOT NULL,
				body TEXT NOT NULL,
				updated_at_ms INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_name)`,
			`CREATE INDEX IF NOT EXISTS idx_sessions_state ON sessions(state)`,
		},
	},
	{
		Version: 2,
		Stmts: []string{
			`CREATE TABLE IF NOT EXISTS migration_history (
				module TEXT PRIMARY KEY,
				source_type TEXT NOT NULL,
				source_path TEXT NOT NULL,
				migrated_at_ms INTEGER NOT NULL,
				record_count INTEGER NOT NULL,
				checksum TEXT NOT NULL
			)`,
		},
	},
}

// SqliteStore keeps each record as a JSON body plus indexed filter columns.
type SqliteStore struct {
	DB   *sql.DB
	path string
}

// NewSqliteStore opens (or creates) the database and applies migrations.
func NewSqliteStore(dbPath string) (*SqliteStore, error) {
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if err := sqlite.Migrate(context.Background(), db, sqliteMigrations); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session store: migration failed: %w", err)
	}
	return &SqliteStore{DB: db, path: dbPath}, nil
}

// Path returns the database file path.
func (s *SqliteStore) Path() string { return s.path }

func (s *SqliteStore) Put(ctx context.Context, rec *model.SessionRecord) error {
	if rec == nil {
		return model.InvalidArgumentf("nil record")
	}
	if err := checkID(rec.ID); err != nil {
		return err
	}
	body, err := encodeRecord(rec)
	if err != nil {
		return model.NewStorageError("encode", rec.ID, err)
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO sessions (id, user_name, state, created_at, body, updated_at_ms)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_name = excluded.user_name,
			state = excluded.state,
			created_at = excluded.created_at,
			body = excluded.body,
			updated_at_ms = excluded.updated_at_ms`,
		rec.ID, rec.User, string(rec.State), rec.CreatedAt, string(body), time.Now().UnixMilli())
	return model.NewStorageError("put", rec.ID, err)
}

func (s *SqliteStore) Get(ctx context.Context, id string) (*model.SessionRecord, error) {
	var body string
	err := s.DB.QueryRowContext(ctx, `SELECT body FROM sessions WHERE id = ?`, id).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, model.NewStorageError("get", id, err)
	}
	return decodeRecord([]byte(body), id)
}

func (s *SqliteStore) List(ctx context.Context, filter model.ListFilter) ([]*model.SessionRecord, error) {
	var (
		where []string
		args  []any
	)
	if filter.User != "" {
		where = append(where, "user_name = ?")
		args = append(args, filter.User)
	}
	if filter.State != "" {
		where = append(where, "state = ?")
		args = append(args, string(filter.State))
	}
	query := `SELECT id, body FROM sessions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, model.NewStorageError("list", "", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]*model.SessionRecord, 0)
	for rows.Next() {
		var id, body string
		if err := rows.Scan(&id, &body); err != nil {
			return nil, model.NewStorageError("list", "", err)
		}
		rec, err := decodeRecord([]byte(body), id)
		if err != nil {
			skipUndecodable(ctx, BackendSqlite, id, err)
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewStorageError("list", "", err)
	}
	return out, nil
}

func (s *SqliteStore) Delete(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return model.NewStorageError("delete", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.NewStorageError("delete", id, err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *SqliteStore) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *SqliteStore) Close() error {
	return s.DB.Close()
}
