// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package migration

import (
	"database/sql"
	"errors"
	"fmt"
)

// ModuleSessions is the history key of the session record copy.
const ModuleSessions = "sessions"

// HistoryRecord is one row of the migration_history table.
type HistoryRecord struct {
	Module       string
	SourceType   string
	SourcePath   string
	MigratedAtMs int64
	RecordCount  int
	Checksum     string
}

// IsMigrated reports whether module already has a history row.
func IsMigrated(db *sql.DB, module string) (bool, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM migration_history WHERE module = ?", module).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query migration history: %w", err)
	}
	return n > 0, nil
}

// RecordMigration upserts the history row for rec.Module.
func RecordMigration(db *sql.DB, rec HistoryRecord) error {
	if rec.Module == "" {
		return errors.New("history record without module")
	}
	_, err := db.Exec(`
		INSERT INTO migration_history (module, source_type, source_path, migrated_at_ms, record_count, checksum)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(module) DO UPDATE SET
			source_type = excluded.source_type,
			source_path = excluded.source_path,
			migrated_at_ms = excluded.migrated_at_ms,
			record_count = excluded.record_count,
			checksum = excluded.checksum
	`, rec.Module, rec.SourceType, rec.SourcePath, rec.MigratedAtMs, rec.RecordCount, rec.Checksum)
	if err != nil {
		return fmt.Errorf("record migration %s: %w", rec.Module, err)
	}
	return nil
}

// GetHistory returns all history rows ordered by module.
func GetHistory(db *sql.DB) ([]HistoryRecord, error) {
	rows, err := db.Query(`
		SELECT module, source_type, source_path, migrated_at_ms, record_count, checksum
		FROM migration_history ORDER BY module`)
	if err != nil {
		return nil, fmt.Errorf("query migration history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []HistoryRecord
	for rows.Next() {
		var h HistoryRecord
		if err := rows.Scan(&h.Module, &h.SourceType, &h.SourcePath, &h.MigratedAtMs, &h.RecordCount, &h.Checksum); err != nil {
			return nil, fmt.Errorf("scan migration history: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
