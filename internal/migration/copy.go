// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package migration copies session records between store backends and keeps
// a history of completed copies in the target database.
package migration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gowebpki/jcs"

	"github.com/ManuGH/academy/internal/domain/session/model"
	"github.com/ManuGH/academy/internal/domain/session/store"
	xglog "github.com/ManuGH/academy/internal/log"
)

// Report summarizes one copy or verification pass.
type Report struct {
	Count    int
	Checksum string
}

// Checksum hashes the canonical JSON of recs in id order. Two stores holding
// the same records yield the same checksum regardless of backend.
func Checksum(recs []*model.SessionRecord) (string, error) {
	sorted := make([]*model.SessionRecord, len(recs))
	copy(sorted, recs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	h := sha256.New()
	for _, rec := range sorted {
		raw, err := json.Marshal(rec)
		if err != nil {
			return "", fmt.Errorf("marshal session %s: %w", rec.ID, err)
		}
		canon, err := jcs.Transform(raw)
		if err != nil {
			return "", fmt.Errorf("canonicalize session %s: %w", rec.ID, err)
		}
		sum := sha256.Sum256(canon)
		h.Write(sum[:])
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CopySessions writes every record of src into dst. With dryRun set nothing
// is written and the report describes what would be copied.
func CopySessions(ctx context.Context, src, dst store.Store, dryRun bool) (Report, error) {
	logger := xglog.WithComponentFromContext(ctx, "migration")

	recs, err := src.List(ctx, model.ListFilter{})
	if err != nil {
		return Report{}, fmt.Errorf("list source sessions: %w", err)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })

	if !dryRun {
		for _, rec := range recs {
			if err := ctx.Err(); err != nil {
				return Report{}, err
			}
			if err := dst.Put(ctx, rec); err != nil {
				return Report{}, fmt.Errorf("write session %s: %w", rec.ID, err)
			}
			logger.Debug().Str(xglog.FieldSessionID, rec.ID).Msg("session copied")
		}
	}

	sum, err := Checksum(recs)
	if err != nil {
		return Report{}, err
	}
	logger.Info().Int("count", len(recs)).Bool("dry_run", dryRun).Str("checksum", sum).Msg("session copy finished")
	return Report{Count: len(recs), Checksum: sum}, nil
}

// Verify compares the records of src and dst by count and checksum.
func Verify(ctx context.Context, src, dst store.Store) (Report, error) {
	srcRecs, err := src.List(ctx, model.ListFilter{})
	if err != nil {
		return Report{}, fmt.Errorf("list source sessions: %w", err)
	}
	dstRecs, err := dst.List(ctx, model.ListFilter{})
	if err != nil {
		return Report{}, fmt.Errorf("list target sessions: %w", err)
	}
	srcSum, err := Checksum(srcRecs)
	if err != nil {
		return Report{}, err
	}
	dstSum, err := Checksum(dstRecs)
	if err != nil {
		return Report{}, err
	}
	if len(srcRecs) != len(dstRecs) {
		return Report{}, fmt.Errorf("count mismatch: source %d, target %d", len(srcRecs), len(dstRecs))
	}
	if srcSum != dstSum {
		return Report{}, fmt.Errorf("checksum mismatch: source %s, target %s", srcSum, dstSum)
	}
	return Report{Count: len(srcRecs), Checksum: srcSum}, nil
}
