// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/academy/internal/domain/session/model"
	xglog "github.com/ManuGH/academy/internal/log"
	platformfs "github.com/ManuGH/academy/internal/platform/fs"
	"github.com/google/renameio/v2"
)

const recordExt = ".json"

// FileStore keeps one JSON document per session at <dir>/<id>.json.
// Writes go through a temp file, fsync and rename so readers never observe
// a partially written record.
type FileStore struct {
	dir string
}

// NewFileStore creates the sessions directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("file store: sessions directory required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("file store: create %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the sessions directory.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(id string) (string, error) {
	if err := platformfs.SafeName(id); err != nil {
		return "", model.InvalidArgumentf("session id %q: %v", id, err)
	}
	p, err := platformfs.ConfineRelPath(s.dir, id+recordExt)
	if err != nil {
		return "", model.InvalidArgumentf("session id %q: %v", id, err)
	}
	return p, nil
}

func (s *FileStore) Put(ctx context.Context, rec *model.SessionRecord) error {
	if rec == nil {
		return model.InvalidArgumentf("nil record")
	}
	p, err := s.path(rec.ID)
	if err != nil {
		return err
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return model.NewStorageError("encode", rec.ID, err)
	}

	pending, err := renameio.NewPendingFile(p, renameio.WithPermissions(0o640))
	if err != nil {
		return model.NewStorageError("put", rec.ID, fmt.Errorf("create pending file: %w", err))
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			xglog.FromContext(ctx).Debug().Err(err).Str(xglog.FieldSessionID, rec.ID).Msg("cleanup pending session file")
		}
	}()

	if _, err := pending.Write(data); err != nil {
		return model.NewStorageError("put", rec.ID, fmt.Errorf("write session data: %w", err))
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return model.NewStorageError("put", rec.ID, fmt.Errorf("atomically replace session file: %w", err))
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, id string) (*model.SessionRecord, error) {
	p, err := s.path(id)
	if err != nil {
		return nil, err
	}
	return readRecordFile(p, id)
}

func (s *FileStore) List(ctx context.Context, filter model.ListFilter) ([]*model.SessionRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []*model.SessionRecord{}, nil
		}
		return nil, model.NewStorageError("list", "", err)
	}

	logger := xglog.WithComponentFromContext(ctx, "store")
	all := make([]*model.SessionRecord, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != recordExt {
			continue
		}
		id := strings.TrimSuffix(name, recordExt)
		rec, err := readRecordFile(filepath.Join(s.dir, name), id)
		if err != nil {
			logger.Warn().Err(err).Str(xglog.FieldPath, name).Msg("skipping unreadable session file")
			continue
		}
		all = append(all, rec)
	}
	return filterAndSort(all, filter), nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.ErrNotFound
		}
		return model.NewStorageError("delete", id, err)
	}
	return nil
}

// Ping verifies the sessions directory is still writable.
func (s *FileStore) Ping(_ context.Context) error {
	return platformfs.EnsureWritableDir(s.dir)
}

func (s *FileStore) Close() error { return nil }

func readRecordFile(p, id string) (*model.SessionRecord, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, model.ErrNotFound
		}
		return nil, model.NewStorageError("get", id, err)
	}
	return decodeRecord(data, id)
}

// encodeRecord renders the on-disk form: two-space indent, no HTML escaping.
func encodeRecord(rec *model.SessionRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRecord(data []byte, id string) (*model.SessionRecord, error) {
	var rec model.SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, model.NewStorageError("decode", id, err)
	}
	if rec.ID == "" {
		rec.ID = id
	}
	return &rec, nil
}
