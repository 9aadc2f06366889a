// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"sync"

	"github.com/ManuGH/academy/internal/domain/session/model"
)

// MemoryStore keeps encoded records in a map. Used by tests and the dry-run migration.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, rec *model.SessionRecord) error {
	if rec == nil {
		return model.InvalidArgumentf("nil record")
	}
	if err := checkID(rec.ID); err != nil {
		return err
	}
	data, err := encodeRecord(rec)
	if err != nil {
		return model.NewStorageError("encode", rec.ID, err)
	}
	s.mu.Lock()
	s.recs[rec.ID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*model.SessionRecord, error) {
	s.mu.RLock()
	data, ok := s.recs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, model.ErrNotFound
	}
	return decodeRecord(data, id)
}

func (s *MemoryStore) List(ctx context.Context, filter model.ListFilter) ([]*model.SessionRecord, error) {
	s.mu.RLock()
	all := make([]*model.SessionRecord, 0, len(s.recs))
	for id, data := range s.recs {
		rec, err := decodeRecord(data, id)
		if err != nil {
			skipUndecodable(ctx, BackendMemory, id, err)
			continue
		}
		all = append(all, rec)
	}
	s.mu.RUnlock()
	return filterAndSort(all, filter), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[id]; !ok {
		return model.ErrNotFound
	}
	delete(s.recs, id)
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.recs)
}
