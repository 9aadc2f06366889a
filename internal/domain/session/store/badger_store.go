// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"errors"

	"github.com/ManuGH/academy/internal/domain/session/model"
	"github.com/dgraph-io/badger/v4"
)

const badgerSessionPrefix = "sess:"

// BadgerStore keeps records under key "sess:<id>" as JSON.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens the database at path. An empty path runs in memory.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func badgerKey(id string) []byte {
	return []byte(badgerSessionPrefix + id)
}

func (s *BadgerStore) Put(_ context.Context, rec *model.SessionRecord) error {
	if rec == nil {
		return model.InvalidArgumentf("nil record")
	}
	if err := checkID(rec.ID); err != nil {
		return err
	}
	buf, err := encodeRecord(rec)
	if err != nil {
		return model.NewStorageError("encode", rec.ID, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(rec.ID), buf)
	})
	return model.NewStorageError("put", rec.ID, err)
}

func (s *BadgerStore) Get(_ context.Context, id string) (*model.SessionRecord, error) {
	var out *model.SessionRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			rec, err := decodeRecord(val, id)
			out = rec
			return err
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, model.NewStorageError("get", id, err)
	}
	return out, nil
}

func (s *BadgerStore) List(ctx context.Context, filter model.ListFilter) ([]*model.SessionRecord, error) {
	prefix := []byte(badgerSessionPrefix)
	var all []*model.SessionRecord
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			item := it.Item()
			id := string(item.Key()[len(prefix):])
			if err := item.Value(func(val []byte) error {
				rec, err := decodeRecord(val, id)
				if err != nil {
					skipUndecodable(ctx, BackendBadger, id, err)
					return nil
				}
				all = append(all, rec)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, model.NewStorageError("list", "", err)
	}
	return filterAndSort(all, filter), nil
}

func (s *BadgerStore) Delete(_ context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(badgerKey(id)); err != nil {
			return err
		}
		return txn.Delete(badgerKey(id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return model.ErrNotFound
	}
	return model.NewStorageError("delete", id, err)
}

func (s *BadgerStore) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger: database closed")
	}
	return nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }
