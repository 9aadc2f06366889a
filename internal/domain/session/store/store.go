// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package store persists session records keyed by session id.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/ManuGH/academy/internal/domain/session/model"
	xglog "github.com/ManuGH/academy/internal/log"
)

// Store is the durable record store. Implementations return model.ErrNotFound
// for unknown ids and wrap backend failures in *model.StorageError.
type Store interface {
	Put(ctx context.Context, rec *model.SessionRecord) error
	Get(ctx context.Context, id string) (*model.SessionRecord, error)
	List(ctx context.Context, filter model.ListFilter) ([]*model.SessionRecord, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSqlite = "sqlite"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// RedisOptions configures the redis backend.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Options selects and configures a backend.
type Options struct {
	Backend string
	// Path is the sessions directory (file), database file (sqlite)
	// or database directory (badger).
	Path  string
	Redis RedisOptions
}

// Open creates a Store based on the backend configuration.
// Every backend is wrapped with latency and error metrics.
func Open(opts Options) (Store, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	if backend == "" {
		backend = BackendFile
	}

	var (
		s   Store
		err error
	)
	switch backend {
	case BackendFile:
		s, err = NewFileStore(opts.Path)
	case BackendMemory:
		s = NewMemoryStore()
	case BackendSqlite:
		s, err = NewSqliteStore(opts.Path)
	case BackendBadger:
		s, err = OpenBadgerStore(opts.Path)
	case BackendRedis:
		s, err = NewRedisStore(opts.Redis)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(s, backend), nil
}

// ParseLocation splits a "backend:path" location as used by the migration tool.
// A bare path selects the file backend.
func ParseLocation(loc string) (Options, error) {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return Options{}, fmt.Errorf("empty store location")
	}
	backend, rest, found := strings.Cut(loc, ":")
	if !found {
		return Options{Backend: BackendFile, Path: loc}, nil
	}
	switch backend {
	case BackendFile, BackendSqlite, BackendBadger, BackendMemory:
		return Options{Backend: backend, Path: rest}, nil
	case BackendRedis:
		return Options{Backend: backend, Redis: RedisOptions{Addr: rest}}, nil
	default:
		return Options{}, fmt.Errorf("unknown store backend in %q", loc)
	}
}

// skipUndecodable logs a record a listing could not decode. Listings leave
// such records out; Get still reports them as storage errors.
func skipUndecodable(ctx context.Context, backend, id string, err error) {
	logger := xglog.WithComponentFromContext(ctx, "store")
	logger.Warn().
		Err(err).
		Str(xglog.FieldBackend, backend).
		Str(xglog.FieldSessionID, id).
		Msg("skipping undecodable session record")
}

func filterAndSort(all []*model.SessionRecord, filter model.ListFilter) []*model.SessionRecord {
	out := make([]*model.SessionRecord, 0, len(all))
	for _, rec := range all {
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	model.SortNewestFirst(out)
	return out
}

func checkID(id string) error {
	if strings.TrimSpace(id) == "" {
		return model.InvalidArgumentf("empty session id")
	}
	return nil
}
