// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"time"

	"github.com/ManuGH/academy/internal/domain/session/model"
	"github.com/ManuGH/academy/internal/metrics"
)

type instrumented struct {
	inner   Store
	backend string
}

// Instrument wraps s so every call feeds the store latency and error metrics.
func Instrument(s Store, backend string) Store {
	if _, ok := s.(*instrumented); ok {
		return s
	}
	return &instrumented{inner: s, backend: backend}
}

// Unwrap returns the underlying backend.
func Unwrap(s Store) Store {
	if i, ok := s.(*instrumented); ok {
		return i.inner
	}
	return s
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	metrics.ObserveStoreOp(i.backend, op, time.Since(start), model.IsStorage(err))
}

func (i *instrumented) Put(ctx context.Context, rec *model.SessionRecord) (err error) {
	defer func(start time.Time) { i.observe("put", start, err) }(time.Now())
	return i.inner.Put(ctx, rec)
}

func (i *instrumented) Get(ctx context.Context, id string) (_ *model.SessionRecord, err error) {
	defer func(start time.Time) { i.observe("get", start, err) }(time.Now())
	return i.inner.Get(ctx, id)
}

func (i *instrumented) List(ctx context.Context, filter model.ListFilter) (_ []*model.SessionRecord, err error) {
	defer func(start time.Time) { i.observe("list", start, err) }(time.Now())
	return i.inner.List(ctx, filter)
}

func (i *instrumented) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { i.observe("delete", start, err) }(time.Now())
	return i.inner.Delete(ctx, id)
}

func (i *instrumented) Ping(ctx context.Context) error { return i.inner.Ping(ctx) }

func (i *instrumented) Close() error { return i.inner.Close() }
