// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package curriculum

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/ManuGH/academy/internal/domain/session/model"
	xglog "github.com/ManuGH/academy/internal/log"
	"github.com/ManuGH/academy/internal/metrics"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 250 * time.Millisecond

// Holder keeps the current catalog and swaps it atomically on reload.
// A reload that fails to read or validate keeps the previous catalog.
type Holder struct {
	path     string
	debounce time.Duration
	logger   zerolog.Logger

	mu      sync.RWMutex
	current *Catalog
}

// NewHolder creates a holder for the catalog at path. Nothing is read until
// Reload is called.
func NewHolder(path string) *Holder {
	return &Holder{
		path:     path,
		debounce: DefaultDebounce,
		logger:   xglog.WithComponent("curriculum"),
	}
}

// Path returns the watched catalog file.
func (h *Holder) Path() string { return h.path }

// Get returns the current catalog or model.ErrCatalogNotFound if none has
// been loaded.
func (h *Holder) Get() (*Catalog, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrCatalogNotFound, h.path)
	}
	return h.current, nil
}

// Loaded reports whether a catalog is available.
func (h *Holder) Loaded() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current != nil
}

// FindDrills resolves drills from the current catalog. Without a catalog no
// drills are found.
func (h *Holder) FindDrills(moduleID, drillID string) []json.RawMessage {
	c, err := h.Get()
	if err != nil {
		return nil
	}
	return c.FindDrills(moduleID, drillID)
}

// Reload reads the catalog file and swaps it in when it parses and validates.
func (h *Holder) Reload(_ context.Context) error {
	next, err := Load(h.path)
	if err != nil {
		metrics.RecordCatalogReload("error")
		h.logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "catalog.reload_failed").
			Str(xglog.FieldPath, h.path).
			Bool("kept_previous", h.Loaded()).
			Msg("catalog reload failed")
		return err
	}

	h.mu.Lock()
	h.current = next
	h.mu.Unlock()

	metrics.RecordCatalogReload("success")
	h.logger.Info().
		Str(xglog.FieldEvent, "catalog.reloaded").
		Str(xglog.FieldPath, h.path).
		Int("tracks", len(next.Tracks)).
		Msg("catalog loaded")
	return nil
}

// Watch reloads the catalog whenever its file changes until ctx is done.
// The parent directory is watched so atomic replaces are picked up.
func (h *Holder) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(h.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch catalog dir: %w", err)
	}
	name := filepath.Clean(h.path)

	h.logger.Info().
		Str(xglog.FieldEvent, "catalog.watcher_started").
		Str(xglog.FieldPath, h.path).
		Msg("watching catalog for changes")

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Str(xglog.FieldEvent, "catalog.watcher_stopped").Msg("catalog watcher stopped")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			h.logger.Debug().
				Str(xglog.FieldEvent, "catalog.file_changed").
				Str("op", event.Op.String()).
				Msg("catalog file changed")
			if timer == nil {
				timer = time.NewTimer(h.debounce)
			} else {
				timer.Stop()
				timer.Reset(h.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			_ = h.Reload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			h.logger.Error().
				Err(err).
				Str(xglog.FieldEvent, "catalog.watcher_error").
				Msg("catalog watcher error")
		}
	}
}
