// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rs/zerolog"
)

// CatalogReloader is the part of the curriculum holder the daemon drives.
type CatalogReloader interface {
	Reload(ctx context.Context) error
	Watch(ctx context.Context) error
}

// App owns the long-lived runtime lifecycle (catalog watcher, reload signal)
// and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	catalog      CatalogReloader
	watchCatalog bool
	reloadSignal os.Signal
}

// NewApp creates a new App orchestrator. catalog may be nil.
func NewApp(logger zerolog.Logger, manager Manager, catalog CatalogReloader, watchCatalog bool) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		catalog:      catalog,
		watchCatalog: watchCatalog,
		reloadSignal: syscall.SIGHUP,
	}
}

// Manager returns the server manager.
func (a *App) Manager() Manager { return a.manager }

// Run starts all owned background subsystems and blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	// Catalog watcher is best-effort: the API keeps serving the last good catalog.
	if a.catalog != nil && a.watchCatalog {
		g.Go(func() error {
			if err := a.catalog.Watch(ctx); err != nil {
				a.logger.Warn().Err(err).Str("event", "catalog.watcher_failed").Msg("catalog watcher stopped")
			}
			return nil
		})
	}

	// SIGHUP trigger for manual catalog reload.
	if a.catalog != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str("event", "catalog.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading curriculum")

					if err := a.catalog.Reload(ctx); err != nil {
						a.logger.Warn().
							Err(err).
							Str("event", "catalog.reload_failed").
							Msg("curriculum reload failed")
					}
				}
			}
		})
	}

	// Main server lifecycle.
	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}
