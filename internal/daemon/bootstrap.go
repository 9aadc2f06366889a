// SPDX-License-Identifier: MIT

// Package daemon provides the core daemon bootstrapping and lifecycle management.
package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuGH/academy/internal/api"
	"github.com/ManuGH/academy/internal/config"
	"github.com/ManuGH/academy/internal/control/middleware"
	"github.com/ManuGH/academy/internal/curriculum"
	sessionmgr "github.com/ManuGH/academy/internal/domain/session/manager"
	"github.com/ManuGH/academy/internal/domain/session/model"
	"github.com/ManuGH/academy/internal/domain/session/store"
	"github.com/ManuGH/academy/internal/health"
	"github.com/ManuGH/academy/internal/log"
	"github.com/ManuGH/academy/internal/ratelimit"
	"github.com/ManuGH/academy/internal/telemetry"
	"golang.org/x/time/rate"
)

const serviceName = "academy"

// Bootstrap wires store, catalog, session service, HTTP API and telemetry from
// cfg and returns the runnable App. Resources are released by the manager's
// shutdown hooks.
func Bootstrap(ctx context.Context, cfg config.AppConfig) (*App, error) {
	logger := log.WithComponent("daemon")

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: cfg.Version,
		Environment:    "production",
		StoreBackend:   cfg.Store.Backend,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("Telemetry initialization failed, continuing without tracing")
		tp = nil
	}

	st, err := store.Open(store.Options{
		Backend: cfg.Store.Backend,
		Path:    cfg.StorePath(),
		Redis: store.RedisOptions{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
			Prefix:   cfg.Store.Redis.Prefix,
		},
	})
	if err != nil {
		shutdownTelemetry(ctx, tp)
		return nil, fmt.Errorf("open session store: %w", err)
	}

	catalog := curriculum.NewHolder(cfg.CurriculumPath())
	if err := catalog.Reload(ctx); err != nil {
		ev := logger.Warn().Err(err).Str(log.FieldPath, cfg.CurriculumPath())
		if errors.Is(err, model.ErrCatalogNotFound) {
			ev.Msg("curriculum not found, sessions start without drills until it appears")
		} else {
			ev.Msg("curriculum invalid, sessions start without drills until it is fixed")
		}
	}

	sessions := sessionmgr.New(st, catalog)

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewStoreChecker(cfg.Store.Backend, st))
	if cfg.Store.Backend == "" || cfg.Store.Backend == store.BackendFile {
		hm.RegisterChecker(health.NewDirChecker("sessions_dir", cfg.StorePath()))
	}
	hm.RegisterChecker(health.NewCatalogChecker(catalog.Loaded))

	trusted, err := middleware.ParseCIDRs(cfg.TrustedProxies)
	if err != nil {
		logger.Warn().Err(err).Msg("invalid trusted proxies configuration, ignoring value")
		trusted = nil
	}

	apiCfg := api.Config{
		Version:   cfg.Version,
		TeamsPath: cfg.TeamsPath(),
		Stack: middleware.StackConfig{
			EnableCORS:            true,
			AllowedOrigins:        cfg.CORS.AllowedOrigins,
			CORSAllowCredentials:  cfg.CORS.AllowCredentials,
			EnableSecurityHeaders: true,
			CSP:                   middleware.DefaultCSP,
			TrustedProxies:        trusted,
			EnableMetrics:         true,
			EnableLogging:         true,
			EnableRateLimit:       cfg.RateLimit.Enabled,
			RateLimitRPM:          cfg.RateLimit.RPM,
		},
	}
	if cfg.Tracing.Enabled && tp != nil {
		apiCfg.Stack.TracingService = serviceName + "-api"
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.WriteRPS > 0 {
		limits := ratelimit.DefaultConfig()
		limits.PerClientRate = rate.Limit(cfg.RateLimit.WriteRPS)
		limits.PerClientBurst = cfg.RateLimit.WriteBurst
		apiCfg.WriteLimit = &limits
	}

	srv, err := api.New(apiCfg, api.Deps{Sessions: sessions, Catalog: catalog, Health: hm})
	if err != nil {
		_ = st.Close()
		shutdownTelemetry(ctx, tp)
		return nil, err
	}

	mgr, err := NewManager(DefaultServerConfig(cfg.ListenAddr, cfg.ShutdownTimeout), Deps{
		Logger:     logger,
		APIHandler: srv.Handler(),
	})
	if err != nil {
		_ = st.Close()
		shutdownTelemetry(ctx, tp)
		return nil, err
	}

	// LIFO: the store closes before telemetry flushes.
	if tp != nil {
		mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	}
	mgr.RegisterShutdownHook("session_store", func(context.Context) error {
		return st.Close()
	})

	logger.Info().
		Str("version", cfg.Version).
		Str(log.FieldBackend, cfg.Store.Backend).
		Str("store_path", cfg.StorePath()).
		Str("curriculum", cfg.CurriculumPath()).
		Bool("catalog_watch", cfg.Curriculum.Watch).
		Bool("tracing", apiCfg.Stack.TracingService != "").
		Msg("daemon bootstrapped")

	return NewApp(logger, mgr, catalog, cfg.Curriculum.Watch), nil
}

func shutdownTelemetry(ctx context.Context, tp *telemetry.Provider) {
	if tp == nil {
		return
	}
	_ = tp.Shutdown(context.WithoutCancel(ctx))
}
