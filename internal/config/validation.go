// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"net"
	"strings"

	"github.com/ManuGH/academy/internal/validate"
)

// StoreBackends lists the accepted store.backend values.
var StoreBackends = []string{"file", "memory", "sqlite", "badger", "redis"}

// Validate checks cfg and returns a validate.ValidationError listing every problem.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.NotEmpty("dataDir", cfg.DataDir)
	v.ListenAddr("listenAddr", cfg.ListenAddr)
	v.OneOf("logLevel", strings.ToLower(cfg.LogLevel), validate.Levels())
	if cfg.ShutdownTimeout <= 0 {
		v.AddError("shutdownTimeout", "must be positive", cfg.ShutdownTimeout)
	}
	for _, cidr := range splitList(cfg.TrustedProxies) {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			v.AddError("trustedProxies", "invalid CIDR", cidr)
		}
	}

	v.OneOf("store.backend", cfg.Store.Backend, StoreBackends)
	if cfg.Store.Backend == "redis" {
		v.HostPort("store.redis.addr", cfg.Store.Redis.Addr)
		v.Range("store.redis.db", cfg.Store.Redis.DB, 0, 15)
	}

	for _, origin := range cfg.CORS.AllowedOrigins {
		if origin == "*" {
			if cfg.CORS.AllowCredentials {
				v.AddError("cors.allowedOrigins", "wildcard origin cannot be combined with credentials", origin)
			}
			continue
		}
		v.URL("cors.allowedOrigins", origin, []string{"http", "https"})
	}

	if cfg.RateLimit.Enabled {
		v.Positive("rateLimit.rpm", cfg.RateLimit.RPM)
		v.FloatRange("rateLimit.writeRps", cfg.RateLimit.WriteRPS, 0.01, 10000)
		v.Positive("rateLimit.writeBurst", cfg.RateLimit.WriteBurst)
	}

	if cfg.Tracing.Enabled {
		v.OneOf("tracing.exporter", cfg.Tracing.Exporter, []string{"grpc", "http"})
		v.HostPort("tracing.endpoint", cfg.Tracing.Endpoint)
		v.FloatRange("tracing.samplingRate", cfg.Tracing.SamplingRate, 0, 1)
	}

	return v.Err()
}
