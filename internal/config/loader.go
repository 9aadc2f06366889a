// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment keys.
const (
	EnvDataDir          = "ACADEMY_DATA"
	EnvListen           = "ACADEMY_LISTEN"
	EnvShutdownTimeout  = "ACADEMY_SHUTDOWN_TIMEOUT"
	EnvTrustedProxies   = "ACADEMY_TRUSTED_PROXIES"
	EnvStoreBackend     = "ACADEMY_STORE_BACKEND"
	EnvStorePath        = "ACADEMY_STORE_PATH"
	EnvRedisAddr        = "ACADEMY_REDIS_ADDR"
	EnvRedisPassword    = "ACADEMY_REDIS_PASSWORD"
	EnvRedisDB          = "ACADEMY_REDIS_DB"
	EnvRedisPrefix      = "ACADEMY_REDIS_PREFIX"
	EnvCurriculum       = "ACADEMY_CURRICULUM"
	EnvTeams            = "ACADEMY_TEAMS"
	EnvCatalogWatch     = "ACADEMY_CATALOG_WATCH"
	EnvCORSOrigins      = "ACADEMY_CORS_ORIGINS"
	EnvRateLimitEnabled = "ACADEMY_RATELIMIT_ENABLED"
	EnvRateLimitRPM     = "ACADEMY_RATELIMIT_RPM"
	EnvWriteRPS         = "ACADEMY_RATELIMIT_WRITE_RPS"
	EnvWriteBurst       = "ACADEMY_RATELIMIT_WRITE_BURST"
	EnvTracingEnabled   = "ACADEMY_TRACING_ENABLED"
	EnvTracingExporter  = "ACADEMY_TRACING_EXPORTER"
	EnvTracingEndpoint  = "ACADEMY_TRACING_ENDPOINT"
	EnvTracingSampling  = "ACADEMY_TRACING_SAMPLING"
	EnvLogLevel         = "LOG_LEVEL"
	EnvLogService       = "LOG_SERVICE"
)

// DefaultCORSOrigins are the local frontend dev servers.
var DefaultCORSOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5174",
	"http://localhost:5175",
	"http://localhost:3000",
	"http://localhost:3001",
}

// Loader handles configuration loading with precedence ENV > file > defaults.
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a loader. configPath may be empty for env-only configuration.
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, def string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, def)
}

func (l *Loader) envBool(key string, def bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, def)
}

func (l *Loader) envInt(key string, def int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, def)
}

func (l *Loader) envFloat(key string, def float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, def)
}

func (l *Loader) envDuration(key string, def time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, def)
}

func (l *Loader) envList(key string, def []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseList(key, def)
}

// Load resolves defaults, then the YAML file, then the environment, and
// validates the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		DataDir:         "data/academy",
		ListenAddr:      ":8000",
		LogLevel:        "info",
		LogService:      "academy",
		ShutdownTimeout: 15 * time.Second,
		Store:           StoreConfig{Backend: "file", Redis: RedisConfig{Addr: "localhost:6379", Prefix: "academy:"}},
		Curriculum:      CurriculumConfig{Watch: true},
		CORS:            CORSConfig{AllowedOrigins: append([]string(nil), DefaultCORSOrigins...), AllowCredentials: true},
		RateLimit:       RateLimitConfig{Enabled: true, RPM: 600, WriteRPS: 10, WriteBurst: 20},
		Tracing:         TracingConfig{Exporter: "grpc", Endpoint: "localhost:4317", SamplingRate: 1.0},
	}
}

// LoadFileConfig parses a YAML file without defaults or env overrides.
func LoadFileConfig(path string) (*FileConfig, error) {
	return NewLoader(path, "").loadFile(path)
}

// loadFile parses the YAML file strictly: unknown keys and trailing
// documents are errors.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

func mergeFileConfig(cfg *AppConfig, f *FileConfig) error {
	setString(&cfg.DataDir, f.DataDir)
	setString(&cfg.ListenAddr, f.ListenAddr)
	setString(&cfg.LogLevel, f.LogLevel)
	setString(&cfg.TrustedProxies, f.TrustedProxies)
	if f.ShutdownTimeout != "" {
		d, err := time.ParseDuration(f.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("shutdownTimeout: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	if s := f.Store; s != nil {
		setString(&cfg.Store.Backend, s.Backend)
		setString(&cfg.Store.Path, s.Path)
		if r := s.Redis; r != nil {
			setString(&cfg.Store.Redis.Addr, r.Addr)
			setString(&cfg.Store.Redis.Password, r.Password)
			setString(&cfg.Store.Redis.Prefix, r.Prefix)
			if r.DB != nil {
				cfg.Store.Redis.DB = *r.DB
			}
		}
	}
	if c := f.Curriculum; c != nil {
		setString(&cfg.Curriculum.Path, c.Path)
		setString(&cfg.Curriculum.TeamsPath, c.TeamsPath)
		if c.Watch != nil {
			cfg.Curriculum.Watch = *c.Watch
		}
	}
	if c := f.CORS; c != nil {
		if c.AllowedOrigins != nil {
			cfg.CORS.AllowedOrigins = c.AllowedOrigins
		}
		if c.AllowCredentials != nil {
			cfg.CORS.AllowCredentials = *c.AllowCredentials
		}
	}
	if r := f.RateLimit; r != nil {
		if r.Enabled != nil {
			cfg.RateLimit.Enabled = *r.Enabled
		}
		if r.RPM != nil {
			cfg.RateLimit.RPM = *r.RPM
		}
		if r.WriteRPS != nil {
			cfg.RateLimit.WriteRPS = *r.WriteRPS
		}
		if r.WriteBurst != nil {
			cfg.RateLimit.WriteBurst = *r.WriteBurst
		}
	}
	if t := f.Tracing; t != nil {
		if t.Enabled != nil {
			cfg.Tracing.Enabled = *t.Enabled
		}
		setString(&cfg.Tracing.Exporter, t.Exporter)
		setString(&cfg.Tracing.Endpoint, t.Endpoint)
		if t.SamplingRate != nil {
			cfg.Tracing.SamplingRate = *t.SamplingRate
		}
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.DataDir = l.envString(EnvDataDir, cfg.DataDir)
	cfg.ListenAddr = l.envString(EnvListen, cfg.ListenAddr)
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)
	cfg.LogService = l.envString(EnvLogService, cfg.LogService)
	cfg.ShutdownTimeout = l.envDuration(EnvShutdownTimeout, cfg.ShutdownTimeout)
	cfg.TrustedProxies = l.envString(EnvTrustedProxies, cfg.TrustedProxies)

	cfg.Store.Backend = l.envString(EnvStoreBackend, cfg.Store.Backend)
	cfg.Store.Path = l.envString(EnvStorePath, cfg.Store.Path)
	cfg.Store.Redis.Addr = l.envString(EnvRedisAddr, cfg.Store.Redis.Addr)
	cfg.Store.Redis.Password = l.envString(EnvRedisPassword, cfg.Store.Redis.Password)
	cfg.Store.Redis.DB = l.envInt(EnvRedisDB, cfg.Store.Redis.DB)
	cfg.Store.Redis.Prefix = l.envString(EnvRedisPrefix, cfg.Store.Redis.Prefix)

	cfg.Curriculum.Path = l.envString(EnvCurriculum, cfg.Curriculum.Path)
	cfg.Curriculum.TeamsPath = l.envString(EnvTeams, cfg.Curriculum.TeamsPath)
	cfg.Curriculum.Watch = l.envBool(EnvCatalogWatch, cfg.Curriculum.Watch)

	cfg.CORS.AllowedOrigins = l.envList(EnvCORSOrigins, cfg.CORS.AllowedOrigins)

	cfg.RateLimit.Enabled = l.envBool(EnvRateLimitEnabled, cfg.RateLimit.Enabled)
	cfg.RateLimit.RPM = l.envInt(EnvRateLimitRPM, cfg.RateLimit.RPM)
	cfg.RateLimit.WriteRPS = l.envFloat(EnvWriteRPS, cfg.RateLimit.WriteRPS)
	cfg.RateLimit.WriteBurst = l.envInt(EnvWriteBurst, cfg.RateLimit.WriteBurst)

	cfg.Tracing.Enabled = l.envBool(EnvTracingEnabled, cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = l.envString(EnvTracingExporter, cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = l.envString(EnvTracingEndpoint, cfg.Tracing.Endpoint)
	cfg.Tracing.SamplingRate = l.envFloat(EnvTracingSampling, cfg.Tracing.SamplingRate)
}
