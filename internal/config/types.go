// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"path/filepath"
	"time"
)

// AppConfig is the resolved runtime configuration.
type AppConfig struct {
	Version         string
	DataDir         string
	ListenAddr      string
	LogLevel        string
	LogService      string
	ShutdownTimeout time.Duration
	TrustedProxies  string

	Store      StoreConfig
	Curriculum CurriculumConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
	Tracing    TracingConfig
}

// StoreConfig selects the session record backend.
type StoreConfig struct {
	Backend string
	// Path is the sessions directory (file), database file (sqlite) or
	// directory (badger). Empty means derived from DataDir.
	Path  string
	Redis RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type CurriculumConfig struct {
	Path      string
	TeamsPath string
	Watch     bool
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowCredentials bool
}

// RateLimitConfig bounds request rates. RPM applies per client to the whole
// API; WriteRPS and WriteBurst throttle mutating session calls per client.
type RateLimitConfig struct {
	Enabled    bool
	RPM        int
	WriteRPS   float64
	WriteBurst int
}

type TracingConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	SamplingRate float64
}

// SessionsDir is the directory of the file backend.
func (c AppConfig) SessionsDir() string {
	return filepath.Join(c.DataDir, "sessions")
}

// StorePath resolves the backend location, deriving it from DataDir when unset.
func (c AppConfig) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	switch c.Store.Backend {
	case "sqlite":
		return filepath.Join(c.DataDir, "sessions.db")
	case "badger":
		return filepath.Join(c.DataDir, "badger")
	default:
		return c.SessionsDir()
	}
}

// CurriculumPath resolves the catalog file.
func (c AppConfig) CurriculumPath() string {
	if c.Curriculum.Path != "" {
		return c.Curriculum.Path
	}
	return filepath.Join(c.DataDir, "curriculum.json")
}

// TeamsPath resolves the teams document.
func (c AppConfig) TeamsPath() string {
	if c.Curriculum.TeamsPath != "" {
		return c.Curriculum.TeamsPath
	}
	return filepath.Join(c.DataDir, "teams.json")
}

// FileConfig is the YAML shape. Pointers distinguish "unset" from zero values.
type FileConfig struct {
	DataDir         string `yaml:"dataDir,omitempty"`
	ListenAddr      string `yaml:"listenAddr,omitempty"`
	LogLevel        string `yaml:"logLevel,omitempty"`
	ShutdownTimeout string `yaml:"shutdownTimeout,omitempty"`
	TrustedProxies  string `yaml:"trustedProxies,omitempty"`

	Store      *FileStore      `yaml:"store,omitempty"`
	Curriculum *FileCurriculum `yaml:"curriculum,omitempty"`
	CORS       *FileCORS       `yaml:"cors,omitempty"`
	RateLimit  *FileRateLimit  `yaml:"rateLimit,omitempty"`
	Tracing    *FileTracing    `yaml:"tracing,omitempty"`
}

type FileStore struct {
	Backend string     `yaml:"backend,omitempty"`
	Path    string     `yaml:"path,omitempty"`
	Redis   *FileRedis `yaml:"redis,omitempty"`
}

type FileRedis struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       *int   `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type FileCurriculum struct {
	Path      string `yaml:"path,omitempty"`
	TeamsPath string `yaml:"teamsPath,omitempty"`
	Watch     *bool  `yaml:"watch,omitempty"`
}

type FileCORS struct {
	AllowedOrigins   []string `yaml:"allowedOrigins,omitempty"`
	AllowCredentials *bool    `yaml:"allowCredentials,omitempty"`
}

type FileRateLimit struct {
	Enabled    *bool    `yaml:"enabled,omitempty"`
	RPM        *int     `yaml:"rpm,omitempty"`
	WriteRPS   *float64 `yaml:"writeRps,omitempty"`
	WriteBurst *int     `yaml:"writeBurst,omitempty"`
}

type FileTracing struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}
