// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/academy/internal/log"
	"github.com/rs/zerolog"
)

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	return strings.Contains(k, "token") || strings.Contains(k, "password")
}

func logSource(logger zerolog.Logger, key, value string, fromEnv bool) {
	ev := logger.Debug().Str("key", key)
	switch {
	case !fromEnv:
		ev.Str("source", "default").Msg("using default value")
	case isSensitive(key):
		ev.Str("source", "environment").Bool("sensitive", true).Msg("using environment variable")
	default:
		ev.Str("value", value).Str("source", "environment").Msg("using environment variable")
	}
}

// lookup returns the trimmed value of key; an empty variable counts as unset.
func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

// ParseString reads a string from the environment or returns defaultValue.
func ParseString(key, defaultValue string) string {
	logger := log.WithComponent("config")
	if v, ok := lookup(key); ok {
		logSource(logger, key, v, true)
		return v
	}
	logSource(logger, key, defaultValue, false)
	return defaultValue
}

// ParseInt reads an integer and falls back to defaultValue on parse errors.
func ParseInt(key string, defaultValue int) int {
	logger := log.WithComponent("config")
	v, ok := lookup(key)
	if !ok {
		logSource(logger, key, "", false)
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Int("default", defaultValue).
			Msg("invalid integer in environment variable, using default")
		return defaultValue
	}
	logSource(logger, key, v, true)
	return i
}

// ParseFloat reads a float and falls back to defaultValue on parse errors.
func ParseFloat(key string, defaultValue float64) float64 {
	logger := log.WithComponent("config")
	v, ok := lookup(key)
	if !ok {
		logSource(logger, key, "", false)
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Float64("default", defaultValue).
			Msg("invalid float in environment variable, using default")
		return defaultValue
	}
	logSource(logger, key, v, true)
	return f
}

// ParseBool reads a boolean in strconv.ParseBool syntax.
func ParseBool(key string, defaultValue bool) bool {
	logger := log.WithComponent("config")
	v, ok := lookup(key)
	if !ok {
		logSource(logger, key, "", false)
		return defaultValue
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Bool("default", defaultValue).
			Msg("invalid boolean in environment variable, using default")
		return defaultValue
	}
	logSource(logger, key, v, true)
	return b
}

// ParseDuration reads a Go duration such as "5s".
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	logger := log.WithComponent("config")
	v, ok := lookup(key)
	if !ok {
		logSource(logger, key, "", false)
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn().Str("key", key).Str("value", v).Dur("default", defaultValue).
			Msg("invalid duration in environment variable, using default")
		return defaultValue
	}
	logSource(logger, key, v, true)
	return d
}

// ParseList reads a comma separated list; blank items are dropped.
func ParseList(key string, defaultValue []string) []string {
	v, ok := lookup(key)
	if !ok {
		return defaultValue
	}
	return splitList(v)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
