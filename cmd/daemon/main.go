// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ManuGH/academy/internal/config"
	"github.com/ManuGH/academy/internal/daemon"
	xglog "github.com/ManuGH/academy/internal/log"
	"github.com/ManuGH/academy/internal/version"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "healthcheck" {
		os.Exit(runHealthcheckCLI(os.Args[2:]))
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Safe defaults until the config is loaded.
	xglog.Configure(xglog.Config{
		Level:   "info",
		Service: "academy",
		Version: version.Version,
	})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	explicit := strings.TrimSpace(*configPath)
	effective := resolveConfigPath(explicit, config.ParseString(config.EnvDataDir, ""))

	cfg, err := config.NewLoader(effective, version.Version).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", effective).
			Msg("failed to load configuration")
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})

	source := "env+defaults"
	switch {
	case explicit != "":
		source = "file"
	case effective != "":
		source = "file(auto)"
	}
	logger.Info().
		Str("event", "config.loaded").
		Str("source", source).
		Str("path", effective).
		Str("data_dir", cfg.DataDir).
		Str(xglog.FieldBackend, cfg.Store.Backend).
		Msg("configuration loaded")

	app, err := daemon.Bootstrap(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("event", "startup.failed").Msg("failed to initialize daemon")
	}

	if err := app.Run(ctx); err != nil {
		logger.Fatal().Err(err).Str("event", "daemon.failed").Msg("daemon stopped with error")
	}
	logger.Info().Str("event", "daemon.stopped").Msg("daemon stopped")
}

// resolveConfigPath returns the explicit path, or ${dataDir}/config.yaml when
// that file exists, or "" for env and defaults only.
func resolveConfigPath(explicit, dataDir string) string {
	if explicit != "" {
		return explicit
	}
	dataDir = strings.TrimSpace(dataDir)
	if dataDir == "" {
		return ""
	}
	auto := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(auto); err == nil {
		return auto
	}
	return ""
}
