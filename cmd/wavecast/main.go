// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command wavecast plays a live audio stream headlessly, reconnecting on
// network and decode failures, and exposes a control API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ManuGH/wavecast/internal/config"
	xglog "github.com/ManuGH/wavecast/internal/log"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	source := flag.String("url", "", "stream URL (overrides config)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// safe defaults until config is loaded
	xglog.Configure(xglog.Config{Level: "info", Service: "wavecast", Version: version})
	logger := xglog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	cfg, err := config.NewLoader(path, version).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}
	if s := strings.TrimSpace(*source); s != "" {
		cfg.Stream.URL = s
		if err := config.Validate(cfg); err != nil {
			logger.Fatal().Err(err).Str(xglog.FieldEvent, "config.invalid_flag").Msg("invalid -url")
		}
	}

	xglog.Configure(xglog.Config{Level: cfg.Log.Level, Service: cfg.Log.Service, Version: cfg.Version})
	logger = xglog.WithComponent("daemon")
	logger.Info().
		Str(xglog.FieldEvent, "config.loaded").
		Str("path", path).
		Str(xglog.FieldSourceURL, xglog.MaskURL(cfg.Stream.URL)).
		Str(xglog.FieldStrategy, cfg.Stream.Strategy).
		Msg("configuration loaded")

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Str(xglog.FieldEvent, "daemon.failed").Msg("wavecast stopped with error")
	}
	logger.Info().Str(xglog.FieldEvent, "daemon.stopped").Msg("wavecast stopped")
}
