// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config provides configuration management for wavecast.
package config

import (
	"time"

	"github.com/ManuGH/wavecast/internal/resilience"
)

// AppConfig is the effective configuration after defaults, file and environment.
type AppConfig struct {
	Version string

	Stream    StreamConfig
	Playback  PlaybackConfig
	HLS       HLSConfig
	Media     MediaConfig
	API       APIConfig
	Log       LogConfig
	Telemetry TelemetryConfig
}

// StreamConfig selects what to play.
type StreamConfig struct {
	URL string
	// Strategy is auto, adaptive, native or plain.
	Strategy string
}

// PlaybackConfig holds the reconnect policy and the initial element settings.
type PlaybackConfig struct {
	BaseDelayMS        int
	CapDelayMS         int
	MaxAttempts        int
	MaxMediaRecoveries int
	Volume             float64
	Muted              bool
	Autoplay           bool
}

// Policy converts the reconnect settings.
func (p PlaybackConfig) Policy() resilience.Policy {
	return resilience.Policy{
		BaseDelay:          time.Duration(p.BaseDelayMS) * time.Millisecond,
		CapDelay:           time.Duration(p.CapDelayMS) * time.Millisecond,
		MaxAttempts:        p.MaxAttempts,
		MaxMediaRecoveries: p.MaxMediaRecoveries,
	}.Normalize()
}

// HLSConfig tunes the adaptive transport.
type HLSConfig struct {
	RequestTimeout       time.Duration
	MaxRequestsPerSecond float64
	MaxLevelFailures     int
	MaxFragFailures      int
	MaxBandwidth         int
	UserAgent            string
}

// MediaConfig tunes the headless media element.
type MediaConfig struct {
	NativeHLS      bool
	MaxBufferAhead time.Duration
	Tick           time.Duration
}

// APIConfig configures the HTTP control API.
type APIConfig struct {
	Enabled            bool
	ListenAddr         string
	RateLimitPerMinute int
}

// TelemetryConfig configures OpenTelemetry trace export.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string
	Endpoint     string
	Environment  string
	SamplingRate float64
}

// LogConfig configures logging.
type LogConfig struct {
	Level   string
	Service string
}
