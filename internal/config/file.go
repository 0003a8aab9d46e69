// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

// FileConfig is the YAML file schema. Pointer fields distinguish "absent"
// from zero values so the file only overrides what it sets.
type FileConfig struct {
	Stream    *StreamFileConfig    `yaml:"stream,omitempty"`
	Playback  *PlaybackFileConfig  `yaml:"playback,omitempty"`
	HLS       *HLSFileConfig       `yaml:"hls,omitempty"`
	Media     *MediaFileConfig     `yaml:"media,omitempty"`
	API       *APIFileConfig       `yaml:"api,omitempty"`
	Log       *LogFileConfig       `yaml:"log,omitempty"`
	Telemetry *TelemetryFileConfig `yaml:"telemetry,omitempty"`
}

type StreamFileConfig struct {
	URL      *string `yaml:"url,omitempty"`
	Strategy *string `yaml:"strategy,omitempty"`
}

type PlaybackFileConfig struct {
	BaseDelayMS        *int     `yaml:"baseDelayMs,omitempty"`
	CapDelayMS         *int     `yaml:"capDelayMs,omitempty"`
	MaxAttempts        *int     `yaml:"maxAttempts,omitempty"`
	MaxMediaRecoveries *int     `yaml:"maxMediaRecoveries,omitempty"`
	Volume             *float64 `yaml:"volume,omitempty"`
	Muted              *bool    `yaml:"muted,omitempty"`
	Autoplay           *bool    `yaml:"autoplay,omitempty"`
}

type HLSFileConfig struct {
	RequestTimeout       *time.Duration `yaml:"requestTimeout,omitempty"`
	MaxRequestsPerSecond *float64       `yaml:"maxRequestsPerSecond,omitempty"`
	MaxLevelFailures     *int           `yaml:"maxLevelFailures,omitempty"`
	MaxFragFailures      *int           `yaml:"maxFragFailures,omitempty"`
	MaxBandwidth         *int           `yaml:"maxBandwidth,omitempty"`
	UserAgent            *string        `yaml:"userAgent,omitempty"`
}

type MediaFileConfig struct {
	NativeHLS      *bool          `yaml:"nativeHLS,omitempty"`
	MaxBufferAhead *time.Duration `yaml:"maxBufferAhead,omitempty"`
	Tick           *time.Duration `yaml:"tick,omitempty"`
}

type APIFileConfig struct {
	Enabled            *bool   `yaml:"enabled,omitempty"`
	ListenAddr         *string `yaml:"listenAddr,omitempty"`
	RateLimitPerMinute *int    `yaml:"rateLimitPerMinute,omitempty"`
}

type LogFileConfig struct {
	Level   *string `yaml:"level,omitempty"`
	Service *string `yaml:"service,omitempty"`
}

type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     *string  `yaml:"exporter,omitempty"`
	Endpoint     *string  `yaml:"endpoint,omitempty"`
	Environment  *string  `yaml:"environment,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}
