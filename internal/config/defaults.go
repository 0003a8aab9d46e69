// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import "time"

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		Stream: StreamConfig{
			Strategy: "auto",
		},
		Playback: PlaybackConfig{
			BaseDelayMS:        1000,
			CapDelayMS:         8000,
			MaxAttempts:        5,
			MaxMediaRecoveries: 3,
			Volume:             1.0,
			Autoplay:           true,
		},
		HLS: HLSConfig{
			RequestTimeout:       10 * time.Second,
			MaxRequestsPerSecond: 4,
			MaxLevelFailures:     3,
			MaxFragFailures:      3,
			UserAgent:            "wavecast",
		},
		Media: MediaConfig{
			MaxBufferAhead: 30 * time.Second,
			Tick:           100 * time.Millisecond,
		},
		API: APIConfig{
			Enabled:            true,
			ListenAddr:         ":8089",
			RateLimitPerMinute: 120,
		},
		Log: LogConfig{
			Level:   "info",
			Service: "wavecast",
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			Environment:  "production",
			SamplingRate: 1.0,
		},
	}
}
