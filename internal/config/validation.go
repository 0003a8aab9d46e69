// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"strings"

	"github.com/ManuGH/wavecast/internal/playback"
	"github.com/ManuGH/wavecast/internal/validate"
)

// Validate validates an AppConfig using the centralized validation package
func Validate(cfg AppConfig) error {
	v := validate.New()

	// The stream URL is optional: the API can assign one later.
	if strings.TrimSpace(cfg.Stream.URL) != "" {
		v.URL("stream.url", cfg.Stream.URL, []string{"http", "https"})
	}
	if _, err := playback.ParseStrategy(cfg.Stream.Strategy); err != nil {
		v.AddError("stream.strategy", err.Error(), cfg.Stream.Strategy)
	}

	v.Positive("playback.baseDelayMs", cfg.Playback.BaseDelayMS)
	v.Positive("playback.capDelayMs", cfg.Playback.CapDelayMS)
	if cfg.Playback.CapDelayMS < cfg.Playback.BaseDelayMS {
		v.AddError("playback.capDelayMs",
			fmt.Sprintf("must be >= baseDelayMs (%d)", cfg.Playback.BaseDelayMS),
			cfg.Playback.CapDelayMS)
	}
	v.Range("playback.maxAttempts", cfg.Playback.MaxAttempts, 1, 100)
	v.Range("playback.maxMediaRecoveries", cfg.Playback.MaxMediaRecoveries, 0, 100)
	v.FloatRange("playback.volume", cfg.Playback.Volume, 0, 1)

	v.PositiveDuration("hls.requestTimeout", cfg.HLS.RequestTimeout)
	if cfg.HLS.MaxRequestsPerSecond < 0 {
		v.AddError("hls.maxRequestsPerSecond", "must be non-negative (0 disables pacing)", cfg.HLS.MaxRequestsPerSecond)
	}
	v.Positive("hls.maxLevelFailures", cfg.HLS.MaxLevelFailures)
	v.Positive("hls.maxFragFailures", cfg.HLS.MaxFragFailures)
	v.NonNegative("hls.maxBandwidth", cfg.HLS.MaxBandwidth)

	v.PositiveDuration("media.tick", cfg.Media.Tick)
	if cfg.Media.MaxBufferAhead < 0 {
		v.AddError("media.maxBufferAhead", "must be non-negative (0 disables the limit)", cfg.Media.MaxBufferAhead)
	}

	if cfg.API.Enabled {
		v.ListenAddr("api.listenAddr", cfg.API.ListenAddr)
		v.NonNegative("api.rateLimitPerMinute", cfg.API.RateLimitPerMinute)
	}

	if _, err := validate.ParseLogLevel(cfg.Log.Level); err != nil {
		v.AddError("log.level", err.Error(), cfg.Log.Level)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		if strings.TrimSpace(cfg.Telemetry.Endpoint) == "" {
			v.AddError("telemetry.endpoint", "required when telemetry is enabled", cfg.Telemetry.Endpoint)
		}
		v.FloatRange("telemetry.samplingRate", cfg.Telemetry.SamplingRate, 0, 1)
	}

	if err := v.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
