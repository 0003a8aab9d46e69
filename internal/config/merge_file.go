// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

// mergeFileConfig overlays every field the file sets.
func mergeFileConfig(cfg *AppConfig, src *FileConfig) {
	if s := src.Stream; s != nil {
		set(&cfg.Stream.URL, s.URL)
		set(&cfg.Stream.Strategy, s.Strategy)
	}
	if p := src.Playback; p != nil {
		set(&cfg.Playback.BaseDelayMS, p.BaseDelayMS)
		set(&cfg.Playback.CapDelayMS, p.CapDelayMS)
		set(&cfg.Playback.MaxAttempts, p.MaxAttempts)
		set(&cfg.Playback.MaxMediaRecoveries, p.MaxMediaRecoveries)
		set(&cfg.Playback.Volume, p.Volume)
		set(&cfg.Playback.Muted, p.Muted)
		set(&cfg.Playback.Autoplay, p.Autoplay)
	}
	if h := src.HLS; h != nil {
		set(&cfg.HLS.RequestTimeout, h.RequestTimeout)
		set(&cfg.HLS.MaxRequestsPerSecond, h.MaxRequestsPerSecond)
		set(&cfg.HLS.MaxLevelFailures, h.MaxLevelFailures)
		set(&cfg.HLS.MaxFragFailures, h.MaxFragFailures)
		set(&cfg.HLS.MaxBandwidth, h.MaxBandwidth)
		set(&cfg.HLS.UserAgent, h.UserAgent)
	}
	if m := src.Media; m != nil {
		set(&cfg.Media.NativeHLS, m.NativeHLS)
		set(&cfg.Media.MaxBufferAhead, m.MaxBufferAhead)
		set(&cfg.Media.Tick, m.Tick)
	}
	if a := src.API; a != nil {
		set(&cfg.API.Enabled, a.Enabled)
		set(&cfg.API.ListenAddr, a.ListenAddr)
		set(&cfg.API.RateLimitPerMinute, a.RateLimitPerMinute)
	}
	if lg := src.Log; lg != nil {
		set(&cfg.Log.Level, lg.Level)
		set(&cfg.Log.Service, lg.Service)
	}
	if tc := src.Telemetry; tc != nil {
		set(&cfg.Telemetry.Enabled, tc.Enabled)
		set(&cfg.Telemetry.Exporter, tc.Exporter)
		set(&cfg.Telemetry.Endpoint, tc.Endpoint)
		set(&cfg.Telemetry.Environment, tc.Environment)
		set(&cfg.Telemetry.SamplingRate, tc.SamplingRate)
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
