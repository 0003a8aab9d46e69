// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

// mergeEnvConfig merges environment variables into the config.
// ENV variables have the highest precedence.
func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	l.mergeEnvStream(cfg)
	l.mergeEnvPlayback(cfg)
	l.mergeEnvHLS(cfg)
	l.mergeEnvMedia(cfg)
	l.mergeEnvAPI(cfg)
	l.mergeEnvLog(cfg)
	l.mergeEnvTelemetry(cfg)
}

func (l *Loader) mergeEnvStream(cfg *AppConfig) {
	cfg.Stream.URL = l.envString("WAVECAST_STREAM_URL", cfg.Stream.URL)
	cfg.Stream.Strategy = l.envString("WAVECAST_STREAM_STRATEGY", cfg.Stream.Strategy)
}

func (l *Loader) mergeEnvPlayback(cfg *AppConfig) {
	cfg.Playback.BaseDelayMS = l.envInt("WAVECAST_BASE_DELAY_MS", cfg.Playback.BaseDelayMS)
	cfg.Playback.CapDelayMS = l.envInt("WAVECAST_CAP_DELAY_MS", cfg.Playback.CapDelayMS)
	cfg.Playback.MaxAttempts = l.envInt("WAVECAST_MAX_ATTEMPTS", cfg.Playback.MaxAttempts)
	cfg.Playback.MaxMediaRecoveries = l.envInt("WAVECAST_MAX_MEDIA_RECOVERIES", cfg.Playback.MaxMediaRecoveries)
	cfg.Playback.Volume = l.envFloat("WAVECAST_VOLUME", cfg.Playback.Volume)
	cfg.Playback.Muted = l.envBool("WAVECAST_MUTED", cfg.Playback.Muted)
	cfg.Playback.Autoplay = l.envBool("WAVECAST_AUTOPLAY", cfg.Playback.Autoplay)
}

func (l *Loader) mergeEnvHLS(cfg *AppConfig) {
	cfg.HLS.RequestTimeout = l.envDuration("WAVECAST_HLS_REQUEST_TIMEOUT", cfg.HLS.RequestTimeout)
	cfg.HLS.MaxRequestsPerSecond = l.envFloat("WAVECAST_HLS_MAX_RPS", cfg.HLS.MaxRequestsPerSecond)
	cfg.HLS.MaxLevelFailures = l.envInt("WAVECAST_HLS_MAX_LEVEL_FAILURES", cfg.HLS.MaxLevelFailures)
	cfg.HLS.MaxFragFailures = l.envInt("WAVECAST_HLS_MAX_FRAG_FAILURES", cfg.HLS.MaxFragFailures)
	cfg.HLS.MaxBandwidth = l.envInt("WAVECAST_HLS_MAX_BANDWIDTH", cfg.HLS.MaxBandwidth)
	cfg.HLS.UserAgent = l.envString("WAVECAST_HLS_USER_AGENT", cfg.HLS.UserAgent)
}

func (l *Loader) mergeEnvMedia(cfg *AppConfig) {
	cfg.Media.NativeHLS = l.envBool("WAVECAST_MEDIA_NATIVE_HLS", cfg.Media.NativeHLS)
	cfg.Media.MaxBufferAhead = l.envDuration("WAVECAST_MEDIA_MAX_BUFFER_AHEAD", cfg.Media.MaxBufferAhead)
	cfg.Media.Tick = l.envDuration("WAVECAST_MEDIA_TICK", cfg.Media.Tick)
}

func (l *Loader) mergeEnvAPI(cfg *AppConfig) {
	cfg.API.Enabled = l.envBool("WAVECAST_API_ENABLED", cfg.API.Enabled)
	cfg.API.ListenAddr = l.envString("WAVECAST_LISTEN", cfg.API.ListenAddr)
	cfg.API.RateLimitPerMinute = l.envInt("WAVECAST_API_RATE_LIMIT", cfg.API.RateLimitPerMinute)
}

func (l *Loader) mergeEnvLog(cfg *AppConfig) {
	cfg.Log.Level = l.envString("WAVECAST_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Service = l.envString("WAVECAST_LOG_SERVICE", cfg.Log.Service)
}

func (l *Loader) mergeEnvTelemetry(cfg *AppConfig) {
	cfg.Telemetry.Enabled = l.envBool("WAVECAST_TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString("WAVECAST_TELEMETRY_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("WAVECAST_TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.Environment = l.envString("WAVECAST_TELEMETRY_ENVIRONMENT", cfg.Telemetry.Environment)
	cfg.Telemetry.SamplingRate = l.envFloat("WAVECAST_TELEMETRY_SAMPLING_RATE", cfg.Telemetry.SamplingRate)
}
