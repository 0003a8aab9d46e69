// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/wavecast/internal/api"
	"github.com/ManuGH/wavecast/internal/bus"
	"github.com/ManuGH/wavecast/internal/config"
	"github.com/ManuGH/wavecast/internal/hls"
	xglog "github.com/ManuGH/wavecast/internal/log"
	"github.com/ManuGH/wavecast/internal/media"
	"github.com/ManuGH/wavecast/internal/playback"
	"github.com/ManuGH/wavecast/internal/telemetry"
)

// player is the wired process: element, coordinator and status fan-out.
type player struct {
	element     *media.Element
	coordinator *playback.Coordinator
	bus         *bus.MemoryBus
	api         *api.Server
	unsubscribe []func()
}

func hlsConfig(cfg config.AppConfig, clock clockwork.Clock) hls.Config {
	hc := hls.DefaultConfig()
	hc.RequestTimeout = cfg.HLS.RequestTimeout
	hc.MaxRequestsPerSecond = cfg.HLS.MaxRequestsPerSecond
	hc.MaxLevelFailures = cfg.HLS.MaxLevelFailures
	hc.MaxFragFailures = cfg.HLS.MaxFragFailures
	hc.MaxBandwidth = uint32(max(cfg.HLS.MaxBandwidth, 0)) // #nosec G115 -- clamped non-negative
	hc.UserAgent = cfg.HLS.UserAgent
	hc.MaxBufferAhead = cfg.Media.MaxBufferAhead
	hc.Clock = clock
	return hc
}

func newPlayer(cfg config.AppConfig, clock clockwork.Clock) (*player, error) {
	strategy, err := playback.ParseStrategy(cfg.Stream.Strategy)
	if err != nil {
		return nil, fmt.Errorf("stream strategy: %w", err)
	}
	hc := hlsConfig(cfg, clock)

	el := media.NewElement(media.Config{
		NativeHLS:      cfg.Media.NativeHLS,
		Tick:           cfg.Media.Tick,
		MaxBufferAhead: cfg.Media.MaxBufferAhead,
		HLS:            hc,
		Clock:          clock,
	})
	el.SetVolume(cfg.Playback.Volume)
	el.SetMuted(cfg.Playback.Muted)

	coord := playback.NewCoordinator(el,
		playback.WithSource(cfg.Stream.URL),
		playback.WithClientOptions(
			playback.WithTransportFactory(hls.NewFactory(hc)),
			playback.WithPolicy(cfg.Playback.Policy()),
			playback.WithStrategy(strategy),
			playback.WithClock(clock),
		),
	)

	b := bus.NewMemoryBus(bus.DefaultBuffer)
	p := &player{element: el, coordinator: coord, bus: b}
	p.unsubscribe = append(p.unsubscribe,
		coord.Subscribe(api.StatusPublisher(b)),
		coord.Subscribe(logTransition),
	)

	if cfg.API.Enabled {
		p.api = api.New(api.Config{
			ListenAddr:         cfg.API.ListenAddr,
			RateLimitPerMinute: cfg.API.RateLimitPerMinute,
			Service:            cfg.Log.Service,
			Version:            cfg.Version,
		}, coord, b)
	}
	return p, nil
}

func logTransition(snap playback.Snapshot) {
	logger := xglog.WithComponent("daemon")
	ev := logger.Info()
	if snap.Status == playback.StatusError {
		ev = logger.Warn()
	}
	ev.Str(xglog.FieldEvent, "player.status").
		Str(xglog.FieldNewState, snap.Status.String()).
		Int(xglog.FieldAttempt, snap.Attempt).
		Int(xglog.FieldMaxAttempts, snap.MaxAttempts).
		Str("error", snap.Error).
		Msg("player status changed")
}

// close releases the session, the element and the bus.
func (p *player) close() {
	for _, unsub := range p.unsubscribe {
		unsub()
	}
	p.coordinator.Close()
	p.element.Close()
	p.bus.Close()
}

func telemetryConfig(cfg config.AppConfig) telemetry.Config {
	return telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Log.Service,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	}
}

// run starts playback when configured to and serves the API until ctx is done.
func run(ctx context.Context, cfg config.AppConfig) error {
	tp, err := telemetry.NewProvider(ctx, telemetryConfig(cfg))
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger := xglog.WithComponent("daemon")
			logger.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	p, err := newPlayer(cfg, clockwork.NewRealClock())
	if err != nil {
		return err
	}
	defer p.close()

	if cfg.Playback.Autoplay && cfg.Stream.URL != "" {
		if err := p.coordinator.Play(ctx); err != nil {
			// the coordinator reports the failure as error status; retry stays available
			logger := xglog.WithComponent("daemon")
			logger.Warn().
				Err(err).
				Str(xglog.FieldEvent, "player.autoplay_failed").
				Msg("autoplay failed")
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if p.api != nil {
		g.Go(func() error { return p.api.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	return g.Wait()
}
