// SPDX-License-Identifier: MIT

// Package api exposes the playback coordinator over HTTP: status reads, a
// server-sent event stream of status changes, and the player commands.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/wavecast/internal/api/middleware"
	"github.com/ManuGH/wavecast/internal/bus"
	"github.com/ManuGH/wavecast/internal/log"
	"github.com/ManuGH/wavecast/internal/playback"
)

const (
	defaultHeartbeat  = 15 * time.Second
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 5 * time.Second
)

// Controller is the player surface the API drives.
type Controller interface {
	Play(ctx context.Context) error
	Pause()
	Retry(ctx context.Context) error
	SetVolume(v float64)
	ToggleMute()
	SetSource(ctx context.Context, url string) error
	Snapshot() playback.Snapshot
}

// Config configures the API server.
type Config struct {
	ListenAddr         string
	RateLimitPerMinute int
	Service            string
	Version            string
	// Heartbeat is the SSE keep-alive period.
	Heartbeat time.Duration
	Clock     clockwork.Clock
}

// Server serves the control API.
type Server struct {
	cfg    Config
	ctrl   Controller
	bus    *bus.MemoryBus
	router chi.Router
	logger zerolog.Logger
}

// New creates the API server. Status events are read from b's status topic.
func New(cfg Config, ctrl Controller, b *bus.MemoryBus) *Server {
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = defaultHeartbeat
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	s := &Server{
		cfg:    cfg,
		ctrl:   ctrl,
		bus:    b,
		logger: log.WithComponent("api"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := middleware.NewRouter(middleware.StackConfig{
		TracingService:     s.cfg.Service,
		RateLimitPerMinute: s.cfg.RateLimitPerMinute,
	})

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/status/events", s.handleEvents)
		r.Post("/play", s.handlePlay)
		r.Post("/pause", s.handlePause)
		r.Post("/retry", s.handleRetry)
		r.Post("/mute", s.handleMute)
		r.Put("/volume", s.handleVolume)
		r.Put("/source", s.handleSource)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.ListenAddr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().
			Str(log.FieldEvent, "api.listening").
			Str("addr", ln.Addr().String()).
			Msg("control API listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		_ = srv.Close()
		<-errCh
		return fmt.Errorf("shutdown: %w", err)
	}
	<-errCh
	s.logger.Info().Str(log.FieldEvent, "api.stopped").Msg("control API stopped")
	return nil
}
