// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	xglog "github.com/ManuGH/wavecast/internal/log"
	"github.com/ManuGH/wavecast/internal/metrics"
	"github.com/ManuGH/wavecast/internal/resilience"
	"github.com/ManuGH/wavecast/internal/telemetry"
)

// Callbacks are the client's side-channel outputs. All are optional.
// They are invoked outside the client lock and never from Destroy.
type Callbacks struct {
	OnReady            func()
	OnReconnectAttempt func(attempt, maxAttempts int)
	OnReconnectSuccess func()
	OnError            func(msg string)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithPolicy sets the reconnect policy.
func WithPolicy(p resilience.Policy) ClientOption {
	return func(c *Client) { c.policy = p }
}

// WithClock sets the clock used for backoff timers.
func WithClock(clock clockwork.Clock) ClientOption {
	return func(c *Client) { c.clock = clock }
}

// WithTransportFactory enables the adaptive strategy.
func WithTransportFactory(f TransportFactory) ClientOption {
	return func(c *Client) { c.factory = f }
}

// WithStrategy forces a strategy when it is available.
func WithStrategy(s Strategy) ClientOption {
	return func(c *Client) { c.forced = s }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// Client owns one playback session: a media element, at most one transport
// handle and at most one pending reconnect timer.
type Client struct {
	el        MediaElement
	sourceURL string
	cb        Callbacks
	policy    resilience.Policy
	clock     clockwork.Clock
	factory   TransportFactory
	forced    Strategy
	strategy  Strategy
	sessionID string
	logger    zerolog.Logger
	span      trace.Span

	mu              sync.Mutex
	transport       Transport
	epoch           uint64
	attempts        int
	mediaRecoveries int
	exhausted       bool
	timer           clockwork.Timer
	timerGen        uint64
	destroyed       bool
}

// NewClient creates a session for sourceURL on el and starts loading it.
// Network activity is asynchronous; NewClient does not block on it.
func NewClient(el MediaElement, sourceURL string, cb Callbacks, opts ...ClientOption) (*Client, error) {
	if el == nil {
		return nil, errors.New("playback: nil media element")
	}
	if strings.TrimSpace(sourceURL) == "" {
		return nil, ErrEmptySource
	}

	c := &Client{
		el:        el,
		sourceURL: sourceURL,
		cb:        cb,
		policy:    resilience.DefaultPolicy(),
		clock:     clockwork.NewRealClock(),
		sessionID: uuid.NewString(),
		logger:    xglog.WithComponent("playback.client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.policy = c.policy.Normalize()
	c.strategy = selectStrategy(c.forced, el, c.factory)
	c.logger = c.logger.With().
		Str(xglog.FieldSessionID, c.sessionID).
		Str(xglog.FieldStrategy, c.strategy.String()).
		Logger()

	_, c.span = telemetry.Tracer("wavecast/playback").Start(context.Background(), "playback.session",
		trace.WithAttributes(telemetry.SessionAttributes(c.sessionID, c.strategy.String())...))
	metrics.SessionOpened(c.strategy.String())
	c.logger.Info().
		Str(xglog.FieldEvent, "client.created").
		Str(xglog.FieldSourceURL, xglog.MaskURL(sourceURL)).
		Int(xglog.FieldMaxAttempts, c.policy.MaxAttempts).
		Msg("playback session created")

	var notify func()
	c.mu.Lock()
	if c.strategy == StrategyAdaptive {
		notify = c.attachLocked()
	}
	c.mu.Unlock()

	if c.strategy != StrategyAdaptive {
		c.el.SetSource(c.sourceURL)
		c.el.Load()
	}
	if notify != nil {
		notify()
	}
	return c, nil
}

// Destroy cancels any pending reconnect and releases the transport.
// It is idempotent and safe to call from inside a callback.
func (c *Client) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	c.cancelTimerLocked()
	c.epoch++
	c.teardownTransportLocked()
	c.mu.Unlock()

	if c.strategy != StrategyAdaptive {
		c.el.Pause()
		c.el.SetSource("")
		c.el.Load()
	}

	metrics.SessionClosed()
	c.span.End()
	c.logger.Info().Str(xglog.FieldEvent, "client.destroyed").Msg("playback session destroyed")
}

// Retry resets the attempt counter and re-runs the attach/load sequence.
func (c *Client) Retry() error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return ErrClientDestroyed
	}
	c.cancelTimerLocked()
	c.attempts = 0
	c.mediaRecoveries = 0
	c.exhausted = false

	var notify func()
	if c.strategy == StrategyAdaptive {
		notify = c.attachLocked()
	}
	maxAttempts := c.policy.MaxAttempts
	c.mu.Unlock()

	if c.strategy != StrategyAdaptive {
		c.el.SetSource(c.sourceURL)
		c.el.Load()
	}

	metrics.RecordManualRetry()
	c.logger.Info().
		Str(xglog.FieldEvent, "client.retry").
		Int(xglog.FieldAttempt, 1).
		Int(xglog.FieldMaxAttempts, maxAttempts).
		Msg("manual reconnect requested")

	if c.cb.OnReconnectAttempt != nil {
		c.cb.OnReconnectAttempt(1, maxAttempts)
	}
	if notify != nil {
		notify()
	}
	return nil
}

// Attempts returns the current reconnect attempt count.
func (c *Client) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// Exhausted reports whether automatic reconnects gave up. Only Retry
// restarts loading afterwards.
func (c *Client) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exhausted
}

// MaxAttempts returns the attempt ceiling.
func (c *Client) MaxAttempts() int { return c.policy.MaxAttempts }

// Strategy returns the strategy selected at creation.
func (c *Client) Strategy() Strategy { return c.strategy }

// SessionID identifies the session in logs.
func (c *Client) SessionID() string { return c.sessionID }

// SourceURL returns the URL the session plays.
func (c *Client) SourceURL() string { return c.sourceURL }

// Destroyed reports whether Destroy has run.
func (c *Client) Destroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

// ReconnectPending reports whether a reconnect timer is outstanding.
func (c *Client) ReconnectPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

// attachLocked replaces the transport with a fresh one bound to a new epoch.
// The returned notify func, if any, must be called after unlocking.
func (c *Client) attachLocked() func() {
	c.teardownTransportLocked()
	c.epoch++
	epoch := c.epoch

	// One playback path per element.
	if c.el.Source() != "" {
		c.el.SetSource("")
		c.el.Load()
	}

	t := c.factory.New(func(ev TransportEvent) { c.handleEvent(epoch, ev) })
	if err := t.AttachMedia(c.el); err != nil {
		t.Destroy()
		c.logger.Warn().Err(err).
			Str(xglog.FieldEvent, "client.attach_failed").
			Uint64(xglog.FieldEpoch, epoch).
			Msg("transport could not attach to media element")
		return c.handleErrorLocked(&TransportError{
			Type:    ErrorTypeOther,
			Details: "mediaAttachError",
			Fatal:   true,
			Err:     err,
		})
	}
	c.transport = t
	t.LoadSource(c.sourceURL)

	c.logger.Debug().
		Str(xglog.FieldEvent, "client.attached").
		Uint64(xglog.FieldEpoch, epoch).
		Msg("transport attached and loading")
	return nil
}

func (c *Client) teardownTransportLocked() {
	if c.transport == nil {
		return
	}
	t := c.transport
	c.transport = nil
	t.StopLoad()
	t.DetachMedia()
	t.Destroy()
}

func (c *Client) cancelTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.timerGen++
}

func (c *Client) handleEvent(epoch uint64, ev TransportEvent) {
	c.mu.Lock()
	if c.destroyed || epoch != c.epoch {
		c.mu.Unlock()
		c.logger.Debug().
			Str(xglog.FieldEvent, "client.stale_event").
			Str("kind", string(ev.Kind)).
			Uint64(xglog.FieldEpoch, epoch).
			Msg("dropping event for stale transport")
		return
	}

	var notify func()
	switch ev.Kind {
	case EventManifestParsed:
		if c.attempts > 0 {
			metrics.RecordReconnectOutcome("ready")
		}
		c.attempts = 0
		c.mediaRecoveries = 0
		c.cancelTimerLocked()
		c.logger.Info().Str(xglog.FieldEvent, "client.ready").Msg("manifest parsed")
		notify = c.cb.OnReady

	case EventLevelLoaded, EventFragLoaded:
		if ev.Kind == EventFragLoaded {
			c.mediaRecoveries = 0
		}
		if c.attempts > 0 {
			c.logger.Info().
				Str(xglog.FieldEvent, "client.healed").
				Int(xglog.FieldAttempt, c.attempts).
				Msg("degraded session recovered")
			c.attempts = 0
			c.cancelTimerLocked()
			metrics.RecordReconnectOutcome("healed")
			notify = c.cb.OnReconnectSuccess
		}

	case EventError:
		notify = c.handleErrorLocked(ev.Err)
	}
	c.mu.Unlock()

	if notify != nil {
		notify()
	}
}

// handleErrorLocked classifies err and applies the recovery path.
func (c *Client) handleErrorLocked(err *TransportError) func() {
	cls := Classify(err)
	details := ""
	if err != nil {
		details = err.Details
	}
	logEvt := func(action recoveryAction) *zerolog.Event {
		metrics.RecordTransportError(string(cls.Class), cls.Fatal, string(action))
		c.span.AddEvent("transport_error", trace.WithAttributes(
			telemetry.ErrorAttributes(string(cls.Class), details)...))
		return c.logger.Warn().
			Str(xglog.FieldErrorClass, string(cls.Class)).
			Str(xglog.FieldErrorDetails, details).
			Bool(xglog.FieldFatal, cls.Fatal).
			Str(xglog.FieldAction, string(action))
	}

	switch cls.plan() {
	case actionAbsorbed:
		logEvt(actionAbsorbed).
			Str(xglog.FieldEvent, "client.error_absorbed").
			Msg("non-fatal transport error left to the transport")
		return nil

	case actionMediaRepair:
		if c.transport != nil && !c.policy.MediaRecoveryExhausted(c.mediaRecoveries) {
			c.mediaRecoveries++
			metrics.RecordMediaRecovery()
			logEvt(actionMediaRepair).
				Err(cls.transient(details)).
				Str(xglog.FieldEvent, "client.media_repair").
				Int(xglog.FieldRecoveries, c.mediaRecoveries).
				Msg("attempting in-place media recovery")
			c.transport.RecoverMediaError()
			return nil
		}
		c.logger.Warn().
			Str(xglog.FieldEvent, "client.media_repair_exhausted").
			Int(xglog.FieldRecoveries, c.mediaRecoveries).
			Msg("media recovery budget spent, escalating to reconnect")
	}

	return c.scheduleReconnectLocked(details, cls.transient(details), logEvt)
}

func (c *Client) scheduleReconnectLocked(details string, cause error, logEvt func(recoveryAction) *zerolog.Event) func() {
	if c.timer != nil {
		logEvt(actionScheduled).
			Str(xglog.FieldEvent, "client.reconnect_pending").
			Int(xglog.FieldAttempt, c.attempts).
			Msg("reconnect already scheduled")
		return nil
	}
	if c.exhausted {
		logEvt(actionExhausted).
			Str(xglog.FieldEvent, "client.error_after_exhaustion").
			Msg("reconnect attempts already exhausted, waiting for manual retry")
		return nil
	}

	if c.policy.Exhausted(c.attempts) {
		c.exhausted = true
		if c.transport != nil {
			c.transport.StopLoad()
		}
		metrics.RecordReconnectOutcome("exhausted")
		msg := fmt.Sprintf("Stream unavailable after %d reconnect attempts", c.policy.MaxAttempts)
		c.span.SetStatus(codes.Error, msg)
		logEvt(actionExhausted).
			Err(fmt.Errorf("%w: %s", ErrExhaustedRetries, details)).
			Str(xglog.FieldEvent, "client.exhausted").
			Int(xglog.FieldAttempt, c.attempts).
			Msg("giving up on automatic reconnect")
		onError := c.cb.OnError
		if onError == nil {
			return nil
		}
		return func() { onError(msg) }
	}

	c.attempts++
	attempt := c.attempts
	maxAttempts := c.policy.MaxAttempts
	delay := c.policy.Delay(attempt)
	c.timerGen++
	gen := c.timerGen
	c.timer = c.clock.AfterFunc(delay, func() { c.fireReconnect(gen) })

	metrics.RecordReconnectScheduled(delay)
	c.span.AddEvent("reconnect_scheduled", trace.WithAttributes(
		telemetry.ReconnectAttributes(attempt, maxAttempts)...))
	logEvt(actionReconnect).
		Err(cause).
		Str(xglog.FieldEvent, "client.reconnect_scheduled").
		Int(xglog.FieldAttempt, attempt).
		Int(xglog.FieldMaxAttempts, maxAttempts).
		Dur(xglog.FieldDelay, delay).
		Msg("reconnect scheduled")

	onAttempt := c.cb.OnReconnectAttempt
	if onAttempt == nil {
		return nil
	}
	return func() { onAttempt(attempt, maxAttempts) }
}

func (c *Client) fireReconnect(gen uint64) {
	c.mu.Lock()
	if c.destroyed || gen != c.timerGen || c.timer == nil {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.logger.Info().
		Str(xglog.FieldEvent, "client.reconnecting").
		Int(xglog.FieldAttempt, c.attempts).
		Msg("re-attaching transport")
	notify := c.attachLocked()
	c.mu.Unlock()

	if notify != nil {
		notify()
	}
}
