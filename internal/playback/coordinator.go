// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ManuGH/wavecast/internal/fsm"
	xglog "github.com/ManuGH/wavecast/internal/log"
	"github.com/ManuGH/wavecast/internal/metrics"
)

type trigger string

const (
	trigPlay             trigger = "cmd.play"
	trigPause            trigger = "cmd.pause"
	trigRetry            trigger = "cmd.retry"
	trigPlayRejected     trigger = "cmd.play_rejected"
	trigSourceChanged    trigger = "source.changed"
	trigMediaPlaying     trigger = "media.playing"
	trigMediaPause       trigger = "media.pause"
	trigMediaEnded       trigger = "media.ended"
	trigMediaWaiting     trigger = "media.waiting"
	trigMediaFailed      trigger = "media.failed"
	trigReconnectAttempt trigger = "client.reconnect_attempt"
	trigReconnected      trigger = "client.reconnected"
	trigClientError      trigger = "client.error"
)

var errDecodePending = errors.New("decode error pending")
var errInErrorState = errors.New("status is error")

// ClientFactory creates the session for a source.
type ClientFactory func(el MediaElement, sourceURL string, cb Callbacks) (*Client, error)

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithClientOptions configures sessions created by the default client factory.
func WithClientOptions(opts ...ClientOption) CoordinatorOption {
	return func(c *Coordinator) {
		c.newClient = func(el MediaElement, sourceURL string, cb Callbacks) (*Client, error) {
			return NewClient(el, sourceURL, cb, opts...)
		}
	}
}

// WithClientFactory replaces session construction entirely.
func WithClientFactory(f ClientFactory) CoordinatorOption {
	return func(c *Coordinator) { c.newClient = f }
}

// WithSource sets the initial source URL.
func WithSource(url string) CoordinatorOption {
	return func(c *Coordinator) { c.source = url }
}

// WithCoordinatorLogger overrides the component logger.
func WithCoordinatorLogger(l zerolog.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = l }
}

// Coordinator merges media element events and client callbacks into one Status
// and executes the UI commands.
//
// All inputs run through a serial queue. Commands wait for their own effects;
// element events and client callbacks are queued behind whatever is running.
type Coordinator struct {
	el        MediaElement
	newClient ClientFactory
	logger    zerolog.Logger
	machine   *fsm.Machine[Status, trigger]
	q         serialQueue

	// Owned by the queue.
	client        *Client
	source        string
	wantPlay      bool
	decodePending bool
	closed        bool
	unsubscribeEl func()

	mu      sync.RWMutex
	snap    Snapshot
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewCoordinator creates a coordinator in StatusIdle and subscribes to el.
func NewCoordinator(el MediaElement, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		el:     el,
		logger: xglog.WithComponent("playback.coordinator"),
		subs:   make(map[int]func(Snapshot)),
	}
	c.newClient = func(el MediaElement, sourceURL string, cb Callbacks) (*Client, error) {
		return NewClient(el, sourceURL, cb)
	}
	for _, opt := range opts {
		opt(c)
	}
	c.machine = fsm.MustNew(StatusIdle, c.transitions())
	c.snap = Snapshot{
		Status: StatusIdle,
		Source: c.source,
		Volume: el.Volume(),
		Muted:  el.Muted(),
	}
	c.unsubscribeEl = el.Subscribe(func(ev MediaEvent) {
		c.q.Post(func() { c.onMediaEvent(ev) })
	})
	return c
}

func (c *Coordinator) transitions() []fsm.Transition[Status, trigger] {
	noDecodePending := func(context.Context, Status, trigger) error {
		if c.decodePending {
			return errDecodePending
		}
		return nil
	}
	notInError := func(_ context.Context, from Status, _ trigger) error {
		if from == StatusError {
			return errInErrorState
		}
		return nil
	}

	return []fsm.Transition[Status, trigger]{
		{From: StatusIdle, Event: trigPlay, To: StatusBuffering},
		{From: StatusError, Event: trigPlay, To: StatusBuffering},

		{From: StatusPlaying, Event: trigPause, To: StatusIdle},
		{From: StatusBuffering, Event: trigPause, To: StatusIdle},
		{From: StatusReconnecting, Event: trigPause, To: StatusIdle},

		{From: StatusError, Event: trigRetry, To: StatusBuffering},
		{Event: trigPlayRejected, To: StatusError},
		{Event: trigSourceChanged, To: StatusIdle},

		{From: StatusBuffering, Event: trigMediaPlaying, To: StatusPlaying},
		{From: StatusReconnecting, Event: trigMediaPlaying, To: StatusPlaying},
		{From: StatusIdle, Event: trigMediaPlaying, To: StatusPlaying},
		{From: StatusPlaying, Event: trigMediaPause, To: StatusIdle, Guard: noDecodePending},
		{From: StatusPlaying, Event: trigMediaEnded, To: StatusIdle},
		{From: StatusBuffering, Event: trigMediaEnded, To: StatusIdle},
		{Event: trigMediaWaiting, To: StatusBuffering, Guard: notInError},
		{Event: trigMediaFailed, To: StatusError},

		{Event: trigReconnectAttempt, To: StatusReconnecting},
		{From: StatusReconnecting, Event: trigReconnected, To: StatusBuffering},
		{From: StatusBuffering, Event: trigReconnected, To: StatusBuffering},
		{From: StatusPlaying, Event: trigReconnected, To: StatusPlaying},
		{From: StatusIdle, Event: trigReconnected, To: StatusIdle},
		{Event: trigClientError, To: StatusError},
	}
}

// Play starts playback, creating a session if none is active.
func (c *Coordinator) Play(ctx context.Context) error {
	var err error
	c.q.Do(func() { err = c.play(ctx) })
	return err
}

// Pause pauses the element. The session stays attached for instant resume.
func (c *Coordinator) Pause() {
	c.q.Do(c.pause)
}

// Retry recovers from StatusError. It is a no-op in any other status.
func (c *Coordinator) Retry(ctx context.Context) error {
	var err error
	c.q.Do(func() { err = c.retry(ctx) })
	return err
}

// SetVolume sets the element volume, clamped to [0,1].
func (c *Coordinator) SetVolume(v float64) {
	c.q.Do(func() {
		switch {
		case v < 0:
			v = 0
		case v > 1:
			v = 1
		}
		c.el.SetVolume(v)
		c.mu.Lock()
		c.snap.Volume = v
		c.mu.Unlock()
	})
}

// ToggleMute flips the element's muted flag.
func (c *Coordinator) ToggleMute() {
	c.q.Do(func() {
		muted := !c.el.Muted()
		c.el.SetMuted(muted)
		c.mu.Lock()
		c.snap.Muted = muted
		c.mu.Unlock()
	})
}

// SetSource switches to url. The current session is destroyed; if playback was
// requested a new session starts immediately.
func (c *Coordinator) SetSource(ctx context.Context, url string) error {
	var err error
	c.q.Do(func() { err = c.setSource(ctx, url) })
	return err
}

// Close destroys the session and detaches from the element.
func (c *Coordinator) Close() {
	c.q.Do(func() {
		if c.closed {
			return
		}
		c.closed = true
		c.wantPlay = false
		c.destroySession()
		if c.unsubscribeEl != nil {
			c.unsubscribeEl()
		}
	})
}

// Snapshot returns the current UI state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Status returns the current status.
func (c *Coordinator) Status() Status {
	return c.Snapshot().Status
}

// Subscribe registers fn for every status transition. fn runs on the
// coordinator queue and must not call coordinator commands.
func (c *Coordinator) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Coordinator) play(ctx context.Context) error {
	if c.closed {
		return ErrCoordinatorClosed
	}
	if c.source == "" {
		return ErrEmptySource
	}
	c.wantPlay = true

	// An exhausted session stopped loading; playing the element alone would
	// wait forever.
	if c.client != nil && c.client.Exhausted() {
		c.fire(trigPlay, resetAttempts)
		return c.restartSession(ctx)
	}

	c.fire(trigPlay, clearError)
	if c.client == nil {
		if err := c.startSession(); err != nil {
			c.fail(trigClientError, err, fmt.Sprintf("Could not start playback: %v", err))
			return err
		}
	}
	return c.playElement(ctx)
}

func (c *Coordinator) playElement(ctx context.Context) error {
	if err := c.el.Play(ctx); err != nil {
		c.wantPlay = false
		wrapped := fmt.Errorf("%w: %v", ErrPlaybackRejected, err)
		c.fail(trigPlayRejected, wrapped, fmt.Sprintf("Playback was blocked: %v. Press play to try again.", err))
		return wrapped
	}
	return nil
}

func (c *Coordinator) pause() {
	c.wantPlay = false
	c.el.Pause()
	c.fire(trigPause, nil)
}

func (c *Coordinator) retry(ctx context.Context) error {
	if c.closed {
		return ErrCoordinatorClosed
	}
	if c.machine.State() != StatusError {
		c.logger.Debug().
			Str(xglog.FieldEvent, "coordinator.retry_ignored").
			Str("status", c.machine.State().String()).
			Msg("retry only applies to the error status")
		return nil
	}
	if c.source == "" {
		return ErrEmptySource
	}

	c.wantPlay = true
	c.fire(trigRetry, resetAttempts)
	return c.restartSession(ctx)
}

// restartSession reloads the current session, or starts one if there is none.
func (c *Coordinator) restartSession(ctx context.Context) error {
	if c.client != nil {
		if err := c.client.Retry(); err != nil {
			return err
		}
	} else if err := c.startSession(); err != nil {
		c.fail(trigClientError, err, fmt.Sprintf("Could not start playback: %v", err))
		return err
	}

	// Adaptive sessions resume from OnReady; the element owns the other paths.
	if c.client.Strategy() != StrategyAdaptive {
		return c.playElement(ctx)
	}
	return nil
}

func (c *Coordinator) setSource(ctx context.Context, url string) error {
	if c.closed {
		return ErrCoordinatorClosed
	}
	if url == c.source {
		return nil
	}
	c.destroySession()
	c.source = url
	c.mu.Lock()
	c.snap.Source = url
	c.snap.Strategy = ""
	c.mu.Unlock()
	c.fire(trigSourceChanged, resetAttempts)

	if c.wantPlay && url != "" {
		return c.play(ctx)
	}
	return nil
}

func (c *Coordinator) startSession() error {
	var cl *Client
	// Callbacks are queued; the closure sees cl once startSession has returned.
	current := func() bool { return cl != nil && c.client == cl }
	cb := Callbacks{
		OnReady: func() {
			c.q.Post(func() {
				if current() {
					c.onReady()
				}
			})
		},
		OnReconnectAttempt: func(attempt, maxAttempts int) {
			c.q.Post(func() {
				if current() {
					c.onReconnectAttempt(attempt, maxAttempts)
				}
			})
		},
		OnReconnectSuccess: func() {
			c.q.Post(func() {
				if current() {
					c.fire(trigReconnected, resetAttempts)
				}
			})
		},
		OnError: func(msg string) {
			c.q.Post(func() {
				if current() {
					c.wantPlay = false
					c.fail(trigClientError, ErrExhaustedRetries, msg)
				}
			})
		},
	}

	created, err := c.newClient(c.el, c.source, cb)
	if err != nil {
		return err
	}
	cl = created
	c.client = created
	c.decodePending = false

	c.mu.Lock()
	c.snap.MaxAttempts = created.MaxAttempts()
	c.snap.Strategy = created.Strategy().String()
	c.mu.Unlock()
	return nil
}

func (c *Coordinator) destroySession() {
	if c.client == nil {
		return
	}
	c.client.Destroy()
	c.client = nil
	c.decodePending = false
}

func (c *Coordinator) onReady() {
	c.fire(trigReconnected, resetAttempts)
	if c.wantPlay && c.el.Paused() {
		_ = c.playElement(context.Background())
	}
}

func (c *Coordinator) onReconnectAttempt(attempt, maxAttempts int) {
	c.fire(trigReconnectAttempt, func(s *Snapshot) {
		clearError(s)
		s.Attempt = attempt
		s.MaxAttempts = maxAttempts
	})
}

func (c *Coordinator) onMediaEvent(ev MediaEvent) {
	if c.closed {
		return
	}
	switch ev.Type {
	case MediaPlay, MediaPlaying:
		if ev.Type == MediaPlaying {
			c.decodePending = false
		}
		c.fire(trigMediaPlaying, nil)
	case MediaPause:
		c.fire(trigMediaPause, nil)
	case MediaEnded:
		c.wantPlay = false
		c.fire(trigMediaEnded, nil)
	case MediaWaiting:
		c.fire(trigMediaWaiting, nil)
	case MediaError:
		c.onMediaError(ev.Err)
	}
}

func (c *Coordinator) onMediaError(elErr *ElementError) {
	if elErr == nil {
		elErr = &ElementError{Code: MediaErrAborted}
	}
	if c.client != nil && c.client.Strategy() == StrategyAdaptive {
		if elErr.Code == MediaErrDecode {
			c.decodePending = true
		}
		c.logger.Debug().
			Err(elErr).
			Str(xglog.FieldEvent, "coordinator.media_error_deferred").
			Msg("element error left to the transport")
		return
	}

	c.wantPlay = false
	c.fail(trigMediaFailed, fmt.Errorf("%w: %w", ErrMediaFailure, elErr), fmt.Sprintf("Playback error: %s", elErr.Code))
}

// fail moves to StatusError with msg.
func (c *Coordinator) fail(t trigger, err error, msg string) {
	c.fire(t, func(s *Snapshot) {
		s.Error = msg
		s.Err = err
	})
}

// fire applies t and notifies subscribers. Edges missing from the table are ignored.
func (c *Coordinator) fire(t trigger, mutate func(*Snapshot)) bool {
	from := c.machine.State()
	to, err := c.machine.Fire(context.Background(), t)
	if err != nil {
		c.logger.Debug().
			Err(err).
			Str(xglog.FieldEvent, "coordinator.trigger_ignored").
			Str(xglog.FieldTrigger, string(t)).
			Str(xglog.FieldOldState, from.String()).
			Msg("trigger has no effect in current status")
		return false
	}

	c.mu.Lock()
	c.snap.Status = to
	if mutate != nil {
		mutate(&c.snap)
	}
	snap := c.snap
	subs := make([]func(Snapshot), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	metrics.RecordStatusTransition(from.String(), to.String())
	evt := c.logger.Info()
	if from == to {
		evt = c.logger.Debug()
	}
	evt.Str(xglog.FieldEvent, "coordinator.transition").
		Str(xglog.FieldTrigger, string(t)).
		Str(xglog.FieldOldState, from.String()).
		Str(xglog.FieldNewState, to.String()).
		Int(xglog.FieldAttempt, snap.Attempt).
		Msg("playback status changed")

	for _, fn := range subs {
		fn(snap)
	}
	return true
}

func clearError(s *Snapshot) {
	s.Error = ""
	s.Err = nil
}

func resetAttempts(s *Snapshot) {
	clearError(s)
	s.Attempt = 0
}
