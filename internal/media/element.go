// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package media provides a headless audio element: a playhead driven by the
// amount of buffered media, fed either by an attached HLS transport, by its
// own native HLS loader, or by a progressive MP3 download.
package media

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/ManuGH/wavecast/internal/hls"
	xglog "github.com/ManuGH/wavecast/internal/log"
	"github.com/ManuGH/wavecast/internal/playback"
)

var (
	// ErrNotAllowed rejects play() before the user allowed playback.
	ErrNotAllowed = errors.New("NotAllowedError: play() failed because the user didn't interact with the document first")
	// ErrNoSource rejects play() with nothing to play.
	ErrNoSource = errors.New("NotSupportedError: no supported source")
	// ErrBufferAttached is returned when a second owner attaches the buffer.
	ErrBufferAttached = errors.New("media buffer already attached")
	// ErrBufferDetached is returned when appending without an attached buffer.
	ErrBufferDetached = errors.New("media buffer not attached")
	// ErrEmptySegment is returned for segments without payload.
	ErrEmptySegment = errors.New("segment has no media data")
)

// MimeMPEG is the progressive MP3 MIME type.
const MimeMPEG = "audio/mpeg"

// Config configures an Element.
type Config struct {
	// NativeHLS makes the element play HLS sources assigned via SetSource.
	NativeHLS bool
	// RequireGesture rejects Play until AllowPlayback is called.
	RequireGesture bool
	// Tick is the playhead resolution.
	Tick time.Duration
	// MaxBufferAhead bounds progressive decoding ahead of the playhead. 0 disables it.
	MaxBufferAhead time.Duration
	// HLS configures the native HLS loader.
	HLS        hls.Config
	HTTPClient *http.Client
	Clock      clockwork.Clock
}

// Element is a headless media element.
//
// Events are delivered by a dispatcher goroutine in order; no method emits
// an event synchronously.
type Element struct {
	cfg    Config
	clock  clockwork.Clock
	logger zerolog.Logger
	client *http.Client
	events *emitter

	mu             sync.Mutex
	src            string
	paused         bool
	volume         float64
	muted          bool
	allowed        bool
	bufferAttached bool
	buffered       time.Duration
	position       time.Duration
	eos            bool
	waiting        bool

	// source loaders, replaced by Load
	native       playback.Transport
	cancelFetch  context.CancelFunc
	fetchDone    chan struct{}
	playheadDone chan struct{}
	quit         chan struct{}
	closeOnce    sync.Once
}

// NewElement creates a paused element at full volume and starts its playhead.
func NewElement(cfg Config) *Element {
	if cfg.Tick <= 0 {
		cfg.Tick = 100 * time.Millisecond
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.HLS.Clock == nil {
		cfg.HLS.Clock = cfg.Clock
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	e := &Element{
		cfg:          cfg,
		clock:        cfg.Clock,
		logger:       xglog.WithComponent("media.element"),
		client:       client,
		events:       newEmitter(),
		paused:       true,
		volume:       1,
		playheadDone: make(chan struct{}),
		quit:         make(chan struct{}),
	}
	go e.runPlayhead()
	return e
}

// Close stops loading and the playhead. Subscribers receive no further events.
func (e *Element) Close() {
	e.closeOnce.Do(func() {
		e.stopLoaders()
		close(e.quit)
		<-e.playheadDone
		e.events.close()
	})
}

// Play starts or resumes playback.
func (e *Element) Play(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	if e.cfg.RequireGesture && !e.allowed {
		e.mu.Unlock()
		return ErrNotAllowed
	}
	if e.src == "" && !e.bufferAttached {
		e.mu.Unlock()
		return ErrNoSource
	}
	if !e.paused {
		e.mu.Unlock()
		return nil
	}
	e.paused = false
	evs := []playback.MediaEvent{{Type: playback.MediaPlay}}
	if e.position < e.buffered {
		e.waiting = false
		evs = append(evs, playback.MediaEvent{Type: playback.MediaPlaying})
	} else {
		e.waiting = true
		evs = append(evs, playback.MediaEvent{Type: playback.MediaWaiting})
	}
	e.mu.Unlock()

	e.events.emit(evs...)
	return nil
}

// Pause pauses playback.
func (e *Element) Pause() {
	e.mu.Lock()
	if e.paused {
		e.mu.Unlock()
		return
	}
	e.paused = true
	e.waiting = false
	e.mu.Unlock()
	e.events.emit(playback.MediaEvent{Type: playback.MediaPause})
}

// Load resets the element and starts loading the assigned source.
func (e *Element) Load() {
	e.stopLoaders()

	e.mu.Lock()
	e.paused = true
	e.waiting = false
	e.eos = false
	src := e.src
	if !e.bufferAttached {
		e.position, e.buffered = 0, 0
	}
	start := src != "" && !e.bufferAttached
	e.mu.Unlock()

	if !start || e.isClosed() {
		return
	}
	if e.cfg.NativeHLS && isHLS(src) {
		e.startNative(src)
		return
	}
	e.startProgressive(src)
}

// Paused reports whether playback is paused.
func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Source returns the assigned source URL.
func (e *Element) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src
}

// SetSource assigns a source URL. Call Load to apply it.
func (e *Element) SetSource(url string) {
	e.mu.Lock()
	e.src = url
	e.mu.Unlock()
}

// CanPlayType reports support for mime.
func (e *Element) CanPlayType(mime string) bool {
	switch strings.ToLower(mime) {
	case strings.ToLower(playback.HLSMimeType), "application/x-mpegurl", "audio/mpegurl":
		return e.cfg.NativeHLS
	case MimeMPEG, "audio/mp3":
		return true
	}
	return false
}

// CurrentTime returns the playhead position.
func (e *Element) CurrentTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// Volume returns the volume in [0,1].
func (e *Element) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// SetVolume sets the volume, clamped to [0,1].
func (e *Element) SetVolume(v float64) {
	e.mu.Lock()
	e.volume = clampVolume(v)
	e.mu.Unlock()
}

// Muted reports the muted flag.
func (e *Element) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

// SetMuted sets the muted flag.
func (e *Element) SetMuted(m bool) {
	e.mu.Lock()
	e.muted = m
	e.mu.Unlock()
}

// Subscribe registers fn for element events.
func (e *Element) Subscribe(fn func(playback.MediaEvent)) (unsubscribe func()) {
	return e.events.subscribe(fn)
}

// AllowPlayback records a user gesture; Play is no longer rejected.
func (e *Element) AllowPlayback() {
	e.mu.Lock()
	e.allowed = true
	e.mu.Unlock()
}

// AttachBuffer hands the buffer to an external transport.
func (e *Element) AttachBuffer() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.bufferAttached {
		return ErrBufferAttached
	}
	e.bufferAttached = true
	e.position, e.buffered = 0, 0
	e.eos = false
	return nil
}

// DetachBuffer releases the buffer and drops buffered media.
func (e *Element) DetachBuffer() {
	e.mu.Lock()
	e.bufferAttached = false
	e.position, e.buffered = 0, 0
	e.eos = false
	e.mu.Unlock()
}

// AppendSegment adds a decoded segment of duration to the buffer.
func (e *Element) AppendSegment(seq uint64, duration time.Duration, data []byte) error {
	if len(data) == 0 {
		return ErrEmptySegment
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.bufferAttached {
		return ErrBufferDetached
	}
	e.buffered += duration
	e.logger.Trace().
		Uint64(xglog.FieldSegment, seq).
		Dur("buffered_ahead", e.buffered-e.position).
		Msg("segment appended")
	return nil
}

// ResetBuffer drops media ahead of the playhead.
func (e *Element) ResetBuffer() {
	e.mu.Lock()
	e.buffered = e.position
	e.eos = false
	e.mu.Unlock()
}

// EndOfStream marks the buffer complete; playback ends when it drains.
func (e *Element) EndOfStream() {
	e.mu.Lock()
	e.eos = true
	e.mu.Unlock()
}

// BufferedAhead returns the buffered duration ahead of the playhead.
func (e *Element) BufferedAhead() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffered - e.position
}

func (e *Element) addDecoded(d time.Duration) {
	e.mu.Lock()
	e.buffered += d
	e.mu.Unlock()
}

func (e *Element) runPlayhead() {
	defer close(e.playheadDone)
	ticker := e.clock.NewTicker(e.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-e.quit:
			return
		case <-ticker.Chan():
			e.advance(e.cfg.Tick)
		}
	}
}

// advance moves the playhead by d and emits waiting, playing and ended
// as the buffer drains and refills.
func (e *Element) advance(d time.Duration) {
	e.mu.Lock()
	if e.paused {
		e.mu.Unlock()
		return
	}
	var ev *playback.MediaEvent
	switch {
	case e.position < e.buffered:
		e.position = min(e.position+d, e.buffered)
		if e.waiting {
			e.waiting = false
			ev = &playback.MediaEvent{Type: playback.MediaPlaying}
		}
	case e.eos:
		e.paused = true
		e.waiting = false
		ev = &playback.MediaEvent{Type: playback.MediaEnded}
	case !e.waiting:
		e.waiting = true
		ev = &playback.MediaEvent{Type: playback.MediaWaiting}
	}
	e.mu.Unlock()

	if ev != nil {
		e.events.emit(*ev)
	}
}

func (e *Element) fail(code playback.MediaErrorCode, msg string) {
	e.logger.Warn().
		Str(xglog.FieldEvent, "media.error").
		Str(xglog.FieldErrorClass, code.String()).
		Msg(msg)
	e.events.emit(playback.MediaEvent{
		Type: playback.MediaError,
		Err:  &playback.ElementError{Code: code, Message: msg},
	})
}

func (e *Element) stopLoaders() {
	e.mu.Lock()
	native := e.native
	cancel, done := e.cancelFetch, e.fetchDone
	e.native, e.cancelFetch, e.fetchDone = nil, nil, nil
	e.mu.Unlock()

	if native != nil {
		native.Destroy()
	}
	if cancel != nil {
		cancel()
		<-done
	}
}

func (e *Element) isClosed() bool {
	select {
	case <-e.quit:
		return true
	default:
		return false
	}
}

func clampVolume(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func isHLS(url string) bool {
	path := url
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	return strings.HasSuffix(strings.ToLower(path), ".m3u8")
}
