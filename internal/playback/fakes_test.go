// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import (
	"context"
	"errors"
	"sync"
	"time"
)

type fakeElement struct {
	mu        sync.Mutex
	src       string
	paused    bool
	volume    float64
	muted     bool
	nativeHLS bool
	playErr   error
	playCalls int
	loads     int
	subs      map[int]func(MediaEvent)
	nextSub   int
}

func newFakeElement() *fakeElement {
	return &fakeElement{paused: true, volume: 1, subs: make(map[int]func(MediaEvent))}
}

func (e *fakeElement) Play(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playCalls++
	if e.playErr != nil {
		return e.playErr
	}
	e.paused = false
	return nil
}

func (e *fakeElement) Pause() {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
}

func (e *fakeElement) Load() {
	e.mu.Lock()
	e.loads++
	e.mu.Unlock()
}

func (e *fakeElement) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *fakeElement) Source() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src
}

func (e *fakeElement) SetSource(url string) {
	e.mu.Lock()
	e.src = url
	e.mu.Unlock()
}

func (e *fakeElement) CanPlayType(mime string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return mime == HLSMimeType && e.nativeHLS
}

func (e *fakeElement) CurrentTime() time.Duration { return 0 }

func (e *fakeElement) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

func (e *fakeElement) SetVolume(v float64) {
	e.mu.Lock()
	e.volume = v
	e.mu.Unlock()
}

func (e *fakeElement) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

func (e *fakeElement) SetMuted(m bool) {
	e.mu.Lock()
	e.muted = m
	e.mu.Unlock()
}

func (e *fakeElement) Subscribe(fn func(MediaEvent)) func() {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

func (e *fakeElement) emit(ev MediaEvent) {
	e.mu.Lock()
	subs := make([]func(MediaEvent), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}

func (e *fakeElement) subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}

func (e *fakeElement) plays() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playCalls
}

type fakeTransport struct {
	mu         sync.Mutex
	handler    func(TransportEvent)
	attached   MediaElement
	loaded     []string
	stopLoads  int
	detaches   int
	recoveries int
	destroyed  int
}

func (t *fakeTransport) AttachMedia(el MediaElement) error {
	t.mu.Lock()
	t.attached = el
	t.mu.Unlock()
	return nil
}

func (t *fakeTransport) DetachMedia() {
	t.mu.Lock()
	t.attached = nil
	t.detaches++
	t.mu.Unlock()
}

func (t *fakeTransport) LoadSource(url string) {
	t.mu.Lock()
	t.loaded = append(t.loaded, url)
	t.mu.Unlock()
}

func (t *fakeTransport) StopLoad() {
	t.mu.Lock()
	t.stopLoads++
	t.mu.Unlock()
}

func (t *fakeTransport) RecoverMediaError() {
	t.mu.Lock()
	t.recoveries++
	t.mu.Unlock()
}

func (t *fakeTransport) Destroy() {
	t.mu.Lock()
	t.destroyed++
	t.mu.Unlock()
}

func (t *fakeTransport) emit(ev TransportEvent) {
	t.handler(ev)
}

func (t *fakeTransport) fail(typ ErrorType, fatal bool) {
	t.emit(TransportEvent{Kind: EventError, Err: &TransportError{
		Type:    typ,
		Details: "test" + string(typ),
		Fatal:   fatal,
		Err:     errors.New("simulated"),
	}})
}

func (t *fakeTransport) destroyCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.destroyed
}

func (t *fakeTransport) recoverCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recoveries
}

type fakeFactory struct {
	mu          sync.Mutex
	unsupported bool
	attachErr   error
	created     []*fakeTransport
}

func (f *fakeFactory) Supported(MediaElement) bool { return !f.unsupported }

func (f *fakeFactory) New(handler func(TransportEvent)) Transport {
	t := &fakeTransport{handler: handler}
	f.mu.Lock()
	f.created = append(f.created, t)
	f.mu.Unlock()
	if f.attachErr != nil {
		return &failingAttachTransport{fakeTransport: t, err: f.attachErr}
	}
	return t
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func (f *fakeFactory) last() *fakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[len(f.created)-1]
}

func (f *fakeFactory) at(i int) *fakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[i]
}

type failingAttachTransport struct {
	*fakeTransport
	err error
}

func (t *failingAttachTransport) AttachMedia(MediaElement) error { return t.err }

type attemptCall struct {
	attempt, max int
}

type recorder struct {
	mu        sync.Mutex
	ready     int
	attempts  []attemptCall
	successes int
	errors    []string
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnReady: func() {
			r.mu.Lock()
			r.ready++
			r.mu.Unlock()
		},
		OnReconnectAttempt: func(attempt, maxAttempts int) {
			r.mu.Lock()
			r.attempts = append(r.attempts, attemptCall{attempt, maxAttempts})
			r.mu.Unlock()
		},
		OnReconnectSuccess: func() {
			r.mu.Lock()
			r.successes++
			r.mu.Unlock()
		},
		OnError: func(msg string) {
			r.mu.Lock()
			r.errors = append(r.errors, msg)
			r.mu.Unlock()
		},
	}
}

func (r *recorder) attemptCalls() []attemptCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]attemptCall(nil), r.attempts...)
}

func (r *recorder) errorCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

func (r *recorder) readyCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ready
}

func (r *recorder) successCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.successes
}
