// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package media

import (
	"sync"

	"github.com/ManuGH/wavecast/internal/playback"
)

// emitter fans element events out to subscribers from one goroutine.
type emitter struct {
	mu      sync.Mutex
	subs    map[int]func(playback.MediaEvent)
	nextSub int
	queue   []playback.MediaEvent
	closed  bool

	signal chan struct{}
	quit   chan struct{}
	done   chan struct{}
}

func newEmitter() *emitter {
	em := &emitter{
		subs:   make(map[int]func(playback.MediaEvent)),
		signal: make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go em.run()
	return em
}

func (em *emitter) subscribe(fn func(playback.MediaEvent)) func() {
	em.mu.Lock()
	id := em.nextSub
	em.nextSub++
	em.subs[id] = fn
	em.mu.Unlock()
	return func() {
		em.mu.Lock()
		delete(em.subs, id)
		em.mu.Unlock()
	}
}

func (em *emitter) emit(evs ...playback.MediaEvent) {
	em.mu.Lock()
	if em.closed {
		em.mu.Unlock()
		return
	}
	em.queue = append(em.queue, evs...)
	em.mu.Unlock()
	select {
	case em.signal <- struct{}{}:
	default:
	}
}

// close stops delivery without waiting for a running subscriber.
func (em *emitter) close() {
	em.mu.Lock()
	if em.closed {
		em.mu.Unlock()
		return
	}
	em.closed = true
	em.queue = nil
	em.mu.Unlock()
	close(em.quit)
}

func (em *emitter) run() {
	defer close(em.done)
	for {
		select {
		case <-em.quit:
			return
		case <-em.signal:
		}
		for {
			em.mu.Lock()
			if em.closed || len(em.queue) == 0 {
				em.mu.Unlock()
				break
			}
			ev := em.queue[0]
			em.queue = em.queue[1:]
			subs := make([]func(playback.MediaEvent), 0, len(em.subs))
			for _, fn := range em.subs {
				subs = append(subs, fn)
			}
			em.mu.Unlock()

			for _, fn := range subs {
				fn(ev)
			}
		}
	}
}
