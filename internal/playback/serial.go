// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import "sync"

// serialQueue runs functions one at a time in submission order.
// The goroutine that finds the queue idle drains it; functions submitted from
// inside a running function are queued behind it instead of nesting.
type serialQueue struct {
	mu      sync.Mutex
	pending []func()
	running bool
}

// Post enqueues fn without waiting for it when another drain is in progress.
func (q *serialQueue) Post(fn func()) {
	q.mu.Lock()
	q.pending = append(q.pending, fn)
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()
	q.drain()
}

// Do runs fn on the queue and waits until it has finished.
// It must not be called from a function already running on the queue.
func (q *serialQueue) Do(fn func()) {
	done := make(chan struct{})
	q.Post(func() {
		defer close(done)
		fn()
	})
	<-done
}

func (q *serialQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		fn := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.run(fn)
	}
}

func (q *serialQueue) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.mu.Lock()
			q.running = false
			q.mu.Unlock()
			panic(r)
		}
	}()
	fn()
}
