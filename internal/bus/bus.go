// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package bus fans playback status snapshots out to any number of readers
// (SSE clients, loggers) without letting a slow reader stall the publisher.
package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/wavecast/internal/log"
	"github.com/ManuGH/wavecast/internal/metrics"
)

// TopicStatus carries playback.Snapshot values.
const TopicStatus = "status"

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 16

const dropLogEvery = 100

// ErrClosed is returned by Subscribe after Close.
var ErrClosed = errors.New("bus closed")

// Message is an opaque payload.
type Message any

// Subscriber receives messages of one topic until Close.
type Subscriber interface {
	C() <-chan Message
	Close() error
}

// MemoryBus is an in-process pub/sub. Publish blocks on a full subscriber
// until ctx is done; TryPublish drops instead.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string]map[*memSub]struct{}
	buffer int
	closed bool

	dropped atomic.Uint64
}

// NewMemoryBus creates a bus with buffer slots per subscriber. buffer <= 0
// uses DefaultBuffer.
func NewMemoryBus(buffer int) *MemoryBus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &MemoryBus{subs: make(map[string]map[*memSub]struct{}), buffer: buffer}
}

func publishDropReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "context_done"
	}
}

// Publish delivers msg to every subscriber of topic, waiting for space.
func (b *MemoryBus) Publish(ctx context.Context, topic string, msg Message) error {
	if ctx == nil {
		return fmt.Errorf("publish context is nil")
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs[topic] {
		select {
		case s.ch <- msg:
		case <-ctx.Done():
			b.drop(topic, publishDropReason(ctx.Err()))
			return fmt.Errorf("publish topic %q: %w", topic, ctx.Err())
		}
	}
	return nil
}

// TryPublish delivers msg without blocking. A full subscriber loses its
// oldest queued message so it always ends up with the latest one.
func (b *MemoryBus) TryPublish(topic string, msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs[topic] {
		for {
			select {
			case s.ch <- msg:
			default:
				select {
				case <-s.ch:
					b.drop(topic, "full")
				default:
				}
				continue
			}
			break
		}
	}
}

// Subscribe opens a subscription to topic. The subscription ends when Close
// is called or ctx is done; either closes C.
func (b *MemoryBus) Subscribe(ctx context.Context, topic string) (Subscriber, error) {
	s := &memSub{b: b, topic: topic, ch: make(chan Message, b.buffer)}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[*memSub]struct{})
	}
	b.subs[topic][s] = struct{}{}
	b.mu.Unlock()
	metrics.BusSubscribers.WithLabelValues(topic).Inc()

	if ctx != nil && ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() { _ = s.Close() })
		s.stop = stop
	}
	return s, nil
}

// Close ends every subscription.
func (b *MemoryBus) Close() {
	b.mu.Lock()
	b.closed = true
	var all []*memSub
	for _, subs := range b.subs {
		for s := range subs {
			all = append(all, s)
		}
	}
	b.mu.Unlock()
	for _, s := range all {
		_ = s.Close()
	}
}

func (b *MemoryBus) drop(topic, reason string) {
	metrics.IncBusDropReason(topic, reason)
	if count := b.dropped.Add(1); count%dropLogEvery == 0 {
		log.L().Warn().
			Str(log.FieldEvent, "bus.drop").
			Str("topic", topic).
			Str("reason", reason).
			Uint64("dropped", count).
			Msg("memory bus dropped messages")
	}
}

type memSub struct {
	b     *MemoryBus
	topic string
	ch    chan Message
	stop  func() bool
	once  sync.Once
}

func (s *memSub) C() <-chan Message {
	return s.ch
}

func (s *memSub) Close() error {
	s.once.Do(func() {
		if s.stop != nil {
			s.stop()
		}
		s.b.mu.Lock()
		subs := s.b.subs[s.topic]
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.b.subs, s.topic)
		}
		// closing under the write lock keeps publishers off the channel
		close(s.ch)
		s.b.mu.Unlock()
		metrics.BusSubscribers.WithLabelValues(s.topic).Dec()
	})
	return nil
}
