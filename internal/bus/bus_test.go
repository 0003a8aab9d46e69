// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package bus

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/wavecast/internal/metrics"
)

func drain(sub Subscriber) []Message {
	var out []Message
	for {
		select {
		case m, ok := <-sub.C():
			if !ok {
				return out
			}
			out = append(out, m)
		default:
			return out
		}
	}
}

func TestPublishFansOut(t *testing.T) {
	b := NewMemoryBus(4)
	a, err := b.Subscribe(context.Background(), TopicStatus)
	require.NoError(t, err)
	c, err := b.Subscribe(context.Background(), TopicStatus)
	require.NoError(t, err)
	other, err := b.Subscribe(context.Background(), "other")
	require.NoError(t, err)
	t.Cleanup(b.Close)

	require.NoError(t, b.Publish(context.Background(), TopicStatus, "buffering"))
	b.TryPublish(TopicStatus, "playing")

	assert.Equal(t, []Message{"buffering", "playing"}, drain(a))
	assert.Equal(t, []Message{"buffering", "playing"}, drain(c))
	assert.Empty(t, drain(other))
}

func TestTryPublishKeepsLatest(t *testing.T) {
	b := NewMemoryBus(2)
	sub, err := b.Subscribe(context.Background(), TopicStatus)
	require.NoError(t, err)
	t.Cleanup(b.Close)

	before := testutil.ToFloat64(metrics.BusDroppedTotal.WithLabelValues(TopicStatus, "full"))
	for _, m := range []string{"idle", "buffering", "playing", "reconnecting"} {
		b.TryPublish(TopicStatus, m)
	}

	assert.Equal(t, []Message{"playing", "reconnecting"}, drain(sub))
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.BusDroppedTotal.WithLabelValues(TopicStatus, "full"))-before, 0.001)
}

func TestPublishTimesOutOnFullSubscriber(t *testing.T) {
	b := NewMemoryBus(1)
	_, err := b.Subscribe(context.Background(), "slow")
	require.NoError(t, err)
	t.Cleanup(b.Close)

	require.NoError(t, b.Publish(context.Background(), "slow", 1))

	before := testutil.ToFloat64(metrics.BusDroppedTotal.WithLabelValues("slow", "timeout"))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = b.Publish(ctx, "slow", 2)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.BusDroppedTotal.WithLabelValues("slow", "timeout"))-before, 0.001)
}

func TestPublishRejectsNilContext(t *testing.T) {
	b := NewMemoryBus(0)
	//nolint:staticcheck // nil context is the case under test
	err := b.Publish(nil, TopicStatus, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context is nil")
}

func TestSubscriptionEndsWithContext(t *testing.T) {
	b := NewMemoryBus(0)
	ctx, cancel := context.WithCancel(context.Background())
	sub, err := b.Subscribe(ctx, TopicStatus)
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-sub.C():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after context cancel")
	}
	require.NoError(t, sub.Close())

	// publishing to a topic without subscribers is a no-op
	b.TryPublish(TopicStatus, "idle")
}

func TestCloseEndsAllSubscriptions(t *testing.T) {
	b := NewMemoryBus(0)
	sub, err := b.Subscribe(context.Background(), TopicStatus)
	require.NoError(t, err)

	b.Close()
	_, ok := <-sub.C()
	assert.False(t, ok)

	_, err = b.Subscribe(context.Background(), TopicStatus)
	assert.ErrorIs(t, err, ErrClosed)
}
