// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PlaybackStatusTransitions counts coordinator status transitions (self-loops included).
	PlaybackStatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wavecast_playback_status_transitions_total",
		Help: "Playback status transitions by source and target status",
	}, []string{"from", "to"})

	// PlaybackReconnectAttempts counts reconnect cycles scheduled by the stream client.
	PlaybackReconnectAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wavecast_playback_reconnect_attempts_total",
		Help: "Reconnect attempts by trigger (automatic or manual)",
	}, []string{"trigger"})

	// PlaybackReconnectDelay tracks the backoff delay chosen for each automatic attempt.
	PlaybackReconnectDelay = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wavecast_playback_reconnect_delay_seconds",
		Help:    "Backoff delay scheduled before a reconnect",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	})

	// PlaybackReconnectOutcomes counts how degraded sessions ended up.
	PlaybackReconnectOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wavecast_playback_reconnect_outcomes_total",
		Help: "Reconnect outcomes (healed, ready, exhausted)",
	}, []string{"outcome"})

	// PlaybackTransportErrors counts classified transport errors and the action taken.
	PlaybackTransportErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wavecast_playback_transport_errors_total",
		Help: "Transport errors by class, fatality and recovery action",
	}, []string{"class", "fatal", "action"})

	// PlaybackMediaRecoveries counts in-place media repairs.
	PlaybackMediaRecoveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavecast_playback_media_recoveries_total",
		Help: "In-place media error recoveries requested from the transport",
	})

	// PlaybackSessionsActive is the number of live playback sessions.
	PlaybackSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wavecast_playback_sessions_active",
		Help: "Number of attached playback sessions",
	})

	// PlaybackSessionsTotal counts created sessions by strategy.
	PlaybackSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wavecast_playback_sessions_total",
		Help: "Playback sessions created by strategy",
	}, []string{"strategy"})
)

// RecordStatusTransition records a coordinator transition.
func RecordStatusTransition(from, to string) {
	PlaybackStatusTransitions.WithLabelValues(from, to).Inc()
}

// RecordReconnectScheduled records an automatic reconnect and its delay.
func RecordReconnectScheduled(delay time.Duration) {
	PlaybackReconnectAttempts.WithLabelValues("automatic").Inc()
	PlaybackReconnectDelay.Observe(delay.Seconds())
}

// RecordManualRetry records a caller-initiated reconnect.
func RecordManualRetry() {
	PlaybackReconnectAttempts.WithLabelValues("manual").Inc()
}

// RecordReconnectOutcome records how a reconnect cycle ended.
func RecordReconnectOutcome(outcome string) {
	PlaybackReconnectOutcomes.WithLabelValues(outcome).Inc()
}

// RecordTransportError records a classified transport error.
func RecordTransportError(class string, fatal bool, action string) {
	PlaybackTransportErrors.WithLabelValues(class, strconv.FormatBool(fatal), action).Inc()
}

// RecordMediaRecovery records an in-place media repair.
func RecordMediaRecovery() {
	PlaybackMediaRecoveries.Inc()
}

// SessionOpened records a new session for the given strategy.
func SessionOpened(strategy string) {
	PlaybackSessionsTotal.WithLabelValues(strategy).Inc()
	PlaybackSessionsActive.Inc()
}

// SessionClosed records a destroyed session.
func SessionClosed() {
	PlaybackSessionsActive.Dec()
}
