// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BusDroppedTotal counts status bus messages a subscriber never received.
	BusDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wavecast_bus_dropped_total",
		Help: "In-memory bus message drops by topic and reason",
	}, []string{"topic", "reason"})

	// BusSubscribers is the number of open subscriptions per topic.
	BusSubscribers = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "wavecast_bus_subscribers",
		Help: "Open in-memory bus subscriptions by topic",
	}, []string{"topic"})
)

// IncBusDropReason records a dropped bus message with a concrete reason.
func IncBusDropReason(topic, reason string) {
	if topic == "" {
		topic = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	BusDroppedTotal.WithLabelValues(topic, reason).Inc()
}
