// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HLSFetchDuration tracks origin fetch latency by resource kind (manifest, level, fragment).
	HLSFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wavecast_hls_fetch_duration_seconds",
		Help:    "Time taken to fetch HLS resources from the origin",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"kind"})

	// HLSFetchErrors counts failed origin fetches by resource kind.
	HLSFetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wavecast_hls_fetch_errors_total",
		Help: "Failed HLS fetches by resource kind",
	}, []string{"kind"})

	// HLSFragmentBytes counts fragment bytes handed to the media element.
	HLSFragmentBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wavecast_hls_fragment_bytes_total",
		Help: "Fragment payload bytes appended to the media buffer",
	})
)

// ObserveHLSFetch records a fetch outcome.
func ObserveHLSFetch(kind string, d time.Duration, err error) {
	HLSFetchDuration.WithLabelValues(kind).Observe(d.Seconds())
	if err != nil {
		HLSFetchErrors.WithLabelValues(kind).Inc()
	}
}

// AddHLSFragmentBytes records appended fragment bytes.
func AddHLSFragmentBytes(n int) {
	HLSFragmentBytes.Add(float64(n))
}
