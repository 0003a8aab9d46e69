// SPDX-License-Identifier: MIT

package middleware

import (
	"time"

	"github.com/go-chi/chi/v5"
)

// StackConfig configures the ingress middleware stack.
type StackConfig struct {
	// TracingService names the otel service; empty disables tracing.
	TracingService     string
	RateLimitPerMinute int
}

// NewRouter constructs a chi router with the middleware stack applied.
func NewRouter(cfg StackConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(Recoverer)
	r.Use(RequestID)
	if cfg.TracingService != "" {
		r.Use(OTelHTTP(cfg.TracingService))
	}
	r.Use(Metrics())
	r.Use(AccessLog)
	r.Use(RateLimit(cfg.RateLimitPerMinute, time.Minute))
	return r
}
