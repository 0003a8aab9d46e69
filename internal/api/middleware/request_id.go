// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ManuGH/wavecast/internal/log"
)

// HeaderRequestID carries the request correlation ID.
const HeaderRequestID = "X-Request-ID"

// RequestID propagates or assigns a request ID and stores it in the context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(HeaderRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}
		w.Header().Set(HeaderRequestID, reqID)
		next.ServeHTTP(w, r.WithContext(log.ContextWithRequestID(r.Context(), reqID)))
	})
}

// AccessLog logs one line per request at debug level.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		mw := &metricsWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(mw, r)

		traceID, _ := TraceIDs(r)
		logger := log.WithComponentFromContext(r.Context(), "api")
		logger.Debug().
			Str(log.FieldEvent, "http.request").
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", mw.statusCode).
			Dur("duration", time.Since(start)).
			Str("trace_id", traceID).
			Msg("request served")
	})
}
