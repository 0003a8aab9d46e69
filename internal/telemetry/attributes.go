// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Span attribute keys.
const (
	HLSKindKey      = "hls.kind"
	HLSURLKey       = "hls.url"
	HLSBytesKey     = "hls.bytes"
	HLSStatusKey    = "hls.status_code"
	SessionIDKey    = "playback.session_id"
	StrategyKey     = "playback.strategy"
	AttemptKey      = "playback.attempt"
	MaxAttemptsKey  = "playback.max_attempts"
	ErrorTypeKey    = "error.type"
	ErrorDetailsKey = "error.details"
)

// FetchAttributes describes one origin request.
func FetchAttributes(kind, url string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HLSKindKey, kind),
		attribute.String(HLSURLKey, url),
	}
}

// SessionAttributes describes a playback session.
func SessionAttributes(sessionID, strategy string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if sessionID != "" {
		attrs = append(attrs, attribute.String(SessionIDKey, sessionID))
	}
	if strategy != "" {
		attrs = append(attrs, attribute.String(StrategyKey, strategy))
	}
	return attrs
}

// ReconnectAttributes describes a scheduled reconnect.
func ReconnectAttributes(attempt, maxAttempts int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttemptKey, attempt),
		attribute.Int(MaxAttemptsKey, maxAttempts),
	}
}

// ErrorAttributes classifies an error on a span.
func ErrorAttributes(errorType, details string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(ErrorTypeKey, errorType),
		attribute.String(ErrorDetailsKey, details),
	}
}
