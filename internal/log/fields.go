// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldRequestID = "request_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldStrategy  = "strategy"
	FieldEpoch     = "epoch"

	// Retry fields
	FieldAttempt     = "attempt"
	FieldMaxAttempts = "max_attempts"
	FieldDelay       = "delay"
	FieldRecoveries  = "media_recoveries"

	// Transport error fields
	FieldErrorClass   = "error_class"
	FieldErrorDetails = "error_details"
	FieldFatal        = "fatal"
	FieldAction       = "action"

	// State fields
	FieldOldState = "old_state"
	FieldNewState = "new_state"
	FieldTrigger  = "trigger"

	// Path / URL fields
	FieldSourceURL = "source_url"
	FieldLevelURL  = "level_url"
	FieldSegment   = "segment"
)
