// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package resilience

import "time"

const (
	DefaultBaseDelay          = 1000 * time.Millisecond
	DefaultCapDelay           = 8000 * time.Millisecond
	DefaultMaxAttempts        = 5
	DefaultMaxMediaRecoveries = 3
)

// Policy is the reconnect backoff policy for a playback session.
// The zero value is not useful; use DefaultPolicy or Normalize.
type Policy struct {
	BaseDelay   time.Duration
	CapDelay    time.Duration
	MaxAttempts int
	// MaxMediaRecoveries bounds consecutive in-place media repairs before a
	// decode failure is escalated to a full reconnect.
	MaxMediaRecoveries int
}

// DefaultPolicy returns the 1s/8s/5 attempts policy.
func DefaultPolicy() Policy {
	return Policy{
		BaseDelay:          DefaultBaseDelay,
		CapDelay:           DefaultCapDelay,
		MaxAttempts:        DefaultMaxAttempts,
		MaxMediaRecoveries: DefaultMaxMediaRecoveries,
	}
}

// Normalize fills unset or invalid fields with defaults.
func (p Policy) Normalize() Policy {
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.CapDelay <= 0 {
		p.CapDelay = DefaultCapDelay
	}
	if p.CapDelay < p.BaseDelay {
		p.CapDelay = p.BaseDelay
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.MaxMediaRecoveries < 0 {
		p.MaxMediaRecoveries = DefaultMaxMediaRecoveries
	}
	return p
}

// Delay returns min(CapDelay, BaseDelay * 2^(attempt-1)).
// Attempts below 1 are treated as the first attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		if delay >= p.CapDelay {
			break
		}
		delay *= 2
	}
	if delay > p.CapDelay {
		return p.CapDelay
	}
	return delay
}

// Exhausted reports whether attempts has reached the attempt ceiling.
func (p Policy) Exhausted(attempts int) bool {
	return attempts >= p.MaxAttempts
}

// MediaRecoveryExhausted reports whether the in-place repair budget is spent.
func (p Policy) MediaRecoveryExhausted(recoveries int) bool {
	return recoveries >= p.MaxMediaRecoveries
}
