// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import "fmt"

// ErrorClass is the engine's classification of a transport error.
type ErrorClass string

const (
	ClassNetwork ErrorClass = "network"
	ClassMedia   ErrorClass = "media"
	ClassOther   ErrorClass = "other"
)

// Classification is produced per error event and never stored.
type Classification struct {
	Class ErrorClass
	Fatal bool
}

// Classify maps a transport error onto the engine's taxonomy.
func Classify(err *TransportError) Classification {
	if err == nil {
		return Classification{Class: ClassOther}
	}
	switch err.Type {
	case ErrorTypeNetwork:
		return Classification{Class: ClassNetwork, Fatal: err.Fatal}
	case ErrorTypeMedia:
		return Classification{Class: ClassMedia, Fatal: err.Fatal}
	default:
		return Classification{Class: ClassOther, Fatal: err.Fatal}
	}
}

// recoveryAction is what the client does with a classified error.
type recoveryAction string

const (
	actionReconnect   recoveryAction = "reconnect"
	actionMediaRepair recoveryAction = "media_repair"
	actionAbsorbed    recoveryAction = "absorbed"
	actionScheduled   recoveryAction = "already_scheduled"
	actionExhausted   recoveryAction = "exhausted"
)

// plan picks the recovery path for c, before ceilings are applied.
func (c Classification) plan() recoveryAction {
	switch {
	case c.Fatal && c.Class == ClassMedia:
		return actionMediaRepair
	case c.Fatal:
		return actionReconnect
	case c.Class == ClassNetwork:
		// Non-fatal network errors frequently precede a fatal disconnect.
		return actionReconnect
	default:
		return actionAbsorbed
	}
}

// transient wraps details in the sentinel of a recoverable class. Unclassified
// errors have none.
func (c Classification) transient(details string) error {
	switch c.Class {
	case ClassNetwork:
		return fmt.Errorf("%w: %s", ErrNetworkTransient, details)
	case ClassMedia:
		return fmt.Errorf("%w: %s", ErrMediaDecodeTransient, details)
	}
	return nil
}
