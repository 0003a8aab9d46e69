// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import "fmt"

// TransportEventKind names the transport events the client observes.
type TransportEventKind string

const (
	EventManifestParsed TransportEventKind = "manifestParsed"
	EventLevelLoaded    TransportEventKind = "levelLoaded"
	EventFragLoaded     TransportEventKind = "fragLoaded"
	EventError          TransportEventKind = "error"
)

// ErrorType is the transport library's own error category.
type ErrorType string

const (
	ErrorTypeNetwork ErrorType = "networkError"
	ErrorTypeMedia   ErrorType = "mediaError"
	ErrorTypeOther   ErrorType = "otherError"
)

// TransportError is the payload of an EventError.
type TransportError struct {
	Type    ErrorType
	Details string
	// Fatal is the library's judgment that the current session is broken.
	Fatal bool
	Err   error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s, fatal=%t): %v", e.Details, e.Type, e.Fatal, e.Err)
	}
	return fmt.Sprintf("%s (%s, fatal=%t)", e.Details, e.Type, e.Fatal)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TransportEvent is a single event delivered by a Transport.
type TransportEvent struct {
	Kind TransportEventKind
	// Err is set for EventError.
	Err *TransportError
}

// Transport is an adaptive-bitrate stream transport bound to one media element.
//
// Events are delivered to the handler passed to TransportFactory.New, in order,
// and never synchronously from inside a Transport method.
type Transport interface {
	AttachMedia(el MediaElement) error
	DetachMedia()
	LoadSource(url string)
	StopLoad()
	// RecoverMediaError repairs the media pipeline without tearing down the session.
	RecoverMediaError()
	Destroy()
}

// TransportFactory creates transports and reports runtime support for an element.
type TransportFactory interface {
	Supported(el MediaElement) bool
	New(handler func(TransportEvent)) Transport
}
