// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import (
	"context"
	"fmt"
	"time"
)

// HLSMimeType is the manifest type probed for native element playback.
const HLSMimeType = "application/vnd.apple.mpegurl"

// MediaEventType names the element events the engine reacts to.
type MediaEventType string

const (
	MediaPlay    MediaEventType = "play"
	MediaPlaying MediaEventType = "playing"
	MediaPause   MediaEventType = "pause"
	MediaWaiting MediaEventType = "waiting"
	MediaError   MediaEventType = "error"
	MediaEnded   MediaEventType = "ended"
)

// MediaErrorCode mirrors the HTML media error codes.
type MediaErrorCode int

const (
	MediaErrAborted MediaErrorCode = iota + 1
	MediaErrNetwork
	MediaErrDecode
	MediaErrSrcNotSupported
)

func (c MediaErrorCode) String() string {
	switch c {
	case MediaErrAborted:
		return "aborted"
	case MediaErrNetwork:
		return "network"
	case MediaErrDecode:
		return "decode"
	case MediaErrSrcNotSupported:
		return "source not supported"
	default:
		return "unknown"
	}
}

// ElementError is the error carried by a MediaError event.
type ElementError struct {
	Code    MediaErrorCode
	Message string
}

func (e *ElementError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("media error: %s", e.Code)
	}
	return fmt.Sprintf("media error: %s: %s", e.Code, e.Message)
}

// MediaEvent is a single event emitted by a MediaElement.
type MediaEvent struct {
	Type MediaEventType
	// Err is set for MediaError events.
	Err *ElementError
}

// MediaElement is the playback surface the engine drives. The engine never creates it.
//
// Implementations must not invoke subscribers while holding internal locks: a
// subscriber may call back into the element.
type MediaElement interface {
	Play(ctx context.Context) error
	Pause()
	Load()
	Paused() bool

	Source() string
	SetSource(url string)
	CanPlayType(mime string) bool

	CurrentTime() time.Duration
	Volume() float64
	SetVolume(v float64)
	Muted() bool
	SetMuted(muted bool)

	// Subscribe registers fn for element events and returns a function that removes it.
	Subscribe(fn func(MediaEvent)) (unsubscribe func())
}
