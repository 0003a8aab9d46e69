// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

import "errors"

var (
	// ErrNetworkTransient is a network failure recoverable by reconnecting.
	ErrNetworkTransient = errors.New("transient network error")
	// ErrMediaDecodeTransient is a decode failure recoverable by in-place repair.
	ErrMediaDecodeTransient = errors.New("transient media decode error")
	// ErrExhaustedRetries is terminal until a manual retry.
	ErrExhaustedRetries = errors.New("reconnect attempts exhausted")
	// ErrPlaybackRejected means the element refused to start playback.
	ErrPlaybackRejected = errors.New("playback rejected")
	// ErrMediaFailure is an unrecoverable element error with no transport in play.
	ErrMediaFailure = errors.New("media playback failed")

	ErrEmptySource     = errors.New("empty source url")
	ErrClientDestroyed = errors.New("client destroyed")
)

// ErrCoordinatorClosed is returned by commands after Close.
var ErrCoordinatorClosed = errors.New("coordinator closed")
