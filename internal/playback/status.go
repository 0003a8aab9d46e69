// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package playback

// Status is the externally visible playback status.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusBuffering    Status = "buffering"
	StatusPlaying      Status = "playing"
	StatusReconnecting Status = "reconnecting"
	StatusError        Status = "error"
)

func (s Status) String() string { return string(s) }

// Snapshot is what the UI layer renders.
type Snapshot struct {
	Status Status `json:"status"`
	// Error is the human-readable message while Status is StatusError.
	Error string `json:"error,omitempty"`
	// Err carries the taxonomy sentinel for errors.Is checks.
	Err         error   `json:"-"`
	Attempt     int     `json:"attempt"`
	MaxAttempts int     `json:"maxAttempts"`
	Source      string  `json:"source,omitempty"`
	Strategy    string  `json:"strategy,omitempty"`
	Volume      float64 `json:"volume"`
	Muted       bool    `json:"muted"`
}

// Playing reports whether audio is currently rendering.
func (s Snapshot) Playing() bool { return s.Status == StatusPlaying }
