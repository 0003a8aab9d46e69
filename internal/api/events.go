// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ManuGH/wavecast/internal/bus"
	"github.com/ManuGH/wavecast/internal/log"
	"github.com/ManuGH/wavecast/internal/playback"
)

// handleEvents streams status snapshots as server-sent events. The current
// snapshot is sent first, then every transition, with comment heartbeats.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	sub, err := s.bus.Subscribe(r.Context(), bus.TopicStatus)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "unavailable", Detail: err.Error()})
		return
	}
	defer func() { _ = sub.Close() }()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	logger := log.WithContext(r.Context(), s.logger)
	logger.Debug().Str(log.FieldEvent, "api.sse_open").Msg("status stream opened")
	defer logger.Debug().Str(log.FieldEvent, "api.sse_closed").Msg("status stream closed")

	if err := writeStatusEvent(w, s.ctrl.Snapshot()); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		return
	}

	heartbeat := s.cfg.Clock.NewTicker(s.cfg.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.Chan():
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case msg, ok := <-sub.C():
			if !ok {
				return
			}
			snap, isSnap := msg.(playback.Snapshot)
			if !isSnap {
				continue
			}
			if err := writeStatusEvent(w, snap); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeStatusEvent(w http.ResponseWriter, snap playback.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: status\ndata: %s\n\n", data)
	return err
}

// StatusPublisher returns a coordinator subscriber that forwards snapshots to
// b without blocking the coordinator.
func StatusPublisher(b *bus.MemoryBus) func(playback.Snapshot) {
	return func(snap playback.Snapshot) {
		b.TryPublish(bus.TopicStatus, snap)
	}
}
