// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ManuGH/wavecast/internal/log"
)

const maxBodyBytes = 4 << 10

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type volumeRequest struct {
	Volume *float64 `json:"volume"`
}

type sourceRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: s.cfg.Version})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Play(r.Context()); err != nil {
		s.commandFailed(r, "play", err)
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handlePause(w http.ResponseWriter, _ *http.Request) {
	s.ctrl.Pause()
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Retry(r.Context()); err != nil {
		s.commandFailed(r, "retry", err)
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleMute(w http.ResponseWriter, _ *http.Request) {
	s.ctrl.ToggleMute()
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req volumeRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Volume == nil {
		writeBadRequest(w, "volume is required")
		return
	}
	if *req.Volume < 0 || *req.Volume > 1 {
		writeBadRequest(w, "volume must be between 0 and 1")
		return
	}
	s.ctrl.SetVolume(*req.Volume)
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	src := strings.TrimSpace(req.URL)
	if src != "" {
		u, err := url.Parse(src)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			writeBadRequest(w, "url must be an absolute http or https URL")
			return
		}
	}
	if err := s.ctrl.SetSource(r.Context(), src); err != nil {
		s.commandFailed(r, "set_source", err)
		writeCommandError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) commandFailed(r *http.Request, command string, err error) {
	logger := log.WithContext(r.Context(), s.logger)
	logger.Warn().
		Err(err).
		Str(log.FieldEvent, "api.command_failed").
		Str("command", command).
		Msg("player command failed")
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
