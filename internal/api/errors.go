// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ManuGH/wavecast/internal/playback"
)

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "bad_request", Detail: detail})
}

// writeCommandError maps playback errors onto HTTP statuses.
func writeCommandError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, playback.ErrEmptySource):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "no_source", Detail: err.Error()})
	case errors.Is(err, playback.ErrPlaybackRejected):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "playback_rejected", Detail: err.Error()})
	case errors.Is(err, playback.ErrCoordinatorClosed), errors.Is(err, playback.ErrClientDestroyed):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "unavailable", Detail: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal", Detail: err.Error()})
	}
}
