package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/cbodonnell/rewind/pkg/codec"
	"github.com/cbodonnell/rewind/pkg/game"
	"github.com/cbodonnell/rewind/pkg/log"
	"github.com/cbodonnell/rewind/pkg/playback"
	"github.com/cbodonnell/rewind/pkg/queue"
	"github.com/cbodonnell/rewind/pkg/repositories"
	"github.com/cbodonnell/rewind/pkg/session"
	"github.com/cbodonnell/rewind/pkg/sim"
	"github.com/cbodonnell/rewind/pkg/state"
	"github.com/gorilla/mux"
)

const (
	// CommandTimeout bounds how long a request waits for the game loop.
	CommandTimeout = 5 * time.Second
	// DefaultSnapshotLimit is the page size of snapshot listings.
	DefaultSnapshotLimit = 20
	// MaxSnapshotLimit caps the limit query parameter.
	MaxSnapshotLimit = 100
)

type errorResponse struct {
	Error string `json:"error"`
}

type commandResponse struct {
	Command playback.Command `json:"command"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func HandleGetStatus(statusManager state.StatusManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := statusManager.Get(r.Context())
		if err != nil {
			if errors.Is(err, state.ErrNoStatus) {
				writeError(w, http.StatusServiceUnavailable, err)
				return
			}
			log.Error("failed to get status: %v", err)
			http.Error(w, "Failed to get status", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, status)
	}
}

func HandleSubmitCommand(commandQueue queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, err := playback.ParseCommand(mux.Vars(r)["command"])
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), CommandTimeout)
		defer cancel()
		if err := game.SubmitCommand(ctx, commandQueue, cmd); err != nil {
			writeError(w, commandErrorStatus(err), err)
			return
		}
		writeJSON(w, http.StatusOK, commandResponse{Command: cmd})
	}
}

// commandErrorStatus maps the outcome of a command to an HTTP status.
func commandErrorStatus(err error) int {
	switch {
	case errors.Is(err, playback.ErrUnknownCommand):
		return http.StatusBadRequest
	case errors.Is(err, playback.ErrAlreadyPlaying),
		errors.Is(err, playback.ErrNotPlaying),
		errors.Is(err, playback.ErrDetached):
		return http.StatusConflict
	case errors.Is(err, session.ErrNoSession),
		errors.Is(err, queue.ErrQueueFull):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case codec.IsDecodeError(err), sim.IsLogicError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func HandleLatestSnapshot(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := mux.Vars(r)["sessionID"]
		snapshot, err := repository.LatestSnapshot(r.Context(), sessionID)
		if err != nil {
			if repositories.IsNotFound(err) {
				http.Error(w, "Snapshot not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get latest snapshot: %v", err)
			http.Error(w, "Failed to get latest snapshot", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, snapshot)
	}
}

func HandleListSnapshots(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := DefaultSnapshotLimit
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 1 || n > MaxSnapshotLimit {
				http.Error(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		sessionID := mux.Vars(r)["sessionID"]
		snapshots, err := repository.ListSnapshots(r.Context(), sessionID, limit)
		if err != nil {
			log.Error("failed to list snapshots: %v", err)
			http.Error(w, "Failed to list snapshots", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, snapshots)
	}
}
