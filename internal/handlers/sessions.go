package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/jwebster45206/outbreak-engine/internal/session"
	"github.com/jwebster45206/outbreak-engine/pkg/engine"
	"github.com/jwebster45206/outbreak-engine/pkg/storage"
)

// SnapshotLoader reads the stored state of sessions that are not live in this process.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context, id uuid.UUID) (*storage.Snapshot, error)
}

// CreateSessionRequest defines the request body for creating a session
type CreateSessionRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// CommandResponse is returned for every command, applied or not.
type CommandResponse struct {
	Applied       bool                  `json:"applied"`
	Notifications []engine.Notification `json:"notifications"`
	Game          engine.Game           `json:"game"`
}

// SnapshotResponse is returned for sessions known only from storage.
type SnapshotResponse struct {
	Live     bool              `json:"live"`
	Snapshot *storage.Snapshot `json:"snapshot"`
}

type SessionHandler struct {
	sessions  *session.Manager
	snapshots SnapshotLoader // optional
	logger    *slog.Logger
}

func NewSessionHandler(logger *slog.Logger, sessions *session.Manager, snapshots SnapshotLoader) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		snapshots: snapshots,
		logger:    logger,
	}
}

// ServeHTTP handles HTTP requests for session operations
// Routes:
// POST /v1/sessions                - Create a session
// GET /v1/sessions/{id}            - Read a session
// DELETE /v1/sessions/{id}         - Stop and delete a session
// POST /v1/sessions/{id}/commands  - Apply a command
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	var parts []string
	if path != "" {
		parts = strings.Split(path, "/")
	}

	switch {
	case len(parts) == 0:
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.handleCreate(w, r)

	case len(parts) == 1:
		id, ok := h.parseID(w, parts[0])
		if !ok {
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}

	case len(parts) == 2 && parts[1] == "commands":
		id, ok := h.parseID(w, parts[0])
		if !ok {
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.handleCommand(w, r, id)

	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *SessionHandler) parseID(w http.ResponseWriter, s string) (uuid.UUID, bool) {
	id, err := uuid.Parse(s)
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", s, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return uuid.Nil, false
	}
	return id, true
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ScenarioID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "scenario_id is required")
		return
	}

	s, err := h.sessions.Create(r.Context(), req.ScenarioID)
	if err != nil {
		if errors.Is(err, storage.ErrScenarioNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Scenario not found")
			return
		}
		h.logger.Error("Failed to create session", "error", err, "scenario_id", req.ScenarioID)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create session")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, s.View())
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	s, err := h.sessions.Get(id)
	if err == nil {
		writeJSON(w, h.logger, http.StatusOK, s.View())
		return
	}

	if h.snapshots != nil {
		snap, lerr := h.snapshots.LoadSnapshot(r.Context(), id)
		if lerr != nil {
			h.logger.Error("Failed to load snapshot", "error", lerr, "session_id", id)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
			return
		}
		if snap != nil {
			writeJSON(w, h.logger, http.StatusOK, SnapshotResponse{Live: false, Snapshot: snap})
			return
		}
	}
	writeError(w, h.logger, http.StatusNotFound, "Session not found")
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.sessions.Delete(r.Context(), id); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Session not found")
			return
		}
		h.logger.Error("Failed to delete session", "error", err, "session_id", id)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) handleCommand(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req session.Request
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	g, res, err := h.sessions.Command(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	notes := res.Notifications
	if notes == nil {
		notes = []engine.Notification{}
	}
	writeJSON(w, h.logger, http.StatusOK, CommandResponse{
		Applied:       res.Applied,
		Notifications: notes,
		Game:          g,
	})
}
