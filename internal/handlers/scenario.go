package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
	"github.com/jwebster45206/outbreak-engine/pkg/storage"
)

// ScenarioSource lists and loads scenarios.
type ScenarioSource interface {
	ListScenarios(ctx context.Context) ([]scenario.Summary, error)
	GetScenario(ctx context.Context, id string) (*scenario.Scenario, error)
}

type ScenarioHandler struct {
	log       *slog.Logger
	scenarios ScenarioSource
}

func NewScenarioHandler(log *slog.Logger, scenarios ScenarioSource) *ScenarioHandler {
	return &ScenarioHandler{
		log:       log,
		scenarios: scenarios,
	}
}

// ServeHTTP handles scenario catalogue requests
// Routes:
// GET /v1/scenarios      - List scenarios
// GET /v1/scenarios/{id} - Full scenario descriptor
func (h *ScenarioHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.log, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/scenarios"), "/")
	if id == "" {
		h.handleList(w, r)
		return
	}
	h.handleGet(w, r, id)
}

func (h *ScenarioHandler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.scenarios.ListScenarios(r.Context())
	if err != nil {
		h.log.Error("Failed to list scenarios", "error", err)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to list scenarios")
		return
	}
	writeJSON(w, h.log, http.StatusOK, list)
}

func (h *ScenarioHandler) handleGet(w http.ResponseWriter, r *http.Request, id string) {
	if !scenario.IsValidID(id) {
		writeError(w, h.log, http.StatusBadRequest, "Invalid scenario id")
		return
	}

	s, err := h.scenarios.GetScenario(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrScenarioNotFound) {
			writeError(w, h.log, http.StatusNotFound, "Scenario not found")
			return
		}
		h.log.Error("Failed to get scenario", "error", err, "id", id)
		writeError(w, h.log, http.StatusInternalServerError, "Failed to retrieve scenario")
		return
	}
	writeJSON(w, h.log, http.StatusOK, s)
}
