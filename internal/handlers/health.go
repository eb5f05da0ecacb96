package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Pinger is a dependency whose availability is reported by the health check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SessionCounter reports the number of live sessions.
type SessionCounter interface {
	Len() int
}

type HealthResponse struct {
	Status     string         `json:"status"`
	Timestamp  time.Time      `json:"timestamp"`
	Service    string         `json:"service"`
	Components map[string]any `json:"components"`
}

type HealthHandler struct {
	redis    Pinger // nil when broadcasting is disabled
	sessions SessionCounter
	logger   *slog.Logger
}

func NewHealthHandler(redis Pinger, sessions SessionCounter, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		redis:    redis,
		sessions: sessions,
		logger:   logger,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Health check requested",
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	components := make(map[string]any)
	overallStatus := "healthy"

	if h.redis == nil {
		components["redis"] = "disabled"
	} else if err := h.redis.Ping(ctx); err != nil {
		h.logger.Warn("Redis health check failed", "error", err)
		components["redis"] = "unhealthy"
		overallStatus = "degraded"
	} else {
		components["redis"] = "healthy"
	}
	if h.sessions != nil {
		components["sessions"] = h.sessions.Len()
	}

	response := HealthResponse{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Service:    "outbreak-engine",
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	writeJSON(w, h.logger, statusCode, response)
}
