package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/outbreak-engine/pkg/engine"
	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
)

// ErrScenarioNotFound is returned when no scenario has the requested id.
var ErrScenarioNotFound = errors.New("scenario not found")

// Snapshot is the last published value of a live session.
type Snapshot struct {
	SessionID  uuid.UUID   `json:"session_id"`
	ScenarioID string      `json:"scenario_id"`
	Game       engine.Game `json:"game"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Storage defines a unified interface for all storage operations
// Session snapshots live in Redis with an expiry; scenarios are read from a filesystem.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Snapshot operations (Redis-backed). LoadSnapshot returns nil, nil when absent.
	SaveSnapshot(ctx context.Context, snap *Snapshot) error
	LoadSnapshot(ctx context.Context, id uuid.UUID) (*Snapshot, error)
	DeleteSnapshot(ctx context.Context, id uuid.UUID) error

	// Scenario operations (filesystem-backed)
	ListScenarios(ctx context.Context) ([]scenario.Summary, error)
	GetScenario(ctx context.Context, id string) (*scenario.Scenario, error)
}
