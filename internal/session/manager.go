package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	applog "github.com/jwebster45206/outbreak-engine/internal/logger"
	"github.com/jwebster45206/outbreak-engine/pkg/engine"
	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
	"github.com/jwebster45206/outbreak-engine/pkg/storage"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

// ErrInvalidSpeed is returned for speed requests other than nominal or fast.
var ErrInvalidSpeed = errors.New("invalid speed")

// CmdSpeed changes the clock cadence of a session. It is handled by the session
// layer and never reaches the engine.
const CmdSpeed engine.CommandType = "speed"

// ScenarioSource loads scenarios by id.
type ScenarioSource interface {
	GetScenario(ctx context.Context, id string) (*scenario.Scenario, error)
}

// SnapshotStore keeps the last state of each session for readers outside this process.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *storage.Snapshot) error
	DeleteSnapshot(ctx context.Context, id uuid.UUID) error
}

// Publisher receives session events. *events.Broadcaster satisfies it.
type Publisher interface {
	PublishNotification(ctx context.Context, sessionID uuid.UUID, n engine.Notification) error
	PublishStateUpdated(ctx context.Context, sessionID uuid.UUID, g engine.Game) error
	PublishCompleted(ctx context.Context, sessionID uuid.UUID, won bool, score int) error
	PublishSessionClosed(ctx context.Context, sessionID uuid.UUID, reason string) error
	// Notifier returns the engine notifier that publishes one session's notifications.
	Notifier(sessionID uuid.UUID, timeout time.Duration) engine.Notifier
}

// Request is a player command as received by the API.
type Request struct {
	Type     engine.CommandType `json:"type"`
	ActionID string             `json:"action_id,omitempty"`
	Choice   *int               `json:"choice,omitempty"`
	Speed    engine.Speed       `json:"speed,omitempty"`
}

// Options tune the sessions a Manager creates.
type Options struct {
	NominalInterval time.Duration
	FastInterval    time.Duration
	TTL             time.Duration // idle time before a session is swept
	Seed            int64         // 0 seeds every session from the clock
	PublishTimeout  time.Duration
}

// Manager owns the live sessions of a process.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session

	scenarios ScenarioSource
	store     SnapshotStore
	publisher Publisher
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
	tickers   engine.TickerFactory
}

// NewManager creates a manager loading scenarios from src.
func NewManager(src ScenarioSource, opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 2 * time.Second
	}
	return &Manager{
		sessions:  make(map[uuid.UUID]*Session),
		scenarios: src,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// WithStore sets where session snapshots are saved.
// Returns the Manager for method chaining
func (m *Manager) WithStore(store SnapshotStore) *Manager {
	m.store = store
	return m
}

// WithPublisher sets where session events are published.
// Returns the Manager for method chaining
func (m *Manager) WithPublisher(p Publisher) *Manager {
	m.publisher = p
	return m
}

// WithClock replaces time.Now for idle tracking.
// Returns the Manager for method chaining
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// WithTickerFactory replaces the wall-clock tickers of new sessions.
// Returns the Manager for method chaining
func (m *Manager) WithTickerFactory(f engine.TickerFactory) *Manager {
	m.tickers = f
	return m
}

// Create starts a new session of the scenario in its briefing stage.
func (m *Manager) Create(ctx context.Context, scenarioID string) (*Session, error) {
	sc, err := m.scenarios.GetScenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	now := m.now()
	logger := applog.WithSession(m.logger, id.String()).With("scenario", sc.ID)

	s := &Session{
		ID:         id,
		ScenarioID: sc.ID,
		CreatedAt:  now,
		speed:      engine.SpeedNominal,
		lastUsed:   now,
		publisher:  m.publisher,
		store:      m.store,
		logger:     logger,
		timeout:    m.opts.PublishTimeout,
	}

	notifiers := engine.Notifiers{engine.NotifierFunc(s.record)}
	if m.publisher != nil {
		notifiers = append(notifiers, m.publisher.Notifier(id, s.timeout))
	}
	s.engine = engine.New(sc, logger).
		WithRand(engine.NewRand(m.opts.Seed)).
		WithNotifier(notifiers).
		WithOnComplete(s.onComplete)

	s.runner = engine.NewRunner(s, m.opts.NominalInterval, m.opts.FastInterval, logger)
	if m.tickers != nil {
		s.runner.WithTickerFactory(m.tickers)
	}
	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.runner.Run(runCtx)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	logger.Info("Session created")
	return s, nil
}

// Get returns a live session.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Command applies a player request to a session. Rejected engine commands are not
// errors; the result reports Applied false.
func (m *Manager) Command(ctx context.Context, id uuid.UUID, req Request) (engine.Game, engine.Result, error) {
	s, err := m.Get(id)
	if err != nil {
		return engine.Game{}, engine.Result{}, err
	}

	switch req.Type {
	case CmdSpeed:
		if !req.Speed.Valid() {
			return engine.Game{}, engine.Result{}, fmt.Errorf("%w: %q", ErrInvalidSpeed, req.Speed)
		}
		s.SetSpeed(req.Speed, m.now())
		return s.Snapshot(), engine.Result{Applied: true}, nil
	case engine.CmdStart, engine.CmdPause, engine.CmdResume, engine.CmdTick,
		engine.CmdActivate, engine.CmdResolve, engine.CmdRestart:
	default:
		return engine.Game{}, engine.Result{}, fmt.Errorf("unknown command type %q", req.Type)
	}

	g, res := s.Apply(engine.Command{Type: req.Type, ActionID: req.ActionID, Choice: req.Choice}, m.now())
	return g, res, nil
}

// Delete stops and removes a session.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	m.close(ctx, s, "deleted")
	return nil
}

// Sweep removes sessions idle for longer than the TTL and returns how many it removed.
func (m *Manager) Sweep(ctx context.Context) int {
	if m.opts.TTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.opts.TTL)

	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.close(ctx, s, "expired")
	}
	return len(expired)
}

// RunJanitor sweeps expired sessions every interval until ctx is cancelled.
func (m *Manager) RunJanitor(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(ctx); n > 0 {
				m.logger.Info("Expired sessions swept", "count", n, "remaining", m.Len())
			}
		}
	}
}

// Close stops every session.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range all {
		m.close(ctx, s, "shutdown")
	}
}

func (m *Manager) close(ctx context.Context, s *Session, reason string) {
	s.stop()
	if m.store != nil {
		if err := m.store.DeleteSnapshot(ctx, s.ID); err != nil {
			s.logger.Warn("Failed to delete snapshot", "error", err)
		}
	}
	if m.publisher != nil {
		_ = m.publisher.PublishSessionClosed(ctx, s.ID, reason)
	}
	s.logger.Info("Session closed", "reason", reason)
}
