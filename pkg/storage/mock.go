package storage

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
)

// MockStorage is a mock implementation of Storage for testing
type MockStorage struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]*Snapshot
	scenarios map[string]*scenario.Scenario
	pingError error
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		snapshots: make(map[uuid.UUID]*Snapshot),
		scenarios: make(map[string]*scenario.Scenario),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) SaveSnapshot(ctx context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *snap
	cp.Game = snap.Game.Clone()
	m.snapshots[snap.SessionID] = &cp
	return nil
}

func (m *MockStorage) LoadSnapshot(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[id]
	if !ok {
		return nil, nil
	}
	cp := *snap
	cp.Game = snap.Game.Clone()
	return &cp, nil
}

func (m *MockStorage) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, id)
	return nil
}

// AddScenario adds a scenario to the mock storage
func (m *MockStorage) AddScenario(s *scenario.Scenario) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[s.ID] = s
}

func (m *MockStorage) ListScenarios(ctx context.Context) ([]scenario.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]scenario.Summary, 0, len(m.scenarios))
	for _, s := range m.scenarios {
		out = append(out, s.Summary())
	}
	slices.SortFunc(out, func(a, b scenario.Summary) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *MockStorage) GetScenario(ctx context.Context, id string) (*scenario.Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scenarios[id]
	if !ok {
		return nil, ErrScenarioNotFound
	}
	cp := *s
	return &cp, nil
}
