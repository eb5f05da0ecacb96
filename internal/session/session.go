package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/outbreak-engine/pkg/engine"
	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
	"github.com/jwebster45206/outbreak-engine/pkg/storage"
)

// maxRecentNotifications bounds the notification log kept per session.
const maxRecentNotifications = 50

// Session is one live game. All engine access goes through the session lock;
// the clock runner ticks through Tick.
type Session struct {
	ID         uuid.UUID
	ScenarioID string
	CreatedAt  time.Time

	mu       sync.Mutex
	engine   *engine.Engine
	runner   *engine.Runner
	cancel   context.CancelFunc
	speed    engine.Speed
	lastUsed time.Time
	recent   []engine.Notification
	pending  []engine.Notification
	watchers map[chan Update]struct{}
	stopped  bool

	publisher Publisher
	store     SnapshotStore
	logger    *slog.Logger
	timeout   time.Duration
}

// View is what clients see of a session.
type View struct {
	ID            uuid.UUID             `json:"id"`
	Scenario      scenario.Summary      `json:"scenario"`
	BriefingText  string                `json:"briefing_text"`
	Speed         engine.Speed          `json:"speed"`
	Game          engine.Game           `json:"game"`
	Actions       []scenario.Action     `json:"actions"`
	Notifications []engine.Notification `json:"notifications"`
	CreatedAt     time.Time             `json:"created_at"`
	LastActive    time.Time             `json:"last_active"`
}

// Update is pushed to watchers after every applied step.
type Update struct {
	Game          engine.Game           `json:"game"`
	Notifications []engine.Notification `json:"notifications"`
}

// Tick advances the game by one day if it is playing. It implements engine.Stepper.
// A stopped session never steps.
func (s *Session) Tick() engine.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return engine.Result{}
	}
	res := s.engine.Tick()
	if res.Applied {
		s.afterStep()
	}
	return res
}

// Apply runs a player command and marks the session as used.
// Commands that reach a stopped session are rejected.
func (s *Session) Apply(cmd engine.Command, now time.Time) (engine.Game, engine.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return s.engine.Snapshot(), engine.Result{}
	}
	s.lastUsed = now
	res := s.engine.Apply(cmd)
	if res.Applied {
		s.afterStep()
	}
	return s.engine.Snapshot(), res
}

// SetSpeed switches the clock cadence.
func (s *Session) SetSpeed(sp engine.Speed, now time.Time) {
	s.mu.Lock()
	s.speed = sp
	s.lastUsed = now
	s.mu.Unlock()
	s.runner.SetSpeed(sp)
}

// View returns a consistent copy of the session for rendering.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc := s.engine.Scenario()
	recent := make([]engine.Notification, len(s.recent))
	copy(recent, s.recent)
	return View{
		ID:            s.ID,
		Scenario:      sc.Summary(),
		BriefingText:  sc.BriefingText,
		Speed:         s.speed,
		Game:          s.engine.Snapshot(),
		Actions:       s.engine.Actions(),
		Notifications: recent,
		CreatedAt:     s.CreatedAt,
		LastActive:    s.lastUsed,
	}
}

// Snapshot returns a copy of the live game.
func (s *Session) Snapshot() engine.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Snapshot()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// Watch registers for updates. The channel is closed when the session stops or
// cancel is called. A watcher that falls behind misses updates rather than
// blocking the clock.
func (s *Session) Watch(buffer int) (<-chan Update, func()) {
	ch := make(chan Update, buffer)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		close(ch)
		return ch, func() {}
	}
	if s.watchers == nil {
		s.watchers = make(map[chan Update]struct{})
	}
	s.watchers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if _, ok := s.watchers[ch]; ok {
				delete(s.watchers, ch)
				close(ch)
			}
		})
	}
}

// record keeps a notification in the bounded log. Called by the engine while s.mu is held.
func (s *Session) record(n engine.Notification) {
	s.pending = append(s.pending, n)
	s.recent = append(s.recent, n)
	if len(s.recent) > maxRecentNotifications {
		s.recent = s.recent[len(s.recent)-maxRecentNotifications:]
	}
}

// afterStep publishes the new state. Called with s.mu held.
func (s *Session) afterStep() {
	g := s.engine.Snapshot()
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if len(s.watchers) > 0 {
		u := Update{Game: g, Notifications: s.pending}
		if u.Notifications == nil {
			u.Notifications = []engine.Notification{}
		}
		for ch := range s.watchers {
			select {
			case ch <- u:
			default:
				s.logger.Debug("Dropped update for slow watcher", "day", g.State.Day)
			}
		}
	}
	s.pending = nil

	if s.publisher != nil {
		_ = s.publisher.PublishStateUpdated(ctx, s.ID, g)
	}
	if s.store != nil {
		snap := &storage.Snapshot{SessionID: s.ID, ScenarioID: s.ScenarioID, Game: g}
		if err := s.store.SaveSnapshot(ctx, snap); err != nil {
			s.logger.Warn("Failed to save snapshot", "error", err)
		}
	}
}

func (s *Session) onComplete(won bool, score int) {
	s.logger.Info("Session game finished", "won", won, "score", score)
	if s.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_ = s.publisher.PublishCompleted(ctx, s.ID, won, score)
}

func (s *Session) stop() {
	s.cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for ch := range s.watchers {
		close(ch)
	}
	s.watchers = nil
}
