package engine

import (
	"slices"

	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
	"github.com/jwebster45206/outbreak-engine/pkg/state"
)

// ActionState is the per-session runtime of a scenario action.
type ActionState struct {
	ID         string `json:"id"`
	Active     bool   `json:"active"`
	StartedDay *int   `json:"started_day"`
	Progress   int    `json:"progress"` // days elapsed since activation
}

// Game is the full value of a session: the game state plus everything the step needs
// to advance it. It is replaced on every step.
type Game struct {
	State     state.GameState  `json:"state"`
	Status    state.Status     `json:"status"`
	Actions   []ActionState    `json:"actions"`
	Queue     []scenario.Event `json:"queued_events"`
	Presented *scenario.Event  `json:"presented_event,omitempty"`
	Score     int              `json:"score"`
}

// NewGame returns the briefing-stage game for a scenario.
func NewGame(s *scenario.Scenario) Game {
	actions := make([]ActionState, len(s.AvailableActions))
	for i, a := range s.AvailableActions {
		actions[i] = ActionState{ID: a.ID}
	}
	return Game{
		State:   state.New(s),
		Status:  state.StatusBriefing,
		Actions: actions,
		Queue:   make([]scenario.Event, 0),
	}
}

// Clone returns a deep copy of the game.
func (g Game) Clone() Game {
	out := g
	out.State = g.State.Clone()
	out.Actions = slices.Clone(g.Actions)
	for i, a := range out.Actions {
		if a.StartedDay != nil {
			d := *a.StartedDay
			out.Actions[i].StartedDay = &d
		}
	}
	out.Queue = slices.Clone(g.Queue)
	if out.Queue == nil {
		out.Queue = make([]scenario.Event, 0)
	}
	if g.Presented != nil {
		ev := *g.Presented
		out.Presented = &ev
	}
	return out
}

// Action returns the runtime state of the action with the given id.
func (g Game) Action(id string) (ActionState, bool) {
	for _, a := range g.Actions {
		if a.ID == id {
			return a, true
		}
	}
	return ActionState{}, false
}

// EventPending reports whether an event is waiting for the player.
func (g Game) EventPending() bool {
	return g.Presented != nil
}

// Won reports whether the game ended in a win.
func (g Game) Won() bool {
	return g.Status == state.StatusWon
}
