// Package engine runs the day-stepped outbreak simulation.
//
// Step is a transition function from a Game and a Command to the next Game. Engine owns
// the authoritative Game of one session, applies commands through Step and forwards
// notifications and the terminal result to its collaborators. An Engine is not safe for
// concurrent use; callers that share one across goroutines must serialize access.
package engine

import (
	"log/slog"

	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
	"github.com/jwebster45206/outbreak-engine/pkg/state"
)

// CompletionFunc receives the result of a finished game. Losses score zero.
type CompletionFunc func(won bool, score int)

// Engine drives one session of a scenario.
type Engine struct {
	scenario   *scenario.Scenario
	actions    []scenario.Action // scenario actions with compiled effects
	rng        Rand
	logger     *slog.Logger
	notifier   Notifier
	onComplete CompletionFunc
	game       Game
}

// New creates an engine in the briefing stage of s.
// The scenario is not modified; free-text action effects are compiled into a private copy.
func New(s *scenario.Scenario, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	actions := make([]scenario.Action, len(s.AvailableActions))
	for i, a := range s.AvailableActions {
		if len(a.Effects) == 0 {
			a.Effects = scenario.CompileEffectSpec(a.EffectSpec)
		}
		actions[i] = a
	}

	return &Engine{
		scenario: s,
		actions:  actions,
		rng:      NewRand(0),
		logger:   logger.With("scenario", s.ID),
		game:     NewGame(s),
	}
}

// WithRand sets the random source used for spread and effect draws.
// Returns the Engine for method chaining
func (e *Engine) WithRand(rng Rand) *Engine {
	e.rng = rng
	return e
}

// WithNotifier sets where notifications are delivered.
// Returns the Engine for method chaining
func (e *Engine) WithNotifier(n Notifier) *Engine {
	e.notifier = n
	return e
}

// WithOnComplete sets the callback invoked once when a game reaches won or lost.
// Returns the Engine for method chaining
func (e *Engine) WithOnComplete(fn CompletionFunc) *Engine {
	e.onComplete = fn
	return e
}

// Scenario returns the scenario the engine plays.
func (e *Engine) Scenario() *scenario.Scenario {
	return e.scenario
}

// Actions returns the scenario actions with their compiled effects.
func (e *Engine) Actions() []scenario.Action {
	out := make([]scenario.Action, len(e.actions))
	copy(out, e.actions)
	return out
}

// Snapshot returns a copy of the live game for rendering.
func (e *Engine) Snapshot() Game {
	return e.game.Clone()
}

// Step computes the game that results from applying cmd to g. It never modifies g.
// Rejected commands return g unchanged with Applied false.
func (e *Engine) Step(g Game, cmd Command) (Game, Result) {
	var (
		next  Game
		notes []Notification
		ok    bool
	)

	switch cmd.Type {
	case CmdStart:
		next, ok = e.transition(g, state.TriggerStart)
		if ok {
			notes = append(notes, Notification{
				Day:      next.State.Day,
				Message:  e.scenario.Title + " underway",
				Severity: SeverityInfo,
			})
		}
	case CmdPause:
		next, ok = e.transition(g, state.TriggerPause)
	case CmdResume:
		if g.EventPending() {
			return g, Result{}
		}
		next, ok = e.transition(g, state.TriggerResume)
	case CmdRestart:
		next, ok = NewGame(e.scenario), true
	case CmdTick:
		next, notes, ok = e.tick(g)
	case CmdActivate:
		if !g.Status.IsActive() {
			return g, Result{}
		}
		next, notes, ok = e.activate(g, cmd.ActionID)
		if ok {
			notes = append(notes, e.evaluate(&next)...)
		}
	case CmdResolve:
		if !g.Status.IsActive() {
			return g, Result{}
		}
		next, notes, ok = e.resolveEvent(g, cmd.Choice)
		if ok {
			notes = append(notes, e.evaluate(&next)...)
		}
	}

	if !ok {
		return g, Result{}
	}
	return next, Result{Applied: true, Notifications: notes}
}

// tick advances one simulated day: growth, actions, events, then evaluation,
// all against the same new day.
func (e *Engine) tick(g Game) (Game, []Notification, bool) {
	if g.Status != state.StatusPlaying {
		return g, nil, false
	}

	next := g.Clone()
	next.State.Day++

	var notes []Notification
	grown, growth := Grow(next.State, e.scenario.Pathogen, e.rng)
	next.State = grown
	if growth.Spread != nil {
		notes = append(notes, Notification{
			Day:           next.State.Day,
			Message:       "Outbreak spread to " + growth.Spread.Region,
			Severity:      SeverityWarning,
			EffectSummary: "New cluster detected",
		})
	}

	notes = append(notes, e.tickActions(&next)...)
	notes = append(notes, e.injectEvents(&next)...)
	notes = append(notes, e.evaluate(&next)...)

	e.logger.Debug("Day simulated",
		"day", next.State.Day,
		"cases", next.State.Cases,
		"new_cases", growth.NewCases,
		"deaths", next.State.Deaths,
		"r0", next.State.R0,
		"status", next.Status)

	return next, notes, true
}

func (e *Engine) transition(g Game, t state.Trigger) (Game, bool) {
	s, ok := g.Status.Transition(t)
	if !ok {
		return g, false
	}
	out := g.Clone()
	out.Status = s
	return out, true
}

// Apply steps the live game with cmd, delivers notifications and reports completion.
func (e *Engine) Apply(cmd Command) Result {
	prev := e.game.Status
	next, res := e.Step(e.game, cmd)
	if !res.Applied {
		e.logger.Debug("Command rejected",
			"command", cmd.Type,
			"action_id", cmd.ActionID,
			"status", prev)
		return res
	}
	e.game = next

	if e.notifier != nil {
		for _, n := range res.Notifications {
			e.notifier.Notify(n)
		}
	}

	if !prev.IsTerminal() && next.Status.IsTerminal() {
		e.logger.Info("Game finished",
			"status", next.Status,
			"day", next.State.Day,
			"score", next.Score)
		if e.onComplete != nil {
			e.onComplete(next.Won(), next.Score)
		}
	}
	return res
}

func (e *Engine) Start() Result { return e.Apply(Start()) }
func (e *Engine) Pause() Result { return e.Apply(Pause()) }
func (e *Engine) Resume() Result { return e.Apply(Resume()) }
func (e *Engine) Tick() Result { return e.Apply(Tick()) }
func (e *Engine) Restart() Result { return e.Apply(Restart()) }

func (e *Engine) Activate(actionID string) Result {
	return e.Apply(Activate(actionID))
}

// Resolve answers the presented event; use a negative choice for events without choices.
func (e *Engine) Resolve(choice int) Result {
	return e.Apply(Resolve(choice))
}

// Status returns the live lifecycle status.
func (e *Engine) Status() state.Status {
	return e.game.Status
}
