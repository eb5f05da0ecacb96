package engine

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
	"github.com/jwebster45206/outbreak-engine/pkg/state"
)

// Outcome is the verdict of a win/lose evaluation.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWon
	OutcomeLost
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWon:
		return "won"
	case OutcomeLost:
		return "lost"
	default:
		return "none"
	}
}

// Evaluate checks the lose conditions first, in order cases, deaths, budget, and then the
// win conditions. A win needs every specified condition to hold and at least one to be
// specified. The reason describes the deciding condition.
func Evaluate(gs state.GameState, win scenario.WinConditions, lose scenario.LoseConditions) (Outcome, string) {
	if lose.CasesAbove != nil && gs.Cases >= *lose.CasesAbove {
		return OutcomeLost, "Cases reached " + humanize.Comma(int64(gs.Cases))
	}
	if lose.DeathsAbove != nil && gs.Deaths >= *lose.DeathsAbove {
		return OutcomeLost, "Deaths reached " + humanize.Comma(int64(gs.Deaths))
	}
	if lose.BudgetBelow != nil && gs.Budget <= *lose.BudgetBelow {
		return OutcomeLost, fmt.Sprintf("Budget exhausted ($%s)", money(gs.Budget))
	}

	if win.IsEmpty() {
		return OutcomeNone, ""
	}
	if win.SourceIdentified && !gs.SourceIdentified {
		return OutcomeNone, ""
	}
	if win.RBelow != nil && !(gs.R0 < *win.RBelow) {
		return OutcomeNone, ""
	}
	if win.CasesBelow != nil && !(gs.Cases < *win.CasesBelow) {
		return OutcomeNone, ""
	}
	return OutcomeWon, "Outbreak contained"
}

// evaluate applies the evaluation to an active game, ending it when an outcome fires.
// The game is modified in place; callers pass a clone.
func (e *Engine) evaluate(g *Game) []Notification {
	if !g.Status.IsActive() {
		return nil
	}

	outcome, reason := Evaluate(g.State, e.scenario.WinConditions, e.scenario.LoseConditions)
	if outcome != OutcomeNone {
		// A finished game has no decisions left to make.
		g.Presented = nil
		g.Queue = make([]scenario.Event, 0)
	}
	switch outcome {
	case OutcomeLost:
		g.Status, _ = g.Status.Transition(state.TriggerLose)
		g.Score = 0
		return []Notification{{
			Day:           g.State.Day,
			Message:       "Outbreak response failed",
			Severity:      SeverityCritical,
			EffectSummary: reason,
		}}
	case OutcomeWon:
		g.Status, _ = g.Status.Transition(state.TriggerWin)
		g.Score = Score(g.State, e.scenario.Difficulty)
		return []Notification{{
			Day:           g.State.Day,
			Message:       reason,
			Severity:      SeveritySuccess,
			EffectSummary: fmt.Sprintf("Final score %d", g.Score),
		}}
	}
	return nil
}
