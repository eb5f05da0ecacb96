package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
	"github.com/jwebster45206/outbreak-engine/pkg/state"
)

// activate starts an action. It refuses unknown, already active and unaffordable actions.
func (e *Engine) activate(g Game, id string) (Game, []Notification, bool) {
	idx := e.actionIndex(id)
	if idx < 0 || idx >= len(g.Actions) {
		return g, nil, false
	}
	spec := e.actions[idx]
	if g.Actions[idx].Active || g.State.Budget < spec.Cost {
		return g, nil, false
	}

	out := g.Clone()
	day := out.State.Day
	out.State.Budget -= spec.Cost
	out.State.ActionsTaken = append(out.State.ActionsTaken, spec.ID)
	out.Actions[idx] = ActionState{
		ID:         spec.ID,
		Active:     true,
		StartedDay: &day,
		Progress:   0,
	}

	note := Notification{
		Day:           day,
		Message:       fmt.Sprintf("%s started", spec.Name),
		Severity:      SeverityInfo,
		EffectSummary: fmt.Sprintf("Cost $%s, completes in %d day(s)", money(spec.Cost), spec.DurationDays),
	}
	return out, []Notification{note}, true
}

// tickActions advances every active action to the game's current day and completes
// the ones whose duration has elapsed. The game is modified in place; callers pass a clone.
func (e *Engine) tickActions(g *Game) []Notification {
	var notes []Notification
	day := g.State.Day

	for i := range g.Actions {
		if i >= len(e.actions) {
			break
		}
		as := &g.Actions[i]
		if !as.Active || as.StartedDay == nil {
			continue
		}
		spec := e.actions[i]
		elapsed := day - *as.StartedDay
		if elapsed < spec.DurationDays {
			as.Progress = elapsed
			continue
		}

		summaries, sev := e.applyEffects(&g.State, spec.Effects)
		as.Active = false
		as.Progress = spec.DurationDays

		notes = append(notes, Notification{
			Day:           day,
			Message:       fmt.Sprintf("%s completed", spec.Name),
			Severity:      sev,
			EffectSummary: strings.Join(summaries, "; "),
		})
		e.logger.Debug("Action completed",
			"action", spec.ID,
			"day", day,
			"r0", g.State.R0,
			"source_identified", g.State.SourceIdentified)
	}

	return notes
}

// applyEffects applies typed effects in order and describes what happened.
func (e *Engine) applyEffects(gs *state.GameState, effects scenario.Effects) ([]string, Severity) {
	if len(effects) == 0 {
		return []string{"No measurable effect"}, SeverityInfo
	}

	sev := SeveritySuccess
	var out []string
	for _, eff := range effects {
		switch eff.Kind {
		case scenario.EffectIdentifySource:
			if gs.SourceIdentified {
				out = append(out, "Source already identified")
				continue
			}
			if e.rng.Float64() < eff.Probability {
				gs.SourceIdentified = true
				out = append(out, "Source identified")
			} else {
				out = append(out, "Source not identified")
				sev = SeverityInfo
			}
		case scenario.EffectReduceR0:
			gs.R0 = max(0, gs.R0*(1-eff.Amount))
			out = append(out, fmt.Sprintf("R0 reduced by %.0f%% to %.2f", eff.Amount*100, gs.R0))
		case scenario.EffectScaleR0:
			if eff.RequiresSource && !gs.SourceIdentified {
				out = append(out, "Containment has no effect until the source is identified")
				sev = SeverityInfo
				continue
			}
			gs.R0 = max(0, gs.R0*eff.Factor)
			out = append(out, fmt.Sprintf("R0 now %.2f", gs.R0))
		default:
			out = append(out, "No measurable effect")
		}
	}
	return out, sev
}

func (e *Engine) actionIndex(id string) int {
	for i, a := range e.actions {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// money renders a whole-dollar amount with thousands separators.
func money(v float64) string {
	return humanize.Comma(int64(math.Round(v)))
}
