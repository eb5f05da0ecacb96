package engine

import (
	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
	"github.com/jwebster45206/outbreak-engine/pkg/state"
)

// injectEvents queues the scenario events scheduled for the current day and presents
// the head of the queue if nothing is being presented. Presenting forces a pause.
// The game is modified in place; callers pass a clone.
func (e *Engine) injectEvents(g *Game) []Notification {
	g.Queue = append(g.Queue, e.scenario.EventsOnDay(g.State.Day)...)
	return e.presentNext(g)
}

// presentNext moves the head of the queue into presentation.
func (e *Engine) presentNext(g *Game) []Notification {
	if g.Presented != nil || len(g.Queue) == 0 {
		return nil
	}

	ev := g.Queue[0]
	g.Queue = g.Queue[1:]
	g.Presented = &ev
	if next, ok := g.Status.Transition(state.TriggerPause); ok {
		g.Status = next
	}

	e.logger.Debug("Event presented",
		"title", ev.Title,
		"day", g.State.Day,
		"queued", len(g.Queue))

	summary := ""
	if ev.RequiresChoice() {
		summary = "Decision required"
	}
	return []Notification{{
		Day:           g.State.Day,
		Message:       ev.Title,
		Severity:      SeverityWarning,
		EffectSummary: summary,
	}}
}

// resolveEvent merges the chosen effect of the presented event into the state.
// Choice events need a valid index; direct events ignore the choice.
func (e *Engine) resolveEvent(g Game, choice *int) (Game, []Notification, bool) {
	if g.Presented == nil {
		return g, nil, false
	}
	ev := *g.Presented

	var eff scenario.StateEffect
	label := ""
	if ev.RequiresChoice() {
		if choice == nil || *choice < 0 || *choice >= len(ev.Choices) {
			return g, nil, false
		}
		eff = ev.Choices[*choice].Effect
		label = ev.Choices[*choice].Label
	} else if ev.Effect != nil {
		eff = *ev.Effect
	}

	out := g.Clone()
	out.State = out.State.ApplyEffect(eff)
	out.Presented = nil

	notes := []Notification{{
		Day:           out.State.Day,
		Message:       ev.Title + " resolved",
		Severity:      SeverityInfo,
		EffectSummary: label,
	}}

	if len(out.Queue) > 0 {
		notes = append(notes, e.presentNext(&out)...)
	} else if next, ok := out.Status.Transition(state.TriggerResume); ok {
		out.Status = next
	}

	return out, notes, true
}
