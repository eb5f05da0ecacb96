package state

import (
	"slices"

	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
)

// GameState is a snapshot of one simulated day of an outbreak session.
// Values are replaced on every step, never shared between snapshots.
type GameState struct {
	Day               int                 `json:"day"`
	Cases             int                 `json:"cases"`
	Deaths            int                 `json:"deaths"`
	Budget            float64             `json:"budget"`
	Personnel         int                 `json:"personnel"`
	R0                float64             `json:"r0"`
	ActionsTaken      []string            `json:"actions_taken"`
	SourceIdentified  bool                `json:"source_identified"`
	OutbreakLocations []scenario.Location `json:"outbreak_locations"`
}

// New builds the day-one state for a scenario.
func New(s *scenario.Scenario) GameState {
	locations := make([]scenario.Location, len(s.InitialLocations))
	copy(locations, s.InitialLocations)

	return GameState{
		Day:               1,
		Cases:             s.InitialState.Cases,
		Deaths:            s.InitialState.Deaths,
		Budget:            s.InitialState.Budget,
		Personnel:         s.InitialState.Personnel,
		R0:                s.Pathogen.R0,
		ActionsTaken:      make([]string, 0),
		OutbreakLocations: locations,
	}
}

// Clone returns a deep copy whose slices can be modified freely.
func (gs GameState) Clone() GameState {
	out := gs
	out.ActionsTaken = slices.Clone(gs.ActionsTaken)
	if out.ActionsTaken == nil {
		out.ActionsTaken = make([]string, 0)
	}
	out.OutbreakLocations = slices.Clone(gs.OutbreakLocations)
	if out.OutbreakLocations == nil {
		out.OutbreakLocations = make([]scenario.Location, 0)
	}
	return out
}

// HasRegion reports whether the outbreak has reached region.
func (gs GameState) HasRegion(region string) bool {
	return slices.ContainsFunc(gs.OutbreakLocations, func(l scenario.Location) bool {
		return l.Region == region
	})
}

// ApplyEffect merges an event effect into a copy of the state.
// Fields absent from the effect are unchanged. Locations for new regions are appended,
// known regions get their case count updated. An identified source stays identified.
func (gs GameState) ApplyEffect(eff scenario.StateEffect) GameState {
	out := gs.Clone()

	if eff.Cases != nil {
		out.Cases = *eff.Cases
	}
	if eff.Deaths != nil {
		out.Deaths = *eff.Deaths
	}
	if eff.Budget != nil {
		out.Budget = *eff.Budget
	}
	if eff.Personnel != nil {
		out.Personnel = *eff.Personnel
	}
	if eff.R0 != nil {
		out.R0 = max(0, *eff.R0)
	}
	if eff.SourceIdentified != nil && *eff.SourceIdentified {
		out.SourceIdentified = true
	}

	for _, loc := range eff.OutbreakLocations {
		idx := slices.IndexFunc(out.OutbreakLocations, func(l scenario.Location) bool {
			return l.Region == loc.Region
		})
		if idx >= 0 {
			out.OutbreakLocations[idx].Cases = loc.Cases
			continue
		}
		out.OutbreakLocations = append(out.OutbreakLocations, loc)
	}

	if eff.CasesDelta != nil {
		out.Cases = max(0, out.Cases+*eff.CasesDelta)
	}
	if eff.DeathsDelta != nil {
		out.Deaths = max(0, out.Deaths+*eff.DeathsDelta)
	}
	if eff.BudgetDelta != nil {
		out.Budget += *eff.BudgetDelta
	}
	if eff.PersonnelDelta != nil {
		out.Personnel = max(0, out.Personnel+*eff.PersonnelDelta)
	}

	return out
}
