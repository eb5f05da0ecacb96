package scenario

import (
	"errors"
	"fmt"
	"regexp"
)

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9-]*[a-z0-9]$|^[a-z]$`)

// IsValidID reports whether id is lowercase kebab-case.
func IsValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

// Validate checks a scenario for authoring mistakes and returns all problems joined.
// The engine does not call this; it trusts the scenario it is given.
func (s *Scenario) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if !IsValidID(s.ID) {
		add("scenario id %q should be lowercase kebab-case", s.ID)
	}
	if s.Title == "" {
		add("scenario %q has no title", s.ID)
	}
	if !s.Difficulty.Known() {
		add("unknown difficulty %q", s.Difficulty)
	}
	if s.Pathogen.R0 < 0 {
		add("pathogen r0 %v is negative", s.Pathogen.R0)
	}
	if s.Pathogen.FatalityRate < 0 || s.Pathogen.FatalityRate > 1 {
		add("pathogen fatality_rate %v outside [0, 1]", s.Pathogen.FatalityRate)
	}
	if s.InitialState.Cases < 0 || s.InitialState.Deaths < 0 {
		add("initial cases and deaths must not be negative")
	}

	regions := make(map[string]bool)
	for _, loc := range s.InitialLocations {
		if loc.Region == "" {
			add("initial location without region")
			continue
		}
		if regions[loc.Region] {
			add("duplicate initial location %q", loc.Region)
		}
		regions[loc.Region] = true
	}

	ids := make(map[string]bool)
	for _, a := range s.AvailableActions {
		if !IsValidID(a.ID) {
			add("action id %q should be lowercase kebab-case", a.ID)
		}
		if ids[a.ID] {
			add("duplicate action id %q", a.ID)
		}
		ids[a.ID] = true
		if a.Cost < 0 {
			add("action %q has negative cost", a.ID)
		}
		if a.DurationDays < 1 {
			add("action %q duration_days must be at least 1", a.ID)
		}
		effects := a.Effects
		if len(effects) == 0 {
			effects = CompileEffectSpec(a.EffectSpec)
		}
		if len(effects) == 0 {
			add("action %q has no recognised effect", a.ID)
		}
		for _, e := range effects {
			if err := e.Validate(); err != nil {
				add("action %q: %w", a.ID, err)
			}
		}
	}

	for i, e := range s.Events {
		if e.TriggerDay < 2 {
			add("event %d (%q) trigger_day %d never fires; days advance from 2", i, e.Title, e.TriggerDay)
		}
		if e.Effect != nil && len(e.Choices) > 0 {
			add("event %d (%q) has both an effect and choices", i, e.Title)
		}
		if e.Effect == nil && len(e.Choices) == 0 {
			add("event %d (%q) has neither an effect nor choices", i, e.Title)
		}
		for j, c := range e.Choices {
			if c.Label == "" {
				add("event %d (%q) choice %d has no label", i, e.Title, j)
			}
		}
	}

	if s.WinConditions.IsEmpty() {
		add("scenario %q has no win conditions and can never be won", s.ID)
	}

	return errors.Join(errs...)
}
