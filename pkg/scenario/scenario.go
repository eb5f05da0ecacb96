package scenario

// Difficulty selects the score multiplier applied on a win.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

var difficultyMultipliers = map[Difficulty]float64{
	DifficultyEasy:   1,
	DifficultyMedium: 1.5,
	DifficultyHard:   2,
	DifficultyExpert: 3,
}

// Multiplier returns the score multiplier for the difficulty.
// Unknown difficulties score like easy.
func (d Difficulty) Multiplier() float64 {
	if m, ok := difficultyMultipliers[d]; ok {
		return m
	}
	return 1
}

// Known reports whether d is one of the defined difficulties.
func (d Difficulty) Known() bool {
	_, ok := difficultyMultipliers[d]
	return ok
}

// Pathogen describes the disease driving the outbreak.
type Pathogen struct {
	Name              string  `json:"name"`
	TransmissionRoute string  `json:"transmission_route"` // e.g. "foodborne", "airborne"
	R0                float64 `json:"r0"`                 // 0 models a point-source outbreak
	FatalityRate      float64 `json:"fatality_rate"`
}

// InitialState seeds the game state when a session starts or restarts.
type InitialState struct {
	Cases     int     `json:"cases"`
	Deaths    int     `json:"deaths,omitempty"`
	Budget    float64 `json:"budget"`
	Personnel int     `json:"personnel"`
}

// Coordinates are map coordinates used by the display layer.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location is a region with known cases.
type Location struct {
	Region      string      `json:"region"`
	Cases       int         `json:"cases"`
	Coordinates Coordinates `json:"coordinates"`
}

// Action is a purchasable, timed intervention.
type Action struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Cost         float64 `json:"cost"`
	DurationDays int     `json:"duration_days"`
	EffectSpec   string  `json:"effect_spec,omitempty"` // human-readable effect text
	Description  string  `json:"description,omitempty"`
	Effects      Effects `json:"effects,omitempty"` // compiled from EffectSpec when omitted
}

// StateEffect is a partial game state merged into the live state when an event resolves.
// Absolute fields replace the current value; delta fields are added afterwards.
type StateEffect struct {
	Cases             *int       `json:"cases,omitempty"`
	Deaths            *int       `json:"deaths,omitempty"`
	Budget            *float64   `json:"budget,omitempty"`
	Personnel         *int       `json:"personnel,omitempty"`
	R0                *float64   `json:"r0,omitempty"`
	SourceIdentified  *bool      `json:"source_identified,omitempty"`
	OutbreakLocations []Location `json:"outbreak_locations,omitempty"`

	CasesDelta     *int     `json:"cases_delta,omitempty"`
	DeathsDelta    *int     `json:"deaths_delta,omitempty"`
	BudgetDelta    *float64 `json:"budget_delta,omitempty"`
	PersonnelDelta *int     `json:"personnel_delta,omitempty"`
}

// IsEmpty reports whether the effect changes nothing.
func (se *StateEffect) IsEmpty() bool {
	return se == nil || (se.Cases == nil &&
		se.Deaths == nil &&
		se.Budget == nil &&
		se.Personnel == nil &&
		se.R0 == nil &&
		se.SourceIdentified == nil &&
		len(se.OutbreakLocations) == 0 &&
		se.CasesDelta == nil &&
		se.DeathsDelta == nil &&
		se.BudgetDelta == nil &&
		se.PersonnelDelta == nil)
}

// Choice is one option of an event that requires a player decision.
type Choice struct {
	Label  string      `json:"label"`
	Effect StateEffect `json:"effect"`
}

// Event is a scripted occurrence tied to a simulated day.
type Event struct {
	TriggerDay  int          `json:"trigger_day"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Effect      *StateEffect `json:"effect,omitempty"`
	Choices     []Choice     `json:"choices,omitempty"`
}

// RequiresChoice reports whether the player must pick one of the event's choices.
func (e Event) RequiresChoice() bool {
	return len(e.Choices) > 0
}

// WinConditions are thresholds that must all hold for a win. Unset fields are ignored.
type WinConditions struct {
	SourceIdentified bool     `json:"source_identified,omitempty"`
	RBelow           *float64 `json:"r_below,omitempty"`
	CasesBelow       *int     `json:"cases_below,omitempty"`
}

// IsEmpty reports whether no win condition is specified.
func (w WinConditions) IsEmpty() bool {
	return !w.SourceIdentified && w.RBelow == nil && w.CasesBelow == nil
}

// LoseConditions are thresholds of which any one ends the game.
type LoseConditions struct {
	CasesAbove  *int     `json:"cases_above,omitempty"`
	DeathsAbove *int     `json:"deaths_above,omitempty"`
	BudgetBelow *float64 `json:"budget_below,omitempty"`
}

// Scenario is the immutable configuration of a playable session.
type Scenario struct {
	ID               string         `json:"id"`
	Title            string         `json:"title"`
	Difficulty       Difficulty     `json:"difficulty"`
	Pathogen         Pathogen       `json:"pathogen"`
	InitialState     InitialState   `json:"initial_state"`
	InitialLocations []Location     `json:"initial_locations"`
	BriefingText     string         `json:"briefing_text"`
	AvailableActions []Action       `json:"available_actions"`
	Events           []Event        `json:"events"`
	WinConditions    WinConditions  `json:"win_conditions"`
	LoseConditions   LoseConditions `json:"lose_conditions"`
}

// GetAction looks up an action by ID.
func (s *Scenario) GetAction(id string) (Action, bool) {
	for _, a := range s.AvailableActions {
		if a.ID == id {
			return a, true
		}
	}
	return Action{}, false
}

// EventsOnDay returns the events scheduled for day, in scenario order.
func (s *Scenario) EventsOnDay(day int) []Event {
	var out []Event
	for _, e := range s.Events {
		if e.TriggerDay == day {
			out = append(out, e)
		}
	}
	return out
}

// CompileEffects fills in typed effects for every action that only carries effect text.
// Actions with explicit effects are left untouched.
func (s *Scenario) CompileEffects() {
	for i := range s.AvailableActions {
		a := &s.AvailableActions[i]
		if len(a.Effects) == 0 && a.EffectSpec != "" {
			a.Effects = CompileEffectSpec(a.EffectSpec)
		}
	}
}

// Summary is the catalogue entry of a scenario.
type Summary struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Difficulty Difficulty `json:"difficulty"`
	Pathogen   string     `json:"pathogen"`
}

func (s *Scenario) Summary() Summary {
	return Summary{
		ID:         s.ID,
		Title:      s.Title,
		Difficulty: s.Difficulty,
		Pathogen:   s.Pathogen.Name,
	}
}
