package engine

import (
	"testing"

	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
	"github.com/jwebster45206/outbreak-engine/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }

// scriptedRand replays fixed draws, repeating the last one when exhausted.
type scriptedRand struct {
	floats []float64
	ints   []int
	fcalls int
	icalls int
}

func (r *scriptedRand) Float64() float64 {
	r.fcalls++
	if len(r.floats) == 0 {
		return 0
	}
	v := r.floats[0]
	if len(r.floats) > 1 {
		r.floats = r.floats[1:]
	}
	return v
}

func (r *scriptedRand) Intn(n int) int {
	r.icalls++
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	if len(r.ints) > 1 {
		r.ints = r.ints[1:]
	}
	return v % n
}

func countyFair() *scenario.Scenario {
	return &scenario.Scenario{
		ID:         "county-fair",
		Title:      "County Fair",
		Difficulty: scenario.DifficultyEasy,
		Pathogen: scenario.Pathogen{
			Name:              "Salmonella",
			TransmissionRoute: "foodborne",
			R0:                0,
			FatalityRate:      0.01,
		},
		InitialState: scenario.InitialState{Cases: 45, Budget: 500000, Personnel: 10},
		InitialLocations: []scenario.Location{
			{Region: "Fairgrounds", Cases: 45},
		},
		AvailableActions: []scenario.Action{
			{ID: "case-interviews", Name: "Case Interviews", Cost: 25000, DurationDays: 2, EffectSpec: "Identifies the source (40% chance)"},
			{ID: "recall", Name: "Product Recall", Cost: 600000, DurationDays: 1, EffectSpec: "Stops new exposures"},
		},
		WinConditions:  scenario.WinConditions{SourceIdentified: true},
		LoseConditions: scenario.LoseConditions{BudgetBelow: floatPtr(0)},
	}
}

func flu() *scenario.Scenario {
	return &scenario.Scenario{
		ID:           "harbor-flu",
		Title:        "Harbor Flu",
		Difficulty:   scenario.DifficultyHard,
		Pathogen:     scenario.Pathogen{Name: "Influenza", R0: 2.0, FatalityRate: 0.1},
		InitialState: scenario.InitialState{Cases: 200, Budget: 1000000, Personnel: 40},
		InitialLocations: []scenario.Location{
			{Region: "Harbor", Cases: 200},
		},
		AvailableActions: []scenario.Action{
			{ID: "vaccinate", Name: "Vaccination Drive", Cost: 100000, DurationDays: 1, EffectSpec: "Reduces transmission by 50%"},
		},
		WinConditions:  scenario.WinConditions{RBelow: floatPtr(1)},
		LoseConditions: scenario.LoseConditions{CasesAbove: intPtr(100000)},
	}
}

func started(t *testing.T, e *Engine) {
	t.Helper()
	require.True(t, e.Start().Applied)
	require.Equal(t, state.StatusPlaying, e.Status())
}

func TestEngine_ActivateCountyFair(t *testing.T) {
	rng := &scriptedRand{floats: []float64{0.9}} // identification fails
	e := New(countyFair(), nil).WithRand(rng)
	started(t, e)

	res := e.Activate("case-interviews")
	require.True(t, res.Applied)

	g := e.Snapshot()
	assert.Equal(t, 475000.0, g.State.Budget)
	assert.Equal(t, []string{"case-interviews"}, g.State.ActionsTaken)
	a, _ := g.Action("case-interviews")
	assert.True(t, a.Active)
	require.NotNil(t, a.StartedDay)
	assert.Equal(t, 1, *a.StartedDay)

	e.Tick()
	a, _ = e.Snapshot().Action("case-interviews")
	assert.True(t, a.Active, "one day elapsed of two")
	assert.Equal(t, 1, a.Progress)

	e.Tick()
	a, _ = e.Snapshot().Action("case-interviews")
	assert.False(t, a.Active)
	assert.Equal(t, 2, a.Progress)
	assert.False(t, e.Snapshot().State.SourceIdentified)
	assert.Equal(t, 45, e.Snapshot().State.Cases, "point-source outbreak does not grow")
}

func TestEngine_ActivateRejections(t *testing.T) {
	e := New(countyFair(), nil).WithRand(&scriptedRand{})

	assert.False(t, e.Activate("case-interviews").Applied, "not started")

	started(t, e)
	res := e.Activate("case-interviews")
	require.True(t, res.Applied)
	require.NotEmpty(t, res.Notifications)
	assert.Equal(t, "Cost $25,000, completes in 2 day(s)", res.Notifications[0].EffectSummary)

	before := e.Snapshot()
	assert.False(t, e.Activate("case-interviews").Applied, "already active")
	assert.False(t, e.Activate("recall").Applied, "unaffordable")
	assert.False(t, e.Activate("nope").Applied, "unknown")
	assert.Equal(t, before, e.Snapshot())
}

func TestEngine_SourceIdentifiedWins(t *testing.T) {
	var done []int
	rng := &scriptedRand{floats: []float64{0.1}}
	e := New(countyFair(), nil).
		WithRand(rng).
		WithOnComplete(func(won bool, score int) {
			assert.True(t, won)
			done = append(done, score)
		})
	started(t, e)
	require.True(t, e.Activate("case-interviews").Applied)

	e.Tick()
	e.Tick()

	g := e.Snapshot()
	assert.Equal(t, state.StatusWon, g.Status)
	assert.True(t, g.State.SourceIdentified)

	// 1000 - 0 - 4*5 + 47*10 + 200 - 2*10
	assert.Equal(t, 1630, g.Score)
	assert.Equal(t, []int{1630}, done)

	assert.False(t, e.Tick().Applied, "finished games do not tick")
	assert.Len(t, done, 1)
}

func TestEngine_TickOnlyWhilePlaying(t *testing.T) {
	e := New(flu(), nil).WithRand(&scriptedRand{})
	assert.False(t, e.Tick().Applied)

	started(t, e)
	require.True(t, e.Pause().Applied)
	assert.False(t, e.Tick().Applied)
	assert.Equal(t, 1, e.Snapshot().State.Day)

	require.True(t, e.Resume().Applied)
	assert.True(t, e.Tick().Applied)
	assert.Equal(t, 2, e.Snapshot().State.Day)
}

func TestEngine_Monotonicity(t *testing.T) {
	e := New(flu(), nil).WithRand(NewRand(42))
	started(t, e)

	prev := e.Snapshot().State
	for i := 0; i < 20 && e.Status() == state.StatusPlaying; i++ {
		e.Tick()
		cur := e.Snapshot().State
		assert.GreaterOrEqual(t, cur.Cases, prev.Cases)
		assert.GreaterOrEqual(t, cur.Deaths, prev.Deaths)
		assert.Equal(t, prev.Budget, cur.Budget, "growth never touches the budget")
		prev = cur
	}
}

func TestEngine_GrowthAndSpread(t *testing.T) {
	rng := &scriptedRand{floats: []float64{0.95}, ints: []int{0}}
	rec := &Recorder{}
	e := New(flu(), nil).WithRand(rng).WithNotifier(rec)
	started(t, e)
	e.Tick()

	gs := e.Snapshot().State
	// 200 * (2-1) * 0.1 = 20 new cases, 2 deaths.
	assert.Equal(t, 220, gs.Cases)
	assert.Equal(t, 2, gs.Deaths)
	require.Len(t, gs.OutbreakLocations, 2)
	assert.Equal(t, "North District", gs.OutbreakLocations[1].Region)
	assert.Equal(t, 4, gs.OutbreakLocations[1].Cases)

	var spread bool
	for _, n := range rec.All() {
		if n.Message == "Outbreak spread to North District" {
			spread = true
			assert.Equal(t, SeverityWarning, n.Severity)
		}
	}
	assert.True(t, spread)
}

func TestEngine_WinNeedsStrictlyLowerR0(t *testing.T) {
	e := New(flu(), nil).WithRand(&scriptedRand{floats: []float64{0}})
	started(t, e)
	require.True(t, e.Activate("vaccinate").Applied)

	e.Tick()
	g := e.Snapshot()
	assert.InDelta(t, 1.0, g.State.R0, 1e-9)
	assert.Equal(t, state.StatusPlaying, g.Status, "r0 must drop strictly below the target")
}

func TestEngine_LosePrecedence(t *testing.T) {
	s := countyFair()
	s.LoseConditions = scenario.LoseConditions{CasesAbove: intPtr(45)}
	e := New(s, nil).WithRand(&scriptedRand{floats: []float64{0}})

	g := e.Snapshot()
	g.Status = state.StatusPlaying
	g.State.SourceIdentified = true

	next, res := e.Step(g, Tick())
	require.True(t, res.Applied)
	assert.Equal(t, state.StatusLost, next.Status)
	assert.Equal(t, 0, next.Score)
}

func TestEngine_EmptyWinConditionsNeverWin(t *testing.T) {
	s := countyFair()
	s.WinConditions = scenario.WinConditions{}
	e := New(s, nil).WithRand(&scriptedRand{floats: []float64{0}})
	started(t, e)
	require.True(t, e.Activate("case-interviews").Applied)

	for i := 0; i < 10; i++ {
		e.Tick()
	}
	g := e.Snapshot()
	assert.True(t, g.State.SourceIdentified)
	assert.Equal(t, state.StatusPlaying, g.Status)
}

func TestEngine_Events(t *testing.T) {
	s := countyFair()
	s.Events = []scenario.Event{
		{TriggerDay: 2, Title: "Media Inquiry", Effect: &scenario.StateEffect{BudgetDelta: floatPtr(-10000)}},
		{TriggerDay: 2, Title: "Emergency Funds", Choices: []scenario.Choice{
			{Label: "Accept", Effect: scenario.StateEffect{BudgetDelta: floatPtr(50000)}},
			{Label: "Decline"},
		}},
	}
	rec := &Recorder{}
	e := New(s, nil).WithRand(&scriptedRand{}).WithNotifier(rec)
	started(t, e)

	e.Tick()
	g := e.Snapshot()
	require.NotNil(t, g.Presented)
	assert.Equal(t, "Media Inquiry", g.Presented.Title)
	assert.Equal(t, state.StatusPaused, g.Status)
	assert.Len(t, g.Queue, 1)

	assert.False(t, e.Resume().Applied, "resume while an event is pending")
	assert.False(t, e.Tick().Applied)

	require.True(t, e.Resolve(-1).Applied)
	g = e.Snapshot()
	assert.Equal(t, 490000.0, g.State.Budget)
	require.NotNil(t, g.Presented)
	assert.Equal(t, "Emergency Funds", g.Presented.Title)
	assert.Equal(t, state.StatusPaused, g.Status)

	assert.False(t, e.Resolve(-1).Applied, "choice event needs a choice")
	assert.False(t, e.Resolve(5).Applied)

	require.True(t, e.Resolve(0).Applied)
	g = e.Snapshot()
	assert.Equal(t, 540000.0, g.State.Budget)
	assert.Nil(t, g.Presented)
	assert.Empty(t, g.Queue)
	assert.Equal(t, state.StatusPlaying, g.Status)

	assert.False(t, e.Resolve(0).Applied, "nothing presented")

	var titles []string
	for _, n := range rec.All() {
		if n.Severity == SeverityWarning {
			titles = append(titles, n.Message)
		}
	}
	assert.Equal(t, []string{"Media Inquiry", "Emergency Funds"}, titles)
}

func TestEngine_EventEffectCanLose(t *testing.T) {
	s := countyFair()
	s.Events = []scenario.Event{
		{TriggerDay: 2, Title: "Audit", Effect: &scenario.StateEffect{Budget: floatPtr(0)}},
	}
	e := New(s, nil).WithRand(&scriptedRand{})
	started(t, e)
	e.Tick()
	require.True(t, e.Resolve(-1).Applied)
	assert.Equal(t, state.StatusLost, e.Status())
}

func TestEngine_GameEndingOnEventDayLeavesNothingPending(t *testing.T) {
	s := flu()
	s.LoseConditions = scenario.LoseConditions{CasesAbove: intPtr(210)}
	s.Events = []scenario.Event{
		{TriggerDay: 2, Title: "Ferry Shutdown", Choices: []scenario.Choice{
			{Label: "Close the ferry", Effect: scenario.StateEffect{BudgetDelta: floatPtr(-50000)}},
			{Label: "Keep it running"},
		}},
		{TriggerDay: 2, Title: "Press Briefing", Effect: &scenario.StateEffect{BudgetDelta: floatPtr(-1000)}},
	}
	e := New(s, nil).WithRand(&scriptedRand{floats: []float64{0}})
	started(t, e)

	require.True(t, e.Tick().Applied)
	g := e.Snapshot()
	assert.Equal(t, 220, g.State.Cases)
	assert.Equal(t, state.StatusLost, g.Status)
	assert.Nil(t, g.Presented)
	assert.Empty(t, g.Queue)
	assert.False(t, g.EventPending())
	assert.False(t, e.Resolve(0).Applied)
}

func TestEngine_ResolutionEndingGameClearsQueue(t *testing.T) {
	s := countyFair()
	s.Events = []scenario.Event{
		{TriggerDay: 2, Title: "Audit", Effect: &scenario.StateEffect{Budget: floatPtr(0)}},
		{TriggerDay: 2, Title: "Media Inquiry", Effect: &scenario.StateEffect{BudgetDelta: floatPtr(-10000)}},
	}
	e := New(s, nil).WithRand(&scriptedRand{})
	started(t, e)
	e.Tick()
	require.Len(t, e.Snapshot().Queue, 1)

	require.True(t, e.Resolve(-1).Applied)
	g := e.Snapshot()
	assert.Equal(t, state.StatusLost, g.Status)
	assert.Nil(t, g.Presented)
	assert.Empty(t, g.Queue)
}

func TestEngine_ScaleR0Actions(t *testing.T) {
	tests := []struct {
		name             string
		action           scenario.Action
		sourceIdentified bool
		wantR0           float64
		wantStatus       state.Status
		wantSummary      string
	}{
		{
			name:             "source contained once identified",
			action:           scenario.Action{ID: "contain", Name: "Contain Source", Cost: 1000, DurationDays: 1, Effects: scenario.Effects{scenario.ScaleR0(0.3, true)}},
			sourceIdentified: true,
			wantR0:           0.6,
			wantStatus:       state.StatusWon,
			wantSummary:      "R0 now 0.60",
		},
		{
			name:        "source contained without a source",
			action:      scenario.Action{ID: "contain", Name: "Contain Source", Cost: 1000, DurationDays: 1, Effects: scenario.Effects{scenario.ScaleR0(0.3, true)}},
			wantR0:      2.0,
			wantStatus:  state.StatusPlaying,
			wantSummary: "Containment has no effect until the source is identified",
		},
		{
			name:        "stops new exposures",
			action:      scenario.Action{ID: "halt", Name: "Halt Exposures", Cost: 1000, DurationDays: 1, EffectSpec: "Stops new exposures"},
			wantR0:      1.0,
			wantStatus:  state.StatusPlaying,
			wantSummary: "R0 now 1.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := flu()
			s.AvailableActions = []scenario.Action{tt.action}
			e := New(s, nil).WithRand(&scriptedRand{floats: []float64{0}})

			g := e.Snapshot()
			g.Status = state.StatusPlaying
			g.State.SourceIdentified = tt.sourceIdentified

			g, res := e.Step(g, Activate(tt.action.ID))
			require.True(t, res.Applied)
			g, res = e.Step(g, Tick())
			require.True(t, res.Applied)

			assert.InDelta(t, tt.wantR0, g.State.R0, 1e-9)
			assert.Equal(t, tt.wantStatus, g.Status)

			var summary string
			for _, n := range res.Notifications {
				if n.Message == tt.action.Name+" completed" {
					summary = n.EffectSummary
				}
			}
			assert.Equal(t, tt.wantSummary, summary)
		})
	}
}

func TestEngine_BudgetConservation(t *testing.T) {
	e := New(flu(), nil).WithRand(NewRand(7))
	started(t, e)

	budget := e.Snapshot().State.Budget
	require.True(t, e.Activate("vaccinate").Applied)
	assert.Equal(t, budget-100000, e.Snapshot().State.Budget)

	budget = e.Snapshot().State.Budget
	for i := 0; i < 5 && e.Status() == state.StatusPlaying; i++ {
		e.Tick()
		assert.Equal(t, budget, e.Snapshot().State.Budget)
	}
}

func TestEngine_RestartIdempotence(t *testing.T) {
	s := countyFair()
	s.Events = []scenario.Event{{TriggerDay: 2, Title: "Media Inquiry", Effect: &scenario.StateEffect{}}}
	e := New(s, nil).WithRand(&scriptedRand{floats: []float64{0.9}})
	initial := e.Snapshot()

	started(t, e)
	require.True(t, e.Activate("case-interviews").Applied)
	e.Tick()
	require.True(t, e.Snapshot().EventPending())

	require.True(t, e.Restart().Applied)
	assert.Equal(t, initial, e.Snapshot())

	require.True(t, e.Restart().Applied)
	assert.Equal(t, initial, e.Snapshot())
	assert.Equal(t, state.StatusBriefing, e.Status())
}

func TestEngine_StepDoesNotMutateInput(t *testing.T) {
	e := New(countyFair(), nil).WithRand(&scriptedRand{})
	g := e.Snapshot()
	g.Status = state.StatusPlaying
	before := g.Clone()

	next, res := e.Step(g, Activate("case-interviews"))
	require.True(t, res.Applied)
	assert.Equal(t, before, g)
	assert.NotEqual(t, before.State.Budget, next.State.Budget)
}

func TestEngine_DoesNotMutateScenario(t *testing.T) {
	s := countyFair()
	New(s, nil)
	assert.Nil(t, s.AvailableActions[0].Effects)
}

func TestEngine_IdentifyDrawSkippedOnceKnown(t *testing.T) {
	s := countyFair()
	s.WinConditions = scenario.WinConditions{CasesBelow: intPtr(0)}
	rng := &scriptedRand{floats: []float64{0.9}}
	e := New(s, nil).WithRand(rng)

	g := e.Snapshot()
	g.Status = state.StatusPlaying
	g.State.SourceIdentified = true

	g, res := e.Step(g, Activate("case-interviews"))
	require.True(t, res.Applied)
	g, _ = e.Step(g, Tick())
	g, res = e.Step(g, Tick())
	require.True(t, res.Applied)

	a, _ := g.Action("case-interviews")
	assert.False(t, a.Active)
	assert.Zero(t, rng.fcalls)
	require.NotEmpty(t, res.Notifications)
	assert.Equal(t, "Source already identified", res.Notifications[0].EffectSummary)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		gs   state.GameState
		d    scenario.Difficulty
		want int
	}{
		{"round trip", state.GameState{Day: 1, Budget: 500000, SourceIdentified: true}, scenario.DifficultyEasy, 1700},
		{"medium multiplier", state.GameState{Day: 1, Budget: 500000, SourceIdentified: true}, scenario.DifficultyMedium, 2550},
		{"penalties", state.GameState{Day: 11, Cases: 105, Deaths: 2, Budget: 99999}, scenario.DifficultyEasy, 1000 - 200 - 50 + 90 - 100},
		{"clamped", state.GameState{Day: 1, Deaths: 50}, scenario.DifficultyExpert, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.gs, tt.d))
		})
	}
}

func TestEvaluate(t *testing.T) {
	win := scenario.WinConditions{CasesBelow: intPtr(10)}
	lose := scenario.LoseConditions{CasesAbove: intPtr(100), DeathsAbove: intPtr(5), BudgetBelow: floatPtr(0)}

	tests := []struct {
		name   string
		gs     state.GameState
		want   Outcome
		reason string
	}{
		{"cases lose", state.GameState{Cases: 100, Budget: 1}, OutcomeLost, "Cases reached 100"},
		{"deaths lose", state.GameState{Cases: 5, Deaths: 5, Budget: 1}, OutcomeLost, "Deaths reached 5"},
		{"budget lose", state.GameState{Cases: 5, Budget: 0}, OutcomeLost, "Budget exhausted ($0)"},
		{"win", state.GameState{Cases: 5, Budget: 1}, OutcomeWon, "Outbreak contained"},
		{"neither", state.GameState{Cases: 50, Budget: 1}, OutcomeNone, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, reason := Evaluate(tt.gs, win, lose)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.reason, reason)
		})
	}
}
