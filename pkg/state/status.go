package state

// Status is the lifecycle state of a session.
type Status string

const (
	StatusBriefing Status = "briefing"
	StatusPlaying  Status = "playing"
	StatusPaused   Status = "paused"
	StatusWon      Status = "won"
	StatusLost     Status = "lost"
)

// Trigger names a lifecycle transition.
type Trigger string

const (
	TriggerStart   Trigger = "start"
	TriggerPause   Trigger = "pause"
	TriggerResume  Trigger = "resume"
	TriggerWin     Trigger = "win"
	TriggerLose    Trigger = "lose"
	TriggerRestart Trigger = "restart"
)

var transitions = map[Status]map[Trigger]Status{
	StatusBriefing: {
		TriggerStart:   StatusPlaying,
		TriggerRestart: StatusBriefing,
	},
	StatusPlaying: {
		TriggerPause:   StatusPaused,
		TriggerWin:     StatusWon,
		TriggerLose:    StatusLost,
		TriggerRestart: StatusBriefing,
	},
	StatusPaused: {
		TriggerResume:  StatusPlaying,
		TriggerWin:     StatusWon,
		TriggerLose:    StatusLost,
		TriggerRestart: StatusBriefing,
	},
	StatusWon: {
		TriggerRestart: StatusBriefing,
	},
	StatusLost: {
		TriggerRestart: StatusBriefing,
	},
}

// Transition returns the status reached by firing t from s.
// ok is false, and s is returned unchanged, when the transition is not allowed.
func (s Status) Transition(t Trigger) (next Status, ok bool) {
	next, ok = transitions[s][t]
	if !ok {
		return s, false
	}
	return next, true
}

// Can reports whether t is allowed from s.
func (s Status) Can(t Trigger) bool {
	_, ok := transitions[s][t]
	return ok
}

// IsTerminal reports whether the game has ended.
func (s Status) IsTerminal() bool {
	return s == StatusWon || s == StatusLost
}

// IsActive reports whether the game is underway, running or paused.
func (s Status) IsActive() bool {
	return s == StatusPlaying || s == StatusPaused
}
