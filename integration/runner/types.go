package runner

import (
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/outbreak-engine/pkg/engine"
)

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name     string     `json:"name"`
	Scenario string     `json:"scenario,omitempty"` // Used for regular tests
	Steps    []TestStep `json:"steps,omitempty"`    // Used for regular tests
	Cases    []string   `json:"cases,omitempty"`    // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// Command mirrors the body of POST /v1/sessions/{id}/commands.
type Command struct {
	Type     string `json:"type"`
	ActionID string `json:"action_id,omitempty"`
	Choice   *int   `json:"choice,omitempty"`
	Speed    string `json:"speed,omitempty"`
}

// WaitFor polls the session until the clock has moved it into the wanted state.
type WaitFor struct {
	Status         string `json:"status,omitempty"`
	MinDay         int    `json:"min_day,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

// TestStep is one command or wait, followed by its checks.
// Exactly one of Command and WaitFor should be set.
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	Command      *Command     `json:"command,omitempty"`
	WaitFor      *WaitFor     `json:"wait_for,omitempty"`
	Expectations Expectations `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// Command response
	HTTPStatus *int  `json:"http_status,omitempty"` // defaults to 200
	Applied    *bool `json:"applied,omitempty"`

	// Game properties - aligned with pkg/engine/game.go
	Status           *string  `json:"status,omitempty"`
	Day              *int     `json:"day,omitempty"`
	MinDay           *int     `json:"min_day,omitempty"`
	Budget           *float64 `json:"budget,omitempty"`
	MinCases         *int     `json:"min_cases,omitempty"`
	SourceIdentified *bool    `json:"source_identified,omitempty"`
	ActionsTaken     []string `json:"actions_taken,omitempty"` // order independent
	ActiveActions    []string `json:"active_actions,omitempty"`
	EventPending     *bool    `json:"event_pending,omitempty"`
	EventTitle       *string  `json:"event_title,omitempty"`

	// Notifications produced by the step
	NotificationsContain []string `json:"notifications_contain,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	StepName string
	Success  bool
	Error    error
	Duration time.Duration
	IsWait   bool
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job       TestJob
	Results   []TestResult
	SessionID uuid.UUID
	Error     error
	Duration  time.Duration
}

// SessionView is the subset of GET /v1/sessions/{id} the runner reads.
type SessionView struct {
	ID   uuid.UUID   `json:"id"`
	Game engine.Game `json:"game"`
}

// CommandResponse mirrors the body returned for every command.
type CommandResponse struct {
	Applied       bool                  `json:"applied"`
	Notifications []engine.Notification `json:"notifications"`
	Game          engine.Game           `json:"game"`
}
