package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/outbreak-engine/pkg/engine"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running outbreak-engine API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
	ScenarioOverride  string // If set, overrides the scenario for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           30 * time.Second,
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite in a fresh session, which is deleted afterwards
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	scenarioID := suite.Scenario
	if r.ScenarioOverride != "" {
		scenarioID = r.ScenarioOverride
	}

	sessionID, err := CreateSession(ctx, r.Client, r.BaseURL, scenarioID)
	if err != nil {
		result.Error = fmt.Errorf("failed to create session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.SessionID = sessionID
	defer func() {
		if err := DeleteSession(context.WithoutCancel(ctx), r.Client, r.BaseURL, sessionID); err != nil {
			r.Logger("    Warning: %v", err)
		}
	}()

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, sessionID, step)
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep executes a single command or wait and checks expectations
func (r *Runner) runStep(ctx context.Context, sessionID uuid.UUID, step TestStep) (result TestResult) {
	start := time.Now()
	result.StepName = step.Name
	defer func() {
		result.Duration = time.Since(start)
		result.Success = result.Error == nil
	}()

	stepCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	switch {
	case step.WaitFor != nil:
		result.IsWait = true
		view, err := PollForSession(stepCtx, r.Client, r.BaseURL, sessionID, *step.WaitFor)
		if err != nil {
			result.Error = err
			return result
		}
		result.Error = checkExpectations(step.Expectations, http.StatusOK, nil, view.Game)

	case step.Command != nil:
		status, resp, err := PostCommand(stepCtx, r.Client, r.BaseURL, sessionID, *step.Command)
		if err != nil {
			result.Error = err
			return result
		}
		if resp == nil {
			result.Error = checkExpectations(step.Expectations, status, nil, engine.Game{})
			break
		}
		result.Error = checkExpectations(step.Expectations, status, resp, resp.Game)

	default:
		result.Error = errors.New("step has neither a command nor a wait_for")
	}
	return result
}

// checkExpectations validates the test expectations against the step's response and game
func checkExpectations(exp Expectations, status int, resp *CommandResponse, g engine.Game) error {
	wantStatus := http.StatusOK
	if exp.HTTPStatus != nil {
		wantStatus = *exp.HTTPStatus
	}
	if status != wantStatus {
		return fmt.Errorf("expected HTTP status %d, got %d", wantStatus, status)
	}
	if status != http.StatusOK {
		// Nothing else to check on a rejected request
		return nil
	}

	if exp.Applied != nil {
		if resp == nil {
			return errors.New("applied can only be checked on command steps")
		}
		if resp.Applied != *exp.Applied {
			return fmt.Errorf("expected applied to be %t, got %t", *exp.Applied, resp.Applied)
		}
	}

	if exp.Status != nil && string(g.Status) != *exp.Status {
		return fmt.Errorf("expected status %s, got %s", *exp.Status, g.Status)
	}

	if exp.Day != nil && g.State.Day != *exp.Day {
		return fmt.Errorf("expected day %d, got %d", *exp.Day, g.State.Day)
	}

	if exp.MinDay != nil && g.State.Day < *exp.MinDay {
		return fmt.Errorf("expected day >= %d, got %d", *exp.MinDay, g.State.Day)
	}

	if exp.Budget != nil && g.State.Budget != *exp.Budget {
		return fmt.Errorf("expected budget %.2f, got %.2f", *exp.Budget, g.State.Budget)
	}

	if exp.MinCases != nil && g.State.Cases < *exp.MinCases {
		return fmt.Errorf("expected cases >= %d, got %d", *exp.MinCases, g.State.Cases)
	}

	if exp.SourceIdentified != nil && g.State.SourceIdentified != *exp.SourceIdentified {
		return fmt.Errorf("expected source_identified to be %t, got %t", *exp.SourceIdentified, g.State.SourceIdentified)
	}

	// Full actions_taken check (order independent)
	if len(exp.ActionsTaken) > 0 {
		if err := sameSet("actions_taken", exp.ActionsTaken, g.State.ActionsTaken); err != nil {
			return err
		}
	}

	if len(exp.ActiveActions) > 0 {
		var active []string
		for _, a := range g.Actions {
			if a.Active {
				active = append(active, a.ID)
			}
		}
		if err := sameSet("active actions", exp.ActiveActions, active); err != nil {
			return err
		}
	}

	if exp.EventPending != nil && g.EventPending() != *exp.EventPending {
		return fmt.Errorf("expected event_pending to be %t, got %t", *exp.EventPending, g.EventPending())
	}

	if exp.EventTitle != nil {
		if g.Presented == nil {
			return fmt.Errorf("expected event %q to be presented, but none is", *exp.EventTitle)
		}
		if g.Presented.Title != *exp.EventTitle {
			return fmt.Errorf("expected event %q, got %q", *exp.EventTitle, g.Presented.Title)
		}
	}

	if len(exp.NotificationsContain) > 0 {
		if resp == nil {
			return errors.New("notifications can only be checked on command steps")
		}
		var messages []string
		for _, n := range resp.Notifications {
			messages = append(messages, strings.ToLower(n.Message))
		}
		all := strings.Join(messages, "\n")
		for _, want := range exp.NotificationsContain {
			if !strings.Contains(all, strings.ToLower(want)) {
				return fmt.Errorf("expected a notification containing '%s', got %v", want, messages)
			}
		}
	}

	return nil
}

func sameSet(field string, want, got []string) error {
	for _, w := range want {
		if !slices.Contains(got, w) {
			return fmt.Errorf("expected %s to contain '%s', got %v", field, w, got)
		}
	}
	for _, g := range got {
		if !slices.Contains(want, g) {
			return fmt.Errorf("%s contains unexpected '%s', expected %v", field, g, want)
		}
	}
	return nil
}
