package runner

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/outbreak-engine/data"
	"github.com/jwebster45206/outbreak-engine/internal/handlers"
	"github.com/jwebster45206/outbreak-engine/internal/session"
	"github.com/jwebster45206/outbreak-engine/internal/storage"
	"github.com/jwebster45206/outbreak-engine/pkg/engine"
	"github.com/jwebster45206/outbreak-engine/pkg/state"
)

// newTestAPI serves the session routes in-process with a fast real clock.
func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	library := storage.NewScenarioLibrary(data.FS, log)
	manager := session.NewManager(library, session.Options{
		NominalInterval: 20 * time.Millisecond,
		FastInterval:    5 * time.Millisecond,
		Seed:            7,
	}, log)

	mux := http.NewServeMux()
	h := handlers.NewSessionHandler(log, manager, nil)
	mux.Handle("/v1/sessions", h)
	mux.Handle("/v1/sessions/", h)

	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		manager.Close(context.Background())
	})
	return srv
}

func TestRunner_BundledCases(t *testing.T) {
	srv := newTestAPI(t)
	r := NewRunner(srv.URL + "/")
	r.Timeout = 20 * time.Second
	r.ErrorHandlingMode = ErrorHandlingExit

	files, err := filepath.Glob(filepath.Join("..", "cases", "*.json"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		jobs, err := LoadTestSuiteWithExpansion(file, filepath.Join("..", "cases"))
		require.NoError(t, err)
		for _, job := range jobs {
			t.Run(job.Name, func(t *testing.T) {
				result, err := r.RunSuite(context.Background(), job.Suite)
				require.NoError(t, err)
				assert.Len(t, result.Results, len(job.Suite.Steps))
				for _, step := range result.Results {
					assert.True(t, step.Success, step.StepName)
				}

				// The session is removed once the suite ends.
				_, err = GetSession(context.Background(), r.Client, r.BaseURL, result.SessionID)
				assert.Error(t, err)
			})
		}
	}
}

func TestRunner_ReportsFailedStep(t *testing.T) {
	srv := newTestAPI(t)
	r := NewRunner(srv.URL)

	wrongDay := 9
	suite := TestSuite{
		Name:     "failing",
		Scenario: "county-fair",
		Steps: []TestStep{
			{Name: "briefing day", Command: &Command{Type: "restart"}, Expectations: Expectations{Day: &wrongDay}},
			{Name: "empty step"},
			{Name: "start", Command: &Command{Type: "start"}},
		},
	}

	result, err := r.RunSuite(context.Background(), suite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected day 9, got 1")
	require.Len(t, result.Results, 3, "continue mode runs every step")
	assert.False(t, result.Results[1].Success)
	assert.True(t, result.Results[2].Success)

	r.ErrorHandlingMode = ErrorHandlingExit
	result, err = r.RunSuite(context.Background(), suite)
	require.Error(t, err)
	assert.Len(t, result.Results, 1)
}

func TestRunner_UnknownScenario(t *testing.T) {
	srv := newTestAPI(t)
	_, err := NewRunner(srv.URL).RunSuite(context.Background(), TestSuite{Name: "x", Scenario: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestLoadTestSuiteWithExpansion(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("a.json", `{"name": "a", "scenario": "county-fair", "steps": [{"command": {"type": "start"}, "expect": {}}]}`)
	write("b.json", `{"name": "b", "scenario": "harbor-flu"}`)
	write("inner.json", `{"name": "inner", "cases": ["b.json"]}`)
	write("all.json", `{"name": "all", "cases": ["a.json", "inner.json"]}`)
	write("broken.json", `{"name": "broken", "cases": ["missing.json"]}`)

	jobs, err := LoadTestSuiteWithExpansion(filepath.Join(dir, "all.json"), dir)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "a", jobs[0].Name)
	assert.Equal(t, "start", jobs[0].Suite.Steps[0].Command.Type)
	assert.Equal(t, "b", jobs[1].Name)

	_, err = LoadTestSuiteWithExpansion(filepath.Join(dir, "broken.json"), dir)
	assert.ErrorContains(t, err, "missing.json")
}

func TestCheckExpectations(t *testing.T) {
	g := engine.Game{Status: state.StatusPaused}
	g.State.Day = 4
	g.State.Budget = 1000
	g.State.ActionsTaken = []string{"a", "b"}
	g.Actions = []engine.ActionState{{ID: "a"}, {ID: "b", Active: true}}

	boolPtr := func(b bool) *bool { return &b }
	intPtr := func(n int) *int { return &n }
	strPtr := func(s string) *string { return &s }

	tests := []struct {
		name    string
		exp     Expectations
		status  int
		resp    *CommandResponse
		wantErr string
	}{
		{"all good", Expectations{Status: strPtr("paused"), MinDay: intPtr(3), ActionsTaken: []string{"b", "a"}, ActiveActions: []string{"b"}}, 200, nil, ""},
		{"status code", Expectations{}, 400, nil, "expected HTTP status 200, got 400"},
		{"expected rejection", Expectations{HTTPStatus: intPtr(400), Day: intPtr(99)}, 400, nil, ""},
		{"applied without response", Expectations{Applied: boolPtr(true)}, 200, nil, "command steps"},
		{"applied mismatch", Expectations{Applied: boolPtr(true)}, 200, &CommandResponse{}, "expected applied to be true"},
		{"extra action", Expectations{ActionsTaken: []string{"a"}}, 200, nil, "unexpected 'b'"},
		{"no event", Expectations{EventTitle: strPtr("Grant")}, 200, nil, "none is"},
		{"notification", Expectations{NotificationsContain: []string{"spread"}}, 200,
			&CommandResponse{Notifications: []engine.Notification{{Message: "Outbreak SPREAD to Harbor"}}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkExpectations(tt.exp, tt.status, tt.resp, g)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
