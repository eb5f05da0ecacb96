package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
	"github.com/jwebster45206/outbreak-engine/pkg/storage"
)

func floatPtr(v float64) *float64 { return &v }

func testStorage() *storage.MockStorage {
	m := storage.NewMockStorage()
	m.AddScenario(&scenario.Scenario{
		ID:           "county-fair",
		Title:        "County Fair",
		Difficulty:   scenario.DifficultyEasy,
		Pathogen:     scenario.Pathogen{Name: "Salmonella", FatalityRate: 0.01},
		InitialState: scenario.InitialState{Cases: 45, Budget: 500000, Personnel: 10},
		BriefingText: "Forty-five fairgoers are sick.",
		AvailableActions: []scenario.Action{
			{ID: "case-interviews", Name: "Case Interviews", Cost: 25000, DurationDays: 2, EffectSpec: "Identifies the source (40% chance)"},
		},
		WinConditions:  scenario.WinConditions{SourceIdentified: true},
		LoseConditions: scenario.LoseConditions{BudgetBelow: floatPtr(0)},
	})
	m.AddScenario(&scenario.Scenario{ID: "harbor-flu", Title: "Harbor Flu", Difficulty: scenario.DifficultyHard})
	return m
}

func TestScenarioHandler(t *testing.T) {
	h := NewScenarioHandler(slog.New(slog.DiscardHandler), testStorage())

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		check    func(t *testing.T, body []byte)
	}{
		{
			name: "list", method: http.MethodGet, path: "/v1/scenarios", wantCode: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var list []scenario.Summary
				require.NoError(t, json.Unmarshal(body, &list))
				require.Len(t, list, 2)
				assert.Equal(t, "county-fair", list[0].ID)
				assert.Equal(t, "Salmonella", list[0].Pathogen)
			},
		},
		{
			name: "get", method: http.MethodGet, path: "/v1/scenarios/county-fair", wantCode: http.StatusOK,
			check: func(t *testing.T, body []byte) {
				var s scenario.Scenario
				require.NoError(t, json.Unmarshal(body, &s))
				assert.Equal(t, "County Fair", s.Title)
				assert.Equal(t, 500000.0, s.InitialState.Budget)
			},
		},
		{name: "missing", method: http.MethodGet, path: "/v1/scenarios/nope", wantCode: http.StatusNotFound},
		{name: "invalid id", method: http.MethodGet, path: "/v1/scenarios/Bad_ID", wantCode: http.StatusBadRequest},
		{name: "method", method: http.MethodPost, path: "/v1/scenarios", wantCode: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.check != nil {
				tt.check(t, rec.Body.Bytes())
			}
		})
	}
}
