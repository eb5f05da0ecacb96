package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/outbreak-engine/data"
	"github.com/jwebster45206/outbreak-engine/internal/storage"
	"github.com/jwebster45206/outbreak-engine/pkg/engine"
)

func countyFairEngine(t *testing.T, seed int64) *engine.Engine {
	t.Helper()
	sc, err := storage.NewScenarioLibrary(data.FS, nil).GetScenario(context.Background(), "county-fair")
	require.NoError(t, err)
	return engine.New(sc, nil).WithRand(engine.NewRand(seed))
}

func TestParsePlan(t *testing.T) {
	plan, err := ParsePlan("case-interviews@1, recall@4,vendor-closure@4")
	require.NoError(t, err)
	assert.Equal(t, Plan{1: {"case-interviews"}, 4: {"recall", "vendor-closure"}}, plan)

	plan, err = ParsePlan("  ")
	require.NoError(t, err)
	assert.Empty(t, plan)

	for _, bad := range []string{"recall", "@3", "recall@", "recall@0", "recall@soon"} {
		_, err := ParsePlan(bad)
		assert.Error(t, err, bad)
	}
}

func TestSimulate(t *testing.T) {
	for _, choice := range []int{0, 1, 7} {
		plan := Plan{1: {"case-interviews"}, 2: {"environmental-sampling", "no-such-action"}}
		rep, err := Simulate(countyFairEngine(t, 42), plan, choice, 30)
		require.NoError(t, err, "choice %d", choice)

		require.NotEmpty(t, rep.Samples)
		assert.Equal(t, 1, rep.Samples[0].Day)
		for i := 1; i < len(rep.Samples); i++ {
			assert.Equal(t, rep.Samples[i-1].Day+1, rep.Samples[i].Day)
		}
		last := rep.Samples[len(rep.Samples)-1]
		assert.Equal(t, rep.Final.State.Day, last.Day)

		if rep.Finished {
			assert.True(t, rep.Final.Status.IsTerminal())
		} else {
			assert.Equal(t, 30, rep.Final.State.Day)
		}
		assert.False(t, rep.Final.EventPending())
		assert.Contains(t, rep.Skipped, "no-such-action@2")

		require.NotEmpty(t, rep.Notes)
		assert.True(t, strings.HasSuffix(rep.Notes[0].Message, "underway"))
	}
}

func TestSimulate_DayLimit(t *testing.T) {
	rep, err := Simulate(countyFairEngine(t, 3), nil, 0, 1)
	require.NoError(t, err)
	assert.False(t, rep.Finished)
	assert.Len(t, rep.Samples, 1)

	var out bytes.Buffer
	WriteSummary(&out, "County Fair", rep)
	assert.Contains(t, out.String(), "undecided after 1 days")
	assert.Contains(t, out.String(), "Budget:    $500,000")
	assert.NotContains(t, out.String(), "Score")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Sample{
		{Day: 1, Cases: 45, Budget: 500000, R0: 1.5},
		{Day: 2, Cases: 52, Deaths: 1, Budget: 475000, R0: 1.35},
	}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "day,cases,deaths,budget,r0", lines[0])
	assert.Equal(t, "2,52,1,475000,1.35", lines[2])
}

func TestRenderChart(t *testing.T) {
	var buf bytes.Buffer
	err := RenderChart(&buf, "County Fair", []Sample{{Day: 1, Cases: 45}})
	assert.Error(t, err)

	samples := []Sample{
		{Day: 1, Cases: 45},
		{Day: 2, Cases: 60, Deaths: 1},
		{Day: 3, Cases: 90, Deaths: 2},
	}
	require.NoError(t, RenderChart(&buf, "County Fair", samples))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}
