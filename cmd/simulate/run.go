package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/jwebster45206/outbreak-engine/pkg/engine"
	"github.com/jwebster45206/outbreak-engine/pkg/state"
)

// Sample is the state of the outbreak at the end of a day.
type Sample struct {
	Day    int
	Cases  int
	Deaths int
	Budget float64
	R0     float64
}

// Plan maps a day to the actions activated on it.
type Plan map[int][]string

// ParsePlan reads "action@day" pairs separated by commas, e.g. "case-interviews@1,recall@4".
func ParsePlan(s string) (Plan, error) {
	plan := Plan{}
	if strings.TrimSpace(s) == "" {
		return plan, nil
	}
	for _, part := range strings.Split(s, ",") {
		id, dayStr, ok := strings.Cut(strings.TrimSpace(part), "@")
		if !ok || id == "" {
			return nil, fmt.Errorf("invalid plan entry %q: want action@day", part)
		}
		day, err := strconv.Atoi(dayStr)
		if err != nil || day < 1 {
			return nil, fmt.Errorf("invalid day in plan entry %q", part)
		}
		plan[day] = append(plan[day], id)
	}
	return plan, nil
}

// Report is the outcome of a headless run.
type Report struct {
	Samples  []Sample
	Notes    []engine.Notification
	Final    engine.Game
	Finished bool // false when the day limit was reached first
	Skipped  []string
}

// Simulate plays a game without a clock: it starts the response, activates the
// planned actions, answers every event with choice and ticks until the game ends
// or maxDays have passed.
func Simulate(e *engine.Engine, plan Plan, choice, maxDays int) (Report, error) {
	var rep Report
	e.WithNotifier(engine.NotifierFunc(func(n engine.Notification) {
		rep.Notes = append(rep.Notes, n)
	}))

	if !e.Start().Applied {
		return rep, errors.New("game could not be started")
	}
	rep.Samples = append(rep.Samples, sample(e.Snapshot()))

	activated := map[int]bool{}
	for {
		g := e.Snapshot()
		if g.Status.IsTerminal() {
			rep.Finished = true
			break
		}

		if !activated[g.State.Day] {
			activated[g.State.Day] = true
			for _, id := range plan[g.State.Day] {
				if !e.Activate(id).Applied {
					rep.Skipped = append(rep.Skipped, fmt.Sprintf("%s@%d", id, g.State.Day))
				}
			}
		}

		switch {
		case g.EventPending():
			if err := resolve(e, g, choice); err != nil {
				return rep, err
			}
			continue
		case g.Status != state.StatusPlaying:
			if !e.Resume().Applied {
				return rep, fmt.Errorf("game stuck in status %s on day %d", g.Status, g.State.Day)
			}
			continue
		}

		if g.State.Day >= maxDays {
			break
		}
		if !e.Tick().Applied {
			return rep, fmt.Errorf("tick refused on day %d", g.State.Day)
		}
		rep.Samples = append(rep.Samples, sample(e.Snapshot()))
	}

	rep.Final = e.Snapshot()
	return rep, nil
}

func resolve(e *engine.Engine, g engine.Game, choice int) error {
	if !g.Presented.RequiresChoice() {
		choice = -1
	}
	if e.Resolve(choice).Applied {
		return nil
	}
	// Fall back to the first choice when the requested one does not exist
	if e.Resolve(0).Applied {
		return nil
	}
	return fmt.Errorf("could not resolve event %q on day %d", g.Presented.Title, g.State.Day)
}

func sample(g engine.Game) Sample {
	return Sample{
		Day:    g.State.Day,
		Cases:  g.State.Cases,
		Deaths: g.State.Deaths,
		Budget: g.State.Budget,
		R0:     g.State.R0,
	}
}

// WriteSummary prints the outcome of a run for humans.
func WriteSummary(w io.Writer, title string, rep Report) {
	g := rep.Final
	fmt.Fprintf(w, "%s\n", title)
	switch {
	case !rep.Finished:
		fmt.Fprintf(w, "  Outcome:   undecided after %d days\n", g.State.Day)
	case g.Won():
		fmt.Fprintf(w, "  Outcome:   contained on day %d\n", g.State.Day)
	default:
		fmt.Fprintf(w, "  Outcome:   failed on day %d\n", g.State.Day)
	}
	fmt.Fprintf(w, "  Cases:     %s\n", humanize.Comma(int64(g.State.Cases)))
	fmt.Fprintf(w, "  Deaths:    %s\n", humanize.Comma(int64(g.State.Deaths)))
	fmt.Fprintf(w, "  Budget:    $%s\n", humanize.Comma(int64(math.Round(g.State.Budget))))
	fmt.Fprintf(w, "  R0:        %.2f\n", g.State.R0)
	fmt.Fprintf(w, "  Regions:   %d\n", len(g.State.OutbreakLocations))
	if rep.Finished {
		fmt.Fprintf(w, "  Score:     %s\n", humanize.Comma(int64(g.Score)))
	}
	if len(rep.Skipped) > 0 {
		sort.Strings(rep.Skipped)
		fmt.Fprintf(w, "  Skipped:   %s\n", strings.Join(rep.Skipped, ", "))
	}
}

// WriteCSV writes one row per sampled day.
func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"day", "cases", "deaths", "budget", "r0"}); err != nil {
		return err
	}
	for _, s := range samples {
		err := cw.Write([]string{
			strconv.Itoa(s.Day),
			strconv.Itoa(s.Cases),
			strconv.Itoa(s.Deaths),
			strconv.FormatFloat(s.Budget, 'f', 0, 64),
			strconv.FormatFloat(s.R0, 'f', 2, 64),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderChart draws the case and death curves as a PNG.
func RenderChart(w io.Writer, title string, samples []Sample) error {
	if len(samples) < 2 {
		return errors.New("at least two days are needed to chart a run")
	}

	days := make([]float64, len(samples))
	cases := make([]float64, len(samples))
	deaths := make([]float64, len(samples))
	for i, s := range samples {
		days[i] = float64(s.Day)
		cases[i] = float64(s.Cases)
		deaths[i] = float64(s.Deaths)
	}

	graph := chart.Chart{
		Title:  title,
		Width:  900,
		Height: 400,
		XAxis: chart.XAxis{
			Name: "Day",
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name: "People",
			ValueFormatter: func(v interface{}) string {
				return humanize.Comma(int64(v.(float64)))
			},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Cases",
				XValues: days,
				YValues: cases,
				Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 3.0},
			},
			chart.ContinuousSeries{
				Name:    "Deaths",
				XValues: days,
				YValues: deaths,
				Style:   chart.Style{StrokeColor: drawing.Color{R: 60, G: 60, B: 60, A: 255}, StrokeWidth: 3.0},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}
