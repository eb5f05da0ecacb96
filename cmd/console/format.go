package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/jwebster45206/outbreak-engine/pkg/engine"
	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
)

var (
	printer    = message.NewPrinter(language.English)
	titleCaser = cases.Title(language.English)
)

// formatCount groups thousands, e.g. 12,400.
func formatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// formatMoney rounds to whole dollars.
func formatMoney(v float64) string {
	n := int64(math.Round(v))
	if n < 0 {
		return printer.Sprintf("-$%d", -n)
	}
	return printer.Sprintf("$%d", n)
}

func title(s string) string {
	return titleCaser.String(strings.ReplaceAll(s, "_", " "))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// debriefText is the plain-text summary of a finished game, suitable for pasting.
func debriefText(sc *scenario.Scenario, g engine.Game) string {
	outcome := "Outbreak contained"
	if !g.Won() {
		outcome = "Response failed"
	}

	var taken []string
	for _, id := range g.State.ActionsTaken {
		if a, ok := sc.GetAction(id); ok {
			taken = append(taken, a.Name)
		}
	}
	if len(taken) == 0 {
		taken = []string{"none"}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s debrief (%s, %s)\n", sc.Title, title(string(sc.Difficulty)), sc.Pathogen.Name)
	fmt.Fprintf(&b, "Outcome: %s on day %d\n", outcome, g.State.Day)
	fmt.Fprintf(&b, "Cases: %s  Deaths: %s\n", formatCount(g.State.Cases), formatCount(g.State.Deaths))
	fmt.Fprintf(&b, "Budget remaining: %s\n", formatMoney(g.State.Budget))
	fmt.Fprintf(&b, "R0: %.2f  Source identified: %s\n", g.State.R0, yesNo(g.State.SourceIdentified))
	fmt.Fprintf(&b, "Regions affected: %d\n", len(g.State.OutbreakLocations))
	fmt.Fprintf(&b, "Actions taken: %s\n", strings.Join(taken, ", "))
	fmt.Fprintf(&b, "Score: %s\n", formatCount(g.Score))
	return b.String()
}

type copiedMsg struct {
	err error
}

func copyDebrief(text string) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{err: clipboard.WriteAll(text)}
	}
}
