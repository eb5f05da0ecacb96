package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/outbreak-engine/pkg/engine"
	"github.com/jwebster45206/outbreak-engine/pkg/scenario"
	"github.com/jwebster45206/outbreak-engine/pkg/state"
)

// ScenarioSource loads the scenario picked from the menu.
type ScenarioSource interface {
	GetScenario(ctx context.Context, id string) (*scenario.Scenario, error)
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config *ConsoleConfig
	source ScenarioSource

	// Scenario selection state
	scenarios        []scenario.Summary
	selectedScenario int

	// Game state
	engine         *engine.Engine
	speed          engine.Speed
	tickGen        int
	selectedAction int
	selectedChoice int
	notes          []engine.Notification

	logViewport viewport.Model
	progress    progress.Model
	help        help.Model

	width  int
	height int
	err    error
	flash  string

	// Quit confirmation state
	showQuitModal bool
}

// tickMsg advances the clock. Ticks from an older generation are dropped, which is
// how a speed change or restart cancels the pending tick.
type tickMsg struct {
	gen int
}

var (
	panelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("205")).
			Bold(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	eventStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(0, 1)

	severityStyles = map[engine.Severity]lipgloss.Style{
		engine.SeverityInfo:     lipgloss.NewStyle().Foreground(lipgloss.Color("39")),  // teal
		engine.SeveritySuccess:  lipgloss.NewStyle().Foreground(lipgloss.Color("86")),  // green
		engine.SeverityWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow
		engine.SeverityCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("196")), // red
	}
)

func NewConsoleUI(cfg *ConsoleConfig, source ScenarioSource, scenarios []scenario.Summary) ConsoleUI {
	vp := viewport.New(40, 20)
	vp.MouseWheelEnabled = true
	vp.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}

	return ConsoleUI{
		config:      cfg,
		source:      source,
		scenarios:   scenarios,
		speed:       engine.SpeedNominal,
		logViewport: vp,
		progress:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:        help.New(),
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return nil
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tickMsg:
		return m.handleTick(msg)

	case copiedMsg:
		if msg.err != nil {
			m.flash = "Copy failed: " + msg.err.Error()
		} else {
			m.flash = "Debrief copied to clipboard"
		}
		return m, nil

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.showQuitModal {
			return m.updateQuitModal(msg)
		}
		if key.Matches(msg, keys.Quit) {
			m.showQuitModal = true
			return m, nil
		}
		if m.engine == nil {
			return m.updateScenarioModal(msg)
		}
		return m.updateGame(msg)
	}

	return m, nil
}

func (m *ConsoleUI) resize() {
	_, right := m.columns()
	m.logViewport.Width = right
	m.logViewport.Height = max(5, m.height-4)
	m.progress.Width = max(10, min(30, m.width/5))
	m.help.Width = m.width
	m.refreshLog()
}

func (m ConsoleUI) columns() (left, right int) {
	left = max(44, m.width*11/20)
	right = max(20, m.width-left-4)
	return left, right
}

func (m ConsoleUI) interval() time.Duration {
	if m.speed == engine.SpeedFast {
		return m.config.FastInterval
	}
	return m.config.NominalInterval
}

func (m ConsoleUI) scheduleTick() tea.Cmd {
	gen := m.tickGen
	return tea.Tick(m.interval(), func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (m ConsoleUI) handleTick(msg tickMsg) (tea.Model, tea.Cmd) {
	if m.engine == nil || msg.gen != m.tickGen {
		return m, nil
	}
	status := m.engine.Status()
	if status == state.StatusBriefing || status.IsTerminal() {
		return m, nil
	}
	if status == state.StatusPlaying {
		m.apply(m.engine.Tick())
	}
	if m.engine.Status().IsTerminal() {
		return m, nil
	}
	return m, m.scheduleTick()
}

// apply records the notifications of a step.
func (m *ConsoleUI) apply(res engine.Result) {
	if len(res.Notifications) > 0 {
		m.notes = append(m.notes, res.Notifications...)
		m.refreshLog()
	}
}

func (m *ConsoleUI) refreshLog() {
	width := m.logViewport.Width
	if width <= 0 {
		return
	}

	var content strings.Builder
	for _, n := range m.notes {
		style, ok := severityStyles[n.Severity]
		if !ok {
			style = severityStyles[engine.SeverityInfo]
		}
		prefix := fmt.Sprintf("Day %d  ", n.Day)
		content.WriteString(dimStyle.Render(prefix))
		content.WriteString(style.Render(wordwrap.String(n.Message, width-len(prefix))))
		content.WriteString("\n")
		if n.EffectSummary != "" {
			content.WriteString(dimStyle.Render(wordwrap.String("  "+n.EffectSummary, width)))
			content.WriteString("\n")
		}
	}
	m.logViewport.SetContent(content.String())
	m.logViewport.GotoBottom()
}

func (m ConsoleUI) updateScenarioModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.selectedScenario > 0 {
			m.selectedScenario--
		}
	case key.Matches(msg, keys.Down):
		if m.selectedScenario < len(m.scenarios)-1 {
			m.selectedScenario++
		}
	case key.Matches(msg, keys.Select):
		if len(m.scenarios) == 0 {
			return m, nil
		}
		sc, err := m.source.GetScenario(context.Background(), m.scenarios[m.selectedScenario].ID)
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.engine = engine.New(sc, nil).WithRand(engine.NewRand(m.config.Seed))
		m.resetGame()
	}
	return m, nil
}

func (m *ConsoleUI) resetGame() {
	m.tickGen++
	m.speed = engine.SpeedNominal
	m.selectedAction = 0
	m.selectedChoice = 0
	m.notes = nil
	m.flash = ""
	m.refreshLog()
}

func (m ConsoleUI) updateGame(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	g := m.engine.Snapshot()
	m.flash = ""

	switch {
	case g.Status == state.StatusBriefing:
		switch {
		case key.Matches(msg, keys.Select):
			m.apply(m.engine.Start())
			m.tickGen++
			return m, m.scheduleTick()
		case key.Matches(msg, keys.Back):
			m.engine = nil
		}
		return m, nil

	case g.Status.IsTerminal():
		switch {
		case key.Matches(msg, keys.Copy):
			return m, copyDebrief(debriefText(m.engine.Scenario(), g))
		case key.Matches(msg, keys.Restart):
			m.engine.Restart()
			m.resetGame()
		case key.Matches(msg, keys.Back):
			m.engine = nil
		}
		return m, nil

	case g.EventPending():
		choices := len(g.Presented.Choices)
		switch {
		case key.Matches(msg, keys.Up):
			if m.selectedChoice > 0 {
				m.selectedChoice--
			}
		case key.Matches(msg, keys.Down):
			if m.selectedChoice < choices-1 {
				m.selectedChoice++
			}
		case key.Matches(msg, keys.Select):
			choice := -1
			if choices > 0 {
				choice = m.selectedChoice
			}
			m.apply(m.engine.Resolve(choice))
			m.selectedChoice = 0
		}
		return m, nil
	}

	actions := m.engine.Actions()
	switch {
	case key.Matches(msg, keys.Up):
		if m.selectedAction > 0 {
			m.selectedAction--
		}
	case key.Matches(msg, keys.Down):
		if m.selectedAction < len(actions)-1 {
			m.selectedAction++
		}
	case key.Matches(msg, keys.Select):
		if len(actions) == 0 {
			return m, nil
		}
		a := actions[m.selectedAction]
		if reason := activationBlocker(g, a); reason != "" {
			m.flash = a.Name + ": " + reason
			return m, nil
		}
		m.apply(m.engine.Activate(a.ID))
	case key.Matches(msg, keys.Pause):
		if g.Status == state.StatusPlaying {
			m.apply(m.engine.Pause())
		} else {
			m.apply(m.engine.Resume())
		}
	case key.Matches(msg, keys.Speed):
		if m.speed == engine.SpeedFast {
			m.speed = engine.SpeedNominal
		} else {
			m.speed = engine.SpeedFast
		}
		m.tickGen++
		return m, m.scheduleTick()
	case key.Matches(msg, keys.Restart):
		m.engine.Restart()
		m.resetGame()
	default:
		var cmd tea.Cmd
		m.logViewport, cmd = m.logViewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// activationBlocker explains why an action cannot be started, or returns "".
func activationBlocker(g engine.Game, a scenario.Action) string {
	if rt, ok := g.Action(a.ID); ok && rt.Active {
		return "already underway"
	}
	if g.State.Budget < a.Cost {
		return "insufficient budget"
	}
	return ""
}

func (m ConsoleUI) updateQuitModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC, key.Matches(msg, keys.Yes):
		return m, tea.Quit
	case key.Matches(msg, keys.No), msg.Type == tea.KeyEsc:
		m.showQuitModal = false
	}
	return m, nil
}

func (m ConsoleUI) View() string {
	if m.width == 0 || m.height == 0 {
		return "\n  Initializing..."
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if m.engine == nil {
		return m.renderScenarioModal()
	}

	g := m.engine.Snapshot()
	switch {
	case g.Status == state.StatusBriefing:
		return m.renderBriefing()
	case g.Status.IsTerminal():
		return m.renderDebrief(g)
	}

	left, right := m.columns()
	dashboard := panelStyle.Width(left).Render(m.renderDashboard(g))

	var side []string
	if g.EventPending() {
		side = append(side, m.renderEvent(*g.Presented, right-4))
	}
	vp := m.logViewport
	vp.Height = max(3, m.height-4-lipgloss.Height(strings.Join(side, "\n")))
	side = append(side, titleStyle.Render("DISPATCHES"), vp.View())
	log := panelStyle.Width(right).Render(lipgloss.JoinVertical(lipgloss.Left, side...))

	footer := m.help.View(m.gameHelp(g))
	if m.flash != "" {
		footer = errorStyle.Render(m.flash) + "  " + footer
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, dashboard, log),
		" "+footer,
	)
}

func (m ConsoleUI) gameHelp(g engine.Game) help.KeyMap {
	if g.EventPending() {
		return bindings{keys.Up, keys.Down, keys.Select, keys.Quit}
	}
	return bindings{keys.Up, keys.Down, keys.Select, keys.Pause, keys.Speed, keys.Restart, keys.Quit}
}

func (m ConsoleUI) renderDashboard(g engine.Game) string {
	sc := m.engine.Scenario()
	var b strings.Builder

	b.WriteString(titleStyle.Render(strings.ToUpper(sc.Title)) + "\n")
	subtitle := []string{sc.Pathogen.Name}
	if sc.Pathogen.TransmissionRoute != "" {
		subtitle = append(subtitle, title(sc.Pathogen.TransmissionRoute))
	}
	subtitle = append(subtitle, title(string(sc.Difficulty))+" difficulty")
	b.WriteString(dimStyle.Render(strings.Join(subtitle, " · ")) + "\n\n")

	stat := func(label, value string) string {
		return labelStyle.Render(label+" ") + valueStyle.Render(value)
	}
	b.WriteString(stat("Day", fmt.Sprintf("%d", g.State.Day)) + "   " +
		stat("Status", title(string(g.Status))) + "   " +
		stat("Speed", title(string(m.speed))) + "\n")
	b.WriteString(stat("Cases", formatCount(g.State.Cases)) + "   " +
		stat("Deaths", formatCount(g.State.Deaths)) + "   " +
		stat("R0", fmt.Sprintf("%.2f", g.State.R0)) + "\n")
	b.WriteString(stat("Budget", formatMoney(g.State.Budget)) + "   " +
		stat("Personnel", fmt.Sprintf("%d", g.State.Personnel)) + "   " +
		stat("Source", yesNo(g.State.SourceIdentified)) + "\n\n")

	b.WriteString(titleStyle.Render("AFFECTED REGIONS") + "\n")
	if len(g.State.OutbreakLocations) == 0 {
		b.WriteString(dimStyle.Render("  none reported") + "\n")
	} else {
		b.WriteString(regionTable(g.State.OutbreakLocations) + "\n")
	}

	b.WriteString("\n" + titleStyle.Render("ACTIONS") + "\n")
	taken := make(map[string]bool, len(g.State.ActionsTaken))
	for _, id := range g.State.ActionsTaken {
		taken[id] = true
	}
	for i, a := range m.engine.Actions() {
		line := fmt.Sprintf("%s  %s · %dd", a.Name, formatMoney(a.Cost), a.DurationDays)
		switch {
		case i == m.selectedAction && !g.EventPending():
			line = selectedStyle.Render("▶ " + line)
		case activationBlocker(g, a) != "":
			line = dimStyle.Render("  " + line)
		default:
			line = "  " + line
		}
		b.WriteString(line + "\n")

		rt, _ := g.Action(a.ID)
		switch {
		case rt.Active:
			pct := float64(rt.Progress) / float64(max(1, a.DurationDays))
			b.WriteString("    " + m.progress.ViewAs(pct) + "\n")
		case taken[a.ID]:
			b.WriteString(dimStyle.Render("    ✓ complete") + "\n")
		case a.EffectSpec != "":
			b.WriteString(dimStyle.Render("    "+a.EffectSpec) + "\n")
		}
	}
	return b.String()
}

func (m ConsoleUI) renderEvent(ev scenario.Event, width int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(ev.Title) + "\n")
	b.WriteString(wordwrap.String(ev.Description, max(10, width-2)) + "\n\n")
	if len(ev.Choices) == 0 {
		b.WriteString(dimStyle.Render("Press Enter to acknowledge"))
	}
	for i, c := range ev.Choices {
		if i == m.selectedChoice {
			b.WriteString(selectedStyle.Render("▶ "+c.Label) + "\n")
		} else {
			b.WriteString("  " + c.Label + "\n")
		}
	}
	return eventStyle.Width(width).Render(strings.TrimRight(b.String(), "\n"))
}

func (m ConsoleUI) renderBriefing() string {
	sc := m.engine.Scenario()
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("BRIEFING: " + strings.ToUpper(sc.Title)))
	content.WriteString("\n\n")
	content.WriteString(wordwrap.String(sc.BriefingText, 60))
	content.WriteString("\n\n")
	content.WriteString(labelStyle.Render(fmt.Sprintf("Pathogen: %s (R0 %.1f, fatality %.1f%%)",
		sc.Pathogen.Name, sc.Pathogen.R0, sc.Pathogen.FatalityRate*100)))
	content.WriteString("\n")
	content.WriteString(labelStyle.Render(fmt.Sprintf("Budget: %s  Personnel: %d",
		formatMoney(sc.InitialState.Budget), sc.InitialState.Personnel)))
	content.WriteString("\n\n")
	content.WriteString(m.help.View(bindings{keys.Select, keys.Back, keys.Quit}))

	modal := modalStyle.Width(66).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderDebrief(g engine.Game) string {
	heading := "OUTBREAK CONTAINED"
	if !g.Won() {
		heading = "RESPONSE FAILED"
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render(heading))
	content.WriteString("\n\n")
	content.WriteString(debriefText(m.engine.Scenario(), g))
	content.WriteString("\n")
	if m.flash != "" {
		content.WriteString(dimStyle.Render(m.flash) + "\n\n")
	}
	content.WriteString(m.help.View(bindings{keys.Copy, keys.Restart, keys.Back, keys.Quit}))

	modal := modalStyle.Width(66).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to abandon the response?")
	content.WriteString("\n\n")
	content.WriteString(dimStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderScenarioModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Select a Scenario"))
	content.WriteString("\n\n")

	for i, s := range m.scenarios {
		line := fmt.Sprintf("%s (%s, %s)", s.Title, s.Pathogen, title(string(s.Difficulty)))
		if i == m.selectedScenario {
			content.WriteString(selectedStyle.Render("▶ " + line))
		} else {
			content.WriteString("  " + line)
		}
		content.WriteString("\n")
	}

	if m.err != nil {
		content.WriteString("\n" + errorStyle.Render(fmt.Sprintf("Failed to load scenario: %v", m.err)) + "\n")
	}
	content.WriteString("\n")
	content.WriteString(m.help.View(bindings{keys.Up, keys.Down, keys.Select, keys.Quit}))

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func regionTable(locs []scenario.Location) string {
	rows := make([][]string, 0, len(locs))
	for _, loc := range locs {
		rows = append(rows, []string{
			loc.Region,
			formatCount(loc.Cases),
			fmt.Sprintf("%.2f, %.2f", loc.Coordinates.Lat, loc.Coordinates.Lng),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		BorderHeader(true).
		BorderRow(false).
		Headers("Region", "Cases", "Location").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return labelStyle.Bold(true).Padding(0, 1)
			}
			if col == 1 {
				return valueStyle.Padding(0, 1).Align(lipgloss.Right)
			}
			return valueStyle.Padding(0, 1)
		})
	return t.Render()
}
