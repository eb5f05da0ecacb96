package main

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Pause   key.Binding
	Speed   key.Binding
	Restart key.Binding
	Copy    key.Binding
	Back    key.Binding
	Quit    key.Binding
	Yes     key.Binding
	No      key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Pause: key.NewBinding(
		key.WithKeys(" ", "p"),
		key.WithHelp("space", "pause/resume"),
	),
	Speed: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "fast/nominal"),
	),
	Restart: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "restart"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy debrief"),
	),
	Back: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "scenarios"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "esc", "q"),
		key.WithHelp("q", "quit"),
	),
	Yes: key.NewBinding(key.WithKeys("y", "Y", "enter")),
	No:  key.NewBinding(key.WithKeys("n", "N")),
}

// bindings is the help shown for the current screen.
type bindings []key.Binding

func (b bindings) ShortHelp() []key.Binding  { return b }
func (b bindings) FullHelp() [][]key.Binding { return [][]key.Binding{b} }
