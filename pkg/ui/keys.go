package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	PrevYear  key.Binding
	NextYear  key.Binding
	CycleX    key.Binding
	CycleY    key.Binding
	CycleR    key.Binding
	CycleBar  key.Binding
	CycleLine key.Binding
	Focus     key.Binding
	Left      key.Binding
	Right     key.Binding
	Click     key.Binding
	Clear     key.Binding
	Search    key.Binding
	Export    key.Binding
	Copy      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// ShortHelp is the one-line help bar.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevYear, k.NextYear, k.Focus, k.Click, k.Search, k.Help, k.Quit}
}

// FullHelp groups every binding in columns.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevYear, k.NextYear, k.Focus, k.Left, k.Right},
		{k.CycleX, k.CycleY, k.CycleR, k.CycleBar, k.CycleLine},
		{k.Click, k.Clear, k.Search, k.Export, k.Copy},
		{k.Help, k.Quit},
	}
}

var keys = keyMap{
	PrevYear: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "prev year"),
	),
	NextYear: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "next year"),
	),
	CycleX: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "x metric"),
	),
	CycleY: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "y metric"),
	),
	CycleR: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "radius metric"),
	),
	CycleBar: key.NewBinding(
		key.WithKeys("b"),
		key.WithHelp("b", "bar metric"),
	),
	CycleLine: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "line metric"),
	),
	Focus: key.NewBinding(
		key.WithKeys("tab", "shift+tab"),
		key.WithHelp("tab", "focus"),
	),
	Left: key.NewBinding(
		key.WithKeys("left"),
		key.WithHelp("←", "prev mark"),
	),
	Right: key.NewBinding(
		key.WithKeys("right"),
		key.WithHelp("→", "next mark"),
	),
	Click: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter", "click"),
	),
	Clear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "clear highlight"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "find country"),
	),
	Export: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "export"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy series"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
