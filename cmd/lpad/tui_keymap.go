package main

import (
	"github.com/charmbracelet/bubbles/key"
)

// launchpadKeyMap defines the key bindings for the launcher TUI
type launchpadKeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Launch      key.Binding
	Filter      key.Binding
	Add         key.Binding
	Remove      key.Binding
	Edit        key.Binding
	Kill        key.Binding
	ClearOutput key.Binding
	ScrollUp    key.Binding
	ScrollDown  key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func (k launchpadKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Launch, k.Add, k.Remove, k.Edit, k.Filter, k.Kill, k.Help, k.Quit}
}

func (k launchpadKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{
			key.NewBinding(key.WithKeys(""), key.WithHelp("", "Navigation")),
			k.Up,
			k.Down,
			k.Filter,
			k.ScrollUp,
			k.ScrollDown,
		},
		{
			key.NewBinding(key.WithKeys(""), key.WithHelp("", "Applications")),
			k.Launch,
			k.Add,
			k.Remove,
			k.Edit,
		},
		{
			key.NewBinding(key.WithKeys(""), key.WithHelp("", "Output")),
			k.Kill,
			k.ClearOutput,
			k.Help,
			k.Quit,
		},
	}
}

var launchpadKeys = launchpadKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "move down"),
	),
	Launch: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "launch"),
	),
	Filter: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "filter"),
	),
	Add: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "add"),
	),
	Remove: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "remove"),
	),
	Edit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit path"),
	),
	Kill: key.NewBinding(
		key.WithKeys("K"),
		key.WithHelp("K", "kill running"),
	),
	ClearOutput: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "clear output"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("pgup"),
		key.WithHelp("pgup", "scroll output up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("pgdown"),
		key.WithHelp("pgdown", "scroll output down"),
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
