package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	toggle  key.Binding
	delete  key.Binding
	yes     key.Binding
	no      key.Binding
	refresh key.Binding
	back    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete selected")),
		yes:     key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
		no:      key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		back:    key.NewBinding(key.WithKeys("esc", "enter"), key.WithHelp("esc", "back")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.toggle},
		{k.delete, k.yes, k.no},
		{k.refresh, k.quit},
	}
}
