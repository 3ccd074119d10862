package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines key bindings used across the review console.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Confirm key.Binding
	Discard key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

// DefaultKeyMap provides the default key bindings.
var DefaultKeyMap = KeyMap{
	Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
	Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
	Confirm: key.NewBinding(key.WithKeys("c", "enter"), key.WithHelp("c", "confirm")),
	Discard: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "discard")),
	Refresh: key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}
