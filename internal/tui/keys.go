package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	NextPage key.Binding
	PrevPage key.Binding

	// Query
	Sort      key.Binding
	Direction key.Binding
	Favorites key.Binding
	Scheduled key.Binding
	Filter    key.Binding
	Escape    key.Binding

	// Actions
	Play           key.Binding
	ToggleFavorite key.Binding
	Sync           key.Binding
	Quit           key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		// Navigation
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("n", "pgdown", "right"),
			key.WithHelp("n", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("p", "pgup", "left"),
			key.WithHelp("p", "prev page"),
		),

		// Query
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		Direction: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "direction"),
		),
		Favorites: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "favorites"),
		),
		Scheduled: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "schedule"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel/clear"),
		),

		// Actions
		Play: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "play"),
		),
		ToggleFavorite: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "favorite"),
		),
		Sync: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "sync"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Keys is the global key bindings instance
var Keys = DefaultKeyMap()

// helpBindings lists the bindings shown in the footer
func helpBindings() []key.Binding {
	k := Keys
	return []key.Binding{
		k.NextPage, k.PrevPage, k.Sort, k.Direction, k.Favorites,
		k.Scheduled, k.Filter, k.Play, k.ToggleFavorite, k.Sync, k.Quit,
	}
}
