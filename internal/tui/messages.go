package tui

import "github.com/mmcdole/libria/internal/domain"

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// SyncStartedMsg signals that a background sync was accepted
type SyncStartedMsg struct{}

// SyncDoneMsg carries the result delivered by the sync observer
type SyncDoneMsg struct {
	Result domain.SyncResult
}

// PlaybackStartedMsg signals that the player was launched
type PlaybackStartedMsg struct {
	Release domain.Release
	Episode int
}

// FavoritesChangedMsg signals that the favorites document was rewritten
type FavoritesChangedMsg struct {
	ReleaseID int
	Added     bool
}

// ClearStatusMsg clears the status line
type ClearStatusMsg struct{}

// TickMsg drives the sync spinner
type TickMsg struct{}
