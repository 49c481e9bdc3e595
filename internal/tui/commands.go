package tui

import (
	"context"
	"fmt"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/libria/internal/domain"
)

// Player launches stream URLs
type Player interface {
	Launch(url string) error
}

// FavoritesStore reads and replaces the favorite ids
type FavoritesStore interface {
	Favorites() []int
	SetFavorites(ids []int) error
}

// StartSyncCmd asks the orchestrator for a background sync. The result
// arrives later through the observer channel.
func StartSyncCmd(cmds domain.CatalogCommands) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		if err := cmds.SyncAsync(ctx); err != nil {
			cancel()
			return ErrMsg{Err: err, Context: "sync"}
		}
		// The orchestrator owns ctx from here; release it once the run ends.
		go func() {
			cmds.Wait()
			cancel()
		}()
		return SyncStartedMsg{}
	}
}

// ListenSyncCmd waits for the next sync result on ch
func ListenSyncCmd(ch <-chan domain.SyncResult) tea.Cmd {
	return func() tea.Msg {
		result, ok := <-ch
		if !ok {
			return nil
		}
		return SyncDoneMsg{Result: result}
	}
}

// PlayLatestCmd launches the newest online episode of r
func PlayLatestCmd(player Player, r domain.Release, quality string) tea.Cmd {
	return func() tea.Msg {
		video, ok := r.LatestEpisode()
		if !ok {
			return ErrMsg{Err: fmt.Errorf("no online episodes"), Context: r.Title}
		}
		if err := player.Launch(video.Stream(quality)); err != nil {
			return ErrMsg{Err: err, Context: "play"}
		}
		return PlaybackStartedMsg{Release: r, Episode: video.ID}
	}
}

// ToggleFavoriteCmd adds or removes id from the favorites
func ToggleFavoriteCmd(favs FavoritesStore, id int) tea.Cmd {
	return func() tea.Msg {
		ids := favs.Favorites()
		added := true
		if i := slices.Index(ids, id); i >= 0 {
			ids = slices.Delete(ids, i, i+1)
			added = false
		} else {
			ids = append(ids, id)
		}
		if err := favs.SetFavorites(ids); err != nil {
			return ErrMsg{Err: err, Context: "favorites"}
		}
		return FavoritesChangedMsg{ReleaseID: id, Added: added}
	}
}

// TickCmd schedules the next spinner frame
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd clears the status line after delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
