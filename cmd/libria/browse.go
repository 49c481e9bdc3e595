package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmcdole/libria/internal/adapter"
	"github.com/mmcdole/libria/internal/domain"
	"github.com/mmcdole/libria/internal/library"
	"github.com/mmcdole/libria/internal/tui"
)

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the catalog interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("browse needs an interactive terminal")
			}
			return withApp(runBrowse)
		},
	}
}

func runBrowse(a *app) error {
	syncCh := make(chan domain.SyncResult, 1)
	a.commands.AddObserver(library.NewChannelObserver(syncCh))

	launcher := adapter.NewLauncher(a.cfg.Player.Command, a.cfg.Player.Args, a.logger)
	model := tui.NewModel(a.queries, a.commands, a.store, launcher, a.cfg.Player.Quality, syncCh)

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	a.logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		a.logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	a.logger.Info("shutting down")
	return nil
}
