package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mmcdole/libria/internal/domain"
	"github.com/mmcdole/libria/internal/library"
)

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Fetch the catalog and schedule and merge them into the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(a *app) error {
				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
				defer stop()

				result, err := a.commands.Sync(ctx)
				if err != nil {
					return err
				}
				printMerge(cmd.OutOrStdout(), result.Merge)
				fmt.Fprintf(cmd.OutOrStdout(), "took %s\n", result.Duration.Round(1e6))
				return nil
			})
		},
	}
}

func newMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <file|->",
		Short: "Merge a raw list payload from a file or stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			return withApp(func(a *app) error {
				var result domain.SyncResult
				a.commands.AddObserver(library.FuncObserver(func(r domain.SyncResult) {
					result = r
				}))

				if err := a.commands.MergeAllReleases(payload); err != nil {
					return err
				}
				a.commands.Wait()

				if result.Err != nil {
					return result.Err
				}
				printMerge(cmd.OutOrStdout(), result.Merge)
				return nil
			})
		},
	}
}

func readInput(cmd *cobra.Command, name string) (string, error) {
	var data []byte
	var err error
	if name == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read payload: %w", err)
	}
	return string(data), nil
}

func printMerge(w io.Writer, m domain.MergeResult) {
	fmt.Fprintf(w, "received %d, added %d, updated %d, total %d\n", m.Received, m.Added, m.Updated, m.Total)
	if m.EpisodeGains > 0 || m.TorrentGains > 0 {
		fmt.Fprintf(w, "new episodes in %d releases, new torrents in %d releases\n", m.EpisodeGains, m.TorrentGains)
	}
}
