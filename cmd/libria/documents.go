package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmcdole/libria/internal/adapter"
)

func newFavoritesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Read or replace the favorite release ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(a *app) error {
				return writeJSON(cmd.OutOrStdout(), a.store.Favorites())
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <json-array|file|->",
		Short: "Replace the favorites with a JSON array of ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readDocumentArg(cmd, args[0])
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				return a.store.SetFavoritesJSON(raw)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every favorite",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(a *app) error {
				return a.store.ClearFavorites()
			})
		},
	})

	return cmd
}

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Read or replace the weekly release schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(a *app) error {
				return writeRaw(cmd.OutOrStdout(), a.store.ScheduleJSON())
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <json|file|->",
		Short: "Replace the schedule with a JSON object of id to weekday",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readDocumentArg(cmd, args[0])
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				return a.store.SetSchedule(raw)
			})
		},
	})

	return cmd
}

func newChangesCmd() *cobra.Command {
	var reset, summary bool

	cmd := &cobra.Command{
		Use:   "changes",
		Short: "Show what the last merges added",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(a *app) error {
				if reset {
					if err := a.store.ResetChanges(); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), "Changes cleared.")
					return nil
				}
				if summary {
					return printChangesSummary(cmd, a)
				}
				return writeRaw(cmd.OutOrStdout(), a.store.ChangesJSON())
			})
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "Clear the change tracker")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print counts instead of the full document")
	return cmd
}

func printChangesSummary(cmd *cobra.Command, a *app) error {
	if !a.store.HasChanges() {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "No changes.")
		return err
	}
	c := a.store.ChangesCounts()
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "new releases: %d, new episodes: %d, new torrents: %d\n", c[0], c[1], c[2])
	return err
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cached document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := adapter.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := adapter.ClearCache(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", cfg.DataDir())
			return nil
		},
	})

	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialize the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := adapter.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), cfg)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := adapter.DefaultConfig()
			if configPath != "" {
				return adapter.SaveConfigAs(cfg, configPath)
			}
			return adapter.SaveConfig(cfg)
		},
	})

	return cmd
}

// readDocumentArg treats arg as inline JSON when it starts like JSON,
// as stdin for "-", and as a file path otherwise.
func readDocumentArg(cmd *cobra.Command, arg string) (string, error) {
	if len(arg) > 0 && (arg[0] == '[' || arg[0] == '{') {
		return arg, nil
	}
	return readInput(cmd, arg)
}
