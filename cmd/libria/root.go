package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mmcdole/libria/internal/adapter"
	"github.com/mmcdole/libria/internal/anilibria"
	"github.com/mmcdole/libria/internal/library"
	"github.com/mmcdole/libria/internal/store"
)

var (
	configPath string
	ephemeral  bool
)

var rootCmd = &cobra.Command{
	Use:           "libria",
	Short:         "libria - offline anime catalog browser",
	Long:          "libria keeps a local copy of the AniLibria catalog and answers filtered, sorted queries from it.",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/libria/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep the cache in memory only")

	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newMergeCmd())
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newGenresCmd())
	rootCmd.AddCommand(newVoicesCmd())
	rootCmd.AddCommand(newReleaseCmd())
	rootCmd.AddCommand(newRandomCmd())
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newFavoritesCmd())
	rootCmd.AddCommand(newScheduleCmd())
	rootCmd.AddCommand(newChangesCmd())
	rootCmd.AddCommand(newCacheCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newBrowseCmd())
}

// app wires the services every command needs.
type app struct {
	cfg      *adapter.Config
	logger   *slog.Logger
	store    *store.CatalogStore
	queries  *library.Queries
	commands *library.Commands
	search   *library.Search
}

func openApp() (*app, error) {
	cfg, err := adapter.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)

	dir := cfg.DataDir()
	if ephemeral {
		dir = ""
	}
	storage, err := store.OpenStorage(cfg.Storage.Backend, dir, cfg.API.URL)
	if err != nil {
		return nil, err
	}

	st := store.NewCatalogStore(storage, logger)
	client := anilibria.NewClient(cfg.API.URL, cfg.API.PerPage, cfg.API.Timeout, logger)

	logger.Debug("opened cache", "backend", cfg.Storage.Backend, "dir", dir, "releases", st.Stats().Releases)

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		queries:  library.NewQueries(st).WithLegacyOrder(cfg.Query.LegacyAmbientOrder),
		commands: library.NewCommands(client, st, logger),
		search:   library.NewSearch(st),
	}, nil
}

func (a *app) Close() {
	a.commands.Wait()
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close store", "error", err)
	}
}

// withApp runs fn with an opened app and closes it afterwards.
func withApp(fn func(a *app) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeRaw prints an already serialized document followed by a newline.
func writeRaw(w io.Writer, s string) error {
	_, err := fmt.Fprintln(w, s)
	return err
}
