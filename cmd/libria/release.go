package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mmcdole/libria/internal/adapter"
	"github.com/mmcdole/libria/internal/domain"
)

func newReleaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "release <id>",
		Short: "Print one cached release as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid release id %q", args[0])
			}
			return withApp(func(a *app) error {
				return writeRaw(cmd.OutOrStdout(), a.queries.ReleaseJSON(id))
			})
		},
	}
}

func newRandomCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "random",
		Short: "Print a random cached release as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(a *app) error {
				return writeRaw(cmd.OutOrStdout(), a.queries.RandomReleaseJSON())
			})
		},
	}
}

func newPlayCmd() *cobra.Command {
	var quality string

	cmd := &cobra.Command{
		Use:   "play <id> [episode]",
		Short: "Open an episode in the configured video player",
		Long:  "Open an episode in the configured video player. Without an episode number the latest one is played.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid release id %q", args[0])
			}
			episode := 0
			if len(args) == 2 {
				if episode, err = strconv.Atoi(args[1]); err != nil {
					return fmt.Errorf("invalid episode %q", args[1])
				}
			}

			return withApp(func(a *app) error {
				release, ok := a.queries.Release(id)
				if !ok {
					return fmt.Errorf("%w: %d", domain.ErrReleaseNotFound, id)
				}

				var video domain.Video
				if episode > 0 {
					if video, ok = release.Episode(episode); !ok {
						return fmt.Errorf("%s has no online episode %d", release.Title, episode)
					}
				} else if video, ok = release.LatestEpisode(); !ok {
					return fmt.Errorf("%s has no online episodes", release.Title)
				}

				if quality == "" {
					quality = a.cfg.Player.Quality
				}
				url := video.Stream(quality)

				launcher := adapter.NewLauncher(a.cfg.Player.Command, a.cfg.Player.Args, a.logger)
				if err := launcher.Launch(url); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Playing %s, episode %d\n", release.Title, video.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&quality, "quality", "q", "", "Stream quality: fullhd, hd or sd")
	return cmd
}
