package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mmcdole/libria/internal/domain"
)

var sortNames = map[string]domain.SortField{
	"updated":       domain.SortTimestamp,
	"timestamp":     domain.SortTimestamp,
	"schedule":      domain.SortSchedule,
	"title":         domain.SortTitle,
	"year":          domain.SortYear,
	"rating":        domain.SortRating,
	"status":        domain.SortStatus,
	"original":      domain.SortOriginalName,
	"history":       domain.SortHistory,
	"watch-history": domain.SortWatchHistory,
	"season":        domain.SortSeason,
}

// parseSortField accepts a field name or its numeric code.
func parseSortField(s string) (domain.SortField, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if field, ok := sortNames[s]; ok {
		return field, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return domain.SortField(n), nil
	}
	return 0, fmt.Errorf("unknown sort field %q", s)
}

func parseSection(s string) (domain.Section, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return domain.SectionNone, nil
	case "favorites":
		return domain.SectionFavorites, nil
	case "scheduled", "schedule":
		return domain.SectionScheduled, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return domain.Section(n), nil
	}
	return 0, fmt.Errorf("unknown section %q", s)
}

func newQueryCmd() *cobra.Command {
	var (
		q       domain.Query
		sortBy  string
		section string
		format  string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Filter, sort and page the cached catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			field, err := parseSortField(sortBy)
			if err != nil {
				return err
			}
			sec, err := parseSection(section)
			if err != nil {
				return err
			}
			q.SortField = field
			q.Section = sec

			return withApp(func(a *app) error {
				switch format {
				case "json":
					return writeRaw(cmd.OutOrStdout(), a.queries.PageJSON(q))
				case "table":
					return outputReleaseTable(cmd.OutOrStdout(), a.queries.Page(q))
				default:
					return fmt.Errorf("unknown format %q (use table or json)", format)
				}
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&q.Page, "page", "p", 1, "Page number (12 releases per page)")
	flags.StringVar(&q.Title, "title", "", "Substring of the title")
	flags.StringVar(&q.Description, "description", "", "Substring of the description")
	flags.StringVar(&q.Type, "type", "", "Substring of the type")
	flags.StringVar(&q.Years, "years", "", "Comma-separated years")
	flags.StringVar(&q.Statuses, "statuses", "", "Comma-separated statuses")
	flags.StringVar(&q.Seasons, "seasons", "", "Comma-separated seasons")
	flags.StringVar(&q.Genres, "genres", "", "Comma-separated genres")
	flags.BoolVar(&q.GenresMatchAll, "genres-all", false, "Require every genre")
	flags.StringVar(&q.Voices, "voices", "", "Comma-separated voice actors")
	flags.BoolVar(&q.VoicesMatchAll, "voices-all", false, "Require every voice actor")
	flags.StringVar(&section, "section", "all", "Section: all, favorites or scheduled")
	flags.StringVarP(&sortBy, "sort", "s", "updated", "Sort field: updated, schedule, title, year, rating, status, original, season")
	flags.BoolVarP(&q.SortDescending, "desc", "d", false, "Sort descending")
	flags.StringVarP(&format, "format", "f", "table", "Output format: table or json")

	return cmd
}

func newSearchCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Fuzzy search release titles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			return withApp(func(a *app) error {
				matches := a.search.Titles(text, limit)
				if len(matches) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No releases found.")
					return nil
				}
				releases := make([]domain.Release, len(matches))
				for i, m := range matches {
					releases[i] = m.Release
				}
				return outputReleaseTable(cmd.OutOrStdout(), releases)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	return cmd
}

func outputReleaseTable(w io.Writer, releases []domain.Release) error {
	if len(releases) == 0 {
		fmt.Fprintln(w, "No releases found.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "TITLE", "YEAR", "SEASON", "STATUS", "SERIES", "RATING"})

	titleWidth := max(getTerminalWidth()-60, 20)

	for _, r := range releases {
		t.AppendRow(table.Row{
			r.ID,
			runewidth.Truncate(r.Title, titleWidth, "..."),
			r.Year,
			r.Season,
			r.Status,
			r.Series,
			r.Rating,
		})
	}

	t.Render()
	return nil
}

func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
