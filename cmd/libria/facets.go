package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newGenresCmd() *cobra.Command {
	return newFacetCmd("genres", "genre", func(a *app, term string) []string {
		return a.search.SuggestGenres(term)
	})
}

func newVoicesCmd() *cobra.Command {
	return newFacetCmd("voices", "voice actor", func(a *app, term string) []string {
		return a.search.SuggestVoices(term)
	})
}

// newFacetCmd lists the known values of one facet, ranked against an
// optional term. The output feeds --genres and --voices of query.
func newFacetCmd(use, noun string, suggest func(a *app, term string) []string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [term]",
		Short: fmt.Sprintf("List every cached %s, closest to term first", noun),
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.Join(args, " ")
			return withApp(func(a *app) error {
				for _, v := range suggest(a, term) {
					fmt.Fprintln(cmd.OutOrStdout(), v)
				}
				return nil
			})
		},
	}
}
