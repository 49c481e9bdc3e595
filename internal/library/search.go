package library

import (
	"sort"
	"strings"

	rankfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sahilm/fuzzy"

	"github.com/mmcdole/libria/internal/domain"
)

// titleIndex implements sahilm/fuzzy.Source over titles and original names.
type titleIndex struct {
	releases []domain.Release
	names    []string // display names, two per release
	lower    []string // pre-computed lowercase names
}

func newTitleIndex(releases []domain.Release) *titleIndex {
	idx := &titleIndex{
		releases: releases,
		names:    make([]string, 0, len(releases)*2),
		lower:    make([]string, 0, len(releases)*2),
	}
	for _, r := range releases {
		for _, name := range []string{r.Title, r.OriginalName} {
			idx.names = append(idx.names, name)
			idx.lower = append(idx.lower, strings.ToLower(name))
		}
	}
	return idx
}

// String returns the lowercase name at index i (implements fuzzy.Source)
func (idx *titleIndex) String(i int) string { return idx.lower[i] }

// Len returns the number of names (implements fuzzy.Source)
func (idx *titleIndex) Len() int { return len(idx.lower) }

// Search provides fuzzy lookups over the cached catalog.
type Search struct {
	store domain.Store
}

func NewSearch(store domain.Store) *Search {
	return &Search{store: store}
}

// Titles fuzzy-matches query against titles and original names, best
// first. Each release appears at most once. limit <= 0 means no limit.
func (s *Search) Titles(query string, limit int) []domain.TitleMatch {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	idx := newTitleIndex(s.store.Snapshot())
	matches := fuzzy.FindFrom(strings.ToLower(query), idx)

	seen := make(map[int]bool)
	var results []domain.TitleMatch
	for _, m := range matches {
		r := idx.releases[m.Index/2]
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		results = append(results, domain.TitleMatch{
			Release:        r,
			Matched:        idx.names[m.Index],
			MatchedIndexes: m.MatchedIndexes,
			Score:          m.Score,
		})
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results
}

// Genres returns every distinct genre in the cache, sorted.
func (s *Search) Genres() []string {
	return s.facet(domain.Release.GenreList)
}

// Voices returns every distinct voice actor in the cache, sorted.
func (s *Search) Voices() []string {
	return s.facet(domain.Release.VoiceList)
}

// SuggestGenres ranks known genres against term (closest first).
func (s *Search) SuggestGenres(term string) []string {
	return suggest(term, s.Genres())
}

// SuggestVoices ranks known voice actors against term (closest first).
func (s *Search) SuggestVoices(term string) []string {
	return suggest(term, s.Voices())
}

func (s *Search) facet(values func(domain.Release) []string) []string {
	seen := make(map[string]struct{})
	for _, r := range s.store.Snapshot() {
		for _, v := range values(r) {
			if v == domain.UnspecifiedList {
				continue
			}
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func suggest(term string, values []string) []string {
	term = strings.TrimSpace(term)
	if term == "" {
		return values
	}
	ranks := rankfuzzy.RankFindNormalizedFold(term, values)
	sort.Stable(ranks)

	out := make([]string, len(ranks))
	for i, r := range ranks {
		out[i] = r.Target
	}
	return out
}
