package library

import (
	"cmp"
	"encoding/json"
	"sort"
	"strings"

	"github.com/mmcdole/libria/internal/domain"
)

// Queries provides synchronous, cache-only reads.
// Implements domain.CatalogQueries.
type Queries struct {
	store domain.Store

	// legacyOrder sorts the store's collection in place, so the requested
	// order becomes the ambient order for later reads.
	legacyOrder bool
}

// NewQueries creates a new Queries instance.
func NewQueries(store domain.Store) *Queries {
	return &Queries{store: store}
}

// WithLegacyOrder toggles in-place sorting of the shared collection.
func (q *Queries) WithLegacyOrder(enabled bool) *Queries {
	q.legacyOrder = enabled
	return q
}

// Page returns up to domain.PageSize releases matching query, in the
// requested order, after skipping the matches of earlier pages.
func (q *Queries) Page(query domain.Query) []domain.Release {
	less := q.comparator(query)

	var releases []domain.Release
	if q.legacyOrder {
		if less != nil {
			q.store.SortInPlace(less)
		}
		releases = q.store.Snapshot()
	} else {
		releases = q.store.Snapshot()
		if less != nil {
			sort.SliceStable(releases, func(i, j int) bool {
				return less(&releases[i], &releases[j])
			})
		}
	}

	match := newMatcher(query, q.store)
	skip := query.Offset()
	page := make([]domain.Release, 0, domain.PageSize)

	for _, r := range releases {
		if !match(&r) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		page = append(page, r)
		if len(page) >= domain.PageSize {
			break
		}
	}
	return page
}

// PageJSON is Page serialized as a JSON array.
func (q *Queries) PageJSON(query domain.Query) string {
	return toJSON(q.Page(query), "[]")
}

func (q *Queries) Release(id int) (domain.Release, bool) {
	return q.store.Release(id)
}

// ReleaseJSON returns the cached release as a JSON object, or "{}" when absent.
func (q *Queries) ReleaseJSON(id int) string {
	r, ok := q.store.Release(id)
	if !ok {
		return "{}"
	}
	return toJSON(r, "{}")
}

// RandomReleaseJSON returns a random cached release, or "{}" when the cache is empty.
func (q *Queries) RandomReleaseJSON() string {
	r, ok := q.store.RandomRelease()
	if !ok {
		return "{}"
	}
	return toJSON(r, "{}")
}

// comparator returns the ordering for query, or nil when the collection
// order should be kept.
func (q *Queries) comparator(query domain.Query) func(a, b *domain.Release) bool {
	var compare func(a, b *domain.Release) int

	switch query.SortField {
	case domain.SortTimestamp:
		compare = func(a, b *domain.Release) int { return cmp.Compare(a.Timestamp, b.Timestamp) }
	case domain.SortSchedule:
		schedule := q.store.Schedule()
		compare = func(a, b *domain.Release) int {
			return cmp.Compare(schedule.Weekday(a.ID), schedule.Weekday(b.ID))
		}
	case domain.SortTitle:
		compare = func(a, b *domain.Release) int { return strings.Compare(a.Title, b.Title) }
	case domain.SortYear:
		compare = func(a, b *domain.Release) int { return cmp.Compare(a.Year, b.Year) }
	case domain.SortRating:
		compare = func(a, b *domain.Release) int { return cmp.Compare(a.Rating, b.Rating) }
	case domain.SortStatus:
		compare = func(a, b *domain.Release) int { return strings.Compare(a.Status, b.Status) }
	case domain.SortOriginalName:
		compare = func(a, b *domain.Release) int { return strings.Compare(a.OriginalName, b.OriginalName) }
	case domain.SortSeason:
		compare = func(a, b *domain.Release) int { return strings.Compare(a.Season, b.Season) }
	default:
		// History fields and unknown values keep the current order.
		return nil
	}

	if query.SortDescending {
		return func(a, b *domain.Release) bool { return compare(a, b) > 0 }
	}
	return func(a, b *domain.Release) bool { return compare(a, b) < 0 }
}

// newMatcher builds the filter predicate for query. Favorites and schedule
// are read once per query.
func newMatcher(query domain.Query, store domain.Store) func(r *domain.Release) bool {
	title := strings.ToLower(query.Title)
	description := strings.ToLower(query.Description)
	typ := strings.ToLower(query.Type)

	years := domain.SplitList(query.Years)
	statuses := domain.SplitList(query.Statuses)
	seasons := domain.SplitList(query.Seasons)
	genres := domain.SplitList(query.Genres)
	voices := domain.SplitList(query.Voices)

	var favorites map[int]struct{}
	var schedule domain.Schedule
	switch query.Section {
	case domain.SectionFavorites:
		favorites = make(map[int]struct{})
		for _, id := range store.Favorites() {
			favorites[id] = struct{}{}
		}
	case domain.SectionScheduled:
		schedule = store.Schedule()
	}

	return func(r *domain.Release) bool {
		if title != "" && !containsFold(r.Title, title) {
			return false
		}
		if description != "" && !containsFold(r.Description, description) {
			return false
		}
		if typ != "" && !containsFold(r.Type, typ) {
			return false
		}

		if len(years) > 0 && !matchAny(years, []string{r.YearText()}) {
			return false
		}
		if len(statuses) > 0 && !matchAny(statuses, []string{r.Status}) {
			return false
		}
		if len(seasons) > 0 && !matchAny(seasons, []string{r.Season}) {
			return false
		}
		if len(genres) > 0 && !matchList(genres, r.GenreList(), query.GenresMatchAll) {
			return false
		}
		if len(voices) > 0 && !matchList(voices, r.VoiceList(), query.VoicesMatchAll) {
			return false
		}

		if favorites != nil {
			if _, ok := favorites[r.ID]; !ok {
				return false
			}
		}
		if schedule != nil {
			if _, ok := schedule[r.ID]; !ok {
				return false
			}
		}
		return true
	}
}

func matchList(candidates, values []string, all bool) bool {
	if all {
		return matchAll(candidates, values)
	}
	return matchAny(candidates, values)
}

// matchAny reports whether some candidate appears in values.
func matchAny(candidates, values []string) bool {
	for _, c := range candidates {
		if appears(c, values) {
			return true
		}
	}
	return false
}

// matchAll reports whether every candidate appears in values.
func matchAll(candidates, values []string) bool {
	for _, c := range candidates {
		if !appears(c, values) {
			return false
		}
	}
	return true
}

// appears reports whether candidate is a case-insensitive substring of any value.
func appears(candidate string, values []string) bool {
	needle := strings.ToLower(candidate)
	for _, v := range values {
		if containsFold(v, needle) {
			return true
		}
	}
	return false
}

// containsFold reports whether lowerNeedle occurs in s, ignoring case.
func containsFold(s, lowerNeedle string) bool {
	return strings.Contains(strings.ToLower(s), lowerNeedle)
}

func toJSON(v any, fallback string) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fallback
	}
	return string(data)
}
