package domain

import "math"

// PageSize is the fixed number of releases per query page.
const PageSize = 12

// UnscheduledWeekday is the weekday index used when sorting releases
// that are missing from the schedule, so they sort last.
const UnscheduledWeekday = 9

// Section is a coarse pre-filter applied before the fine-grained predicates.
type Section int

const (
	SectionNone      Section = 0
	SectionFavorites Section = 1
	SectionScheduled Section = 5
)

// String returns the display name for the section
func (s Section) String() string {
	switch s {
	case SectionFavorites:
		return "Favorites"
	case SectionScheduled:
		return "Scheduled"
	default:
		return "All"
	}
}

// SortField selects the ordering of a query. Values match the ones the
// UI has always sent.
type SortField int

const (
	SortTimestamp    SortField = 0
	SortSchedule     SortField = 1
	SortTitle        SortField = 2
	SortYear         SortField = 3
	SortRating       SortField = 4
	SortStatus       SortField = 5
	SortOriginalName SortField = 6
	SortHistory      SortField = 7 // reserved, no reordering
	SortWatchHistory SortField = 8 // reserved, no reordering
	SortSeason       SortField = 9
)

// String returns the display name for the sort field
func (f SortField) String() string {
	switch f {
	case SortTimestamp:
		return "Updated"
	case SortSchedule:
		return "Schedule"
	case SortTitle:
		return "Title"
	case SortYear:
		return "Year"
	case SortRating:
		return "Rating"
	case SortStatus:
		return "Status"
	case SortOriginalName:
		return "Original Name"
	case SortHistory:
		return "History"
	case SortWatchHistory:
		return "Watch History"
	case SortSeason:
		return "Season"
	default:
		return "Unknown"
	}
}

// Reserved reports whether the field is a placeholder that never reorders.
func (f SortField) Reserved() bool {
	return f == SortHistory || f == SortWatchHistory
}

// SortFields returns the sort fields that actually reorder, in UI order.
func SortFields() []SortField {
	return []SortField{
		SortTimestamp, SortSchedule, SortTitle, SortYear, SortRating,
		SortStatus, SortOriginalName, SortSeason,
	}
}

// Query describes one filtered, sorted page request.
// Empty string predicates are not applied.
type Query struct {
	Page int // 1-indexed

	Title       string
	Description string
	Type        string

	Years    string // comma-separated, any candidate matches
	Statuses string // comma-separated, any candidate matches
	Seasons  string // comma-separated, any candidate matches

	Genres         string // comma-separated
	GenresMatchAll bool   // every candidate must appear (otherwise any)
	Voices         string // comma-separated
	VoicesMatchAll bool

	Section Section

	SortField      SortField
	SortDescending bool
}

// Offset returns the number of matches skipped before the page starts.
// Pages too large to address saturate at math.MaxInt.
func (q Query) Offset() int {
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page-1 > math.MaxInt/PageSize {
		return math.MaxInt
	}
	return (page - 1) * PageSize
}

// Schedule maps a release id to its weekday index.
type Schedule map[int]int

// Weekday returns the scheduled weekday for id, or UnscheduledWeekday.
func (s Schedule) Weekday(id int) int {
	if day, ok := s[id]; ok {
		return day
	}
	return UnscheduledWeekday
}
