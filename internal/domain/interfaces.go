package domain

import "context"

// Fetch query names understood by ReleaseSource.
const (
	QueryList     = "list"
	QuerySchedule = "schedule"
)

// ReleaseSource fetches raw response text for a named API query.
// Implemented by the anilibria HTTP client.
type ReleaseSource interface {
	Fetch(ctx context.Context, query string) (string, error)
}
