package domain

import "context"

// CatalogQueries: Synchronous, cache-only reads.
// All methods return instantly. NEVER block on network.
type CatalogQueries interface {
	Page(q Query) []Release
	PageJSON(q Query) string
	Release(id int) (Release, bool)
	ReleaseJSON(id int) string
	RandomReleaseJSON() string
}

// CatalogCommands: Asynchronous operations that may hit network or disk.
// Must be called from tea.Cmd functions, never from View().
type CatalogCommands interface {
	// MergeAllReleases merges a raw payload in the background.
	MergeAllReleases(payload string) error

	// Sync fetches the catalog and schedule, then merges.
	Sync(ctx context.Context) (SyncResult, error)
	SyncAsync(ctx context.Context) error

	AddObserver(o SyncObserver)
	Wait()
}
