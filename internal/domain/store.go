package domain

// Store is the local release cache.
// The TUI and CLI read through Queries; only Commands call Merge.
type Store interface {
	// === Releases ===
	Load()
	Merge(payload string) (MergeResult, error)
	Persist() error
	Snapshot() []Release
	Release(id int) (Release, bool)
	RandomRelease() (Release, bool)

	// SortInPlace reorders the cached collection (legacy ambient ordering).
	SortInPlace(less func(a, b *Release) bool)

	// === Favorites ===
	Favorites() []int
	SetFavorites(ids []int) error
	ClearFavorites() error

	// === Schedule ===
	Schedule() Schedule
	SetSchedule(raw string) error

	// === Changes ===
	Changes() Changes
	ChangesCounts() []int // new releases, new online series, new torrents
	HasChanges() bool
	ResetChanges() error

	Close() error
}

// DocumentStorage persists named JSON documents (file, bbolt or memory).
type DocumentStorage interface {
	// Read returns the document bytes; ok is false when it does not exist.
	Read(name string) (data []byte, ok bool, err error)
	Write(name string, data []byte) error
	Close() error
}
