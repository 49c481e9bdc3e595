package domain

import "time"

// Document names understood by DocumentStorage.
const (
	DocReleases     = "releases"
	DocSchedule     = "schedule"
	DocFavorites    = "favorites"
	DocNotification = "notification"
)

// DefaultDocuments lists every document with the contents it starts with.
var DefaultDocuments = map[string]string{
	DocReleases:     `[]`,
	DocSchedule:     `{}`,
	DocFavorites:    `[]`,
	DocNotification: `{"newReleases":[],"newOnlineSeries":{},"newTorrents":{},"newTorrentSeries":{}}`,
}

// Changes is the persisted form of the change tracker.
type Changes struct {
	NewReleases      []int                  `json:"newReleases"`
	NewOnlineSeries  map[int]int            `json:"newOnlineSeries"`
	NewTorrents      map[int]int            `json:"newTorrents"`
	NewTorrentSeries map[int]map[int]string `json:"newTorrentSeries"`
}

// MergeResult summarizes one merge of an API payload into the cache.
type MergeResult struct {
	Total        int // records in the collection afterwards
	Received     int // releases in the payload
	Added        int
	Updated      int
	EpisodeGains int
	TorrentGains int
}

// SyncResult is delivered to observers when a background sync finishes.
type SyncResult struct {
	RunID    string
	Merge    MergeResult
	Err      error
	Duration time.Duration
}

// SyncObserver receives completion notices for background syncs.
type SyncObserver interface {
	OnSyncDone(result SyncResult)
}

// NoOpObserver discards notices (for testing/batch operations).
type NoOpObserver struct{}

func (NoOpObserver) OnSyncDone(SyncResult) {}
