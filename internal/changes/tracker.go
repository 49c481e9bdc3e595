// Package changes tracks catalog deltas since the user last acknowledged them.
package changes

import (
	"encoding/json"
	"sync"

	"github.com/mmcdole/libria/internal/domain"
)

// Tracker accumulates new releases, new online episodes and new torrents.
// The gain maps keep the first baseline recorded since the last reset, so
// the UI can show everything that arrived while the user was away.
type Tracker struct {
	mu               sync.Mutex
	newReleases      []int
	seenNew          map[int]struct{}
	newOnlineSeries  map[int]int
	newTorrents      map[int]int
	newTorrentSeries map[int]map[int]string
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	t := &Tracker{}
	t.clear()
	return t
}

func (t *Tracker) clear() {
	t.newReleases = []int{}
	t.seenNew = make(map[int]struct{})
	t.newOnlineSeries = make(map[int]int)
	t.newTorrents = make(map[int]int)
	t.newTorrentSeries = make(map[int]map[int]string)
}

// RecordNewRelease adds id to the new-releases set.
func (t *Tracker) RecordNewRelease(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.seenNew[id]; ok {
		return
	}
	t.seenNew[id] = struct{}{}
	t.newReleases = append(t.newReleases, id)
}

// RecordOnlineEpisodeGain stores the episode count id had before it gained episodes.
func (t *Tracker) RecordOnlineEpisodeGain(id, previousCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.newOnlineSeries[id]; !ok {
		t.newOnlineSeries[id] = previousCount
	}
}

// RecordTorrentGain stores the torrent count id had before it gained torrents.
func (t *Tracker) RecordTorrentGain(id, previousCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.newTorrents[id]; !ok {
		t.newTorrents[id] = previousCount
	}
}

// RecordTorrentSeriesChange stores the series label a torrent carried before it was replaced.
func (t *Tracker) RecordTorrentSeriesChange(id, torrentID int, previousSeries string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	series, ok := t.newTorrentSeries[id]
	if !ok {
		series = make(map[int]string)
		t.newTorrentSeries[id] = series
	}
	if _, ok := series[torrentID]; !ok {
		series[torrentID] = previousSeries
	}
}

// Snapshot returns a deep copy in persistable form.
func (t *Tracker) Snapshot() domain.Changes {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := domain.Changes{
		NewReleases:      append([]int{}, t.newReleases...),
		NewOnlineSeries:  make(map[int]int, len(t.newOnlineSeries)),
		NewTorrents:      make(map[int]int, len(t.newTorrents)),
		NewTorrentSeries: make(map[int]map[int]string, len(t.newTorrentSeries)),
	}
	for k, v := range t.newOnlineSeries {
		out.NewOnlineSeries[k] = v
	}
	for k, v := range t.newTorrents {
		out.NewTorrents[k] = v
	}
	for k, v := range t.newTorrentSeries {
		inner := make(map[int]string, len(v))
		for tk, tv := range v {
			inner[tk] = tv
		}
		out.NewTorrentSeries[k] = inner
	}
	return out
}

// Restore replaces the tracker state with a persisted snapshot.
func (t *Tracker) Restore(c domain.Changes) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clear()
	for _, id := range c.NewReleases {
		if _, ok := t.seenNew[id]; !ok {
			t.seenNew[id] = struct{}{}
			t.newReleases = append(t.newReleases, id)
		}
	}
	for k, v := range c.NewOnlineSeries {
		t.newOnlineSeries[k] = v
	}
	for k, v := range c.NewTorrents {
		t.newTorrents[k] = v
	}
	for k, v := range c.NewTorrentSeries {
		inner := make(map[int]string, len(v))
		for tk, tv := range v {
			inner[tk] = tv
		}
		t.newTorrentSeries[k] = inner
	}
}

// MarshalJSON encodes the persisted form.
func (t *Tracker) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Snapshot())
}

// UnmarshalJSON restores from the persisted form.
func (t *Tracker) UnmarshalJSON(data []byte) error {
	var c domain.Changes
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	t.Restore(c)
	return nil
}

// Counts returns the badge counts: new releases, releases with new
// episodes, releases with new torrents.
func (t *Tracker) Counts() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return []int{len(t.newReleases), len(t.newOnlineSeries), len(t.newTorrents)}
}

// Empty reports whether nothing changed since the last reset.
func (t *Tracker) Empty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.newReleases) == 0 && len(t.newOnlineSeries) == 0 &&
		len(t.newTorrents) == 0 && len(t.newTorrentSeries) == 0
}

// Reset clears all collections.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clear()
}
