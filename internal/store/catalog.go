package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/mmcdole/libria/internal/anilibria"
	"github.com/mmcdole/libria/internal/changes"
	"github.com/mmcdole/libria/internal/domain"
)

// Stats holds diagnostic counters for fail-open paths.
type Stats struct {
	Releases        int
	LoadFailures    int64
	MergeFailures   int64
	StorageFailures int64
}

// CatalogStore implements domain.Store. It exclusively owns the in-memory
// release collection and the change tracker; every read returns a copy.
type CatalogStore struct {
	storage domain.DocumentStorage
	logger  *slog.Logger

	mu       sync.RWMutex // Protects releases and index
	releases []domain.Release
	index    map[int]int // release id -> position in releases

	tracker *changes.Tracker

	docMu     sync.RWMutex // Protects favorites and schedule
	favorites []int
	schedule  domain.Schedule

	loadFailures    atomic.Int64
	mergeFailures   atomic.Int64
	storageFailures atomic.Int64
}

// NewCatalogStore creates missing documents with their defaults and loads
// everything into memory.
func NewCatalogStore(storage domain.DocumentStorage, logger *slog.Logger) *CatalogStore {
	if logger == nil {
		logger = slog.Default()
	}
	s := &CatalogStore{
		storage: storage,
		logger:  logger,
		index:   make(map[int]int),
		tracker: changes.NewTracker(),
	}

	s.ensureDefaults()
	s.Load()
	s.loadFavorites()
	s.loadSchedule()
	s.loadChanges()

	return s
}

func (s *CatalogStore) Close() error {
	return s.storage.Close()
}

// === Releases ===

// Load replaces the collection with the contents of the releases document.
// A malformed document yields an empty collection; the cache is rebuilt by
// the next sync.
func (s *CatalogStore) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked()
}

func (s *CatalogStore) loadLocked() {
	data := s.readDocument(domain.DocReleases)

	var releases []domain.Release
	if err := json.Unmarshal(data, &releases); err != nil {
		s.loadFailures.Add(1)
		s.logger.Warn("releases cache is malformed, starting empty", "error", err)
		releases = nil
	}

	s.releases = make([]domain.Release, 0, len(releases))
	s.index = make(map[int]int, len(releases))
	for _, r := range releases {
		if r.IsNull() {
			continue
		}
		if _, dup := s.index[r.ID]; dup {
			s.logger.Warn("duplicate release in cache", "id", r.ID)
			continue
		}
		s.index[r.ID] = len(s.releases)
		s.releases = append(s.releases, r)
	}
	s.logger.Debug("loaded releases", "count", len(s.releases))
}

// Merge folds a raw "list" payload into the collection. Releases already
// cached are replaced (and moved after the untouched ones), unknown ones are
// added, and nothing is ever removed. On a parse failure nothing changes and
// a *domain.PayloadError is returned.
func (s *CatalogStore) Merge(payload string) (domain.MergeResult, error) {
	incoming, err := anilibria.DecodeReleases(payload)
	if err != nil {
		s.mergeFailures.Add(1)
		s.logger.Warn("merge aborted", "error", err)
		return domain.MergeResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result := domain.MergeResult{Received: len(incoming)}

	replaced := make(map[int]bool)
	fresh := make([]domain.Release, 0, len(incoming))
	freshPos := make(map[int]int, len(incoming))
	dropped := make(map[int]bool) // positions in fresh superseded by a later duplicate

	for _, item := range incoming {
		rec := anilibria.ToRelease(item)
		if rec.IsNull() {
			s.logger.Warn("skipping release with sentinel id")
			continue
		}

		if pos, dup := freshPos[rec.ID]; dup {
			dropped[pos] = true
		} else if pos, ok := s.index[rec.ID]; ok {
			s.recordGains(s.releases[pos], rec, &result)
			replaced[rec.ID] = true
			result.Updated++
		} else {
			s.tracker.RecordNewRelease(rec.ID)
			result.Added++
		}

		freshPos[rec.ID] = len(fresh)
		fresh = append(fresh, rec)
	}

	rebuilt := make([]domain.Release, 0, len(s.releases)+result.Added)
	for _, r := range s.releases {
		if !replaced[r.ID] {
			rebuilt = append(rebuilt, r)
		}
	}
	for i, r := range fresh {
		if !dropped[i] {
			rebuilt = append(rebuilt, r)
		}
	}
	s.setReleasesLocked(rebuilt)

	var persistErr error
	if err := s.persistLocked(); err != nil {
		persistErr = err
	} else {
		// Re-read what was written so memory matches the document exactly.
		s.loadLocked()
	}
	if err := s.saveChanges(); err != nil && persistErr == nil {
		persistErr = err
	}

	result.Total = len(s.releases)
	s.logger.Info("merged releases",
		"received", result.Received,
		"added", result.Added,
		"updated", result.Updated,
		"total", result.Total,
	)
	return result, persistErr
}

// recordGains compares a cached release with its replacement.
func (s *CatalogStore) recordGains(old, rec domain.Release, result *domain.MergeResult) {
	if rec.CountOnlineVideos > old.CountOnlineVideos {
		s.tracker.RecordOnlineEpisodeGain(rec.ID, old.CountOnlineVideos)
		result.EpisodeGains++
	}
	if rec.CountTorrents > old.CountTorrents {
		s.tracker.RecordTorrentGain(rec.ID, old.CountTorrents)
		result.TorrentGains++
	}

	oldTorrents := old.TorrentList()
	newTorrents := rec.TorrentList()
	for i, ot := range oldTorrents {
		if i >= len(newTorrents) {
			break
		}
		if ot.Size != newTorrents[i].Size {
			s.tracker.RecordTorrentSeriesChange(rec.ID, ot.ID, ot.Series)
		}
	}
}

func (s *CatalogStore) setReleasesLocked(releases []domain.Release) {
	s.releases = releases
	s.index = make(map[int]int, len(releases))
	for i, r := range releases {
		s.index[r.ID] = i
	}
}

// Persist overwrites the releases document with the collection in its current order.
func (s *CatalogStore) Persist() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persistLocked()
}

func (s *CatalogStore) persistLocked() error {
	releases := s.releases
	if releases == nil {
		releases = []domain.Release{}
	}
	data, err := json.Marshal(releases)
	if err != nil {
		return fmt.Errorf("failed to encode releases: %w", err)
	}
	return s.writeDocument(domain.DocReleases, data)
}

// Snapshot returns a copy of the collection in its current order.
func (s *CatalogStore) Snapshot() []domain.Release {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Release, len(s.releases))
	copy(out, s.releases)
	return out
}

// Release looks up a cached release. Absent ids return domain.NullRelease().
func (s *CatalogStore) Release(id int) (domain.Release, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if pos, ok := s.index[id]; ok {
		return s.releases[pos], true
	}
	return domain.NullRelease(), false
}

// RandomRelease picks a uniformly random cached release.
func (s *CatalogStore) RandomRelease() (domain.Release, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.releases) == 0 {
		return domain.NullRelease(), false
	}
	return s.releases[rand.IntN(len(s.releases))], true
}

// SortInPlace reorders the collection; the order sticks until the next
// SortInPlace or merge.
func (s *CatalogStore) SortInPlace(less func(a, b *domain.Release) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sort.SliceStable(s.releases, func(i, j int) bool {
		return less(&s.releases[i], &s.releases[j])
	})
	for i, r := range s.releases {
		s.index[r.ID] = i
	}
}

// Stats returns diagnostic counters.
func (s *CatalogStore) Stats() Stats {
	s.mu.RLock()
	n := len(s.releases)
	s.mu.RUnlock()
	return Stats{
		Releases:        n,
		LoadFailures:    s.loadFailures.Load(),
		MergeFailures:   s.mergeFailures.Load(),
		StorageFailures: s.storageFailures.Load(),
	}
}

// === Favorites ===

func (s *CatalogStore) loadFavorites() {
	data := s.readDocument(domain.DocFavorites)
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		s.loadFailures.Add(1)
		s.logger.Warn("favorites cache is malformed", "error", err)
		ids = nil
	}
	s.docMu.Lock()
	s.favorites = ids
	s.docMu.Unlock()
}

// Favorites returns the favorite release ids.
func (s *CatalogStore) Favorites() []int {
	s.docMu.RLock()
	defer s.docMu.RUnlock()
	return append([]int{}, s.favorites...)
}

// SetFavorites replaces the favorite ids.
func (s *CatalogStore) SetFavorites(ids []int) error {
	if ids == nil {
		ids = []int{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := s.writeDocument(domain.DocFavorites, data); err != nil {
		return err
	}
	s.docMu.Lock()
	s.favorites = append([]int{}, ids...)
	s.docMu.Unlock()
	return nil
}

// SetFavoritesJSON replaces the favorites from a raw JSON array of ids.
func (s *CatalogStore) SetFavoritesJSON(raw string) error {
	var ids []int
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return &domain.PayloadError{Source: "favorites", Err: err}
	}
	return s.SetFavorites(ids)
}

// ClearFavorites removes every favorite.
func (s *CatalogStore) ClearFavorites() error {
	return s.SetFavorites(nil)
}

// === Schedule ===

func (s *CatalogStore) loadSchedule() {
	schedule, err := parseSchedule(s.readDocument(domain.DocSchedule))
	if err != nil {
		s.loadFailures.Add(1)
		s.logger.Warn("schedule cache is malformed", "error", err)
		schedule = domain.Schedule{}
	}
	s.docMu.Lock()
	s.schedule = schedule
	s.docMu.Unlock()
}

// Schedule returns a copy of the release id -> weekday map.
func (s *CatalogStore) Schedule() domain.Schedule {
	s.docMu.RLock()
	defer s.docMu.RUnlock()
	out := make(domain.Schedule, len(s.schedule))
	for k, v := range s.schedule {
		out[k] = v
	}
	return out
}

// ScheduleJSON returns the schedule as a JSON object.
func (s *CatalogStore) ScheduleJSON() string {
	data, err := json.Marshal(s.Schedule())
	if err != nil {
		return "{}"
	}
	return string(data)
}

// SetSchedule replaces the schedule with a JSON object whose keys are
// release ids and whose values are weekday indexes (numbers or numeric strings).
func (s *CatalogStore) SetSchedule(raw string) error {
	schedule, err := parseSchedule([]byte(raw))
	if err != nil {
		return &domain.PayloadError{Source: "schedule", Err: err}
	}
	data, err := json.Marshal(schedule)
	if err != nil {
		return err
	}
	if err := s.writeDocument(domain.DocSchedule, data); err != nil {
		return err
	}
	s.docMu.Lock()
	s.schedule = schedule
	s.docMu.Unlock()
	return nil
}

func parseSchedule(data []byte) (domain.Schedule, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	schedule := make(domain.Schedule, len(raw))
	for key, value := range raw {
		id, err := strconv.Atoi(strings.TrimSpace(key))
		if err != nil {
			continue
		}
		day, err := parseDay(value)
		if err != nil {
			return nil, fmt.Errorf("release %d: %w", id, err)
		}
		schedule[id] = day
	}
	return schedule, nil
}

func parseDay(value json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(value, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(value, &s); err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(s))
}

// === Changes ===

func (s *CatalogStore) loadChanges() {
	data := s.readDocument(domain.DocNotification)
	if err := json.Unmarshal(data, s.tracker); err != nil {
		s.loadFailures.Add(1)
		s.logger.Warn("changes cache is malformed", "error", err)
		s.tracker.Reset()
	}
}

func (s *CatalogStore) saveChanges() error {
	data, err := json.Marshal(s.tracker)
	if err != nil {
		return err
	}
	return s.writeDocument(domain.DocNotification, data)
}

// Changes returns the persistable form of the change tracker.
func (s *CatalogStore) Changes() domain.Changes {
	return s.tracker.Snapshot()
}

// ChangesJSON returns the change tracker as a JSON object.
func (s *CatalogStore) ChangesJSON() string {
	data, err := json.Marshal(s.tracker)
	if err != nil {
		return domain.DefaultDocuments[domain.DocNotification]
	}
	return string(data)
}

// ChangesCounts returns new releases, new online series and new torrents counts.
func (s *CatalogStore) ChangesCounts() []int {
	return s.tracker.Counts()
}

// HasChanges reports whether anything changed since the last reset.
func (s *CatalogStore) HasChanges() bool {
	return !s.tracker.Empty()
}

// ResetChanges clears the tracker and overwrites its document.
func (s *CatalogStore) ResetChanges() error {
	s.tracker.Reset()
	return s.saveChanges()
}

// === Document helpers ===

// ensureDefaults creates every missing document with its default contents.
func (s *CatalogStore) ensureDefaults() {
	for name, def := range domain.DefaultDocuments {
		_, ok, err := s.storage.Read(name)
		if err != nil {
			s.storageFailures.Add(1)
			s.logger.Warn("failed to read document", "name", name, "error", err)
			continue
		}
		if ok {
			continue
		}
		if err := s.storage.Write(name, []byte(def)); err != nil {
			s.storageFailures.Add(1)
			s.logger.Warn("failed to create document", "name", name, "error", err)
		}
	}
}

// readDocument returns the document or its default. Errors are logged, not returned.
func (s *CatalogStore) readDocument(name string) []byte {
	data, ok, err := s.storage.Read(name)
	if err != nil {
		s.storageFailures.Add(1)
		s.logger.Warn("failed to read document", "name", name, "error", err)
	}
	if err != nil || !ok {
		return []byte(domain.DefaultDocuments[name])
	}
	return data
}

func (s *CatalogStore) writeDocument(name string, data []byte) error {
	if err := s.storage.Write(name, data); err != nil {
		s.storageFailures.Add(1)
		s.logger.Error("failed to write document", "name", name, "error", err)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
