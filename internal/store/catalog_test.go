package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/mmcdole/libria/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// apiRelease renders one "list" item with the given number of online
// episodes and torrents of the given sizes.
func apiRelease(id int, title string, episodes int, torrentSizes ...int64) string {
	videos := make([]string, episodes)
	for i := range videos {
		videos[i] = fmt.Sprintf(`{"id": %d, "title": "Серия %d"}`, i+1, i+1)
	}
	torrents := make([]string, len(torrentSizes))
	for i, size := range torrentSizes {
		torrents[i] = fmt.Sprintf(`{"id": %d, "series": "1-%d", "size": %d}`, id*100+i, episodes, size)
	}
	return fmt.Sprintf(`{"id": %d, "names": [%q, "Original %d"], "year": 2020, "last": %d, "genres": ["Драма"], "playlist": [%s], "torrents": [%s]}`,
		id, title, id, id*10, strings.Join(videos, ","), strings.Join(torrents, ","))
}

func payload(items ...string) string {
	return "[" + strings.Join(items, ",") + "]"
}

func ids(releases []domain.Release) []int {
	out := make([]int, len(releases))
	for i, r := range releases {
		out[i] = r.ID
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestMergeNewThenEpisodeGain(t *testing.T) {
	s := NewCatalogStore(NewMemoryStorage(), testLogger())

	res, err := s.Merge(payload(apiRelease(1, "A", 1)))
	if err != nil {
		t.Fatalf("first merge: %v", err)
	}
	if res.Added != 1 || res.Total != 1 {
		t.Fatalf("first merge result = %+v", res)
	}
	if got := s.Changes().NewReleases; !equalInts(got, []int{1}) {
		t.Fatalf("new releases = %v, want [1]", got)
	}

	res, err = s.Merge(payload(apiRelease(1, "A", 3)))
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if res.Updated != 1 || res.EpisodeGains != 1 || res.Total != 1 {
		t.Fatalf("second merge result = %+v", res)
	}

	gains := s.Changes().NewOnlineSeries
	if len(gains) != 1 || gains[1] != 1 {
		t.Fatalf("online gains = %v, want map[1:1]", gains)
	}

	r, ok := s.Release(1)
	if !ok || r.CountOnlineVideos != 3 {
		t.Fatalf("release 1 = %+v (ok=%v), want 3 episodes", r, ok)
	}
	if len(s.Snapshot()) != 1 {
		t.Fatalf("collection grew on update: %v", ids(s.Snapshot()))
	}
}

func TestMergeKeepsFirstBaseline(t *testing.T) {
	s := NewCatalogStore(NewMemoryStorage(), testLogger())

	for _, n := range []int{1, 2, 4} {
		if _, err := s.Merge(payload(apiRelease(7, "X", n))); err != nil {
			t.Fatalf("merge %d: %v", n, err)
		}
	}
	if got := s.Changes().NewOnlineSeries[7]; got != 1 {
		t.Fatalf("baseline = %d, want 1", got)
	}
}

func TestMergeDecreaseIsNotAGain(t *testing.T) {
	s := NewCatalogStore(NewMemoryStorage(), testLogger())
	if _, err := s.Merge(payload(apiRelease(3, "C", 5, 10, 20))); err != nil {
		t.Fatal(err)
	}
	if err := s.ResetChanges(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Merge(payload(apiRelease(3, "C", 2, 10))); err != nil {
		t.Fatal(err)
	}
	if s.HasChanges() {
		t.Fatalf("expected no changes, got %+v", s.Changes())
	}
}

func TestMergeTorrentGainAndSeriesChange(t *testing.T) {
	s := NewCatalogStore(NewMemoryStorage(), testLogger())
	if _, err := s.Merge(payload(apiRelease(4, "D", 2, 100))); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Merge(payload(apiRelease(4, "D", 3, 150, 300))); err != nil {
		t.Fatal(err)
	}

	c := s.Changes()
	if c.NewTorrents[4] != 1 {
		t.Fatalf("torrent gains = %v, want map[4:1]", c.NewTorrents)
	}
	if got := c.NewTorrentSeries[4][400]; got != "1-2" {
		t.Fatalf("torrent series = %v, want 400 -> 1-2", c.NewTorrentSeries)
	}
	if got := s.ChangesCounts(); !equalInts(got, []int{1, 1, 1}) {
		t.Fatalf("counts = %v, want [1 1 1]", got)
	}
}

func TestMergeOrderAndDuplicates(t *testing.T) {
	s := NewCatalogStore(NewMemoryStorage(), testLogger())
	if _, err := s.Merge(payload(apiRelease(1, "A", 0), apiRelease(2, "B", 0), apiRelease(3, "C", 0))); err != nil {
		t.Fatal(err)
	}

	// 2 is replaced and moves after the untouched records; 5 appears twice.
	res, err := s.Merge(payload(apiRelease(5, "E", 0), apiRelease(2, "B2", 0), apiRelease(5, "E2", 0)))
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(s.Snapshot()); !equalInts(got, []int{1, 3, 2, 5}) {
		t.Fatalf("order = %v, want [1 3 2 5]", got)
	}
	if res.Added != 1 || res.Updated != 1 || res.Total != 4 {
		t.Fatalf("result = %+v", res)
	}
	if r, _ := s.Release(5); r.Title != "E2" {
		t.Fatalf("duplicate id kept %q, want last occurrence E2", r.Title)
	}
}

func TestMergeMalformedLeavesCacheUntouched(t *testing.T) {
	s := NewCatalogStore(NewMemoryStorage(), testLogger())
	if _, err := s.Merge(payload(apiRelease(1, "A", 1))); err != nil {
		t.Fatal(err)
	}

	_, err := s.Merge(`{"broken": `)
	if !errors.Is(err, domain.ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
	var perr *domain.PayloadError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *PayloadError, got %T", err)
	}
	if got := ids(s.Snapshot()); !equalInts(got, []int{1}) {
		t.Fatalf("collection changed after bad payload: %v", got)
	}
	if s.Stats().MergeFailures != 1 {
		t.Fatalf("merge failures = %d, want 1", s.Stats().MergeFailures)
	}
}

func TestMergeSkipsSentinelID(t *testing.T) {
	s := NewCatalogStore(NewMemoryStorage(), testLogger())
	if _, err := s.Merge(payload(apiRelease(domain.NullReleaseID, "null", 0), apiRelease(2, "B", 0))); err != nil {
		t.Fatal(err)
	}
	if got := ids(s.Snapshot()); !equalInts(got, []int{2}) {
		t.Fatalf("collection = %v, want [2]", got)
	}
}

func TestPersistAndReload(t *testing.T) {
	for _, backend := range []string{BackendFile, BackendBolt} {
		t.Run(backend, func(t *testing.T) {
			dir := t.TempDir()
			storage, err := OpenStorage(backend, dir, "https://example.org")
			if err != nil {
				t.Fatalf("OpenStorage: %v", err)
			}

			s := NewCatalogStore(storage, testLogger())
			if _, err := s.Merge(payload(apiRelease(1, "A", 1), apiRelease(2, "B", 2))); err != nil {
				t.Fatal(err)
			}
			if err := s.SetFavorites([]int{2}); err != nil {
				t.Fatal(err)
			}
			if err := s.SetSchedule(`{"1": 3, "2": "6"}`); err != nil {
				t.Fatal(err)
			}
			if err := s.Close(); err != nil {
				t.Fatal(err)
			}

			storage, err = OpenStorage(backend, dir, "https://example.org/")
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			reloaded := NewCatalogStore(storage, testLogger())
			defer reloaded.Close()

			if got := ids(reloaded.Snapshot()); !equalInts(got, []int{1, 2}) {
				t.Fatalf("reloaded order = %v, want [1 2]", got)
			}
			if got := reloaded.Favorites(); !equalInts(got, []int{2}) {
				t.Fatalf("favorites = %v, want [2]", got)
			}
			if sched := reloaded.Schedule(); sched[1] != 3 || sched[2] != 6 {
				t.Fatalf("schedule = %v", sched)
			}
			if got := reloaded.Changes().NewReleases; !equalInts(got, []int{1, 2}) {
				t.Fatalf("changes = %v, want [1 2]", got)
			}
		})
	}
}

func TestLoadMalformedFailsOpen(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(fs.Path(domain.DocReleases), []byte(`[{"id": 1,`), 0644); err != nil {
		t.Fatal(err)
	}

	s := NewCatalogStore(fs, testLogger())
	if n := len(s.Snapshot()); n != 0 {
		t.Fatalf("expected empty collection, got %d records", n)
	}
	if s.Stats().LoadFailures != 1 {
		t.Fatalf("load failures = %d, want 1", s.Stats().LoadFailures)
	}

	// The next merge rebuilds the file.
	if _, err := s.Merge(payload(apiRelease(9, "Z", 0))); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(fs.Path(domain.DocReleases))
	if err != nil {
		t.Fatal(err)
	}
	var stored []domain.Release
	if err := json.Unmarshal(data, &stored); err != nil || len(stored) != 1 {
		t.Fatalf("rewritten cache = %s (err %v)", data, err)
	}
}

func TestDefaultsCreated(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStorage(dir)
	if err != nil {
		t.Fatal(err)
	}
	NewCatalogStore(fs, testLogger())

	for name, want := range domain.DefaultDocuments {
		data, err := os.ReadFile(fs.Path(name))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if string(data) != want {
			t.Fatalf("%s = %s, want %s", name, data, want)
		}
	}
}

func TestReleaseLookup(t *testing.T) {
	s := NewCatalogStore(NewMemoryStorage(), testLogger())
	if r, ok := s.Release(42); ok || !r.IsNull() {
		t.Fatalf("missing release = %+v (ok=%v), want null", r, ok)
	}
	if r, ok := s.RandomRelease(); ok || !r.IsNull() {
		t.Fatalf("random on empty = %+v (ok=%v), want null", r, ok)
	}

	if _, err := s.Merge(payload(apiRelease(1, "A", 0))); err != nil {
		t.Fatal(err)
	}
	if r, ok := s.RandomRelease(); !ok || r.ID != 1 {
		t.Fatalf("random = %+v, want id 1", r)
	}
}

func TestSortInPlace(t *testing.T) {
	s := NewCatalogStore(NewMemoryStorage(), testLogger())
	if _, err := s.Merge(payload(apiRelease(3, "C", 0), apiRelease(1, "A", 0), apiRelease(2, "B", 0))); err != nil {
		t.Fatal(err)
	}
	s.SortInPlace(func(a, b *domain.Release) bool { return a.Title < b.Title })

	if got := ids(s.Snapshot()); !equalInts(got, []int{1, 2, 3}) {
		t.Fatalf("order = %v, want [1 2 3]", got)
	}
	if r, _ := s.Release(3); r.Title != "C" {
		t.Fatalf("index stale after sort: %+v", r)
	}
}

func TestFavoritesAndSchedule(t *testing.T) {
	s := NewCatalogStore(NewMemoryStorage(), testLogger())

	if err := s.SetFavoritesJSON(`[5, 6]`); err != nil {
		t.Fatal(err)
	}
	if got := s.Favorites(); !equalInts(got, []int{5, 6}) {
		t.Fatalf("favorites = %v", got)
	}
	if err := s.SetFavoritesJSON(`nope`); !errors.Is(err, domain.ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
	if err := s.ClearFavorites(); err != nil {
		t.Fatal(err)
	}
	if got := s.Favorites(); len(got) != 0 {
		t.Fatalf("favorites after clear = %v", got)
	}

	if err := s.SetSchedule(`{"10": 1, "bad": 2}`); err != nil {
		t.Fatal(err)
	}
	if got := s.ScheduleJSON(); got != `{"10":1}` {
		t.Fatalf("schedule json = %s", got)
	}
	if s.Schedule().Weekday(11) != domain.UnscheduledWeekday {
		t.Fatal("unscheduled release should sort last")
	}
	if err := s.SetSchedule(`[]`); !errors.Is(err, domain.ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestResetChangesPersists(t *testing.T) {
	mem := NewMemoryStorage()
	s := NewCatalogStore(mem, testLogger())
	if _, err := s.Merge(payload(apiRelease(1, "A", 0))); err != nil {
		t.Fatal(err)
	}
	if !s.HasChanges() {
		t.Fatal("expected changes after first merge")
	}
	if err := s.ResetChanges(); err != nil {
		t.Fatal(err)
	}

	data, _, _ := mem.Read(domain.DocNotification)
	if string(data) != domain.DefaultDocuments[domain.DocNotification] {
		t.Fatalf("notification = %s", data)
	}
	if got := s.ChangesJSON(); got != domain.DefaultDocuments[domain.DocNotification] {
		t.Fatalf("changes json = %s", got)
	}
}

func TestOpenStorageMemoryAndUnknown(t *testing.T) {
	st, err := OpenStorage(BackendFile, "", "https://example.org")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := st.(*MemoryStorage); !ok {
		t.Fatalf("empty dir should give memory storage, got %T", st)
	}
	if _, err := OpenStorage("redis", t.TempDir(), ""); err == nil {
		t.Fatal("expected unknown backend error")
	}
}
