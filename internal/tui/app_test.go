package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/libria/internal/adapter"
	"github.com/mmcdole/libria/internal/domain"
	"github.com/mmcdole/libria/internal/library"
	"github.com/mmcdole/libria/internal/store"
)

type fakePlayer struct {
	urls []string
	err  error
}

func (p *fakePlayer) Launch(url string) error {
	p.urls = append(p.urls, url)
	return p.err
}

const catalog = `[
  {"id": 1, "names": ["Альфа", "Alpha"], "year": 2020, "last": 30,
   "playlist": [{"id": 1, "hd": "https://cdn/1-1.m3u8"}, {"id": 2, "hd": "https://cdn/1-2.m3u8", "fullhd": "https://cdn/1-2-fhd.m3u8"}]},
  {"id": 2, "names": ["Бета", "Beta"], "year": 2019, "last": 20},
  {"id": 3, "names": ["Гамма", "Gamma"], "year": 2021, "last": 10}
]`

func newTestModel(t *testing.T) (Model, *store.CatalogStore, *fakePlayer) {
	t.Helper()
	s := store.NewCatalogStore(store.NewMemoryStorage(), adapter.NullLogger())
	if _, err := s.Merge(catalog); err != nil {
		t.Fatalf("seed merge: %v", err)
	}
	cmds := library.NewCommands(nil, s, adapter.NullLogger())
	ch := make(chan domain.SyncResult, 1)
	cmds.AddObserver(library.NewChannelObserver(ch))

	player := &fakePlayer{}
	m := NewModel(library.NewQueries(s), cmds, s, player, "hd", ch)
	return m, s, player
}

func press(t *testing.T, m Model, keys string) Model {
	t.Helper()
	var msg tea.KeyMsg
	switch keys {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	next, _ := m.Update(cmd())
	return next.(Model)
}

func TestModelInitialPageNewestFirst(t *testing.T) {
	m, _, _ := newTestModel(t)
	if len(m.Results) != 3 || m.Results[0].ID != 1 {
		t.Fatalf("results = %+v", m.Results)
	}
}

func TestModelSortAndDirection(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(t, m, "s") // Schedule
	m = press(t, m, "s") // Title
	if m.Query.SortField != domain.SortTitle {
		t.Fatalf("sort field = %v", m.Query.SortField)
	}
	m = press(t, m, "d")
	if m.Query.SortDescending {
		t.Fatal("direction should toggle to ascending")
	}
	if m.Results[0].Title != "Альфа" {
		t.Fatalf("first = %q, want Альфа", m.Results[0].Title)
	}
}

func TestModelFilter(t *testing.T) {
	m, _, _ := newTestModel(t)

	m = press(t, m, "/")
	if !m.Filtering {
		t.Fatal("filter mode not entered")
	}
	m = press(t, m, "б")
	m = press(t, m, "enter")
	if m.Filtering || m.Query.Title != "б" {
		t.Fatalf("filtering=%v title=%q", m.Filtering, m.Query.Title)
	}
	if len(m.Results) != 1 || m.Results[0].ID != 2 {
		t.Fatalf("filtered = %+v", m.Results)
	}

	m = press(t, m, "esc")
	if m.Query.Title != "" || len(m.Results) != 3 {
		t.Fatal("esc should clear the filter")
	}
}

func TestModelToggleFavoriteAndSection(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = press(t, m, "j")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = run(t, next.(Model), cmd)
	if got := s.Favorites(); len(got) != 1 || got[0] != 2 {
		t.Fatalf("favorites = %v, want [2]", got)
	}

	m = press(t, m, "f")
	if m.Query.Section != domain.SectionFavorites || len(m.Results) != 1 {
		t.Fatalf("section=%v results=%d", m.Query.Section, len(m.Results))
	}
	m = press(t, m, "f")
	if m.Query.Section != domain.SectionNone {
		t.Fatal("second f should leave the favorites section")
	}
}

func TestModelPlayLatestEpisode(t *testing.T) {
	m, _, player := newTestModel(t)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = run(t, next.(Model), cmd)
	if len(player.urls) != 1 || player.urls[0] != "https://cdn/1-2.m3u8" {
		t.Fatalf("launched %v", player.urls)
	}
	if !strings.Contains(m.StatusMsg, "episode 2") {
		t.Fatalf("status = %q", m.StatusMsg)
	}

	// Release 2 has no online episodes.
	m = press(t, m, "j")
	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = run(t, next.(Model), cmd)
	if !m.StatusIsErr {
		t.Fatalf("expected error status, got %q", m.StatusMsg)
	}
}

func TestModelSyncDone(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.Syncing = true

	next, _ := m.Update(SyncDoneMsg{Result: domain.SyncResult{Err: errors.New("offline")}})
	m = next.(Model)
	if m.Syncing || !m.StatusIsErr {
		t.Fatalf("syncing=%v status=%q", m.Syncing, m.StatusMsg)
	}

	next, _ = m.Update(SyncDoneMsg{Result: domain.SyncResult{Merge: domain.MergeResult{Added: 2, Total: 5}}})
	m = next.(Model)
	if m.StatusIsErr || !strings.Contains(m.StatusMsg, "2 new") {
		t.Fatalf("status = %q", m.StatusMsg)
	}
}

func TestModelHeaderHidesCountsAfterReset(t *testing.T) {
	m, s, _ := newTestModel(t)
	if err := s.ResetChanges(); err != nil {
		t.Fatal(err)
	}
	if got := m.changeCounts(); got != "" {
		t.Fatalf("changeCounts after reset = %q, want empty", got)
	}
}

func TestModelViewRenders(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 90, Height: 30})
	view := next.(Model).View()

	for _, want := range []string{"libria", "Альфа", "Alpha", "new 3"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}
