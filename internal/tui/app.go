package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/mmcdole/libria/internal/domain"
	"github.com/mmcdole/libria/internal/tui/styles"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Vertical chrome: header, blank, detail box (4), status line
const chromeHeight = 7

// Model is the main Bubble Tea model for the application
type Model struct {
	// Services
	Queries  domain.CatalogQueries
	Commands domain.CatalogCommands
	Store    domain.Store
	Player   Player
	Quality  string

	syncCh <-chan domain.SyncResult

	// Current query and its page
	Query   domain.Query
	Results []domain.Release
	Cursor  int

	// Title filter input
	Filter    textinput.Model
	Filtering bool

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	Syncing      bool
	SpinnerFrame int

	favorites map[int]bool
	fresh     map[int]bool // ids the change tracker reports as new
}

// NewModel creates a new application model. syncCh must be the channel
// behind the ChannelObserver registered on commands.
func NewModel(
	queries domain.CatalogQueries,
	commands domain.CatalogCommands,
	store domain.Store,
	player Player,
	quality string,
	syncCh <-chan domain.SyncResult,
) Model {
	filter := textinput.New()
	filter.Placeholder = "title"
	filter.Prompt = "/ "
	filter.CharLimit = 64

	m := Model{
		Queries:  queries,
		Commands: commands,
		Store:    store,
		Player:   player,
		Quality:  quality,
		syncCh:   syncCh,
		Query:    domain.Query{Page: 1, SortField: domain.SortTimestamp, SortDescending: true},
		Filter:   filter,
	}
	m.reload()
	return m
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenSyncCmd(m.syncCh),
		TickCmd(100*time.Millisecond),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.Filtering {
			return m.handleFilterKey(msg)
		}
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		return m, TickCmd(100 * time.Millisecond)

	case SyncStartedMsg:
		m.Syncing = true
		m.setStatus("syncing catalog", false)
		return m, nil

	case SyncDoneMsg:
		m.Syncing = false
		if msg.Result.Err != nil {
			m.setStatus("sync failed: "+msg.Result.Err.Error(), true)
		} else {
			res := msg.Result.Merge
			m.setStatus(fmt.Sprintf("synced: %d new, %d updated, %d total", res.Added, res.Updated, res.Total), false)
		}
		m.reload()
		return m, tea.Batch(ListenSyncCmd(m.syncCh), ClearStatusCmd(5*time.Second))

	case PlaybackStartedMsg:
		m.setStatus(fmt.Sprintf("playing %s, episode %d", msg.Release.Title, msg.Episode), false)
		return m, ClearStatusCmd(3 * time.Second)

	case FavoritesChangedMsg:
		verb := "removed from"
		if msg.Added {
			verb = "added to"
		}
		m.setStatus(fmt.Sprintf("%d %s favorites", msg.ReleaseID, verb), false)
		m.reload()
		return m, ClearStatusCmd(3 * time.Second)

	case ErrMsg:
		m.Syncing = false
		m.setStatus(msg.Error(), true)
		return m, ClearStatusCmd(5 * time.Second)

	case ClearStatusMsg:
		if !m.Syncing {
			m.StatusMsg = ""
			m.StatusIsErr = false
		}
		return m, nil
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
		}
	case key.Matches(msg, Keys.Down):
		if m.Cursor < len(m.Results)-1 {
			m.Cursor++
		}

	case key.Matches(msg, Keys.NextPage):
		if len(m.Results) == domain.PageSize {
			m.Query.Page++
			m.Cursor = 0
			m.reload()
		}
	case key.Matches(msg, Keys.PrevPage):
		if m.Query.Page > 1 {
			m.Query.Page--
			m.Cursor = 0
			m.reload()
		}

	case key.Matches(msg, Keys.Sort):
		m.Query.SortField = nextSortField(m.Query.SortField)
		m.resetPage()
	case key.Matches(msg, Keys.Direction):
		m.Query.SortDescending = !m.Query.SortDescending
		m.resetPage()
	case key.Matches(msg, Keys.Favorites):
		m.Query.Section = toggleSection(m.Query.Section, domain.SectionFavorites)
		m.resetPage()
	case key.Matches(msg, Keys.Scheduled):
		m.Query.Section = toggleSection(m.Query.Section, domain.SectionScheduled)
		m.resetPage()

	case key.Matches(msg, Keys.Filter):
		m.Filtering = true
		m.Filter.SetValue(m.Query.Title)
		return m, m.Filter.Focus()
	case key.Matches(msg, Keys.Escape):
		if m.Query.Title != "" {
			m.Query.Title = ""
			m.resetPage()
		}

	case key.Matches(msg, Keys.Play):
		if r, ok := m.selected(); ok {
			return m, PlayLatestCmd(m.Player, r, m.Quality)
		}
	case key.Matches(msg, Keys.ToggleFavorite):
		if r, ok := m.selected(); ok {
			return m, ToggleFavoriteCmd(m.Store, r.ID)
		}
	case key.Matches(msg, Keys.Sync):
		if !m.Syncing {
			return m, StartSyncCmd(m.Commands)
		}
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.Filtering = false
		m.Filter.Blur()
		return m, nil
	case tea.KeyEnter:
		m.Filtering = false
		m.Filter.Blur()
		m.Query.Title = strings.TrimSpace(m.Filter.Value())
		m.resetPage()
		return m, nil
	}

	var cmd tea.Cmd
	m.Filter, cmd = m.Filter.Update(msg)
	return m, cmd
}

func (m *Model) resetPage() {
	m.Query.Page = 1
	m.Cursor = 0
	m.reload()
}

// reload re-runs the current query against the cache
func (m *Model) reload() {
	m.Results = m.Queries.Page(m.Query)
	if m.Cursor >= len(m.Results) {
		m.Cursor = max(len(m.Results)-1, 0)
	}

	m.favorites = make(map[int]bool)
	for _, id := range m.Store.Favorites() {
		m.favorites[id] = true
	}
	m.fresh = make(map[int]bool)
	changes := m.Store.Changes()
	for _, id := range changes.NewReleases {
		m.fresh[id] = true
	}
	for id := range changes.NewOnlineSeries {
		m.fresh[id] = true
	}
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.StatusMsg = msg
	m.StatusIsErr = isErr
}

func (m Model) selected() (domain.Release, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.Results) {
		return domain.Release{}, false
	}
	return m.Results[m.Cursor], true
}

func nextSortField(current domain.SortField) domain.SortField {
	fields := domain.SortFields()
	for i, f := range fields {
		if f == current {
			return fields[(i+1)%len(fields)]
		}
	}
	return fields[0]
}

func toggleSection(current, section domain.Section) domain.Section {
	if current == section {
		return domain.SectionNone
	}
	return section
}

// === View ===

// View renders the UI
func (m Model) View() string {
	width := m.Width
	if width <= 0 {
		width = 100
	}

	var b strings.Builder
	b.WriteString(m.renderHeader(width))
	b.WriteString("\n\n")
	b.WriteString(m.renderRows(width))
	b.WriteString("\n")
	b.WriteString(m.renderDetail(width))
	b.WriteString("\n")
	b.WriteString(m.renderStatus(width))
	return b.String()
}

func (m Model) renderHeader(width int) string {
	dir := "↑"
	if m.Query.SortDescending {
		dir = "↓"
	}
	parts := []string{
		styles.AccentStyle.Render("libria"),
		styles.SubtitleStyle.Render(m.Query.Section.String()),
		styles.DimStyle.Render(fmt.Sprintf("sort: %s %s", m.Query.SortField, dir)),
		styles.DimStyle.Render(fmt.Sprintf("page %d", max(m.Query.Page, 1))),
	}
	if m.Query.Title != "" {
		parts = append(parts, styles.HighlightStyle.Render(m.Query.Title))
	}
	if counts := m.changeCounts(); counts != "" {
		parts = append(parts, styles.SuccessStyle.Render(counts))
	}
	header := strings.Join(parts, "  ")
	if m.Filtering {
		header += "\n" + m.Filter.View()
	}
	return styles.BrowserStyle.MaxWidth(width).Render(header)
}

func (m Model) changeCounts() string {
	if !m.Store.HasChanges() {
		return ""
	}
	c := m.Store.ChangesCounts()
	return fmt.Sprintf("new %d · episodes %d · torrents %d", c[0], c[1], c[2])
}

func (m Model) renderRows(width int) string {
	if len(m.Results) == 0 {
		msg := "No releases. Press r to sync."
		if m.Query.Title != "" || m.Query.Section != domain.SectionNone {
			msg = "Nothing matches the current filter."
		}
		return styles.BrowserStyle.Render(styles.DimStyle.Render(msg))
	}

	// marker(2) year(6) rating(7) status(14) genres(rest/3)
	titleWidth := max(width-2-6-7-14-4, 20)
	genreWidth := titleWidth / 3
	titleWidth -= genreWidth

	var rows []string
	for i, r := range m.Results {
		marker := "  "
		switch {
		case m.favorites[r.ID]:
			marker = styles.FavoriteMark + " "
		case m.fresh[r.ID]:
			marker = styles.NewMark + " "
		}

		line := runewidth.FillRight(runewidth.Truncate(r.Title, titleWidth-1, "…"), titleWidth) +
			runewidth.FillRight(r.YearText(), 6) +
			runewidth.FillRight(fmt.Sprintf("%d", r.Rating), 7) +
			runewidth.FillRight(runewidth.Truncate(r.Status, 13, "…"), 14) +
			runewidth.Truncate(r.Genres, genreWidth, "…")

		style := styles.NormalItemStyle
		if i == m.Cursor {
			style = styles.SelectedItemStyle
		}
		rows = append(rows, marker+style.Render(line))
	}

	visible := len(rows)
	if m.Height > 0 {
		visible = min(visible, max(m.Height-chromeHeight, 1))
	}
	start := 0
	if m.Cursor >= visible {
		start = m.Cursor - visible + 1
	}
	return styles.BrowserStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows[start:start+visible]...))
}

func (m Model) renderDetail(width int) string {
	r, ok := m.selected()
	if !ok {
		return ""
	}
	inner := max(width-4, 20)

	title := styles.TitleStyle.Render(runewidth.Truncate(r.Title+" / "+r.OriginalName, inner, "…"))
	meta := styles.SubtitleStyle.Render(runewidth.Truncate(
		fmt.Sprintf("%s · %s %s · %s · %d online · %d torrents",
			r.Type, r.Season, r.YearText(), r.Series, r.CountOnlineVideos, r.CountTorrents), inner, "…"))
	desc := styles.DimStyle.Render(runewidth.Truncate(strings.Join(strings.Fields(r.Description), " "), inner, "…"))

	return styles.DetailStyle.Width(inner).Render(lipgloss.JoinVertical(lipgloss.Left, title, meta, desc))
}

func (m Model) renderStatus(width int) string {
	var text string
	switch {
	case m.Syncing:
		text = spinnerFrames[m.SpinnerFrame%len(spinnerFrames)] + " " + m.StatusMsg
	case m.StatusMsg != "" && m.StatusIsErr:
		return styles.ErrorStyle.Render(runewidth.Truncate(m.StatusMsg, width, "…"))
	case m.StatusMsg != "":
		text = m.StatusMsg
	default:
		var help []string
		for _, b := range helpBindings() {
			h := b.Help()
			help = append(help, h.Key+" "+h.Desc)
		}
		text = strings.Join(help, " · ")
	}
	return styles.StatusBarStyle.Render(runewidth.FillRight(runewidth.Truncate(text, width, "…"), width))
}
