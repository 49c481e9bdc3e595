package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	LibriaRed  = lipgloss.Color("#C62828")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
	Amber      = lipgloss.Color("#E5A00D")
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(LibriaRed).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(LibriaRed).
			Padding(0, 1)
)

// Raw row markers (unstyled)
const (
	FavoriteChar = "★"
	NewChar      = "●"
)

// Row marker styles
var (
	FavoriteMark = lipgloss.NewStyle().Foreground(Amber).Render(FavoriteChar)
	NewMark      = lipgloss.NewStyle().Foreground(Green).Render(NewChar)
)

// List item styles
var (
	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(White).
				Background(SlateLight)

	NormalItemStyle = lipgloss.NewStyle().
			Foreground(LightGray)
)

// Panel styles
var (
	BrowserStyle = lipgloss.NewStyle().
			Padding(0, 1)

	DetailStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DimGray).
			Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Background(SlateDark)
)
