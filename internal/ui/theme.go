package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/histoqcview/internal/girder"
)

// Theme defines colors for the UI.
type Theme struct {
	Name string

	// Base colors
	Background string // Outermost background
	Surface    string // Header bar

	// Border colors
	Border      string // Results table
	BorderMuted string // Status and diagnostics panes

	// Text colors
	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string

	// StatusColors maps each Girder job status to its badge color.
	StatusColors map[girder.JobStatus]string
}

// jobStatusColors derives badge colors from a theme's semantic colors.
func (t Theme) jobStatusColors() map[girder.JobStatus]string {
	return map[girder.JobStatus]string{
		girder.JobInactive:  t.Faint,
		girder.JobQueued:    t.Warning,
		girder.JobRunning:   t.Accent,
		girder.JobSuccess:   t.Success,
		girder.JobError:     t.Danger,
		girder.JobCancelled: t.Muted,
	}
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		InfoText:    fg(t.Info),
		Logo:        fg(t.Warning).Bold(true),

		statusColors: t.StatusColors,
		background:   t.Background,
		muted:        t.Muted,
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style
	InfoText    lipgloss.Style
	Logo        lipgloss.Style

	// For dynamic status colors
	statusColors map[girder.JobStatus]string
	background   string
	muted        string
}

// StatusStyle returns a badge style for a job status.
func (s Styles) StatusStyle(status girder.JobStatus) lipgloss.Style {
	color := s.statusColors[status]
	if color == "" {
		color = s.muted // Unknown statuses
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// WithBackground returns a copy of Styles whose text styles paint bgColor,
// so segments joined on a bar leave no transparent gaps.
func (s Styles) WithBackground(bgColor string) Styles {
	bg := lipgloss.Color(bgColor)
	out := s
	out.Text = s.Text.Background(bg)
	out.MutedText = s.MutedText.Background(bg)
	out.FaintText = s.FaintText.Background(bg)
	out.AccentText = s.AccentText.Background(bg)
	out.SuccessText = s.SuccessText.Background(bg)
	out.WarningText = s.WarningText.Background(bg)
	out.DangerText = s.DangerText.Background(bg)
	out.InfoText = s.InfoText.Background(bg)
	out.Logo = s.Logo.Background(bg)
	return out
}

// Theme definitions

var themeOrder = []string{"Nightfox", "Kanagawa", "Slate"}

var themes = map[string]Theme{}

func init() {
	for _, t := range []Theme{
		{
			// https://github.com/EdenEast/nightfox.nvim
			Name:       "Nightfox",
			Background: "#131a24", Surface: "#192330",
			Border: "#39506d", BorderMuted: "#212e3f",
			Text: "#cdcecf", Muted: "#738091", Faint: "#71839b",
			Accent: "#719cd6", Success: "#81b29a", Warning: "#dbc074",
			Danger: "#c94f6d", Info: "#63cdcf",
		},
		{
			// https://github.com/rebelot/kanagawa.nvim
			Name:       "Kanagawa",
			Background: "#16161D", Surface: "#1F1F28",
			Border: "#54546D", BorderMuted: "#2A2A37",
			Text: "#DCD7BA", Muted: "#C8C093", Faint: "#727169",
			Accent: "#7E9CD8", Success: "#98BB6C", Warning: "#E6C384",
			Danger: "#E46876", Info: "#7FB4CA",
		},
		{
			// Tailwind slate and sky
			Name:       "Slate",
			Background: "#020617", Surface: "#0f172a",
			Border: "#334155", BorderMuted: "#1e293b",
			Text: "#f1f5f9", Muted: "#94a3b8", Faint: "#64748b",
			Accent: "#38bdf8", Success: "#22c55e", Warning: "#f59e0b",
			Danger: "#ef4444", Info: "#06b6d4",
		},
	} {
		t.StatusColors = t.jobStatusColors()
		themes[t.Name] = t
	}
}

// GetTheme returns a theme by name, falling back to Nightfox.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[themeOrder[0]]
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}
