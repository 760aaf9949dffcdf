package terminal

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bft-labs/dancer/pkg/prompt"
)

// Theme names.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type palette struct {
	accent   lipgloss.Color
	text     lipgloss.Color
	muted    lipgloss.Color
	border   lipgloss.Color
	info     lipgloss.Color
	question lipgloss.Color
	warning  lipgloss.Color
	danger   lipgloss.Color
}

var palettes = map[string]palette{
	ThemeLight: {
		accent:   lipgloss.Color("#1F5FBF"),
		text:     lipgloss.Color("#222222"),
		muted:    lipgloss.Color("#666666"),
		border:   lipgloss.Color("#BBBBBB"),
		info:     lipgloss.Color("#1F5FBF"),
		question: lipgloss.Color("#6B3FA0"),
		warning:  lipgloss.Color("#B36B00"),
		danger:   lipgloss.Color("#C0392B"),
	},
	ThemeDark: {
		accent:   lipgloss.Color("#5B8DEF"),
		text:     lipgloss.Color("#EEEEEE"),
		muted:    lipgloss.Color("#888888"),
		border:   lipgloss.Color("#444444"),
		info:     lipgloss.Color("#5B8DEF"),
		question: lipgloss.Color("#B48EFF"),
		warning:  lipgloss.Color("#FFB86C"),
		danger:   lipgloss.Color("#FF6B6B"),
	},
}

// Styles renders prompts for one theme.
type Styles struct {
	Theme string

	Box      lipgloss.Style
	Message  lipgloss.Style
	Details  lipgloss.Style
	Option   lipgloss.Style
	Selected lipgloss.Style
	Checkbox lipgloss.Style
	Help     lipgloss.Style

	p palette
}

// StylesFor returns the styles of theme. Unknown themes fall back to light.
func StylesFor(theme string) Styles {
	p, ok := palettes[theme]
	if !ok {
		theme = ThemeLight
		p = palettes[ThemeLight]
	}
	return Styles{
		Theme: theme,
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(0, 1),
		Message:  lipgloss.NewStyle().Foreground(p.text),
		Details:  lipgloss.NewStyle().Foreground(p.muted),
		Option:   lipgloss.NewStyle().Foreground(p.text).Padding(0, 1),
		Selected: lipgloss.NewStyle().Foreground(p.text).Background(p.accent).Bold(true).Padding(0, 1),
		Checkbox: lipgloss.NewStyle().Foreground(p.text),
		Help:     lipgloss.NewStyle().Foreground(p.muted).Italic(true),
		p:        p,
	}
}

// Title returns the heading style for a severity.
func (s Styles) Title(sev prompt.Severity) lipgloss.Style {
	c := s.p.info
	switch sev {
	case prompt.SeverityDebug:
		c = s.p.muted
	case prompt.SeverityQuestion:
		c = s.p.question
	case prompt.SeverityWarning:
		c = s.p.warning
	case prompt.SeverityError:
		c = s.p.danger
	}
	return lipgloss.NewStyle().Bold(true).Foreground(c)
}
