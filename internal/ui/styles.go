package ui

import (
	"studytrack/internal/config"
	"studytrack/internal/timer"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds all view styles, initialized with theme configuration.
type Styles struct {
	// Colors
	ColorPrimary   lipgloss.Color
	ColorAccent    lipgloss.Color
	ColorMuted     lipgloss.Color
	ColorDanger    lipgloss.Color
	ColorWarning   lipgloss.Color
	ColorSuccess   lipgloss.Color
	ColorText      lipgloss.Color
	ColorTextMuted lipgloss.Color

	PaneStyle      lipgloss.Style
	PaneTitleStyle lipgloss.Style

	ClockRunningStyle lipgloss.Style
	ClockPausedStyle  lipgloss.Style
	ClockDoneStyle    lipgloss.Style

	WorkStyle  lipgloss.Style
	BreakStyle lipgloss.Style

	BarFilledStyle lipgloss.Style
	BarEmptyStyle  lipgloss.Style

	StatLabelStyle lipgloss.Style
	StatValueStyle lipgloss.Style

	HelpStyle    lipgloss.Style
	HelpKeyStyle lipgloss.Style

	StatusStyle lipgloss.Style
	ErrorStyle  lipgloss.Style
}

// NewStyles creates a new Styles instance from the given config.
func NewStyles(cfg *config.Config) *Styles {
	return NewStylesFromTheme(&cfg.Theme)
}

// NewStylesFromTheme creates a new Styles instance from a ThemeConfig.
// If a theme color is empty, it uses the appropriate default.
func NewStylesFromTheme(theme *config.ThemeConfig) *Styles {
	if theme == nil {
		theme = &config.ThemeConfig{}
	}
	s := &Styles{}

	s.ColorPrimary = colorOrDefault(theme.Primary, "#7C3AED")
	s.ColorAccent = colorOrDefault(theme.Accent, "#10B981")
	s.ColorMuted = colorOrDefault(theme.Muted, "#6B7280")

	// Fixed semantic colors (not configurable from theme)
	s.ColorDanger = lipgloss.Color("#EF4444")
	s.ColorWarning = lipgloss.Color("#F59E0B")
	s.ColorSuccess = lipgloss.Color("#10B981")
	s.ColorText = lipgloss.Color("#F9FAFB")
	s.ColorTextMuted = lipgloss.Color("#9CA3AF")

	s.initComponentStyles()
	return s
}

// colorOrDefault returns the lipgloss.Color from hex string, or default if empty.
func colorOrDefault(hex, defaultHex string) lipgloss.Color {
	if hex != "" {
		return lipgloss.Color(hex)
	}
	return lipgloss.Color(defaultHex)
}

func (s *Styles) initComponentStyles() {
	s.PaneStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.ColorPrimary).
		Padding(0, 1)

	s.PaneTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(s.ColorPrimary)

	s.ClockRunningStyle = lipgloss.NewStyle().
		Foreground(s.ColorPrimary).
		Bold(true)

	s.ClockPausedStyle = lipgloss.NewStyle().
		Foreground(s.ColorWarning).
		Bold(true)

	s.ClockDoneStyle = lipgloss.NewStyle().
		Foreground(s.ColorSuccess).
		Bold(true)

	s.WorkStyle = lipgloss.NewStyle().
		Foreground(s.ColorSuccess)

	s.BreakStyle = lipgloss.NewStyle().
		Foreground(s.ColorAccent)

	s.BarFilledStyle = lipgloss.NewStyle().
		Foreground(s.ColorAccent)

	s.BarEmptyStyle = lipgloss.NewStyle().
		Foreground(s.ColorMuted)

	s.StatLabelStyle = lipgloss.NewStyle().
		Foreground(s.ColorTextMuted)

	s.StatValueStyle = lipgloss.NewStyle().
		Foreground(s.ColorText).
		Bold(true)

	s.HelpStyle = lipgloss.NewStyle().
		Foreground(s.ColorMuted)

	s.HelpKeyStyle = lipgloss.NewStyle().
		Foreground(s.ColorWarning)

	s.StatusStyle = lipgloss.NewStyle().
		Foreground(s.ColorSuccess).
		Italic(true)

	s.ErrorStyle = lipgloss.NewStyle().
		Foreground(s.ColorDanger).
		Bold(true)
}

// SessionStyle picks the label style for a pomodoro phase.
func (s *Styles) SessionStyle(kind timer.SessionType) lipgloss.Style {
	if kind == timer.SessionWork || kind == "" {
		return s.WorkStyle
	}
	return s.BreakStyle
}
