package ui

import (
	"testing"

	"studytrack/internal/config"
	"studytrack/internal/timer"

	"github.com/charmbracelet/lipgloss"
)

func TestNewStyles_UsesThemeColors(t *testing.T) {
	theme := &config.ThemeConfig{
		Primary: "#FF0000",
		Accent:  "#00FF00",
		Muted:   "#0000FF",
	}

	styles := NewStylesFromTheme(theme)

	if styles.ColorPrimary != lipgloss.Color("#FF0000") {
		t.Errorf("ColorPrimary = %v, want #FF0000", styles.ColorPrimary)
	}
	if styles.ColorAccent != lipgloss.Color("#00FF00") {
		t.Errorf("ColorAccent = %v, want #00FF00", styles.ColorAccent)
	}
	if styles.ColorMuted != lipgloss.Color("#0000FF") {
		t.Errorf("ColorMuted = %v, want #0000FF", styles.ColorMuted)
	}
}

func TestNewStyles_UsesDefaults(t *testing.T) {
	for _, theme := range []*config.ThemeConfig{{}, nil} {
		styles := NewStylesFromTheme(theme)

		if styles.ColorPrimary != lipgloss.Color("#7C3AED") {
			t.Errorf("ColorPrimary = %v, want default #7C3AED", styles.ColorPrimary)
		}
		if styles.ColorAccent != lipgloss.Color("#10B981") {
			t.Errorf("ColorAccent = %v, want default #10B981", styles.ColorAccent)
		}
		if styles.ColorMuted != lipgloss.Color("#6B7280") {
			t.Errorf("ColorMuted = %v, want default #6B7280", styles.ColorMuted)
		}
	}
}

func TestNewStyles_ComponentStylesInitialized(t *testing.T) {
	styles := NewStylesFromTheme(&config.ThemeConfig{Primary: "#FF0000", Accent: "#00FF00"})

	if styles.PaneStyle.GetBorderTopForeground() != lipgloss.Color("#FF0000") {
		t.Error("PaneStyle should use Primary color for border")
	}
	if styles.ClockRunningStyle.GetForeground() != lipgloss.Color("#FF0000") {
		t.Error("ClockRunningStyle should use Primary color")
	}
	if styles.BarFilledStyle.GetForeground() != lipgloss.Color("#00FF00") {
		t.Error("BarFilledStyle should use Accent color")
	}
}

func TestNewStyles_FromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Theme.Primary = "#123456"

	styles := NewStyles(cfg)

	if styles.ColorPrimary != lipgloss.Color("#123456") {
		t.Errorf("ColorPrimary = %v, want #123456", styles.ColorPrimary)
	}
}

func TestSessionStyle(t *testing.T) {
	styles := createTestStyles()

	if styles.SessionStyle(timer.SessionWork).GetForeground() != styles.ColorSuccess {
		t.Error("work sessions should use the success color")
	}
	if styles.SessionStyle(timer.SessionLongBreak).GetForeground() != styles.ColorAccent {
		t.Error("breaks should use the accent color")
	}
}
