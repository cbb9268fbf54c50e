package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// HelpOverlay renders a help screen
type HelpOverlay struct {
	width  int
	height int
	styles *Styles
	keys   TimerKeyMap
}

// NewHelpOverlay creates a new help overlay
func NewHelpOverlay(styles *Styles, keys TimerKeyMap) *HelpOverlay {
	return &HelpOverlay{
		styles: styles,
		keys:   keys,
	}
}

// SetSize sets the overlay dimensions
func (h *HelpOverlay) SetSize(width, height int) {
	h.width = width
	h.height = height
}

// View renders the help overlay
func (h *HelpOverlay) View() string {
	overlayWidth := 50
	if h.width > 0 {
		overlayWidth = min(50, max(20, h.width-4))
	}

	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(h.styles.ColorPrimary).
		Padding(1, 2).
		Width(overlayWidth)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(h.styles.ColorPrimary)

	keyStyle := lipgloss.NewStyle().
		Foreground(h.styles.ColorWarning).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(h.styles.ColorText)

	mutedStyle := lipgloss.NewStyle().
		Foreground(h.styles.ColorTextMuted).
		Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("studytrack - Timer Shortcuts"))
	b.WriteString("\n")

	for _, group := range h.keys.FullHelp() {
		b.WriteString("\n")
		for _, k := range group {
			hb := k.Help()
			b.WriteString(keyStyle.Render(strings.Join(displayKeys(k.Keys()), " / ")) + descStyle.Render(hb.Desc) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("The timer keeps running after you quit."))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Press ? or Esc to close"))

	content := overlayStyle.Render(b.String())
	if h.width <= 0 || h.height <= 0 {
		return content
	}
	return lipgloss.Place(h.width, h.height, lipgloss.Center, lipgloss.Center, content)
}

func displayKeys(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		if k == " " {
			k = "space"
		}
		out[i] = k
	}
	return out
}
