// Package ui provides the live terminal view of the active study timer.
// This file defines key bindings using the Bubble Tea key package so they
// can be matched, listed in help and overridden from config.
package ui

import (
	"strings"

	"studytrack/internal/config"

	"github.com/charmbracelet/bubbles/key"
)

// parseKeys splits a comma-separated string into individual keys.
// If the input is empty, returns the default keys.
func parseKeys(customKeys string, defaultKeys ...string) []string {
	if customKeys == "" {
		return defaultKeys
	}
	keys := strings.Split(customKeys, ",")
	result := make([]string, 0, len(keys))
	for _, k := range keys {
		trimmed := strings.TrimSpace(k)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultKeys
	}
	return result
}

// helpLabel is the key shown in help for a binding.
func helpLabel(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	if keys[0] == " " {
		return "space"
	}
	return keys[0]
}

// TimerKeyMap defines keys for the timer view.
type TimerKeyMap struct {
	Toggle      key.Binding
	Stop        key.Binding
	Distraction key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultTimerKeyMap returns the default timer key bindings.
func DefaultTimerKeyMap() TimerKeyMap {
	return NewTimerKeyMap(&config.KeysConfig{})
}

// NewTimerKeyMap creates timer key bindings from config.
func NewTimerKeyMap(cfg *config.KeysConfig) TimerKeyMap {
	if cfg == nil {
		cfg = &config.KeysConfig{}
	}
	toggle := parseKeys(cfg.Toggle, " ", "p")
	stop := parseKeys(cfg.Stop, "x")
	distraction := parseKeys(cfg.Distraction, "d")
	quit := parseKeys(cfg.Quit, "q", "ctrl+c")

	return TimerKeyMap{
		Toggle: key.NewBinding(
			key.WithKeys(toggle...),
			key.WithHelp(helpLabel(toggle), "pause/resume"),
		),
		Stop: key.NewBinding(
			key.WithKeys(stop...),
			key.WithHelp(helpLabel(stop), "finish"),
		),
		Distraction: key.NewBinding(
			key.WithKeys(distraction...),
			key.WithHelp(helpLabel(distraction), "distraction"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys(quit...),
			key.WithHelp(helpLabel(quit), "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer (implements help.KeyMap).
func (k TimerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Stop, k.Distraction, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the overlay (implements help.KeyMap).
func (k TimerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Stop, k.Distraction},
		{k.Help, k.Quit},
	}
}
