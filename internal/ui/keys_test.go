package ui

import (
	"reflect"
	"testing"

	"studytrack/internal/config"

	"github.com/charmbracelet/bubbles/key"
)

func TestParseKeys(t *testing.T) {
	tests := []struct {
		name     string
		custom   string
		defaults []string
		want     []string
	}{
		{"empty uses defaults", "", []string{"x"}, []string{"x"}},
		{"single key", "s", []string{"x"}, []string{"s"}},
		{"comma list trimmed", " s , e ", []string{"x"}, []string{"s", "e"}},
		{"only separators uses defaults", " , ", []string{"x"}, []string{"x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseKeys(tt.custom, tt.defaults...); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseKeys(%q) = %v, want %v", tt.custom, got, tt.want)
			}
		})
	}
}

func TestDefaultTimerKeyMap(t *testing.T) {
	km := DefaultTimerKeyMap()

	tests := []struct {
		binding key.Binding
		keys    []string
		help    string
	}{
		{km.Toggle, []string{" ", "p"}, "space"},
		{km.Stop, []string{"x"}, "x"},
		{km.Distraction, []string{"d"}, "d"},
		{km.Help, []string{"?"}, "?"},
		{km.Quit, []string{"q", "ctrl+c"}, "q"},
	}
	for _, tt := range tests {
		if !reflect.DeepEqual(tt.binding.Keys(), tt.keys) {
			t.Errorf("keys = %v, want %v", tt.binding.Keys(), tt.keys)
		}
		if tt.binding.Help().Key != tt.help {
			t.Errorf("help key = %q, want %q", tt.binding.Help().Key, tt.help)
		}
	}
}

func TestNewTimerKeyMap_Custom(t *testing.T) {
	km := NewTimerKeyMap(&config.KeysConfig{Toggle: "enter", Quit: "esc"})

	if !reflect.DeepEqual(km.Toggle.Keys(), []string{"enter"}) {
		t.Errorf("Toggle keys = %v", km.Toggle.Keys())
	}
	if km.Toggle.Help().Key != "enter" {
		t.Errorf("Toggle help = %q", km.Toggle.Help().Key)
	}
	if !reflect.DeepEqual(km.Quit.Keys(), []string{"esc"}) {
		t.Errorf("Quit keys = %v", km.Quit.Keys())
	}
	if !reflect.DeepEqual(km.Stop.Keys(), []string{"x"}) {
		t.Errorf("Stop keys = %v, want default", km.Stop.Keys())
	}
}

func TestTimerKeyMap_Help(t *testing.T) {
	km := DefaultTimerKeyMap()
	if len(km.ShortHelp()) != 5 {
		t.Errorf("ShortHelp() has %d bindings, want 5", len(km.ShortHelp()))
	}
	total := 0
	for _, group := range km.FullHelp() {
		total += len(group)
	}
	if total != 5 {
		t.Errorf("FullHelp() has %d bindings, want 5", total)
	}
}
