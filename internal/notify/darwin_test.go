//go:build darwin

package notify

import "testing"

func TestAppleString(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello", `"Hello"`},
		{`Hello "World"`, `"Hello \"World\""`},
		{`Path\to\file`, `"Path\\to\\file"`},
		{`Mix "quote" and \slash`, `"Mix \"quote\" and \\slash"`},
	}

	for _, tc := range tests {
		if got := appleString(tc.input); got != tc.expected {
			t.Errorf("appleString(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestOsascriptArgs(t *testing.T) {
	args := osascriptArgs(`Say "hi"`, "Body", true)
	if len(args) != 2 || args[0] != "-e" {
		t.Fatalf("args = %q", args)
	}
	want := `display notification "Body" with title "Say \"hi\"" subtitle "studytrack" sound name "Glass"`
	if args[1] != want {
		t.Errorf("script = %q, want %q", args[1], want)
	}

	if quiet := osascriptArgs("t", "m", false); quiet[1] != `display notification "m" with title "t" subtitle "studytrack"` {
		t.Errorf("quiet script = %q", quiet[1])
	}
}
