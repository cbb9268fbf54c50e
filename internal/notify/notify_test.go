package notify

import (
	"errors"
	"os"
	"strings"
	"testing"

	"studytrack/internal/timer"
)

type recordingNotifier struct {
	title, message string
	sound          bool
	err            error
}

func (r *recordingNotifier) Send(title, message string) error {
	r.title, r.message = title, message
	return r.err
}

func (r *recordingNotifier) SendWithSound(title, message string) error {
	r.title, r.message, r.sound = title, message, true
	return r.err
}

func (r *recordingNotifier) IsSupported() bool { return true }

// TestNew tests that New() returns a valid notifier.
func TestNew(t *testing.T) {
	if New() == nil {
		t.Error("New() returned nil")
	}
}

func TestCompletionMessage(t *testing.T) {
	tests := []struct {
		name      string
		state     timer.State
		wantTitle string
		wantParts []string
	}{
		{
			name:      "work",
			state:     timer.State{SessionType: timer.SessionWork, TotalTime: 25 * 60},
			wantTitle: "Pomodoro complete",
			wantParts: []string{"25m0s"},
		},
		{
			name:      "work with distractions",
			state:     timer.State{SessionType: timer.SessionWork, TotalTime: 50 * 60, DistractionCount: 3},
			wantTitle: "Pomodoro complete",
			wantParts: []string{"50m0s", "Distractions: 3"},
		},
		{
			name:      "short break",
			state:     timer.State{SessionType: timer.SessionShortBreak, TotalTime: 5 * 60},
			wantTitle: "Break over",
			wantParts: []string{"5m0s"},
		},
		{
			name:      "long break",
			state:     timer.State{SessionType: timer.SessionLongBreak, TotalTime: 15 * 60},
			wantTitle: "Break over",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, msg := CompletionMessage(tt.state)
			if title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
			for _, part := range tt.wantParts {
				if !strings.Contains(msg, part) {
					t.Errorf("message %q missing %q", msg, part)
				}
			}
		})
	}
}

func TestTimerCompleted(t *testing.T) {
	n := &recordingNotifier{}
	st := timer.State{SessionType: timer.SessionWork, TotalTime: 60}
	if err := TimerCompleted(n, st); err != nil {
		t.Fatalf("TimerCompleted() error = %v", err)
	}
	if !n.sound {
		t.Error("completion should use the sound variant")
	}
	if n.title != "Pomodoro complete" {
		t.Errorf("title = %q", n.title)
	}

	n.err = errors.New("daemon down")
	if err := TimerCompleted(n, st); err == nil {
		t.Error("TimerCompleted() should surface notifier errors")
	}
}

func TestCommandNotifier(t *testing.T) {
	var calls [][]string
	var failWith error
	orig := runCommand
	runCommand = func(name string, args ...string) error {
		calls = append(calls, append([]string{name}, args...))
		return failWith
	}
	t.Cleanup(func() { runCommand = orig })

	n := &commandNotifier{bin: "notifier", args: func(title, message string, sound bool) []string {
		if sound {
			return []string{"--loud", title, message}
		}
		return []string{title, message}
	}}

	if err := n.Send("T", "M"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if err := n.SendWithSound("T", "M"); err != nil {
		t.Fatalf("SendWithSound() error = %v", err)
	}
	want := [][]string{{"notifier", "T", "M"}, {"notifier", "--loud", "T", "M"}}
	if len(calls) != 2 || strings.Join(calls[0], " ") != strings.Join(want[0], " ") || strings.Join(calls[1], " ") != strings.Join(want[1], " ") {
		t.Errorf("calls = %q, want %q", calls, want)
	}

	failWith = errors.New("exit status 1")
	if err := n.Send("T", "M"); err == nil || !strings.Contains(err.Error(), "notifier failed") {
		t.Errorf("Send() error = %v, want wrapped failure", err)
	}

	if (&commandNotifier{bin: "studytrack-no-such-notifier"}).IsSupported() {
		t.Error("missing binary reported as supported")
	}
}

func TestNoopNotifier(t *testing.T) {
	n := noopNotifier{}
	if n.IsSupported() {
		t.Error("noop notifier claims support")
	}
	if err := n.SendWithSound("a", "b"); err != nil {
		t.Errorf("SendWithSound() error = %v", err)
	}
}

// TestSend tests sending a real notification.
// This is a manual test - it will actually show a notification.
func TestSend(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping notification test in short mode")
	}
	if os.Getenv("RUN_NOTIFY_TESTS") != "1" {
		t.Skip("Skipping manual notification test (set RUN_NOTIFY_TESTS=1 to enable)")
	}

	n := New()
	if !n.IsSupported() {
		t.Skip("Notifications not supported on this platform")
	}
	if err := n.Send("studytrack test", "This is a test notification"); err != nil {
		t.Errorf("Send() error: %v", err)
	}
}
