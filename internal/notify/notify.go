// Package notify provides cross-platform desktop notification support.
// It uses native notification mechanisms on macOS (osascript) and Linux (notify-send).
package notify

import (
	"fmt"
	"os/exec"
	"time"

	"studytrack/internal/timer"
)

// AppName is shown as the notification source where the platform supports it.
const AppName = "studytrack"

// Notifier defines the interface for sending desktop notifications.
type Notifier interface {
	// Send sends a notification with the given title and message.
	Send(title, message string) error

	// SendWithSound sends a notification with sound.
	SendWithSound(title, message string) error

	// IsSupported returns true if notifications are supported on this platform.
	IsSupported() bool
}

// runCommand executes a notifier binary. Tests replace it.
var runCommand = func(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// commandNotifier delivers notifications through an external binary. The
// platform files supply the binary and its argument builder.
type commandNotifier struct {
	bin  string
	args func(title, message string, sound bool) []string
}

func (n *commandNotifier) Send(title, message string) error {
	return n.run(title, message, false)
}

func (n *commandNotifier) SendWithSound(title, message string) error {
	return n.run(title, message, true)
}

func (n *commandNotifier) IsSupported() bool {
	_, err := exec.LookPath(n.bin)
	return err == nil
}

func (n *commandNotifier) run(title, message string, sound bool) error {
	if err := runCommand(n.bin, n.args(title, message, sound)...); err != nil {
		return fmt.Errorf("%s failed: %w", n.bin, err)
	}
	return nil
}

type noopNotifier struct{}

func (noopNotifier) Send(string, string) error          { return nil }
func (noopNotifier) SendWithSound(string, string) error { return nil }
func (noopNotifier) IsSupported() bool                  { return false }

// New returns the platform notifier, or a no-op one when the platform has
// no usable notification command.
func New() Notifier {
	if n := newPlatformNotifier(); n != nil && n.IsSupported() {
		return n
	}
	return noopNotifier{}
}

// CompletionMessage builds the title and body announcing that st finished.
func CompletionMessage(st timer.State) (title, message string) {
	length := time.Duration(st.TotalTime) * time.Second
	switch st.SessionType {
	case timer.SessionShortBreak, timer.SessionLongBreak:
		title = "Break over"
		message = fmt.Sprintf("Your %s break is up. Time to get back to it.", length)
	default:
		title = "Pomodoro complete"
		message = fmt.Sprintf("%s of focused study done.", length)
		if st.DistractionCount > 0 {
			message += fmt.Sprintf(" Distractions: %d.", st.DistractionCount)
		}
	}
	return title, message
}

// TimerCompleted announces a finished timer with sound.
func TimerCompleted(n Notifier, st timer.State) error {
	title, message := CompletionMessage(st)
	return n.SendWithSound(title, message)
}
