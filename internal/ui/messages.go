// This file defines the message types returned by the view's commands. All
// store reads and writes happen inside commands so Update never blocks.

package ui

import (
	"time"

	"studytrack/internal/storage"
	"studytrack/internal/timer"
)

// tickMsg is sent once a second while the view is open.
type tickMsg time.Time

// progressLoadedMsg carries a fresh reading of the persisted timer.
type progressLoadedMsg struct {
	progress *timer.Progress
	ok       bool
}

// timerChangedMsg is sent after pause, resume or a distraction is stored.
type timerChangedMsg struct {
	action string
	err    error
}

// timerFinishedMsg is sent once the timer has been finished and cleared.
type timerFinishedMsg struct {
	session *storage.Session
	err     error
}
