package ui

import (
	"context"
	"time"

	"studytrack/internal/storage"
	"studytrack/internal/timer"

	tea "github.com/charmbracelet/bubbletea"
)

// tickCmd schedules the next once-a-second redraw.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// loadProgressCmd reads the timer slot and derives progress.
func loadProgressCmd(ctx context.Context, store *timer.Store) tea.Cmd {
	return func() tea.Msg {
		p, ok := store.Progress(ctx)
		return progressLoadedMsg{progress: p, ok: ok}
	}
}

// toggleCmd pauses a running timer or resumes a paused one.
func toggleCmd(ctx context.Context, store *timer.Store, running bool) tea.Cmd {
	return func() tea.Msg {
		if running {
			return timerChangedMsg{action: "paused", err: store.Pause(ctx)}
		}
		return timerChangedMsg{action: "resumed", err: store.Resume(ctx)}
	}
}

// distractionCmd bumps the distraction counter.
func distractionCmd(ctx context.Context, store *timer.Store) tea.Cmd {
	return func() tea.Msg {
		return timerChangedMsg{action: "distraction noted", err: store.AddDistraction(ctx)}
	}
}

// finishCmd records the session (when repo is set) and clears the slot.
func finishCmd(ctx context.Context, store *timer.Store, repo *storage.Storage) tea.Cmd {
	return func() tea.Msg {
		if repo == nil {
			store.Stop(ctx)
			return timerFinishedMsg{}
		}
		session, err := store.Finish(ctx, repo)
		return timerFinishedMsg{session: session, err: err}
	}
}
