// Package timer persists the single active study timer so it survives the
// process being suspended or killed. Progress is always derived from the
// stored wall-clock timestamps, never from a live counter.
package timer

import "time"

// Mode selects countdown or open-ended timing.
type Mode string

const (
	ModePomodoro Mode = "pomodoro"
	ModeCountup  Mode = "countup"
)

// SessionType is the pomodoro phase a timer belongs to.
type SessionType string

const (
	SessionWork       SessionType = "work"
	SessionShortBreak SessionType = "shortBreak"
	SessionLongBreak  SessionType = "longBreak"
)

// State is the persisted record of the active timer. Times are epoch
// milliseconds except TotalTime, which is seconds.
//
// While running, elapsed time is now-StartTime-PausedTime. While paused,
// PausedTime holds the banked run and StartTime is re-anchored on resume.
type State struct {
	IsRunning         bool        `json:"isRunning"`
	StartTime         int64       `json:"startTime"`
	PausedTime        int64       `json:"pausedTime"`
	TotalTime         int64       `json:"totalTime"`
	SessionType       SessionType `json:"sessionType"`
	Mode              Mode        `json:"mode"`
	SubjectID         string      `json:"subjectId"`
	CompletedSessions int         `json:"completedSessions"`
	TotalSessions     int         `json:"totalSessions"`
	DistractionCount  int         `json:"distractionCount"`

	LastSaveTime   int64 `json:"lastSaveTime,omitempty"`
	LastPauseTime  int64 `json:"lastPauseTime,omitempty"`
	Completed      bool  `json:"completed,omitempty"`
	CompletionTime int64 `json:"completionTime,omitempty"`
}

// Progress is a point-in-time reading of a timer. Durations are seconds.
type Progress struct {
	Remaining int64
	Elapsed   int64
	Completed bool
	State     State
}

// NewPomodoro builds a running countdown of the given length starting at now.
func NewPomodoro(now time.Time, length time.Duration, kind SessionType, subjectID string) State {
	return State{
		IsRunning:   true,
		StartTime:   now.UnixMilli(),
		TotalTime:   int64(length / time.Second),
		SessionType: kind,
		Mode:        ModePomodoro,
		SubjectID:   subjectID,
	}
}

// NewCountup builds a running open-ended timer starting at now.
func NewCountup(now time.Time, subjectID string) State {
	return State{
		IsRunning:   true,
		StartTime:   now.UnixMilli(),
		SessionType: SessionWork,
		Mode:        ModeCountup,
		SubjectID:   subjectID,
	}
}

// ElapsedMillis is the run length of st at now.
func (st State) ElapsedMillis(now time.Time) int64 {
	if !st.IsRunning {
		return st.PausedTime
	}
	ms := now.UnixMilli() - st.StartTime - st.PausedTime
	if ms < 0 {
		return 0
	}
	return ms
}

// Compute derives progress for st at now. Countup timers never complete.
func Compute(st State, now time.Time) Progress {
	elapsed := st.ElapsedMillis(now) / 1000
	p := Progress{Elapsed: elapsed, State: st}
	if st.Mode != ModePomodoro {
		return p
	}
	p.Remaining = max(0, st.TotalTime-elapsed)
	p.Completed = p.Remaining == 0
	return p
}
