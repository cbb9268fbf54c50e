package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	"studytrack/internal/config"
	"studytrack/internal/storage"
	"studytrack/internal/timer"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// setupTest prepares the test environment for deterministic rendering.
// It disables colors so assertions can match plain text.
func setupTest(t *testing.T) {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// idleScheduler never fires; the view drives its own ticks.
type idleScheduler struct{}

func (idleScheduler) Every(time.Duration, func()) func() { return func() {} }

type testEnv struct {
	ctx   context.Context
	kv    *storage.MemoryKV
	clock *fakeClock
	store *timer.Store
	repo  *storage.Storage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	kv := storage.NewMemoryKV()
	clock := &fakeClock{t: time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)}
	return &testEnv{
		ctx:   context.Background(),
		kv:    kv,
		clock: clock,
		store: timer.New(kv, timer.Options{Now: clock.Now, Scheduler: idleScheduler{}}),
		repo:  storage.New(kv, storage.Guest),
	}
}

// createTestStyles creates a default Styles instance for testing.
func createTestStyles() *Styles {
	return NewStylesFromTheme(&config.ThemeConfig{})
}

// run executes cmd and feeds the resulting message back into m, the way
// the Bubble Tea runtime would. Batches and ticks are not followed.
func run(m *TimerModel, cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	m.Update(msg)
	return msg
}
