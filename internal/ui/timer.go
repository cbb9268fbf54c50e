package ui

import (
	"context"
	"fmt"
	"strings"

	"studytrack/internal/config"
	"studytrack/internal/output"
	"studytrack/internal/storage"
	"studytrack/internal/timer"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

const barWidth = 30

// TimerModel renders the persisted timer live and forwards key presses to
// the store. Closing the view leaves the timer running.
type TimerModel struct {
	ctx    context.Context
	store  *timer.Store
	repo   *storage.Storage
	styles *Styles
	keys   TimerKeyMap
	footer help.Model
	help   *HelpOverlay

	progress *timer.Progress
	loaded   bool
	showHelp bool
	width    int
	height   int

	status   string
	err      error
	finished bool
	session  *storage.Session
}

// NewTimerModel creates a view over store. repo receives the session when
// the timer is finished from the view; nil discards it.
func NewTimerModel(ctx context.Context, store *timer.Store, repo *storage.Storage, styles *Styles, keyCfg *config.KeysConfig) *TimerModel {
	if styles == nil {
		styles = NewStylesFromTheme(nil)
	}
	keys := NewTimerKeyMap(keyCfg)
	footer := help.New()
	footer.Styles.ShortKey = styles.HelpKeyStyle
	footer.Styles.ShortDesc = styles.HelpStyle
	footer.Styles.ShortSeparator = styles.HelpStyle
	return &TimerModel{
		ctx:    ctx,
		store:  store,
		repo:   repo,
		styles: styles,
		keys:   keys,
		footer: footer,
		help:   NewHelpOverlay(styles, keys),
	}
}

// Init loads the timer and starts the redraw tick.
func (m *TimerModel) Init() tea.Cmd {
	return tea.Batch(loadProgressCmd(m.ctx, m.store), tickCmd())
}

// Update handles messages for the timer view.
func (m *TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetSize(msg.Width, msg.Height)
		m.footer.Width = max(0, msg.Width-6)
		return m, nil

	case tickMsg:
		if m.finished {
			return m, nil
		}
		return m, tea.Batch(loadProgressCmd(m.ctx, m.store), tickCmd())

	case progressLoadedMsg:
		m.loaded = true
		if msg.ok {
			m.progress = msg.progress
		} else {
			m.progress = nil
		}
		return m, nil

	case timerChangedMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.status = msg.action
		}
		return m, loadProgressCmd(m.ctx, m.store)

	case timerFinishedMsg:
		m.finished = true
		m.progress = nil
		m.session = msg.session
		m.err = msg.err
		return m, tea.Quit

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *TimerModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		return tea.Quit
	}
	if key.Matches(msg, m.keys.Help) {
		m.showHelp = !m.showHelp
		return nil
	}
	if m.showHelp {
		if msg.Type == tea.KeyEsc {
			m.showHelp = false
		}
		return nil
	}
	if m.progress == nil {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Toggle):
		if m.progress.Completed {
			return nil
		}
		return toggleCmd(m.ctx, m.store, m.progress.State.IsRunning)
	case key.Matches(msg, m.keys.Stop):
		return finishCmd(m.ctx, m.store, m.repo)
	case key.Matches(msg, m.keys.Distraction):
		return distractionCmd(m.ctx, m.store)
	}
	return nil
}

// Session returns the session recorded when the view finished the timer.
func (m *TimerModel) Session() *storage.Session {
	return m.session
}

// Err returns the last error reported by the store.
func (m *TimerModel) Err() error {
	return m.err
}

// View renders the timer view.
func (m *TimerModel) View() string {
	if m.showHelp {
		return m.help.View()
	}

	var b strings.Builder
	b.WriteString(m.styles.PaneTitleStyle.Render("⏱  STUDY TIMER"))
	b.WriteString("\n\n")

	switch {
	case !m.loaded:
		b.WriteString("  " + m.styles.StatLabelStyle.Render("Loading..."))
		b.WriteString("\n")
	case m.progress == nil:
		b.WriteString("  " + m.styles.StatLabelStyle.Render("■ No active timer"))
		b.WriteString("\n\n")
		b.WriteString("  " + m.styles.StatLabelStyle.Render("Start one with: studytrack timer start"))
		b.WriteString("\n")
	default:
		m.renderProgress(&b, *m.progress)
	}

	if m.err != nil {
		b.WriteString("\n  " + m.styles.ErrorStyle.Render("Error: "+m.err.Error()))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString("\n  " + m.styles.StatusStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	b.WriteString(m.footer.View(m.keys))

	style := m.styles.PaneStyle
	if m.width > 0 {
		style = style.Width(max(20, m.width-2))
	}
	return style.Render(b.String())
}

func (m *TimerModel) renderProgress(b *strings.Builder, p timer.Progress) {
	st := p.State

	label := m.styles.SessionStyle(st.SessionType).Render(SessionLabel(st.SessionType))
	fmt.Fprintf(b, "  %s  %s\n", label, m.styles.StatLabelStyle.Render(string(st.Mode)))

	clock := output.Clock(p.Elapsed)
	if st.Mode == timer.ModePomodoro {
		clock = output.Clock(p.Remaining)
	}
	indicator, clockStyle := "▶", m.styles.ClockRunningStyle
	switch {
	case p.Completed:
		indicator, clockStyle = "✓", m.styles.ClockDoneStyle
	case !st.IsRunning:
		indicator, clockStyle = "⏸", m.styles.ClockPausedStyle
	}
	fmt.Fprintf(b, "\n  %s %s\n", clockStyle.Render(indicator), clockStyle.Render(clock))

	if st.Mode == timer.ModePomodoro {
		filled := barCells(p.Elapsed, st.TotalTime, barWidth)
		bar := m.styles.BarFilledStyle.Render(strings.Repeat("█", filled)) +
			m.styles.BarEmptyStyle.Render(strings.Repeat("░", barWidth-filled))
		fmt.Fprintf(b, "  %s\n", bar)
	}

	b.WriteString("\n")
	if st.SubjectID != "" {
		b.WriteString("  " + m.styles.StatLabelStyle.Render("Subject:      ") + m.styles.StatValueStyle.Render(st.SubjectID) + "\n")
	}
	b.WriteString("  " + m.styles.StatLabelStyle.Render("Distractions: ") + m.styles.StatValueStyle.Render(fmt.Sprint(st.DistractionCount)) + "\n")
	if st.TotalSessions > 0 {
		b.WriteString("  " + m.styles.StatLabelStyle.Render("Pomodoros:    ") +
			m.styles.StatValueStyle.Render(fmt.Sprintf("%d/%d", st.CompletedSessions, st.TotalSessions)) + "\n")
	}
	if p.Completed {
		b.WriteString("\n  " + m.styles.ClockDoneStyle.Render("Time's up! Press "+m.keys.Stop.Help().Key+" to record it."))
		b.WriteString("\n")
	}
}

// SessionLabel is the human name of a pomodoro phase.
func SessionLabel(kind timer.SessionType) string {
	switch kind {
	case timer.SessionShortBreak:
		return "Short break"
	case timer.SessionLongBreak:
		return "Long break"
	default:
		return "Focus"
	}
}

// barCells is how many of width cells are filled after elapsed of total
// seconds.
func barCells(elapsed, total int64, width int) int {
	if total <= 0 || elapsed <= 0 {
		return 0
	}
	if elapsed >= total {
		return width
	}
	return int(elapsed * int64(width) / total)
}

// Run opens the live timer view and blocks until it is closed. It returns
// the model so callers can report what happened.
func Run(ctx context.Context, store *timer.Store, repo *storage.Storage, styles *Styles, keyCfg *config.KeysConfig) (*TimerModel, error) {
	m := NewTimerModel(ctx, store, repo, styles, keyCfg)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		// interrupted; the timer itself is untouched
		err = nil
	}
	return m, err
}
