package timer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"studytrack/internal/sanitize"
	"studytrack/internal/storage"
)

// DefaultPollInterval is how often a foreground poll checks for completion.
const DefaultPollInterval = time.Second

// ErrNoActiveTimer is returned by operations that need a persisted timer.
var ErrNoActiveTimer = errors.New("no active timer")

// Options configures a Store.
type Options struct {
	// Now is the wall clock. Defaults to time.Now.
	Now func() time.Time
	// Scheduler drives the completion poll. Defaults to a ticker.
	Scheduler Scheduler
	// ForegroundPolling arms the completion poll on Start and Resume. Hosts
	// that keep no background execution of their own need it.
	ForegroundPolling bool
	// PollInterval defaults to DefaultPollInterval.
	PollInterval time.Duration
	// OnComplete runs after a natural completion has been persisted.
	OnComplete func(State)
	Logger     *slog.Logger
}

// Store owns the single persisted timer slot. Construct one per process and
// pass it to whatever needs it.
type Store struct {
	kv   storage.KV
	opts Options
	log  *slog.Logger

	mu    sync.Mutex
	state *State
	stop  func()
	gen   uint64 // bumped on every arm/disarm so stale ticks can tell
}

// New creates a Store over kv.
func New(kv storage.KV, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewTickerScheduler()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, opts: opts, log: logger.With("component", "timer")}
}

// Save stamps st with the current time and overwrites the slot. Failures are
// logged; a lost background write must never take the caller down.
func (s *Store) Save(ctx context.Context, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked(ctx, st)
}

func (s *Store) saveLocked(ctx context.Context, st State) {
	st.LastSaveTime = s.opts.Now().UnixMilli()
	s.state = &st
	s.writeLocked(ctx, st)
}

func (s *Store) writeLocked(ctx context.Context, st State) {
	data, err := json.Marshal(st)
	if err != nil {
		s.log.Error("encode timer state", "err", err)
		return
	}
	if err := s.kv.Set(ctx, storage.TimerStateKey, string(data)); err != nil {
		s.log.Error("save timer state", "err", err)
	}
}

// Load reads the slot. A missing, placeholder or corrupted value yields no
// state; corrupted values are also cleared.
func (s *Store) Load(ctx context.Context) (*State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) (*State, bool) {
	raw, ok, err := s.kv.Get(ctx, storage.TimerStateKey)
	if err != nil {
		s.log.Error("load timer state", "err", err)
		return nil, false
	}
	if !ok || raw == "undefined" || raw == "null" {
		s.state = nil
		return nil, false
	}

	if sig, bad := sanitize.Match(raw, sanitize.StrictSignatures); bad {
		s.log.Warn("corrupted timer state, clearing", "signature", sig.Name)
		s.clearLocked(ctx)
		return nil, false
	}

	var st State
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &st); err != nil {
		s.log.Error("decode timer state, clearing", "err", err)
		s.clearLocked(ctx)
		return nil, false
	}
	s.state = &st
	cp := st
	return &cp, true
}

// Clear removes the slot. It is safe to call when nothing is stored.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(ctx)
}

func (s *Store) clearLocked(ctx context.Context) {
	s.state = nil
	if err := s.kv.Remove(ctx, storage.TimerStateKey); err != nil {
		s.log.Error("clear timer state", "err", err)
	}
}

// Start makes st the active timer, superseding any previous one and its poll.
func (s *Store) Start(ctx context.Context, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.saveLocked(ctx, st)
	s.log.Debug("timer started", "mode", st.Mode, "session", st.SessionType, "subject", st.SubjectID)
	if s.opts.ForegroundPolling {
		s.armLocked(ctx)
	} else {
		s.disarmLocked()
	}
}

// Pause banks the current run and stops the poll. Pausing a paused timer is
// a no-op.
func (s *Store) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.currentLocked(ctx)
	if !ok {
		return ErrNoActiveTimer
	}
	s.disarmLocked()
	if !st.IsRunning {
		return nil
	}

	now := s.opts.Now()
	st.PausedTime = st.ElapsedMillis(now)
	st.IsRunning = false
	st.LastPauseTime = now.UnixMilli()
	s.saveLocked(ctx, st)
	return nil
}

// Resume re-anchors StartTime so the banked run keeps counting from now.
func (s *Store) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.currentLocked(ctx)
	if !ok {
		return ErrNoActiveTimer
	}
	if !st.IsRunning {
		st.StartTime = s.opts.Now().UnixMilli() - st.PausedTime
		st.PausedTime = 0
		st.IsRunning = true
		s.saveLocked(ctx, st)
	}
	if s.opts.ForegroundPolling {
		s.armLocked(ctx)
	}
	return nil
}

// Stop cancels the poll and clears the slot.
func (s *Store) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked()
	s.clearLocked(ctx)
}

// Watch arms the completion poll for an already persisted running
// countdown, regardless of ForegroundPolling. It reports whether a poll was
// armed.
func (s *Store) Watch(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.currentLocked(ctx)
	if !ok || !st.IsRunning || st.Mode != ModePomodoro || st.Completed {
		return false
	}
	s.armLocked(ctx)
	return true
}

// Unwatch stops the poll without touching the slot.
func (s *Store) Unwatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disarmLocked()
}

// Progress loads the slot and derives elapsed/remaining time at now.
func (s *Store) Progress(ctx context.Context) (*Progress, bool) {
	st, ok := s.Load(ctx)
	if !ok {
		return nil, false
	}
	p := Compute(*st, s.opts.Now())
	return &p, true
}

// AddDistraction bumps the distraction counter of the active timer.
func (s *Store) AddDistraction(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.currentLocked(ctx)
	if !ok {
		return ErrNoActiveTimer
	}
	st.DistractionCount++
	s.saveLocked(ctx, st)
	return nil
}

// IsActive reports whether the in-memory timer is running.
func (s *Store) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != nil && s.state.IsRunning
}

// Finish records the active work timer as a study session in repo and then
// stops it. Break timers and runs shorter than half a minute are stopped
// without recording; the returned session is nil in that case.
func (s *Store) Finish(ctx context.Context, repo *storage.Storage) (*storage.Session, error) {
	s.mu.Lock()
	st, ok := s.currentLocked(ctx)
	s.mu.Unlock()
	if !ok {
		return nil, ErrNoActiveTimer
	}

	now := s.opts.Now()
	elapsed := st.ElapsedMillis(now)
	if st.Mode == ModePomodoro {
		elapsed = min(elapsed, st.TotalTime*1000)
	}
	minutes := math.Round(float64(elapsed)/60000*10) / 10

	var session *storage.Session
	if st.SessionType == SessionWork && minutes >= 0.5 {
		end := now
		if st.Completed && st.CompletionTime > 0 {
			end = time.UnixMilli(st.CompletionTime)
		}
		start := end.Add(-time.Duration(elapsed) * time.Millisecond)
		session = &storage.Session{
			ID:          uuid.NewString(),
			SubjectID:   st.SubjectID,
			SubjectName: subjectName(ctx, repo, st.SubjectID),
			StartTime:   start.UTC().Format(storage.ISOMillis),
			EndTime:     end.UTC().Format(storage.ISOMillis),
			Duration:    minutes,
			Date:        start.Format("2006-01-02"),
		}
		if err := repo.AppendSession(ctx, *session); err != nil {
			return nil, err
		}
		s.log.Info("session recorded", "id", session.ID, "subject", st.SubjectID, "minutes", minutes)
	}

	s.Stop(ctx)
	return session, nil
}

func subjectName(ctx context.Context, repo *storage.Storage, id string) string {
	v, err := repo.ReadBucket(ctx, storage.BucketSubjects)
	if err != nil {
		return ""
	}
	for _, subj := range storage.DecodeList[storage.Subject](storage.AsList(v)) {
		if subj.ID == id {
			return subj.Name
		}
	}
	return ""
}

// currentLocked re-reads the slot so changes made by another process are not
// overwritten with this process's copy.
func (s *Store) currentLocked(ctx context.Context) (State, bool) {
	st, ok := s.loadLocked(ctx)
	if !ok {
		return State{}, false
	}
	return *st, true
}

func (s *Store) armLocked(ctx context.Context) {
	s.disarmLocked()
	gen := s.gen
	tickCtx := context.WithoutCancel(ctx)
	s.stop = s.opts.Scheduler.Every(s.opts.PollInterval, func() {
		s.tick(tickCtx, gen)
	})
}

func (s *Store) disarmLocked() {
	s.gen++
	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
}

// tick re-stamps the slot and, once a countdown runs out, persists the
// completion marker and stops polling. A slot that was stopped, paused or
// completed elsewhere stops the poll without writing.
func (s *Store) tick(ctx context.Context, gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	cur, ok := s.loadLocked(ctx)
	if !ok {
		// Nil state means the slot is gone; otherwise the read failed and
		// the next tick retries.
		if s.state == nil {
			s.disarmLocked()
		}
		s.mu.Unlock()
		return
	}
	if cur.Mode != ModePomodoro || !cur.IsRunning || cur.Completed {
		s.disarmLocked()
		s.mu.Unlock()
		return
	}

	now := s.opts.Now()
	st := *cur
	st.LastSaveTime = now.UnixMilli()
	s.state = &st
	s.writeLocked(ctx, st)

	p := Compute(st, now)
	if !p.Completed {
		s.mu.Unlock()
		return
	}

	s.disarmLocked()
	st.Completed = true
	st.CompletionTime = now.UnixMilli()
	s.state = &st
	s.writeLocked(ctx, st)
	s.log.Info("timer completed", "session", st.SessionType, "subject", st.SubjectID)
	onComplete := s.opts.OnComplete
	s.mu.Unlock()

	if onComplete != nil {
		onComplete(st)
	}
}
