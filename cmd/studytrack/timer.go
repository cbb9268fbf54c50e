// This file contains the timer subcommand handler.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"studytrack/internal/output"
	"studytrack/internal/timer"
	"studytrack/internal/ui"
)

// timerHelpText is the help message for the timer subcommand.
const timerHelpText = `studytrack timer - Run the persisted study timer

USAGE:
    studytrack timer <action> [OPTIONS]

ACTIONS:
    start         Start a new timer, replacing any active one
    status        Show the active timer
    pause         Pause the active timer
    resume        Resume a paused timer
    distraction   Count a distraction
    stop          Finish the timer and record the study session
    watch         Open the live timer view
    clear         Drop the active timer without recording it

START OPTIONS:
    -m, --minutes N      Countdown length in minutes (default from config)
    -c, --countup        Count up with no end instead
    -b, --break KIND     Run a break: short or long
    -s, --subject ID     Subject the session counts towards
    -w, --watch          Open the live view after starting

STOP OPTIONS:
    --discard            Clear the timer without recording a session

DESCRIPTION:
    Only one timer exists at a time. It is stored with wall-clock
    timestamps, so it keeps counting while studytrack is not running and
    survives restarts. Work timers of at least half a minute are recorded
    as study sessions when stopped; breaks are not.

EXAMPLES:
    studytrack timer start
    studytrack timer start -m 50 -s anatomy --watch
    studytrack timer start --break short
    studytrack timer status
    studytrack timer stop
`

// runTimer handles the "studytrack timer" subcommand.
func runTimer(args []string) {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Print(timerHelpText)
		if len(args) == 0 {
			os.Exit(1)
		}
		os.Exit(0)
	}

	action, rest := args[0], args[1:]
	switch action {
	case "start":
		timerStart(rest)
	case "status":
		withTimer(func(ctx context.Context, e *env, store *timer.Store) { timerStatus(ctx, e, store) })
	case "pause":
		withTimer(func(ctx context.Context, e *env, store *timer.Store) {
			e.exitOnTimerErr(store.Pause(ctx))
			e.out.Success("Timer paused")
		})
	case "resume":
		withTimer(func(ctx context.Context, e *env, store *timer.Store) {
			e.exitOnTimerErr(store.Resume(ctx))
			e.out.Success("Timer resumed")
		})
	case "distraction":
		withTimer(func(ctx context.Context, e *env, store *timer.Store) {
			e.exitOnTimerErr(store.AddDistraction(ctx))
			st, _ := store.Load(ctx)
			e.out.Success("Distraction noted (%d so far)", st.DistractionCount)
		})
	case "stop":
		timerStop(rest)
	case "watch":
		withTimer(timerWatch)
	case "clear":
		withTimer(func(ctx context.Context, e *env, store *timer.Store) {
			store.Clear(ctx)
			e.out.Success("Timer cleared")
		})
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown timer action %q\n\n", action)
		fmt.Fprint(os.Stderr, timerHelpText)
		os.Exit(1)
	}
}

func withTimer(fn func(ctx context.Context, e *env, store *timer.Store)) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	e := openEnv("")
	defer e.close()
	fn(ctx, e, e.timerStore())
}

func (e *env) exitOnTimerErr(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, timer.ErrNoActiveTimer) {
		fmt.Fprintln(os.Stderr, "No active timer.")
		fmt.Fprintln(os.Stderr, "Run 'studytrack timer start' to begin one.")
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	e.exit(1)
}

// startOptions are the parsed "timer start" flags.
type startOptions struct {
	minutes int
	countup bool
	kind    string
	subject string
	watch   bool
}

// newTimerState builds the state a start request describes.
func newTimerState(now time.Time, o startOptions) (timer.State, error) {
	if o.countup {
		return timer.NewCountup(now, o.subject), nil
	}
	if o.minutes <= 0 {
		return timer.State{}, fmt.Errorf("minutes must be positive, got %d", o.minutes)
	}
	kind := timer.SessionWork
	switch o.kind {
	case "":
	case "short":
		kind = timer.SessionShortBreak
	case "long":
		kind = timer.SessionLongBreak
	default:
		return timer.State{}, fmt.Errorf("unknown break kind %q (want short or long)", o.kind)
	}
	return timer.NewPomodoro(now, time.Duration(o.minutes)*time.Minute, kind, o.subject), nil
}

func timerStart(args []string) {
	fs := flag.NewFlagSet("timer start", flag.ExitOnError)

	minutesFlag := fs.Int("minutes", 0, "countdown length in minutes")
	fs.IntVar(minutesFlag, "m", 0, "countdown length (shorthand)")

	countupFlag := fs.Bool("countup", false, "count up with no end")
	fs.BoolVar(countupFlag, "c", false, "count up (shorthand)")

	breakFlag := fs.String("break", "", "run a short or long break")
	fs.StringVar(breakFlag, "b", "", "run a break (shorthand)")

	subjectFlag := fs.String("subject", "", "subject the session counts towards")
	fs.StringVar(subjectFlag, "s", "", "subject (shorthand)")

	watchFlag := fs.Bool("watch", false, "open the live view after starting")
	fs.BoolVar(watchFlag, "w", false, "open the live view (shorthand)")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, timerHelpText)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	withTimer(func(ctx context.Context, e *env, store *timer.Store) {
		opts := startOptions{
			minutes: *minutesFlag,
			countup: *countupFlag,
			kind:    *breakFlag,
			subject: *subjectFlag,
			watch:   *watchFlag,
		}
		if opts.minutes == 0 {
			opts.minutes = e.cfg.Timer.DefaultMinutes
		}

		st, err := newTimerState(time.Now(), opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			e.exit(1)
		}
		if prev, ok := store.Load(ctx); ok && !prev.Completed {
			e.out.Warning("Replacing the active %s timer", ui.SessionLabel(prev.SessionType))
		}
		store.Start(ctx, st)

		if st.Mode == timer.ModeCountup {
			e.out.Success("Started count-up timer")
		} else {
			e.out.Success("Started %s timer (%s)", ui.SessionLabel(st.SessionType), output.Clock(st.TotalTime))
		}
		if opts.watch {
			timerWatch(ctx, e, store)
		}
	})
}

func timerStatus(ctx context.Context, e *env, store *timer.Store) {
	p, ok := store.Progress(ctx)
	if !ok {
		e.out.Info("No active timer.")
		return
	}
	st := p.State

	state := output.Green("running")
	switch {
	case p.Completed:
		state = output.Cyan("complete")
	case !st.IsRunning:
		state = output.Yellow("paused")
	}

	fmt.Fprintf(e.out.Out, "%s %s timer, %s\n", output.SessionColor(string(st.SessionType)), st.Mode, state)
	if st.Mode == timer.ModePomodoro {
		fmt.Fprintf(e.out.Out, "  Remaining:    %s of %s\n", output.Clock(p.Remaining), output.Clock(st.TotalTime))
	}
	fmt.Fprintf(e.out.Out, "  Elapsed:      %s\n", output.Clock(p.Elapsed))
	if st.SubjectID != "" {
		fmt.Fprintf(e.out.Out, "  Subject:      %s\n", st.SubjectID)
	}
	fmt.Fprintf(e.out.Out, "  Distractions: %d\n", st.DistractionCount)
	if p.Completed {
		fmt.Fprintln(e.out.Out, "Run 'studytrack timer stop' to record it.")
	}
}

func timerStop(args []string) {
	fs := flag.NewFlagSet("timer stop", flag.ExitOnError)
	discardFlag := fs.Bool("discard", false, "clear the timer without recording a session")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, timerHelpText)
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	withTimer(func(ctx context.Context, e *env, store *timer.Store) {
		if *discardFlag {
			if _, ok := store.Load(ctx); !ok {
				e.exitOnTimerErr(timer.ErrNoActiveTimer)
			}
			store.Stop(ctx)
			e.out.Success("Timer discarded")
			return
		}

		session, err := store.Finish(ctx, e.repo)
		e.exitOnTimerErr(err)
		if session == nil {
			e.out.Success("Timer stopped (nothing recorded)")
			return
		}
		e.out.Success("Recorded %.1f minute session", session.Duration)
		if session.SubjectName != "" {
			e.out.VerboseLog("subject: %s", session.SubjectName)
		}
	})
}

// timerWatch opens the live view and arms the completion poll for it.
func timerWatch(ctx context.Context, e *env, store *timer.Store) {
	if _, ok := store.Load(ctx); !ok {
		e.exitOnTimerErr(timer.ErrNoActiveTimer)
	}
	store.Watch(ctx)
	defer store.Unwatch()

	m, err := ui.Run(ctx, store, e.repo, ui.NewStyles(e.cfg), &e.cfg.Keys)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running timer view: %v\n", err)
		e.exit(1)
	}
	if err := m.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		e.exit(1)
	}
	if s := m.Session(); s != nil {
		e.out.Success("Recorded %.1f minute session", s.Duration)
	}
}
