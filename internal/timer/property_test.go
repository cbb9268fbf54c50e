package timer

import (
	"context"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestProgressLaw(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("pomodoro progress tracks wall-clock delta", prop.ForAll(
		func(total, delta int64) bool {
			h := newHarness(t, false, nil)
			ctx := context.Background()

			h.store.Save(ctx, NewPomodoro(h.clock.Now(), time.Duration(total)*time.Second, SessionWork, "x"))
			h.clock.Advance(time.Duration(delta) * time.Second)

			p, ok := h.store.Progress(ctx)
			if !ok {
				return false
			}
			if delta < total {
				return p.Elapsed == delta && p.Remaining == total-delta && !p.Completed
			}
			return p.Remaining == 0 && p.Completed
		},
		gen.Int64Range(1, 4*3600),
		gen.Int64Range(0, 8*3600),
	))

	properties.TestingRun(t)
}

func TestPauseResumeIdempotent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("pause then immediate resume leaves progress unchanged", prop.ForAll(
		func(runMillis int64, countup bool) bool {
			h := newHarness(t, false, nil)
			ctx := context.Background()

			st := NewPomodoro(h.clock.Now(), 50*time.Minute, SessionWork, "x")
			if countup {
				st = NewCountup(h.clock.Now(), "x")
			}
			h.store.Start(ctx, st)
			h.clock.Advance(time.Duration(runMillis) * time.Millisecond)

			before, _ := h.store.Progress(ctx)
			if err := h.store.Pause(ctx); err != nil {
				return false
			}
			if err := h.store.Resume(ctx); err != nil {
				return false
			}
			after, _ := h.store.Progress(ctx)

			return before.Elapsed == after.Elapsed &&
				before.Remaining == after.Remaining &&
				before.Completed == after.Completed
		},
		gen.Int64Range(0, 2*3600*1000),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
