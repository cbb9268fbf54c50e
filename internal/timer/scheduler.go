package timer

import (
	"sync"
	"time"
)

// Scheduler runs fn every d until the returned stop func is called. stop
// must not block, since it may be called from inside fn.
type Scheduler interface {
	Every(d time.Duration, fn func()) (stop func())
}

type tickerScheduler struct{}

// NewTickerScheduler returns a Scheduler backed by time.Ticker.
func NewTickerScheduler() Scheduler {
	return tickerScheduler{}
}

func (tickerScheduler) Every(d time.Duration, fn func()) func() {
	t := time.NewTicker(d)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				fn()
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }
}
