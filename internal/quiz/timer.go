package quiz

import (
	"sync"
	"time"
)

// Scheduler starts a repeating tick. The returned stop function must be
// safe to call more than once and must not wait for an in-flight tick.
type Scheduler interface {
	Every(interval time.Duration, tick func()) (stop func())
}

// ClockScheduler ticks on wall-clock time.
type ClockScheduler struct{}

func (ClockScheduler) Every(interval time.Duration, tick func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				tick()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
	}
}
