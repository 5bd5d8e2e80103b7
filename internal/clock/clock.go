// Package clock schedules recurring and one-shot callbacks behind a small
// interface so that timer-driven game logic can run against a virtual clock.
package clock

import (
	"sync"
	"time"
)

// Timer is a cancellation token for a scheduled callback
type Timer interface {
	// Stop cancels the callback. It never blocks on a running callback and
	// is safe to call more than once.
	Stop()
}

// Clock schedules callbacks
type Clock interface {
	Now() time.Time
	Every(period time.Duration, fn func()) Timer
	After(delay time.Duration, fn func()) Timer
}

// Real is a Clock backed by the runtime timers
type Real struct{}

// New returns the wall clock
func New() Clock {
	return Real{}
}

// Now returns the current time
func (Real) Now() time.Time {
	return time.Now()
}

type tickerTimer struct {
	ticker   *time.Ticker
	stopChan chan struct{}
	once     sync.Once
}

// Every runs fn on its own goroutine every period until the timer is stopped
func (Real) Every(period time.Duration, fn func()) Timer {
	t := &tickerTimer{
		ticker:   time.NewTicker(period),
		stopChan: make(chan struct{}),
	}

	go func() {
		for {
			select {
			case <-t.ticker.C:
				// A tick and a stop can be ready together; stop wins.
				select {
				case <-t.stopChan:
					t.ticker.Stop()
					return
				default:
				}
				fn()
			case <-t.stopChan:
				t.ticker.Stop()
				return
			}
		}
	}()

	return t
}

func (t *tickerTimer) Stop() {
	t.once.Do(func() {
		close(t.stopChan)
	})
}

type afterTimer struct {
	timer *time.Timer
}

// After runs fn once after delay
func (Real) After(delay time.Duration, fn func()) Timer {
	return &afterTimer{timer: time.AfterFunc(delay, fn)}
}

func (t *afterTimer) Stop() {
	t.timer.Stop()
}
