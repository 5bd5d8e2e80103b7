package clock

import (
	"sync"
	"time"
)

// Manual is a virtual Clock. Callbacks run synchronously inside Advance, in
// due-time order, ties broken by scheduling order.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	clock  *Manual
	due    time.Time
	period time.Duration
	fn     func()
	seq    int
}

// NewManual creates a virtual clock starting at start
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the virtual time
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Every schedules fn every period of virtual time
func (m *Manual) Every(period time.Duration, fn func()) Timer {
	return m.schedule(period, period, fn)
}

// After schedules fn once after delay of virtual time
func (m *Manual) After(delay time.Duration, fn func()) Timer {
	return m.schedule(delay, 0, fn)
}

func (m *Manual) schedule(delay, period time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	t := &manualTimer{
		clock:  m,
		due:    m.now.Add(delay),
		period: period,
		fn:     fn,
		seq:    m.seq,
	}
	m.timers = append(m.timers, t)
	return t
}

func (t *manualTimer) Stop() {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	t.clock.remove(t)
}

func (m *Manual) remove(t *manualTimer) {
	for i, other := range m.timers {
		if other == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return
		}
	}
}

// next returns the earliest timer due at or before target; caller holds mu
func (m *Manual) next(target time.Time) *manualTimer {
	var best *manualTimer
	for _, t := range m.timers {
		if t.due.After(target) {
			continue
		}
		if best == nil || t.due.Before(best.due) || (t.due.Equal(best.due) && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

// Advance moves virtual time forward by d, firing every callback that
// becomes due. Callbacks may schedule or stop timers.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		t := m.next(target)
		if t == nil {
			m.now = target
			m.mu.Unlock()
			return
		}

		m.now = t.due
		if t.period > 0 {
			t.due = t.due.Add(t.period)
		} else {
			m.remove(t)
		}
		fn := t.fn
		m.mu.Unlock()

		fn()
	}
}

// Pending returns the number of scheduled timers
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}
