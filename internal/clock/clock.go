package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a scheduled callback that can be cancelled
type Timer interface {
	// Stop prevents the callback from firing. It reports whether the call
	// stopped the timer before it fired.
	Stop() bool
}

// Clock schedules callbacks
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// Real is the wall clock
type Real struct{}

// Now returns the current time
func (Real) Now() time.Time { return time.Now() }

// AfterFunc runs fn on its own goroutine after d
func (Real) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Manual is a clock that only moves when Advance is called. Callbacks run
// synchronously on the goroutine calling Advance, in deadline order.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
	seq    int
}

// NewManual creates a manual clock starting at start
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the manual clock's current time
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// AfterFunc schedules fn to run once the clock has advanced by d
func (m *Manual) AfterFunc(d time.Duration, fn func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &manualTimer{
		clock:    m,
		deadline: m.now.Add(d),
		seq:      m.seq,
		fn:       fn,
	}
	m.seq++
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward by d and fires every timer that came due
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDueLocked(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.deadline
		m.removeLocked(next)
		m.mu.Unlock()

		next.fn()
	}
}

// Pending returns the number of timers that have not fired or been stopped
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

func (m *Manual) nextDueLocked(target time.Time) *manualTimer {
	if len(m.timers) == 0 {
		return nil
	}
	sort.Slice(m.timers, func(i, j int) bool {
		if m.timers[i].deadline.Equal(m.timers[j].deadline) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].deadline.Before(m.timers[j].deadline)
	})
	if m.timers[0].deadline.After(target) {
		return nil
	}
	return m.timers[0]
}

func (m *Manual) removeLocked(t *manualTimer) bool {
	for i, candidate := range m.timers {
		if candidate == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return true
		}
	}
	return false
}

type manualTimer struct {
	clock    *Manual
	deadline time.Time
	seq      int
	fn       func()
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.clock.removeLocked(t)
}
