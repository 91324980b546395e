package drag

import (
	"slices"
	"sync"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeScheduler records callbacks and runs them when the shared clock passes their deadline.
type fakeScheduler struct {
	mu     sync.Mutex
	clock  *fakeClock
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Time
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &fakeTimer{at: s.clock.Now().Add(d), fn: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock and fires due timers in deadline order.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.clock.Advance(d)
	now := s.clock.Now()
	for {
		s.mu.Lock()
		due := slices.IndexFunc(s.timers, func(t *fakeTimer) bool {
			return !t.stopped && !t.fired && !t.at.After(now)
		})
		if due < 0 {
			s.mu.Unlock()
			return
		}
		t := s.timers[due]
		t.fired = true
		s.mu.Unlock()
		t.fn()
	}
}

// Pending returns the number of timers that are neither fired nor stopped.
func (s *fakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// scrollRecorder captures ScrollTo calls.
type scrollRecorder struct {
	mu    sync.Mutex
	calls []float64
}

func (r *scrollRecorder) ScrollTo(offset float64, animated bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, offset)
}

func (r *scrollRecorder) Calls() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}
