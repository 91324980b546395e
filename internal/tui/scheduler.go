package tui

import (
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/evanschultz/tackboard/internal/drag"
)

// timerFiredMsg delivers one due drag timer back onto the program loop.
type timerFiredMsg struct {
	id uint64
}

// tickScheduler implements drag.Scheduler with tea ticks so timer callbacks run inside Update.
type tickScheduler struct {
	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]*tickTimer
	queued  []*tickTimer
}

// tickTimer represents one scheduled callback.
type tickTimer struct {
	id    uint64
	delay time.Duration
	fn    func()
	sched *tickScheduler
}

// newTickScheduler constructs tick scheduler.
func newTickScheduler() *tickScheduler {
	return &tickScheduler{pending: map[uint64]*tickTimer{}}
}

// AfterFunc records fn; it runs once the tick command returned by cmds fires.
func (s *tickScheduler) AfterFunc(d time.Duration, fn func()) drag.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t := &tickTimer{id: s.nextID, delay: max(d, 0), fn: fn, sched: s}
	s.pending[t.id] = t
	s.queued = append(s.queued, t)
	return t
}

// Stop cancels the timer. It reports whether the timer was still pending.
func (t *tickTimer) Stop() bool {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	if _, ok := t.sched.pending[t.id]; !ok {
		return false
	}
	delete(t.sched.pending, t.id)
	return true
}

// cmds turns timers scheduled since the last call into tick commands.
func (s *tickScheduler) cmds() tea.Cmd {
	s.mu.Lock()
	queued := s.queued
	s.queued = nil
	out := make([]tea.Cmd, 0, len(queued))
	for _, t := range queued {
		if _, ok := s.pending[t.id]; !ok {
			continue
		}
		id := t.id
		out = append(out, tea.Tick(t.delay, func(time.Time) tea.Msg {
			return timerFiredMsg{id: id}
		}))
	}
	s.mu.Unlock()
	return tea.Batch(out...)
}

// fire runs the timer with id unless it was stopped.
func (s *tickScheduler) fire(id uint64) bool {
	s.mu.Lock()
	t, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	if t.fn != nil {
		t.fn()
	}
	return true
}

// pendingCount returns the number of timers not yet fired or stopped.
func (s *tickScheduler) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
