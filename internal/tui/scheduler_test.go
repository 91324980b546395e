package tui

import (
	"testing"
	"time"
)

func TestTickSchedulerFiresOnce(t *testing.T) {
	s := newTickScheduler()
	calls := 0
	s.AfterFunc(time.Millisecond, func() { calls++ })
	cmd := s.cmds()
	if cmd == nil {
		t.Fatal("expected tick command")
	}
	msg, ok := cmd().(timerFiredMsg)
	if !ok {
		t.Fatalf("expected timerFiredMsg")
	}
	if !s.fire(msg.id) || calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}
	if s.fire(msg.id) || calls != 1 {
		t.Fatalf("expected second fire to be ignored, got %d calls", calls)
	}
	if s.pendingCount() != 0 {
		t.Fatalf("expected no pending timers, got %d", s.pendingCount())
	}
}

func TestTickSchedulerStop(t *testing.T) {
	s := newTickScheduler()
	calls := 0
	timer := s.AfterFunc(time.Millisecond, func() { calls++ })
	if !timer.Stop() {
		t.Fatal("expected Stop to report pending timer")
	}
	if timer.Stop() {
		t.Fatal("expected second Stop to report false")
	}
	if cmd := s.cmds(); cmd != nil {
		t.Fatal("expected stopped timer to produce no command")
	}
	if s.fire(1) || calls != 0 {
		t.Fatalf("expected stopped timer not to run, got %d calls", calls)
	}
}

func TestTickSchedulerStopAfterQueue(t *testing.T) {
	s := newTickScheduler()
	calls := 0
	timer := s.AfterFunc(time.Millisecond, func() { calls++ })
	cmd := s.cmds()
	timer.Stop()
	msg := cmd().(timerFiredMsg)
	if s.fire(msg.id) || calls != 0 {
		t.Fatalf("expected tick of stopped timer to be dropped, got %d calls", calls)
	}
}
