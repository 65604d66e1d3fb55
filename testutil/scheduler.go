// Package testutil provides deterministic stand-ins for the host's periodic primitive so
// the same tests can drive a Controller directly or through the runtime loop.
package testutil

import (
	"sync"
	"time"

	"github.com/comalice/countdown/internal/core"
)

// ManualScheduler hands out handles that only tick when Fire is called.
// Safe for concurrent use: tests fire from their own goroutine while a runtime loop reads.
type ManualScheduler struct {
	mu        sync.Mutex
	handles   []*ManualHandle
	intervals []time.Duration
}

var _ core.Scheduler = (*ManualScheduler)(nil)

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Every implements core.Scheduler.
func (s *ManualScheduler) Every(interval time.Duration) core.Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := &ManualHandle{c: make(chan time.Time, 1)}
	s.handles = append(s.handles, h)
	s.intervals = append(s.intervals, interval)
	return h
}

// Fire delivers one tick on every live handle and reports how many received it.
// Like time.Ticker, a tick is dropped when the previous one was not consumed yet.
func (s *ManualScheduler) Fire() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	fired := 0
	for _, h := range s.handles {
		if h.fire() {
			fired++
		}
	}
	return fired
}

// Live returns the number of acquired handles not yet released.
func (s *ManualScheduler) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, h := range s.handles {
		if !h.Released() {
			n++
		}
	}
	return n
}

// Acquired returns the number of handles ever handed out.
func (s *ManualScheduler) Acquired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}

// Intervals returns the intervals requested so far, in order.
func (s *ManualScheduler) Intervals() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.intervals...)
}

// Handle returns the i-th handle handed out.
func (s *ManualScheduler) Handle(i int) *ManualHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handles[i]
}

// ManualHandle is a core.Handle whose ticks are injected by ManualScheduler.Fire.
type ManualHandle struct {
	mu       sync.Mutex
	c        chan time.Time
	released bool
	releases int
}

func (h *ManualHandle) C() <-chan time.Time {
	return h.c
}

func (h *ManualHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.released = true
	h.releases++
}

func (h *ManualHandle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Releases counts Release calls; the controller should release each handle exactly once.
func (h *ManualHandle) Releases() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.releases
}

func (h *ManualHandle) fire() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return false
	}
	select {
	case h.c <- time.Now():
		return true
	default:
		return false
	}
}
