package tracker

import (
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

// Scheduler owns every timer of one viewing session. Close cancels all of them;
// nothing scheduled through it fires afterwards.
type Scheduler struct {
	clk clock.Clock

	mu      sync.Mutex
	handles map[*Handle]struct{}
	closed  bool
}

// Handle cancels a single scheduled callback.
type Handle struct {
	s       *Scheduler
	timer   *clock.Timer
	stopped bool
}

func NewScheduler(clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	return &Scheduler{clk: clk, handles: map[*Handle]struct{}{}}
}

func (s *Scheduler) Now() time.Time { return s.clk.Now() }

// After runs fn once after d.
func (s *Scheduler) After(d time.Duration, fn func()) *Handle {
	h := &Handle{s: s}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		h.stopped = true
		return h
	}
	h.timer = s.clk.AfterFunc(d, func() { s.fireOnce(h, fn) })
	s.handles[h] = struct{}{}
	return h
}

// Every runs fn each d until cancelled. The next tick is armed before fn runs.
func (s *Scheduler) Every(d time.Duration, fn func()) *Handle {
	h := &Handle{s: s}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		h.stopped = true
		return h
	}
	s.arm(h, d, fn)
	s.handles[h] = struct{}{}
	return h
}

// arm requires s.mu.
func (s *Scheduler) arm(h *Handle, d time.Duration, fn func()) {
	h.timer = s.clk.AfterFunc(d, func() { s.fireEvery(h, d, fn) })
}

func (s *Scheduler) fireOnce(h *Handle, fn func()) {
	s.mu.Lock()
	if h.stopped || s.closed {
		s.mu.Unlock()
		return
	}
	h.stopped = true
	delete(s.handles, h)
	s.mu.Unlock()
	fn()
}

func (s *Scheduler) fireEvery(h *Handle, d time.Duration, fn func()) {
	s.mu.Lock()
	if h.stopped || s.closed {
		s.mu.Unlock()
		return
	}
	s.arm(h, d, fn)
	s.mu.Unlock()
	fn()
}

// Cancel is idempotent and safe on a nil handle.
func (h *Handle) Cancel() {
	if h == nil || h.s == nil {
		return
	}
	s := h.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.stopped {
		return
	}
	h.stopped = true
	if h.timer != nil {
		h.timer.Stop()
	}
	delete(s.handles, h)
}

// Close cancels every outstanding handle and rejects new ones.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for h := range s.handles {
		h.stopped = true
		if h.timer != nil {
			h.timer.Stop()
		}
	}
	s.handles = map[*Handle]struct{}{}
}

// Active reports the number of live handles.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handles)
}
