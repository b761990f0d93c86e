package tracker

import (
	"sync"
	"time"
)

// IdleDetector toggles between active and idle. Expiry reports idle once; the next
// Touch reports the end of that idle period once and re-arms the timer.
type IdleDetector struct {
	sched   *Scheduler
	timeout time.Duration
	onStart func()
	onEnd   func()

	mu    sync.Mutex
	idle  bool
	gen   uint64
	timer *Handle
}

func NewIdleDetector(sched *Scheduler, timeout time.Duration, onStart, onEnd func()) *IdleDetector {
	if onStart == nil {
		onStart = func() {}
	}
	if onEnd == nil {
		onEnd = func() {}
	}
	return &IdleDetector{sched: sched, timeout: timeout, onStart: onStart, onEnd: onEnd}
}

func (d *IdleDetector) Start() {
	d.mu.Lock()
	d.rearm()
	d.mu.Unlock()
}

// Touch records learner activity.
func (d *IdleDetector) Touch() {
	d.mu.Lock()
	wasIdle := d.idle
	d.idle = false
	d.rearm()
	d.mu.Unlock()

	if wasIdle {
		d.onEnd()
	}
}

func (d *IdleDetector) Idle() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.idle
}

// rearm requires d.mu.
func (d *IdleDetector) rearm() {
	d.timer.Cancel()
	d.gen++
	gen := d.gen
	d.timer = d.sched.After(d.timeout, func() { d.expire(gen) })
}

func (d *IdleDetector) expire(gen uint64) {
	d.mu.Lock()
	if d.gen != gen || d.idle {
		d.mu.Unlock()
		return
	}
	d.idle = true
	d.mu.Unlock()
	d.onStart()
}
