package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/facebookgo/clock"
)

func TestSchedulerAfterFiresOnce(t *testing.T) {
	clk := clock.NewMock()
	s := NewScheduler(clk)
	n := 0
	s.After(time.Second, func() { n++ })
	if s.Active() != 1 {
		t.Fatalf("active: want=1 got=%d", s.Active())
	}
	clk.Add(5 * time.Second)
	if n != 1 {
		t.Fatalf("fires: want=1 got=%d", n)
	}
	if s.Active() != 0 {
		t.Fatalf("active after fire: want=0 got=%d", s.Active())
	}
}

func TestSchedulerEveryRepeatsUntilCancelled(t *testing.T) {
	clk := clock.NewMock()
	s := NewScheduler(clk)
	n := 0
	h := s.Every(5*time.Second, func() { n++ })
	clk.Add(16 * time.Second)
	if n != 3 {
		t.Fatalf("ticks: want=3 got=%d", n)
	}
	h.Cancel()
	h.Cancel()
	clk.Add(time.Minute)
	if n != 3 {
		t.Fatalf("ticks after cancel: want=3 got=%d", n)
	}
	if s.Active() != 0 {
		t.Fatalf("active: want=0 got=%d", s.Active())
	}
}

func TestSchedulerCancelFromOwnCallback(t *testing.T) {
	clk := clock.NewMock()
	s := NewScheduler(clk)
	n := 0
	var h *Handle
	h = s.Every(time.Second, func() {
		n++
		if n == 2 {
			h.Cancel()
		}
	})
	clk.Add(10 * time.Second)
	if n != 2 {
		t.Fatalf("ticks: want=2 got=%d", n)
	}
}

func TestSchedulerCloseStopsEverything(t *testing.T) {
	clk := clock.NewMock()
	s := NewScheduler(clk)
	fired := 0
	s.After(time.Second, func() { fired++ })
	s.Every(time.Second, func() { fired++ })
	s.Close()
	if s.Active() != 0 {
		t.Fatalf("active after close: want=0 got=%d", s.Active())
	}
	s.After(time.Second, func() { fired++ })
	s.Every(time.Second, func() { fired++ })
	clk.Add(time.Minute)
	if fired != 0 {
		t.Fatalf("fired after close: want=0 got=%d", fired)
	}
	if s.Active() != 0 {
		t.Fatalf("active: want=0 got=%d", s.Active())
	}
	var nilHandle *Handle
	nilHandle.Cancel()
}

func TestIdleDetectorTogglesOnce(t *testing.T) {
	clk := clock.NewMock()
	s := NewScheduler(clk)
	starts, ends := 0, 0
	d := NewIdleDetector(s, time.Minute, func() { starts++ }, func() { ends++ })
	d.Start()

	for i := 0; i < 6; i++ {
		clk.Add(30 * time.Second)
		d.Touch()
	}
	if starts != 0 || ends != 0 {
		t.Fatalf("busy learner: want=0/0 got=%d/%d", starts, ends)
	}

	clk.Add(3 * time.Minute)
	if !d.Idle() || starts != 1 {
		t.Fatalf("idle_start: want=1 idle=true got=%d idle=%v", starts, d.Idle())
	}
	d.Touch()
	d.Touch()
	d.Touch()
	if d.Idle() || ends != 1 {
		t.Fatalf("idle_end: want=1 idle=false got=%d idle=%v", ends, d.Idle())
	}
	clk.Add(time.Minute)
	if starts != 2 {
		t.Fatalf("second idle period: want=2 got=%d", starts)
	}
	if s.Active() != 0 {
		t.Fatalf("active while idle: want=0 got=%d", s.Active())
	}
}

func TestIdleDetectorTouchRearmsBeforeEndCallback(t *testing.T) {
	clk := clock.NewMock()
	s := NewScheduler(clk)
	var d *IdleDetector
	var idleInEnd bool
	armedInEnd := -1
	d = NewIdleDetector(s, time.Minute, nil, func() {
		// Runs outside the detector lock, so reading state here must not block.
		idleInEnd = d.Idle()
		armedInEnd = s.Active()
	})
	d.Start()

	clk.Add(2 * time.Minute)
	if !d.Idle() {
		t.Fatalf("idle: want=true got=false")
	}
	d.Touch()
	if idleInEnd {
		t.Fatalf("idle seen by idle_end: want=false got=true")
	}
	if armedInEnd != 1 {
		t.Fatalf("timer armed at idle_end: want=1 got=%d", armedInEnd)
	}

	// Only the timer armed by the latest Touch may flip the detector.
	clk.Add(30 * time.Second)
	d.Touch()
	clk.Add(45 * time.Second)
	if d.Idle() {
		t.Fatalf("stale expiry: want idle=false got=true")
	}
	clk.Add(30 * time.Second)
	if !d.Idle() {
		t.Fatalf("fresh expiry: want idle=true got=false")
	}
}

func TestBatcherClearsQueueOnFailure(t *testing.T) {
	calls := 0
	b := NewBatcher(func(ctx context.Context, events []Event) error {
		calls++
		return errors.New("boom")
	})
	if n, err := b.Flush(context.Background()); n != 0 || err != nil || calls != 0 {
		t.Fatalf("empty flush: want=0,nil,0 got=%d,%v,%d", n, err, calls)
	}
	b.Enqueue(Event{EventType: "click"})
	b.Enqueue(Event{EventType: "scroll"})
	n, err := b.Flush(context.Background())
	if n != 2 || err == nil {
		t.Fatalf("flush: want=2,err got=%d,%v", n, err)
	}
	if b.Pending() != 0 {
		t.Fatalf("pending after failed flush: want=0 got=%d", b.Pending())
	}
	if n, _ := b.Flush(context.Background()); n != 0 || calls != 1 {
		t.Fatalf("reflush: want=0 calls=1 got=%d calls=%d", n, calls)
	}
}

func TestPercentWatched(t *testing.T) {
	cases := []struct {
		pos, dur, want float64
	}{
		{30, 120, 25},
		{0, 0, 0},
		{10, -1, 0},
		{-5, 100, 0},
		{130, 120, 100},
	}
	for _, tc := range cases {
		if got := percentWatched(tc.pos, tc.dur); got != tc.want {
			t.Fatalf("percentWatched(%v, %v): want=%v got=%v", tc.pos, tc.dur, tc.want, got)
		}
	}
}
