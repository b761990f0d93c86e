package tracker

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/google/uuid"

	types "github.com/yungbote/coursetrack-backend/internal/domain"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

// API is the server surface a tracker talks to.
type API interface {
	StartSession(ctx context.Context, lessonID uuid.UUID) (uuid.UUID, error)
	EndSession(ctx context.Context, sessionID uuid.UUID, activeSeconds, idleSeconds int) error
	SendEvents(ctx context.Context, sessionID, lessonID uuid.UUID, events []Event) error
	ReportProgress(ctx context.Context, r ProgressReport) (completed bool, err error)
}

type ProgressReport struct {
	LessonID               uuid.UUID `json:"lesson_id"`
	PercentWatched         float64   `json:"percent_watched"`
	LastPositionSeconds    float64   `json:"last_position_seconds"`
	TotalWatchSecondsDelta int       `json:"total_watch_seconds_delta"`
}

// Player exposes the playhead of the lesson video, in seconds.
type Player interface {
	Position() float64
	Duration() float64
}

type ActivityKind string

const (
	ActivityPointer ActivityKind = "pointer"
	ActivityKey     ActivityKind = "key"
	ActivityClick   ActivityKind = "click"
	ActivityScroll  ActivityKind = "scroll"
)

type Options struct {
	API    API
	Clock  clock.Clock
	Log    *logger.Logger
	Player Player // nil for lessons without video

	HeartbeatInterval time.Duration
	IdleTimeout       time.Duration
	FlushInterval     time.Duration
	RequestTimeout    time.Duration
}

var errNoSession = errors.New("no session")

// Tracker follows one learner viewing one lesson, from Start to End.
type Tracker struct {
	lessonID uuid.UUID
	api      API
	log      *logger.Logger
	player   Player
	opts     Options

	sched *Scheduler
	idle  *IdleDetector
	batch *Batcher
	done  chan struct{}

	mu        sync.Mutex
	ctx       context.Context
	sessionID uuid.UUID
	startedAt time.Time
	started   bool
	ended     bool
	playing   bool
	completed bool
	active    int
	heartbeat *Handle
}

func New(lessonID uuid.UUID, opts Options) *Tracker {
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = types.HeartbeatInterval
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = types.IdleTimeout
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = types.FlushInterval
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	t := &Tracker{
		lessonID: lessonID,
		api:      opts.API,
		log:      opts.Log.With("component", "Tracker", "lesson_id", lessonID.String()),
		player:   opts.Player,
		opts:     opts,
		sched:    NewScheduler(opts.Clock),
		done:     make(chan struct{}),
		ctx:      context.Background(),
	}
	t.batch = NewBatcher(t.sendEvents)
	t.idle = NewIdleDetector(t.sched, opts.IdleTimeout,
		func() { t.enqueue(types.EventIdleStart, nil) },
		func() { t.enqueue(types.EventIdleEnd, nil) },
	)
	return t
}

// Start opens the server session and arms the timers. A failed open is returned but
// the tracker keeps running without session-scoped writes.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.started || t.ended {
		t.mu.Unlock()
		return nil
	}
	t.started = true
	t.ctx = ctx
	t.startedAt = t.sched.Now()
	t.mu.Unlock()

	cctx, cancel := context.WithTimeout(ctx, t.opts.RequestTimeout)
	sid, err := t.api.StartSession(cctx, t.lessonID)
	cancel()
	if err != nil {
		t.log.Warn("session start failed; continuing without session", "error", err)
	} else {
		t.mu.Lock()
		t.sessionID = sid
		t.mu.Unlock()
		t.log.Debug("session started", "session_id", sid.String())
	}

	t.enqueue(types.EventPageView, nil)
	t.idle.Start()
	t.sched.Every(t.opts.FlushInterval, func() { t.flush(t.context()) })
	if t.player == nil {
		t.sched.Every(t.opts.HeartbeatInterval, t.manualHeartbeat)
	}
	return err
}

// Activity records a qualifying learner interaction.
func (t *Tracker) Activity(kind ActivityKind) {
	if t.isEnded() {
		return
	}
	t.idle.Touch()
	switch kind {
	case ActivityClick:
		t.enqueue(types.EventClick, nil)
	case ActivityScroll:
		t.enqueue(types.EventScroll, nil)
	}
}

func (t *Tracker) Play() {
	if t.player == nil {
		return
	}
	t.mu.Lock()
	if t.ended || t.playing {
		t.mu.Unlock()
		return
	}
	t.playing = true
	t.heartbeat = t.sched.Every(t.opts.HeartbeatInterval, t.videoHeartbeat)
	t.mu.Unlock()
	t.enqueue(types.EventVideoPlay, map[string]any{"position": t.player.Position()})
}

func (t *Tracker) Pause() {
	if t.player == nil {
		return
	}
	t.mu.Lock()
	if t.ended || !t.playing {
		t.mu.Unlock()
		return
	}
	t.playing = false
	t.heartbeat.Cancel()
	t.heartbeat = nil
	t.mu.Unlock()
	t.enqueue(types.EventVideoPause, map[string]any{"position": t.player.Position()})
}

func (t *Tracker) Seek(from, to float64) {
	if t.isEnded() {
		return
	}
	t.enqueue(types.EventVideoSeek, map[string]any{"from": from, "to": to})
}

// End tears every timer down, then flushes and closes the session in the background.
// The returned channel closes once both calls have finished. Only the first call acts.
func (t *Tracker) End() <-chan struct{} {
	t.mu.Lock()
	if t.ended {
		t.mu.Unlock()
		return t.done
	}
	t.ended = true
	t.playing = false
	t.heartbeat = nil
	t.sched.Close()
	started := t.started
	sid := t.sessionID
	active := t.active
	elapsed := int(t.sched.Now().Sub(t.startedAt) / time.Second)
	ctx := context.WithoutCancel(t.ctx)
	t.mu.Unlock()

	go func() {
		defer close(t.done)
		if !started {
			return
		}
		t.flush(ctx)
		if sid == uuid.Nil {
			return
		}
		// idle may go negative when active outruns wall time; sent as is.
		idle := elapsed - active
		cctx, cancel := context.WithTimeout(ctx, t.opts.RequestTimeout)
		defer cancel()
		if err := t.api.EndSession(cctx, sid, active, idle); err != nil {
			t.log.Warn("session end failed", "error", err, "session_id", sid.String())
		}
	}()
	return t.done
}

func (t *Tracker) SessionID() uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

func (t *Tracker) ActiveSeconds() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

func (t *Tracker) Idle() bool { return t.idle.Idle() }

func (t *Tracker) Pending() int { return t.batch.Pending() }

func (t *Tracker) videoHeartbeat() {
	t.mu.Lock()
	if t.ended || !t.playing {
		t.mu.Unlock()
		return
	}
	t.active += types.HeartbeatActiveSeconds
	ctx := t.ctx
	t.mu.Unlock()

	pos := t.player.Position()
	percent := percentWatched(pos, t.player.Duration())
	t.enqueue(types.EventVideoProgressHeartbeat, map[string]any{"position": pos, "percent": percent})

	cctx, cancel := context.WithTimeout(ctx, t.opts.RequestTimeout)
	defer cancel()
	completed, err := t.api.ReportProgress(cctx, ProgressReport{
		LessonID:               t.lessonID,
		PercentWatched:         percent,
		LastPositionSeconds:    pos,
		TotalWatchSecondsDelta: types.HeartbeatActiveSeconds,
	})
	if err != nil {
		t.log.Warn("progress report failed", "error", err)
		return
	}
	if !completed {
		return
	}
	t.mu.Lock()
	first := !t.completed
	t.completed = true
	t.mu.Unlock()
	if first {
		t.enqueue(types.EventLessonComplete, map[string]any{"percent": percent})
	}
}

func (t *Tracker) manualHeartbeat() {
	if t.isEnded() || t.idle.Idle() {
		return
	}
	t.enqueue(types.EventManualViewHeartbeat, nil)
}

func (t *Tracker) enqueue(eventType string, payload map[string]any) {
	t.batch.Enqueue(Event{
		EventType:    eventType,
		EventPayload: payload,
		ClientTS:     t.sched.Now().UTC(),
	})
}

func (t *Tracker) flush(ctx context.Context) {
	n, err := t.batch.Flush(ctx)
	switch {
	case err == nil:
		if n > 0 {
			t.log.Debug("events flushed", "count", n)
		}
	case errors.Is(err, errNoSession):
		t.log.Debug("events dropped without session", "count", n)
	default:
		t.log.Warn("event flush failed; batch dropped", "error", err, "count", n)
	}
}

func (t *Tracker) sendEvents(ctx context.Context, events []Event) error {
	t.mu.Lock()
	sid := t.sessionID
	t.mu.Unlock()
	if sid == uuid.Nil {
		return errNoSession
	}
	cctx, cancel := context.WithTimeout(ctx, t.opts.RequestTimeout)
	defer cancel()
	return t.api.SendEvents(cctx, sid, t.lessonID, events)
}

func (t *Tracker) context() context.Context {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ctx
}

func (t *Tracker) isEnded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ended
}

// percentWatched is clamped to 0..100; the server stores what it is given.
func percentWatched(position, duration float64) float64 {
	if duration <= 0 || math.IsNaN(position) || math.IsNaN(duration) {
		return 0
	}
	p := position / duration * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
