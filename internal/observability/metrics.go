package observability

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type Metrics struct {
	apiRequests *CounterVec
	apiLatency  *HistogramVec
	apiInflight *Gauge
	apiReqTotal *Counter
	apiReqError *Counter

	progressUpserts   *CounterVec
	progressLatency   *HistogramVec
	lessonCompletions *Counter
	eventsIngested    *CounterVec
	eventBatchSize    *HistogramVec
	sessionsOpened    *Counter
	sessionsClosed    *CounterVec
	notifyFailures    *Counter
	rateLimited       *CounterVec

	pgStats   *GaugeVec
	redisUp   *Gauge
	redisPing *Gauge

	scrapeInterval time.Duration
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Current() *Metrics {
	return instance
}

// Init builds the process-wide registry once. It returns nil when disabled;
// every method is nil-safe so callers never branch on it.
func Init(log *logger.Logger, enabled bool) *Metrics {
	if !enabled {
		return nil
	}
	initOnce.Do(func() {
		instance = New()
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

// New returns an unregistered Metrics. Tests use it directly.
func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("ct_api_requests_total", "Total API requests by method/route/status.", []string{"method", "route", "status"}),
		apiLatency: NewHistogramVec(
			"ct_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]string{"method", "route", "status"},
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		),
		apiInflight: NewGauge("ct_api_inflight_requests", "In-flight API requests."),
		apiReqTotal: NewCounter("ct_api_requests_total_all", "Total API requests (all)."),
		apiReqError: NewCounter("ct_api_requests_error_total", "Total API requests with 5xx status."),

		progressUpserts: NewCounterVec("ct_progress_upserts_total", "Progress reports merged by outcome.", []string{"outcome"}),
		progressLatency: NewHistogramVec(
			"ct_progress_upsert_duration_seconds",
			"Progress merge statement latency in seconds.",
			[]string{"outcome"},
			[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		),
		lessonCompletions: NewCounter("ct_lesson_completions_total", "Lessons that flipped to completed."),
		eventsIngested:    NewCounterVec("ct_events_ingested_total", "Events appended to the event log by type.", []string{"event_type"}),
		eventBatchSize: NewHistogramVec(
			"ct_event_batch_size",
			"Events per ingested batch.",
			[]string{"status"},
			[]float64{1, 2, 5, 10, 20, 50, 100, 200},
		),
		sessionsOpened: NewCounter("ct_sessions_opened_total", "Learning sessions opened."),
		sessionsClosed: NewCounterVec("ct_sessions_closed_total", "Session close requests by result.", []string{"result"}),
		notifyFailures: NewCounter("ct_completion_notify_failures_total", "Completion notifications that failed to publish."),
		rateLimited:    NewCounterVec("ct_rate_limited_total", "Requests rejected by the rate limiter by route.", []string{"route"}),

		pgStats:   NewGaugeVec("ct_postgres_pool", "database/sql pool stats.", []string{"stat"}),
		redisUp:   NewGauge("ct_redis_up", "1 when the last redis ping succeeded."),
		redisPing: NewGauge("ct_redis_ping_seconds", "Last redis ping latency in seconds."),

		scrapeInterval: 10 * time.Second,
	}
}

// StartServer exposes the registry on its own listener so scrapes never share
// the API port. It stops when ctx is done.
func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) *http.Server {
	addr = strings.TrimSpace(addr)
	if m == nil || addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", m.WriteHTTP)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(stopCtx)
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && log != nil {
			log.Error("metrics listener stopped", "error", err, "addr", addr)
		}
	}()
	return srv
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, _ *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

type promWriter interface {
	WritePrometheus(w io.Writer) error
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, p := range []promWriter{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqTotal, m.apiReqError,
		m.progressUpserts, m.progressLatency, m.lessonCompletions,
		m.eventsIngested, m.eventBatchSize,
		m.sessionsOpened, m.sessionsClosed,
		m.notifyFailures, m.rateLimited,
		m.pgStats, m.redisUp, m.redisPing,
	} {
		if err := p.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

// TrackInflight counts one in-flight request; call the returned func when it finishes.
func (m *Metrics) TrackInflight() func() {
	if m == nil {
		return func() {}
	}
	m.apiInflight.Add(1)
	return func() { m.apiInflight.Add(-1) }
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route, status)
	m.apiReqTotal.Inc()
	if strings.HasPrefix(status, "5") {
		m.apiReqError.Inc()
	}
}

// ObserveProgressUpsert records one merge. outcome is completed, incomplete,
// invalid or error.
func (m *Metrics) ObserveProgressUpsert(outcome string, newlyCompleted bool, dur time.Duration) {
	if m == nil {
		return
	}
	m.progressUpserts.Inc(outcome)
	if dur > 0 {
		m.progressLatency.Observe(dur.Seconds(), outcome)
	}
	if newlyCompleted {
		m.lessonCompletions.Inc()
	}
}

func (m *Metrics) ObserveEventBatch(status string, counts map[string]int, size int) {
	if m == nil {
		return
	}
	m.eventBatchSize.Observe(float64(size), status)
	for eventType, n := range counts {
		m.eventsIngested.Add(float64(n), eventType)
	}
}

func (m *Metrics) IncSessionOpened() {
	if m != nil {
		m.sessionsOpened.Inc()
	}
}

func (m *Metrics) IncSessionClosed(result string) {
	if m != nil {
		m.sessionsClosed.Inc(result)
	}
}

func (m *Metrics) IncNotifyFailure() {
	if m != nil {
		m.notifyFailures.Inc()
	}
}

func (m *Metrics) IncRateLimited(route string) {
	if m != nil {
		m.rateLimited.Inc(route)
	}
}

// poll runs fn every scrape interval until ctx is done.
func (m *Metrics) poll(ctx context.Context, fn func(context.Context)) {
	go func() {
		t := time.NewTicker(m.scrapeInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				fn(ctx)
			}
		}
	}()
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	m.poll(ctx, func(context.Context) {
		sqlDB, err := db.DB()
		if err != nil {
			if log != nil {
				log.Warn("postgres pool stats unavailable", "error", err)
			}
			return
		}
		m.recordPool(sqlDB.Stats())
	})
}

func (m *Metrics) recordPool(st sql.DBStats) {
	for stat, v := range map[string]float64{
		"open_connections":      float64(st.OpenConnections),
		"in_use":                float64(st.InUse),
		"idle":                  float64(st.Idle),
		"wait_count":            float64(st.WaitCount),
		"wait_duration_seconds": st.WaitDuration.Seconds(),
		"max_open_connections":  float64(st.MaxOpenConnections),
	} {
		m.pgStats.Set(v, stat)
	}
}

// StartRedisCollector pings through the shared client; it does not own it.
func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	m.poll(ctx, func(ctx context.Context) {
		start := time.Now()
		if err := rdb.Ping(ctx).Err(); err != nil {
			m.redisUp.Set(0)
			if log != nil {
				log.Warn("redis ping failed", "error", err)
			}
			return
		}
		m.redisUp.Set(1)
		m.redisPing.Set(time.Since(start).Seconds())
	})
}
