package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

type memCounter struct {
	counts map[string]int64
	err    error
}

func (m *memCounter) count(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if m.err != nil {
		return 0, 0, m.err
	}
	m.counts[key]++
	return m.counts[key], 30 * time.Second, nil
}

func limitedRouter(rl *RateLimiter, userID uuid.UUID) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{UserID: userID}))
		c.Next()
	})
	r.POST("/api/progress", rl.Limit("progress", 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestRateLimiter_PerUserWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mc := &memCounter{counts: map[string]int64{}}
	m := observability.New()
	rl := &RateLimiter{log: logger.Nop(), metrics: m, count: mc.count}

	alice := limitedRouter(rl, uuid.New())
	bob := limitedRouter(rl, uuid.New())

	do := func(r *gin.Engine) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/progress", nil))
		return rec
	}
	for i := 0; i < 2; i++ {
		if rec := do(alice); rec.Code != http.StatusOK {
			t.Fatalf("request %d: want=200 got=%d", i+1, rec.Code)
		}
	}
	rec := do(alice)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: want=429 got=%d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "30" {
		t.Fatalf("Retry-After: want=30 got=%q", got)
	}
	var body struct {
		RetryAfter int `json:"retry_after"`
		Error      struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.RetryAfter != 30 || body.Error.Code != "rate_limited" {
		t.Fatalf("body: got=%+v", body)
	}
	if rec := do(bob); rec.Code != http.StatusOK {
		t.Fatalf("other user: want=200 got=%d", rec.Code)
	}
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mc := &memCounter{counts: map[string]int64{}, err: errors.New("redis down")}
	rl := &RateLimiter{log: logger.Nop(), count: mc.count}
	r := limitedRouter(rl, uuid.New())
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/progress", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: want=200 got=%d", i+1, rec.Code)
		}
	}
}

func TestRateLimiter_DisabledWithoutRedis(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rl := NewRateLimiter(logger.Nop(), nil, nil)
	r := limitedRouter(rl, uuid.New())
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/progress", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: want=200 got=%d", i+1, rec.Code)
		}
	}
}
