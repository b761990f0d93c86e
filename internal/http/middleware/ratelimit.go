package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yungbote/coursetrack-backend/internal/observability"
	"github.com/yungbote/coursetrack-backend/internal/platform/ctxutil"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
)

// windowCounter bumps the counter for key and returns the new count and the
// time left in the window.
type windowCounter func(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)

type RateLimiter struct {
	log     *logger.Logger
	metrics *observability.Metrics
	count   windowCounter
}

// NewRateLimiter returns a limiter backed by redis. A nil client disables
// limiting entirely.
func NewRateLimiter(log *logger.Logger, rdb redis.UniversalClient, metrics *observability.Metrics) *RateLimiter {
	rl := &RateLimiter{log: log.With("middleware", "RateLimiter"), metrics: metrics}
	if rdb != nil {
		rl.count = redisWindowCounter(rdb)
	}
	return rl
}

func redisWindowCounter(rdb redis.UniversalClient) windowCounter {
	return func(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
		n, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			return 0, 0, err
		}
		if n == 1 {
			if err := rdb.Expire(ctx, key, window).Err(); err != nil {
				return n, window, err
			}
			return n, window, nil
		}
		ttl, err := rdb.TTL(ctx, key).Result()
		if err != nil {
			return n, window, nil
		}
		if ttl < 0 {
			// lost the expiry (crash between INCR and EXPIRE); restore it
			_ = rdb.Expire(ctx, key, window).Err()
			ttl = window
		}
		return n, ttl, nil
	}
}

// Limit caps each authenticated user at limit requests per window on the
// routes it guards. Redis failures let the request through.
func (rl *RateLimiter) Limit(keySuffix string, limit int, window time.Duration) gin.HandlerFunc {
	if rl == nil || rl.count == nil || limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		subject := c.ClientIP()
		if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
			subject = rd.UserID.String()
		}
		key := fmt.Sprintf("rate_limit:%s:%s", keySuffix, subject)

		n, ttl, err := rl.count(c.Request.Context(), key, window)
		if err != nil {
			rl.log.Warn("rate limit check failed", "key_suffix", keySuffix, "error", err)
			c.Next()
			return
		}
		if n > int64(limit) {
			if ttl <= 0 {
				ttl = window
			}
			retry := int(math.Ceil(ttl.Seconds()))
			rl.metrics.IncRateLimited(keySuffix)
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       gin.H{"message": "too many requests", "code": "rate_limited"},
				"retry_after": retry,
			})
			return
		}
		c.Next()
	}
}
