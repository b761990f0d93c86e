package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/coursetrack-backend/internal/platform/gcp"
	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
	"github.com/yungbote/coursetrack-backend/internal/realtime/bus"
)

type Clients struct {
	// Redis is nil when REDIS_ADDR is unset.
	Redis  goredis.UniversalClient
	Bus    bus.Bus
	Videos gcp.VideoURLResolver
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	var rdb goredis.UniversalClient
	notify := bus.NewMemoryBus()
	if addr := strings.TrimSpace(cfg.RedisAddr); addr != "" {
		rdb = goredis.NewUniversalClient(&goredis.UniversalOptions{
			Addrs:       []string{addr},
			Password:    cfg.RedisPassword,
			DialTimeout: 5 * time.Second,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("redis ping: %w", err)
		}
		b, err := bus.NewRedisBus(log, rdb, cfg.RedisChannel)
		if err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("init redis bus: %w", err)
		}
		_ = notify.Close()
		notify = b
	} else {
		log.Warn("REDIS_ADDR not set; completion notifications stay in-process and rate limiting is off")
	}

	// Gcs
	videos, err := gcp.NewVideoURLResolver(ctx, log, cfg.VideoURLs())
	if err != nil {
		_ = notify.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
		return Clients{}, fmt.Errorf("init video url resolver: %w", err)
	}

	return Clients{Redis: rdb, Bus: notify, Videos: videos}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Videos != nil {
		_ = c.Videos.Close()
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
