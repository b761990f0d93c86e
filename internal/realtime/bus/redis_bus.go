package bus

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
	"github.com/yungbote/coursetrack-backend/internal/realtime"
)

type redisBus struct {
	log     *logger.Logger
	rdb     goredis.UniversalClient
	channel string
}

// NewRedisBus publishes on channel through a client owned by the caller.
func NewRedisBus(log *logger.Logger, rdb goredis.UniversalClient, channel string) (Bus, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if channel == "" {
		channel = "coursetrack.progress"
	}
	return &redisBus{
		log:     log.With("service", "RedisProgressBus"),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func (b *redisBus) Publish(ctx context.Context, msg realtime.Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, raw).Err()
}

func (b *redisBus) Subscribe(ctx context.Context, onMsg func(m realtime.Message)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	sub := b.rdb.Subscribe(ctx, b.channel)
	// Wait for the confirmation so nothing published after return is missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe %s: %w", b.channel, err)
	}
	go b.deliver(ctx, sub, onMsg)
	return nil
}

func (b *redisBus) deliver(ctx context.Context, sub *goredis.PubSub, onMsg func(realtime.Message)) {
	defer sub.Close()
	ch := sub.Channel()
	for {
		var m *goredis.Message
		select {
		case <-ctx.Done():
			return
		case m = <-ch:
		}
		if m == nil {
			return
		}
		msg, err := decodeMessage(m.Payload)
		if err != nil {
			b.log.Warn("dropping malformed progress message", "channel", m.Channel, "error", err)
			continue
		}
		onMsg(msg)
	}
}

func decodeMessage(payload string) (realtime.Message, error) {
	var msg realtime.Message
	err := json.Unmarshal([]byte(payload), &msg)
	return msg, err
}

// Close is a no-op; the client belongs to the app.
func (b *redisBus) Close() error { return nil }
