package bus

import (
	"context"
	"sync"

	"github.com/yungbote/coursetrack-backend/internal/realtime"
)

// memoryBus fans out in-process. Used when no redis is configured, which is
// only correct for a single API instance.
type memoryBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan realtime.Message
	closed bool
}

func NewMemoryBus() Bus {
	return &memoryBus{subs: map[int]chan realtime.Message{}}
}

func (b *memoryBus) Publish(ctx context.Context, msg realtime.Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- msg:
		default:
			// slow subscriber; drop
		}
	}
	return nil
}

func (b *memoryBus) Subscribe(ctx context.Context, onMsg func(m realtime.Message)) error {
	ch := make(chan realtime.Message, 64)
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		defer func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				onMsg(m)
			}
		}
	}()
	return nil
}

func (b *memoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for id, ch := range b.subs {
		close(ch)
		delete(b.subs, id)
	}
	return nil
}
