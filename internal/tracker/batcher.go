package tracker

import (
	"context"
	"sync"
	"time"
)

type Event struct {
	EventType    string         `json:"event_type"`
	EventPayload map[string]any `json:"event_payload,omitempty"`
	ClientTS     time.Time      `json:"client_ts"`
}

type SendFunc func(ctx context.Context, events []Event) error

// Batcher buffers events between flushes. A flush hands the whole queue to send and
// forgets it whether or not send succeeds.
type Batcher struct {
	send SendFunc

	mu    sync.Mutex
	queue []Event
}

func NewBatcher(send SendFunc) *Batcher {
	return &Batcher{send: send}
}

func (b *Batcher) Enqueue(e Event) {
	b.mu.Lock()
	b.queue = append(b.queue, e)
	b.mu.Unlock()
}

func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// Flush returns how many events left the queue.
func (b *Batcher) Flush(ctx context.Context) (int, error) {
	b.mu.Lock()
	batch := b.queue
	b.queue = nil
	b.mu.Unlock()

	if len(batch) == 0 {
		return 0, nil
	}
	return len(batch), b.send(ctx, batch)
}
