package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/realtime"
)

func TestMemoryBusDeliversToSubscribers(t *testing.T) {
	b := NewMemoryBus()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan realtime.Message, 1)
	if err := b.Subscribe(ctx, func(m realtime.Message) { got <- m }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	want := realtime.Message{Event: realtime.EventLessonCompleted, LessonID: uuid.New()}
	if err := b.Publish(context.Background(), want); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case m := <-got:
		if m.LessonID != want.LessonID {
			t.Fatalf("lesson_id: want=%s got=%s", want.LessonID, m.LessonID)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for message")
	}
}

func TestMemoryBusSubscribeAfterClose(t *testing.T) {
	b := NewMemoryBus()
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	err := b.Subscribe(context.Background(), func(realtime.Message) {})
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("Subscribe after close: want=%v got=%v", ErrClosed, err)
	}
}
