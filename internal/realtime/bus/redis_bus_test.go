package bus

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/coursetrack-backend/internal/platform/logger"
	"github.com/yungbote/coursetrack-backend/internal/realtime"
)

func TestDecodeMessage(t *testing.T) {
	lesson := uuid.New()
	msg, err := decodeMessage(`{"event":"lesson_completed","lesson_id":"` + lesson.String() + `","percent_watched":85}`)
	if err != nil {
		t.Fatalf("decodeMessage: %v", err)
	}
	if msg.Event != realtime.EventLessonCompleted || msg.LessonID != lesson || msg.Percent != 85 {
		t.Fatalf("message: got=%+v", msg)
	}
	if _, err := decodeMessage("not json"); err == nil {
		t.Fatalf("decodeMessage: want error for garbage")
	}
}

func TestNewRedisBusRequiresClient(t *testing.T) {
	if _, err := NewRedisBus(logger.Nop(), nil, ""); err == nil {
		t.Fatalf("NewRedisBus: want error without client")
	}
}
