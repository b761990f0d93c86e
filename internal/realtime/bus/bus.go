package bus

import (
	"context"
	"errors"

	"github.com/yungbote/coursetrack-backend/internal/realtime"
)

// ErrClosed is returned by Subscribe once the bus has been closed.
var ErrClosed = errors.New("bus closed")

type Bus interface {
	Publish(ctx context.Context, msg realtime.Message) error
	// Subscribe delivers messages to onMsg until ctx is done.
	Subscribe(ctx context.Context, onMsg func(m realtime.Message)) error
	Close() error
}
