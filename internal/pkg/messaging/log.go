package messaging

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/atomic"
)

// Log is the "none" driver. Events end up in the application log, which is
// enough to follow the security trail in development.
type Log struct {
	closed atomic.Bool
}

func NewLog() *Log {
	return &Log{}
}

func (l *Log) Close() error {
	l.closed.Store(true)
	return nil
}

// Publish logs the destination, key and payload size. The body is not logged.
func (l *Log) Publish(ctx context.Context, destination string, msg Message) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if l.closed.Load() {
		return PublishResult{}, ErrClosed
	}

	slog.InfoContext(ctx, "event published",
		"destination", destination,
		"key", string(msg.Key),
		"bytes", len(msg.Body),
		"headers", len(msg.Headers),
	)

	return PublishResult{Destination: destination, Timestamp: time.Now().UTC()}, nil
}
