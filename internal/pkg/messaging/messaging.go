package messaging

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/atomic"
)

// ErrClosed is returned when publishing through a closed client.
var ErrClosed = errors.New("messaging: client is closed")

// Messaging is a broker client owned by the app; it must be closed on shutdown.
type Messaging interface {
	io.Closer
	Publisher
}

// Publisher publishes messages to a destination (subject or topic).
type Publisher interface {
	// Publish sends a message to the destination.
	Publish(ctx context.Context, destination string, msg Message) (PublishResult, error)
}

// Message is a broker-agnostic message to be published.
type Message struct {
	// Body is the message payload.
	Body []byte
	// Key is used by Kafka for partitioning.
	Key []byte
	// Headers are attached to the message when the broker supports them.
	Headers []Header
}

// Header is a key/value pair used for message headers.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult carries broker-specific publish metadata.
type PublishResult struct {
	// Destination is the subject or topic that received the message.
	Destination string
	// Timestamp is when the message was handed to the broker.
	Timestamp time.Time
}

// precheck runs the validation shared by every backend before any I/O.
func precheck(ctx context.Context, closed *atomic.Bool, destination string, errNoDestination error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if destination == "" {
		return errNoDestination
	}
	if closed.Load() {
		return ErrClosed
	}
	return nil
}
