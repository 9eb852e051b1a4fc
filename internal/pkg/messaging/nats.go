package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/atomic"
)

var (
	ErrNATSSubjectRequired = errors.New("messaging: nats subject is required")
	ErrNATSURLRequired     = errors.New("messaging: nats url is required")
)

// NATSConfig configures the NATS implementation.
type NATSConfig struct {
	URL     string
	Options []nats.Option
}

// NATS publishes to core NATS subjects. Each publish is flushed so a
// returned nil means the server accepted the message.
type NATS struct {
	conn   *nats.Conn
	closed atomic.Bool
}

func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, ErrNATSURLRequired
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}

	return &NATS{conn: conn}, nil
}

// Close drains in-flight publishes before closing the connection.
func (n *NATS) Close() error {
	if !n.closed.CompareAndSwap(false, true) {
		return nil
	}

	err := n.conn.Drain()
	n.conn.Close()
	return err
}

func (n *NATS) Publish(ctx context.Context, destination string, msg Message) (PublishResult, error) {
	if err := precheck(ctx, &n.closed, destination, ErrNATSSubjectRequired); err != nil {
		return PublishResult{}, err
	}

	nm := nats.NewMsg(destination)
	nm.Data = msg.Body
	for _, h := range msg.Headers {
		if h.Key != "" {
			nm.Header.Add(h.Key, string(h.Value))
		}
	}

	if err := n.conn.PublishMsg(nm); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nats publish to %s: %w", destination, err)
	}
	if err := n.conn.FlushWithContext(ctx); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: nats flush: %w", err)
	}

	return PublishResult{Destination: destination, Timestamp: time.Now().UTC()}, nil
}
