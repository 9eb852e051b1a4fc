package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/atomic"
)

var (
	ErrKafkaTopicRequired   = errors.New("messaging: kafka topic is required")
	ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")
)

// KafkaConfig configures the Kafka implementation. Transport overrides the
// kafka-go default when TLS or SASL is needed.
type KafkaConfig struct {
	Brokers   []string
	Transport kafka.RoundTripper
}

// Kafka writes every topic through a single writer. Events are keyed by user
// ID so one user's events stay ordered within a partition.
type Kafka struct {
	writer *kafka.Writer
	closed atomic.Bool
}

// NewKafka does not dial; the writer connects on first publish.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	return &Kafka{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
			Transport:              cfg.Transport,
		},
	}, nil
}

// Close flushes pending writes. Calling it twice is harmless.
func (k *Kafka) Close() error {
	if !k.closed.CompareAndSwap(false, true) {
		return nil
	}
	return k.writer.Close()
}

func (k *Kafka) Publish(ctx context.Context, destination string, msg Message) (PublishResult, error) {
	if err := precheck(ctx, &k.closed, destination, ErrKafkaTopicRequired); err != nil {
		return PublishResult{}, err
	}

	km := kafka.Message{Topic: destination, Key: msg.Key, Value: msg.Body, Time: time.Now().UTC()}
	for _, h := range msg.Headers {
		if h.Key != "" {
			km.Headers = append(km.Headers, kafka.Header{Key: h.Key, Value: h.Value})
		}
	}

	if err := k.writer.WriteMessages(ctx, km); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: kafka publish to %s: %w", destination, err)
	}

	return PublishResult{Destination: destination, Timestamp: km.Time}, nil
}
