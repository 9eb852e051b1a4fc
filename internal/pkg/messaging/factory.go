package messaging

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Driver names accepted by messaging.driver.
const (
	DriverNone  = "none"
	DriverNATS  = "nats"
	DriverKafka = "kafka"
)

// ErrUnknownDriver indicates an unsupported messaging driver.
var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions carries the settings of every backend; only the selected
// driver reads its part.
type FactoryOptions struct {
	Kafka KafkaConfig
	NATS  NATSConfig
}

var drivers = map[string]func(FactoryOptions) (Messaging, error){
	DriverNone:  func(FactoryOptions) (Messaging, error) { return NewLog(), nil },
	DriverKafka: func(o FactoryOptions) (Messaging, error) { return NewKafka(o.Kafka) },
	DriverNATS:  func(o FactoryOptions) (Messaging, error) { return NewNATS(o.NATS) },
}

// NewFromDriver builds the backend named by driver; blank selects "none".
func NewFromDriver(driver string, opts FactoryOptions) (Messaging, error) {
	name := strings.ToLower(strings.TrimSpace(driver))
	if name == "" {
		name = DriverNone
	}

	build, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("%w %q, want one of %s", ErrUnknownDriver, driver,
			strings.Join(slices.Sorted(maps.Keys(drivers)), ", "))
	}

	return build(opts)
}
