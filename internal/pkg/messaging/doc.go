// Package messaging publishes domain events to a message broker.
//
// Use cases depend on Publisher only; the concrete broker (NATS, Kafka, or
// the log-only driver used in development) is picked by NewFromDriver.
package messaging
