// Package uid generates identifiers: UUIDv7 for records, token IDs and
// correlation IDs, and opaque hex tokens for server-issued challenge handles.
package uid

import "github.com/google/uuid"

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}

// UUID generates time-ordered UUIDv7 strings so primary keys stay index friendly.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a UUIDv7, or a random UUIDv4 if the v7 clock sequence
// cannot be read.
func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
