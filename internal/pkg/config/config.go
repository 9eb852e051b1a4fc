// Package config exposes typed access to runtime configuration.
package config

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"
)

// Config is the read-only view of configuration used by the application.
//
// Durations are stored as plain integers in the file and scaled by the
// accessor (GetSecond reads "300" as five minutes). Missing keys yield the
// zero value unless a default was registered.
type Config interface {
	io.Closer

	IsSet(key string) bool
	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetFloat64(key string) float64

	// GetSecond reads an integer number of seconds.
	GetSecond(key string) time.Duration

	// GetArray reads a comma separated list, trimming blanks and dropping empty items.
	GetArray(key string) []string
}

// MissingKeysError lists required keys that resolved to an empty value.
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("config: missing required keys: %s", strings.Join(e.Keys, ", "))
}

// Require checks that every key resolves to a non-blank string.
func Require(cfg Config, keys ...string) error {
	var missing []string
	for _, key := range keys {
		if strings.TrimSpace(cfg.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	slices.Sort(missing)
	return &MissingKeysError{Keys: missing}
}
