package entity

import "errors"

var (
	// ErrNotConfigured means the user has no enabled secret and must enroll first.
	ErrNotConfigured = errors.New("twofactor: not configured")

	// ErrSessionExpired means the pending challenge is missing or stale.
	ErrSessionExpired = errors.New("twofactor: session expired")

	// ErrInvalidCode means the submitted code did not verify. The caller may retry.
	ErrInvalidCode = errors.New("twofactor: invalid code")

	// ErrPersistence means a store was unreachable or a write failed.
	ErrPersistence = errors.New("twofactor: persistence failure")
)
