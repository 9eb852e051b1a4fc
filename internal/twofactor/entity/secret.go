package entity

import "time"

// Secret is the TOTP secret on file for a user. There is at most one per user.
type Secret struct {
	UserID    string
	SecretKey string // Base32, never logged
	IsEnabled bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Status reports the enrollment state of a user.
type Status struct {
	Provisioned bool
	Enabled     bool
}
