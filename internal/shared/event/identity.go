package event

import "time"

const IdentityUserRegisteredDestination string = "identity.user.registered"

type UserRegisteredMessage struct {
	UserID     string    `json:"user_id"`
	UserName   string    `json:"user_name"`
	OccurredAt time.Time `json:"occurred_at"`
}
