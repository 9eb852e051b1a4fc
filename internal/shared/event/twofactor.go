package event

import "time"

const (
	TwoFactorEnrolledDestination           string = "twofactor.enrolled"
	TwoFactorChallengeSucceededDestination string = "twofactor.challenge.succeeded"
	TwoFactorChallengeFailedDestination    string = "twofactor.challenge.failed"
)

// TwoFactorMessage is the payload of every twofactor security event.
// It never carries the secret or the submitted code.
type TwoFactorMessage struct {
	UserID      string    `json:"user_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	MatchedStep *int      `json:"matched_step,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	ClientIP    string    `json:"client_ip,omitempty"`
}
