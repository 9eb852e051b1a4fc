package entity

// Challenge is the pending second-factor step of a login. It is stored under
// the hash of a server-issued token and only says whose code is expected.
// Failed attempts are counted next to it, not inside it.
type Challenge struct {
	UserID string `json:"user_id"`
}
