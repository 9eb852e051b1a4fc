package entity

import "time"

// User is an account of the login flow. Name lookups use the normalized
// (upper-cased) forms.
type User struct {
	ID                 string
	UserName           string
	NormalizedUserName string
	Email              string
	NormalizedEmail    string
	PasswordHash       string
	SecurityStamp      string
	CreatedAt          time.Time
}

// Session is what a successful sign-in hands to the client.
type Session struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}
