package inbound

import (
	"net/http"
	"time"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID      string    `json:"user_id"`
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (RegisterResponse) StatusCode() int {
	return http.StatusCreated
}

func (RegisterResponse) Message() string {
	return "Registration successful. Set up two-factor authentication to protect your account."
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	MfaRequired    bool       `json:"mfa_required,omitempty"`
	ChallengeToken string     `json:"challenge_token,omitempty"`
	AccessToken    string     `json:"access_token,omitempty"`
	TokenType      string     `json:"token_type,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

type ProfileResponse struct {
	ID               string    `json:"id"`
	UserName         string    `json:"user_name"`
	Email            string    `json:"email"`
	CreatedAt        time.Time `json:"created_at"`
	TwoFactorEnabled bool      `json:"two_factor_enabled"`
	AuthMethods      []string  `json:"auth_methods"`
}
