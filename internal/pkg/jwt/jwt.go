// Package jwt issues and verifies the access tokens handed out once a sign-in
// is complete, and revokes them on logout.
//
// Tokens record how the caller authenticated in the "amr" claim (RFC 8176):
// MethodPassword alone for accounts without 2FA, MethodPassword plus MethodOTP
// after a successful TOTP challenge.
package jwt

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Authentication method references carried in the amr claim.
const (
	MethodPassword = "pwd"
	MethodOTP      = "otp"
)

var (
	// ErrInvalidSigningMethod is returned when the JWT signing method is not supported.
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")

	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrTokenExpired is returned when the JWT token has expired.
	ErrTokenExpired = errors.New("JWT token has expired")

	// ErrInvalidToken is returned when the token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")
)

// Subject describes who a token is issued to and how they proved it.
type Subject struct {
	UserID  string
	Email   string
	Methods []string
}

// Verifier validates bearer tokens.
type Verifier interface {
	Verify(tokenStr string) (Claims, error)
}

// JWT issues and verifies access tokens.
type JWT interface {
	Verifier
	Generate(sub Subject) (string, error)
	TTL() time.Duration
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type jwtContextKey struct{}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	// Secret is the HS512 key, at least 64 bytes.
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clocker
	// UUID generates the jti of every token.
	UUID generator
}

// Claims are the registered claims plus the signed-in user.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string   `json:"user_id"`
	UserEmail string   `json:"user_email"`
	Methods   []string `json:"amr,omitempty"`
}

// HasMethod reports whether the token was issued after method succeeded.
func (c Claims) HasMethod(method string) bool {
	return slices.Contains(c.Methods, method)
}

// GetAuth returns the JWT claims stored in the context, if any.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

// SetAuth stores JWT claims in the context.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}
