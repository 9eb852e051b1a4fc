package jwt

import (
	"errors"
	"slices"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

const minHS512KeyLen = 64

// Symmetric signs and verifies HS512 tokens with a shared secret.
type Symmetric struct {
	secret    []byte
	issuer    string
	audiences []string
	ttl       time.Duration
	clock     clocker
	uuid      generator
	parser    *libJWT.Parser
}

// NewHS512 validates cfg and returns a Symmetric signer.
func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < minHS512KeyLen {
		return nil, ErrSigningKeyTooShort
	}

	s := &Symmetric{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       cfg.TTL,
		clock:     cfg.Clock,
		uuid:      cfg.UUID,
	}
	s.parser = libJWT.NewParser(
		libJWT.WithIssuer(cfg.Issuer),
		libJWT.WithAudience(cfg.Audiences...),
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(func() time.Time { return s.clock.Now() }),
	)

	return s, nil
}

// Generate signs a token for sub that expires after TTL.
func (s *Symmetric) Generate(sub Subject) (string, error) {
	now := s.clock.Now()

	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.uuid.Generate(),
			Subject:   sub.UserID,
			Issuer:    s.issuer,
			Audience:  s.audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(s.ttl)),
		},
		UserID:    sub.UserID,
		UserEmail: sub.Email,
		Methods:   slices.Clone(sub.Methods),
	}).SignedString(s.secret)
}

// TTL returns the lifetime of generated tokens.
func (s *Symmetric) TTL() time.Duration {
	return s.ttl
}

// Verify parses tokenStr and checks signature, issuer, audience and lifetime.
func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var claims Claims

	token, err := s.parser.ParseWithClaims(tokenStr, &claims, func(t *libJWT.Token) (any, error) {
		if t.Method != libJWT.SigningMethodHS512 {
			return nil, ErrInvalidSigningMethod
		}
		return s.secret, nil
	})
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, errors.Join(ErrInvalidToken, err)
	case !token.Valid:
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
