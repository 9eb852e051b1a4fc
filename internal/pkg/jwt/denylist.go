package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "jwt:revoked:"

// Denylist records token IDs (jti) that were revoked before they expired.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisDenylist keeps revoked token IDs in redis until the token would have
// expired anyway.
type RedisDenylist struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisDenylist returns a Denylist backed by client.
func NewRedisDenylist(client redis.UniversalClient) *RedisDenylist {
	return &RedisDenylist{client: client, now: time.Now}
}

// Revoke marks tokenID as revoked until the given expiry. Already expired
// tokens are ignored.
func (d *RedisDenylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return ErrInvalidToken
	}

	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil
	}

	return d.client.Set(ctx, denylistPrefix+tokenID, 1, ttl).Err()
}

// IsRevoked reports whether tokenID was revoked.
func (d *RedisDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := d.client.Get(ctx, denylistPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}
