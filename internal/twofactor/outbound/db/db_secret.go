package db

import (
	"context"

	"github.com/shandysiswandi/twofa/internal/twofactor/entity"
)

const upsertSecret = `INSERT INTO two_factor_secrets (user_id, secret_key, is_enabled, created_at, updated_at)
VALUES ($1, $2, $3, now(), now())
ON CONFLICT (user_id) DO UPDATE
SET secret_key = EXCLUDED.secret_key,
    is_enabled = EXCLUDED.is_enabled,
    updated_at = now()`

const findSecret = `SELECT user_id, secret_key, is_enabled, created_at, updated_at
FROM two_factor_secrets
WHERE user_id = $1`

// UpsertSecret creates or replaces the secret of a user in a single statement.
func (s *DB) UpsertSecret(ctx context.Context, in entity.Secret) error {
	return s.trace.Do(ctx, "UpsertSecret", func(ctx context.Context) error {
		_, err := s.conn.Exec(ctx, upsertSecret, in.UserID, in.SecretKey, in.IsEnabled)
		return err
	})
}

// FindSecret returns goerror.ErrNotFound when the user never enrolled.
func (s *DB) FindSecret(ctx context.Context, userID string) (*entity.Secret, error) {
	var out entity.Secret
	err := s.trace.Do(ctx, "FindSecret", func(ctx context.Context) error {
		return s.conn.QueryRow(ctx, findSecret, userID).Scan(
			&out.UserID,
			&out.SecretKey,
			&out.IsEnabled,
			&out.CreatedAt,
			&out.UpdatedAt,
		)
	})
	if err != nil {
		return nil, err
	}

	return &out, nil
}
