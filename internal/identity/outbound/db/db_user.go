package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shandysiswandi/twofa/internal/identity/entity"
)

const userColumns = `id, user_name, normalized_user_name, email, normalized_email, password_hash, security_stamp, created_at`

const createUser = `INSERT INTO users (` + userColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const findUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

const findUserByName = `SELECT ` + userColumns + ` FROM users WHERE normalized_user_name = $1`

// CreateUser returns goerror.ErrConflict when the normalized user name is taken.
func (s *DB) CreateUser(ctx context.Context, u entity.User) error {
	return s.trace.Do(ctx, "CreateUser", func(ctx context.Context) error {
		_, err := s.conn.Exec(ctx, createUser,
			u.ID, u.UserName, u.NormalizedUserName,
			u.Email, u.NormalizedEmail,
			u.PasswordHash, u.SecurityStamp, u.CreatedAt,
		)
		return err
	})
}

func (s *DB) FindUserByID(ctx context.Context, id string) (*entity.User, error) {
	return s.findUser(ctx, "FindUserByID", findUserByID, id)
}

func (s *DB) FindUserByName(ctx context.Context, normalizedName string) (*entity.User, error) {
	return s.findUser(ctx, "FindUserByName", findUserByName, normalizedName)
}

func (s *DB) findUser(ctx context.Context, op, query, arg string) (*entity.User, error) {
	var u entity.User
	err := s.trace.Do(ctx, op, func(ctx context.Context) error {
		return scanUser(s.conn.QueryRow(ctx, query, arg), &u)
	})
	if err != nil {
		return nil, err
	}

	return &u, nil
}

func scanUser(row pgx.Row, u *entity.User) error {
	return row.Scan(
		&u.ID,
		&u.UserName,
		&u.NormalizedUserName,
		&u.Email,
		&u.NormalizedEmail,
		&u.PasswordHash,
		&u.SecurityStamp,
		&u.CreatedAt,
	)
}
