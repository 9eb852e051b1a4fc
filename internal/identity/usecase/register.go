package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
)

type RegisterInput struct {
	Email    string `validate:"required,email,max=256"`
	Password string `validate:"required,password"`
}

type RegisterOutput struct {
	UserID      string
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Register creates the account and signs it in right away so the client can
// go on to two-factor enrollment.
func (s *Usecase) Register(ctx context.Context, in RegisterInput) (*RegisterOutput, error) {
	ctx, span := s.startSpan(ctx, "Register")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.accounts.CreateAccount(ctx, in.Email, in.Password)
	if errors.Is(err, goerror.ErrConflict) {
		slog.WarnContext(ctx, "user name already taken")
		return nil, goerror.NewBusiness("user name already taken", goerror.CodeConflict)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to create account", "error", err)
		return nil, goerror.NewServer(err)
	}

	s.publishRegistered(ctx, user)

	session, err := s.accounts.SignIn(ctx, *user, jwt.MethodPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to sign in user", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &RegisterOutput{
		UserID:      user.ID,
		AccessToken: session.AccessToken,
		TokenType:   session.TokenType,
		ExpiresAt:   session.ExpiresAt,
	}, nil
}
