package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
)

type LoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type LoginOutput struct {
	MfaRequired    bool
	ChallengeToken string
	//
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

func errInvalidLogin() error {
	return goerror.NewBusiness("invalid login attempt", goerror.CodeUnauthorized)
}

func (s *Usecase) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	ctx, span := s.startSpan(ctx, "Login")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	user, err := s.accounts.FindByName(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found")
		return nil, errInvalidLogin()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to find user by name", "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.accounts.VerifyPassword(*user, in.Password) {
		slog.WarnContext(ctx, "password user account not match", "user_id", user.ID)
		return nil, errInvalidLogin()
	}

	required, err := s.twoFactor.Required(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if required {
		token, err := s.twoFactor.BeginChallenge(ctx, user.ID)
		if err != nil {
			return nil, err
		}

		return &LoginOutput{MfaRequired: true, ChallengeToken: token}, nil
	}

	session, err := s.accounts.SignIn(ctx, *user, jwt.MethodPassword)
	if err != nil {
		slog.ErrorContext(ctx, "failed to sign in user", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &LoginOutput{
		AccessToken: session.AccessToken,
		TokenType:   session.TokenType,
		ExpiresAt:   session.ExpiresAt,
	}, nil
}
