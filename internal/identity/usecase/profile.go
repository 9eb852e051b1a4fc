package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
)

type ProfileOutput struct {
	ID               string
	UserName         string
	Email            string
	CreatedAt        time.Time
	TwoFactorEnabled bool
	// Methods is the amr of the token the caller presented.
	Methods []string
}

func errAuthRequired() error {
	return goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
}

func (s *Usecase) Profile(ctx context.Context) (*ProfileOutput, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, errAuthRequired()
	}

	user, err := s.accounts.FindByID(ctx, clm.UserID)
	switch {
	case errors.Is(err, goerror.ErrNotFound):
		slog.WarnContext(ctx, "token refers to a deleted user", "user_id", clm.UserID)
		return nil, errAuthRequired()
	case err != nil:
		slog.ErrorContext(ctx, "failed to load profile", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	enabled, err := s.twoFactor.Required(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &ProfileOutput{
		ID:               user.ID,
		UserName:         user.UserName,
		Email:            user.Email,
		CreatedAt:        user.CreatedAt,
		TwoFactorEnabled: enabled,
		Methods:          clm.Methods,
	}, nil
}
