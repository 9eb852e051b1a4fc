package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
)

// Logout revokes the presented token until it would have expired anyway.
func (s *Usecase) Logout(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return errAuthRequired()
	}

	if err := s.accounts.SignOut(ctx, *clm); err != nil {
		slog.ErrorContext(ctx, "failed to revoke access token", "user_id", clm.UserID, "jti", clm.ID, "error", err)
		return goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "user signed out", "user_id", clm.UserID)
	return nil
}
