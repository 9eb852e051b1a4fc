package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
	"github.com/shandysiswandi/twofa/internal/pkg/otp"
)

type VerifyCodeInput struct {
	Code string `validate:"required,otpcode"`
}

// VerifyCode checks a code against the secret of the signed-in user, e.g. right
// after enrollment. It does not change the enabled flag.
func (s *Usecase) VerifyCode(ctx context.Context, in VerifyCodeInput) error {
	ctx, span := s.startSpan(ctx, "VerifyCode")
	defer span.End()

	in.Code = strings.TrimSpace(in.Code)
	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	secret, err := s.loadSecret(ctx, clm.UserID)
	if err != nil {
		return err
	}

	ver, err := s.totp.VerifyCode(secret.SecretKey, in.Code, s.clock.Now())
	if errors.Is(err, otp.ErrInvalidSecret) {
		slog.ErrorContext(ctx, "stored two factor secret is malformed", "user_id", clm.UserID)
		return errNotConfigured()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to verify code", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if !ver.Valid {
		slog.WarnContext(ctx, "invalid two factor code", "user_id", clm.UserID)
		return errInvalidCode()
	}

	return nil
}
