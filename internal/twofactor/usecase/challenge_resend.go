package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/otp"
)

type ResendCodeInput struct {
	ChallengeToken string `validate:"required,max=128"`
}

type ResendCodeOutput struct {
	Code string
}

// ResendCode returns the current code of a pending challenge. It hands out a
// valid second factor to anyone holding the challenge token, so it is only
// routed in non-production environments with the debug switch on.
func (s *Usecase) ResendCode(ctx context.Context, in ResendCodeInput) (*ResendCodeOutput, error) {
	ctx, span := s.startSpan(ctx, "ResendCode")
	defer span.End()

	in.ChallengeToken = strings.TrimSpace(in.ChallengeToken)
	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	tokenHash, err := s.hashToken(ctx, in.ChallengeToken)
	if err != nil {
		return nil, err
	}

	ch, err := s.loadChallenge(ctx, tokenHash)
	if err != nil {
		return nil, err
	}

	secret, err := s.loadSecret(ctx, ch.UserID)
	if err != nil {
		return nil, err
	}

	code, err := s.totp.ComputeCode(secret.SecretKey, s.clock.Now())
	if errors.Is(err, otp.ErrInvalidSecret) {
		slog.ErrorContext(ctx, "stored two factor secret is malformed", "user_id", ch.UserID)
		return nil, errNotConfigured()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to compute code", "user_id", ch.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.WarnContext(ctx, "debug code resend served", "user_id", ch.UserID)

	return &ResendCodeOutput{Code: code}, nil
}
