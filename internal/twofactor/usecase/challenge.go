package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/twofactor/entity"
)

// Required reports whether userID must pass a code challenge after the password.
func (s *Usecase) Required(ctx context.Context, userID string) (bool, error) {
	ctx, span := s.startSpan(ctx, "Required")
	defer span.End()

	secret, err := s.repoDB.FindSecret(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find two factor secret", "user_id", userID, "error", err)
		return false, errPersistence(err)
	}

	return secret.IsEnabled && secret.SecretKey != "", nil
}

// BeginChallenge opens a pending challenge for a user whose password was
// verified and returns the token the client sends back with the code. Only
// the token hash is stored.
func (s *Usecase) BeginChallenge(ctx context.Context, userID string) (string, error) {
	ctx, span := s.startSpan(ctx, "BeginChallenge")
	defer span.End()

	token := s.token.Generate()
	tokenHash, err := s.hashToken(ctx, token)
	if err != nil {
		return "", err
	}

	if err := s.repoCache.SaveChallenge(ctx, tokenHash, entity.Challenge{UserID: userID}, s.challengeTTL()); err != nil {
		slog.ErrorContext(ctx, "failed to save pending challenge", "user_id", userID, "error", err)
		return "", errPersistence(err)
	}

	return token, nil
}
