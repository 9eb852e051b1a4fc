package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
	"github.com/shandysiswandi/twofa/internal/twofactor/entity"
)

func (s *Usecase) Status(ctx context.Context) (*entity.Status, error) {
	ctx, span := s.startSpan(ctx, "Status")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	secret, err := s.repoDB.FindSecret(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return &entity.Status{}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find two factor secret", "user_id", clm.UserID, "error", err)
		return nil, errPersistence(err)
	}

	return &entity.Status{
		Provisioned: secret.SecretKey != "",
		Enabled:     secret.IsEnabled && secret.SecretKey != "",
	}, nil
}
