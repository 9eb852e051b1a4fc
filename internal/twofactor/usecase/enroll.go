package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
	"github.com/shandysiswandi/twofa/internal/twofactor/entity"
)

// enrollLockDuration bounds how long a crashed enrollment blocks the next one.
const enrollLockDuration = 30 * time.Second

type EnrollOutput struct {
	QRCode         string
	ManualEntryKey string
	Fallback       bool
}

// Enroll issues a fresh secret for the signed-in user, enabled immediately.
// Enrolling again replaces the previous secret.
func (s *Usecase) Enroll(ctx context.Context) (*EnrollOutput, error) {
	ctx, span := s.startSpan(ctx, "Enroll")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("authentication required", goerror.CodeUnauthorized)
	}

	user, err := s.accounts.FindByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "user_id", clm.UserID)
		return nil, goerror.NewBusiness("user not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to find user by id", "user_id", clm.UserID, "error", err)
		return nil, errPersistence(err)
	}

	lease, err := s.idemp.Acquire(ctx, "twofactor:enroll:"+user.ID, enrollLockDuration)
	if err != nil {
		slog.ErrorContext(ctx, "failed to acquire enrollment lock", "user_id", user.ID, "error", err)
		return nil, errPersistence(err)
	}
	if !lease.Acquired() {
		slog.WarnContext(ctx, "enrollment already in progress", "user_id", user.ID, "state", lease.State.String())
		return nil, goerror.NewBusiness("enrollment already in progress", goerror.CodeConflict)
	}
	defer func() {
		if err := s.idemp.Release(context.WithoutCancel(ctx), lease); err != nil {
			slog.WarnContext(ctx, "failed to release enrollment lock", "user_id", user.ID, "error", err)
		}
	}()

	raw, err := s.totp.GenerateSecret()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate two factor secret", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}
	secret := s.totp.EncodeSecret(raw)

	err = s.repoDB.UpsertSecret(ctx, entity.Secret{
		UserID:    user.ID,
		SecretKey: secret,
		IsEnabled: true,
	})
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account removed during enrollment", "user_id", user.ID)
		return nil, goerror.NewBusiness("user not found", goerror.CodeNotFound)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo upsert two factor secret", "user_id", user.ID, "error", err)
		return nil, errPersistence(err)
	}

	account := user.Email
	if account == "" {
		account = user.UserName
	}
	uri := s.totp.ProvisioningURI(s.cfg.GetString("mfa.totp.issuer"), account, secret)

	out := &EnrollOutput{}
	qr, err := s.qr.RenderDataURI(uri)
	if err != nil {
		slog.WarnContext(ctx, "failed to render qr code, falling back to manual entry", "user_id", user.ID, "error", err)
		out.Fallback = true
		out.ManualEntryKey = secret
	} else {
		out.QRCode = qr
	}

	if s.enrollments != nil {
		s.enrollments.Add(ctx, 1)
	}

	now := s.clock.Now()
	s.publish(ctx, "twofactor_enrolled", func(ctx context.Context) error {
		return s.repoMessaging.PublishEnrolled(ctx, SecurityEvent{UserID: user.ID, OccurredAt: now})
	})

	return out, nil
}
