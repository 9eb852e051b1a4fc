package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	identity "github.com/shandysiswandi/twofa/internal/identity/entity"
	"github.com/shandysiswandi/twofa/internal/pkg/clock"
	"github.com/shandysiswandi/twofa/internal/pkg/config"
	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/goroutine"
	"github.com/shandysiswandi/twofa/internal/pkg/hash"
	"github.com/shandysiswandi/twofa/internal/pkg/idempotency"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/otp"
	"github.com/shandysiswandi/twofa/internal/pkg/uid"
	"github.com/shandysiswandi/twofa/internal/pkg/validator"
	"github.com/shandysiswandi/twofa/internal/twofactor/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const defaultChallengeTTL = 5 * time.Minute

// SecurityEvent describes an enrollment or a challenge outcome for audit consumers.
type SecurityEvent struct {
	UserID      string
	OccurredAt  time.Time
	MatchedStep *int
	Reason      string
}

type repoDB interface {
	UpsertSecret(ctx context.Context, in entity.Secret) error
	FindSecret(ctx context.Context, userID string) (*entity.Secret, error)
}

type repoCache interface {
	SaveChallenge(ctx context.Context, tokenHash string, ch entity.Challenge, ttl time.Duration) error
	GetChallenge(ctx context.Context, tokenHash string) (*entity.Challenge, error)
	IncrAttempts(ctx context.Context, tokenHash string) (int, error)
	DeleteChallenge(ctx context.Context, tokenHash string) (bool, error)
	ClaimStep(ctx context.Context, userID string, counter uint64, ttl time.Duration) (bool, error)
}

type repoMessaging interface {
	PublishEnrolled(ctx context.Context, msg SecurityEvent) error
	PublishChallengeSucceeded(ctx context.Context, msg SecurityEvent) error
	PublishChallengeFailed(ctx context.Context, msg SecurityEvent) error
}

type accounts interface {
	FindByID(ctx context.Context, userID string) (*identity.User, error)
	SignIn(ctx context.Context, user identity.User, methods ...string) (*identity.Session, error)
}

type locker interface {
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (idempotency.Lease, error)
	Release(ctx context.Context, lease idempotency.Lease) error
}

type qrRenderer interface {
	RenderDataURI(content string) (string, error)
}

type Usecase struct {
	repoDB        repoDB
	repoCache     repoCache
	repoMessaging repoMessaging
	accounts      accounts
	idemp         locker
	totp          otp.Engine
	qr            qrRenderer
	hmac          hash.Hash
	token         uid.StringID
	validator     validator.Validator
	cfg           config.Config
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	enrollments metric.Int64Counter
	challenges  metric.Int64Counter
}

type Dependency struct {
	RepoDB        repoDB
	RepoCache     repoCache
	RepoMessaging repoMessaging
	Accounts      accounts
	Idempotency   locker
	Totp          otp.Engine
	QR            qrRenderer
	HMAC          hash.Hash
	Token         uid.StringID
	Validator     validator.Validator
	Config        config.Config
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	meter := dep.Instrument.Meter("twofactor.usecase")

	enrollments, err := meter.Int64Counter("twofactor.enrollments", metric.WithDescription("Number of completed enrollments"))
	if err != nil {
		slog.Error("failed to create enrollment counter", "error", err)
	}

	challenges, err := meter.Int64Counter("twofactor.challenges", metric.WithDescription("Number of challenge verifications by outcome"))
	if err != nil {
		slog.Error("failed to create challenge counter", "error", err)
	}

	return &Usecase{
		repoDB:        dep.RepoDB,
		repoCache:     dep.RepoCache,
		repoMessaging: dep.RepoMessaging,
		accounts:      dep.Accounts,
		idemp:         dep.Idempotency,
		totp:          dep.Totp,
		qr:            dep.QR,
		hmac:          dep.HMAC,
		token:         dep.Token,
		validator:     dep.Validator,
		cfg:           dep.Config,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
		enrollments:   enrollments,
		challenges:    challenges,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("twofactor.usecase").Start(ctx, name)
}

func (s *Usecase) challengeTTL() time.Duration {
	ttl := s.cfg.GetSecond("modules.twofactor.challenge_ttl_seconds")
	if ttl <= 0 {
		return defaultChallengeTTL
	}
	return ttl
}

func (s *Usecase) hashToken(ctx context.Context, token string) (string, error) {
	h, err := s.hmac.Hash(token)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash challenge token", "error", err)
		return "", goerror.NewServer(err)
	}
	return string(h), nil
}

// loadSecret returns the enabled secret of userID or a ready-to-return error.
func (s *Usecase) loadSecret(ctx context.Context, userID string) (*entity.Secret, error) {
	secret, err := s.repoDB.FindSecret(ctx, userID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "two factor secret not found", "user_id", userID)
		return nil, errNotConfigured()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo find two factor secret", "user_id", userID, "error", err)
		return nil, errPersistence(err)
	}

	if !secret.IsEnabled || secret.SecretKey == "" {
		slog.WarnContext(ctx, "two factor secret is disabled", "user_id", userID)
		return nil, errNotConfigured()
	}

	return secret, nil
}

// publish queues the event on the goroutine manager so the request never waits on the broker.
func (s *Usecase) publish(ctx context.Context, name string, fn func(ctx context.Context) error) {
	s.goroutine.Go(ctx, name, fn)
}

func (s *Usecase) countChallenge(ctx context.Context, outcome string) {
	if s.challenges == nil {
		return
	}
	s.challenges.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func errNotConfigured() error {
	return goerror.NewBusinessCause(entity.ErrNotConfigured, "2FA not configured", goerror.CodeFailedPrecondition)
}

func errSessionExpired() error {
	return goerror.NewBusinessCause(entity.ErrSessionExpired, "user not found", goerror.CodeUnauthorized)
}

func errInvalidCode() error {
	return goerror.NewBusinessCause(entity.ErrInvalidCode, "invalid verification code", goerror.CodeUnauthorized)
}

func errPersistence(err error) error {
	return goerror.NewServer(errors.Join(entity.ErrPersistence, err))
}
