package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/twofa/internal/identity/entity"
	"github.com/shandysiswandi/twofa/internal/pkg/clock"
	"github.com/shandysiswandi/twofa/internal/pkg/goroutine"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type UserRegisteredEvent struct {
	UserID     string
	UserName   string
	OccurredAt time.Time
}

type repoDB interface {
	CreateUser(ctx context.Context, u entity.User) error
	FindUserByID(ctx context.Context, id string) (*entity.User, error)
	FindUserByName(ctx context.Context, normalizedName string) (*entity.User, error)
}

type repoMessaging interface {
	PublishUserRegistered(ctx context.Context, msg UserRegisteredEvent) error
}

// twoFactor decides whether a password login must be completed with a code.
type twoFactor interface {
	Required(ctx context.Context, userID string) (bool, error)
	BeginChallenge(ctx context.Context, userID string) (string, error)
}

type Usecase struct {
	accounts      *Accounts
	twoFactor     twoFactor
	repoMessaging repoMessaging
	validator     validator.Validator
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	Accounts      *Accounts
	TwoFactor     twoFactor
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		accounts:      dep.Accounts,
		twoFactor:     dep.TwoFactor,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) publishRegistered(ctx context.Context, user *entity.User) {
	msg := UserRegisteredEvent{UserID: user.ID, UserName: user.UserName, OccurredAt: s.clock.Now()}

	s.goroutine.Go(ctx, "user_registered", func(ctx context.Context) error {
		return s.repoMessaging.PublishUserRegistered(ctx, msg)
	})
}
