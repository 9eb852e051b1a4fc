package identity

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/twofa/internal/identity/inbound"
	"github.com/shandysiswandi/twofa/internal/identity/outbound/db"
	"github.com/shandysiswandi/twofa/internal/identity/outbound/mq"
	"github.com/shandysiswandi/twofa/internal/identity/usecase"
	"github.com/shandysiswandi/twofa/internal/pkg/clock"
	"github.com/shandysiswandi/twofa/internal/pkg/goroutine"
	"github.com/shandysiswandi/twofa/internal/pkg/hash"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
	"github.com/shandysiswandi/twofa/internal/pkg/messaging"
	"github.com/shandysiswandi/twofa/internal/pkg/router"
	"github.com/shandysiswandi/twofa/internal/pkg/uid"
	"github.com/shandysiswandi/twofa/internal/pkg/validator"
)

type AccountsDependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Bcrypt     hash.Hash                  `validate:"required"`
	JWT        *jwt.Symmetric             `validate:"required"`
	Denylist   jwt.Denylist               `validate:"required"`
	UUID       uid.StringID               `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

// NewAccounts builds the account primitives shared with the twofactor module.
func NewAccounts(dep AccountsDependency) (*usecase.Accounts, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	return usecase.NewAccounts(usecase.AccountsDependency{
		RepoDB:     db.NewDB(dep.DBConn, dep.Instrument),
		Bcrypt:     dep.Bcrypt,
		JWT:        dep.JWT,
		Denylist:   dep.Denylist,
		UUID:       dep.UUID,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	}), nil
}

// TwoFactor is the login gate; the twofactor usecase satisfies it.
type TwoFactor interface {
	Required(ctx context.Context, userID string) (bool, error)
	BeginChallenge(ctx context.Context, userID string) (string, error)
}

type Dependency struct {
	Accounts   *usecase.Accounts          `validate:"required"`
	TwoFactor  TwoFactor                  `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		Accounts:      dep.Accounts,
		TwoFactor:     dep.TwoFactor,
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Validator:     dep.Validator,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
