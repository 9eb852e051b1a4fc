package twofactor

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	identity "github.com/shandysiswandi/twofa/internal/identity/entity"
	"github.com/shandysiswandi/twofa/internal/pkg/clock"
	"github.com/shandysiswandi/twofa/internal/pkg/config"
	"github.com/shandysiswandi/twofa/internal/pkg/goroutine"
	"github.com/shandysiswandi/twofa/internal/pkg/hash"
	"github.com/shandysiswandi/twofa/internal/pkg/idempotency"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/messaging"
	"github.com/shandysiswandi/twofa/internal/pkg/otp"
	"github.com/shandysiswandi/twofa/internal/pkg/qrcode"
	"github.com/shandysiswandi/twofa/internal/pkg/router"
	"github.com/shandysiswandi/twofa/internal/pkg/uid"
	"github.com/shandysiswandi/twofa/internal/pkg/validator"
	"github.com/shandysiswandi/twofa/internal/twofactor/inbound"
	"github.com/shandysiswandi/twofa/internal/twofactor/outbound/cache"
	"github.com/shandysiswandi/twofa/internal/twofactor/outbound/db"
	"github.com/shandysiswandi/twofa/internal/twofactor/outbound/mq"
	"github.com/shandysiswandi/twofa/internal/twofactor/usecase"
)

// Accounts is the slice of the identity module the challenge needs to finish a login.
type Accounts interface {
	FindByID(ctx context.Context, userID string) (*identity.User, error)
	SignIn(ctx context.Context, user identity.User, methods ...string) (*identity.Session, error)
}

type Dependency struct {
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  redis.UniversalClient      `validate:"required"`
	Idemp      idempotency.Idempotency    `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Token      uid.StringID               `validate:"required"`
	Totp       otp.Engine                 `validate:"required"`
	QR         *qrcode.Renderer           `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	Accounts   Accounts                   `validate:"required"`
}

// New wires the module and returns its usecase, which also serves as the
// login gate of the identity module.
func New(dep Dependency) (*usecase.Usecase, error) {
	if err := dep.Validator.Validate(dep); err != nil {
		return nil, err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        db.NewDB(dep.DBConn, dep.Instrument),
		RepoCache:     cache.NewCache(dep.CacheConn, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Accounts:      dep.Accounts,
		Idempotency:   dep.Idemp,
		Totp:          dep.Totp,
		QR:            dep.QR,
		HMAC:          dep.HMAC,
		Token:         dep.Token,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc, dep.Config)

	return uc, nil
}
