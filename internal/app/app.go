package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/twofa/internal/pkg/clock"
	"github.com/shandysiswandi/twofa/internal/pkg/config"
	"github.com/shandysiswandi/twofa/internal/pkg/goroutine"
	"github.com/shandysiswandi/twofa/internal/pkg/hash"
	"github.com/shandysiswandi/twofa/internal/pkg/idempotency"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
	"github.com/shandysiswandi/twofa/internal/pkg/messaging"
	"github.com/shandysiswandi/twofa/internal/pkg/otp"
	"github.com/shandysiswandi/twofa/internal/pkg/qrcode"
	"github.com/shandysiswandi/twofa/internal/pkg/router"
	"github.com/shandysiswandi/twofa/internal/pkg/uid"
	"github.com/shandysiswandi/twofa/internal/pkg/validator"
	"go.uber.org/atomic"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	ready  *atomic.Bool

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	bcrypt    hash.Hash
	uuid      uid.StringID
	token     uid.StringID
	totp      *otp.TOTP
	qr        *qrcode.Renderer
	jwt       *jwt.Symmetric

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	denylist  jwt.Denylist
	idemp     idempotency.Idempotency
	messaging messaging.Messaging

	// server
	router     *router.Router
	httpServer *http.Server

	closers []closer
}

type closer struct {
	name string
	fn   func(context.Context) error
}

// New wires every dependency in order. When a step fails, whatever was
// already opened is closed again before the error is returned.
func New() (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
		ready:  atomic.NewBool(false),
	}

	steps := []struct {
		name string
		fn   func() error
	}{
		{"config", app.initConfig},
		{"instrument", app.initInstrument},
		{"primitives", app.initPrimitives},
		{"database", app.initDatabase},
		{"redis", app.initRedis},
		{"messaging", app.initMessaging},
		{"http server", app.initHTTPServer},
		{"modules", app.initModules},
	}

	for _, step := range steps {
		if err := step.fn(); err != nil {
			cancel()
			return nil, errors.Join(fmt.Errorf("init %s: %w", step.name, err), app.closeAll(context.Background()))
		}
	}

	app.ready.Store(true)

	return app, nil
}
