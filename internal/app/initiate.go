package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/twofa/internal/app/migrations"
	"github.com/shandysiswandi/twofa/internal/pkg/clock"
	"github.com/shandysiswandi/twofa/internal/pkg/config"
	"github.com/shandysiswandi/twofa/internal/pkg/goroutine"
	"github.com/shandysiswandi/twofa/internal/pkg/hash"
	"github.com/shandysiswandi/twofa/internal/pkg/idempotency"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/jwt"
	"github.com/shandysiswandi/twofa/internal/pkg/messaging"
	"github.com/shandysiswandi/twofa/internal/pkg/migration"
	"github.com/shandysiswandi/twofa/internal/pkg/otp"
	"github.com/shandysiswandi/twofa/internal/pkg/qrcode"
	"github.com/shandysiswandi/twofa/internal/pkg/router"
	"github.com/shandysiswandi/twofa/internal/pkg/uid"
	"github.com/shandysiswandi/twofa/internal/pkg/validator"
)

const defaultConfigPath = "./config/config.yaml"

// requiredKeys have no usable default; startup stops when any is blank.
var requiredKeys = []string{
	"database.url",
	"redis.url",
	"jwt.secret",
	"hash.hmac.secret",
}

func (a *App) initConfig() error {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	a.onClose("config", func(context.Context) error { return cfg.Close() })

	if err := config.Require(cfg, requiredKeys...); err != nil {
		return err
	}

	a.config = cfg
	return nil
}

func (a *App) initInstrument() error {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("app.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		LogLevel:         a.config.GetString("instrument.log_level"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		return err
	}
	a.onClose("instrument", ins.Shutdown)

	a.ins = ins
	return nil
}

// initPrimitives builds the stateless helpers: clocks, id sources, hashing,
// validation and the TOTP/QR engines.
func (a *App) initPrimitives() error {
	v, err := validator.NewV10Validator()
	if err != nil {
		return fmt.Errorf("validator: %w", err)
	}

	a.validator = v
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.token = uid.NewToken()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))
	a.bcrypt = hash.NewBcrypt(a.config.GetInt("hash.bcrypt.cost"), a.config.GetString("hash.bcrypt.pepper"))
	a.totp = otp.NewTOTP(otp.Config{
		Period: a.config.GetSecond("mfa.totp.period"),
		Digits: a.config.GetInt("mfa.totp.digits"),
		Window: a.config.GetInt("mfa.totp.window"),
	})
	a.qr = qrcode.New(a.config.GetInt("mfa.qr.size"))

	signer, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       a.config.GetSecond("jwt.ttl_seconds"),
		Clock:     a.clock,
		UUID:      a.uuid,
	})
	if err != nil {
		return fmt.Errorf("jwt: %w", err)
	}
	a.jwt = signer

	return nil
}

// waitReachable pings with capped exponential backoff so the service
// tolerates dependencies that come up after it does.
func (a *App) waitReachable(name string, ping func(context.Context) error) error {
	b := retry.WithMaxRetries(8, retry.WithCappedDuration(3*time.Second, retry.NewExponential(200*time.Millisecond)))

	return retry.Do(a.ctx, b, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		if err := ping(ctx); err != nil {
			slog.WarnContext(ctx, "dependency not reachable yet", "name", name, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (a *App) initDatabase() error {
	pc, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		return fmt.Errorf("parse database.url: %w", err)
	}

	if n := a.config.GetInt32("database.pool.max_conns"); n > 0 {
		pc.MaxConns = n
	}
	pc.MinConns = a.config.GetInt32("database.pool.min_conns")
	pc.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	pc.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	pc.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, pc)
	if err != nil {
		return err
	}
	a.onClose("postgres", func(context.Context) error {
		pool.Close()
		return nil
	})

	if err := a.waitReachable("postgres", pool.Ping); err != nil {
		return err
	}

	if a.config.GetBool("database.migrate") {
		if err := migration.Up(a.ctx, pool, migration.Config{FS: migrations.FS}); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	a.dbConn = pool
	return nil
}

func (a *App) initRedis() error {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		return fmt.Errorf("parse redis.url: %w", err)
	}

	rdb := redis.NewClient(opt)
	a.onClose("redis", func(context.Context) error { return rdb.Close() })

	if err := a.waitReachable("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}); err != nil {
		return err
	}

	a.cacheConn = rdb
	a.denylist = jwt.NewRedisDenylist(rdb)
	a.idemp = idempotency.New(rdb)
	return nil
}

func (a *App) initMessaging() error {
	driver := a.config.GetString("messaging.driver")

	client, err := messaging.NewFromDriver(driver, messaging.FactoryOptions{
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Transport: &kafka.Transport{
				ClientID:    a.config.GetString("messaging.kafka.client_id"),
				DialTimeout: a.config.GetSecond("messaging.kafka.dial_timeout_seconds"),
			},
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("driver %q: %w", driver, err)
	}
	a.onClose("messaging", func(context.Context) error { return client.Close() })

	a.messaging = client
	return nil
}

func (a *App) initHTTPServer() error {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Denylist:   a.denylist,
		Instrument: a.ins,
		Ready:      a.ready.Load,
	})

	handler := cors.New(cors.Options{
		AllowedOrigins:   a.config.GetArray("app.server.cors"),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", router.HeaderCorrelationID},
		ExposedHeaders:   []string{router.HeaderCorrelationID},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           handler,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
	return nil
}

// onClose registers a resource release; Stop runs them newest first.
func (a *App) onClose(name string, fn func(context.Context) error) {
	a.closers = append(a.closers, closer{name: name, fn: fn})
}

func (a *App) closeAll(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.name, err))
		}
	}
	a.closers = nil

	return errors.Join(errs...)
}
