// Package migration applies embedded goose SQL migrations to a pgx pool.
package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// ErrMigrate wraps every failure returned by Up.
var ErrMigrate = errors.New("migration: failed to apply migrations")

// DefaultTable is the goose version table used when Config.Table is empty.
const DefaultTable = "schema_migrations"

// Config selects the migration source.
type Config struct {
	// FS holds the *.sql files.
	FS fs.FS
	// Dir is the directory inside FS, "." when the files sit at the root.
	Dir string
	// Table is the goose version table.
	Table string
}

// goose keeps its settings in package globals.
var mu sync.Mutex

// Up applies all pending migrations.
func Up(ctx context.Context, pool *pgxpool.Pool, cfg Config) error {
	if cfg.FS == nil {
		return fmt.Errorf("%w: no migration source", ErrMigrate)
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}

	mu.Lock()
	defer mu.Unlock()

	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.ErrorContext(ctx, "failed to close migration connection", "error", err)
		}
	}(db)

	goose.SetBaseFS(cfg.FS)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(slogAdapter{ctx: ctx})
	goose.SetTableName(cfg.Table)

	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrMigrate, err)
	}

	if err := goose.UpContext(ctx, db, cfg.Dir); err != nil {
		return errors.Join(ErrMigrate, err)
	}

	return nil
}

// slogAdapter routes goose output through slog instead of stdout.
type slogAdapter struct {
	ctx context.Context
}

func (a slogAdapter) Fatalf(format string, v ...any) {
	slog.ErrorContext(a.ctx, fmt.Sprintf(format, v...))
}

func (a slogAdapter) Printf(format string, v ...any) {
	slog.InfoContext(a.ctx, fmt.Sprintf(format, v...))
}
