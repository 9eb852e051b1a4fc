// Package pgsql holds the small amount of plumbing shared by the PostgreSQL
// adapters: the query surface they depend on, driver error translation and
// span handling.
package pgsql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SQLSTATE codes the adapters translate.
const (
	ForeignKeyViolation = "23503"
	UniqueViolation     = "23505"
)

// Querier is satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ErrorMap translates SQLSTATE codes into domain errors. pgx.ErrNoRows is
// always reported as goerror.ErrNotFound.
type ErrorMap map[string]error

// Map returns err translated, or err itself when nothing matches.
func (m ErrorMap) Map(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if mapped, ok := m[pgErr.Code]; ok {
			return mapped
		}
	}

	return err
}

// expected reports whether err is one of the translated outcomes, which are
// normal results for the caller rather than span failures.
func (m ErrorMap) expected(err error) bool {
	if errors.Is(err, goerror.ErrNotFound) {
		return true
	}
	for _, mapped := range m {
		if errors.Is(err, mapped) {
			return true
		}
	}
	return false
}

// Tracer wraps an otel tracer with the error handling every adapter repeats.
type Tracer struct {
	tracer trace.Tracer
	errs   ErrorMap
}

// NewTracer builds a Tracer whose spans translate errors through errs.
func NewTracer(tracer trace.Tracer, errs ErrorMap) *Tracer {
	return &Tracer{tracer: tracer, errs: errs}
}

// Do runs fn in a span named op and returns its translated error.
func (t *Tracer) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := t.tracer.Start(ctx, op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	err := t.errs.Map(fn(ctx))
	if err != nil && !t.errs.expected(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	return err
}
