// Package db is the PostgreSQL secret store.
package db

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/pgsql"
)

// DB stores one TOTP secret per user.
type DB struct {
	conn  pgsql.Querier
	trace *pgsql.Tracer
}

// NewDB reports a foreign key violation as goerror.ErrNotFound: the user row
// the secret points at is gone.
func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{
		conn: conn,
		trace: pgsql.NewTracer(ins.Tracer("twofactor.outbound.db"), pgsql.ErrorMap{
			pgsql.ForeignKeyViolation: goerror.ErrNotFound,
		}),
	}
}
