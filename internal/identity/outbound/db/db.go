// Package db persists identity users in PostgreSQL.
package db

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/twofa/internal/pkg/goerror"
	"github.com/shandysiswandi/twofa/internal/pkg/instrument"
	"github.com/shandysiswandi/twofa/internal/pkg/pgsql"
)

// DB implements the identity user repository.
type DB struct {
	conn  pgsql.Querier
	trace *pgsql.Tracer
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{
		conn: conn,
		trace: pgsql.NewTracer(ins.Tracer("identity.outbound.db"), pgsql.ErrorMap{
			pgsql.UniqueViolation: goerror.ErrConflict,
		}),
	}
}
