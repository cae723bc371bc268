// Package postgres implements remote.Store on PostgreSQL with pgx.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the subset of *pgxpool.Pool the store uses. It is implemented by
// *pgxpool.Pool and pgxmock.PgxPoolIface.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// insufficientPrivilege is the SQLSTATE raised when row-level security or
// grants reject a statement.
const insufficientPrivilege = "42501"

func isPermissionDenied(err error) bool {
	var pg *pgconn.PgError
	return errors.As(err, &pg) && pg.Code == insufficientPrivilege
}

func newPool(ctx context.Context, dsn string) (Pool, error) {
	return pgxpool.New(ctx, dsn)
}
