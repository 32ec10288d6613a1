package database

import (
	"context"
	"database/sql"
)

type Database interface {
	Exec(query string, args ...any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
	Close() error
	ExecWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error)

	// PurgeExpiredCache removes cache rows that expired before now and
	// returns how many were deleted.
	PurgeExpiredCache(ctx context.Context) (int64, error)
}
