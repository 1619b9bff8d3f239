package core

import (
	"context"
	"database/sql"
)

// DBTX is a minimal interface for database operations. It is implemented by
// both *sql.DB and *sql.Tx, letting the rest of the module stay
// transaction-agnostic: code that receives a DBTX doesn't know or care
// whether it's inside the engine's write transaction or issuing a
// standalone read.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Ensure standard library types implement DBTX.
var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
)
