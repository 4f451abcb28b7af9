// Package adapter provides the dialect adapter contract: the set of methods
// the engine calls to load a driver, connect, reflect the catalog, execute
// statements and interpret their results.
//
// This package contains the public contract that all database adapters must implement.
// Concrete adapter implementations are in pkg/adapters/ subdirectories.
package adapter

import (
	"context"
	"errors"

	"github.com/leapstack-labs/sqreamsql/pkg/core"
	"github.com/leapstack-labs/sqreamsql/pkg/dbapi"
	"github.com/leapstack-labs/sqreamsql/pkg/dialect"
)

// Config is an alias for core.AdapterConfig.
type Config = core.AdapterConfig

// ErrNotConnected is returned when a reflection or execution call is made
// without a live connection.
var ErrNotConnected = errors.New("database connection not established")

// Adapter defines the interface that all dialect adapters must implement.
type Adapter interface {
	// Name returns the adapter's registry name.
	Name() string

	// Dialect returns the static dialect definition used to compile
	// statements for this adapter.
	Dialect() *dialect.Dialect

	// Configure applies adapter-specific settings from cfg.
	Configure(cfg Config) error

	// LoadDriver returns the low-level driver. Failure is fatal: without a
	// driver no connection can be opened.
	LoadDriver() (dbapi.Driver, error)

	// DSN builds the driver data source name for cfg.
	DSN(cfg Config) (string, error)

	// Initialize runs once against the first live connection.
	Initialize(ctx context.Context, conn dbapi.Conn) error

	// DefaultSchema returns the schema name set by Initialize.
	DefaultSchema() string

	// Catalog reflection. The schema argument may be empty.
	TableNames(ctx context.Context, conn dbapi.Conn, schema string) ([]string, error)
	SchemaNames(ctx context.Context, conn dbapi.Conn) ([]string, error)
	HasTable(ctx context.Context, conn dbapi.Conn, table, schema string) (bool, error)
	Columns(ctx context.Context, conn dbapi.Conn, table, schema string) ([]core.ReflectedColumn, error)
	PrimaryKey(ctx context.Context, conn dbapi.Conn, table, schema string) (core.PrimaryKey, error)
	ForeignKeys(ctx context.Context, conn dbapi.Conn, table, schema string) ([]core.ForeignKey, error)
	Indexes(ctx context.Context, conn dbapi.Conn, table, schema string) ([]core.Index, error)
	ServerVersion(ctx context.Context, conn dbapi.Conn) (string, error)

	// DoExecute runs one statement on cur.
	DoExecute(ctx context.Context, cur dbapi.Cursor, statement string, params []any, ec ExecutionContext) error

	// DoCommit and DoRollback end the connection's current transaction.
	DoCommit(conn dbapi.Conn) error
	DoRollback(conn dbapi.Conn) error

	// NewExecutionContext creates the per-statement context for compiled.
	NewExecutionContext(ctx context.Context, conn dbapi.Conn, compiled *dialect.Compiled, opts ExecOptions) (ExecutionContext, error)
}

// ExecOptions configures one statement execution.
type ExecOptions struct {
	// AutoClose closes the owning connection when the result is closed.
	AutoClose bool
}

// ExecutionContext mediates between a compiled statement and its result.
type ExecutionContext interface {
	// ID identifies the execution in logs.
	ID() string

	// Cursor returns the cursor created when the context was constructed.
	Cursor() dbapi.Cursor

	// Compiled returns the statement being executed.
	Compiled() *dialect.Compiled

	// Options returns the execution options.
	Options() ExecOptions

	// SetupResult interprets the executed statement and returns its result.
	// The cursor is closed on every error path.
	SetupResult(ctx context.Context) (*Result, error)
}
