// Package dbapi defines the low-level driver contract consumed by dialect
// adapters: drivers open connections, connections hand out cursors, and cursors
// run statements and expose their results.
//
// The contract mirrors the classic DB-API shape (connect, cursor, execute,
// executemany, commit, rollback) so that a dialect can be written against it
// without knowing which network driver is underneath. SQLDriver adapts any
// database/sql driver to this contract.
package dbapi

import (
	"context"
	"errors"
)

// Errors returned by cursors and connections.
var (
	// ErrCursorClosed is returned when a closed cursor is used.
	ErrCursorClosed = errors.New("cursor is closed")
	// ErrConnClosed is returned when a closed connection is used.
	ErrConnClosed = errors.New("connection is closed")
	// ErrNoResultSet is returned when fetching from a cursor whose last
	// statement produced no rows.
	ErrNoResultSet = errors.New("statement did not produce a result set")
	// ErrTxUnsupported is returned by Begin when the connection has no
	// explicit transaction support.
	ErrTxUnsupported = errors.New("connection does not support explicit transactions")
	// ErrNoParams is returned by ExecuteMany when a statement with
	// placeholders is given an empty flat parameter list.
	ErrNoParams = errors.New("statement has placeholders but no parameters were given")
)

// Layout tells ExecuteMany how its params are shaped.
type Layout int

const (
	// LayoutRows means each element of params is itself a []any row.
	LayoutRows Layout = iota
	// LayoutFlatList means params is one flat list holding every row back to
	// back; the driver splits it into rows of as many values as the statement
	// has placeholders.
	LayoutFlatList
)

// String returns the layout name.
func (l Layout) String() string {
	switch l {
	case LayoutRows:
		return "rows"
	case LayoutFlatList:
		return "flat_list"
	default:
		return "unknown"
	}
}

// ColumnDescription describes one column of a cursor's current result set.
type ColumnDescription struct {
	Name     string
	TypeName string
}

// Driver opens connections.
type Driver interface {
	// Name identifies the driver, e.g. the database/sql driver name.
	Name() string

	// Connect opens a new connection to the data source.
	Connect(ctx context.Context, dsn string) (Conn, error)
}

// Conn is an open database connection.
type Conn interface {
	// Cursor creates a new cursor bound to this connection.
	Cursor(ctx context.Context) (Cursor, error)

	// Commit commits the current transaction, if any.
	Commit() error

	// Rollback rolls back the current transaction, if any.
	Rollback() error

	// Close releases the connection.
	Close() error
}

// Cursor executes statements and exposes their results.
type Cursor interface {
	// Execute runs a single statement with one set of parameters.
	Execute(ctx context.Context, query string, params []any) error

	// ExecuteMany runs one templated statement once per row of params.
	ExecuteMany(ctx context.Context, query string, params []any, layout Layout) error

	// Description returns the columns of the current result set, or nil when
	// the last statement produced no rows.
	Description() []ColumnDescription

	// FetchOne returns the next row, or nil when the result set is exhausted.
	FetchOne() ([]any, error)

	// FetchAll returns every remaining row.
	FetchAll() ([][]any, error)

	// RowCount returns the number of rows affected or fetched, -1 if unknown.
	RowCount() int64

	// LastRowID returns the id generated by the last insert, if the driver
	// reports one.
	LastRowID() (int64, bool)

	// Close releases the cursor and any open result set.
	Close() error
}

// TxBeginner is implemented by connections that support explicit
// transactions on top of autocommit.
type TxBeginner interface {
	Begin(ctx context.Context) error
}
