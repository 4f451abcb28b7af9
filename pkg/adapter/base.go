package adapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/sqreamsql/pkg/dbapi"
	"github.com/leapstack-labs/sqreamsql/pkg/dialect"
)

// ErrNoRows is returned by QueryScalar when the query produced no rows.
var ErrNoRows = errors.New("query returned no rows")

// BaseAdapter provides common functionality for adapters.
// Embed this struct in concrete adapter implementations to get raw catalog
// queries and the default transaction delegation.
type BaseAdapter struct {
	Cfg    Config
	Logger *slog.Logger
}

// Log returns the adapter logger, or a discarding logger when none is set.
func (b *BaseAdapter) Log() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

// QueryAll runs a raw query on a fresh cursor and returns every row.
// The cursor is always closed.
func (b *BaseAdapter) QueryAll(ctx context.Context, conn dbapi.Conn, query string, params ...any) (rows [][]any, err error) {
	if conn == nil {
		return nil, ErrNotConnected
	}

	cur, err := conn.Cursor(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open cursor: %w", err)
	}
	defer func() {
		if closeErr := cur.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close cursor: %w", closeErr)
		}
	}()

	b.Log().Debug("catalog query", slog.String("query", query))
	if err := cur.Execute(ctx, query, params); err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	rows, err = cur.FetchAll()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rows: %w", err)
	}
	return rows, nil
}

// QueryScalar runs a raw query and returns the first column of its first row.
func (b *BaseAdapter) QueryScalar(ctx context.Context, conn dbapi.Conn, query string, params ...any) (any, error) {
	rows, err := b.QueryAll(ctx, conn, query, params...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrNoRows
	}
	return rows[0][0], nil
}

// DoCommit commits the connection's current transaction.
func (b *BaseAdapter) DoCommit(conn dbapi.Conn) error {
	if conn == nil {
		return ErrNotConnected
	}
	return conn.Commit()
}

// DoRollback rolls back the connection's current transaction.
func (b *BaseAdapter) DoRollback(conn dbapi.Conn) error {
	if conn == nil {
		return ErrNotConnected
	}
	return conn.Rollback()
}

// AsString converts a catalog value to text. Drivers return text columns as
// string or []byte.
func AsString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}

// ParseQualifiedName splits a table reference into schema and name.
// Uses the dialect's default schema if not specified.
func ParseQualifiedName(table string, d *dialect.Dialect) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return d.DefaultSchema, table
}
