package sqream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/leapstack-labs/sqreamsql/pkg/adapter"
	"github.com/leapstack-labs/sqreamsql/pkg/dbapi"
	"github.com/leapstack-labs/sqreamsql/pkg/dialect"
)

// ExecutionContext is the SQream per-statement context. Its cursor is opened
// when the context is created.
type ExecutionContext struct {
	id       string
	adapter  *Adapter
	conn     dbapi.Conn
	cursor   dbapi.Cursor
	compiled *dialect.Compiled
	opts     adapter.ExecOptions
}

// NewExecutionContext opens a cursor on conn for compiled.
func (a *Adapter) NewExecutionContext(ctx context.Context, conn dbapi.Conn, compiled *dialect.Compiled, opts adapter.ExecOptions) (adapter.ExecutionContext, error) {
	if conn == nil {
		return nil, adapter.ErrNotConnected
	}
	if compiled == nil {
		return nil, errors.New("no statement to execute")
	}
	cur, err := conn.Cursor(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open cursor: %w", err)
	}
	return &ExecutionContext{
		id:       uuid.NewString(),
		adapter:  a,
		conn:     conn,
		cursor:   cur,
		compiled: compiled,
		opts:     opts,
	}, nil
}

func (ec *ExecutionContext) ID() string                   { return ec.id }
func (ec *ExecutionContext) Cursor() dbapi.Cursor         { return ec.cursor }
func (ec *ExecutionContext) Compiled() *dialect.Compiled  { return ec.compiled }
func (ec *ExecutionContext) Options() adapter.ExecOptions { return ec.opts }

// SetupResult builds the result of the executed statement:
//
//   - a single-row INSERT without RETURNING takes its primary key from the
//     cursor's last row id
//   - INSERT or UPDATE with implicit RETURNING fetches one row as the
//     returned defaults and releases the cursor
//   - any other INSERT releases the cursor
//   - statements without a result set have their row count read before the
//     cursor (and, with AutoClose, the connection) is released
func (ec *ExecutionContext) SetupResult(_ context.Context) (res *adapter.Result, err error) {
	defer func() {
		if err != nil {
			_ = ec.cursor.Close()
		}
	}()

	c := ec.compiled
	res = adapter.NewResult(ec.cursor, ec.conn, ec.opts.AutoClose)
	log := ec.adapter.Log().With(slog.String("execution_id", ec.id))

	switch {
	case c.Kind == dialect.KindInsert:
		if !c.Multi && !c.ImplicitReturning {
			ec.setupInsertedPrimaryKey(res)
		}
		switch {
		case c.ImplicitReturning:
			row, err := res.FetchOne()
			if err != nil {
				return nil, fmt.Errorf("failed to fetch returned defaults: %w", err)
			}
			res.SetReturnedDefaults(row)
			res.SetInsertedPrimaryKey(row)
			if err := releaseMetadata(res); err != nil {
				return nil, err
			}
		case !c.ExplicitReturning():
			if err := releaseMetadata(res); err != nil {
				return nil, err
			}
		}

	case c.Kind == dialect.KindUpdate && c.ImplicitReturning:
		row, err := res.FetchOne()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch returned defaults: %w", err)
		}
		res.SetReturnedDefaults(row)
		if err := releaseMetadata(res); err != nil {
			return nil, err
		}

	case !res.ReturnsRows():
		res.RowCount()
		if err := res.SoftClose(); err != nil {
			return nil, err
		}
	}

	log.Debug("result ready",
		slog.String("kind", c.Kind.String()),
		slog.Int64("rowcount", res.RowCount()),
		slog.Bool("returns_rows", res.ReturnsRows()),
	)
	return res, nil
}

func (ec *ExecutionContext) setupInsertedPrimaryKey(res *adapter.Result) {
	if !ec.adapter.Dialect().PostfetchLastRowID || ec.compiled.Inline {
		res.SetInsertedPrimaryKey([]any{})
		return
	}
	if id, ok := ec.cursor.LastRowID(); ok {
		res.SetInsertedPrimaryKey([]any{id})
		return
	}
	res.SetInsertedPrimaryKey([]any{})
}

// releaseMetadata caches the row count, closes the cursor and drops the
// column description.
func releaseMetadata(res *adapter.Result) error {
	res.RowCount()
	if err := res.SoftClose(); err != nil {
		return err
	}
	res.ClearMetadata()
	return nil
}

var _ adapter.ExecutionContext = (*ExecutionContext)(nil)
