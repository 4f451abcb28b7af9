package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/sqreamsql/pkg/adapter"
	"github.com/leapstack-labs/sqreamsql/pkg/core"
	"github.com/leapstack-labs/sqreamsql/pkg/dbapi"
	"github.com/leapstack-labs/sqreamsql/pkg/dialect"
)

// ErrConnectionClosed is returned by calls on a closed Connection.
var ErrConnectionClosed = errors.New("connection is closed")

// Connection is one open driver connection bound to the engine's adapter.
type Connection struct {
	engine *Engine
	conn   dbapi.Conn
	closed bool
}

// Raw returns the underlying driver connection.
func (c *Connection) Raw() dbapi.Conn {
	return c.conn
}

// Execute runs compiled and returns its result.
func (c *Connection) Execute(ctx context.Context, compiled *dialect.Compiled) (*adapter.Result, error) {
	return c.execute(ctx, compiled, adapter.ExecOptions{})
}

// ExecuteText runs a literal statement.
func (c *Connection) ExecuteText(ctx context.Context, sql string, params ...any) (*adapter.Result, error) {
	return c.Execute(ctx, dialect.Text(sql, params...))
}

// Insert compiles ins with the adapter's dialect and runs it.
func (c *Connection) Insert(ctx context.Context, ins *dialect.Insert) (*adapter.Result, error) {
	compiled, err := c.engine.Dialect().CompileInsert(ins)
	if err != nil {
		return nil, err
	}
	return c.Execute(ctx, compiled)
}

func (c *Connection) execute(ctx context.Context, compiled *dialect.Compiled, opts adapter.ExecOptions) (*adapter.Result, error) {
	if c.closed {
		return nil, ErrConnectionClosed
	}
	adp := c.engine.adapter

	ec, err := adp.NewExecutionContext(ctx, c.conn, compiled, opts)
	if err != nil {
		return nil, err
	}
	if err := adp.DoExecute(ctx, ec.Cursor(), compiled.SQL, compiled.Params, ec); err != nil {
		_ = ec.Cursor().Close()
		c.engine.logger.Debug("statement failed", slog.String("execution_id", ec.ID()), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to execute statement: %w", err)
	}
	res, err := ec.SetupResult(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to set up result: %w", err)
	}
	if opts.AutoClose && res.SoftClosed() {
		c.closed = true
	}
	return res, nil
}

// Begin starts an explicit transaction.
func (c *Connection) Begin(ctx context.Context) error {
	if c.closed {
		return ErrConnectionClosed
	}
	tb, ok := c.conn.(dbapi.TxBeginner)
	if !ok {
		return dbapi.ErrTxUnsupported
	}
	return tb.Begin(ctx)
}

// Commit commits the current transaction through the adapter.
func (c *Connection) Commit() error {
	if c.closed {
		return ErrConnectionClosed
	}
	return c.engine.adapter.DoCommit(c.conn)
}

// Rollback rolls back the current transaction through the adapter.
func (c *Connection) Rollback() error {
	if c.closed {
		return ErrConnectionClosed
	}
	return c.engine.adapter.DoRollback(c.conn)
}

// Close closes the driver connection. Closing twice is a no-op.
func (c *Connection) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// --- Reflection ---

// TableNames lists the tables visible to the connection.
func (c *Connection) TableNames(ctx context.Context, schema string) ([]string, error) {
	return c.engine.adapter.TableNames(ctx, c.conn, schema)
}

// SchemaNames lists the schemas.
func (c *Connection) SchemaNames(ctx context.Context) ([]string, error) {
	return c.engine.adapter.SchemaNames(ctx, c.conn)
}

// HasTable reports whether table exists.
func (c *Connection) HasTable(ctx context.Context, table, schema string) (bool, error) {
	return c.engine.adapter.HasTable(ctx, c.conn, table, schema)
}

// Columns reflects the columns of table.
func (c *Connection) Columns(ctx context.Context, table, schema string) ([]core.ReflectedColumn, error) {
	return c.engine.adapter.Columns(ctx, c.conn, table, schema)
}

// ServerVersion returns the server's version string.
func (c *Connection) ServerVersion(ctx context.Context) (string, error) {
	return c.engine.adapter.ServerVersion(ctx, c.conn)
}

// TableInfo is everything reflection reports about one table.
type TableInfo struct {
	Name        string                 `json:"name" yaml:"name"`
	Schema      string                 `json:"schema,omitempty" yaml:"schema,omitempty"`
	Columns     []core.ReflectedColumn `json:"columns" yaml:"columns"`
	PrimaryKey  core.PrimaryKey        `json:"primary_key" yaml:"primary_key"`
	ForeignKeys []core.ForeignKey      `json:"foreign_keys" yaml:"foreign_keys"`
	Indexes     []core.Index           `json:"indexes" yaml:"indexes"`
}

// Describe reflects columns and constraints of table.
func (c *Connection) Describe(ctx context.Context, table, schema string) (*TableInfo, error) {
	adp := c.engine.adapter
	if schema == "" {
		schema = adp.DefaultSchema()
	}

	cols, err := adp.Columns(ctx, c.conn, table, schema)
	if err != nil {
		return nil, err
	}
	pk, err := adp.PrimaryKey(ctx, c.conn, table, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to get primary key: %w", err)
	}
	fks, err := adp.ForeignKeys(ctx, c.conn, table, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to get foreign keys: %w", err)
	}
	idx, err := adp.Indexes(ctx, c.conn, table, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to get indexes: %w", err)
	}

	return &TableInfo{
		Name:        table,
		Schema:      schema,
		Columns:     cols,
		PrimaryKey:  pk,
		ForeignKeys: fks,
		Indexes:     idx,
	}, nil
}
