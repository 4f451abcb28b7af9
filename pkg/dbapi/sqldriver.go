package dbapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// SQLDriver adapts a registered database/sql driver to the Driver contract.
type SQLDriver struct {
	name string
}

// NewSQLDriver returns a Driver that opens connections through the
// database/sql driver registered under name.
func NewSQLDriver(name string) *SQLDriver {
	return &SQLDriver{name: name}
}

// Name returns the database/sql driver name.
func (d *SQLDriver) Name() string {
	return d.name
}

// Connect opens a new *sql.DB for dsn and pins one connection from it.
// Closing the returned Conn closes the *sql.DB as well.
func (d *SQLDriver) Connect(ctx context.Context, dsn string) (Conn, error) {
	db, err := sql.Open(d.name, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", d.name, err)
	}

	conn, err := OpenConn(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	conn.ownsDB = true
	return conn, nil
}

// execer is implemented by both *sql.Conn and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// SQLConn is a Conn pinned to a single database/sql connection.
//
// Statements run in autocommit mode unless Begin has been called; Commit and
// Rollback without an open transaction are no-ops.
type SQLConn struct {
	mu     sync.Mutex
	db     *sql.DB
	conn   *sql.Conn
	tx     *sql.Tx
	ownsDB bool
	closed bool
}

// OpenConn pins one connection from db. The caller keeps ownership of db.
func OpenConn(ctx context.Context, db *sql.DB) (*SQLConn, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &SQLConn{db: db, conn: conn}, nil
}

// Begin starts an explicit transaction that lasts until Commit or Rollback.
func (c *SQLConn) Begin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	if c.tx != nil {
		return errors.New("transaction already in progress")
	}
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	c.tx = tx
	return nil
}

// InTransaction reports whether an explicit transaction is open.
func (c *SQLConn) InTransaction() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tx != nil
}

// Commit commits the open transaction, if any.
func (c *SQLConn) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Rollback rolls back the open transaction, if any.
func (c *SQLConn) Rollback() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	if c.tx == nil {
		return nil
	}
	tx := c.tx
	c.tx = nil
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("failed to rollback: %w", err)
	}
	return nil
}

// Close rolls back any open transaction and releases the connection.
func (c *SQLConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if c.tx != nil {
		if err := c.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			errs = append(errs, err)
		}
		c.tx = nil
	}
	if err := c.conn.Close(); err != nil {
		errs = append(errs, err)
	}
	if c.ownsDB {
		if err := c.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Cursor creates a new cursor on this connection.
func (c *SQLConn) Cursor(_ context.Context) (Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrConnClosed
	}
	return &sqlCursor{conn: c, rowCount: -1}, nil
}

func (c *SQLConn) execer() (execer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrConnClosed
	}
	if c.tx != nil {
		return c.tx, nil
	}
	return c.conn, nil
}

// withTx runs fn inside the open transaction, or inside a transaction of its
// own that is committed when fn succeeds.
func (c *SQLConn) withTx(ctx context.Context, fn func(ex execer) error) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrConnClosed
	}
	if c.tx != nil {
		tx := c.tx
		c.mu.Unlock()
		return fn(tx)
	}
	c.mu.Unlock()

	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// sqlCursor implements Cursor on top of an SQLConn.
type sqlCursor struct {
	conn      *SQLConn
	rows      *sql.Rows
	desc      []ColumnDescription
	hasResult bool
	rowCount  int64
	lastID    int64
	hasLastID bool
	closed    bool
}

func (c *sqlCursor) reset() error {
	var err error
	if c.rows != nil {
		err = c.rows.Close()
		c.rows = nil
	}
	c.desc = nil
	c.hasResult = false
	c.rowCount = -1
	c.hasLastID = false
	return err
}

// Execute runs one statement. Statements that return rows keep their result
// set open on the cursor until it is fetched, replaced, or closed.
func (c *sqlCursor) Execute(ctx context.Context, query string, params []any) error {
	if c.closed {
		return ErrCursorClosed
	}
	if err := c.reset(); err != nil {
		return fmt.Errorf("failed to close previous result: %w", err)
	}
	ex, err := c.conn.execer()
	if err != nil {
		return err
	}

	if ReturnsRows(query) {
		//nolint:rowserrcheck // rows.Err() is checked when the result set is exhausted
		rows, err := ex.QueryContext(ctx, query, params...)
		if err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		types, err := rows.ColumnTypes()
		if err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to read result columns: %w", err)
		}
		c.desc = make([]ColumnDescription, len(types))
		for i, ct := range types {
			c.desc[i] = ColumnDescription{Name: ct.Name(), TypeName: ct.DatabaseTypeName()}
		}
		c.rows = rows
		c.hasResult = true
		c.rowCount = 0
		return nil
	}

	res, err := ex.ExecContext(ctx, query, params...)
	if err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	c.recordResult(res)
	return nil
}

func (c *sqlCursor) recordResult(res sql.Result) {
	if n, err := res.RowsAffected(); err == nil {
		if c.rowCount < 0 {
			c.rowCount = 0
		}
		c.rowCount += n
	}
	if id, err := res.LastInsertId(); err == nil {
		c.lastID = id
		c.hasLastID = true
	}
}

// ExecuteMany prepares query once and executes it for every row of params.
// Rows run inside the connection's open transaction, or in a transaction of
// their own so that a failing row leaves no partial insert behind.
func (c *sqlCursor) ExecuteMany(ctx context.Context, query string, params []any, layout Layout) error {
	if c.closed {
		return ErrCursorClosed
	}
	if err := c.reset(); err != nil {
		return fmt.Errorf("failed to close previous result: %w", err)
	}
	if ReturnsRows(query) {
		return fmt.Errorf("executemany cannot run a statement that returns rows")
	}

	rows, err := SplitParams(query, params, layout)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		c.rowCount = 0
		return nil
	}

	return c.conn.withTx(ctx, func(ex execer) error {
		stmt, err := ex.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, row := range rows {
			res, err := stmt.ExecContext(ctx, row...)
			if err != nil {
				return fmt.Errorf("failed to execute row %d: %w", i, err)
			}
			c.recordResult(res)
		}
		return nil
	})
}

// Description returns the columns of the current result set.
func (c *sqlCursor) Description() []ColumnDescription {
	return c.desc
}

// FetchOne returns the next row, or nil once the result set is exhausted.
func (c *sqlCursor) FetchOne() ([]any, error) {
	if c.closed {
		return nil, ErrCursorClosed
	}
	if !c.hasResult {
		return nil, ErrNoResultSet
	}
	if c.rows == nil {
		return nil, nil
	}

	if !c.rows.Next() {
		err := c.rows.Err()
		closeErr := c.rows.Close()
		c.rows = nil
		if err != nil {
			return nil, fmt.Errorf("error iterating result: %w", err)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("failed to close result: %w", closeErr)
		}
		return nil, nil
	}

	values := make([]any, len(c.desc))
	ptrs := make([]any, len(c.desc))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := c.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}
	c.rowCount++
	return values, nil
}

// FetchAll returns every remaining row of the result set.
func (c *sqlCursor) FetchAll() ([][]any, error) {
	var out [][]any
	for {
		row, err := c.FetchOne()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return out, nil
		}
		out = append(out, row)
	}
}

func (c *sqlCursor) RowCount() int64 {
	return c.rowCount
}

func (c *sqlCursor) LastRowID() (int64, bool) {
	return c.lastID, c.hasLastID
}

// Close releases the open result set. Closing twice is a no-op.
func (c *sqlCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.rows != nil {
		err := c.rows.Close()
		c.rows = nil
		return err
	}
	return nil
}

// rowKeywords are leading keywords of statements that produce a result set.
var rowKeywords = map[string]bool{
	"select":   true,
	"with":     true,
	"values":   true,
	"show":     true,
	"explain":  true,
	"describe": true,
}

// ReturnsRows reports whether query is expected to produce a result set,
// judging by its leading keyword or a RETURNING clause.
func ReturnsRows(query string) bool {
	q := strings.TrimLeft(query, " \t\r\n(")
	end := strings.IndexFunc(q, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_')
	})
	if end < 0 {
		end = len(q)
	}
	if rowKeywords[strings.ToLower(q[:end])] {
		return true
	}
	return strings.Contains(strings.ToLower(q), " returning ")
}

// CountPlaceholders counts ? placeholders outside quoted literals and
// identifiers.
func CountPlaceholders(query string) int {
	n := 0
	var quote rune
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '?':
			n++
		}
	}
	return n
}

// SplitParams reshapes params into one []any per execution of query.
//
// With LayoutRows every element must already be a []any row. With
// LayoutFlatList params is split into rows as wide as query's placeholder
// count; a length that is not a multiple of that width is an error, and so
// is an empty list (ErrNoParams). A statement without placeholders and
// without params runs once.
func SplitParams(query string, params []any, layout Layout) ([][]any, error) {
	switch layout {
	case LayoutRows:
		rows := make([][]any, 0, len(params))
		for i, p := range params {
			row, ok := p.([]any)
			if !ok {
				return nil, fmt.Errorf("row %d: expected []any, got %T", i, p)
			}
			rows = append(rows, row)
		}
		return rows, nil

	case LayoutFlatList:
		width := CountPlaceholders(query)
		if width == 0 {
			if len(params) == 0 {
				return [][]any{nil}, nil
			}
			return nil, fmt.Errorf("flat parameter list given for a statement without placeholders")
		}
		if len(params) == 0 {
			return nil, fmt.Errorf("%w: %d placeholders", ErrNoParams, width)
		}
		if len(params)%width != 0 {
			return nil, fmt.Errorf("flat parameter list of %d values does not divide into rows of %d", len(params), width)
		}
		rows := make([][]any, 0, len(params)/width)
		for i := 0; i < len(params); i += width {
			rows = append(rows, params[i:i+width])
		}
		return rows, nil

	default:
		return nil, fmt.Errorf("unknown parameter layout %d", layout)
	}
}

// Ensure implementations satisfy the contract.
var (
	_ Driver = (*SQLDriver)(nil)
	_ Conn   = (*SQLConn)(nil)
	_ Cursor = (*sqlCursor)(nil)
)
