package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/leapstack-labs/sqreamsql/pkg/dbapi"
)

// Call records one statement run on a FakeCursor.
type Call struct {
	Method string // "execute" or "executemany"
	Query  string
	Params []any
	Layout dbapi.Layout
}

// FakeResult is the canned outcome of a query on a FakeConn.
type FakeResult struct {
	Columns   []string
	Rows      [][]any
	RowCount  int64
	LastRowID int64
	HasLastID bool
	Err       error
}

// FakeConn is a scripted dbapi.Conn. Queries are answered from Results by
// exact text; unknown statements succeed without a result set.
type FakeConn struct {
	mu        sync.Mutex
	Results   map[string]FakeResult
	Cursors   []*FakeCursor
	CursorErr error
	CommitErr error
	Commits   int
	Rollbacks int
	Closed    bool
	Begun     int
}

// NewFakeConn returns a FakeConn answering from results.
func NewFakeConn(results map[string]FakeResult) *FakeConn {
	if results == nil {
		results = map[string]FakeResult{}
	}
	return &FakeConn{Results: results}
}

func (c *FakeConn) Cursor(_ context.Context) (dbapi.Cursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Closed {
		return nil, dbapi.ErrConnClosed
	}
	if c.CursorErr != nil {
		return nil, c.CursorErr
	}
	cur := &FakeCursor{conn: c, rowCount: -1}
	c.Cursors = append(c.Cursors, cur)
	return cur, nil
}

func (c *FakeConn) Begin(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Begun++
	return nil
}

func (c *FakeConn) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Commits++
	return c.CommitErr
}

func (c *FakeConn) Rollback() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Rollbacks++
	return nil
}

func (c *FakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Closed = true
	return nil
}

// Calls returns every statement run on any cursor of the connection.
func (c *FakeConn) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	var calls []Call
	for _, cur := range c.Cursors {
		calls = append(calls, cur.Calls...)
	}
	return calls
}

// AllCursorsClosed reports whether every cursor handed out was closed.
func (c *FakeConn) AllCursorsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cur := range c.Cursors {
		if !cur.Closed {
			return false
		}
	}
	return true
}

// FakeCursor is the cursor handed out by FakeConn.
type FakeCursor struct {
	conn      *FakeConn
	Calls     []Call
	Closed    bool
	desc      []dbapi.ColumnDescription
	rows      [][]any
	hasResult bool
	rowCount  int64
	lastID    int64
	hasLastID bool
}

func (c *FakeCursor) run(call Call) error {
	if c.Closed {
		return dbapi.ErrCursorClosed
	}
	c.Calls = append(c.Calls, call)
	c.desc, c.rows, c.hasResult, c.rowCount, c.hasLastID = nil, nil, false, -1, false

	c.conn.mu.Lock()
	res, ok := c.conn.Results[call.Query]
	c.conn.mu.Unlock()
	if !ok {
		return nil
	}
	if res.Err != nil {
		return res.Err
	}
	if res.Columns != nil {
		c.desc = make([]dbapi.ColumnDescription, len(res.Columns))
		for i, name := range res.Columns {
			c.desc[i] = dbapi.ColumnDescription{Name: name}
		}
		c.rows = append([][]any(nil), res.Rows...)
		c.hasResult = true
		c.rowCount = 0
		return nil
	}
	c.rowCount = res.RowCount
	c.lastID, c.hasLastID = res.LastRowID, res.HasLastID
	return nil
}

func (c *FakeCursor) Execute(_ context.Context, query string, params []any) error {
	return c.run(Call{Method: "execute", Query: query, Params: params})
}

func (c *FakeCursor) ExecuteMany(_ context.Context, query string, params []any, layout dbapi.Layout) error {
	return c.run(Call{Method: "executemany", Query: query, Params: params, Layout: layout})
}

func (c *FakeCursor) Description() []dbapi.ColumnDescription {
	return c.desc
}

func (c *FakeCursor) FetchOne() ([]any, error) {
	if c.Closed {
		return nil, dbapi.ErrCursorClosed
	}
	if !c.hasResult {
		return nil, dbapi.ErrNoResultSet
	}
	if len(c.rows) == 0 {
		return nil, nil
	}
	row := c.rows[0]
	c.rows = c.rows[1:]
	c.rowCount++
	return row, nil
}

func (c *FakeCursor) FetchAll() ([][]any, error) {
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

func (c *FakeCursor) RowCount() int64 {
	return c.rowCount
}

func (c *FakeCursor) LastRowID() (int64, bool) {
	return c.lastID, c.hasLastID
}

func (c *FakeCursor) Close() error {
	c.Closed = true
	return nil
}

// FakeDriver hands out Conn for every Connect call.
type FakeDriver struct {
	DriverName string
	Conn       *FakeConn
	ConnectErr error
	DSNs       []string
}

func (d *FakeDriver) Name() string {
	if d.DriverName == "" {
		return "fake"
	}
	return d.DriverName
}

func (d *FakeDriver) Connect(_ context.Context, dsn string) (dbapi.Conn, error) {
	d.DSNs = append(d.DSNs, dsn)
	if d.ConnectErr != nil {
		return nil, d.ConnectErr
	}
	if d.Conn == nil {
		return nil, errors.New("fake driver has no connection")
	}
	return d.Conn, nil
}

var (
	_ dbapi.Driver     = (*FakeDriver)(nil)
	_ dbapi.Conn       = (*FakeConn)(nil)
	_ dbapi.TxBeginner = (*FakeConn)(nil)
	_ dbapi.Cursor     = (*FakeCursor)(nil)
)
