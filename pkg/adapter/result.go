package adapter

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/sqreamsql/pkg/dbapi"
)

// ErrResultClosed is returned when a closed result is fetched from.
var ErrResultClosed = errors.New("result is closed")

// Result exposes the outcome of one executed statement.
//
// A result that produced no column metadata is soft-closed as soon as it is
// set up: its cursor is released but RowCount and the inserted key remain
// readable. Results created with AutoClose close their connection when they
// are soft-closed.
type Result struct {
	cursor    dbapi.Cursor
	conn      dbapi.Conn
	autoClose bool

	columns []dbapi.ColumnDescription

	rowCount    int64
	rowCountSet bool

	insertedPK       []any
	returnedDefaults []any

	softClosed bool
	closed     bool
}

// NewResult wraps cur. Column metadata is captured from the cursor's
// description.
func NewResult(cur dbapi.Cursor, conn dbapi.Conn, autoClose bool) *Result {
	return &Result{
		cursor:    cur,
		conn:      conn,
		autoClose: autoClose,
		columns:   cur.Description(),
	}
}

// Columns returns the result's column metadata, nil when the statement
// produced no rows.
func (r *Result) Columns() []dbapi.ColumnDescription {
	return r.columns
}

// ReturnsRows reports whether the result carries column metadata.
func (r *Result) ReturnsRows() bool {
	return r.columns != nil
}

// ClearMetadata drops the column metadata, marking the result as row-less.
func (r *Result) ClearMetadata() {
	r.columns = nil
}

// RowCount returns the affected or fetched row count. The first call reads
// it from the cursor; later calls return the cached value, so it stays
// available after the cursor is closed.
func (r *Result) RowCount() int64 {
	if !r.rowCountSet {
		r.rowCount = r.cursor.RowCount()
		r.rowCountSet = true
	}
	return r.rowCount
}

// InsertedPrimaryKey returns the key of a single-row insert. An empty,
// non-nil slice means the key is unknown.
func (r *Result) InsertedPrimaryKey() []any {
	return r.insertedPK
}

// SetInsertedPrimaryKey records the key of a single-row insert.
func (r *Result) SetInsertedPrimaryKey(pk []any) {
	r.insertedPK = pk
}

// ReturnedDefaults returns the row fetched through implicit RETURNING.
func (r *Result) ReturnedDefaults() []any {
	return r.returnedDefaults
}

// SetReturnedDefaults records the row fetched through implicit RETURNING.
func (r *Result) SetReturnedDefaults(row []any) {
	r.returnedDefaults = row
}

// FetchOne returns the next row, or nil once the rows are exhausted.
// Exhausting the rows soft-closes the result.
func (r *Result) FetchOne() ([]any, error) {
	if r.closed {
		return nil, ErrResultClosed
	}
	if r.softClosed || r.columns == nil {
		return nil, nil
	}
	row, err := r.cursor.FetchOne()
	if err != nil {
		return nil, err
	}
	if row == nil {
		r.RowCount()
		if err := r.SoftClose(); err != nil {
			return nil, err
		}
	}
	return row, nil
}

// FetchAll returns every remaining row and soft-closes the result.
func (r *Result) FetchAll() ([][]any, error) {
	var rows [][]any
	for {
		row, err := r.FetchOne()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return rows, nil
		}
		rows = append(rows, row)
	}
}

// SoftClosed reports whether the cursor has been released.
func (r *Result) SoftClosed() bool {
	return r.softClosed
}

// SoftClose releases the cursor and, for AutoClose results, the owning
// connection. Metadata-derived values stay readable.
func (r *Result) SoftClose() error {
	if r.softClosed {
		return nil
	}
	r.softClosed = true

	var errs []error
	if err := r.cursor.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close cursor: %w", err))
	}
	if r.autoClose && r.conn != nil {
		if err := r.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close soft-closes the result and refuses further fetches.
func (r *Result) Close() error {
	if r.closed {
		return nil
	}
	err := r.SoftClose()
	r.closed = true
	return err
}
