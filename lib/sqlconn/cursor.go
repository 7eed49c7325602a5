// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlconn

import (
	"time"

	"zombiezen.com/go/sqlite"

	"github.com/bureau-foundation/sqlcache/lib/value"
)

// cursor walks the rows of a checked-out batch one step at a time,
// moving to the next sub-statement each time one finishes. The batch
// is checked back in exactly once: when the last sub-statement is
// done, when a step fails, or when the cursor is closed early.
type cursor struct {
	owner *Connection
	batch *batch

	// index is the 1-based sub-statement being stepped. It is past
	// the end once the cursor is exhausted.
	index int

	start    time.Time
	released bool
	err      error
}

// advance steps to the next row and returns the statement positioned
// on it, or nil when there are no more rows or a step failed.
func (cur *cursor) advance() *sqlite.Stmt {
	if cur.released {
		return nil
	}
	if cur.batch.state == stateDead {
		cur.released = true
		cur.err = ErrStaleHandle
		return nil
	}

	for cur.index <= len(cur.batch.stmts) {
		stmt := cur.batch.stmts[cur.index-1]
		rowReturned, err := stmt.Step()
		if err != nil {
			cur.release()
			cur.err = &StepError{Statement: cur.index, Err: err}
			return nil
		}
		if rowReturned {
			return stmt
		}
		cur.index++
	}

	cur.release()
	return nil
}

// release checks the batch in. Later calls do nothing.
func (cur *cursor) release() {
	if cur.released {
		return
	}
	cur.released = true
	cur.owner.checkin(cur.batch)
	cur.owner.observe(cur.batch.query, cur.start)
}

// Rows is a cursor over the rows of a query, each row as a positional
// list of columns.
//
//	rows, err := conn.Rows("SELECT id, name FROM users WHERE team = ?", team)
//	if err != nil {
//		return err
//	}
//	defer rows.Close()
//	for rows.Next() {
//		columns := rows.Values()
//		...
//	}
//	return rows.Err()
type Rows struct {
	*cursor
	stmt *sqlite.Stmt
}

// Next advances to the next row. It returns false when the rows are
// exhausted or a step failed; check Err to tell them apart.
func (r *Rows) Next() bool {
	r.stmt = r.advance()
	return r.stmt != nil
}

// Values returns the columns of the current row. It returns nil
// before the first Next or after Next returned false.
func (r *Rows) Values() []value.Value {
	if r.stmt == nil {
		return nil
	}
	return appendColumns(nil, r.stmt)
}

// Columns returns the column names of the current row.
func (r *Rows) Columns() []string {
	if r.stmt == nil {
		return nil
	}
	return columnNames(r.stmt)
}

// Statement returns the 1-based index of the sub-statement producing
// the current row.
func (r *Rows) Statement() int { return r.index }

// Err returns the error that stopped iteration, if any.
func (r *Rows) Err() error { return r.err }

// Close checks the batch in if iteration did not already. It is safe
// to call more than once and after the connection closed.
func (r *Rows) Close() error {
	r.stmt = nil
	r.release()
	return nil
}

// Cols is a cursor over the rows of a query, each row as a record of
// column name to value.
type Cols struct {
	*cursor
	stmt *sqlite.Stmt
}

// Next advances to the next row.
func (c *Cols) Next() bool {
	c.stmt = c.advance()
	return c.stmt != nil
}

// Record returns a fresh record for the current row.
func (c *Cols) Record() value.Record {
	if c.stmt == nil {
		return nil
	}
	record := make(value.Record, c.stmt.DataCount())
	setColumns(record, c.stmt)
	return record
}

// Statement returns the 1-based index of the sub-statement producing
// the current row.
func (c *Cols) Statement() int { return c.index }

// Err returns the error that stopped iteration, if any.
func (c *Cols) Err() error { return c.err }

// Close checks the batch in if iteration did not already.
func (c *Cols) Close() error {
	c.stmt = nil
	c.release()
	return nil
}
