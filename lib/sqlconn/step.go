// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlconn

import (
	"zombiezen.com/go/sqlite"

	"github.com/bureau-foundation/sqlcache/lib/value"
)

// columnValue reads column col of the current row. BLOBs read back as
// text holding the same bytes.
func columnValue(stmt *sqlite.Stmt, col int) value.Value {
	switch stmt.ColumnType(col) {
	case sqlite.TypeInteger:
		return value.Int(stmt.ColumnInt64(col))
	case sqlite.TypeFloat:
		return value.Float(stmt.ColumnFloat(col))
	case sqlite.TypeText:
		return value.Text(stmt.ColumnText(col))
	case sqlite.TypeBlob:
		buffer := make([]byte, stmt.ColumnLen(col))
		stmt.ColumnBytes(col, buffer)
		return value.Text(string(buffer))
	default:
		return value.Null()
	}
}

// appendColumns appends every column of the current row to columns.
func appendColumns(columns []value.Value, stmt *sqlite.Stmt) []value.Value {
	count := stmt.DataCount()
	for col := 0; col < count; col++ {
		columns = append(columns, columnValue(stmt, col))
	}
	return columns
}

// columnNames returns the result column names of stmt.
func columnNames(stmt *sqlite.Stmt) []string {
	names := make([]string, stmt.ColumnCount())
	for col := range names {
		names[col] = stmt.ColumnName(col)
	}
	return names
}

// setColumns writes every column of the current row into record by
// column name. A name already present is overwritten.
func setColumns(record value.Record, stmt *sqlite.Stmt) {
	count := stmt.DataCount()
	for col := 0; col < count; col++ {
		record[stmt.ColumnName(col)] = columnValue(stmt, col)
	}
}

// drive runs every sub-statement of b to completion in order, calling
// visit for each row. The first step error stops the drive.
func drive(b *batch, visit func(stmt *sqlite.Stmt)) error {
	for i, stmt := range b.stmts {
		for {
			rowReturned, err := stmt.Step()
			if err != nil {
				return &StepError{Statement: i + 1, Err: err}
			}
			if !rowReturned {
				break
			}
			visit(stmt)
		}
	}
	return nil
}
