// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bureau-foundation/sqlcache/lib/render"
	"github.com/bureau-foundation/sqlcache/lib/sqlconn"
	"github.com/bureau-foundation/sqlcache/lib/value"
)

// ErrInvalid is returned by Run for a script that fails Validate.
var ErrInvalid = errors.New("script: invalid script")

// Result is the outcome of one step.
type Result struct {
	// Index is the step's position in the script.
	Index int

	Label string
	Call  Call

	// Changed is the change count reported by exec and changes.
	Changed int

	// Columns names the result columns of rows steps, taken from the
	// first row.
	Columns []string

	// Rows holds the row of a row or exec step (one entry) or every
	// row of a rows step.
	Rows [][]value.Value

	// Records holds the record of a col or tcol step (one entry) or
	// every record of a cols step.
	Records []value.Record

	// Err is the step's error. Only steps marked expect_error carry
	// one in a successful run.
	Err error
}

// Frames converts the result for printing.
func (r Result) Frames() []render.Frame {
	if r.Err != nil {
		return []render.Frame{{Title: r.Label, Note: "error (expected): " + r.Err.Error()}}
	}
	switch r.Call {
	case CallChanges:
		return []render.Frame{{Title: r.Label, Note: changedNote(r.Changed)}}
	case CallCol, CallTCol, CallCols:
		if len(r.Records) == 0 {
			return []render.Frame{{Title: r.Label, Note: "(0 rows)"}}
		}
		frames := make([]render.Frame, len(r.Records))
		for i, record := range r.Records {
			frames[i] = render.RecordFrame(r.Label, record)
		}
		return frames
	default:
		frame := render.Frame{Title: r.Label, Columns: r.Columns, Rows: r.Rows}
		if r.Call == CallExec {
			frame.Note = changedNote(r.Changed)
		}
		return []render.Frame{frame}
	}
}

func changedNote(n int) string {
	if n == 1 {
		return "1 row changed"
	}
	return strconv.Itoa(n) + " rows changed"
}

// Runner executes scripts on one connection.
type Runner struct {
	conn   *sqlconn.Connection
	logger *slog.Logger
}

// NewRunner returns a Runner for conn. A nil logger discards.
func NewRunner(conn *sqlconn.Connection, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{conn: conn, logger: logger}
}

// Run validates script and executes its steps in order. It stops at
// the first step that fails unexpectedly and returns the results
// gathered so far along with the error. Cancelling ctx interrupts the
// step in progress.
func (r *Runner) Run(ctx context.Context, script *Script) ([]Result, error) {
	if issues := Validate(script); len(issues) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, strings.Join(issues, "; "))
	}

	r.conn.SetInterrupt(ctx.Done())
	defer r.conn.SetInterrupt(nil)

	results := make([]Result, 0, len(script.Steps))
	for index, step := range script.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		label := step.Label(index)
		result := r.runStep(index, label, step)
		results = append(results, result)

		switch {
		case result.Err != nil && !step.ExpectError:
			r.logger.Warn("script step failed",
				"script", script.Name,
				"step", label,
				"error", result.Err,
			)
			return results, fmt.Errorf("script %s: %s: %w", script.Name, label, result.Err)
		case result.Err == nil && step.ExpectError:
			return results, fmt.Errorf("script %s: %s: expected an error, step succeeded", script.Name, label)
		}
		r.logger.Debug("script step done",
			"script", script.Name,
			"step", label,
			"call", string(step.Call),
		)
	}

	stats := r.conn.Stats()
	r.logger.Info("script finished",
		"script", script.Name,
		"steps", len(script.Steps),
		"compiles", stats.Compiles,
		"hits", stats.Hits,
	)
	return results, nil
}

// runStep runs step Repeat times (at least once) and keeps the last
// outcome. A failing repetition ends the step.
func (r *Runner) runStep(index int, label string, step Step) Result {
	runs := max(step.Repeat, 1)
	var result Result
	for range runs {
		result = r.runOnce(step)
		if result.Err != nil {
			break
		}
	}
	result.Index = index
	result.Label = label
	result.Call = step.Call
	return result
}

func (r *Runner) runOnce(step Step) Result {
	args := stepArgs(step)
	var result Result

	switch step.Call {
	case CallExec:
		changed, columns, err := r.conn.Exec(step.Query, args...)
		result.Changed, result.Err = changed, err
		if err == nil && len(columns) > 0 {
			result.Rows = [][]value.Value{columns}
		}

	case CallRow:
		columns, err := r.conn.Row(step.Query, args...)
		result.Err = err
		if err == nil && len(columns) > 0 {
			result.Rows = [][]value.Value{columns}
		}

	case CallCol:
		record, err := r.conn.Col(step.Query, args...)
		result.Err = err
		if err == nil {
			result.Records = []value.Record{record}
		}

	case CallTCol:
		target := make(value.Record, len(step.Record))
		for name, v := range step.Record {
			target[name] = v
		}
		record, err := r.conn.TCol(step.Query, target, args...)
		result.Err = err
		if err == nil {
			result.Records = []value.Record{record}
		}

	case CallRows:
		rows, err := r.conn.Rows(step.Query, args...)
		if err != nil {
			result.Err = err
			break
		}
		for rows.Next() {
			if result.Columns == nil {
				result.Columns = rows.Columns()
			}
			result.Rows = append(result.Rows, rows.Values())
		}
		result.Err = rows.Err()
		rows.Close()

	case CallCols:
		cols, err := r.conn.Cols(step.Query, args...)
		if err != nil {
			result.Err = err
			break
		}
		for cols.Next() {
			result.Records = append(result.Records, cols.Record())
		}
		result.Err = cols.Err()
		cols.Close()

	case CallChanges:
		result.Changed, result.Err = r.conn.Changes()
	}
	return result
}

// stepArgs assembles call arguments: named values first (as a record)
// when present, then positional values.
func stepArgs(step Step) []any {
	args := make([]any, 0, len(step.Args)+1)
	if step.Named != nil {
		args = append(args, step.Named)
	}
	for _, arg := range step.Args {
		args = append(args, arg)
	}
	return args
}
