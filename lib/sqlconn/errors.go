// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlconn

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by every call on a closed Connection.
	ErrClosed = errors.New("sqlconn: connection is closed")

	// ErrStaleHandle is returned by a cursor whose connection closed
	// while the cursor was open. The cursor's statements have already
	// been finalized.
	ErrStaleHandle = errors.New("sqlconn: invalid statement batch (stale reference: connection closed)")

	// ErrTooManyStatements is returned when a query text holds more
	// than MaxStatements statements.
	ErrTooManyStatements = errors.New("sqlconn: too many statements")

	// ErrUnsupportedValue is wrapped by a BindError for an argument
	// with no SQL representation.
	ErrUnsupportedValue = errors.New("unsupported argument type")
)

// CompileError reports SQL that failed to compile. The whole batch is
// discarded; nothing from the failed attempt is cached.
type CompileError struct {
	// Statement is the 1-based index of the sub-statement that failed.
	Statement int

	// Err is the engine error, including its message and position.
	Err error
}

func (err *CompileError) Error() string {
	return fmt.Sprintf("sqlconn: compiling statement #%d: %v", err.Statement, err.Err)
}

func (err *CompileError) Unwrap() error { return err.Err }

// BindError reports an argument that could not be bound. The batch
// is returned to the cache intact; retrying with corrected arguments
// reuses it.
//
// Only arguments with no SQL representation produce a BindError. The
// engine defers its own bind failures (a text over SQLITE_MAX_LENGTH,
// for example) to the next step, so those surface as a StepError
// naming the sub-statement but not the parameter.
type BindError struct {
	// Statement is the 1-based index of the sub-statement.
	Statement int

	// Parameter is the 1-based ordinal of the parameter within the
	// sub-statement.
	Parameter int

	// Name is the parameter's name including its sigil, or empty for
	// an anonymous "?" parameter.
	Name string

	Err error
}

func (err *BindError) Error() string {
	if err.Name != "" {
		return fmt.Sprintf("sqlconn: statement #%d: binding parameter %d (%s): %v",
			err.Statement, err.Parameter, err.Name, err.Err)
	}
	return fmt.Sprintf("sqlconn: statement #%d: binding parameter %d: %v",
		err.Statement, err.Parameter, err.Err)
}

func (err *BindError) Unwrap() error { return err.Err }

// StepError reports a failure while executing a sub-statement. By the
// time the caller sees it the batch has already been checked in.
type StepError struct {
	// Statement is the 1-based index of the failing sub-statement.
	Statement int

	Err error
}

func (err *StepError) Error() string {
	return fmt.Sprintf("sqlconn: while executing statement #%d: %v", err.Statement, err.Err)
}

func (err *StepError) Unwrap() error { return err.Err }
