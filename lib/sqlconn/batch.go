// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlconn

import (
	"zombiezen.com/go/sqlite"
)

// batchState tracks who owns a batch.
type batchState uint8

const (
	// stateCached: idle on its query text's stack.
	stateCached batchState = iota
	// stateCheckedOut: held by exactly one call or cursor.
	stateCheckedOut
	// stateDead: every sub-statement has been finalized.
	stateDead
)

func (s batchState) String() string {
	switch s {
	case stateCached:
		return "cached"
	case stateCheckedOut:
		return "checked out"
	case stateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// batch is the compiled form of one query text.
type batch struct {
	query string
	stmts []*sqlite.Stmt

	// params is the sum of every sub-statement's parameter count,
	// fixed at compile time.
	params int

	state batchState

	// slot is the batch's index in the cache arena.
	slot int
}

// finalize finalizes every sub-statement exactly once and marks the
// batch dead. It returns the number of sub-statements finalized, which
// is zero if the batch was already dead.
func (b *batch) finalize() int {
	if b.state == stateDead {
		return 0
	}
	for _, stmt := range b.stmts {
		// Finalize reports the error of the statement's last step,
		// which was already surfaced to whoever ran it.
		_ = stmt.Finalize()
	}
	b.state = stateDead
	return len(b.stmts)
}

// rewind clears bindings and resets every sub-statement so the batch
// holds no argument memory while idle.
func (b *batch) rewind() error {
	for _, stmt := range b.stmts {
		if err := stmt.ClearBindings(); err != nil {
			return err
		}
		if err := stmt.Reset(); err != nil {
			return err
		}
	}
	return nil
}
