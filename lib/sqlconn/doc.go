// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlconn is a single SQLite connection with a
// prepared-statement cache and a multi-statement execution engine.
//
// Compiling SQL is the expensive part of running it. A [Connection]
// compiles each distinct query text once and keeps the compiled form
// for reuse, keyed by the exact bytes of the text. A query text may
// hold several statements separated by semicolons; they are compiled
// together into one batch, bound from one argument list, and stepped
// in textual order.
//
// # Call shapes
//
// Eager calls run the whole batch before returning:
//
//   - [Connection.Exec] returns the change count and every row's
//     columns flattened into one slice.
//   - [Connection.Row] returns the flattened columns only.
//   - [Connection.Col] and [Connection.TCol] write each row's columns
//     into a [value.Record] by name; later rows overwrite earlier ones.
//
// Streaming calls return a cursor that steps one row per Next:
//
//   - [Connection.Rows] yields positional columns.
//   - [Connection.Cols] yields a fresh record per row.
//
// Each row from a cursor carries the 1-based index of the
// sub-statement that produced it.
//
// # Arguments
//
// If the first argument after the query text is a [value.Record] (or
// map[string]any) it supplies named parameters (":name", "@name",
// "$name"). Every other argument binds positionally, in order, with
// one cursor shared across all sub-statements of the batch. Missing
// arguments bind as NULL; surplus arguments are ignored.
//
// # Cache protocol
//
// Each compiled batch lives in an arena owned by the connection. Idle
// batches sit on a per-text stack. A call checks a batch out (popping
// the stack, or compiling on a miss), and checks it back in when done:
// bindings are cleared, every sub-statement is reset, and the batch
// is pushed for the next caller. Because a checked-out batch is off
// the stack, running the same text while a cursor over it is still
// open compiles a second batch instead of sharing the first; both
// return to the stack afterwards.
//
// Eager calls check in on every exit path before returning. Cursors
// check in when exhausted, when a step fails, or when closed. A cursor
// must be closed if it is abandoned early:
//
//	rows, err := conn.Rows("SELECT id, name FROM users WHERE team = ?", team)
//	if err != nil {
//	    return err
//	}
//	defer rows.Close()
//	for rows.Next() {
//	    columns := rows.Values()
//	    ...
//	}
//	return rows.Err()
//
// Closing the connection finalizes every batch it ever compiled,
// including batches still held by open cursors. Those cursors report
// [ErrStaleHandle] instead of touching freed engine state.
//
// A Connection is not safe for concurrent use, exactly like the
// *sqlite.Conn it wraps.
package sqlconn
