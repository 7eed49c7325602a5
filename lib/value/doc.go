// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package value defines the dynamically-typed values that cross the
// boundary between callers and a SQLite connection.
//
// A [Value] is a small tagged union: NULL, boolean, 64-bit integer,
// 64-bit float, or text. Caller arguments are converted once, at the
// API boundary, with [Of]; from then on binding is a switch on
// [Value.Kind] with no reflection. Column values read back from the
// engine use the same type, so a query result can be fed straight into
// another query's arguments.
//
// Conversion never fails. A Go value with no SQL representation
// becomes a Value of [KindInvalid] that remembers the offending Go
// type; the binder rejects it with an error naming the parameter it
// was destined for. This keeps error reporting at the point where the
// parameter ordinal is known.
//
// A [Record] maps column or parameter names to values. It supplies
// named arguments and receives named columns.
//
// Values marshal to JSON and CBOR as their natural scalar (null,
// true/false, number, string), so rendered results need no wrapper
// objects.
//
// This package depends only on lib/codec.
package value
