// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the one CBOR configuration used across sqlcache.
//
// Query results leave the process in three shapes: a text table for
// people, JSON lines for scripts, and a CBOR sequence for programs that
// want typed values without re-parsing numbers. This package owns the
// CBOR side so that lib/value and lib/render encode identically.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys and the smallest integer and float encodings. Equal result
// sets therefore produce equal bytes, which makes golden-file tests and
// content hashing of exported results straightforward.
//
//	data, err := codec.Marshal(record)
//	encoder := codec.NewEncoder(os.Stdout)
//
// Decoding any-typed targets produces map[string]any for maps, never
// map[any]any, so decoded records mix cleanly with encoding/json.
package codec
