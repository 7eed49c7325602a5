// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for sqlcache packages.
//
// [DatabasePath] returns a fresh database file path inside the test's
// temporary directory, so every test gets its own file and WAL.
//
// [CaptureLogger] returns a JSON slog.Logger writing to memory along
// with a function that decodes everything logged so far. Tests assert
// on log records by message and attribute rather than by formatted
// text.
//
// [UniqueID] generates monotonically increasing identifiers for test
// disambiguation, such as table names in a shared database.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
//
// This package has no sqlcache-internal dependencies.
package testutil
