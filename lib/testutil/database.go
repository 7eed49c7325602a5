// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"path/filepath"
	"testing"
)

// DatabasePath returns the path of a not-yet-created database file
// in the test's temporary directory. The directory, along with any
// -wal and -shm files the engine leaves, is removed when the test
// completes.
func DatabasePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), UniqueID("test")+".db")
}
