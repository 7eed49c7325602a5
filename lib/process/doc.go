// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for sqlcache
// binaries. These functions centralize the raw I/O that happens
// before the structured logger exists or after it can no longer help:
//
//   - Fatal error reporting to stderr when the logger may not be
//     initialized (pre-logger).
//   - Process exit with a caller-chosen status after an error in main().
package process
