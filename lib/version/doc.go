// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports the build version of sqlcache binaries.
//
// [GitCommit], [GitDirty], [BuildTime], and [Version] are injected at
// build time via -ldflags -X. When they are not, the commit fields
// fall back to the VCS stamp Go embeds in the binary, and otherwise
// stay "unknown".
//
// [Info] is the one-line form printed by --version through [Print]
// and [Fprint]; [Full] adds the Go version and platform.
package version
