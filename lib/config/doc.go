// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for sqlcache.
//
// Configuration is loaded from a single file specified by either the
// SQLCACHE_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This ensures deterministic, auditable
// configuration with no hidden overrides.
//
// The configuration file supports environment-specific sections
// (development, staging, production) that override base values when
// [Config].Environment matches. Production raises the default
// slow-statement threshold to one second.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${SQLCACHE_ROOT}, and ${VAR:-default} patterns are expanded.
// No other environment variables override config values.
//
// Durations are kept as strings in the file and parsed by
// [Config.BusyTimeout] and [Config.SlowThreshold]; [Config.Validate]
// reports every malformed field at once.
//
// Key exports:
//
//   - [Config] -- master struct with Database, Output, Log
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//
// This package depends on no other sqlcache packages.
package config
