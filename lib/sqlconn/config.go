// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlconn

import (
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/sqlcache/lib/clock"
)

// Config holds the parameters for opening a Connection. Path is
// required; all other fields have sensible defaults.
type Config struct {
	// Path is the SQLite database file. The file is created if it
	// does not exist. ":memory:" opens a private in-memory database,
	// and "file:" URIs are accepted.
	Path string

	// Logger receives operational messages (open/close, compiles at
	// debug level, slow statements). If nil, a no-op logger is used.
	Logger *slog.Logger

	// Clock times statement execution for slow-statement logging.
	// Defaults to clock.Real().
	Clock clock.Clock

	// Pragmas are executed once, in order, right after the database
	// opens. A nil slice applies DefaultPragmas; an empty non-nil
	// slice applies none.
	Pragmas []string

	// BusyTimeout, when positive, overrides the busy_timeout pragma
	// after the pragmas run.
	BusyTimeout time.Duration

	// SlowThreshold, when positive, logs a warning for every call or
	// cursor whose execution takes at least this long.
	SlowThreshold time.Duration

	// OnConnect runs after the pragmas. Use it for schema creation or
	// custom function registration. An error closes the connection
	// and is returned from Open.
	OnConnect func(conn *sqlite.Conn) error
}

// DefaultPragmas tune a connection for a local, single-writer store:
//
//   - journal_mode=WAL: readers never block the writer.
//   - synchronous=NORMAL: survives process crashes without an fsync
//     per commit.
//   - busy_timeout=5000: wait up to five seconds for a write lock.
//   - foreign_keys=OFF: referential integrity is the caller's job.
//   - cache_size=-8192: 8 MB page cache.
//   - mmap_size=268435456: 256 MB memory-mapped reads.
//   - temp_store=MEMORY: temporary tables and indexes in memory.
var DefaultPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=OFF",
	"PRAGMA cache_size=-8192",
	"PRAGMA mmap_size=268435456",
	"PRAGMA temp_store=MEMORY",
}

// prepareConnection applies the configured pragmas and then the
// optional OnConnect callback.
func prepareConnection(conn *sqlite.Conn, cfg Config) error {
	pragmas := cfg.Pragmas
	if pragmas == nil {
		pragmas = DefaultPragmas
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if cfg.BusyTimeout > 0 {
		conn.SetBusyTimeout(cfg.BusyTimeout)
	}
	if cfg.OnConnect != nil {
		if err := cfg.OnConnect(conn); err != nil {
			return fmt.Errorf("OnConnect: %w", err)
		}
	}
	return nil
}
