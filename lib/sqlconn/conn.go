// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlconn

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/zeebo/blake3"
	"zombiezen.com/go/sqlite"

	"github.com/bureau-foundation/sqlcache/lib/clock"
	"github.com/bureau-foundation/sqlcache/lib/value"
)

// totalChangesQuery reads SQLite's cumulative change counter. It is
// prepared through the engine's own persistent statement cache, which
// the engine finalizes on close.
const totalChangesQuery = "SELECT total_changes()"

// Connection is one SQLite database connection with a statement cache.
// It must not be used from more than one goroutine at a time.
type Connection struct {
	conn   *sqlite.Conn // nil once closed
	path   string
	logger *slog.Logger
	clock  clock.Clock
	slow   time.Duration

	cache *cache

	// changes is the total_changes() watermark last reported by
	// Changes (or observed at open).
	changes int64

	stats Stats
}

// Stats counts cache and engine activity over the connection's
// lifetime. Cached and Outstanding are a snapshot.
type Stats struct {
	// Compiles is the number of batch compilations attempted (cache
	// misses, including ones that failed to compile).
	Compiles int

	// Hits is the number of checkouts served from the cache.
	Hits int

	// Misses is the number of checkouts that found no idle batch.
	Misses int

	// Finalized is the number of sub-statements finalized, whether by
	// compile rollback, eviction, or Close.
	Finalized int

	// Queries is the number of query calls that reached the cache.
	Queries int

	// Cached is the number of idle batches waiting for reuse.
	Cached int

	// Outstanding is the number of batches currently checked out by
	// a running call or an open cursor.
	Outstanding int
}

// Open opens the database at cfg.Path, applies pragmas, and runs
// cfg.OnConnect. The caller must Close the connection.
func Open(cfg Config) (*Connection, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlconn: Path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	timeSource := cfg.Clock
	if timeSource == nil {
		timeSource = clock.Real()
	}

	conn, err := sqlite.OpenConn(cfg.Path, sqlite.OpenReadWrite|sqlite.OpenCreate|sqlite.OpenURI)
	if err != nil {
		return nil, fmt.Errorf("sqlconn: opening %s: %w", cfg.Path, err)
	}
	if err := prepareConnection(conn, cfg); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlconn: preparing %s: %w", cfg.Path, err)
	}

	connection := &Connection{
		conn:   conn,
		path:   cfg.Path,
		logger: logger,
		clock:  timeSource,
		slow:   cfg.SlowThreshold,
		cache:  newCache(),
	}
	connection.changes, err = connection.totalChanges()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlconn: opening %s: %w", cfg.Path, err)
	}

	logger.Info("sqlite connection opened", "path", cfg.Path)
	return connection, nil
}

// Close finalizes every compiled batch (idle or held by an open
// cursor) and closes the database. Closing a closed connection is a
// no-op. The engine handle is released even when closing reports an
// error, so the connection is closed either way.
func (c *Connection) Close() error {
	if c.conn == nil {
		return nil
	}

	batches := c.cache.drain()
	finalized := 0
	for _, b := range batches {
		finalized += b.finalize()
	}
	c.stats.Finalized += finalized

	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		c.logger.Error("sqlite connection close error", "path", c.path, "error", err)
		return fmt.Errorf("sqlconn: closing %s: %w", c.path, err)
	}

	c.logger.Info("sqlite connection closed",
		"path", c.path,
		"batches", len(batches),
		"statements_finalized", finalized,
	)
	return nil
}

// Closed reports whether Close has completed.
func (c *Connection) Closed() bool { return c.conn == nil }

// Path returns the path the connection was opened with.
func (c *Connection) Path() string { return c.path }

// Stats returns the connection's counters.
func (c *Connection) Stats() Stats {
	stats := c.stats
	stats.Cached, stats.Outstanding = c.cache.counts()
	return stats
}

// SetInterrupt makes the connection abort in-flight and future steps
// with an interrupt error once done is closed. Pass nil to clear it.
// A typical use is SetInterrupt(ctx.Done()) around a unit of work.
func (c *Connection) SetInterrupt(done <-chan struct{}) {
	if c.conn == nil {
		return
	}
	c.conn.SetInterrupt(done)
}

// Changes returns the number of rows inserted, updated, or deleted
// since the previous call to Changes (or since Open), then advances
// the watermark.
func (c *Connection) Changes() (int, error) {
	if c.conn == nil {
		return 0, ErrClosed
	}
	total, err := c.totalChanges()
	if err != nil {
		return 0, fmt.Errorf("sqlconn: changes: %w", err)
	}
	delta := total - c.changes
	c.changes = total
	return int(delta), nil
}

// Exec runs every statement in query and returns the number of rows
// changed during the call along with the columns of every row
// produced, concatenated in order.
func (c *Connection) Exec(query string, args ...any) (int, []value.Value, error) {
	if c.conn == nil {
		return 0, nil, ErrClosed
	}
	before, err := c.totalChanges()
	if err != nil {
		return 0, nil, fmt.Errorf("sqlconn: exec: %w", err)
	}

	var columns []value.Value
	err = c.run(query, args, func(stmt *sqlite.Stmt) {
		columns = appendColumns(columns, stmt)
	})
	if err != nil {
		return 0, nil, err
	}

	after, err := c.totalChanges()
	if err != nil {
		return 0, nil, fmt.Errorf("sqlconn: exec: %w", err)
	}
	return int(after - before), columns, nil
}

// Row runs every statement in query and returns the columns of every
// row produced, concatenated in order.
func (c *Connection) Row(query string, args ...any) ([]value.Value, error) {
	var columns []value.Value
	err := c.run(query, args, func(stmt *sqlite.Stmt) {
		columns = appendColumns(columns, stmt)
	})
	if err != nil {
		return nil, err
	}
	return columns, nil
}

// Col runs every statement in query and returns a record of column
// name to value. When several rows (or sub-statements) produce the
// same column name, the last one wins; Col is meant for queries that
// produce a single row.
func (c *Connection) Col(query string, args ...any) (value.Record, error) {
	return c.TCol(query, make(value.Record), args...)
}

// TCol is Col writing into record instead of a new one. Existing
// fields not produced by the query are left alone. A nil record is
// replaced by a new one.
func (c *Connection) TCol(query string, record value.Record, args ...any) (value.Record, error) {
	if record == nil {
		record = make(value.Record)
	}
	err := c.run(query, args, func(stmt *sqlite.Stmt) {
		setColumns(record, stmt)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Rows starts a cursor over every row produced by query. The caller
// must Close it unless Next has returned false.
func (c *Connection) Rows(query string, args ...any) (*Rows, error) {
	cur, err := c.openCursor(query, args)
	if err != nil {
		return nil, err
	}
	return &Rows{cursor: cur}, nil
}

// Cols is Rows yielding each row as a record of column name to value.
func (c *Connection) Cols(query string, args ...any) (*Cols, error) {
	cur, err := c.openCursor(query, args)
	if err != nil {
		return nil, err
	}
	return &Cols{cursor: cur}, nil
}

// run checks out query's batch, binds args, and drives every
// sub-statement to completion. The batch is checked back in on every
// path before run returns.
func (c *Connection) run(query string, args []any, visit func(stmt *sqlite.Stmt)) error {
	if c.conn == nil {
		return ErrClosed
	}
	positional, names := splitArgs(args)

	b, err := c.checkout(query, false)
	if err != nil {
		return err
	}
	start := c.clock.Now()
	defer func() {
		c.checkin(b)
		c.observe(query, start)
	}()

	if err := bindBatch(b, positional, names); err != nil {
		return err
	}
	return drive(b, visit)
}

// openCursor checks out query's batch for streaming and binds args.
func (c *Connection) openCursor(query string, args []any) (*cursor, error) {
	if c.conn == nil {
		return nil, ErrClosed
	}
	positional, names := splitArgs(args)

	b, err := c.checkout(query, true)
	if err != nil {
		return nil, err
	}
	if err := bindBatch(b, positional, names); err != nil {
		c.checkin(b)
		return nil, err
	}
	return &cursor{
		owner: c,
		batch: b,
		index: 1,
		start: c.clock.Now(),
	}, nil
}

// checkout hands out an idle batch for query, compiling one on a miss.
// The batch belongs to the caller until checkin. Streaming checkouts
// may stay out across calls; eager ones are returned before the call
// that took them returns.
func (c *Connection) checkout(query string, streaming bool) (*batch, error) {
	c.stats.Queries++
	if b := c.cache.pop(query); b != nil {
		c.stats.Hits++
		return b, nil
	}

	c.stats.Misses++
	c.stats.Compiles++
	b, finalized, err := compileBatch(c.conn, query)
	c.stats.Finalized += finalized
	if err != nil {
		c.logger.Debug("statement batch compile failed",
			"query_digest", queryDigest(query),
			"error", err,
		)
		return nil, err
	}
	c.cache.add(b)
	c.logger.Debug("statement batch compiled",
		"query_digest", queryDigest(query),
		"statements", len(b.stmts),
		"parameters", b.params,
		"streaming", streaming,
	)
	return b, nil
}

// checkin returns a checked-out batch to its chain. A batch whose
// connection closed meanwhile is already dead (Close finalized it) and
// is left alone. A batch that cannot be rewound is evicted and finalized
// rather than cached in an unknown state.
func (c *Connection) checkin(b *batch) {
	switch b.state {
	case stateDead:
		return
	case stateCached:
		panic(fmt.Sprintf("sqlconn: batch for %q checked in twice", b.query))
	}

	// Close kills every arena batch before dropping the handle, so a
	// live batch here means the arena lost track of it.
	if c.conn == nil {
		panic(fmt.Sprintf("sqlconn: live batch for %q checked in after close", b.query))
	}

	if err := b.rewind(); err != nil {
		c.logger.Warn("evicting statement batch that failed to reset",
			"query_digest", queryDigest(b.query),
			"error", err,
		)
		c.cache.remove(b)
		c.stats.Finalized += b.finalize()
		return
	}
	c.cache.push(b)
}

// observe logs a warning when the work that began at start exceeded
// the slow-statement threshold.
func (c *Connection) observe(query string, start time.Time) {
	if c.slow <= 0 {
		return
	}
	elapsed := clock.Since(c.clock, start)
	if elapsed >= c.slow {
		c.logger.Warn("slow statement batch",
			"query_digest", queryDigest(query),
			"query", truncate(query, 200),
			"elapsed", elapsed,
			"threshold", c.slow,
		)
	}
}

// totalChanges reads the engine's cumulative change counter.
func (c *Connection) totalChanges() (int64, error) {
	stmt, err := c.conn.Prepare(totalChangesQuery)
	if err != nil {
		return 0, err
	}
	defer stmt.Reset()
	if _, err := stmt.Step(); err != nil {
		return 0, err
	}
	return stmt.ColumnInt64(0), nil
}

// queryDigest is a short, stable identifier for a query text, used in
// logs in place of the SQL itself.
func queryDigest(query string) string {
	sum := blake3.Sum256([]byte(query))
	return hex.EncodeToString(sum[:6])
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
