// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlconn_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/sqlcache/lib/clock"
	"github.com/bureau-foundation/sqlcache/lib/sqlconn"
	"github.com/bureau-foundation/sqlcache/lib/testutil"
	"github.com/bureau-foundation/sqlcache/lib/value"
)

// openTestConnection opens a connection on a fresh database file with
// a single table, items(id INTEGER PRIMARY KEY, name TEXT).
func openTestConnection(t *testing.T, configure func(*sqlconn.Config)) *sqlconn.Connection {
	t.Helper()
	cfg := sqlconn.Config{
		Path: testutil.DatabasePath(t),
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn,
				`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT);`, nil)
		},
	}
	if configure != nil {
		configure(&cfg)
	}
	connection, err := sqlconn.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := connection.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return connection
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := sqlconn.Open(sqlconn.Config{}); err == nil {
		t.Fatal("Open with empty path should fail")
	}
}

func TestOpenAppliesPragmas(t *testing.T) {
	connection := openTestConnection(t, func(cfg *sqlconn.Config) {
		cfg.Pragmas = []string{"PRAGMA user_version=42"}
	})
	row, err := connection.Row("PRAGMA user_version")
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	if diff := cmp.Diff([]value.Value{value.Int(42)}, row); diff != "" {
		t.Errorf("user_version mismatch (-want +got):\n%s", diff)
	}
}

func TestOpenOnConnectError(t *testing.T) {
	_, err := sqlconn.Open(sqlconn.Config{
		Path: testutil.DatabasePath(t),
		OnConnect: func(*sqlite.Conn) error {
			return errors.New("schema unavailable")
		},
	})
	if err == nil || !strings.Contains(err.Error(), "schema unavailable") {
		t.Fatalf("Open error = %v, want OnConnect failure", err)
	}
}

func TestRowReusesCompiledBatch(t *testing.T) {
	connection := openTestConnection(t, nil)

	for i := range 5 {
		row, err := connection.Row("SELECT ? + 1", i)
		if err != nil {
			t.Fatalf("Row #%d: %v", i, err)
		}
		if diff := cmp.Diff([]value.Value{value.Int(int64(i + 1))}, row); diff != "" {
			t.Errorf("Row #%d mismatch (-want +got):\n%s", i, diff)
		}
	}

	stats := connection.Stats()
	if stats.Compiles != 1 {
		t.Errorf("Compiles = %d, want 1", stats.Compiles)
	}
	if stats.Hits != 4 || stats.Misses != 1 || stats.Queries != 5 {
		t.Errorf("Hits/Misses/Queries = %d/%d/%d, want 4/1/5", stats.Hits, stats.Misses, stats.Queries)
	}
	if stats.Cached != 1 || stats.Outstanding != 0 {
		t.Errorf("Cached/Outstanding = %d/%d, want 1/0", stats.Cached, stats.Outstanding)
	}
}

func TestReentrantSameQuery(t *testing.T) {
	connection := openTestConnection(t, nil)
	for _, name := range []string{"a", "b", "c"} {
		if _, _, err := connection.Exec("INSERT INTO items (name) VALUES (?)", name); err != nil {
			t.Fatalf("insert %s: %v", name, err)
		}
	}
	before := connection.Stats()

	const query = "SELECT name FROM items WHERE id >= ? ORDER BY id"
	rows, err := connection.Rows(query, 1)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	defer rows.Close()

	var outer, inner []string
	for rows.Next() {
		outer = append(outer, rows.Values()[0].String())

		// The same text while the cursor holds its batch compiles a
		// second batch instead of disturbing the first.
		row, err := connection.Row(query, 3)
		if err != nil {
			t.Fatalf("inner Row: %v", err)
		}
		inner = append(inner, row[0].String())
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}

	if diff := cmp.Diff([]string{"a", "b", "c"}, outer); diff != "" {
		t.Errorf("outer rows mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"c", "c", "c"}, inner); diff != "" {
		t.Errorf("inner rows mismatch (-want +got):\n%s", diff)
	}

	stats := connection.Stats()
	if compiles := stats.Compiles - before.Compiles; compiles != 2 {
		t.Errorf("SELECT compiles = %d, want 2", compiles)
	}
	if cached := stats.Cached - before.Cached; cached != 2 || stats.Outstanding != 0 {
		t.Errorf("new Cached/Outstanding = %d/%d, want 2/0", cached, stats.Outstanding)
	}
}

func TestExecConcatenatesStatements(t *testing.T) {
	connection := openTestConnection(t, nil)

	changed, columns, err := connection.Exec("SELECT 1; SELECT 2,3;")
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if changed != 0 {
		t.Errorf("changed = %d, want 0", changed)
	}
	want := []value.Value{value.Int(1), value.Int(2), value.Int(3)}
	if diff := cmp.Diff(want, columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestExecCountsChanges(t *testing.T) {
	connection := openTestConnection(t, nil)

	changed, columns, err := connection.Exec(
		"INSERT INTO items (name) VALUES (?); INSERT INTO items (name) VALUES (?); SELECT count(*) FROM items",
		"first", "second")
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if changed != 2 {
		t.Errorf("changed = %d, want 2", changed)
	}
	if diff := cmp.Diff([]value.Value{value.Int(2)}, columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestEmptyQueryText(t *testing.T) {
	connection := openTestConnection(t, nil)

	for _, query := range []string{"", " ; ;", "-- nothing here", "/* nor here */"} {
		changed, columns, err := connection.Exec(query)
		if err != nil {
			t.Errorf("Exec(%q): %v", query, err)
			continue
		}
		if changed != 0 || len(columns) != 0 {
			t.Errorf("Exec(%q) = %d, %v; want 0, []", query, changed, columns)
		}
	}
}

func TestTrailingComment(t *testing.T) {
	connection := openTestConnection(t, nil)

	row, err := connection.Row("SELECT 7; -- seven\n")
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	if diff := cmp.Diff([]value.Value{value.Int(7)}, row); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestNamedBindingPrecedence(t *testing.T) {
	connection := openTestConnection(t, nil)

	row, err := connection.Row("SELECT :a, ?", value.Record{"a": value.Int(5)}, 9)
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	if diff := cmp.Diff([]value.Value{value.Int(5), value.Int(9)}, row); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}

	// A plain map works the same way, and a missing name binds NULL.
	row, err = connection.Row("SELECT :a, :missing", map[string]any{"a": "x"})
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	if diff := cmp.Diff([]value.Value{value.Text("x"), value.Null()}, row); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestNamedWithoutRecordBindsPositionally(t *testing.T) {
	connection := openTestConnection(t, nil)

	row, err := connection.Row("SELECT :a, :b", 1, 2)
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	if diff := cmp.Diff([]value.Value{value.Int(1), value.Int(2)}, row); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestPositionalSharedAcrossStatements(t *testing.T) {
	connection := openTestConnection(t, nil)

	row, err := connection.Row("SELECT ?; SELECT ?, ?", 1, 2)
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	want := []value.Value{value.Int(1), value.Int(2), value.Null()}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestValueRoundTrip(t *testing.T) {
	connection := openTestConnection(t, nil)

	row, err := connection.Row("SELECT ?, ?, ?, ?, ?, ?, ?",
		nil, true, int64(-3), 2.0, "", "text", []byte("blob"))
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	want := []value.Value{
		value.Null(),
		value.Int(1),
		value.Int(-3),
		value.Float(2),
		value.Text(""),
		value.Text("text"),
		value.Text("blob"),
	}
	if diff := cmp.Diff(want, row); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestColLastWriteWins(t *testing.T) {
	connection := openTestConnection(t, nil)

	record, err := connection.Col("SELECT 1 AS x, 2 AS y; SELECT 3 AS x")
	if err != nil {
		t.Fatalf("Col: %v", err)
	}
	want := value.Record{"x": value.Int(3), "y": value.Int(2)}
	if diff := cmp.Diff(want, record); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestTColFillsExistingRecord(t *testing.T) {
	connection := openTestConnection(t, nil)

	target := value.Record{"keep": value.Text("me"), "x": value.Int(0)}
	record, err := connection.TCol("SELECT ? AS x", target, 10)
	if err != nil {
		t.Fatalf("TCol: %v", err)
	}
	want := value.Record{"keep": value.Text("me"), "x": value.Int(10)}
	if diff := cmp.Diff(want, record); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, target); diff != "" {
		t.Errorf("target not filled in place (-want +got):\n%s", diff)
	}

	record, err = connection.TCol("SELECT 1 AS x", nil)
	if err != nil {
		t.Fatalf("TCol(nil): %v", err)
	}
	if diff := cmp.Diff(value.Record{"x": value.Int(1)}, record); diff != "" {
		t.Errorf("TCol(nil) mismatch (-want +got):\n%s", diff)
	}
}

func TestChangesIsDelta(t *testing.T) {
	connection := openTestConnection(t, nil)

	if _, _, err := connection.Exec("INSERT INTO items (name) VALUES ('one')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	for i, want := range []int{1, 0} {
		changed, err := connection.Changes()
		if err != nil {
			t.Fatalf("Changes #%d: %v", i, err)
		}
		if changed != want {
			t.Errorf("Changes #%d = %d, want %d", i, changed, want)
		}
	}
}

func TestCloseFinalizesEverything(t *testing.T) {
	connection, err := sqlconn.Open(sqlconn.Config{Path: testutil.DatabasePath(t)})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	queries := []string{
		"SELECT 1",
		"SELECT 1; SELECT 2",
		"SELECT 1; SELECT 2; SELECT 3",
	}
	for _, query := range queries {
		if _, err := connection.Row(query); err != nil {
			t.Fatalf("Row(%q): %v", query, err)
		}
	}
	if cached := connection.Stats().Cached; cached != 3 {
		t.Fatalf("Cached = %d, want 3", cached)
	}

	if err := connection.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if finalized := connection.Stats().Finalized; finalized != 6 {
		t.Errorf("Finalized = %d, want 6", finalized)
	}
	if !connection.Closed() {
		t.Error("Closed() = false after Close")
	}

	if err := connection.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := connection.Row("SELECT 1"); !errors.Is(err, sqlconn.ErrClosed) {
		t.Errorf("Row after Close = %v, want ErrClosed", err)
	}
	if _, err := connection.Changes(); !errors.Is(err, sqlconn.ErrClosed) {
		t.Errorf("Changes after Close = %v, want ErrClosed", err)
	}
}

func TestTooManyStatements(t *testing.T) {
	connection := openTestConnection(t, nil)

	query := strings.Repeat("SELECT 1;", sqlconn.MaxStatements+1)
	_, err := connection.Row(query)
	if !errors.Is(err, sqlconn.ErrTooManyStatements) {
		t.Fatalf("Row = %v, want ErrTooManyStatements", err)
	}
	stats := connection.Stats()
	if stats.Finalized != sqlconn.MaxStatements {
		t.Errorf("Finalized = %d, want %d", stats.Finalized, sqlconn.MaxStatements)
	}
	if stats.Cached != 0 || stats.Outstanding != 0 {
		t.Errorf("Cached/Outstanding = %d/%d, want 0/0", stats.Cached, stats.Outstanding)
	}

	// Exactly the cap compiles.
	row, err := connection.Row(strings.Repeat("SELECT 1;", sqlconn.MaxStatements))
	if err != nil {
		t.Fatalf("Row at cap: %v", err)
	}
	if len(row) != sqlconn.MaxStatements {
		t.Errorf("len(row) = %d, want %d", len(row), sqlconn.MaxStatements)
	}
}

func TestCompileErrorIsNotCached(t *testing.T) {
	connection := openTestConnection(t, nil)

	const query = "SELECT 1; SELEKT 2"
	for range 2 {
		_, err := connection.Row(query)
		var compileErr *sqlconn.CompileError
		if !errors.As(err, &compileErr) {
			t.Fatalf("Row = %v, want *CompileError", err)
		}
		if compileErr.Statement != 2 {
			t.Errorf("Statement = %d, want 2", compileErr.Statement)
		}
	}

	stats := connection.Stats()
	if stats.Compiles != 2 {
		t.Errorf("Compiles = %d, want 2 (failed compiles are not cached)", stats.Compiles)
	}
	if stats.Finalized != 2 {
		t.Errorf("Finalized = %d, want 2", stats.Finalized)
	}
	if stats.Cached != 0 {
		t.Errorf("Cached = %d, want 0", stats.Cached)
	}
}

func TestBindErrorNamesParameter(t *testing.T) {
	connection := openTestConnection(t, nil)

	_, err := connection.Row("SELECT ?; SELECT ?, ?", 1, 2, struct{}{})
	var bindErr *sqlconn.BindError
	if !errors.As(err, &bindErr) {
		t.Fatalf("Row = %v, want *BindError", err)
	}
	if bindErr.Statement != 2 || bindErr.Parameter != 2 {
		t.Errorf("BindError at statement %d parameter %d, want 2/2", bindErr.Statement, bindErr.Parameter)
	}
	if !errors.Is(err, sqlconn.ErrUnsupportedValue) {
		t.Errorf("BindError does not wrap ErrUnsupportedValue: %v", err)
	}
	if !strings.Contains(err.Error(), "struct {}") {
		t.Errorf("error %q does not name the argument type", err)
	}

	// The batch went back to the cache and is reused with good input.
	row, err := connection.Row("SELECT ?; SELECT ?, ?", 1, 2, 3)
	if err != nil {
		t.Fatalf("Row retry: %v", err)
	}
	if len(row) != 3 {
		t.Errorf("retry row = %v, want three columns", row)
	}
	if stats := connection.Stats(); stats.Compiles != 1 || stats.Outstanding != 0 {
		t.Errorf("Compiles/Outstanding = %d/%d, want 1/0", stats.Compiles, stats.Outstanding)
	}
}

func TestBatchCompilesBeforeRunning(t *testing.T) {
	connection := openTestConnection(t, nil)

	// The INSERT compiles before the CREATE runs, so it cannot see t.
	_, _, err := connection.Exec("CREATE TABLE t (x INTEGER); INSERT INTO t VALUES (1)")
	var compileErr *sqlconn.CompileError
	if !errors.As(err, &compileErr) {
		t.Fatalf("Exec = %v, want *CompileError", err)
	}
	if compileErr.Statement != 2 {
		t.Errorf("Statement = %d, want 2", compileErr.Statement)
	}
	if !strings.Contains(err.Error(), "no such table") {
		t.Errorf("error %q does not mention the missing table", err)
	}

	stats := connection.Stats()
	if stats.Cached != 0 || stats.Outstanding != 0 {
		t.Errorf("Cached/Outstanding = %d/%d, want 0/0", stats.Cached, stats.Outstanding)
	}
	if stats.Finalized != 1 {
		t.Errorf("Finalized = %d, want 1 (the compiled CREATE)", stats.Finalized)
	}

	// Nothing ran: the CREATE was rolled back with the batch.
	row, err := connection.Row("SELECT count(*) FROM sqlite_master WHERE name = 't'")
	if err != nil {
		t.Fatalf("Row: %v", err)
	}
	if diff := cmp.Diff([]value.Value{value.Int(0)}, row); diff != "" {
		t.Errorf("table count mismatch (-want +got):\n%s", diff)
	}
}

func TestCursorBindErrorReturnsBatch(t *testing.T) {
	const query = "SELECT ? AS a, ? AS b"

	tests := []struct {
		name string
		open func(*sqlconn.Connection, ...any) error
	}{
		{"rows", func(c *sqlconn.Connection, args ...any) error {
			rows, err := c.Rows(query, args...)
			if err != nil {
				return err
			}
			return rows.Close()
		}},
		{"cols", func(c *sqlconn.Connection, args ...any) error {
			cols, err := c.Cols(query, args...)
			if err != nil {
				return err
			}
			return cols.Close()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connection := openTestConnection(t, nil)

			err := tt.open(connection, 1, struct{}{})
			var bindErr *sqlconn.BindError
			if !errors.As(err, &bindErr) {
				t.Fatalf("open = %v, want *BindError", err)
			}
			if bindErr.Statement != 1 || bindErr.Parameter != 2 {
				t.Errorf("BindError at statement %d parameter %d, want 1/2", bindErr.Statement, bindErr.Parameter)
			}

			stats := connection.Stats()
			if stats.Outstanding != 0 || stats.Cached != 1 {
				t.Errorf("Outstanding/Cached = %d/%d, want 0/1", stats.Outstanding, stats.Cached)
			}

			if err := tt.open(connection, 1, 2); err != nil {
				t.Fatalf("retry: %v", err)
			}
			stats = connection.Stats()
			if stats.Compiles != 1 || stats.Hits != 1 {
				t.Errorf("Compiles/Hits = %d/%d, want 1/1", stats.Compiles, stats.Hits)
			}
			if stats.Outstanding != 0 {
				t.Errorf("Outstanding = %d, want 0", stats.Outstanding)
			}
		})
	}
}

// overflowQuery fails with an integer overflow on its second row.
const overflowQuery = `
	WITH RECURSIVE n(x) AS (SELECT 1 UNION ALL SELECT x + 1 FROM n WHERE x < 3)
	SELECT CASE WHEN x = 2 THEN abs(-9223372036854775807 - 1) ELSE x END FROM n`

func TestStepErrorReleasesBatch(t *testing.T) {
	connection := openTestConnection(t, nil)

	_, err := connection.Row("SELECT 1; " + overflowQuery)
	var stepErr *sqlconn.StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Row = %v, want *StepError", err)
	}
	if stepErr.Statement != 2 {
		t.Errorf("Statement = %d, want 2", stepErr.Statement)
	}
	if !strings.Contains(err.Error(), "while executing statement #2") {
		t.Errorf("error %q lacks statement index", err)
	}
	if outstanding := connection.Stats().Outstanding; outstanding != 0 {
		t.Errorf("Outstanding = %d, want 0 after eager step error", outstanding)
	}

	rows, err := connection.Rows(overflowQuery)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	count := 0
	for rows.Next() {
		count++
	}
	if count != 1 {
		t.Errorf("rows before error = %d, want 1", count)
	}
	if !errors.As(rows.Err(), &stepErr) {
		t.Errorf("rows.Err() = %v, want *StepError", rows.Err())
	}
	if outstanding := connection.Stats().Outstanding; outstanding != 0 {
		t.Errorf("Outstanding = %d, want 0 after cursor step error", outstanding)
	}
	if err := rows.Close(); err != nil {
		t.Errorf("Close after error: %v", err)
	}
}

func TestColsStepErrorReleasesBatch(t *testing.T) {
	connection := openTestConnection(t, nil)

	cols, err := connection.Cols("SELECT 'first' AS label; " + overflowQuery)
	if err != nil {
		t.Fatalf("Cols: %v", err)
	}
	var records []value.Record
	for cols.Next() {
		records = append(records, cols.Record())
	}
	want := []value.Record{
		{"label": value.Text("first")},
	}
	if diff := cmp.Diff(want, records[:1]); diff != "" {
		t.Errorf("records before error mismatch (-want +got):\n%s", diff)
	}
	if len(records) != 2 {
		t.Errorf("records before error = %d, want 2", len(records))
	}

	var stepErr *sqlconn.StepError
	if !errors.As(cols.Err(), &stepErr) {
		t.Fatalf("cols.Err() = %v, want *StepError", cols.Err())
	}
	if stepErr.Statement != 2 {
		t.Errorf("Statement = %d, want 2", stepErr.Statement)
	}
	if outstanding := connection.Stats().Outstanding; outstanding != 0 {
		t.Errorf("Outstanding = %d, want 0 after cursor step error", outstanding)
	}
	if err := cols.Close(); err != nil {
		t.Errorf("Close after error: %v", err)
	}
}

func TestRowsAcrossStatements(t *testing.T) {
	connection := openTestConnection(t, nil)

	rows, err := connection.Rows("SELECT 1 UNION ALL SELECT 2; SELECT 'x', 'y'")
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	defer rows.Close()

	type row struct {
		Statement int
		Values    []value.Value
	}
	var got []row
	for rows.Next() {
		got = append(got, row{rows.Statement(), rows.Values()})
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	want := []row{
		{1, []value.Value{value.Int(1)}},
		{1, []value.Value{value.Int(2)}},
		{2, []value.Value{value.Text("x"), value.Text("y")}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if rows.Next() {
		t.Error("Next after exhaustion returned true")
	}
	if rows.Columns() != nil {
		t.Error("Columns after exhaustion is not nil")
	}
}

func TestRowsColumns(t *testing.T) {
	connection := openTestConnection(t, nil)

	rows, err := connection.Rows("SELECT 1 AS id, 'a' AS name")
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	defer rows.Close()
	if !rows.Next() {
		t.Fatalf("Next: %v", rows.Err())
	}
	if diff := cmp.Diff([]string{"id", "name"}, rows.Columns()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
}

func TestColsYieldsFreshRecords(t *testing.T) {
	connection := openTestConnection(t, nil)

	cols, err := connection.Cols("SELECT 1 AS n UNION ALL SELECT 2")
	if err != nil {
		t.Fatalf("Cols: %v", err)
	}
	defer cols.Close()

	var records []value.Record
	for cols.Next() {
		records = append(records, cols.Record())
	}
	if err := cols.Err(); err != nil {
		t.Fatalf("cols: %v", err)
	}
	want := []value.Record{{"n": value.Int(1)}, {"n": value.Int(2)}}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestCursorEarlyClose(t *testing.T) {
	connection := openTestConnection(t, nil)

	rows, err := connection.Rows("SELECT 1 UNION ALL SELECT 2")
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if !rows.Next() {
		t.Fatalf("Next: %v", rows.Err())
	}
	if outstanding := connection.Stats().Outstanding; outstanding != 1 {
		t.Errorf("Outstanding = %d, want 1 while cursor is open", outstanding)
	}
	if err := rows.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := rows.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if rows.Next() {
		t.Error("Next after Close returned true")
	}
	stats := connection.Stats()
	if stats.Outstanding != 0 || stats.Cached != 1 {
		t.Errorf("Cached/Outstanding = %d/%d, want 1/0", stats.Cached, stats.Outstanding)
	}
}

func TestCursorStaleAfterConnectionClose(t *testing.T) {
	connection, err := sqlconn.Open(sqlconn.Config{Path: testutil.DatabasePath(t)})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	rows, err := connection.Rows("SELECT 1 UNION ALL SELECT 2")
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if !rows.Next() {
		t.Fatalf("Next: %v", rows.Err())
	}
	if err := connection.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if rows.Next() {
		t.Fatal("Next on a stale cursor returned true")
	}
	if !errors.Is(rows.Err(), sqlconn.ErrStaleHandle) {
		t.Errorf("Err = %v, want ErrStaleHandle", rows.Err())
	}
	if err := rows.Close(); err != nil {
		t.Errorf("Close on stale cursor: %v", err)
	}
	if finalized := connection.Stats().Finalized; finalized != 1 {
		t.Errorf("Finalized = %d, want 1", finalized)
	}
}

func TestInterrupt(t *testing.T) {
	connection := openTestConnection(t, nil)

	const query = `
		WITH RECURSIVE n(x) AS (SELECT 1 UNION ALL SELECT x + 1 FROM n WHERE x < ?)
		SELECT count(*) FROM n`
	if _, err := connection.Row(query, 10); err != nil {
		t.Fatalf("Row: %v", err)
	}

	done := make(chan struct{})
	close(done)
	connection.SetInterrupt(done)
	_, err := connection.Row(query, 1000000)
	var stepErr *sqlconn.StepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("Row = %v, want *StepError from interrupt", err)
	}
	if sqlite.ErrCode(err) != sqlite.ResultInterrupt {
		t.Errorf("ErrCode = %v, want ResultInterrupt", sqlite.ErrCode(err))
	}
	if outstanding := connection.Stats().Outstanding; outstanding != 0 {
		t.Errorf("Outstanding = %d, want 0", outstanding)
	}

	connection.SetInterrupt(nil)
	row, err := connection.Row(query, 10)
	if err != nil {
		t.Fatalf("Row after clearing interrupt: %v", err)
	}
	if diff := cmp.Diff([]value.Value{value.Int(10)}, row); diff != "" {
		t.Errorf("row mismatch (-want +got):\n%s", diff)
	}
}

func TestSlowStatementLogged(t *testing.T) {
	logger, records := testutil.CaptureLogger(t)
	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	connection := openTestConnection(t, func(cfg *sqlconn.Config) {
		cfg.Logger = logger
		cfg.Clock = fake
		cfg.SlowThreshold = time.Second
	})

	if _, err := connection.Row("SELECT 'fast'"); err != nil {
		t.Fatalf("Row: %v", err)
	}
	fake.SetAutoStep(2 * time.Second)
	if _, err := connection.Row("SELECT 'slow'"); err != nil {
		t.Fatalf("Row: %v", err)
	}

	var slow []testutil.LogRecord
	for _, record := range records() {
		if record.Message() == "slow statement batch" {
			slow = append(slow, record)
		}
	}
	if len(slow) != 1 {
		t.Fatalf("got %d slow statement records, want 1", len(slow))
	}
	if slow[0]["query"] != "SELECT 'slow'" {
		t.Errorf("slow query = %v, want SELECT 'slow'", slow[0]["query"])
	}
	if digest, _ := slow[0]["query_digest"].(string); len(digest) != 12 {
		t.Errorf("query_digest = %q, want 12 hex characters", digest)
	}
}

func TestCompileLoggedByDigest(t *testing.T) {
	logger, records := testutil.CaptureLogger(t)
	connection := openTestConnection(t, func(cfg *sqlconn.Config) {
		cfg.Logger = logger
	})

	if _, err := connection.Row("SELECT 'secret'"); err != nil {
		t.Fatalf("Row: %v", err)
	}
	found := false
	for _, record := range records() {
		if record.Message() != "statement batch compiled" {
			continue
		}
		found = true
		if _, ok := record["query"]; ok {
			t.Error("compile log carries raw query text")
		}
		if record["statements"] != float64(1) {
			t.Errorf("statements = %v, want 1", record["statements"])
		}
	}
	if !found {
		t.Error("no compile log record")
	}
}
