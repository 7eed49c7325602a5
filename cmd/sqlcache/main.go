// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// sqlcache runs SQL against a SQLite database through a statement
// cache and prints the results.
//
// One-shot mode runs a single call:
//
//	sqlcache --db app.db rows 'SELECT * FROM users WHERE team = ?' infra
//	sqlcache --db app.db -n id=7 col 'SELECT * FROM users WHERE id = :id'
//
// Script mode runs a JSONC script of calls on one connection, so
// repeated query texts reuse their compiled statements:
//
//	sqlcache --db app.db --stats run seed.jsonc
//
// Positional arguments are parsed as literals: null, true, false,
// integers, and floats become typed values, anything else is text,
// and a leading "=" forces text ("=42" is the string "42").
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/sqlcache/lib/config"
	"github.com/bureau-foundation/sqlcache/lib/process"
	"github.com/bureau-foundation/sqlcache/lib/render"
	"github.com/bureau-foundation/sqlcache/lib/script"
	"github.com/bureau-foundation/sqlcache/lib/sqlconn"
	"github.com/bureau-foundation/sqlcache/lib/value"
	"github.com/bureau-foundation/sqlcache/lib/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		stop()
		process.Fatal(err)
	}
}

// usageError reports bad command-line input. It exits with status 2.
type usageError struct {
	err error
}

func usage(format string, args ...any) *usageError {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }
func (e *usageError) ExitCode() int { return 2 }

// options holds parsed command-line flags.
type options struct {
	database   string
	configPath string
	format     string
	logLevel   string
	named      []string
	stats      bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	// Handle --version before flag parsing to match other binaries.
	if len(args) > 0 && args[0] == "--version" {
		version.Fprint(stdout, "sqlcache")
		return nil
	}

	var opts options
	flagSet := pflag.NewFlagSet("sqlcache", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&opts.database, "db", "", "database path (overrides database.path from config)")
	flagSet.StringVar(&opts.configPath, "config", "", "config file (default: $SQLCACHE_CONFIG, else built-in defaults)")
	flagSet.StringVar(&opts.format, "format", "", "output format: table, json, or cbor (overrides output.format)")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, or error (overrides log.level)")
	flagSet.StringArrayVarP(&opts.named, "named", "n", nil, "named argument as key=value (repeatable)")
	flagSet.BoolVar(&opts.stats, "stats", false, "print statement cache statistics after the results")
	flagSet.BoolP("help", "h", false, "show help")
	flagSet.SetInterspersed(false)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return nil
		}
		return &usageError{err: err}
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return nil
	}

	positional := flagSet.Args()
	if len(positional) == 0 {
		printHelp(stderr, flagSet)
		return usage("a command is required")
	}
	command, commandArgs := positional[0], positional[1:]
	if err := checkArity(command, commandArgs); err != nil {
		return err
	}

	named, err := parseNamed(opts.named)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger, err := newLogger(stderr, cfg)
	if err != nil {
		return err
	}

	writer, err := render.New(cfg.Output.Format, stdout, render.Options{MaxWidth: cfg.Output.MaxWidth})
	if err != nil {
		return err
	}

	connection, err := openConnection(cfg, logger)
	if err != nil {
		return err
	}
	defer connection.Close()

	switch command {
	case "run":
		err = runScript(ctx, connection, logger, writer, commandArgs[0])
	case "changes":
		err = runChanges(connection, writer)
	default:
		err = runCall(connection, writer, command, commandArgs[0], named, commandArgs[1:])
	}
	if err != nil {
		return err
	}

	if opts.stats {
		if err := writer.WriteFrame(statsFrame(connection.Stats())); err != nil {
			return err
		}
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	return connection.Close()
}

// checkArity validates the command name and its argument count.
func checkArity(command string, args []string) error {
	switch command {
	case "exec", "row", "col", "rows", "cols":
		if len(args) < 1 {
			return usage("%s requires a QUERY argument", command)
		}
	case "run":
		if len(args) != 1 {
			return usage("run requires exactly one SCRIPT argument")
		}
	case "changes":
		if len(args) != 0 {
			return usage("changes takes no arguments")
		}
	default:
		return usage("unknown command %q (want exec, row, col, rows, cols, run, or changes)", command)
	}
	return nil
}

// parseNamed converts key=value flags into a record. It returns nil
// when no named arguments were given, so named parameters in the
// query bind positionally.
func parseNamed(pairs []string) (value.Record, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	named := make(value.Record, len(pairs))
	for _, pair := range pairs {
		key, literal, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, usage("--named %q: want key=value", pair)
		}
		named[key] = value.Parse(literal)
	}
	return named, nil
}

// loadConfig resolves the configuration file and applies flag
// overrides on top of it.
func loadConfig(opts options) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case opts.configPath != "":
		cfg, err = config.LoadFile(opts.configPath)
	case os.Getenv("SQLCACHE_CONFIG") != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
		cfg.ExpandVariables()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if opts.database != "" {
		cfg.Database.Path = opts.database
	}
	if opts.format != "" {
		cfg.Output.Format = opts.format
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, &usageError{err: fmt.Errorf("invalid configuration:\n%w", err)}
	}
	return cfg, nil
}

// openConnection ensures the database directory exists and opens it.
func openConnection(cfg *config.Config, logger *slog.Logger) (*sqlconn.Connection, error) {
	if err := cfg.EnsurePaths(); err != nil {
		return nil, err
	}

	// Validate has already checked both durations.
	busyTimeout, _ := cfg.BusyTimeout()
	slowThreshold, _ := cfg.SlowThreshold()

	var pragmas []string
	if len(cfg.Database.Pragmas) > 0 {
		pragmas = cfg.Database.Pragmas
	}

	return sqlconn.Open(sqlconn.Config{
		Path:          cfg.Database.Path,
		Logger:        logger,
		Pragmas:       pragmas,
		BusyTimeout:   busyTimeout,
		SlowThreshold: slowThreshold,
	})
}

func runCall(connection *sqlconn.Connection, writer render.Writer, command, query string, named value.Record, literals []string) error {
	args := make([]any, 0, len(literals)+1)
	if named != nil {
		args = append(args, named)
	}
	for _, literal := range literals {
		args = append(args, value.Parse(literal))
	}

	switch command {
	case "exec":
		changed, columns, err := connection.Exec(query, args...)
		if err != nil {
			return err
		}
		frame := render.Frame{Title: command, Note: changedNote(changed)}
		if len(columns) > 0 {
			frame.Rows = [][]value.Value{columns}
		}
		return writer.WriteFrame(frame)

	case "row":
		columns, err := connection.Row(query, args...)
		if err != nil {
			return err
		}
		frame := render.Frame{Title: command}
		if len(columns) > 0 {
			frame.Rows = [][]value.Value{columns}
		}
		return writer.WriteFrame(frame)

	case "col":
		record, err := connection.Col(query, args...)
		if err != nil {
			return err
		}
		return writer.WriteFrame(render.RecordFrame(command, record))

	case "rows":
		rows, err := connection.Rows(query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		frame := render.Frame{Title: command}
		for rows.Next() {
			if frame.Columns == nil {
				frame.Columns = rows.Columns()
			}
			frame.Rows = append(frame.Rows, rows.Values())
		}
		if err := rows.Err(); err != nil {
			return err
		}
		return writer.WriteFrame(frame)

	case "cols":
		cols, err := connection.Cols(query, args...)
		if err != nil {
			return err
		}
		defer cols.Close()
		for cols.Next() {
			if err := writer.WriteFrame(render.RecordFrame(command, cols.Record())); err != nil {
				return err
			}
		}
		return cols.Err()
	}
	return usage("unknown command %q", command)
}

func runScript(ctx context.Context, connection *sqlconn.Connection, logger *slog.Logger, writer render.Writer, path string) error {
	parsed, err := script.ReadFile(path)
	if err != nil {
		return err
	}
	if issues := script.Validate(parsed); len(issues) > 0 {
		return usage("%s: invalid script:\n  %s", path, strings.Join(issues, "\n  "))
	}

	results, runErr := script.NewRunner(connection, logger).Run(ctx, parsed)
	for _, result := range results {
		if result.Err != nil && result.Index == len(results)-1 && runErr != nil {
			// The failing step is reported through runErr.
			break
		}
		for _, frame := range result.Frames() {
			if err := writer.WriteFrame(frame); err != nil {
				return err
			}
		}
	}
	return runErr
}

func runChanges(connection *sqlconn.Connection, writer render.Writer) error {
	changed, err := connection.Changes()
	if err != nil {
		return err
	}
	return writer.WriteFrame(render.Frame{Title: "changes", Note: changedNote(changed)})
}

func statsFrame(stats sqlconn.Stats) render.Frame {
	return render.Frame{
		Title:   "stats",
		Columns: []string{"queries", "compiles", "hits", "misses", "finalized", "cached", "outstanding"},
		Rows: [][]value.Value{{
			value.Of(stats.Queries),
			value.Of(stats.Compiles),
			value.Of(stats.Hits),
			value.Of(stats.Misses),
			value.Of(stats.Finalized),
			value.Of(stats.Cached),
			value.Of(stats.Outstanding),
		}},
	}
}

func changedNote(n int) string {
	if n == 1 {
		return "1 row changed"
	}
	return fmt.Sprintf("%d rows changed", n)
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `sqlcache runs SQL against a SQLite database through a statement cache.

Usage:
  sqlcache [flags] exec|row|col|rows|cols QUERY [ARGS...]
  sqlcache [flags] run SCRIPT
  sqlcache [flags] changes

Commands:
  exec     run every statement; print the change count and any row produced
  row      print the columns of every row produced, concatenated
  col      print the result as one record of column name to value
  rows     print every row
  cols     print every row as a record
  run      run a JSONC script of calls on one connection
  changes  print rows changed since the connection opened

Flags:
%s`, flagSet.FlagUsages())
}
