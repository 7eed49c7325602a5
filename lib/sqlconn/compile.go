// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlconn

import (
	"fmt"
	"strings"

	"zombiezen.com/go/sqlite"
)

// MaxStatements caps the number of statements in one query text.
const MaxStatements = 128

// compileBatch compiles every statement in query. On any failure the
// statements compiled so far are finalized before the error returns.
// The returned count is the number of sub-statements finalized during
// that rollback.
func compileBatch(conn *sqlite.Conn, query string) (*batch, int, error) {
	var stmts []*sqlite.Stmt
	params := 0

	rollback := func() int {
		for _, stmt := range stmts {
			_ = stmt.Finalize()
		}
		return len(stmts)
	}

	remaining := skipSeparators(query)
	for remaining != "" {
		if len(stmts) >= MaxStatements {
			finalized := rollback()
			return nil, finalized, fmt.Errorf("%w (max %d)", ErrTooManyStatements, MaxStatements)
		}

		stmt, trailingBytes, err := conn.PrepareTransient(remaining)
		if err != nil {
			finalized := rollback()
			return nil, finalized, &CompileError{Statement: len(stmts) + 1, Err: err}
		}
		stmts = append(stmts, stmt)
		params += stmt.BindParamCount()

		remaining = skipSeparators(remaining[len(remaining)-trailingBytes:])
	}

	return &batch{
		query:  query,
		stmts:  stmts,
		params: params,
		state:  stateCheckedOut,
	}, 0, nil
}

// skipSeparators drops whitespace, empty statements (bare ";"), and
// SQL comments from the front of s. Compiling any of these on its own
// produces no statement.
func skipSeparators(s string) string {
	for {
		s = strings.TrimLeft(s, " \t\r\n\f\v;")
		switch {
		case strings.HasPrefix(s, "--"):
			end := strings.IndexByte(s, '\n')
			if end < 0 {
				return ""
			}
			s = s[end+1:]
		case strings.HasPrefix(s, "/*"):
			end := strings.Index(s[2:], "*/")
			if end < 0 {
				return ""
			}
			s = s[2+end+2:]
		default:
			return s
		}
	}
}
