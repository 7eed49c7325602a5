// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package script runs scripted sequences of calls against one
// connection.
//
// Scripts are authored as JSONC files (JSON extended with comments and
// trailing commas):
//
//	{
//	  "description": "seed and read back",
//	  "steps": [
//	    {"name": "schema", "call": "exec", "query": "CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)"},
//	    {"name": "seed", "call": "exec", "query": "INSERT INTO t (name) VALUES (?)", "args": ["ada"], "repeat": 3},
//	    {"name": "lookup", "call": "col", "query": "SELECT * FROM t WHERE id = :id", "named": {"id": 2}},
//	    {"name": "all", "call": "rows", "query": "SELECT * FROM t"},
//	    {"call": "changes"},
//	  ],
//	}
//
// The typical flow:
//
//  1. ReadFile or Parse: JSONC bytes → Script
//  2. Validate: structural checks (known call, query present, etc.)
//  3. Run: execute every step in order on a sqlconn.Connection
package script

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/sqlcache/lib/value"
)

// Call names the connection operation a step performs.
type Call string

const (
	CallExec    Call = "exec"
	CallRow     Call = "row"
	CallCol     Call = "col"
	CallTCol    Call = "tcol"
	CallRows    Call = "rows"
	CallCols    Call = "cols"
	CallChanges Call = "changes"
)

// Script is a parsed script file.
type Script struct {
	// Name defaults to the file name without extension.
	Name string `json:"name,omitempty"`

	Description string `json:"description,omitempty"`

	Steps []Step `json:"steps"`
}

// Step is one call.
type Step struct {
	// Name labels the step in output. Defaults to "steps[N] call".
	Name string `json:"name,omitempty"`

	Call Call `json:"call"`

	// Query is the SQL text. Required for every call except changes.
	Query string `json:"query,omitempty"`

	// Args bind positionally.
	Args []value.Value `json:"args,omitempty"`

	// Named binds named parameters (":id", "@id", "$id" all read
	// "id").
	Named value.Record `json:"named,omitempty"`

	// Record seeds the target record of a tcol step. Fields the query
	// does not produce are kept.
	Record value.Record `json:"record,omitempty"`

	// Repeat runs the step this many times. Zero means once. Only the
	// last run's result is reported.
	Repeat int `json:"repeat,omitempty"`

	// ExpectError marks a step that must fail. The run continues
	// after it; a step marked this way that succeeds fails the run.
	ExpectError bool `json:"expect_error,omitempty"`
}

// Label returns the step's display name.
func (s Step) Label(index int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("steps[%d] %s", index, s.Call)
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a Script.
func Parse(data []byte) (*Script, error) {
	stripped := jsonc.ToJSON(data)

	var script Script
	if err := json.Unmarshal(stripped, &script); err != nil {
		return nil, fmt.Errorf("parsing script: %w", err)
	}

	return &script, nil
}

// ReadFile reads a JSONC script file from disk and parses it. The
// script's Name defaults to the file name without its extension.
func ReadFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	script, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if script.Name == "" {
		script.Name = NameFromPath(path)
	}

	return script, nil
}

// NameFromPath extracts a script name from a file path by stripping
// the directory prefix and the file extension. For example,
// "scripts/seed-users.jsonc" returns "seed-users".
func NameFromPath(path string) string {
	base := filepath.Base(path)
	extension := filepath.Ext(base)
	return strings.TrimSuffix(base, extension)
}
