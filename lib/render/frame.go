// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/bureau-foundation/sqlcache/lib/value"
)

// Frame is one result set.
type Frame struct {
	// Title names the frame, typically the call or script step that
	// produced it.
	Title string `json:"title,omitempty" cbor:"title,omitempty"`

	// Columns are the column names. Rows wider than Columns get
	// positional names ("1", "2", ...) for the extra cells.
	Columns []string `json:"columns,omitempty" cbor:"columns,omitempty"`

	Rows [][]value.Value `json:"rows" cbor:"rows"`

	// Note is a one-line annotation such as "2 rows changed".
	Note string `json:"note,omitempty" cbor:"note,omitempty"`
}

// RecordFrame builds a single-row frame from a record, with columns in
// name order.
func RecordFrame(title string, record value.Record) Frame {
	names := record.Names()
	row := make([]value.Value, len(names))
	for i, name := range names {
		row[i] = record[name]
	}
	return Frame{Title: title, Columns: names, Rows: [][]value.Value{row}}
}

// headers returns one name per column of the widest row.
func (f Frame) headers() []string {
	width := len(f.Columns)
	for _, row := range f.Rows {
		width = max(width, len(row))
	}
	headers := make([]string, width)
	for i := range headers {
		if i < len(f.Columns) && f.Columns[i] != "" {
			headers[i] = f.Columns[i]
		} else {
			headers[i] = strconv.Itoa(i + 1)
		}
	}
	return headers
}

// Writer prints frames in one output format.
type Writer interface {
	// WriteFrame prints one frame.
	WriteFrame(frame Frame) error

	// Flush writes anything buffered.
	Flush() error
}

// Options configure New.
type Options struct {
	// MaxWidth truncates text cells in table output. Zero means no
	// limit.
	MaxWidth int

	// Theme colors table output. The zero Theme means DefaultTheme.
	Theme *Theme
}

// New returns a Writer for format ("table", "json", or "cbor").
func New(format string, w io.Writer, options Options) (Writer, error) {
	switch format {
	case "table":
		return NewTable(w, options), nil
	case "json":
		return NewJSON(w), nil
	case "cbor":
		return NewCBOR(w), nil
	default:
		return nil, fmt.Errorf("render: unknown format %q (want table, json, or cbor)", format)
	}
}
