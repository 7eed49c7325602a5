// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"encoding/json"
	"io"

	"github.com/bureau-foundation/sqlcache/lib/codec"
	"github.com/bureau-foundation/sqlcache/lib/value"
)

// jsonLine is one row of JSON lines output. A frame with no rows
// produces a single line with Values omitted, so notes such as change
// counts are not lost.
type jsonLine struct {
	Title   string        `json:"title,omitempty"`
	Columns []string      `json:"columns,omitempty"`
	Values  []value.Value `json:"values,omitempty"`
	Note    string        `json:"note,omitempty"`
}

// JSONWriter prints one JSON object per row.
type JSONWriter struct {
	encoder *json.Encoder
}

// NewJSON returns a JSONWriter.
func NewJSON(w io.Writer) *JSONWriter {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	return &JSONWriter{encoder: encoder}
}

// WriteFrame prints the frame's rows.
func (jw *JSONWriter) WriteFrame(frame Frame) error {
	headers := frame.headers()
	if len(frame.Rows) == 0 {
		return jw.encoder.Encode(jsonLine{Title: frame.Title, Columns: headers, Note: frame.Note})
	}
	for _, row := range frame.Rows {
		line := jsonLine{Title: frame.Title, Columns: headers, Values: row, Note: frame.Note}
		if err := jw.encoder.Encode(line); err != nil {
			return err
		}
	}
	return nil
}

// Flush is a no-op.
func (jw *JSONWriter) Flush() error { return nil }

// CBORWriter prints one CBOR item per frame.
type CBORWriter struct {
	encoder *codec.Encoder
}

// NewCBOR returns a CBORWriter.
func NewCBOR(w io.Writer) *CBORWriter {
	return &CBORWriter{encoder: codec.NewEncoder(w)}
}

// WriteFrame encodes the frame with positional column names filled in.
func (cw *CBORWriter) WriteFrame(frame Frame) error {
	frame.Columns = frame.headers()
	if frame.Rows == nil {
		frame.Rows = [][]value.Value{}
	}
	return cw.encoder.Encode(frame)
}

// Flush is a no-op.
func (cw *CBORWriter) Flush() error { return nil }
