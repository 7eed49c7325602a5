// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bureau-foundation/sqlcache/lib/value"
)

// Theme is the color palette for table output. All colors use
// lipgloss ANSI 256-color codes.
type Theme struct {
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	TitleForeground  lipgloss.Color
	NoteForeground   lipgloss.Color

	// Cell colors by value kind.
	NullForeground   lipgloss.Color
	NumberForeground lipgloss.Color
	TextForeground   lipgloss.Color
}

// DefaultTheme suits a dark 256-color terminal.
var DefaultTheme = Theme{
	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	TitleForeground:  lipgloss.Color("75"),  // blue
	NoteForeground:   lipgloss.Color("245"), // gray

	NullForeground:   lipgloss.Color("240"), // dim gray
	NumberForeground: lipgloss.Color("114"), // green
	TextForeground:   lipgloss.Color("252"),
}

// TableWriter prints frames as bordered text tables.
type TableWriter struct {
	w        io.Writer
	renderer *lipgloss.Renderer
	theme    Theme
	maxWidth int
	written  int
}

// NewTable returns a TableWriter. The color profile is detected from
// w: writing to anything but a color terminal yields plain text.
func NewTable(w io.Writer, options Options) *TableWriter {
	theme := DefaultTheme
	if options.Theme != nil {
		theme = *options.Theme
	}
	return &TableWriter{
		w:        w,
		renderer: lipgloss.NewRenderer(w),
		theme:    theme,
		maxWidth: options.MaxWidth,
	}
}

// WriteFrame prints the frame's title, its table (omitted when the
// frame has no columns), and its note, separated from the previous
// frame by a blank line.
func (tw *TableWriter) WriteFrame(frame Frame) error {
	if tw.written > 0 {
		if _, err := fmt.Fprintln(tw.w); err != nil {
			return err
		}
	}
	tw.written++

	if frame.Title != "" {
		title := tw.renderer.NewStyle().Foreground(tw.theme.TitleForeground).Bold(true).Render(frame.Title)
		if _, err := fmt.Fprintln(tw.w, title); err != nil {
			return err
		}
	}

	headers := frame.headers()
	if len(headers) > 0 {
		if _, err := fmt.Fprintln(tw.w, tw.table(headers, frame.Rows)); err != nil {
			return err
		}
	}

	note := frame.Note
	if note == "" && len(headers) > 0 {
		note = rowCount(len(frame.Rows))
	}
	if note != "" {
		styled := tw.renderer.NewStyle().Foreground(tw.theme.NoteForeground).Render(note)
		if _, err := fmt.Fprintln(tw.w, styled); err != nil {
			return err
		}
	}
	return nil
}

// Flush is a no-op; tables are written as each frame arrives.
func (tw *TableWriter) Flush() error { return nil }

func (tw *TableWriter) table(headers []string, rows [][]value.Value) string {
	cells := make([][]string, len(rows))
	for r, row := range rows {
		cells[r] = make([]string, len(headers))
		for c := range headers {
			if c < len(row) {
				cells[r][c] = tw.cell(row[c])
			}
		}
	}

	headerStyle := tw.renderer.NewStyle().Foreground(tw.theme.HeaderForeground).Bold(true).Padding(0, 1)
	cellStyle := tw.renderer.NewStyle().Padding(0, 1)

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tw.renderer.NewStyle().Foreground(tw.theme.BorderColor)).
		Headers(headers...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			style := cellStyle
			if row >= 0 && row < len(rows) && col < len(rows[row]) {
				style = style.Foreground(tw.kindColor(rows[row][col].Kind()))
			}
			return style
		}).
		String()
}

// cell formats a value for a table cell.
func (tw *TableWriter) cell(v value.Value) string {
	text := v.String()
	if tw.maxWidth > 0 && v.Kind() == value.KindText {
		runes := []rune(text)
		if len(runes) > tw.maxWidth {
			text = string(runes[:max(tw.maxWidth-1, 0)]) + "…"
		}
	}
	return text
}

func (tw *TableWriter) kindColor(kind value.Kind) lipgloss.Color {
	switch kind {
	case value.KindNull:
		return tw.theme.NullForeground
	case value.KindInt, value.KindFloat, value.KindBool:
		return tw.theme.NumberForeground
	default:
		return tw.theme.TextForeground
	}
}

func rowCount(n int) string {
	if n == 1 {
		return "(1 row)"
	}
	return fmt.Sprintf("(%d rows)", n)
}
