// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package render prints query results.
//
// A [Frame] is one result set: a title, column names, rows of
// [value.Value], and an optional note such as a change count. A
// [Writer] prints frames in one of three formats:
//
//   - "table": a bordered text table drawn with lipgloss. NULL cells
//     are dimmed and long text is truncated to MaxWidth. Colors are
//     chosen from the destination's detected profile, so output to a
//     pipe or file carries no escape sequences.
//   - "json": one JSON object per row (JSON lines), with the frame
//     title and column names repeated on every line so each line
//     stands alone for jq and friends.
//   - "cbor": one CBOR item per frame, as an RFC 8742 CBOR sequence
//     using Core Deterministic Encoding.
package render
