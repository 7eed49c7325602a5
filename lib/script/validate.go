// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package script

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/sqlcache/lib/value"
)

// Validate checks a Script for structural issues. Returns a list of
// human-readable issue descriptions. An empty list means the script is
// valid.
//
// Structural checks include:
//   - At least one step is required
//   - Step names, when given, are unique
//   - Call is one of exec, row, col, tcol, rows, cols, changes
//   - Query is required except for changes, which takes no query or arguments
//   - Record is only valid on tcol steps
//   - Repeat is not negative
//   - Args, named values, and tcol record values are scalars
func Validate(script *Script) []string {
	var issues []string

	if len(script.Steps) == 0 {
		issues = append(issues, "script has no steps (at least one step is required)")
	}

	stepNames := make(map[string]int, len(script.Steps))
	for index, step := range script.Steps {
		if step.Name == "" {
			continue
		}
		if firstIndex, exists := stepNames[step.Name]; exists {
			issues = append(issues, fmt.Sprintf(
				"steps[%d] %q: duplicate step name (first used at steps[%d])",
				index, step.Name, firstIndex,
			))
		} else {
			stepNames[step.Name] = index
		}
	}

	for index, step := range script.Steps {
		prefix := fmt.Sprintf("steps[%d]", index)
		if step.Name != "" {
			prefix = fmt.Sprintf("%s %q", prefix, step.Name)
		}
		issues = append(issues, validateStep(step, prefix)...)
	}

	return issues
}

func validateStep(step Step, prefix string) []string {
	var issues []string

	switch step.Call {
	case CallExec, CallRow, CallCol, CallRows, CallCols, CallTCol:
		if strings.TrimSpace(step.Query) == "" {
			issues = append(issues, fmt.Sprintf("%s: query is required for %s", prefix, step.Call))
		}
	case CallChanges:
		if step.Query != "" || len(step.Args) > 0 || len(step.Named) > 0 {
			issues = append(issues, fmt.Sprintf("%s: changes takes no query or arguments", prefix))
		}
	case "":
		issues = append(issues, fmt.Sprintf("%s: call is required", prefix))
	default:
		issues = append(issues, fmt.Sprintf(
			"%s: unknown call %q (want exec, row, col, tcol, rows, cols, or changes)",
			prefix, step.Call,
		))
	}

	if len(step.Record) > 0 && step.Call != CallTCol {
		issues = append(issues, fmt.Sprintf("%s: record is only valid on tcol steps", prefix))
	}

	if step.Repeat < 0 {
		issues = append(issues, fmt.Sprintf("%s: repeat must not be negative", prefix))
	}

	for i, arg := range step.Args {
		if arg.Kind() == value.KindInvalid {
			issues = append(issues, fmt.Sprintf("%s: args[%d] is not a scalar", prefix, i))
		}
	}
	for _, name := range step.Named.Names() {
		if step.Named[name].Kind() == value.KindInvalid {
			issues = append(issues, fmt.Sprintf("%s: named[%q] is not a scalar", prefix, name))
		}
	}
	for _, name := range step.Record.Names() {
		if step.Record[name].Kind() == value.KindInvalid {
			issues = append(issues, fmt.Sprintf("%s: record[%q] is not a scalar", prefix, name))
		}
	}

	return issues
}
