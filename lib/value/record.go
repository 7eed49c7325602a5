// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package value

import "sort"

// Record maps names to values. It carries named bind arguments into a
// query and named columns out of one.
type Record map[string]Value

// RecordOf converts a map of Go values with Of. A nil map yields a nil
// Record.
func RecordOf(fields map[string]any) Record {
	if fields == nil {
		return nil
	}
	record := make(Record, len(fields))
	for name, field := range fields {
		record[name] = Of(field)
	}
	return record
}

// Get returns the value stored under name, or NULL when absent.
func (r Record) Get(name string) Value {
	return r[name]
}

// Names returns the record's keys in sorted order.
func (r Record) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Map returns the record as plain Go values (see Value.Any).
func (r Record) Map() map[string]any {
	fields := make(map[string]any, len(r))
	for name, field := range r {
		fields[name] = field.Any()
	}
	return fields
}
