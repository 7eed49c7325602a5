// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sqlconn

import (
	"fmt"

	"zombiezen.com/go/sqlite"

	"github.com/bureau-foundation/sqlcache/lib/value"
)

// splitArgs converts call arguments into values once, at the API
// boundary. A record in first position supplies named arguments.
func splitArgs(args []any) (positional []value.Value, names value.Record) {
	if len(args) > 0 {
		switch first := args[0].(type) {
		case value.Record:
			names, args = first, args[1:]
		case map[string]value.Value:
			names, args = value.Record(first), args[1:]
		case map[string]any:
			names, args = value.RecordOf(first), args[1:]
		}
	}
	positional = make([]value.Value, len(args))
	for i, arg := range args {
		positional[i] = value.Of(arg)
	}
	return positional, names
}

// bindBatch binds every sub-statement of b from one shared positional
// cursor. On failure the failing sub-statement is cleared and reset;
// the batch stays usable.
func bindBatch(b *batch, positional []value.Value, names value.Record) error {
	for i, stmt := range b.stmts {
		consumed, err := bindStatement(stmt, positional, names)
		if err != nil {
			err.Statement = i + 1
			return err
		}
		positional = positional[consumed:]
	}
	return nil
}

// bindStatement binds stmt's declared parameters. A named parameter
// resolves through names when names is non-nil and does not consume a
// positional value. Parameters left over once positional runs out are
// bound to NULL. It returns the number of positional values consumed.
func bindStatement(stmt *sqlite.Stmt, positional []value.Value, names value.Record) (int, *BindError) {
	consumed := 0
	count := stmt.BindParamCount()
	for param := 1; param <= count; param++ {
		var argument value.Value
		name := stmt.BindParamName(param)
		switch {
		case name != "" && names != nil:
			// Strip the sigil: ":id", "@id", and "$id" all read "id".
			argument = names.Get(name[1:])
		case consumed < len(positional):
			argument = positional[consumed]
			consumed++
		default:
			argument = value.Null()
		}

		if err := bindValue(stmt, param, argument); err != nil {
			_ = stmt.ClearBindings()
			_ = stmt.Reset()
			return consumed, &BindError{Parameter: param, Name: name, Err: err}
		}
	}
	return consumed, nil
}

// bindValue binds one value by its kind.
func bindValue(stmt *sqlite.Stmt, param int, argument value.Value) error {
	switch argument.Kind() {
	case value.KindNull:
		stmt.BindNull(param)
	case value.KindBool:
		b, _ := argument.AsBool()
		stmt.BindBool(param, b)
	case value.KindInt:
		i, _ := argument.AsInt()
		stmt.BindInt64(param, i)
	case value.KindFloat:
		f, _ := argument.AsFloat()
		stmt.BindFloat(param, f)
	case value.KindText:
		s, _ := argument.AsText()
		stmt.BindText(param, s)
	default:
		return fmt.Errorf("%w %s", ErrUnsupportedValue, argument.GoType())
	}
	return nil
}
