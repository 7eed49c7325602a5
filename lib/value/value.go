// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package value

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/bureau-foundation/sqlcache/lib/codec"
)

// Kind identifies which member of the union a Value holds.
type Kind uint8

const (
	// KindNull is SQL NULL. The zero Value is NULL.
	KindNull Kind = iota
	// KindBool binds as integer 0 or 1.
	KindBool
	// KindInt is a 64-bit signed integer.
	KindInt
	// KindFloat is a 64-bit IEEE float.
	KindFloat
	// KindText is a byte string. BLOB columns also read back as text.
	KindText
	// KindInvalid marks a Go value with no SQL representation.
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindInvalid:
		return "invalid"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is one dynamically-typed SQL value. The zero Value is NULL.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Null returns the NULL value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value {
	v := Value{kind: KindBool}
	if b {
		v.i = 1
	}
	return v
}

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating-point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Invalid returns a value recording a Go type that cannot be bound.
func Invalid(goType string) Value { return Value{kind: KindInvalid, s: goType} }

// Of converts a Go value into a Value. Supported inputs are nil, bool,
// every signed and unsigned integer type, float32/float64, string,
// []byte, and Value itself. Pointers are followed. Unsigned values
// above math.MaxInt64 and every other type yield a KindInvalid value.
func Of(x any) Value {
	switch x := x.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint8:
		return Int(int64(x))
	case uint16:
		return Int(int64(x))
	case uint32:
		return Int(int64(x))
	case uint:
		return ofUnsigned(uint64(x), "uint")
	case uint64:
		return ofUnsigned(x, "uint64")
	case float32:
		return Float(float64(x))
	case float64:
		return Float(x)
	case string:
		return Text(x)
	case []byte:
		return Text(string(x))
	}

	reflected := reflect.ValueOf(x)
	if reflected.Kind() == reflect.Pointer {
		if reflected.IsNil() {
			return Null()
		}
		return Of(reflected.Elem().Interface())
	}
	return Invalid(reflected.Type().String())
}

func ofUnsigned(u uint64, goType string) Value {
	if u > math.MaxInt64 {
		return Invalid(goType + " overflowing int64")
	}
	return Int(int64(u))
}

// Kind reports which member of the union v holds.
func (v Value) Kind() Kind { return v.kind }

// Equal reports whether v and other have the same kind and payload.
// Floats compare with ==, so NaN is never equal to itself.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindBool, KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindText, KindInvalid:
		return v.s == other.s
	default:
		return true
	}
}

// IsNull reports whether v is NULL.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v. Integers are true when
// non-zero; other kinds report ok=false.
func (v Value) AsBool() (b bool, ok bool) {
	switch v.kind {
	case KindBool, KindInt:
		return v.i != 0, true
	}
	return false, false
}

// AsInt returns the integer held by v. Booleans convert to 0/1.
func (v Value) AsInt() (i int64, ok bool) {
	switch v.kind {
	case KindInt, KindBool:
		return v.i, true
	}
	return 0, false
}

// AsFloat returns the number held by v as a float64. Integers
// convert; other kinds report ok=false.
func (v Value) AsFloat() (f float64, ok bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

// AsText returns the text held by v.
func (v Value) AsText() (s string, ok bool) {
	if v.kind == KindText {
		return v.s, true
	}
	return "", false
}

// GoType returns the Go type name recorded by Invalid.
func (v Value) GoType() string {
	if v.kind == KindInvalid {
		return v.s
	}
	return ""
}

// Any returns v as a plain Go value: nil, bool, int64, float64, or
// string. Invalid values return nil.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.i != 0
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText:
		return v.s
	}
	return nil
}

// String formats v the way the sqlite3 shell prints it: NULL is the
// literal "NULL", floats use the shortest round-tripping form.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindBool:
		return strconv.FormatBool(v.i != 0)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return v.s
	}
	return "<invalid " + v.s + ">"
}

// MarshalJSON encodes v as its natural JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindInvalid {
		return nil, fmt.Errorf("value: cannot marshal invalid value of Go type %s", v.s)
	}
	if v.kind == KindFloat && (math.IsInf(v.f, 0) || math.IsNaN(v.f)) {
		return json.Marshal(v.String())
	}
	return json.Marshal(v.Any())
}

// UnmarshalJSON decodes a JSON scalar. Numbers without a fraction or
// exponent decode as integers; objects and arrays are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(strings.NewReader(string(data)))
	decoder.UseNumber()
	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	switch raw := raw.(type) {
	case nil:
		*v = Null()
	case bool:
		*v = Bool(raw)
	case string:
		*v = Text(raw)
	case json.Number:
		if i, err := raw.Int64(); err == nil {
			*v = Int(i)
			return nil
		}
		f, err := raw.Float64()
		if err != nil {
			return fmt.Errorf("value: number %s: %w", raw, err)
		}
		*v = Float(f)
	default:
		return fmt.Errorf("value: unsupported JSON %T, want a scalar", raw)
	}
	return nil
}

// MarshalCBOR encodes v as its natural CBOR scalar.
func (v Value) MarshalCBOR() ([]byte, error) {
	if v.kind == KindInvalid {
		return nil, fmt.Errorf("value: cannot marshal invalid value of Go type %s", v.s)
	}
	return codec.Marshal(v.Any())
}

// UnmarshalCBOR decodes a CBOR scalar.
func (v *Value) UnmarshalCBOR(data []byte) error {
	var raw any
	if err := codec.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("value: %w", err)
	}
	switch raw := raw.(type) {
	case uint64:
		*v = ofUnsigned(raw, "uint64")
		if v.kind == KindInvalid {
			return fmt.Errorf("value: CBOR integer %d overflows int64", raw)
		}
	case []byte:
		*v = Text(string(raw))
	default:
		converted := Of(raw)
		if converted.kind == KindInvalid {
			return fmt.Errorf("value: unsupported CBOR item %T, want a scalar", raw)
		}
		*v = converted
	}
	return nil
}

// Parse interprets a command-line literal: "null" is NULL,
// "true"/"false" are booleans, integer and float syntax yields
// numbers, and anything else is text. A leading "=" forces the rest of
// the string to be text ("=42" is the string "42").
func Parse(literal string) Value {
	if rest, ok := strings.CutPrefix(literal, "="); ok {
		return Text(rest)
	}
	switch literal {
	case "null", "NULL":
		return Null()
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if i, err := strconv.ParseInt(literal, 10, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(literal, 64); err == nil && strings.ContainsAny(literal, ".eE") {
		return Float(f)
	}
	return Text(literal)
}
