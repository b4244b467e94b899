package links

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUnsupportedValue is returned by [ValueOf] and [Value.UnmarshalJSON] when
// the input is not a scalar that fits one of the value kinds.
var ErrUnsupportedValue = errors.New("unsupported metadata value")

// Kind identifies which field of a [Value] is set.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindInt
	KindFloat
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	}
	return "absent"
}

// Value is a typed metadata value. The zero value is [Absent]; storing it
// deletes the key. Values are comparable with ==.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
}

// Absent is the missing value.
var Absent = Value{}

func Int(v int) Value          { return Value{kind: KindInt, i: int64(v)} }
func Float(v float64) Value    { return Value{kind: KindFloat, f: v} }
func String(v string) Value    { return Value{kind: KindString, s: v} }
func Bool(v bool) Value        { return Value{kind: KindBool, b: v} }
func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// AsInt returns the value if it holds an int.
func (v Value) AsInt() (int, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return int(v.i), true
}

// AsFloat returns the value if it holds a float or an int.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	}
	return 0, false
}

func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Any returns the value as a plain Go value, nil when absent.
func (v Value) Any() any {
	switch v.kind {
	case KindInt:
		return int(v.i)
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBool:
		return v.b
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindAbsent:
		return "<absent>"
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return strconv.Quote(v.s)
	}
	return fmt.Sprint(v.Any())
}

// ValueOf converts a decoded scalar to a Value. Integral json.Number values
// become ints; nil becomes Absent.
func ValueOf(x any) (Value, error) {
	switch n := x.(type) {
	case nil:
		return Absent, nil
	case int:
		return Int(n), nil
	case int64:
		return Int(int(n)), nil
	case int32:
		return Int(int(n)), nil
	case float64:
		return Float(n), nil
	case float32:
		return Float(float64(n)), nil
	case string:
		return String(n), nil
	case bool:
		return Bool(n), nil
	case json.Number:
		return numberValue(string(n))
	}
	return Absent, fmt.Errorf("%w: %T", ErrUnsupportedValue, x)
}

func numberValue(s string) (Value, error) {
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Value{kind: KindInt, i: i}, nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Absent, fmt.Errorf("%w: %v", ErrUnsupportedValue, err)
	}
	return Float(f), nil
}

// formatFloat always keeps a fraction or exponent, so the number decodes as
// a float again.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") { // n: NaN, Inf
		s += ".0"
	}
	return s
}

// MarshalJSON implements json.Marshaler. Absent encodes as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedValue, v.f)
		}
		return []byte(formatFloat(v.f)), nil
	case KindInt:
		return strconv.AppendInt(nil, v.i, 10), nil
	}
	return json.Marshal(v.Any())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return err
	}
	val, err := ValueOf(x)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// Entry is one key/value pair of position or lineage metadata.
type Entry struct {
	Key   string
	Value Value
}
