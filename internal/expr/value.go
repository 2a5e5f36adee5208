// Package expr implements the restricted expression grammar of spec.md
// §4.B as a small hand-written tree-walking interpreter over a pre-parsed,
// cached AST — not a binding to a general scripting or expression runtime
// such as cel-go (see DESIGN.md for why that dependency, present elsewhere
// in the retrieved example pack, is deliberately not wired here).
package expr

import (
	"fmt"
	"reflect"
)

// Kind tags the dynamic type carried by a Value.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindObject
)

// Value is the tagged result of evaluating an expression, covering the
// return types spec.md §4.B lists: "boolean (condition), integer
// (size-expression), string, object (computed field)".
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	obj  any
}

func Bool(b bool) Value     { return Value{kind: KindBool, b: b} }
func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Str(s string) Value    { return Value{kind: KindString, s: s} }
func Object(v any) Value    { return Value{kind: KindObject, obj: v} }

// Of wraps an arbitrary Go value in a Value, inferring its Kind.
func Of(v any) Value {
	switch x := v.(type) {
	case nil:
		return Value{kind: KindObject, obj: nil}
	case bool:
		return Bool(x)
	case string:
		return Str(x)
	case Value:
		return x
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Int(int64(rv.Uint()))
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())
	default:
		return Object(v)
	}
}

func (v Value) Kind() Kind { return v.kind }

// Raw returns the underlying Go value, for indexing/member access/method
// calls against arbitrary structs, slices and maps.
func (v Value) Raw() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	default:
		return v.obj
	}
}

// AsBool coerces v to a boolean condition result.
func (v Value) AsBool() (bool, error) {
	switch v.kind {
	case KindBool:
		return v.b, nil
	case KindInt:
		return v.i != 0, nil
	case KindInvalid:
		return false, fmt.Errorf("expr: invalid value has no boolean form")
	default:
		return false, fmt.Errorf("expr: value of kind %v is not a boolean", v.kind)
	}
}

// AsInt coerces v to an integer size-expression result.
func (v Value) AsInt() (int64, error) {
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindFloat:
		return int64(v.f), nil
	default:
		return 0, fmt.Errorf("expr: value of kind %v is not an integer", v.kind)
	}
}

// AsString coerces v to a string result.
func (v Value) AsString() (string, error) {
	switch v.kind {
	case KindString:
		return v.s, nil
	default:
		return "", fmt.Errorf("expr: value of kind %v is not a string", v.kind)
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return v.s
	default:
		return fmt.Sprintf("%v", v.obj)
	}
}
