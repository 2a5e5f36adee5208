package codec

import (
	"fmt"
	"reflect"

	"github.com/boxwire/boxwire/internal/expr"
)

// fieldContext adapts a (root, self) pair under construction into an
// expr.Context, resolving bare identifiers and member access against
// exported struct fields by name via reflection — the "already-decoded
// sibling field values of self / root" lookup spec.md §4.B calls for.
type fieldContext struct {
	root, self any
	vars       map[string]any
}

func newFieldContext(root, self any) fieldContext {
	return fieldContext{root: root, self: self}
}

// NewFieldContext exposes fieldContext to collaborators outside this
// package (the template compiler) that need to evaluate a field's
// Condition or a computed field's expression against the same root/self
// reflection rules the codecs themselves use for size expressions.
func NewFieldContext(root, self any) expr.Context {
	return newFieldContext(root, self)
}

func (c fieldContext) Root() any { return c.root }
func (c fieldContext) Self() any { return c.self }

func (c fieldContext) Var(name string) (any, bool) {
	v, ok := c.vars[name]
	return v, ok
}

func (c fieldContext) Field(owner any, name string) (any, bool) {
	if owner == nil {
		return nil, false
	}
	rv := reflect.ValueOf(owner)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, false
	}
	fv := rv.FieldByName(name)
	if !fv.IsValid() {
		return nil, false
	}
	return fv.Interface(), true
}

// evalSize evaluates a size expression to a non-negative element/byte
// count. A bare integer literal (e.g. "16") is a valid size expression.
func evalSize(ev *expr.Evaluator, sizeExpr string, root, self any) (int, error) {
	n, err := ev.EvalInt(sizeExpr, newFieldContext(root, self))
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("codec: size expression %q evaluated to negative count %d", sizeExpr, n)
	}
	return int(n), nil
}
