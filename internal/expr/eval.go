package expr

import (
	"fmt"
	"reflect"
)

func (n *literalNode) eval(ctx Context) (Value, error) { return n.v, nil }

func (n *identNode) eval(ctx Context) (Value, error) {
	switch n.name {
	case "root":
		return Of(ctx.Root()), nil
	case "self":
		return Of(ctx.Self()), nil
	}
	if v, ok := ctx.Field(ctx.Self(), n.name); ok {
		return Of(v), nil
	}
	if v, ok := ctx.Field(ctx.Root(), n.name); ok {
		return Of(v), nil
	}
	return Value{}, fmt.Errorf("undefined identifier %q", n.name)
}

func (n *variableNode) eval(ctx Context) (Value, error) {
	switch n.name {
	case "self":
		return Of(ctx.Self()), nil
	}
	if v, ok := ctx.Var(n.name); ok {
		return Of(v), nil
	}
	return Value{}, fmt.Errorf("undefined variable #%s", n.name)
}

func (n *memberNode) eval(ctx Context) (Value, error) {
	tv, err := n.target.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	owner := tv.Raw()
	if v, ok := ctx.Field(owner, n.name); ok {
		return Of(v), nil
	}
	v, err := fieldByReflection(owner, n.name)
	if err != nil {
		return Value{}, fmt.Errorf("member %q: %w", n.name, err)
	}
	return Of(v), nil
}

func (n *indexNode) eval(ctx Context) (Value, error) {
	tv, err := n.target.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	iv, err := n.index.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	idx, err := iv.AsInt()
	if err != nil {
		return Value{}, err
	}
	rv := reflect.ValueOf(tv.Raw())
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if idx < 0 || int(idx) >= rv.Len() {
			return Value{}, fmt.Errorf("index %d out of range (length %d)", idx, rv.Len())
		}
		return Of(rv.Index(int(idx)).Interface()), nil
	case reflect.Map:
		mv := rv.MapIndex(reflect.ValueOf(idx).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return Value{}, fmt.Errorf("map has no key %d", idx)
		}
		return Of(mv.Interface()), nil
	default:
		return Value{}, fmt.Errorf("cannot index value of kind %v", rv.Kind())
	}
}

func (n *callNode) eval(ctx Context) (Value, error) {
	args := make([]Value, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(ctx)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	if n.target == nil {
		if fn, ok := builtins[n.name]; ok {
			return fn(args)
		}
		return Value{}, fmt.Errorf("undefined function %q", n.name)
	}
	tv, err := n.target.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return callMethod(tv.Raw(), n.name, args)
}

func (n *typeRefNode) eval(ctx Context) (Value, error) {
	args := make([]Value, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(ctx)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	fn, ok := LookupStaticMethod(n.qualifiedName, n.method)
	if !ok {
		return Value{}, fmt.Errorf("no static method registered for T(%s).%s", n.qualifiedName, n.method)
	}
	return fn(args)
}

func (n *binaryNode) eval(ctx Context) (Value, error) {
	// Short-circuit logical operators.
	if n.op == "&&" || n.op == "||" {
		l, err := n.l.eval(ctx)
		if err != nil {
			return Value{}, err
		}
		lb, err := l.AsBool()
		if err != nil {
			return Value{}, err
		}
		if n.op == "&&" && !lb {
			return Bool(false), nil
		}
		if n.op == "||" && lb {
			return Bool(true), nil
		}
		r, err := n.r.eval(ctx)
		if err != nil {
			return Value{}, err
		}
		rb, err := r.AsBool()
		return Bool(rb), err
	}

	l, err := n.l.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	r, err := n.r.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	return applyBinary(n.op, l, r)
}

func applyBinary(op string, l, r Value) (Value, error) {
	switch op {
	case "==":
		return Bool(valuesEqual(l, r)), nil
	case "!=":
		return Bool(!valuesEqual(l, r)), nil
	}
	if l.kind == KindString || r.kind == KindString {
		ls, err := l.AsString()
		if err != nil {
			return Value{}, err
		}
		rs, err := r.AsString()
		if err != nil {
			return Value{}, err
		}
		switch op {
		case "+":
			return Str(ls + rs), nil
		case "<":
			return Bool(ls < rs), nil
		case "<=":
			return Bool(ls <= rs), nil
		case ">":
			return Bool(ls > rs), nil
		case ">=":
			return Bool(ls >= rs), nil
		default:
			return Value{}, fmt.Errorf("operator %q not supported on strings", op)
		}
	}
	li, err := l.AsInt()
	if err != nil {
		return Value{}, err
	}
	ri, err := r.AsInt()
	if err != nil {
		return Value{}, err
	}
	switch op {
	case "+":
		return Int(li + ri), nil
	case "-":
		return Int(li - ri), nil
	case "*":
		return Int(li * ri), nil
	case "/":
		if ri == 0 {
			return Value{}, fmt.Errorf("division by zero")
		}
		return Int(li / ri), nil
	case "<":
		return Bool(li < ri), nil
	case "<=":
		return Bool(li <= ri), nil
	case ">":
		return Bool(li > ri), nil
	case ">=":
		return Bool(li >= ri), nil
	default:
		return Value{}, fmt.Errorf("unknown operator %q", op)
	}
}

func valuesEqual(l, r Value) bool {
	if l.kind == KindString || r.kind == KindString {
		ls, lerr := l.AsString()
		rs, rerr := r.AsString()
		return lerr == nil && rerr == nil && ls == rs
	}
	if l.kind == KindBool || r.kind == KindBool {
		lb, lerr := l.AsBool()
		rb, rerr := r.AsBool()
		return lerr == nil && rerr == nil && lb == rb
	}
	li, lerr := l.AsInt()
	ri, rerr := r.AsInt()
	if lerr == nil && rerr == nil {
		return li == ri
	}
	return reflect.DeepEqual(l.Raw(), r.Raw())
}

func (n *unaryNode) eval(ctx Context) (Value, error) {
	v, err := n.x.eval(ctx)
	if err != nil {
		return Value{}, err
	}
	switch n.op {
	case "!":
		b, err := v.AsBool()
		if err != nil {
			return Value{}, err
		}
		return Bool(!b), nil
	case "-":
		i, err := v.AsInt()
		if err != nil {
			return Value{}, err
		}
		return Int(-i), nil
	default:
		return Value{}, fmt.Errorf("unknown unary operator %q", n.op)
	}
}

// fieldByReflection resolves a struct field or map key by name, used when
// the Context does not recognize owner as one of its own tracked objects
// (e.g. a nested value returned from an earlier member access).
func fieldByReflection(owner any, name string) (any, error) {
	if owner == nil {
		return nil, fmt.Errorf("cannot access field %q of nil", name)
	}
	rv := reflect.ValueOf(owner)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("cannot access field %q of nil pointer", name)
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
		fv := rv.FieldByName(name)
		if !fv.IsValid() {
			return nil, fmt.Errorf("no such field")
		}
		return fv.Interface(), nil
	case reflect.Map:
		mv := rv.MapIndex(reflect.ValueOf(name))
		if !mv.IsValid() {
			return nil, fmt.Errorf("no such key")
		}
		return mv.Interface(), nil
	default:
		return nil, fmt.Errorf("value of kind %v has no fields", rv.Kind())
	}
}

// callMethod invokes a no-side-effect method by name via reflection,
// per spec.md §4.B's "Method call with no side effects: a.f(args…)".
func callMethod(owner any, name string, args []Value) (Value, error) {
	if owner == nil {
		return Value{}, fmt.Errorf("cannot call method %q on nil", name)
	}
	rv := reflect.ValueOf(owner)
	m := rv.MethodByName(name)
	if !m.IsValid() && rv.Kind() != reflect.Pointer {
		pv := reflect.New(rv.Type())
		pv.Elem().Set(rv)
		m = pv.MethodByName(name)
	}
	if !m.IsValid() {
		return Value{}, fmt.Errorf("no method %q on %T", name, owner)
	}
	in := make([]reflect.Value, len(args))
	mt := m.Type()
	for i, a := range args {
		want := mt.In(i)
		in[i] = reflect.ValueOf(a.Raw()).Convert(want)
	}
	out := m.Call(in)
	if len(out) == 0 {
		return Value{}, nil
	}
	return Of(out[0].Interface()), nil
}

var builtins = map[string]func(args []Value) (Value, error){
	"len": func(args []Value) (Value, error) {
		if len(args) != 1 {
			return Value{}, fmt.Errorf("len() takes exactly one argument")
		}
		rv := reflect.ValueOf(args[0].Raw())
		switch rv.Kind() {
		case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
			return Int(int64(rv.Len())), nil
		default:
			return Value{}, fmt.Errorf("len() unsupported for kind %v", rv.Kind())
		}
	},
}

// StaticMethod is a function bound to T(qualifiedName).method(args…).
type StaticMethod func(args []Value) (Value, error)

var staticMethods = map[string]StaticMethod{}

// RegisterStaticMethod binds a callable to a qualified type name and method,
// resolved when an expression uses T(qualifiedName).method(...). Needed
// because boxwire has no classpath to scan (spec.md §1's non-goals); callers
// that use T(...) expressions must register the methods they reference.
func RegisterStaticMethod(qualifiedName, method string, fn StaticMethod) {
	staticMethods[qualifiedName+"#"+method] = fn
}

// LookupStaticMethod resolves a previously registered static method.
func LookupStaticMethod(qualifiedName, method string) (StaticMethod, bool) {
	fn, ok := staticMethods[qualifiedName+"#"+method]
	return fn, ok
}
