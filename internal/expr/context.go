package expr

// Context supplies the values an expression may reference: the message
// under construction (root), the nested object currently being decoded
// (self), a named-variable bag (e.g. "#deviceTypes"), and already-decoded
// sibling field values of self/root accessed by bare field name (spec.md
// §4.B).
type Context interface {
	// Root returns the outermost object under construction.
	Root() any
	// Self returns the current nested object, or nil at the root.
	Self() any
	// Var resolves a "#name" variable against the context's named-variable
	// bag. "#self" is handled by the evaluator itself and never reaches Var;
	// every other name, including "prefix", is resolved here.
	Var(name string) (any, bool)
	// Field looks up an already-decoded field by name on owner (typically
	// Root() or Self()). ok is false if the field does not exist or has not
	// been decoded yet.
	Field(owner any, name string) (any, bool)
}

// MapContext is a minimal Context backed by plain Go values, handy for
// tests and for evaluating expressions outside of a live decode/encode
// (e.g. validating a default value at compile time).
type MapContext struct {
	RootValue any
	SelfValue any
	Vars      map[string]any
	Fields    func(owner any, name string) (any, bool)
}

func (c MapContext) Root() any { return c.RootValue }
func (c MapContext) Self() any { return c.SelfValue }

func (c MapContext) Var(name string) (any, bool) {
	v, ok := c.Vars[name]
	return v, ok
}

func (c MapContext) Field(owner any, name string) (any, bool) {
	if c.Fields == nil {
		return nil, false
	}
	return c.Fields(owner, name)
}
