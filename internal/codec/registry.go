package codec

import (
	"fmt"

	"github.com/boxwire/boxwire/internal/bitio"
	"github.com/boxwire/boxwire/internal/checksum"
	"github.com/boxwire/boxwire/internal/expr"
)

// Codec implements decode/encode for one Descriptor Kind (spec.md §4.D).
// root and self are the message under construction and the nested object
// currently being built, respectively (nil self at the root level).
type Codec interface {
	Decode(r *bitio.Reader, d Descriptor, root, self any) (any, error)
	Encode(w *bitio.Writer, d Descriptor, root, self any, v any) error
}

// ObjectCompiler is the narrow slice of the template compiler that the
// Object/ArrayObject codecs need to recurse into a nested type: looking up
// (or lazily compiling) the plan for a Go type so nested decodes don't
// require the codec package to import the compiler package (which itself
// depends on codec — see DESIGN.md for why this interface breaks the
// cycle).
type ObjectCompiler interface {
	// PlanFor returns the compiled plan for typ, compiling it on first use.
	PlanFor(typ any) (ObjectPlan, error)
}

// ObjectPlan is the minimal view of a compiled nested template the Object
// and ArrayObject codecs need: decode/encode a value of the plan's type
// against a reader/writer, given the enclosing root object for expression
// evaluation.
type ObjectPlan interface {
	DecodeInto(r *bitio.Reader, root any) (any, error)
	Encode(w *bitio.Writer, root any, v any) error
}

// Registry maps a Descriptor Kind to its Codec and holds the shared
// evaluator and object compiler; DefaultRegistry constructs the builtin
// codecs with those collaborators before registering them (spec.md §4.C).
type Registry struct {
	eval      *expr.Evaluator
	compiler  ObjectCompiler
	codecs    map[Kind]Codec
}

// NewRegistry constructs an empty Registry with the given collaborators.
func NewRegistry(eval *expr.Evaluator, compiler ObjectCompiler) *Registry {
	return &Registry{eval: eval, compiler: compiler, codecs: make(map[Kind]Codec, 9)}
}

// Register binds kind to c. Registering a second Codec for an already
// registered Kind is a ConfigurationError-class failure (spec.md §4.C:
// "Registration is idempotent; attempting to register two codecs for the
// same descriptor kind fails").
func (r *Registry) Register(kind Kind, c Codec) error {
	if _, exists := r.codecs[kind]; exists {
		return fmt.Errorf("codec: a codec is already registered for kind %s", kind)
	}
	r.codecs[kind] = c
	return nil
}

// Lookup resolves the Codec for kind, or a CodecMissingError-class failure
// if none was registered.
func (r *Registry) Lookup(kind Kind) (Codec, error) {
	c, ok := r.codecs[kind]
	if !ok {
		return nil, fmt.Errorf("codec: no codec registered for kind %s", kind)
	}
	return c, nil
}

// Evaluator returns the shared expression evaluator every codec was wired
// with at construction.
func (r *Registry) Evaluator() *expr.Evaluator { return r.eval }

// Compiler returns the shared object compiler every codec was wired with
// at construction.
func (r *Registry) Compiler() ObjectCompiler { return r.compiler }

// DefaultRegistry returns a Registry with all nine builtin codecs
// registered, one per Kind (spec.md §4.D.1–§4.D.8).
func DefaultRegistry(eval *expr.Evaluator, compiler ObjectCompiler, checksums *checksum.Registry) (*Registry, error) {
	r := NewRegistry(eval, compiler)
	reg := []struct {
		kind  Kind
		codec Codec
	}{
		{KindInteger, integerCodec{}},
		{KindFloat, floatCodec{}},
		{KindBitSet, bitSetCodec{eval: eval}},
		{KindStringFixed, stringFixedCodec{eval: eval}},
		{KindStringTerminated, stringTerminatedCodec{}},
		{KindArrayPrimitive, arrayPrimitiveCodec{eval: eval, registry: r}},
		{KindArrayObject, arrayObjectCodec{eval: eval, compiler: compiler}},
		{KindObject, objectCodec{eval: eval, compiler: compiler}},
		{KindChecksum, checksumCodec{checksums: checksums}},
	}
	for _, e := range reg {
		if err := r.Register(e.kind, e.codec); err != nil {
			return nil, err
		}
	}
	return r, nil
}
