package compiler

import (
	"fmt"
	"reflect"

	"github.com/boxwire/boxwire/internal/bitio"
	"github.com/boxwire/boxwire/internal/codec"
	"github.com/boxwire/boxwire/internal/debug"
	"github.com/boxwire/boxwire/internal/expr"
)

// templatePlan adapts a (*Compiler, *Template) pair to codec.ObjectPlan, so
// the Object/ArrayObject codecs can recurse into a nested Template without
// importing this package (see codec.ObjectCompiler's doc comment).
type templatePlan struct {
	tpl *Template
	c   *Compiler
}

func (p templatePlan) DecodeInto(r *bitio.Reader, root any) (any, error) {
	return p.c.decodeTemplate(p.tpl, r, root)
}

func (p templatePlan) Encode(w *bitio.Writer, root any, v any) error {
	return p.c.encodeTemplate(p.tpl, w, root, v)
}

// Decode runs tpl's field state machine against r and returns a freshly
// allocated *tpl.Type value, for a caller (the root package's message
// parser) that already resolved which Template applies via its own header
// matching, rather than going through PlanFor.
func (c *Compiler) Decode(tpl *Template, r *bitio.Reader) (any, error) {
	return c.decodeTemplate(tpl, r, nil)
}

// Encode runs tpl's field state machine against v and appends the result to
// w, mirroring Decode for the encode direction.
func (c *Compiler) Encode(tpl *Template, w *bitio.Writer, v any) error {
	return c.encodeTemplate(tpl, w, v, v)
}

// decodeTemplate implements the decode half of spec.md §4.E/§4.G's per-field
// state machine: Start -> ConditionEval -> [Skipped|RawRead] -> ConverterApply
// -> ValidatorApply -> Assigned, followed by computed-field evaluation and a
// deferred checksum verification scoped to this Template's own byte span
// (so nested objects each verify their own checksum field independently).
func (c *Compiler) decodeTemplate(tpl *Template, r *bitio.Reader, root any) (any, error) {
	startPos := r.Position()
	instPtr := reflect.New(tpl.Type)
	self := instPtr.Interface()
	if root == nil {
		root = self
	}

	var rawChecksum uint64
	haveChecksum := false

	for i, fp := range tpl.Fields {
		if fp.Condition != nil {
			ok, err := evalCondition(fp.Condition, root, self)
			if err != nil {
				return nil, fmt.Errorf("compiler: %s.%s: condition: %w", tpl.Type.Name(), fp.Name, err)
			}
			if !ok {
				debug.Log(tpl.Type.Name(), fp.Name, r.Position(), "skipped (condition false)")
				continue
			}
		}

		cd, err := c.registry.Lookup(fp.Binding.Kind())
		if err != nil {
			return nil, err
		}
		offset := r.Position()
		raw, err := cd.Decode(r, fp.Binding, root, self)
		if err != nil {
			return nil, fmt.Errorf("compiler: %s.%s: %w", tpl.Type.Name(), fp.Name, err)
		}
		debug.Log(tpl.Type.Name(), fp.Name, offset, "decoded %v", raw)
		if i == tpl.ChecksumIndex {
			if u, ok := raw.(uint64); ok {
				rawChecksum = u
				haveChecksum = true
			}
		}

		val := raw
		if fp.Converter != nil {
			val, err = fp.Converter.FromWire(raw)
			if err != nil {
				return nil, fmt.Errorf("compiler: %s.%s: converter: %w", tpl.Type.Name(), fp.Name, err)
			}
		}
		if fp.Validator != nil {
			if err := fp.Validator.Validate(val); err != nil {
				return nil, fmt.Errorf("compiler: %s.%s: validation: %w", tpl.Type.Name(), fp.Name, err)
			}
		}
		if err := assignField(instPtr, fp.Index, val); err != nil {
			return nil, fmt.Errorf("compiler: %s.%s: %w", tpl.Type.Name(), fp.Name, err)
		}
	}

	for _, cf := range tpl.Computed {
		v, err := cf.Expr.Eval(codec.NewFieldContext(root, self))
		if err != nil {
			return nil, fmt.Errorf("compiler: %s.%s: computed expression: %w", tpl.Type.Name(), cf.Name, err)
		}
		if err := assignField(instPtr, cf.Index, v.Raw()); err != nil {
			return nil, fmt.Errorf("compiler: %s.%s: %w", tpl.Type.Name(), cf.Name, err)
		}
	}

	if haveChecksum {
		desc := tpl.Fields[tpl.ChecksumIndex].Binding.(codec.ChecksumDescriptor)
		span := r.Bytes()[startPos:r.Position()]
		if err := codec.VerifyChecksum(c.registry, desc, span, rawChecksum); err != nil {
			return nil, fmt.Errorf("compiler: %s: %w", tpl.Type.Name(), err)
		}
	}

	return self, nil
}

// encodeTemplate implements the encode mirror of decodeTemplate: field
// value read from self via reflection, ValidatorApply, ConverterApply
// (inverse direction), RawWrite, with the checksum field's placeholder
// reserved during the loop and patched once the loop (and therefore this
// Template's whole byte span) is complete.
func (c *Compiler) encodeTemplate(tpl *Template, w *bitio.Writer, root, self any) error {
	startLen := w.Len()

	var checksumOffset int
	var checksumDesc codec.ChecksumDescriptor
	haveChecksum := false

	for i, fp := range tpl.Fields {
		if fp.Condition != nil {
			ok, err := evalCondition(fp.Condition, root, self)
			if err != nil {
				return fmt.Errorf("compiler: %s.%s: condition: %w", tpl.Type.Name(), fp.Name, err)
			}
			if !ok {
				continue
			}
		}

		val, err := readField(self, fp.Index)
		if err != nil {
			return fmt.Errorf("compiler: %s.%s: %w", tpl.Type.Name(), fp.Name, err)
		}
		if fp.Validator != nil {
			if err := fp.Validator.Validate(val); err != nil {
				return fmt.Errorf("compiler: %s.%s: validation: %w", tpl.Type.Name(), fp.Name, err)
			}
		}
		raw := val
		if fp.Converter != nil {
			raw, err = fp.Converter.ToWire(val)
			if err != nil {
				return fmt.Errorf("compiler: %s.%s: converter: %w", tpl.Type.Name(), fp.Name, err)
			}
		}

		cd, err := c.registry.Lookup(fp.Binding.Kind())
		if err != nil {
			return err
		}
		if i == tpl.ChecksumIndex {
			checksumOffset = w.Len()
			checksumDesc = fp.Binding.(codec.ChecksumDescriptor)
			haveChecksum = true
		}
		if err := cd.Encode(w, fp.Binding, root, self, raw); err != nil {
			return fmt.Errorf("compiler: %s.%s: %w", tpl.Type.Name(), fp.Name, err)
		}
	}

	if haveChecksum {
		data := w.Bytes()[startLen:]
		if err := codec.PatchChecksum(c.registry, w, checksumDesc, data, checksumOffset); err != nil {
			return fmt.Errorf("compiler: %s: %w", tpl.Type.Name(), err)
		}
	}
	return nil
}

// evalCondition evaluates a field's Condition program against root/self and
// coerces the result to a boolean.
func evalCondition(prog *expr.Program, root, self any) (bool, error) {
	v, err := prog.Eval(codec.NewFieldContext(root, self))
	if err != nil {
		return false, err
	}
	return v.AsBool()
}

// readField reads the value at index off self, unwrapping a leading
// pointer the way Go's own method-set promotion does.
func readField(self any, index []int) (any, error) {
	rv := reflect.ValueOf(self)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("nil value")
		}
		rv = rv.Elem()
	}
	return rv.FieldByIndex(index).Interface(), nil
}

// assignField stores v into the field at index on instPtr (a pointer to a
// struct), converting between the codec's raw return shape (numeric types,
// []any for arrays, a pointer for nested objects) and the field's declared
// Go type.
func assignField(instPtr reflect.Value, index []int, v any) error {
	fv := instPtr.Elem().FieldByIndex(index)
	return assignValue(fv, v)
}

func assignValue(fv reflect.Value, v any) error {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(fv.Type()) {
		fv.Set(rv)
		return nil
	}
	if rv.Kind() == reflect.Pointer && rv.Type().Elem().AssignableTo(fv.Type()) {
		fv.Set(rv.Elem())
		return nil
	}
	if fv.Kind() == reflect.Pointer && rv.Type().AssignableTo(fv.Type().Elem()) {
		ptr := reflect.New(fv.Type().Elem())
		ptr.Elem().Set(rv)
		fv.Set(ptr)
		return nil
	}
	if rv.Kind() == reflect.Slice && fv.Kind() == reflect.Slice {
		out := reflect.MakeSlice(fv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if err := assignValue(out.Index(i), rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		fv.Set(out)
		return nil
	}
	if rv.Type().ConvertibleTo(fv.Type()) {
		fv.Set(rv.Convert(fv.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign value of type %s to field of type %s", rv.Type(), fv.Type())
}
