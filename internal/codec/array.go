package codec

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/boxwire/boxwire/internal/bitio"
	"github.com/boxwire/boxwire/internal/expr"
)

// arrayPrimitiveCodec implements spec.md §4.D.6 for scalar element kinds:
// a SizeExpr-counted array whose elements are decoded/encoded through
// whichever Codec the Registry has for the Element descriptor's Kind.
type arrayPrimitiveCodec struct {
	eval     *expr.Evaluator
	registry *Registry
}

func (c arrayPrimitiveCodec) Decode(r *bitio.Reader, desc Descriptor, root, self any) (any, error) {
	d := desc.(ArrayPrimitiveDescriptor)
	n, err := evalSize(c.eval, d.SizeExpr, root, self)
	if err != nil {
		return nil, fmt.Errorf("array codec: size expression %q: %w", d.SizeExpr, err)
	}
	elemCodec, err := c.registry.Lookup(d.Element.Kind())
	if err != nil {
		return nil, err
	}
	out := make([]any, n)
	for i := 0; i < n; i++ {
		v, err := elemCodec.Decode(r, d.Element, root, self)
		if err != nil {
			return nil, fmt.Errorf("array codec: element %d/%d: %w", i, n, err)
		}
		out[i] = v
	}
	return out, nil
}

func (c arrayPrimitiveCodec) Encode(w *bitio.Writer, desc Descriptor, root, self any, v any) error {
	d := desc.(ArrayPrimitiveDescriptor)
	n, err := evalSize(c.eval, d.SizeExpr, root, self)
	if err != nil {
		return fmt.Errorf("array codec: size expression %q: %w", d.SizeExpr, err)
	}
	elems, err := toSlice(v)
	if err != nil {
		return fmt.Errorf("array codec: %w", err)
	}
	if len(elems) != n {
		return fmt.Errorf("array codec: %d elements does not match declared size %d", len(elems), n)
	}
	elemCodec, err := c.registry.Lookup(d.Element.Kind())
	if err != nil {
		return err
	}
	for i, e := range elems {
		if err := elemCodec.Encode(w, d.Element, root, self, e); err != nil {
			return fmt.Errorf("array codec: element %d/%d: %w", i, n, err)
		}
	}
	return nil
}

// arrayObjectCodec implements spec.md §4.D.6/§4.D.7 for an array of
// sub-templates. When SizeExpr is empty the array is length-driven: elements
// are decoded until Choice resolution yields no matching alternative and no
// default (spec.md §9's "nil ends the list" resolution). A non-empty
// SizeExpr always fixes the element count, with or without a Choice; the
// template compiler does not check this combination.
type arrayObjectCodec struct {
	eval     *expr.Evaluator
	compiler ObjectCompiler
}

func (c arrayObjectCodec) elementType(r *bitio.Reader, d ArrayObjectDescriptor, root, self any) (reflect.Type, bool, error) {
	if d.Choice == nil {
		return d.Element, true, nil
	}
	typ, err := resolveChoiceDecode(r, c.eval, d.Choice, root, self)
	if err != nil {
		return nil, false, err
	}
	if typ == nil {
		return nil, false, nil
	}
	return typ, true, nil
}

func (c arrayObjectCodec) Decode(r *bitio.Reader, desc Descriptor, root, self any) (any, error) {
	d := desc.(ArrayObjectDescriptor)
	out := []any{}
	if d.SizeExpr != "" {
		n, err := evalSize(c.eval, d.SizeExpr, root, self)
		if err != nil {
			return nil, fmt.Errorf("object-array codec: size expression %q: %w", d.SizeExpr, err)
		}
		for i := 0; i < n; i++ {
			typ, ok, err := c.elementType(r, d, root, self)
			if err != nil {
				return nil, fmt.Errorf("object-array codec: element %d/%d: %w", i, n, err)
			}
			if !ok {
				return nil, fmt.Errorf("object-array codec: element %d/%d: no alternative matched and no default type set", i, n)
			}
			v, err := c.decodeOne(r, typ, root)
			if err != nil {
				return nil, fmt.Errorf("object-array codec: element %d/%d: %w", i, n, err)
			}
			out = append(out, v)
		}
		return out, nil
	}
	// Length-driven: stop as soon as choice resolution finds no alternative.
	for {
		typ, ok, err := c.elementType(r, d, root, self)
		if err != nil {
			return nil, fmt.Errorf("object-array codec: element %d: %w", len(out), err)
		}
		if !ok {
			break
		}
		v, err := c.decodeOne(r, typ, root)
		if err != nil {
			return nil, fmt.Errorf("object-array codec: element %d: %w", len(out), err)
		}
		out = append(out, v)
	}
	return out, nil
}

func (c arrayObjectCodec) decodeOne(r *bitio.Reader, typ reflect.Type, root any) (any, error) {
	plan, err := c.compiler.PlanFor(reflect.New(typ).Interface())
	if err != nil {
		return nil, err
	}
	return plan.DecodeInto(r, root)
}

func (c arrayObjectCodec) Encode(w *bitio.Writer, desc Descriptor, root, self any, v any) error {
	d := desc.(ArrayObjectDescriptor)
	elems, err := toSlice(v)
	if err != nil {
		return fmt.Errorf("object-array codec: %w", err)
	}
	if d.SizeExpr != "" {
		n, err := evalSize(c.eval, d.SizeExpr, root, self)
		if err != nil {
			return fmt.Errorf("object-array codec: size expression %q: %w", d.SizeExpr, err)
		}
		if len(elems) != n {
			return fmt.Errorf("object-array codec: %d elements does not match declared size %d", len(elems), n)
		}
	}
	for i, e := range elems {
		typ := d.Element
		if d.Choice != nil {
			vt := reflect.TypeOf(e)
			for vt.Kind() == reflect.Pointer {
				vt = vt.Elem()
			}
			alt, ok := findAlternative(d.Choice, vt)
			if !ok {
				return fmt.Errorf("object-array codec: element %d: value of type %s matches no alternative", i, vt)
			}
			if d.Choice.PrefixBits > 0 && alt.PrefixValue != nil {
				if err := w.WriteUint(uint64(*alt.PrefixValue), d.Choice.PrefixBits, binary.BigEndian); err != nil {
					return err
				}
			}
			typ = alt.Type
		}
		plan, err := c.compiler.PlanFor(reflect.New(typ).Interface())
		if err != nil {
			return err
		}
		if err := plan.Encode(w, root, e); err != nil {
			return fmt.Errorf("object-array codec: element %d: %w", i, err)
		}
	}
	return nil
}

// toSlice reflects over v (a []any or any concrete slice type) and returns
// its elements boxed as any, so array codecs work whether the compiler
// handed back a generic []any or a caller-declared []SomeStruct.
func toSlice(v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.([]any); ok {
		return s, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("value %T is not a slice or array", v)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}
