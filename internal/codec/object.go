package codec

import (
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/boxwire/boxwire/internal/bitio"
	"github.com/boxwire/boxwire/internal/expr"
)

// objectCodec implements spec.md §4.D.7: recursive decode/encode of a
// nested sub-template, with optional prefix-driven polymorphic choice.
type objectCodec struct {
	eval     *expr.Evaluator
	compiler ObjectCompiler
}

// resolveChoiceDecode reads the discriminator (if any), binds it to
// #prefix, and returns the concrete type selected by the first matching
// Alternative (or Choice.Default, or nil if nothing matched — spec.md §9's
// "nil ends the list" resolution, used by length-driven arrays).
func resolveChoiceDecode(r *bitio.Reader, ev *expr.Evaluator, ch *Choice, root, self any) (reflect.Type, error) {
	var prefix *int64
	if ch.PrefixBits > 0 {
		if ch.PeekPrefix {
			r.Mark()
		}
		u, err := r.ReadUint(ch.PrefixBits, binary.BigEndian)
		if err != nil {
			return nil, fmt.Errorf("choice: reading %d-bit prefix: %w", ch.PrefixBits, err)
		}
		v := int64(u)
		prefix = &v
		if ch.PeekPrefix {
			if err := r.Restore(); err != nil {
				return nil, err
			}
		}
	}
	return ch.Evaluate(ev, newFieldContext(root, self), prefix)
}

func findAlternative(ch *Choice, vt reflect.Type) (Alternative, bool) {
	for _, alt := range ch.Alternatives {
		at := alt.Type
		for at.Kind() == reflect.Pointer {
			at = at.Elem()
		}
		if at == vt {
			return alt, true
		}
	}
	return Alternative{}, false
}

func (c objectCodec) Decode(r *bitio.Reader, desc Descriptor, root, self any) (any, error) {
	d := desc.(ObjectDescriptor)
	typ := d.Type
	if d.Choice != nil {
		t, err := resolveChoiceDecode(r, c.eval, d.Choice, root, self)
		if err != nil {
			return nil, err
		}
		if t == nil {
			return nil, fmt.Errorf("choice: no alternative matched and no default type set")
		}
		typ = t
	}
	plan, err := c.compiler.PlanFor(reflect.New(typ).Interface())
	if err != nil {
		return nil, err
	}
	return plan.DecodeInto(r, root)
}

func (c objectCodec) Encode(w *bitio.Writer, desc Descriptor, root, self any, v any) error {
	d := desc.(ObjectDescriptor)
	typ := d.Type
	if d.Choice != nil {
		vt := reflect.TypeOf(v)
		for vt.Kind() == reflect.Pointer {
			vt = vt.Elem()
		}
		alt, ok := findAlternative(d.Choice, vt)
		if !ok {
			return fmt.Errorf("choice: value of type %s matches no alternative", vt)
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
	return plan.Encode(w, root, v)
}
