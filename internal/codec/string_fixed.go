package codec

import (
	"fmt"

	"github.com/boxwire/boxwire/internal/bitio"
	"github.com/boxwire/boxwire/internal/charset"
	"github.com/boxwire/boxwire/internal/expr"
)

// stringFixedCodec implements spec.md §4.D.4: exactly SizeExpr bytes,
// decoded with the named charset.
type stringFixedCodec struct{ eval *expr.Evaluator }

func (c stringFixedCodec) Decode(r *bitio.Reader, desc Descriptor, root, self any) (any, error) {
	d := desc.(StringFixedDescriptor)
	n, err := evalSize(c.eval, d.SizeExpr, root, self)
	if err != nil {
		return nil, fmt.Errorf("fixed-string codec: size expression %q: %w", d.SizeExpr, err)
	}
	cs, err := charset.Lookup(d.Charset)
	if err != nil {
		return nil, err
	}
	return r.ReadText(n, cs)
}

func (c stringFixedCodec) Encode(w *bitio.Writer, desc Descriptor, root, self any, v any) error {
	d := desc.(StringFixedDescriptor)
	n, err := evalSize(c.eval, d.SizeExpr, root, self)
	if err != nil {
		return fmt.Errorf("fixed-string codec: size expression %q: %w", d.SizeExpr, err)
	}
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("fixed-string codec: value %T is not a string", v)
	}
	cs, err := charset.Lookup(d.Charset)
	if err != nil {
		return err
	}
	encoded, err := cs.Encode(s)
	if err != nil {
		return err
	}
	if len(encoded) != n {
		return fmt.Errorf("fixed-string codec: encoded length %d does not match declared size %d", len(encoded), n)
	}
	return w.WriteText(s, cs)
}
