package codec

import (
	"fmt"

	"github.com/boxwire/boxwire/internal/bitio"
	"github.com/boxwire/boxwire/internal/expr"
)

// bitSetCodec implements spec.md §4.D.3: a fixed-size set of bit indices.
type bitSetCodec struct{ eval *expr.Evaluator }

func (c bitSetCodec) Decode(r *bitio.Reader, desc Descriptor, root, self any) (any, error) {
	d := desc.(BitSetDescriptor)
	n, err := evalSize(c.eval, d.SizeExpr, root, self)
	if err != nil {
		return nil, fmt.Errorf("bit-set codec: size expression %q: %w", d.SizeExpr, err)
	}
	order := bitio.LSBFirst
	if d.BigEndianBits {
		order = bitio.MSBFirst
	}
	return r.ReadBits(n, order)
}

func (c bitSetCodec) Encode(w *bitio.Writer, desc Descriptor, root, self any, v any) error {
	d := desc.(BitSetDescriptor)
	n, err := evalSize(c.eval, d.SizeExpr, root, self)
	if err != nil {
		return fmt.Errorf("bit-set codec: size expression %q: %w", d.SizeExpr, err)
	}
	bits, ok := v.(bitio.BitSet)
	if !ok {
		return fmt.Errorf("bit-set codec: value %T is not a bitio.BitSet", v)
	}
	order := bitio.LSBFirst
	if d.BigEndianBits {
		order = bitio.MSBFirst
	}
	return w.WriteBits(bits, n, order)
}
