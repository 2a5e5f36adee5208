package codec

import (
	"fmt"
	"math/big"

	"github.com/boxwire/boxwire/internal/bitio"
)

// integerCodec implements spec.md §4.D.1: arbitrary-bit-width signed or
// unsigned integers, widened to *big.Int beyond 64 bits.
type integerCodec struct{}

func (integerCodec) Decode(r *bitio.Reader, desc Descriptor, root, self any) (any, error) {
	d := desc.(IntegerDescriptor)
	if d.Bits > 64 {
		return r.ReadBigUint(d.Bits, d.ByteOrder)
	}
	if d.Signed {
		return r.ReadInt(d.Bits, d.ByteOrder)
	}
	return r.ReadUint(d.Bits, d.ByteOrder)
}

func (integerCodec) Encode(w *bitio.Writer, desc Descriptor, root, self any, v any) error {
	d := desc.(IntegerDescriptor)
	if d.Bits > 64 {
		big, ok := toBigInt(v)
		if !ok {
			return fmt.Errorf("integer codec: value %v (%T) is not representable as a big integer", v, v)
		}
		return w.WriteBigUint(big, d.Bits, d.ByteOrder)
	}
	if d.Signed {
		i, ok := toInt64(v)
		if !ok {
			return fmt.Errorf("integer codec: value %v (%T) is not representable as a signed integer", v, v)
		}
		return w.WriteInt(i, d.Bits, d.ByteOrder)
	}
	u, ok := toUint64(v)
	if !ok {
		return fmt.Errorf("integer codec: value %v (%T) is not representable as an unsigned integer", v, v)
	}
	return w.WriteUint(u, d.Bits, d.ByteOrder)
}

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), true
	default:
		return 0, false
	}
}

func toUint64(v any) (uint64, bool) {
	i, ok := toInt64(v)
	return uint64(i), ok
}

func toBigInt(v any) (*big.Int, bool) {
	switch x := v.(type) {
	case *big.Int:
		return x, true
	case big.Int:
		return &x, true
	default:
		if i, ok := toInt64(v); ok {
			return big.NewInt(i), true
		}
		return nil, false
	}
}
