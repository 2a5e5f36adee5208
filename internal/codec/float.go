package codec

import (
	"fmt"

	"github.com/boxwire/boxwire/internal/bitio"
)

// floatCodec implements spec.md §4.D.2: fixed 32- or 64-bit IEEE-754
// values, a straightforward bit-pattern reinterpretation.
type floatCodec struct{}

func (floatCodec) Decode(r *bitio.Reader, desc Descriptor, root, self any) (any, error) {
	d := desc.(FloatDescriptor)
	switch d.Bits {
	case 32:
		return r.ReadFloat32(d.ByteOrder)
	case 64:
		return r.ReadFloat64(d.ByteOrder)
	default:
		return nil, fmt.Errorf("float codec: unsupported width %d (want 32 or 64)", d.Bits)
	}
}

func (floatCodec) Encode(w *bitio.Writer, desc Descriptor, root, self any, v any) error {
	d := desc.(FloatDescriptor)
	switch d.Bits {
	case 32:
		f, ok := toFloat32(v)
		if !ok {
			return fmt.Errorf("float codec: value %v (%T) is not representable as float32", v, v)
		}
		return w.WriteFloat32(f, d.ByteOrder)
	case 64:
		f, ok := toFloat64(v)
		if !ok {
			return fmt.Errorf("float codec: value %v (%T) is not representable as float64", v, v)
		}
		return w.WriteFloat64(f, d.ByteOrder)
	default:
		return fmt.Errorf("float codec: unsupported width %d (want 32 or 64)", d.Bits)
	}
}

func toFloat32(v any) (float32, bool) {
	switch x := v.(type) {
	case float32:
		return x, true
	case float64:
		return float32(x), true
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}
