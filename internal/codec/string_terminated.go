package codec

import (
	"fmt"

	"github.com/boxwire/boxwire/internal/bitio"
	"github.com/boxwire/boxwire/internal/charset"
)

// stringTerminatedCodec implements spec.md §4.D.5. On encode with
// Consume == false, the terminator byte is never appended — the resolution
// of spec.md §9's open question 1, tested by scenario S5.
type stringTerminatedCodec struct{}

func (stringTerminatedCodec) Decode(r *bitio.Reader, desc Descriptor, root, self any) (any, error) {
	d := desc.(StringTerminatedDescriptor)
	cs, err := charset.Lookup(d.Charset)
	if err != nil {
		return nil, err
	}
	return r.ReadTextUntil(d.Terminator, d.Consume, cs)
}

func (stringTerminatedCodec) Encode(w *bitio.Writer, desc Descriptor, root, self any, v any) error {
	d := desc.(StringTerminatedDescriptor)
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("terminated-string codec: value %T is not a string", v)
	}
	cs, err := charset.Lookup(d.Charset)
	if err != nil {
		return err
	}
	return w.WriteTextUntil(s, d.Terminator, d.Consume, cs)
}
