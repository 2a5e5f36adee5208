package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/boxwire/boxwire/internal/bitio"
	"github.com/boxwire/boxwire/internal/checksum"
)

// checksumCodec implements spec.md §4.D.8's deferred two-pass checksum
// field: Decode only reads the raw on-wire value (the algorithm whose name
// it carries covers the enclosing template's body span, which is not closed
// until every field of that template is in hand); Encode only reserves
// placeholder bytes. internal/compiler's decodeTemplate/encodeTemplate call
// VerifyChecksum/PatchChecksum once the template's own fields are done.
type checksumCodec struct {
	checksums *checksum.Registry
}

func (checksumCodec) Decode(r *bitio.Reader, desc Descriptor, root, self any) (any, error) {
	d := desc.(ChecksumDescriptor)
	return r.ReadUint(d.BitWidth, d.ByteOrder)
}

// Encode reserves BitWidth/8 placeholder bytes; the value to encode is
// ignored because the real checksum is not known until Patch runs against
// the fully encoded message.
func (checksumCodec) Encode(w *bitio.Writer, desc Descriptor, root, self any, v any) error {
	d := desc.(ChecksumDescriptor)
	w.Reserve(d.BitWidth / 8)
	return nil
}

// Verify recomputes the named algorithm over data[d.SkipStart:len(data)-d.SkipEnd]
// and compares it against raw, the value Decode read off the wire.
func (c checksumCodec) Verify(d ChecksumDescriptor, data []byte, raw uint64) error {
	algo, err := c.checksums.Lookup(d.Algorithm)
	if err != nil {
		return err
	}
	end := len(data) - d.SkipEnd
	if d.SkipStart > end {
		return fmt.Errorf("checksum: skip range [%d:%d) invalid for %d-byte message", d.SkipStart, end, len(data))
	}
	got := algo.Compute(data, d.SkipStart, end, d.Start)
	if got != raw {
		return fmt.Errorf("checksum: algorithm %s mismatch: got %#x, want %#x", d.Algorithm, got, raw)
	}
	return nil
}

// VerifyChecksum resolves the Checksum-kind codec registered in reg and
// verifies raw against it, for a caller (internal/compiler) that only has
// access to the registry, not the concrete checksumCodec type.
func VerifyChecksum(reg *Registry, d ChecksumDescriptor, data []byte, raw uint64) error {
	c, err := reg.Lookup(KindChecksum)
	if err != nil {
		return err
	}
	return c.(checksumCodec).Verify(d, data, raw)
}

// PatchChecksum resolves the Checksum-kind codec registered in reg and
// patches the placeholder bytes reserved at offset, mirroring
// VerifyChecksum for the encode direction.
func PatchChecksum(reg *Registry, w *bitio.Writer, d ChecksumDescriptor, data []byte, offset int) error {
	c, err := reg.Lookup(KindChecksum)
	if err != nil {
		return err
	}
	return c.(checksumCodec).Patch(w, d, data, offset)
}

// Patch computes the named algorithm over data[d.SkipStart:len(data)-d.SkipEnd]
// and overwrites the placeholder bytes reserved at offset during Encode.
func (c checksumCodec) Patch(w *bitio.Writer, d ChecksumDescriptor, data []byte, offset int) error {
	algo, err := c.checksums.Lookup(d.Algorithm)
	if err != nil {
		return err
	}
	end := len(data) - d.SkipEnd
	if d.SkipStart > end {
		return fmt.Errorf("checksum: skip range [%d:%d) invalid for %d-byte message", d.SkipStart, end, len(data))
	}
	v := algo.Compute(data, d.SkipStart, end, d.Start)
	size := d.BitWidth / 8
	var b []byte
	if d.ByteOrder == binary.LittleEndian {
		b = checksum.AppendLittleEndian(nil, v, size)
	} else {
		b = checksum.AppendBigEndian(nil, v, size)
	}
	return w.Patch(offset, b)
}
