package bitio

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/boxwire/boxwire/internal/charset"
)

// Writer accumulates bit-granular values into an expanding byte sink. The
// output cache is filled LSB-first (the first bit written lands in bit 0,
// the same order Reader consumes bits in) and spilled into the sink a full
// byte at a time (spec.md §4.A).
type Writer struct {
	buf   []byte
	cache byte
	n     int // number of valid bits already placed in cache, 0..7
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// WriteBits appends the low n bits of bits (as produced by Reader.ReadBits,
// indices 0..n-1 being the bits in emission order) to the stream. If order
// is MSBFirst, the bit sub-stream is reversed before emission, mirroring
// Reader.ReadBits.
func (w *Writer) WriteBits(bits BitSet, n int, order BitOrder) error {
	if bits.Len() < n {
		return fmt.Errorf("bitio: bit set of length %d too short for %d bits", bits.Len(), n)
	}
	seq := make([]bool, n)
	for i := 0; i < n; i++ {
		seq[i] = bits.Test(i)
	}
	if order == MSBFirst {
		// Reverse within each byte group to match Reader's per-byte
		// reversal semantics.
		for start := 0; start < n; start += 8 {
			end := start + 8
			if end > n {
				end = n
			}
			for i, j := start, end-1; i < j; i, j = i+1, j-1 {
				seq[i], seq[j] = seq[j], seq[i]
			}
		}
	}
	for _, bit := range seq {
		w.putBit(bit)
	}
	return nil
}

func (w *Writer) putBit(bit bool) {
	if bit {
		w.cache |= 1 << uint(w.n)
	}
	w.n++
	if w.n == 8 {
		w.buf = append(w.buf, w.cache)
		w.cache = 0
		w.n = 0
	}
}

// WriteUint writes the low w bits (1..64) of v, mirroring Reader.ReadUint:
// order is applied when width is a multiple of 8; any other width is
// written as width bits LSB-first and order is not applied.
func (w *Writer) WriteUint(v uint64, width int, order binary.ByteOrder) error {
	if width <= 0 || width > 64 {
		return fmt.Errorf("bitio: width %d out of range for WriteUint", width)
	}
	if width < 64 && v>>uint(width) != 0 {
		return fmt.Errorf("bitio: %w: value %d does not fit in %d bits", ErrOverflow, v, width)
	}
	if width%8 == 0 {
		return w.writeAlignedUint(v, width/8, order)
	}
	bits := NewBitSet(width)
	for i := 0; i < width; i++ {
		bits.Set(i, v&(uint64(1)<<uint(i)) != 0)
	}
	return w.WriteBits(bits, width, LSBFirst)
}

func (w *Writer) writeAlignedUint(v uint64, nbytes int, order binary.ByteOrder) error {
	buf := make([]byte, nbytes)
	switch nbytes {
	case 1:
		buf[0] = byte(v)
	case 2:
		order.PutUint16(buf, uint16(v))
	case 4:
		order.PutUint32(buf, uint32(v))
	case 8:
		order.PutUint64(buf, v)
	default:
		if order == binary.BigEndian {
			for i := nbytes - 1; i >= 0; i-- {
				buf[i] = byte(v)
				v >>= 8
			}
		} else {
			for i := 0; i < nbytes; i++ {
				buf[i] = byte(v)
				v >>= 8
			}
		}
	}
	for _, b := range buf {
		w.writeByte(b)
	}
	return nil
}

func (w *Writer) writeByte(b byte) {
	if w.n == 0 {
		w.buf = append(w.buf, b)
		return
	}
	// Cache is non-empty (can only happen mid-bitset write); spill bit by
	// bit to preserve ordering.
	for i := 0; i < 8; i++ {
		w.putBit(b&(1<<uint(i)) != 0)
	}
}

// WriteInt writes the low w bits of the two's-complement representation of v.
func (w *Writer) WriteInt(v int64, width int, order binary.ByteOrder) error {
	if width < 64 {
		lo, hi := -(int64(1) << uint(width-1)), int64(1)<<uint(width-1)-1
		if v < lo || v > hi {
			return fmt.Errorf("bitio: %w: value %d does not fit in %d-bit signed", ErrOverflow, v, width)
		}
	}
	mask := uint64(1)<<uint(width) - 1
	if width == 64 {
		mask = ^uint64(0)
	}
	return w.WriteUint(uint64(v)&mask, width, order)
}

// WriteBigUint writes a w-bit (w > 64) unsigned integer from a *big.Int.
func (w *Writer) WriteBigUint(v *big.Int, width int, order binary.ByteOrder) error {
	if width <= 64 {
		return fmt.Errorf("bitio: width %d should use WriteUint, not WriteBigUint", width)
	}
	if v.Sign() < 0 || v.BitLen() > width {
		return fmt.Errorf("bitio: %w: value does not fit in %d bits", ErrOverflow, width)
	}
	nbytes := (width + 7) / 8
	buf := make([]byte, nbytes)
	v.FillBytes(buf) // big-endian, zero-padded on the left
	if order == binary.LittleEndian {
		for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
			buf[i], buf[j] = buf[j], buf[i]
		}
	}
	for _, b := range buf {
		w.writeByte(b)
	}
	return nil
}

// WriteFloat32 writes a 32-bit IEEE-754 float with the given byte order.
func (w *Writer) WriteFloat32(f float32, order binary.ByteOrder) error {
	return w.writeAlignedUint(uint64(math32bits(f)), 4, order)
}

// WriteFloat64 writes a 64-bit IEEE-754 float with the given byte order.
func (w *Writer) WriteFloat64(f float64, order binary.ByteOrder) error {
	return w.writeAlignedUint(math64bits(f), 8, order)
}

// WriteText encodes s with cs and writes the resulting bytes verbatim.
func (w *Writer) WriteText(s string, cs charset.Charset) error {
	b, err := cs.Encode(s)
	if err != nil {
		return err
	}
	for _, c := range b {
		w.writeByte(c)
	}
	return nil
}

// WriteTextUntil writes s encoded with cs, followed by the terminator byte
// if and only if consume is true. When consume is false, the terminator is
// never appended by this method — the surrounding template, if it wants a
// trailing terminator, must write it itself (spec.md §4.D.5 and §9 open
// question 1; this is the "do not append" resolution).
func (w *Writer) WriteTextUntil(s string, terminator byte, consume bool, cs charset.Charset) error {
	if err := w.WriteText(s, cs); err != nil {
		return err
	}
	if consume {
		w.writeByte(terminator)
	}
	return nil
}

// Reserve appends n zero bytes and returns the offset at which they start,
// for a placeholder a caller will later overwrite with Patch — used by the
// checksum codec's two-pass encode (spec.md §9).
func (w *Writer) Reserve(n int) int {
	off := len(w.buf)
	for i := 0; i < n; i++ {
		w.writeByte(0)
	}
	return off
}

// Patch overwrites len(b) bytes starting at offset with b. offset must
// refer to byte-aligned, already-flushed output (i.e. obtained from
// Reserve, with no partial cache byte pending at the time of the call).
func (w *Writer) Patch(offset int, b []byte) error {
	if offset < 0 || offset+len(b) > len(w.buf) {
		return fmt.Errorf("bitio: patch range [%d:%d) out of bounds for %d-byte buffer", offset, offset+len(b), len(w.buf))
	}
	copy(w.buf[offset:offset+len(b)], b)
	return nil
}

// Flush emits any partial trailing byte (zero-padded in its unfilled high
// bits) and returns the accumulated bytes. The Writer
// remains usable after Flush.
func (w *Writer) Flush() []byte {
	if w.n > 0 {
		w.buf = append(w.buf, w.cache)
		w.cache = 0
		w.n = 0
	}
	return w.buf
}

// Len returns the number of whole bytes written so far, not counting any
// partial byte still held in the cache.
func (w *Writer) Len() int { return len(w.buf) }

// Bytes returns the whole-byte output accumulated so far (excluding any
// partial cache byte), for a caller (the message parser's deferred checksum
// patch pass) that needs to compute a checksum over output that has not
// been Flushed yet.
func (w *Writer) Bytes() []byte { return w.buf }
