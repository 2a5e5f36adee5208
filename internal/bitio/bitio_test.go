package bitio

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWriteUintRoundTrip(t *testing.T) {
	cases := []struct {
		width int
		order binary.ByteOrder
		value uint64
	}{
		{8, binary.BigEndian, 0xAB},
		{16, binary.BigEndian, 0x1234},
		{16, binary.LittleEndian, 0x1234},
		{32, binary.BigEndian, 0x11223344},
		{64, binary.LittleEndian, 0x0102030405060708},
		{3, binary.BigEndian, 0x5},
		{12, binary.BigEndian, 0xABC},
	}
	for _, c := range cases {
		w := NewWriter()
		require.NoError(t, w.WriteUint(c.value, c.width, c.order))
		buf := w.Flush()

		r := NewReader(buf)
		got, err := r.ReadUint(c.width, c.order)
		require.NoError(t, err)
		require.Equal(t, c.value, got)
	}
}

func TestReadIntSignExtension(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteInt(-5, 8, binary.BigEndian))
	buf := w.Flush()

	r := NewReader(buf)
	got, err := r.ReadInt(8, binary.BigEndian)
	require.NoError(t, err)
	require.Equal(t, int64(-5), got)
}

func TestReadUintShortRead(t *testing.T) {
	r := NewReader([]byte{0x01})
	_, err := r.ReadUint(16, binary.BigEndian)
	require.ErrorIs(t, err, ErrShortRead)
}

func TestWriteUintOverflow(t *testing.T) {
	w := NewWriter()
	err := w.WriteUint(256, 8, binary.BigEndian)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestMarkRestore(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03})
	r.Mark()
	_, err := r.ReadUint(8, binary.BigEndian)
	require.NoError(t, err)
	require.Equal(t, 1, r.Position())
	require.NoError(t, r.Restore())
	require.Equal(t, 0, r.Position())
}

func TestRestoreWithoutMark(t *testing.T) {
	r := NewReader([]byte{0x01})
	require.ErrorIs(t, r.Restore(), ErrNoMark)
}

func TestBitSetRoundTrip(t *testing.T) {
	w := NewWriter()
	bits := NewBitSet(12)
	bits.Set(0, true)
	bits.Set(5, true)
	bits.Set(11, true)
	require.NoError(t, w.WriteBits(bits, 12, LSBFirst))
	buf := w.Flush()

	r := NewReader(buf)
	got, err := r.ReadBits(12, LSBFirst)
	require.NoError(t, err)
	require.Equal(t, []int{0, 5, 11}, got.Indices())
}

func TestReadTextUntilConsumeFalse(t *testing.T) {
	r := NewReader([]byte("123ABC"))
	s, err := r.ReadTextUntil('C', false, asciiStub{})
	require.NoError(t, err)
	require.Equal(t, "123AB", s)
	require.Equal(t, 5, r.Position())
}

func TestReadTextUntilEOF(t *testing.T) {
	r := NewReader([]byte("123ABC"))
	s, err := r.ReadTextUntil('D', false, asciiStub{})
	require.NoError(t, err)
	require.Equal(t, "123ABC", s)
}

func TestFloatRoundTrip(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteFloat32(3.5, binary.BigEndian))
	require.NoError(t, w.WriteFloat64(-2.25, binary.LittleEndian))
	buf := w.Flush()

	r := NewReader(buf)
	f32, err := r.ReadFloat32(binary.BigEndian)
	require.NoError(t, err)
	require.Equal(t, float32(3.5), f32)
	f64, err := r.ReadFloat64(binary.LittleEndian)
	require.NoError(t, err)
	require.Equal(t, -2.25, f64)
}

func TestReserveAndPatch(t *testing.T) {
	w := NewWriter()
	require.NoError(t, w.WriteUint(0xAA, 8, binary.BigEndian))
	off := w.Reserve(2)
	require.NoError(t, w.WriteUint(0xBB, 8, binary.BigEndian))
	require.NoError(t, w.Patch(off, []byte{0x12, 0x34}))

	buf := w.Flush()
	require.Equal(t, []byte{0xAA, 0x12, 0x34, 0xBB}, buf)
}

// asciiStub is a minimal charset.Charset-shaped stub to avoid an import
// cycle with internal/charset in this low-level test.
type asciiStub struct{}

func (asciiStub) Name() string                 { return "stub-ascii" }
func (asciiStub) Decode(b []byte) (string, error) { return string(b), nil }
func (asciiStub) Encode(s string) ([]byte, error) { return []byte(s), nil }
