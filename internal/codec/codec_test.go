package codec

import (
	"encoding/binary"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boxwire/boxwire/internal/bitio"
	"github.com/boxwire/boxwire/internal/checksum"
	"github.com/boxwire/boxwire/internal/expr"
)

func TestIntegerCodecRoundTrip(t *testing.T) {
	d := IntegerDescriptor{Bits: 16, ByteOrder: binary.BigEndian, Signed: false}
	w := bitio.NewWriter()
	require.NoError(t, integerCodec{}.Encode(w, d, nil, nil, uint64(0x1234)))
	r := bitio.NewReader(w.Flush())
	v, err := integerCodec{}.Decode(r, d, nil, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1234), v)
}

func TestIntegerCodecSignedNegative(t *testing.T) {
	d := IntegerDescriptor{Bits: 8, ByteOrder: binary.BigEndian, Signed: true}
	w := bitio.NewWriter()
	require.NoError(t, integerCodec{}.Encode(w, d, nil, nil, int64(-1)))
	r := bitio.NewReader(w.Flush())
	v, err := integerCodec{}.Decode(r, d, nil, nil)
	require.NoError(t, err)
	require.Equal(t, int64(-1), v)
}

func TestIntegerCodecRejectsUnrepresentable(t *testing.T) {
	d := IntegerDescriptor{Bits: 16, ByteOrder: binary.BigEndian}
	w := bitio.NewWriter()
	err := integerCodec{}.Encode(w, d, nil, nil, "not a number")
	require.Error(t, err)
}

func TestFloatCodecRoundTrip(t *testing.T) {
	d := FloatDescriptor{Bits: 64, ByteOrder: binary.LittleEndian}
	w := bitio.NewWriter()
	require.NoError(t, floatCodec{}.Encode(w, d, nil, nil, 3.25))
	r := bitio.NewReader(w.Flush())
	v, err := floatCodec{}.Decode(r, d, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 3.25, v)
}

func TestFloatCodecUnsupportedWidth(t *testing.T) {
	d := FloatDescriptor{Bits: 16, ByteOrder: binary.BigEndian}
	w := bitio.NewWriter()
	require.Error(t, floatCodec{}.Encode(w, d, nil, nil, 1.0))
}

func TestBitSetCodecRoundTrip(t *testing.T) {
	ev := expr.NewEvaluator()
	c := bitSetCodec{eval: ev}
	d := BitSetDescriptor{SizeExpr: "8", BigEndianBits: false}
	bits := bitio.NewBitSet(8)
	bits.Set(0, true)
	bits.Set(3, true)

	w := bitio.NewWriter()
	require.NoError(t, c.Encode(w, d, nil, nil, bits))
	r := bitio.NewReader(w.Flush())
	got, err := c.Decode(r, d, nil, nil)
	require.NoError(t, err)
	require.Equal(t, []int{0, 3}, got.(bitio.BitSet).Indices())
}

func TestStringFixedCodecRoundTrip(t *testing.T) {
	ev := expr.NewEvaluator()
	c := stringFixedCodec{eval: ev}
	d := StringFixedDescriptor{SizeExpr: "5", Charset: "US-ASCII"}

	w := bitio.NewWriter()
	require.NoError(t, c.Encode(w, d, nil, nil, "HELLO"))
	r := bitio.NewReader(w.Flush())
	got, err := c.Decode(r, d, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "HELLO", got)
}

func TestStringFixedCodecRejectsWrongLength(t *testing.T) {
	ev := expr.NewEvaluator()
	c := stringFixedCodec{eval: ev}
	d := StringFixedDescriptor{SizeExpr: "3", Charset: "US-ASCII"}
	w := bitio.NewWriter()
	require.Error(t, c.Encode(w, d, nil, nil, "TOOLONG"))
}

func TestStringTerminatedCodecConsumeFalse(t *testing.T) {
	c := stringTerminatedCodec{}
	d := StringTerminatedDescriptor{Terminator: 0x00, Consume: false, Charset: "US-ASCII"}

	w := bitio.NewWriter()
	require.NoError(t, c.Encode(w, d, nil, nil, "abc"))
	buf := w.Flush()
	require.Equal(t, []byte("abc"), buf, "Consume == false must never append the terminator byte")
}

func TestStringTerminatedCodecRoundTripWithTerminator(t *testing.T) {
	c := stringTerminatedCodec{}
	d := StringTerminatedDescriptor{Terminator: 0x00, Consume: true, Charset: "US-ASCII"}

	w := bitio.NewWriter()
	require.NoError(t, c.Encode(w, d, nil, nil, "abc"))
	buf := w.Flush()
	require.Equal(t, []byte("abc\x00"), buf)

	r := bitio.NewReader(buf)
	got, err := c.Decode(r, d, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "abc", got)
	require.Equal(t, len(buf), r.Position())
}

func TestArrayPrimitiveCodecRoundTrip(t *testing.T) {
	ev := expr.NewEvaluator()
	reg := NewRegistry(ev, nil)
	require.NoError(t, reg.Register(KindInteger, integerCodec{}))
	c := arrayPrimitiveCodec{eval: ev, registry: reg}

	elem := IntegerDescriptor{Bits: 8, ByteOrder: binary.BigEndian}
	d := ArrayPrimitiveDescriptor{SizeExpr: "3", Element: elem}

	w := bitio.NewWriter()
	require.NoError(t, c.Encode(w, d, nil, nil, []any{uint64(1), uint64(2), uint64(3)}))
	r := bitio.NewReader(w.Flush())
	got, err := c.Decode(r, d, nil, nil)
	require.NoError(t, err)
	require.Equal(t, []any{uint64(1), uint64(2), uint64(3)}, got)
}

func TestArrayPrimitiveCodecRejectsSizeMismatch(t *testing.T) {
	ev := expr.NewEvaluator()
	reg := NewRegistry(ev, nil)
	require.NoError(t, reg.Register(KindInteger, integerCodec{}))
	c := arrayPrimitiveCodec{eval: ev, registry: reg}

	d := ArrayPrimitiveDescriptor{SizeExpr: "2", Element: IntegerDescriptor{Bits: 8, ByteOrder: binary.BigEndian}}
	w := bitio.NewWriter()
	require.Error(t, c.Encode(w, d, nil, nil, []any{uint64(1)}))
}

// stubLeaf is a minimal nested Message type used to exercise the
// Object/ArrayObject codecs' recursion without a full compiler.Compiler.
type stubLeaf struct {
	Value uint8
}

// stubPlan is an ObjectPlan over a single uint8 field, enough to prove the
// Object/ArrayObject codecs delegate correctly.
type stubPlan struct{}

func (stubPlan) DecodeInto(r *bitio.Reader, root any) (any, error) {
	v, err := r.ReadUint(8, binary.BigEndian)
	if err != nil {
		return nil, err
	}
	return &stubLeaf{Value: uint8(v)}, nil
}

func (stubPlan) Encode(w *bitio.Writer, root any, v any) error {
	leaf := v.(*stubLeaf)
	return w.WriteUint(uint64(leaf.Value), 8, binary.BigEndian)
}

type stubCompiler struct{}

func (stubCompiler) PlanFor(typ any) (ObjectPlan, error) { return stubPlan{}, nil }

func TestObjectCodecRoundTripWithoutChoice(t *testing.T) {
	ev := expr.NewEvaluator()
	c := objectCodec{eval: ev, compiler: stubCompiler{}}
	d := ObjectDescriptor{Type: reflect.TypeOf(stubLeaf{})}

	w := bitio.NewWriter()
	require.NoError(t, c.Encode(w, d, nil, nil, &stubLeaf{Value: 7}))
	r := bitio.NewReader(w.Flush())
	got, err := c.Decode(r, d, nil, nil)
	require.NoError(t, err)
	require.Equal(t, &stubLeaf{Value: 7}, got)
}

func TestObjectCodecChoiceByPrefix(t *testing.T) {
	ev := expr.NewEvaluator()
	c := objectCodec{eval: ev, compiler: stubCompiler{}}
	one := int64(1)
	ch := &Choice{
		PrefixBits: 8,
		Alternatives: []Alternative{
			{PrefixValue: &one, Type: reflect.TypeOf(stubLeaf{})},
		},
	}
	d := ObjectDescriptor{Type: reflect.TypeOf(stubLeaf{}), Choice: ch}

	// Prefix byte 0x01 selects stubLeaf, then its own 8-bit Value field.
	r := bitio.NewReader([]byte{0x01, 0x2A})
	got, err := c.Decode(r, d, nil, nil)
	require.NoError(t, err)
	require.Equal(t, &stubLeaf{Value: 0x2A}, got)
}

func TestObjectCodecChoiceNoMatchErrors(t *testing.T) {
	ev := expr.NewEvaluator()
	c := objectCodec{eval: ev, compiler: stubCompiler{}}
	nine := int64(9)
	ch := &Choice{
		PrefixBits: 8,
		Alternatives: []Alternative{
			{PrefixValue: &nine, Type: reflect.TypeOf(stubLeaf{})},
		},
	}
	d := ObjectDescriptor{Type: reflect.TypeOf(stubLeaf{}), Choice: ch}

	r := bitio.NewReader([]byte{0x01, 0x2A})
	_, err := c.Decode(r, d, nil, nil)
	require.Error(t, err, "a non-array Object with no matching alternative and no default is an error")
}

func TestArrayObjectCodecLengthDrivenStopsOnNoMatch(t *testing.T) {
	ev := expr.NewEvaluator()
	c := arrayObjectCodec{eval: ev, compiler: stubCompiler{}}
	one := int64(1)
	ch := &Choice{
		PrefixBits: 8,
		Alternatives: []Alternative{
			{PrefixValue: &one, Type: reflect.TypeOf(stubLeaf{})},
		},
	}
	d := ArrayObjectDescriptor{Element: reflect.TypeOf(stubLeaf{}), Choice: ch}

	// Two elements each consumed (prefix byte 0x01, then a Value byte), then
	// a non-matching 0x02 prefix ends the list.
	r := bitio.NewReader([]byte{0x01, 0xAA, 0x01, 0xBB, 0x02})
	got, err := c.Decode(r, d, nil, nil)
	require.NoError(t, err)
	require.Equal(t, []any{&stubLeaf{Value: 0xAA}, &stubLeaf{Value: 0xBB}}, got)
	// PrefixBits discriminators are consumed (not peeked) by default, so the
	// final non-matching prefix byte is read off the wire even though it
	// never becomes an element.
	require.Equal(t, 5, r.Position())
}

func TestChecksumCodecEncodeReservesThenPatchMatchesVerify(t *testing.T) {
	checksums := checksum.NewRegistry()
	c := checksumCodec{checksums: checksums}
	// The checksum field sits at the end of its own span, so SkipEnd
	// excludes its own two placeholder/patched bytes from the computation
	// on both the Patch (pre-patch, zero-filled) and Verify (post-patch)
	// passes — otherwise the two would cover different bytes and never
	// agree, since the placeholder and the real checksum differ.
	d := ChecksumDescriptor{Algorithm: "CRC16-CCITT", ByteOrder: binary.BigEndian, BitWidth: 16, Start: 0xFFFF, SkipEnd: 2}

	w := bitio.NewWriter()
	require.NoError(t, w.WriteUint(0xAA, 8, binary.BigEndian))
	offset := w.Len()
	require.NoError(t, c.Encode(w, d, nil, nil, nil))

	require.NoError(t, c.Patch(w, d, w.Bytes(), offset))
	buf := w.Flush()

	raw := uint64(buf[offset])<<8 | uint64(buf[offset+1])
	require.NoError(t, c.Verify(d, buf, raw))
}

func TestChecksumCodecVerifyRejectsMismatch(t *testing.T) {
	checksums := checksum.NewRegistry()
	c := checksumCodec{checksums: checksums}
	d := ChecksumDescriptor{Algorithm: "CRC16-CCITT", ByteOrder: binary.BigEndian, BitWidth: 16}

	data := []byte{0x01, 0x02, 0x03, 0x04}
	require.Error(t, c.Verify(d, data, 0xDEAD))
}

func TestChoiceEvaluateNilMeansNoMatch(t *testing.T) {
	ev := expr.NewEvaluator()
	ch := &Choice{Alternatives: []Alternative{
		{Condition: "#prefix == 5", Type: reflect.TypeOf(stubLeaf{})},
	}}
	two := int64(2)
	typ, err := ch.Evaluate(ev, newFieldContext(nil, nil), &two)
	require.NoError(t, err)
	require.Nil(t, typ)
}
