package boxwire_test

import (
	"encoding/binary"
	"encoding/hex"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boxwire/boxwire"
)

// TestType1/TestType2 are the two alternatives of spec.md §8 scenario S2:
// an 8-bit prefix selects a 16-bit or 32-bit value field.
type TestType1 struct {
	Value uint16
}

// Header's StartMarker is never consumed for a nested Object sub-template
// (only the registered top-level Template's framing is matched against the
// wire), but the compiler requires every compiled type to declare one.
func (*TestType1) Header() boxwire.Header { return boxwire.Header{StartMarker: []byte{0x01}} }
func (*TestType1) Describe() []boxwire.FieldSpec {
	return []boxwire.FieldSpec{
		{Name: "Value", Binding: boxwire.Int(16, binary.BigEndian, false)},
	}
}

type TestType2 struct {
	Value uint32
}

func (*TestType2) Header() boxwire.Header { return boxwire.Header{StartMarker: []byte{0x02}} }
func (*TestType2) Describe() []boxwire.FieldSpec {
	return []boxwire.FieldSpec{
		{Name: "Value", Binding: boxwire.Int(32, binary.BigEndian, false)},
	}
}

// Envelope wraps a Choice-selected payload behind a 3-byte "tc1"/"tc2"
// marker and an 8-bit prefix, reproducing S2's wire shape.
type Envelope struct {
	Payload any
}

func (*Envelope) Header() boxwire.Header {
	return boxwire.Header{StartMarker: []byte("tc1")}
}

func (*Envelope) Describe() []boxwire.FieldSpec {
	// peek=false: the 8-bit discriminator is consumed by Choice resolution
	// itself, so TestType1/TestType2's own fields start right after it.
	choice := boxwire.NewChoice(8, false, nil,
		boxwire.AltPrefix(1, reflect.TypeOf(TestType1{})),
		boxwire.AltPrefix(2, reflect.TypeOf(TestType2{})),
	)
	return []boxwire.FieldSpec{
		{Name: "Payload", Binding: boxwire.Object(reflect.TypeOf(TestType1{}), choice)},
	}
}

func decodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	require.NoError(t, err)
	return b
}

func TestChoiceByPeekedPrefixAlternative1(t *testing.T) {
	eng, err := boxwire.New()
	require.NoError(t, err)
	_, err = eng.Register(&Envelope{})
	require.NoError(t, err)

	data := decodeHex(t, "746331 01 1234")
	v, n, err := eng.Decode(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)

	env, ok := v.(*Envelope)
	require.True(t, ok)
	tt1, ok := env.Payload.(*TestType1)
	require.True(t, ok)
	require.Equal(t, uint16(0x1234), tt1.Value)
}

func TestChoiceByPeekedPrefixAlternative2(t *testing.T) {
	eng, err := boxwire.New()
	require.NoError(t, err)
	_, err = eng.Register(&Envelope{})
	require.NoError(t, err)

	data := decodeHex(t, "746331 02 11223344")
	v, _, err := eng.Decode(data)
	require.NoError(t, err)

	env := v.(*Envelope)
	tt2, ok := env.Payload.(*TestType2)
	require.True(t, ok)
	require.Equal(t, uint32(0x11223344), tt2.Value)
}

func TestEngineRejectsNonMessageEncode(t *testing.T) {
	eng, err := boxwire.New()
	require.NoError(t, err)
	_, err = eng.Encode(42)
	require.Error(t, err)
}

func TestFindNextSkipsGarbage(t *testing.T) {
	eng, err := boxwire.New()
	require.NoError(t, err)
	_, err = eng.Register(&Envelope{})
	require.NoError(t, err)

	data := append([]byte{0xFF, 0xFF}, decodeHex(t, "746331 01 1234")...)
	off, err := eng.FindNext(data)
	require.NoError(t, err)
	require.Equal(t, 2, off)
}
