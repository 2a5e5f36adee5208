package boxwire

import (
	"encoding/binary"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boxwire/boxwire/internal/codec"
)

type builderLeaf struct{ X uint8 }

func TestBuilderDescriptorKinds(t *testing.T) {
	require.Equal(t, codec.KindInteger, Int(8, binary.BigEndian, false).Kind())
	require.Equal(t, codec.KindFloat, Float32(binary.BigEndian).Kind())
	require.Equal(t, codec.KindFloat, Float64(binary.BigEndian).Kind())
	require.Equal(t, codec.KindBitSet, Bits("8", true).Kind())
	require.Equal(t, codec.KindStringFixed, FixedString("4", "US-ASCII").Kind())
	require.Equal(t, codec.KindStringTerminated, TerminatedString(0x00, true, "US-ASCII").Kind())
	require.Equal(t, codec.KindArrayPrimitive, Array("4", Int(8, binary.BigEndian, false)).Kind())
	require.Equal(t, codec.KindObject, Object(reflect.TypeOf(builderLeaf{}), nil).Kind())
	require.Equal(t, codec.KindArrayObject, ObjectArray("", reflect.TypeOf(builderLeaf{}), nil).Kind())
	require.Equal(t, codec.KindChecksum, Checksum("CRC16-CCITT", binary.BigEndian, 16, 0, 0, 2).Kind())
}

func TestWhenReturnsConditionAndDescriptorUnchanged(t *testing.T) {
	d := Int(8, binary.BigEndian, false)
	cond, got := When("self.Flag == 1", d)
	require.Equal(t, "self.Flag == 1", cond)
	require.Equal(t, d, got)
}

func TestNewChoiceWiresAllFields(t *testing.T) {
	typ := reflect.TypeOf(builderLeaf{})
	ch := NewChoice(8, true, typ, AltPrefix(1, typ), AltWhen("self.X == 2", typ))
	require.Equal(t, 8, ch.PrefixBits)
	require.True(t, ch.PeekPrefix)
	require.Equal(t, typ, ch.Default)
	require.Len(t, ch.Alternatives, 2)
	require.Equal(t, int64(1), *ch.Alternatives[0].PrefixValue)
	require.Equal(t, "self.X == 2", ch.Alternatives[1].Condition)
}
