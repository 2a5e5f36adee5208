package charset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookupDefaultsToASCII(t *testing.T) {
	cs, err := Lookup("")
	require.NoError(t, err)
	require.Equal(t, "US-ASCII", cs.Name())
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("NOT-A-CHARSET")
	require.Error(t, err)
}

func TestASCIIRejectsHighBit(t *testing.T) {
	_, err := ASCII.Decode([]byte{0x80})
	require.Error(t, err)

	_, err = ASCII.Encode("héllo")
	require.Error(t, err)
}

func TestUTF8RoundTrip(t *testing.T) {
	b, err := UTF8.Encode("héllo")
	require.NoError(t, err)
	s, err := UTF8.Decode(b)
	require.NoError(t, err)
	require.Equal(t, "héllo", s)
}

func TestISO88591RoundTrip(t *testing.T) {
	b, err := ISO88591.Encode("café")
	require.NoError(t, err)
	s, err := ISO88591.Decode(b)
	require.NoError(t, err)
	require.Equal(t, "café", s)
}

func TestUTF16RoundTrip(t *testing.T) {
	for _, cs := range []Charset{UTF16LE, UTF16BE} {
		b, err := cs.Encode("hi")
		require.NoError(t, err)
		require.Len(t, b, 4)
		s, err := cs.Decode(b)
		require.NoError(t, err)
		require.Equal(t, "hi", s)
	}
}

func TestUTF16OddLength(t *testing.T) {
	_, err := UTF16LE.Decode([]byte{0x01})
	require.Error(t, err)
}

func TestRegisterCustomCharset(t *testing.T) {
	Register("TEST-ECHO", UTF8)
	cs, err := Lookup("TEST-ECHO")
	require.NoError(t, err)
	require.Equal(t, "UTF-8", cs.Name())
}
