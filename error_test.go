package boxwire

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorFormattingVariants(t *testing.T) {
	cause := errors.New("short read")

	full := newError(DecodingError, "Envelope", "Payload", 4, cause)
	require.Equal(t, "boxwire: decoding error in Envelope.Payload at offset 4: short read", full.Error())

	noField := newError(DecodingError, "Envelope", "", 4, cause)
	require.Equal(t, "boxwire: decoding error in Envelope at offset 4: short read", noField.Error())

	noOffset := newError(ConfigurationError, "Envelope", "", -1, cause)
	require.Equal(t, "boxwire: configuration error in Envelope: short read", noOffset.Error())

	bare := newError(CodecMissingError, "", "", -1, cause)
	require.Equal(t, "boxwire: codec missing: short read", bare.Error())
}

func TestErrorUnwrapAndOffset(t *testing.T) {
	cause := errors.New("boom")
	e := newError(VersionError, "T", "F", 7, cause)

	require.True(t, errors.Is(e, cause))
	require.Equal(t, 7, e.Offset())

	var target *Error
	require.True(t, errors.As(fmt.Errorf("wrapped: %w", e), &target))
	require.Equal(t, VersionError, target.Kind)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "configuration error", ConfigurationError.String())
	require.Equal(t, "encoding error", EncodingError.String())
	require.Equal(t, "decoding error", DecodingError.String())
	require.Equal(t, "codec missing", CodecMissingError.String())
	require.Equal(t, "version error", VersionError.String())
}
