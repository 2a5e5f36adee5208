package boxwire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSkipEndMarkerCheckOption(t *testing.T) {
	var o decodeOptions
	require.False(t, o.skipEndMarker)
	SkipEndMarkerCheck()(&o)
	require.True(t, o.skipEndMarker)
}
