package boxwire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boxwire/boxwire/internal/bitio"
)

func tplWithMarker(marker string) *Template {
	return &Template{Header: Header{StartMarker: []byte(marker)}}
}

func TestTemplateRegistryPrefersLongestMarker(t *testing.T) {
	tr := newTemplateRegistry()
	short := tplWithMarker("AB")
	long := tplWithMarker("ABCD")
	require.NoError(t, tr.register(short))
	require.NoError(t, tr.register(long))

	r := bitio.NewReader([]byte("ABCDxyz"))
	got, err := tr.selectTemplate(r)
	require.NoError(t, err)
	require.Same(t, long, got)
	require.Equal(t, 0, r.Position(), "selectTemplate must not consume bytes")
}

func TestTemplateRegistryNoMatch(t *testing.T) {
	tr := newTemplateRegistry()
	require.NoError(t, tr.register(tplWithMarker("ZZ")))

	r := bitio.NewReader([]byte("ABCD"))
	_, err := tr.selectTemplate(r)
	require.ErrorAs(t, err, &ErrNoTemplate{})
}

func TestTemplateRegistryFindNextSkipsBytes(t *testing.T) {
	tr := newTemplateRegistry()
	tpl := tplWithMarker("GO")
	require.NoError(t, tr.register(tpl))

	r := bitio.NewReader([]byte("xxGOyy"))
	pos, got, err := tr.findNext(r)
	require.NoError(t, err)
	require.Equal(t, 2, pos)
	require.Same(t, tpl, got)
}

func TestTemplateRegistryFindNextExhaustsBuffer(t *testing.T) {
	tr := newTemplateRegistry()
	require.NoError(t, tr.register(tplWithMarker("GO")))

	r := bitio.NewReader([]byte("xxxx"))
	pos, _, err := tr.findNext(r)
	require.Equal(t, -1, pos)
	require.Error(t, err)
}

func TestMatchMarkerEmptyAlwaysMatches(t *testing.T) {
	r := bitio.NewReader([]byte("anything"))
	require.True(t, matchMarker(r, nil))
}
