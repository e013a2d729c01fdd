package encoding_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dpotapov/htmlrewriter/encoding"
)

func TestLookupUnknownLabel(t *testing.T) {
	_, ok := encoding.Lookup("not-a-real-encoding")
	require.False(t, ok)
}

func TestLookupDefaultsToUTF8(t *testing.T) {
	e, ok := encoding.Lookup("")
	require.True(t, ok)
	require.True(t, e.IsASCIICompatible())
}

func TestUTF8AndWindows1252AreASCIICompatible(t *testing.T) {
	for _, label := range []string{"utf-8", "windows-1252", "iso-8859-1"} {
		e, ok := encoding.Lookup(label)
		require.True(t, ok, label)
		require.True(t, e.IsASCIICompatible(), label)
	}
}

func TestUTF16IsNotASCIICompatible(t *testing.T) {
	e, ok := encoding.Lookup("utf-16")
	require.True(t, ok)
	require.False(t, e.IsASCIICompatible())
}

func TestEncodeStringRoundTrips(t *testing.T) {
	e, ok := encoding.Lookup("windows-1252")
	require.True(t, ok)
	out, err := e.EncodeString("café")
	require.NoError(t, err)
	require.Equal(t, []byte{'c', 'a', 'f', 0xe9}, out)
}
