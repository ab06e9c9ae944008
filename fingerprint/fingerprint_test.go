package fingerprint

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeVector(t *testing.T) {
	fp := Compute([]byte("abcdefghijklmnopqrstuvwxyz"))
	require.Equal(t, "c3fcd3d76192e4007dfb496cca67e13b", fp.String())
}

func TestComputeDeterministic(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02, 0xff}
	require.Equal(t, Compute(data), Compute(data))
	require.NotEqual(t, Compute(data), Compute(data[:3]))

	// empty input still produces a digest
	require.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", Compute(nil).String())
	require.Equal(t, Compute(nil), Compute([]byte{}))
}

func TestFromBytes(t *testing.T) {
	fp := Compute([]byte("frame"))
	back, err := FromBytes(fp[:])
	require.Nil(t, err)
	require.Equal(t, fp, back)

	_, err = FromBytes(make([]byte, 15))
	require.NotNil(t, err)
	_, err = FromBytes(make([]byte, 17))
	require.NotNil(t, err)
}

func TestParse(t *testing.T) {
	fp, err := Parse("c3fcd3d76192e4007dfb496cca67e13b")
	require.Nil(t, err)
	require.Equal(t, Compute([]byte("abcdefghijklmnopqrstuvwxyz")), fp)

	fp, err = Parse(strings.ToUpper("c3fcd3d76192e4007dfb496cca67e13b"))
	require.Nil(t, err)
	require.Equal(t, "c3fcd3d76192e4007dfb496cca67e13b", fp.String())

	_, err = Parse("zz")
	require.NotNil(t, err)
	_, err = Parse("c3fc")
	require.NotNil(t, err)
}
