package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntRoundTrip(t *testing.T) {
	values := []int64{
		0, 1, -1, 127, -128, 128, -129,
		32767, -32768, 32768, -32769,
		1 << 30, -(1 << 30),
		1<<31 - 1, -(1 << 31), 1 << 31,
		1<<62 - 1, -(1 << 62), math_MinInt64, math_MaxInt64,
	}
	for _, v := range values {
		encoded := EncodeInt(v)
		assert.Contains(t, []int{1, 2, 4, 8}, len(encoded), "value %d", v)
		decoded, err := DecodeInt(encoded)
		require.NoError(t, err)
		assert.Equal(t, v, decoded, "round trip for %d", v)
	}
}

const (
	math_MinInt64 = -1 << 63
	math_MaxInt64 = 1<<63 - 1
)

func TestEncodeIntWidthIsShortest(t *testing.T) {
	assert.Len(t, EncodeInt(0), 1)
	assert.Len(t, EncodeInt(127), 1)
	assert.Len(t, EncodeInt(128), 2)
	assert.Len(t, EncodeInt(32767), 2)
	assert.Len(t, EncodeInt(32768), 4)
	assert.Len(t, EncodeInt(1<<31-1), 4)
	assert.Len(t, EncodeInt(1<<31), 8)
}

func TestDecodeIntInvalidLength(t *testing.T) {
	_, err := DecodeInt([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidLength)
}

func TestBoolRoundTrip(t *testing.T) {
	for _, v := range []bool{true, false} {
		decoded, err := DecodeBool(EncodeBool(v))
		require.NoError(t, err)
		assert.Equal(t, v, decoded)
	}
}

func TestDecodeBoolInvalidValue(t *testing.T) {
	_, err := DecodeBool([]byte{0x02})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestFloatRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 1.5, -1.5, 3.14159} {
		decoded, err := DecodeFloat(EncodeFloat(v))
		require.NoError(t, err)
		assert.InDelta(t, v, decoded, 1e-9)
	}
}

func TestTimeRoundTrip(t *testing.T) {
	sec := int64(1712345678)
	decoded, err := DecodeTime(EncodeTime(sec))
	require.NoError(t, err)
	assert.Equal(t, sec, decoded)
}

func TestOpaqueTextRoundTrip(t *testing.T) {
	raw := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	text := EncodeOpaqueText(raw)
	decoded, err := DecodeOpaqueText(text)
	require.NoError(t, err)
	assert.Equal(t, raw, decoded)
}
