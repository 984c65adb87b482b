package wire_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/protoruntime/protoruntime/wire"
)

func TestVarintBijection(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 150, 300, math.MaxUint32, math.MaxInt64, math.MaxUint64}
	for _, x := range values {
		buf := wire.AppendVarint(nil, x)
		got, n, ok := wire.ConsumeVarint(buf)
		require.True(t, ok)
		require.Equal(t, len(buf), n)
		require.Equal(t, x, got)
	}
}

func TestVarintSizeClosedForm(t *testing.T) {
	require.Equal(t, 1, wire.SizeVarint(0))
	require.Equal(t, 2, wire.SizeVarint(150))
	require.Equal(t, 10, wire.SizeVarint(math.MaxUint64))
}

// int32 field 1 = 150 encodes as 08 96 01.
func TestS1Int32Tag(t *testing.T) {
	var buf []byte
	buf = wire.AppendTag(buf, 1, wire.VarintType)
	buf = wire.AppendVarint(buf, 150)
	require.Equal(t, []byte{0x08, 0x96, 0x01}, buf)
}

// sint32 field 1 = -1 encodes as 08 01.
func TestS2SintZigZag(t *testing.T) {
	var buf []byte
	buf = wire.AppendTag(buf, 1, wire.VarintType)
	buf = wire.AppendVarint(buf, wire.EncodeZigZag32(-1))
	require.Equal(t, []byte{0x08, 0x01}, buf)
}

func TestZigZagBijection32(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 2, -2, math.MaxInt32, math.MinInt32} {
		require.Equal(t, v, wire.DecodeZigZag32(wire.EncodeZigZag32(v)))
	}
}

func TestZigZagBijection64(t *testing.T) {
	for _, v := range []int64{0, 1, -1, math.MaxInt64, math.MinInt64} {
		require.Equal(t, v, wire.DecodeZigZag64(wire.EncodeZigZag64(v)))
	}
}

// ten 0xFF bytes is a malformed varint (11th continuation byte needed).
func TestMalformedVarintTenContinuationBytes(t *testing.T) {
	buf := make([]byte, 10)
	for i := range buf {
		buf[i] = 0xFF
	}
	buf = append(buf, 0x01)
	_, _, ok := wire.ConsumeVarint(buf)
	require.False(t, ok)
}

func TestFixed32Roundtrip(t *testing.T) {
	buf := wire.AppendFixed32(nil, 0xdeadbeef)
	v, n, ok := wire.ConsumeFixed32(buf)
	require.True(t, ok)
	require.Equal(t, 4, n)
	require.Equal(t, uint32(0xdeadbeef), v)
}

func TestFixed64Roundtrip(t *testing.T) {
	buf := wire.AppendFixed64(nil, 0xdeadbeefcafebabe)
	v, n, ok := wire.ConsumeFixed64(buf)
	require.True(t, ok)
	require.Equal(t, 8, n)
	require.Equal(t, uint64(0xdeadbeefcafebabe), v)
}

func TestValidUTF8RejectsSurrogatesAndOverlongs(t *testing.T) {
	require.True(t, wire.ValidUTF8([]byte("hello, 世界")))
	require.False(t, wire.ValidUTF8([]byte{0xed, 0xa0, 0x80})) // encoded surrogate
	require.False(t, wire.ValidUTF8([]byte{0xc0, 0x80}))       // over-long NUL
}

func TestIsValidNumberRejectsReservedRange(t *testing.T) {
	require.True(t, wire.IsValidNumber(1))
	require.True(t, wire.IsValidNumber(18999))
	require.False(t, wire.IsValidNumber(19000))
	require.False(t, wire.IsValidNumber(19999))
	require.True(t, wire.IsValidNumber(20000))
	require.False(t, wire.IsValidNumber(0))
}
