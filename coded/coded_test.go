package coded_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/protoruntime/protoruntime/coded"
	"github.com/protoruntime/protoruntime/protoconfig"
	"github.com/protoruntime/protoruntime/wire"
)

// repeated packed int32 field 4 = [1,2,3] encodes as 22 03 01 02 03.
func TestS3PackedRepeated(t *testing.T) {
	w := coded.NewWriter()
	require.NoError(t, w.WriteTag(4, wire.BytesType))
	require.NoError(t, w.WriteBytes([]byte{1, 2, 3}))
	require.Equal(t, []byte{0x22, 0x03, 0x01, 0x02, 0x03}, w.Bytes())
}

// string field 2 = "testing" encodes with its UTF-8 bytes.
func TestS4String(t *testing.T) {
	w := coded.NewWriter()
	require.NoError(t, w.WriteTag(2, wire.BytesType))
	require.NoError(t, w.WriteBytes([]byte("testing")))
	require.Equal(t, []byte{0x12, 0x07, 0x74, 0x65, 0x73, 0x74, 0x69, 0x6E, 0x67}, w.Bytes())
}

func TestReaderRoundTripsTagsAndValues(t *testing.T) {
	w := coded.NewWriter()
	require.NoError(t, w.WriteTag(1, wire.VarintType))
	require.NoError(t, w.WriteVarint(150))
	require.NoError(t, w.WriteTag(2, wire.BytesType))
	require.NoError(t, w.WriteBytes([]byte("hi")))

	r := coded.NewReader(w.Bytes())
	num, wt, err := r.ReadTag()
	require.NoError(t, err)
	require.Equal(t, int32(1), num)
	require.Equal(t, wire.VarintType, wt)
	v, err := r.ReadVarint()
	require.NoError(t, err)
	require.Equal(t, uint64(150), v)

	num, wt, err = r.ReadTag()
	require.NoError(t, err)
	require.Equal(t, int32(2), num)
	require.Equal(t, wire.BytesType, wt)
	b, err := r.ReadBytes(false)
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), b)

	num, _, err = r.ReadTag()
	require.NoError(t, err)
	require.Equal(t, int32(0), num)
}

func TestPushPopLimitFramesSubmessage(t *testing.T) {
	inner := coded.NewWriter()
	require.NoError(t, inner.WriteTag(1, wire.VarintType))
	require.NoError(t, inner.WriteVarint(42))

	outer := coded.NewWriter()
	require.NoError(t, outer.WriteTag(3, wire.BytesType))
	require.NoError(t, outer.WriteBytes(inner.Bytes()))
	// trailing sibling field after the submessage
	require.NoError(t, outer.WriteTag(4, wire.VarintType))
	require.NoError(t, outer.WriteVarint(7))

	r := coded.NewReader(outer.Bytes())
	num, wt, err := r.ReadTag()
	require.NoError(t, err)
	require.Equal(t, int32(3), num)
	require.Equal(t, wire.BytesType, wt)

	raw, err := r.ReadBytes(false)
	require.NoError(t, err)

	sub := coded.NewReader(raw)
	token, err := sub.PushLimit(int64(len(raw)))
	require.NoError(t, err)
	innerNum, innerWT, err := sub.ReadTag()
	require.NoError(t, err)
	require.Equal(t, int32(1), innerNum)
	require.Equal(t, wire.VarintType, innerWT)
	innerVal, err := sub.ReadVarint()
	require.NoError(t, err)
	require.Equal(t, uint64(42), innerVal)
	require.True(t, sub.IsAtEnd())
	sub.PopLimit(token)

	num, _, err = r.ReadTag()
	require.NoError(t, err)
	require.Equal(t, int32(4), num)
	v, err := r.ReadVarint()
	require.NoError(t, err)
	require.Equal(t, uint64(7), v)
}

// parsing beyond the recursion limit fails cleanly,
// without exhausting the host stack.
func TestRecursionLimitExceeded(t *testing.T) {
	// Build a chain of nested length-delimited "submessages" one byte deeper
	// than the configured limit.
	const limit = 5
	payload := []byte{}
	for i := 0; i < limit+1; i++ {
		var buf bytes.Buffer
		buf.WriteByte(byte(len(payload)))
		buf.Write(payload)
		payload = buf.Bytes()
	}

	r := coded.NewReader(payload, protoconfig.WithRecursionLimit(limit))
	var descend func(remaining []byte) error
	descend = func(remaining []byte) error {
		if err := r.EnterMessage(); err != nil {
			return err
		}
		defer r.ExitMessage()
		if len(remaining) == 0 {
			return nil
		}
		n := int(remaining[0])
		return descend(remaining[1 : 1+n])
	}
	err := descend(payload)
	require.Error(t, err)
	type recursionErr interface{ IsRecursionLimitExceeded() bool }
	_, ok := err.(recursionErr)
	require.True(t, ok)
}

func TestStreamReaderSizeLimit(t *testing.T) {
	data := bytes.Repeat([]byte{0x01}, 100)
	r := coded.NewStreamReader(bytes.NewReader(data), protoconfig.WithSizeLimit(10))
	var err error
	for i := 0; i < 100 && err == nil; i++ {
		_, err = r.ReadVarint()
	}
	require.Error(t, err)
}

func TestBoundedWriterOutOfSpace(t *testing.T) {
	w := coded.NewBoundedWriter(make([]byte, 0, 1))
	err := w.WriteFixed32(1)
	require.Error(t, err)

	w2 := coded.NewBoundedWriter(make([]byte, 0, 4))
	require.NoError(t, w2.WriteFixed32(1))
	require.True(t, w2.CheckNoSpaceLeft())
}
