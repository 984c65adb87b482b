package protoreflect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protoruntime/protoruntime/bytestring"
	"github.com/protoruntime/protoruntime/coded"
	"github.com/protoruntime/protoruntime/protodesc"
	"github.com/protoruntime/protoruntime/protoconfig"
)

func buildSimpleMessage(t *testing.T, syntax protodesc.Syntax) *protodesc.MessageDescriptor {
	t.Helper()
	b := protodesc.NewFileBuilder("simple.proto", "test", syntax)
	m := b.AddMessage("Simple")
	m.AddField("i32", 1, protodesc.Int32, protodesc.LabelOptional)
	m.AddField("si32", 2, protodesc.Sint32, protodesc.LabelOptional)
	m.AddField("rep", 3, protodesc.Int32, protodesc.LabelRepeated).WithPacked(true)
	m.AddField("s", 4, protodesc.String, protodesc.LabelOptional)
	f, err := b.Build()
	require.NoError(t, err)
	return f.FindMessage("test.Simple")
}

// S1: int32 field 1 = 150 encodes as 08 96 01.
func TestSerializeInt32(t *testing.T) {
	md := buildSimpleMessage(t, protodesc.Proto3)
	m := NewMessage(md)
	fd := md.FindFieldByNumber(1)
	require.NoError(t, m.Set(fd, int32(150)))
	data, err := m.Marshal()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x08, 0x96, 0x01}, data)
}

// S2: sint32 field 2 = -1 zigzag-encodes as 10 01.
func TestSerializeSint32ZigZag(t *testing.T) {
	md := buildSimpleMessage(t, protodesc.Proto3)
	m := NewMessage(md)
	fd := md.FindFieldByNumber(2)
	require.NoError(t, m.Set(fd, int32(-1)))
	data, err := m.Marshal()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x10, 0x01}, data)
}

// S3: packed repeated int32 field 3 = [1,2,3] encodes as 1A 03 01 02 03.
func TestSerializePackedRepeated(t *testing.T) {
	md := buildSimpleMessage(t, protodesc.Proto3)
	m := NewMessage(md)
	fd := md.FindFieldByNumber(3)
	require.NoError(t, m.AddRepeated(fd, int32(1)))
	require.NoError(t, m.AddRepeated(fd, int32(2)))
	require.NoError(t, m.AddRepeated(fd, int32(3)))
	data, err := m.Marshal()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1A, 0x03, 0x01, 0x02, 0x03}, data)
}

// S4: string field 4 = "testing" encodes with tag 0x22, length 7, ASCII bytes.
func TestSerializeString(t *testing.T) {
	md := buildSimpleMessage(t, protodesc.Proto3)
	m := NewMessage(md)
	fd := md.FindFieldByNumber(4)
	require.NoError(t, m.Set(fd, "testing"))
	data, err := m.Marshal()
	require.NoError(t, err)
	assert.Equal(t, append([]byte{0x22, 0x07}, "testing"...), data)
}

// S5: an unrecognized field round-trips unchanged through parse/serialize.
func TestUnknownFieldRoundTrip(t *testing.T) {
	md := buildSimpleMessage(t, protodesc.Proto3)
	// Build bytes with field 1 (known) and field 99 (unknown, varint).
	w := coded.NewWriter()
	require.NoError(t, w.WriteTag(1, 0))
	require.NoError(t, w.WriteVarint(150))
	require.NoError(t, w.WriteTag(99, 0))
	require.NoError(t, w.WriteVarint(42))
	data := w.Bytes()

	m, err := Unmarshal(data, md, nil, nil)
	require.NoError(t, err)
	require.Len(t, m.fields.UnknownFields(), 1)
	assert.EqualValues(t, 99, m.fields.UnknownFields()[0].Number)

	out, err := m.Marshal()
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

// Unknown fields encountered out of number order during parse are
// still emitted in ascending number order on serialize.
func TestUnknownFieldsSerializeInAscendingOrder(t *testing.T) {
	md := buildSimpleMessage(t, protodesc.Proto3)
	w := coded.NewWriter()
	require.NoError(t, w.WriteTag(99, 0))
	require.NoError(t, w.WriteVarint(1))
	require.NoError(t, w.WriteTag(5, 0))
	require.NoError(t, w.WriteVarint(2))
	data := w.Bytes()

	m, err := Unmarshal(data, md, nil, nil)
	require.NoError(t, err)
	require.Len(t, m.fields.UnknownFields(), 2)
	// Parse order preserved field 99 before field 5 in the set.
	assert.EqualValues(t, 99, m.fields.UnknownFields()[0].Number)
	assert.EqualValues(t, 5, m.fields.UnknownFields()[1].Number)

	out, err := m.Marshal()
	require.NoError(t, err)

	w5 := coded.NewWriter()
	require.NoError(t, w5.WriteTag(5, 0))
	require.NoError(t, w5.WriteVarint(2))
	w99 := coded.NewWriter()
	require.NoError(t, w99.WriteTag(99, 0))
	require.NoError(t, w99.WriteVarint(1))
	want := append(w5.Bytes(), w99.Bytes()...)
	assert.Equal(t, want, out)
}

func buildClosedEnumMessage(t *testing.T) *protodesc.MessageDescriptor {
	t.Helper()
	b := protodesc.NewFileBuilder("enum.proto", "test", protodesc.Proto2)
	e := b.AddEnum("Color", true)
	e.AddValue("RED", 1)
	e.AddValue("BLUE", 2)
	msg := b.AddMessage("Widget")
	msg.AddField("color", 1, protodesc.Enum, protodesc.LabelOptional).WithTypeName("test.Color")
	f, err := b.Build()
	require.NoError(t, err)
	return f.FindMessage("test.Widget")
}

// An out-of-range value for a closed (proto2) enum field is preserved
// as an unknown field rather than stored as the field's value.
func TestClosedEnumUnknownValueGoesToUnknownFields(t *testing.T) {
	md := buildClosedEnumMessage(t)
	fd := md.FindFieldByNumber(1)

	w := coded.NewWriter()
	require.NoError(t, w.WriteTag(1, 0))
	require.NoError(t, w.WriteVarint(99)) // not a declared Color value
	data := w.Bytes()

	m, err := Unmarshal(data, md, nil, nil)
	require.NoError(t, err)
	assert.False(t, m.fields.Has(fd))
	require.Len(t, m.fields.UnknownFields(), 1)
	assert.EqualValues(t, 1, m.fields.UnknownFields()[0].Number)
	assert.Equal(t, []uint64{99}, m.fields.UnknownFields()[0].Varint)

	out, err := m.Marshal()
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

// A value declared on the enum is stored normally, not diverted to
// unknown fields, even though the enum is closed.
func TestClosedEnumKnownValueStoredNormally(t *testing.T) {
	md := buildClosedEnumMessage(t)
	fd := md.FindFieldByNumber(1)

	w := coded.NewWriter()
	require.NoError(t, w.WriteTag(1, 0))
	require.NoError(t, w.WriteVarint(2)) // BLUE
	data := w.Bytes()

	m, err := Unmarshal(data, md, nil, nil)
	require.NoError(t, err)
	require.True(t, m.fields.Has(fd))
	assert.Equal(t, int32(2), m.fields.Get(fd))
	assert.Empty(t, m.fields.UnknownFields())
}

// S7: ten consecutive 0xFF bytes is a malformed varint (11th continuation byte never arrives).
func TestMalformedVarint(t *testing.T) {
	md := buildSimpleMessage(t, protodesc.Proto3)
	bad := append([]byte{0x08}, []byte{
		0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	}...)
	_, err := Unmarshal(bad, md, nil, nil)
	require.Error(t, err)
}

func buildMessageSetContainer(t *testing.T) *protodesc.MessageDescriptor {
	t.Helper()
	b := protodesc.NewFileBuilder("msgset.proto", "test", protodesc.Proto2)
	container := b.AddMessage("Container")
	container.AddExtensionRange(1, 100)
	container.SetMessageSetWireFormat(true)
	f, err := b.Build()
	require.NoError(t, err)
	return f.FindMessage("test.Container")
}

// S6: a MessageSet item for extension/type-id 4 with a one-byte payload
// 0x42 encodes byte-exact as 0B 10 04 1A 01 42 0C — START_GROUP(1),
// varint field 2 = 4, bytes field 3 of length 1 containing 0x42,
// END_GROUP(1). With no resolver able to recognize type-id 4, the item
// is preserved verbatim as an unknown group and must round-trip
// byte-for-byte.
func TestMessageSetByteExact(t *testing.T) {
	containerMD := buildMessageSetContainer(t)
	want := []byte{0x0B, 0x10, 0x04, 0x1A, 0x01, 0x42, 0x0C}

	m, err := Unmarshal(want, containerMD, nil, nil)
	require.NoError(t, err)
	require.Len(t, m.fields.UnknownFields(), 1)
	require.Len(t, m.fields.UnknownFields()[0].Groups, 1)

	out, err := m.Marshal()
	require.NoError(t, err)
	assert.Equal(t, want, out)
}

func buildMapMessage(t *testing.T) (*protodesc.MessageDescriptor, *protodesc.FieldDescriptor) {
	t.Helper()
	b := protodesc.NewFileBuilder("mapmsg.proto", "test", protodesc.Proto3)
	entry := b.AddMessage("EntryEntry").SetMapEntry(true)
	entry.AddField("key", 1, protodesc.String, protodesc.LabelOptional)
	entry.AddField("value", 2, protodesc.Int32, protodesc.LabelOptional)
	top := b.AddMessage("WithMap")
	top.AddField("entries", 1, protodesc.Message, protodesc.LabelRepeated).WithTypeName("test.EntryEntry")
	f, err := b.Build()
	require.NoError(t, err)
	md := f.FindMessage("test.WithMap")
	return md, md.FindFieldByNumber(1)
}

func TestMapFieldMergeUpsertsByKey(t *testing.T) {
	md, mapFD := buildMapMessage(t)
	entryMD := mapFD.GetMessageType()
	keyFD := entryMD.FindFieldByNumber(1)
	valFD := entryMD.FindFieldByNumber(2)

	mkEntry := func(k string, v int32) *Message {
		e := NewMessage(entryMD)
		require.NoError(t, e.Set(keyFD, k))
		require.NoError(t, e.Set(valFD, v))
		return e
	}

	dst := NewMessage(md)
	require.NoError(t, dst.AddRepeated(mapFD, mkEntry("a", 1)))
	require.NoError(t, dst.AddRepeated(mapFD, mkEntry("b", 2)))

	src := NewMessage(md)
	require.NoError(t, src.AddRepeated(mapFD, mkEntry("b", 20)))
	require.NoError(t, src.AddRepeated(mapFD, mkEntry("c", 3)))

	require.NoError(t, Merge(dst, src))

	entries, _ := dst.fields.Get(mapFD).([]interface{})
	got := map[string]int32{}
	for _, e := range entries {
		em := e.(*Message)
		got[em.fields.Get(keyFD).(string)] = em.fields.Get(valFD).(int32)
	}
	assert.Equal(t, map[string]int32{"a": 1, "b": 20, "c": 3}, got)
}

func TestMapFieldEqualIgnoresOrder(t *testing.T) {
	md, mapFD := buildMapMessage(t)
	entryMD := mapFD.GetMessageType()
	keyFD := entryMD.FindFieldByNumber(1)
	valFD := entryMD.FindFieldByNumber(2)

	mkEntry := func(k string, v int32) *Message {
		e := NewMessage(entryMD)
		require.NoError(t, e.Set(keyFD, k))
		require.NoError(t, e.Set(valFD, v))
		return e
	}

	a := NewMessage(md)
	require.NoError(t, a.AddRepeated(mapFD, mkEntry("x", 1)))
	require.NoError(t, a.AddRepeated(mapFD, mkEntry("y", 2)))

	b := NewMessage(md)
	require.NoError(t, b.AddRepeated(mapFD, mkEntry("y", 2)))
	require.NoError(t, b.AddRepeated(mapFD, mkEntry("x", 1)))

	assert.True(t, Equal(a, b))
}

func buildGroupMessage(t *testing.T) (*protodesc.MessageDescriptor, *protodesc.FieldDescriptor) {
	t.Helper()
	b := protodesc.NewFileBuilder("group.proto", "test", protodesc.Proto2)
	grp := b.AddMessage("GroupType")
	grp.AddField("a", 1, protodesc.Int32, protodesc.LabelOptional)
	top := b.AddMessage("HasGroup")
	top.AddField("g", 2, protodesc.Group, protodesc.LabelOptional).WithTypeName("test.GroupType")
	f, err := b.Build()
	require.NoError(t, err)
	md := f.FindMessage("test.HasGroup")
	return md, md.FindFieldByNumber(2)
}

func TestGroupRoundTrip(t *testing.T) {
	md, groupFD := buildGroupMessage(t)
	grpMD := groupFD.GetMessageType()

	m := NewMessage(md)
	g := NewMessage(grpMD)
	require.NoError(t, g.Set(grpMD.FindFieldByNumber(1), int32(7)))
	require.NoError(t, m.Set(groupFD, g))

	data, err := m.Marshal()
	require.NoError(t, err)

	parsed, err := Unmarshal(data, md, nil, nil)
	require.NoError(t, err)
	assert.True(t, Equal(m, parsed))
}

func TestDeterministicMapOrdering(t *testing.T) {
	md, mapFD := buildMapMessage(t)
	entryMD := mapFD.GetMessageType()
	keyFD := entryMD.FindFieldByNumber(1)
	valFD := entryMD.FindFieldByNumber(2)

	mkEntry := func(k string, v int32) *Message {
		e := NewMessage(entryMD)
		require.NoError(t, e.Set(keyFD, k))
		require.NoError(t, e.Set(valFD, v))
		return e
	}

	m := NewMessage(md)
	require.NoError(t, m.AddRepeated(mapFD, mkEntry("z", 1)))
	require.NoError(t, m.AddRepeated(mapFD, mkEntry("a", 2)))

	w := coded.NewWriter(protoconfig.WithDeterministic(true))
	require.NoError(t, m.Serialize(w))
	data := w.Bytes()

	// "a" sorts before "z"; its entry (shorter/earlier key) must appear
	// first in the deterministic encoding.
	idxA := indexOfByte(data, 'a')
	idxZ := indexOfByte(data, 'z')
	require.True(t, idxA >= 0 && idxZ >= 0)
	assert.Less(t, idxA, idxZ)
}

func indexOfByte(b []byte, c byte) int {
	for i, x := range b {
		if x == c {
			return i
		}
	}
	return -1
}

func TestHashStableAcrossFieldOrder(t *testing.T) {
	md := buildSimpleMessage(t, protodesc.Proto3)
	a := NewMessage(md)
	require.NoError(t, a.Set(md.FindFieldByNumber(4), "hello"))
	require.NoError(t, a.Set(md.FindFieldByNumber(1), int32(5)))

	b := NewMessage(md)
	require.NoError(t, b.Set(md.FindFieldByNumber(1), int32(5)))
	require.NoError(t, b.Set(md.FindFieldByNumber(4), "hello"))

	assert.Equal(t, Hash(a), Hash(b))
	assert.True(t, Equal(a, b))
}

func TestCloneIsIndependent(t *testing.T) {
	md := buildSimpleMessage(t, protodesc.Proto3)
	orig := NewMessage(md)
	require.NoError(t, orig.Set(md.FindFieldByNumber(1), int32(5)))

	clone := Clone(orig)
	require.NoError(t, clone.Set(md.FindFieldByNumber(1), int32(9)))

	assert.EqualValues(t, 5, orig.fields.Get(md.FindFieldByNumber(1)))
	assert.EqualValues(t, 9, clone.fields.Get(md.FindFieldByNumber(1)))
}

func buildBytesMessage(t *testing.T) *protodesc.MessageDescriptor {
	t.Helper()
	b := protodesc.NewFileBuilder("bytesmsg.proto", "test", protodesc.Proto3)
	m := b.AddMessage("Blob")
	m.AddField("data", 1, protodesc.Bytes, protodesc.LabelOptional)
	f, err := b.Build()
	require.NoError(t, err)
	return f.FindMessage("test.Blob")
}

// Bytes fields compare equal by content regardless of whether the
// value was stored as a plain []byte or a bytestring.ByteString.
func TestBytesFieldEqualAcrossStorageRepresentation(t *testing.T) {
	md := buildBytesMessage(t)
	fd := md.FindFieldByNumber(1)

	a := NewMessage(md)
	require.NoError(t, a.Set(fd, []byte("payload")))

	b := NewMessage(md)
	require.NoError(t, b.Set(fd, bytestring.NewFromString("payload")))

	assert.True(t, Equal(a, b))
	assert.Equal(t, Hash(a), Hash(b))

	dataA, err := a.Marshal()
	require.NoError(t, err)
	dataB, err := b.Marshal()
	require.NoError(t, err)
	assert.Equal(t, dataA, dataB)
}

func TestMarshalByteString(t *testing.T) {
	md := buildSimpleMessage(t, protodesc.Proto3)
	m := NewMessage(md)
	require.NoError(t, m.Set(md.FindFieldByNumber(1), int32(150)))

	bs, err := m.MarshalByteString()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x08, 0x96, 0x01}, bs.Bytes())
}
