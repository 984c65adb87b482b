package dynamicpb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/protoruntime/protoruntime/protodesc"
)

func buildPersonFile(t *testing.T) *protodesc.FileDescriptor {
	t.Helper()
	b := protodesc.NewFileBuilder("person.proto", "test.dynamicpb", protodesc.Proto3)
	m := b.AddMessage("Person")
	m.AddField("name", 1, protodesc.String, protodesc.LabelOptional)
	m.AddField("age", 2, protodesc.Int32, protodesc.LabelOptional)
	f, err := b.Build()
	require.NoError(t, err)
	return f
}

func TestMessageSetGetByNumber(t *testing.T) {
	f := buildPersonFile(t)
	md := f.FindMessage("test.dynamicpb.Person")
	m := NewMessage(md, nil, nil)

	require.NoError(t, m.SetFieldByNumber(1, "ada"))
	require.NoError(t, m.SetFieldByNumber(2, int32(36)))

	require.Equal(t, "ada", m.GetFieldByNumber(1))
	require.Equal(t, int32(36), m.GetFieldByNumber(2))

	require.Error(t, m.SetFieldByNumber(99, "nope"))
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	f := buildPersonFile(t)
	md := f.FindMessage("test.dynamicpb.Person")
	m := NewMessage(md, nil, nil)
	require.NoError(t, m.SetFieldByNumber(1, "grace"))
	require.NoError(t, m.SetFieldByNumber(2, int32(85)))

	data, err := m.Marshal()
	require.NoError(t, err)

	got, err := Unmarshal(data, md, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "grace", got.GetFieldByNumber(1))
	require.Equal(t, int32(85), got.GetFieldByNumber(2))
}

func TestMarshalUnmarshalCompressedRoundTrip(t *testing.T) {
	f := buildPersonFile(t)
	md := f.FindMessage("test.dynamicpb.Person")
	m := NewMessage(md, nil, nil)
	require.NoError(t, m.SetFieldByNumber(1, "margaret"))
	require.NoError(t, m.SetFieldByNumber(2, int32(92)))

	compressed, err := m.MarshalCompressed()
	require.NoError(t, err)

	got, err := UnmarshalCompressed(compressed, md, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "margaret", got.GetFieldByNumber(1))
	require.Equal(t, int32(92), got.GetFieldByNumber(2))
}

func TestMessageFactoryKnownType(t *testing.T) {
	f := buildPersonFile(t)
	md := f.FindMessage("test.dynamicpb.Person")

	var warmedUp bool
	ktr := NewKnownTypeRegistry()
	ktr.Register("test.dynamicpb.Person", func(md *protodesc.MessageDescriptor) *Message {
		warmedUp = true
		m := NewMessage(md, nil, nil)
		require.NoError(t, m.SetFieldByNumber(2, int32(0)))
		return m
	})
	factory := NewMessageFactory(ktr, nil)

	m := factory.NewMessage(md)
	require.True(t, warmedUp)
	require.NotNil(t, m)

	require.NoError(t, factory.WarmUp([]*protodesc.MessageDescriptor{md}))
}

func TestMessageRegistryAnyRoundTrip(t *testing.T) {
	f := buildPersonFile(t)
	md := f.FindMessage("test.dynamicpb.Person")

	reg := NewMessageRegistry("", NewMessageFactory(nil, nil))
	reg.AddFile("", f)

	m := NewMessage(md, nil, nil)
	require.NoError(t, m.SetFieldByNumber(1, "hopper"))

	any, err := reg.MarshalAny(m)
	require.NoError(t, err)
	require.Equal(t, "type.googleapis.com/test.dynamicpb.Person", any.TypeURL)

	got, err := reg.UnmarshalAny(any)
	require.NoError(t, err)
	require.Equal(t, "hopper", got.GetFieldByNumber(1))

	_, err = reg.UnmarshalAny(&Any{TypeURL: "type.googleapis.com/test.dynamicpb.Missing"})
	require.Error(t, err)
}
