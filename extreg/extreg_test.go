package extreg_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/protoruntime/protoruntime/extreg"
	"github.com/protoruntime/protoruntime/protodesc"
)

func buildFileWithExtension(t *testing.T, name string, number int32) *protodesc.FileDescriptor {
	t.Helper()
	b := protodesc.NewFileBuilder(name+".proto", "ext", protodesc.Proto2)
	b.AddMessage("Base").AddExtensionRange(100, 200)
	b.AddExtension(name, number, protodesc.Int32, protodesc.LabelOptional, "ext.Base")
	f, err := b.Build()
	require.NoError(t, err)
	return f
}

func TestRegisterAndFind(t *testing.T) {
	f := buildFileWithExtension(t, "foo", 100)
	r := extreg.New()
	require.NoError(t, r.RegisterFile(f))
	fd := r.Find("ext.Base", 100)
	require.NotNil(t, fd)
	require.Equal(t, "ext.foo", fd.GetFullyQualifiedName())
}

func TestRegisterAllConcurrent(t *testing.T) {
	var files []*protodesc.FileDescriptor
	for i := 0; i < 8; i++ {
		files = append(files, buildFileWithExtensionAt(t, i))
	}
	r := extreg.New()
	require.NoError(t, extreg.RegisterAll(context.Background(), r, files))
	for i := 0; i < 8; i++ {
		require.NotNil(t, r.Find("ext.Base", int32(100+i)))
	}
}

func buildFileWithExtensionAt(t *testing.T, i int) *protodesc.FileDescriptor {
	t.Helper()
	b := protodesc.NewFileBuilder("f.proto", "ext", protodesc.Proto2)
	b.AddMessage("Base").AddExtensionRange(100, 200)
	b.AddExtension("e", int32(100+i), protodesc.Int32, protodesc.LabelOptional, "ext.Base")
	f, err := b.Build()
	require.NoError(t, err)
	return f
}

func TestAllExtensionsForSortedByNumber(t *testing.T) {
	b := protodesc.NewFileBuilder("f.proto", "ext", protodesc.Proto2)
	b.AddMessage("Base").AddExtensionRange(100, 200)
	b.AddExtension("b", 102, protodesc.Int32, protodesc.LabelOptional, "ext.Base")
	b.AddExtension("a", 101, protodesc.Int32, protodesc.LabelOptional, "ext.Base")
	f, err := b.Build()
	require.NoError(t, err)

	r := extreg.New()
	require.NoError(t, r.RegisterFile(f))
	all := r.AllExtensionsFor("ext.Base")
	require.Len(t, all, 2)
	require.Equal(t, int32(101), all[0].GetNumber())
	require.Equal(t, int32(102), all[1].GetNumber())
}

func TestNonExtensionFieldIsRejected(t *testing.T) {
	b := protodesc.NewFileBuilder("f.proto", "p", protodesc.Proto3)
	m := b.AddMessage("M")
	m.AddField("x", 1, protodesc.Int32, protodesc.LabelOptional)
	f, err := b.Build()
	require.NoError(t, err)

	r := extreg.New()
	require.Error(t, r.Register(f.FindMessage("p.M").FindFieldByNumber(1)))
}
