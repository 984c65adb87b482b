package protodesc

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// FromFileDescriptorProto builds a FileDescriptor from an
// already-compiled descriptorpb.FileDescriptorProto — the shape protoc,
// bufbuild/protocompile, or a reflection service hands back — without
// this package inventing its own descriptor wire format or compiling
// `.proto` source itself. deps must already contain a built
// FileDescriptor for every path named in proto.GetDependency(), keyed
// by that same path, mirroring how desc.CreateFileDescriptor resolves
// a dependency set one file at a time.
//
// Editions (FileDescriptorProto.Syntax values other than "", "proto2",
// or "proto3") are not supported; schema compilation and edition
// feature resolution are out of scope here.
func FromFileDescriptorProto(fdp *descriptorpb.FileDescriptorProto, deps map[string]*FileDescriptor) (*FileDescriptor, error) {
	var syntax Syntax
	switch fdp.GetSyntax() {
	case "", "proto2":
		syntax = Proto2
	case "proto3":
		syntax = Proto3
	default:
		return nil, fmt.Errorf("protodesc: unsupported syntax %q", fdp.GetSyntax())
	}
	closedDefault := syntax == Proto2

	b := NewFileBuilder(fdp.GetName(), fdp.GetPackage(), syntax)
	for _, dep := range fdp.GetDependency() {
		d, ok := deps[dep]
		if !ok {
			return nil, fmt.Errorf("protodesc: missing dependency %q", dep)
		}
		b.AddDependency(d)
	}

	for _, dp := range fdp.GetMessageType() {
		mb := b.AddMessage(dp.GetName())
		if err := populateMessageBuilder(mb, dp, closedDefault); err != nil {
			return nil, err
		}
	}
	for _, edp := range fdp.GetEnumType() {
		eb := b.AddEnum(edp.GetName(), closedDefault)
		for _, v := range edp.GetValue() {
			eb.AddValue(v.GetName(), v.GetNumber())
		}
	}
	for _, fp := range fdp.GetExtension() {
		extendee := strings.TrimPrefix(fp.GetExtendee(), ".")
		fb := b.AddExtension(fp.GetName(), fp.GetNumber(), FieldType(fp.GetType()), Label(fp.GetLabel()), extendee)
		applyFieldProtoDetails(fb, fp)
	}
	return b.Build()
}

func populateMessageBuilder(mb *messageBuilder, dp *descriptorpb.DescriptorProto, closedDefault bool) error {
	oneofBuilders := make([]*oneofBuilder, len(dp.GetOneofDecl()))
	for i, o := range dp.GetOneofDecl() {
		oneofBuilders[i] = mb.AddOneof(o.GetName())
	}
	for _, fp := range dp.GetField() {
		fb := mb.AddField(fp.GetName(), fp.GetNumber(), FieldType(fp.GetType()), Label(fp.GetLabel()))
		applyFieldProtoDetails(fb, fp)
		if fp.OneofIndex != nil {
			idx := fp.GetOneofIndex()
			if idx < 0 || int(idx) >= len(oneofBuilders) {
				return fmt.Errorf("protodesc: field %q has out-of-range oneof_index %d", fp.GetName(), idx)
			}
			ob := oneofBuilders[idx]
			fb.InOneof(ob)
			if fp.GetProto3Optional() {
				ob.SetSynthetic(true)
			}
		}
	}
	for _, er := range dp.GetExtensionRange() {
		mb.AddExtensionRange(er.GetStart(), er.GetEnd())
	}
	if opts := dp.GetOptions(); opts != nil {
		mb.SetMapEntry(opts.GetMapEntry())
		mb.SetMessageSetWireFormat(opts.GetMessageSetWireFormat())
	}
	for _, ndp := range dp.GetNestedType() {
		nmb := mb.AddNestedMessage(ndp.GetName())
		if err := populateMessageBuilder(nmb, ndp, closedDefault); err != nil {
			return err
		}
	}
	for _, edp := range dp.GetEnumType() {
		neb := mb.AddNestedEnum(edp.GetName())
		neb.SetClosed(closedDefault)
		for _, v := range edp.GetValue() {
			neb.AddValue(v.GetName(), v.GetNumber())
		}
	}
	return nil
}

func applyFieldProtoDetails(fb *fieldBuilder, fp *descriptorpb.FieldDescriptorProto) {
	switch FieldType(fp.GetType()) {
	case Message, Group, Enum:
		fb.WithTypeName(strings.TrimPrefix(fp.GetTypeName(), "."))
	}
	if opts := fp.GetOptions(); opts != nil && opts.Packed != nil {
		fb.WithPacked(opts.GetPacked())
	}
}

// ToFileDescriptorProto converts fd back into a descriptorpb.FileDescriptorProto,
// the inverse of FromFileDescriptorProto — useful for handing this
// runtime's descriptors to any tool that only speaks the compiled wire
// shape (a reflection service, protoc-compatible output, another
// FromFileDescriptorProto caller in a different process).
func ToFileDescriptorProto(fd *FileDescriptor) *descriptorpb.FileDescriptorProto {
	out := &descriptorpb.FileDescriptorProto{
		Name: proto.String(fd.GetName()),
	}
	if pkg := fd.GetPackage(); pkg != "" {
		out.Package = proto.String(pkg)
	}
	if fd.IsProto3() {
		out.Syntax = proto.String("proto3")
	}
	for _, dep := range fd.GetDependencies() {
		out.Dependency = append(out.Dependency, dep.GetName())
	}
	for _, md := range fd.GetMessageTypes() {
		out.MessageType = append(out.MessageType, messageDescriptorToProto(md))
	}
	for _, ed := range fd.GetEnumTypes() {
		out.EnumType = append(out.EnumType, enumDescriptorToProto(ed))
	}
	for _, extfd := range fd.GetExtensions() {
		out.Extension = append(out.Extension, fieldDescriptorToProto(extfd))
	}
	return out
}

func messageDescriptorToProto(md *MessageDescriptor) *descriptorpb.DescriptorProto {
	dp := &descriptorpb.DescriptorProto{Name: proto.String(md.GetName())}
	for _, f := range md.GetFields() {
		dp.Field = append(dp.Field, fieldDescriptorToProto(f))
	}
	for _, o := range md.GetOneofs() {
		dp.OneofDecl = append(dp.OneofDecl, &descriptorpb.OneofDescriptorProto{Name: proto.String(o.GetName())})
	}
	for _, n := range md.GetNestedMessageTypes() {
		dp.NestedType = append(dp.NestedType, messageDescriptorToProto(n))
	}
	for _, e := range md.GetNestedEnumTypes() {
		dp.EnumType = append(dp.EnumType, enumDescriptorToProto(e))
	}
	for _, r := range md.GetExtensionRanges() {
		dp.ExtensionRange = append(dp.ExtensionRange, &descriptorpb.DescriptorProto_ExtensionRange{
			Start: proto.Int32(r.Start),
			End:   proto.Int32(r.End),
		})
	}
	if md.IsMapEntry() || md.IsMessageSetWireFormat() {
		dp.Options = &descriptorpb.MessageOptions{}
		if md.IsMapEntry() {
			dp.Options.MapEntry = proto.Bool(true)
		}
		if md.IsMessageSetWireFormat() {
			dp.Options.MessageSetWireFormat = proto.Bool(true)
		}
	}
	return dp
}

func enumDescriptorToProto(ed *EnumDescriptor) *descriptorpb.EnumDescriptorProto {
	ep := &descriptorpb.EnumDescriptorProto{Name: proto.String(ed.GetName())}
	for _, v := range ed.GetValues() {
		ep.Value = append(ep.Value, &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String(v.GetName()),
			Number: proto.Int32(v.GetNumber()),
		})
	}
	return ep
}

func fieldDescriptorToProto(f *FieldDescriptor) *descriptorpb.FieldDescriptorProto {
	fp := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(f.GetName()),
		Number: proto.Int32(f.GetNumber()),
		Label:  descriptorpb.FieldDescriptorProto_Label(f.GetLabel()).Enum(),
		Type:   descriptorpb.FieldDescriptorProto_Type(f.GetType()).Enum(),
	}
	switch f.GetType() {
	case Message, Group:
		fp.TypeName = proto.String("." + f.GetMessageType().GetFullyQualifiedName())
	case Enum:
		fp.TypeName = proto.String("." + f.GetEnumType().GetFullyQualifiedName())
	}
	if f.IsExtension() {
		fp.Extendee = proto.String("." + f.GetOwner().GetFullyQualifiedName())
	}
	if o := f.GetOneOf(); o != nil {
		if parent, ok := f.GetParent().(*MessageDescriptor); ok {
			for i, po := range parent.GetOneofs() {
				if po == o {
					fp.OneofIndex = proto.Int32(int32(i))
					break
				}
			}
		}
		if o.IsSynthetic() {
			fp.Proto3Optional = proto.Bool(true)
		}
	}
	if f.packedSet {
		fp.Options = &descriptorpb.FieldOptions{Packed: proto.Bool(f.packed)}
	}
	return fp
}
