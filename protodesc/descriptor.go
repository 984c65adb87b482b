package protodesc

import "fmt"

// Descriptor is the common interface implemented by every descriptor
// entity, grounded on desc.Descriptor.
type Descriptor interface {
	GetName() string
	GetFullyQualifiedName() string
	GetParent() Descriptor
	GetFile() *FileDescriptor
}

// FileDescriptor describes a proto source file's already-compiled shape.
type FileDescriptor struct {
	name    string
	pkg     string
	syntax  Syntax
	deps    []*FileDescriptor
	symbols map[string]Descriptor

	messages   []*MessageDescriptor
	enums      []*EnumDescriptor
	extensions []*FieldDescriptor
}

func (f *FileDescriptor) GetName() string               { return f.name }
func (f *FileDescriptor) GetFullyQualifiedName() string  { return f.pkg }
func (f *FileDescriptor) GetParent() Descriptor          { return nil }
func (f *FileDescriptor) GetFile() *FileDescriptor       { return f }
func (f *FileDescriptor) GetPackage() string             { return f.pkg }
func (f *FileDescriptor) GetSyntax() Syntax               { return f.syntax }
func (f *FileDescriptor) IsProto3() bool                 { return f.syntax == Proto3 }
func (f *FileDescriptor) GetDependencies() []*FileDescriptor { return f.deps }
func (f *FileDescriptor) GetMessageTypes() []*MessageDescriptor { return f.messages }
func (f *FileDescriptor) GetEnumTypes() []*EnumDescriptor { return f.enums }
func (f *FileDescriptor) GetExtensions() []*FieldDescriptor { return f.extensions }

// FindSymbol looks up any top-level or nested entity by its fully
// qualified name (package-relative dotted path).
func (f *FileDescriptor) FindSymbol(fqn string) Descriptor {
	return f.symbols[fqn]
}

// FindMessage looks up a top-level or nested message by fully qualified name.
func (f *FileDescriptor) FindMessage(fqn string) *MessageDescriptor {
	if d, ok := f.symbols[fqn].(*MessageDescriptor); ok {
		return d
	}
	return nil
}

// ExtensionRange is a [start, end) span of field numbers reserved for extensions.
type ExtensionRange struct {
	Start, End int32 // End is exclusive
}

func (r ExtensionRange) Contains(number int32) bool {
	return number >= r.Start && number < r.End
}

// MessageDescriptor describes a message type.
type MessageDescriptor struct {
	name    string
	fqn     string
	parent  Descriptor
	file    *FileDescriptor
	fields       []*FieldDescriptor
	fieldsByNum  map[int32]*FieldDescriptor
	fieldsByName map[string]*FieldDescriptor
	oneofs  []*OneofDescriptor
	nested  []*MessageDescriptor
	nestedEnums []*EnumDescriptor
	extRanges []ExtensionRange
	isMapEntry bool
	messageSetWireFormat bool
}

func (m *MessageDescriptor) GetName() string              { return m.name }
func (m *MessageDescriptor) GetFullyQualifiedName() string { return m.fqn }
func (m *MessageDescriptor) GetParent() Descriptor         { return m.parent }
func (m *MessageDescriptor) GetFile() *FileDescriptor      { return m.file }
func (m *MessageDescriptor) GetFields() []*FieldDescriptor { return m.fields }
func (m *MessageDescriptor) GetOneofs() []*OneofDescriptor { return m.oneofs }
func (m *MessageDescriptor) GetNestedMessageTypes() []*MessageDescriptor { return m.nested }
func (m *MessageDescriptor) GetNestedEnumTypes() []*EnumDescriptor       { return m.nestedEnums }
func (m *MessageDescriptor) GetExtensionRanges() []ExtensionRange        { return m.extRanges }
func (m *MessageDescriptor) IsMapEntry() bool                           { return m.isMapEntry }
func (m *MessageDescriptor) IsMessageSetWireFormat() bool               { return m.messageSetWireFormat }

// FindFieldByNumber returns the field with the given number, or nil.
func (m *MessageDescriptor) FindFieldByNumber(n int32) *FieldDescriptor {
	return m.fieldsByNum[n]
}

// FindFieldByName returns the field with the given declared name, or nil.
func (m *MessageDescriptor) FindFieldByName(name string) *FieldDescriptor {
	return m.fieldsByName[name]
}

// IsExtendable reports whether m declares any extension ranges.
func (m *MessageDescriptor) IsExtendable() bool { return len(m.extRanges) > 0 }

// IsExtension reports whether n falls within one of m's extension ranges.
func (m *MessageDescriptor) IsExtension(n int32) bool {
	for _, r := range m.extRanges {
		if r.Contains(n) {
			return true
		}
	}
	return false
}

// OneofDescriptor describes a oneof: a group of fields of which at
// most one may be set.
type OneofDescriptor struct {
	name      string
	fqn       string
	parent    *MessageDescriptor
	fields    []*FieldDescriptor
	synthetic bool
}

func (o *OneofDescriptor) GetName() string              { return o.name }
func (o *OneofDescriptor) GetFullyQualifiedName() string { return o.fqn }
func (o *OneofDescriptor) GetParent() Descriptor         { return o.parent }
func (o *OneofDescriptor) GetFile() *FileDescriptor      { return o.parent.file }
func (o *OneofDescriptor) GetOwner() *MessageDescriptor  { return o.parent }
func (o *OneofDescriptor) GetFields() []*FieldDescriptor { return o.fields }
func (o *OneofDescriptor) IsSynthetic() bool             { return o.synthetic }

// EnumDescriptor describes an enum type.
type EnumDescriptor struct {
	name   string
	fqn    string
	parent Descriptor
	file   *FileDescriptor
	values       []*EnumValueDescriptor
	valuesByNum  map[int32]*EnumValueDescriptor
	closed       bool // proto2 closed vs proto3/editions open
}

func (e *EnumDescriptor) GetName() string              { return e.name }
func (e *EnumDescriptor) GetFullyQualifiedName() string { return e.fqn }
func (e *EnumDescriptor) GetParent() Descriptor         { return e.parent }
func (e *EnumDescriptor) GetFile() *FileDescriptor      { return e.file }
func (e *EnumDescriptor) GetValues() []*EnumValueDescriptor { return e.values }
func (e *EnumDescriptor) IsClosed() bool                { return e.closed }

// FindValueByNumber returns the enum value with the given number, or nil.
func (e *EnumDescriptor) FindValueByNumber(n int32) *EnumValueDescriptor {
	return e.valuesByNum[n]
}

// DefaultValue is the enum's zero value: the first declared value.
func (e *EnumDescriptor) DefaultValue() *EnumValueDescriptor {
	if len(e.values) == 0 {
		return nil
	}
	return e.values[0]
}

// EnumValueDescriptor describes one named, numbered enum constant.
type EnumValueDescriptor struct {
	name   string
	number int32
	parent *EnumDescriptor
}

func (v *EnumValueDescriptor) GetName() string   { return v.name }
func (v *EnumValueDescriptor) GetNumber() int32  { return v.number }
func (v *EnumValueDescriptor) GetEnum() *EnumDescriptor { return v.parent }

// FieldDescriptor describes a single field of a message, or a
// top-level/nested extension field.
type FieldDescriptor struct {
	name     string
	fqn      string
	number   int32
	typ      FieldType
	label    Label
	parent   *MessageDescriptor // containing message (declaring scope for extensions)
	owner    *MessageDescriptor // extended message, for extensions; == parent otherwise
	oneof    *OneofDescriptor
	file     *FileDescriptor

	msgType  *MessageDescriptor // set when typ == Message or Group
	enumType *EnumDescriptor    // set when typ == Enum

	packed       bool
	packedSet    bool
	isExtension  bool
	isMap        bool
	presence     PresenceRule
}

func (f *FieldDescriptor) GetName() string              { return f.name }
func (f *FieldDescriptor) GetFullyQualifiedName() string { return f.fqn }
func (f *FieldDescriptor) GetParent() Descriptor {
	if f.parent != nil {
		return f.parent
	}
	return f.file
}
func (f *FieldDescriptor) GetFile() *FileDescriptor { return f.file }
func (f *FieldDescriptor) GetNumber() int32          { return f.number }
func (f *FieldDescriptor) GetType() FieldType        { return f.typ }
func (f *FieldDescriptor) GetLabel() Label           { return f.label }
func (f *FieldDescriptor) IsRepeated() bool          { return f.label == LabelRepeated }
func (f *FieldDescriptor) IsRequired() bool          { return f.label == LabelRequired }
func (f *FieldDescriptor) GetOneOf() *OneofDescriptor { return f.oneof }
func (f *FieldDescriptor) GetMessageType() *MessageDescriptor { return f.msgType }
func (f *FieldDescriptor) GetEnumType() *EnumDescriptor       { return f.enumType }
func (f *FieldDescriptor) IsExtension() bool         { return f.isExtension }
func (f *FieldDescriptor) IsMap() bool               { return f.isMap }
func (f *FieldDescriptor) GetOwner() *MessageDescriptor { return f.owner }
func (f *FieldDescriptor) GetPresence() PresenceRule { return f.presence }

// IsPacked reports whether a repeated primitive field should use the
// packed wire encoding: explicit [packed=true/false] wins; otherwise
// proto3/editions default to packed and proto2 defaults to unpacked.
func (f *FieldDescriptor) IsPacked() bool {
	if !f.IsRepeated() || !f.typ.IsPackable() {
		return false
	}
	if f.packedSet {
		return f.packed
	}
	return f.file.syntax != Proto2
}

func (f *FieldDescriptor) String() string {
	return fmt.Sprintf("%s(#%d %s)", f.fqn, f.number, f.typ)
}
