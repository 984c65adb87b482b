package protodesc

import "fmt"

// Builder assembles a FileDescriptor programmatically: callers add
// messages, enums, and top-level extensions, then call Build to run
// the cross-linking and validation pass that produces immutable
// descriptors. Grounded on the two-phase build/buildDescriptor pattern
// in desc/builder and protobuilder, simplified to the handful of
// entity kinds this runtime needs (no source-location tracking, no
// comment preservation, no edition feature resolution).
//
// Build runs in two passes so that a field may reference a message or
// enum declared anywhere else in the same file, including later in
// source order: pass one creates every message/enum shell and
// registers its fully qualified name, pass two fills in each message's
// fields (and top-level extensions) once every name is resolvable.
type Builder struct {
	name   string
	pkg    string
	syntax Syntax
	deps   []*FileDescriptor

	messages   []*messageBuilder
	enums      []*enumBuilder
	extensions []*fieldBuilder
}

// NewFileBuilder starts a new file-level builder for a file named name
// (a `.proto`-style path used only for diagnostics) in package pkg.
func NewFileBuilder(name, pkg string, syntax Syntax) *Builder {
	return &Builder{name: name, pkg: pkg, syntax: syntax}
}

// AddDependency registers another already-built file whose messages
// and enums this file's fields may reference by fully qualified name.
func (b *Builder) AddDependency(dep *FileDescriptor) *Builder {
	b.deps = append(b.deps, dep)
	return b
}

type messageBuilder struct {
	name       string
	fields     []*fieldBuilder
	oneofs     []*oneofBuilder
	nested     []*messageBuilder
	nestedEnum []*enumBuilder
	extRanges  []ExtensionRange
	isMapEntry bool
	msgSet     bool

	md *MessageDescriptor // filled in during pass one
}

// AddMessage starts a new top-level message builder named name.
func (b *Builder) AddMessage(name string) *messageBuilder {
	m := &messageBuilder{name: name}
	b.messages = append(b.messages, m)
	return m
}

// AddNestedMessage starts a message builder nested inside m.
func (m *messageBuilder) AddNestedMessage(name string) *messageBuilder {
	n := &messageBuilder{name: name}
	m.nested = append(m.nested, n)
	return n
}

// AddNestedEnum starts an enum builder nested inside m.
func (m *messageBuilder) AddNestedEnum(name string) *enumBuilder {
	e := &enumBuilder{name: name}
	m.nestedEnum = append(m.nestedEnum, e)
	return e
}

// AddExtensionRange reserves [start, end) of field numbers for extensions.
func (m *messageBuilder) AddExtensionRange(start, end int32) *messageBuilder {
	m.extRanges = append(m.extRanges, ExtensionRange{Start: start, End: end})
	return m
}

// SetMapEntry marks this message as a synthetic map<k,v> entry type
// (fields 1=key, 2=value), matching the shape protoc generates for map
// fields.
func (m *messageBuilder) SetMapEntry(isMapEntry bool) *messageBuilder {
	m.isMapEntry = isMapEntry
	return m
}

// SetMessageSetWireFormat marks this message as using the legacy
// MessageSet wire encoding instead of ordinary field framing.
func (m *messageBuilder) SetMessageSetWireFormat(v bool) *messageBuilder {
	m.msgSet = v
	return m
}

type fieldBuilder struct {
	name         string
	number       int32
	typ          FieldType
	label        Label
	msgTypeName  string
	enumTypeName string
	oneof        *oneofBuilder
	packed       bool
	packedSet    bool
	isExtension  bool
	extendeeName string

	fd *FieldDescriptor // filled in during pass two
}

// AddField adds a scalar, message, or enum typed field to m. For
// Message, Group, or Enum typed fields, call WithTypeName afterward to
// name the referenced type by its fully qualified name.
func (m *messageBuilder) AddField(name string, number int32, typ FieldType, label Label) *fieldBuilder {
	f := &fieldBuilder{name: name, number: number, typ: typ, label: label}
	m.fields = append(m.fields, f)
	return f
}

// AddExtension adds a top-level extension field that extends the
// message named extendeeFQN.
func (b *Builder) AddExtension(name string, number int32, typ FieldType, label Label, extendeeFQN string) *fieldBuilder {
	f := &fieldBuilder{name: name, number: number, typ: typ, label: label, isExtension: true, extendeeName: extendeeFQN}
	b.extensions = append(b.extensions, f)
	return f
}

// WithTypeName names the message or enum type this field refers to, by
// fully qualified name within the file being built or a dependency.
func (f *fieldBuilder) WithTypeName(fqn string) *fieldBuilder {
	if f.typ == Message || f.typ == Group {
		f.msgTypeName = fqn
	} else if f.typ == Enum {
		f.enumTypeName = fqn
	}
	return f
}

// WithPacked forces the packed-encoding choice instead of leaving it to
// the syntax default.
func (f *fieldBuilder) WithPacked(packed bool) *fieldBuilder {
	f.packed, f.packedSet = packed, true
	return f
}

// InOneof attaches f to the oneof o. f must belong to the same message
// that declared o.
func (f *fieldBuilder) InOneof(o *oneofBuilder) *fieldBuilder {
	f.oneof = o
	return f
}

type oneofBuilder struct {
	name      string
	synthetic bool

	od *OneofDescriptor // filled in during pass one
}

// AddOneof starts a oneof named name on m; attach fields to it with
// fieldBuilder.InOneof after adding them to m.
func (m *messageBuilder) AddOneof(name string) *oneofBuilder {
	o := &oneofBuilder{name: name}
	m.oneofs = append(m.oneofs, o)
	return o
}

// SetSynthetic marks a oneof as the compiler-synthesized kind proto3
// uses to track explicit presence for an `optional` scalar field.
func (o *oneofBuilder) SetSynthetic(synthetic bool) *oneofBuilder {
	o.synthetic = synthetic
	return o
}

type enumBuilder struct {
	name   string
	values []enumValueBuilder
	closed bool

	ed *EnumDescriptor // filled in during pass one
}

type enumValueBuilder struct {
	name   string
	number int32
}

// AddEnum starts a new top-level enum builder named name.
func (b *Builder) AddEnum(name string, closed bool) *enumBuilder {
	e := &enumBuilder{name: name, closed: closed}
	b.enums = append(b.enums, e)
	return e
}

// AddValue adds a named, numbered constant to the enum.
func (e *enumBuilder) AddValue(name string, number int32) *enumBuilder {
	e.values = append(e.values, enumValueBuilder{name: name, number: number})
	return e
}

// SetClosed overrides whether the enum is closed (proto2-style,
// rejecting unrecognized numbers) or open. AddEnum takes closedness as
// an argument; AddNestedEnum does not, so callers building a nested
// enum under a proto2 file (e.g. FromFileDescriptorProto) use this to
// match the containing file's convention explicitly.
func (e *enumBuilder) SetClosed(closed bool) *enumBuilder {
	e.closed = closed
	return e
}

// Build runs the two-pass cross-linking described on Builder and
// returns the finished, immutable FileDescriptor, or the first
// structural error encountered: a duplicate name, a duplicate field
// number, or a type name that does not resolve to a message or enum
// visible from this file.
func (b *Builder) Build() (*FileDescriptor, error) {
	f := &FileDescriptor{
		name:    b.name,
		pkg:     b.pkg,
		syntax:  b.syntax,
		deps:    b.deps,
		symbols: make(map[string]Descriptor),
	}
	for _, dep := range b.deps {
		for fqn, d := range dep.symbols {
			f.symbols[fqn] = d
		}
	}

	// Pass one: declare every message/enum shell and register its name.
	for _, mb := range b.messages {
		md, err := declareMessage(mb, f, nil, b.pkg)
		if err != nil {
			return nil, err
		}
		f.messages = append(f.messages, md)
	}
	for _, eb := range b.enums {
		ed := declareEnum(eb, f, nil, b.pkg)
		f.enums = append(f.enums, ed)
	}

	// Pass two: populate fields, now that every symbol in this file
	// (and its dependencies) is resolvable.
	for _, mb := range b.messages {
		if err := populateMessage(mb, f); err != nil {
			return nil, err
		}
	}
	for _, fb := range b.extensions {
		fd, err := buildField(fb, f, nil)
		if err != nil {
			return nil, err
		}
		owner, ok := f.symbols[fb.extendeeName].(*MessageDescriptor)
		if !ok {
			return nil, fmt.Errorf("protodesc: extension %q extends unknown message %q", fb.name, fb.extendeeName)
		}
		if !owner.IsExtension(fb.number) {
			return nil, fmt.Errorf("protodesc: field number %d is not in an extension range of %q", fb.number, owner.fqn)
		}
		fd.owner = owner
		f.extensions = append(f.extensions, fd)
	}
	return f, nil
}

func join(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

func declareMessage(mb *messageBuilder, f *FileDescriptor, parent Descriptor, scope string) (*MessageDescriptor, error) {
	fqn := join(scope, mb.name)
	if _, dup := f.symbols[fqn]; dup {
		return nil, fmt.Errorf("protodesc: duplicate symbol %q", fqn)
	}
	md := &MessageDescriptor{
		name:                 mb.name,
		fqn:                  fqn,
		parent:               parent,
		file:                 f,
		fieldsByNum:          make(map[int32]*FieldDescriptor),
		fieldsByName:         make(map[string]*FieldDescriptor),
		extRanges:            mb.extRanges,
		isMapEntry:           mb.isMapEntry,
		messageSetWireFormat: mb.msgSet,
	}
	mb.md = md
	f.symbols[fqn] = md

	for _, ob := range mb.oneofs {
		ob.od = &OneofDescriptor{name: ob.name, fqn: join(fqn, ob.name), parent: md, synthetic: ob.synthetic}
		md.oneofs = append(md.oneofs, ob.od)
	}
	for _, nb := range mb.nested {
		nd, err := declareMessage(nb, f, md, fqn)
		if err != nil {
			return nil, err
		}
		md.nested = append(md.nested, nd)
	}
	for _, eb := range mb.nestedEnum {
		md.nestedEnums = append(md.nestedEnums, declareEnum(eb, f, md, fqn))
	}
	return md, nil
}

func declareEnum(eb *enumBuilder, f *FileDescriptor, parent Descriptor, scope string) *EnumDescriptor {
	fqn := join(scope, eb.name)
	ed := &EnumDescriptor{
		name:        eb.name,
		fqn:         fqn,
		parent:      parent,
		file:        f,
		valuesByNum: make(map[int32]*EnumValueDescriptor),
		closed:      eb.closed,
	}
	for _, vb := range eb.values {
		vd := &EnumValueDescriptor{name: vb.name, number: vb.number, parent: ed}
		ed.values = append(ed.values, vd)
		ed.valuesByNum[vb.number] = vd
	}
	eb.ed = ed
	f.symbols[fqn] = ed
	return ed
}

func populateMessage(mb *messageBuilder, f *FileDescriptor) error {
	md := mb.md
	for _, fb := range mb.fields {
		fd, err := buildField(fb, f, md)
		if err != nil {
			return err
		}
		if fb.oneof != nil {
			fd.oneof = fb.oneof.od
			fd.presence = PresenceOneofMember
			if fb.oneof.synthetic {
				fd.presence = PresenceSyntheticOneof
			}
			fb.oneof.od.fields = append(fb.oneof.od.fields, fd)
		}
		if _, dup := md.fieldsByNum[fd.number]; dup {
			return fmt.Errorf("protodesc: message %q has duplicate field number %d", md.fqn, fd.number)
		}
		md.fields = append(md.fields, fd)
		md.fieldsByNum[fd.number] = fd
		md.fieldsByName[fd.name] = fd
	}
	for _, nb := range mb.nested {
		if err := populateMessage(nb, f); err != nil {
			return err
		}
	}
	return nil
}

func buildField(fb *fieldBuilder, f *FileDescriptor, parent *MessageDescriptor) (*FieldDescriptor, error) {
	if !isValidFieldNumber(fb.number) {
		return nil, fmt.Errorf("protodesc: field %q has invalid number %d", fb.name, fb.number)
	}
	scope := f.pkg
	if parent != nil {
		scope = parent.fqn
	}
	presence := PresenceExplicit
	if f.syntax != Proto2 && fb.label != LabelRepeated && fb.typ != Message && fb.typ != Group {
		presence = PresenceImplicit
	}
	fd := &FieldDescriptor{
		name:        fb.name,
		fqn:         join(scope, fb.name),
		number:      fb.number,
		typ:         fb.typ,
		label:       fb.label,
		parent:      parent,
		owner:       parent,
		file:        f,
		packed:      fb.packed,
		packedSet:   fb.packedSet,
		isExtension: fb.isExtension,
		presence:    presence,
	}
	switch fb.typ {
	case Message, Group:
		mt, ok := f.symbols[fb.msgTypeName].(*MessageDescriptor)
		if !ok {
			return nil, fmt.Errorf("protodesc: field %q references unknown message type %q", fd.fqn, fb.msgTypeName)
		}
		fd.msgType = mt
		fd.isMap = mt.isMapEntry
	case Enum:
		et, ok := f.symbols[fb.enumTypeName].(*EnumDescriptor)
		if !ok {
			return nil, fmt.Errorf("protodesc: field %q references unknown enum type %q", fd.fqn, fb.enumTypeName)
		}
		fd.enumType = et
	}
	fb.fd = fd
	return fd, nil
}

func isValidFieldNumber(n int32) bool {
	return n >= 1 && n <= 536870911 && !(n >= 19000 && n <= 19999)
}
