// Package protodesc implements the descriptor graph: the runtime
// representation of files, messages, fields, oneofs, enums, and
// extension ranges that the field-set and reflection layers walk to
// encode, decode, compare, and merge messages. Descriptors here are
// built programmatically (via Builder) rather than compiled from
// `.proto` source, which is out of scope here — a
// FromFileDescriptorProto constructor also accepts an already-compiled
// google.golang.org/protobuf/types/descriptorpb.FileDescriptorProto
// for callers that already have one (e.g. from bufbuild/protocompile
// or protoc), without this package inventing its own descriptor wire
// format.
//
// Cross-references between descriptors (field → containing message,
// nested message → parent, field → referenced message/enum type) are
// plain Go pointers. A language without a tracing collector would
// typically need an arena of stable indices to represent a cyclic
// descriptor graph safely; Go's garbage collector already handles
// reference cycles for free, so using pointers directly is the
// idiomatic equivalent, and matches how desc.FileDescriptor and
// desc.MessageDescriptor are wired in desc/descriptor.go.
package protodesc

import "github.com/protoruntime/protoruntime/wire"

// FieldType enumerates the 18 logical field types.
type FieldType int8

const (
	Double FieldType = iota + 1
	Float
	Int64
	Uint64
	Int32
	Fixed64
	Fixed32
	Bool
	String
	Group
	Message
	Bytes
	Uint32
	Enum
	Sfixed32
	Sfixed64
	Sint32
	Sint64
)

// Label is a field's cardinality.
type Label int8

const (
	LabelOptional Label = iota + 1
	LabelRequired       // proto2 only
	LabelRepeated
)

// Category classifies a field's value shape for dispatch, mirroring
// how field values are dispatched.
type Category int8

const (
	CategoryScalar Category = iota
	CategoryLengthDelimited
	CategorySubmessage
	CategoryEnumValue
)

// PresenceRule says how a field tracks "is this set", replacing the mix
// of proto2-explicit/proto3-implicit/synthetic-oneof with the single
// single enum this package uses instead.
type PresenceRule int8

const (
	PresenceExplicit PresenceRule = iota
	PresenceImplicit
	PresenceOneofMember
	PresenceSyntheticOneof
)

// Syntax is the source file's declared dialect.
type Syntax int8

const (
	Proto2 Syntax = iota
	Proto3
	Editions
)

var wireTypeOf = map[FieldType]wire.Type{
	Double:   wire.Fixed64Type,
	Float:    wire.Fixed32Type,
	Int64:    wire.VarintType,
	Uint64:   wire.VarintType,
	Int32:    wire.VarintType,
	Fixed64:  wire.Fixed64Type,
	Fixed32:  wire.Fixed32Type,
	Bool:     wire.VarintType,
	String:   wire.BytesType,
	Group:    wire.StartGroup,
	Message:  wire.BytesType,
	Bytes:    wire.BytesType,
	Uint32:   wire.VarintType,
	Enum:     wire.VarintType,
	Sfixed32: wire.Fixed32Type,
	Sfixed64: wire.Fixed64Type,
	Sint32:   wire.VarintType,
	Sint64:   wire.VarintType,
}

// WireType returns the wire type used to encode a field of type t.
func (t FieldType) WireType() wire.Type { return wireTypeOf[t] }

// Category returns the value category for a field of type t.
func (t FieldType) Category() Category {
	switch t {
	case String, Bytes:
		return CategoryLengthDelimited
	case Message, Group:
		return CategorySubmessage
	case Enum:
		return CategoryEnumValue
	default:
		return CategoryScalar
	}
}

// IsPackable reports whether repeated fields of type t may use the
// packed wire encoding (primitive scalar/enum types only).
func (t FieldType) IsPackable() bool {
	switch t {
	case String, Bytes, Message, Group:
		return false
	default:
		return true
	}
}

func (t FieldType) String() string {
	switch t {
	case Double:
		return "double"
	case Float:
		return "float"
	case Int64:
		return "int64"
	case Uint64:
		return "uint64"
	case Int32:
		return "int32"
	case Fixed64:
		return "fixed64"
	case Fixed32:
		return "fixed32"
	case Bool:
		return "bool"
	case String:
		return "string"
	case Group:
		return "group"
	case Message:
		return "message"
	case Bytes:
		return "bytes"
	case Uint32:
		return "uint32"
	case Enum:
		return "enum"
	case Sfixed32:
		return "sfixed32"
	case Sfixed64:
		return "sfixed64"
	case Sint32:
		return "sint32"
	case Sint64:
		return "sint64"
	default:
		return "unknown"
	}
}
