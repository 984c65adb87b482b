package protoset

import (
	"fmt"

	"github.com/protoruntime/protoruntime/bytestring"
	"github.com/protoruntime/protoruntime/protodesc"
)

// Message is the minimal interface a submessage value must satisfy to
// be stored in a Set: its own field set plus enough identity to check
// it against a message-typed field's declared type. protoreflect.Message
// is the concrete implementation used throughout this runtime.
type Message interface {
	Descriptor() *protodesc.MessageDescriptor
	FieldSet() *Set
}

// ZeroValue returns fd's type's default value: 0, "", false, nil, or
// (for an enum) its first declared value's number.
func ZeroValue(fd *protodesc.FieldDescriptor) interface{} {
	switch fd.GetType().Category() {
	case protodesc.CategoryEnumValue:
		if dv := fd.GetEnumType().DefaultValue(); dv != nil {
			return dv.GetNumber()
		}
		return int32(0)
	case protodesc.CategoryLengthDelimited:
		if fd.GetType() == protodesc.String {
			return ""
		}
		return []byte(nil)
	case protodesc.CategorySubmessage:
		return nil
	default:
		return zeroScalar(fd.GetType())
	}
}

func zeroScalar(t protodesc.FieldType) interface{} {
	switch t {
	case protodesc.Double, protodesc.Float:
		return float64(0)
	case protodesc.Bool:
		return false
	case protodesc.Int32, protodesc.Sint32, protodesc.Sfixed32:
		return int32(0)
	case protodesc.Uint32, protodesc.Fixed32:
		return uint32(0)
	case protodesc.Int64, protodesc.Sint64, protodesc.Sfixed64:
		return int64(0)
	case protodesc.Uint64, protodesc.Fixed64:
		return uint64(0)
	default:
		return nil
	}
}

func isZeroValue(fd *protodesc.FieldDescriptor, v interface{}) bool {
	switch x := v.(type) {
	case int32:
		return x == 0
	case uint32:
		return x == 0
	case int64:
		return x == 0
	case uint64:
		return x == 0
	case float64:
		return x == 0
	case bool:
		return !x
	case string:
		return x == ""
	case []byte:
		return len(x) == 0
	case bytestring.ByteString:
		return x.IsEmpty()
	default:
		return v == nil
	}
}

// checkValue validates val against fd's declared type before storing
// it as a scalar/singular value.
func checkValue(fd *protodesc.FieldDescriptor, val interface{}) error {
	if fd.IsRepeated() {
		return fmt.Errorf("protoset: field %s is repeated; use AddRepeated/SetRepeated", fd.GetFullyQualifiedName())
	}
	return checkElementValue(fd, val)
}

// checkElementValue validates val against fd's declared element type
// (the per-element type whether fd is repeated or singular).
func checkElementValue(fd *protodesc.FieldDescriptor, val interface{}) error {
	switch fd.GetType().Category() {
	case protodesc.CategorySubmessage:
		m, ok := val.(Message)
		if !ok {
			return fmt.Errorf("protoset: field %s expects a submessage, got %T", fd.GetFullyQualifiedName(), val)
		}
		if m.Descriptor() != fd.GetMessageType() {
			return fmt.Errorf("protoset: field %s expects message type %s, got %s",
				fd.GetFullyQualifiedName(), fd.GetMessageType().GetFullyQualifiedName(), m.Descriptor().GetFullyQualifiedName())
		}
		return nil
	case protodesc.CategoryEnumValue:
		if _, ok := val.(int32); !ok {
			return fmt.Errorf("protoset: field %s expects an enum number (int32), got %T", fd.GetFullyQualifiedName(), val)
		}
		return nil
	}
	if fd.GetType() == protodesc.Bytes {
		switch val.(type) {
		case []byte, bytestring.ByteString:
			return nil
		default:
			return fmt.Errorf("protoset: field %s expects []byte or bytestring.ByteString, got %T", fd.GetFullyQualifiedName(), val)
		}
	}
	wantType := scalarGoType(fd.GetType())
	if fmt.Sprintf("%T", val) != wantType {
		return fmt.Errorf("protoset: field %s expects %s, got %T", fd.GetFullyQualifiedName(), wantType, val)
	}
	return nil
}

// BytesOf normalizes a bytes-field value stored as either []byte or
// bytestring.ByteString into a plain []byte, so callers that only
// care about content (wire serialization, Equal, Hash) don't need to
// know which representation a particular Set call used. Per the
// spec's equals/hash rule, two bytes fields compare equal by content
// regardless of which representation produced them.
func BytesOf(v interface{}) []byte {
	switch x := v.(type) {
	case []byte:
		return x
	case bytestring.ByteString:
		return x.Bytes()
	default:
		return nil
	}
}

func scalarGoType(t protodesc.FieldType) string {
	switch t {
	case protodesc.Double, protodesc.Float:
		return "float64"
	case protodesc.Bool:
		return "bool"
	case protodesc.Int32, protodesc.Sint32, protodesc.Sfixed32:
		return "int32"
	case protodesc.Uint32, protodesc.Fixed32:
		return "uint32"
	case protodesc.Int64, protodesc.Sint64, protodesc.Sfixed64:
		return "int64"
	case protodesc.Uint64, protodesc.Fixed64:
		return "uint64"
	case protodesc.String:
		return "string"
	case protodesc.Bytes:
		return "[]uint8"
	default:
		return "unknown"
	}
}
