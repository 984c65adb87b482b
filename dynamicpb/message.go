// Package dynamicpb is the one concrete Message implementation this
// runtime ships: a thin, convenience-oriented wrapper that wires
// protodesc, protoset, and protoreflect together the way a caller with
// only a descriptor (no generated Go struct) expects to use them. It is
// the moral equivalent of teacher's dynamic.Message, generalized to
// editions/proto2/proto3 presence rules by delegating all storage and
// wire-format work to protoreflect.Message rather than re-implementing
// field access itself.
package dynamicpb

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/protoruntime/protoruntime/coded"
	"github.com/protoruntime/protoruntime/protodesc"
	"github.com/protoruntime/protoruntime/protoreflect"
)

// Message pairs a protoreflect.Message with the factory and extension
// resolver it was built with, so later Parse/Merge calls against it
// (e.g. growing a partially-read map or Any payload) keep resolving
// extensions the same way the original Unmarshal did.
type Message struct {
	*protoreflect.Message
	factory  protoreflect.Factory
	resolver protoreflect.ExtensionResolver
}

// NewMessage creates an empty dynamic message for md, using factory to
// construct any nested submessages it allocates and resolver (which
// may be nil) to look up unrecognized extension field numbers.
func NewMessage(md *protodesc.MessageDescriptor, factory protoreflect.Factory, resolver protoreflect.ExtensionResolver) *Message {
	if factory == nil {
		factory = protoreflect.DefaultFactory
	}
	return &Message{Message: protoreflect.NewMessage(md), factory: factory, resolver: resolver}
}

// FindFieldDescriptorByName looks up a field of this message's
// descriptor by name, mirroring teacher's
// Message.FindFieldDescriptorByName convenience method.
func (m *Message) FindFieldDescriptorByName(name string) *protodesc.FieldDescriptor {
	return m.Descriptor().FindFieldByName(name)
}

// GetFieldByNumber returns the current value of the field with the
// given number, or the type's zero value if it is unset and not
// repeated. Panics if number does not name a field of this message, matching the teacher's
// "descriptor mismatch is a programmer error" convention.
func (m *Message) GetFieldByNumber(number int32) interface{} {
	fd := m.Descriptor().FindFieldByNumber(number)
	if fd == nil {
		panic(fmt.Sprintf("dynamicpb: %s has no field %d", m.Descriptor().GetFullyQualifiedName(), number))
	}
	return m.FieldSet().Get(fd)
}

// SetFieldByNumber stores val for the field with the given number.
func (m *Message) SetFieldByNumber(number int32, val interface{}) error {
	fd := m.Descriptor().FindFieldByNumber(number)
	if fd == nil {
		return fmt.Errorf("dynamicpb: %s has no field %d", m.Descriptor().GetFullyQualifiedName(), number)
	}
	return m.Set(fd, val)
}

// Unmarshal parses data into a freshly allocated dynamic message for
// md, using factory and resolver the same way Parse does.
func Unmarshal(data []byte, md *protodesc.MessageDescriptor, factory protoreflect.Factory, resolver protoreflect.ExtensionResolver) (*Message, error) {
	if factory == nil {
		factory = protoreflect.DefaultFactory
	}
	inner, err := protoreflect.Unmarshal(data, md, factory, resolver)
	if err != nil {
		return nil, err
	}
	return &Message{Message: inner, factory: factory, resolver: resolver}, nil
}

// MarshalCompressed serializes m and compresses the result with zstd,
// a small enrichment beyond the core wire codec for callers that want
// to persist or transmit dynamic messages compactly.
func (m *Message) MarshalCompressed() ([]byte, error) {
	raw, err := m.Marshal()
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

// UnmarshalCompressed decompresses data with zstd and parses the
// result into a freshly allocated dynamic message for md.
func UnmarshalCompressed(data []byte, md *protodesc.MessageDescriptor, factory protoreflect.Factory, resolver protoreflect.ExtensionResolver) (*Message, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	raw, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("dynamicpb: decompressing message: %w", err)
	}
	return Unmarshal(raw, md, factory, resolver)
}

// ParseInto reads from r into m, reusing m's own factory and resolver.
// It is the streaming counterpart to Unmarshal, for callers already
// holding a coded.Reader (e.g. one positioned inside a larger frame).
func (m *Message) ParseInto(r *coded.Reader) error {
	return protoreflect.Parse(r, m.Message, m.factory, m.resolver)
}

// WriteTo serializes m and writes the result to w, returning the
// number of bytes written.
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	data, err := m.Marshal()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}
