// Package protoset implements the generic field set: a descriptor-keyed
// store of field values that underlies any message implementation,
// independent of any generated Go struct. It is grounded on
// dynamic.Message's GetField/SetField/ClearField/AddRepeatedField
// family, generalized from Go reflect.Value storage to a small closed
// set of concrete value representations the wire and protoreflect
// packages already understand (int32/uint32/int64/uint64/float64/bool/
// string, []byte or bytestring.ByteString for bytes, a protoset.Message
// implementation for submessages, and []interface{} of those for
// repeated fields).
package protoset

import (
	"fmt"
	"sort"

	"github.com/protoruntime/protoruntime/protodesc"
)

// Set is an unordered, descriptor-keyed field value store for exactly
// one message instance. Create one with New; the zero value has no
// descriptor and no value map and is not usable.
type Set struct {
	desc    *protodesc.MessageDescriptor
	values  map[int32]interface{} // field number -> value, or []interface{} for repeated
	unknown []UnknownField
}

// UnknownField holds one or more wire-format occurrences of a field
// number this set's descriptor does not recognize, preserved verbatim
// across parse/serialize round trips the way proto2 requires.
type UnknownField struct {
	Number int32
	// Varint, Fixed32, Fixed64 hold decoded scalar occurrences;
	// LengthDelimited holds raw bytes for bytes-wire-type occurrences
	// (including unrecognized submessages, which are never parsed).
	// Groups holds the fully re-encoded bytes (including the field's own
	// START_GROUP/END_GROUP tags) of an unrecognized legacy group field,
	// so it round-trips without this package needing a nested field-set
	// type for the rare unknown-group case.
	Varint          []uint64
	Fixed32         []uint32
	Fixed64         []uint64
	LengthDelimited [][]byte
	Groups          [][]byte
}

// New creates an empty field set for the given message descriptor.
func New(md *protodesc.MessageDescriptor) *Set {
	return &Set{desc: md, values: make(map[int32]interface{})}
}

// Descriptor returns the message descriptor this set was created for.
func (s *Set) Descriptor() *protodesc.MessageDescriptor { return s.desc }

func (s *Set) field(fd *protodesc.FieldDescriptor) *protodesc.FieldDescriptor {
	if fd == nil {
		panic("protoset: nil field descriptor")
	}
	return fd
}

// Has reports whether fd is set: for a repeated field, whether it has
// at least one element; for a scalar, whether it has an explicit or
// synthesized-oneof value present (proto3 implicit-presence scalars
// report Has only when the stored value differs from the zero value,
// matching wire semantics where the zero value is simply never
// serialized).
func (s *Set) Has(fd *protodesc.FieldDescriptor) bool {
	s.field(fd)
	v, ok := s.values[fd.GetNumber()]
	if !ok {
		return false
	}
	if fd.IsRepeated() {
		return reflectLen(v) > 0
	}
	if fd.GetPresence() == protodesc.PresenceImplicit {
		return !isZeroValue(fd, v)
	}
	return true
}

// Get returns fd's current value, or its type's zero value if unset.
// For repeated fields it returns a []interface{} (possibly empty).
func (s *Set) Get(fd *protodesc.FieldDescriptor) interface{} {
	s.field(fd)
	if v, ok := s.values[fd.GetNumber()]; ok {
		return v
	}
	if fd.IsRepeated() {
		return []interface{}{}
	}
	return ZeroValue(fd)
}

// Set stores val as fd's value, replacing any previous value
// (including clearing sibling oneof members, if fd belongs to a
// oneof).
func (s *Set) Set(fd *protodesc.FieldDescriptor, val interface{}) error {
	s.field(fd)
	if err := checkValue(fd, val); err != nil {
		return err
	}
	if oo := fd.GetOneOf(); oo != nil {
		for _, sib := range oo.GetFields() {
			if sib.GetNumber() != fd.GetNumber() {
				delete(s.values, sib.GetNumber())
			}
		}
	}
	s.values[fd.GetNumber()] = val
	return nil
}

// Clear removes fd's value entirely.
func (s *Set) Clear(fd *protodesc.FieldDescriptor) {
	s.field(fd)
	delete(s.values, fd.GetNumber())
}

// AddRepeated appends val to fd's repeated value list.
func (s *Set) AddRepeated(fd *protodesc.FieldDescriptor, val interface{}) error {
	s.field(fd)
	if !fd.IsRepeated() {
		return fmt.Errorf("protoset: field %s is not repeated", fd.GetFullyQualifiedName())
	}
	if err := checkElementValue(fd, val); err != nil {
		return err
	}
	cur, _ := s.values[fd.GetNumber()].([]interface{})
	s.values[fd.GetNumber()] = append(cur, val)
	return nil
}

// SetRepeated replaces all of fd's repeated values.
func (s *Set) SetRepeated(fd *protodesc.FieldDescriptor, vals []interface{}) error {
	s.field(fd)
	if !fd.IsRepeated() {
		return fmt.Errorf("protoset: field %s is not repeated", fd.GetFullyQualifiedName())
	}
	for _, v := range vals {
		if err := checkElementValue(fd, v); err != nil {
			return err
		}
	}
	cp := make([]interface{}, len(vals))
	copy(cp, vals)
	s.values[fd.GetNumber()] = cp
	return nil
}

// RepeatedLen returns the number of elements currently stored for a
// repeated field.
func (s *Set) RepeatedLen(fd *protodesc.FieldDescriptor) int {
	s.field(fd)
	v, _ := s.values[fd.GetNumber()].([]interface{})
	return len(v)
}

// GetOneOf returns the field within oo that is currently set, and its
// value, or (nil, nil) if no member of the oneof has been set.
func (s *Set) GetOneOf(oo *protodesc.OneofDescriptor) (*protodesc.FieldDescriptor, interface{}) {
	for _, fd := range oo.GetFields() {
		if v, ok := s.values[fd.GetNumber()]; ok {
			return fd, v
		}
	}
	return nil, nil
}

// Range calls fn once for each set field, in ascending field-number
// order, matching the deterministic iteration wire serialization
// relies on.
func (s *Set) Range(fn func(fd *protodesc.FieldDescriptor, val interface{}) bool) {
	nums := make([]int32, 0, len(s.values))
	for n := range s.values {
		nums = append(nums, n)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	for _, n := range nums {
		fd := s.desc.FindFieldByNumber(n)
		if fd == nil {
			continue // shouldn't happen: every key in s.values came from a known field
		}
		if !s.Has(fd) {
			continue
		}
		if !fn(fd, s.values[n]) {
			return
		}
	}
}

// UnknownFields returns the preserved unrecognized-field data, in the
// order first encountered.
func (s *Set) UnknownFields() []UnknownField { return s.unknown }

// AddUnknownVarint records an unrecognized varint-wire-type occurrence.
func (s *Set) AddUnknownVarint(number int32, v uint64) {
	uf := s.unknownFieldFor(number)
	uf.Varint = append(uf.Varint, v)
}

// AddUnknownFixed32 records an unrecognized fixed32-wire-type occurrence.
func (s *Set) AddUnknownFixed32(number int32, v uint32) {
	uf := s.unknownFieldFor(number)
	uf.Fixed32 = append(uf.Fixed32, v)
}

// AddUnknownFixed64 records an unrecognized fixed64-wire-type occurrence.
func (s *Set) AddUnknownFixed64(number int32, v uint64) {
	uf := s.unknownFieldFor(number)
	uf.Fixed64 = append(uf.Fixed64, v)
}

// AddUnknownBytes records an unrecognized length-delimited occurrence.
func (s *Set) AddUnknownBytes(number int32, v []byte) {
	uf := s.unknownFieldFor(number)
	uf.LengthDelimited = append(uf.LengthDelimited, v)
}

// AddUnknownGroup records an unrecognized group field's fully re-encoded
// bytes, start tag through end tag inclusive.
func (s *Set) AddUnknownGroup(number int32, raw []byte) {
	uf := s.unknownFieldFor(number)
	uf.Groups = append(uf.Groups, raw)
}

func (s *Set) unknownFieldFor(number int32) *UnknownField {
	for i := range s.unknown {
		if s.unknown[i].Number == number {
			return &s.unknown[i]
		}
	}
	s.unknown = append(s.unknown, UnknownField{Number: number})
	return &s.unknown[len(s.unknown)-1]
}

func reflectLen(v interface{}) int {
	if s, ok := v.([]interface{}); ok {
		return len(s)
	}
	return 0
}
