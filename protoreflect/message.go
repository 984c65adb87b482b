// Package protoreflect implements the reflection engine: the layer
// that ties a descriptor, a generic field set, and the coded streams
// together to serialize, parse, compare, hash, and merge a message
// purely from its descriptor, with no generated Go struct involved.
// It is grounded on dynamic.Message's EncodeFieldValue/DecodeFieldValue
// dispatch (codec/codec.go) and its mergeFrom/mergeInto semantics
// (dynamic/dynamic_message.go), adapted from reflect.Value-keyed
// storage onto protoset.Set.
package protoreflect

import (
	"fmt"
	"math"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/protoruntime/protoruntime/bytestring"
	"github.com/protoruntime/protoruntime/coded"
	"github.com/protoruntime/protoruntime/internal/protoerr"
	"github.com/protoruntime/protoruntime/protoconfig"
	"github.com/protoruntime/protoruntime/protodesc"
	"github.com/protoruntime/protoruntime/protoset"
	"github.com/protoruntime/protoruntime/wire"
)

// sizeUnknown is the sentinel cached-size value meaning "not yet
// computed"; any non-negative value is a valid memoized size.
const sizeUnknown = -1

// Message is the concrete, descriptor-driven message implementation
// this runtime provides. It satisfies protoset.Message so it can be
// stored as the value of a message-typed field.
type Message struct {
	desc   *protodesc.MessageDescriptor
	fields *protoset.Set

	// dirty is true once a field has been mutated since the last time
	// cachedSize was computed; it gates recomputation the way a
	// builder's modified flag does, and is propagated to parent on
	// first transition from clean to dirty.
	dirty      bool
	cachedSize int

	parent *Message
}

// NewMessage creates an empty message for the given descriptor.
func NewMessage(md *protodesc.MessageDescriptor) *Message {
	return &Message{desc: md, fields: protoset.New(md), dirty: true, cachedSize: sizeUnknown}
}

// Descriptor returns the message's descriptor.
func (m *Message) Descriptor() *protodesc.MessageDescriptor { return m.desc }

// FieldSet returns the underlying field set for direct field access.
func (m *Message) FieldSet() *protoset.Set { return m.fields }

// markDirty invalidates this message's cached size and, on first
// transition from clean to dirty, its parent's as well — a
// submessage's size change always changes its parent's size too.
func (m *Message) markDirty() {
	if m.dirty {
		return
	}
	m.dirty = true
	m.cachedSize = sizeUnknown
	if m.parent != nil {
		m.parent.markDirty()
	}
}

// adopt records parent as the message whose cached size must be
// invalidated when this message changes; called whenever a *Message is
// stored into a message-typed field of parent.
func (m *Message) adopt(parent *Message) { m.parent = parent }

// Set stores val into fd, clearing any cached size along the way.
func (m *Message) Set(fd *protodesc.FieldDescriptor, val interface{}) error {
	if err := m.fields.Set(fd, val); err != nil {
		return err
	}
	if child, ok := val.(*Message); ok {
		child.adopt(m)
	}
	m.markDirty()
	return nil
}

// AddRepeated appends val to fd's repeated values.
func (m *Message) AddRepeated(fd *protodesc.FieldDescriptor, val interface{}) error {
	if err := m.fields.AddRepeated(fd, val); err != nil {
		return err
	}
	if child, ok := val.(*Message); ok {
		child.adopt(m)
	}
	m.markDirty()
	return nil
}

// Clear removes fd's value.
func (m *Message) Clear(fd *protodesc.FieldDescriptor) {
	m.fields.Clear(fd)
	m.markDirty()
}

// IsInitialized reports whether every proto2 required field, at every
// level of message nesting, has a value — the one piece of
// validity-checking this runtime still performs at serialize time.
func (m *Message) IsInitialized() error {
	var missing []string
	m.collectUninitialized("", &missing)
	if len(missing) > 0 {
		return &protoerr.UninitializedMessage{MissingFields: missing}
	}
	return nil
}

func (m *Message) collectUninitialized(prefix string, missing *[]string) {
	for _, fd := range m.desc.GetFields() {
		if fd.IsRequired() && !m.fields.Has(fd) {
			*missing = append(*missing, prefix+fd.GetFullyQualifiedName())
			continue
		}
		if fd.GetType().Category() != protodesc.CategorySubmessage {
			continue
		}
		if fd.IsRepeated() {
			v, _ := m.fields.Get(fd).([]interface{})
			for _, e := range v {
				if sub, ok := e.(*Message); ok {
					sub.collectUninitialized(prefix, missing)
				}
			}
		} else if m.fields.Has(fd) {
			if sub, ok := m.fields.Get(fd).(*Message); ok {
				sub.collectUninitialized(prefix, missing)
			}
		}
	}
}

// Size returns the exact number of bytes Serialize will write,
// memoized until the message or any descendant is mutated again.
func (m *Message) Size() int {
	if !m.dirty && m.cachedSize != sizeUnknown {
		return m.cachedSize
	}
	var total int
	if m.desc.IsMessageSetWireFormat() {
		total = m.sizeMessageSet()
	} else {
		m.fields.Range(func(fd *protodesc.FieldDescriptor, val interface{}) bool {
			total += sizeField(nil, fd, val)
			return true
		})
		for _, uf := range m.fields.UnknownFields() {
			total += sizeUnknownField(uf)
		}
	}
	m.cachedSize = total
	m.dirty = false
	return total
}

func sizeUnknownField(uf protoset.UnknownField) int {
	total := 0
	for _, v := range uf.Varint {
		total += wire.SizeTag(uf.Number) + wire.SizeVarint(v)
	}
	for range uf.Fixed32 {
		total += wire.SizeTag(uf.Number) + 4
	}
	for range uf.Fixed64 {
		total += wire.SizeTag(uf.Number) + 8
	}
	for _, b := range uf.LengthDelimited {
		total += wire.SizeTag(uf.Number) + wire.SizeVarint(uint64(len(b))) + len(b)
	}
	for _, g := range uf.Groups {
		total += len(g)
	}
	return total
}

func writeUnknownField(w *coded.Writer, uf protoset.UnknownField) error {
	for _, v := range uf.Varint {
		if err := w.WriteTag(uf.Number, wire.VarintType); err != nil {
			return err
		}
		if err := w.WriteVarint(v); err != nil {
			return err
		}
	}
	for _, v := range uf.Fixed32 {
		if err := w.WriteTag(uf.Number, wire.Fixed32Type); err != nil {
			return err
		}
		if err := w.WriteFixed32(v); err != nil {
			return err
		}
	}
	for _, v := range uf.Fixed64 {
		if err := w.WriteTag(uf.Number, wire.Fixed64Type); err != nil {
			return err
		}
		if err := w.WriteFixed64(v); err != nil {
			return err
		}
	}
	for _, b := range uf.LengthDelimited {
		if err := w.WriteTag(uf.Number, wire.BytesType); err != nil {
			return err
		}
		if err := w.WriteBytes(b); err != nil {
			return err
		}
	}
	for _, g := range uf.Groups {
		if err := w.WriteRaw(g); err != nil {
			return err
		}
	}
	return nil
}

// sortedUnknownFields returns a copy of fields' unknown-field records
// sorted by field number, so the emitted unknown fields land in the
// same ascending order as the known ones instead of parse-encounter
// order.
func sortedUnknownFields(fields *protoset.Set) []protoset.UnknownField {
	ufs := fields.UnknownFields()
	sorted := make([]protoset.UnknownField, len(ufs))
	copy(sorted, ufs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })
	return sorted
}

// Serialize writes the message's wire-format encoding, in ascending
// field-number order, to w. Unknown fields are written last, sorted by
// number so the whole message stays in ascending-number order.
// Extension fields on a message whose descriptor has the legacy
// MessageSet wire format use the MessageSet item shape instead of
// ordinary tag/payload framing.
func (m *Message) Serialize(w *coded.Writer) error {
	if m.desc.IsMessageSetWireFormat() {
		return m.serializeMessageSet(w)
	}
	var err error
	m.fields.Range(func(fd *protodesc.FieldDescriptor, val interface{}) bool {
		err = writeField(w, fd, val)
		return err == nil
	})
	if err != nil {
		return err
	}
	for _, uf := range sortedUnknownFields(m.fields) {
		if err := writeUnknownField(w, uf); err != nil {
			return err
		}
	}
	return nil
}

func (m *Message) sizeMessageSet() int {
	total := 0
	m.fields.Range(func(fd *protodesc.FieldDescriptor, val interface{}) bool {
		if !fd.IsExtension() || fd.GetType() != protodesc.Message || fd.IsRepeated() {
			total += sizeField(nil, fd, val)
			return true
		}
		child := val.(*Message)
		sz := child.Size()
		total += wire.SizeTag(1) + wire.SizeTag(2) + wire.SizeVarint(uint64(fd.GetNumber())) +
			wire.SizeTag(3) + wire.SizeVarint(uint64(sz)) + sz + wire.SizeTag(1)
		return true
	})
	for _, uf := range m.fields.UnknownFields() {
		total += sizeUnknownField(uf)
	}
	return total
}

func (m *Message) serializeMessageSet(w *coded.Writer) error {
	var err error
	m.fields.Range(func(fd *protodesc.FieldDescriptor, val interface{}) bool {
		if !fd.IsExtension() || fd.GetType() != protodesc.Message || fd.IsRepeated() {
			err = writeField(w, fd, val)
			return err == nil
		}
		child := val.(*Message)
		if err = w.WriteTag(1, wire.StartGroup); err != nil {
			return false
		}
		if err = w.WriteTag(2, wire.VarintType); err != nil {
			return false
		}
		if err = w.WriteVarint(uint64(fd.GetNumber())); err != nil {
			return false
		}
		if err = w.WriteTag(3, wire.BytesType); err != nil {
			return false
		}
		if err = w.WriteVarint(uint64(child.Size())); err != nil {
			return false
		}
		if err = child.Serialize(w); err != nil {
			return false
		}
		err = w.WriteTag(1, wire.EndGroup)
		return err == nil
	})
	if err != nil {
		return err
	}
	for _, uf := range sortedUnknownFields(m.fields) {
		if err := writeUnknownField(w, uf); err != nil {
			return err
		}
	}
	return nil
}

// Marshal is a convenience wrapper that allocates a buffer of the
// exact required size and serializes into it.
func (m *Message) Marshal() ([]byte, error) {
	bs, err := m.MarshalByteString()
	if err != nil {
		return nil, err
	}
	return bs.Bytes(), nil
}

// MarshalByteString is Marshal, but finalizes into an immutable
// bytestring.ByteString instead of a plain []byte — the "coded
// builder" pattern: the size is already known from m.Size(), so the
// backing buffer is allocated exactly once and handed straight to the
// immutable result with no further copy.
func (m *Message) MarshalByteString() (bytestring.ByteString, error) {
	if err := m.IsInitialized(); err != nil {
		return bytestring.Empty, err
	}
	cb := bytestring.NewCodedBuilder(m.Size())
	if err := m.Serialize(cb.Writer()); err != nil {
		return bytestring.Empty, err
	}
	return cb.Build(), nil
}

// MarshalDeterministic is Marshal with the writer's deterministic-mode
// flag set, so map fields serialize in sorted key order.
func (m *Message) MarshalDeterministic() ([]byte, error) {
	if err := m.IsInitialized(); err != nil {
		return nil, err
	}
	cb := bytestring.NewCodedBuilder(m.Size(), protoconfig.WithDeterministic(true))
	if err := m.Serialize(cb.Writer()); err != nil {
		return nil, err
	}
	return cb.Build().Bytes(), nil
}

// Factory creates an empty *Message for a referenced type, used while
// parsing submessage and map-entry fields without this package needing
// to import whatever owns message construction policy.
type Factory func(md *protodesc.MessageDescriptor) *Message

// DefaultFactory is the Factory used by Parse when the caller doesn't
// supply one: it simply calls NewMessage.
func DefaultFactory(md *protodesc.MessageDescriptor) *Message { return NewMessage(md) }

// ExtensionResolver resolves an extension field by the fully qualified
// name of the message it extends and its field number. extreg.Registry
// satisfies this interface.
type ExtensionResolver interface {
	Find(extendeeFullName string, number int32) *protodesc.FieldDescriptor
}

// Parse decodes wire-format bytes from r into m, merging field values
// per standard proto merge semantics (scalars overwrite, messages
// recursively merge, repeated fields append). resolver may be nil, in
// which case fields outside m's descriptor — including ones inside an
// extension range — become unknown fields.
func Parse(r *coded.Reader, m *Message, factory Factory, resolver ExtensionResolver) error {
	if factory == nil {
		factory = DefaultFactory
	}
	if m.desc.IsMessageSetWireFormat() {
		return parseMessageSet(r, m, factory, resolver)
	}
	return parseFields(r, m, factory, resolver, -1)
}

// Unmarshal parses data into a freshly constructed message for md.
func Unmarshal(data []byte, md *protodesc.MessageDescriptor, factory Factory, resolver ExtensionResolver) (*Message, error) {
	m := NewMessage(md)
	r := coded.NewReader(data)
	if err := Parse(r, m, factory, resolver); err != nil {
		return nil, err
	}
	return m, nil
}

// Merge copies every set field from src into dst: scalars and bytes
// overwrite, repeated fields append, submessages recursively merge,
// and map entries are upserted by key, matching proto's standard merge
// semantics.
func Merge(dst, src *Message) error {
	if dst.desc != src.desc {
		return fmt.Errorf("protoreflect: cannot merge message of type %s into %s",
			src.desc.GetFullyQualifiedName(), dst.desc.GetFullyQualifiedName())
	}
	var mergeErr error
	src.fields.Range(func(fd *protodesc.FieldDescriptor, val interface{}) bool {
		mergeErr = mergeField(dst, fd, val)
		return mergeErr == nil
	})
	if mergeErr != nil {
		return mergeErr
	}
	for _, uf := range src.fields.UnknownFields() {
		mergeUnknownField(dst, uf)
	}
	return nil
}

func mergeUnknownField(dst *Message, uf protoset.UnknownField) {
	for _, v := range uf.Varint {
		dst.fields.AddUnknownVarint(uf.Number, v)
	}
	for _, v := range uf.Fixed32 {
		dst.fields.AddUnknownFixed32(uf.Number, v)
	}
	for _, v := range uf.Fixed64 {
		dst.fields.AddUnknownFixed64(uf.Number, v)
	}
	for _, b := range uf.LengthDelimited {
		dst.fields.AddUnknownBytes(uf.Number, b)
	}
	for _, g := range uf.Groups {
		dst.fields.AddUnknownGroup(uf.Number, g)
	}
	dst.markDirty()
}

func mergeField(dst *Message, fd *protodesc.FieldDescriptor, srcVal interface{}) error {
	if fd.IsMap() {
		return mergeMapField(dst, fd, srcVal.([]interface{}))
	}
	if fd.IsRepeated() {
		for _, e := range srcVal.([]interface{}) {
			if err := dst.AddRepeated(fd, cloneIfMessage(e)); err != nil {
				return err
			}
		}
		return nil
	}
	if fd.GetType().Category() == protodesc.CategorySubmessage {
		if existing, ok := dst.fields.Get(fd).(*Message); ok && dst.fields.Has(fd) {
			return Merge(existing, srcVal.(*Message))
		}
		return dst.Set(fd, cloneMessage(srcVal.(*Message)))
	}
	return dst.Set(fd, srcVal)
}

// mergeMapField upserts each source entry into dst's existing entries
// by key, so a later merge's value for a given key wins without
// disturbing the position or value of unrelated keys.
func mergeMapField(dst *Message, fd *protodesc.FieldDescriptor, srcEntries []interface{}) error {
	keyFD := fd.GetMessageType().FindFieldByNumber(1)
	existing, _ := dst.fields.Get(fd).([]interface{})
	merged := make([]interface{}, len(existing))
	copy(merged, existing)
	idx := make(map[interface{}]int, len(merged))
	for i, e := range merged {
		idx[e.(*Message).fields.Get(keyFD)] = i
	}
	for _, se := range srcEntries {
		entry := cloneMessage(se.(*Message))
		entry.adopt(dst)
		key := entry.fields.Get(keyFD)
		if i, ok := idx[key]; ok {
			merged[i] = entry
		} else {
			idx[key] = len(merged)
			merged = append(merged, entry)
		}
	}
	if err := dst.fields.SetRepeated(fd, merged); err != nil {
		return err
	}
	dst.markDirty()
	return nil
}

func cloneIfMessage(v interface{}) interface{} {
	if m, ok := v.(*Message); ok {
		return cloneMessage(m)
	}
	return v
}

// Clone deep-copies m into a freshly allocated message tree.
func Clone(m *Message) *Message {
	return cloneMessage(m)
}

func cloneMessage(m *Message) *Message {
	out := NewMessage(m.desc)
	m.fields.Range(func(fd *protodesc.FieldDescriptor, val interface{}) bool {
		if fd.IsRepeated() {
			for _, e := range val.([]interface{}) {
				_ = out.AddRepeated(fd, cloneIfMessage(e))
			}
		} else {
			_ = out.Set(fd, cloneIfMessage(val))
		}
		return true
	})
	for _, uf := range m.fields.UnknownFields() {
		mergeUnknownField(out, uf)
	}
	return out
}

// Equal reports deep value equality between a and b: same descriptor,
// same set of fields (map fields compared as unordered key/value sets,
// everything else order-sensitive), with message-typed fields compared
// recursively, plus equal unknown-field contents.
func Equal(a, b *Message) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.desc != b.desc {
		return false
	}
	eq := true
	a.fields.Range(func(fd *protodesc.FieldDescriptor, av interface{}) bool {
		if !b.fields.Has(fd) {
			eq = false
			return false
		}
		if !valuesEqual(fd, av, b.fields.Get(fd)) {
			eq = false
			return false
		}
		return true
	})
	if !eq {
		return false
	}
	var extra bool
	b.fields.Range(func(fd *protodesc.FieldDescriptor, _ interface{}) bool {
		if !a.fields.Has(fd) {
			extra = true
			return false
		}
		return true
	})
	if extra {
		return false
	}
	return unknownFieldsEqual(a.fields.UnknownFields(), b.fields.UnknownFields())
}

func unknownFieldsEqual(as, bs []protoset.UnknownField) bool {
	if len(as) != len(bs) {
		return false
	}
	byNum := make(map[int32]protoset.UnknownField, len(bs))
	for _, uf := range bs {
		byNum[uf.Number] = uf
	}
	for _, a := range as {
		b, ok := byNum[a.Number]
		if !ok {
			return false
		}
		if len(a.Varint) != len(b.Varint) || len(a.Fixed32) != len(b.Fixed32) ||
			len(a.Fixed64) != len(b.Fixed64) || len(a.LengthDelimited) != len(b.LengthDelimited) ||
			len(a.Groups) != len(b.Groups) {
			return false
		}
		for i := range a.Varint {
			if a.Varint[i] != b.Varint[i] {
				return false
			}
		}
		for i := range a.Fixed32 {
			if a.Fixed32[i] != b.Fixed32[i] {
				return false
			}
		}
		for i := range a.Fixed64 {
			if a.Fixed64[i] != b.Fixed64[i] {
				return false
			}
		}
		for i := range a.LengthDelimited {
			if string(a.LengthDelimited[i]) != string(b.LengthDelimited[i]) {
				return false
			}
		}
		for i := range a.Groups {
			if string(a.Groups[i]) != string(b.Groups[i]) {
				return false
			}
		}
	}
	return true
}

func valuesEqual(fd *protodesc.FieldDescriptor, av, bv interface{}) bool {
	if fd.IsMap() {
		return mapEntriesEqual(fd, av.([]interface{}), bv.([]interface{}))
	}
	if fd.IsRepeated() {
		as := av.([]interface{})
		bs := bv.([]interface{})
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !elementEqual(fd, as[i], bs[i]) {
				return false
			}
		}
		return true
	}
	return elementEqual(fd, av, bv)
}

// mapEntriesEqual compares two map fields' entry lists as unordered
// key/value mappings, since wire order and builder insertion order
// need not match between two otherwise-equal messages.
func mapEntriesEqual(fd *protodesc.FieldDescriptor, as, bs []interface{}) bool {
	if len(as) != len(bs) {
		return false
	}
	keyFD := fd.GetMessageType().FindFieldByNumber(1)
	valFD := fd.GetMessageType().FindFieldByNumber(2)
	am := make(map[interface{}]interface{}, len(as))
	for _, e := range as {
		msg := e.(*Message)
		am[msg.fields.Get(keyFD)] = msg.fields.Get(valFD)
	}
	for _, e := range bs {
		msg := e.(*Message)
		k := msg.fields.Get(keyFD)
		av, ok := am[k]
		if !ok {
			return false
		}
		if !elementEqual(valFD, av, msg.fields.Get(valFD)) {
			return false
		}
	}
	return true
}

func elementEqual(fd *protodesc.FieldDescriptor, av, bv interface{}) bool {
	if fd.GetType().Category() == protodesc.CategorySubmessage {
		am, _ := av.(*Message)
		bm, _ := bv.(*Message)
		return Equal(am, bm)
	}
	if fd.GetType() == protodesc.Bytes {
		ab, bb := protoset.BytesOf(av), protoset.BytesOf(bv)
		if len(ab) != len(bb) {
			return false
		}
		for i := range ab {
			if ab[i] != bb[i] {
				return false
			}
		}
		return true
	}
	return av == bv
}

// Hash returns a content hash over every set field plus unknown-field
// content, suitable as a map key surrogate; structurally equal messages
// (per Equal) always hash the same regardless of field or map-entry
// insertion order, since fields are visited in ascending field-number
// order and map entries are sorted by key before mixing. Computed with
// xxhash over a canonical byte encoding of the visited values.
func Hash(m *Message) uint64 {
	return xxhash.Sum64(appendHash(m, nil))
}

func appendHash(m *Message, buf []byte) []byte {
	nums := fieldNumbersSorted(m)
	for _, n := range nums {
		fd := m.desc.FindFieldByNumber(n)
		buf = wire.AppendVarint(buf, uint64(n))
		buf = appendFieldHash(fd, m.fields.Get(fd), buf)
	}
	for _, uf := range sortedUnknownFields(m.fields) {
		buf = appendUnknownHash(uf, buf)
	}
	return buf
}

func appendUnknownHash(uf protoset.UnknownField, buf []byte) []byte {
	buf = wire.AppendVarint(buf, uint64(uf.Number))
	for _, v := range uf.Varint {
		buf = wire.AppendVarint(buf, v)
	}
	for _, v := range uf.Fixed32 {
		buf = wire.AppendFixed32(buf, v)
	}
	for _, v := range uf.Fixed64 {
		buf = wire.AppendFixed64(buf, v)
	}
	for _, b := range uf.LengthDelimited {
		buf = append(buf, b...)
	}
	for _, g := range uf.Groups {
		buf = append(buf, g...)
	}
	return buf
}

func fieldNumbersSorted(m *Message) []int32 {
	var nums []int32
	m.fields.Range(func(fd *protodesc.FieldDescriptor, _ interface{}) bool {
		nums = append(nums, fd.GetNumber())
		return true
	})
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	return nums
}

func appendFieldHash(fd *protodesc.FieldDescriptor, v interface{}, buf []byte) []byte {
	if fd.IsMap() {
		entries := append([]interface{}{}, v.([]interface{})...)
		keyFD := fd.GetMessageType().FindFieldByNumber(1)
		sort.SliceStable(entries, func(i, j int) bool {
			ki := entries[i].(*Message).fields.Get(keyFD)
			kj := entries[j].(*Message).fields.Get(keyFD)
			return mapKeyLess(ki, kj)
		})
		for _, e := range entries {
			buf = appendElementHash(fd, e, buf)
		}
		return buf
	}
	if fd.IsRepeated() {
		for _, e := range v.([]interface{}) {
			buf = appendElementHash(fd, e, buf)
		}
		return buf
	}
	return appendElementHash(fd, v, buf)
}

func appendElementHash(fd *protodesc.FieldDescriptor, v interface{}, buf []byte) []byte {
	if fd.GetType() == protodesc.Bytes {
		return append(buf, protoset.BytesOf(v)...)
	}
	switch x := v.(type) {
	case *Message:
		buf = wire.AppendFixed64(buf, Hash(x))
	case string:
		buf = append(buf, x...)
	case int32:
		buf = wire.AppendVarint(buf, uint64(uint32(x)))
	case uint32:
		buf = wire.AppendVarint(buf, uint64(x))
	case int64:
		buf = wire.AppendVarint(buf, uint64(x))
	case uint64:
		buf = wire.AppendVarint(buf, x)
	case bool:
		if x {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case float64:
		buf = wire.AppendFixed64(buf, math.Float64bits(x))
	default:
		buf = append(buf, 0)
	}
	return buf
}
