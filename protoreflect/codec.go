package protoreflect

import (
	"fmt"
	"math"

	"github.com/protoruntime/protoruntime/coded"
	"github.com/protoruntime/protoruntime/internal/protoerr"
	"github.com/protoruntime/protoruntime/protodesc"
	"github.com/protoruntime/protoruntime/protoset"
	"github.com/protoruntime/protoruntime/wire"
)

// sizeField returns the number of bytes writeField would write for
// fd's current value val, dispatching on category and cardinality. w
// is unused by every path but kept as a parameter for symmetry with
// writeField's signature; it is always passed nil from Size().
func sizeField(_ *coded.Writer, fd *protodesc.FieldDescriptor, val interface{}) int {
	if fd.IsMap() {
		return sizeMapField(fd, val.([]interface{}))
	}
	if fd.IsRepeated() {
		elems := val.([]interface{})
		if len(elems) == 0 {
			return 0
		}
		if fd.IsPacked() {
			return sizePackedField(fd, elems)
		}
		total := 0
		for _, e := range elems {
			total += wire.SizeTag(fd.GetNumber()) + sizeElement(fd, e)
		}
		return total
	}
	return wire.SizeTag(fd.GetNumber()) + sizeElement(fd, val)
}

func sizePackedField(fd *protodesc.FieldDescriptor, elems []interface{}) int {
	payload := 0
	for _, e := range elems {
		payload += sizeScalarPayload(fd, e)
	}
	return wire.SizeTag(fd.GetNumber()) + wire.SizeVarint(uint64(payload)) + payload
}

func sizeMapField(fd *protodesc.FieldDescriptor, entries []interface{}) int {
	total := 0
	for _, e := range entries {
		total += wire.SizeTag(fd.GetNumber()) + sizeElement(fd, e)
	}
	return total
}

// sizeElement returns the bytes an individual repeated/singular element
// occupies, not counting its own field tag (the Group type is the one
// exception: its "payload" includes the matching END_GROUP tag, since
// groups have no length prefix to carry that accounting instead).
func sizeElement(fd *protodesc.FieldDescriptor, v interface{}) int {
	switch fd.GetType() {
	case protodesc.Group:
		msg := v.(*Message)
		return msg.Size() + wire.SizeTag(fd.GetNumber())
	case protodesc.Message:
		msg := v.(*Message)
		sz := msg.Size()
		return wire.SizeVarint(uint64(sz)) + sz
	case protodesc.String:
		s := v.(string)
		return wire.SizeVarint(uint64(len(s))) + len(s)
	case protodesc.Bytes:
		b := protoset.BytesOf(v)
		return wire.SizeVarint(uint64(len(b))) + len(b)
	default:
		return sizeScalarPayload(fd, v)
	}
}

// sizeScalarPayload is the size of just the encoded value for
// primitive (non length-delimited, non submessage) field types — what
// packed-repeated encoding concatenates directly, with no per-element
// tag or length prefix.
func sizeScalarPayload(fd *protodesc.FieldDescriptor, v interface{}) int {
	switch fd.GetType() {
	case protodesc.Double, protodesc.Fixed64, protodesc.Sfixed64:
		return 8
	case protodesc.Float, protodesc.Fixed32, protodesc.Sfixed32:
		return 4
	case protodesc.Bool:
		return 1
	case protodesc.Int32:
		return wire.SizeVarint(uint64(int64(v.(int32))))
	case protodesc.Int64:
		return wire.SizeVarint(uint64(v.(int64)))
	case protodesc.Uint32:
		return wire.SizeVarint(uint64(v.(uint32)))
	case protodesc.Uint64:
		return wire.SizeVarint(v.(uint64))
	case protodesc.Enum:
		return wire.SizeVarint(uint64(int64(v.(int32))))
	case protodesc.Sint32:
		return wire.SizeVarint(wire.EncodeZigZag32(v.(int32)))
	case protodesc.Sint64:
		return wire.SizeVarint(wire.EncodeZigZag64(v.(int64)))
	default:
		panic(fmt.Sprintf("protoreflect: unreachable field type %s in sizeScalarPayload", fd.GetType()))
	}
}

// writeField writes fd's tag(s) and value(s) to w, dispatching on
// category and cardinality the same way sizeField measures them. Map
// fields sort their entries by key first when w is in deterministic
// mode.
func writeField(w *coded.Writer, fd *protodesc.FieldDescriptor, val interface{}) error {
	if fd.IsMap() {
		return writeMapField(w, fd, val.([]interface{}))
	}
	if fd.IsRepeated() {
		elems := val.([]interface{})
		if len(elems) == 0 {
			return nil
		}
		if fd.IsPacked() {
			return writePackedField(w, fd, elems)
		}
		for _, e := range elems {
			if err := writeSingleField(w, fd, e); err != nil {
				return err
			}
		}
		return nil
	}
	return writeSingleField(w, fd, val)
}

func writePackedField(w *coded.Writer, fd *protodesc.FieldDescriptor, elems []interface{}) error {
	if err := w.WriteTag(fd.GetNumber(), wire.BytesType); err != nil {
		return err
	}
	payload := 0
	for _, e := range elems {
		payload += sizeScalarPayload(fd, e)
	}
	if err := w.WriteVarint(uint64(payload)); err != nil {
		return err
	}
	for _, e := range elems {
		if err := writeScalarPayload(w, fd, e); err != nil {
			return err
		}
	}
	return nil
}

func writeMapField(w *coded.Writer, fd *protodesc.FieldDescriptor, entries []interface{}) error {
	if w.Deterministic() {
		entries = sortedMapEntries(fd, entries)
	}
	for _, e := range entries {
		if err := writeSingleField(w, fd, e); err != nil {
			return err
		}
	}
	return nil
}

// sortedMapEntries returns a new slice with entries ordered by key:
// numeric keys ascending, string keys by UTF-16 code unit (matching
// protobuf's canonical deterministic map ordering), bool false before
// true.
func sortedMapEntries(fd *protodesc.FieldDescriptor, entries []interface{}) []interface{} {
	keyFD := fd.GetMessageType().FindFieldByNumber(1)
	out := make([]interface{}, len(entries))
	copy(out, entries)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			ki := out[j].(*Message).fields.Get(keyFD)
			kj := out[j-1].(*Message).fields.Get(keyFD)
			if mapKeyLess(ki, kj) {
				out[j-1], out[j] = out[j], out[j-1]
			} else {
				break
			}
		}
	}
	return out
}

// mapKeyLess orders two map keys of the same underlying Go type per
// protobuf's deterministic serialization rule.
func mapKeyLess(a, b interface{}) bool {
	switch av := a.(type) {
	case string:
		return utf16Less(av, b.(string))
	case bool:
		return !av && b.(bool)
	case int32:
		return av < b.(int32)
	case uint32:
		return av < b.(uint32)
	case int64:
		return av < b.(int64)
	case uint64:
		return av < b.(uint64)
	default:
		return false
	}
}

// utf16Less compares two strings by UTF-16 code unit, the ordering
// protobuf's map-sorting spec uses regardless of host language string
// representation.
func utf16Less(a, b string) bool {
	ar := []rune(a)
	br := []rune(b)
	for i := 0; i < len(ar) && i < len(br); i++ {
		au := utf16Units(ar[i])
		bu := utf16Units(br[i])
		for k := 0; k < len(au) && k < len(bu); k++ {
			if au[k] != bu[k] {
				return au[k] < bu[k]
			}
		}
		if len(au) != len(bu) {
			return len(au) < len(bu)
		}
	}
	return len(ar) < len(br)
}

func utf16Units(r rune) []uint16 {
	if r < 0x10000 {
		return []uint16{uint16(r)}
	}
	r -= 0x10000
	return []uint16{uint16(0xD800 + (r >> 10)), uint16(0xDC00 + (r & 0x3FF))}
}

func writeSingleField(w *coded.Writer, fd *protodesc.FieldDescriptor, v interface{}) error {
	switch fd.GetType() {
	case protodesc.Group:
		if err := w.WriteTag(fd.GetNumber(), wire.StartGroup); err != nil {
			return err
		}
		if err := v.(*Message).Serialize(w); err != nil {
			return err
		}
		return w.WriteTag(fd.GetNumber(), wire.EndGroup)
	case protodesc.Message:
		if err := w.WriteTag(fd.GetNumber(), wire.BytesType); err != nil {
			return err
		}
		msg := v.(*Message)
		if err := w.WriteVarint(uint64(msg.Size())); err != nil {
			return err
		}
		return msg.Serialize(w)
	case protodesc.String:
		if err := w.WriteTag(fd.GetNumber(), wire.BytesType); err != nil {
			return err
		}
		return w.WriteBytes([]byte(v.(string)))
	case protodesc.Bytes:
		if err := w.WriteTag(fd.GetNumber(), wire.BytesType); err != nil {
			return err
		}
		return w.WriteBytes(protoset.BytesOf(v))
	default:
		if err := w.WriteTag(fd.GetNumber(), fd.GetType().WireType()); err != nil {
			return err
		}
		return writeScalarPayload(w, fd, v)
	}
}

func writeScalarPayload(w *coded.Writer, fd *protodesc.FieldDescriptor, v interface{}) error {
	switch fd.GetType() {
	case protodesc.Double:
		return w.WriteFixed64(doubleBits(v.(float64)))
	case protodesc.Float:
		return w.WriteFixed32(floatBits(v.(float64)))
	case protodesc.Fixed64:
		return w.WriteFixed64(v.(uint64))
	case protodesc.Sfixed64:
		return w.WriteFixed64(uint64(v.(int64)))
	case protodesc.Fixed32:
		return w.WriteFixed32(v.(uint32))
	case protodesc.Sfixed32:
		return w.WriteFixed32(uint32(v.(int32)))
	case protodesc.Bool:
		if v.(bool) {
			return w.WriteVarint(1)
		}
		return w.WriteVarint(0)
	case protodesc.Int32:
		return w.WriteVarint(uint64(int64(v.(int32))))
	case protodesc.Int64:
		return w.WriteVarint(uint64(v.(int64)))
	case protodesc.Uint32:
		return w.WriteVarint(uint64(v.(uint32)))
	case protodesc.Uint64:
		return w.WriteVarint(v.(uint64))
	case protodesc.Enum:
		return w.WriteVarint(uint64(int64(v.(int32))))
	case protodesc.Sint32:
		return w.WriteVarint(wire.EncodeZigZag32(v.(int32)))
	case protodesc.Sint64:
		return w.WriteVarint(wire.EncodeZigZag64(v.(int64)))
	default:
		panic(fmt.Sprintf("protoreflect: unreachable field type %s in writeScalarPayload", fd.GetType()))
	}
}

// parseFields reads fields from r into m until end-of-frame (ordinary
// message framing) or, when groupNumber >= 0, until the matching
// END_GROUP tag is consumed — the one reader loop both message and
// group bodies share.
func parseFields(r *coded.Reader, m *Message, factory Factory, resolver ExtensionResolver, groupNumber int32) error {
	for {
		number, wt, err := r.ReadTag()
		if err != nil {
			return err
		}
		if number == 0 {
			if groupNumber >= 0 {
				return &protoerr.Truncated{Context: "group missing END_GROUP"}
			}
			return nil
		}
		if wt == wire.EndGroup {
			if groupNumber < 0 || number != groupNumber {
				return &protoerr.InvalidWireType{WireType: int8(wt)}
			}
			return nil
		}
		fd := resolveField(m.desc, number, resolver)
		if fd == nil {
			if err := skipAndRecordUnknown(r, m, number, wt); err != nil {
				return err
			}
			continue
		}
		if err := decodeOne(r, m, fd, wt, factory, resolver); err != nil {
			return err
		}
	}
}

func resolveField(md *protodesc.MessageDescriptor, number int32, resolver ExtensionResolver) *protodesc.FieldDescriptor {
	if fd := md.FindFieldByNumber(number); fd != nil {
		return fd
	}
	if resolver != nil && md.IsExtension(number) {
		return resolver.Find(md.GetFullyQualifiedName(), number)
	}
	return nil
}

// decodeOne reads one field occurrence (or a whole packed run) for fd
// from r, storing it into m.
func decodeOne(r *coded.Reader, m *Message, fd *protodesc.FieldDescriptor, wt wire.Type, factory Factory, resolver ExtensionResolver) error {
	if fd.IsRepeated() && fd.GetType().IsPackable() && wt == wire.BytesType {
		return readPacked(r, m, fd)
	}
	if wt != fd.GetType().WireType() {
		return &protoerr.InvalidWireType{Field: fd.GetFullyQualifiedName(), WireType: int8(wt)}
	}
	// A singular submessage field may legally appear more than once on
	// the wire (e.g. two partial updates in the same stream); standard
	// proto semantics call for merging those occurrences rather than
	// letting the later one clobber the earlier, the same rule Merge
	// applies between two whole messages.
	if !fd.IsRepeated() && fd.GetType().Category() == protodesc.CategorySubmessage && m.fields.Has(fd) {
		existing := m.fields.Get(fd).(*Message)
		if err := mergeSubmessageField(r, existing, fd, factory, resolver); err != nil {
			return err
		}
		m.markDirty()
		return nil
	}
	v, err := readElement(r, fd, factory, resolver)
	if err != nil {
		return err
	}
	if ev, ok := v.(int32); ok && enumValueUnknown(fd, ev) {
		m.fields.AddUnknownVarint(fd.GetNumber(), uint64(int64(ev)))
		m.markDirty()
		return nil
	}
	if fd.IsRepeated() {
		return m.AddRepeated(fd, v)
	}
	return m.Set(fd, v)
}

// enumValueUnknown reports whether fd is a closed (proto2-style) enum
// field and v is not one of its declared values, meaning it must be
// preserved as an unknown field rather than stored as fd's value. Open
// (proto3/editions) enums keep any in-range int32 as a known value.
func enumValueUnknown(fd *protodesc.FieldDescriptor, v int32) bool {
	if fd.GetType() != protodesc.Enum {
		return false
	}
	et := fd.GetEnumType()
	return et != nil && et.IsClosed() && et.FindValueByNumber(v) == nil
}

// mergeSubmessageField parses a repeated occurrence of a singular
// submessage field directly into the already-stored instance, rather
// than building a fresh one and merging afterward.
func mergeSubmessageField(r *coded.Reader, existing *Message, fd *protodesc.FieldDescriptor, factory Factory, resolver ExtensionResolver) error {
	if fd.GetType() == protodesc.Group {
		if err := r.EnterMessage(); err != nil {
			return err
		}
		err := parseFields(r, existing, factory, resolver, fd.GetNumber())
		r.ExitMessage()
		return err
	}
	n, err := r.ReadVarint()
	if err != nil {
		return err
	}
	if n > uint64(1<<31) {
		return &protoerr.NegativeSize{Size: int64(n)}
	}
	token, err := r.PushLimit(int64(n))
	if err != nil {
		return err
	}
	if err := r.EnterMessage(); err != nil {
		r.PopLimit(token)
		return err
	}
	err = parseFields(r, existing, factory, resolver, -1)
	r.ExitMessage()
	r.PopLimit(token)
	return err
}

// readPacked decodes a packed-repeated run by framing it with a push
// limit on r itself rather than spinning up a fresh Reader, so the
// enclosing size limit and recursion-depth accounting stay intact.
func readPacked(r *coded.Reader, m *Message, fd *protodesc.FieldDescriptor) error {
	n, err := r.ReadVarint()
	if err != nil {
		return err
	}
	if n > uint64(1<<31) {
		return &protoerr.NegativeSize{Size: int64(n)}
	}
	token, err := r.PushLimit(int64(n))
	if err != nil {
		return err
	}
	for !r.IsAtEnd() {
		v, err := readScalarPayload(r, fd)
		if err != nil {
			r.PopLimit(token)
			return err
		}
		if ev, ok := v.(int32); ok && enumValueUnknown(fd, ev) {
			m.fields.AddUnknownVarint(fd.GetNumber(), uint64(int64(ev)))
			m.markDirty()
			continue
		}
		if err := m.AddRepeated(fd, v); err != nil {
			r.PopLimit(token)
			return err
		}
	}
	r.PopLimit(token)
	return nil
}

func readElement(r *coded.Reader, fd *protodesc.FieldDescriptor, factory Factory, resolver ExtensionResolver) (interface{}, error) {
	switch fd.GetType() {
	case protodesc.Group:
		return readGroupField(r, fd, factory, resolver)
	case protodesc.Message:
		return readMessageField(r, fd, factory, resolver)
	case protodesc.String:
		b, err := r.ReadBytes(r.Aliasing())
		if err != nil {
			return nil, err
		}
		if r.RequireUTF8() && !wire.ValidUTF8(b) {
			return nil, &protoerr.InvalidUTF8{Field: fd.GetFullyQualifiedName()}
		}
		return string(b), nil
	case protodesc.Bytes:
		return r.ReadBytes(r.Aliasing())
	default:
		return readScalarPayload(r, fd)
	}
}

// readMessageField frames the submessage with a push limit on r itself
// instead of allocating a fresh Reader over a copied byte range, so the
// recursion-depth counter and any enclosing streaming size limit remain
// correctly in effect for arbitrarily deep message nesting.
func readMessageField(r *coded.Reader, fd *protodesc.FieldDescriptor, factory Factory, resolver ExtensionResolver) (interface{}, error) {
	n, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(1<<31) {
		return nil, &protoerr.NegativeSize{Size: int64(n)}
	}
	token, err := r.PushLimit(int64(n))
	if err != nil {
		return nil, err
	}
	if err := r.EnterMessage(); err != nil {
		r.PopLimit(token)
		return nil, err
	}
	child := factory(fd.GetMessageType())
	err = parseFields(r, child, factory, resolver, -1)
	r.ExitMessage()
	r.PopLimit(token)
	if err != nil {
		return nil, err
	}
	return child, nil
}

func readGroupField(r *coded.Reader, fd *protodesc.FieldDescriptor, factory Factory, resolver ExtensionResolver) (interface{}, error) {
	child := factory(fd.GetMessageType())
	if err := r.EnterMessage(); err != nil {
		return nil, err
	}
	defer r.ExitMessage()
	if err := parseFields(r, child, factory, resolver, fd.GetNumber()); err != nil {
		return nil, err
	}
	return child, nil
}

func readScalarPayload(r *coded.Reader, fd *protodesc.FieldDescriptor) (interface{}, error) {
	switch fd.GetType() {
	case protodesc.Double:
		v, err := r.ReadFixed64()
		return bitsToDouble(v), err
	case protodesc.Float:
		v, err := r.ReadFixed32()
		return bitsToFloat(v), err
	case protodesc.Fixed64:
		return r.ReadFixed64()
	case protodesc.Sfixed64:
		v, err := r.ReadFixed64()
		return int64(v), err
	case protodesc.Fixed32:
		return r.ReadFixed32()
	case protodesc.Sfixed32:
		v, err := r.ReadFixed32()
		return int32(v), err
	case protodesc.Bool:
		v, err := r.ReadVarint()
		return v != 0, err
	case protodesc.Int32:
		v, err := r.ReadVarint()
		return int32(v), err
	case protodesc.Int64:
		v, err := r.ReadVarint()
		return int64(v), err
	case protodesc.Uint32:
		v, err := r.ReadVarint()
		return uint32(v), err
	case protodesc.Uint64:
		return r.ReadVarint()
	case protodesc.Enum:
		v, err := r.ReadVarint()
		return int32(v), err
	case protodesc.Sint32:
		v, err := r.ReadVarint()
		return wire.DecodeZigZag32(v), err
	case protodesc.Sint64:
		v, err := r.ReadVarint()
		return wire.DecodeZigZag64(v), err
	default:
		panic(fmt.Sprintf("protoreflect: unreachable field type %s in readScalarPayload", fd.GetType()))
	}
}

// skipAndRecordUnknown skips a field's payload but first captures its
// raw bytes into m's unknown-field bucket, keyed by number and wire
// type, so an unrecognized field round-trips unchanged through
// parse/serialize.
func skipAndRecordUnknown(r *coded.Reader, m *Message, number int32, wt wire.Type) error {
	switch wt {
	case wire.VarintType:
		v, err := r.ReadVarint()
		if err != nil {
			return err
		}
		m.fields.AddUnknownVarint(number, v)
	case wire.Fixed32Type:
		v, err := r.ReadFixed32()
		if err != nil {
			return err
		}
		m.fields.AddUnknownFixed32(number, v)
	case wire.Fixed64Type:
		v, err := r.ReadFixed64()
		if err != nil {
			return err
		}
		m.fields.AddUnknownFixed64(number, v)
	case wire.BytesType:
		b, err := r.ReadBytes(r.Aliasing())
		if err != nil {
			return err
		}
		m.fields.AddUnknownBytes(number, b)
	case wire.StartGroup:
		raw, err := captureGroupBody(r, number)
		if err != nil {
			return err
		}
		m.fields.AddUnknownGroup(number, raw)
	default:
		return &protoerr.InvalidWireType{WireType: int8(wt)}
	}
	m.markDirty()
	return nil
}

// captureGroupBody re-encodes an unrecognized group field's full wire
// representation (its own START_GROUP tag through its matching
// END_GROUP tag) by walking and re-emitting every nested field,
// recursing through nested unknown groups the same way. The result is
// stored verbatim so Serialize can replay it with WriteRaw.
func captureGroupBody(r *coded.Reader, number int32) ([]byte, error) {
	if err := r.EnterMessage(); err != nil {
		return nil, err
	}
	defer r.ExitMessage()
	buf := wire.AppendTag(nil, number, wire.StartGroup)
	for {
		n, wt, err := r.ReadTag()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, &protoerr.Truncated{Context: "group missing END_GROUP"}
		}
		if wt == wire.EndGroup {
			if n != number {
				return nil, &protoerr.InvalidWireType{WireType: int8(wt)}
			}
			buf = wire.AppendTag(buf, number, wire.EndGroup)
			return buf, nil
		}
		buf = wire.AppendTag(buf, n, wt)
		switch wt {
		case wire.VarintType:
			v, err := r.ReadVarint()
			if err != nil {
				return nil, err
			}
			buf = wire.AppendVarint(buf, v)
		case wire.Fixed32Type:
			v, err := r.ReadFixed32()
			if err != nil {
				return nil, err
			}
			buf = wire.AppendFixed32(buf, v)
		case wire.Fixed64Type:
			v, err := r.ReadFixed64()
			if err != nil {
				return nil, err
			}
			buf = wire.AppendFixed64(buf, v)
		case wire.BytesType:
			b, err := r.ReadBytes(r.Aliasing())
			if err != nil {
				return nil, err
			}
			buf = wire.AppendVarint(buf, uint64(len(b)))
			buf = append(buf, b...)
		case wire.StartGroup:
			nested, err := captureGroupBody(r, n)
			if err != nil {
				return nil, err
			}
			// nested already begins with its own start tag; drop the one
			// just appended above to avoid writing it twice.
			buf = buf[:len(buf)-wire.SizeTag(n)]
			buf = append(buf, nested...)
		default:
			return nil, &protoerr.InvalidWireType{WireType: int8(wt)}
		}
	}
}

// parseMessageSet decodes the legacy MessageSet wire shape: repeated
// groups each carrying a type-id (field 2) and a message payload
// (field 3), dispatched through resolver the same way an ordinary
// extension field would be, falling back to raw unknown storage for
// unregistered type ids.
func parseMessageSet(r *coded.Reader, m *Message, factory Factory, resolver ExtensionResolver) error {
	for {
		number, wt, err := r.ReadTag()
		if err != nil {
			return err
		}
		if number == 0 {
			return nil
		}
		if number != 1 || wt != wire.StartGroup {
			if err := skipAndRecordUnknown(r, m, number, wt); err != nil {
				return err
			}
			continue
		}
		if err := parseMessageSetItem(r, m, factory, resolver); err != nil {
			return err
		}
	}
}

func parseMessageSetItem(r *coded.Reader, m *Message, factory Factory, resolver ExtensionResolver) error {
	if err := r.EnterMessage(); err != nil {
		return err
	}
	defer r.ExitMessage()
	var typeID int32
	var payload []byte
	haveType, havePayload := false, false
	for {
		number, wt, err := r.ReadTag()
		if err != nil {
			return err
		}
		if number == 0 {
			return &protoerr.Truncated{Context: "message set item missing END_GROUP"}
		}
		if wt == wire.EndGroup && number == 1 {
			break
		}
		switch {
		case number == 2 && wt == wire.VarintType:
			v, err := r.ReadVarint()
			if err != nil {
				return err
			}
			typeID = int32(v)
			haveType = true
		case number == 3 && wt == wire.BytesType:
			b, err := r.ReadBytes(r.Aliasing())
			if err != nil {
				return err
			}
			payload = b
			havePayload = true
		default:
			if err := r.SkipField(wt); err != nil {
				return err
			}
		}
	}
	if !haveType || !havePayload {
		return nil
	}
	var fd *protodesc.FieldDescriptor
	if resolver != nil {
		fd = resolver.Find(m.desc.GetFullyQualifiedName(), typeID)
	}
	if fd == nil || fd.GetType() != protodesc.Message {
		reencoded := reencodeMessageSetItem(typeID, payload)
		m.fields.AddUnknownGroup(1, reencoded)
		m.markDirty()
		return nil
	}
	// The item's type-id and payload can arrive in either order inside
	// the group, so the payload is already fully buffered by the time
	// its type is known; parsing it with a fresh Reader (recursion depth
	// reset to 0) is acceptable here since MessageSet extension payloads
	// are not expected to nest anywhere near the configured limit.
	sub := coded.NewReader(payload)
	child := factory(fd.GetMessageType())
	if err := parseFields(sub, child, factory, resolver, -1); err != nil {
		return err
	}
	return m.Set(fd, child)
}

func reencodeMessageSetItem(typeID int32, payload []byte) []byte {
	buf := wire.AppendTag(nil, 1, wire.StartGroup)
	buf = wire.AppendTag(buf, 2, wire.VarintType)
	buf = wire.AppendVarint(buf, uint64(typeID))
	buf = wire.AppendTag(buf, 3, wire.BytesType)
	buf = wire.AppendVarint(buf, uint64(len(payload)))
	buf = append(buf, payload...)
	buf = wire.AppendTag(buf, 1, wire.EndGroup)
	return buf
}

func doubleBits(v float64) uint64   { return math.Float64bits(v) }
func floatBits(v float64) uint32    { return math.Float32bits(float32(v)) }
func bitsToDouble(v uint64) float64 { return math.Float64frombits(v) }
func bitsToFloat(v uint32) float64  { return float64(math.Float32frombits(v)) }
