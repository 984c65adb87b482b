// Package coded implements the buffered reading and writing streams
// that sit between the raw wire package and the reflection engine:
// tag-at-a-time decoding with push/pop length limits and a recursion
// guard, and tag-at-a-time encoding with a deterministic-write mode.
// It is grounded on codec.Buffer, generalized from a single flat-slice
// buffer into a polymorphic source/sink model.
package coded

import (
	"io"

	"github.com/protoruntime/protoruntime/internal/protoerr"
	"github.com/protoruntime/protoruntime/protoconfig"
	"github.com/protoruntime/protoruntime/wire"
)

// Reader is a buffered, limit-aware reader over the protobuf wire format.
type Reader struct {
	buf []byte // unconsumed bytes available right now
	pos int    // index of next unread byte within buf

	src        source
	streaming  bool // true only for a streamSource, for size-limit enforcement
	totalRead  int64
	opts       protoconfig.ReaderOptions

	consumed   int64 // total bytes consumed (tag+payload) since construction
	limit      int64 // absolute `consumed` value at which the current frame ends; noLimit if none
	limitStack []int64

	depth int

	lastTag int32
}

const noLimit = int64(1)<<62 - 1

// NewReader creates a Reader over a fully-buffered flat slice. No
// refill is possible; EOF is reached once buf is exhausted.
func NewReader(buf []byte, opts ...protoconfig.ReaderOption) *Reader {
	return newReader(buf, flatSource{}, false, opts)
}

// NewScatterReader creates a Reader over a scatter of contiguous
// buffers, refilling chunk-by-chunk without ever flattening the whole
// input into one allocation.
func NewScatterReader(chunks [][]byte, opts ...protoconfig.ReaderOption) *Reader {
	return newReader(nil, &scatterSource{chunks: chunks}, false, opts)
}

// NewStreamReader creates a Reader over an io.Reader, refilling a
// scratch buffer on demand. The configured SizeLimit bounds the total
// number of bytes this Reader will ever pull from r.
func NewStreamReader(r io.Reader, opts ...protoconfig.ReaderOption) *Reader {
	o := protoconfig.DefaultReaderOptions()
	for _, opt := range opts {
		opt(&o)
	}
	bufSize := protoconfig.DefaultBufferSize
	return newReader(nil, &streamSource{r: r, scratch: make([]byte, bufSize)}, true, opts)
}

func newReader(buf []byte, src source, streaming bool, opts []protoconfig.ReaderOption) *Reader {
	o := protoconfig.DefaultReaderOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Reader{
		buf:       buf,
		src:       src,
		streaming: streaming,
		opts:      o,
		limit:     noLimit,
	}
}

// ensure makes sure at least n more bytes are available starting at
// pos, refilling from src as needed. It returns false if fewer than n
// bytes will ever be available (clean or dirty EOF).
func (r *Reader) ensure(n int) (bool, error) {
	for len(r.buf)-r.pos < n {
		grown, ok, err := r.src.refill(r.buf)
		if err != nil {
			return false, &protoerr.IOFailure{Err: err}
		}
		if !ok {
			return false, nil
		}
		added := len(grown) - len(r.buf)
		r.buf = grown
		if r.streaming {
			r.totalRead += int64(added)
			if r.totalRead > int64(r.opts.SizeLimit) {
				return false, &protoerr.SizeLimitExceeded{Limit: r.opts.SizeLimit}
			}
		}
	}
	return true, nil
}

// compact drops already-consumed bytes from the front of buf once in a
// while so a long-lived streaming Reader doesn't retain the whole
// history. No-op for a flat source, whose buf is the caller's slice, and
// for any non-streaming source with aliasing enabled, since ReadBytes
// may have handed out views into buf.
func (r *Reader) compact() {
	if _, flat := r.src.(flatSource); flat || (r.opts.Aliasing && !r.streaming) {
		return
	}
	if r.pos > 4096 && r.pos > len(r.buf)/2 {
		copy(r.buf, r.buf[r.pos:])
		r.buf = r.buf[:len(r.buf)-r.pos]
		r.pos = 0
	}
}

// IsAtEnd reports whether the current length-delimited frame (or, with
// no frame pushed, the whole input) has no more bytes.
func (r *Reader) IsAtEnd() bool {
	if r.limit != noLimit && r.consumed >= r.limit {
		return true
	}
	ok, _ := r.ensure(1)
	return !ok
}

// EOF reports whether the underlying source has no more bytes at all,
// ignoring any pushed frame limit.
func (r *Reader) EOF() bool {
	ok, _ := r.ensure(1)
	return !ok
}

func (r *Reader) advance(n int) {
	r.pos += n
	r.consumed += int64(n)
	r.compact()
}

// ReadTag decodes the next field tag, returning (0, 0, nil) at a clean
// end of input or end of the current frame.
func (r *Reader) ReadTag() (number int32, wireType wire.Type, err error) {
	if r.limit != noLimit && r.consumed >= r.limit {
		return 0, 0, nil
	}
	ok, err := r.ensure(1)
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		return 0, 0, nil
	}
	v, n, decOK := wire.ConsumeVarint(r.buf[r.pos:])
	if !decOK {
		if ok2, _ := r.ensure(wire.MaxVarintLen); !ok2 {
			return 0, 0, &protoerr.Truncated{Context: "tag"}
		}
		v, n, decOK = wire.ConsumeVarint(r.buf[r.pos:])
		if !decOK {
			return 0, 0, &protoerr.MalformedVarint{}
		}
	}
	number, wireType = wire.ParseTag(v)
	if number == 0 || !wire.IsValidNumber(number) {
		return 0, 0, &protoerr.InvalidTag{Number: number}
	}
	r.advance(n)
	r.lastTag = int32(v)
	return number, wireType, nil
}

// CheckLastTagWas reports whether the most recently read tag's raw
// varint value equals expected (used to validate END_GROUP tags match
// their START_GROUP).
func (r *Reader) CheckLastTagWas(expected int32) bool {
	return r.lastTag == expected
}

func (r *Reader) readVarintRaw() (uint64, error) {
	ok, err := r.ensure(1)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &protoerr.Truncated{Context: "varint"}
	}
	v, n, decOK := wire.ConsumeVarint(r.buf[r.pos:])
	if !decOK {
		if ok2, _ := r.ensure(wire.MaxVarintLen); !ok2 {
			return 0, &protoerr.Truncated{Context: "varint"}
		}
		v, n, decOK = wire.ConsumeVarint(r.buf[r.pos:])
		if !decOK {
			return 0, &protoerr.MalformedVarint{}
		}
	}
	r.advance(n)
	return v, nil
}

// ReadVarint reads a varint-encoded value (int32/int64/uint32/uint64/bool/enum).
func (r *Reader) ReadVarint() (uint64, error) { return r.readVarintRaw() }

// ReadFixed32 reads a 4-byte little-endian value.
func (r *Reader) ReadFixed32() (uint32, error) {
	ok, err := r.ensure(4)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &protoerr.Truncated{Context: "fixed32"}
	}
	v, n, _ := wire.ConsumeFixed32(r.buf[r.pos:])
	r.advance(n)
	return v, nil
}

// ReadFixed64 reads an 8-byte little-endian value.
func (r *Reader) ReadFixed64() (uint64, error) {
	ok, err := r.ensure(8)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, &protoerr.Truncated{Context: "fixed64"}
	}
	v, n, _ := wire.ConsumeFixed64(r.buf[r.pos:])
	r.advance(n)
	return v, nil
}

// ReadBytes reads a varint length prefix followed by that many raw
// bytes. If alias is true, the Reader was built with aliasing enabled,
// and the source is not a stream, the returned slice is a view into the
// Reader's backing buffer rather than a copy.
func (r *Reader) ReadBytes(alias bool) ([]byte, error) {
	n, err := r.readVarintRaw()
	if err != nil {
		return nil, err
	}
	if n > uint64(1<<31) {
		return nil, &protoerr.NegativeSize{Size: int64(n)}
	}
	nb := int(n)
	ok, err := r.ensure(nb)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &protoerr.Truncated{Context: "length-delimited"}
	}
	raw := r.buf[r.pos : r.pos+nb]
	var out []byte
	if alias && r.opts.Aliasing && !r.streaming {
		out = raw
	} else {
		out = make([]byte, nb)
		copy(out, raw)
	}
	r.advance(nb)
	return out, nil
}

// PushLimit frames a length-delimited region of n bytes: subsequent
// reads will see IsAtEnd() once n bytes have been consumed. The
// returned token must be passed to PopLimit when the region has been
// fully read.
func (r *Reader) PushLimit(n int64) (token int64, err error) {
	if n < 0 {
		return 0, &protoerr.NegativeSize{Size: n}
	}
	newLimit := r.consumed + n
	if r.limit != noLimit && newLimit > r.limit {
		return 0, &protoerr.Truncated{Context: "nested length exceeds enclosing frame"}
	}
	r.limitStack = append(r.limitStack, r.limit)
	old := r.limit
	r.limit = newLimit
	return old, nil
}

// PopLimit restores the limit saved by the matching PushLimit call.
func (r *Reader) PopLimit(token int64) {
	r.limit = token
	if n := len(r.limitStack); n > 0 {
		r.limitStack = r.limitStack[:n-1]
	}
}

// EnterMessage increments the recursion depth counter and fails once
// the configured RecursionLimit is exceeded; call on every submessage
// or group entry, matched by ExitMessage.
func (r *Reader) EnterMessage() error {
	r.depth++
	if r.depth > r.opts.RecursionLimit {
		return &protoerr.RecursionLimitExceeded{Limit: r.opts.RecursionLimit}
	}
	return nil
}

// ExitMessage decrements the recursion depth counter.
func (r *Reader) ExitMessage() {
	r.depth--
}

// RequireUTF8 reports whether this Reader was configured to validate
// string field payloads as strict UTF-8.
func (r *Reader) RequireUTF8() bool { return r.opts.RequireUTF8 }

// Aliasing reports whether this Reader was configured to hand back
// views into its own backing buffer from ReadBytes rather than always
// copying. Callers that want ReadBytes to alias when possible (and
// fall back to copying otherwise, e.g. in streaming mode) should pass
// this through as ReadBytes' argument rather than a literal true or
// false.
func (r *Reader) Aliasing() bool { return r.opts.Aliasing }

// SkipField discards the payload of a field with the given wire type,
// honoring nested groups for wire.StartGroup.
func (r *Reader) SkipField(wireType wire.Type) error {
	switch wireType {
	case wire.VarintType:
		_, err := r.readVarintRaw()
		return err
	case wire.Fixed32Type:
		_, err := r.ReadFixed32()
		return err
	case wire.Fixed64Type:
		_, err := r.ReadFixed64()
		return err
	case wire.BytesType:
		_, err := r.ReadBytes(false)
		return err
	case wire.StartGroup:
		return r.SkipGroup()
	default:
		return &protoerr.InvalidWireType{WireType: int8(wireType)}
	}
}

// SkipGroup discards fields until the matching END_GROUP tag, honoring
// nested groups and the recursion limit.
func (r *Reader) SkipGroup() error {
	if err := r.EnterMessage(); err != nil {
		return err
	}
	defer r.ExitMessage()
	for {
		number, wt, err := r.ReadTag()
		if err != nil {
			return err
		}
		if number == 0 {
			return &protoerr.Truncated{Context: "group missing END_GROUP"}
		}
		if wt == wire.EndGroup {
			return nil
		}
		if err := r.SkipField(wt); err != nil {
			return err
		}
	}
}

// SkipMessage discards an entire length-delimited submessage assumed
// to already be framed via PushLimit: it skips fields until IsAtEnd.
func (r *Reader) SkipMessage() error {
	if err := r.EnterMessage(); err != nil {
		return err
	}
	defer r.ExitMessage()
	for !r.IsAtEnd() {
		_, wt, err := r.ReadTag()
		if err != nil {
			return err
		}
		if err := r.SkipField(wt); err != nil {
			return err
		}
	}
	return nil
}
