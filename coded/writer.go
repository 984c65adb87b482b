package coded

import (
	"io"

	"github.com/protoruntime/protoruntime/internal/protoerr"
	"github.com/protoruntime/protoruntime/protoconfig"
	"github.com/protoruntime/protoruntime/wire"
)

// Writer is a buffered writer over the protobuf wire format, grounded
// on codec.Buffer's Encode* methods but polymorphic over the sink
// shape: an unbounded growing buffer, a bounded slice that must not
// overflow, or an io.Writer sink flushed from an internal scratch
// buffer.
type Writer struct {
	buf  []byte
	bound int // -1 if unbounded
	sink  io.Writer

	opts protoconfig.WriterOptions
}

// NewWriter creates an unbounded, growable in-memory Writer.
func NewWriter(opts ...protoconfig.WriterOption) *Writer {
	o := protoconfig.DefaultWriterOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Writer{bound: -1, opts: o}
}

// NewBoundedWriter creates a Writer that writes into buf's capacity
// and fails with OutOfSpace rather than growing past it.
func NewBoundedWriter(buf []byte, opts ...protoconfig.WriterOption) *Writer {
	o := protoconfig.DefaultWriterOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Writer{buf: buf[:0], bound: cap(buf), opts: o}
}

// NewSinkWriter creates a Writer that buffers internally and flushes
// to sink on Flush or when the internal buffer is full.
func NewSinkWriter(sink io.Writer, opts ...protoconfig.WriterOption) *Writer {
	o := protoconfig.DefaultWriterOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.BufferSize <= 0 {
		o.BufferSize = protoconfig.DefaultBufferSize
	}
	return &Writer{bound: -1, sink: sink, opts: o}
}

// SetDeterministic toggles deterministic map-key sorting.
// This is a sticky flag for the lifetime of the Writer.
func (w *Writer) SetDeterministic(deterministic bool) { w.opts.Deterministic = deterministic }

// Deterministic reports the current deterministic-mode setting.
func (w *Writer) Deterministic() bool { return w.opts.Deterministic }

// Bytes returns the bytes written so far. For a sink-backed Writer
// this only reflects bytes not yet flushed.
func (w *Writer) Bytes() []byte { return w.buf }

// Len returns the number of unflushed bytes currently buffered.
func (w *Writer) Len() int { return len(w.buf) }

// SpaceLeft returns the remaining capacity for a bounded Writer, or -1
// if this Writer is unbounded.
func (w *Writer) SpaceLeft() int {
	if w.bound < 0 {
		return -1
	}
	return w.bound - len(w.buf)
}

// CheckNoSpaceLeft reports whether a bounded Writer's capacity was
// exactly filled (the exact-size invariant callers rely on).
func (w *Writer) CheckNoSpaceLeft() bool {
	return w.bound < 0 || len(w.buf) == w.bound
}

func (w *Writer) ensureCapacity(extra int) error {
	if w.bound < 0 {
		return nil
	}
	if len(w.buf)+extra > w.bound {
		return &protoerr.OutOfSpace{}
	}
	return nil
}

func (w *Writer) append(b []byte) error {
	if err := w.ensureCapacity(len(b)); err != nil {
		return err
	}
	w.buf = append(w.buf, b...)
	if w.sink != nil && len(w.buf) >= w.opts.BufferSize {
		return w.Flush()
	}
	return nil
}

// Flush writes any buffered bytes to the sink, if this Writer has one.
func (w *Writer) Flush() error {
	if w.sink == nil || len(w.buf) == 0 {
		return nil
	}
	if _, err := w.sink.Write(w.buf); err != nil {
		return &protoerr.IOFailure{Err: err}
	}
	w.buf = w.buf[:0]
	return nil
}

// WriteTag writes a packed field-number/wire-type tag.
func (w *Writer) WriteTag(number int32, wireType wire.Type) error {
	if !wire.IsValidNumber(number) {
		return &protoerr.InvalidTag{Number: number}
	}
	var scratch [wire.MaxVarintLen]byte
	return w.append(wire.AppendTag(scratch[:0], number, wireType))
}

// WriteVarint writes a raw varint-encoded value.
func (w *Writer) WriteVarint(v uint64) error {
	var scratch [wire.MaxVarintLen]byte
	return w.append(wire.AppendVarint(scratch[:0], v))
}

// WriteFixed32 writes a raw 4-byte little-endian value.
func (w *Writer) WriteFixed32(v uint32) error {
	var scratch [4]byte
	return w.append(wire.AppendFixed32(scratch[:0], v))
}

// WriteFixed64 writes a raw 8-byte little-endian value.
func (w *Writer) WriteFixed64(v uint64) error {
	var scratch [8]byte
	return w.append(wire.AppendFixed64(scratch[:0], v))
}

// WriteBytes writes a varint length prefix followed by b.
func (w *Writer) WriteBytes(b []byte) error {
	if err := w.WriteVarint(uint64(len(b))); err != nil {
		return err
	}
	return w.append(b)
}

// WriteRaw appends b with no framing at all (used by submessage
// serialization, which has already computed and written its own
// length prefix).
func (w *Writer) WriteRaw(b []byte) error {
	return w.append(b)
}
