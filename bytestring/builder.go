package bytestring

import (
	"github.com/protoruntime/protoruntime/coded"
	"github.com/protoruntime/protoruntime/protoconfig"
)

// CodedBuilder exposes a bounded coded.Writer over a backing buffer
// sized to the caller's pre-computed length, and finalizes to an
// immutable ByteString of exactly that size. This is how the reflection
// engine's Marshal methods write a whole message once its serialized
// size is known, without a second allocation for the immutable result.
type CodedBuilder struct {
	w *coded.Writer
}

// NewCodedBuilder allocates a backing buffer of exactly size bytes and
// returns a builder whose Writer will fail with OutOfSpace if asked to
// write more.
func NewCodedBuilder(size int, opts ...protoconfig.WriterOption) *CodedBuilder {
	return &CodedBuilder{w: coded.NewBoundedWriter(make([]byte, 0, size), opts...)}
}

// Writer returns the underlying bounded coded.Writer for field-level
// encode calls to write into.
func (b *CodedBuilder) Writer() *coded.Writer { return b.w }

// Build finalizes the builder into an immutable ByteString. It panics
// if the backing buffer was not filled exactly; callers should have
// already checked Writer().CheckNoSpaceLeft().
func (b *CodedBuilder) Build() ByteString {
	if !b.w.CheckNoSpaceLeft() {
		panic("bytestring: CodedBuilder finalized before backing buffer was filled")
	}
	return ByteString{leaf: b.w.Bytes(), size: b.w.Len()}
}
