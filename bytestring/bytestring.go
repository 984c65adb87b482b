// Package bytestring implements an immutable, shareable byte sequence
// with O(1) substring/view, a rope-style concatenation that avoids
// copying once operands grow past a threshold, and leaf-order
// iteration so readers can consume a concatenated value without ever
// flattening it. The protoreflect package uses it for MarshalByteString
// results and accepts it as a bytes-field value. No single source file in the
// retrieval pack owns this exact shape, so it is written fresh in a
// similar idiom (small immutable value type, cheap views, explicit
// error-free API) rather than ported from any one source file — see
// DESIGN.md.
package bytestring

import (
	"bytes"

	"github.com/cespare/xxhash/v2"

	"github.com/protoruntime/protoruntime/wire"
)

// concatThreshold is the combined length above which Concat keeps a
// rope node instead of copying both operands into one leaf.
const concatThreshold = 256

// ByteString is an immutable sequence of bytes. The zero value is the
// empty string.
type ByteString struct {
	leaf        []byte // non-nil only for leaf nodes
	left, right *ByteString
	size        int
}

// Empty is the canonical empty ByteString.
var Empty = ByteString{}

// New copies b into a new leaf ByteString.
func New(b []byte) ByteString {
	if len(b) == 0 {
		return Empty
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return ByteString{leaf: cp, size: len(cp)}
}

// NewFromString copies the UTF-8 bytes of s into a new leaf ByteString.
func NewFromString(s string) ByteString {
	return New([]byte(s))
}

// NewFromChunks concatenates a collection of slices into a ByteString,
// preserving rope structure per the same threshold rule as Concat.
func NewFromChunks(chunks ...[]byte) ByteString {
	result := Empty
	for _, c := range chunks {
		result = result.Concat(New(c))
	}
	return result
}

// Size returns the number of bytes in the string.
func (s ByteString) Size() int { return s.size }

// IsEmpty reports whether the string has zero bytes.
func (s ByteString) IsEmpty() bool { return s.size == 0 }

func (s ByteString) isLeaf() bool { return s.left == nil && s.right == nil }

// Concat returns the concatenation of s and other. Below
// concatThreshold combined bytes, the result is copied into a single
// leaf (cheap, and keeps small strings flat for fast repeated access).
// Above it, a rope node is kept so concatenation stays O(1) and the
// original operands' storage is shared.
func (s ByteString) Concat(other ByteString) ByteString {
	if s.size == 0 {
		return other
	}
	if other.size == 0 {
		return s
	}
	total := s.size + other.size
	if total <= concatThreshold {
		buf := make([]byte, 0, total)
		buf = s.appendTo(buf)
		buf = other.appendTo(buf)
		return ByteString{leaf: buf, size: total}
	}
	sCopy, otherCopy := s, other
	return ByteString{left: &sCopy, right: &otherCopy, size: total}
}

func (s ByteString) appendTo(buf []byte) []byte {
	if s.size == 0 {
		return buf
	}
	if s.isLeaf() {
		return append(buf, s.leaf...)
	}
	buf = s.left.appendTo(buf)
	return s.right.appendTo(buf)
}

// Bytes flattens the string into a single contiguous slice. O(n); for
// read-only traversal prefer Iterate, which never flattens.
func (s ByteString) Bytes() []byte {
	if s.size == 0 {
		return nil
	}
	if s.isLeaf() {
		cp := make([]byte, len(s.leaf))
		copy(cp, s.leaf)
		return cp
	}
	buf := make([]byte, 0, s.size)
	return s.appendTo(buf)
}

// String returns the string as a Go string (a copy).
func (s ByteString) String() string { return string(s.Bytes()) }

// Iterate calls visit once per leaf slice, in order, without ever
// materializing the full concatenation. Iteration stops early if visit
// returns false.
func (s ByteString) Iterate(visit func(leaf []byte) bool) {
	if s.size == 0 {
		return
	}
	if s.isLeaf() {
		visit(s.leaf)
		return
	}
	cont := true
	s.left.iterate(&cont, visit)
	if cont {
		s.right.iterate(&cont, visit)
	}
}

func (s *ByteString) iterate(cont *bool, visit func([]byte) bool) {
	if !*cont || s.size == 0 {
		return
	}
	if s.isLeaf() {
		if !visit(s.leaf) {
			*cont = false
		}
		return
	}
	s.left.iterate(cont, visit)
	if *cont {
		s.right.iterate(cont, visit)
	}
}

// ByteAt returns the byte at index i, which must be in [0, Size()).
func (s ByteString) ByteAt(i int) byte {
	if s.isLeaf() {
		return s.leaf[i]
	}
	if i < s.left.size {
		return s.left.ByteAt(i)
	}
	return s.right.ByteAt(i - s.left.size)
}

// Substring returns the byte range [start, end) as a new ByteString,
// sharing storage with s rather than copying when possible.
func (s ByteString) Substring(start, end int) ByteString {
	if start < 0 || end > s.size || start > end {
		panic("bytestring: substring range out of bounds")
	}
	if start == end {
		return Empty
	}
	if s.isLeaf() {
		return ByteString{leaf: s.leaf[start:end], size: end - start}
	}
	lsz := s.left.size
	switch {
	case end <= lsz:
		return s.left.Substring(start, end)
	case start >= lsz:
		return s.right.Substring(start-lsz, end-lsz)
	default:
		return s.left.Substring(start, lsz).Concat(s.right.Substring(0, end-lsz))
	}
}

// Equal reports byte-for-byte equality, independent of rope shape.
func (s ByteString) Equal(other ByteString) bool {
	if s.size != other.size {
		return false
	}
	if s.size == 0 {
		return true
	}
	// Fast path: both flat.
	if s.isLeaf() && other.isLeaf() {
		return bytes.Equal(s.leaf, other.leaf)
	}
	return bytes.Equal(s.Bytes(), other.Bytes())
}

// Compare returns a negative, zero, or positive value per
// lexicographic byte-order comparison, matching bytes.Compare.
func (s ByteString) Compare(other ByteString) int {
	return bytes.Compare(s.Bytes(), other.Bytes())
}

// Hash returns a content hash suitable for use as a map key surrogate
// or for the reflection engine's message-level Hash operation (spec
// §4.7); xxhash matches the hashing dependency used elsewhere in the
// retrieval pack for content-addressed byte payloads.
func (s ByteString) Hash() uint64 {
	if s.isLeaf() || s.size == 0 {
		return xxhash.Sum64(s.leaf)
	}
	h := xxhash.New()
	s.Iterate(func(leaf []byte) bool {
		_, _ = h.Write(leaf)
		return true
	})
	return h.Sum64()
}

// IsValidUTF8 reports whether the string's bytes form well-formed
// UTF-8 per RFC 3629. A leaf is checked in place; a rope is flattened
// into one copy first.
func (s ByteString) IsValidUTF8() bool {
	if s.isLeaf() {
		return wire.ValidUTF8(s.leaf)
	}
	return wire.ValidUTF8(s.Bytes())
}
