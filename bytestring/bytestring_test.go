package bytestring_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/protoruntime/protoruntime/bytestring"
)

func TestConcatAndFlatten(t *testing.T) {
	a := bytestring.NewFromString("hello, ")
	b := bytestring.NewFromString("world")
	c := a.Concat(b)
	require.Equal(t, "hello, world", c.String())
	require.Equal(t, 12, c.Size())
}

func TestConcatAboveThresholdKeepsRopeButFlattensSame(t *testing.T) {
	a := bytestring.NewFromString(strings.Repeat("a", 200))
	b := bytestring.NewFromString(strings.Repeat("b", 200))
	c := a.Concat(b)
	require.Equal(t, 400, c.Size())
	require.Equal(t, strings.Repeat("a", 200)+strings.Repeat("b", 200), c.String())
}

func TestIterateNeverFlattensVisitsLeavesInOrder(t *testing.T) {
	a := bytestring.NewFromString(strings.Repeat("x", 300))
	b := bytestring.NewFromString(strings.Repeat("y", 300))
	c := a.Concat(b)

	var seen []byte
	c.Iterate(func(leaf []byte) bool {
		seen = append(seen, leaf...)
		return true
	})
	require.Equal(t, c.Bytes(), seen)
}

func TestSubstringSharesAcrossRopeBoundary(t *testing.T) {
	a := bytestring.NewFromString(strings.Repeat("a", 300))
	b := bytestring.NewFromString(strings.Repeat("b", 300))
	c := a.Concat(b)
	sub := c.Substring(295, 305)
	require.Equal(t, "aaaaabbbbb", sub.String())
}

func TestByteAt(t *testing.T) {
	s := bytestring.NewFromString("abcdef")
	require.Equal(t, byte('c'), s.ByteAt(2))
}

func TestEqualIndependentOfShape(t *testing.T) {
	flat := bytestring.NewFromString("abcdef")
	rope := bytestring.NewFromString("abc").Concat(bytestring.NewFromString("def"))
	require.True(t, flat.Equal(rope))
	require.Equal(t, flat.Hash(), rope.Hash())
}

func TestCompareLexicographic(t *testing.T) {
	require.Negative(t, bytestring.NewFromString("abc").Compare(bytestring.NewFromString("abd")))
	require.Zero(t, bytestring.NewFromString("abc").Compare(bytestring.NewFromString("abc")))
}

func TestIsValidUTF8(t *testing.T) {
	require.True(t, bytestring.NewFromString("héllo").IsValidUTF8())
	require.False(t, bytestring.New([]byte{0xff, 0xfe}).IsValidUTF8())
}

func TestCodedBuilderFinalizesExactSize(t *testing.T) {
	cb := bytestring.NewCodedBuilder(4)
	require.NoError(t, cb.Writer().WriteFixed32(0xAABBCCDD))
	built := cb.Build()
	require.Equal(t, 4, built.Size())
}
