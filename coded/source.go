package coded

import "io"

// source abstracts over the three shapes of input a coded Reader can
// accept: a flat slice (already fully buffered, no refill possible), a
// scatter of contiguous buffers (refill pulls the next chunk without
// ever flattening the whole input), and a streaming io.Reader (refill
// reads more bytes into a scratch buffer).
type source interface {
	// refill appends more bytes to dst and returns the grown slice, or
	// ok=false if the source is exhausted. err is non-nil only on a
	// genuine I/O failure from a streaming source.
	refill(dst []byte) (grown []byte, ok bool, err error)
}

// flatSource has nothing left to refill; all bytes were provided upfront.
type flatSource struct{}

func (flatSource) refill(dst []byte) ([]byte, bool, error) { return dst, false, nil }

// scatterSource pulls successive chunks from a slice of byte slices,
// matching the rope-iteration contract bytestring.ByteString exposes:
// callers consume leaf-by-leaf without ever materializing the full
// concatenation.
type scatterSource struct {
	chunks [][]byte
	idx    int
}

func (s *scatterSource) refill(dst []byte) ([]byte, bool, error) {
	if s.idx >= len(s.chunks) {
		return dst, false, nil
	}
	chunk := s.chunks[s.idx]
	s.idx++
	return append(dst, chunk...), true, nil
}

// streamSource reads from an io.Reader on demand, the way a coded
// input backed by a network connection or file does.
type streamSource struct {
	r       io.Reader
	scratch []byte
}

func (s *streamSource) refill(dst []byte) ([]byte, bool, error) {
	n, err := s.r.Read(s.scratch)
	if n > 0 {
		dst = append(dst, s.scratch[:n]...)
	}
	if err != nil {
		if err == io.EOF {
			return dst, n > 0, nil
		}
		return dst, false, err
	}
	return dst, true, nil
}
