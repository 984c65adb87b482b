// Package protoconfig holds the functional-options structs shared by
// the coded input/output streams and the reflection engine, following
// the options-struct idiom used across the retrieval pack (backend
// configs, codec options) rather than long positional constructors.
package protoconfig

import "math"

// DefaultRecursionLimit bounds submessage/group nesting depth.
const DefaultRecursionLimit = 100

// DefaultSizeLimit bounds the total bytes read from a streaming source.
const DefaultSizeLimit = math.MaxInt32

// DefaultBufferSize is the default scratch buffer size for streaming sinks/sources.
const DefaultBufferSize = 4096

// ReaderOptions configures a coded input stream.
type ReaderOptions struct {
	RecursionLimit int
	SizeLimit      int
	Aliasing       bool
	RequireUTF8    bool
}

// ReaderOption mutates ReaderOptions.
type ReaderOption func(*ReaderOptions)

// DefaultReaderOptions returns this package's defaults.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{
		RecursionLimit: DefaultRecursionLimit,
		SizeLimit:      DefaultSizeLimit,
	}
}

func WithRecursionLimit(n int) ReaderOption {
	return func(o *ReaderOptions) { o.RecursionLimit = n }
}

func WithSizeLimit(n int) ReaderOption {
	return func(o *ReaderOptions) { o.SizeLimit = n }
}

func WithAliasing(enabled bool) ReaderOption {
	return func(o *ReaderOptions) { o.Aliasing = enabled }
}

func WithRequireUTF8(enabled bool) ReaderOption {
	return func(o *ReaderOptions) { o.RequireUTF8 = enabled }
}

// WriterOptions configures a coded output stream.
type WriterOptions struct {
	Deterministic bool
	BufferSize    int
}

// WriterOption mutates WriterOptions.
type WriterOption func(*WriterOptions)

func DefaultWriterOptions() WriterOptions {
	return WriterOptions{BufferSize: DefaultBufferSize}
}

func WithDeterministic(enabled bool) WriterOption {
	return func(o *WriterOptions) { o.Deterministic = enabled }
}

func WithBufferSize(n int) WriterOption {
	return func(o *WriterOptions) { o.BufferSize = n }
}
