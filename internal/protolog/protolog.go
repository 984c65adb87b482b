// Package protolog holds the one piece of ambient, swappable logging
// this runtime performs. A library has no business writing to stdout
// on its own, so the default logger is a no-op; callers that want the
// warnings for unpaired UTF-16 surrogate fallback
// and the extension-registry conflict diagnostics can call SetLogger
// with a configured zerolog.Logger.
package protolog

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var logger atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.New(io.Discard)
	logger.Store(&l)
}

// SetLogger replaces the package-level logger used for the warnings
// this runtime emits. Safe to call concurrently with logging calls.
func SetLogger(l zerolog.Logger) {
	logger.Store(&l)
}

func current() *zerolog.Logger {
	return logger.Load()
}

var surrogateWarnOnce sync.Map // map[string]*sync.Once, keyed by stream identity

// WarnUnpairedSurrogateOnce logs, at most once per streamID, that a
// UTF-16 string contained an unpaired surrogate and that the encoder
// fell back to a lossy-but-lossless platform conversion.
func WarnUnpairedSurrogateOnce(streamID string) {
	onceIface, _ := surrogateWarnOnce.LoadOrStore(streamID, &sync.Once{})
	once := onceIface.(*sync.Once)
	once.Do(func() {
		current().Warn().
			Str("stream", streamID).
			Msg("unpaired UTF-16 surrogate encountered; falling back to native UTF-8 conversion, round-trip fidelity not guaranteed")
	})
}

// WarnExtensionConflict logs that a second extension descriptor was
// registered for the same (extendee, field number) pair, overwriting
// the first. The extension registry itself still performs the
// overwrite (matching dynamic.ExtensionRegistry's silent-last-wins
// behavior); this only surfaces the fact for operators.
func WarnExtensionConflict(extendee string, number int32, oldName, newName string) {
	current().Warn().
		Str("extendee", extendee).
		Int32("number", number).
		Str("old", oldName).
		Str("new", newName).
		Msg("extension registration overwrote an existing entry")
}
