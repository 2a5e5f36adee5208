// Package debug provides opt-in, goroutine-scoped decode/encode tracing,
// adapted from the teacher's own internal/debug goroutine-local helper
// (which reaches for github.com/timandy/routine so a debug toggle doesn't
// require threading a *bool through every call in the hot path). Unlike the
// teacher's build-tag-gated version, tracing here is always compiled in but
// off by default, since boxwire has no debug build tag of its own.
package debug

import (
	"fmt"
	"os"

	"github.com/timandy/routine"
)

var tracers = routine.NewInheritableThreadLocal()

// Trace receives one line per field decoded or encoded while tracing is
// enabled for the calling goroutine.
type Trace func(template, field string, byteOffset int, msg string)

// EnableTrace turns on tracing for the calling goroutine until DisableTrace
// is called. A nil fn installs the default tracer, which writes to stderr.
func EnableTrace(fn Trace) {
	if fn == nil {
		fn = func(template, field string, byteOffset int, msg string) {
			fmt.Fprintf(os.Stderr, "boxwire: %s.%s@%d: %s\n", template, field, byteOffset, msg)
		}
	}
	tracers.Set(fn)
}

// DisableTrace turns off tracing for the calling goroutine.
func DisableTrace() { tracers.Remove() }

// Enabled reports whether the calling goroutine has tracing turned on.
func Enabled() bool {
	_, ok := currentTracer()
	return ok
}

// Log reports a single field-level trace event for the calling goroutine.
// It is a no-op if tracing is not enabled for that goroutine.
func Log(template, field string, byteOffset int, format string, args ...any) {
	fn, ok := currentTracer()
	if !ok {
		return
	}
	fn(template, field, byteOffset, fmt.Sprintf(format, args...))
}

func currentTracer() (Trace, bool) {
	v := tracers.Get()
	if v == nil {
		return nil, false
	}
	fn, ok := v.(Trace)
	return fn, ok
}
