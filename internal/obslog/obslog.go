/*------------------------------------------------------------------------------
* obslog.go : level-gated structured tracing
*
*          mirrors Trace/Tracet/TraceLevel in src/common.go, replacing the
*          teacher's free-text fprintf tracing with zerolog's structured
*          fields while keeping the same call-site shape.
 */
package obslog

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu       sync.RWMutex
	level    = zerolog.InfoLevel
	base     = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// SetLevel mirrors common.go's traceLevel global: a process-wide gate
// below which Trace calls are dropped cheaply.
func SetLevel(l zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// SetOutput redirects the underlying writer, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base = zerolog.New(w).With().Timestamp().Logger()
}

// Event starts a structured log line at the given level, or a disabled
// no-op event below the current gate — the zerolog idiom for avoiding
// field-construction cost when tracing is off, same spirit as common.go's
// `if trace_level < level return` short-circuit.
func Event(l zerolog.Level, component string) *zerolog.Event {
	mu.RLock()
	gate := level
	logger := base
	mu.RUnlock()

	if l < gate {
		return nil
	}
	return logger.WithLevel(l).Str("component", component)
}

// Trace logs at debug level with a message only, for call sites that had
// no structured fields to add (the Trace(level, "...") shape of common.go).
func Trace(component, msg string) {
	if ev := Event(zerolog.DebugLevel, component); ev != nil {
		ev.Msg(msg)
	}
}

// Tracef is Trace with printf-style formatting, for parity with the
// teacher's Tracef(level, format, ...).
func Tracef(component, format string, args ...interface{}) {
	if ev := Event(zerolog.DebugLevel, component); ev != nil {
		ev.Msgf(format, args...)
	}
}

// Solve logs one robust-cascade outcome with the fields callers care about
// most: verdict, measurement count, and unknown count.
func Solve(component, verdict string, nMeasurements, nUnknowns int) {
	if ev := Event(zerolog.InfoLevel, component); ev != nil {
		ev.Str("verdict", verdict).
			Int("n_measurements", nMeasurements).
			Int("n_unknowns", nUnknowns).
			Msg("robust solve")
	}
}
