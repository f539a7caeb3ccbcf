package uthreads

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is the structured-logging seam the scheduler reports through:
// Debug for routine lifecycle events (spawn, block, resume, sleep,
// terminate, switch), Info/Warn/Error available to
// callers layering their own diagnostics on top (e.g. an embedder logging
// around Spawn/Terminate calls it makes itself). It is independent of the
// mandated stderr error format in errors.go, which always fires
// regardless of what Logger is configured.
//
// Design mirrors the pluggable, package-level logger in
// joeycumines-go-utilpkg/eventloop/logging.go: a Logger is configured
// once (here, per-Scheduler via options.go's WithLogger) and defaults to
// a no-op so the library is silent unless a caller opts in.
type Logger interface {
	Debug(msg string, kv ...any)
	Info(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// noopLogger discards everything; it is the default.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// zerologLogger adapts Logger onto github.com/rs/zerolog, the logging
// backend the pack concretely wires up in logiface-zerolog.
type zerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger returns a Logger backed by zerolog, writing one JSON
// object per event to w (for example os.Stderr).
func NewZerologLogger(w *os.File) Logger {
	return &zerologLogger{logger: zerolog.New(w).With().Timestamp().Logger()}
}

func (z *zerologLogger) Debug(msg string, kv ...any) { z.log(z.logger.Debug(), msg, kv) }
func (z *zerologLogger) Info(msg string, kv ...any)  { z.log(z.logger.Info(), msg, kv) }
func (z *zerologLogger) Warn(msg string, kv ...any)  { z.log(z.logger.Warn(), msg, kv) }
func (z *zerologLogger) Error(msg string, kv ...any) { z.log(z.logger.Error(), msg, kv) }

func (z *zerologLogger) log(ev *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}
