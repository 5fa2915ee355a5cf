// Package logging holds the committee's only side channel: a structured
// logger that callers may inject. Nothing in the engine changes behaviour
// based on whether a logger is present.
package logging

import (
	"context"
	"log/slog"
	"sync"
)

// Logger is the committee logger. Arguments after msg are key/value pairs,
// the same convention *slog.Logger uses, so a *slog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

var _ Logger = (*slog.Logger)(nil)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return nopLogger{}
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	if sl, ok := l.(*slog.Logger); ok && sl == nil {
		return nopLogger{}
	}
	return l
}

// With returns a logger that prepends args to every call.
func With(l Logger, args ...any) Logger {
	l = OrNop(l)
	if sl, ok := l.(*slog.Logger); ok {
		return sl.With(args...)
	}
	if _, ok := l.(nopLogger); ok {
		return l
	}
	return &prefixed{base: l, args: args}
}

type prefixed struct {
	base Logger
	args []any
}

func (p *prefixed) merge(args []any) []any {
	out := make([]any, 0, len(p.args)+len(args))
	out = append(out, p.args...)
	return append(out, args...)
}

func (p *prefixed) Debug(msg string, args ...any) { p.base.Debug(msg, p.merge(args)...) }
func (p *prefixed) Info(msg string, args ...any)  { p.base.Info(msg, p.merge(args)...) }
func (p *prefixed) Warn(msg string, args ...any)  { p.base.Warn(msg, p.merge(args)...) }
func (p *prefixed) Error(msg string, args ...any) { p.base.Error(msg, p.merge(args)...) }

// Recorder keeps every log call in memory. Tests use it to assert on warnings.
type Recorder struct {
	mu      sync.Mutex
	Entries []Entry
}

// Entry is one recorded log call.
type Entry struct {
	Level slog.Level
	Msg   string
	Args  []any
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) record(level slog.Level, msg string, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Entries = append(r.Entries, Entry{Level: level, Msg: msg, Args: args})
}

func (r *Recorder) Debug(msg string, args ...any) { r.record(slog.LevelDebug, msg, args) }
func (r *Recorder) Info(msg string, args ...any)  { r.record(slog.LevelInfo, msg, args) }
func (r *Recorder) Warn(msg string, args ...any)  { r.record(slog.LevelWarn, msg, args) }
func (r *Recorder) Error(msg string, args ...any) { r.record(slog.LevelError, msg, args) }

// Count returns how many entries were recorded at level.
func (r *Recorder) Count(level slog.Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.Entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Enabled reports whether l would emit at level. Loggers that are not slog
// based are assumed to emit everything.
func Enabled(l Logger, level slog.Level) bool {
	l = OrNop(l)
	if sl, ok := l.(*slog.Logger); ok {
		return sl.Enabled(context.Background(), level)
	}
	_, nop := l.(nopLogger)
	return !nop
}
