// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"sync/atomic"
	"time"
)

const (
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
	LevelCrit  slog.Level = 12

	levelMaxVerbosity = LevelTrace
)

// FromLegacyLevel converts a verbosity (0 crit .. 5 trace) into slog level.
func FromLegacyLevel(lvl int) slog.Level {
	switch lvl {
	case 0:
		return LevelCrit
	case 1:
		return LevelError
	case 2:
		return LevelWarn
	case 3:
		return LevelInfo
	case 4:
		return LevelDebug
	case 5:
		return LevelTrace
	}
	if lvl > 5 {
		return LevelTrace
	}
	return LevelCrit
}

// LevelString returns a 4-letter string for the level.
func LevelString(l slog.Level) string {
	if style, ok := levelStyles[l]; ok {
		return style.tag
	}
	return "unknown level"
}

// A Logger writes key/value pairs to a Handler
type Logger interface {
	// With returns a new Logger that has this logger's attributes plus the given attributes
	With(ctx ...any) Logger

	// New returns a new Logger that has this logger's attributes plus the given attributes. Identical to 'With'.
	New(ctx ...any) Logger

	// Write logs a message at the specified level
	Write(level slog.Level, msg string, attrs ...any)

	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)

	// Enabled reports whether l emits log records at the given context and level.
	Enabled(ctx context.Context, level slog.Level) bool

	// Handler returns the underlying handler of the inner logger.
	Handler() slog.Handler
}

type logger struct {
	inner *slog.Logger
}

// NewLogger returns a logger with the specified handler set
func NewLogger(h slog.Handler) Logger {
	return &logger{slog.New(h)}
}

func (l *logger) Handler() slog.Handler {
	return l.inner.Handler()
}

// Write logs a message at the specified level.
func (l *logger) Write(level slog.Level, msg string, attrs ...any) {
	if !l.inner.Enabled(context.Background(), level) {
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])

	if len(attrs)%2 != 0 {
		attrs = append(attrs, nil, "LOG_ERROR", "Normalized odd number of arguments by adding nil")
	}
	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(attrs...)
	l.inner.Handler().Handle(context.Background(), r)
}

func (l *logger) With(ctx ...any) Logger {
	return &logger{l.inner.With(ctx...)}
}

func (l *logger) New(ctx ...any) Logger {
	return l.With(ctx...)
}

func (l *logger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.inner.Enabled(ctx, level)
}

func (l *logger) Trace(msg string, ctx ...any) { l.Write(LevelTrace, msg, ctx...) }
func (l *logger) Debug(msg string, ctx ...any) { l.Write(LevelDebug, msg, ctx...) }
func (l *logger) Info(msg string, ctx ...any)  { l.Write(LevelInfo, msg, ctx...) }
func (l *logger) Warn(msg string, ctx ...any)  { l.Write(LevelWarn, msg, ctx...) }
func (l *logger) Error(msg string, ctx ...any) { l.Write(LevelError, msg, ctx...) }
func (l *logger) Crit(msg string, ctx ...any) {
	l.Write(LevelCrit, msg, ctx...)
	os.Exit(1)
}

var root atomic.Value

func init() {
	root.Store(&rootHolder{NewLogger(DiscardHandler())})
}

type rootHolder struct {
	l Logger
}

// SetDefault sets the default global logger
func SetDefault(l Logger) {
	root.Store(&rootHolder{l})
	if lg, ok := l.(*logger); ok {
		slog.SetDefault(lg.inner)
	}
}

// Root returns the root logger
func Root() Logger {
	return root.Load().(*rootHolder).l
}

// WithContext returns a logger carrying the given context. The returned logger always writes
// through the current root logger, so it is safe to create it in package variables before the
// root handler is configured.
func WithContext(ctx ...any) Logger {
	return &contextLogger{ctx: ctx}
}

type contextLogger struct {
	ctx []any
}

func (c *contextLogger) target() Logger {
	return Root().With(c.ctx...)
}

func (c *contextLogger) With(ctx ...any) Logger {
	return &contextLogger{ctx: append(append([]any{}, c.ctx...), ctx...)}
}

func (c *contextLogger) New(ctx ...any) Logger { return c.With(ctx...) }

func (c *contextLogger) Write(level slog.Level, msg string, attrs ...any) {
	c.target().Write(level, msg, attrs...)
}

func (c *contextLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return Root().Enabled(ctx, level)
}

func (c *contextLogger) Handler() slog.Handler { return Root().Handler() }

func (c *contextLogger) Trace(msg string, ctx ...any) { c.Write(LevelTrace, msg, ctx...) }
func (c *contextLogger) Debug(msg string, ctx ...any) { c.Write(LevelDebug, msg, ctx...) }
func (c *contextLogger) Info(msg string, ctx ...any)  { c.Write(LevelInfo, msg, ctx...) }
func (c *contextLogger) Warn(msg string, ctx ...any)  { c.Write(LevelWarn, msg, ctx...) }
func (c *contextLogger) Error(msg string, ctx ...any) { c.Write(LevelError, msg, ctx...) }
func (c *contextLogger) Crit(msg string, ctx ...any) {
	c.Write(LevelCrit, msg, ctx...)
	os.Exit(1)
}

// Convenience functions writing through the root logger.

func Trace(msg string, ctx ...any) { Root().Write(LevelTrace, msg, ctx...) }
func Debug(msg string, ctx ...any) { Root().Write(LevelDebug, msg, ctx...) }
func Info(msg string, ctx ...any)  { Root().Write(LevelInfo, msg, ctx...) }
func Warn(msg string, ctx ...any)  { Root().Write(LevelWarn, msg, ctx...) }
func Error(msg string, ctx ...any) { Root().Write(LevelError, msg, ctx...) }
func Crit(msg string, ctx ...any) {
	Root().Write(LevelCrit, msg, ctx...)
	os.Exit(1)
}
