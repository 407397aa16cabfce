// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	timeFormat     = "2006-01-02T15:04:05-0700"
	termTimeFormat = "01-02|15:04:05.000"
	termMsgJust    = 40
)

// levelStyles holds the 4-letter tag and ANSI color of each level.
var levelStyles = map[slog.Level]struct {
	tag   string
	color int
}{
	LevelTrace: {"TRCE", 34},
	LevelDebug: {"DBUG", 36},
	LevelInfo:  {"INFO", 32},
	LevelWarn:  {"WARN", 33},
	LevelError: {"EROR", 31},
	LevelCrit:  {"CRIT", 35},
}

// DiscardHandler drops every record.
func DiscardHandler() slog.Handler { return slog.DiscardHandler }

// TerminalHandler writes one human readable line per record:
//
//	INFO [10-18|20:58:45.000] staked                                   pkg=stakepool owner=0x7567…ffed amount=500
type TerminalHandler struct {
	mu       *sync.Mutex
	wr       io.Writer
	lvl      *slog.LevelVar
	useColor bool
	attrs    []slog.Attr
	buf      []byte
}

// NewTerminalHandler returns a TerminalHandler that emits every level.
func NewTerminalHandler(wr io.Writer, useColor bool) *TerminalHandler {
	lvl := new(slog.LevelVar)
	lvl.Set(levelMaxVerbosity)
	return NewTerminalHandlerWithLevel(wr, lvl, useColor)
}

// NewTerminalHandlerWithLevel returns a TerminalHandler filtered by lvl.
// lvl may be changed at runtime.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl *slog.LevelVar, useColor bool) *TerminalHandler {
	return &TerminalHandler{mu: new(sync.Mutex), wr: wr, lvl: lvl, useColor: useColor}
}

func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl.Level()
}

func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf = h.appendRecord(h.buf[:0], r)
	_, err := h.wr.Write(h.buf)
	return err
}

func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	clone.buf = nil
	return &clone
}

func (h *TerminalHandler) WithGroup(string) slog.Handler {
	panic("log groups are not supported")
}

func (h *TerminalHandler) appendRecord(buf []byte, r slog.Record) []byte {
	tag := LevelString(r.Level)
	if style, ok := levelStyles[r.Level]; ok && h.useColor {
		buf = fmt.Appendf(buf, "\x1b[%dm%s\x1b[0m", style.color, tag)
	} else {
		buf = append(buf, tag...)
	}
	buf = append(buf, " ["...)
	buf = r.Time.AppendFormat(buf, termTimeFormat)
	buf = append(buf, "] "...)
	buf = append(buf, r.Message...)

	if r.NumAttrs()+len(h.attrs) == 0 {
		return append(buf, '\n')
	}
	for pad := termMsgJust - len(r.Message); pad > 0; pad-- {
		buf = append(buf, ' ')
	}
	for _, a := range h.attrs {
		buf = appendKeyValue(buf, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		buf = appendKeyValue(buf, a)
		return true
	})
	return append(buf, '\n')
}

func appendKeyValue(buf []byte, a slog.Attr) []byte {
	a = replaceAttr(a, true)
	buf = append(buf, ' ')
	buf = append(buf, a.Key...)
	buf = append(buf, '=')

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " =\"\t\n") {
			return strconv.AppendQuote(buf, s)
		}
		return append(buf, s...)
	case slog.KindTime:
		return v.Time().AppendFormat(buf, timeFormat)
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	default:
		return fmt.Append(buf, v.Any())
	}
}

// JSONHandler returns a JSON handler that emits every level.
func JSONHandler(wr io.Writer) slog.Handler {
	lvl := new(slog.LevelVar)
	lvl.Set(levelMaxVerbosity)
	return JSONHandlerWithLevel(wr, lvl)
}

// JSONHandlerWithLevel returns a JSON handler filtered by lvl.
func JSONHandlerWithLevel(wr io.Writer, lvl *slog.LevelVar) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return replaceAttr(a, false)
		},
	})
}

// replaceAttr renames the builtin time and level keys to t and lvl and
// renders big numbers and Stringers (addresses, ids) as plain strings.
func replaceAttr(a slog.Attr, logfmt bool) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		if t, ok := a.Value.Any().(time.Time); ok {
			if logfmt {
				return slog.String("t", t.Format(timeFormat))
			}
			return slog.Time("t", t)
		}
	case slog.LevelKey:
		if l, ok := a.Value.Any().(slog.Level); ok {
			return slog.String("lvl", LevelString(l))
		}
	}

	switch v := a.Value.Any().(type) {
	case time.Time:
		if logfmt {
			return slog.String(a.Key, v.Format(timeFormat))
		}
	case *big.Int:
		return slog.String(a.Key, stringOrNil(v))
	case fmt.Stringer:
		return slog.String(a.Key, stringOrNil(v))
	}
	return a
}

func stringOrNil(s fmt.Stringer) string {
	if s == nil {
		return "<nil>"
	}
	if rv := reflect.ValueOf(s); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "<nil>"
	}
	return s.String()
}
