package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
)

// consoleHandler writes one human-readable line per record:
//
//	2026-10-17 07:30:00 WARN pipeline: acknowledge failed notification_id=17 error="..."
type consoleHandler struct {
	mu     *sync.Mutex
	out    io.Writer
	level  slog.Leveler
	source bool
	color  bool

	fixed  []field
	prefix string // dotted group path applied to later attributes
}

type field struct {
	key string
	val slog.Value
}

var levelColors = map[string]text.Colors{
	"ERROR": {text.FgRed},
	"WARN":  {text.FgYellow},
	"INFO":  {text.FgBlue},
	"DEBUG": {text.FgHiBlack},
}

func newConsoleHandler(w io.Writer, level slog.Leveler, source, color bool) slog.Handler {
	return &consoleHandler{mu: &sync.Mutex{}, out: w, level: level, source: source, color: color}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, r slog.Record) error {
	if !h.Enabled(context.Background(), r.Level) {
		return nil
	}
	fields := append([]field(nil), h.fixed...)
	r.Attrs(func(a slog.Attr) bool {
		fields = appendAttr(fields, h.prefix, a)
		return true
	})

	component := ""
	rest := fields[:0]
	for _, f := range fields {
		if f.key == FieldComponent {
			if component == "" {
				component = plainValue(f.val)
			}
			continue
		}
		rest = append(rest, f)
	}

	when := r.Time
	if when.IsZero() {
		when = time.Now()
	}
	var line strings.Builder
	line.WriteString(when.Local().Format(time.DateTime))
	line.WriteByte(' ')
	line.WriteString(h.levelTag(r.Level))
	line.WriteByte(' ')
	if component != "" {
		line.WriteString(component + ": ")
	}
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		msg = "(no message)"
	}
	line.WriteString(msg)
	if h.source {
		if src := r.Source(); src != nil {
			fmt.Fprintf(&line, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	for _, f := range lastWins(rest) {
		if f.key != "" {
			line.WriteString(" " + f.key + "=" + quotedValue(f.val))
		}
	}
	line.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line.String())
	return err
}

func (h *consoleHandler) levelTag(level slog.Level) string {
	tag := "DEBUG"
	switch {
	case level >= slog.LevelError:
		tag = "ERROR"
	case level >= slog.LevelWarn:
		tag = "WARN"
	case level >= slog.LevelInfo:
		tag = "INFO"
	}
	if !h.color {
		return tag
	}
	return levelColors[tag].Sprint(tag)
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.fixed = append([]field(nil), h.fixed...)
	for _, a := range attrs {
		next.fixed = appendAttr(next.fixed, h.prefix, a)
	}
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = joinKey(h.prefix, name)
	return &next
}

func appendAttr(dst []field, prefix string, a slog.Attr) []field {
	if a.Equal(slog.Attr{}) {
		return dst
	}
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = joinKey(prefix, a.Key)
		}
		for _, ga := range a.Value.Group() {
			dst = appendAttr(dst, inner, ga)
		}
		return dst
	}
	key := a.Key
	if key != "" {
		key = joinKey(prefix, key)
	}
	return append(dst, field{key: key, val: a.Value})
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// lastWins drops earlier duplicates so a run_id taken from the context and
// passed again explicitly prints once.
func lastWins(fields []field) []field {
	if len(fields) < 2 {
		return fields
	}
	final := make(map[string]int, len(fields))
	for i, f := range fields {
		final[f.key] = i
	}
	out := make([]field, 0, len(final))
	for i, f := range fields {
		if final[f.key] == i {
			out = append(out, f)
		}
	}
	return out
}

func plainValue(v slog.Value) string {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return fmt.Sprint(v.Any())
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339)
	default:
		return v.String()
	}
}

func quotedValue(v slog.Value) string {
	s := plainValue(v)
	if s == "" || strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
