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
	"unicode"
)

// textHandler writes one line per record:
//
//	2026-01-02T15:04:05Z INFO [process task=1a2b3c4d session=5e6f7a8b] process started pid=42
//
// The component and the task and session IDs form the bracketed header;
// IDs are shortened to eight characters. In compact mode, used for stderr
// next to the transcription console, the timestamp and source location are
// dropped and the line starts with "scribe:".
type textHandler struct {
	out     *lockedWriter
	level   slog.Leveler
	compact bool
	source  bool
	attrs   []slog.Attr
	groups  []string
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func newTextHandler(w io.Writer, level slog.Leveler, compact, source bool) *textHandler {
	return &textHandler{out: &lockedWriter{w: w}, level: level, compact: compact, source: source}
}

func (h *textHandler) Enabled(_ context.Context, level slog.Level) bool {
	return h.level == nil || level >= h.level.Level()
}

func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make([]field, 0, len(h.attrs)+r.NumAttrs())
	fields = collect(fields, h.groups, h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		fields = collect(fields, h.groups, a)
		return true
	})

	var header []string
	var tags []string
	rest := fields[:0]
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			if len(header) == 0 {
				header = append(header, f.value.String())
			}
		case FieldTaskID:
			tags = append(tags, "task="+shortID(f.value.String()))
		case FieldSessionID:
			tags = append(tags, "session="+shortID(f.value.String()))
		default:
			rest = append(rest, f)
		}
	}
	header = append(header, tags...)

	buf := make([]byte, 0, 160)
	if h.compact {
		buf = append(buf, "scribe: "...)
	} else {
		ts := r.Time
		if ts.IsZero() {
			ts = time.Now()
		}
		buf = ts.UTC().AppendFormat(buf, time.RFC3339)
		buf = append(buf, ' ')
	}
	buf = append(buf, levelLabel(r.Level)...)
	if len(header) > 0 {
		buf = append(buf, " ["...)
		buf = append(buf, strings.Join(header, " ")...)
		buf = append(buf, ']')
	}
	buf = append(buf, ' ')
	if msg := strings.TrimSpace(r.Message); msg != "" {
		buf = append(buf, msg...)
	} else {
		buf = append(buf, "(no message)"...)
	}
	if h.source && !h.compact {
		if src := r.Source(); src != nil && src.File != "" {
			buf = fmt.Appendf(buf, " (%s:%d)", filepath.Base(src.File), src.Line)
		}
	}
	for _, f := range rest {
		buf = append(buf, ' ')
		buf = append(buf, f.key...)
		buf = append(buf, '=')
		buf = appendValue(buf, f.value)
	}
	buf = append(buf, '\n')

	h.out.mu.Lock()
	defer h.out.mu.Unlock()
	_, err := h.out.w.Write(buf)
	return err
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string(nil), h.groups...), name)
	return &next
}

type field struct {
	key   string
	value slog.Value
}

// collect flattens attrs into dotted keys under groups.
func collect(dst []field, groups []string, attrs ...slog.Attr) []field {
	for _, a := range attrs {
		if a.Equal(slog.Attr{}) {
			continue
		}
		v := a.Value.Resolve()
		if v.Kind() == slog.KindGroup {
			sub := groups
			if a.Key != "" {
				sub = append(append([]string(nil), groups...), a.Key)
			}
			dst = collect(dst, sub, v.Group()...)
			continue
		}
		key := a.Key
		if len(groups) > 0 {
			key = strings.Join(groups, ".") + "." + key
		}
		dst = append(dst, field{key: key, value: v})
	}
	return dst
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

func appendValue(buf []byte, v slog.Value) []byte {
	switch v.Kind() {
	case slog.KindString:
		return appendText(buf, v.String())
	case slog.KindInt64:
		return strconv.AppendInt(buf, v.Int64(), 10)
	case slog.KindUint64:
		return strconv.AppendUint(buf, v.Uint64(), 10)
	case slog.KindFloat64:
		return strconv.AppendFloat(buf, v.Float64(), 'f', -1, 64)
	case slog.KindBool:
		return strconv.AppendBool(buf, v.Bool())
	case slog.KindDuration:
		return append(buf, v.Duration().String()...)
	case slog.KindTime:
		return v.Time().UTC().AppendFormat(buf, time.RFC3339)
	default:
		if err, ok := v.Any().(error); ok {
			return appendText(buf, err.Error())
		}
		return appendText(buf, fmt.Sprint(v.Any()))
	}
}

// appendText quotes s when it would not read back as a single token.
func appendText(buf []byte, s string) []byte {
	if s == "" || strings.ContainsFunc(s, func(r rune) bool {
		return r <= ' ' || r == '=' || r == '"' || !unicode.IsPrint(r)
	}) {
		return strconv.AppendQuote(buf, s)
	}
	return append(buf, s...)
}
