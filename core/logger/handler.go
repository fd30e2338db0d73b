package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"
)

type logFormat string

const (
	formatJSON logFormat = "json"
	formatKV   logFormat = "kv"

	timeLayout = "2006-01-02T15:04:05.000Z07:00"
)

// handler renders records as single lines with a stable key order and
// hands them to the async writer.
type handler struct {
	level  slog.Leveler
	format logFormat
	order  []string
	out    *asyncWriter

	attrs  []slog.Attr
	prefix string
}

func newHandler(level slog.Leveler, format logFormat, order []string, out *asyncWriter) *handler {
	if level == nil {
		level = slog.LevelInfo
	}
	if len(order) == 0 {
		order = keyOrder
	}
	return &handler{level: level, format: format, order: order, out: out}
}

func (h *handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	for _, a := range attrs {
		if h.prefix != "" {
			a = slog.Attr{Key: h.prefix + "." + a.Key, Value: a.Value}
		}
		c.attrs = append(slices.Clip(c.attrs), a)
	}
	return &c
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	if c.prefix == "" {
		c.prefix = name
	} else {
		c.prefix += "." + name
	}
	return &c
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	if h.out == nil {
		return fmt.Errorf("logger: writer not initialized")
	}
	ts := r.Time.UTC()
	f := fieldSet{
		"ts":    ts.Truncate(time.Millisecond).Format(timeLayout),
		"level": strings.ToLower(r.Level.String()),
	}
	for _, a := range h.attrs {
		f.add("", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		f.add(h.prefix, a)
		return true
	})

	m := metaFrom(ctx)
	if m.hasUpd {
		f.setDefault("rid", m.update.RID())
		f.setDefault("update_id", m.update.ID)
		f.setDefault("user_id", m.update.UserID)
		f.setDefault("chat_id", m.update.ChatID)
	}
	f.setDefault("handler", m.handler)
	f.setDefault("state", m.state)
	f.setDefault("event", r.Message)
	f.setDefault("event", "unknown")
	f.setDefault("component", "app")

	if rid := f.str("rid"); rid != "" {
		if compact := CompactRID(rid); compact != rid {
			f["rid"] = compact
			if h.format == formatJSON {
				f.setDefault("rid_full", rid)
			}
		}
	}
	if h.format == formatJSON {
		f["ts_unix_nano"] = ts.UnixNano()
	}
	f.normalize()

	var line []byte
	if h.format == formatJSON {
		var err error
		if line, err = h.jsonLine(f); err != nil {
			return err
		}
	} else {
		line = h.kvLine(f)
	}
	return h.out.Write(append(line, '\n'))
}

// keys returns the configured order followed by the remaining keys sorted.
func (h *handler) keys(f fieldSet) []string {
	keys := make([]string, 0, len(f))
	seen := make(map[string]bool, len(f))
	for _, k := range h.order {
		if _, ok := f[k]; ok && !seen[k] {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	rest := make([]string, 0, len(f)-len(keys))
	for k := range f {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)
	return append(keys, rest...)
}

func (h *handler) jsonLine(f fieldSet) ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range h.keys(f) {
		v, err := json.Marshal(f[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendQuote(buf, k)
		buf = append(buf, ':')
		buf = append(buf, v...)
	}
	return append(buf, '}'), nil
}

func (h *handler) kvLine(f fieldSet) []byte {
	var b strings.Builder
	for i, k := range h.keys(f) {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		s := fmt.Sprint(f[k])
		if strings.IndexFunc(s, needsQuote) >= 0 {
			s = strconv.Quote(s)
		}
		b.WriteString(s)
	}
	return []byte(b.String())
}

func needsQuote(r rune) bool {
	return r <= ' ' || r == '=' || r == '"'
}
