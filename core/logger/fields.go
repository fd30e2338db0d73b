package logger

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

// keyOrder puts the fields an operator scans first at the front of a line.
// Keys not listed follow in alphabetical order.
var keyOrder = []string{
	"ts", "level", "component", "event", "status", "rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "chat_type", "handler", "route", "state", "next_state",
	"flow", "op", "cb_key", "outcome", "duration_ms", "count", "affected", "payload",
	"username", "mode", "listen", "addr", "http_code", "engine", "driver", "db", "host", "port",
	"rubric_id", "link_id", "target_rubric_id", "disposition",
	"err", "err_code", "retryable", "attempts", "backoff_ms",
}

// outcomes is the closed vocabulary of the outcome field. Unknown values
// are dropped.
var outcomes = set("ok", "fail", "cancelled", "rate_limited")

// secretKeys never reach the sinks in clear text.
var secretKeys = set("token", "password", "dsn")

func set(values ...string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}

// fieldSet is the flattened content of one record.
type fieldSet map[string]any

func (f fieldSet) str(key string) string {
	s, _ := f[key].(string)
	return s
}

func (f fieldSet) setDefault(key string, v any) {
	if _, ok := f[key]; ok {
		return
	}
	switch x := v.(type) {
	case string:
		if x == "" {
			return
		}
	case int:
		if x == 0 {
			return
		}
	case int64:
		if x == 0 {
			return
		}
	}
	f[key] = v
}

// add flattens attr under prefix into f.
func (f fieldSet) add(prefix string, attr slog.Attr) {
	key := attr.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}
	if attr.Value.Kind() == slog.KindGroup {
		for _, child := range attr.Value.Group() {
			f.add(key, child)
		}
		return
	}
	if key == "" {
		return
	}
	if secretKeys[key] {
		f[key] = "<redacted>"
		return
	}
	k, v, ok := convert(key, attr.Value.Resolve())
	if ok {
		f[k] = v
	}
}

// convert maps an slog value to a JSON friendly one. Durations become
// whole milliseconds under a key ending in _ms.
func convert(key string, v slog.Value) (string, any, bool) {
	switch v.Kind() {
	case slog.KindString:
		s := strings.TrimSpace(v.String())
		return key, s, s != ""
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return msKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return key, nil, false
	case error:
		return key, x.Error(), true
	case fmt.Stringer:
		s := x.String()
		return key, s, s != ""
	default:
		return key, fmt.Sprint(x), true
	}
}

func msKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	default:
		return key + "_ms"
	}
}

// normalize lowercases status and enforces the outcome vocabulary.
func (f fieldSet) normalize() {
	if s := f.str("status"); s != "" {
		f["status"] = strings.ToLower(s)
	}
	if o := f.str("outcome"); o != "" {
		o = strings.ToLower(o)
		if outcomes[o] {
			f["outcome"] = o
		} else {
			delete(f, "outcome")
		}
	}
}
