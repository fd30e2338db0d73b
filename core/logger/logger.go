// Package logger is the process wide structured logger. Records are
// rendered by a custom slog handler in a fixed key order and written
// asynchronously to stdout and an optional log file.
package logger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/m3rciful/notebot/core/buildinfo"
	coreconfig "github.com/m3rciful/notebot/core/config"
)

const (
	defaultSampleNum = 1
	defaultSampleDen = 50
	writeBufferSize  = 64 << 10
)

// settings is the resolved form of coreconfig.LoggingConfig.
type settings struct {
	level   slog.Level
	format  logFormat
	order   []string
	profile string
	num     int
	den     int
	file    string
	trace   bool
}

func settingsFrom(cfg *coreconfig.Config) settings {
	s := settings{
		level:   slog.LevelInfo,
		format:  formatJSON,
		order:   keyOrder,
		profile: "prod",
		num:     defaultSampleNum,
		den:     defaultSampleDen,
		trace:   truthy(os.Getenv("TRACE")) || truthy(os.Getenv("LOG_TRACE")),
	}
	if cfg == nil {
		return s
	}
	lc := cfg.Logging

	if p := strings.ToLower(strings.TrimSpace(lc.Profile)); p != "" {
		s.profile = p
	}
	if s.profile == "debug" || s.profile == "dev" {
		s.format = formatKV
	}
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		s.format = formatKV
	case "json":
		s.format = formatJSON
	}
	switch strings.ToLower(strings.TrimSpace(lc.Level)) {
	case "debug":
		s.level = slog.LevelDebug
	case "warn", "warning":
		s.level = slog.LevelWarn
	case "error":
		s.level = slog.LevelError
	}
	if raw := strings.TrimSpace(lc.KeysOrder); raw != "" && raw != "default" {
		var order []string
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				order = append(order, k)
			}
		}
		if len(order) > 0 {
			s.order = order
		}
	}
	if spec := strings.TrimSpace(lc.DebugSample); spec != "" {
		num, den := parseRatio(spec)
		switch {
		case spec == "0" || spec == "0/0":
			s.num, s.den = 0, 0
		case num > 0 && den > 0:
			s.num, s.den = num, den
		}
	}
	if dir, name := strings.TrimSpace(lc.Dir), strings.TrimSpace(lc.BotFile); dir != "" && name != "" {
		s.file = filepath.Join(dir, name)
	}
	return s
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

var (
	mu       sync.Mutex
	started  bool
	stopped  bool
	out      *asyncWriter
	logFile  io.Closer
	levelVar slog.LevelVar

	debugSampler sampler
	trace        bool

	// L is the base logger. It writes through slog.Default until InitLogger runs.
	L *slog.Logger

	TWire *slog.Logger // Telegram wiring and HTTP retries
	Redis *slog.Logger
	HTTP  *slog.Logger // health and metrics server
)

func init() {
	debugSampler.set(defaultSampleNum, defaultSampleDen)
	setBase(slog.Default())
}

func setBase(base *slog.Logger) {
	L = base
	TWire = Component("tg.wire")
	Redis = Component("redis")
	HTTP = Component("http")
}

// InitLogger installs the structured handler as slog's default. Only the
// first call has an effect.
func InitLogger(cfg *coreconfig.Config) error {
	mu.Lock()
	defer mu.Unlock()
	if started {
		return nil
	}
	s := settingsFrom(cfg)

	sinks := []io.Writer{os.Stdout}
	if s.file != "" {
		f, err := openLogFile(s.file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "logger: %v; continuing with stdout only\n", err)
		} else {
			sinks = append(sinks, f)
			logFile = f
		}
	}

	levelVar.Set(s.level)
	debugSampler.set(s.num, s.den)
	trace = s.trace
	out = newAsyncWriter(sinks, writeBufferSize)
	started = true

	base := slog.New(newHandler(&levelVar, s.format, slices.Clone(s.order), out))
	slog.SetDefault(base)
	setBase(base)

	L.LogAttrs(context.Background(), slog.LevelInfo, "startup",
		slog.String("component", "app"),
		slog.String("go_version", runtime.Version()),
		slog.String("build_commit", buildinfo.Commit),
		slog.String("build_time", buildinfo.Date),
		slog.String("cfg_profile", s.profile),
	)
	return nil
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// Shutdown drains pending records and closes the log file. Later calls
// are no-ops.
func Shutdown() error {
	mu.Lock()
	defer mu.Unlock()
	if stopped || !started {
		return nil
	}
	stopped = true
	var errs []error
	if err := out.Close(); err != nil {
		errs = append(errs, err)
	}
	if logFile != nil {
		errs = append(errs, logFile.Close())
	}
	return errors.Join(errs...)
}

// Component returns L scoped to name.
func Component(name string) *slog.Logger {
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// Log writes one event for component at level.
func Log(ctx context.Context, level slog.Level, component, event string, attrs ...slog.Attr) {
	if ctx == nil {
		ctx = context.Background()
	}
	lg := Component(component)
	if !lg.Enabled(ctx, level) {
		return
	}
	lg.LogAttrs(ctx, level, event, attrs...)
}

func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Log(ctx, slog.LevelDebug, component, event, attrs...)
}

func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Log(ctx, slog.LevelInfo, component, event, attrs...)
}

func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Log(ctx, slog.LevelWarn, component, event, attrs...)
}

func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	Log(ctx, slog.LevelError, component, event, attrs...)
}

// ShouldSampleDebug reports whether a high volume debug event should be
// logged. TRACE=1 lets every event through.
func ShouldSampleDebug() bool {
	return trace || debugSampler.allow()
}
