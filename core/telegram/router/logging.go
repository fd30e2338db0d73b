package router

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/notebot/core/dispatch"
	"github.com/m3rciful/notebot/core/logger"
	tghelpers "github.com/m3rciful/notebot/core/telegram/helpers"
	"github.com/m3rciful/notebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// logHandlerSummary writes one handler.handled line per update.
func logHandlerSummary(c tele.Context, res dispatch.Result, start time.Time, err error) {
	ctx := tghelpers.WithHandler(c, normalizeHandlerName(res.Route))
	msgs, kb := middleware.GetCounters(c)

	status, outcome := "ok", "ok"
	switch res.Outcome {
	case dispatch.OutcomeError:
		status, outcome = "fail", "fail"
	case dispatch.OutcomeLimited:
		status, outcome = "rate_limited", "rate_limited"
	case dispatch.OutcomeUnrouted:
		status = "skip"
	}

	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("handler", normalizeHandlerName(res.Route)),
		slog.String("state", res.State),
		slog.String("outcome", outcome),
		slog.Int("messages", msgs),
		slog.Bool("kb", kb),
		slog.Duration("duration", time.Since(start)),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", deriveErrorCode(err)),
			slog.String("cause", res.Route),
		)
	}
	logger.Info(ctx, "tg", "handler.handled", attrs...)
}

func normalizeHandlerName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "unknown"
	}
	name = strings.TrimPrefix(name, "/")
	name = strings.ReplaceAll(name, " ", "_")
	return strings.ToLower(name)
}

// deriveErrorCode names the innermost error type, preferring a Code method.
func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	type coder interface{ Code() string }
	var c coder
	if errors.As(err, &c) {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	for inner := errors.Unwrap(err); inner != nil; inner = errors.Unwrap(inner) {
		err = inner
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return strings.ToUpper(t.Name())
	}
	return "UNKNOWN_ERROR"
}
