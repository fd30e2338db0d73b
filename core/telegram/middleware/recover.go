package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/notebot/core/logger"
	tghelpers "github.com/m3rciful/notebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RecoverMiddleware turns a panic outside the dispatch table into a logged
// error so the poller keeps running.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(tghelpers.Context(c), "tg", "tg.panic",
					slog.String("status", "fail"),
					slog.String("err", logger.SanitizeLimit(fmt.Sprint(r), 256)),
					slog.String("stack", logger.SanitizeLimit(string(debug.Stack()), 2048)),
				)
				err = nil
			}
		}()
		return next(c)
	}
}
