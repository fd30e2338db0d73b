package middleware

import (
	"log/slog"
	"sync"

	"github.com/m3rciful/notebot/core/logger"
	"github.com/m3rciful/notebot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/notebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// seenUpdates remembers the last len(ids) update ids so an update that
// passes the middleware twice is logged once.
type seenUpdates struct {
	mu   sync.Mutex
	ids  [256]int
	next int
	set  map[int]struct{}
}

func (s *seenUpdates) firstTime(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.set == nil {
		s.set = make(map[int]struct{}, len(s.ids))
	}
	if _, ok := s.set[id]; ok {
		return false
	}
	if len(s.set) == len(s.ids) {
		delete(s.set, s.ids[s.next])
	}
	s.ids[s.next] = id
	s.next = (s.next + 1) % len(s.ids)
	s.set[id] = struct{}{}
	return true
}

var received seenUpdates

// ReceiptMiddleware binds the update identifiers to the handler context and
// logs a sampled update.received line.
func ReceiptMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := tghelpers.Context(c)
		upd := c.Update()
		if logger.ShouldSampleDebug() && received.firstTime(upd.ID) {
			logger.Debug(ctx, "tg", "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("kind", UpdateKind(c)),
	}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs, slog.String("chat_type", string(chat.Type)))
	}
	if user := c.Sender(); user != nil {
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}
	upd := c.Update()
	if upd.Callback != nil {
		data := callbacks.Parse(upd.Callback)
		if data.Action != "" {
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(data.Action, 128)))
		}
		if data.Payload != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(data.Payload, 256)))
		}
	} else if t := c.Text(); t != "" {
		attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
	}
	return attrs
}
