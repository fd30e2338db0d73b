package middleware

import (
	"github.com/m3rciful/notebot/core/metrics"

	tele "gopkg.in/telebot.v4"
)

const (
	messagesKey = "messages"
	keyboardKey = "kb"
)

// UpdateKind names the kind of update for metrics and rate-limit exclusions.
func UpdateKind(c tele.Context) string {
	upd := c.Update()
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil && upd.Message.Voice != nil:
		return "voice"
	case upd.Message != nil && upd.Message.Text != "":
		if len(upd.Message.Text) > 1 && upd.Message.Text[0] == '/' {
			return "command"
		}
		return "text"
	default:
		return "other"
	}
}

// CountMessage records one reply on c for the handler summary.
func CountMessage(c tele.Context, hasKB bool) {
	n, _ := c.Get(messagesKey).(int)
	c.Set(messagesKey, n+1)
	if hasKB {
		c.Set(keyboardKey, true)
	}
}

// MessageMetricsMiddleware counts updates by kind and resets the per-update
// reply counters.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		metrics.UpdatesReceived.WithLabelValues(UpdateKind(c)).Inc()
		c.Set(messagesKey, 0)
		c.Set(keyboardKey, false)
		return next(c)
	}
}

// GetCounters reads message count and keyboard presence flags from context.
func GetCounters(c tele.Context) (int, bool) {
	msgs, _ := c.Get(messagesKey).(int)
	kb, _ := c.Get(keyboardKey).(bool)
	return msgs, kb
}
