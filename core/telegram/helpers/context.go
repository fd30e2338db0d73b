package helpers

import (
	"context"

	"github.com/m3rciful/notebot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const ctxKey = "notebot.ctx"

// UpdateOf returns the log identifiers of the update behind c.
func UpdateOf(c tele.Context) logger.Update {
	u := logger.Update{ID: c.Update().ID}
	if chat := c.Chat(); chat != nil {
		u.ChatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		u.UserID = user.ID
	}
	return u
}

// Context returns the context.Context bound to c, creating one carrying
// the update identifiers on first use.
func Context(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxKey).(context.Context); ok {
		return ctx
	}
	return Bind(c, logger.WithUpdate(context.Background(), UpdateOf(c)))
}

// Bind makes ctx the context returned by later Context calls.
func Bind(c tele.Context, ctx context.Context) context.Context {
	c.Set(ctxKey, ctx)
	return ctx
}

// WithHandler binds the route name to c's context.
func WithHandler(c tele.Context, handler string) context.Context {
	return Bind(c, logger.WithHandler(Context(c), handler))
}
