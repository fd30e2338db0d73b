package logger

import (
	"context"
	"fmt"
)

// Update identifies the Telegram update a context belongs to.
type Update struct {
	ID     int
	ChatID int64
	UserID int64
}

// RID is the correlation id of the update, "update:chat:user".
func (u Update) RID() string {
	return fmt.Sprintf("%d:%d:%d", u.ID, u.ChatID, u.UserID)
}

type metaKey struct{}

// meta is copied on every With call so parents never see child values.
type meta struct {
	update  Update
	hasUpd  bool
	handler string
	state   string
}

func metaFrom(ctx context.Context) meta {
	if ctx == nil {
		return meta{}
	}
	m, _ := ctx.Value(metaKey{}).(meta)
	return m
}

func withMeta(ctx context.Context, fn func(*meta)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	m := metaFrom(ctx)
	fn(&m)
	return context.WithValue(ctx, metaKey{}, m)
}

// WithUpdate attaches update identifiers; every record logged with the
// context carries them and the rid.
func WithUpdate(ctx context.Context, u Update) context.Context {
	return withMeta(ctx, func(m *meta) {
		m.update = u
		m.hasUpd = true
	})
}

// UpdateFrom returns the identifiers stored by WithUpdate.
func UpdateFrom(ctx context.Context) (Update, bool) {
	m := metaFrom(ctx)
	return m.update, m.hasUpd
}

// RIDFrom returns the rid of the update in ctx, empty outside an update.
func RIDFrom(ctx context.Context) string {
	if u, ok := UpdateFrom(ctx); ok {
		return u.RID()
	}
	return ""
}

// WithHandler records the route handling the update.
func WithHandler(ctx context.Context, handler string) context.Context {
	if handler == "" {
		return ctx
	}
	return withMeta(ctx, func(m *meta) { m.handler = handler })
}

// HandlerFrom returns the route stored by WithHandler.
func HandlerFrom(ctx context.Context) string {
	return metaFrom(ctx).handler
}

// WithState records the conversation state the update was routed in.
func WithState(ctx context.Context, state string) context.Context {
	if state == "" {
		return ctx
	}
	return withMeta(ctx, func(m *meta) { m.state = state })
}

// StateFrom returns the conversation state stored by WithState.
func StateFrom(ctx context.Context) string {
	return metaFrom(ctx).state
}
