// Package router feeds telebot updates into the dispatch table.
package router

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/m3rciful/notebot/core/dispatch"
	tg "github.com/m3rciful/notebot/core/telegram"
	"github.com/m3rciful/notebot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/notebot/core/telegram/helpers"
	"github.com/m3rciful/notebot/core/telegram/keyboard"
	"github.com/m3rciful/notebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// endpoints covers every update kind the table may answer. Commands reach
// OnText because no command endpoint is registered with telebot.
var endpoints = []string{
	tele.OnText,
	tele.OnCallback,
	tele.OnVoice,
	tele.OnMedia,
	tele.OnContact,
	tele.OnLocation,
	tele.OnVenue,
	tele.OnDice,
	tele.OnPoll,
}

// Routes binds every endpoint to the table.
func Routes(table *dispatch.Table) []tg.Route {
	h := Handler(table)
	routes := make([]tg.Route, 0, len(endpoints))
	for _, ep := range endpoints {
		routes = append(routes, tg.Route{Endpoint: ep, Handler: h})
	}
	return routes
}

// Handler dispatches one update and logs its summary. Handler failures were
// already reported to the user by the table, so they are not returned.
func Handler(table *dispatch.Table) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		ev := NewEvent(c)
		if ev.Kind == dispatch.KindCallback {
			_ = c.Respond()
		}
		ctx := tghelpers.Context(c)
		res, err := table.Dispatch(ctx, ev, &Responder{c: c})
		logHandlerSummary(c, res, start, err)
		return nil
	}
}

// NewEvent converts an update into a dispatch event.
func NewEvent(c tele.Context) *dispatch.Event {
	upd := c.Update()
	ev := &dispatch.Event{UpdateID: upd.ID}
	if user := c.Sender(); user != nil {
		ev.UserID = user.ID
		ev.Username = user.Username
	}
	if chat := c.Chat(); chat != nil {
		ev.ChatID = chat.ID
	}

	switch {
	case upd.Callback != nil:
		ev.Kind = dispatch.KindCallback
		ev.Callback = callbacks.Parse(upd.Callback)
	case upd.Message != nil && upd.Message.Voice != nil:
		ev.Kind = dispatch.KindVoice
	case upd.Message != nil && upd.Message.Text != "":
		ev.Text = upd.Message.Text
		if cmd, args, ok := ParseCommand(ev.Text); ok {
			ev.Kind = dispatch.KindCommand
			ev.Command = cmd
			ev.Args = args
		} else {
			ev.Kind = dispatch.KindText
		}
	default:
		ev.Kind = dispatch.KindOther
	}
	return ev
}

// ParseCommand splits "/name@bot args" into a lower-case name and args.
func ParseCommand(text string) (string, string, bool) {
	if !strings.HasPrefix(text, "/") || len(text) < 2 {
		return "", "", false
	}
	head, args := text[1:], ""
	if i := strings.IndexFunc(head, unicode.IsSpace); i >= 0 {
		head, args = head[:i], head[i:]
	}
	name, _, _ := strings.Cut(head, "@")
	if name == "" {
		return "", "", false
	}
	return strings.ToLower(name), strings.TrimSpace(args), true
}

// Responder replies through the ordered sender.
type Responder struct {
	c tele.Context
}

var _ dispatch.Responder = (*Responder)(nil)

// Send sends an HTML message with optional keyboard.
func (r *Responder) Send(_ context.Context, text string, kb *dispatch.Keyboard) error {
	markup := keyboard.Markup(kb)
	middleware.CountMessage(r.c, markup != nil)
	return tghelpers.SendHTML(r.c, text, markup)
}

// SendSticker sends a sticker by file id.
func (r *Responder) SendSticker(_ context.Context, fileID string) error {
	middleware.CountMessage(r.c, false)
	return tghelpers.SendSticker(r.c, fileID)
}

// RemoveInlineKeyboard clears the keyboard of the pressed message.
func (r *Responder) RemoveInlineKeyboard(context.Context) error {
	return tghelpers.RemoveInlineKeyboard(r.c)
}
