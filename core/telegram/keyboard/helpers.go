// Package keyboard renders dispatch keyboards as telebot markup.
package keyboard

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/notebot/core/dispatch"
)

// Markup converts kb. A nil result leaves the chat's keyboard as it is.
func Markup(kb *dispatch.Keyboard) *tele.ReplyMarkup {
	switch {
	case kb == nil:
		return nil
	case kb.Remove:
		return &tele.ReplyMarkup{RemoveKeyboard: true}
	case len(kb.Inline) > 0:
		return inline(kb.Inline)
	case len(kb.Reply) > 0:
		return reply(kb.Reply, kb.OneTime)
	}
	return nil
}

// inline maps Action to the telebot unique; telebot sends it as
// "\f<action>|<payload>", which callbacks.Parse reads back.
func inline(rows [][]dispatch.Button) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{InlineKeyboard: make([][]tele.InlineButton, 0, len(rows))}
	for _, row := range rows {
		btns := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			btns = append(btns, *m.Data(b.Text, b.Action, b.Payload).Inline())
		}
		m.InlineKeyboard = append(m.InlineKeyboard, btns)
	}
	return m
}

func reply(rows [][]string, oneTime bool) *tele.ReplyMarkup {
	m := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: oneTime}
	kb := make([]tele.Row, 0, len(rows))
	for _, labels := range rows {
		row := make(tele.Row, 0, len(labels))
		for _, l := range labels {
			row = append(row, m.Text(l))
		}
		kb = append(kb, row)
	}
	m.Reply(kb...)
	return m
}
