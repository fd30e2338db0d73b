package helpers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/notebot/core/logger"
	"github.com/m3rciful/notebot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var outbound atomic.Pointer[sender.Sender]

// UseSender routes helper sends through s; nil sends inline.
func UseSender(s *sender.Sender) {
	outbound.Store(s)
}

// submit hands job to the ordered sender. It runs inline when no sender is
// wired or the sender refuses the job.
func submit(ctx context.Context, chatID int64, job sender.Job) error {
	s := outbound.Load()
	if s == nil {
		return job.Do()
	}
	err := s.Submit(ctx, chatID, job)
	if errors.Is(err, sender.ErrFull) || errors.Is(err, sender.ErrClosed) {
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", job.Action),
			slog.String("err", err.Error()),
		)
		return job.Do()
	}
	return err
}

func htmlOptions(markup *tele.ReplyMarkup) *tele.SendOptions {
	return &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: markup}
}

// SendHTML sends an HTML message without link previews to the current chat.
func SendHTML(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	ctx := Context(c)
	return submit(ctx, chatID(c), sender.Job{Action: "send.text", Endpoint: "sendMessage", Do: func() error {
		return c.Send(text, htmlOptions(markup), tele.NoPreview)
	}})
}

// SendHTMLTo sends an HTML message to chatID outside of an update.
func SendHTMLTo(ctx context.Context, bot *tele.Bot, chatID int64, text string) error {
	return submit(ctx, chatID, sender.Job{Action: "send.text", Endpoint: "sendMessage", Do: func() error {
		_, err := bot.Send(tele.ChatID(chatID), text, htmlOptions(nil), tele.NoPreview)
		return err
	}})
}

// SendSticker sends a sticker by file id to the current chat.
func SendSticker(c tele.Context, fileID string) error {
	ctx := Context(c)
	return submit(ctx, chatID(c), sender.Job{Action: "send.sticker", Endpoint: "sendSticker", Do: func() error {
		return c.Send(&tele.Sticker{File: tele.File{FileID: fileID}})
	}})
}

// RemoveInlineKeyboard strips the inline keyboard from the message the
// current callback belongs to.
func RemoveInlineKeyboard(c tele.Context) error {
	if c.Callback() == nil || c.Message() == nil {
		return nil
	}
	ctx := Context(c)
	msg := c.Message()
	return submit(ctx, chatID(c), sender.Job{Action: "edit.markup", Endpoint: "editMessageReplyMarkup", Do: func() error {
		_, err := c.Bot().EditReplyMarkup(msg, nil)
		return err
	}})
}

func chatID(c tele.Context) int64 {
	if chat := c.Chat(); chat != nil {
		return chat.ID
	}
	if user := c.Sender(); user != nil {
		return user.ID
	}
	return 0
}
