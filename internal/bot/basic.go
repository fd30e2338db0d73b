package bot

import (
	"context"
	"strings"

	"github.com/m3rciful/notebot/core/dispatch"
	"github.com/m3rciful/notebot/core/telegram/format"
	"github.com/m3rciful/notebot/internal/models"
	"github.com/m3rciful/notebot/internal/validation"
)

func (b *Bot) start(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	if IsNewUser(ctx) {
		return r.Send(ctx, greeting(ev.Username), MainKeyboard())
	}
	return r.Send(ctx, MsgReturningUser, MainKeyboard())
}

func (b *Bot) help(ctx context.Context, _ *dispatch.Event, r dispatch.Responder) error {
	return r.Send(ctx, helpText, MainKeyboard())
}

func (b *Bot) cancel(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	return b.finish(ctx, ev, r, MsgCancelled)
}

func (b *Bot) backToMenu(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	return b.finish(ctx, ev, r, MsgMainMenu)
}

// reportBug stores the text after /bug. The flow, if any, is left as is.
func (b *Bot) reportBug(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	msg, err := validation.BugMessage(ev.Args)
	if err != nil {
		return r.Send(ctx, validation.Format(err), nil)
	}
	if err := b.store.AddBug(ctx, &models.Bug{Message: msg, UserID: ev.UserID}); err != nil {
		return err
	}
	return r.Send(ctx, MsgBugSaved, nil)
}

func (b *Bot) voice(ctx context.Context, _ *dispatch.Event, r dispatch.Responder) error {
	if err := r.SendSticker(ctx, voiceStickerID); err != nil {
		return err
	}
	return r.Send(ctx, format.Italic(MsgBadHabit), nil)
}

func (b *Bot) missedText(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	text := ev.Text
	if ev.Kind == dispatch.KindCommand && text == "" {
		text = "/" + ev.Command
	}
	return r.Send(ctx, missedText(text), nil)
}

func (b *Bot) unsupported(ctx context.Context, _ *dispatch.Event, r dispatch.Responder) error {
	return r.Send(ctx, unsupportedText(), nil)
}

func (b *Bot) staleButton(ctx context.Context, _ *dispatch.Event, r dispatch.Responder) error {
	if err := r.RemoveInlineKeyboard(ctx); err != nil {
		return err
	}
	return r.Send(ctx, MsgStaleButton, nil)
}

// captureLink saves the first link found in an idle message as a
// non-rubric link; the rest of the message becomes its description.
func (b *Bot) captureLink(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	raw := ev.Match[0]
	rest := ev.Text
	if i := strings.Index(rest, raw); i >= 0 {
		rest = rest[:i] + rest[i+len(raw):]
	}

	url, err := validation.LinkURL(raw)
	if err != nil {
		return r.Send(ctx, MsgCaughtLinkInvalid+validation.Format(err), nil)
	}
	desc, err := validation.LinkDescription(rest)
	if err != nil {
		return r.Send(ctx, MsgCaughtLinkInvalid+validation.Format(err), nil)
	}

	link := models.Link{URL: url, Description: desc, UserID: ev.UserID}
	if err := b.store.AddLink(ctx, &link); err != nil {
		return err
	}
	return r.Send(ctx, MsgCaughtLinkPrefix+linkText(link)+MsgCaughtLinkSuffix, nil)
}
