package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/m3rciful/notebot/core/dispatch"
	"github.com/m3rciful/notebot/core/telegram/format"
)

// AdminCommands lists the admin-only commands with their descriptions.
var AdminCommands = []struct {
	Name        string
	Description string
}{
	{"admin_commands", "show this message;"},
	{"admin_user_count", "fetch users quantity;"},
	{"admin_all_bugs", "fetch all bugs;"},
	{"admin_unwatched_bugs", "fetch unwatched bugs."},
}

func (b *Bot) adminCommands(ctx context.Context, _ *dispatch.Event, r dispatch.Responder) error {
	lines := make([]string, 0, len(AdminCommands))
	for _, c := range AdminCommands {
		lines = append(lines, "/"+c.Name+" - "+c.Description)
	}
	return r.Send(ctx, strings.Join(lines, "\n"), nil)
}

func (b *Bot) adminUserCount(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	n, err := b.store.CountUsers(ctx)
	if err != nil {
		return err
	}
	name := ev.Username
	if name == "" {
		name = nameFallback
	}
	text := fmt.Sprintf("Admin %s, <b>%d</b> users have tried to interact with bot.", format.Escape(name), n)
	return r.Send(ctx, text, nil)
}

func (b *Bot) adminAllBugs(ctx context.Context, _ *dispatch.Event, r dispatch.Responder) error {
	return b.listBugs(ctx, r, false)
}

func (b *Bot) adminUnwatchedBugs(ctx context.Context, _ *dispatch.Event, r dispatch.Responder) error {
	return b.listBugs(ctx, r, true)
}

// listBugs sends the bug list and marks every bug as seen once it went out.
func (b *Bot) listBugs(ctx context.Context, r dispatch.Responder, unseenOnly bool) error {
	bugs, err := b.store.FetchBugs(ctx, unseenOnly)
	if err != nil {
		return err
	}
	header := MsgAllBugsHeader
	if unseenOnly {
		header = MsgUnwatchedBugsHeader
	}
	if err := r.Send(ctx, renderBugs(header, bugs), nil); err != nil {
		return err
	}
	if len(bugs) == 0 {
		return nil
	}
	_, err = b.store.MarkAllBugsSeen(ctx)
	return err
}

// NotifyStartup tells every admin that the bot is running.
func NotifyStartup(ctx context.Context, send func(ctx context.Context, chatID int64, text string) error, admins []int64) error {
	var firstErr error
	for _, id := range admins {
		if err := send(ctx, id, MsgStartupNotification); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("notify admin %d: %w", id, err)
		}
	}
	return firstErr
}
