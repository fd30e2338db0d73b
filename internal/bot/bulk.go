package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/m3rciful/notebot/core/dispatch"
	"github.com/m3rciful/notebot/internal/flow"
	"github.com/m3rciful/notebot/internal/store"
)

func (b *Bot) bulkStart(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	if err := b.save(ctx, ev, flow.BulkDelete{Step: flow.AwaitOperationChoice}); err != nil {
		return err
	}
	return r.Send(ctx, MsgBulkChooseOperation, bulkKeyboard())
}

func (b *Bot) bulkOperation(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	op, ok := bulkByLabel(strings.TrimSpace(ev.Text))
	if !ok {
		return r.Send(ctx, MsgBulkChooseOperation, bulkKeyboard())
	}
	if err := b.save(ctx, ev, flow.BulkDelete{Step: flow.AwaitConfirmation, Operation: op}); err != nil {
		return err
	}
	text := fmt.Sprintf("%s Are you sure you want to delete <b>%s</b>? This cannot be undone.",
		EmojiDangerous, bulkDescription(op))
	return r.Send(ctx, text, confirmKeyboard())
}

// bulkConfirm runs or drops the chosen operation and returns to the
// operation menu either way.
func (b *Bot) bulkConfirm(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	st, ok, err := current[flow.BulkDelete](ctx, b, ev)
	if err != nil {
		return err
	}
	if !ok || !st.Operation.Valid() {
		return b.lost(ctx, ev, r)
	}

	text := MsgBulkCancelled
	if strings.TrimSpace(ev.Text) == BtnYes {
		res, err := b.runBulk(ctx, ev.UserID, st.Operation)
		if err != nil {
			return err
		}
		text = fmt.Sprintf("%s Done! Deleted links: <b>%d</b>, rubrics: <b>%d</b>.",
			EmojiCompleted, res.Links, res.Rubrics)
	}
	if err := b.save(ctx, ev, flow.BulkDelete{Step: flow.AwaitOperationChoice}); err != nil {
		return err
	}
	return r.Send(ctx, text, bulkKeyboard())
}

func (b *Bot) runBulk(ctx context.Context, userID int64, op flow.BulkOperation) (store.BulkResult, error) {
	switch op {
	case flow.BulkAllLinks:
		return b.store.DeleteAllLinks(ctx, userID)
	case flow.BulkAllRubrics:
		return b.store.DeleteAllRubrics(ctx, userID)
	case flow.BulkAllRubricLinks:
		return b.store.DeleteAllRubricLinks(ctx, userID)
	case flow.BulkAllNonRubricLinks:
		return b.store.DeleteAllNonRubricLinks(ctx, userID)
	case flow.BulkAllData:
		return b.store.DeleteAllData(ctx, userID)
	default:
		return store.BulkResult{}, fmt.Errorf("unknown bulk operation %q", op)
	}
}
