package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/m3rciful/notebot/core/dispatch"
	"github.com/m3rciful/notebot/core/telegram/format"
	"github.com/m3rciful/notebot/internal/flow"
	"github.com/m3rciful/notebot/internal/models"
	"github.com/m3rciful/notebot/internal/store"
	"github.com/m3rciful/notebot/internal/validation"
)

func (b *Bot) seeRubrics(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	rubrics, err := b.store.FetchRubrics(ctx, ev.UserID, store.FetchOptions{})
	if err != nil {
		return err
	}
	return r.Send(ctx, renderRubrics(rubrics), MainKeyboard())
}

func (b *Bot) addRubricStart(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	if err := b.save(ctx, ev, flow.AddRubric{Step: flow.AwaitName}); err != nil {
		return err
	}
	return r.Send(ctx, MsgInputRubricName, removeKeyboard())
}

func (b *Bot) addRubricName(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	name, err := validation.RubricName(ev.Text)
	if err != nil {
		return r.Send(ctx, validation.Format(err), nil)
	}
	ok, err := b.store.RubricNameAvailable(ctx, ev.UserID, name)
	if err != nil {
		return err
	}
	if !ok {
		return r.Send(ctx, MsgRubricNameTaken, nil)
	}
	if err := b.save(ctx, ev, flow.AddRubric{Step: flow.AwaitDescription, Name: name}); err != nil {
		return err
	}
	if err := r.Send(ctx, MsgRubricNameAccepted, nil); err != nil {
		return err
	}
	return r.Send(ctx, MsgInputRubricDescription, passKeyboard())
}

func (b *Bot) addRubricDescription(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	st, ok, err := current[flow.AddRubric](ctx, b, ev)
	if err != nil {
		return err
	}
	if !ok {
		return b.lost(ctx, ev, r)
	}

	var desc *string
	accepted := MsgEmptyRubricDescription
	if strings.TrimSpace(ev.Text) != BtnPass {
		desc, err = validation.RubricDescription(ev.Text)
		if err != nil {
			return r.Send(ctx, validation.Format(err), passKeyboard())
		}
		if desc != nil {
			accepted = MsgRubricDescription
		}
	}
	if err := r.Send(ctx, accepted, nil); err != nil {
		return err
	}

	rubric := models.Rubric{Name: st.Name, Description: desc, UserID: ev.UserID}
	err = b.store.AddRubric(ctx, &rubric)
	if errors.Is(err, store.ErrRubricNameTaken) {
		// lost a race with another insert of the same name
		if err := b.save(ctx, ev, flow.AddRubric{Step: flow.AwaitName}); err != nil {
			return err
		}
		if err := r.Send(ctx, MsgRubricNameTaken, nil); err != nil {
			return err
		}
		return r.Send(ctx, MsgInputRubricName, removeKeyboard())
	}
	if err != nil {
		return err
	}
	return b.finish(ctx, ev, r, MsgRubricAdded)
}

func (b *Bot) deleteRubricStart(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	rubrics, err := b.store.FetchRubrics(ctx, ev.UserID, store.FetchOptions{})
	if err != nil {
		return err
	}
	if len(rubrics) == 0 {
		return r.Send(ctx, MsgNoRubrics, MainKeyboard())
	}
	if err := b.save(ctx, ev, flow.DeleteRubric{Step: flow.AwaitRubricChoice}); err != nil {
		return err
	}
	return r.Send(ctx, MsgChooseRubricToDelete, rubricsKeyboard(ActionRubricDelete, rubrics, 0))
}

func (b *Bot) deleteRubricChoice(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	if err := r.RemoveInlineKeyboard(ctx); err != nil {
		return err
	}
	id, err := ev.Callback.PayloadInt64()
	if err != nil {
		return b.finish(ctx, ev, r, MsgRubricGone)
	}
	rubric, err := b.store.FetchRubric(ctx, ev.UserID, id, store.FetchOptions{})
	if isNotFound(err) {
		return b.finish(ctx, ev, r, MsgRubricGone)
	}
	if err != nil {
		return err
	}

	hasLinks, err := b.store.RubricHasLinks(ctx, ev.UserID, id)
	if err != nil {
		return err
	}
	if !hasLinks {
		return b.deleteRubric(ctx, ev, r, rubric.ID, rubric.Name, store.SetNonRubric())
	}

	total, err := b.store.CountRubrics(ctx, ev.UserID)
	if err != nil {
		return err
	}
	next := flow.DeleteRubric{Step: flow.AwaitLinkDisposition, RubricID: rubric.ID, RubricName: rubric.Name}
	if err := b.save(ctx, ev, next); err != nil {
		return err
	}
	return r.Send(ctx, MsgChooseDisposition, dispositionKeyboard(total > 1))
}

func (b *Bot) deleteRubricDisposition(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	st, ok, err := current[flow.DeleteRubric](ctx, b, ev)
	if err != nil {
		return err
	}
	if !ok {
		return b.lost(ctx, ev, r)
	}

	switch strings.TrimSpace(ev.Text) {
	case BtnSetNonRubric:
		return b.deleteRubric(ctx, ev, r, st.RubricID, st.RubricName, store.SetNonRubric())
	case BtnDeleteLinks:
		return b.deleteRubric(ctx, ev, r, st.RubricID, st.RubricName, store.DeleteLinks())
	}

	rubrics, err := b.store.FetchRubrics(ctx, ev.UserID, store.FetchOptions{})
	if err != nil {
		return err
	}
	kb := rubricsKeyboard(ActionLinksMove, rubrics, st.RubricID)
	if len(kb.Inline) == 0 {
		return r.Send(ctx, MsgNoMigrationTarget, dispositionKeyboard(false))
	}
	st.Step = flow.AwaitTargetRubric
	if err := b.save(ctx, ev, st); err != nil {
		return err
	}
	text := "Choose one of the list below: [all links related with " + format.Bold(st.RubricName) +
		" will be moved in ...]"
	return r.Send(ctx, text, kb)
}

func (b *Bot) deleteRubricTarget(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	if err := r.RemoveInlineKeyboard(ctx); err != nil {
		return err
	}
	st, ok, err := current[flow.DeleteRubric](ctx, b, ev)
	if err != nil {
		return err
	}
	if !ok {
		return b.lost(ctx, ev, r)
	}
	targetID, err := ev.Callback.PayloadInt64()
	if err != nil {
		return b.finish(ctx, ev, r, MsgRubricGone)
	}
	target, err := b.store.FetchRubric(ctx, ev.UserID, targetID, store.FetchOptions{})
	if isNotFound(err) {
		return b.finish(ctx, ev, r, MsgRubricGone)
	}
	if err != nil {
		return err
	}

	err = b.store.DeleteRubric(ctx, ev.UserID, st.RubricID, store.MigrateTo(target.ID))
	if isNotFound(err) {
		return b.finish(ctx, ev, r, MsgRubricGone)
	}
	if err != nil {
		return err
	}
	text := "Links related with the " + format.Bold(st.RubricName) +
		" rubric have migrated in the " + format.Bold(target.Name) + " rubric!"
	return b.finish(ctx, ev, r, text)
}

func (b *Bot) deleteRubric(ctx context.Context, ev *dispatch.Event, r dispatch.Responder, id int64, name string, d store.Disposition) error {
	err := b.store.DeleteRubric(ctx, ev.UserID, id, d)
	if isNotFound(err) {
		return b.finish(ctx, ev, r, MsgRubricGone)
	}
	if err != nil {
		return err
	}
	return b.finish(ctx, ev, r, EmojiCompleted+" Rubric ("+format.Bold(name)+") has been deleted!")
}
