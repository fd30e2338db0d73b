package bot

import (
	"context"
	"strings"

	"github.com/m3rciful/notebot/core/dispatch"
	"github.com/m3rciful/notebot/internal/flow"
	"github.com/m3rciful/notebot/internal/models"
	"github.com/m3rciful/notebot/internal/store"
	"github.com/m3rciful/notebot/internal/validation"
)

func (b *Bot) seeLinks(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	links, err := b.store.FetchLinks(ctx, ev.UserID, store.AllLinks(), store.FetchOptions{WithRelated: true})
	if err != nil {
		return err
	}
	return r.Send(ctx, renderLinks(links), MainKeyboard())
}

func (b *Bot) linksByRubric(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	groups, err := b.store.FetchLinksGrouped(ctx, ev.UserID)
	if err != nil {
		return err
	}
	return r.Send(ctx, renderGroups(groups), MainKeyboard())
}

func (b *Bot) addLinkStart(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	if err := b.save(ctx, ev, flow.AddLink{Step: flow.AwaitURL}); err != nil {
		return err
	}
	return r.Send(ctx, MsgInputLinkURL, removeKeyboard())
}

func (b *Bot) addLinkURL(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	url, err := validation.LinkURL(ev.Text)
	if err != nil {
		return r.Send(ctx, validation.Format(err), nil)
	}
	if err := b.save(ctx, ev, flow.AddLink{Step: flow.AwaitDescription, URL: url}); err != nil {
		return err
	}
	if err := r.Send(ctx, MsgLinkURLAccepted, nil); err != nil {
		return err
	}
	return r.Send(ctx, MsgInputLinkDescription, passKeyboard())
}

func (b *Bot) addLinkDescription(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	st, ok, err := current[flow.AddLink](ctx, b, ev)
	if err != nil {
		return err
	}
	if !ok {
		return b.lost(ctx, ev, r)
	}

	accepted := MsgEmptyLinkDescription
	if strings.TrimSpace(ev.Text) != BtnPass {
		st.Description, err = validation.LinkDescription(ev.Text)
		if err != nil {
			return r.Send(ctx, validation.Format(err), passKeyboard())
		}
		if st.Description != nil {
			accepted = MsgLinkDescription
		}
	}

	rubrics, err := b.store.FetchRubrics(ctx, ev.UserID, store.FetchOptions{})
	if err != nil {
		return err
	}
	if len(rubrics) == 0 {
		if err := r.Send(ctx, accepted, nil); err != nil {
			return err
		}
		return b.commitLink(ctx, ev, r, st, nil)
	}

	st.Step = flow.AwaitRubric
	if err := b.save(ctx, ev, st); err != nil {
		return err
	}
	if err := r.Send(ctx, accepted, removeKeyboard()); err != nil {
		return err
	}
	return r.Send(ctx, MsgChooseLinkRubric, linkRubricKeyboard(rubrics))
}

func (b *Bot) addLinkRubric(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	if err := r.RemoveInlineKeyboard(ctx); err != nil {
		return err
	}
	st, ok, err := current[flow.AddLink](ctx, b, ev)
	if err != nil {
		return err
	}
	if !ok {
		return b.lost(ctx, ev, r)
	}
	if ev.Callback.Payload == payloadPass {
		return b.commitLink(ctx, ev, r, st, nil)
	}
	id, err := ev.Callback.PayloadInt64()
	if err != nil {
		return b.rechooseRubric(ctx, ev, r)
	}
	return b.commitLink(ctx, ev, r, st, &id)
}

// commitLink stores the collected link and ends the flow. A rubric deleted
// in the meantime sends the user back to the rubric choice.
func (b *Bot) commitLink(ctx context.Context, ev *dispatch.Event, r dispatch.Responder, st flow.AddLink, rubricID *int64) error {
	link := models.Link{URL: st.URL, Description: st.Description, UserID: ev.UserID, RubricID: rubricID}
	err := b.store.AddLink(ctx, &link)
	if isNotFound(err) && rubricID != nil {
		return b.rechooseRubric(ctx, ev, r)
	}
	if err != nil {
		return err
	}
	if rubricID != nil {
		link.Rubric, err = b.store.FetchRubric(ctx, ev.UserID, *rubricID, store.FetchOptions{})
		if err != nil && !isNotFound(err) {
			return err
		}
	}
	return b.finish(ctx, ev, r, MsgLinkAddedPrefix+"\n"+linkWithRubric(link))
}

func (b *Bot) rechooseRubric(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	rubrics, err := b.store.FetchRubrics(ctx, ev.UserID, store.FetchOptions{})
	if err != nil {
		return err
	}
	return r.Send(ctx, MsgLinkRubricGone, linkRubricKeyboard(rubrics))
}

func (b *Bot) deleteLinkStart(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	links, err := b.store.FetchLinks(ctx, ev.UserID, store.AllLinks(), store.FetchOptions{WithRelated: true})
	if err != nil {
		return err
	}
	if len(links) == 0 {
		return r.Send(ctx, MsgNoLinks, MainKeyboard())
	}
	if err := b.save(ctx, ev, flow.DeleteLink{Step: flow.AwaitLinkChoice}); err != nil {
		return err
	}
	return r.Send(ctx, MsgChooseLinkToDelete, linksKeyboard(links))
}

func (b *Bot) deleteLinkChoice(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	if err := r.RemoveInlineKeyboard(ctx); err != nil {
		return err
	}
	id, err := ev.Callback.PayloadInt64()
	if err != nil {
		return b.finish(ctx, ev, r, MsgLinkGone)
	}
	err = b.store.DeleteLink(ctx, ev.UserID, id)
	if isNotFound(err) {
		return b.finish(ctx, ev, r, MsgLinkGone)
	}
	if err != nil {
		return err
	}
	return b.finish(ctx, ev, r, MsgLinkDeleted)
}
