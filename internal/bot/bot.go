// Package bot implements the link organizer conversations on top of the
// dispatch table: menu actions, the multi-step flows and admin commands.
package bot

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/m3rciful/notebot/core/dispatch"
	"github.com/m3rciful/notebot/internal/flow"
	"github.com/m3rciful/notebot/internal/store"
)

// Callback actions carried by inline buttons.
const (
	ActionRubricDelete = "rubric_delete"
	ActionLinksMove    = "links_move"
	ActionLinkRubric   = "link_rubric"
	ActionLinkDelete   = "link_delete"

	payloadPass = "pass"
)

// BugInterval throttles /bug per user.
const BugInterval = 5 * time.Minute

var linkPattern = regexp.MustCompile(`((http|https)\:\/\/)?[a-zA-Z0-9\.\/\?\:@\-_=#]+\.([a-zA-Z]){2,6}([a-zA-Z0-9\.\&\/\?\:@\-_=#])*`)

// Commands is the public command menu.
var Commands = []struct {
	Name        string
	Description string
}{
	{"start", "Start interaction with bot"},
	{"help", "Show help message"},
	{"cancel", "Cancel current action"},
	{"bug", "Report about bug"},
}

// Deps are the collaborators of a Bot.
type Deps struct {
	Store   *store.Store
	Flows   *flow.Tracker
	IsAdmin func(userID int64) bool
}

// Bot owns the conversation handlers.
type Bot struct {
	store   *store.Store
	flows   *flow.Tracker
	isAdmin func(int64) bool
	users   *knownUsers
}

// New builds a Bot.
func New(d Deps) *Bot {
	isAdmin := d.IsAdmin
	if isAdmin == nil {
		isAdmin = func(int64) bool { return false }
	}
	return &Bot{
		store:   d.Store,
		flows:   d.Flows,
		isAdmin: isAdmin,
		users:   newKnownUsers(knownUsersLimit),
	}
}

// Register installs every route, the catch-all and the user middleware.
// Within a state group routes are tried in the order listed here.
func (b *Bot) Register(t *dispatch.Table) {
	t.Use(b.EnsureUser)

	idle := dispatch.Idle()
	anyState := dispatch.AnyState()
	in := func(f string, step flow.Step) dispatch.StateFilter {
		return dispatch.InState(flow.StateName(f, step))
	}

	routes := []dispatch.Route{
		// commands available everywhere
		{Name: "cancel", Match: dispatch.Command("cancel"), State: anyState, Handler: b.cancel},
		{Name: "bug", Match: dispatch.Command("bug"), State: anyState, Handler: b.reportBug,
			RateLimit: dispatch.RateLimit{Interval: BugInterval}},

		// idle commands and menu
		{Name: "start", Match: dispatch.Command("start"), State: idle, Handler: b.start},
		{Name: "help", Match: dispatch.Command("help"), State: idle, Handler: b.help},
		{Name: "admin_commands", Match: dispatch.Command("admin_commands"), State: idle, Handler: b.adminCommands, AdminOnly: true},
		{Name: "admin_user_count", Match: dispatch.Command("admin_user_count"), State: idle, Handler: b.adminUserCount, AdminOnly: true},
		{Name: "admin_all_bugs", Match: dispatch.Command("admin_all_bugs"), State: idle, Handler: b.adminAllBugs, AdminOnly: true},
		{Name: "admin_unwatched_bugs", Match: dispatch.Command("admin_unwatched_bugs"), State: idle, Handler: b.adminUnwatchedBugs, AdminOnly: true},
		{Name: "see_links", Match: dispatch.Text(BtnSeeLinks), State: idle, Handler: b.seeLinks},
		{Name: "see_rubrics", Match: dispatch.Text(BtnSeeRubrics), State: idle, Handler: b.seeRubrics},
		{Name: "links_by_rubric", Match: dispatch.Text(BtnLinksByRubric), State: idle, Handler: b.linksByRubric},
		{Name: "add_link", Match: dispatch.Text(BtnAddLink), State: idle, Handler: b.addLinkStart},
		{Name: "add_rubric", Match: dispatch.Text(BtnAddRubric), State: idle, Handler: b.addRubricStart},
		{Name: "delete_link", Match: dispatch.Text(BtnDeleteLink), State: idle, Handler: b.deleteLinkStart},
		{Name: "delete_rubric", Match: dispatch.Text(BtnDeleteRubric), State: idle, Handler: b.deleteRubricStart},
		{Name: "bulk_delete", Match: dispatch.Text(BtnSeriousDeleting), State: idle, Handler: b.bulkStart},
		{Name: "capture_link", Match: dispatch.Regex(linkPattern), State: idle, Handler: b.captureLink},

		// add rubric
		{Name: "add_rubric.name", Match: dispatch.AnyText(),
			State: in(flow.FlowAddRubric, flow.AwaitName), Handler: b.addRubricName},
		{Name: "add_rubric.description", Match: dispatch.AnyText(),
			State: in(flow.FlowAddRubric, flow.AwaitDescription), Handler: b.addRubricDescription},

		// add link
		{Name: "add_link.url", Match: dispatch.AnyText(),
			State: in(flow.FlowAddLink, flow.AwaitURL), Handler: b.addLinkURL},
		{Name: "add_link.description", Match: dispatch.AnyText(),
			State: in(flow.FlowAddLink, flow.AwaitDescription), Handler: b.addLinkDescription},
		{Name: "add_link.rubric", Match: dispatch.Callback(ActionLinkRubric),
			State: in(flow.FlowAddLink, flow.AwaitRubric), Handler: b.addLinkRubric},

		// delete rubric
		{Name: "delete_rubric.choice", Match: dispatch.Callback(ActionRubricDelete),
			State: in(flow.FlowDeleteRubric, flow.AwaitRubricChoice), Handler: b.deleteRubricChoice},
		{Name: "delete_rubric.disposition", Match: dispatch.Text(BtnSetNonRubric, BtnDeleteLinks, BtnMoveLinks),
			State: in(flow.FlowDeleteRubric, flow.AwaitLinkDisposition), Handler: b.deleteRubricDisposition},
		{Name: "delete_rubric.target", Match: dispatch.Callback(ActionLinksMove),
			State: in(flow.FlowDeleteRubric, flow.AwaitTargetRubric), Handler: b.deleteRubricTarget},

		// bulk delete
		{Name: "bulk_delete.back", Match: dispatch.Text(BtnComeback),
			State: in(flow.FlowBulkDelete, flow.AwaitOperationChoice), Handler: b.backToMenu},
		{Name: "bulk_delete.operation", Match: dispatch.Text(bulkLabels()...),
			State: in(flow.FlowBulkDelete, flow.AwaitOperationChoice), Handler: b.bulkOperation},
		{Name: "bulk_delete.confirm", Match: dispatch.Text(BtnYes, BtnNo),
			State: in(flow.FlowBulkDelete, flow.AwaitConfirmation), Handler: b.bulkConfirm},
		{Name: "bulk_delete.main_menu", Match: dispatch.Text(BtnComebackMain),
			State: in(flow.FlowBulkDelete, flow.AwaitConfirmation), Handler: b.backToMenu},

		// delete link
		{Name: "delete_link.choice", Match: dispatch.Callback(ActionLinkDelete),
			State: in(flow.FlowDeleteLink, flow.AwaitLinkChoice), Handler: b.deleteLinkChoice},

		// leftovers in any state
		{Name: "voice", Match: dispatch.Voice(), State: anyState, Handler: b.voice},
		{Name: "stale_button", Match: dispatch.AnyCallback(), State: anyState, Handler: b.staleButton},
		{Name: "missed_text", Match: dispatch.OneOf(dispatch.AnyText(), dispatch.AnyCommand()), State: anyState, Handler: b.missedText},
	}
	for _, rt := range routes {
		t.Handle(rt)
	}
	t.Fallback(b.unsupported)
}

// save moves the user into s.
func (b *Bot) save(ctx context.Context, ev *dispatch.Event, s flow.State) error {
	return b.flows.Save(ctx, ev.UserID, s)
}

// finish ends the flow and shows the main menu with text.
func (b *Bot) finish(ctx context.Context, ev *dispatch.Event, r dispatch.Responder, text string) error {
	if err := b.flows.Reset(ctx, ev.UserID); err != nil {
		return err
	}
	return r.Send(ctx, text, MainKeyboard())
}

// current loads the flow variant T, reporting false when the user is in a
// different flow.
func current[T flow.State](ctx context.Context, b *Bot, ev *dispatch.Event) (T, bool, error) {
	var zero T
	s, err := b.flows.Current(ctx, ev.UserID)
	if err != nil {
		return zero, false, err
	}
	v, ok := s.(T)
	return v, ok, nil
}

// lost ends a flow whose state vanished between routing and handling.
func (b *Bot) lost(ctx context.Context, ev *dispatch.Event, r dispatch.Responder) error {
	return b.finish(ctx, ev, r, MsgActionExpired)
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
