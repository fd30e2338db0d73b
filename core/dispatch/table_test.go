package dispatch

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/m3rciful/notebot/core/ratelimit"
)

type fixedState map[int64]string

func (f fixedState) StateName(_ context.Context, userID int64) (string, error) {
	return f[userID], nil
}

type brokenState struct{}

func (brokenState) StateName(context.Context, int64) (string, error) {
	return "", errors.New("redis down")
}

func reply(text string) Handler {
	return func(ctx context.Context, _ *Event, r Responder) error {
		return r.Send(ctx, text, nil)
	}
}

func newTestTable(states StateReader) *Table {
	t := NewTable(Options{States: states})
	t.Handle(Route{Name: "cancel", Match: Command("cancel"), State: AnyState(), Handler: reply("cancelled")})
	t.Handle(Route{Name: "add_rubric", Match: Text("Add a new rubric"), Handler: reply("input name")})
	t.Handle(Route{Name: "rubric_name", Match: AnyText(), State: InState("add_rubric:await_name"), Handler: reply("name accepted")})
	t.Handle(Route{Name: "missed_text", Match: AnyText(), State: AnyState(), Handler: reply("missed")})
	t.Fallback(reply("unknown"))
	return t
}

func TestDispatchPrefersExactState(t *testing.T) {
	states := fixedState{2: "add_rubric:await_name"}
	table := newTestTable(states)
	ctx := context.Background()

	cases := []struct {
		name  string
		ev    Event
		route string
		reply string
	}{
		{"idle button", Event{Kind: KindText, UserID: 1, Text: "Add a new rubric"}, "add_rubric", "input name"},
		{"idle free text", Event{Kind: KindText, UserID: 1, Text: "hello"}, "missed_text", "missed"},
		{"in flow text", Event{Kind: KindText, UserID: 2, Text: "Books"}, "rubric_name", "name accepted"},
		{"in flow button text is data", Event{Kind: KindText, UserID: 2, Text: "Add a new rubric"}, "rubric_name", "name accepted"},
		{"cancel in flow", Event{Kind: KindCommand, UserID: 2, Command: "cancel"}, "cancel", "cancelled"},
		{"unknown command", Event{Kind: KindCommand, UserID: 1, Command: "nope"}, FallbackName, "unknown"},
		{"sticker", Event{Kind: KindOther, UserID: 1}, FallbackName, "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &Recorder{}
			ev := tc.ev
			res, err := table.Dispatch(ctx, &ev, rec)
			require.NoError(t, err)
			require.Equal(t, tc.route, res.Route)
			require.Equal(t, OutcomeOK, res.Outcome)
			require.Equal(t, []string{tc.reply}, rec.Texts())
		})
	}
}

func TestCommandsAreNotText(t *testing.T) {
	m := AnyText()
	require.False(t, m.Match(&Event{Kind: KindCommand, Command: "start", Text: "/start"}))
	require.True(t, Command("/Start").Match(&Event{Kind: KindCommand, Command: "start"}))
}

func TestRegexStoresMatch(t *testing.T) {
	m := Regex(regexp.MustCompile(`(\w+)\.dev`))
	ev := &Event{Kind: KindText, Text: "see go.dev please"}
	require.True(t, m.Match(ev))
	require.Equal(t, []string{"go.dev", "go"}, ev.Match)
	require.False(t, m.Match(&Event{Kind: KindText, Text: "nothing"}))
}

func TestCallbackMatcher(t *testing.T) {
	m := Callback("rubric_delete")
	require.True(t, m.Match(&Event{Kind: KindCallback, Callback: CallbackData{Action: "rubric_delete", Payload: "3"}}))
	require.False(t, m.Match(&Event{Kind: KindCallback, Callback: CallbackData{Action: "link_delete"}}))
}

func TestOneOf(t *testing.T) {
	m := OneOf(AnyText(), AnyCommand())
	require.True(t, m.Match(&Event{Kind: KindText, Text: "hi"}))
	require.True(t, m.Match(&Event{Kind: KindCommand, Command: "help"}))
	require.False(t, m.Match(&Event{Kind: KindVoice}))
	require.Equal(t, "any_text|any_command", m.String())
}

func TestAdminOnlyRoutesFallThrough(t *testing.T) {
	table := NewTable(Options{IsAdmin: func(id int64) bool { return id == 99 }})
	table.Handle(Route{Name: "admin", Match: Command("admin_user_count"), AdminOnly: true, Handler: reply("42 users")})
	table.Fallback(reply("unknown"))
	ctx := context.Background()

	rec := &Recorder{}
	res, err := table.Dispatch(ctx, &Event{Kind: KindCommand, UserID: 1, Command: "admin_user_count"}, rec)
	require.NoError(t, err)
	require.Equal(t, FallbackName, res.Route)

	rec = &Recorder{}
	res, err = table.Dispatch(ctx, &Event{Kind: KindCommand, UserID: 99, Command: "admin_user_count"}, rec)
	require.NoError(t, err)
	require.Equal(t, "admin", res.Route)
	require.Equal(t, []string{"42 users"}, rec.Texts())
}

func TestHandlerErrorRepliesAndReturns(t *testing.T) {
	boom := errors.New("db down")
	table := NewTable(Options{})
	table.Use(Recover)
	table.Handle(Route{Name: "fail", Match: Text("fail"), Handler: func(context.Context, *Event, Responder) error { return boom }})
	table.Handle(Route{Name: "panic", Match: Text("panic"), Handler: func(context.Context, *Event, Responder) error { panic("bug") }})
	ctx := context.Background()

	rec := &Recorder{}
	res, err := table.Dispatch(ctx, &Event{Kind: KindText, Text: "fail"}, rec)
	require.ErrorIs(t, err, boom)
	require.Equal(t, OutcomeError, res.Outcome)
	require.Equal(t, []string{MsgFailure}, rec.Texts())

	rec = &Recorder{}
	_, err = table.Dispatch(ctx, &Event{Kind: KindText, Text: "panic"}, rec)
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "bug", pe.Value)
	require.Equal(t, []string{MsgFailure}, rec.Texts())
}

func TestStateReadFailure(t *testing.T) {
	table := newTestTable(brokenState{})
	rec := &Recorder{}
	res, err := table.Dispatch(context.Background(), &Event{Kind: KindText, Text: "hi"}, rec)
	require.Error(t, err)
	require.Equal(t, OutcomeError, res.Outcome)
	require.Equal(t, []string{MsgFailure}, rec.Texts())
}

func TestRateLimits(t *testing.T) {
	table := NewTable(Options{
		Limiter:         ratelimit.NewMemory(),
		DefaultInterval: time.Hour,
		ExcludeKinds:    []Kind{KindCallback},
	})
	table.Handle(Route{Name: "bug", Match: Command("bug"), State: AnyState(), RateLimit: RateLimit{Interval: time.Hour}, Handler: reply("thanks")})
	table.Handle(Route{Name: "see", Match: Text("See all links"), Handler: reply("links")})
	table.Handle(Route{Name: "pick", Match: AnyCallback(), Handler: reply("picked")})
	table.Handle(Route{Name: "free", Match: Text("free"), RateLimit: RateLimit{Off: true}, Handler: reply("free")})
	ctx := context.Background()

	send := func(ev Event) (Result, []string) {
		rec := &Recorder{}
		res, err := table.Dispatch(ctx, &ev, rec)
		require.NoError(t, err)
		return res, rec.Texts()
	}

	_, texts := send(Event{Kind: KindCommand, UserID: 1, Command: "bug"})
	require.Equal(t, []string{"thanks"}, texts)
	res, texts := send(Event{Kind: KindCommand, UserID: 1, Command: "bug"})
	require.Equal(t, OutcomeLimited, res.Outcome)
	require.Equal(t, []string{MsgLimited}, texts)

	// keyed per user
	_, texts = send(Event{Kind: KindCommand, UserID: 2, Command: "bug"})
	require.Equal(t, []string{"thanks"}, texts)

	// default interval, keyed per route
	_, texts = send(Event{Kind: KindText, UserID: 1, Text: "See all links"})
	require.Equal(t, []string{"links"}, texts)
	res, _ = send(Event{Kind: KindText, UserID: 1, Text: "See all links"})
	require.Equal(t, OutcomeLimited, res.Outcome)

	// callbacks are excluded from the default interval
	for i := 0; i < 3; i++ {
		res, _ = send(Event{Kind: KindCallback, UserID: 1})
		require.Equal(t, OutcomeOK, res.Outcome)
	}
	for i := 0; i < 3; i++ {
		res, _ = send(Event{Kind: KindText, UserID: 1, Text: "free"})
		require.Equal(t, OutcomeOK, res.Outcome)
	}
}

func TestMiddlewareOrder(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(ctx context.Context, ev *Event, r Responder) error {
				order = append(order, name)
				return next(ctx, ev, r)
			}
		}
	}
	table := NewTable(Options{})
	table.Use(mw("outer"), mw("inner"))
	table.Fallback(func(context.Context, *Event, Responder) error {
		order = append(order, "handler")
		return nil
	})
	_, err := table.Dispatch(context.Background(), &Event{Kind: KindOther}, &Recorder{})
	require.NoError(t, err)
	require.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestUnroutedWithoutFallback(t *testing.T) {
	table := NewTable(Options{})
	res, err := table.Dispatch(context.Background(), &Event{Kind: KindText, Text: "x"}, &Recorder{})
	require.NoError(t, err)
	require.Equal(t, OutcomeUnrouted, res.Outcome)
}

func TestKindRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindCommand, KindText, KindCallback, KindVoice} {
		require.Equal(t, k, ParseKind(k.String()))
	}
	require.Equal(t, KindOther, ParseKind("inline_query"))
}
