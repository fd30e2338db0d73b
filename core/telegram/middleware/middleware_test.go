package middleware

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/notebot/core/logger"
	tghelpers "github.com/m3rciful/notebot/core/telegram/helpers"
)

func textUpdate(id int, text string) tele.Update {
	return tele.Update{ID: id, Message: &tele.Message{
		Text:   text,
		Chat:   &tele.Chat{ID: 10, Type: tele.ChatPrivate},
		Sender: &tele.User{ID: 20, Username: "ann"},
	}}
}

func TestSeenUpdatesEvictsOldest(t *testing.T) {
	var s seenUpdates
	require.True(t, s.firstTime(1))
	require.False(t, s.firstTime(1))
	for id := 2; id <= len(s.ids); id++ {
		require.True(t, s.firstTime(id))
	}
	require.False(t, s.firstTime(1))
	require.True(t, s.firstTime(len(s.ids)+1))
	require.True(t, s.firstTime(1), "oldest id was evicted")
}

func TestUpdateKind(t *testing.T) {
	kind := func(u tele.Update) string { return UpdateKind(tele.NewContext(nil, u)) }
	require.Equal(t, "command", kind(textUpdate(1, "/start")))
	require.Equal(t, "text", kind(textUpdate(1, "go.dev")))
	require.Equal(t, "text", kind(textUpdate(1, "/")))
	require.Equal(t, "callback", kind(tele.Update{Callback: &tele.Callback{Data: "x"}}))
	require.Equal(t, "voice", kind(tele.Update{Message: &tele.Message{Voice: &tele.Voice{}}}))
	require.Equal(t, "other", kind(tele.Update{}))
}

func TestReceiptBindsUpdate(t *testing.T) {
	c := tele.NewContext(nil, textUpdate(7, "hello"))
	var got logger.Update
	err := ReceiptMiddleware(func(c tele.Context) error {
		got, _ = logger.UpdateFrom(tghelpers.Context(c))
		return nil
	})(c)
	require.NoError(t, err)
	require.Equal(t, logger.Update{ID: 7, ChatID: 10, UserID: 20}, got)
}

func TestRecoverSwallowsPanic(t *testing.T) {
	c := tele.NewContext(nil, textUpdate(8, "boom"))
	err := RecoverMiddleware(func(tele.Context) error { panic("handler bug") })(c)
	require.NoError(t, err)

	want := errors.New("plain")
	require.ErrorIs(t, RecoverMiddleware(func(tele.Context) error { return want })(c), want)
}

func TestCounters(t *testing.T) {
	c := tele.NewContext(nil, textUpdate(9, "x"))
	require.NoError(t, MessageMetricsMiddleware(func(c tele.Context) error {
		CountMessage(c, false)
		CountMessage(c, true)
		return nil
	})(c))
	msgs, kb := GetCounters(c)
	require.Equal(t, 2, msgs)
	require.True(t, kb)
}
