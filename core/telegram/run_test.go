package telegram

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	coreconfig "github.com/m3rciful/notebot/core/config"
)

func TestBuildPoller(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: "LongPoll", LongPollTimeoutSeconds: 25})
	lp, ok := p.(*tele.LongPoller)
	require.True(t, ok)
	require.Equal(t, 25*time.Second, lp.Timeout)
	require.Equal(t, allowedUpdates, lp.AllowedUpdates)

	p = BuildPoller(PollerOptions{
		RunMode: coreconfig.RunModeWebhook,
		Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://bot.example.org/hook"},
	})
	wh, ok := p.(*tele.Webhook)
	require.True(t, ok)
	require.Equal(t, "0.0.0.0:8443", wh.Listen)
	require.Equal(t, "https://bot.example.org/hook", wh.Endpoint.PublicURL)
}

func TestNewBotOffline(t *testing.T) {
	cfg := &coreconfig.Config{Telegram: coreconfig.TelegramConfig{Token: "123:abc", RunMode: coreconfig.RunModeLongpoll}}
	bot, err := newBot(cfg, true)
	require.NoError(t, err)
	_, polling := bot.Poller.(*tele.LongPoller)
	require.True(t, polling)

	install(bot, []Middleware{{Name: "noop", Use: func(next tele.HandlerFunc) tele.HandlerFunc { return next }}, {Name: "nil"}},
		[]Route{{Endpoint: tele.OnText, Handler: func(tele.Context) error { return nil }}, {Endpoint: "/skip"}})
}

func TestRunTelegramRejectsNilConfig(t *testing.T) {
	require.Error(t, RunTelegram(context.Background(), RunOptions{}))
}
