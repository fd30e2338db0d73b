package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/notebot/core/config"
	"github.com/m3rciful/notebot/core/logger"
	tghelpers "github.com/m3rciful/notebot/core/telegram/helpers"
	tgsender "github.com/m3rciful/notebot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Middleware is a named global middleware installed with bot.Use.
type Middleware struct {
	Name string
	Use  tele.MiddlewareFunc
}

// Route binds a handler to a telebot endpoint such as tele.OnText.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions configures RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry
	Sender   tgsender.Options

	Middlewares []Middleware
	Routes      []Route

	// KeepWebhook skips deleteWebhook when long polling.
	KeepWebhook bool
	// Offline builds the bot without calling getMe; used by tests.
	Offline bool

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime is handed to the lifecycle hooks.
type Runtime struct {
	Bot      *tele.Bot
	Sender   *tgsender.Sender
	Registry *Registry
}

// RunTelegram builds the bot and serves updates until ctx is cancelled.
// Cancellation is a clean stop and returns nil.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if opts.Config == nil {
		return errors.New("telegram: nil config")
	}
	if opts.Registry == nil {
		opts.Registry = NewRegistry()
	}

	bot, err := newBot(opts.Config, opts.Offline)
	if err != nil {
		return err
	}
	rt := Runtime{Bot: bot, Sender: tgsender.New(opts.Sender), Registry: opts.Registry}
	tghelpers.UseSender(rt.Sender)
	defer func() {
		rt.Sender.Stop()
		tghelpers.UseSender(nil)
	}()

	if _, polling := bot.Poller.(*tele.LongPoller); polling && !opts.KeepWebhook && !opts.Offline {
		dropWebhook(bot)
	}
	install(bot, opts.Middlewares, opts.Routes)
	InitBotCommands(bot, opts.Registry)

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()
	select {
	case <-ctx.Done():
		bot.Stop()
		<-done
	case <-done:
	}

	if opts.OnStop != nil {
		return opts.OnStop(ctx, rt)
	}
	return nil
}

func newBot(cfg *coreconfig.Config, offline bool) (*tele.Bot, error) {
	poller := BuildPoller(PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		Webhook: WebhookOptions{
			Listen: cfg.Webhook.Listen,
			Port:   cfg.Webhook.Port,
			URL:    cfg.Webhook.URL,
		},
	})
	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:   cfg.Telegram.Token,
		Poller:  poller,
		Offline: offline,
		Client: BuildHTTPClient(HTTPClientOptions{
			LongPollTimeout: longPollTimeout(cfg.Telegram.LongPollTimeoutSeconds),
		}),
		OnError: func(err error, _ tele.Context) {
			logger.Error(context.Background(), "tg", "tg.error",
				slog.String("status", "fail"),
				slog.String("err", tgsender.Redact(err)),
			)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: new bot: %w", err)
	}

	attrs := []slog.Attr{slog.Duration("duration", time.Since(start))}
	switch p := poller.(type) {
	case *tele.Webhook:
		attrs = append(attrs,
			slog.String("mode", coreconfig.RunModeWebhook),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
		)
	case *tele.LongPoller:
		attrs = append(attrs,
			slog.String("mode", coreconfig.RunModeLongpoll),
			slog.Duration("timeout", p.Timeout),
		)
	}
	logger.Info(context.Background(), "tg", "tg.mode", attrs...)
	return bot, nil
}

// dropWebhook removes a webhook left by an earlier webhook deployment, which
// would otherwise make getUpdates fail.
func dropWebhook(bot *tele.Bot) {
	ctx := context.Background()
	if err := bot.RemoveWebhook(false); err != nil {
		logger.Warn(ctx, "tg", "tg.delete_webhook",
			slog.String("status", "fail"),
			slog.String("err", tgsender.Redact(err)),
		)
		return
	}
	logger.Info(ctx, "tg", "tg.delete_webhook", slog.String("status", "ok"))
}

func install(bot *tele.Bot, mws []Middleware, routes []Route) {
	var names []string
	for _, mw := range mws {
		if mw.Use != nil {
			bot.Use(mw.Use)
			names = append(names, mw.Name)
		}
	}
	n := 0
	for _, r := range routes {
		if r.Endpoint != nil && r.Handler != nil {
			bot.Handle(r.Endpoint, r.Handler)
			n++
		}
	}
	list, _ := logger.SummarizeStrings(names, 8)
	logger.Debug(context.Background(), "tg.wire", "tg.routes",
		slog.String("middlewares", list),
		slog.Int("count", n),
	)
}
