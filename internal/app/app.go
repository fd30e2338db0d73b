// Package app composes notebot: storage, conversation state, throttling,
// the routing table and the Telegram runtime.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/m3rciful/notebot/core/bootstrap"
	coreconfig "github.com/m3rciful/notebot/core/config"
	"github.com/m3rciful/notebot/core/dispatch"
	"github.com/m3rciful/notebot/core/httpserver"
	"github.com/m3rciful/notebot/core/logger"
	"github.com/m3rciful/notebot/core/metrics"
	"github.com/m3rciful/notebot/core/ratelimit"
	"github.com/m3rciful/notebot/core/state"
	coretelegram "github.com/m3rciful/notebot/core/telegram"
	tghelpers "github.com/m3rciful/notebot/core/telegram/helpers"
	"github.com/m3rciful/notebot/core/telegram/router"
	tgsender "github.com/m3rciful/notebot/core/telegram/sender"
	"github.com/m3rciful/notebot/internal/bot"
	"github.com/m3rciful/notebot/internal/config"
	"github.com/m3rciful/notebot/internal/flow"
	"github.com/m3rciful/notebot/internal/store"
	"github.com/m3rciful/notebot/migrations"
)

const (
	stateKeyPrefix     = "notebot:fsm:"
	rateLimitKeyPrefix = "notebot:rl:"
	httpStopTimeout    = 5 * time.Second
)

// App holds the wired components of a running bot.
type App struct {
	cfg      *config.Config
	infra    *bootstrap.Result
	store    *store.Store
	flows    *flow.Tracker
	table    *dispatch.Table
	registry *prometheus.Registry
	http     *httpserver.Server
}

// New bootstraps infrastructure from cfg and wires the bot on top of it.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	infra, err := bootstrap.Run(ctx, bootstrap.Options{
		Config:     &cfg.Config,
		Database:   cfg.Database,
		Redis:      cfg.Redis,
		Migrations: migrations.FS,
	})
	if err != nil {
		return nil, err
	}
	return Wire(cfg, infra), nil
}

// Wire builds the application over already initialized infrastructure.
func Wire(cfg *config.Config, infra *bootstrap.Result) *App {
	a := &App{
		cfg:      cfg,
		infra:    infra,
		store:    store.New(infra.DB),
		registry: metrics.NewRegistry(),
	}
	a.flows = flow.NewTracker(newStateStore(cfg, infra.Redis))
	a.table = dispatch.NewTable(dispatch.Options{
		States:          a.flows,
		Limiter:         newLimiter(cfg, infra.Redis),
		DefaultInterval: time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
		ExcludeKinds:    excludedKinds(cfg.RateLimit.ExcludeUpdates),
		IsAdmin:         cfg.IsAdmin,
	})
	bot.New(bot.Deps{Store: a.store, Flows: a.flows, IsAdmin: cfg.IsAdmin}).Register(a.table)

	if cfg.HTTP.Listen != "" {
		a.http = httpserver.New(cfg.HTTP.Listen, httpserver.Deps{
			Checks:    a.checks(),
			Gatherer:  a.registry,
			StartTime: time.Now(),
		})
	}
	return a
}

func newStateStore(cfg *config.Config, client *goredis.Client) state.Store {
	if client == nil {
		return state.NewMemory()
	}
	prefix := cfg.State.Prefix
	if prefix == "" {
		prefix = stateKeyPrefix
	}
	return state.NewRedis(client, prefix, cfg.State.TTL())
}

func newLimiter(cfg *config.Config, client *goredis.Client) ratelimit.Limiter {
	if client != nil && cfg.UseRedisLimiter() {
		return ratelimit.NewRedis(client, rateLimitKeyPrefix)
	}
	return ratelimit.NewMemory()
}

// excludedKinds maps configured update types to event kinds. "message"
// covers everything that is not a button press.
func excludedKinds(updates []string) []dispatch.Kind {
	var kinds []dispatch.Kind
	for _, u := range updates {
		switch u {
		case coreconfig.UpdateCallback:
			kinds = append(kinds, dispatch.KindCallback)
		case coreconfig.UpdateMessage:
			kinds = append(kinds, dispatch.KindCommand, dispatch.KindText, dispatch.KindVoice, dispatch.KindOther)
		}
	}
	return kinds
}

func senderOptions(c coreconfig.SenderConfig) tgsender.Options {
	return tgsender.Options{
		Workers:   c.Workers,
		QueueSize: c.QueueSize,
		Retry:     tgsender.RetryPolicy{MaxRetries: c.MaxRetries, Backoff: c.RetryBackoff()},
	}
}

func (a *App) checks() []httpserver.Check {
	checks := []httpserver.Check{{Name: "database", Ping: a.store.Ping}}
	if client := a.infra.Redis; client != nil {
		checks = append(checks, httpserver.Check{Name: "redis", Ping: func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}})
	}
	return checks
}

// Table exposes the routing table.
func (a *App) Table() *dispatch.Table {
	return a.table
}

// CommandRegistry lists the public and admin commands for the menu.
func CommandRegistry() *coretelegram.Registry {
	reg := coretelegram.NewRegistry()
	for _, c := range bot.Commands {
		reg.RegisterCommand(coretelegram.Command{Name: c.Name, Description: c.Description})
	}
	for _, c := range bot.AdminCommands {
		reg.RegisterCommand(coretelegram.Command{Name: c.Name, Description: c.Description, AdminOnly: true})
	}
	return reg
}

// TelegramRunOptions implements the runner's TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    CommandRegistry(),
		Middlewares: coretelegram.DefaultMiddlewares(),
		Routes:      router.Routes(a.table),
		Sender:      senderOptions(a.cfg.Sender),
		OnStart:     a.onStart,
		OnStop:      a.onStop,
	}, nil
}

func (a *App) onStart(ctx context.Context, rt coretelegram.Runtime) error {
	if a.http != nil {
		if err := a.http.Start(); err != nil {
			return err
		}
	}
	send := func(ctx context.Context, chatID int64, text string) error {
		return tghelpers.SendHTMLTo(ctx, rt.Bot, chatID, text)
	}
	if err := bot.NotifyStartup(ctx, send, a.cfg.Telegram.Admins); err != nil {
		logger.Warn(ctx, "tg", "notify.startup",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
	return nil
}

func (a *App) onStop(ctx context.Context, _ coretelegram.Runtime) error {
	if a.http == nil {
		return nil
	}
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), httpStopTimeout)
	defer cancel()
	return a.http.Stop(stopCtx)
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	return a.infra.Close()
}
