package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/notebot/core/bootstrap"
	coreconfig "github.com/m3rciful/notebot/core/config"
	coredatabase "github.com/m3rciful/notebot/core/database"
	"github.com/m3rciful/notebot/core/dispatch"
	"github.com/m3rciful/notebot/core/httpserver"
	coreredis "github.com/m3rciful/notebot/core/redis"
	coretelegram "github.com/m3rciful/notebot/core/telegram"
	"github.com/m3rciful/notebot/internal/bot"
	"github.com/m3rciful/notebot/internal/config"
	"github.com/m3rciful/notebot/internal/flow"
	"github.com/m3rciful/notebot/migrations"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	cfg := &config.Config{
		Config: coreconfig.Config{
			Telegram:  coreconfig.TelegramConfig{Token: "t", Admins: []int64{1}},
			RateLimit: coreconfig.RateLimitConfig{ExcludeUpdates: []string{"callback", "message"}},
		},
		Database: coredatabase.Config{Engine: coredatabase.EngineSQLite, Name: filepath.Join(t.TempDir(), "bot.db")},
	}
	return cfg
}

func boot(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	require.NoError(t, cfg.Normalize())
	infra, err := bootstrap.Run(context.Background(), bootstrap.Options{
		Config:     &cfg.Config,
		Database:   cfg.Database,
		Redis:      cfg.Redis,
		Migrations: migrations.FS,
		LoggerInit: func(*coreconfig.Config) error { return nil },
	})
	require.NoError(t, err)
	a := Wire(cfg, infra)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func press(t *testing.T, a *App, userID int64, text string) *dispatch.Recorder {
	t.Helper()
	rec := &dispatch.Recorder{}
	_, err := a.Table().Dispatch(context.Background(), &dispatch.Event{
		Kind: dispatch.KindText, Text: text, UserID: userID, ChatID: userID,
	}, rec)
	require.NoError(t, err)
	return rec
}

func TestWireWithRedisKeepsFlowsInRedis(t *testing.T) {
	srv := mr.RunT(t)
	cfg := testConfig(t)
	cfg.Redis = coreredis.Config{Addr: srv.Addr()}
	a := boot(t, cfg)

	rec := press(t, a, 7, bot.BtnAddRubric)
	require.NotEmpty(t, rec.Texts())

	keys := srv.Keys()
	require.Len(t, keys, 1)
	require.Equal(t, stateKeyPrefix+flow.Namespace+":7", keys[0])
	require.Equal(t, 24*time.Hour, srv.TTL(keys[0]))
}

func TestWireWithoutRedisUsesMemory(t *testing.T) {
	a := boot(t, testConfig(t))
	require.Nil(t, a.infra.Redis)

	press(t, a, 7, bot.BtnAddRubric)
	name, err := a.flows.StateName(context.Background(), 7)
	require.NoError(t, err)
	require.NotEmpty(t, name)
}

func TestExcludedKinds(t *testing.T) {
	require.Empty(t, excludedKinds(nil))
	require.Equal(t, []dispatch.Kind{dispatch.KindCallback}, excludedKinds([]string{"callback"}))
	require.ElementsMatch(t,
		[]dispatch.Kind{dispatch.KindCommand, dispatch.KindText, dispatch.KindVoice, dispatch.KindOther},
		excludedKinds([]string{"message"}))
}

func TestCommandRegistryHidesAdminCommands(t *testing.T) {
	reg := CommandRegistry()
	visible := reg.ListCommands(true)
	require.Len(t, visible, len(bot.Commands))
	require.Equal(t, "start", visible[0].Text)
	require.Len(t, reg.ListCommands(false), len(bot.Commands)+len(bot.AdminCommands))
}

func TestTelegramRunOptions(t *testing.T) {
	a := boot(t, testConfig(t))
	opts, err := a.TelegramRunOptions()
	require.NoError(t, err)
	require.NotEmpty(t, opts.Routes)
	require.Len(t, opts.Middlewares, 3)
	require.Same(t, &a.cfg.Config, opts.Config)

	a.cfg.Sender = coreconfig.SenderConfig{Workers: 2, MaxRetries: 1, RetryBackoffMS: 50}
	opts, err = a.TelegramRunOptions()
	require.NoError(t, err)
	require.Equal(t, 2, opts.Sender.Workers)
	require.Equal(t, 50*time.Millisecond, opts.Sender.Retry.Backoff)
}

func TestHTTPServerLifecycle(t *testing.T) {
	cfg := testConfig(t)
	cfg.HTTP.Listen = "127.0.0.1:0"
	cfg.Telegram.Admins = nil
	a := boot(t, cfg)

	require.NoError(t, a.onStart(context.Background(), coretelegram.Runtime{}))
	require.NoError(t, a.onStop(context.Background(), coretelegram.Runtime{}))
}

func TestReadinessChecks(t *testing.T) {
	srv := mr.RunT(t)
	cfg := testConfig(t)
	cfg.Redis = coreredis.Config{Addr: srv.Addr()}
	a := boot(t, cfg)

	checks := a.checks()
	require.Len(t, checks, 2)
	for _, c := range checks {
		require.NoError(t, c.Ping(context.Background()), c.Name)
	}

	rec := httptest.NewRecorder()
	router := httpserver.NewRouter(httpserver.Deps{Checks: checks, Gatherer: a.registry})
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
