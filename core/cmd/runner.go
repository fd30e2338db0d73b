// Package cmd is the process entry shared by bots: it loads configuration,
// bootstraps the application and runs it until SIGINT or SIGTERM.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	coreconfig "github.com/m3rciful/notebot/core/config"
	"github.com/m3rciful/notebot/core/logger"
	coretelegram "github.com/m3rciful/notebot/core/telegram"
)

const defaultConfigEnv = "CONFIG_PATH"

// ConfigCarrier is an application config embedding the core one.
type ConfigCarrier interface {
	CoreConfig() *coreconfig.Config
}

// TelegramApp is a bootstrapped bot. Close releases what bootstrap opened.
type TelegramApp interface {
	TelegramRunOptions() (coretelegram.RunOptions, error)
	Close() error
}

type Options struct {
	// ConfigEnvVar names the variable holding the config path; default CONFIG_PATH.
	ConfigEnvVar      string
	DefaultConfigPath string

	LoadConfig func(path string) (ConfigCarrier, error)
	Bootstrap  func(ctx context.Context, cfg ConfigCarrier) (TelegramApp, error)

	// Test seams; nil uses logger.Shutdown and coretelegram.RunTelegram.
	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

func (o Options) configPath() (string, error) {
	env := o.ConfigEnvVar
	if env == "" {
		env = defaultConfigEnv
	}
	if p := os.Getenv(env); p != "" {
		return p, nil
	}
	if o.DefaultConfigPath != "" {
		return o.DefaultConfigPath, nil
	}
	return "", fmt.Errorf("cmd: set %s or DefaultConfigPath", env)
}

// Run executes the whole process lifecycle and returns once the bot has
// stopped and every resource is released.
func Run(opts Options) error {
	if opts.LoadConfig == nil || opts.Bootstrap == nil {
		return errors.New("cmd: LoadConfig and Bootstrap are required")
	}
	path, err := opts.configPath()
	if err != nil {
		return err
	}
	log.Printf("loading config: %s", path)
	cfg, err := opts.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("cmd: load config: %w", err)
	}
	if cfg.CoreConfig() == nil {
		return errors.New("cmd: config carries no core section")
	}

	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("logger shutdown: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, opts, cfg)
}

func serve(ctx context.Context, opts Options, cfg ConfigCarrier) error {
	began := time.Now()
	app, err := opts.Bootstrap(ctx, cfg)
	if err != nil {
		return fmt.Errorf("cmd: bootstrap: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn(context.Background(), "app", "app.close",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		}
	}()

	runOpts, err := app.TelegramRunOptions()
	if err != nil {
		return fmt.Errorf("cmd: telegram options: %w", err)
	}
	announce(&runOpts, began)

	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}
	return run(ctx, runOpts)
}

// announce logs app.ready after the application's start hook and
// app.shutdown before its stop hook.
func announce(o *coretelegram.RunOptions, began time.Time) {
	onStart, onStop := o.OnStart, o.OnStop
	o.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if onStart != nil {
			if err := onStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.Info(ctx, "app", "app.ready", slog.Duration("startup", time.Since(began)))
		return nil
	}
	o.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.Info(ctx, "app", "app.shutdown")
		if onStop == nil {
			return nil
		}
		return onStop(ctx, rt)
	}
}
