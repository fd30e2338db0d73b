package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Normalize canonicalizes enum spellings, fills defaults and validates cfg.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil config")
	}
	tg := &cfg.Telegram
	tg.RunMode = strings.ToLower(strings.TrimSpace(tg.RunMode))
	if tg.RunMode == "" || tg.RunMode == "polling" {
		tg.RunMode = RunModeLongpoll
	}
	cfg.RateLimit.Backend = strings.ToLower(strings.TrimSpace(cfg.RateLimit.Backend))
	for i, kind := range cfg.RateLimit.ExcludeUpdates {
		cfg.RateLimit.ExcludeUpdates[i] = strings.ToLower(strings.TrimSpace(kind))
	}

	if err := validate.Struct(cfg); err != nil {
		return describe(err)
	}
	if tg.RunMode == RunModeWebhook {
		switch {
		case strings.TrimSpace(cfg.Webhook.URL) == "":
			return errors.New("config: webhook.url is required in webhook mode")
		case strings.TrimSpace(cfg.Webhook.Listen) == "":
			return errors.New("config: webhook.listen is required in webhook mode")
		case cfg.Webhook.Port == 0:
			return errors.New("config: webhook.port is required in webhook mode")
		}
	}
	if cfg.RateLimit.IntervalMS == 0 {
		cfg.RateLimit.IntervalMS = DefaultRateLimitIntervalMS
	}
	return nil
}

// describe turns validator errors into "config: telegram.token: required".
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		path := fe.Namespace()
		if _, rest, ok := strings.Cut(path, "."); ok {
			path = rest
		}
		msg := path + ": " + fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}
		msgs = append(msgs, msg)
	}
	return errors.New("config: " + strings.Join(msgs, "; "))
}
