package telegram

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/notebot/core/logger"
	"github.com/m3rciful/notebot/core/telegram/netutil"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultResponseMargin    = 5 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryBackoff      = 2 * time.Second
)

// HTTPClientOptions tunes BuildHTTPClient. Zero values pick defaults.
type HTTPClientOptions struct {
	// LongPollTimeout is how long getUpdates may hold a response.
	LongPollTimeout time.Duration
	RetryAttempts   int
	RetryBackoff    time.Duration
}

// BuildHTTPClient returns an HTTP client for Telegram API calls. Header and
// overall timeouts leave room for a long poll to complete.
func BuildHTTPClient(opts HTTPClientOptions) *http.Client {
	if opts.LongPollTimeout <= 0 {
		opts.LongPollTimeout = defaultLongPollTimeout
	}
	if opts.RetryAttempts < 0 {
		opts.RetryAttempts = 0
	} else if opts.RetryAttempts == 0 {
		opts.RetryAttempts = defaultRetryAttempts
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = defaultRetryBackoff
	}
	responseTimeout := opts.LongPollTimeout + defaultResponseMargin

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   defaultTLSHandshake,
		ResponseHeaderTimeout: responseTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{
		Timeout: responseTimeout + defaultResponseMargin,
		Transport: &retryTransport{
			base:       transport,
			maxRetries: opts.RetryAttempts,
			backoff:    opts.RetryBackoff,
		},
	}
}

type retryTransport struct {
	base       http.RoundTripper
	maxRetries int
	backoff    time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	attempts := t.maxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		currReq := req
		if attempt > 1 {
			currReq = req.Clone(req.Context())
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, err
				}
				currReq.Body = body
			} else if req.Body != nil && req.Body != http.NoBody {
				// A consumed body cannot be replayed.
				return nil, lastErr
			}
		}

		resp, err := base.RoundTrip(currReq)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !netutil.ShouldRetry(err) || attempt == attempts {
			break
		}

		delay := t.backoff * time.Duration(attempt)
		logger.TWire.LogAttrs(req.Context(), slog.LevelDebug, "http.retry",
			slog.String("status", "retry"),
			slog.String("path", apiMethod(req)),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		if err := sleepCtx(req.Context(), delay); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// apiMethod returns the Bot API method of req without the token-bearing
// path prefix.
func apiMethod(req *http.Request) string {
	p := req.URL.Path
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] == '/' {
			return p[i+1:]
		}
	}
	return p
}
