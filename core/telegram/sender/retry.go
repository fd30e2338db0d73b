package sender

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"regexp"
	"time"

	"github.com/m3rciful/notebot/core/telegram/netutil"

	tele "gopkg.in/telebot.v4"
)

// RetryPolicy decides how often a failed job runs again.
type RetryPolicy struct {
	MaxRetries int
	// Backoff grows linearly with the attempt number.
	Backoff time.Duration
	// Budget caps the total time spent on one job.
	Budget time.Duration
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.Backoff <= 0 {
		p.Backoff = 2 * time.Second
	}
	if p.Budget <= 0 {
		p.Budget = 12 * time.Second
	}
	return p
}

// wait returns the pause before the next attempt, or false when err is
// permanent. Flood waits use the delay Telegram asks for.
func (p RetryPolicy) wait(err error, attempt int) (time.Duration, bool) {
	var flood tele.FloodError
	if errors.As(err, &flood) {
		return time.Duration(flood.RetryAfter) * time.Second, true
	}
	if netutil.ShouldRetry(err) {
		return p.Backoff * time.Duration(attempt), true
	}
	return 0, false
}

// run calls do until it succeeds, fails permanently or ctx ends. onRetry
// sees every failure that is followed by another attempt.
func (p RetryPolicy) run(ctx context.Context, do func() error, onRetry func(int, time.Duration, error)) (int, error) {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return attempt - 1, err
		}
		err := do()
		if err == nil {
			return attempt, nil
		}
		d, ok := p.wait(err, attempt)
		if !ok || attempt > p.MaxRetries {
			return attempt, err
		}
		if onRetry != nil {
			onRetry(attempt, d, err)
		}
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return attempt, ctx.Err()
		case <-t.C:
		}
	}
}

var botTokenRe = regexp.MustCompile(`bot\d+:[\w-]+`)

// Redact returns err's message with bot tokens masked.
func Redact(err error) string {
	if err == nil {
		return ""
	}
	return botTokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}

// Classify buckets err for logs: timeout, dns, dial, tls, flood, http_4xx,
// http_5xx or unknown.
func Classify(err error) string {
	var (
		dnsErr *net.DNSError
		opErr  *net.OpError
		netErr net.Error
		alert  tls.AlertError
		flood  tele.FloodError
		apiErr *tele.Error
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &dnsErr):
		if dnsErr.IsTimeout {
			return "timeout"
		}
		return "dns"
	case errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return "dial"
	case errors.As(err, &alert):
		return "tls"
	case errors.As(err, &flood):
		return "flood"
	case errors.As(err, &apiErr) && apiErr.Code >= http.StatusInternalServerError:
		return "http_5xx"
	case errors.As(err, &apiErr) && apiErr.Code >= http.StatusBadRequest:
		return "http_4xx"
	}
	return "unknown"
}
