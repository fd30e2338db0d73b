package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/m3rciful/notebot/core/logger"
	"github.com/m3rciful/notebot/core/metrics"
	"github.com/m3rciful/notebot/core/ratelimit"
)

// Replies sent by the table itself.
const (
	MsgLimited = "Too many requests! Don`t flood, please!"
	MsgFailure = "🛑 Oops... Something went wrong and your request was not completed.\n" +
		"Please, use the /bug command and describe situation.\n" +
		"Example: /bug I`ve clicked on this button and nothing has happened"
)

// Outcomes reported in Result and the handler metrics.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeLimited  = "limited"
	OutcomeUnrouted = "unrouted"
)

// FallbackName names the catch-all route in logs and metrics.
const FallbackName = "fallback"

// StateReader returns the user's current conversation state name, empty
// when no flow is active.
type StateReader interface {
	StateName(ctx context.Context, userID int64) (string, error)
}

// RateLimit configures throttling for one route. A zero Interval uses the
// table default; Off disables throttling. Key defaults to the route name
// and is always suffixed with the user id.
type RateLimit struct {
	Key      string
	Interval time.Duration
	Off      bool
}

// Route binds a matcher and a state filter to a handler.
type Route struct {
	Name      string
	Match     Matcher
	State     StateFilter
	Handler   Handler
	RateLimit RateLimit
	AdminOnly bool
}

// Options configures a Table.
type Options struct {
	States  StateReader
	Limiter ratelimit.Limiter
	// DefaultInterval applies to routes without an explicit interval.
	DefaultInterval time.Duration
	// ExcludeKinds skips the default interval for these event kinds.
	ExcludeKinds []Kind
	IsAdmin      func(userID int64) bool
	// OnLimited replies to throttled events; defaults to MsgLimited.
	OnLimited Handler
	// OnError replies after a handler failure; defaults to MsgFailure.
	OnError func(ctx context.Context, ev *Event, r Responder, err error)
}

// Result describes how an event was dispatched.
type Result struct {
	Route   string
	State   string
	Outcome string
}

// Table is the routing table. Routes are tried in registration order.
type Table struct {
	opts Options

	mu         sync.RWMutex
	routes     []Route
	fallback   Handler
	middleware []Middleware
}

// NewTable creates an empty table.
func NewTable(opts Options) *Table {
	if opts.OnLimited == nil {
		opts.OnLimited = func(ctx context.Context, _ *Event, r Responder) error {
			return r.Send(ctx, MsgLimited, nil)
		}
	}
	if opts.OnError == nil {
		opts.OnError = func(ctx context.Context, _ *Event, r Responder, _ error) {
			_ = r.Send(ctx, MsgFailure, nil)
		}
	}
	return &Table{opts: opts}
}

// Handle registers a route. Routes without a name or handler are skipped.
func (t *Table) Handle(rt Route) {
	if rt.Name == "" || rt.Handler == nil || rt.Match.fn == nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.route.skip",
			slog.String("name", rt.Name),
			slog.Bool("handler_nil", rt.Handler == nil),
		)
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes = append(t.routes, rt)
}

// Fallback sets the catch-all handler used when no route matches.
func (t *Table) Fallback(h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fallback = h
}

// Use appends middleware wrapped around every routed handler.
func (t *Table) Use(mw ...Middleware) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.middleware = append(t.middleware, mw...)
}

// Routes returns a copy of the registered routes.
func (t *Table) Routes() []Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.routes)
}

// Resolve picks the route for ev in state current: exact-state routes
// first, then state wildcards. ok is false when only the catch-all applies.
func (t *Table) Resolve(current string, ev *Event) (Route, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	admin := t.opts.IsAdmin != nil && t.opts.IsAdmin(ev.UserID)
	for _, wildcard := range []bool{false, true} {
		for _, rt := range t.routes {
			if rt.AdminOnly && !admin {
				continue
			}
			if wildcard != rt.State.Wildcard() {
				continue
			}
			if !wildcard && !rt.State.exact(current) {
				continue
			}
			if rt.Match.Match(ev) {
				return rt, true
			}
		}
	}
	return Route{}, false
}

// Dispatch runs exactly one handler for ev. Handler errors are reported to
// the user through OnError and returned.
func (t *Table) Dispatch(ctx context.Context, ev *Event, r Responder) (Result, error) {
	var current string
	if t.opts.States != nil {
		var err error
		current, err = t.opts.States.StateName(ctx, ev.UserID)
		if err != nil {
			err = fmt.Errorf("read state: %w", err)
			t.fail(ctx, ev, r, "state", err)
			return Result{Route: "state", Outcome: OutcomeError}, err
		}
	}
	ctx = logger.WithState(ctx, current)

	rt, ok := t.Resolve(current, ev)
	if !ok {
		t.mu.RLock()
		fb := t.fallback
		t.mu.RUnlock()
		if fb == nil {
			logger.Warn(ctx, "tg", "dispatch.unrouted",
				slog.String("kind", ev.Kind.String()),
				slog.String("state", current),
			)
			metrics.HandlerResults.WithLabelValues(FallbackName, OutcomeUnrouted).Inc()
			return Result{Route: FallbackName, State: current, Outcome: OutcomeUnrouted}, nil
		}
		rt = Route{Name: FallbackName, Handler: fb}
	}
	res := Result{Route: rt.Name, State: current}
	ctx = logger.WithHandler(ctx, rt.Name)

	if limited := t.limited(ctx, rt, ev); limited {
		res.Outcome = OutcomeLimited
		metrics.HandlerResults.WithLabelValues(rt.Name, res.Outcome).Inc()
		if err := t.opts.OnLimited(ctx, ev, r); err != nil {
			logger.Warn(ctx, "tg", "rate_limit.reply_failed", slog.String("err", err.Error()))
		}
		return res, nil
	}

	start := time.Now()
	err := t.wrap(rt.Handler)(ctx, ev, r)
	metrics.HandlerDuration.WithLabelValues(rt.Name).Observe(time.Since(start).Seconds())
	if err != nil {
		res.Outcome = OutcomeError
		metrics.HandlerResults.WithLabelValues(rt.Name, res.Outcome).Inc()
		t.fail(ctx, ev, r, rt.Name, err)
		return res, err
	}
	res.Outcome = OutcomeOK
	metrics.HandlerResults.WithLabelValues(rt.Name, res.Outcome).Inc()
	return res, nil
}

func (t *Table) wrap(h Handler) Handler {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := len(t.middleware) - 1; i >= 0; i-- {
		h = t.middleware[i](h)
	}
	return h
}

func (t *Table) limited(ctx context.Context, rt Route, ev *Event) bool {
	if t.opts.Limiter == nil || rt.RateLimit.Off {
		return false
	}
	interval := rt.RateLimit.Interval
	if interval <= 0 {
		if slices.Contains(t.opts.ExcludeKinds, ev.Kind) {
			return false
		}
		interval = t.opts.DefaultInterval
	}
	if interval <= 0 {
		return false
	}
	key := rt.RateLimit.Key
	if key == "" {
		key = rt.Name
	}
	key += ":" + strconv.FormatInt(ev.UserID, 10)

	ok, err := t.opts.Limiter.Allow(ctx, key, interval)
	if err != nil {
		// fail open
		logger.Warn(ctx, "tg", "rate_limit.failed", slog.String("err", err.Error()))
		return false
	}
	if !ok {
		logger.Warn(ctx, "tg", "rate_limit",
			slog.String("key", key),
			slog.Duration("interval", interval),
		)
	}
	return !ok
}

func (t *Table) fail(ctx context.Context, ev *Event, r Responder, route string, err error) {
	attrs := []slog.Attr{
		slog.String("status", "fail"),
		slog.String("route", route),
		slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
	}
	var panicErr *PanicError
	if errors.As(err, &panicErr) {
		attrs = append(attrs, slog.String("stack", logger.SanitizeLimit(panicErr.Stack, 2048)))
	}
	logger.Error(ctx, "tg", "handler.failed", attrs...)
	t.opts.OnError(ctx, ev, r, err)
}
