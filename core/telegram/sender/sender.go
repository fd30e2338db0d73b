// Package sender runs outbound Telegram calls on a fixed pool of workers.
// A chat is pinned to one worker, so its replies leave in submit order.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m3rciful/notebot/core/logger"
	"github.com/m3rciful/notebot/core/metrics"
)

var (
	ErrClosed = errors.New("sender: closed")
	ErrFull   = errors.New("sender: queue full")
)

// Job is one Telegram API call. Do may run more than once.
type Job struct {
	Action   string // metrics label, e.g. send.text
	Endpoint string // Bot API method
	Do       func() error
}

// Options sizes the pool. Zero values pick defaults.
type Options struct {
	Workers   int
	QueueSize int
	Retry     RetryPolicy
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.QueueSize <= 0 {
		o.QueueSize = 64
	}
	o.Retry = o.Retry.withDefaults()
	return o
}

type task struct {
	ctx context.Context
	job Job
}

// Sender owns the worker pool.
type Sender struct {
	opts    Options
	lanes   []chan task
	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
	failed  atomic.Uint64
}

// New starts the workers.
func New(opts Options) *Sender {
	opts = opts.withDefaults()
	s := &Sender{opts: opts, lanes: make([]chan task, opts.Workers)}
	for i := range s.lanes {
		lane := make(chan task, opts.QueueSize)
		s.lanes[i] = lane
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for t := range lane {
				s.execute(t.ctx, t.job)
			}
		}()
	}
	return s
}

// Submit queues job on the lane of chatID without blocking.
func (s *Sender) Submit(ctx context.Context, chatID int64, job Job) error {
	if job.Do == nil {
		return errors.New("sender: job without Do")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stopped {
		return ErrClosed
	}
	select {
	case s.lanes[s.lane(chatID)] <- task{ctx: ctx, job: job}:
		return nil
	default:
		return ErrFull
	}
}

func (s *Sender) lane(chatID int64) int {
	n := int64(len(s.lanes))
	return int((chatID%n + n) % n)
}

// Failed returns how many jobs gave up.
func (s *Sender) Failed() uint64 {
	return s.failed.Load()
}

// Stop refuses new jobs and waits for the queued ones.
func (s *Sender) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for _, lane := range s.lanes {
		close(lane)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Sender) execute(ctx context.Context, job Job) {
	runCtx, cancel := context.WithTimeout(ctx, s.opts.Retry.Budget)
	defer cancel()

	start := time.Now()
	attempts, err := s.opts.Retry.run(runCtx, job.Do, func(attempt int, wait time.Duration, err error) {
		logger.Debug(ctx, "tg.sender", "send.retry",
			slog.String("action", job.Action),
			slog.String("endpoint", job.Endpoint),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", wait),
			slog.String("err_kind", Classify(err)),
		)
	})
	elapsed := time.Since(start)

	if err == nil {
		metrics.MessagesSent.WithLabelValues(job.Action, "ok").Inc()
		level := slog.LevelDebug
		if attempts > 1 {
			level = slog.LevelInfo
		}
		logger.Log(ctx, level, "tg.sender", "send.ok",
			slog.String("action", job.Action),
			slog.Int("attempts", attempts),
			slog.Duration("duration", elapsed),
		)
		return
	}

	s.failed.Add(1)
	metrics.MessagesSent.WithLabelValues(job.Action, "fail").Inc()
	logger.Error(ctx, "tg.sender", "send.fail",
		slog.String("status", "fail"),
		slog.String("action", job.Action),
		slog.String("endpoint", job.Endpoint),
		slog.Int("attempts", attempts),
		slog.Duration("duration", elapsed),
		slog.String("err", Redact(err)),
		slog.String("err_kind", Classify(err)),
	)
}
