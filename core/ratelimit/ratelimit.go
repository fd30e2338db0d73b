// Package ratelimit enforces a minimum interval between events sharing a
// key. Keys are built by the caller, typically route name plus user id.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter reports whether an event for key may proceed now.
type Limiter interface {
	Allow(ctx context.Context, key string, interval time.Duration) (bool, error)
}

const sweepEvery = time.Minute

type entry struct {
	lim      *rate.Limiter
	interval time.Duration
	lastSeen time.Time
}

// Memory is a process-local Limiter: one token bucket of burst 1 per key.
type Memory struct {
	mu        sync.Mutex
	entries   map[string]*entry
	lastSweep time.Time
	now       func() time.Time
}

// NewMemory returns an empty in-memory limiter.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]*entry), now: time.Now}
}

// Allow consumes the key's token when one is available. A non-positive
// interval never limits.
func (m *Memory) Allow(_ context.Context, key string, interval time.Duration) (bool, error) {
	if interval <= 0 {
		return true, nil
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSweep) >= sweepEvery {
		m.sweep(now)
	}
	e, ok := m.entries[key]
	if !ok || e.interval != interval {
		e = &entry{lim: rate.NewLimiter(rate.Every(interval), 1), interval: interval}
		m.entries[key] = e
	}
	e.lastSeen = now
	return e.lim.AllowN(now, 1), nil
}

// sweep drops keys whose bucket has refilled; they behave as new keys.
func (m *Memory) sweep(now time.Time) {
	for k, e := range m.entries {
		if now.Sub(e.lastSeen) >= e.interval {
			delete(m.entries, k)
		}
	}
	m.lastSweep = now
}

// Len returns the number of tracked keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
