// Package ratelimit implements a per-client sliding-window request budget.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Result represents the result of a rate limit check.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RetryAfterSeconds returns the wait hint rounded up to whole seconds, so a
// client that waits exactly that long lands outside the window.
func (r Result) RetryAfterSeconds() int {
	return int(math.Ceil(r.RetryAfter.Seconds()))
}

// window holds the in-window request timestamps for one client identity.
type window struct {
	mu     sync.Mutex
	stamps []time.Time
}

// Limiter bounds request volume per client identity over a rolling window.
// Check-and-record is atomic per identity; different identities do not
// contend beyond the brief map lookup.
type Limiter struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*window

	stop chan struct{}
	once sync.Once
}

// New creates a limiter allowing limit requests per identity within the
// trailing period.
func New(limit int, period time.Duration) *Limiter {
	l := &Limiter{
		limit:   limit,
		period:  period,
		now:     time.Now,
		clients: make(map[string]*window),
		stop:    make(chan struct{}),
	}
	go l.janitor()
	return l
}

// Check reports whether the client may proceed and, on allow, records the
// request. On deny, RetryAfter is the time until the oldest in-window
// timestamp expires.
func (l *Limiter) Check(clientID string) Result {
	now := l.now()
	cutoff := now.Add(-l.period)

	l.mu.Lock()
	w, ok := l.clients[clientID]
	if !ok {
		w = &window{}
		l.clients[clientID] = w
	}
	// Acquire the window before releasing the map lock so the janitor
	// cannot evict it in between.
	w.mu.Lock()
	l.mu.Unlock()
	defer w.mu.Unlock()

	// Prune entries that have left the window.
	kept := w.stamps[:0]
	for _, t := range w.stamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	w.stamps = kept

	if len(w.stamps) >= l.limit {
		oldest := w.stamps[0]
		return Result{
			Allowed:    false,
			Remaining:  0,
			RetryAfter: oldest.Add(l.period).Sub(now),
		}
	}

	w.stamps = append(w.stamps, now)
	return Result{
		Allowed:   true,
		Remaining: l.limit - len(w.stamps),
	}
}

// Close stops the background eviction goroutine.
func (l *Limiter) Close() {
	l.once.Do(func() { close(l.stop) })
}

// janitor periodically drops windows that have been idle for a full period.
func (l *Limiter) janitor() {
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.evictIdle()
		}
	}
}

func (l *Limiter) evictIdle() {
	cutoff := l.now().Add(-l.period)

	l.mu.Lock()
	defer l.mu.Unlock()
	for id, w := range l.clients {
		w.mu.Lock()
		idle := len(w.stamps) == 0 || !w.stamps[len(w.stamps)-1].After(cutoff)
		w.mu.Unlock()
		if idle {
			delete(l.clients, id)
		}
	}
}
