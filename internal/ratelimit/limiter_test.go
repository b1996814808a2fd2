package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(limit int, period time.Duration) (*Limiter, *time.Time) {
	l := New(limit, period)
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiterAllowsUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(10, time.Minute)
	defer l.Close()

	for i := 0; i < 10; i++ {
		r := l.Check("client-x")
		assert.True(t, r.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 10-i-1, r.Remaining)
	}

	r := l.Check("client-x")
	assert.False(t, r.Allowed, "11th request should be denied")
	assert.Greater(t, r.RetryAfterSeconds(), 0)
}

func TestLimiterRetryAfterTracksOldestEntry(t *testing.T) {
	l, now := newTestLimiter(2, time.Minute)
	defer l.Close()

	require.True(t, l.Check("c").Allowed)
	*now = now.Add(20 * time.Second)
	require.True(t, l.Check("c").Allowed)

	// The oldest entry expires 40s from now.
	r := l.Check("c")
	require.False(t, r.Allowed)
	assert.Equal(t, 40*time.Second, r.RetryAfter)
	assert.Equal(t, 40, r.RetryAfterSeconds())
}

func TestLimiterWindowSlides(t *testing.T) {
	l, now := newTestLimiter(10, time.Minute)
	defer l.Close()

	for i := 0; i < 10; i++ {
		require.True(t, l.Check("c").Allowed)
	}
	require.False(t, l.Check("c").Allowed)

	// After the window fully elapses the client gets a fresh budget.
	*now = now.Add(61 * time.Second)
	r := l.Check("c")
	assert.True(t, r.Allowed)
	assert.Equal(t, 9, r.Remaining)
}

func TestLimiterIsolatesClients(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)
	defer l.Close()

	assert.True(t, l.Check("a").Allowed)
	assert.False(t, l.Check("a").Allowed)
	assert.True(t, l.Check("b").Allowed)
}

func TestLimiterConcurrentChecksNeverOverAdmit(t *testing.T) {
	l := New(10, time.Minute)
	defer l.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Check("shared").Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, allowed)
}

func TestLimiterEvictsIdleWindows(t *testing.T) {
	l, now := newTestLimiter(10, time.Minute)
	defer l.Close()

	l.Check("idle")
	*now = now.Add(2 * time.Minute)
	l.evictIdle()

	l.mu.Lock()
	_, exists := l.clients["idle"]
	l.mu.Unlock()
	assert.False(t, exists)
}

func TestRetryAfterSecondsRoundsUp(t *testing.T) {
	r := Result{RetryAfter: 1500 * time.Millisecond}
	assert.Equal(t, 2, r.RetryAfterSeconds())
}
