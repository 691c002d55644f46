package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// TokenLimiter meters vendor credits in fixed windows: the full budget comes
// back at the start of each window, the way TwelveData counts "credits per
// minute". Waiters sleep until the window turns over.
type TokenLimiter struct {
	mu          sync.Mutex
	capacity    int
	remaining   int
	window      time.Duration
	windowStart time.Time
	now         func() time.Time
}

func NewTokenLimiter(tokensPerMinute int) *TokenLimiter {
	return NewTokenLimiterWithPeriod(tokensPerMinute, time.Minute)
}

func NewTokenLimiterWithPeriod(tokens int, window time.Duration) *TokenLimiter {
	l := &TokenLimiter{
		capacity:  tokens,
		remaining: tokens,
		window:    window,
		now:       time.Now,
	}
	l.windowStart = l.now()
	return l
}

// Wait takes n credits, blocking until the window that can serve them.
func (l *TokenLimiter) Wait(ctx context.Context, n int) error {
	if n > l.capacity {
		return fmt.Errorf("requested %d credits exceeds window capacity %d", n, l.capacity)
	}
	for {
		delay, ok := l.reserve(n)
		if ok {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// reserve takes n credits or reports how long until the window resets.
func (l *TokenLimiter) reserve(n int) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if elapsed := now.Sub(l.windowStart); elapsed >= l.window {
		l.windowStart = now
		l.remaining = l.capacity
	}
	if l.remaining >= n {
		l.remaining -= n
		return 0, true
	}
	return l.windowStart.Add(l.window).Sub(now), false
}

// Remaining is the credit balance of the current window.
func (l *TokenLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.remaining
}
