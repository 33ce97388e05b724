// This file implements the accept loop's optional admission limiter: it
// paces how fast newly accepted connections are materialized, without
// parsing or routing anything. Repurposed from gating decoded messages to
// gating accept-loop admission.
package dispatcher

import (
	"context"
	"sync/atomic"

	"go.uber.org/ratelimit"
	"golang.org/x/time/rate"
)

// AcceptLimiter is consulted by the dispatcher's accept loop before
// materializing an accepted connection. Take blocks until admission is
// permitted or ctx is canceled.
type AcceptLimiter interface {
	Take(ctx context.Context) error
}

// TokenAcceptLimiter is a token-bucket admission limiter built on
// golang.org/x/time/rate, grounded on DispatcherRecvLimiter. It allows
// short bursts above the steady-state rate, which accommodates the natural
// burstiness of accept() completions.
type TokenAcceptLimiter struct {
	limiter atomic.Pointer[rate.Limiter]
}

// NewTokenAcceptLimiter creates a TokenAcceptLimiter admitting up to limit
// connections per second with the given burst allowance.
func NewTokenAcceptLimiter(limit int, burst int) *TokenAcceptLimiter {
	l := &TokenAcceptLimiter{}
	l.limiter.Store(rate.NewLimiter(rate.Limit(limit), burst))
	return l
}

// Take blocks until a token is available or ctx is canceled.
func (l *TokenAcceptLimiter) Take(ctx context.Context) error {
	return l.limiter.Load().Wait(ctx)
}

// Reload swaps in a new rate/burst atomically, so concurrent Take calls
// observe either the old or the new limiter, never a torn state.
func (l *TokenAcceptLimiter) Reload(limit int, burst int) {
	l.limiter.Store(rate.NewLimiter(rate.Limit(limit), burst))
}

// LeakyAcceptLimiter is an alternative admission limiter built on
// go.uber.org/ratelimit's leaky-bucket algorithm, grounded on
// FunnelRecvLimiter. It yields a constant admission rate rather than
// token-bucket bursting.
type LeakyAcceptLimiter struct {
	limiter atomic.Pointer[ratelimit.Limiter]
}

// NewLeakyAcceptLimiter creates a LeakyAcceptLimiter admitting at a
// constant rate of limit connections per second.
func NewLeakyAcceptLimiter(limit int) *LeakyAcceptLimiter {
	l := &LeakyAcceptLimiter{}
	rl := ratelimit.New(limit)
	l.limiter.Store(&rl)
	return l
}

// Take blocks until the leaky bucket admits the next connection. The
// leaky-bucket implementation has no native cancellation, so ctx is
// honored best-effort: Take still returns promptly once the bucket admits,
// but cannot be interrupted mid-wait.
func (l *LeakyAcceptLimiter) Take(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	(*l.limiter.Load()).Take()
	return ctx.Err()
}

// Reload swaps in a new constant rate atomically.
func (l *LeakyAcceptLimiter) Reload(limit int) {
	rl := ratelimit.New(limit)
	l.limiter.Store(&rl)
}
