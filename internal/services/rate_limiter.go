package services

import (
	"context"
	"fmt"
	"time"

	"apparel-backoffice/internal/cache"
)

// CounterStore is the slice of the KV namespace the limiter needs.
// PutCounter with cache.KeepTTL must keep the key's current expiry.
type CounterStore interface {
	GetCounter(ctx context.Context, key string) (int64, bool, error)
	PutCounter(ctx context.Context, key string, value int64, ttl time.Duration) error
	DeleteCounter(ctx context.Context, key string) error
}

const (
	ClassQuoteSubmit  = "quote_submit"
	ClassLoginFailure = "login_failures"
)

// RateLimiter is a fixed-window counter per (class, client).
// Increments are read-then-write, so bursts may slightly exceed the limit.
type RateLimiter struct {
	store CounterStore
}

func NewRateLimiter(store CounterStore) *RateLimiter {
	return &RateLimiter{store: store}
}

func counterKey(class, clientID string) string {
	return fmt.Sprintf("ratelimit:%s:%s", class, clientID)
}

// Admit counts one request and reports whether it fits within limit for the current window.
// A rejected request is not counted.
func (r *RateLimiter) Admit(ctx context.Context, class, clientID string, limit int, window time.Duration) (bool, error) {
	key := counterKey(class, clientID)

	count, found, err := r.store.GetCounter(ctx, key)
	if err != nil {
		return false, err
	}
	if found && count >= int64(limit) {
		return false, nil
	}

	if err := r.hit(ctx, key, count, found, window); err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the number of hits in the current window.
func (r *RateLimiter) Count(ctx context.Context, class, clientID string) (int64, error) {
	count, _, err := r.store.GetCounter(ctx, counterKey(class, clientID))
	return count, err
}

// Hit increments the counter unconditionally, opening a window if none is active.
func (r *RateLimiter) Hit(ctx context.Context, class, clientID string, window time.Duration) error {
	key := counterKey(class, clientID)
	count, found, err := r.store.GetCounter(ctx, key)
	if err != nil {
		return err
	}
	return r.hit(ctx, key, count, found, window)
}

// Clear drops the counter, ending the window early.
func (r *RateLimiter) Clear(ctx context.Context, class, clientID string) error {
	return r.store.DeleteCounter(ctx, counterKey(class, clientID))
}

func (r *RateLimiter) hit(ctx context.Context, key string, count int64, found bool, window time.Duration) error {
	if !found {
		return r.store.PutCounter(ctx, key, 1, window)
	}
	return r.store.PutCounter(ctx, key, count+1, cache.KeepTTL)
}

// LoginGuard locks a client out after too many failed logins within the lockout window.
type LoginGuard struct {
	limiter     *RateLimiter
	maxFailures int
	window      time.Duration
}

func NewLoginGuard(limiter *RateLimiter, maxFailures int, window time.Duration) *LoginGuard {
	return &LoginGuard{
		limiter:     limiter,
		maxFailures: maxFailures,
		window:      window,
	}
}

// Allowed reports whether clientIP may attempt a login.
func (g *LoginGuard) Allowed(ctx context.Context, clientIP string) (bool, error) {
	failures, err := g.limiter.Count(ctx, ClassLoginFailure, clientIP)
	if err != nil {
		return false, err
	}
	return failures < int64(g.maxFailures), nil
}

func (g *LoginGuard) RecordFailure(ctx context.Context, clientIP string) error {
	return g.limiter.Hit(ctx, ClassLoginFailure, clientIP, g.window)
}

func (g *LoginGuard) RecordSuccess(ctx context.Context, clientIP string) error {
	return g.limiter.Clear(ctx, ClassLoginFailure, clientIP)
}

// Window is the lockout duration, used for retry hints.
func (g *LoginGuard) Window() time.Duration {
	return g.window
}
