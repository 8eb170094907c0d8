// Package ratelimit provides per-account sliding-window limits for the
// abuse-prone auth endpoints. The window state lives in Redis so every
// instance behind the load balancer sees the same counts; if Redis is
// unreachable the limiter fails open rather than locking everyone out.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/majesticmotors/dealerauth/pkg/slogx"
)

type Result struct {
	Allowed bool
	// ResetAt is when the oldest attempt ages out of the window. Only
	// meaningful when Allowed is false.
	ResetAt time.Time
}

// Store tracks attempts per key over a sliding window.
type Store interface {
	// SlidingWindowCheck records one attempt for key and reports whether it
	// stayed within limit attempts per window.
	SlidingWindowCheck(ctx context.Context, key string, limit int, window time.Duration) (Result, error)
}

type Config struct {
	Limit  int
	Window time.Duration
}

var (
	// LoginLimit guards password attempts: 5 per 10 minutes per account.
	LoginLimit = Config{Limit: 5, Window: 10 * time.Minute}

	// ResendLimit guards OTP email re-sends: 3 per 10 minutes per account.
	// Tighter than logins since every hit sends a real email.
	ResendLimit = Config{Limit: 3, Window: 10 * time.Minute}
)

type Limiter struct {
	Store Store
}

// Allow records an attempt under scope:key and reports whether it is within
// the configured limit. Store failures are logged and treated as allowed:
// a degraded limiter must never take sign-in down with it.
func (l *Limiter) Allow(ctx context.Context, scope, key string, cfg Config) Result {
	res, err := l.Store.SlidingWindowCheck(ctx, scope+":"+key, cfg.Limit, cfg.Window)
	if err != nil {
		slogx.FromContext(ctx).Warn("rate limiter degraded, failing open",
			"scope", scope, "error", err)
		return Result{Allowed: true}
	}
	return res
}

// WaitMessage renders a user-facing retry hint from a denied Result.
func WaitMessage(resetAt time.Time) string {
	remaining := time.Until(resetAt)
	if remaining <= 0 {
		remaining = time.Second
	}

	if remaining > time.Minute {
		minutes := int((remaining + time.Minute - 1) / time.Minute)
		return fmt.Sprintf("Too many attempts. Try again in %d minutes.", minutes)
	}
	seconds := int((remaining + time.Second - 1) / time.Second)
	return fmt.Sprintf("Too many attempts. Try again in %d seconds.", seconds)
}
