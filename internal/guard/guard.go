// Package guard implements the per-source-address login attempt limiter.
// It is a soft limiter: the count-then-record sequence is not atomic
// across concurrent logins from one address, and a small miscount near
// the threshold is tolerated.
package guard

import (
	"context"
	"errors"
	"time"

	"github.com/menupress/menupress/internal/model"
)

// ErrRateLimited is returned when an address has exhausted its failed
// attempts inside the block window. Callers must fail the login before
// any credential check.
var ErrRateLimited = errors.New("too many failed login attempts")

// AttemptStore is the persistence surface the guard needs.
type AttemptStore interface {
	CountRecentFailed(ctx context.Context, ip string, since time.Time) (int, error)
	Record(ctx context.Context, a *model.LoginAttempt) error
	MarkOutcome(ctx context.Context, ip, username string, at time.Time, success bool) error
}

// Guard gates session issuance by counting recent failed logins per
// source address. Successful attempts never count toward the limit.
type Guard struct {
	attempts  AttemptStore
	window    time.Duration
	maxFailed int
	now       func() time.Time
}

// New builds a Guard blocking after maxFailed failures inside window.
func New(attempts AttemptStore, window time.Duration, maxFailed int) *Guard {
	return &Guard{attempts: attempts, window: window, maxFailed: maxFailed, now: time.Now}
}

// CheckAndRecord counts recent failures for the address and either
// blocks with ErrRateLimited or records a new attempt, pessimistically
// marked failed. It returns the recorded timestamp; MarkOutcome needs
// the exact same value to amend the row later. The timestamp is
// truncated to whole seconds to survive the DATETIME round trip.
func (g *Guard) CheckAndRecord(ctx context.Context, ip, username string) (time.Time, error) {
	now := g.now().UTC().Truncate(time.Second)
	n, err := g.attempts.CountRecentFailed(ctx, ip, now.Add(-g.window))
	if err != nil {
		return time.Time{}, err
	}
	if n >= g.maxFailed {
		return time.Time{}, ErrRateLimited
	}
	a := model.LoginAttempt{IPAddress: ip, Username: username, Success: false, AttemptedAt: now}
	if err := g.attempts.Record(ctx, &a); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// MarkOutcome amends the attempt recorded by CheckAndRecord once the
// credential check resolved. Failed logins need no amendment; they
// stand as recorded.
func (g *Guard) MarkOutcome(ctx context.Context, ip, username string, at time.Time, success bool) error {
	return g.attempts.MarkOutcome(ctx, ip, username, at, success)
}
