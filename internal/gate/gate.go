// Package gate implements time-bounded one-shot flags, such as a banner that
// shows once per session or at most once a day.
package gate

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// #region gate

// Gate checks and sets one-shot flags in a Store. Every check reads the clock
// and the stored trigger time afresh.
type Gate struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// WithLogger overrides slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) { g.logger = l }
}

// NewGate creates a gate over store.
func NewGate(store Store, opts ...Option) *Gate {
	g := &Gate{store: store, now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// #endregion gate

// #region operations

// Allowed reports whether key may fire now under p. Store failures read as
// not allowed.
func (g *Gate) Allowed(ctx context.Context, key string, p Policy) bool {
	e, ok, err := g.store.Get(ctx, key)
	if err != nil {
		g.logger.Warn("gate read failed", "key", key, "policy", p.String(), "error", err)
		return false
	}
	if !ok {
		return true
	}
	return p.Allows(e.TriggeredAt, g.now())
}

// Mark records that key fired now.
func (g *Gate) Mark(ctx context.Context, key string, p Policy) error {
	now := g.now()
	e := Entry{TriggeredAt: now, ExpiresAt: p.ExpiresAt(now)}
	if err := g.store.Set(ctx, key, e); err != nil {
		return fmt.Errorf("mark %s: %w", key, err)
	}
	return nil
}

// TryFire marks key and returns true if it was allowed; otherwise it leaves the
// store untouched and returns false. Calling it again inside the window is a
// no-op returning false.
func (g *Gate) TryFire(ctx context.Context, key string, p Policy) bool {
	if !g.Allowed(ctx, key, p) {
		return false
	}
	if err := g.Mark(ctx, key, p); err != nil {
		g.logger.Warn("gate write failed", "key", key, "policy", p.String(), "error", err)
		return false
	}
	g.logger.Debug("gate fired", "key", key, "policy", p.String())
	return true
}

// Reset forgets key so it may fire again.
func (g *Gate) Reset(ctx context.Context, key string) error {
	if err := g.store.Clear(ctx, key); err != nil {
		return fmt.Errorf("reset %s: %w", key, err)
	}
	return nil
}

// #endregion operations
