package gate

import (
	"context"
	"errors"
	"time"
)

// #region entry

// Entry records when a flag last fired. A zero ExpiresAt means the entry lives
// until the session is torn down.
type Entry struct {
	TriggeredAt time.Time `json:"triggered_at"`
	ExpiresAt   time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the entry's TTL has passed at now.
func (e Entry) Expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// #endregion entry

// #region store

// Store is the session storage capability. Absence of a key means the flag has
// not fired yet.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, e Entry) error
	Clear(ctx context.Context, key string) error
}

// ErrEmptyKey is returned for operations on an empty flag key.
var ErrEmptyKey = errors.New("gate: empty key")

// #endregion store

// #region policy

// Policy decides whether a flag that fired at triggered may fire again at now.
type Policy interface {
	Allows(triggered, now time.Time) bool
	// ExpiresAt is when a flag fired at triggered stops mattering. Zero means
	// never within the session.
	ExpiresAt(triggered time.Time) time.Time
	String() string
}

// #endregion policy
