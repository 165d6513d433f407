package state

import (
	"errors"
	"time"
)

// #region session

// Session is one dashboard session. Tab memory and gate flags are scoped to it.
type Session struct {
	ID        string
	StartedAt time.Time
	EndedAt   *time.Time
}

// Active reports whether the session has not been torn down.
func (s Session) Active() bool {
	return s.EndedAt == nil
}

// #endregion session

// ErrSessionNotFound is returned for an unknown session ID.
var ErrSessionNotFound = errors.New("session not found")
