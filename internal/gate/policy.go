package gate

import (
	"fmt"
	"time"
)

// #region once-per-session

type oncePerSession struct{}

// OncePerSession fires at most once until the session ends.
func OncePerSession() Policy { return oncePerSession{} }

func (oncePerSession) Allows(_, _ time.Time) bool    { return false }
func (oncePerSession) ExpiresAt(time.Time) time.Time { return time.Time{} }
func (oncePerSession) String() string                { return "once_per_session" }

// #endregion once-per-session

// #region cooldown

type cooldown struct{ d time.Duration }

// Cooldown fires again once d has elapsed since the last trigger. A
// non-positive d never suppresses.
func Cooldown(d time.Duration) Policy { return cooldown{d: d} }

func (c cooldown) Allows(triggered, now time.Time) bool {
	return !now.Before(triggered.Add(c.d))
}

func (c cooldown) ExpiresAt(triggered time.Time) time.Time {
	return triggered.Add(c.d)
}

func (c cooldown) String() string { return fmt.Sprintf("cooldown(%s)", c.d) }

// #endregion cooldown

// #region once-per-day

type oncePerDay struct{ loc *time.Location }

// OncePerDay fires at most once per calendar day in loc. A nil loc uses UTC.
func OncePerDay(loc *time.Location) Policy {
	if loc == nil {
		loc = time.UTC
	}
	return oncePerDay{loc: loc}
}

func (o oncePerDay) Allows(triggered, now time.Time) bool {
	return !now.Before(o.ExpiresAt(triggered))
}

// ExpiresAt is the next local midnight after triggered.
func (o oncePerDay) ExpiresAt(triggered time.Time) time.Time {
	t := triggered.In(o.loc)
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, o.loc)
}

func (o oncePerDay) String() string { return "once_per_day(" + o.loc.String() + ")" }

// #endregion once-per-day
