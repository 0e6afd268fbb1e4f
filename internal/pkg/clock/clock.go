// Package clock answers "what time is it and which calendar day is that" for the
// configured business time zone. Attendance days and leave dates are local days.
package clock

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const DateLayout = "2006-01-02"

type Clock struct {
	loc *time.Location

	mu   sync.RWMutex
	base clockwork.Clock
}

// New returns a clock reading the wall time in loc. A nil loc means time.Local.
func New(loc *time.Location) *Clock {
	return NewWith(clockwork.NewRealClock(), loc)
}

// NewWith returns a clock driven by base, such as a clockwork fake.
func NewWith(base clockwork.Clock, loc *time.Location) *Clock {
	if loc == nil {
		loc = time.Local
	}
	return &Clock{loc: loc, base: base}
}

// NewFixed returns a clock stopped at t, for tests.
func NewFixed(t time.Time, loc *time.Location) *Clock {
	return NewWith(clockwork.NewFakeClockAt(t), loc)
}

// Set stops the clock at t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = clockwork.NewFakeClockAt(t)
}

// Now returns the current time in the clock's location, truncated to whole seconds.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	base := c.base
	c.mu.RUnlock()

	return base.Now().Truncate(time.Second).In(c.loc)
}

// Today returns the local calendar date as YYYY-MM-DD.
func (c *Clock) Today() string {
	return c.Now().Format(DateLayout)
}

func (c *Clock) Location() *time.Location {
	return c.loc
}
