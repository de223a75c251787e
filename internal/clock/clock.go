// Package clock supplies the current time to services so tests can pin it.
package clock

import (
	"sync"
	"time"

	"toolrental-backend/internal/utils"
)

type Clock interface {
	Now() time.Time
	// Today is midnight of the current day in the clock's location.
	Today() time.Time
}

type realClock struct {
	loc *time.Location
}

// NewReal returns a wall clock reporting times in loc (UTC when nil).
func NewReal(loc *time.Location) Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &realClock{loc: loc}
}

func (c *realClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *realClock) Today() time.Time {
	return utils.TruncateToDay(c.Now())
}

// Fixed is a settable clock for tests.
type Fixed struct {
	mu  sync.RWMutex
	now time.Time
}

func NewFixed(now time.Time) *Fixed {
	return &Fixed{now: now}
}

func (c *Fixed) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *Fixed) Today() time.Time {
	return utils.TruncateToDay(c.Now())
}

// Set moves the clock to now.
func (c *Fixed) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Advance moves the clock forward by d.
func (c *Fixed) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
