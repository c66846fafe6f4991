package services

import "time"

// Clock is the source of "now" for reminders and timestamps
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time { return c.T }

// Advance moves the fixed clock forward
func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }
