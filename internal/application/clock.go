package application

import "time"

// Clock lets services and their tests agree on "now".
type Clock interface {
	Now() time.Time
}

// SystemClock reports wall-clock time in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always answers T.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }
