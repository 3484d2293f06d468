package service

import "time"

// Clock supplies the current time. Deadlines are compared against it and
// never against the wall clock directly.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
