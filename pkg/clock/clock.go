// Time source and one-shot timer capability used by tabs and maintenance in Tabcast.

package clock

import "time"

// Cancel stops a pending callback. It reports whether the callback was
// stopped before it ran.
type Cancel func() bool

// Clock supplies the current time and schedules one-shot callbacks.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
	// AfterFunc runs f in its own goroutine once d has elapsed.
	AfterFunc(d time.Duration, f func()) Cancel
}

type realClock struct{}

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Cancel {
	t := time.AfterFunc(d, f)
	return t.Stop
}
