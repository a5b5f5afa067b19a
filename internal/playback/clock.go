package playback

import "time"

// Timer is the handle of a scheduled callback.
type Timer interface {
	Stop() bool
}

// Clock abstracts wall time and delayed callbacks so the controller can be
// driven deterministically in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemClock is the Clock backed by the time package.
type SystemClock struct{}

// Now implements Clock.Now.
func (SystemClock) Now() time.Time { return time.Now() }

// AfterFunc implements Clock.AfterFunc.
func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
