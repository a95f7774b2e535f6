// Package clock abstracts the timers the storefront runs (payment
// countdown, prize-wheel animation) so tests can advance time without
// sleeping.
package clock

import "time"

// Clock is the subset of the time package the services use. Production
// code injects Real(); tests inject Fake().
type Clock interface {
	Now() time.Time

	// AfterFunc waits for d, then calls f. If d <= 0, f runs immediately
	// (in a new goroutine for Real, synchronously for Fake).
	AfterFunc(d time.Duration, f func()) *Timer
}

// Timer is a pending AfterFunc call.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the Timer from firing. Returns false if the timer has
// already fired or been stopped.
func (t *Timer) Stop() bool {
	if t == nil || t.stopFunc == nil {
		return false
	}
	return t.stopFunc()
}

// Real returns a Clock backed by the time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) *Timer {
	timer := time.AfterFunc(d, f)
	return &Timer{stopFunc: timer.Stop}
}
