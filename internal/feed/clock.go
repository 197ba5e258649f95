package feed

import "time"

// Clock abstracts time for the activity monitor and orchestrator so tests can
// drive debounce windows and refresh intervals with a manual clock instead of
// sleeping.
type Clock interface {
	Now() time.Time

	// AfterFunc schedules f to run after d and returns a cancelable handle.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancelable scheduled callback.
type Timer interface {
	// Stop cancels the timer. It reports whether the call prevented the
	// callback from firing.
	Stop() bool

	// Reset reschedules the timer to fire after d.
	Reset(d time.Duration) bool
}

// realClock is the production Clock backed by package time.
type realClock struct{}

// NewClock returns a Clock backed by the system clock.
func NewClock() Clock {
	return realClock{}
}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return realTimer{t: time.AfterFunc(d, f)}
}

type realTimer struct {
	t *time.Timer
}

func (r realTimer) Stop() bool { return r.t.Stop() }

func (r realTimer) Reset(d time.Duration) bool { return r.t.Reset(d) }
