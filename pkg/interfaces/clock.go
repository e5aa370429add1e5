package interfaces

import "time"

// Timer is a cancellable scheduled task handle.
type Timer interface {
	// Stop cancels the task. It reports whether the call prevented the task
	// from firing.
	Stop() bool
}

// Clock abstracts time so components that own timers (typing auto-clear,
// notification polling) can be driven with virtual time in tests.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc schedules f to run after d and returns a handle that can
	// cancel it before it fires.
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns the wall-clock implementation of Clock.
func SystemClock() Clock { return systemClock{} }
