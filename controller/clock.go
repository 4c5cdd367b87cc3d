package controller

import "time"

// Timer is a pending callback that can be cancelled
type Timer interface {
	// Stop prevents the callback from firing. It reports false when the
	// callback already fired or was stopped.
	Stop() bool
}

// Clock schedules one-shot callbacks
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
