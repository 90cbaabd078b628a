package job

import (
	"time"
)

// Task is a pending scheduled function.
type Task interface {
	// Stop prevents the task from running. It returns false if the task
	// already ran or was already stopped.
	Stop() bool
}

// Scheduler runs functions after a delay. Implementations must be safe for
// concurrent use; fn runs on a goroutine owned by the scheduler.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Task
	Now() time.Time
}

// TimerScheduler schedules tasks on real runtime timers.
type TimerScheduler struct{}

// NewTimerScheduler returns a Scheduler backed by time.AfterFunc.
func NewTimerScheduler() *TimerScheduler { return &TimerScheduler{} }

// AfterFunc schedules fn to run after d.
func (TimerScheduler) AfterFunc(d time.Duration, fn func()) Task {
	return time.AfterFunc(d, fn)
}

// Now returns the current wall clock time in UTC.
func (TimerScheduler) Now() time.Time { return time.Now().UTC() }

var _ Scheduler = (*TimerScheduler)(nil)
