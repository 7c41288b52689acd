package renewal

import "time"

// TimerPort abstracts one-shot timers so the scheduler can run against a
// virtual clock in tests.
type TimerPort interface {
	// Arm schedules fn to run once after delay. A zero delay dispatches fn
	// asynchronously as soon as possible, never reentrant into Arm.
	Arm(delay time.Duration, fn func()) Handle
}

// Handle cancels a pending timer.
type Handle interface {
	// Stop cancels the timer if it has not fired yet. Safe to call more than
	// once.
	Stop()
}

// SystemTimer returns the wall-clock TimerPort backed by time.AfterFunc.
func SystemTimer() TimerPort {
	return systemTimer{}
}

type systemTimer struct{}

func (systemTimer) Arm(delay time.Duration, fn func()) Handle {
	return systemHandle{timer: time.AfterFunc(delay, fn)}
}

type systemHandle struct {
	timer *time.Timer
}

func (h systemHandle) Stop() {
	h.timer.Stop()
}
