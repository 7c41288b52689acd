package timerfakes

import (
	"sync"
	"time"

	"github.com/safvlabs/go-console-client/renewal"
)

var _ renewal.TimerPort = (*FakeTimer)(nil)

// FakeTimer is a manual TimerPort: armed timers never fire on their own, tests
// drive them with Fire. Lets scheduler and manager tests run on a virtual
// clock without wall-time waits.
type FakeTimer struct {
	lock   sync.Mutex
	timers []*fakeHandle
}

type fakeHandle struct {
	owner   *FakeTimer
	delay   time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func New() *FakeTimer {
	return &FakeTimer{}
}

func (ft *FakeTimer) Arm(delay time.Duration, fn func()) renewal.Handle {
	ft.lock.Lock()
	defer ft.lock.Unlock()

	h := &fakeHandle{owner: ft, delay: delay, fn: fn}
	ft.timers = append(ft.timers, h)
	return h
}

func (h *fakeHandle) Stop() {
	h.owner.lock.Lock()
	defer h.owner.lock.Unlock()
	h.stopped = true
}

// Pending returns the number of timers that are armed but neither stopped nor
// fired.
func (ft *FakeTimer) Pending() int {
	ft.lock.Lock()
	defer ft.lock.Unlock()

	n := 0
	for _, h := range ft.timers {
		if !h.stopped && !h.fired {
			n++
		}
	}
	return n
}

// NextDelay returns the delay of the earliest pending timer.
func (ft *FakeTimer) NextDelay() (time.Duration, bool) {
	ft.lock.Lock()
	defer ft.lock.Unlock()

	if h := ft.nextLocked(); h != nil {
		return h.delay, true
	}
	return 0, false
}

// Fire runs the earliest pending timer's callback on the calling goroutine.
// Returns false when nothing is pending.
func (ft *FakeTimer) Fire() bool {
	ft.lock.Lock()
	h := ft.nextLocked()
	if h == nil {
		ft.lock.Unlock()
		return false
	}
	h.fired = true
	fn := h.fn
	ft.lock.Unlock()

	// The callback re-enters the port when it re-arms; run it unlocked.
	fn()
	return true
}

func (ft *FakeTimer) nextLocked() *fakeHandle {
	var next *fakeHandle
	for _, h := range ft.timers {
		if h.stopped || h.fired {
			continue
		}
		if next == nil || h.delay < next.delay {
			next = h
		}
	}
	return next
}
