// Package renewal schedules the silent refresh of an access token: one timer,
// re-armed on every session change, firing shortly before the token expires.
package renewal

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultSkew is the safety margin subtracted from the token expiry so renewal
// happens before the token actually lapses.
const DefaultSkew = 30 * time.Second

// Scheduler owns at most one pending renewal timer. Every Arm cancels the
// previous timer, so repeated session updates can never accumulate duplicate
// renewal attempts.
type Scheduler struct {
	port    TimerPort
	skew    time.Duration
	nowTime func() time.Time
	log     zerolog.Logger

	lock    sync.Mutex
	pending Handle
}

// SchedulerOption defines a function type to modify the Scheduler instance.
type SchedulerOption func(*Scheduler)

// WithTimerPort sets the timer implementation (primarily for testing).
func WithTimerPort(port TimerPort) SchedulerOption {
	return func(s *Scheduler) {
		s.port = port
	}
}

// WithSkew sets the renewal safety margin.
func WithSkew(skew time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		s.skew = skew
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.nowTime = nowFunc
	}
}

// WithLogger sets the scheduler logger.
func WithLogger(log zerolog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.log = log
	}
}

// NewScheduler creates a disarmed scheduler.
func NewScheduler(options ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		port:    SystemTimer(),
		skew:    DefaultSkew,
		nowTime: time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Arm cancels any pending timer and arms a new one to run onDue at
// expiresAt - skew. If that instant has already passed (slow page load, tab
// resume), onDue is dispatched immediately but still asynchronously, so it
// never reenters the arming call.
func (s *Scheduler) Arm(expiresAt time.Time, onDue func()) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.disarmLocked()

	delay := expiresAt.Sub(s.nowTime()) - s.skew
	if delay < 0 {
		delay = 0
	}

	var handle Handle
	handle = s.port.Arm(delay, func() {
		s.lock.Lock()
		stale := s.pending != handle
		if !stale {
			s.pending = nil
		}
		s.lock.Unlock()
		if stale {
			// Disarmed or re-armed while this fire was already dispatched.
			return
		}
		onDue()
	})
	s.pending = handle
	s.log.Debug().Dur("delay", delay).Time("expires_at", expiresAt).Msg("renewal armed")
}

// Disarm cancels the pending timer, if any. Idempotent.
func (s *Scheduler) Disarm() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.disarmLocked()
}

// Armed reports whether a renewal timer is currently pending.
func (s *Scheduler) Armed() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.pending != nil
}

func (s *Scheduler) disarmLocked() {
	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}
