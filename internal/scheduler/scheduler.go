// Package scheduler answers "is the node active at this timestamp"
// from the render thread, fed by start/stop calls from the control
// thread. It never blocks and never allocates.
package scheduler

import (
	"math"

	"github.com/FabianRolfMatthiasNoll/oscillator-engine/internal/atomicf64"
)

// Scheduler holds a half-open active window [start, stop) in the
// host's timestamp domain. The zero value is not usable; use New.
//
// start and stop are independent atomics, so a reader calling IsActive
// concurrently with a StartAt/StopAt pair may observe a torn read (a
// fresh start with a stale stop, or vice versa). That's acceptable:
// both endpoints are independently monotonic within a single caller's
// intent and this package makes no sub-quantum-accuracy promise.
type Scheduler struct {
	start *atomicf64.F64
	stop  *atomicf64.F64
}

// New returns a Scheduler that is inactive forever until StartAt/StopAt
// are called.
func New() *Scheduler {
	return &Scheduler{
		start: atomicf64.New(math.Inf(1)),
		stop:  atomicf64.New(math.Inf(1)),
	}
}

// StartAt schedules playback to begin at timestamp t.
func (s *Scheduler) StartAt(t float64) {
	s.start.Store(t)
}

// StopAt schedules playback to end at timestamp t.
func (s *Scheduler) StopAt(t float64) {
	s.stop.Store(t)
}

// IsActive reports whether t falls within [start, stop). Called once
// per render quantum with the quantum's start timestamp.
func (s *Scheduler) IsActive(t float64) bool {
	return t >= s.start.Load() && t < s.stop.Load()
}
