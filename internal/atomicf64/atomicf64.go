// Package atomicf64 provides a sequentially consistent atomic float64,
// the scalar primitive the control and render threads use to hand off
// scheduler timestamps and parameter values without a lock.
package atomicf64

import (
	"math"
	"sync/atomic"
)

// F64 stores a float64 as its IEEE-754 bit pattern inside an atomic
// uint64. Only Load and Store are defined: no arithmetic is exposed,
// since a read-modify-write on a float bit pattern isn't meaningful.
// sync/atomic on a uint64 is always sequentially consistent, which is
// what callers across the control/render boundary require.
type F64 struct {
	bits atomic.Uint64
}

// New returns an F64 initialized to v.
func New(v float64) *F64 {
	f := &F64{}
	f.bits.Store(math.Float64bits(v))
	return f
}

// Load returns the current value.
func (f *F64) Load() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Store sets the current value.
func (f *F64) Store(v float64) {
	f.bits.Store(math.Float64bits(v))
}
