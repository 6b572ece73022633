// Package audioparam implements the minimal slice of the Web-Audio
// AudioParam contract the oscillator renderer actually consumes: a
// clamped, atomically-set scalar that can fill a 128-sample render
// quantum. Automation curves (linear/exponential ramps, value-curve
// scheduling) are out of scope; the surrounding audio graph owns full
// automation and is treated as an ambient collaborator.
package audioparam

import (
	"math"
	"sync/atomic"
)

// Param is an audio-rate parameter: its value is set from the control
// thread and read once per render quantum, expanded to a flat buffer
// of RenderQuantumSize samples.
type Param struct {
	bits     atomic.Uint32
	min, max float32
}

// NewParam returns a Param clamped to [min, max] and initialized to
// deflt.
func NewParam(min, max, deflt float32) *Param {
	p := &Param{min: min, max: max}
	p.SetValueAtTime(deflt)
	return p
}

// SetValueAtTime clamps v to [min, max] and stores it atomically. The
// name matches the Web Audio API's AudioParam.setValueAtTime, though
// this implementation ignores the timestamp: there is no automation
// timeline here, only an immediately-effective scalar.
func (p *Param) SetValueAtTime(v float32) {
	if v < p.min {
		v = p.min
	} else if v > p.max {
		v = p.max
	}
	p.bits.Store(math.Float32bits(v))
}

// Value returns the parameter's current value.
func (p *Param) Value() float32 {
	return math.Float32frombits(p.bits.Load())
}

// FillBlock writes the parameter's current value into every slot of
// out, producing a valid per-sample buffer for a renderer that only
// ever sees a constant value within a quantum.
func (p *Param) FillBlock(out []float32) {
	v := p.Value()
	for i := range out {
		out[i] = v
	}
}
