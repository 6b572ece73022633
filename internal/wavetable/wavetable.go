// Package wavetable holds the process-wide sine lookup table and the
// PeriodicWave builder that turns a set of Fourier coefficients into a
// ready-to-play custom wavetable plus the factor (NormFactor) that
// would normalize its peak; the wavetable itself is not rescaled.
package wavetable

import (
	"math"

	"github.com/FabianRolfMatthiasNoll/oscillator-engine/internal/oscerr"
)

// TableLength is the number of samples in one period of SineTable.
const TableLength = 2048

// SineTable is the process-wide immutable lookup table: one period of
// a sine wave sampled at TableLength points. Built once in init and
// never mutated afterward.
var SineTable [TableLength]float32

func init() {
	for i := 0; i < TableLength; i++ {
		SineTable[i] = float32(math.Sin(2 * math.Pi * float64(i) / float64(TableLength)))
	}
}

// PeriodicWave is a validated set of Fourier coefficients used to
// build a custom oscillator waveform. Real and Imag must have equal
// length of at least 2; index 0 of each is the DC term and is excluded
// from synthesis.
type PeriodicWave struct {
	Real                 []float32
	Imag                 []float32
	DisableNormalization bool
}

// NewPeriodicWave validates real and imag and returns a PeriodicWave.
// Both slices must have equal length of at least 2.
func NewPeriodicWave(real, imag []float32, disableNormalization bool) (*PeriodicWave, error) {
	if len(real) < 2 {
		return nil, &oscerr.ValidationError{Reason: "real field length must be at least 2"}
	}
	if len(imag) < 2 {
		return nil, &oscerr.ValidationError{Reason: "imag field length must be at least 2"}
	}
	if len(real) != len(imag) {
		return nil, &oscerr.ValidationError{Reason: "real and imag field lengths must be equal"}
	}
	return &PeriodicWave{Real: real, Imag: imag, DisableNormalization: disableNormalization}, nil
}

// DefaultPeriodicWave returns the implicit periodic wave used when a
// node is constructed without one: a pure sine fundamental.
func DefaultPeriodicWave() *PeriodicWave {
	return &PeriodicWave{
		Real:                 []float32{0, 0},
		Imag:                 []float32{0, 1},
		DisableNormalization: false,
	}
}

// Harmonics holds the per-harmonic derived quantities needed to
// synthesize and later rescale a custom wavetable.
type Harmonics struct {
	Norms          []float32
	Phases         []float32
	IncrPhases     []float32
	InterpolRatios []float32
}

// BuildHarmonics derives per-harmonic norm, phase, phase increment and
// interpolation ratio from pw at the given computed frequency and
// sample rate.
//
// The phase computation intentionally keeps an asymmetry between its
// negative- and positive-phase branches: phase < 0 is scaled by
// TableLength/(2*pi), but phase >= 0 is scaled by
// TableLength/2.0*pi (not /(2*pi)). This produces wildly large phase
// offsets for positive-phase harmonics and is almost certainly a bug
// upstream, but it is preserved here rather than silently fixed.
func BuildHarmonics(pw *PeriodicWave, computedFreq, sampleRate float32) *Harmonics {
	n := len(pw.Real)
	h := &Harmonics{
		Norms:          make([]float32, n),
		Phases:         make([]float32, n),
		IncrPhases:     make([]float32, n),
		InterpolRatios: make([]float32, n),
	}
	for i := 0; i < n; i++ {
		re, im := pw.Real[i], pw.Imag[i]
		h.Norms[i] = float32(math.Sqrt(float64(re*re + im*im)))

		phase := float32(math.Atan2(float64(im), float64(re)))
		if phase < 0 {
			h.Phases[i] = (phase + 2*math.Pi) * (TableLength / (2.0 * math.Pi))
		} else {
			h.Phases[i] = phase * (TableLength / 2.0 * math.Pi)
		}

		h.IncrPhases[i] = TableLength * float32(i) * (computedFreq / sampleRate)
	}
	for i, incr := range h.IncrPhases {
		h.InterpolRatios[i] = incr - float32(math.Floor(float64(incr)))
	}
	return h
}

// GenerateWavetable synthesizes a time-domain buffer by accumulating
// harmonics 1..N-1 (harmonic 0 is the DC term and is excluded) until
// the harmonic-1 phase accumulator has advanced more than TableLength
// past its starting phase, so at least one sample is always emitted
// whatever that starting phase is. buf is reused
// as scratch space and its contents are discarded; the returned slice
// aliases buf's backing array when it has enough capacity.
func GenerateWavetable(h *Harmonics, buf []float32) []float32 {
	buf = buf[:0]
	phases := append([]float32(nil), h.Phases...)

	for phases[1]-h.Phases[1] <= TableLength {
		var sample float32
		for i := 1; i < len(phases); i++ {
			gain := h.Norms[i]
			phase := phases[i]
			incrPhase := h.IncrPhases[i]
			mu := h.InterpolRatios[i]

			idx := int(phase + incrPhase)
			infIdx := idx % TableLength
			supIdx := (idx + 1) % TableLength
			if infIdx < 0 {
				infIdx += TableLength
			}
			if supIdx < 0 {
				supIdx += TableLength
			}

			sample += (SineTable[infIdx]*(1-mu) + SineTable[supIdx]*mu) * gain
			phases[i] = phase + incrPhase
		}
		buf = append(buf, sample)
	}
	return buf
}

// NormFactor returns 1/max(buf), the gain that normalizes buf's peak
// amplitude to [-1.0, 1.0]. Calling it on an empty buffer indicates an
// internal bug, since GenerateWavetable always emits at least one
// sample.
func NormFactor(buf []float32) float32 {
	if len(buf) == 0 {
		panic(&oscerr.InvariantViolation{Reason: "normFactor: empty wavetable"})
	}
	max := buf[0]
	for _, v := range buf[1:] {
		if v > max {
			max = v
		}
	}
	return 1 / max
}
