// Package oscillator implements the render-thread oscillator core: a
// processor that synthesizes one render quantum of mono samples per
// call, dispatching on a shared waveform-type atomic and draining at
// most one pending wavetable update per quantum. It must never
// allocate or block.
package oscillator

import (
	"math"
	"sync/atomic"

	"github.com/FabianRolfMatthiasNoll/oscillator-engine/internal/oscerr"
	"github.com/FabianRolfMatthiasNoll/oscillator-engine/internal/oscmsg"
	"github.com/FabianRolfMatthiasNoll/oscillator-engine/internal/scheduler"
	"github.com/FabianRolfMatthiasNoll/oscillator-engine/internal/wavetable"
)

// RenderQuantumSize is the number of samples the host requests per
// render callback.
const RenderQuantumSize = 128

const defaultFrequency = 440.0
const defaultDetune = 0.0

// freqChangeThreshold is the minimum frequency delta, in Hz, that
// triggers recomputation of a waveform's phase increment. Below this,
// incrPhase is left alone to avoid per-sample float churn for
// imperceptible drift.
const freqChangeThreshold = 0.01

type sineState struct {
	interpolRatio float32
	firstCall     bool
}

type triangleState struct {
	lastOutput float32
}

type wavetableState struct {
	buffer    []float32
	phase     float32
	incrPhase float32
	refFreq   float32
}

type periodicState struct {
	incrPhases     []float32
	interpolRatios []float32
	normFactor     float32
	hasNormFactor  bool
	disableNorm    bool
	wavetable      wavetableState
}

// Config bundles everything a Renderer needs to be constructed. typ
// and sched are shared with the control-thread Node; updates is the
// receive side of the node's wavetable mailbox.
type Config struct {
	Type         *atomic.Uint32
	Scheduler    *scheduler.Scheduler
	Updates      *oscmsg.Chan
	SampleRate   float32
	PeriodicWave *wavetable.PeriodicWave
	Sink         oscerr.Sink
}

// Renderer is the exclusively render-thread-owned oscillator
// processor. It is not safe for concurrent calls to Process; the host
// is expected to invoke it from a single audio callback.
type Renderer struct {
	typ       *atomic.Uint32
	scheduler *scheduler.Scheduler
	updates   *oscmsg.Chan
	sink      oscerr.Sink

	sampleRate   float32
	computedFreq float32
	phase        float32
	incrPhase    float32

	sine     sineState
	triangle triangleState
	periodic periodicState

	wtScratch []float32
}

// NewRenderer constructs a Renderer from cfg, deriving the initial
// phase increment and custom wavetable the way OscillatorRenderer's
// constructor does: computedFreq starts at 440*2^(0/1200), and an
// absent PeriodicWave defaults to a pure sine fundamental.
func NewRenderer(cfg Config) *Renderer {
	computedFreq := float32(defaultFrequency * math.Pow(2, defaultDetune/1200))
	incrPhase := computedFreq / cfg.SampleRate
	tableIncr := incrPhase * wavetable.TableLength
	sineInterpolRatio := tableIncr - float32(math.Floor(float64(tableIncr)))

	pw := cfg.PeriodicWave
	if pw == nil {
		pw = wavetable.DefaultPeriodicWave()
	}

	h := wavetable.BuildHarmonics(pw, computedFreq, cfg.SampleRate)
	buf := wavetable.GenerateWavetable(h, nil)

	var normFactor float32
	hasNorm := !pw.DisableNormalization
	if hasNorm {
		normFactor = wavetable.NormFactor(buf)
	}

	return &Renderer{
		typ:          cfg.Type,
		scheduler:    cfg.Scheduler,
		updates:      cfg.Updates,
		sink:         cfg.Sink,
		sampleRate:   cfg.SampleRate,
		computedFreq: computedFreq,
		phase:        0,
		incrPhase:    incrPhase,
		sine: sineState{
			interpolRatio: sineInterpolRatio,
			firstCall:     true,
		},
		triangle: triangleState{},
		periodic: periodicState{
			incrPhases:     h.IncrPhases,
			interpolRatios: h.InterpolRatios,
			normFactor:     normFactor,
			hasNormFactor:  hasNorm,
			disableNorm:    pw.DisableNormalization,
			wavetable: wavetableState{
				buffer:    buf,
				phase:     0,
				incrPhase: 1,
				refFreq:   computedFreq,
			},
		},
	}
}

// TailTime reports whether the node may still produce output after
// its inputs fall silent. Always true: oscillators are sources.
func (r *Renderer) TailTime() bool {
	return true
}

// Process renders exactly RenderQuantumSize samples into out.
// timestamp is the host-domain quantum-start time; freq and detune
// are per-sample parameter buffers of RenderQuantumSize each.
//
// Any InvariantViolation panicking out of the dispatch below (an
// out-of-range type ordinal) is recovered here: the quantum is zeroed and the
// violation is forwarded to Sink if one was configured, rather than
// letting it escape into the host's audio callback.
func (r *Renderer) Process(timestamp float64, freq, detune, out []float32) {
	defer func() {
		if rec := recover(); rec != nil {
			for i := range out {
				out[i] = 0
			}
			iv, ok := rec.(*oscerr.InvariantViolation)
			if !ok {
				panic(rec)
			}
			if r.sink != nil {
				r.sink.ReportInvariantViolation(iv)
			}
		}
	}()

	if !r.scheduler.IsActive(timestamp) {
		for i := range out {
			out[i] = 0
		}
		return
	}

	var computedFreqs [RenderQuantumSize]float32
	fixedDetune := true
	for i := 1; i < len(detune); i++ {
		if float32(math.Abs(float64(detune[i]-detune[0]))) >= 1e-6 {
			fixedDetune = false
			break
		}
	}
	if fixedDetune {
		d := float32(math.Pow(2, float64(detune[0])/1200))
		for i, f := range freq {
			computedFreqs[i] = f * d
		}
	} else {
		for i := range freq {
			computedFreqs[i] = freq[i] * float32(math.Pow(2, float64(detune[i])/1200))
		}
	}

	typ := oscillatorTypeFromOrdinal(r.typ.Load())

	if u, ok := r.updates.TryRecv(); ok {
		r.applyPeriodicWaveUpdate(u)
	}

	r.generate(typ, out, computedFreqs[:len(out)])
}

func (r *Renderer) applyPeriodicWaveUpdate(u oscmsg.PeriodicWaveUpdate) {
	r.periodic.wavetable.refFreq = u.ComputedFreq
	r.periodic.wavetable.buffer = u.Wavetable
	r.periodic.normFactor = u.NormFactor
	r.periodic.hasNormFactor = !u.DisableNormalization
	r.periodic.disableNorm = u.DisableNormalization
}

func (r *Renderer) generate(typ OscillatorType, out []float32, computedFreqs []float32) {
	switch typ {
	case TypeSine:
		r.generateSine(out, computedFreqs)
	case TypeSquare:
		r.generateSquare(out, computedFreqs)
	case TypeSawtooth:
		r.generateSawtooth(out, computedFreqs)
	case TypeTriangle:
		r.generateTriangle(out, computedFreqs)
	case TypeCustom:
		r.generateCustom(out, computedFreqs)
	default:
		panic(&oscerr.InvariantViolation{Reason: "unknown oscillator type in dispatch"})
	}
}

// arateCalcParams refreshes computedFreq/incrPhase for the unit-phase
// waveforms (square/sawtooth/triangle) and the table-indexed sine.
// Sine's incrPhase is derived in table units (TableLength), the others
// in unit-interval units.
func (r *Renderer) arateCalcParams(sineUnits bool, computedFreq float32) {
	if sineUnits && r.sine.firstCall {
		r.sine.firstCall = false
		r.incrPhase = computedFreq / r.sampleRate * wavetable.TableLength
	}
	if float32(math.Abs(float64(r.computedFreq-computedFreq))) < freqChangeThreshold {
		return
	}
	r.computedFreq = computedFreq
	if sineUnits {
		r.incrPhase = computedFreq / r.sampleRate * wavetable.TableLength
	} else {
		r.incrPhase = computedFreq / r.sampleRate
	}
}

func (r *Renderer) generateSine(out []float32, computedFreqs []float32) {
	for i, cf := range computedFreqs {
		r.arateCalcParams(true, cf)

		idx := int(r.phase)
		infIdx := idx % wavetable.TableLength
		supIdx := (idx + 1) % wavetable.TableLength

		out[i] = wavetable.SineTable[infIdx]*(1-r.sine.interpolRatio) + wavetable.SineTable[supIdx]*r.sine.interpolRatio

		r.phase += r.incrPhase
		if r.phase >= wavetable.TableLength {
			r.phase -= wavetable.TableLength
		}
	}
}

func (r *Renderer) generateSawtooth(out []float32, computedFreqs []float32) {
	for i, cf := range computedFreqs {
		r.arateCalcParams(false, cf)

		sample := 2*r.phase - 1
		sample -= polyBLEP(r.phase, r.incrPhase)

		r.phase += r.incrPhase
		for r.phase >= 1 {
			r.phase -= 1
		}

		out[i] = sample
	}
}

func (r *Renderer) generateSquare(out []float32, computedFreqs []float32) {
	for i, cf := range computedFreqs {
		r.arateCalcParams(false, cf)
		out[i] = r.squareSample()
	}
}

// squareSample computes one naive-plus-dual-polyBLEP square sample
// and advances the unit-interval phase. Shared by square and triangle
// (triangle leaky-integrates this same shape).
func (r *Renderer) squareSample() float32 {
	var sample float32
	if r.phase < 0.5 {
		sample = 1
	} else {
		sample = -1
	}
	sample += polyBLEP(r.phase, r.incrPhase)

	shiftPhase := r.phase + 0.5
	for shiftPhase >= 1 {
		shiftPhase -= 1
	}
	sample -= polyBLEP(shiftPhase, r.incrPhase)

	r.phase += r.incrPhase
	for r.phase >= 1 {
		r.phase -= 1
	}
	return sample
}

func (r *Renderer) generateTriangle(out []float32, computedFreqs []float32) {
	for i, cf := range computedFreqs {
		r.arateCalcParams(false, cf)
		sample := r.squareSample()

		// Leaky integrator: y[n] = A*x[n] + (1-A)*y[n-1]. A true
		// running integral accumulates float error over long runs, so
		// this leaky form is used instead (per the upstream source).
		sample = r.incrPhase*sample + (1-r.incrPhase)*r.triangle.lastOutput
		r.triangle.lastOutput = sample

		out[i] = sample * 4
	}
}

func (r *Renderer) generateCustom(out []float32, computedFreqs []float32) {
	for i, cf := range computedFreqs {
		r.arateCalcPeriodicParams(cf)

		wt := &r.periodic.wavetable
		n := float32(len(wt.buffer))
		wt.phase += wt.incrPhase
		for wt.phase >= n {
			wt.phase -= n
		}
		for wt.phase < 0 {
			wt.phase += n
		}

		// Sub-sample phase is truncated, not interpolated, between
		// buffer samples: a carried-over limitation of the custom
		// wavetable path.
		out[i] = wt.buffer[int(wt.phase)]
	}
}

func (r *Renderer) arateCalcPeriodicParams(newComputedFreq float32) {
	if float32(math.Abs(float64(r.computedFreq-newComputedFreq))) < freqChangeThreshold {
		return
	}
	ratio := newComputedFreq / r.computedFreq
	for i := range r.periodic.incrPhases {
		r.periodic.incrPhases[i] *= ratio
		r.periodic.interpolRatios[i] = r.periodic.incrPhases[i] - float32(math.Floor(float64(r.periodic.incrPhases[i])))
	}
	r.periodic.wavetable.incrPhase = newComputedFreq / r.periodic.wavetable.refFreq
	r.computedFreq = newComputedFreq
}

// polyBLEP returns the polynomial band-limited step correction for a
// unit-interval phase t with per-sample phase increment dt.
func polyBLEP(t, dt float32) float32 {
	switch {
	case t < dt:
		t /= dt
		return 2*t - t*t - 1
	case t > 1-dt:
		t = (t - 1) / dt
		return t*t + 2*t + 1
	default:
		return 0
	}
}
