package oscillator

import (
	"math"
	"sync/atomic"

	"github.com/FabianRolfMatthiasNoll/oscillator-engine/internal/audioparam"
	"github.com/FabianRolfMatthiasNoll/oscillator-engine/internal/oscerr"
	"github.com/FabianRolfMatthiasNoll/oscillator-engine/internal/oscmsg"
	"github.com/FabianRolfMatthiasNoll/oscillator-engine/internal/scheduler"
	"github.com/FabianRolfMatthiasNoll/oscillator-engine/internal/wavetable"
)

// detuneRangeCents is the detune parameter's range in cents: +/-153600,
// i.e. +/-128 octaves.
const detuneRangeCents = 153600

// Options configures a new Node. The zero value selects TypeSine, a
// frequency of 440Hz, a detune of 0 cents, and no custom periodic
// wave.
type Options struct {
	Type         OscillatorType
	Frequency    float32
	Detune       float32
	PeriodicWave *wavetable.PeriodicWave
	Sink         oscerr.Sink
}

// Node is the control-thread façade for an oscillator: it owns the
// parameter handles, the shared type atomic, the scheduler, and the
// sending side of the wavetable mailbox. Dropping a Node without
// dropping its Renderer (or vice versa) is a caller error; there is no
// teardown protocol beyond stopping the scheduler, matching the
// surrounding audio graph's ownership contract.
type Node struct {
	sampleRate float32
	frequency  *audioparam.Param
	detune     *audioparam.Param
	typ        *atomic.Uint32
	scheduler  *scheduler.Scheduler
	updates    *oscmsg.Chan
}

// NewNode constructs an oscillator and returns its control-thread
// handle together with the render-thread processor the host should
// drive from its audio callback. This stands in for the audio
// context's registration protocol, which this package treats as an
// external collaborator.
func NewNode(sampleRate float32, opts Options) (*Node, *Renderer) {
	nyquist := sampleRate / 2

	freq := opts.Frequency
	if freq == 0 {
		freq = defaultFrequency
	}

	typ := &atomic.Uint32{}
	typ.Store(uint32(opts.Type))

	pw := opts.PeriodicWave
	if pw != nil {
		typ.Store(uint32(TypeCustom))
	}

	node := &Node{
		sampleRate: sampleRate,
		frequency:  audioparam.NewParam(-nyquist, nyquist, freq),
		detune:     audioparam.NewParam(-detuneRangeCents, detuneRangeCents, opts.Detune),
		typ:        typ,
		scheduler:  scheduler.New(),
		updates:    oscmsg.NewChan(),
	}

	renderer := NewRenderer(Config{
		Type:         typ,
		Scheduler:    node.scheduler,
		Updates:      node.updates,
		SampleRate:   sampleRate,
		PeriodicWave: pw,
		Sink:         opts.Sink,
	})

	return node, renderer
}

// Frequency returns the frequency audio parameter, in Hz.
// computedFreq = frequency * 2^(detune/1200).
func (n *Node) Frequency() *audioparam.Param { return n.frequency }

// Detune returns the detune audio parameter, in cents.
// computedFreq = frequency * 2^(detune/1200).
func (n *Node) Detune() *audioparam.Param { return n.detune }

// Type returns the oscillator's current waveform.
func (n *Node) Type() OscillatorType {
	return oscillatorTypeFromOrdinal(n.typ.Load())
}

// SetType atomically changes the oscillator's waveform.
func (n *Node) SetType(t OscillatorType) {
	n.typ.Store(uint32(t))
}

// computedFreq returns frequency*2^(detune/1200) from the node's
// current parameter values.
func (n *Node) computedFreq() float32 {
	return n.frequency.Value() * pow2(n.detune.Value()/1200)
}

// SetPeriodicWave derives a custom wavetable from pw, atomically
// switches the oscillator to TypeCustom, and delivers the new
// wavetable to the renderer. It never blocks: a not-yet-drained
// previous update is discarded in favor of this one.
func (n *Node) SetPeriodicWave(pw *wavetable.PeriodicWave) {
	n.SetType(TypeCustom)

	computedFreq := n.computedFreq()
	h := wavetable.BuildHarmonics(pw, computedFreq, n.sampleRate)
	buf := wavetable.GenerateWavetable(h, nil)

	var normFactor float32
	if !pw.DisableNormalization {
		normFactor = wavetable.NormFactor(buf)
	}

	n.updates.TrySend(oscmsg.PeriodicWaveUpdate{
		ComputedFreq:         computedFreq,
		Wavetable:            buf,
		NormFactor:           normFactor,
		DisableNormalization: pw.DisableNormalization,
	})
}

// Start schedules playback to begin at timestamp t.
func (n *Node) Start(t float64) { n.scheduler.StartAt(t) }

// Stop schedules playback to end at timestamp t.
func (n *Node) Stop(t float64) { n.scheduler.StopAt(t) }

func pow2(x float32) float32 {
	return float32(math.Exp2(float64(x)))
}
