// Package audiobridge connects an oscillator Renderer to a real audio
// output device. It is grounded on two patterns from the retrieval
// pack: the teacher's apuStream (internal/ui/audio.go), a pull-based
// io.Reader adapter around a cycle-driven synthesis engine, and
// IntuitionEngine's OtoPlayer (audio_backend_oto.go), which drives the
// same ebitengine/oto/v3 player with an atomic-pointer hot path and a
// mutex-guarded control surface.
package audiobridge

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/FabianRolfMatthiasNoll/oscillator-engine/internal/audioparam"
	"github.com/FabianRolfMatthiasNoll/oscillator-engine/internal/oscillator"
)

// Source adapts an oscillator.Renderer to io.Reader, pulling whole
// render quanta and converting them to little-endian float32 stereo
// frames (mono duplicated to both channels, matching the teacher's
// apuStream mono-duplication behavior).
type Source struct {
	renderer *oscillator.Renderer
	freq     *audioparam.Param
	detune   *audioparam.Param

	sampleRate float64
	timestamp  float64

	quantum    []float32
	freqBlock  []float32
	detBlock   []float32
	pendingIdx int // index into quantum not yet copied to the last Read
}

// NewSource returns a Source that renders from r, reading the live
// frequency and detune values from freq/detune once per quantum.
func NewSource(sampleRate int, r *oscillator.Renderer, freq, detune *audioparam.Param) *Source {
	return &Source{
		renderer:   r,
		freq:       freq,
		detune:     detune,
		sampleRate: float64(sampleRate),
		quantum:    make([]float32, oscillator.RenderQuantumSize),
		freqBlock:  make([]float32, oscillator.RenderQuantumSize),
		detBlock:   make([]float32, oscillator.RenderQuantumSize),
		pendingIdx: oscillator.RenderQuantumSize, // force a render on first Read
	}
}

// bytesPerFrame is 2 channels * 4 bytes (float32 little-endian).
const bytesPerFrame = 8

// Read implements io.Reader, filling p with as many whole stereo
// frames as fit, pulling fresh render quanta from the oscillator as
// needed. A short trailing partial frame is zero-padded rather than
// returned unfilled, matching apuStream.Read's underrun handling.
func (s *Source) Read(p []byte) (int, error) {
	n := 0
	for n+bytesPerFrame <= len(p) {
		if s.pendingIdx >= len(s.quantum) {
			s.renderNextQuantum()
		}
		sample := s.quantum[s.pendingIdx]
		s.pendingIdx++

		bits := math.Float32bits(sample)
		binary.LittleEndian.PutUint32(p[n:], bits)
		binary.LittleEndian.PutUint32(p[n+4:], bits)
		n += bytesPerFrame
	}
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	if n < len(p) {
		return len(p), nil
	}
	return n, nil
}

func (s *Source) renderNextQuantum() {
	s.freq.FillBlock(s.freqBlock)
	s.detune.FillBlock(s.detBlock)
	s.renderer.Process(s.timestamp, s.freqBlock, s.detBlock, s.quantum)
	s.timestamp += float64(oscillator.RenderQuantumSize) / s.sampleRate
	s.pendingIdx = 0
}

// Player wraps an oto.Context/Player pair around a Source, mirroring
// OtoPlayer's lifecycle: control operations (Start/Stop/Close) take a
// mutex; the hot path (oto pulling from Source.Read) never does.
type Player struct {
	ctx     *oto.Context
	player  *oto.Player
	mutex   sync.Mutex
	started bool
}

// NewPlayer creates an oto context at sampleRate and wires src as its
// audio source.
func NewPlayer(sampleRate int, src *Source) (*Player, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	return &Player{
		ctx:    ctx,
		player: ctx.NewPlayer(src),
	}, nil
}

// Start begins playback.
func (p *Player) Start() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if !p.started {
		p.player.Play()
		p.started = true
	}
}

// Stop pauses playback; the player can be Start-ed again afterward.
func (p *Player) Stop() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.started {
		p.player.Pause()
		p.started = false
	}
}

// Close releases the player and its context.
func (p *Player) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.started = false
	return p.player.Close()
}
