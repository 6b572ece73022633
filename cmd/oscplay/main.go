// Command oscplay is a small demo harness for the oscillator engine:
// it builds a single oscillator Node, schedules a start/stop window,
// and either plays it through the default audio device or renders a
// fixed number of quanta headlessly and reports a checksum, mirroring
// gbemu's headless/windowed split.
package main

import (
	"flag"
	"fmt"
	"hash/crc32"
	"log"
	"math"
	"time"

	"github.com/FabianRolfMatthiasNoll/oscillator-engine/internal/audiobridge"
	"github.com/FabianRolfMatthiasNoll/oscillator-engine/internal/oscerr"
	"github.com/FabianRolfMatthiasNoll/oscillator-engine/internal/oscillator"
)

type cliFlags struct {
	Type       string
	Frequency  float64
	Detune     float64
	SampleRate int
	Duration   time.Duration

	Headless bool
	Quanta   int
	Expect   string
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.Type, "type", "sine", "waveform: sine|square|sawtooth|triangle")
	flag.Float64Var(&f.Frequency, "freq", 440, "frequency in Hz")
	flag.Float64Var(&f.Detune, "detune", 0, "detune in cents")
	flag.IntVar(&f.SampleRate, "samplerate", 44100, "sample rate in Hz")
	flag.DurationVar(&f.Duration, "duration", 2*time.Second, "playback duration")

	flag.BoolVar(&f.Headless, "headless", false, "render without opening an audio device")
	flag.IntVar(&f.Quanta, "quanta", 100, "render quanta to process in headless mode")
	flag.StringVar(&f.Expect, "expect", "", "assert rendered-buffer CRC32 (hex)")
	flag.Parse()
	return f
}

func parseType(s string) (oscillator.OscillatorType, error) {
	switch s {
	case "sine":
		return oscillator.TypeSine, nil
	case "square":
		return oscillator.TypeSquare, nil
	case "sawtooth":
		return oscillator.TypeSawtooth, nil
	case "triangle":
		return oscillator.TypeTriangle, nil
	default:
		return 0, fmt.Errorf("unknown waveform %q", s)
	}
}

type logSink struct{}

func (logSink) ReportInvariantViolation(iv *oscerr.InvariantViolation) {
	log.Printf("renderer invariant violation: %v", iv)
}

func runHeadless(node *oscillator.Node, renderer *oscillator.Renderer, sampleRate float64, quanta int, expectCRC string) error {
	out := make([]float32, oscillator.RenderQuantumSize)
	freq := make([]float32, oscillator.RenderQuantumSize)
	detune := make([]float32, oscillator.RenderQuantumSize)

	crc := crc32.NewIEEE()
	ts := 0.0
	start := time.Now()
	for q := 0; q < quanta; q++ {
		node.Frequency().FillBlock(freq)
		node.Detune().FillBlock(detune)
		renderer.Process(ts, freq, detune, out)
		for _, v := range out {
			var bits [4]byte
			u := math.Float32bits(v)
			bits[0] = byte(u)
			bits[1] = byte(u >> 8)
			bits[2] = byte(u >> 16)
			bits[3] = byte(u >> 24)
			crc.Write(bits[:])
		}
		ts += float64(oscillator.RenderQuantumSize) / sampleRate
	}
	elapsed := time.Since(start)
	sum := crc.Sum32()
	log.Printf("headless: quanta=%d elapsed=%s render_crc32=%08x", quanta, elapsed.Truncate(time.Millisecond), sum)

	if expectCRC != "" {
		want := fmt.Sprintf("%08x", sum)
		if expectCRC != want {
			return fmt.Errorf("render_crc32 mismatch: got %s want %s", want, expectCRC)
		}
	}
	return nil
}

func main() {
	f := parseFlags()

	typ, err := parseType(f.Type)
	if err != nil {
		log.Fatal(err)
	}

	node, renderer := oscillator.NewNode(float32(f.SampleRate), oscillator.Options{
		Type:      typ,
		Frequency: float32(f.Frequency),
		Detune:    float32(f.Detune),
		Sink:      logSink{},
	})
	node.Start(0)
	node.Stop(f.Duration.Seconds())

	if f.Headless {
		if err := runHeadless(node, renderer, float64(f.SampleRate), f.Quanta, f.Expect); err != nil {
			log.Fatal(err)
		}
		return
	}

	src := audiobridge.NewSource(f.SampleRate, renderer, node.Frequency(), node.Detune())
	player, err := audiobridge.NewPlayer(f.SampleRate, src)
	if err != nil {
		log.Fatal(err)
	}
	defer player.Close()

	player.Start()
	log.Printf("playing %s at %.2fHz (detune %.1f cents) for %s", f.Type, f.Frequency, f.Detune, f.Duration)
	time.Sleep(f.Duration)
	player.Stop()
}
