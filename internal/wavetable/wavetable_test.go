package wavetable

import (
	"math"
	"testing"
)

func TestSineTableShapeAndAccuracy(t *testing.T) {
	if len(SineTable) != TableLength {
		t.Fatalf("len(SineTable) = %d, want %d", len(SineTable), TableLength)
	}
	var maxErr float64
	for i := 0; i < TableLength; i++ {
		want := math.Sin(2 * math.Pi * float64(i) / float64(TableLength))
		got := float64(SineTable[i])
		if d := math.Abs(got - want); d > maxErr {
			maxErr = d
		}
	}
	if maxErr >= 1e-6 {
		t.Fatalf("max |SineTable[i] - sin(2*pi*i/2048)| = %v, want < 1e-6", maxErr)
	}
}

func TestNewPeriodicWaveValidation(t *testing.T) {
	cases := []struct {
		name       string
		real, imag []float32
	}{
		{"real too short", []float32{0}, []float32{0, 0, 0}},
		{"imag too short", []float32{0, 0, 0}, []float32{0}},
		{"length mismatch", []float32{0, 0, 0}, []float32{0, 0}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := NewPeriodicWave(c.real, c.imag, false); err == nil {
				t.Fatalf("NewPeriodicWave(%v, %v) succeeded, want error", c.real, c.imag)
			}
		})
	}
}

func TestNewPeriodicWaveAccepts(t *testing.T) {
	pw, err := NewPeriodicWave([]float32{0, 1, 1}, []float32{0, 0, 0}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pw.Real) != 3 || len(pw.Imag) != 3 {
		t.Fatalf("unexpected PeriodicWave: %+v", pw)
	}
}

func TestBuildAndGenerateWavetableBounded(t *testing.T) {
	pw, err := NewPeriodicWave([]float32{0, 1, 1}, []float32{0, 0, 0}, false)
	if err != nil {
		t.Fatalf("NewPeriodicWave: %v", err)
	}
	h := BuildHarmonics(pw, 440, 44100)
	buf := GenerateWavetable(h, nil)
	if len(buf) == 0 {
		t.Fatalf("GenerateWavetable produced an empty buffer")
	}
	nf := NormFactor(buf)
	for _, s := range buf {
		v := s * nf
		if v < -1.1 || v > 1.1 {
			t.Fatalf("normalized sample %v out of [-1.1, 1.1]", v)
		}
	}
}

// Invariant 6: a pure-cosine coefficient (real=1, imag=0) and a
// pure-sine coefficient (real=0, imag=1) at the same harmonic carry
// equal norm but different phase, and that phase difference follows
// the documented asymmetric formula exactly - including the preserved
// bug in the positive-phase branch. This pins the quirk down as a
// tested, known quantity rather than an incidental accident.
func TestBuildHarmonicsPhaseAsymmetry(t *testing.T) {
	cosWave, err := NewPeriodicWave([]float32{0, 1}, []float32{0, 0}, true)
	if err != nil {
		t.Fatalf("NewPeriodicWave (cosine): %v", err)
	}
	sinWave, err := NewPeriodicWave([]float32{0, 0}, []float32{0, 1}, true)
	if err != nil {
		t.Fatalf("NewPeriodicWave (sine): %v", err)
	}

	hc := BuildHarmonics(cosWave, 440, 44100)
	hs := BuildHarmonics(sinWave, 440, 44100)

	if math.Abs(float64(hc.Norms[1]-hs.Norms[1])) > 1e-6 {
		t.Fatalf("norms differ: cos=%v sin=%v, want equal", hc.Norms[1], hs.Norms[1])
	}

	if hc.Phases[1] != 0 {
		t.Fatalf("cosine (phase=0) harmonic phase = %v, want 0", hc.Phases[1])
	}

	wantSinPhase := float32(math.Pi/2) * float32(TableLength/2.0*math.Pi)
	if d := math.Abs(float64(hs.Phases[1] - wantSinPhase)); d > 1e-2 {
		t.Fatalf("sine harmonic phase = %v, want %v (per the preserved positive-branch formula)", hs.Phases[1], wantSinPhase)
	}
}

func TestNormFactorPanicsOnEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("NormFactor(nil) did not panic")
		}
	}()
	NormFactor(nil)
}
