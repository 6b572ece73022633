package oscillator

import "github.com/FabianRolfMatthiasNoll/oscillator-engine/internal/oscerr"

// OscillatorType selects which waveform a renderer synthesizes. Its
// ordinal encoding is stable and shared across the control/render
// boundary via an atomic.Uint32.
type OscillatorType uint32

const (
	TypeSine OscillatorType = iota
	TypeSquare
	TypeSawtooth
	TypeTriangle
	TypeCustom
)

func (t OscillatorType) String() string {
	switch t {
	case TypeSine:
		return "sine"
	case TypeSquare:
		return "square"
	case TypeSawtooth:
		return "sawtooth"
	case TypeTriangle:
		return "triangle"
	case TypeCustom:
		return "custom"
	default:
		return "invalid"
	}
}

// oscillatorTypeFromOrdinal converts a raw atomic ordinal into an
// OscillatorType. The conversion is total over {0..4}; any other value
// indicates memory corruption or API misuse on the render thread and
// panics with an InvariantViolation rather than silently misrendering.
func oscillatorTypeFromOrdinal(ord uint32) OscillatorType {
	if ord > uint32(TypeCustom) {
		panic(&oscerr.InvariantViolation{Reason: "unknown oscillator type ordinal"})
	}
	return OscillatorType(ord)
}
