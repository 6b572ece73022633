// Package oscerr defines the error kinds the oscillator node and
// renderer can raise. Control-thread failures are returned as errors;
// render-thread failures are unrepresentable by construction except
// for InvariantViolation, which signals memory corruption or an
// internal bug rather than a normal runtime condition.
package oscerr

import "fmt"

// ErrChannelDisconnected means the node's control-side handle outlived
// its renderer: the render-thread half of the update channel is gone.
// This is a fatal programmer error, not a recoverable condition.
var ErrChannelDisconnected = fmt.Errorf("oscillator: renderer channel disconnected")

// ValidationError reports a construction-time failure, such as
// mismatched or too-short Fourier coefficient arrays.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "oscillator: validation failed: " + e.Reason
}

// InvariantViolation indicates state on the render thread that should
// be impossible absent memory corruption or an internal bug: an
// out-of-range OscillatorType ordinal, or an empty wavetable at
// normalization time. Renderer.Process recovers from the first kind,
// emits silence for the current quantum, and reports it to an optional
// Sink rather than letting the audio callback crash. The second kind is
// raised by wavetable.NormFactor, which runs in NewRenderer and
// Node.SetPeriodicWave rather than in Process, and is not recovered.
type InvariantViolation struct {
	Reason string
}

func (e *InvariantViolation) Error() string {
	return "oscillator: invariant violation: " + e.Reason
}

// Sink receives diagnostics for invariant violations recovered on the
// render thread. Implementations must not block or allocate in a way
// that would violate render-thread real-time constraints; a typical
// implementation forwards to a lock-free counter or log ring buffer.
type Sink interface {
	ReportInvariantViolation(*InvariantViolation)
}
