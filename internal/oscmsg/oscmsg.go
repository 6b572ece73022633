// Package oscmsg implements the single-slot, non-blocking handoff
// used to deliver a new custom wavetable from the control thread to
// the render thread. It is grounded on the same drop-oldest policy the
// teacher's APU ring buffers use when the audio path can't keep up
// (internal/apu.APU.pushSample drops the incoming sample rather than
// blocking); here the roles are reversed — it's the producer, not the
// consumer, that must never block, so a stale unconsumed update is
// dropped in favor of the newest one instead.
package oscmsg

// PeriodicWaveUpdate carries a freshly synthesized custom wavetable
// from OscillatorNode.SetPeriodicWave to the renderer.
type PeriodicWaveUpdate struct {
	ComputedFreq         float32
	Wavetable            []float32
	NormFactor           float32
	DisableNormalization bool
}

// Chan is a capacity-1 mailbox for PeriodicWaveUpdate. Unlike a plain
// Go channel, TrySend never blocks: if a previous update hasn't been
// drained yet, it's discarded in favor of the new one.
type Chan struct {
	ch chan PeriodicWaveUpdate
}

// NewChan returns a ready-to-use Chan.
func NewChan() *Chan {
	return &Chan{ch: make(chan PeriodicWaveUpdate, 1)}
}

// TrySend delivers u to the renderer, overwriting any pending,
// not-yet-drained update. Never blocks.
func (c *Chan) TrySend(u PeriodicWaveUpdate) {
	for {
		select {
		case c.ch <- u:
			return
		default:
			// Slot occupied by a stale update: drop it and retry.
			select {
			case <-c.ch:
			default:
			}
		}
	}
}

// TryRecv drains at most one pending update, matching the render
// thread's "at most one message per quantum" contract. ok is false if
// nothing was pending.
func (c *Chan) TryRecv() (u PeriodicWaveUpdate, ok bool) {
	select {
	case u = <-c.ch:
		return u, true
	default:
		return PeriodicWaveUpdate{}, false
	}
}
