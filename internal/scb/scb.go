// Package scb implements the Shared Control Block: the lock-free,
// fixed-layout set of scalar fields that is the sole communication
// channel from the joystick integrator to the motion engine.
package scb

import (
	"math"
	"sync/atomic"
)

// Factor is the fixed-point scale applied to every rate field on the
// wire. It must be identical between writer and reader; it is a
// compile-time constant by design (spec.md §3.1, §9).
const Factor = 0.001

// Block is a plain-old-data bundle of atomics. All fields are
// whole-word atomic, so no individual field ever tears, but there is no
// cross-field consistency guarantee: a reader may observe a new Ends
// paired with a stale TargetSpeeds. That is acceptable because targets
// converge on the next tick (spec.md §4.3, §9).
type Block struct {
	// stop uses sequentially-consistent ordering (Go's atomic.Bool
	// always does) so the signal handler and both worker goroutines
	// agree on a single global order for shutdown.
	stop atomic.Bool

	ends          [2]atomic.Int64
	targetSpeeds  [2]atomic.Int64
	accel         atomic.Int64
}

// New returns a zeroed Block. Callers must set Accel before starting
// the motion engine; accel == 0 is an invariant violation the engine
// refuses to run with.
func New() *Block {
	return &Block{}
}

// Stop reports whether a process-wide shutdown has been requested.
func (b *Block) Stop() bool { return b.stop.Load() }

// RequestStop raises the stop flag. Idempotent.
func (b *Block) RequestStop() { b.stop.Store(true) }

// Ends returns the current software end-stop for direction d (0 or 1),
// as a step count.
func (b *Block) Ends(d int) int64 { return b.ends[d].Load() }

// SetEnds writes both end-stops. Callers are responsible for the
// ends[0] <= ends[1] invariant (spec.md §3.1); SCB does not enforce it
// so that a momentarily inverted pair during a write race is merely
// stale data, not a panic.
func (b *Block) SetEnds(e0, e1 int64) {
	b.ends[0].Store(e0)
	b.ends[1].Store(e1)
}

// TargetSpeed returns the target step rate for direction d, in
// steps/second, decoded from its fixed-point representation.
func (b *Block) TargetSpeed(d int) float64 {
	return float64(b.targetSpeeds[d].Load()) * Factor
}

// SetTargetSpeeds writes both target speeds, in steps/second.
func (b *Block) SetTargetSpeeds(v0, v1 float64) {
	b.targetSpeeds[0].Store(encode(v0))
	b.targetSpeeds[1].Store(encode(v1))
}

// Accel returns the acceleration bound in steps/second^2.
func (b *Block) Accel() float64 { return float64(b.accel.Load()) * Factor }

// SetAccel sets the acceleration bound once, at startup. accel must be
// positive (spec.md §3.1 invariant); callers should fail fast (Init
// error) rather than calling this with a non-positive value.
func (b *Block) SetAccel(accel float64) { b.accel.Store(encode(accel)) }

func encode(v float64) int64 { return int64(math.Round(v / Factor)) }
