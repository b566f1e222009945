// Package motion implements the motion engine: the step-pulse scheduler
// that converts the live targets in the Shared Control Block into a
// precisely timed stream of step pulses, honoring bounded acceleration,
// mid-stroke target changes, and soft end-stops (spec.md §4.1).
package motion

import (
	"fmt"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/ciphergoth/fmachine/internal/hal"
	"github.com/ciphergoth/fmachine/internal/logger"
	"github.com/ciphergoth/fmachine/internal/motionerr"
	"github.com/ciphergoth/fmachine/internal/scb"
)

const (
	// PulseDuration is the active-high width of every step pulse.
	PulseDuration = time.Microsecond
	// DirSleep is how long the direction line is held before the first
	// pulse of a stroke, letting the driver settle.
	DirSleep = time.Millisecond
	// PollSleep is how long the engine idles when no direction is
	// currently viable.
	PollSleep = 50 * time.Millisecond
	// MinDistance is the minimum remaining travel (in steps) for a
	// direction to be considered viable.
	MinDistance = 2
	// InitialTimeError seeds the scheduling-overhead estimate before any
	// stroke has completed.
	InitialTimeError = 200 * time.Microsecond
	// minStrokeForCalibration is the stroke length, in steps, above
	// which time_error is recalibrated at stroke end.
	minStrokeForCalibration = 50
)

// StatusMessage is sent once per completed stroke on the single-producer
// single-consumer status queue, carrying the engine's absolute position.
type StatusMessage struct {
	Pos int64
}

// Engine is the motion engine. It is not safe for concurrent use by
// more than one goroutine; spec.md §5 dedicates it a single OS thread.
type Engine struct {
	lines  hal.StepperLines
	scb    *scb.Block
	status chan<- StatusMessage
	logger *zap.Logger

	pos       int64
	dir       int
	timeError float64 // seconds

	table      []float64
	tableAccel float64

	// onStep, when set, is invoked synchronously after each step from
	// within stroke's own goroutine, with the new position and the
	// pulse_ix the step was taken at. It exists solely so tests can
	// mutate the SCB mid-stroke (spec.md §8 scenarios S2/S3) without a
	// data race, and observe the ramp index.
	onStep func(pos int64, pulseIx int)
}

// NewEngine constructs an Engine starting at pos 0, dir 0, with
// time_error seeded at InitialTimeError (spec.md §3.2).
func NewEngine(lines hal.StepperLines, block *scb.Block, status chan<- StatusMessage, logger *zap.Logger) *Engine {
	return &Engine{
		lines:     lines,
		scb:       block,
		status:    status,
		logger:    logger,
		timeError: InitialTimeError.Seconds(),
	}
}

// Pos returns the engine's current absolute position. Safe to call only
// after Run has returned (it is otherwise owned exclusively by the
// engine's goroutine).
func (e *Engine) Pos() int64 { return e.pos }

// Run pins the calling goroutine to its OS thread, attempts to raise
// its scheduling priority, and runs strokes until stop is raised or a
// fatal error occurs (spec.md §5: "ME runs on a dedicated OS thread with
// elevated scheduling priority where available").
func (e *Engine) Run() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := raiseRealtimePriority(); err != nil {
		e.logger.Warn("could not raise motion engine scheduling priority", zap.Error(err))
	}

	for !e.scb.Stop() {
		if err := e.stroke(); err != nil {
			return err
		}
	}
	return nil
}

// dirMul maps a direction index to its signed step delta: dir 0 moves
// toward ends[0] (−1 per step), dir 1 toward ends[1] (+1 per step).
func dirMul(dir int) int64 {
	if dir == 0 {
		return -1
	}
	return 1
}

// directionViable reports whether dir is a safe, worthwhile direction to
// step in given the engine's current position (spec.md §4.1 step 1).
func (e *Engine) directionViable(dir int) bool {
	targetSpeed := e.scb.TargetSpeed(dir)
	end := e.scb.Ends(dir)
	remaining := dirMul(dir) * (end - e.pos)
	return targetSpeed >= MinSpeed && remaining > MinDistance
}

// selectDirection implements spec.md §4.1 step 1: prefer continuing in
// the current direction, then the opposite, else report no viable
// direction.
func (e *Engine) selectDirection() (int, bool) {
	if e.directionViable(e.dir) {
		return e.dir, true
	}
	if e.directionViable(1 - e.dir) {
		return 1 - e.dir, true
	}
	return e.dir, false
}

// commandedPulseLen is the inter-pulse interval the current target speed
// asks for, before it is clamped onto the ramp table (spec.md §4.1 step
// 4a). A target near zero falls back to a nominal slow interval rather
// than dividing by (near) zero.
func commandedPulseLen(targetSpeed float64) float64 {
	const nearZero = 1e-9
	if targetSpeed < nearZero {
		return 1.0 / (0.1 * MinSpeed)
	}
	return 1.0 / targetSpeed
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// stroke runs exactly one Idle->Arming->Ramping->Idle cycle (spec.md
// §4.1's per-stroke state machine). It returns nil after an idle poll
// with no viable direction, after a completed stroke, or a non-nil
// error on a fatal condition.
func (e *Engine) stroke() error {
	accel := e.scb.Accel()
	if accel <= 0 {
		return fmt.Errorf("%w: accel must be positive, got %v", motionerr.Invariant, accel)
	}
	if e.table == nil || e.tableAccel != accel {
		e.table = BuildPulseTable(accel)
		e.tableAccel = accel
	}

	dir, ok := e.selectDirection()
	if !ok {
		time.Sleep(PollSleep)
		return nil
	}
	e.dir = dir
	mul := dirMul(dir)

	if err := e.lines.SetDirection(dir); err != nil {
		return fmt.Errorf("%w: set direction line: %v", motionerr.RuntimeFatal, err)
	}
	time.Sleep(DirSleep)

	maxIx, err := maxPulseIndex(e.table, e.timeError)
	if err != nil {
		return err
	}

	pulseIx := 1
	if pulseIx > maxIx {
		pulseIx = maxIx
	}

	startPos := e.pos
	var slept time.Duration
	steps := 0
	timeClip := false
	strokeStart := time.Now()

	for pulseIx > 0 {
		target := e.scb.TargetSpeed(dir)
		end := e.scb.Ends(dir)
		commanded := commandedPulseLen(target)
		lo, hi := e.table[pulseIx], e.table[pulseIx-1]
		pulseLen := clamp(commanded, lo, hi)

		if err := e.lines.SetStep(true); err != nil {
			return fmt.Errorf("%w: raise step line: %v", motionerr.RuntimeFatal, err)
		}
		time.Sleep(PulseDuration)
		if err := e.lines.SetStep(false); err != nil {
			return fmt.Errorf("%w: lower step line: %v", motionerr.RuntimeFatal, err)
		}

		d := time.Duration(pulseLen * float64(time.Second))
		time.Sleep(d)

		e.pos += mul
		slept += d
		steps++

		if e.onStep != nil {
			e.onStep(e.pos, pulseIx)
		}

		remaining := mul * (end - e.pos)
		switch {
		case remaining < int64(pulseIx) || e.table[pulseIx-1] <= commanded || e.scb.Stop():
			pulseIx--
		case e.table[pulseIx] > commanded && remaining > int64(pulseIx):
			// Accelerating only while remaining > pulse_ix keeps
			// remaining >= pulse_ix-1 after every step, so the braking
			// ramp never carries the carriage past the end-stop.
			if pulseIx < maxIx {
				pulseIx++
			} else {
				timeClip = true
			}
		}
	}

	elapsed := time.Since(strokeStart)
	if steps > minStrokeForCalibration {
		e.timeError = (elapsed.Seconds() - slept.Seconds()) / float64(steps)
	}

	logger.WithStroke(e.logger, dir, startPos).Debug("stroke complete",
		zap.Int64("pos", e.pos),
		zap.Int("steps", steps),
		zap.Bool("time_clip", timeClip),
		zap.Float64("time_error_us", e.timeError*1e6),
	)

	return e.sendStatus(StatusMessage{Pos: e.pos})
}

// sendStatus delivers one StatusMessage to the joystick integrator. A
// send on a closed queue is an invariant violation, not a condition to
// silently swallow (spec.md §7(d)).
func (e *Engine) sendStatus(msg StatusMessage) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: status queue closed: %v", motionerr.Invariant, r)
		}
	}()
	e.status <- msg
	return nil
}
