// Package joystick implements the Joystick State Integrator: it turns
// raw absolute-axis and button events, plus a 50ms control tick, into
// the live targets the motion engine reads from the Shared Control
// Block (spec.md §4.2), and reconciles position against the engine's
// stroke-end status.
package joystick

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/ciphergoth/fmachine/internal/config"
	"github.com/ciphergoth/fmachine/internal/inputdevice"
	"github.com/ciphergoth/fmachine/internal/logger"
	"github.com/ciphergoth/fmachine/internal/motion"
	"github.com/ciphergoth/fmachine/internal/scb"
)

const triggerFactorLn = 3.0

// triggerLockState is the three-valued FSM from spec.md §4.2.
type triggerLockState int

const (
	unlocked triggerLockState = iota
	lockedTriggerNonzero
	lockedTriggerZero
)

func (s triggerLockState) String() string {
	switch s {
	case unlocked:
		return "unlocked"
	case lockedTriggerNonzero:
		return "locked_trigger_nonzero"
	case lockedTriggerZero:
		return "locked_trigger_zero"
	default:
		return "unknown"
	}
}

// JoyState aggregates the four logical axes plus trigger/lock/drive
// state and the pos_offset stroke-reconciliation bookkeeping (spec.md
// §3.4), grounded on original_source/src/joystick.rs's JoyState.
type JoyState struct {
	cfg    *config.Config
	scb    *scb.Block
	logger *zap.Logger

	pos       *axis
	strokeLen *axis
	asymmetry *axis
	speed     *axis

	triggerMax int32
	triggerLn  float64
	lock       triggerLockState
	drive      bool
	lastStop   int64
	posOffset  int64
}

// New constructs a JoyState, reading per-axis calibration from src
// (spec.md §3.3(b), read once at startup).
func New(cfg *config.Config, block *scb.Block, src inputdevice.Source, logger *zap.Logger, now time.Time) (*JoyState, error) {
	xInfo, err := src.AbsInfo(inputdevice.AbsX)
	if err != nil {
		return nil, err
	}
	yInfo, err := src.AbsInfo(inputdevice.AbsY)
	if err != nil {
		return nil, err
	}
	rxInfo, err := src.AbsInfo(inputdevice.AbsRX)
	if err != nil {
		return nil, err
	}
	ryInfo, err := src.AbsInfo(inputdevice.AbsRY)
	if err != nil {
		return nil, err
	}
	rzInfo, err := src.AbsInfo(inputdevice.AbsRZ)
	if err != nil {
		return nil, err
	}

	js := &JoyState{
		cfg:    cfg,
		scb:    block,
		logger: logger,
		pos: newAxis(axisSpec{
			min: 0, max: float64(cfg.MaxPos), timeToMaxS: cfg.TimeToMaxS,
		}, 0, xInfo.Maximum, xInfo.Flat, now),
		strokeLen: newAxis(axisSpec{
			min: float64(cfg.MinStroke), max: float64(cfg.MaxPos) / 2.0, timeToMaxS: -cfg.TimeToMaxS,
		}, float64(cfg.MinStroke), yInfo.Maximum, yInfo.Flat, now),
		asymmetry: newAxis(axisSpec{
			min: -0.8, max: 0.8, timeToMaxS: cfg.TimeToMaxS,
		}, 0, rxInfo.Maximum, rxInfo.Flat, now),
		speed: newAxis(axisSpec{
			min: math.Log(cfg.MinSpeed), max: math.Log(cfg.MaxSpeed), timeToMaxS: -cfg.TimeToMaxS,
		}, math.Log(cfg.InitSpeed), ryInfo.Maximum, ryInfo.Flat, now),
		triggerMax: rzInfo.Maximum,
		lock:       unlocked,
	}
	return js, nil
}

// HandleTick integrates all four axes and writes the SCB (spec.md
// §4.2's "Per-tick SCB update", fired every 50ms).
func (j *JoyState) HandleTick(now time.Time) {
	j.pos.handleTick(true, now)
	j.strokeLen.handleTick(j.drive, now)
	j.asymmetry.handleTick(j.drive, now)
	j.speed.handleTick(j.drive, now)

	if j.drive {
		j.pos.clamp(j.pos.spec.min+j.strokeLen.driven, j.pos.spec.max-j.strokeLen.driven)

		v := math.Exp(j.speed.driven + j.triggerLn)
		end0 := max64(j.posOffset+int64(j.pos.driven-j.strokeLen.driven), j.posOffset)
		end1 := min64(j.posOffset+int64(j.pos.driven+j.strokeLen.driven), j.posOffset+j.cfg.MaxPos)
		j.scb.SetEnds(end0, end1)

		posRate := j.pos.speed()
		t0 := math.Min(v/(1.0+j.asymmetry.driven)-posRate, j.cfg.MaxSpeed)
		t1 := math.Min(v/(1.0-j.asymmetry.driven)+posRate, j.cfg.MaxSpeed)
		j.scb.SetTargetSpeeds(t0, t1)
	} else {
		j.strokeLen.clamp(0, j.pos.driven-j.pos.spec.min)
		j.strokeLen.clamp(0, j.pos.spec.max-j.pos.driven)

		if j.cfg.IdleCreep {
			j.scb.SetEnds(j.posOffset, j.posOffset+j.cfg.MaxPos)
			posRate := j.pos.speed()
			j.scb.SetTargetSpeeds(-posRate, posRate)
		} else {
			j.scb.SetEnds(j.posOffset, j.posOffset+j.cfg.MaxPos)
			j.scb.SetTargetSpeeds(0, 0)
		}
	}
}

// HandleEvent dispatches one raw input event into axis integration plus
// the special-purpose codes spec.md §4.2 names: trigger, asymmetry
// reset, HAT0X realignment, and BTN_TR lock.
func (j *JoyState) HandleEvent(ev inputdevice.Event, now time.Time) {
	if j.cfg.ReportEvents {
		j.logger.Debug("raw input event", zap.Uint16("type", uint16(ev.Type)), zap.Uint16("code", ev.Code), zap.Int32("value", ev.Value))
	}

	switch {
	case ev.Type == inputdevice.EvAbs && inputdevice.AbsCode(ev.Code) == inputdevice.AbsX:
		j.pos.handleEvent(true, now, ev.Value)
		return
	case ev.Type == inputdevice.EvAbs && inputdevice.AbsCode(ev.Code) == inputdevice.AbsY:
		j.strokeLen.handleEvent(j.drive, now, ev.Value)
		return
	case ev.Type == inputdevice.EvAbs && inputdevice.AbsCode(ev.Code) == inputdevice.AbsRX:
		j.asymmetry.handleEvent(j.drive, now, ev.Value)
		return
	case ev.Type == inputdevice.EvAbs && inputdevice.AbsCode(ev.Code) == inputdevice.AbsRY:
		j.speed.handleEvent(j.drive, now, ev.Value)
		return
	case ev.Type == inputdevice.EvAbs && inputdevice.AbsCode(ev.Code) == inputdevice.AbsRZ:
		j.handleTrigger(ev.Value)
		return
	case ev.Type == inputdevice.EvKey && inputdevice.KeyCode(ev.Code) == inputdevice.BtnThumbR:
		if ev.Value != 0 {
			j.asymmetry.driven = 0
		}
		return
	case ev.Type == inputdevice.EvAbs && inputdevice.AbsCode(ev.Code) == inputdevice.AbsHat0X:
		j.handleHat(ev.Value)
		return
	case ev.Type == inputdevice.EvKey && inputdevice.KeyCode(ev.Code) == inputdevice.BtnTR:
		if ev.Value == 1 && j.triggerLn != -1.0 {
			j.lock = lockedTriggerNonzero
		}
		return
	}
}

// handleTrigger implements spec.md §4.2's trigger-lock FSM table.
func (j *JoyState) handleTrigger(raw int32) {
	if raw > 0 {
		if j.lock != lockedTriggerNonzero {
			j.lock = unlocked
			j.triggerLn = ((float64(raw) / float64(j.triggerMax)) - 1.0) * triggerFactorLn
			j.drive = true
		}
		return
	}
	switch j.lock {
	case unlocked:
		j.triggerLn = -1.0
		j.drive = false
		j.scb.SetTargetSpeeds(0, 0)
	case lockedTriggerNonzero:
		j.lock = lockedTriggerZero
	case lockedTriggerZero:
		// no change
	}
}

// handleHat realigns pos_offset to the last observed rest position
// (spec.md §4.2's ABS_HAT0X handling), adjusting pos.driven by the same
// shift in the opposite sign so absolute target ends are unaffected.
func (j *JoyState) handleHat(value int32) {
	switch value {
	case 1:
		dp := j.lastStop - j.posOffset
		j.posOffset += dp
		j.pos.driven -= float64(dp)
	case -1:
		dp := j.cfg.MaxPos + j.posOffset - j.lastStop
		j.posOffset -= dp
		j.pos.driven += float64(dp)
	}
}

// HandleStatus reconciles the JSI's last-known rest position against
// the motion engine's stroke-end report (spec.md §4.2's "Stroke-end
// reconciliation").
func (j *JoyState) HandleStatus(msg motion.StatusMessage) {
	j.logger.Debug("stroke status", zap.Int64("pos", msg.Pos))
	j.lastStop = msg.Pos
}

// Report logs a telemetry snapshot on the 1s tick (one line per axis
// plus one for drive and trigger lock), carried
// over from original_source/src/joystick.rs's report().
func (j *JoyState) Report() {
	logger.WithAxis(j.logger, "pos").Debug("axis state", zap.Float64("driven", j.pos.driven))
	logger.WithAxis(j.logger, "stroke_len").Debug("axis state", zap.Float64("driven", j.strokeLen.driven))
	logger.WithAxis(j.logger, "asymmetry").Debug("axis state", zap.Float64("driven", j.asymmetry.driven))
	logger.WithAxis(j.logger, "speed").Debug("axis state", zap.Float64("driven", math.Exp(j.speed.driven)))

	j.logger.Debug("joystick state",
		zap.Bool("drive", j.drive),
		zap.String("trigger_lock", j.lock.String()),
	)
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
