package joystick

import (
	"math"
	"time"
)

// axisSpec is an axis's static configuration: its logical range and how
// fast a full stick deflection drives it from min to max (spec.md
// §3.3(a)), grounded on original_source/src/joystick.rs's AxisSpec.
type axisSpec struct {
	min, max    float64
	timeToMaxS  float64
}

// axis is one logical joystick axis: integrated position, deadzone, and
// the device calibration needed to convert a raw sample into a rate
// (spec.md §3.3), grounded on original_source/src/joystick.rs's Axis.
type axis struct {
	spec axisSpec

	per  float64 // logical units per raw unit per second
	flat int32   // deadzone threshold

	driven    float64
	lastTime  time.Time
	lastValue int32
}

// newAxis computes per and flat from the device's reported raw maximum
// and flat, following spec.md §3.3(b): per = max/(raw_max*time_to_max_s),
// flat = round(raw_flat*1.1).
func newAxis(spec axisSpec, initDriven float64, rawMaximum, rawFlat int32, now time.Time) *axis {
	return &axis{
		spec:     spec,
		per:      spec.max / (float64(rawMaximum) * spec.timeToMaxS),
		flat:     int32(math.Round(float64(rawFlat) * 1.1)),
		driven:   initDriven,
		lastTime: now,
	}
}

// speed returns the axis's current logical rate of change.
func (a *axis) speed() float64 {
	return float64(a.lastValue) * a.per
}

// handleTick integrates driven forward to now when drive is true
// (spec.md §4.2 "Axis integration"), then clamps to [min, max].
func (a *axis) handleTick(drive bool, now time.Time) {
	if drive {
		dt := now.Sub(a.lastTime)
		if dt > 0 {
			a.driven += a.speed() * dt.Seconds()
			a.driven = clampF(a.driven, a.spec.min, a.spec.max)
		}
	}
	a.lastTime = now
}

// handleEvent integrates up to the event's timestamp, then records the
// new raw sample (quantized to zero inside the deadzone).
func (a *axis) handleEvent(drive bool, now time.Time, raw int32) {
	a.handleTick(drive, now)
	if raw <= a.flat && raw >= -a.flat {
		a.lastValue = 0
	} else {
		a.lastValue = raw
	}
}

// clamp additionally bounds driven into [lo, hi] before reapplying the
// axis's own [min, max] range (spec.md §4.2's "triangular clamp").
func (a *axis) clamp(lo, hi float64) {
	a.driven = clampF(clampF(a.driven, lo, hi), a.spec.min, a.spec.max)
}

// clampF mirrors Rust's `.max(lo).min(hi)` chain: lo is applied first,
// hi second, so a crossed [lo, hi] range resolves to hi rather than lo.
func clampF(v, lo, hi float64) float64 {
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v
}
