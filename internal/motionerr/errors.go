// Package motionerr classifies errors from the motion engine and joystick
// integrator into the four kinds spec.md §7 defines, so callers can
// errors.Is/As to decide whether to retry, abort, or fail fast.
package motionerr

import "errors"

var (
	// Init marks GPIO-unavailable, input-device-missing, or
	// malformed-config failures during startup.
	Init = errors.New("init error")
	// RuntimeRecoverable marks transient conditions retried silently,
	// such as a would-block read from the event device.
	RuntimeRecoverable = errors.New("recoverable runtime error")
	// RuntimeFatal marks conditions that abort the owning goroutine and
	// raise stop: event-device I/O error, a GPIO line fault, or
	// time_error exceeding the slowest admissible pulse.
	RuntimeFatal = errors.New("fatal runtime error")
	// Invariant marks a contract violation — negative accel, inverted
	// ends, a send on a closed status channel — that fails fast with no
	// attempt to repair SCB contents.
	Invariant = errors.New("invariant violation")
)
