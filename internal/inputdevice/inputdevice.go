// Package inputdevice abstracts the single OS absolute-axis/button event
// stream the joystick state integrator reads (spec.md §6's "Input event
// device"). It is deliberately thin: spec.md places the raw read of the
// event device out of scope, specified only at this interface.
package inputdevice

import "errors"

// EventType mirrors the Linux input-event-codes EV_* family this system
// consumes.
type EventType uint16

const (
	EvKey EventType = 0x01
	EvAbs EventType = 0x03
)

// AbsCode identifies one of the absolute axes spec.md §6 requires.
type AbsCode uint16

const (
	AbsX    AbsCode = 0x00
	AbsY    AbsCode = 0x01
	AbsRX   AbsCode = 0x03
	AbsRY   AbsCode = 0x04
	AbsRZ   AbsCode = 0x05
	AbsHat0X AbsCode = 0x10
)

// KeyCode identifies one of the buttons spec.md §6 requires.
type KeyCode uint16

const (
	BtnThumbR KeyCode = 0x13e
	BtnTR     KeyCode = 0x137
)

// Event is one (type, code, value) sample off the device, with the
// kernel-supplied microsecond timestamp spec.md §6 calls for.
type Event struct {
	Type      EventType
	Code      uint16
	Value     int32
	TimestampUs int64
}

// AbsInfo is the device-reported calibration for one absolute axis,
// read once at startup (spec.md §3.3's "device-derived calibration").
type AbsInfo struct {
	Minimum int32
	Maximum int32
	Flat    int32
	Fuzz    int32
}

// ErrWouldBlock is returned by ReadEvent when no event is currently
// ready on a non-blocking device (spec.md §5's "edge-triggered,
// non-blocking" read, §7's Runtime-Recoverable class).
var ErrWouldBlock = errors.New("inputdevice: would block")

// Source is the interface the joystick state integrator programs
// against; it is satisfied by the Linux evdev-backed implementation,
// the no-op stub on other platforms, and a scripted mock for tests.
type Source interface {
	// AbsInfo returns the device's calibration for one absolute axis.
	AbsInfo(code AbsCode) (AbsInfo, error)
	// ReadEvent returns the next queued event, or ErrWouldBlock if none
	// is ready. Never blocks.
	ReadEvent() (Event, error)
	// Fd returns the underlying file descriptor, for the JSI scheduler
	// to multiplex with its periodic tickers.
	Fd() int
	Close() error
}
