// Package hal is the hardware abstraction layer for the two GPIO output
// lines the motion engine owns: the step-pulse line and the direction
// line. It follows the provider/backend split used throughout this
// pack's hardware-facing code, cut down to the two pins this system
// actually drives.
package hal

import "fmt"

// Polarity fixes, at configuration time, which direction-GPIO level
// corresponds to dir == 0. spec.md §9 flags this as an open question the
// source code answered differently across revisions; here it is an
// explicit build/config choice instead of an assumption baked into the
// code.
type Polarity int

const (
	// Dir0Low means dir == 0 drives the direction line low.
	Dir0Low Polarity = iota
	// Dir0High means dir == 0 drives the direction line high.
	Dir0High
)

// ParsePolarity parses the two accepted configuration spellings.
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "dir0_low", "":
		return Dir0Low, nil
	case "dir0_high":
		return Dir0High, nil
	default:
		return Dir0Low, fmt.Errorf("unknown dir_polarity %q (want dir0_low or dir0_high)", s)
	}
}

// StepperLines is the interface the motion engine drives: one step
// line, one direction line, nothing else. Implementations own both
// pins exclusively for their lifetime (spec.md §5: GPIO pins owned
// exclusively by the motion engine).
type StepperLines interface {
	// SetDirection sets the direction-line level for dir (0 or 1),
	// honoring the configured Polarity.
	SetDirection(dir int) error
	// SetStep sets the step-line level directly. The motion engine is
	// responsible for the high/low timing (PULSE_DURATION); this is a
	// raw digital write, mirroring the teacher's GPIOProvider.DigitalWrite.
	SetStep(high bool) error
	// Close releases both lines.
	Close() error
}
