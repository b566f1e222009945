//go:build !linux

package hal

import "fmt"

// GpiocdevLines is a stub for non-Linux platforms, following
// internal/hal/gpio_gpiocdev_stub.go in the teacher repo.
type GpiocdevLines struct{}

func OpenGpiocdevLines(chip string, stepPin, dirPin int, polarity Polarity) (*GpiocdevLines, error) {
	return nil, fmt.Errorf("GPIO not supported on this platform")
}

func (g *GpiocdevLines) SetDirection(dir int) error { return fmt.Errorf("GPIO not supported on this platform") }
func (g *GpiocdevLines) SetStep(high bool) error    { return fmt.Errorf("GPIO not supported on this platform") }
func (g *GpiocdevLines) Close() error               { return nil }

// DetectChip always returns the conventional default off Linux.
func DetectChip() string { return "gpiochip0" }
