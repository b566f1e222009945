//go:build linux

package hal

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// GpiocdevLines drives the step and direction lines through the Linux
// GPIO character device, following internal workings of
// internal/hal/gpio_gpiocdev.go in the teacher repo: one requested
// gpiocdev.Line per pin, a mutex guarding line lifecycle, AsOutput(0)
// at request time so both pins come up low.
type GpiocdevLines struct {
	mu       sync.Mutex
	stepLine *gpiocdev.Line
	dirLine  *gpiocdev.Line
	polarity Polarity
}

// OpenGpiocdevLines requests the step and direction pins as outputs on
// the named chip (e.g. "gpiochip0"). chip is normally the result of
// DetectChip.
func OpenGpiocdevLines(chip string, stepPin, dirPin int, polarity Polarity) (*GpiocdevLines, error) {
	step, err := gpiocdev.RequestLine(chip, stepPin, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request step pin %d on %s: %w", stepPin, chip, err)
	}
	dir, err := gpiocdev.RequestLine(chip, dirPin, gpiocdev.AsOutput(0))
	if err != nil {
		step.Close()
		return nil, fmt.Errorf("request direction pin %d on %s: %w", dirPin, chip, err)
	}
	return &GpiocdevLines{stepLine: step, dirLine: dir, polarity: polarity}, nil
}

func (g *GpiocdevLines) SetDirection(dir int) error {
	high := dir == 1
	if g.polarity == Dir0High {
		high = !high
	}
	v := 0
	if high {
		v = 1
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.dirLine.SetValue(v); err != nil {
		return fmt.Errorf("set direction line: %w", err)
	}
	return nil
}

func (g *GpiocdevLines) SetStep(high bool) error {
	v := 0
	if high {
		v = 1
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.stepLine.SetValue(v); err != nil {
		return fmt.Errorf("set step line: %w", err)
	}
	return nil
}

func (g *GpiocdevLines) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	stepErr := g.stepLine.Close()
	dirErr := g.dirLine.Close()
	if stepErr != nil {
		return stepErr
	}
	return dirErr
}

// DetectChip finds the GPIO character device chip name by reading the
// /sys/bus/gpio/devices/<chip>/label of gpiochip0 and gpiochip4 only,
// returning the first whose label names the RP1 (Pi 5) or BCM2835
// (Pi 4 and earlier) controller. Falls back to "gpiochip0".
//
// Grounded on internal/hal/board_detection.go's GPIOChipName.
func DetectChip() string {
	for _, chip := range []string{"gpiochip0", "gpiochip4"} {
		data, err := os.ReadFile(fmt.Sprintf("/sys/bus/gpio/devices/%s/label", chip))
		if err != nil {
			continue
		}
		label := strings.TrimSpace(string(data))
		if strings.Contains(label, "pinctrl-rp1") || strings.Contains(label, "pinctrl-bcm2") {
			return chip
		}
	}
	return "gpiochip0"
}
