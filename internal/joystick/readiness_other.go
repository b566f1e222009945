//go:build !linux

package joystick

import "time"

// pollReadable has no portable poll(2) equivalent outside Linux; it
// simply sleeps out the timeout so callers degrade to cooperative
// polling instead of busy-looping.
func pollReadable(fd int, timeoutMs int) (bool, error) {
	time.Sleep(time.Duration(timeoutMs) * time.Millisecond)
	return false, nil
}
