//go:build !linux

package motion

import "fmt"

// raiseRealtimePriority is a no-op outside Linux; there is no portable
// SCHED_FIFO equivalent worth reaching for here.
func raiseRealtimePriority() error {
	return fmt.Errorf("real-time scheduling not supported on this platform")
}
