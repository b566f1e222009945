//go:build linux

package motion

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// schedFIFO is SCHED_FIFO from <sched.h>; golang.org/x/sys/unix does not
// wrap sched_setscheduler directly, so this goes through the raw
// syscall, the same escape hatch the pack reaches for whenever a
// syscall has no typed wrapper (periph-extra's device backends do the
// same for ioctls without a typed helper).
const schedFIFO = 1

type schedParam struct {
	priority int32
}

// raiseRealtimePriority attempts to move the calling thread to
// SCHED_FIFO at a modest priority. Failure (commonly: missing
// CAP_SYS_NICE) is not fatal — spec.md §5 notes the engine remains
// functionally correct without real-time priority, merely lower in top
// speed.
func raiseRealtimePriority() error {
	param := schedParam{priority: 10}
	_, _, errno := unix.Syscall(unix.SYS_SCHED_SETSCHEDULER, 0, uintptr(schedFIFO), uintptr(unsafe.Pointer(&param)))
	if errno != 0 {
		return fmt.Errorf("sched_setscheduler: %w", errno)
	}
	return nil
}
