//go:build linux

package joystick

import "golang.org/x/sys/unix"

// pollReadable waits up to timeoutMs for fd to become readable,
// following spec.md §5's "readiness of the OS input-event file
// descriptor (edge-triggered, non-blocking)" contract via the raw
// poll(2) wrapper golang.org/x/sys/unix exposes.
func pollReadable(fd int, timeoutMs int) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return false, nil
		}
		return false, err
	}
	return n > 0, nil
}
