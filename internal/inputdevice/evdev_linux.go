//go:build linux

package inputdevice

import (
	"errors"
	"fmt"

	"github.com/viamrobotics/evdev"
	"golang.org/x/sys/unix"
)

// EvdevSource is the Linux Source backed by /dev/input/eventN, grounded
// on github.com/viamrobotics/evdev (the pack's Linux joystick/gamepad
// reader, via viamrobotics-rdk's go.mod).
type EvdevSource struct {
	dev *evdev.Evdev
	fd  int
}

// Open opens path and switches its file descriptor to non-blocking
// mode, following spec.md §5's "edge-triggered, non-blocking" contract
// via the golang.org/x/sys/unix O_NONBLOCK fcntl flag.
func Open(path string) (*EvdevSource, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event device %s: %w", path, err)
	}
	fd := int(dev.File().Fd())
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFL, 0)
	if err != nil {
		dev.Close()
		return nil, fmt.Errorf("fcntl getfl %s: %w", path, err)
	}
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFL, flags|unix.O_NONBLOCK); err != nil {
		dev.Close()
		return nil, fmt.Errorf("fcntl setfl nonblock %s: %w", path, err)
	}
	return &EvdevSource{dev: dev, fd: fd}, nil
}

func (s *EvdevSource) AbsInfo(code AbsCode) (AbsInfo, error) {
	info, ok := s.dev.AbsoluteAxes()[evdev.AbsoluteType(code)]
	if !ok {
		return AbsInfo{}, fmt.Errorf("abs_info failed for code %d", code)
	}
	return AbsInfo{
		Minimum: int32(info.Minimum),
		Maximum: int32(info.Maximum),
		Flat:    int32(info.Flat),
		Fuzz:    int32(info.Fuzz),
	}, nil
}

func (s *EvdevSource) ReadEvent() (Event, error) {
	ev, err := s.dev.ReadOne()
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return Event{}, ErrWouldBlock
		}
		return Event{}, fmt.Errorf("read event device: %w", err)
	}
	return Event{
		Type:        EventType(ev.Type),
		Code:        ev.Code,
		Value:       ev.Value,
		TimestampUs: ev.Time.UnixMicro(),
	}, nil
}

func (s *EvdevSource) Fd() int { return s.fd }

func (s *EvdevSource) Close() error { return s.dev.Close() }
