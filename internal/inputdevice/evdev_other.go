//go:build !linux

package inputdevice

import "fmt"

// EvdevSource is unavailable outside Linux; there is no portable
// evdev-equivalent worth reaching for here.
type EvdevSource struct{}

func Open(path string) (*EvdevSource, error) {
	return nil, fmt.Errorf("input event devices not supported on this platform")
}

func (s *EvdevSource) AbsInfo(code AbsCode) (AbsInfo, error) {
	return AbsInfo{}, fmt.Errorf("input event devices not supported on this platform")
}

func (s *EvdevSource) ReadEvent() (Event, error) {
	return Event{}, fmt.Errorf("input event devices not supported on this platform")
}

func (s *EvdevSource) Fd() int { return -1 }

func (s *EvdevSource) Close() error { return nil }
