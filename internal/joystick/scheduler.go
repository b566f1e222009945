package joystick

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ciphergoth/fmachine/internal/inputdevice"
	"github.com/ciphergoth/fmachine/internal/motion"
	"github.com/ciphergoth/fmachine/internal/motionerr"
)

const (
	controlTick      = 50 * time.Millisecond
	telemetryTick    = 1 * time.Second
	readinessTimeout = 50
)

// Run is the JSI's single-threaded cooperative scheduler (spec.md §5):
// it multiplexes OS input-event readiness, the 50ms control tick, the 1s
// telemetry tick, and the ME status queue in one select, the Go shape of
// original_source/src/evloop.rs's tokio::select!. Readiness of the input
// device's file descriptor is produced by a dedicated goroutine blocked
// in poll(2) (pollReadable), the closest Go analogue to the Rust
// implementation's AsyncFd::readable().
func Run(ctx context.Context, js *JoyState, src inputdevice.Source, status <-chan motion.StatusMessage, logger *zap.Logger) error {
	controlTicker := time.NewTicker(controlTick)
	defer controlTicker.Stop()
	telemetryTicker := time.NewTicker(telemetryTick)
	defer telemetryTicker.Stop()

	ready := make(chan struct{}, 1)
	watchErr := make(chan error, 1)
	go watchReadiness(ctx, src.Fd(), ready, watchErr)

	logger.Info("entering joystick event loop")
	for {
		select {
		case <-ctx.Done():
			logger.Debug("joystick loop stopping")
			return nil

		case err := <-watchErr:
			return fmt.Errorf("%w: poll event device: %v", motionerr.RuntimeFatal, err)

		case <-ready:
			ev, err := src.ReadEvent()
			if err != nil {
				if errors.Is(err, inputdevice.ErrWouldBlock) {
					continue
				}
				return fmt.Errorf("%w: read event device: %v", motionerr.RuntimeFatal, err)
			}
			js.HandleEvent(ev, time.Now())

		case now := <-controlTicker.C:
			js.HandleTick(now)

		case <-telemetryTicker.C:
			js.Report()

		case msg, ok := <-status:
			if !ok {
				return fmt.Errorf("%w: status queue closed", motionerr.Invariant)
			}
			js.HandleStatus(msg)
		}
	}
}

// watchReadiness loops pollReadable(fd), signaling on ready whenever the
// device has data and pushing any real poll error to errCh. When fd < 0
// (the test mock, which is driven directly and has no real descriptor)
// it instead ticks ready every millisecond so mock-backed tests still
// drain their scripted event queue promptly.
func watchReadiness(ctx context.Context, fd int, ready chan<- struct{}, errCh chan<- error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if fd < 0 {
			time.Sleep(time.Millisecond)
		} else {
			ok, err := pollReadable(fd, readinessTimeout)
			if err != nil {
				select {
				case errCh <- err:
				case <-ctx.Done():
				}
				return
			}
			if !ok {
				continue
			}
		}

		select {
		case ready <- struct{}{}:
		case <-ctx.Done():
			return
		}
	}
}
