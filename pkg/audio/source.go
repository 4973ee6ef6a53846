package audio

import (
	"context"
	"errors"
	"fmt"
)

// ErrSourceClosed is returned by [Source.NextFrame] once the source has been
// stopped and its internal frame buffer is drained.
var ErrSourceClosed = errors.New("audio: source closed")

// DeviceError reports that the capture device failed or disappeared
// mid-session. It is fatal for the pipeline: the coordinator terminates the
// session rather than attempting a silent reconnect.
type DeviceError struct {
	// Device is the identifier or name of the failed device.
	Device string

	// Err is the underlying platform error.
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio: device %q: %v", e.Device, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// IsDeviceError reports whether err is (or wraps) a [*DeviceError].
func IsDeviceError(err error) bool {
	var de *DeviceError
	return errors.As(err, &de)
}

// Source wraps a capture device and produces a continuous sequence of
// fixed-size audio frames.
//
// The contract is scoped acquisition: Start acquires the device, Stop releases
// it on every exit path. Implementations must release the device even when
// capture fails mid-session.
type Source interface {
	// Start begins continuous capture. It returns an error if the device
	// cannot be acquired. Start must be called exactly once before NextFrame.
	Start(ctx context.Context) error

	// NextFrame blocks until a frame is available or the source is stopped.
	// It returns [ErrSourceClosed] after Stop, or a [*DeviceError] when the
	// device fails mid-capture.
	NextFrame() (Frame, error)

	// Stop halts capture and releases the device. Calling Stop more than once
	// is safe and returns nil.
	Stop() error
}
