package audio

import "time"

// Frame represents a single fixed-duration slice of captured audio. Frames are
// the atomic unit of transport between the capture device and the chunk
// accumulator: produced once per capture tick, consumed downstream, then
// discarded. A Frame is immutable once captured.
type Frame struct {
	// Data is raw 16-bit little-endian signed PCM.
	Data []byte

	// SampleRate in Hz (e.g., 16000 for STT input).
	SampleRate int

	// Channels: 1 for mono, 2 for stereo. The pipeline normalises to mono.
	Channels int

	// Timestamp marks when this frame was captured, relative to stream start.
	Timestamp time.Duration
}

// Duration returns the play time of the frame's PCM data. Returns zero when
// the format fields are unset.
func (f Frame) Duration() time.Duration {
	if f.SampleRate <= 0 || f.Channels <= 0 {
		return 0
	}
	samples := len(f.Data) / (2 * f.Channels)
	return time.Duration(samples) * time.Second / time.Duration(f.SampleRate)
}

// Device describes an audio input device available for capture.
type Device struct {
	// ID is the platform-specific device identifier.
	ID string

	// Name is the human-readable device name.
	Name string

	// Default reports whether this is the system default capture device.
	Default bool
}
