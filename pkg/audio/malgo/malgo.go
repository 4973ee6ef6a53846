// Package malgo provides a microphone-backed audio.Source using the miniaudio
// bindings (github.com/gen2brain/malgo).
//
// Capture runs on miniaudio's own callback thread; frames are handed to the
// pipeline through a buffered channel. When the consumer falls behind, the
// oldest buffered frame is dropped so the capture callback never blocks.
package malgo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lib "github.com/gen2brain/malgo"

	"github.com/translive/translive/pkg/audio"
)

const (
	defaultSampleRate = 16000
	defaultChannels   = 1
	defaultFrameMs    = 20

	// frameBufferDepth bounds how much captured audio can queue up before the
	// oldest frame is dropped. 64 frames of 20 ms is ~1.3 s of slack.
	frameBufferDepth = 64
)

// Config holds the capture parameters for a Source.
type Config struct {
	// DeviceName selects the capture device by its enumerated name.
	// Empty selects the system default device.
	DeviceName string

	// SampleRate in Hz. Defaults to 16000 (STT-optimised mono).
	SampleRate int

	// Channels is the captured channel count. Defaults to 1.
	Channels int

	// FrameMs is the duration of each emitted frame in milliseconds.
	// Defaults to 20.
	FrameMs int
}

// Source implements [audio.Source] backed by a miniaudio capture device.
type Source struct {
	cfg Config

	mu            sync.Mutex
	mctx          *lib.AllocatedContext
	device        *lib.Device
	frames        chan audio.Frame
	started       bool
	stopRequested bool
	framesClosed  bool

	// devErr records an asynchronous device failure observed by the capture
	// callbacks; surfaced by NextFrame after the frame channel drains.
	devErr error

	captured time.Duration
	dropWarn sync.Once
}

// Compile-time assertion that Source satisfies audio.Source.
var _ audio.Source = (*Source)(nil)

// New creates a Source with the given capture configuration. The device is
// not acquired until Start.
func New(cfg Config) *Source {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = defaultSampleRate
	}
	if cfg.Channels <= 0 {
		cfg.Channels = defaultChannels
	}
	if cfg.FrameMs <= 0 {
		cfg.FrameMs = defaultFrameMs
	}
	return &Source{
		cfg:    cfg,
		frames: make(chan audio.Frame, frameBufferDepth),
	}
}

// Start acquires the capture device and begins continuous capture.
func (s *Source) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("malgo: context already cancelled: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("malgo: source already started")
	}

	mctx, err := lib.InitContext(nil, lib.ContextConfig{}, func(message string) {
		slog.Debug("miniaudio", "message", message)
	})
	if err != nil {
		return &audio.DeviceError{Device: s.cfg.DeviceName, Err: fmt.Errorf("init context: %w", err)}
	}

	devCfg := lib.DefaultDeviceConfig(lib.Capture)
	devCfg.Capture.Format = lib.FormatS16
	devCfg.Capture.Channels = uint32(s.cfg.Channels)
	devCfg.SampleRate = uint32(s.cfg.SampleRate)
	devCfg.PeriodSizeInMilliseconds = uint32(s.cfg.FrameMs)

	if s.cfg.DeviceName != "" {
		id, err := findDeviceID(mctx, s.cfg.DeviceName)
		if err != nil {
			_ = mctx.Uninit()
			mctx.Free()
			return err
		}
		devCfg.Capture.DeviceID = id.Pointer()
	}

	callbacks := lib.DeviceCallbacks{
		Data: s.onData,
		Stop: s.onStop,
	}
	device, err := lib.InitDevice(mctx.Context, devCfg, callbacks)
	if err != nil {
		_ = mctx.Uninit()
		mctx.Free()
		return &audio.DeviceError{Device: s.cfg.DeviceName, Err: fmt.Errorf("init device: %w", err)}
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		_ = mctx.Uninit()
		mctx.Free()
		return &audio.DeviceError{Device: s.cfg.DeviceName, Err: fmt.Errorf("start device: %w", err)}
	}

	s.mctx = mctx
	s.device = device
	s.started = true
	slog.Info("audio capture started",
		"device", deviceLabel(s.cfg.DeviceName),
		"sample_rate", s.cfg.SampleRate,
		"channels", s.cfg.Channels,
		"frame_ms", s.cfg.FrameMs,
	)
	return nil
}

// onData runs on the miniaudio capture thread. It must never block: when the
// frame buffer is full the oldest frame is discarded.
func (s *Source) onData(_, in []byte, frameCount uint32) {
	if frameCount == 0 || len(in) == 0 {
		return
	}
	data := make([]byte, len(in))
	copy(data, in)

	frame := audio.Frame{
		Data:       data,
		SampleRate: s.cfg.SampleRate,
		Channels:   s.cfg.Channels,
		Timestamp:  s.captured,
	}
	s.captured += frame.Duration()

	select {
	case s.frames <- frame:
	default:
		s.dropWarn.Do(func() {
			slog.Warn("audio capture buffer full, dropping oldest frames")
		})
		select {
		case <-s.frames:
		default:
		}
		select {
		case s.frames <- frame:
		default:
		}
	}
}

// onStop runs when miniaudio stops the device. A stop that was not requested
// via Stop means the device disappeared mid-capture.
func (s *Source) onStop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopRequested {
		return
	}
	s.devErr = &audio.DeviceError{
		Device: deviceLabel(s.cfg.DeviceName),
		Err:    errors.New("capture device stopped unexpectedly"),
	}
	s.closeFramesLocked()
}

// NextFrame blocks until a captured frame is available. It returns a
// [*audio.DeviceError] if the device was lost, or [audio.ErrSourceClosed]
// after Stop.
func (s *Source) NextFrame() (audio.Frame, error) {
	frame, ok := <-s.frames
	if !ok {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.devErr != nil {
			return audio.Frame{}, s.devErr
		}
		return audio.Frame{}, audio.ErrSourceClosed
	}
	return frame, nil
}

// Stop halts capture and releases the device and miniaudio context. Safe to
// call multiple times.
func (s *Source) Stop() error {
	// Uninit blocks until the device callbacks have finished, and onStop takes
	// s.mu, so the lock must not be held across Uninit.
	s.mu.Lock()
	if s.stopRequested {
		s.mu.Unlock()
		return nil
	}
	s.stopRequested = true
	device, mctx := s.device, s.mctx
	s.device, s.mctx = nil, nil
	s.mu.Unlock()

	if device != nil {
		device.Uninit()
	}
	if mctx != nil {
		_ = mctx.Uninit()
		mctx.Free()
	}

	s.mu.Lock()
	s.closeFramesLocked()
	s.mu.Unlock()
	slog.Info("audio capture stopped", "device", deviceLabel(s.cfg.DeviceName))
	return nil
}

// closeFramesLocked closes the frame channel exactly once. Caller holds s.mu.
func (s *Source) closeFramesLocked() {
	if !s.framesClosed {
		close(s.frames)
		s.framesClosed = true
	}
}

func deviceLabel(name string) string {
	if name == "" {
		return "(default)"
	}
	return name
}
