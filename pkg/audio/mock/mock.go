// Package mock provides test doubles for the audio package interfaces.
//
// Source plays back a scripted frame sequence, optionally failing mid-stream
// with a DeviceError, so pipeline tests can run without a capture device.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/translive/translive/pkg/audio"
)

// Source is a scripted implementation of [audio.Source].
//
// NextFrame returns the configured frames in order. Once they are exhausted it
// returns Err when set, otherwise [audio.ErrSourceClosed]. All methods are
// safe for concurrent use.
type Source struct {
	mu   sync.Mutex
	next int

	// Frames is the scripted frame sequence returned by NextFrame.
	Frames []audio.Frame

	// Err, if non-nil, is returned by NextFrame once Frames is exhausted.
	// Use a [*audio.DeviceError] to simulate a device loss mid-session.
	Err error

	// StartErr, if non-nil, is returned by Start.
	StartErr error

	// Delay, when positive, is slept before each frame is returned,
	// simulating the capture tick.
	Delay time.Duration

	// StartCalls and StopCalls count invocations.
	StartCalls int
	StopCalls  int

	stopped bool
}

// Start records the call and returns StartErr.
func (s *Source) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StartCalls++
	return s.StartErr
}

// NextFrame returns the next scripted frame, or the configured terminal error.
func (s *Source) NextFrame() (audio.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Delay > 0 && s.next < len(s.Frames) {
		time.Sleep(s.Delay)
	}
	if s.stopped {
		return audio.Frame{}, audio.ErrSourceClosed
	}
	if s.next < len(s.Frames) {
		f := s.Frames[s.next]
		s.next++
		return f, nil
	}
	if s.Err != nil {
		return audio.Frame{}, s.Err
	}
	return audio.Frame{}, audio.ErrSourceClosed
}

// Stop records the call. Subsequent NextFrame calls return ErrSourceClosed.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.StopCalls++
	s.stopped = true
	return nil
}

// Compile-time assertion that Source satisfies audio.Source.
var _ audio.Source = (*Source)(nil)
