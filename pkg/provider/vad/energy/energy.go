// Package energy implements a root-mean-square energy detector behind the
// vad.Engine interface.
//
// It classifies a frame as speech when its smoothed RMS energy rises above a
// threshold expressed as a fraction of the int16 full-scale value. An energy
// detector is cruder than a model-based VAD but has zero startup cost and no
// native dependencies, which makes it the default engine.
package energy

import (
	"errors"
	"fmt"
	"math"

	"github.com/translive/translive/pkg/provider/vad"
)

const (
	// defaultThreshold is the normalised RMS level above which a frame is
	// considered speech. 300/32768 corresponds to near-silence on typical
	// microphone input.
	defaultThreshold = 300.0 / 32768.0

	// smoothing is the exponential smoothing factor applied to successive
	// probability estimates. Light smoothing suppresses single-frame spikes.
	smoothing = 0.3
)

// Compile-time assertion that Engine satisfies vad.Engine.
var _ vad.Engine = (*Engine)(nil)

// Engine implements [vad.Engine] using RMS energy detection.
type Engine struct {
	threshold float64
}

// Option is a functional option for configuring an Engine.
type Option func(*Engine)

// WithThreshold overrides the normalised RMS speech threshold (0.0-1.0).
func WithThreshold(t float64) Option {
	return func(e *Engine) { e.threshold = t }
}

// New creates an energy-based VAD engine.
func New(opts ...Option) *Engine {
	e := &Engine{threshold: defaultThreshold}
	for _, o := range opts {
		o(e)
	}
	return e
}

// NewSession creates a new detection session. cfg.SpeechThreshold, when set,
// overrides the engine-level threshold.
func (e *Engine) NewSession(cfg vad.Config) (vad.SessionHandle, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("energy: sample rate %d is invalid", cfg.SampleRate)
	}
	threshold := e.threshold
	if cfg.SpeechThreshold > 0 {
		if cfg.SpeechThreshold > 1 {
			return nil, fmt.Errorf("energy: speech threshold %.2f is out of range [0, 1]", cfg.SpeechThreshold)
		}
		threshold = cfg.SpeechThreshold
	}
	return &session{threshold: threshold}, nil
}

// session holds per-stream smoothing state. Not safe for concurrent use; the
// accumulator drives it from a single goroutine.
type session struct {
	threshold float64
	smoothed  float64
	seen      bool
	inSpeech  bool
	closed    bool
}

// ProcessFrame classifies one frame of 16-bit little-endian PCM.
func (s *session) ProcessFrame(frame []byte) (vad.Event, error) {
	if s.closed {
		return vad.Event{}, errors.New("energy: session is closed")
	}
	if len(frame)%2 != 0 {
		return vad.Event{}, fmt.Errorf("energy: frame length %d is not int16-aligned", len(frame))
	}
	if len(frame) == 0 {
		return vad.Event{Type: vad.Silence}, nil
	}

	probability := rms(frame)
	if s.seen {
		probability = smoothing*probability + (1-smoothing)*s.smoothed
	}
	s.smoothed = probability
	s.seen = true

	speech := probability >= s.threshold
	var typ vad.EventType
	switch {
	case speech && !s.inSpeech:
		typ = vad.SpeechStart
	case speech:
		typ = vad.SpeechContinue
	case s.inSpeech:
		typ = vad.SpeechEnd
	default:
		typ = vad.Silence
	}
	s.inSpeech = speech

	return vad.Event{Type: typ, Probability: probability}, nil
}

// Reset clears the smoothing history and speech state.
func (s *session) Reset() {
	s.smoothed = 0
	s.seen = false
	s.inSpeech = false
}

// Close marks the session closed. Subsequent ProcessFrame calls error.
func (s *session) Close() error {
	s.closed = true
	return nil
}

// rms computes the root-mean-square energy of 16-bit LE PCM, normalised to
// [0, 1].
func rms(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := range n {
		sample := float64(int16(pcm[i*2]) | int16(pcm[i*2+1])<<8)
		sum += sample * sample
	}
	return math.Sqrt(sum/float64(n)) / 32768.0
}
