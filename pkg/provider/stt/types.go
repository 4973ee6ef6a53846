package stt

import "time"

// bitsPerSample is fixed at 16 for the signed little-endian PCM audio that
// all providers accept.
const bitsPerSample = 16

// Audio is one utterance of raw PCM audio handed to a provider.
type Audio struct {
	// PCM is 16-bit signed little-endian sample data.
	PCM []byte

	// SampleRate in Hz.
	SampleRate int

	// Channels is the interleaved channel count. Most providers require mono;
	// implementations may downmix internally.
	Channels int
}

// Duration returns the playback duration of the audio, or 0 when the format
// fields are unset.
func (a Audio) Duration() time.Duration {
	if a.SampleRate <= 0 || a.Channels <= 0 {
		return 0
	}
	bytesPerSec := a.SampleRate * a.Channels * (bitsPerSample / 8)
	return time.Duration(len(a.PCM)) * time.Second / time.Duration(bytesPerSec)
}

// Result is the transcript of one utterance.
type Result struct {
	// Text is the transcribed speech content. Empty when the provider heard
	// nothing intelligible.
	Text string

	// Confidence is the overall confidence score (0.0-1.0). Zero when the
	// provider does not report confidence.
	Confidence float64
}
