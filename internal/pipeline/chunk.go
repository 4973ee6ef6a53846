// Package pipeline turns a continuous audio stream into discrete inference
// jobs and coordinates their transcription, translation, and display.
//
// The pipeline has two lines of control. The capture line reads frames from
// the audio source, accumulates them into utterance chunks, and submits the
// chunks to a single-slot queue. The inference line takes one chunk at a
// time, runs the speech-to-text and translation collaborators, and pushes
// the result to the display sink. The queue guarantees that capture is never
// blocked by inference and that at most one inference job runs at a time.
package pipeline

import "time"

// Chunk is one utterance candidate: a variable-length concatenation of
// captured frames tagged with a monotonically increasing sequence number.
// A chunk is owned exclusively by whichever stage currently holds it.
type Chunk struct {
	// Seq is the sequence number, monotonic for the session starting at 1.
	Seq uint64

	// PCM is 16-bit signed little-endian sample data.
	PCM []byte

	// SampleRate in Hz.
	SampleRate int

	// Channels is the interleaved channel count.
	Channels int

	// Start is the capture timestamp of the first sample, relative to
	// session start.
	Start time.Duration
}

// Duration returns the playback duration of the chunk.
func (c Chunk) Duration() time.Duration {
	return pcmDuration(len(c.PCM), c.SampleRate, c.Channels)
}

// pcmDuration converts a byte count of 16-bit PCM to a duration.
func pcmDuration(bytes, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	bytesPerSec := sampleRate * channels * 2
	return time.Duration(bytes) * time.Second / time.Duration(bytesPerSec)
}
