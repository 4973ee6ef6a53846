// Package stt defines the Provider interface for speech-to-text backends.
//
// An STT provider wraps a transcription engine (a local whisper.cpp model,
// the OpenAI transcription API, or Deepgram) behind a uniform batch
// interface: one utterance of PCM audio in, one transcript out. Utterance
// segmentation happens upstream, so providers never see an unbounded stream
// and need no internal silence detection.
//
// Implementations must be safe for concurrent use; the pipeline issues at
// most one Transcribe call at a time, but fallback chains and tests may not.
package stt

import "context"

// Provider is the abstraction over any STT backend.
type Provider interface {
	// Transcribe converts one utterance of audio to text. language is the
	// BCP-47 tag of the spoken language (e.g., "en", "de"); an empty string
	// lets the provider auto-detect where supported.
	//
	// Transcribe must honour ctx cancellation. A transcription failure is
	// recoverable for the caller; implementations return a wrapped error and
	// leave the provider usable for subsequent calls.
	Transcribe(ctx context.Context, audio Audio, language string) (Result, error)
}
