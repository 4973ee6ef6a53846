package vad

// Event represents a voice activity detection result for a single audio frame.
type Event struct {
	// Type is the detection result.
	Type EventType

	// Probability is the speech probability score (0.0-1.0).
	Probability float64
}

// EventType enumerates VAD detection states.
type EventType int

const (
	// Silence indicates no speech detected. It is the zero value.
	Silence EventType = iota

	// SpeechStart indicates speech has just begun.
	SpeechStart

	// SpeechContinue indicates ongoing speech.
	SpeechContinue

	// SpeechEnd indicates speech has just ended.
	SpeechEnd
)

// IsSpeech reports whether t classifies the frame as containing speech.
func (t EventType) IsSpeech() bool {
	return t == SpeechStart || t == SpeechContinue
}
