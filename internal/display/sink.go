// Package display renders pipeline results in the terminal. The Sink
// interface decouples the pipeline from the concrete renderer so that tests
// can capture updates and the writer fallback can serve non-TTY output.
package display

// Update is one displayed pipeline result. Updates arrive in sequence order;
// gaps are explained by the Skipped field.
type Update struct {
	// Seq is the sequence number of the utterance chunk this update belongs to.
	Seq uint64

	// Transcript is the recognised source-language text. Empty when
	// transcription failed (see Degraded).
	Transcript string

	// Translation is the target-language text. Empty when translation was
	// skipped (same source and target language) or unavailable.
	Translation string

	// Skipped lists sequence numbers of chunks that were discarded by
	// latest-wins coalescing before this one ran.
	Skipped []uint64

	// Degraded marks a transcription failure. The pipeline continues; the
	// update carries an empty transcript.
	Degraded bool

	// TranslationUnavailable marks a translation failure. Transcript is
	// still valid.
	TranslationUnavailable bool
}

// Sink receives pipeline results. Show is called from a single goroutine, in
// arrival order.
type Sink interface {
	Show(Update)
}
