package display

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Writer is a line-oriented Sink for non-interactive output, such as a pipe
// or a redirected log. Each update becomes a transcript line followed by an
// indented translation line when one is present.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter wraps w as a display sink.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Show implements Sink.
func (d *Writer) Show(u Update) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var b strings.Builder
	if len(u.Skipped) > 0 {
		fmt.Fprintf(&b, "[skipped %s]\n", joinSeqs(u.Skipped))
	}

	switch {
	case u.Degraded:
		fmt.Fprintf(&b, "[%d] (transcription unavailable)\n", u.Seq)
	default:
		fmt.Fprintf(&b, "[%d] %s\n", u.Seq, u.Transcript)
	}

	switch {
	case u.TranslationUnavailable:
		fmt.Fprintf(&b, "    → (translation unavailable)\n")
	case u.Translation != "":
		fmt.Fprintf(&b, "    → %s\n", u.Translation)
	}

	io.WriteString(d.w, b.String())
}

func joinSeqs(seqs []uint64) string {
	parts := make([]string, len(seqs))
	for i, s := range seqs {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return strings.Join(parts, ", ")
}

var _ Sink = (*Writer)(nil)
