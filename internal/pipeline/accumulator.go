package pipeline

import (
	"fmt"
	"time"

	"github.com/translive/translive/pkg/audio"
	"github.com/translive/translive/pkg/provider/vad"
)

// Accumulator defaults. Tuned for conversational speech at utterance
// granularity.
const (
	defaultSilenceThreshold = 600 * time.Millisecond
	defaultMinChunk         = 300 * time.Millisecond
	defaultMaxChunk         = 8 * time.Second
	defaultOverlap          = 100 * time.Millisecond
)

// AccumulatorConfig holds the utterance segmentation parameters.
type AccumulatorConfig struct {
	// SilenceThreshold is the trailing silence duration that ends an
	// utterance. Defaults to 600 ms.
	SilenceThreshold time.Duration

	// MinChunkDuration is the minimum buffered duration for a chunk to be
	// emitted on silence. Shorter buffers are discarded as noise. Defaults
	// to 300 ms.
	MinChunkDuration time.Duration

	// MaxChunkDuration bounds worst-case latency: the buffer is force-emitted
	// at this size even mid-speech. Defaults to 8 s.
	MaxChunkDuration time.Duration

	// Overlap is the tail of each emitted chunk carried into the next one to
	// avoid clipping word boundaries. Defaults to 100 ms.
	Overlap time.Duration
}

func (c *AccumulatorConfig) applyDefaults() {
	if c.SilenceThreshold <= 0 {
		c.SilenceThreshold = defaultSilenceThreshold
	}
	if c.MinChunkDuration <= 0 {
		c.MinChunkDuration = defaultMinChunk
	}
	if c.MaxChunkDuration <= 0 {
		c.MaxChunkDuration = defaultMaxChunk
	}
	if c.Overlap <= 0 {
		c.Overlap = defaultOverlap
	}
}

// Accumulator converts a stream of fixed-duration frames into utterance
// chunks. Silence classification is delegated to a VAD session. Leading
// silence is never buffered, so a silence-only stream emits no chunks.
//
// Not safe for concurrent use; the capture line drives it from a single
// goroutine.
type Accumulator struct {
	cfg     AccumulatorConfig
	session vad.SessionHandle

	seq uint64

	buf         []byte
	bufStart    time.Duration
	sampleRate  int
	channels    int
	inUtterance bool
	silence     time.Duration

	carry    []byte
	carryDur time.Duration
}

// NewAccumulator creates an Accumulator that classifies frames with the
// given VAD session. Zero config fields take the documented defaults.
func NewAccumulator(cfg AccumulatorConfig, session vad.SessionHandle) *Accumulator {
	cfg.applyDefaults()
	return &Accumulator{cfg: cfg, session: session}
}

// Push appends one frame and evaluates the end-of-utterance predicate.
// It returns a non-nil Chunk when the predicate fired.
func (a *Accumulator) Push(frame audio.Frame) (*Chunk, error) {
	ev, err := a.session.ProcessFrame(frame.Data)
	if err != nil {
		return nil, fmt.Errorf("pipeline: classify frame: %w", err)
	}

	if !a.inUtterance {
		if !ev.Type.IsSpeech() {
			// Leading silence is discarded.
			return nil, nil
		}
		a.beginUtterance(frame)
		return nil, nil
	}

	a.buf = append(a.buf, frame.Data...)
	a.sampleRate = frame.SampleRate
	a.channels = frame.Channels

	if ev.Type.IsSpeech() {
		a.silence = 0
	} else {
		a.silence += frame.Duration()
	}

	buffered := pcmDuration(len(a.buf), a.sampleRate, a.channels)
	switch {
	case buffered >= a.cfg.MaxChunkDuration:
		// Forced emit mid-speech; the utterance continues from the overlap.
		return a.emit(true), nil
	case a.silence >= a.cfg.SilenceThreshold:
		if buffered >= a.cfg.MinChunkDuration {
			return a.emit(false), nil
		}
		// Noise blip shorter than the minimum: drop it.
		a.resetBuffer()
		a.session.Reset()
		return nil, nil
	}
	return nil, nil
}

// Flush emits whatever is buffered, if it meets the minimum duration. Called
// on shutdown so trailing speech is not lost.
func (a *Accumulator) Flush() *Chunk {
	if !a.inUtterance {
		return nil
	}
	buffered := pcmDuration(len(a.buf), a.sampleRate, a.channels)
	if buffered < a.cfg.MinChunkDuration {
		a.resetBuffer()
		return nil
	}
	return a.emit(false)
}

// beginUtterance starts a new buffer from the first speech frame.
func (a *Accumulator) beginUtterance(frame audio.Frame) {
	a.inUtterance = true
	a.silence = 0
	a.sampleRate = frame.SampleRate
	a.channels = frame.Channels
	a.buf = append([]byte(nil), frame.Data...)
	a.bufStart = frame.Timestamp
}

// emit cuts the current buffer into a chunk. When continued is true the
// utterance is still in progress (max-duration emit): the overlap tail is
// carried over and buffering resumes from it immediately. A silence-ended
// chunk carries nothing, so distinct utterances never share audio.
func (a *Accumulator) emit(continued bool) *Chunk {
	a.seq++
	chunk := &Chunk{
		Seq:        a.seq,
		PCM:        a.buf,
		SampleRate: a.sampleRate,
		Channels:   a.channels,
		Start:      a.bufStart,
	}

	if continued {
		a.saveCarry(chunk)
		a.buf = append([]byte(nil), a.carry...)
		a.bufStart = chunk.Start + chunk.Duration() - a.carryDur
		a.silence = 0
	} else {
		a.resetBuffer()
		a.session.Reset()
	}
	return chunk
}

// saveCarry copies the overlap tail of the chunk for the next buffer.
func (a *Accumulator) saveCarry(chunk *Chunk) {
	overlapBytes := int(int64(a.cfg.Overlap) * int64(a.sampleRate*a.channels*2) / int64(time.Second))
	overlapBytes -= overlapBytes % 2
	if overlapBytes > len(chunk.PCM) {
		overlapBytes = len(chunk.PCM)
	}
	a.carry = append([]byte(nil), chunk.PCM[len(chunk.PCM)-overlapBytes:]...)
	a.carryDur = pcmDuration(overlapBytes, a.sampleRate, a.channels)
}

// resetBuffer clears all utterance state, including the carried overlap.
func (a *Accumulator) resetBuffer() {
	a.buf = nil
	a.inUtterance = false
	a.silence = 0
	a.carry = nil
	a.carryDur = 0
}
