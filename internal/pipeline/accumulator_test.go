package pipeline_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/translive/translive/internal/pipeline"
	"github.com/translive/translive/pkg/audio"
	"github.com/translive/translive/pkg/provider/vad"
	vadmock "github.com/translive/translive/pkg/provider/vad/mock"
)

const (
	testRate   = 16000
	frameMs    = 100
	frameBytes = testRate * 2 * frameMs / 1000 // 3200 bytes of 16 kHz mono
)

// frameAt builds one 100 ms mono frame filled with the given byte value.
func frameAt(ts time.Duration, fill byte) audio.Frame {
	data := make([]byte, frameBytes)
	for i := range data {
		data[i] = fill
	}
	return audio.Frame{Data: data, SampleRate: testRate, Channels: 1, Timestamp: ts}
}

// events builds a VAD script of n events of the same type.
func events(typ vad.EventType, n int) []vad.Event {
	out := make([]vad.Event, n)
	for i := range out {
		out[i] = vad.Event{Type: typ}
	}
	return out
}

// pushFrames feeds n frames starting at start, collecting emitted chunks.
func pushFrames(t *testing.T, acc *pipeline.Accumulator, start time.Duration, n int, fill byte) []pipeline.Chunk {
	t.Helper()
	var chunks []pipeline.Chunk
	for i := range n {
		ts := start + time.Duration(i)*frameMs*time.Millisecond
		chunk, err := acc.Push(frameAt(ts, fill))
		if err != nil {
			t.Fatalf("Push: %v", err)
		}
		if chunk != nil {
			chunks = append(chunks, *chunk)
		}
	}
	return chunks
}

func TestSilenceOnlyStreamEmitsNothing(t *testing.T) {
	sess := &vadmock.Session{EventResult: vad.Event{Type: vad.Silence}}
	acc := pipeline.NewAccumulator(pipeline.AccumulatorConfig{}, sess)

	chunks := pushFrames(t, acc, 0, 20, 0) // 2 s of silence
	if len(chunks) != 0 {
		t.Fatalf("got %d chunks, want 0", len(chunks))
	}
	if acc.Flush() != nil {
		t.Error("Flush after silence-only stream should return nil")
	}
}

func TestUtteranceEmittedOnSilenceThreshold(t *testing.T) {
	script := append(events(vad.SpeechStart, 1), events(vad.SpeechContinue, 9)...)
	script = append(script, events(vad.Silence, 10)...)
	sess := &vadmock.Session{Events: script}
	acc := pipeline.NewAccumulator(pipeline.AccumulatorConfig{}, sess)

	chunks := pushFrames(t, acc, 0, 10, 0xAA) // 1 s of speech
	if len(chunks) != 0 {
		t.Fatalf("chunk emitted before silence threshold")
	}

	chunks = pushFrames(t, acc, time.Second, 10, 0x00)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
	c := chunks[0]
	if c.Seq != 1 {
		t.Errorf("seq: got %d, want 1", c.Seq)
	}
	// 1 s speech + 0.6 s buffered silence.
	if got, want := c.Duration(), 1600*time.Millisecond; got != want {
		t.Errorf("duration: got %v, want %v", got, want)
	}
	if c.Start != 0 {
		t.Errorf("start: got %v, want 0", c.Start)
	}
	if sess.ResetCallCount == 0 {
		t.Error("VAD session should be reset after an utterance ends")
	}
}

func TestMaxDurationForcesEmitWithOverlap(t *testing.T) {
	sess := &vadmock.Session{EventResult: vad.Event{Type: vad.SpeechContinue, Probability: 0.9}}
	acc := pipeline.NewAccumulator(pipeline.AccumulatorConfig{}, sess)

	chunks := pushFrames(t, acc, 0, 100, 0xBB) // 10 s of continuous speech
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks mid-stream, want 1", len(chunks))
	}
	first := chunks[0]
	if got, want := first.Duration(), 8*time.Second; got != want {
		t.Errorf("first chunk duration: got %v, want %v", got, want)
	}

	tail := acc.Flush()
	if tail == nil {
		t.Fatal("Flush should emit the in-progress utterance")
	}
	if tail.Seq != 2 {
		t.Errorf("seq: got %d, want 2", tail.Seq)
	}
	// Second chunk starts 0.1 s before the first ended.
	if got, want := tail.Start, 7900*time.Millisecond; got != want {
		t.Errorf("second chunk start: got %v, want %v", got, want)
	}
	// 2 s of remaining speech plus the 0.1 s overlap.
	if got, want := tail.Duration(), 2100*time.Millisecond; got != want {
		t.Errorf("second chunk duration: got %v, want %v", got, want)
	}
	// The overlap region is the tail of the first chunk.
	overlapBytes := frameBytes / frameMs * 100 // 0.1 s
	if !bytes.Equal(tail.PCM[:overlapBytes], first.PCM[len(first.PCM)-overlapBytes:]) {
		t.Error("second chunk does not begin with the first chunk's tail")
	}
}

func TestShortBlipDiscarded(t *testing.T) {
	script := append(events(vad.SpeechStart, 1), events(vad.Silence, 2)...)
	sess := &vadmock.Session{Events: script}
	acc := pipeline.NewAccumulator(pipeline.AccumulatorConfig{
		SilenceThreshold: 200 * time.Millisecond,
		MinChunkDuration: 500 * time.Millisecond,
	}, sess)

	chunks := pushFrames(t, acc, 0, 3, 0xCC) // 0.1 s blip + 0.2 s silence
	if len(chunks) != 0 {
		t.Fatalf("noise blip should be discarded, got %d chunks", len(chunks))
	}
	if acc.Flush() != nil {
		t.Error("Flush should return nil after a discarded blip")
	}
	if sess.ResetCallCount != 1 {
		t.Errorf("reset count: got %d, want 1", sess.ResetCallCount)
	}
}

func TestSilenceEndedChunkCarriesNoOverlap(t *testing.T) {
	script := append(events(vad.SpeechContinue, 10), events(vad.Silence, 6)...)
	script = append(script, events(vad.SpeechContinue, 10)...)
	script = append(script, events(vad.Silence, 6)...)
	sess := &vadmock.Session{Events: script}
	acc := pipeline.NewAccumulator(pipeline.AccumulatorConfig{}, sess)

	first := pushFrames(t, acc, 0, 10, 0xAA)
	first = append(first, pushFrames(t, acc, time.Second, 6, 0x00)...)
	if len(first) != 1 {
		t.Fatalf("got %d chunks, want 1", len(first))
	}

	second := pushFrames(t, acc, 1600*time.Millisecond, 10, 0x11)
	second = append(second, pushFrames(t, acc, 2600*time.Millisecond, 6, 0x00)...)
	if len(second) != 1 {
		t.Fatalf("got %d chunks, want 1", len(second))
	}

	// A silence-ended utterance carries nothing into the next one: the second
	// chunk starts at its own first speech frame and contains none of the
	// first chunk's tail.
	c := second[0]
	if got, want := c.Start, 1600*time.Millisecond; got != want {
		t.Errorf("start: got %v, want %v", got, want)
	}
	if got, want := c.Duration(), 1600*time.Millisecond; got != want {
		t.Errorf("duration: got %v, want %v", got, want)
	}
	if c.PCM[0] != 0x11 {
		t.Errorf("second chunk begins with 0x%02x, want its own speech audio", c.PCM[0])
	}
}

func TestSequenceNumbersMonotonic(t *testing.T) {
	// Two utterances separated by silence.
	script := append(events(vad.SpeechContinue, 10), events(vad.Silence, 6)...)
	script = append(script, events(vad.SpeechContinue, 10)...)
	script = append(script, events(vad.Silence, 6)...)
	sess := &vadmock.Session{Events: script}
	acc := pipeline.NewAccumulator(pipeline.AccumulatorConfig{}, sess)

	chunks := pushFrames(t, acc, 0, 32, 0xDD)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if chunks[0].Seq != 1 || chunks[1].Seq != 2 {
		t.Errorf("seqs: got %d, %d, want 1, 2", chunks[0].Seq, chunks[1].Seq)
	}
	if chunks[1].Start <= chunks[0].Start {
		t.Errorf("second chunk should start after the first")
	}
}

func TestFlushBelowMinimumDropped(t *testing.T) {
	sess := &vadmock.Session{EventResult: vad.Event{Type: vad.SpeechContinue}}
	acc := pipeline.NewAccumulator(pipeline.AccumulatorConfig{}, sess)

	pushFrames(t, acc, 0, 2, 0xEE) // 0.2 s, below the 0.3 s minimum
	if acc.Flush() != nil {
		t.Error("Flush below the minimum duration should drop the buffer")
	}
}
