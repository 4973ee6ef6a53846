package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/translive/translive/internal/display"
	"github.com/translive/translive/internal/observe"
	"github.com/translive/translive/pkg/audio"
	"github.com/translive/translive/pkg/provider/stt"
	"github.com/translive/translive/pkg/provider/translate"
)

// State is the coordinator's observable lifecycle state.
type State int32

const (
	StateIdle State = iota
	StateCapturing
	StateTranscribing
	StateTranslating
	StateDisplaying
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateTranscribing:
		return "transcribing"
	case StateTranslating:
		return "translating"
	case StateDisplaying:
		return "displaying"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// CoordinatorConfig wires the collaborators and session languages.
type CoordinatorConfig struct {
	// Source delivers captured frames. The coordinator calls Start and Stop.
	Source audio.Source

	// Accumulator segments frames into utterance chunks.
	Accumulator *Accumulator

	// STT transcribes one chunk at a time.
	STT stt.Provider

	// Translator translates transcripts. Ignored entirely when
	// SourceLanguage equals TargetLanguage.
	Translator translate.Provider

	// Sink receives results in arrival order.
	Sink display.Sink

	// SourceLanguage and TargetLanguage are BCP-47 tags for the session.
	SourceLanguage string
	TargetLanguage string

	// Target is the audio format chunks are normalised to before
	// accumulation. Zero means frames pass through unconverted.
	Target audio.Format

	// Metrics records stage latencies and counters. Nil disables recording.
	Metrics *observe.Metrics
}

// Coordinator runs the two lines of control that connect capture to display.
//
// The capture line reads frames, accumulates chunks, and submits them to the
// single-slot queue without ever blocking on inference. The inference line
// drains the queue one job at a time through the STT and translation
// collaborators and pushes each result to the sink.
//
// Only a device failure unwinds Run with an error; inference failures
// degrade the affected result and the session continues.
type Coordinator struct {
	cfg   CoordinatorConfig
	queue *Queue
	state atomic.Int32
}

// NewCoordinator creates a Coordinator. Source, Accumulator, STT, and Sink
// are required.
func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if cfg.Source == nil {
		return nil, errors.New("pipeline: Source is required")
	}
	if cfg.Accumulator == nil {
		return nil, errors.New("pipeline: Accumulator is required")
	}
	if cfg.STT == nil {
		return nil, errors.New("pipeline: STT is required")
	}
	if cfg.Sink == nil {
		return nil, errors.New("pipeline: Sink is required")
	}
	if cfg.Translator == nil && cfg.SourceLanguage != cfg.TargetLanguage {
		return nil, errors.New("pipeline: Translator is required for differing languages")
	}
	return &Coordinator{cfg: cfg, queue: NewQueue()}, nil
}

// State returns the coordinator's current state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

func (c *Coordinator) setState(s State) {
	c.state.Store(int32(s))
}

// translating reports whether the translation collaborator participates in
// this session. When source and target language match it is skipped
// entirely, never invoked as an identity call.
func (c *Coordinator) translating() bool {
	return c.cfg.Translator != nil && c.cfg.SourceLanguage != c.cfg.TargetLanguage
}

// Run starts capture and processes the stream until the source ends, the
// context is cancelled, or the capture device fails. A device failure is
// returned as a [*audio.DeviceError]; a clean end of stream returns nil.
func (c *Coordinator) Run(ctx context.Context) error {
	if err := c.cfg.Source.Start(ctx); err != nil {
		c.setState(StateStopped)
		return fmt.Errorf("pipeline: start source: %w", err)
	}
	c.setState(StateCapturing)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.captureLine(gctx) })
	g.Go(func() error { return c.inferenceLine(gctx) })

	err := g.Wait()
	c.setState(StateStopped)
	return err
}

// captureLine reads frames until the source ends, feeding the accumulator
// and submitting completed chunks. It owns queue shutdown.
func (c *Coordinator) captureLine(ctx context.Context) error {
	defer c.queue.Close()

	stopSource := func() {
		if err := c.cfg.Source.Stop(); err != nil {
			slog.Warn("audio source stop failed", "error", err)
		}
	}

	converter := &audio.FormatConverter{Target: c.cfg.Target}
	convert := func(f audio.Frame) audio.Frame {
		if c.cfg.Target.SampleRate <= 0 {
			return f
		}
		return converter.Convert(f)
	}

	for {
		if err := ctx.Err(); err != nil {
			stopSource()
			return err
		}

		frame, err := c.cfg.Source.NextFrame()
		if err != nil {
			if errors.Is(err, audio.ErrSourceClosed) {
				c.flushTail()
				return nil
			}
			if audio.IsDeviceError(err) {
				slog.Error("capture device lost", "error", err)
				stopSource()
				return err
			}
			stopSource()
			return fmt.Errorf("pipeline: read frame: %w", err)
		}

		chunk, err := c.cfg.Accumulator.Push(convert(frame))
		if err != nil {
			stopSource()
			return err
		}
		if chunk != nil {
			c.submit(ctx, *chunk)
		}
	}
}

// flushTail emits and submits whatever speech was buffered when the source
// ended, so the last utterance is not lost.
func (c *Coordinator) flushTail() {
	if chunk := c.cfg.Accumulator.Flush(); chunk != nil {
		c.submit(context.Background(), *chunk)
	}
}

func (c *Coordinator) submit(ctx context.Context, chunk Chunk) {
	c.cfg.Metrics.RecordChunk(ctx)
	if err := c.queue.Submit(chunk); err != nil {
		slog.Debug("chunk dropped, queue closed", "seq", chunk.Seq)
	}
}

// inferenceLine drains the queue one job at a time. It returns nil when the
// queue closes; an inference failure never unwinds the line.
func (c *Coordinator) inferenceLine(ctx context.Context) error {
	for {
		job, err := c.queue.Take(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) {
				return nil
			}
			return err
		}

		c.cfg.Metrics.JobStarted(ctx)
		c.cfg.Metrics.RecordSkipped(ctx, len(job.Skipped))

		update := c.process(ctx, job)

		c.setState(StateDisplaying)
		c.cfg.Sink.Show(update)

		c.queue.Complete()
		c.cfg.Metrics.JobFinished(ctx)
		c.setState(StateCapturing)
	}
}

// process runs one job through transcription and, when the session
// languages differ, translation. Failures degrade the result instead of
// propagating.
func (c *Coordinator) process(ctx context.Context, job Job) display.Update {
	update := display.Update{
		Seq:     job.Chunk.Seq,
		Skipped: job.Skipped,
	}

	c.setState(StateTranscribing)
	sttStart := time.Now()
	result, err := c.cfg.STT.Transcribe(ctx, stt.Audio{
		PCM:        job.Chunk.PCM,
		SampleRate: job.Chunk.SampleRate,
		Channels:   job.Chunk.Channels,
	}, c.cfg.SourceLanguage)
	if err != nil {
		c.cfg.Metrics.RecordSTT(ctx, time.Since(sttStart), "error")
		c.cfg.Metrics.RecordDegraded(ctx, "stt")
		slog.Warn("transcription failed, continuing degraded",
			"seq", job.Chunk.Seq, "error", err)
		update.Degraded = true
		return update
	}
	c.cfg.Metrics.RecordSTT(ctx, time.Since(sttStart), "ok")
	update.Transcript = result.Text

	if !c.translating() {
		// Same-language session: the transcript passes through unchanged.
		update.Translation = result.Text
		return update
	}
	if result.Text == "" {
		return update
	}

	c.setState(StateTranslating)
	trStart := time.Now()
	translated, err := c.cfg.Translator.Translate(ctx, result.Text,
		c.cfg.SourceLanguage, c.cfg.TargetLanguage)
	if err != nil {
		c.cfg.Metrics.RecordTranslate(ctx, time.Since(trStart), "error")
		c.cfg.Metrics.RecordDegraded(ctx, "translate")
		slog.Warn("translation failed, showing transcript only",
			"seq", job.Chunk.Seq, "error", err)
		update.TranslationUnavailable = true
		return update
	}
	c.cfg.Metrics.RecordTranslate(ctx, time.Since(trStart), "ok")
	update.Translation = translated
	return update
}
