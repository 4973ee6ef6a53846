// Package app wires the translive subsystems into a running session.
//
// The App struct owns the full lifecycle: New resolves providers from the
// config registry and assembles the pipeline, Run drives capture and
// inference until the context ends or the user quits, and Shutdown tears
// the providers down in order.
//
// For testing, inject doubles via functional options (WithSource, WithSink).
// When an option is not provided, New creates real implementations from the
// config.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/translive/translive/internal/config"
	"github.com/translive/translive/internal/display"
	"github.com/translive/translive/internal/health"
	"github.com/translive/translive/internal/observe"
	"github.com/translive/translive/internal/pipeline"
	"github.com/translive/translive/internal/setup"
	"github.com/translive/translive/pkg/audio"
	malgosource "github.com/translive/translive/pkg/audio/malgo"
	"github.com/translive/translive/pkg/provider/vad"
)

// inferenceFormat is the PCM format chunks are normalised to before they
// reach the providers. Whisper-family models expect 16 kHz mono.
var inferenceFormat = audio.Format{SampleRate: 16000, Channels: 1}

// App owns the session lifetime: providers, pipeline, display, metrics.
type App struct {
	cfg     *config.Config
	session setup.Session

	source  audio.Source
	sink    display.Sink
	tui     *display.TUI
	metrics *observe.Metrics
	coord   *pipeline.Coordinator

	logLevel *slog.LevelVar

	// closers are called in order during Shutdown.
	closers  []func() error
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithSource injects an audio source instead of opening a capture device.
func WithSource(s audio.Source) Option {
	return func(a *App) { a.source = s }
}

// WithSink injects a display sink instead of building one from config.
func WithSink(s display.Sink) Option {
	return func(a *App) { a.sink = s }
}

// WithMetrics injects a metrics recorder.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithLogLevelVar hands the App the level var driving the default logger, so
// config reloads can adjust verbosity live.
func WithLogLevelVar(lv *slog.LevelVar) Option {
	return func(a *App) { a.logLevel = lv }
}

// New assembles a session from config. The session parameter carries the
// device and language pair resolved by interactive setup; it takes precedence
// over the config file where both are set.
func New(cfg *config.Config, session setup.Session, registry *config.Registry, opts ...Option) (*App, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, session: session}
	for _, o := range opts {
		o(a)
	}

	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}

	translating := session.SourceLanguage != session.TargetLanguage

	// VAD session at the inference format, since frames are converted before
	// they reach the accumulator.
	vadEntry := cfg.Providers.VAD
	if vadEntry.Name == "" {
		vadEntry.Name = "energy"
	}
	engine, err := registry.CreateVAD(vadEntry)
	if err != nil {
		return nil, fmt.Errorf("app: vad provider: %w", err)
	}
	vadSession, err := engine.NewSession(vad.Config{
		SampleRate:      inferenceFormat.SampleRate,
		Channels:        inferenceFormat.Channels,
		SpeechThreshold: vadEntry.FloatOption("speech_threshold", 0),
	})
	if err != nil {
		return nil, fmt.Errorf("app: vad session: %w", err)
	}
	a.closers = append(a.closers, vadSession.Close)

	sttProvider, closers, err := buildSTT(registry, cfg.Providers)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closers...)

	translator, closers, err := buildTranslator(registry, cfg.Providers, translating)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closers...)
	if translating && translator == nil {
		return nil, errors.New("app: session translates between languages but no providers.translate is configured")
	}

	if a.source == nil {
		a.source = malgosource.New(malgosource.Config{
			DeviceName: session.Device,
			SampleRate: cfg.Capture.SampleRate,
			Channels:   cfg.Capture.Channels,
			FrameMs:    cfg.Capture.FrameMs,
		})
	}

	if a.sink == nil {
		if cfg.Display.Mode == config.DisplayPlain {
			a.sink = display.NewWriter(os.Stdout)
		} else {
			a.tui = display.NewTUI(display.WithLanguages(session.SourceLanguage, session.TargetLanguage))
			a.sink = a.tui
		}
	}

	accumulator := pipeline.NewAccumulator(pipeline.AccumulatorConfig{
		SilenceThreshold: cfg.Chunking.SilenceThreshold.Std(),
		MinChunkDuration: cfg.Chunking.MinChunkDuration.Std(),
		MaxChunkDuration: cfg.Chunking.MaxChunkDuration.Std(),
		Overlap:          cfg.Chunking.Overlap.Std(),
	}, vadSession)

	coord, err := pipeline.NewCoordinator(pipeline.CoordinatorConfig{
		Source:         a.source,
		Accumulator:    accumulator,
		STT:            sttProvider,
		Translator:     translator,
		Sink:           a.sink,
		SourceLanguage: session.SourceLanguage,
		TargetLanguage: session.TargetLanguage,
		Target:         inferenceFormat,
		Metrics:        a.metrics,
	})
	if err != nil {
		return nil, err
	}
	a.coord = coord

	return a, nil
}

// Run drives the session until the context ends, the user quits the UI, or
// the capture device is lost. A user-initiated quit returns nil; a device
// loss returns the underlying [*audio.DeviceError].
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	if addr := a.cfg.Metrics.Addr; addr != "" {
		probes := health.New(health.StateChecker("pipeline", func() error {
			if s := a.coord.State(); s == pipeline.StateStopped {
				return errors.New("pipeline stopped")
			}
			return nil
		}))
		eg.Go(func() error {
			return observe.ServeMetrics(ctx, addr, probes)
		})
	}

	if a.tui != nil {
		eg.Go(func() error {
			// A user quit ends the whole session.
			defer cancel()
			return a.tui.Run(ctx)
		})
	}

	eg.Go(func() error {
		defer cancel()
		err := a.coord.Run(ctx)
		if a.tui != nil {
			a.tui.Quit()
		}
		return err
	})

	err := eg.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// HandleConfigChange reacts to a config file edit observed by the watcher.
// Log level changes apply immediately; everything else is announced as
// needing a restart.
func (a *App) HandleConfigChange(diff config.ConfigDiff, _ *config.Config) {
	if diff.LogLevelChanged && a.logLevel != nil {
		a.logLevel.Set(slogLevel(diff.NewLogLevel))
		slog.Info("log level changed", "level", diff.NewLogLevel)
	}
	if diff.ChunkingChanged {
		slog.Info("chunking settings changed; they apply to the next session")
	}
	if diff.RequiresRestart() {
		slog.Warn("provider, capture, or language settings changed; restart to apply")
	}
}

// Shutdown tears down providers in order. It respects the context deadline:
// if ctx expires before all closers finish, the rest are skipped and the
// context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}
	})
	return shutdownErr
}

// SetupLogging installs a text slog handler writing to w and returns the
// level var so the watcher can adjust verbosity at runtime.
func SetupLogging(level config.LogLevel, w io.Writer) *slog.LevelVar {
	lv := new(slog.LevelVar)
	lv.Set(slogLevel(level))
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv})))
	return lv
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
