// Command translive captures microphone audio and shows live transcripts and
// translations in the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"log/slog"

	"github.com/translive/translive/internal/app"
	"github.com/translive/translive/internal/config"
	"github.com/translive/translive/internal/observe"
	"github.com/translive/translive/internal/setup"
	"github.com/translive/translive/pkg/audio"
	malgosource "github.com/translive/translive/pkg/audio/malgo"
)

// Exit codes: 0 clean shutdown, 1 configuration or provider failure,
// 2 capture device failure.
const (
	exitOK     = 0
	exitConfig = 1
	exitDevice = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "translive.yaml", "path to the YAML configuration file")
	noPrompt := flag.Bool("no-prompt", false, "fail instead of asking for missing session settings")
	plain := flag.Bool("plain", false, "line-oriented output instead of the full-screen view")
	listDevices := flag.Bool("list-devices", false, "print capture devices and exit")
	flag.Parse()

	if *listDevices {
		return printDevices()
	}

	// A missing file at the default path is fine; setup asks for the rest.
	cfg, explicit, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "translive: %v\n", err)
		return exitConfig
	}
	if *plain {
		cfg.Display.Mode = config.DisplayPlain
	}
	// Reject an unusable provider section before any interactive setup, so
	// the prompt flow cannot dead-end in provider wiring afterwards.
	if err := requireSTT(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "translive: %v (in %s)\n", err, *configPath)
		return exitConfig
	}

	session := setup.Session{
		Device:         cfg.Capture.Device,
		SourceLanguage: cfg.Session.SourceLanguage,
		TargetLanguage: cfg.Session.TargetLanguage,
	}
	if !session.Complete() {
		if *noPrompt {
			fmt.Fprintln(os.Stderr, "translive: source and target language are required with --no-prompt")
			return exitConfig
		}
		if err := setup.Prompt(&session, malgosource.ListDevices); err != nil {
			fmt.Fprintf(os.Stderr, "translive: %v\n", err)
			return exitConfig
		}
	} else if err := session.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "translive: %v\n", err)
		return exitConfig
	}

	lv := app.SetupLogging(cfg.Log.Level, logWriter(cfg.Display.Mode))
	slog.Info("translive starting",
		"config", *configPath,
		"source", session.SourceLanguage,
		"target", session.TargetLanguage,
		"device", session.Device,
	)
	printIntro(os.Stdout, session)

	if cfg.Metrics.Addr != "" {
		shutdownMetrics, err := observe.InitProvider(context.Background(), observe.ProviderConfig{})
		if err != nil {
			slog.Warn("metrics provider disabled", "err", err)
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdownMetrics(ctx); err != nil {
					slog.Warn("metrics provider shutdown", "err", err)
				}
			}()
		}
	}

	application, err := app.New(cfg, session, app.DefaultRegistry(), app.WithLogLevelVar(lv))
	if err != nil {
		slog.Error("failed to initialise", "err", err)
		fmt.Fprintf(os.Stderr, "translive: %v\n", err)
		return exitConfig
	}

	// Watch an explicitly given config file for edits.
	if explicit {
		watcher, err := config.NewWatcher(*configPath, application.HandleConfigChange)
		if err != nil {
			slog.Warn("config watcher disabled", "err", err)
		} else {
			defer watcher.Stop()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := application.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown error", "err", err)
	}

	switch {
	case runErr == nil:
		return exitOK
	case audio.IsDeviceError(runErr):
		fmt.Fprintf(os.Stderr, "translive: %v\n", runErr)
		return exitDevice
	default:
		fmt.Fprintf(os.Stderr, "translive: %v\n", runErr)
		return exitConfig
	}
}

// loadConfig reads the config file. A missing file at the default path yields
// an empty config; an explicitly requested file must exist. The second return
// reports whether a file was actually loaded.
func loadConfig(path string) (*config.Config, bool, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, true, nil
	}
	if errors.Is(err, os.ErrNotExist) && !wasFlagSet("config") {
		return &config.Config{}, false, nil
	}
	return nil, false, err
}

// requireSTT checks that a transcription provider is configured. Setup only
// prompts for the device and languages, so a config without providers.stt can
// never produce a working session.
func requireSTT(cfg *config.Config) error {
	if cfg.Providers.STT.Name == "" {
		return errors.New("providers.stt.name is required (one of: whisper-native, openai, deepgram)")
	}
	return nil
}

func wasFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// logWriter picks where logs go. The full-screen view owns the terminal, so
// logs are diverted to a file next to the temp dir instead of scribbling over
// the UI.
func logWriter(mode config.DisplayMode) io.Writer {
	if mode == config.DisplayPlain {
		return os.Stderr
	}
	path := filepath.Join(os.TempDir(), "translive.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return io.Discard
	}
	return f
}

// printIntro greets the user before the session starts. The full-screen view
// replaces it once it takes over the terminal; in plain mode it stays as the
// first lines of output.
func printIntro(w io.Writer, s setup.Session) {
	device := s.Device
	if device == "" {
		device = "default device"
	}
	fmt.Fprintf(w, "translive: live speech translation\n")
	fmt.Fprintf(w, "listening on %s, translating %s -> %s\n", device, s.SourceLanguage, s.TargetLanguage)
	fmt.Fprintf(w, "press ctrl+c to stop\n\n")
}

func printDevices() int {
	devices, err := malgosource.ListDevices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "translive: %v\n", err)
		return exitDevice
	}
	for _, d := range devices {
		marker := " "
		if d.Default {
			marker = "*"
		}
		fmt.Printf("%s %s\n", marker, d.Name)
	}
	return exitOK
}
