package config_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/translive/translive/internal/config"
)

const sampleYAML = `
capture:
  device: "USB Microphone"
  sample_rate: 16000
  channels: 1
session:
  source_language: en
  target_language: de
chunking:
  silence_threshold: 600ms
  min_chunk_duration: 300ms
  max_chunk_duration: 8s
  overlap: 100ms
providers:
  vad:
    name: energy
    options:
      threshold: 0.02
  stt:
    name: whisper-native
    model: /models/ggml-base.bin
  stt_fallbacks:
    - name: openai
      api_key: sk-test
  translate:
    name: anyllm
    model: gpt-4o-mini
    api_key: sk-test
log:
  level: debug
display:
  mode: plain
metrics:
  addr: ":9090"
`

func TestLoadFromReader(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Capture.Device != "USB Microphone" {
		t.Errorf("capture.device: got %q", cfg.Capture.Device)
	}
	if cfg.Session.SourceLanguage != "en" || cfg.Session.TargetLanguage != "de" {
		t.Errorf("session languages: got %s -> %s", cfg.Session.SourceLanguage, cfg.Session.TargetLanguage)
	}
	if got := cfg.Chunking.SilenceThreshold.Std(); got != 600*time.Millisecond {
		t.Errorf("silence_threshold: got %v", got)
	}
	if got := cfg.Chunking.MaxChunkDuration.Std(); got != 8*time.Second {
		t.Errorf("max_chunk_duration: got %v", got)
	}
	if cfg.Providers.STT.Name != "whisper-native" {
		t.Errorf("stt provider: got %q", cfg.Providers.STT.Name)
	}
	if len(cfg.Providers.STTFallbacks) != 1 || cfg.Providers.STTFallbacks[0].Name != "openai" {
		t.Errorf("stt fallbacks: got %+v", cfg.Providers.STTFallbacks)
	}
	if got := cfg.Providers.VAD.FloatOption("threshold", 0); got != 0.02 {
		t.Errorf("vad threshold option: got %v", got)
	}
	if cfg.Log.Level != config.LogDebug {
		t.Errorf("log level: got %q", cfg.Log.Level)
	}
	if cfg.Display.Mode != config.DisplayPlain {
		t.Errorf("display mode: got %q", cfg.Display.Mode)
	}
}

func TestLoadFromReaderUnknownField(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader("sesion:\n  source_language: en\n"))
	if err == nil {
		t.Fatal("typoed top-level key accepted")
	}
}

func TestLoadFromReaderEmptyConfig(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("empty config should load with defaults: %v", err)
	}
	if cfg.Chunking.SilenceThreshold != 0 {
		t.Errorf("expected zero-value chunking, got %+v", cfg.Chunking)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			"bad log level",
			"log:\n  level: verbose\n",
			"log.level",
		},
		{
			"bad display mode",
			"display:\n  mode: gui\n",
			"display.mode",
		},
		{
			"min above max",
			"chunking:\n  min_chunk_duration: 9s\n  max_chunk_duration: 8s\n",
			"min_chunk_duration",
		},
		{
			"overlap too long",
			"chunking:\n  overlap: 2s\n",
			"overlap",
		},
		{
			"fallbacks without primary",
			"providers:\n  stt_fallbacks:\n    - name: openai\n",
			"stt_fallbacks",
		},
		{
			"too many channels",
			"capture:\n  channels: 6\n",
			"capture.channels",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadFromReader(strings.NewReader(tt.yaml))
			if err == nil {
				t.Fatal("invalid config accepted")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	bad := "log:\n  level: loud\ndisplay:\n  mode: gui\n"
	_, err := config.LoadFromReader(strings.NewReader(bad))
	if err == nil {
		t.Fatal("invalid config accepted")
	}
	for _, want := range []string{"log.level", "display.mode"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("joined error missing %q: %v", want, err)
		}
	}
}

func TestDurationUnmarshalRejectsGarbage(t *testing.T) {
	_, err := config.LoadFromReader(strings.NewReader("chunking:\n  overlap: fast\n"))
	if err == nil {
		t.Fatal("non-duration value accepted")
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/translive.yaml")
	if err == nil {
		t.Fatal("missing file accepted")
	}
	if !strings.Contains(err.Error(), "open") {
		t.Errorf("error should mention open: %v", err)
	}
}

func TestRegistryUnregisteredProvider(t *testing.T) {
	r := config.NewRegistry()
	entry := config.ProviderEntry{Name: "energy"}

	if _, err := r.CreateVAD(entry); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Fatalf("CreateVAD: got %v, want ErrProviderNotRegistered", err)
	}
	if _, err := r.CreateSTT(entry); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Fatalf("CreateSTT: got %v, want ErrProviderNotRegistered", err)
	}
	if _, err := r.CreateTranslate(entry); !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Fatalf("CreateTranslate: got %v, want ErrProviderNotRegistered", err)
	}
}
