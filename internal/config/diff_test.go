package config_test

import (
	"testing"

	"github.com/translive/translive/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		Session: config.SessionConfig{SourceLanguage: "en", TargetLanguage: "de"},
		Log:     config.LogConfig{Level: config.LogInfo},
		Providers: config.ProvidersConfig{
			STT: config.ProviderEntry{Name: "whisper-native", Model: "/models/base.bin"},
		},
	}
}

func TestDiffNoChanges(t *testing.T) {
	old, new := baseConfig(), baseConfig()
	d := config.Diff(old, new)
	if d.Any() {
		t.Errorf("identical configs produced a diff: %+v", d)
	}
}

func TestDiffLogLevel(t *testing.T) {
	old, new := baseConfig(), baseConfig()
	new.Log.Level = config.LogDebug

	d := config.Diff(old, new)
	if !d.LogLevelChanged || d.NewLogLevel != config.LogDebug {
		t.Errorf("log level diff: %+v", d)
	}
	if d.RequiresRestart() {
		t.Error("log level change should not require a restart")
	}
}

func TestDiffChunking(t *testing.T) {
	old, new := baseConfig(), baseConfig()
	new.Chunking.SilenceThreshold = config.Duration(800_000_000)

	d := config.Diff(old, new)
	if !d.ChunkingChanged {
		t.Error("chunking change not detected")
	}
	if d.RequiresRestart() {
		t.Error("chunking change should not require a restart")
	}
}

func TestDiffProviderRequiresRestart(t *testing.T) {
	old, new := baseConfig(), baseConfig()
	new.Providers.STT.Model = "/models/large.bin"

	d := config.Diff(old, new)
	if !d.ProvidersChanged {
		t.Error("provider change not detected")
	}
	if !d.RequiresRestart() {
		t.Error("provider change must require a restart")
	}
}

func TestDiffProviderOptions(t *testing.T) {
	old, new := baseConfig(), baseConfig()
	old.Providers.VAD = config.ProviderEntry{Name: "energy", Options: map[string]any{"threshold": 0.01}}
	new.Providers.VAD = config.ProviderEntry{Name: "energy", Options: map[string]any{"threshold": 0.05}}

	if d := config.Diff(old, new); !d.ProvidersChanged {
		t.Error("option-only provider change not detected")
	}
}

func TestDiffFallbackListLength(t *testing.T) {
	old, new := baseConfig(), baseConfig()
	new.Providers.STTFallbacks = []config.ProviderEntry{{Name: "openai"}}

	if d := config.Diff(old, new); !d.ProvidersChanged {
		t.Error("added fallback not detected")
	}
}

func TestDiffSessionLanguages(t *testing.T) {
	old, new := baseConfig(), baseConfig()
	new.Session.TargetLanguage = "fr"

	d := config.Diff(old, new)
	if !d.SessionChanged || !d.RequiresRestart() {
		t.Errorf("session change: %+v", d)
	}
}
