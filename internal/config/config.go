// Package config provides the configuration schema, loader, provider
// registry, and file watcher for the translive session.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// DisplayMode selects the terminal renderer.
type DisplayMode string

const (
	// DisplayTUI renders the full-screen two-column view.
	DisplayTUI DisplayMode = "tui"

	// DisplayPlain writes line-oriented output, suitable for pipes.
	DisplayPlain DisplayMode = "plain"
)

// IsValid reports whether m is a recognised display mode.
func (m DisplayMode) IsValid() bool {
	return m == DisplayTUI || m == DisplayPlain
}

// Duration wraps time.Duration so YAML values can be written as "600ms".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration back as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration structure for translive.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Capture   CaptureConfig   `yaml:"capture"`
	Session   SessionConfig   `yaml:"session"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Providers ProvidersConfig `yaml:"providers"`
	Log       LogConfig       `yaml:"log"`
	Display   DisplayConfig   `yaml:"display"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// CaptureConfig holds microphone capture settings.
type CaptureConfig struct {
	// Device selects the capture device by its enumerated name.
	// Empty means the system default device.
	Device string `yaml:"device"`

	// SampleRate in Hz. 0 means the capture backend's default (16000).
	SampleRate int `yaml:"sample_rate"`

	// Channels is the captured channel count. 0 means mono.
	Channels int `yaml:"channels"`

	// FrameMs is the duration of each captured frame in milliseconds.
	// 0 means the backend default.
	FrameMs int `yaml:"frame_ms"`
}

// SessionConfig holds the language pair for the session.
type SessionConfig struct {
	// SourceLanguage is the ISO 639-1 code of the spoken language.
	SourceLanguage string `yaml:"source_language"`

	// TargetLanguage is the ISO 639-1 code to translate into. When equal to
	// SourceLanguage, translation is skipped and only transcripts are shown.
	TargetLanguage string `yaml:"target_language"`
}

// ChunkingConfig tunes how speech is cut into inference chunks. Zero values
// fall back to the pipeline defaults.
type ChunkingConfig struct {
	// SilenceThreshold is how much continuous silence ends an utterance.
	SilenceThreshold Duration `yaml:"silence_threshold"`

	// MinChunkDuration is the shortest chunk worth transcribing.
	MinChunkDuration Duration `yaml:"min_chunk_duration"`

	// MaxChunkDuration force-emits a chunk even while speech continues.
	MaxChunkDuration Duration `yaml:"max_chunk_duration"`

	// Overlap is replayed at the start of a follow-on chunk after a
	// forced emit, so words cut at the boundary are not lost.
	Overlap Duration `yaml:"overlap"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each entry selects a named provider registered in the
// [Registry]. Fallback lists are tried in order when the primary fails.
type ProvidersConfig struct {
	VAD                ProviderEntry   `yaml:"vad"`
	STT                ProviderEntry   `yaml:"stt"`
	STTFallbacks       []ProviderEntry `yaml:"stt_fallbacks"`
	Translate          ProviderEntry   `yaml:"translate"`
	TranslateFallbacks []ProviderEntry `yaml:"translate_fallbacks"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation
	// (e.g., "whisper-native", "deepgram", "anyllm").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	// Leave empty to use the provider's built-in default.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider
	// (e.g., "whisper-1", "nova-2", a GGML model path).
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above.
	Options map[string]any `yaml:"options"`
}

// StringOption returns the named option as a string, or def when absent.
func (e ProviderEntry) StringOption(key, def string) string {
	if v, ok := e.Options[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// FloatOption returns the named option as a float64, or def when absent.
func (e ProviderEntry) FloatOption(key string, def float64) float64 {
	switch v := e.Options[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level controls verbosity. Empty means info.
	Level LogLevel `yaml:"level"`
}

// DisplayConfig selects how results are rendered.
type DisplayConfig struct {
	// Mode is "tui" (default) or "plain".
	Mode DisplayMode `yaml:"mode"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics (e.g., ":9090").
	// Empty disables the endpoint.
	Addr string `yaml:"addr"`
}
