package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"vad":       {"energy"},
	"stt":       {"whisper-native", "openai", "deepgram"},
	"translate": {"opusmt", "anyllm", "openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq", "llamacpp", "llamafile"},
}

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Log.Level != "" && !cfg.Log.Level.IsValid() {
		errs = append(errs, fmt.Errorf("log.level %q is invalid; valid values: debug, info, warn, error", cfg.Log.Level))
	}
	if cfg.Display.Mode != "" && !cfg.Display.Mode.IsValid() {
		errs = append(errs, fmt.Errorf("display.mode %q is invalid; valid values: tui, plain", cfg.Display.Mode))
	}

	if cfg.Capture.SampleRate < 0 {
		errs = append(errs, fmt.Errorf("capture.sample_rate %d must not be negative", cfg.Capture.SampleRate))
	}
	if cfg.Capture.Channels < 0 || cfg.Capture.Channels > 2 {
		errs = append(errs, fmt.Errorf("capture.channels %d is out of range [0, 2]", cfg.Capture.Channels))
	}

	errs = append(errs, validateChunking(cfg.Chunking)...)

	validateProviderName("vad", cfg.Providers.VAD.Name)
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("translate", cfg.Providers.Translate.Name)
	for _, e := range cfg.Providers.STTFallbacks {
		validateProviderName("stt", e.Name)
	}
	for _, e := range cfg.Providers.TranslateFallbacks {
		validateProviderName("translate", e.Name)
	}

	if len(cfg.Providers.STTFallbacks) > 0 && cfg.Providers.STT.Name == "" {
		errs = append(errs, errors.New("providers.stt_fallbacks set without a primary providers.stt"))
	}
	if len(cfg.Providers.TranslateFallbacks) > 0 && cfg.Providers.Translate.Name == "" {
		errs = append(errs, errors.New("providers.translate_fallbacks set without a primary providers.translate"))
	}

	// A missing translator is only a problem for cross-language sessions,
	// and the languages may still come from the interactive setup. Warn, do
	// not fail.
	src, tgt := cfg.Session.SourceLanguage, cfg.Session.TargetLanguage
	if src != "" && tgt != "" && src != tgt && cfg.Providers.Translate.Name == "" {
		slog.Warn("no translate provider configured; only transcripts will be shown",
			"source", src, "target", tgt)
	}

	return errors.Join(errs...)
}

// validateChunking rejects negative or contradictory chunking parameters.
// Zero values mean "use the default" and always pass.
func validateChunking(c ChunkingConfig) []error {
	var errs []error
	for _, f := range []struct {
		name string
		val  Duration
	}{
		{"chunking.silence_threshold", c.SilenceThreshold},
		{"chunking.min_chunk_duration", c.MinChunkDuration},
		{"chunking.max_chunk_duration", c.MaxChunkDuration},
		{"chunking.overlap", c.Overlap},
	} {
		if f.val < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", f.name))
		}
	}
	if c.MinChunkDuration > 0 && c.MaxChunkDuration > 0 && c.MinChunkDuration.Std() > c.MaxChunkDuration.Std() {
		errs = append(errs, fmt.Errorf("chunking.min_chunk_duration %v exceeds max_chunk_duration %v",
			c.MinChunkDuration.Std(), c.MaxChunkDuration.Std()))
	}
	if c.Overlap > 0 && c.MaxChunkDuration > 0 && c.Overlap.Std() >= c.MaxChunkDuration.Std() {
		errs = append(errs, fmt.Errorf("chunking.overlap %v must be shorter than max_chunk_duration %v",
			c.Overlap.Std(), c.MaxChunkDuration.Std()))
	}
	if c.Overlap.Std() > time.Second {
		errs = append(errs, fmt.Errorf("chunking.overlap %v is unreasonably long (max 1s)", c.Overlap.Std()))
	}
	return errs
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
