package app

import (
	"errors"
	"fmt"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/translive/translive/internal/config"
	"github.com/translive/translive/internal/resilience"
	"github.com/translive/translive/pkg/provider/stt"
	"github.com/translive/translive/pkg/provider/stt/deepgram"
	sttopenai "github.com/translive/translive/pkg/provider/stt/openai"
	"github.com/translive/translive/pkg/provider/stt/whisper"
	"github.com/translive/translive/pkg/provider/translate"
	"github.com/translive/translive/pkg/provider/translate/anyllm"
	"github.com/translive/translive/pkg/provider/translate/opusmt"
	"github.com/translive/translive/pkg/provider/vad"
	"github.com/translive/translive/pkg/provider/vad/energy"
)

// anyllmBackends are the LLM backends exposed as translation providers, both
// under their own names and via the generic "anyllm" entry.
var anyllmBackends = []string{
	"openai", "anthropic", "gemini", "ollama", "deepseek",
	"mistral", "groq", "llamacpp", "llamafile",
}

// DefaultRegistry returns a [config.Registry] with every built-in provider
// registered. main calls this once; tests build smaller registries by hand.
func DefaultRegistry() *config.Registry {
	r := config.NewRegistry()

	r.RegisterVAD("energy", func(e config.ProviderEntry) (vad.Engine, error) {
		var opts []energy.Option
		if t := e.FloatOption("threshold", 0); t > 0 {
			opts = append(opts, energy.WithThreshold(t))
		}
		return energy.New(opts...), nil
	})

	r.RegisterSTT("whisper-native", func(e config.ProviderEntry) (stt.Provider, error) {
		if e.Model == "" {
			return nil, errors.New("app: whisper-native requires a GGML model path in providers.stt.model")
		}
		var opts []whisper.Option
		if lang := e.StringOption("language", ""); lang != "" {
			opts = append(opts, whisper.WithLanguage(lang))
		}
		return whisper.New(e.Model, opts...)
	})
	r.RegisterSTT("openai", func(e config.ProviderEntry) (stt.Provider, error) {
		var opts []sttopenai.Option
		if e.Model != "" {
			opts = append(opts, sttopenai.WithModel(e.Model))
		}
		if e.BaseURL != "" {
			opts = append(opts, sttopenai.WithBaseURL(e.BaseURL))
		}
		return sttopenai.New(e.APIKey, opts...)
	})
	r.RegisterSTT("deepgram", func(e config.ProviderEntry) (stt.Provider, error) {
		var opts []deepgram.Option
		if e.Model != "" {
			opts = append(opts, deepgram.WithModel(e.Model))
		}
		return deepgram.New(e.APIKey, opts...)
	})

	r.RegisterTranslate("opusmt", func(e config.ProviderEntry) (translate.Provider, error) {
		if e.BaseURL == "" {
			return nil, errors.New("app: opusmt requires the server URL in providers.translate.base_url")
		}
		return opusmt.New(e.BaseURL)
	})
	r.RegisterTranslate("anyllm", func(e config.ProviderEntry) (translate.Provider, error) {
		backend := e.StringOption("backend", "openai")
		return anyllm.New(backend, e.Model, anyllmOptions(e)...)
	})
	for _, backend := range anyllmBackends {
		r.RegisterTranslate(backend, func(e config.ProviderEntry) (translate.Provider, error) {
			return anyllm.New(backend, e.Model, anyllmOptions(e)...)
		})
	}

	return r
}

func anyllmOptions(e config.ProviderEntry) []anyllmlib.Option {
	var opts []anyllmlib.Option
	if e.APIKey != "" {
		opts = append(opts, anyllmlib.WithAPIKey(e.APIKey))
	}
	if e.BaseURL != "" {
		opts = append(opts, anyllmlib.WithBaseURL(e.BaseURL))
	}
	return opts
}

// buildSTT constructs the STT provider chain: the primary alone, or a
// circuit-breaking fallback group when fallbacks are configured.
func buildSTT(reg *config.Registry, pc config.ProvidersConfig) (stt.Provider, []func() error, error) {
	var closers []func() error

	primary, err := reg.CreateSTT(pc.STT)
	if err != nil {
		return nil, nil, fmt.Errorf("app: stt provider: %w", err)
	}
	closers = appendCloser(closers, primary)
	if len(pc.STTFallbacks) == 0 {
		return primary, closers, nil
	}

	group := resilience.NewSTTFallback(primary, pc.STT.Name, resilience.CircuitBreakerConfig{
		Name: "stt/" + pc.STT.Name,
	})
	for _, entry := range pc.STTFallbacks {
		fb, err := reg.CreateSTT(entry)
		if err != nil {
			return nil, nil, fmt.Errorf("app: stt fallback %q: %w", entry.Name, err)
		}
		closers = appendCloser(closers, fb)
		group.AddFallback(entry.Name, fb)
	}
	return group, closers, nil
}

// buildTranslator constructs the translation chain, or returns nil when the
// session does not need one.
func buildTranslator(reg *config.Registry, pc config.ProvidersConfig, needed bool) (translate.Provider, []func() error, error) {
	if !needed || pc.Translate.Name == "" {
		return nil, nil, nil
	}
	var closers []func() error

	primary, err := reg.CreateTranslate(pc.Translate)
	if err != nil {
		return nil, nil, fmt.Errorf("app: translate provider: %w", err)
	}
	closers = appendCloser(closers, primary)
	if len(pc.TranslateFallbacks) == 0 {
		return primary, closers, nil
	}

	group := resilience.NewTranslateFallback(primary, pc.Translate.Name, resilience.CircuitBreakerConfig{
		Name: "translate/" + pc.Translate.Name,
	})
	for _, entry := range pc.TranslateFallbacks {
		fb, err := reg.CreateTranslate(entry)
		if err != nil {
			return nil, nil, fmt.Errorf("app: translate fallback %q: %w", entry.Name, err)
		}
		closers = appendCloser(closers, fb)
		group.AddFallback(entry.Name, fb)
	}
	return group, closers, nil
}

// appendCloser records a provider's Close method when it has one.
func appendCloser(closers []func() error, p any) []func() error {
	if c, ok := p.(interface{ Close() error }); ok {
		return append(closers, c.Close)
	}
	return closers
}
