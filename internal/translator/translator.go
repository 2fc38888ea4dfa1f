// Package translator provides the translation backends the pipeline
// fans units out to: an OpenAI-compatible chat model, a local Ollama
// server, and a plain function adapter. A persistent cache can wrap
// any backend so repeated runs skip already-translated payloads.
package translator

import (
	"context"
	"fmt"
	"strings"
)

// Provider names for Config.Provider.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Translator translates one text payload. Implementations must be safe
// for concurrent use.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Func adapts a function to the Translator interface.
type Func func(ctx context.Context, text string) (string, error)

// Translate implements Translator.
func (f Func) Translate(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// Config selects and parameterizes a backend.
type Config struct {
	// Provider is ProviderOpenAI or ProviderOllama.
	Provider string
	// Model is the model name. Required for OpenAI; Ollama falls back
	// to DefaultOllamaModel.
	Model string
	// APIKey authenticates OpenAI-compatible endpoints.
	APIKey string
	// BaseURL overrides the endpoint, for OpenAI-compatible gateways
	// or a non-local Ollama server.
	BaseURL string
	// SourceLang and TargetLang are language codes like "en" and "ja".
	SourceLang string
	TargetLang string
	// SelfRefine enables the two-pass review-and-rewrite flow. Off by
	// default; it doubles token cost per unit.
	SelfRefine bool
	// CachePath, when set, persists translations keyed by model and
	// language pair so repeated runs reuse them.
	CachePath string
}

// New builds a Translator from cfg, wrapped in the persistent cache
// when CachePath is set.
func New(ctx context.Context, cfg Config) (Translator, error) {
	if strings.TrimSpace(cfg.SourceLang) == "" || strings.TrimSpace(cfg.TargetLang) == "" {
		return nil, fmt.Errorf("source and target languages are required")
	}

	var (
		inner Translator
		err   error
	)
	switch cfg.Provider {
	case ProviderOpenAI, "":
		inner, err = NewLLMTranslator(ctx, cfg)
	case ProviderOllama:
		inner, err = NewOllamaTranslator(cfg)
	default:
		return nil, fmt.Errorf("unknown translation provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CachePath != "" {
		cache, err := LoadCache(cfg.CachePath)
		if err != nil {
			return nil, err
		}
		inner = WithCache(inner, cache, cacheKeyPrefix(cfg))
	}
	return inner, nil
}

func cacheKeyPrefix(cfg Config) string {
	return cfg.Provider + "/" + cfg.Model + "/" + cfg.SourceLang + ">" + cfg.TargetLang
}
