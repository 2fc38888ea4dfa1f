package translator

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/cloudwego/eino-ext/components/model/openai"

	"paper-translator/internal/logger"
)

// chatModel is the slice of the chat model surface the translator
// needs, so tests can substitute a scripted model.
type chatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

// LLMTranslator translates through an OpenAI-compatible chat model.
type LLMTranslator struct {
	model      chatModel
	sourceLang string
	targetLang string
	selfRefine bool
}

// NewLLMTranslator creates the chat model from cfg and wraps it.
func NewLLMTranslator(ctx context.Context, cfg Config) (*LLMTranslator, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	modelConfig := &openai.ChatModelConfig{
		Model:  cfg.Model,
		APIKey: cfg.APIKey,
	}
	if cfg.BaseURL != "" {
		modelConfig.BaseURL = cfg.BaseURL
	}

	model, err := openai.NewChatModel(ctx, modelConfig)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	return &LLMTranslator{
		model:      model,
		sourceLang: cfg.SourceLang,
		targetLang: cfg.TargetLang,
		selfRefine: cfg.SelfRefine,
	}, nil
}

// Translate implements Translator.
func (t *LLMTranslator) Translate(ctx context.Context, text string) (string, error) {
	translation, err := t.generate(ctx, buildTranslatePrompt(t.sourceLang, t.targetLang, text))
	if err != nil {
		return "", err
	}

	if t.selfRefine {
		refined, err := t.refine(ctx, translation)
		if err != nil {
			// The first pass already produced a usable translation.
			logger.Warn("self-refine pass failed, keeping first draft", logger.Err(err))
			return translation, nil
		}
		translation = refined
	}
	return translation, nil
}

func (t *LLMTranslator) refine(ctx context.Context, translation string) (string, error) {
	review, err := t.generate(ctx, buildReviewPrompt(t.targetLang, translation))
	if err != nil {
		return "", err
	}
	return t.generate(ctx, buildRefinePrompt(t.targetLang, translation, review))
}

func (t *LLMTranslator) generate(ctx context.Context, userPrompt string) (string, error) {
	response, err := t.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(buildSystemPrompt(t.sourceLang, t.targetLang)),
		schema.UserMessage(userPrompt),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return postprocess(response.Content), nil
}
