package translator

import (
	"context"
	"errors"
	"strings"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// scriptedModel replays canned assistant responses and records the
// prompts it was given.
type scriptedModel struct {
	responses []string
	errs      []error
	calls     [][]*schema.Message
}

func (m *scriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	i := len(m.calls)
	m.calls = append(m.calls, input)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	content := ""
	if i < len(m.responses) {
		content = m.responses[i]
	}
	return schema.AssistantMessage(content, nil), nil
}

func TestLLMTranslate(t *testing.T) {
	model := &scriptedModel{responses: []string{"```\nこんにちは。\n```"}}
	tr := &LLMTranslator{model: model, sourceLang: "en", targetLang: "ja"}

	got, err := tr.Translate(context.Background(), "Hello.")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "こんにちは。" {
		t.Errorf("translation = %q", got)
	}

	if len(model.calls) != 1 {
		t.Fatalf("model calls = %d, want 1", len(model.calls))
	}
	msgs := model.calls[0]
	if len(msgs) != 2 || msgs[0].Role != schema.System || msgs[1].Role != schema.User {
		t.Fatalf("message roles = %v", msgs)
	}
	if !strings.Contains(msgs[1].Content, "Literal Translation task") {
		t.Errorf("user prompt = %q", msgs[1].Content)
	}
	if !strings.Contains(msgs[1].Content, "Hello.") {
		t.Errorf("user prompt missing payload: %q", msgs[1].Content)
	}
}

func TestLLMTranslateSelfRefine(t *testing.T) {
	model := &scriptedModel{responses: []string{
		"first draft",
		"- unnatural phrasing in sentence two",
		"refined translation",
	}}
	tr := &LLMTranslator{model: model, sourceLang: "en", targetLang: "ja", selfRefine: true}

	got, err := tr.Translate(context.Background(), "Hello.")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "refined translation" {
		t.Errorf("translation = %q, want the refined pass", got)
	}
	if len(model.calls) != 3 {
		t.Fatalf("model calls = %d, want translate, review, refine", len(model.calls))
	}
	if !strings.Contains(model.calls[2][1].Content, "first draft") {
		t.Error("refine prompt does not carry the draft")
	}
	if !strings.Contains(model.calls[2][1].Content, "unnatural phrasing") {
		t.Error("refine prompt does not carry the review notes")
	}
}

func TestLLMTranslateSelfRefineFailureKeepsDraft(t *testing.T) {
	model := &scriptedModel{
		responses: []string{"first draft"},
		errs:      []error{nil, errors.New("rate limited")},
	}
	tr := &LLMTranslator{model: model, sourceLang: "en", targetLang: "ja", selfRefine: true}

	got, err := tr.Translate(context.Background(), "Hello.")
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if got != "first draft" {
		t.Errorf("translation = %q, want the surviving draft", got)
	}
}

func TestLLMTranslateError(t *testing.T) {
	model := &scriptedModel{errs: []error{errors.New("quota exceeded")}}
	tr := &LLMTranslator{model: model, sourceLang: "en", targetLang: "ja"}

	if _, err := tr.Translate(context.Background(), "Hello."); err == nil {
		t.Fatal("expected error from the model")
	}
}

func TestNewValidatesConfig(t *testing.T) {
	ctx := context.Background()

	if _, err := New(ctx, Config{Provider: ProviderOpenAI, Model: "gpt-4o-mini"}); err == nil {
		t.Error("missing language pair accepted")
	}
	if _, err := New(ctx, Config{Provider: "mystery", SourceLang: "en", TargetLang: "ja"}); err == nil {
		t.Error("unknown provider accepted")
	}
	if _, err := New(ctx, Config{Provider: ProviderOpenAI, SourceLang: "en", TargetLang: "ja"}); err == nil {
		t.Error("missing model name accepted")
	}
}

func TestNewOllamaProvider(t *testing.T) {
	tr, err := New(context.Background(), Config{
		Provider:   ProviderOllama,
		SourceLang: "en",
		TargetLang: "ja",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := tr.(*OllamaTranslator); !ok {
		t.Errorf("translator type = %T, want *OllamaTranslator", tr)
	}
}
