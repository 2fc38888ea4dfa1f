package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultOllamaURL is the local Ollama server.
	DefaultOllamaURL = "http://localhost:11434"
	// DefaultOllamaModel is used when no model is configured.
	DefaultOllamaModel = "lucas2024/gemma-2-2b-jpn-it:q8_0"

	ollamaChatPath = "/api/chat"
)

// OllamaTranslator translates through a local Ollama chat endpoint.
type OllamaTranslator struct {
	baseURL    string
	model      string
	client     *http.Client
	sourceLang string
	targetLang string
}

// NewOllamaTranslator creates an Ollama-backed translator.
func NewOllamaTranslator(cfg Config) (*OllamaTranslator, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOllamaModel
	}
	return &OllamaTranslator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		client:     &http.Client{Timeout: 120 * time.Second},
		sourceLang: cfg.SourceLang,
		targetLang: cfg.TargetLang,
	}, nil
}

// SetAPIURL overrides the server URL, primarily for tests.
func (t *OllamaTranslator) SetAPIURL(u string) {
	t.baseURL = strings.TrimRight(u, "/")
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Error   string        `json:"error,omitempty"`
}

// Translate implements Translator.
func (t *OllamaTranslator) Translate(ctx context.Context, text string) (string, error) {
	reqBody := ollamaChatRequest{
		Model: t.model,
		Messages: []ollamaMessage{
			{Role: "system", Content: buildSystemPrompt(t.sourceLang, t.targetLang)},
			{Role: "user", Content: buildTranslatePrompt(t.sourceLang, t.targetLang, text)},
		},
		Stream: false,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.baseURL+ollamaChatPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read ollama response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if chatResp.Error != "" {
		return "", fmt.Errorf("ollama error: %s", chatResp.Error)
	}
	return postprocess(chatResp.Message.Content), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
