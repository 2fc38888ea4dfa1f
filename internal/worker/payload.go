// Package worker runs the translation pipeline as a queue consumer:
// documents arrive as Redis-backed tasks, artifacts leave over
// presigned URLs, and task status lives in Postgres.
package worker

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TypePDFTranslate is the task type for one document translation.
const TypePDFTranslate = "pdf:translate"

// TranslationTask is the queue payload for one document.
type TranslationTask struct {
	TaskID     string `json:"task_id"`
	Filename   string `json:"filename"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`

	// Backend selection, overriding worker defaults when set.
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`

	// OriginalURL is a presigned GET for the input document.
	OriginalURL string `json:"original_url"`
	// ResultURL is a presigned PUT for the review spread.
	ResultURL string `json:"result_url"`
	// TranslatedURL, when set, is a presigned PUT for the translated
	// document alone.
	TranslatedURL string `json:"translated_url,omitempty"`
	// NotifyURL, when set, receives a completion webhook.
	NotifyURL string `json:"notify_url,omitempty"`
}

// Validate checks the fields a worker cannot default.
func (t *TranslationTask) Validate() error {
	if t.SourceLang == "" || t.TargetLang == "" {
		return fmt.Errorf("source and target languages are required")
	}
	if t.OriginalURL == "" {
		return fmt.Errorf("original document URL is required")
	}
	if t.ResultURL == "" {
		return fmt.Errorf("result upload URL is required")
	}
	return nil
}

// NewTask wraps t in an asynq task, assigning a task ID when absent.
func NewTask(t TranslationTask) (*asynq.Task, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.TaskID == "" {
		t.TaskID = uuid.NewString()
	}
	payload, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode task payload: %w", err)
	}
	return asynq.NewTask(TypePDFTranslate, payload), nil
}

// Enqueue pushes t onto the queue at redisURL and returns the assigned
// task ID.
func Enqueue(redisURL, queue string, t TranslationTask) (string, error) {
	if t.TaskID == "" {
		t.TaskID = uuid.NewString()
	}
	task, err := NewTask(t)
	if err != nil {
		return "", err
	}

	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return "", fmt.Errorf("parse redis url: %w", err)
	}
	client := asynq.NewClient(opt)
	defer client.Close()

	if _, err := client.Enqueue(task, asynq.Queue(queue), asynq.MaxRetry(3)); err != nil {
		return "", fmt.Errorf("enqueue task: %w", err)
	}
	return t.TaskID, nil
}
