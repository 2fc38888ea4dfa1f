package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Notification is the JSON body posted to a webhook when a task
// reaches a terminal state.
type Notification struct {
	TaskID   string `json:"task_id"`
	Filename string `json:"filename,omitempty"`
	Status   string `json:"status"`
	Detail   string `json:"detail,omitempty"`
}

// Notifier posts task completion webhooks.
type Notifier struct {
	client *http.Client
}

// NewNotifier creates a Notifier.
func NewNotifier() *Notifier {
	return &Notifier{client: &http.Client{Timeout: 15 * time.Second}}
}

// Notify posts n to url. A nil error means the endpoint accepted it.
func (w *Notifier) Notify(ctx context.Context, url string, n Notification) error {
	if url == "" {
		return nil
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification returned status %d", resp.StatusCode)
	}
	return nil
}
