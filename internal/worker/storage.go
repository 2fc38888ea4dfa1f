package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"paper-translator/internal/logger"
)

const (
	storageMaxAttempts = 3
	storageRetryDelay  = 2 * time.Second
	maxDocumentSize    = 200 << 20 // 200 MB
)

// StorageClient moves documents over presigned URLs with bounded
// retry.
type StorageClient struct {
	client *http.Client
}

// NewStorageClient creates a StorageClient with sane timeouts.
func NewStorageClient() *StorageClient {
	return &StorageClient{
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

// Download fetches the document at url.
func (c *StorageClient) Download(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= storageMaxAttempts; attempt++ {
		data, err := c.downloadOnce(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if attempt < storageMaxAttempts {
			logger.Warn("document download failed, retrying",
				logger.Int("attempt", attempt), logger.Err(err))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(storageRetryDelay):
			}
		}
	}
	return nil, fmt.Errorf("download after %d attempts: %w", storageMaxAttempts, lastErr)
}

func (c *StorageClient) downloadOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("read download body: %w", err)
	}
	if len(data) > maxDocumentSize {
		return nil, fmt.Errorf("document exceeds %d bytes", maxDocumentSize)
	}
	return data, nil
}

// Upload PUTs data to url with the given content type.
func (c *StorageClient) Upload(ctx context.Context, url string, data []byte, contentType string) error {
	var lastErr error
	for attempt := 1; attempt <= storageMaxAttempts; attempt++ {
		err := c.uploadOnce(ctx, url, data, contentType)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt < storageMaxAttempts {
			logger.Warn("artifact upload failed, retrying",
				logger.Int("attempt", attempt), logger.Err(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(storageRetryDelay):
			}
		}
	}
	return fmt.Errorf("upload after %d attempts: %w", storageMaxAttempts, lastErr)
}

func (c *StorageClient) uploadOnce(ctx context.Context, url string, data []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("upload returned status %d", resp.StatusCode)
	}
	return nil
}
