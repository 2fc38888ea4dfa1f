package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"paper-translator/internal/logger"
)

const progressTTL = time.Hour

// ProgressPublisher mirrors per-task unit progress into Redis so API
// frontends can poll it while a document is being translated.
type ProgressPublisher struct {
	client *redis.Client
}

// NewProgressPublisher connects to Redis at redisURL.
func NewProgressPublisher(redisURL string) (*ProgressPublisher, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &ProgressPublisher{client: redis.NewClient(opt)}, nil
}

func progressKey(taskID string) string {
	return "task:progress:" + taskID
}

// Publish stores "completed/total" for the task. Failures are logged
// and swallowed; progress is advisory.
func (p *ProgressPublisher) Publish(ctx context.Context, taskID string, completed, total int) {
	value := fmt.Sprintf("%d/%d", completed, total)
	if err := p.client.Set(ctx, progressKey(taskID), value, progressTTL).Err(); err != nil {
		logger.Debug("progress publish failed",
			logger.String("task_id", taskID), logger.Err(err))
	}
}

// Get reads the task's progress string.
func (p *ProgressPublisher) Get(ctx context.Context, taskID string) (string, error) {
	return p.client.Get(ctx, progressKey(taskID)).Result()
}

// Close releases the Redis client.
func (p *ProgressPublisher) Close() error {
	return p.client.Close()
}
