package worker

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// TaskStore records task lifecycle state in Postgres.
//
// Expected schema:
//
//	CREATE TABLE IF NOT EXISTS translation_tasks (
//	    task_id    TEXT PRIMARY KEY,
//	    status     TEXT NOT NULL,
//	    message    TEXT NOT NULL DEFAULT '',
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type TaskStore struct {
	db *sql.DB
}

// NewTaskStore connects to Postgres at databaseURL and verifies the
// connection.
func NewTaskStore(databaseURL string) (*TaskStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &TaskStore{db: db}, nil
}

// UpdateStatus upserts the task's status row.
func (s *TaskStore) UpdateStatus(ctx context.Context, taskID, status, message string) error {
	const q = `
		INSERT INTO translation_tasks (task_id, status, message, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (task_id)
		DO UPDATE SET status = $2, message = $3, updated_at = now()`
	if _, err := s.db.ExecContext(ctx, q, taskID, status, message); err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return nil
}

// GetStatus reads the task's current status and message.
func (s *TaskStore) GetStatus(ctx context.Context, taskID string) (status, message string, err error) {
	const q = `SELECT status, message FROM translation_tasks WHERE task_id = $1`
	err = s.db.QueryRowContext(ctx, q, taskID).Scan(&status, &message)
	if err == sql.ErrNoRows {
		return "", "", fmt.Errorf("task %s not found", taskID)
	}
	if err != nil {
		return "", "", fmt.Errorf("read task status: %w", err)
	}
	return status, message, nil
}

// Close releases the connection pool.
func (s *TaskStore) Close() error {
	return s.db.Close()
}
