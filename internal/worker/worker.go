package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"paper-translator/internal/logger"
	"paper-translator/internal/pdf"
	"paper-translator/internal/translator"
)

// Config wires a Worker to its queue, status store, and pipeline.
type Config struct {
	// RedisURL backs the task queue and progress keys. Required.
	RedisURL string
	// DatabaseURL enables the Postgres status store when set.
	DatabaseURL string
	// QueueName is the asynq queue to consume.
	QueueName string
	// Concurrency is how many documents run at once.
	Concurrency int
	// WebhookURL receives terminal-state notifications when set and
	// the task carries no NotifyURL of its own.
	WebhookURL string
	// Defaults fill translator fields tasks leave empty.
	Defaults translator.Config
	// Pipeline configures the translation pipeline shared by tasks.
	Pipeline pdf.Options
}

// Worker consumes translation tasks: download, run the pipeline,
// upload artifacts, record status.
type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	store    *TaskStore
	progress *ProgressPublisher
	storage  *StorageClient
	notifier *Notifier

	webhookURL string
	defaults   translator.Config
	pipeline   pdf.Options
}

// New builds a Worker from cfg.
func New(cfg Config) (*Worker, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis url is required")
	}
	if cfg.QueueName == "" {
		cfg.QueueName = "default"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}

	opt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues:      map[string]int{cfg.QueueName: 1},
	})

	w := &Worker{
		server:     server,
		mux:        asynq.NewServeMux(),
		storage:    NewStorageClient(),
		notifier:   NewNotifier(),
		webhookURL: cfg.WebhookURL,
		defaults:   cfg.Defaults,
		pipeline:   cfg.Pipeline,
	}

	if cfg.DatabaseURL != "" {
		store, err := NewTaskStore(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		w.store = store
	}
	progress, err := NewProgressPublisher(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	w.progress = progress

	w.mux.HandleFunc(TypePDFTranslate, w.handleTranslate)
	return w, nil
}

// Run blocks serving tasks until Shutdown.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Shutdown stops the server and releases connections.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
	if w.store != nil {
		w.store.Close()
	}
	if w.progress != nil {
		w.progress.Close()
	}
}

// handleTranslate processes one queued document. Infrastructure
// failures (download, upload, Redis) return an error so asynq retries
// the task; pipeline failures are recorded as terminal task state and
// return nil, since retrying them would fail identically.
func (w *Worker) handleTranslate(ctx context.Context, task *asynq.Task) error {
	var t TranslationTask
	if err := json.Unmarshal(task.Payload(), &t); err != nil {
		return fmt.Errorf("decode task payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid task payload: %v: %w", err, asynq.SkipRetry)
	}

	logger.Info("processing translation task",
		logger.String("task_id", t.TaskID),
		logger.String("filename", t.Filename),
		logger.String("source", t.SourceLang),
		logger.String("target", t.TargetLang))

	w.updateStatus(ctx, t.TaskID, "processing", "")

	doc, err := w.storage.Download(ctx, t.OriginalURL)
	if err != nil {
		return fmt.Errorf("download original: %w", err)
	}

	trans, err := w.buildTranslator(ctx, &t)
	if err != nil {
		// Backend construction fails for configuration reasons, not
		// transient ones.
		w.finish(ctx, &t, "failed", err.Error())
		return nil
	}

	opts := w.pipeline
	opts.OnStatus = func(s pdf.Status) {
		if s.TotalUnits > 0 {
			w.progress.Publish(ctx, t.TaskID, s.CompletedUnits, s.TotalUnits)
		}
	}
	pipeline, err := pdf.NewPipeline(opts)
	if err != nil {
		w.finish(ctx, &t, "failed", err.Error())
		return nil
	}

	result, err := pipeline.Run(ctx, doc, t.SourceLang, t.TargetLang, trans.Translate)
	if err != nil {
		if ctx.Err() != nil {
			// Shutdown or deadline; let asynq retry the task later.
			return err
		}
		logger.Error("pipeline run failed", err, logger.String("task_id", t.TaskID))
		w.finish(ctx, &t, "failed", err.Error())
		return nil
	}

	if err := w.storage.Upload(ctx, t.ResultURL, result.Spread, "application/pdf"); err != nil {
		return fmt.Errorf("upload spread: %w", err)
	}
	if t.TranslatedURL != "" {
		if err := w.storage.Upload(ctx, t.TranslatedURL, result.Translated, "application/pdf"); err != nil {
			return fmt.Errorf("upload translated document: %w", err)
		}
	}

	detail := fmt.Sprintf("%d pages, %d units", result.Report.Pages,
		result.Report.BodyUnits+result.Report.FigureUnits)
	w.finish(ctx, &t, "completed", detail)
	return nil
}

// buildTranslator resolves the task's backend, falling back to worker
// defaults for unset fields.
func (w *Worker) buildTranslator(ctx context.Context, t *TranslationTask) (translator.Translator, error) {
	cfg := w.defaults
	if t.Provider != "" {
		cfg.Provider = t.Provider
	}
	if t.Model != "" {
		cfg.Model = t.Model
	}
	if t.APIKey != "" {
		cfg.APIKey = t.APIKey
	}
	if t.BaseURL != "" {
		cfg.BaseURL = t.BaseURL
	}
	cfg.SourceLang = t.SourceLang
	cfg.TargetLang = t.TargetLang
	return translator.New(ctx, cfg)
}

func (w *Worker) updateStatus(ctx context.Context, taskID, status, message string) {
	if w.store == nil {
		return
	}
	if err := w.store.UpdateStatus(ctx, taskID, status, message); err != nil {
		logger.Warn("status update failed",
			logger.String("task_id", taskID), logger.Err(err))
	}
}

// finish records a terminal state and fires the webhook.
func (w *Worker) finish(ctx context.Context, t *TranslationTask, status, detail string) {
	w.updateStatus(ctx, t.TaskID, status, detail)

	url := t.NotifyURL
	if url == "" {
		url = w.webhookURL
	}
	if url == "" {
		return
	}
	n := Notification{TaskID: t.TaskID, Filename: t.Filename, Status: status, Detail: detail}
	if err := w.notifier.Notify(ctx, url, n); err != nil {
		logger.Warn("completion webhook failed",
			logger.String("task_id", t.TaskID), logger.Err(err))
	}
}
