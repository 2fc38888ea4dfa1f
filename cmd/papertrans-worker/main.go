// papertrans-worker consumes queued document translation tasks:
// download, translate with layout preserved, upload the review spread,
// and record task status.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"paper-translator/internal/config"
	"paper-translator/internal/font"
	"paper-translator/internal/logger"
	"paper-translator/internal/pdf"
	"paper-translator/internal/translator"
	"paper-translator/internal/worker"
)

func main() {
	var (
		configPath  = flag.String("config", "", "config file path")
		concurrency = flag.Int("concurrency", 0, "documents processed at once (default from config)")
		verbose     = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	godotenv.Load()

	cm, err := config.NewConfigManager(*configPath)
	if err != nil {
		fatal("config init failed", err)
	}
	if err := cm.Load(); err != nil {
		fatal("config load failed", err)
	}
	cfg := cm.GetConfig()

	level := logger.ParseLevel(cfg.LogLevel)
	if *verbose {
		level = logger.LevelDebug
	}
	if err := logger.Init(&logger.Config{
		LogFilePath:   cfg.LogFilePath,
		MaxFileSize:   10 * 1024 * 1024,
		MaxBackups:    5,
		Level:         level,
		EnableConsole: true,
	}); err != nil {
		fatal("logger init failed", err)
	}
	defer logger.Close()

	redisURL := cm.GetRedisURL()
	if redisURL == "" {
		fatal("redis URL is required (config redis_url or REDIS_URL)", nil)
	}

	engine, err := pdf.NewEngine(cfg.Engine)
	if err != nil {
		fatal("engine init failed", err)
	}

	fonts := pdf.DefaultFonts(cfg.FontsDir)
	if err := pdf.ValidateFonts(fonts); err != nil {
		fatal("font check failed", err)
	}

	if *concurrency <= 0 {
		*concurrency = cfg.WorkerConcurrency
	}

	w, err := worker.New(worker.Config{
		RedisURL:    redisURL,
		DatabaseURL: cm.GetDatabaseURL(),
		QueueName:   cfg.QueueName,
		Concurrency: *concurrency,
		WebhookURL:  cm.GetWebhookURL(),
		Defaults: translator.Config{
			Provider:   cfg.Provider,
			Model:      cfg.Model,
			APIKey:     cm.GetAPIKey(),
			BaseURL:    cm.GetBaseURL(),
			SelfRefine: cfg.SelfRefine,
			CachePath:  cfg.CachePath,
		},
		Pipeline: pdf.Options{
			Engine:   engine,
			Measurer: font.NewLibrary(),
			Fonts:    fonts,
			Classifier: pdf.ClassifierConfig{
				TokenThreshold:     cfg.TokenThreshold,
				TopBins:            cfg.TopBins,
				LongParagraphWords: cfg.LongParagraph,
				MaxSpaceFraction:   cfg.MaxSpaceFraction,
			},
			MaxAttempts: cfg.MaxAttempts,
			RetryDelay:  time.Duration(cfg.RetryDelaySeconds) * time.Second,
		},
	})
	if err != nil {
		fatal("worker init failed", err)
	}

	logger.Info("worker starting",
		logger.String("engine", engine.Name()),
		logger.String("queue", cfg.QueueName),
		logger.Int("concurrency", *concurrency))

	done := make(chan struct{})
	go func() {
		defer close(done)
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		logger.Info("shutdown signal received")
		w.Shutdown()
	}()

	if err := w.Run(); err != nil {
		fatal("worker stopped", err)
	}
	<-done
}

func fatal(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "papertrans-worker: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "papertrans-worker: %s\n", msg)
	}
	os.Exit(1)
}
