// papertrans translates a PDF in place of its layout: body text is
// classified, blanked, translated, and repainted into the original
// regions, and a side-by-side review spread is produced.
//
// One-shot mode runs the pipeline locally; -enqueue pushes the task
// onto the worker queue instead.
package main

import (
	"context"
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
		inputPath  = flag.String("input", "", "input PDF path")
		outputPath = flag.String("output", "translated.pdf", "translated PDF output path")
		spreadPath = flag.String("spread", "", "side-by-side spread output path (default: <output>.spread.pdf)")
		sourceLang = flag.String("source", "", "source language code (default from config)")
		targetLang = flag.String("target", "", "target language code (default from config)")
		provider   = flag.String("provider", "", "translation backend: openai or ollama")
		model      = flag.String("model", "", "model name")
		apiKey     = flag.String("api-key", "", "API key (overrides config and OPENAI_API_KEY)")
		baseURL    = flag.String("base-url", "", "API base URL override")
		engineName = flag.String("engine", "", "document engine: auto, pdfcpu, or mupdf")
		configPath = flag.String("config", "", "config file path")
		verbose    = flag.Bool("verbose", false, "enable debug logging")

		enqueue     = flag.Bool("enqueue", false, "enqueue as a worker task instead of running locally")
		redisURL    = flag.String("redis", "", "redis URL for -enqueue (overrides config and REDIS_URL)")
		originalURL = flag.String("original-url", "", "presigned GET for the input document (-enqueue)")
		resultURL   = flag.String("result-url", "", "presigned PUT for the spread (-enqueue)")
		notifyURL   = flag.String("notify-url", "", "completion webhook (-enqueue)")
	)
	flag.Parse()

	// A missing .env is fine; explicit environment wins anyway.
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

	applyFlag(&cfg.SourceLang, *sourceLang)
	applyFlag(&cfg.TargetLang, *targetLang)
	applyFlag(&cfg.Provider, *provider)
	applyFlag(&cfg.Model, *model)
	applyFlag(&cfg.APIKey, *apiKey)
	applyFlag(&cfg.BaseURL, *baseURL)
	applyFlag(&cfg.Engine, *engineName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *enqueue {
		runEnqueue(cm, *redisURL, *inputPath, *originalURL, *resultURL, *notifyURL)
		return
	}
	runLocal(ctx, cm, *inputPath, *outputPath, *spreadPath)
}

func applyFlag(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func runEnqueue(cm *config.ConfigManager, redisURL, inputPath, originalURL, resultURL, notifyURL string) {
	cfg := cm.GetConfig()
	if redisURL == "" {
		redisURL = cm.GetRedisURL()
	}
	if redisURL == "" {
		fatal("redis URL is required for -enqueue", nil)
	}
	if originalURL == "" || resultURL == "" {
		fatal("-original-url and -result-url are required for -enqueue", nil)
	}

	taskID, err := worker.Enqueue(redisURL, cfg.QueueName, worker.TranslationTask{
		Filename:    inputPath,
		SourceLang:  cfg.SourceLang,
		TargetLang:  cfg.TargetLang,
		Provider:    cfg.Provider,
		Model:       cfg.Model,
		OriginalURL: originalURL,
		ResultURL:   resultURL,
		NotifyURL:   notifyURL,
	})
	if err != nil {
		fatal("enqueue failed", err)
	}
	fmt.Println(taskID)
}

func runLocal(ctx context.Context, cm *config.ConfigManager, inputPath, outputPath, spreadPath string) {
	cfg := cm.GetConfig()
	if inputPath == "" {
		fatal("-input is required", nil)
	}
	if spreadPath == "" {
		spreadPath = outputPath + ".spread.pdf"
	}

	doc, err := os.ReadFile(inputPath)
	if err != nil {
		fatal("cannot read input", err)
	}

	engine, err := pdf.NewEngine(cfg.Engine)
	if err != nil {
		fatal("engine init failed", err)
	}
	logger.Info("document engine selected", logger.String("engine", engine.Name()))

	fonts := pdf.DefaultFonts(cfg.FontsDir)
	if err := pdf.ValidateFonts(fonts); err != nil {
		fatal("font check failed", err)
	}

	trans, err := translator.New(ctx, translator.Config{
		Provider:   cfg.Provider,
		Model:      cfg.Model,
		APIKey:     cm.GetAPIKey(),
		BaseURL:    cm.GetBaseURL(),
		SourceLang: cfg.SourceLang,
		TargetLang: cfg.TargetLang,
		SelfRefine: cfg.SelfRefine,
		CachePath:  cfg.CachePath,
	})
	if err != nil {
		fatal("translator init failed", err)
	}

	pipeline, err := pdf.NewPipeline(pdf.Options{
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
		OnStatus: func(s pdf.Status) {
			if s.Phase == pdf.PhaseTranslating && s.TotalUnits > 0 {
				fmt.Fprintf(os.Stderr, "\rtranslating %d/%d", s.CompletedUnits, s.TotalUnits)
			}
		},
	})
	if err != nil {
		fatal("pipeline init failed", err)
	}

	result, err := pipeline.Run(ctx, doc, cfg.SourceLang, cfg.TargetLang, trans.Translate)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fatal("translation failed", err)
	}

	if err := os.WriteFile(outputPath, result.Translated, 0644); err != nil {
		fatal("cannot write output", err)
	}
	if err := os.WriteFile(spreadPath, result.Spread, 0644); err != nil {
		fatal("cannot write spread", err)
	}

	fmt.Printf("translated %d pages (%d body units, %d caption units) in %s\n",
		result.Report.Pages, result.Report.BodyUnits, result.Report.FigureUnits,
		result.Report.Duration.Round(time.Second))
	fmt.Printf("output: %s\nspread: %s\n", outputPath, spreadPath)
}

func fatal(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "papertrans: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "papertrans: %s\n", msg)
	}
	os.Exit(1)
}
