package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newFileLogger(t *testing.T, maxSize int64, level Level) (*DefaultLogger, string) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "logger_test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	logPath := filepath.Join(tmpDir, "test.log")
	logger, err := NewDefaultLogger(&Config{
		LogFilePath:   logPath,
		MaxFileSize:   maxSize,
		MaxBackups:    3,
		Level:         level,
		EnableConsole: false,
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return logger, logPath
}

func TestNewDefaultLogger(t *testing.T) {
	logger, logPath := newFileLogger(t, 1024*1024, LevelDebug)
	defer logger.Close()

	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		t.Error("Log file was not created")
	}
}

func TestConsoleOnlyLogger(t *testing.T) {
	logger, err := NewDefaultLogger(&Config{
		LogFilePath:   "",
		Level:         LevelInfo,
		EnableConsole: true,
	})
	if err != nil {
		t.Fatalf("Failed to create console logger: %v", err)
	}
	defer logger.Close()

	if logger.file != nil {
		t.Error("Console-only logger should not open a file")
	}
	// Must not panic without a file writer.
	logger.Info("console message")
}

func TestLogLevelsAndFields(t *testing.T) {
	logger, logPath := newFileLogger(t, 1024*1024, LevelDebug)

	logger.Debug("debug message", String("key", "value"))
	logger.Info("info message", Int("count", 42))
	logger.Warn("warn message", Bool("flag", true))
	logger.Error("error message", errors.New("test error"), Float64("rate", 3.14))

	logger.Close()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	logContent := string(content)

	for _, want := range []string{
		"[DEBUG]", "[INFO]", "[WARN]", "[ERROR]",
		"debug message", "info message", "warn message", "error message",
		"key=value", "count=42", "flag=true", "rate=3.14",
		`error="test error"`,
	} {
		if !strings.Contains(logContent, want) {
			t.Errorf("Log content missing %q", want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	logger, logPath := newFileLogger(t, 1024*1024, LevelWarn)

	logger.Debug("hidden debug")
	logger.Info("hidden info")
	logger.Warn("visible warn")

	logger.Close()

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	logContent := string(content)

	if strings.Contains(logContent, "hidden debug") || strings.Contains(logContent, "hidden info") {
		t.Error("Messages below the configured level were written")
	}
	if !strings.Contains(logContent, "visible warn") {
		t.Error("Warn message missing")
	}
}

func TestStringFieldQuoting(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"plain", "simple", "path=simple"},
		{"spaced", "two words", `path="two words"`},
		{"empty", "", `path=""`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logPath := newFileLogger(t, 1024*1024, LevelDebug)
			logger.Info("msg", String("path", tt.value))
			logger.Close()

			content, err := os.ReadFile(logPath)
			if err != nil {
				t.Fatalf("Failed to read log file: %v", err)
			}
			if !strings.Contains(string(content), tt.want) {
				t.Errorf("Log content %q missing %q", string(content), tt.want)
			}
		})
	}
}

func TestRotation(t *testing.T) {
	logger, logPath := newFileLogger(t, 256, LevelDebug)

	for i := 0; i < 50; i++ {
		logger.Info("rotation filler entry", Int("i", i))
	}
	logger.Close()

	if _, err := os.Stat(logPath + ".1"); os.IsNotExist(err) {
		t.Error("Expected rotated backup file to exist")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"Warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGlobalLoggerFallback(t *testing.T) {
	SetGlobalLogger(nil)
	defer SetGlobalLogger(nil)

	// Uninitialized global logging must be a safe no-op.
	Debug("no-op")
	Info("no-op")
	Warn("no-op")
	Error("no-op", fmt.Errorf("ignored"))
}
