package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	m, err := NewConfigManager(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("NewConfigManager: %v", err)
	}
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg := m.GetConfig()
	if cfg.Provider != DefaultProvider || cfg.Model != DefaultModel {
		t.Errorf("backend defaults = %s/%s", cfg.Provider, cfg.Model)
	}
	if cfg.SourceLang != "en" || cfg.TargetLang != "ja" {
		t.Errorf("language defaults = %s>%s", cfg.SourceLang, cfg.TargetLang)
	}
	if cfg.MaxAttempts != DefaultMaxAttempts || cfg.RetryDelaySeconds != DefaultRetryDelaySeconds {
		t.Errorf("retry defaults = %d/%ds", cfg.MaxAttempts, cfg.RetryDelaySeconds)
	}
	if cfg.WorkerConcurrency != DefaultWorkerConcurrency || cfg.QueueName != DefaultQueueName {
		t.Errorf("worker defaults = %d/%s", cfg.WorkerConcurrency, cfg.QueueName)
	}
}

func TestLoadMalformedFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{broken"), 0600); err != nil {
		t.Fatal(err)
	}

	m, _ := NewConfigManager(path)
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.GetConfig().Model != DefaultModel {
		t.Errorf("model = %q, want default after malformed file", m.GetConfig().Model)
	}
}

func TestLoadFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	partial := map[string]any{"model": "gpt-4o", "target_lang": "de"}
	data, _ := json.Marshal(partial)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}

	m, _ := NewConfigManager(path)
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg := m.GetConfig()
	if cfg.Model != "gpt-4o" || cfg.TargetLang != "de" {
		t.Errorf("explicit fields lost: %s, %s", cfg.Model, cfg.TargetLang)
	}
	if cfg.Provider != DefaultProvider || cfg.SourceLang != DefaultSourceLang {
		t.Errorf("missing fields not defaulted: %s, %s", cfg.Provider, cfg.SourceLang)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	m, _ := NewConfigManager(path)
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	cfg := m.GetConfig()
	cfg.Model = "custom-model"
	cfg.Engine = "pdfcpu"
	if err := m.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m2, _ := NewConfigManager(path)
	if err := m2.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if m2.GetConfig().Model != "custom-model" || m2.GetConfig().Engine != "pdfcpu" {
		t.Errorf("reloaded config = %+v", m2.GetConfig())
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %v, want 0600 (may hold an API key)", info.Mode().Perm())
	}
}

func TestEnvFallbacks(t *testing.T) {
	m, _ := NewConfigManager(filepath.Join(t.TempDir(), "config.json"))
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	t.Setenv(EnvOpenAIAPIKey, "env-key")
	t.Setenv(EnvRedisURL, "redis://env:6379")
	t.Setenv(EnvDatabaseURL, "postgres://env/db")
	t.Setenv(EnvWebhookURL, "https://env.example/hook")

	if got := m.GetAPIKey(); got != "env-key" {
		t.Errorf("GetAPIKey = %q", got)
	}
	if got := m.GetRedisURL(); got != "redis://env:6379" {
		t.Errorf("GetRedisURL = %q", got)
	}
	if got := m.GetDatabaseURL(); got != "postgres://env/db" {
		t.Errorf("GetDatabaseURL = %q", got)
	}
	if got := m.GetWebhookURL(); got != "https://env.example/hook" {
		t.Errorf("GetWebhookURL = %q", got)
	}

	// Explicit config wins over the environment.
	m.GetConfig().APIKey = "file-key"
	if got := m.GetAPIKey(); got != "file-key" {
		t.Errorf("GetAPIKey with config value = %q", got)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	m, err := NewConfigManager("")
	if err != nil {
		t.Fatalf("NewConfigManager: %v", err)
	}
	path := m.GetConfigPath()
	if filepath.Base(path) != DefaultConfigFileName {
		t.Errorf("default path = %q, want file %q", path, DefaultConfigFileName)
	}
}
