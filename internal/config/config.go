// Package config provides configuration management for the paper
// translation pipeline and its worker.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"paper-translator/internal/logger"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "paper-translator-config.json"
	// EnvOpenAIAPIKey is the environment variable for the OpenAI API key
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	// EnvOpenAIBaseURL is the environment variable for the OpenAI base URL
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
	// EnvRedisURL is the environment variable for the task queue Redis URL
	EnvRedisURL = "REDIS_URL"
	// EnvDatabaseURL is the environment variable for the Postgres URL
	EnvDatabaseURL = "DATABASE_URL"
	// EnvWebhookURL is the environment variable for the completion webhook
	EnvWebhookURL = "WEBHOOK_URL"

	// DefaultModel is the default chat model
	DefaultModel = "gpt-4o-mini"
	// DefaultProvider is the default translation backend
	DefaultProvider = "openai"
	// DefaultSourceLang and DefaultTargetLang are the default language pair
	DefaultSourceLang = "en"
	DefaultTargetLang = "ja"
	// DefaultMaxAttempts is the per-unit translation attempt budget
	DefaultMaxAttempts = 4
	// DefaultRetryDelaySeconds is the wait between attempts
	DefaultRetryDelaySeconds = 2
	// DefaultTokenThreshold is the classifier's body token threshold
	DefaultTokenThreshold = 10
	// DefaultFontsDir is where render fonts live
	DefaultFontsDir = "fonts"
	// DefaultWorkerConcurrency is how many documents a worker processes at once
	DefaultWorkerConcurrency = 2
	// DefaultQueueName is the asynq queue the worker consumes
	DefaultQueueName = "default"
)

// Config is the persisted application configuration.
type Config struct {
	// Translation backend.
	Provider   string `json:"provider"`
	Model      string `json:"model"`
	APIKey     string `json:"api_key,omitempty"`
	BaseURL    string `json:"base_url,omitempty"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	SelfRefine bool   `json:"self_refine,omitempty"`
	CachePath  string `json:"cache_path,omitempty"`

	// Pipeline tuning.
	MaxAttempts       int     `json:"max_attempts"`
	RetryDelaySeconds int     `json:"retry_delay_seconds"`
	TokenThreshold    int     `json:"token_threshold"`
	TopBins           int     `json:"top_bins,omitempty"`
	LongParagraph     int     `json:"long_paragraph_words,omitempty"`
	MaxSpaceFraction  float64 `json:"max_space_fraction,omitempty"`
	Engine            string  `json:"engine,omitempty"`
	FontsDir          string  `json:"fonts_dir"`

	// Worker wiring.
	RedisURL          string `json:"redis_url,omitempty"`
	DatabaseURL       string `json:"database_url,omitempty"`
	WebhookURL        string `json:"webhook_url,omitempty"`
	QueueName         string `json:"queue_name,omitempty"`
	WorkerConcurrency int    `json:"worker_concurrency,omitempty"`

	// Logging.
	LogFilePath string `json:"log_file_path,omitempty"`
	LogLevel    string `json:"log_level,omitempty"`
}

// ConfigManager loads, saves, and answers questions about the
// application configuration.
type ConfigManager struct {
	configPath string
	config     *Config
}

// NewConfigManager creates a ConfigManager for configPath. An empty
// path selects the default location in the user's home directory.
func NewConfigManager(configPath string) (*ConfigManager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configPath = filepath.Join(homeDir, ".config", "paper-translator", DefaultConfigFileName)
	}

	return &ConfigManager{
		configPath: configPath,
		config:     defaultConfig(),
	}, nil
}

func defaultConfig() *Config {
	return &Config{
		Provider:          DefaultProvider,
		Model:             DefaultModel,
		SourceLang:        DefaultSourceLang,
		TargetLang:        DefaultTargetLang,
		MaxAttempts:       DefaultMaxAttempts,
		RetryDelaySeconds: DefaultRetryDelaySeconds,
		TokenThreshold:    DefaultTokenThreshold,
		FontsDir:          DefaultFontsDir,
		QueueName:         DefaultQueueName,
		WorkerConcurrency: DefaultWorkerConcurrency,
	}
}

// Load reads the config file, falling back to defaults when it is
// missing or malformed, then fills empty fields with defaults.
func (m *ConfigManager) Load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		logger.Info("config file not found, using defaults",
			logger.String("path", m.configPath))
		m.config = defaultConfig()
	} else {
		config := &Config{}
		if err := json.Unmarshal(data, config); err != nil {
			logger.Warn("invalid config file format, using defaults",
				logger.String("path", m.configPath), logger.Err(err))
			m.config = defaultConfig()
		} else {
			m.config = config
		}
	}

	def := defaultConfig()
	if m.config.Provider == "" {
		m.config.Provider = def.Provider
	}
	if m.config.Model == "" {
		m.config.Model = def.Model
	}
	if m.config.SourceLang == "" {
		m.config.SourceLang = def.SourceLang
	}
	if m.config.TargetLang == "" {
		m.config.TargetLang = def.TargetLang
	}
	if m.config.MaxAttempts == 0 {
		m.config.MaxAttempts = def.MaxAttempts
	}
	if m.config.RetryDelaySeconds == 0 {
		m.config.RetryDelaySeconds = def.RetryDelaySeconds
	}
	if m.config.TokenThreshold == 0 {
		m.config.TokenThreshold = def.TokenThreshold
	}
	if m.config.FontsDir == "" {
		m.config.FontsDir = def.FontsDir
	}
	if m.config.QueueName == "" {
		m.config.QueueName = def.QueueName
	}
	if m.config.WorkerConcurrency == 0 {
		m.config.WorkerConcurrency = def.WorkerConcurrency
	}

	return nil
}

// Save writes the configuration to the config file.
func (m *ConfigManager) Save() error {
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.configPath, data, 0600)
}

// GetConfig returns the current configuration.
func (m *ConfigManager) GetConfig() *Config {
	return m.config
}

// SetConfig replaces the current configuration.
func (m *ConfigManager) SetConfig(config *Config) {
	if config != nil {
		m.config = config
	}
}

// GetConfigPath returns the config file path.
func (m *ConfigManager) GetConfigPath() string {
	return m.configPath
}

// GetAPIKey returns the API key, preferring the config file and
// falling back to OPENAI_API_KEY.
func (m *ConfigManager) GetAPIKey() string {
	if m.config.APIKey != "" {
		return m.config.APIKey
	}
	return os.Getenv(EnvOpenAIAPIKey)
}

// GetBaseURL returns the chat endpoint override, config first, then
// OPENAI_BASE_URL.
func (m *ConfigManager) GetBaseURL() string {
	if m.config.BaseURL != "" {
		return m.config.BaseURL
	}
	return os.Getenv(EnvOpenAIBaseURL)
}

// GetRedisURL returns the queue Redis URL, config first, then
// REDIS_URL.
func (m *ConfigManager) GetRedisURL() string {
	if m.config.RedisURL != "" {
		return m.config.RedisURL
	}
	return os.Getenv(EnvRedisURL)
}

// GetDatabaseURL returns the Postgres URL, config first, then
// DATABASE_URL.
func (m *ConfigManager) GetDatabaseURL() string {
	if m.config.DatabaseURL != "" {
		return m.config.DatabaseURL
	}
	return os.Getenv(EnvDatabaseURL)
}

// GetWebhookURL returns the completion webhook, config first, then
// WEBHOOK_URL.
func (m *ConfigManager) GetWebhookURL() string {
	if m.config.WebhookURL != "" {
		return m.config.WebhookURL
	}
	return os.Getenv(EnvWebhookURL)
}
