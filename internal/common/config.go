// Package common provides shared utilities for Catalyst
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Catalyst
type Config struct {
	Environment string         `toml:"environment"`
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Clients     ClientsConfig  `toml:"clients"`
	Analyzer    AnalyzerConfig `toml:"analyzer"`
	Logging     LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the BadgerHold data directory.
type StorageConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Edgar  EdgarConfig  `toml:"edgar"`
	Gemini GeminiConfig `toml:"gemini"`
}

// EdgarConfig holds SEC EDGAR client configuration.
// The SEC requires a descriptive User-Agent and caps access at 10 req/s.
type EdgarConfig struct {
	BaseURL      string `toml:"base_url"`      // www.sec.gov archive host
	DataURL      string `toml:"data_url"`      // data.sec.gov submissions host
	UserAgent    string `toml:"user_agent"`
	RateLimit    int    `toml:"rate_limit"`
	Timeout      string `toml:"timeout"`
	LookbackDays int    `toml:"lookback_days"`
}

// GetTimeout parses and returns the timeout duration
func (c *EdgarConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// GetLookback returns the filing lookback window duration.
func (c *EdgarConfig) GetLookback() time.Duration {
	if c.LookbackDays <= 0 {
		return 365 * 24 * time.Hour
	}
	return time.Duration(c.LookbackDays) * 24 * time.Hour
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	Timeout        string `toml:"timeout"`
	MaxPromptChars int    `toml:"max_prompt_chars"`
}

// GetTimeout parses and returns the timeout duration
func (c *GeminiConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// GetMaxPromptChars returns the prompt size budget in characters.
// 128k chars approximates 32k tokens at 4 chars per token.
func (c *GeminiConfig) GetMaxPromptChars() int {
	if c.MaxPromptChars <= 0 {
		return 128000
	}
	return c.MaxPromptChars
}

// AnalyzerConfig holds worker pool and retry configuration.
type AnalyzerConfig struct {
	MaxConcurrent      int    `toml:"max_concurrent"`
	MaxAttempts        int    `toml:"max_attempts"`
	RetryBaseDelay     string `toml:"retry_base_delay"`
	StalenessThreshold string `toml:"staleness_threshold"`
	SweeperInterval    string `toml:"sweeper_interval"`
	PollInterval       string `toml:"poll_interval"`
}

// GetMaxConcurrent returns the processor pool size.
func (c *AnalyzerConfig) GetMaxConcurrent() int {
	if c.MaxConcurrent <= 0 {
		return 4
	}
	return c.MaxConcurrent
}

// GetMaxAttempts returns the total attempt budget per job, shared by
// in-place retries and staleness reclaims.
func (c *AnalyzerConfig) GetMaxAttempts() int {
	if c.MaxAttempts <= 0 {
		return 3
	}
	return c.MaxAttempts
}

// GetRetryBaseDelay returns the first backoff delay for transient failures.
func (c *AnalyzerConfig) GetRetryBaseDelay() time.Duration {
	d, err := time.ParseDuration(c.RetryBaseDelay)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// GetStalenessThreshold returns how long a job may sit in running before
// the sweeper considers its worker dead.
func (c *AnalyzerConfig) GetStalenessThreshold() time.Duration {
	d, err := time.ParseDuration(c.StalenessThreshold)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// GetSweeperInterval returns how often the sweeper scans for stale jobs.
func (c *AnalyzerConfig) GetSweeperInterval() time.Duration {
	d, err := time.ParseDuration(c.SweeperInterval)
	if err != nil {
		return time.Minute
	}
	return d
}

// GetPollInterval returns how long an idle processor waits before polling
// the queue again.
func (c *AnalyzerConfig) GetPollInterval() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Path: "data/catalyst",
		},
		Clients: ClientsConfig{
			Edgar: EdgarConfig{
				BaseURL:      "https://www.sec.gov",
				DataURL:      "https://data.sec.gov",
				UserAgent:    "Catalyst Research research@catalyst.dev",
				RateLimit:    10,
				Timeout:      "60s",
				LookbackDays: 365,
			},
			Gemini: GeminiConfig{
				Model:          "gemini-2.0-flash",
				Timeout:        "120s",
				MaxPromptChars: 128000,
			},
		},
		Analyzer: AnalyzerConfig{
			MaxConcurrent:      4,
			MaxAttempts:        3,
			RetryBaseDelay:     "2s",
			StalenessThreshold: "10m",
			SweeperInterval:    "1m",
			PollInterval:       "1s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CATALYST_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("CATALYST_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("CATALYST_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("CATALYST_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("CATALYST_DATA_PATH"); path != "" {
		config.Storage.Path = path
	}

	if ua := os.Getenv("CATALYST_EDGAR_USER_AGENT"); ua != "" {
		config.Clients.Edgar.UserAgent = ua
	}
}

// ResolveAPIKey resolves an API key from environment variables with a config fallback
func ResolveAPIKey(name string, fallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key": {"GEMINI_API_KEY", "CATALYST_GEMINI_API_KEY", "GOOGLE_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if fallback != "" {
		return fallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
