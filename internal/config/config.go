package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"github.com/zalando/go-keyring"

	"github.com/vtstudio/transcript-studio/pkg/log"
)

// Config holds all application configuration.
// Supports environment variables with sensible defaults.
//
// Environment Variables:
// Backend:
// - STUDIO_BACKEND_URL: transcription backend base URL (default: http://localhost:8001)
// - STUDIO_API_KEY: backend API key; falls back to the OS keyring entry
// - STUDIO_TIMEOUT: request timeout in seconds (default: 30)
// - STUDIO_POLL_INTERVAL: job status poll interval in seconds (default: 2)
//
// Storage:
// - STUDIO_DATA_DIR: data directory (default: ~/.transcript-studio)
// - STUDIO_EXPORT_DIR: directory for exported files (default: current directory)
//
// Cleanup:
// - STUDIO_CLEANUP_CRON: purge schedule (default: @daily)
// - STUDIO_HISTORY_TTL_HOURS: history/audio cache retention (default: 720)
//
// Logging:
// - STUDIO_LOG_LEVEL: debug/info/warn/error (default: info)
// - STUDIO_LOG_FILE: log file path (default: <data dir>/studio.log)

const keyringService = "transcript-studio"

type Config struct {
	Backend BackendConfig `json:"backend"`
	Storage StorageConfig `json:"storage"`
	Cleanup CleanupConfig `json:"cleanup"`
	Logging LoggingConfig `json:"logging"`
}

// BackendConfig holds the configuration for the transcription backend client.
type BackendConfig struct {
	BaseURL             string `json:"base_url"`
	APIKey              string `json:"-"`
	TimeoutSeconds      int    `json:"timeout_seconds"`
	PollIntervalSeconds int    `json:"poll_interval_seconds"`
}

// StorageConfig holds local data locations.
type StorageConfig struct {
	DataDir   string `json:"data_dir"`
	ExportDir string `json:"export_dir"`
}

// HistoryDBPath is the sqlite file backing the recent-jobs history.
func (c StorageConfig) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// AudioCacheDir holds prefetched audio tracks.
func (c StorageConfig) AudioCacheDir() string {
	return filepath.Join(c.DataDir, "audio-cache")
}

// CleanupConfig holds the purge schedule.
type CleanupConfig struct {
	CronExpr string `json:"cron_expr"`
	TTLHours int    `json:"ttl_hours"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment
// variables and options.
func NewFromEnv(opts ...Option) (*Config, error) {
	dataDir := getEnvString("STUDIO_DATA_DIR", defaultDataDir())

	config := &Config{
		Backend: BackendConfig{
			BaseURL:             getEnvString("STUDIO_BACKEND_URL", "http://localhost:8001"),
			APIKey:              resolveAPIKey(),
			TimeoutSeconds:      getEnvInt("STUDIO_TIMEOUT", 30),
			PollIntervalSeconds: getEnvInt("STUDIO_POLL_INTERVAL", 2),
		},
		Storage: StorageConfig{
			DataDir:   dataDir,
			ExportDir: getEnvString("STUDIO_EXPORT_DIR", "."),
		},
		Cleanup: CleanupConfig{
			CronExpr: getEnvString("STUDIO_CLEANUP_CRON", "@daily"),
			TTLHours: getEnvInt("STUDIO_HISTORY_TTL_HOURS", 720),
		},
		Logging: LoggingConfig{
			Level: getEnvString("STUDIO_LOG_LEVEL", "info"),
			File:  getEnvString("STUDIO_LOG_FILE", filepath.Join(dataDir, "studio.log")),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("STUDIO_BACKEND_URL is required")
	}
	if c.Backend.PollIntervalSeconds <= 0 {
		return fmt.Errorf("STUDIO_POLL_INTERVAL must be positive")
	}
	return nil
}

// resolveAPIKey prefers the environment, then the OS keyring. The key is
// optional; a local backend runs without auth.
func resolveAPIKey() string {
	if key := os.Getenv("STUDIO_API_KEY"); key != "" {
		return key
	}

	username := systemUser()
	key, err := keyring.Get(keyringService, username)
	if err != nil {
		if err != keyring.ErrNotFound {
			log.Debug("Keyring lookup failed: %v", err)
		}
		return ""
	}
	return key
}

// StoreAPIKey saves the backend API key in the OS keyring.
func StoreAPIKey(key string) error {
	if err := keyring.Set(keyringService, systemUser(), key); err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}
	return nil
}

func systemUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "default"
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".transcript-studio"
	}
	return filepath.Join(home, ".transcript-studio")
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
