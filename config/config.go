package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultUserID     = "sentinel-review-web"
	defaultBatchDelay = 350 * time.Millisecond
)

// ConfigError reports required settings that were absent at startup. It is
// fatal: the service never runs with a partial engine configuration.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Missing, ", "))
}

// EngineConfig holds the settings for the external review engine. Built
// once at startup and injected into the engine client; nothing reads the
// environment after this point.
type EngineConfig struct {
	BaseURL string
	APIKey  string
	AppID   string
	UserID  string

	// Serverless marks restricted deployment targets where local
	// filesystem paths cannot be resolved.
	Serverless bool
}

type Config struct {
	Addr       string
	Engine     EngineConfig
	BatchDelay time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Addr: ":" + getEnv("PORT", "9000"),
		Engine: EngineConfig{
			BaseURL: os.Getenv("ENGINE_BASE_URL"),
			APIKey:  os.Getenv("ENGINE_API_KEY"),
			AppID:   os.Getenv("ENGINE_APP_ID"),
			UserID:  getEnv("ENGINE_USER_ID", defaultUserID),

			Serverless: os.Getenv("NETLIFY") != "" || os.Getenv("VERCEL") != "",
		},
		BatchDelay: batchDelayFromEnv(),
	}

	var missing []string
	if cfg.Engine.BaseURL == "" {
		missing = append(missing, "ENGINE_BASE_URL")
	}
	if cfg.Engine.APIKey == "" {
		missing = append(missing, "ENGINE_API_KEY")
	}
	if cfg.Engine.AppID == "" {
		missing = append(missing, "ENGINE_APP_ID")
	}
	if len(missing) > 0 {
		return nil, &ConfigError{Missing: missing}
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func batchDelayFromEnv() time.Duration {
	raw := os.Getenv("BATCH_SUBMIT_DELAY_MS")
	if raw == "" {
		return defaultBatchDelay
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms < 0 {
		return defaultBatchDelay
	}
	return time.Duration(ms) * time.Millisecond
}
