// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Alert and insight store backends.
const (
	BackendBigQuery = "bigquery"
	BackendSQLite   = "sqlite"
)

type Config struct {
	// HTTP server
	Port     string
	LogLevel string

	// Google Cloud
	GCPProjectID  string
	BQDataset     string
	TaxDocsBucket string

	// Alert/insight store
	AlertBackend string
	SQLiteDBPath string

	// AMQP (optional; empty URL disables alert events)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Narrative service
	GeminiModel      string
	NarrativeTimeout time.Duration

	DuplicateScanTimeout time.Duration

	// Background jobs
	JobWorkers int
	JobBuffer  int

	// Notion (optional)
	NotionToken        string
	NotionInsightsDBID string
	NotionAlertsDBID   string
}

// Load reads an optional .env file and then the environment. Variables
// already set in the environment win over the file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		GCPProjectID:  getEnv("GCP_PROJECT_ID", ""),
		BQDataset:     getEnv("BQ_DATASET", "finance"),
		TaxDocsBucket: getEnv("TAX_DOCS_BUCKET", ""),

		AlertBackend: getEnv("ALERT_BACKEND", BackendBigQuery),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/analytics.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finance_analytics"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "risk_alerts"),

		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		NarrativeTimeout: getEnvDuration("NARRATIVE_TIMEOUT", 15*time.Second),

		DuplicateScanTimeout: getEnvDuration("DUPLICATE_SCAN_TIMEOUT", 5*time.Second),

		JobWorkers: getEnvInt("JOB_WORKERS", 5),
		JobBuffer:  getEnvInt("JOB_BUFFER", 100),

		NotionToken:        getEnv("NOTION_TOKEN", ""),
		NotionInsightsDBID: getEnv("NOTION_INSIGHTS_DB_ID", ""),
		NotionAlertsDBID:   getEnv("NOTION_ALERTS_DB_ID", ""),
	}
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if c.GCPProjectID == "" {
		errs = append(errs, "GCP_PROJECT_ID is required")
	}
	if c.BQDataset == "" {
		errs = append(errs, "BQ_DATASET cannot be empty")
	}
	if c.TaxDocsBucket == "" {
		errs = append(errs, "TAX_DOCS_BUCKET is required")
	}

	switch c.AlertBackend {
	case BackendBigQuery:
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid alert backend '%s': must be one of [%s %s]", c.AlertBackend, BackendBigQuery, BackendSQLite))
	}

	if c.AMQPURL != "" {
		if parsed, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsed.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.NarrativeTimeout < time.Second || c.NarrativeTimeout > 2*time.Minute {
		errs = append(errs, fmt.Sprintf("invalid narrative timeout %v: must be between 1s and 2m", c.NarrativeTimeout))
	}
	if c.DuplicateScanTimeout < 100*time.Millisecond || c.DuplicateScanTimeout > time.Minute {
		errs = append(errs, fmt.Sprintf("invalid duplicate scan timeout %v: must be between 100ms and 1m", c.DuplicateScanTimeout))
	}

	if c.JobWorkers < 1 || c.JobWorkers > 64 {
		errs = append(errs, fmt.Sprintf("invalid job workers %d: must be between 1 and 64", c.JobWorkers))
	}
	if c.JobBuffer < 1 || c.JobBuffer > 10000 {
		errs = append(errs, fmt.Sprintf("invalid job buffer %d: must be between 1 and 10000", c.JobBuffer))
	}

	if (c.NotionInsightsDBID != "" || c.NotionAlertsDBID != "") && c.NotionToken == "" {
		errs = append(errs, "NOTION_TOKEN is required when a Notion database is configured")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// AMQPEnabled reports whether alert events should be published.
func (c *Config) AMQPEnabled() bool {
	return c.AMQPURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
