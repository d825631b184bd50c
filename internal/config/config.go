package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted by DATA_BACKEND.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

type Config struct {
	// HTTP Server
	Port string

	// Storage
	DataBackend    string
	SQLiteDBPath   string
	MemorySeedFile string

	// AMQP, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export, memory exporter when GoogleSpreadsheetID is empty
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Worker
	ExportRetryAttempts int
	ExportRetryDelay    time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:    getEnv("DATA_BACKEND", BackendMemory),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/presupuesto.db"),
		MemorySeedFile: getEnv("MEMORY_SEED_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "presupuesto"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "month_closed"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Meses"),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),

		ExportRetryAttempts: getEnvInt("EXPORT_RETRY_ATTEMPTS", 3),
		ExportRetryDelay:    getEnvDuration("EXPORT_RETRY_DELAY", 2*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "INFO"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns an error listing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendMemory, BackendSQLite}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleSpreadsheetID != "" {
		if strings.TrimSpace(c.GoogleSheetName) == "" {
			errors = append(errors, "Google Sheet name is required when GOOGLE_SPREADSHEET_ID is set")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.ExportRetryAttempts < 1 || c.ExportRetryAttempts > 10 {
		errors = append(errors, fmt.Sprintf("invalid export retry attempts %d: must be between 1 and 10", c.ExportRetryAttempts))
	}
	if c.ExportRetryDelay < 100*time.Millisecond || c.ExportRetryDelay > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid export retry delay %v: must be between 100ms and 5m", c.ExportRetryDelay))
	}

	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be DEBUG, INFO, WARN or ERROR", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
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
