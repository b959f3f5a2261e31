package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted by DATA_BACKEND.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// File backend
	DatasetPath  string
	DatasetSheet string
	DatasetWatch bool

	// Periodic reload for any backend; zero disables it.
	DatasetRefreshInterval time.Duration

	// SQLite backend
	SQLiteDBPath string

	// Google Sheets backend
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Chart cache
	ChartCacheSize int
	ChartCacheTTL  time.Duration

	// Middleware
	RateLimitRPM   int
	TrustedProxies []string

	// Logging
	LogLevel  string
	LogFormat string

	// Render the load error as a page instead of exiting.
	ServeLoadErrors bool
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		DataBackend: getEnv("DATA_BACKEND", BackendFile),

		DatasetPath:  getEnv("DATASET_PATH", "./data/day.csv"),
		DatasetSheet: getEnv("DATASET_SHEET", ""),
		DatasetWatch: getEnvBool("DATASET_WATCH", false),

		DatasetRefreshInterval: getEnvDuration("DATASET_REFRESH_INTERVAL", 0),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/bikeshare.db"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", "day"),

		ChartCacheSize: getEnvInt("CHART_CACHE_SIZE", 256),
		ChartCacheTTL:  getEnvDuration("CHART_CACHE_TTL", 10*time.Minute),

		RateLimitRPM:   getEnvInt("RATE_LIMIT_RPM", 120),
		TrustedProxies: getEnvList("TRUSTED_PROXIES"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		ServeLoadErrors: getEnvBool("SERVE_LOAD_ERRORS", false),
	}
}

// Addr returns the listen address for Port.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case BackendFile:
		if c.DatasetPath == "" {
			errors = append(errors, "dataset path cannot be empty when using file backend")
		} else {
			ext := strings.ToLower(filepath.Ext(c.DatasetPath))
			if ext != ".csv" && ext != ".xlsx" {
				errors = append(errors, fmt.Sprintf("invalid dataset path '%s': must end in .csv or .xlsx", c.DatasetPath))
			}
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if _, err := os.Stat(c.SQLiteDBPath); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("SQLite database does not exist: %s (run bikeshare-import first)", c.SQLiteDBPath))
		}
	case BackendSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s %s]",
			c.DataBackend, BackendFile, BackendSQLite, BackendSheets))
	}

	if c.DatasetWatch && c.DataBackend != BackendFile {
		errors = append(errors, "DATASET_WATCH is only supported with the file backend")
	}

	if c.DatasetRefreshInterval != 0 && c.DatasetRefreshInterval < 10*time.Second {
		errors = append(errors, fmt.Sprintf("invalid dataset refresh interval %v: must be 0 or at least 10s", c.DatasetRefreshInterval))
	}

	if c.ChartCacheSize < 0 {
		errors = append(errors, fmt.Sprintf("invalid chart cache size %d: must not be negative", c.ChartCacheSize))
	}
	if c.ChartCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid chart cache TTL %v: must be at least 1 second", c.ChartCacheTTL))
	}

	if c.RateLimitRPM < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitRPM))
	}
	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy CIDR '%s'", cidr))
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
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

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
