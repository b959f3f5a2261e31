package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Port:           "8080",
		DataBackend:    BackendFile,
		DatasetPath:    "./data/day.csv",
		ChartCacheSize: 256,
		ChartCacheTTL:  10 * time.Minute,
		RateLimitRPM:   120,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

func TestConfig_Validate(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bikeshare.db")
	if err := os.WriteFile(dbPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid file backend config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "valid xlsx dataset with watch",
			mutate: func(c *Config) {
				c.DatasetPath = "/srv/data/day.XLSX"
				c.DatasetWatch = true
			},
			wantErr: false,
		},
		{
			name: "valid sqlite backend config",
			mutate: func(c *Config) {
				c.DataBackend = BackendSQLite
				c.SQLiteDBPath = dbPath
			},
			wantErr: false,
		},
		{
			name: "valid sheets backend config",
			mutate: func(c *Config) {
				c.DataBackend = BackendSheets
				c.GoogleSpreadsheetID = "123456789"
				c.GoogleSheetName = "day"
			},
			wantErr: false,
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid data backend",
			mutate:      func(c *Config) { c.DataBackend = "memory" },
			wantErr:     true,
			errorString: "invalid data backend 'memory': must be one of [file sqlite sheets]",
		},
		{
			name:        "dataset path with unsupported extension",
			mutate:      func(c *Config) { c.DatasetPath = "day.json" },
			wantErr:     true,
			errorString: "must end in .csv or .xlsx",
		},
		{
			name: "sqlite database missing",
			mutate: func(c *Config) {
				c.DataBackend = BackendSQLite
				c.SQLiteDBPath = filepath.Join(t.TempDir(), "missing.db")
			},
			wantErr:     true,
			errorString: "run bikeshare-import first",
		},
		{
			name: "sheets backend missing spreadsheet ID",
			mutate: func(c *Config) {
				c.DataBackend = BackendSheets
				c.GoogleSheetName = "day"
			},
			wantErr:     true,
			errorString: "Google Spreadsheet ID is required when using sheets backend",
		},
		{
			name: "watch needs file backend",
			mutate: func(c *Config) {
				c.DataBackend = BackendSheets
				c.GoogleSpreadsheetID = "123"
				c.GoogleSheetName = "day"
				c.DatasetWatch = true
			},
			wantErr:     true,
			errorString: "DATASET_WATCH is only supported with the file backend",
		},
		{
			name: "refresh interval for sheets",
			mutate: func(c *Config) {
				c.DataBackend = BackendSheets
				c.GoogleSpreadsheetID = "123"
				c.GoogleSheetName = "day"
				c.DatasetRefreshInterval = 5 * time.Minute
			},
			wantErr: false,
		},
		{
			name:        "refresh interval too short",
			mutate:      func(c *Config) { c.DatasetRefreshInterval = time.Second },
			wantErr:     true,
			errorString: "invalid dataset refresh interval 1s",
		},
		{
			name:        "chart cache TTL too small",
			mutate:      func(c *Config) { c.ChartCacheTTL = 10 * time.Millisecond },
			wantErr:     true,
			errorString: "invalid chart cache TTL",
		},
		{
			name:        "rate limit zero",
			mutate:      func(c *Config) { c.RateLimitRPM = 0 },
			wantErr:     true,
			errorString: "invalid rate limit 0",
		},
		{
			name:        "bad trusted proxy",
			mutate:      func(c *Config) { c.TrustedProxies = []string{"10.0.0.0/8", "nope"} },
			wantErr:     true,
			errorString: "invalid trusted proxy CIDR 'nope'",
		},
		{
			name:        "bad log level",
			mutate:      func(c *Config) { c.LogLevel = "loud" },
			wantErr:     true,
			errorString: "invalid log level 'loud'",
		},
		{
			name:        "bad log format",
			mutate:      func(c *Config) { c.LogFormat = "xml" },
			wantErr:     true,
			errorString: "invalid log format 'xml'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Config.Validate() error = %v, want substring %q", err, tt.errorString)
			}
		})
	}
}

func TestConfig_ValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.LogFormat = "xml"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "configuration validation failed:\n- ") {
		t.Errorf("unexpected prefix: %q", msg)
	}
	if strings.Count(msg, "\n- ") != 2 {
		t.Errorf("expected two problems, got %q", msg)
	}
}

func TestLoad(t *testing.T) {
	keys := []string{
		"PORT", "DATA_BACKEND", "DATASET_PATH", "DATASET_SHEET", "DATASET_WATCH", "DATASET_REFRESH_INTERVAL",
		"SQLITE_DB_PATH", "GOOGLE_SPREADSHEET_ID", "GOOGLE_SHEET_NAME",
		"CHART_CACHE_SIZE", "CHART_CACHE_TTL", "RATE_LIMIT_RPM", "TRUSTED_PROXIES",
		"LOG_LEVEL", "LOG_FORMAT", "SERVE_LOAD_ERRORS",
	}
	for _, k := range keys {
		t.Setenv(k, "")
	}

	t.Run("default values", func(t *testing.T) {
		cfg := Load()

		if cfg.Port != "8080" {
			t.Errorf("Load() Port = %v, want 8080", cfg.Port)
		}
		if cfg.DataBackend != BackendFile {
			t.Errorf("Load() DataBackend = %v, want file", cfg.DataBackend)
		}
		if cfg.DatasetPath != "./data/day.csv" {
			t.Errorf("Load() DatasetPath = %v, want ./data/day.csv", cfg.DatasetPath)
		}
		if cfg.DatasetWatch {
			t.Error("Load() DatasetWatch = true, want false")
		}
		if cfg.ChartCacheTTL != 10*time.Minute {
			t.Errorf("Load() ChartCacheTTL = %v, want 10m", cfg.ChartCacheTTL)
		}
		if cfg.TrustedProxies != nil {
			t.Errorf("Load() TrustedProxies = %v, want nil", cfg.TrustedProxies)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("DATA_BACKEND", "sheets")
		t.Setenv("DATASET_WATCH", "true")
		t.Setenv("GOOGLE_SPREADSHEET_ID", "abc")
		t.Setenv("CHART_CACHE_SIZE", "16")
		t.Setenv("CHART_CACHE_TTL", "45s")
		t.Setenv("DATASET_REFRESH_INTERVAL", "15m")
		t.Setenv("TRUSTED_PROXIES", " 10.0.0.0/8, ,192.168.0.0/16 ")
		t.Setenv("SERVE_LOAD_ERRORS", "1")

		cfg := Load()

		if cfg.Port != "9090" || cfg.Addr() != ":9090" {
			t.Errorf("Load() Port = %v, want 9090", cfg.Port)
		}
		if cfg.DataBackend != BackendSheets || cfg.GoogleSpreadsheetID != "abc" || cfg.GoogleSheetName != "day" {
			t.Errorf("Load() sheets settings = %q %q %q", cfg.DataBackend, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		}
		if !cfg.DatasetWatch || !cfg.ServeLoadErrors {
			t.Error("Load() bool settings not applied")
		}
		if cfg.ChartCacheSize != 16 || cfg.ChartCacheTTL != 45*time.Second {
			t.Errorf("Load() cache = %d %v", cfg.ChartCacheSize, cfg.ChartCacheTTL)
		}
		if cfg.DatasetRefreshInterval != 15*time.Minute {
			t.Errorf("Load() DatasetRefreshInterval = %v, want 15m", cfg.DatasetRefreshInterval)
		}
		if len(cfg.TrustedProxies) != 2 || cfg.TrustedProxies[1] != "192.168.0.0/16" {
			t.Errorf("Load() TrustedProxies = %v", cfg.TrustedProxies)
		}
	})

	t.Run("invalid environment variables use defaults", func(t *testing.T) {
		t.Setenv("CHART_CACHE_SIZE", "many")
		t.Setenv("CHART_CACHE_TTL", "soon")
		t.Setenv("DATASET_WATCH", "perhaps")

		cfg := Load()

		if cfg.ChartCacheSize != 256 {
			t.Errorf("Load() ChartCacheSize = %v, want 256", cfg.ChartCacheSize)
		}
		if cfg.ChartCacheTTL != 10*time.Minute {
			t.Errorf("Load() ChartCacheTTL = %v, want 10m", cfg.ChartCacheTTL)
		}
		if cfg.DatasetWatch {
			t.Error("Load() DatasetWatch = true, want default false")
		}
	})
}
