package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the server and the CLI.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowedOrigins"`
	MaxUploadBytes  int64         `yaml:"maxUploadBytes"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// StorageConfig locates the SQLite database for presets and run history.
type StorageConfig struct {
	DBPath     string `yaml:"dbPath"`
	RecordRuns bool   `yaml:"recordRuns"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// AnalysisConfig configures the optional language-model analysis.
type AnalysisConfig struct {
	APIKey  string        `yaml:"apiKey"`
	BaseURL string        `yaml:"baseURL"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

// Enabled reports whether an API key is configured.
func (a AnalysisConfig) Enabled() bool {
	return strings.TrimSpace(a.APIKey) != ""
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SPECTRA_CONFIG")
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			AllowedOrigins:  []string{"*"},
			MaxUploadBytes:  32 << 20,
			RequestTimeout:  2 * time.Minute,
			GracefulTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			DBPath:     "spectra.sqlite3",
			RecordRuns: true,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Analysis: AnalysisConfig{
			BaseURL: "https://openrouter.ai/api/v1",
			Model:   "openai/gpt-4o-mini",
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("invalid maxUploadBytes %d", c.Server.MaxUploadBytes)
	}
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("invalid requestTimeout %s", c.Server.RequestTimeout)
	}
	if strings.TrimSpace(c.Storage.DBPath) == "" {
		return errors.New("storage dbPath is empty")
	}
	return nil
}

// ParseOrigins splits a comma-separated origin list. "*" allows all.
func ParseOrigins(s string) []string {
	if strings.TrimSpace(s) == "*" {
		return []string{"*"}
	}
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SPECTRA_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SPECTRA_ALLOWED_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = ParseOrigins(v)
	}
	if v := os.Getenv("SPECTRA_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Server.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("SPECTRA_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.RequestTimeout = d
		}
	}
	if v := os.Getenv("SPECTRA_GRACEFUL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.GracefulTimeout = d
		}
	}
	if v := os.Getenv("SPECTRA_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("SPECTRA_RECORD_RUNS"); v != "" {
		cfg.Storage.RecordRuns = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.Analysis.APIKey = v
	}
	if v := os.Getenv("OPENROUTER_BASE_URL"); v != "" {
		cfg.Analysis.BaseURL = v
	}
	if v := os.Getenv("OPENROUTER_MODEL"); v != "" {
		cfg.Analysis.Model = v
	}
	if v := os.Getenv("SPECTRA_ANALYSIS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Analysis.Timeout = d
		}
	}
}
