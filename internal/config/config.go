// Package config provides configuration loading for the statement extractor.
// Supports YAML files, a .env file, and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the statement extractor.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Extraction    ExtractionConfig    `yaml:"extraction"`
	Raster        RasterConfig        `yaml:"raster"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"` // shorter than WriteTimeout so a 504 can still be written
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxUploadBytes   int64         `yaml:"max_upload_bytes"`
}

// ExtractionConfig holds structured-extraction service settings.
type ExtractionConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	PageModel    string        `yaml:"page_model"`
	SummaryModel string        `yaml:"summary_model"`
	Temperature  float64       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
	// Workers bounds concurrent extraction calls per request. 0 means runtime.NumCPU().
	Workers             int           `yaml:"workers"`
	HoldingsMaxAttempts int           `yaml:"holdings_max_attempts"`
	HoldingsBackoffUnit time.Duration `yaml:"holdings_backoff_unit"`
}

// RasterConfig holds PDF rasterization settings.
type RasterConfig struct {
	Quality  int     `yaml:"quality"`
	DPI      float64 `yaml:"dpi"`
	MaxPages int     `yaml:"max_pages"` // 0 = unlimited
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	ServiceName string `yaml:"service_name"`
}

// Load reads configuration from a YAML file and applies environment overrides.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8000,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     10 * time.Minute,
			RequestTimeout:   9*time.Minute + 30*time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxUploadBytes:   32 << 20,
		},
		Extraction: ExtractionConfig{
			BaseURL:             "https://api.openai.com/v1",
			PageModel:           "gpt-4o",
			SummaryModel:        "gpt-4o-mini",
			Temperature:         0,
			Timeout:             2 * time.Minute,
			Workers:             0,
			HoldingsMaxAttempts: 5,
			HoldingsBackoffUnit: 5 * time.Second,
		},
		Raster: RasterConfig{
			Quality:  85,
			DPI:      200,
			MaxPages: 0,
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogFormat:   "json",
			ServiceName: "statement-extractor",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}

	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("invalid request_timeout: %s", c.Server.RequestTimeout)
	}

	if c.Server.WriteTimeout > 0 && c.Server.RequestTimeout >= c.Server.WriteTimeout {
		return fmt.Errorf("request_timeout (%s) must be shorter than write_timeout (%s)", c.Server.RequestTimeout, c.Server.WriteTimeout)
	}

	if c.Extraction.BaseURL == "" {
		return fmt.Errorf("extraction base_url is required")
	}

	if c.Extraction.PageModel == "" || c.Extraction.SummaryModel == "" {
		return fmt.Errorf("extraction page_model and summary_model are required")
	}

	if c.Extraction.Workers < 0 {
		return fmt.Errorf("invalid workers: %d", c.Extraction.Workers)
	}

	// structured extraction is decoded greedily
	if c.Extraction.Temperature != 0 {
		return fmt.Errorf("extraction temperature must be 0, got %g", c.Extraction.Temperature)
	}

	if c.Extraction.HoldingsMaxAttempts < 1 {
		return fmt.Errorf("holdings_max_attempts must be at least 1")
	}

	if c.Raster.Quality < 1 || c.Raster.Quality > 100 {
		return fmt.Errorf("raster quality must be between 1 and 100, got %d", c.Raster.Quality)
	}

	if c.Raster.DPI <= 0 {
		return fmt.Errorf("raster dpi must be positive")
	}

	if c.Observability.LogFormat != "json" && c.Observability.LogFormat != "console" {
		return fmt.Errorf("invalid log format: %s", c.Observability.LogFormat)
	}

	return nil
}

// PoolSize returns the number of concurrent extraction calls allowed per request.
func (c *Config) PoolSize() int {
	if c.Extraction.Workers > 0 {
		return c.Extraction.Workers
	}
	return runtime.NumCPU()
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Extraction.APIKey = v
	}

	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Extraction.BaseURL = v
	}

	if v := os.Getenv("PAGE_MODEL"); v != "" {
		cfg.Extraction.PageModel = v
	}

	if v := os.Getenv("SUMMARY_MODEL"); v != "" {
		cfg.Extraction.SummaryModel = v
	}

	if v := os.Getenv("EXTRACT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Extraction.Workers = n
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}
