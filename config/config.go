// Package config loads the service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Http     HttpConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	ML       MLConfig       `yaml:"ml"`
	Database DatabaseConfig `yaml:"database"`
	UI       UIConfig       `yaml:"ui"`
}

type HttpConfig struct {
	Port           int           `yaml:"port"`
	Timeout        time.Duration `yaml:"timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// MLConfig points at the two read-only artifacts loaded at startup.
type MLConfig struct {
	ModelType    string `yaml:"model_type"`
	ModelPath    string `yaml:"model_path"`
	EncodersPath string `yaml:"encoders_path"`
	CacheSize    int    `yaml:"cache_size"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type UIConfig struct {
	DefaultLanguage string `yaml:"default_language"`
}

func Default() *Config {
	return &Config{
		Http: HttpConfig{
			Port:           8501,
			Timeout:        30 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		ML: MLConfig{
			ModelType:    "logistic_regression",
			ModelPath:    "./artifacts/heart_model.json",
			EncodersPath: "./artifacts/label_encoders.json",
			CacheSize:    1024,
		},
		Database: DatabaseConfig{
			Path: "./data/content.db",
		},
		UI: UIConfig{
			DefaultLanguage: "th",
		},
	}
}

// Load decodes path over the defaults, so a partial file is valid.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config := Default()
	if err := yaml.NewDecoder(file).Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535")
	}
	if c.Http.Timeout < time.Second {
		return fmt.Errorf("http.timeout must be at least 1s")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("log.format must be one of: json, text")
	}

	if c.ML.ModelType == "" {
		return fmt.Errorf("ml.model_type is required")
	}
	if c.ML.ModelPath == "" {
		return fmt.Errorf("ml.model_path is required")
	}
	if c.ML.EncodersPath == "" {
		return fmt.Errorf("ml.encoders_path is required")
	}
	if c.ML.CacheSize < 0 {
		return fmt.Errorf("ml.cache_size must not be negative")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.UI.DefaultLanguage {
	case "th", "en":
	default:
		return fmt.Errorf("ui.default_language must be one of: th, en")
	}
	return nil
}
