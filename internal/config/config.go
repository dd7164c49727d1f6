// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

// APIConfig points the client at the deal-negotiation backend.
type APIConfig struct {
	BaseURL  string        `yaml:"base_url"`  // env API_BASE_URL
	MockMode bool          `yaml:"mock_mode"` // env MOCK_MODE; rewrites known paths to the mock backend
	Timeout  time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type MockServerConfig struct {
	Port int `yaml:"port"`
}

type NegotiationConfig struct {
	MaxRounds       int    `yaml:"max_rounds"`
	DefaultStrategy string `yaml:"default_strategy"`
}

type Config struct {
	API         APIConfig         `yaml:"api"`
	Log         LogConfig         `yaml:"log"`
	MockServer  MockServerConfig  `yaml:"mock_server"`
	Negotiation NegotiationConfig `yaml:"negotiation"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the yaml file at path (optional: defaults apply when the
// file is absent), then applies .env / environment overrides.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// environment overrides
	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("MOCK_MODE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("parse MOCK_MODE: %w", err)
		}
		cfg.API.MockMode = b
	}

	// defaults
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "http://localhost:8000"
	}
	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.MockServer.Port <= 0 {
		cfg.MockServer.Port = 8000
	}
	if cfg.Negotiation.MaxRounds <= 0 {
		cfg.Negotiation.MaxRounds = 5
	}
	if cfg.Negotiation.DefaultStrategy == "" {
		cfg.Negotiation.DefaultStrategy = "balanced"
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
