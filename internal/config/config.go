// Package config handles excelmemory configuration from a YAML file with
// defaults for everything, so a missing file is never an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all excelmemory configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Capture  CaptureConfig  `yaml:"capture"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LLMConfig struct {
	Provider     string `yaml:"provider"` // "claude-cli", "anthropic", "ollama", "" (disabled)
	Model        string `yaml:"model"`
	AnthropicKey string `yaml:"anthropic_key"`
	OllamaURL    string `yaml:"ollama_url"`
	OllamaModel  string `yaml:"ollama_model"`
}

type CaptureConfig struct {
	// DefaultRatio is the compression ratio used when a summary request
	// doesn't specify one.
	DefaultRatio float64 `yaml:"default_ratio"`
	// MaxSummaryBytes caps how much transcript text is fed to the
	// summarizer; pairwise sentence comparison is quadratic, so the bound
	// lives out here instead of inside the core.
	MaxSummaryBytes int `yaml:"max_summary_bytes"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37707,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Capture: CaptureConfig{
			DefaultRatio:    0.3,
			MaxSummaryBytes: 512 * 1024,
		},
	}
}

// DefaultPath returns ~/.excelmemory/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".excelmemory", "config.yaml"), nil
}

// Load reads a YAML config file, layering it over Default(). A missing
// file yields the defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Bind == "" {
		c.Server.Bind = "127.0.0.1"
	}
	if c.Server.Port <= 0 {
		c.Server.Port = 37707
	}
	if c.Capture.DefaultRatio <= 0 || c.Capture.DefaultRatio > 1 {
		c.Capture.DefaultRatio = 0.3
	}
	if c.Capture.MaxSummaryBytes <= 0 {
		c.Capture.MaxSummaryBytes = 512 * 1024
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
