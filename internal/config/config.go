// Package config handles application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Completion CompletionConfig `yaml:"completion"`
	Engine     EngineConfig     `yaml:"engine"`
	Storage    StorageConfig    `yaml:"storage"`
}

// ServerConfig holds server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// CompletionConfig holds completion service settings.
type CompletionConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
	Mock        bool          `yaml:"mock"`
}

// EngineConfig holds turn engine policy settings.
type EngineConfig struct {
	MaxAutoDepth int           `yaml:"max_auto_depth"`
	DebateDelay  time.Duration `yaml:"debate_delay"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8183,
		},
		Completion: CompletionConfig{
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			Timeout:     2 * time.Minute,
			MaxRetries:  2,
		},
		Engine: EngineConfig{
			MaxAutoDepth: 2,
			DebateDelay:  time.Second,
		},
		Storage: StorageConfig{
			Path: "", // empty = storage.DefaultDBPath()
		},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from a specific path.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file, proceed with defaults
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Apply .env overrides if file exists
	if env, err := LoadEnv(".env"); err == nil {
		ApplyEnvOverrides(cfg, env)
	}

	return cfg, nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo saves the configuration to a specific path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "council.yaml"
	}
	return filepath.Join(home, ".council", "config.yaml")
}

// GenerateExample generates an example configuration file.
func GenerateExample() string {
	example := `# council configuration file
# Place this file at ~/.council/config.yaml

server:
  port: 8183

completion:
  endpoint: https://api.openai.com/v1/chat/completions
  model: gpt-4o-mini
  api_key: ""            # or COMPLETION_API_KEY in .env
  temperature: 0.7
  timeout: 2m
  max_retries: 2
  mock: false            # true = simulated responses, no endpoint needed

engine:
  max_auto_depth: 2      # consecutive automatic debate rounds
  debate_delay: 1s       # delay before an automatic round starts

storage:
  path: ""               # empty = ~/.council/council.db
`
	return example
}
