// Package config loads opsdeck settings from .opsdeck/config.yaml.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"opsdeck/internal/contract"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the workspace-relative location of the config file.
var DefaultPath = filepath.Join(".opsdeck", "config.yaml")

// Config holds all opsdeck configuration.
type Config struct {
	// Server root checked when no path argument is given
	ServerRoot string `yaml:"server_root"`

	Contract ContractConfig `yaml:"contract"`
	History  HistoryConfig  `yaml:"history"`
	Watch    WatchConfig    `yaml:"watch"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ContractConfig names the entrypoints and scripts a server root must provide.
type ContractConfig struct {
	APIEntrypoint    string   `yaml:"api_entrypoint"`
	WorkerEntrypoint string   `yaml:"worker_entrypoint"`
	Manifest         string   `yaml:"manifest"`
	Scripts          []string `yaml:"scripts"`
}

// HistoryConfig configures the check run database.
type HistoryConfig struct {
	DatabasePath string `yaml:"database_path"`
	Retention    string `yaml:"retention"` // runs older than this are pruned; empty keeps everything
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	c := contract.DefaultContract()
	return &Config{
		ServerRoot: ".",
		Contract: ContractConfig{
			APIEntrypoint:    c.APIEntrypoint,
			WorkerEntrypoint: c.WorkerEntrypoint,
			Manifest:         c.Manifest,
			Scripts:          c.Scripts,
		},
		History: HistoryConfig{
			DatabasePath: filepath.Join(".opsdeck", "history.db"),
			Retention:    "720h",
		},
		Watch: WatchConfig{
			Debounce: "300ms",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
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

// Validate checks durations and the contract section.
func (c *Config) Validate() error {
	if _, err := parseDuration(c.History.Retention); err != nil {
		return fmt.Errorf("history.retention: %w", err)
	}
	if _, err := parseDuration(c.Watch.Debounce); err != nil {
		return fmt.Errorf("watch.debounce: %w", err)
	}
	return c.ContractSpec().Validate()
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if root := os.Getenv("OPSDECK_SERVER_ROOT"); root != "" {
		c.ServerRoot = root
	}
	if path := os.Getenv("OPSDECK_DB"); path != "" {
		c.History.DatabasePath = path
	}
	if level := os.Getenv("OPSDECK_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// ContractSpec converts the contract section to a contract.Contract.
func (c *Config) ContractSpec() contract.Contract {
	scripts := make([]string, len(c.Contract.Scripts))
	copy(scripts, c.Contract.Scripts)
	return contract.Contract{
		APIEntrypoint:    c.Contract.APIEntrypoint,
		WorkerEntrypoint: c.Contract.WorkerEntrypoint,
		Manifest:         c.Contract.Manifest,
		Scripts:          scripts,
	}
}

// GetRetention returns the history retention window; zero keeps everything.
func (c *Config) GetRetention() time.Duration {
	d, _ := parseDuration(c.History.Retention)
	return d
}

// GetDebounce returns the watch debounce interval.
func (c *Config) GetDebounce() time.Duration {
	d, err := parseDuration(c.Watch.Debounce)
	if err != nil || d == 0 {
		return 300 * time.Millisecond
	}
	return d
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}
