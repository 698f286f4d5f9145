package config

import "opsdeck/internal/logging"

// LoggingConfig configures file logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`      // debug, info, warn, error
	Format     string          `yaml:"format"`     // json, text
	DebugMode  bool            `yaml:"debug_mode"` // Master toggle - false = no log files
	Categories map[string]bool `yaml:"categories"` // Per-category toggles
}

// Settings converts the section for logging.Initialize.
func (c LoggingConfig) Settings() logging.Config {
	return logging.Config{
		DebugMode:  c.DebugMode,
		Categories: c.Categories,
		Level:      c.Level,
		Format:     c.Format,
	}
}
