package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ProfilePath points at an .hcl profile file or a directory of
	// them. Empty means built-in defaults.
	ProfilePath string

	// Workdir is the output directory root; the transformation log is
	// written under it.
	Workdir string

	// EngineName selects the registered timing engine.
	EngineName string

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and applies fallbacks.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.EngineName == "" {
		return nil, errors.New("EngineName is a required configuration field and cannot be empty")
	}
	if cfg.Workdir == "" {
		cfg.Workdir = "."
	}
	return &cfg, nil
}
