package config

import (
	"os"
	"time"
)

// Default values for configuration.
const (
	DefaultInput          = "./history"
	DefaultOutputDir      = "./logs"
	DefaultMissing        = MissingSkip
	DefaultWebhookTimeout = 10 * time.Second
)

// Environment variable names.
const (
	EnvInput     = "THREADSPLIT_INPUT"
	EnvOutputDir = "THREADSPLIT_OUTPUT_DIR"
	EnvMissing   = "THREADSPLIT_MISSING"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Input:     DefaultInput,
		OutputDir: DefaultOutputDir,
		LastSeen: LastSeenConfig{
			Missing: DefaultMissing,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if input := os.Getenv(EnvInput); input != "" {
		c.Input = input
	}
	if dir := os.Getenv(EnvOutputDir); dir != "" {
		c.OutputDir = dir
	}
	if missing := os.Getenv(EnvMissing); missing != "" {
		c.LastSeen.Missing = MissingPolicy(missing)
	}
}
