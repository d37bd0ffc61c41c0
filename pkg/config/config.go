package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Validation errors callers may want to match on.
var (
	ErrNoInput     = errors.New("input: a log file path is required")
	ErrNoOutputDir = errors.New("output_dir: an output directory is required")
)

// Load reads and validates a configuration file.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadDefault returns the default configuration with environment overrides
// applied. It is used when no config file is given.
func LoadDefault() (*Config, error) {
	cfg := DefaultConfig()
	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors and fills in defaults.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Input) == "" {
		return ErrNoInput
	}

	if err := validateOutputDir(cfg.OutputDir, cfg.Input); err != nil {
		return fmt.Errorf("output_dir: %w", err)
	}

	if err := validateLastSeen(&cfg.LastSeen); err != nil {
		return fmt.Errorf("last_seen: %w", err)
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

// validateOutputDir refuses directories whose removal would wipe something
// other than generated output: the working directory or any of its
// ancestors, and any directory holding the input. Paths are compared
// lexically, symlinks are not resolved.
func validateOutputDir(dir, input string) error {
	if strings.TrimSpace(dir) == "" {
		return ErrNoOutputDir
	}

	clean := filepath.Clean(dir)
	if clean == "." || clean == string(filepath.Separator) {
		return fmt.Errorf("refusing to recreate %q", dir)
	}

	absDir, err := filepath.Abs(clean)
	if err != nil {
		return fmt.Errorf("resolving %q: %w", dir, err)
	}

	if cwd, err := os.Getwd(); err == nil && contains(absDir, cwd) {
		return fmt.Errorf("refusing to recreate %q: it contains the working directory", dir)
	}

	if absInput, err := filepath.Abs(input); err == nil && contains(absDir, absInput) {
		return fmt.Errorf("refusing to recreate %q: it contains the input %s", dir, input)
	}

	return nil
}

// contains reports whether path is dir itself or lies inside it.
func contains(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

func validateLastSeen(ls *LastSeenConfig) error {
	switch ls.Missing {
	case "":
		ls.Missing = DefaultMissing
	case MissingSkip, MissingBlank:
		// Valid
	default:
		return fmt.Errorf("invalid missing policy %q (must be skip or blank)", ls.Missing)
	}
	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	wh.Token = expandEnvVar(wh.Token)

	if wh.Trigger != "" {
		switch wh.Trigger {
		case WebhookTriggerOnIssues, WebhookTriggerAlways, WebhookTriggerNever:
			// Valid
		default:
			return fmt.Errorf("invalid trigger %q (must be on_issues, always, or never)", wh.Trigger)
		}
	} else {
		wh.Trigger = WebhookTriggerOnIssues
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}
